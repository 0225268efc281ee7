package module

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
)

type stubModule struct {
	name        string
	initialized map[string]interface{}
	shutdownErr error
	healthErr   error
	shutdowns   *[]string
}

func (s *stubModule) Name() string        { return s.name }
func (s *stubModule) Version() string     { return "1.0.0" }
func (s *stubModule) Description() string { return "stub " + s.name }

func (s *stubModule) Initialize(_ context.Context, config map[string]interface{}, _ *zap.Logger) error {
	s.initialized = config
	return nil
}

func (s *stubModule) RegisterRoutes(router *gin.RouterGroup, _ *zap.Logger) error {
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, s.name) })
	return nil
}

func (s *stubModule) HealthCheck(context.Context) error { return s.healthErr }
func (s *stubModule) Shutdown(context.Context) error {
	if s.shutdowns != nil {
		*s.shutdowns = append(*s.shutdowns, s.name)
	}
	return s.shutdownErr
}

type stubFactory struct{ name string }

func (f stubFactory) CreateModule(deps Dependencies) (BaseModule, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &stubModule{name: f.name}, nil
}

func (f stubFactory) ModuleType() string { return f.name }

func TestManagerLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(zap.NewNop())
	a := &stubModule{name: "a"}
	b := &stubModule{name: "b", healthErr: errors.New("down")}
	require.NoError(t, m.RegisterModule("b", b))
	require.NoError(t, m.RegisterModule("a", a))
	assert.Error(t, m.RegisterModule("a", a))

	err := m.InitializeAll(context.Background(), map[string]interface{}{
		"a": map[string]interface{}{"limit": 4},
		"b": map[string]interface{}{"enabled": false},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"limit": 4}, a.initialized)
	assert.Nil(t, b.initialized)

	r := gin.New()
	require.NoError(t, m.RegisterRoutes(r.Group("/api"), zap.NewNop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/a/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/b/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	infos := m.ListModules()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.True(t, infos[0].Enabled)
	assert.False(t, infos[1].Enabled)

	health := m.HealthCheck(context.Background())
	assert.Len(t, health, 1)
	assert.NoError(t, health["a"])
}

func TestManagerShutdownCollectsErrors(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	m := NewManager(nil)
	require.NoError(t, m.RegisterModule("a", &stubModule{name: "a", shutdownErr: boom, shutdowns: &order}))
	require.NoError(t, m.RegisterModule("c", &stubModule{name: "c", shutdowns: &order}))
	require.NoError(t, m.RegisterModule("b", &stubModule{name: "b", shutdownErr: errors.New("late"), shutdowns: &order}))

	err := m.ShutdownAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "module a: boom")
	assert.Contains(t, err.Error(), "module b: late")
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestRegistryPopulate(t *testing.T) {
	r := NewModuleRegistry(nil)
	require.NoError(t, r.RegisterFactory(stubFactory{name: "site"}))
	require.NoError(t, r.RegisterFactory(stubFactory{name: "admin"}))
	assert.Error(t, r.RegisterFactory(stubFactory{name: "admin"}))
	assert.Equal(t, []string{"admin", "site"}, r.ListFactories())

	_, err := r.CreateModule("missing", Dependencies{})
	assert.Error(t, err)

	m := NewManager(nil)
	assert.Error(t, r.Populate(m, Dependencies{}))

	c, err := client.NewClient(client.Config{BaseURL: "http://localhost:3001/api"})
	require.NoError(t, err)
	m = NewManager(nil)
	require.NoError(t, r.Populate(m, Dependencies{Client: c}))
	infos := m.ListModules()
	require.Len(t, infos, 2)
	assert.Equal(t, "admin", infos[0].Name)
	assert.Equal(t, "site", infos[1].Name)
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vera-byte/vgo-ngo-admin/internal/views"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// backend 模拟后端接口
type backend struct {
	mu          sync.Mutex
	campaigns   []model.Record
	donations   []model.Record
	created     []byte
	contentType string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{
		campaigns: []model.Record{
			{"id": 1.0, "title": "Clean Water", "location": "Kenya", "isActive": true},
			{"id": 2.0, "title": "School Meals", "location": "Ghana", "isActive": false},
			{"id": 3.0, "title": "Clean Air", "location": "India", "isActive": true},
		},
		donations: []model.Record{
			{"id": 10.0, "donorName": "Ann", "amount": 100.0, "status": "completed"},
			{"id": 11.0, "donorName": "Bob", "amount": 50.0, "status": "pending"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			reply(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
			return
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "tok", "id": 1, "email": req.Email}})
	})
	mux.HandleFunc("POST /api/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("GET /api/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"totalCampaigns": 3, "totalRaised": 12500}})
	})
	mux.HandleFunc("GET /api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, map[string]any{"success": true, "data": b.campaigns})
	})
	mux.HandleFunc("GET /api/campaigns/public", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	})
	mux.HandleFunc("GET /api/campaigns/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, rec := range b.campaigns {
			if id, _ := rec.ID(); id == r.PathValue("id") {
				reply(w, http.StatusOK, map[string]any{"success": true, "data": rec})
				return
			}
		}
		reply(w, http.StatusNotFound, map[string]any{"success": false, "message": "Not found"})
	})
	mux.HandleFunc("POST /api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.created = body
		b.contentType = r.Header.Get("Content-Type")
		b.mu.Unlock()
		reply(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"id": 4}})
	})
	mux.HandleFunc("DELETE /api/campaigns/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		kept := b.campaigns[:0]
		for _, rec := range b.campaigns {
			if id, _ := rec.ID(); id != r.PathValue("id") {
				kept = append(kept, rec)
			}
		}
		b.campaigns = kept
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/donations", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, map[string]any{"success": true, "data": b.donations})
	})
	mux.HandleFunc("PATCH /api/donations/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, rec := range b.donations {
			if id, _ := rec.ID(); id == r.PathValue("id") {
				rec["status"] = body.Status
			}
		}
		reply(w, http.StatusOK, map[string]any{"success": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) campaignCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.campaigns)
}

// writeConfig 生成指向模拟后端的配置文件
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Join([]string{
		"api:",
		"  base_url: " + baseURL,
		"  timeout: 5",
		"token:",
		"  store: file",
		"  file: " + filepath.Join(dir, "session.json"),
		"views:",
		"  dir: " + filepath.Join(dir, "views"),
		"log:",
		"  level: error",
		"",
	}, "\n")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run 执行一次命令
func run(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func login(t *testing.T, cfgPath string) {
	t.Helper()
	_, err := run(t, cfgPath, "", "login", "--email", "admin@ngo.org", "--password", "secret")
	require.NoError(t, err)
}

func TestSessionCommands(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")

	out, err := run(t, cfgPath, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	_, err = run(t, cfgPath, "", "login", "--email", "admin@ngo.org", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error! status: 401")

	out, err = run(t, cfgPath, "secret\n", "login", "--email", "admin@ngo.org")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin@ngo.org")

	out, err = run(t, cfgPath, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin@ngo.org")

	out, err = run(t, cfgPath, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, cfgPath, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestStatsCommand(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	out, err := run(t, cfgPath, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "totalCampaigns")
	assert.Contains(t, out, "12,500")
}

func TestListCommand(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	t.Run("table", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "list", "campaigns")
		require.NoError(t, err)
		assert.Contains(t, out, "All Campaigns")
		assert.Contains(t, out, "3 items found")
		assert.Contains(t, out, "Clean Water")
	})

	t.Run("json with filter and search", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "list", "campaigns", "--filter", "isActive=true", "--search", "air", "--json")
		require.NoError(t, err)

		var listing views.Listing
		require.NoError(t, json.Unmarshal([]byte(out), &listing))
		assert.Equal(t, 1, listing.Total)
		require.Len(t, listing.Cells, 1)
		assert.Equal(t, "Clean Air", listing.Cells[0]["title"])
	})

	t.Run("paging", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "list", "campaigns", "--per-page", "2", "--page", "2", "--json")
		require.NoError(t, err)

		var listing views.Listing
		require.NoError(t, json.Unmarshal([]byte(out), &listing))
		assert.Equal(t, 2, listing.Page)
		assert.Equal(t, 2, listing.TotalPages)
		assert.Len(t, listing.Rows, 1)
	})

	t.Run("summaries", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "list", "donations")
		require.NoError(t, err)
		assert.Contains(t, out, "Total Raised: $100")
		assert.Contains(t, out, "Pending: 1")
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "list", "widgets")
		require.Error(t, err)
		assert.ErrorIs(t, err, views.ErrUnknownResource)
	})

	t.Run("bad filter pair", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "list", "campaigns", "--filter", "isActive")
		require.Error(t, err)
	})
}

func TestListBackendUnreachable(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")

	_, err := run(t, cfgPath, "", "list", "campaigns", "--base-url", "http://127.0.0.1:1/api")
	require.Error(t, err)
}

func TestGetCommand(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	out, err := run(t, cfgPath, "", "get", "campaigns", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Clean Water"`)

	_, err = run(t, cfgPath, "", "get", "campaigns", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestDeleteCommand(t *testing.T) {
	b, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	out, err := run(t, cfgPath, "n\n", "delete", "campaigns", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Are you sure you want to delete "Clean Water"?`)
	assert.Contains(t, out, "Cancelled")
	assert.Equal(t, 3, b.campaignCount())

	out, err = run(t, cfgPath, "yes\n", "delete", "campaigns", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted campaigns/1")
	assert.Equal(t, 2, b.campaignCount())

	out, err = run(t, cfgPath, "", "delete", "campaigns", "2", "--yes")
	require.NoError(t, err)
	assert.NotContains(t, out, "Are you sure")
	assert.Equal(t, 1, b.campaignCount())
}

func TestActionCommand(t *testing.T) {
	b, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	t.Run("view", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "action", "campaigns", "1", "view")
		require.NoError(t, err)
		assert.Contains(t, out, "/admin/campaigns/1")
	})

	t.Run("edit", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "action", "campaigns", "1", "edit")
		require.NoError(t, err)
		assert.Contains(t, out, "/admin/campaigns/edit/1")
	})

	t.Run("status action", func(t *testing.T) {
		out, err := run(t, cfgPath, "", "action", "donations", "11", "completed")
		require.NoError(t, err)
		assert.Contains(t, out, "done")

		b.mu.Lock()
		defer b.mu.Unlock()
		assert.Equal(t, "completed", b.donations[1]["status"])
	})

	t.Run("delete declined", func(t *testing.T) {
		out, err := run(t, cfgPath, "\n", "action", "campaigns", "3", "delete")
		require.NoError(t, err)
		assert.Contains(t, out, "Cancelled")
		assert.Equal(t, 3, b.campaignCount())
	})

	t.Run("delete confirmed", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "action", "campaigns", "3", "delete", "--yes")
		require.NoError(t, err)
		assert.Equal(t, 2, b.campaignCount())
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "action", "campaigns", "1", "archive")
		require.Error(t, err)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "action", "campaigns", "42", "view")
		require.Error(t, err)
	})
}

func TestCreateCommand(t *testing.T) {
	b, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	t.Run("fields", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "create", "campaigns", "--field", "title=Trees", "--field", "amount=500", "--field", "isActive=true")
		require.NoError(t, err)

		b.mu.Lock()
		defer b.mu.Unlock()
		assert.Equal(t, "application/json", b.contentType)
		assert.JSONEq(t, `{"title":"Trees","amount":500,"isActive":true}`, string(b.created))
	})

	t.Run("data from stdin", func(t *testing.T) {
		_, err := run(t, cfgPath, `{"title":"Books"}`, "create", "campaigns", "--data", "-")
		require.NoError(t, err)

		b.mu.Lock()
		defer b.mu.Unlock()
		assert.JSONEq(t, `{"title":"Books"}`, string(b.created))
	})

	t.Run("multipart with file", func(t *testing.T) {
		image := filepath.Join(t.TempDir(), "cover.png")
		require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))

		_, err := run(t, cfgPath, "", "create", "campaigns", "--field", "title=Trees", "--file", "image="+image)
		require.NoError(t, err)

		b.mu.Lock()
		defer b.mu.Unlock()
		assert.True(t, strings.HasPrefix(b.contentType, "multipart/form-data"))
		assert.Contains(t, string(b.created), "cover.png")
	})

	t.Run("no body", func(t *testing.T) {
		_, err := run(t, cfgPath, "", "create", "campaigns")
		require.Error(t, err)
	})
}

func TestSetStatusCommand(t *testing.T) {
	b, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")
	login(t, cfgPath)

	out, err := run(t, cfgPath, "", "set-status", "donations", "10", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "donations/10 is now failed")

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, "failed", b.donations[0]["status"])
}

func TestProbeCommand(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")

	out, err := run(t, cfgPath, "", "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "/api/campaigns/public")

	out, err = run(t, cfgPath, "", "probe", "/nowhere", "--json")
	require.Error(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, false, result["ok"])
	assert.Equal(t, float64(http.StatusNotFound), result["status"])
}

func TestViewsCommands(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")

	out, err := run(t, cfgPath, "", "views", "set", "campaigns", "items_per_page=5", "columns=title,location", "default_filters.isActive=true")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, float64(5), cfg["items_per_page"])
	assert.Equal(t, []any{"title", "location"}, cfg["columns"])
	assert.Equal(t, map[string]any{"isActive": "true"}, cfg["default_filters"])

	out, err = run(t, cfgPath, "", "views", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "title,location")

	_, err = run(t, cfgPath, "", "views", "set", "campaigns", "default_filters.status=open")
	require.Error(t, err)

	_, err = run(t, cfgPath, "", "views", "set", "campaigns", "enabled=false")
	require.NoError(t, err)
	login(t, cfgPath)
	_, err = run(t, cfgPath, "", "list", "campaigns")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")

	out, err = run(t, cfgPath, "", "views", "reset", "campaigns")
	require.NoError(t, err)
	assert.Contains(t, out, "View campaigns reset")
	_, err = run(t, cfgPath, "", "list", "campaigns")
	require.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	_, srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL+"/api")

	out, err := run(t, cfgPath, "", "config", "--base-url", "http://override/api")
	require.NoError(t, err)
	assert.Contains(t, out, `"base_url": "http://override/api"`)
	assert.NotContains(t, out, "redis_password")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"500", float64(500)},
		{"true", true},
		{"null", nil},
		{"Trees", "Trees"},
		{`"quoted"`, `"quoted"`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestBodyFlagsBuild(t *testing.T) {
	tests := []struct {
		name    string
		flags   bodyFlags
		wantErr bool
	}{
		{name: "empty", flags: bodyFlags{}, wantErr: true},
		{name: "data with fields", flags: bodyFlags{data: "x.json", fields: []string{"a=b"}}, wantErr: true},
		{name: "missing data file", flags: bodyFlags{data: filepath.Join(t.TempDir(), "none.json")}, wantErr: true},
		{name: "malformed field", flags: bodyFlags{fields: []string{"novalue"}}, wantErr: true},
		{name: "fields", flags: bodyFlags{fields: []string{"a=b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.build(strings.NewReader(""))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

func sampleToken() *model.AuthToken {
	return &model.AuthToken{
		Token:     "jwt",
		AdminID:   "1",
		Email:     "admin@ngo.org",
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	}
}

func exerciseStore(t *testing.T, store TokenStore) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := sampleToken()
	require.NoError(t, store.Set(ctx, want))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Clear(ctx))

	// nil 等同于清除
	require.NoError(t, store.Set(ctx, sampleToken()))
	require.NoError(t, store.Set(ctx, nil))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryTokenStore(t *testing.T) {
	exerciseStore(t, NewMemoryTokenStore())
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileTokenStore(path, ""))
}

func TestFileTokenStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	store := NewFileTokenStore(path, "adminToken")
	require.NoError(t, store.Set(context.Background(), sampleToken()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"theme": "dark"`)
	assert.Contains(t, string(data), `"adminToken"`)
	assert.Contains(t, string(data), `"expiresAt"`)
}

func TestFileTokenStoreCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"adminToken":"not-an-object"}`), 0o600))

	store := NewFileTokenStore(path, "")
	_, err := store.Get(context.Background())
	assert.Error(t, err)

	c := newTestClient(t, "http://localhost:1", WithTokenStore(store))
	assert.False(t, c.Session(context.Background()).Authenticated)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisTokenStore(rdb, "vgo-ngo", "")
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), sampleToken()))
	assert.True(t, mr.Exists("vgo-ngo:adminToken"))
	ttl := mr.TTL("vgo-ngo:adminToken")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl follows token expiry, got %s", ttl)

	mr.FastForward(2 * time.Hour)
	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTokenStoreExpiredTokenIsNotStored(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisTokenStore(rdb, "", "")
	expired := sampleToken()
	expired.ExpiresAt = time.Now().Add(-time.Second).UnixMilli()
	require.NoError(t, store.Set(context.Background(), expired))
	assert.False(t, mr.Exists("adminToken"))
}

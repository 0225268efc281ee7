package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

func TestLoginPersistsTokenWithFixedExpiry(t *testing.T) {
	var creds model.LoginRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		respond(http.StatusOK, "application/json",
			`{"success":true,"data":{"token":"jwt-1","id":42,"email":"admin@ngo.org","expiresIn":60}}`)(w, r)
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	c := newTestClient(t, srv.URL, WithTokenStore(store))

	resp := c.Login(context.Background(), model.LoginRequest{Email: "admin@ngo.org", Password: "secret"})
	require.True(t, resp.Success)
	assert.Equal(t, "secret", creds.Password)

	token, err := store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "jwt-1", token.Token)
	assert.Equal(t, "42", token.AdminID)
	assert.Equal(t, "admin@ngo.org", token.Email)
	assert.Equal(t, fixedNow.Add(24*time.Hour).UnixMilli(), token.ExpiresAt)

	session := c.Session(context.Background())
	assert.True(t, session.Authenticated)
	assert.Equal(t, "42", session.AdminID)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantMessage string
	}{
		{
			name:        "rejected credentials",
			handler:     respond(http.StatusOK, "application/json", `{"success":false,"message":"Invalid credentials"}`),
			wantMessage: "Invalid credentials",
		},
		{
			name:        "http error",
			handler:     respond(http.StatusUnauthorized, "application/json", `{}`),
			wantMessage: "HTTP error! status: 401",
		},
		{
			name:        "success without token",
			handler:     respond(http.StatusOK, "application/json", `{"success":true,"data":{"id":1}}`),
			wantMessage: "Login response did not include a token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			store := NewMemoryTokenStore()
			c := newTestClient(t, srv.URL, WithTokenStore(store))
			resp := c.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "x"})
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)

			token, err := store.Get(context.Background())
			require.NoError(t, err)
			assert.Nil(t, token)
		})
	}
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/admin/logout", r.URL.Path)
		assert.Equal(t, "Bearer live", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := storeWith(&model.AuthToken{Token: "live", ExpiresAt: fixedNow.Add(time.Hour).UnixMilli()})
	c := newTestClient(t, srv.URL, WithTokenStore(store))

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, 1, calls)
	assert.False(t, c.IsAuthenticated(context.Background()))

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, 1, calls, "no backend call without a live session")
}

func TestSessionClearsExpiredToken(t *testing.T) {
	store := storeWith(&model.AuthToken{Token: "old", ExpiresAt: fixedNow.Add(-time.Minute).UnixMilli()})
	c := newTestClient(t, "http://localhost:1", WithTokenStore(store))

	assert.False(t, c.Session(context.Background()).Authenticated)
	token, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, token)
}

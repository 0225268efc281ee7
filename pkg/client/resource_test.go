package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	rawPath     string
	query       string
	contentType string
	body        string
}

func recordingServer(t *testing.T) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method:      r.Method,
			path:        r.URL.Path,
			rawPath:     r.URL.EscapedPath(),
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			body:        string(data),
		})
		respond(http.StatusOK, "application/json", `{"success":true,"data":[]}`)(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResourceRequests(t *testing.T) {
	srv, calls := recordingServer(t)
	svc := NewAdminService(newTestClient(t, srv.URL))
	ctx := context.Background()

	donations, ok := svc.Resource(ResourceDonations)
	require.True(t, ok)
	_, ok = svc.Resource("payments")
	assert.False(t, ok)

	donations.List(ctx, url.Values{"status": {"pending"}})
	donations.List(ctx, nil)
	donations.Get(ctx, "a/b")
	donations.Delete(ctx, "7")
	donations.SetStatus(ctx, "7", "completed")
	svc.Stats(ctx)

	body, err := JSONBody(map[string]any{"title": "Gala"})
	require.NoError(t, err)
	donations.Update(ctx, "7", body)

	require.Len(t, *calls, 7)
	c := *calls
	assert.Equal(t, recorded{method: "GET", path: "/donations", rawPath: "/donations", query: "status=pending", contentType: "application/json"}, c[0])
	assert.Equal(t, "", c[1].query)
	assert.Equal(t, "/donations/a%2Fb", c[2].rawPath)
	assert.Equal(t, "DELETE", c[3].method)
	assert.Equal(t, "PATCH", c[4].method)
	assert.Equal(t, "/donations/7/status", c[4].path)
	assert.JSONEq(t, `{"status":"completed"}`, c[4].body)
	assert.Equal(t, "/admin/stats", c[5].path)
	assert.Equal(t, "PUT", c[6].method)
	assert.JSONEq(t, `{"title":"Gala"}`, c[6].body)
}

func TestResourceMultipartCreate(t *testing.T) {
	srv, calls := recordingServer(t)
	team := NewResource(newTestClient(t, srv.URL), "/team")

	body, err := NewForm().
		Field("name", "Amina").
		File("image", "amina.png", strings.NewReader("png-bytes")).
		Body()
	require.NoError(t, err)

	resp := team.Create(context.Background(), body)
	require.True(t, resp.Success)

	call := (*calls)[0]
	assert.Equal(t, "POST", call.method)
	assert.True(t, strings.HasPrefix(call.contentType, "multipart/form-data; boundary="))
	assert.Contains(t, call.body, `name="name"`)
	assert.Contains(t, call.body, "Amina")
	assert.Contains(t, call.body, `filename="amina.png"`)
}

func TestFormBuilderMissingFile(t *testing.T) {
	_, err := NewForm().Field("a", "b").FileFromPath("image", "/does/not/exist.png").Body()
	assert.Error(t, err)
}

func TestPublicListing(t *testing.T) {
	srv, calls := recordingServer(t)
	site := NewService(newTestClient(t, srv.URL), ResourceCampaigns)
	campaigns, ok := site.Resource(ResourceCampaigns)
	require.True(t, ok)

	resp := campaigns.Public(context.Background())
	require.True(t, resp.Success)
	assert.Equal(t, "/campaigns/public", (*calls)[0].path)

	var data []any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Empty(t, data)
}

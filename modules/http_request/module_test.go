package http_request

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/internal/testutil"
)

func TestRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, "%s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	ctx, _ := testutil.Context(t)
	m := &Module{}
	r := registry.New(m)
	fn, err := r.Lookup("http_request")
	require.NoError(t, err)

	got, err := fn(ctx, srv.URL+"/ping")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"status_code": http.StatusAccepted, "body": "GET /ping"}, got)

	got, err = fn(ctx, srv.URL+"/item", http.MethodDelete)
	require.NoError(t, err)
	require.Equal(t, "DELETE /item", got.(map[string]any)["body"])
}

func TestRequest_BadInputs(t *testing.T) {
	ctx, _ := testutil.Context(t)
	m := &Module{Client: http.DefaultClient}

	_, err := m.Request(ctx)
	require.Error(t, err)
	_, err = m.Request(ctx, 42)
	require.Error(t, err)
	_, err = m.Request(ctx, "http://example.invalid", 1)
	require.Error(t, err)
	_, err = m.Request(ctx, "://bad-url")
	require.Error(t, err)
}

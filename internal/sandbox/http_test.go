package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newControlPlane(t *testing.T, files map[string]string) (*HTTPProvider, *[]string) {
	t.Helper()
	var calls []string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sandboxes", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "create")
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2), body["vcpus"])
		assert.Equal(t, float64(2048), body["memory_mib"])
		assert.Equal(t, float64(300), body["timeout_seconds"])
		assert.Equal(t, float64(300), body["idle_timeout_seconds"])
		assert.Equal(t, true, body["allow_network"])
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"sbx-1"}`))
	})
	mux.HandleFunc("POST /sandboxes/{id}/exec", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "exec:"+r.PathValue("id"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["cmd"] == "false" {
			_, _ = w.Write([]byte(`{"exit_code":1,"stderr":"nope"}`))
			return
		}
		_, _ = w.Write([]byte(`{"exit_code":0}`))
	})
	mux.HandleFunc("GET /sandboxes/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "read:"+r.URL.Query().Get("path"))
		content, ok := files[r.URL.Query().Get("path")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	})
	mux.HandleFunc("DELETE /sandboxes/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "destroy:"+r.PathValue("id"))
		if r.PathValue("id") == "gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider, err := NewHTTPProvider(srv.URL, "key")
	require.NoError(t, err)
	return provider, &calls
}

func TestHTTPProvider_Lifecycle(t *testing.T) {
	provider, calls := newControlPlane(t, map[string]string{"/tmp/out.html": "<html></html>"})
	ctx := context.Background()

	sbx, err := provider.Create(ctx, DefaultSpec())
	require.NoError(t, err)
	assert.Equal(t, "sbx-1", sbx.ID())

	require.NoError(t, sbx.Execute(ctx, Command{Cmd: "sh", Args: []string{"-c", "true"}}))

	_, err = sbx.ReadFile(ctx, "/tmp/missing.html")
	assert.ErrorIs(t, err, ErrFileNotFound)

	data, err := sbx.ReadFile(ctx, "/tmp/out.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	require.NoError(t, sbx.Destroy(ctx))

	assert.Equal(t, []string{
		"create",
		"exec:sbx-1",
		"read:/tmp/missing.html",
		"read:/tmp/out.html",
		"destroy:sbx-1",
	}, *calls)
}

func TestHTTPSandbox_ExecuteNonZeroExit(t *testing.T) {
	provider, _ := newControlPlane(t, nil)
	sbx := &httpSandbox{provider: provider, id: "sbx-1"}

	err := sbx.Execute(context.Background(), Command{Cmd: "false"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "exit code 1")

	assert.NoError(t, sbx.Execute(context.Background(), Command{Cmd: "false", Detached: true}))
}

func TestHTTPSandbox_DestroyMissingIsNoop(t *testing.T) {
	provider, _ := newControlPlane(t, nil)
	sbx := &httpSandbox{provider: provider, id: "gone"}
	assert.NoError(t, sbx.Destroy(context.Background()))
}

func TestNewHTTPProvider_InvalidURL(t *testing.T) {
	_, err := NewHTTPProvider("::", "")
	assert.Error(t, err)
}

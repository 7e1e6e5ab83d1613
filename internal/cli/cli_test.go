package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avencourt/listflow/pkg/api"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestConfigInitPrintsDefaults(t *testing.T) {
	out := runCmd(t, "config", "init")
	require.Contains(t, out, "[cache]")
	require.Contains(t, out, `ttl = "3m"`)
	require.Contains(t, out, "[backend]")
	require.Contains(t, out, "chunk_size = 40")
}

func TestConfigShowReflectsEnv(t *testing.T) {
	t.Setenv("LISTFLOW_PAGE_SIZE", "75")
	out := runCmd(t, "config", "show")
	require.Contains(t, out, "page.size = 75")
}

func TestWarmAgainstHTTPBackend(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(map[string]any{
			"items":       []api.Item{{ID: "a", Title: "t"}},
			"has_more":    false,
			"next_offset": 1,
		})
	}))
	defer srv.Close()
	t.Setenv("LISTFLOW_BACKEND_BASE_URL", srv.URL)

	out := runCmd(t, "warm", "cat-1", "cat-2")
	require.Contains(t, out, "warmed 3")
	require.Equal(t, 3, hits, "unfiltered view plus one fetch per category")
}

func TestRefreshAgainstHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items":       []api.Item{{ID: "a", Title: "t"}, {ID: "b", Title: "u"}},
			"has_more":    false,
			"next_offset": 2,
		})
	}))
	defer srv.Close()
	t.Setenv("LISTFLOW_BACKEND_BASE_URL", srv.URL)

	out := runCmd(t, "refresh", "--category", "cat-1")
	require.Contains(t, out, "refreshed 2 items")
	require.Contains(t, out, `category=cat-1`)
}

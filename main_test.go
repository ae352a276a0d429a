package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points every external dependency at temp files and a fake wiki
func setupEnv(t *testing.T) (string, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	wiki := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("list") == "search" {
			w.Write([]byte(`{"query":{"searchinfo":{},"search":[{"title":"Alberto Santos-Dumont"}]}}`))
			return
		}
		w.Write([]byte(`{"query":{"pages":[{"title":"Alberto Santos-Dumont","extract":"Alberto Santos-Dumont foi um aeronauta."}]}}`))
	}))
	t.Cleanup(wiki.Close)

	dir := t.TempDir()
	memDir := filepath.Join(dir, "memorias")
	require.NoError(t, os.MkdirAll(memDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(memDir, "giria.json"), []byte(`{"e aí": "Fala, parça!"}`), 0644))

	t.Setenv("MEMORY_DIR", memDir)
	t.Setenv("MEMORY_BACKEND", "file")
	t.Setenv("WIKI_ENDPOINT", wiki.URL)
	t.Setenv("WIKI_MAX_RETRIES", "0")
	t.Setenv("PERSONA_FILE", filepath.Join(dir, "config.yaml"))
	t.Setenv("LOG_LEVEL", "error")

	return memDir, &calls
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestAskCommand(t *testing.T) {
	memDir, calls := setupEnv(t)

	out := execute(t, "ask", "e", "aí,", "td", "bem?")
	assert.Equal(t, "Fala, parça!\n", out)
	assert.Equal(t, int32(0), calls.Load())

	out = execute(t, "ask", "-v", "Quem foi Santos Dumont?")
	assert.Contains(t, out, "registro: acadêmica")
	assert.Contains(t, out, "fonte: encyclopedia")
	assert.Contains(t, out, "Alberto Santos-Dumont foi um aeronauta.\n")
	assert.Equal(t, int32(2), calls.Load())

	data, err := os.ReadFile(filepath.Join(memDir, "academico.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"quem foi santos dumont\": \"Alberto Santos-Dumont foi um aeronauta.\"\n}", string(data))

	// a new process remembers
	out = execute(t, "ask", "-v", "quem foi santos dumont")
	assert.Contains(t, out, "fonte: exact")
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryStatsCommand(t *testing.T) {
	setupEnv(t)

	out := execute(t, "memory", "stats")
	assert.Contains(t, out, "CATEGORIA")
	assert.Regexp(t, `slang\s+gíria\s+1`, out)
	assert.Regexp(t, `academic\s+acadêmica\s+0`, out)
	assert.Regexp(t, `error\s+erro\s+0`, out)
}

func TestMalformedMemoryFailsStartup(t *testing.T) {
	memDir, _ := setupEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(memDir, "academico.json"), []byte(`[1, 2]`), 0644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "memory", "stats"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

package storage

import (
	"context"
	"testing"
	"time"

	"memoria_chatbot/pkg"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReloadsChangedFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	dir := t.TempDir()
	writeMemory(t, dir, "giria.json", `{"mano": "Fala, mano!"}`)

	backend := NewFileBackend(dir, DefaultFiles)
	slang, err := Open(ctx, pkg.CategorySlang, backend)
	require.NoError(t, err)

	w, err := NewWatcher(backend, []*Store{slang}, zerolog.Nop())
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeMemory(t, dir, "giria.json", `{"mano": "Fala, mano!", "blz": "Beleza!"}`)
	assert.Eventually(t, func() bool {
		_, ok := slang.Exact("blz")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	// a broken edit keeps the last good contents
	writeMemory(t, dir, "giria.json", `{"mano": `)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, slang.Len())

	// files of other stores are ignored
	writeMemory(t, dir, "outro.json", `{"x": "y"}`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherIgnoresOwnWrites(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	backend := NewFileBackend(t.TempDir(), DefaultFiles)
	academic, err := Open(ctx, pkg.CategoryAcademic, backend)
	require.NoError(t, err)

	w, err := NewWatcher(backend, []*Store{academic}, zerolog.Nop())
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, academic.Learn(ctx, "fotossintese", "Processo das plantas."))
	time.Sleep(100 * time.Millisecond)

	changed, err := academic.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"fotossintese"}, academic.Keys())

	cancel()
	require.NoError(t, <-done)
}

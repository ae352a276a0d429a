package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads stores whose files are changed outside the process, so
// hand edited memories are picked up without a restart.
type Watcher struct {
	watcher  *fsnotify.Watcher
	stores   map[string]*Store // file name -> store
	dir      string
	debounce time.Duration
	log      zerolog.Logger
}

// NewWatcher watches the directory of backend for changes to the files of
// stores. Stores are expected to use backend.
func NewWatcher(backend *FileBackend, stores []*Store, log zerolog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(backend.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(backend.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", backend.Dir(), err)
	}

	byName := make(map[string]*Store, len(stores))
	for _, s := range stores {
		byName[filepath.Base(backend.Path(s.Category()))] = s
	}

	return &Watcher{
		watcher:  fw,
		stores:   byName,
		dir:      backend.Dir(),
		debounce: defaultDebounce,
		log:      log.With().Str("component", "memory_watcher").Logger(),
	}, nil
}

// SetDebounce changes how long a file must stay quiet before it is reloaded
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run blocks until ctx is done. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	w.log.Info().Str("dir", w.dir).Int("files", len(w.stores)).Msg("Watching memory files")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if _, watched := w.stores[name]; !watched {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				pending[name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("File watcher error")

		case now := <-ticker.C:
			for name, at := range pending {
				if now.Sub(at) < w.debounce {
					continue
				}
				delete(pending, name)
				w.reload(ctx, name)
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context, name string) {
	store := w.stores[name]
	changed, err := store.Reload(ctx)
	if err != nil {
		// keep serving the last good contents
		w.log.Error().Err(err).Str("file", name).Msg("Failed to reload memory")
		return
	}
	if changed {
		w.log.Info().
			Str("file", name).
			Str("category", string(store.Category())).
			Int("entries", store.Len()).
			Msg("Memory reloaded")
	}
}

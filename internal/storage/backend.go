package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"memoria_chatbot/pkg"
)

// Backend persists one JSON document per category.
type Backend interface {
	Name() string
	// Read returns the stored document or nil when there is none yet.
	Read(ctx context.Context, category pkg.Category) ([]byte, error)
	// Write replaces the stored document.
	Write(ctx context.Context, category pkg.Category, data []byte) error
}

// DefaultFiles is the on-disk layout of the memories
var DefaultFiles = map[pkg.Category]string{
	pkg.CategorySlang:    "giria.json",
	pkg.CategoryAcademic: "academico.json",
	pkg.CategoryError:    "erro.json",
}

// FileBackend keeps every category in its own file inside one directory
type FileBackend struct {
	dir   string
	files map[pkg.Category]string
}

// NewFileBackend creates a file backend rooted at dir. Categories missing
// from files fall back to DefaultFiles, then to "<category>.json".
func NewFileBackend(dir string, files map[pkg.Category]string) *FileBackend {
	merged := make(map[pkg.Category]string, len(DefaultFiles))
	for c, name := range DefaultFiles {
		merged[c] = name
	}
	for c, name := range files {
		if name != "" {
			merged[c] = name
		}
	}

	return &FileBackend{
		dir:   dir,
		files: merged,
	}
}

func (b *FileBackend) Name() string { return "file" }

// Dir returns the directory holding the memory files
func (b *FileBackend) Dir() string { return b.dir }

// Path returns the file used for category
func (b *FileBackend) Path(category pkg.Category) string {
	name, ok := b.files[category]
	if !ok {
		name = string(category) + ".json"
	}
	return filepath.Join(b.dir, name)
}

func (b *FileBackend) Read(ctx context.Context, category pkg.Category) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := b.Path(category)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read memory file %s: %w", path, err)
	}

	return data, nil
}

// Write replaces the category file through a temp file and a rename so a
// crash never leaves a half written document behind.
func (b *FileBackend) Write(ctx context.Context, category pkg.Category, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	path := b.Path(category)
	tmp, err := os.CreateTemp(b.dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write memory file %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync memory file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close memory file %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace memory file %s: %w", path, err)
	}

	return nil
}

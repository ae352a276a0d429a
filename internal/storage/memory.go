package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"memoria_chatbot/pkg"
)

// ErrEmptyKey is returned when a phrase normalizes to nothing
var ErrEmptyKey = errors.New("empty phrase key")

// Store is the answer memory of one category. Contents in memory and in the
// backend agree after every successful call; a failed flush is rolled back.
type Store struct {
	mu       sync.RWMutex
	category pkg.Category
	backend  Backend
	entries  []pkg.Entry
	index    map[string]int
	raw      []byte // last document read from or written to the backend
}

// Open loads the category document from backend. A missing document gives
// an empty store; a malformed one is an error.
func Open(ctx context.Context, category pkg.Category, backend Backend) (*Store, error) {
	s := &Store{
		category: category,
		backend:  backend,
		entries:  []pkg.Entry{},
		index:    make(map[string]int),
	}

	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// OpenAll opens one store per category
func OpenAll(ctx context.Context, backend Backend, categories ...pkg.Category) (map[pkg.Category]*Store, error) {
	stores := make(map[pkg.Category]*Store, len(categories))
	for _, c := range categories {
		s, err := Open(ctx, c, backend)
		if err != nil {
			return nil, err
		}
		stores[c] = s
	}
	return stores, nil
}

func (s *Store) Category() pkg.Category { return s.category }

func (s *Store) Backend() Backend { return s.backend }

// Reload replaces the contents with the backend document. It reports
// whether the document differed from the one last seen.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.RLock()
	seen := s.raw
	s.mu.RUnlock()

	data, err := s.backend.Read(ctx, s.category)
	if err != nil {
		return false, err
	}

	entries := []pkg.Entry{}
	if data != nil {
		entries, err = decodeEntries(data)
		if err != nil {
			return false, fmt.Errorf("memory %s (%s): %w", s.category, s.backend.Name(), err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw != nil && bytes.Equal(s.raw, data) {
		return false, nil
	}
	// a flush landed while reading; the document read is already stale
	if !bytes.Equal(s.raw, seen) {
		return false, nil
	}
	s.replace(entries)
	s.raw = data
	return true, nil
}

// Save writes the whole store to the backend
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx)
}

// Learn stores answer under the normalized key and flushes. When the flush
// fails the previous contents are restored and the error is returned.
func (s *Store) Learn(ctx context.Context, key, answer string) error {
	key = pkg.Normalize(key)
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, existed := s.index[key]
	var previous string
	if existed {
		previous = s.entries[i].Answer
		s.entries[i].Answer = answer
	} else {
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, pkg.Entry{Key: key, Answer: answer})
	}

	if err := s.flush(ctx); err != nil {
		if existed {
			s.entries[i].Answer = previous
		} else {
			delete(s.index, key)
			s.entries = s.entries[:len(s.entries)-1]
		}
		return err
	}

	return nil
}

// Exact returns the answer stored under key
func (s *Store) Exact(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.entries[i].Answer, true
}

// Substring returns the first entry, in insertion order, whose key is
// contained in the query key.
func (s *Store) Substring(key string) (pkg.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Key != "" && strings.Contains(key, e.Key) {
			return e, true
		}
	}
	return pkg.Entry{}, false
}

// Fuzzy returns the entry whose key is most similar to the query key, as
// long as the similarity reaches cutoff.
func (s *Store) Fuzzy(key string, cutoff float64) (pkg.Entry, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, score, ok := closestMatch(key, s.entries, cutoff)
	if !ok {
		return pkg.Entry{}, 0, false
	}
	return s.entries[i], score, true
}

// ContainsAnyKey reports whether some stored key is a substring of text
func (s *Store) ContainsAnyKey(text string) bool {
	_, ok := s.Substring(text)
	return ok
}

// Entries returns a copy of the entries in insertion order
func (s *Store) Entries() []pkg.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]pkg.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Keys returns the keys in insertion order
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// flush must be called with the write lock held
func (s *Store) flush(ctx context.Context) error {
	data, err := encodeEntries(s.entries)
	if err != nil {
		return fmt.Errorf("memory %s: %w", s.category, err)
	}
	if err := s.backend.Write(ctx, s.category, data); err != nil {
		return fmt.Errorf("memory %s (%s): %w", s.category, s.backend.Name(), err)
	}
	s.raw = data
	return nil
}

// replace must be called with the write lock held
func (s *Store) replace(entries []pkg.Entry) {
	s.entries = entries
	s.index = make(map[string]int, len(entries))
	for i, e := range entries {
		s.index[e.Key] = i
	}
}

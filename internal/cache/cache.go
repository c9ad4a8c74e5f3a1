// Package cache provides the permanent disk store for synthesized audio.
// Entries are keyed by a fingerprint of the synthesis request; presence of
// the file is the hit condition. Nothing expires, which is what makes an
// interrupted build resumable.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a disk-backed store of synthesized audio. Entries are never
// mutated once written; clearing is an explicit operation.
type Store struct {
	dir string
}

// New opens the store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Key derives the entry key for one synthesis request: the SHA-1 of the
// provider fingerprint fields and the request text, joined with "|". The
// key is stable across runs for identical configuration and text.
func Key(fingerprint []string, text string) string {
	parts := make([]string, 0, len(fingerprint)+1)
	parts = append(parts, fingerprint...)
	parts = append(parts, text)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Path returns where the entry for key lives on disk.
func (s *Store) Path(key, format string) string {
	return filepath.Join(s.dir, key+"."+format)
}

// Load returns the stored bytes for key, with ok=false on a miss.
func (s *Store) Load(key, format string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(key, format))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: %w", err)
	}
	return data, true, nil
}

// Save persists data under key. The bytes land in a temp file that is
// renamed into place, so a reader never observes a truncated entry.
func (s *Store) Save(key, format string, data []byte) error {
	f, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	_, werr := f.Write(data)
	cerr := f.Close()

	if werr != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("cache: %w", werr)
	}
	if cerr != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("cache: %w", cerr)
	}
	if err := os.Rename(f.Name(), s.Path(key, format)); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Stats describes the store's contents.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats totals the audio entries on disk. Transliterated subtitle copies
// and leftover temp files in the same directory are not counted.
func (s *Store) Stats() (Stats, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("cache: %w", err)
	}

	var st Stats
	for _, e := range entries {
		if e.IsDir() || !isEntry(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		st.Entries++
		st.Bytes += info.Size()
	}
	return st, nil
}

// Clear deletes every audio entry plus any stale temp files and returns the
// number of entries removed. Other files in the directory are left alone.
func (s *Store) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("cache: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".tmp") {
			_ = os.Remove(filepath.Join(s.dir, name))
			continue
		}
		if !isEntry(name) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return removed, fmt.Errorf("cache: %w", err)
		}
		removed++
	}
	return removed, nil
}

// isEntry reports whether name has the shape of a store entry: a 40-digit
// hex stem plus a format extension.
func isEntry(name string) bool {
	stem, _, ok := strings.Cut(name, ".")
	if !ok || len(stem) != sha1.Size*2 {
		return false
	}
	for _, r := range stem {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

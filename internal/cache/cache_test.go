package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKey(t *testing.T) {
	fp := []string{"openai", "gpt-4o-mini-tts", "alloy", "mp3", ""}

	got := Key(fp, "Hello, world.")
	if want := "3a7675920bbb42a27f1e1b97d9e75e1822f706b9"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}

	if again := Key(fp, "Hello, world."); again != got {
		t.Fatalf("Key() not deterministic: %q then %q", got, again)
	}
	if other := Key(fp, "Hello, world!"); other == got {
		t.Fatal("different text should produce a different key")
	}
	if other := Key([]string{"openai", "gpt-4o-mini-tts", "nova", "mp3", ""}, "Hello, world."); other == got {
		t.Fatal("different fingerprint should produce a different key")
	}
}

func TestKeyDoesNotMutateFingerprint(t *testing.T) {
	fp := make([]string, 2, 8)
	fp[0], fp[1] = "a", "b"
	_ = Key(fp, "hello")
	if fp[0] != "a" || fp[1] != "b" {
		t.Fatalf("fingerprint mutated: %v", fp)
	}
	if got, want := Key(fp, "hello"), "1d0608de469978c5dd91e92409ba83af8ac4fa43"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Dir() != dir {
		t.Fatalf("Dir() = %q, want %q", s.Dir(), dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("cache dir not created: %v", err)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key([]string{"mock", "test"}, "hello there")

	if _, ok, err := s.Load(key, "mp3"); err != nil || ok {
		t.Fatalf("Load before Save: ok=%v err=%v, want miss", ok, err)
	}

	payload := []byte("fake mp3 bytes")
	if err := s.Save(key, "mp3", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load(key, "mp3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load after Save: miss, want hit")
	}
	if string(got) != string(payload) {
		t.Fatalf("Load = %q, want %q", got, payload)
	}

	// Same key under a different format is a separate entry.
	if _, ok, _ := s.Load(key, "wav"); ok {
		t.Fatal("Load with other format: hit, want miss")
	}

	// No temp files may survive a successful save.
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file %q", e.Name())
		}
	}
}

func TestStoreSaveOverwrite(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key([]string{"mock"}, "text")

	if err := s.Save(key, "mp3", []byte("first")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(key, "mp3", []byte("second")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Load(key, "mp3")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if string(got) != "second" {
		t.Fatalf("Load = %q, want %q", got, "second")
	}
}

func TestStoreStatsAndClear(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Save(Key([]string{"p"}, "one"), "mp3", []byte("aaaa")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(Key([]string{"p"}, "two"), "mp3", []byte("bbbbbb")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(Key([]string{"p"}, "three"), "wav", []byte("cc")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Neighbours that are not entries: a transliterated subtitle copy and a
	// stale temp file.
	srt := filepath.Join(s.Dir(), "movie-transliterated.srt")
	if err := os.WriteFile(srt, []byte("1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	stale := filepath.Join(s.Dir(), "half-written.tmp")
	if err := os.WriteFile(stale, []byte("junk"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != 3 {
		t.Fatalf("Entries = %d, want 3", st.Entries)
	}
	if st.Bytes != 12 {
		t.Fatalf("Bytes = %d, want 12", st.Bytes)
	}

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 3 {
		t.Fatalf("Clear removed %d, want 3", removed)
	}

	if _, err := os.Stat(srt); err != nil {
		t.Fatalf("transliterated copy should survive Clear: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale temp file should be removed by Clear")
	}

	st, err = s.Stats()
	if err != nil {
		t.Fatalf("Stats after Clear: %v", err)
	}
	if st.Entries != 0 || st.Bytes != 0 {
		t.Fatalf("Stats after Clear = %+v, want empty", st)
	}
}

func TestIsEntry(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"3a7675920bbb42a27f1e1b97d9e75e1822f706b9.mp3", true},
		{"1d0608de469978c5dd91e92409ba83af8ac4fa43.wav", true},
		{"3a7675920bbb42a27f1e1b97d9e75e1822f706b9", false},
		{"movie-transliterated.srt", false},
		{"cache.index", false},
		{"3A7675920BBB42A27F1E1B97D9E75E1822F706B9.mp3", false},
		{"3a76.mp3", false},
	}
	for _, tt := range tests {
		if got := isEntry(tt.name); got != tt.want {
			t.Errorf("isEntry(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

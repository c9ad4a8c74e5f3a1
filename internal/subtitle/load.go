package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// LoadOptions controls how Load prepares a subtitle file before parsing.
type LoadOptions struct {
	// Transliterate converts Latin-script files to Serbian Cyrillic. Files
	// that already contain Cyrillic are used as-is.
	Transliterate bool
	// CacheDir receives a "<name>-transliterated.srt" copy of converted
	// files for inspection. Empty skips the copy.
	CacheDir string
}

// Load reads cues from the SRT file at path, transliterating to Cyrillic
// when requested. The path "-" reads from stdin.
func Load(path string, opts LoadOptions) ([]Cue, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}

	cues, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if !opts.Transliterate || HasCyrillic(string(data)) {
		return cues, nil
	}

	for i := range cues {
		cues[i].Text = ToCyrillic(cues[i].Text)
	}
	log.Debug("transliterated subtitles to Cyrillic", "cues", len(cues))

	if path != "-" && opts.CacheDir != "" {
		if err := writeTransliteratedCopy(path, opts.CacheDir, cues); err != nil {
			return nil, err
		}
	}
	return cues, nil
}

func writeTransliteratedCopy(src, dir string, cues []Cue) error {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	target := filepath.Join(dir, stem+"-transliterated.srt")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write transliterated copy: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("write transliterated copy: %w", err)
	}
	if err := Compose(f, cues); err != nil {
		_ = f.Close()
		return fmt.Errorf("write transliterated copy: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write transliterated copy: %w", err)
	}

	log.Debug("wrote transliterated copy", "path", target)
	return nil
}

// Package subtitle loads, writes, and transliterates SRT subtitle files.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Cue is a single timed text span from a subtitle file. The assembler
// consumes cues in slice order and never re-sorts them.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns the length of the cue's time slot, clamped to zero for
// inverted timestamps.
func (c Cue) Duration() time.Duration {
	if c.End <= c.Start {
		return 0
	}
	return c.End - c.Start
}

// Parse reads an SRT document: numbered blocks of an index line, a timing
// line, and zero or more text lines, separated by blank lines. It tolerates
// a UTF-8 BOM, CR-LF endings, dot millisecond separators, and trailing
// coordinate hints on the timing line. Timestamps are not validated beyond
// shape; inverted timing passes through for the assembler to clamp.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cues []Cue
		line int
	)
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		return text, true
	}

	for {
		// Skip blank lines between blocks.
		var (
			text string
			more bool
		)
		for {
			text, more = next()
			if !more {
				if err := scanner.Err(); err != nil {
					return nil, fmt.Errorf("read subtitles: %w", err)
				}
				return cues, nil
			}
			if strings.TrimSpace(text) != "" {
				break
			}
		}

		index, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cue index %q", line, strings.TrimSpace(text))
		}

		timing, more := next()
		if !more {
			return nil, fmt.Errorf("line %d: cue %d is missing its timing line", line, index)
		}
		start, end, err := parseTiming(timing)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var body []string
		for {
			text, more = next()
			if !more || strings.TrimSpace(text) == "" {
				break
			}
			body = append(body, text)
		}

		cues = append(cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(body, "\n"),
		})

		if !more {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read subtitles: %w", err)
			}
			return cues, nil
		}
	}
}

func parseTiming(s string) (start, end time.Duration, err error) {
	lhs, rhs, found := strings.Cut(s, "-->")
	if !found {
		return 0, 0, fmt.Errorf("invalid timing line %q", strings.TrimSpace(s))
	}

	// Some files append display coordinates after the end timestamp.
	rhs = strings.TrimSpace(rhs)
	if i := strings.IndexAny(rhs, " \t"); i >= 0 {
		rhs = rhs[:i]
	}

	start, err = ParseTimestamp(strings.TrimSpace(lhs))
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseTimestamp(rhs)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp parses an SRT timestamp of the form HH:MM:SS,mmm. A dot is
// accepted in place of the comma, and the fraction may carry fewer than
// three digits.
func ParseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	secPart := strings.ReplaceAll(parts[2], ",", ".")
	secText, fracText, _ := strings.Cut(secPart, ".")
	seconds, err := strconv.Atoi(secText)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	millis := 0
	if fracText != "" {
		if len(fracText) > 3 {
			fracText = fracText[:3]
		}
		for len(fracText) < 3 {
			fracText += "0"
		}
		millis, err = strconv.Atoi(fracText)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatTimestamp renders d in SRT form (HH:MM:SS,mmm). Negative durations
// render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// Compose writes cues as an SRT document, one blank-line-terminated block
// per cue.
func Compose(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for _, c := range cues {
		fmt.Fprintf(bw, "%d\n%s --> %s\n", c.Index, FormatTimestamp(c.Start), FormatTimestamp(c.End))
		if c.Text != "" {
			fmt.Fprintln(bw, c.Text)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

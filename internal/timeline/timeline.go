// Package timeline lays synthesized cue audio onto one continuous track.
// Silence fills the space before each cue's start time, and in fill mode
// each cue's slot is padded back out to its end time so the next cue
// starts exactly on schedule.
package timeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/subvox/internal/audio"
	"github.com/dgnsrekt/subvox/internal/subtitle"
)

// Defaults applied by normalized for zero or out-of-range option values.
const (
	DefaultMaxChars   = 4000
	DefaultMaxSpeedup = 1.15
)

// speedupTolerance is the relative closeness to 1.0 below which a computed
// speed factor is treated as no correction at all.
const speedupTolerance = 1e-2

// Synthesizer produces the spoken track for one chunk of cue text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*audio.Track, error)
}

// Options control how cue audio is placed on the output timeline.
type Options struct {
	// FillToEnd pads each cue's slot with silence so the next cue starts
	// exactly on schedule. When false, speech flows naturally and timing
	// drifts after any overrun.
	FillToEnd bool

	// HardCut truncates speech that still exceeds its slot after speed
	// correction. Only honored when FillToEnd is set.
	HardCut bool

	// PadLeadingMS and PadTrailingMS add silence before the first cue
	// and after the last one.
	PadLeadingMS  int64
	PadTrailingMS int64

	// MaxChars caps the text length of a single synthesis call. Longer
	// cue text is split into fixed-width rune chunks.
	MaxChars int

	// MaxSpeedup bounds the playback speed factor applied to overrunning
	// cues. 1.0 disables speed correction entirely.
	MaxSpeedup float64
}

// normalized returns o with degenerate values replaced so Build never has
// to guard against them.
func (o Options) normalized() Options {
	if o.PadLeadingMS < 0 {
		o.PadLeadingMS = 0
	}
	if o.PadTrailingMS < 0 {
		o.PadTrailingMS = 0
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.MaxSpeedup < 1 {
		o.MaxSpeedup = 1
	}
	return o
}

// Assembler builds the output track from parsed cues.
type Assembler struct {
	synth Synthesizer
	opts  Options

	// OnProgress, when set, is called before each cue is processed. It is
	// for display only and has no effect on the assembled audio.
	OnProgress func(index, count int, cue subtitle.Cue)
}

// New returns an Assembler that speaks cue text through synth.
func New(synth Synthesizer, opts Options) *Assembler {
	return &Assembler{synth: synth, opts: opts.normalized()}
}

// Build assembles the voiceover track for cues, which must be in ascending
// start order. The cursor tracks milliseconds of audio emitted so far:
// silence is appended to reach each cue's start, the cue's speech follows,
// and in fill mode more silence pads the slot out to the cue's end time.
// Speech longer than its slot is sped up toward fitting (capped at
// MaxSpeedup), then hard cut to the slot if HardCut is set; without
// FillToEnd it simply runs long and later cues shift.
func (a *Assembler) Build(ctx context.Context, cues []subtitle.Cue) (*audio.Track, error) {
	var out audio.Builder
	var cursor int64

	if a.opts.PadLeadingMS > 0 {
		out.AppendSilence(a.opts.PadLeadingMS)
		cursor += a.opts.PadLeadingMS
	}

	for i, cue := range cues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.OnProgress != nil {
			a.OnProgress(i, len(cues), cue)
		}

		start := cue.Start.Milliseconds()
		end := cue.End.Milliseconds()
		slot := end - start
		if slot < 0 {
			slot = 0
		}

		if start > cursor {
			out.AppendSilence(start - cursor)
			cursor = start
		}

		text := normalize(cue.Text)
		if text == "" {
			if a.opts.FillToEnd && cursor < end {
				out.AppendSilence(end - cursor)
				cursor = end
			}
			continue
		}

		speech, err := a.speak(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", cue.Index, err)
		}
		speechMS := speech.DurationMS()

		if slot > 0 && speechMS > slot {
			factor := math.Min(float64(speechMS)/float64(slot), a.opts.MaxSpeedup)
			if factor > 1 && !isClose(factor, 1, speedupTolerance) {
				log.Debug("speeding up overrunning cue",
					"cue", cue.Index, "speechMS", speechMS, "slotMS", slot, "factor", factor)
				speech, err = audio.ResampleForSpeed(speech, factor)
				if err != nil {
					return nil, fmt.Errorf("cue %d: %w", cue.Index, err)
				}
				speechMS = speech.DurationMS()
			}
		}

		if a.opts.FillToEnd {
			if speechMS > slot && a.opts.HardCut {
				log.Debug("hard cutting cue",
					"cue", cue.Index, "speechMS", speechMS, "slotMS", slot)
				speech = audio.Slice(speech, slot)
				speechMS = speech.DurationMS()
			}
			out.Append(speech)
			cursor += speechMS
			if cursor < end {
				out.AppendSilence(end - cursor)
				cursor = end
			}
		} else {
			out.Append(speech)
			cursor += speechMS
		}
	}

	if a.opts.PadTrailingMS > 0 {
		out.AppendSilence(a.opts.PadTrailingMS)
	}

	return out.Track(), nil
}

// speak synthesizes text, splitting it into chunks of at most MaxChars
// runes and concatenating the resulting audio.
func (a *Assembler) speak(ctx context.Context, text string) (*audio.Track, error) {
	speech := audio.Silence(0)
	for _, chunk := range chunkText(text, a.opts.MaxChars) {
		part, err := a.synth.Synthesize(ctx, chunk)
		if err != nil {
			return nil, err
		}
		speech = audio.Concat(speech, part)
	}
	return speech, nil
}

// normalize flattens cue text to a single line: surrounding whitespace is
// trimmed and interior line breaks become spaces.
func normalize(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
}

// chunkText splits text into fixed-width chunks of at most maxChars runes.
func chunkText(text string, maxChars int) []string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{text}
	}
	chunks := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func isClose(a, b, relTol float64) bool {
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

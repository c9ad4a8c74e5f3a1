package voice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/dgnsrekt/subvox/internal/audio"
)

// MockOptions configures the offline mock provider.
type MockOptions struct {
	WordsPerMinute int           // speaking pace, default 150
	ToneHz         float64       // rendered tone frequency, default 220
	Delay          time.Duration // artificial per-call latency
	FailFirst      int           // fail this many leading calls
	FailWith       error         // error for scripted failures
}

// Mock is a deterministic offline provider. It renders a quiet tone lasting
// the estimated speaking time of the text, so timeline behavior can be
// exercised without network access or API keys.
type Mock struct {
	opts MockOptions

	mu       sync.Mutex
	calls    int
	failures int
}

var _ Provider = (*Mock)(nil)

// NewMock builds the provider, applying defaults for any unset option.
func NewMock(opts MockOptions) *Mock {
	if opts.WordsPerMinute <= 0 {
		opts.WordsPerMinute = 150
	}
	if opts.ToneHz <= 0 {
		opts.ToneHz = 220
	}
	return &Mock{opts: opts}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) OutputFormat() string { return "wav" }

func (m *Mock) CacheFingerprint() []string {
	return []string{
		m.Name(),
		strconv.Itoa(m.opts.WordsPerMinute),
		strconv.FormatFloat(m.opts.ToneHz, 'g', -1, 64),
	}
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*Result, error) {
	m.mu.Lock()
	m.calls++
	fail := m.failures < m.opts.FailFirst
	if fail {
		m.failures++
	}
	m.mu.Unlock()

	if m.opts.Delay > 0 {
		select {
		case <-time.After(m.opts.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fail {
		cause := m.opts.FailWith
		if cause == nil {
			cause = errors.New("scripted failure")
		}
		return nil, fmt.Errorf("%w: mock: %v", ErrSynthesis, cause)
	}

	return &Result{Data: audio.EncodeWAV(m.render(text)), Format: "wav"}, nil
}

// Calls returns how many synthesis requests the mock has received.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SpeechMS estimates speaking time for text at the configured pace, counting
// roughly five characters per word with a one-word floor.
func (m *Mock) SpeechMS(text string) int64 {
	words := len(text) / 5
	if words < 1 {
		words = 1
	}
	return int64(words) * 60_000 / int64(m.opts.WordsPerMinute)
}

func (m *Mock) render(text string) *audio.Track {
	n := int(m.SpeechMS(text)) * audio.DefaultRate / 1000
	samples := make([]int16, n)
	step := 2 * math.Pi * m.opts.ToneHz / float64(audio.DefaultRate)
	for i := range samples {
		samples[i] = int16(3000 * math.Sin(step*float64(i)))
	}
	return audio.NewTrack(samples, audio.DefaultRate)
}

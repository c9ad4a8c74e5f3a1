package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultRate is the sample rate, in Hz, for silence created before any
// speech has fixed the output rate, and for raw PCM payloads.
const DefaultRate = 24000

// ErrInvalidSpeed reports a non-positive playback speed factor. It is a
// configuration error and fails fast, before any synthesis.
var ErrInvalidSpeed = errors.New("audio: playback speed must be positive")

// Track is a mono signed 16-bit PCM audio value. Tracks are treated as
// immutable; operations return new tracks and may share backing samples
// when the content is unchanged.
type Track struct {
	rate    int
	samples []int16
}

// NewTrack wraps samples at the given rate.
func NewTrack(samples []int16, rate int) *Track {
	return &Track{rate: rate, samples: samples}
}

// Rate returns the sample rate in Hz, zero for an empty track.
func (t *Track) Rate() int {
	if t == nil {
		return 0
	}
	return t.rate
}

// Len returns the number of samples.
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.samples)
}

// Samples exposes the backing sample slice. Callers must not modify it.
func (t *Track) Samples() []int16 {
	if t == nil {
		return nil
	}
	return t.samples
}

// DurationMS returns the track length in milliseconds, rounded to nearest.
func (t *Track) DurationMS() int64 {
	if t == nil {
		return 0
	}
	return msFor(len(t.samples), t.rate)
}

// Duration returns the track length as a time.Duration at millisecond
// resolution.
func (t *Track) Duration() time.Duration {
	return time.Duration(t.DurationMS()) * time.Millisecond
}

// Silence returns ms milliseconds of silence at DefaultRate.
func Silence(ms int64) *Track {
	if ms <= 0 {
		return &Track{}
	}
	return &Track{rate: DefaultRate, samples: make([]int16, samplesFor(ms, DefaultRate))}
}

// Concat joins a and b. The result carries the higher of the two sample
// rates; the lower-rate operand is resampled up. Empty operands act as
// identity.
func Concat(a, b *Track) *Track {
	if a.Len() == 0 {
		if b.Len() == 0 {
			return &Track{}
		}
		return b
	}
	if b.Len() == 0 {
		return a
	}

	rate := a.rate
	if b.rate > rate {
		rate = b.rate
	}
	ar, br := a.withRate(rate), b.withRate(rate)

	out := make([]int16, 0, len(ar.samples)+len(br.samples))
	out = append(out, ar.samples...)
	out = append(out, br.samples...)
	return &Track{rate: rate, samples: out}
}

// Slice returns the first ms milliseconds of t. Requests at or beyond the
// track length return t itself.
func Slice(t *Track, ms int64) *Track {
	if t.Len() == 0 || ms <= 0 {
		return &Track{}
	}
	n := samplesFor(ms, t.rate)
	if n >= len(t.samples) {
		return t
	}
	return &Track{rate: t.rate, samples: t.samples[:n:n]}
}

// ResampleForSpeed compresses t to play factor times faster: the duration
// shrinks to 1/factor and the pitch rises with it. Factors within 0.1% of
// 1.0 return t unchanged, bit for bit. A factor at or below zero is an
// error.
func ResampleForSpeed(t *Track, factor float64) (*Track, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidSpeed, factor)
	}
	if isClose(factor, 1.0, 1e-3) {
		return t, nil
	}
	if t.Len() == 0 {
		return t, nil
	}

	n := int(math.Round(float64(len(t.samples)) / factor))
	if n <= 0 {
		return &Track{rate: t.rate}, nil
	}

	out := make([]int16, n)
	last := len(t.samples) - 1
	for i := range out {
		pos := float64(i) * factor
		idx := int(pos)
		if idx >= last {
			out[i] = t.samples[last]
			continue
		}
		frac := pos - float64(idx)
		v := float64(t.samples[idx])*(1-frac) + float64(t.samples[idx+1])*frac
		out[i] = int16(v)
	}
	return &Track{rate: t.rate, samples: out}, nil
}

func (t *Track) withRate(rate int) *Track {
	if t.Len() == 0 || t.rate == rate {
		return t
	}
	return resampleTo(t, rate)
}

// resampleTo converts t to a new sample rate with linear interpolation.
func resampleTo(t *Track, rate int) *Track {
	if len(t.samples) == 0 {
		return &Track{rate: rate}
	}

	ratio := float64(rate) / float64(t.rate)
	n := int(math.Round(float64(len(t.samples)) * ratio))
	out := make([]int16, n)
	last := len(t.samples) - 1
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= last {
			out[i] = t.samples[last]
			continue
		}
		frac := pos - float64(idx)
		v := float64(t.samples[idx])*(1-frac) + float64(t.samples[idx+1])*frac
		out[i] = int16(v)
	}
	return &Track{rate: rate, samples: out}
}

// Builder accumulates audio sequentially without recopying earlier samples
// on every append. The zero value is ready to use.
type Builder struct {
	rate    int
	samples []int16
}

// Append adds t to the end of the buffer. The first non-empty append fixes
// the rate; a later higher-rate append promotes the whole buffer upward.
func (b *Builder) Append(t *Track) {
	if t.Len() == 0 {
		return
	}
	if b.rate == 0 {
		b.rate = t.rate
	}
	if t.rate > b.rate {
		promoted := resampleTo(&Track{rate: b.rate, samples: b.samples}, t.rate)
		b.rate, b.samples = t.rate, promoted.samples
	}
	tt := t.withRate(b.rate)
	b.samples = append(b.samples, tt.samples...)
}

// AppendSilence adds ms milliseconds of silence at the builder's current
// rate (DefaultRate while still empty).
func (b *Builder) AppendSilence(ms int64) {
	if ms <= 0 {
		return
	}
	if b.rate == 0 {
		b.rate = DefaultRate
	}
	b.samples = append(b.samples, make([]int16, samplesFor(ms, b.rate))...)
}

// DurationMS returns the accumulated length in milliseconds.
func (b *Builder) DurationMS() int64 {
	return msFor(len(b.samples), b.rate)
}

// Track returns the accumulated audio. The track shares the builder's
// buffer; append only after the track is no longer in use.
func (b *Builder) Track() *Track {
	return &Track{rate: b.rate, samples: b.samples}
}

func samplesFor(ms int64, rate int) int {
	return int((ms*int64(rate) + 500) / 1000)
}

func msFor(n, rate int) int64 {
	if rate == 0 {
		return 0
	}
	return (int64(n)*1000 + int64(rate)/2) / int64(rate)
}

// isClose reports whether a and b differ by no more than relTol of the
// larger magnitude.
func isClose(a, b, relTol float64) bool {
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

// Package synth wraps a voice provider with the permanent cache and the
// retry policy. It returns decoded tracks: provider bytes are validated by
// decoding them before anything is persisted, so a malformed response can
// never poison the cache.
package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/subvox/internal/audio"
	"github.com/dgnsrekt/subvox/internal/cache"
	"github.com/dgnsrekt/subvox/internal/voice"
)

// Synthesizer produces one track per text chunk, consulting the cache
// before calling the provider.
type Synthesizer struct {
	provider voice.Provider
	store    *cache.Store
	policy   RetryPolicy

	// format is the extension used for cache lookups and the default export
	// format. It starts as the provider's configured format and follows the
	// format the provider actually returns.
	format string

	hits, misses int
}

// New builds a synthesizer over provider and store.
func New(provider voice.Provider, store *cache.Store, policy RetryPolicy) *Synthesizer {
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, wait time.Duration, err error) {
			log.Warn("synthesis failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		}
	}
	return &Synthesizer{
		provider: provider,
		store:    store,
		policy:   policy,
		format:   provider.OutputFormat(),
	}
}

// OutputFormat returns the extension of the audio currently being produced.
func (s *Synthesizer) OutputFormat() string {
	return s.format
}

// Stats reports cache activity since construction.
func (s *Synthesizer) Stats() (hits, misses int) {
	return s.hits, s.misses
}

// Synthesize returns the spoken track for text. Cached bytes are reused
// when present; otherwise the provider is called through the retry policy
// and the validated response is persisted for future runs.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*audio.Track, error) {
	key := cache.Key(s.provider.CacheFingerprint(), text)

	data, ok, err := s.store.Load(key, s.format)
	if err != nil {
		return nil, err
	}
	if ok {
		s.hits++
		track, err := audio.Decode(ctx, data, s.format)
		if err != nil {
			return nil, fmt.Errorf("corrupt cache entry %s: %w", s.store.Path(key, s.format), err)
		}
		log.Debug("cache hit", "key", key, "format", s.format)
		return track, nil
	}
	s.misses++

	var res *voice.Result
	err = s.policy.Do(ctx, func() error {
		var serr error
		res, serr = s.provider.Synthesize(ctx, text)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing %q: %w", snippet(text), err)
	}

	format := res.Format
	if format == "" {
		format = s.format
	}

	// Decode first: an undecodable response is fatal and must not land in
	// the permanent cache.
	track, err := audio.Decode(ctx, res.Data, format)
	if err != nil {
		return nil, fmt.Errorf("provider %s returned undecodable %s audio: %w", s.provider.Name(), format, err)
	}

	if err := s.store.Save(key, format, res.Data); err != nil {
		return nil, err
	}
	if format != s.format {
		log.Debug("adopting provider output format", "was", s.format, "now", format)
		s.format = format
	}
	return track, nil
}

// snippet keeps error messages readable for long chunk texts.
func snippet(text string) string {
	const max = 40
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

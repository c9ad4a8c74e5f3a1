// Package voice implements the speech synthesis providers. Each provider
// turns one chunk of text into encoded audio bytes and exposes the
// configuration fingerprint that keys the synthesis cache.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/time/rate"
)

// ErrSynthesis marks a failed synthesis request. Transport errors and non-OK
// API responses all carry it; the retry layer treats every such failure as
// transient.
var ErrSynthesis = errors.New("synthesis failed")

// Provider is the strategy interface for speech synthesis backends.
type Provider interface {
	// Name returns the provider identifier, e.g. "openai".
	Name() string

	// OutputFormat returns the file extension of the audio the provider is
	// configured to produce, e.g. "mp3". The actual format is confirmed per
	// response via Result.Format.
	OutputFormat() string

	// CacheFingerprint returns the configuration fields that determine the
	// audio output. Identical fingerprint plus identical text means
	// identical audio; API keys are never part of it.
	CacheFingerprint() []string

	// Synthesize renders text as audio.
	Synthesize(ctx context.Context, text string) (*Result, error)
}

// Result wraps one synthesized payload with its actual format.
type Result struct {
	Data   []byte
	Format string
}

// Settings carries per-provider options for the registry.
type Settings struct {
	OpenAI     OpenAIOptions
	ElevenLabs ElevenLabsOptions
	Google     GoogleOptions
	Mock       MockOptions
}

// Names lists the registered provider names, sorted.
func Names() []string {
	names := []string{"openai", "elevenlabs", "google", "mock"}
	sort.Strings(names)
	return names
}

// New builds the named provider. Unknown names produce an error listing the
// valid providers, with a "did you mean" hint when the name is close to one.
func New(name string, s Settings) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAI(s.OpenAI), nil
	case "elevenlabs":
		return NewElevenLabs(s.ElevenLabs), nil
	case "google":
		return NewGoogle(s.Google), nil
	case "mock":
		return NewMock(s.Mock), nil
	}

	hint := ""
	if matches := fuzzy.Find(name, Names()); len(matches) > 0 {
		hint = fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
	}
	return nil, fmt.Errorf("unknown provider %q, valid providers: %s%s",
		name, strings.Join(Names(), ", "), hint)
}

// wait blocks on the provider's rate limiter, if one is configured.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// doRequest executes req and returns the response body. Transport failures
// and non-OK statuses come back wrapped in ErrSynthesis with the response
// text preserved.
func doRequest(client *http.Client, req *http.Request, provider string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSynthesis, provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading response: %v", ErrSynthesis, provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s: %s",
			ErrSynthesis, provider, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Fingerprint field formatting: unset (zero) values render as "" so that
// leaving an option out and never having had it produce the same key.

func floatOrEmpty(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func intOrEmpty(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func boolOrEmpty(v bool) string {
	if !v {
		return ""
	}
	return "true"
}

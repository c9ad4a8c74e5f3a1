package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const elevenLabsDefaultBaseURL = "https://api.elevenlabs.io"

// ElevenLabsOptions configures the ElevenLabs text-to-speech endpoint.
// The optional voice settings use zero as "not set": unset fields are left
// out of the request and render empty in the fingerprint.
type ElevenLabsOptions struct {
	APIKey          string
	VoiceID         string
	ModelID         string // default eleven_multilingual_v2
	OutputFormat    string // API format token, default mp3_44100_128
	Stability       float64
	SimilarityBoost float64
	Style           float64
	UseSpeakerBoost bool

	RequestsPerMinute int
	BaseURL           string
	HTTPClient        *http.Client
}

// ElevenLabs synthesizes speech through the ElevenLabs API.
type ElevenLabs struct {
	opts    ElevenLabsOptions
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Provider = (*ElevenLabs)(nil)

// NewElevenLabs builds the provider, applying defaults for any unset option.
func NewElevenLabs(opts ElevenLabsOptions) *ElevenLabs {
	if opts.ModelID == "" {
		opts.ModelID = "eleven_multilingual_v2"
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = "mp3_44100_128"
	}

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = elevenLabsDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &ElevenLabs{opts: opts, baseURL: baseURL, client: client, limiter: limiter}
}

func (p *ElevenLabs) Name() string { return "elevenlabs" }

// OutputFormat maps the API format token to a file extension.
func (p *ElevenLabs) OutputFormat() string {
	switch {
	case strings.HasPrefix(p.opts.OutputFormat, "mp3"):
		return "mp3"
	case strings.HasPrefix(p.opts.OutputFormat, "ogg"):
		return "ogg"
	case strings.HasPrefix(p.opts.OutputFormat, "wav"):
		return "wav"
	}
	return "mp3"
}

func (p *ElevenLabs) CacheFingerprint() []string {
	return []string{
		p.Name(),
		p.opts.VoiceID,
		p.opts.ModelID,
		p.opts.OutputFormat,
		floatOrEmpty(p.opts.Stability),
		floatOrEmpty(p.opts.SimilarityBoost),
		floatOrEmpty(p.opts.Style),
		boolOrEmpty(p.opts.UseSpeakerBoost),
	}
}

type elevenLabsRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings map[string]any `json:"voice_settings,omitempty"`
}

func (p *ElevenLabs) Synthesize(ctx context.Context, text string) (*Result, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:          text,
		ModelID:       p.opts.ModelID,
		VoiceSettings: p.voiceSettings(),
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		p.baseURL, url.PathEscape(p.opts.VoiceID), url.QueryEscape(p.opts.OutputFormat))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.opts.APIKey)

	data, err := doRequest(p.client, req, p.Name())
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, Format: p.OutputFormat()}, nil
}

// voiceSettings carries only the options actually set. An empty map is
// dropped from the request body.
func (p *ElevenLabs) voiceSettings() map[string]any {
	vs := map[string]any{}
	if p.opts.Stability != 0 {
		vs["stability"] = p.opts.Stability
	}
	if p.opts.SimilarityBoost != 0 {
		vs["similarity_boost"] = p.opts.SimilarityBoost
	}
	if p.opts.Style != 0 {
		vs["style"] = p.opts.Style
	}
	if p.opts.UseSpeakerBoost {
		vs["use_speaker_boost"] = true
	}
	if len(vs) == 0 {
		return nil
	}
	return vs
}

package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const googleDefaultBaseURL = "https://texttospeech.googleapis.com"

// GoogleOptions configures the Google Cloud text-to-speech REST endpoint.
// Optional tuning fields use zero as "not set".
type GoogleOptions struct {
	APIKey            string
	VoiceName         string // default sr-RS-Standard-A
	AudioEncoding     string // default MP3
	SpeakingRate      float64
	Pitch             float64
	SampleRateHertz   int
	VolumeGainDB      float64
	EffectsProfileIDs []string
	LanguageCode      string // derived from the voice name when empty

	RequestsPerMinute int
	BaseURL           string
	HTTPClient        *http.Client
}

// Google synthesizes speech through the Google Cloud text-to-speech API.
type Google struct {
	opts    GoogleOptions
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Provider = (*Google)(nil)

// NewGoogle builds the provider, applying defaults for any unset option.
func NewGoogle(opts GoogleOptions) *Google {
	if opts.VoiceName == "" {
		opts.VoiceName = "sr-RS-Standard-A"
	}
	if opts.AudioEncoding == "" {
		opts.AudioEncoding = "MP3"
	}

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &Google{opts: opts, baseURL: baseURL, client: client, limiter: limiter}
}

func (p *Google) Name() string { return "google" }

// OutputFormat maps the audio encoding to a file extension.
func (p *Google) OutputFormat() string {
	switch strings.ToUpper(p.opts.AudioEncoding) {
	case "MP3":
		return "mp3"
	case "OGG_OPUS":
		return "ogg"
	case "LINEAR16", "MULAW", "ALAW":
		return "wav"
	}
	return "mp3"
}

func (p *Google) CacheFingerprint() []string {
	return []string{
		p.Name(),
		p.opts.VoiceName,
		strings.ToUpper(p.opts.AudioEncoding),
		floatOrEmpty(p.opts.SpeakingRate),
		floatOrEmpty(p.opts.Pitch),
		intOrEmpty(p.opts.SampleRateHertz),
		floatOrEmpty(p.opts.VolumeGainDB),
		strings.Join(p.opts.EffectsProfileIDs, "|"),
		p.opts.LanguageCode,
	}
}

type googleRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig googleAudioConfig `json:"audioConfig"`
}

type googleAudioConfig struct {
	AudioEncoding    string   `json:"audioEncoding"`
	SpeakingRate     float64  `json:"speakingRate,omitempty"`
	Pitch            float64  `json:"pitch,omitempty"`
	SampleRateHertz  int      `json:"sampleRateHertz,omitempty"`
	VolumeGainDB     float64  `json:"volumeGainDb,omitempty"`
	EffectsProfileID []string `json:"effectsProfileId,omitempty"`
}

type googleResponse struct {
	AudioContent string `json:"audioContent"`
}

func (p *Google) Synthesize(ctx context.Context, text string) (*Result, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	var payload googleRequest
	payload.Input.Text = text
	payload.Voice.LanguageCode = p.languageCode()
	payload.Voice.Name = p.opts.VoiceName
	payload.AudioConfig = googleAudioConfig{
		AudioEncoding:    strings.ToUpper(p.opts.AudioEncoding),
		SpeakingRate:     p.opts.SpeakingRate,
		Pitch:            p.opts.Pitch,
		SampleRateHertz:  p.opts.SampleRateHertz,
		VolumeGainDB:     p.opts.VolumeGainDB,
		EffectsProfileID: p.opts.EffectsProfileIDs,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/text:synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", p.opts.APIKey)

	data, err := doRequest(p.client, req, p.Name())
	if err != nil {
		return nil, err
	}

	var decoded googleResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: google: decoding response: %v", ErrSynthesis, err)
	}
	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("%w: google: decoding audio content: %v", ErrSynthesis, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: google: empty audio content", ErrSynthesis)
	}
	return &Result{Data: audio, Format: p.OutputFormat()}, nil
}

// languageCode prefers the configured code, then the first two segments of
// the voice name ("sr-RS-Standard-A" speaks sr-RS), then en-US.
func (p *Google) languageCode() string {
	if p.opts.LanguageCode != "" {
		return p.opts.LanguageCode
	}
	parts := strings.SplitN(p.opts.VoiceName, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}

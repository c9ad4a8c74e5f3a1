package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIOptions configures the OpenAI speech endpoint.
type OpenAIOptions struct {
	APIKey         string
	Model          string // default gpt-4o-mini-tts
	Voice          string // default alloy
	ResponseFormat string // default mp3
	Instructions   string // optional voice direction prompt
	ForceLanguage  string // optional; prefixes the payload with a language tag

	RequestsPerMinute int
	BaseURL           string
	HTTPClient        *http.Client
}

// OpenAI synthesizes speech through the OpenAI audio API.
type OpenAI struct {
	opts    OpenAIOptions
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI builds the provider, applying the reference defaults for any
// unset option.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini-tts"
	}
	if opts.Voice == "" {
		opts.Voice = "alloy"
	}
	if opts.ResponseFormat == "" {
		opts.ResponseFormat = "mp3"
	}

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &OpenAI{opts: opts, baseURL: baseURL, client: client, limiter: limiter}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) OutputFormat() string {
	return strings.ToLower(p.opts.ResponseFormat)
}

// CacheFingerprint keys entries on everything that shapes the audio. The
// fingerprint uses the raw request text even when a language prefix is
// injected into the payload.
func (p *OpenAI) CacheFingerprint() []string {
	return []string{
		p.Name(),
		p.opts.Model,
		p.opts.Voice,
		p.opts.ResponseFormat,
		p.opts.Instructions,
		p.opts.ForceLanguage,
	}
}

type openAIRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
	Instructions   string `json:"instructions,omitempty"`
}

func (p *OpenAI) Synthesize(ctx context.Context, text string) (*Result, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	input := text
	if p.opts.ForceLanguage != "" {
		input = fmt.Sprintf("[lang:%s]  %s", p.opts.ForceLanguage, text)
	}

	body, err := json.Marshal(openAIRequest{
		Model:          p.opts.Model,
		Input:          input,
		Voice:          p.opts.Voice,
		ResponseFormat: p.opts.ResponseFormat,
		Instructions:   p.opts.Instructions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

	data, err := doRequest(p.client, req, p.Name())
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, Format: p.OutputFormat()}, nil
}

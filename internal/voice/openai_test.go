package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIDefaults(t *testing.T) {
	p := NewOpenAI(OpenAIOptions{})
	if got := p.OutputFormat(); got != "mp3" {
		t.Fatalf("OutputFormat() = %q, want mp3", got)
	}
	want := []string{"openai", "gpt-4o-mini-tts", "alloy", "mp3", "", ""}
	got := p.CacheFingerprint()
	if len(got) != len(want) {
		t.Fatalf("CacheFingerprint() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fingerprint[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOpenAISynthesize(t *testing.T) {
	var seen struct {
		method, path, auth string
		body               map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.method = r.Method
		seen.path = r.URL.Path
		seen.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&seen.body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte("FAKEMP3"))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIOptions{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})

	res, err := p.Synthesize(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(res.Data) != "FAKEMP3" {
		t.Fatalf("Data = %q, want FAKEMP3", res.Data)
	}
	if res.Format != "mp3" {
		t.Fatalf("Format = %q, want mp3", res.Format)
	}

	if seen.method != http.MethodPost || seen.path != "/audio/speech" {
		t.Fatalf("request = %s %s, want POST /audio/speech", seen.method, seen.path)
	}
	if seen.auth != "Bearer test-key" {
		t.Fatalf("Authorization = %q, want bearer token", seen.auth)
	}
	if seen.body["model"] != "gpt-4o-mini-tts" || seen.body["voice"] != "alloy" {
		t.Fatalf("body = %v, want default model and voice", seen.body)
	}
	if seen.body["input"] != "Hello there." {
		t.Fatalf("input = %q, want raw text", seen.body["input"])
	}
	if seen.body["response_format"] != "mp3" {
		t.Fatalf("response_format = %q, want mp3", seen.body["response_format"])
	}
	if _, ok := seen.body["instructions"]; ok {
		t.Fatal("instructions should be omitted when empty")
	}
}

func TestOpenAIForceLanguage(t *testing.T) {
	var input string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		input, _ = body["input"].(string)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIOptions{
		ForceLanguage: "sr",
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
	})

	if _, err := p.Synthesize(context.Background(), "Zdravo."); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if want := "[lang:sr]  Zdravo."; input != want {
		t.Fatalf("payload input = %q, want %q", input, want)
	}

	// The fingerprint carries the language setting itself, not the prefixed
	// payload text.
	fp := p.CacheFingerprint()
	if fp[len(fp)-1] != "sr" {
		t.Fatalf("fingerprint = %v, want trailing language field sr", fp)
	}
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIOptions{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Synthesize(context.Background(), "hi")
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want response text preserved", err)
	}
}

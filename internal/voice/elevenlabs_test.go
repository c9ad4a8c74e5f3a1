package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestElevenLabsOutputFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "mp3"}, // default token mp3_44100_128
		{"mp3_22050_32", "mp3"},
		{"ogg_44100", "ogg"},
		{"wav_44100", "wav"},
		{"pcm_24000", "mp3"},
	}
	for _, tt := range tests {
		p := NewElevenLabs(ElevenLabsOptions{OutputFormat: tt.format})
		if got := p.OutputFormat(); got != tt.want {
			t.Errorf("OutputFormat(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var seen struct {
		path, query, key string
		body             map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.query = r.URL.Query().Get("output_format")
		seen.key = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&seen.body)
		_, _ = w.Write([]byte("FAKEAUDIO"))
	}))
	defer srv.Close()

	p := NewElevenLabs(ElevenLabsOptions{
		APIKey:     "el-key",
		VoiceID:    "voice123",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})

	res, err := p.Synthesize(context.Background(), "Dobar dan.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(res.Data) != "FAKEAUDIO" || res.Format != "mp3" {
		t.Fatalf("result = %q/%q, want FAKEAUDIO/mp3", res.Data, res.Format)
	}

	if seen.path != "/v1/text-to-speech/voice123" {
		t.Fatalf("path = %q, want /v1/text-to-speech/voice123", seen.path)
	}
	if seen.query != "mp3_44100_128" {
		t.Fatalf("output_format = %q, want default token", seen.query)
	}
	if seen.key != "el-key" {
		t.Fatalf("xi-api-key = %q, want el-key", seen.key)
	}
	if seen.body["text"] != "Dobar dan." || seen.body["model_id"] != "eleven_multilingual_v2" {
		t.Fatalf("body = %v, want text and default model", seen.body)
	}
	if _, ok := seen.body["voice_settings"]; ok {
		t.Fatal("voice_settings should be omitted when nothing is set")
	}
}

func TestElevenLabsVoiceSettings(t *testing.T) {
	var settings map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		settings, _ = body["voice_settings"].(map[string]any)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	p := NewElevenLabs(ElevenLabsOptions{
		VoiceID:         "voice123",
		Stability:       0.6,
		UseSpeakerBoost: true,
		BaseURL:         srv.URL,
		HTTPClient:      srv.Client(),
	})

	if _, err := p.Synthesize(context.Background(), "hi"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if settings == nil {
		t.Fatal("voice_settings missing from request")
	}
	if got := settings["stability"]; got != 0.6 {
		t.Fatalf("stability = %v, want 0.6", got)
	}
	if got := settings["use_speaker_boost"]; got != true {
		t.Fatalf("use_speaker_boost = %v, want true", got)
	}
	if _, ok := settings["similarity_boost"]; ok {
		t.Fatal("similarity_boost should be omitted when unset")
	}

	want := []string{"elevenlabs", "voice123", "eleven_multilingual_v2", "mp3_44100_128", "0.6", "", "", "true"}
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

func TestElevenLabsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewElevenLabs(ElevenLabsOptions{VoiceID: "v", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := p.Synthesize(context.Background(), "hi"); !errors.Is(err, ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
}

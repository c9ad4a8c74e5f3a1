// Package config defines the pipeline configuration. A Config is assembled
// once in the CLI from defaults, environment variables, the config file, and
// flags, then passed by value into the subtitle loader, provider factory,
// synthesizer, and assembler.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/text/language"

	"github.com/dgnsrekt/subvox/internal/timeline"
	"github.com/dgnsrekt/subvox/internal/voice"
)

// Config contains all pipeline options.
type Config struct {
	Provider      string        `yaml:"provider" env:"SUBVOX_PROVIDER" envDefault:"openai"`
	JobName       string        `yaml:"job_name" env:"SUBVOX_JOB_NAME" envDefault:"default"`
	SRTPath       string        `yaml:"srt_path" env:"SUBVOX_SRT_PATH" envDefault:"input.srt"`
	Output        string        `yaml:"output" env:"SUBVOX_OUTPUT" envDefault:"voiceover.mp3"`
	CacheDir      string        `yaml:"cache_dir" env:"SUBVOX_CACHE_DIR" envDefault:".cache"`
	FillToEnd     bool          `yaml:"fill_to_end" env:"SUBVOX_FILL_TO_END" envDefault:"true"`
	HardCut       bool          `yaml:"hard_cut" env:"SUBVOX_HARD_CUT" envDefault:"false"`
	PadStart      time.Duration `yaml:"pad_start" env:"SUBVOX_PAD_START" envDefault:"0s"`
	PadEnd        time.Duration `yaml:"pad_end" env:"SUBVOX_PAD_END" envDefault:"0s"`
	MaxChars      int           `yaml:"max_chars" env:"SUBVOX_MAX_CHARS" envDefault:"4000"`
	MaxSpeedup    float64       `yaml:"max_speedup" env:"SUBVOX_MAX_SPEEDUP" envDefault:"1.15"`
	Transliterate bool          `yaml:"transliterate" env:"SUBVOX_TRANSLITERATE" envDefault:"true"`

	// Provider-specific settings
	OpenAI     OpenAIConfig     `yaml:"openai"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Google     GoogleConfig     `yaml:"google"`
	Mock       MockConfig       `yaml:"mock"`
}

// OpenAIConfig contains openai provider settings.
type OpenAIConfig struct {
	APIKey            string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model             string `yaml:"model" env:"SUBVOX_OPENAI_MODEL" envDefault:"gpt-4o-mini-tts"`
	Voice             string `yaml:"voice" env:"SUBVOX_OPENAI_VOICE" envDefault:"alloy"`
	Format            string `yaml:"format" env:"SUBVOX_OPENAI_FORMAT" envDefault:"mp3"`
	Instructions      string `yaml:"instructions" env:"SUBVOX_OPENAI_INSTRUCTIONS"`
	ForceLanguage     string `yaml:"force_language" env:"SUBVOX_OPENAI_FORCE_LANGUAGE"`
	RequestsPerMinute int    `yaml:"requests_per_minute" env:"SUBVOX_OPENAI_RPM"`
}

// ElevenLabsConfig contains elevenlabs provider settings. Zero values for
// the voice tuning floats mean "let the API decide".
type ElevenLabsConfig struct {
	APIKey            string  `yaml:"api_key" env:"ELEVENLABS_API_KEY"`
	VoiceID           string  `yaml:"voice_id" env:"SUBVOX_ELEVENLABS_VOICE_ID"`
	ModelID           string  `yaml:"model_id" env:"SUBVOX_ELEVENLABS_MODEL_ID" envDefault:"eleven_multilingual_v2"`
	OutputFormat      string  `yaml:"output_format" env:"SUBVOX_ELEVENLABS_OUTPUT_FORMAT" envDefault:"mp3_44100_128"`
	Stability         float64 `yaml:"stability" env:"SUBVOX_ELEVENLABS_STABILITY"`
	SimilarityBoost   float64 `yaml:"similarity_boost" env:"SUBVOX_ELEVENLABS_SIMILARITY_BOOST"`
	Style             float64 `yaml:"style" env:"SUBVOX_ELEVENLABS_STYLE"`
	UseSpeakerBoost   bool    `yaml:"use_speaker_boost" env:"SUBVOX_ELEVENLABS_USE_SPEAKER_BOOST"`
	RequestsPerMinute int     `yaml:"requests_per_minute" env:"SUBVOX_ELEVENLABS_RPM"`
}

// GoogleConfig contains google provider settings.
type GoogleConfig struct {
	APIKey            string   `yaml:"api_key" env:"GOOGLE_TTS_API_KEY"`
	VoiceName         string   `yaml:"voice_name" env:"SUBVOX_GOOGLE_VOICE_NAME" envDefault:"sr-RS-Standard-A"`
	AudioEncoding     string   `yaml:"audio_encoding" env:"SUBVOX_GOOGLE_AUDIO_ENCODING" envDefault:"MP3"`
	SpeakingRate      float64  `yaml:"speaking_rate" env:"SUBVOX_GOOGLE_SPEAKING_RATE"`
	Pitch             float64  `yaml:"pitch" env:"SUBVOX_GOOGLE_PITCH"`
	SampleRateHertz   int      `yaml:"sample_rate_hertz" env:"SUBVOX_GOOGLE_SAMPLE_RATE_HERTZ"`
	VolumeGainDB      float64  `yaml:"volume_gain_db" env:"SUBVOX_GOOGLE_VOLUME_GAIN_DB"`
	EffectsProfileIDs []string `yaml:"effects_profile_id" env:"SUBVOX_GOOGLE_EFFECTS_PROFILE_ID" envSeparator:","`
	LanguageCode      string   `yaml:"language_code" env:"SUBVOX_GOOGLE_LANGUAGE_CODE"`
	RequestsPerMinute int      `yaml:"requests_per_minute" env:"SUBVOX_GOOGLE_RPM"`
}

// MockConfig contains mock provider settings for offline runs.
type MockConfig struct {
	WordsPerMinute int           `yaml:"words_per_minute" env:"SUBVOX_MOCK_WORDS_PER_MINUTE" envDefault:"150"`
	ToneHz         float64       `yaml:"tone_hz" env:"SUBVOX_MOCK_TONE_HZ" envDefault:"220"`
	Delay          time.Duration `yaml:"delay" env:"SUBVOX_MOCK_DELAY" envDefault:"0s"`
}

// googleEncodings are the audio encodings the google provider accepts.
var googleEncodings = []string{"MP3", "OGG_OPUS", "LINEAR16", "MULAW", "ALAW"}

// Default returns a Config with the stock defaults.
func Default() Config {
	return Config{
		Provider:      "openai",
		JobName:       "default",
		SRTPath:       "input.srt",
		Output:        "voiceover.mp3",
		CacheDir:      ".cache",
		FillToEnd:     true,
		HardCut:       false,
		PadStart:      0,
		PadEnd:        0,
		MaxChars:      4000,
		MaxSpeedup:    1.15,
		Transliterate: true,

		OpenAI:     DefaultOpenAIConfig(),
		ElevenLabs: DefaultElevenLabsConfig(),
		Google:     DefaultGoogleConfig(),
		Mock:       DefaultMockConfig(),
	}
}

// DefaultOpenAIConfig returns default openai settings.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:  "gpt-4o-mini-tts",
		Voice:  "alloy",
		Format: "mp3",
	}
}

// DefaultElevenLabsConfig returns default elevenlabs settings.
func DefaultElevenLabsConfig() ElevenLabsConfig {
	return ElevenLabsConfig{
		ModelID:      "eleven_multilingual_v2",
		OutputFormat: "mp3_44100_128",
	}
}

// DefaultGoogleConfig returns default google settings.
func DefaultGoogleConfig() GoogleConfig {
	return GoogleConfig{
		VoiceName:     "sr-RS-Standard-A",
		AudioEncoding: "MP3",
	}
}

// DefaultMockConfig returns default mock settings.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		WordsPerMinute: 150,
		ToneHz:         220,
	}
}

// Validate normalizes and checks the configuration. Negative pads are
// clamped to zero and a max speedup below 1.0 is raised to 1.0 (disabling
// speed correction) with a warning. Provider names are not checked here;
// the provider factory rejects unknown ones with a suggestion.
func (c *Config) Validate() error {
	if c.PadStart < 0 {
		c.PadStart = 0
	}
	if c.PadEnd < 0 {
		c.PadEnd = 0
	}
	if c.MaxSpeedup < 1.0 {
		log.Warn("max speedup below 1.0 disables speed correction", "got", c.MaxSpeedup)
		c.MaxSpeedup = 1.0
	}
	if c.MaxChars <= 0 {
		return fmt.Errorf("max chars per call must be positive, got %d", c.MaxChars)
	}
	if c.JobName == "" {
		return fmt.Errorf("job name cannot be empty")
	}

	switch c.Provider {
	case "openai":
		if err := c.OpenAI.Validate(); err != nil {
			return fmt.Errorf("openai config: %w", err)
		}
	case "elevenlabs":
		if err := c.ElevenLabs.Validate(); err != nil {
			return fmt.Errorf("elevenlabs config: %w", err)
		}
	case "google":
		if err := c.Google.Validate(); err != nil {
			return fmt.Errorf("google config: %w", err)
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}
	return nil
}

// Validate checks openai settings.
func (c *OpenAIConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.Voice == "" {
		return fmt.Errorf("voice cannot be empty")
	}
	if c.ForceLanguage != "" {
		if _, err := language.Parse(c.ForceLanguage); err != nil {
			return fmt.Errorf("invalid force language '%s': %v", c.ForceLanguage, err)
		}
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute cannot be negative, got %d", c.RequestsPerMinute)
	}
	return nil
}

// Validate checks elevenlabs settings. The tuning floats are only checked
// when set; zero means unset.
func (c *ElevenLabsConfig) Validate() error {
	if c.VoiceID == "" {
		return fmt.Errorf("voice_id is required")
	}
	if c.Stability < 0 || c.Stability > 1 {
		return fmt.Errorf("stability must be between 0.0 and 1.0, got %v", c.Stability)
	}
	if c.SimilarityBoost < 0 || c.SimilarityBoost > 1 {
		return fmt.Errorf("similarity_boost must be between 0.0 and 1.0, got %v", c.SimilarityBoost)
	}
	if c.Style < 0 || c.Style > 1 {
		return fmt.Errorf("style must be between 0.0 and 1.0, got %v", c.Style)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute cannot be negative, got %d", c.RequestsPerMinute)
	}
	return nil
}

// Validate normalizes the audio encoding to upper case and checks google
// settings. Rate, pitch, and gain ranges follow the API limits.
func (c *GoogleConfig) Validate() error {
	c.AudioEncoding = strings.ToUpper(c.AudioEncoding)
	valid := false
	for _, enc := range googleEncodings {
		if c.AudioEncoding == enc {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unsupported audio encoding '%s': must be one of %v", c.AudioEncoding, googleEncodings)
	}
	if c.SpeakingRate != 0 && (c.SpeakingRate < 0.25 || c.SpeakingRate > 4.0) {
		return fmt.Errorf("speaking_rate must be between 0.25 and 4.0, got %v", c.SpeakingRate)
	}
	if c.Pitch < -20.0 || c.Pitch > 20.0 {
		return fmt.Errorf("pitch must be between -20.0 and 20.0, got %v", c.Pitch)
	}
	if c.VolumeGainDB < -96.0 || c.VolumeGainDB > 16.0 {
		return fmt.Errorf("volume_gain_db must be between -96.0 and 16.0, got %v", c.VolumeGainDB)
	}
	if c.SampleRateHertz < 0 {
		return fmt.Errorf("sample_rate_hertz cannot be negative, got %d", c.SampleRateHertz)
	}
	if c.LanguageCode != "" {
		if _, err := language.Parse(c.LanguageCode); err != nil {
			return fmt.Errorf("invalid language code '%s': %v", c.LanguageCode, err)
		}
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute cannot be negative, got %d", c.RequestsPerMinute)
	}
	return nil
}

// Validate checks mock settings.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 0 {
		return fmt.Errorf("words_per_minute cannot be negative, got %d", c.WordsPerMinute)
	}
	if c.ToneHz < 0 {
		return fmt.Errorf("tone_hz cannot be negative, got %v", c.ToneHz)
	}
	return nil
}

// Settings maps the configuration onto provider options.
func (c Config) Settings() voice.Settings {
	return voice.Settings{
		OpenAI: voice.OpenAIOptions{
			APIKey:            c.OpenAI.APIKey,
			Model:             c.OpenAI.Model,
			Voice:             c.OpenAI.Voice,
			ResponseFormat:    c.OpenAI.Format,
			Instructions:      c.OpenAI.Instructions,
			ForceLanguage:     c.OpenAI.ForceLanguage,
			RequestsPerMinute: c.OpenAI.RequestsPerMinute,
		},
		ElevenLabs: voice.ElevenLabsOptions{
			APIKey:            c.ElevenLabs.APIKey,
			VoiceID:           c.ElevenLabs.VoiceID,
			ModelID:           c.ElevenLabs.ModelID,
			OutputFormat:      c.ElevenLabs.OutputFormat,
			Stability:         c.ElevenLabs.Stability,
			SimilarityBoost:   c.ElevenLabs.SimilarityBoost,
			Style:             c.ElevenLabs.Style,
			UseSpeakerBoost:   c.ElevenLabs.UseSpeakerBoost,
			RequestsPerMinute: c.ElevenLabs.RequestsPerMinute,
		},
		Google: voice.GoogleOptions{
			APIKey:            c.Google.APIKey,
			VoiceName:         c.Google.VoiceName,
			AudioEncoding:     c.Google.AudioEncoding,
			SpeakingRate:      c.Google.SpeakingRate,
			Pitch:             c.Google.Pitch,
			SampleRateHertz:   c.Google.SampleRateHertz,
			VolumeGainDB:      c.Google.VolumeGainDB,
			EffectsProfileIDs: c.Google.EffectsProfileIDs,
			LanguageCode:      c.Google.LanguageCode,
			RequestsPerMinute: c.Google.RequestsPerMinute,
		},
		Mock: voice.MockOptions{
			WordsPerMinute: c.Mock.WordsPerMinute,
			ToneHz:         c.Mock.ToneHz,
			Delay:          c.Mock.Delay,
		},
	}
}

// AssemblyOptions maps the configuration onto timeline options.
func (c Config) AssemblyOptions() timeline.Options {
	return timeline.Options{
		FillToEnd:     c.FillToEnd,
		HardCut:       c.HardCut,
		PadLeadingMS:  c.PadStart.Milliseconds(),
		PadTrailingMS: c.PadEnd.Milliseconds(),
		MaxChars:      c.MaxChars,
		MaxSpeedup:    c.MaxSpeedup,
	}
}

// OutputPath resolves the destination audio file. An explicit path (the -o
// flag) wins as-is; otherwise files land under output/ named
// {job}-{provider}-{base} where base comes from the configured output name.
func (c Config) OutputPath(explicit string) string {
	if explicit != "" {
		return ExpandPath(explicit)
	}
	base := filepath.Base(c.Output)
	return filepath.Join("output", fmt.Sprintf("%s-%s-%s", c.JobName, c.Provider, base))
}

// ExportFormat picks the encoding for the output file: the path extension
// when present, otherwise the synthesizer's current format.
func ExportFormat(path, fallback string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return fallback
}

// ExpandPath resolves a leading ~ to the user's home directory. The path is
// returned unchanged if expansion fails.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// FromEnv builds a Config from the struct defaults and SUBVOX_* (plus API
// key) environment variables.
func FromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("error parsing config from environment: %w", err)
	}
	return cfg, nil
}

// FromViper overlays config file and bound flag values onto base. Only keys
// explicitly set in viper override; everything else keeps the base value.
// The result is validated before it is returned.
func FromViper(base Config) (Config, error) {
	cfg := base

	if viper.IsSet("provider") {
		cfg.Provider = viper.GetString("provider")
	}
	if viper.IsSet("job_name") {
		cfg.JobName = viper.GetString("job_name")
	}
	if viper.IsSet("srt_path") {
		cfg.SRTPath = viper.GetString("srt_path")
	}
	if viper.IsSet("output") {
		cfg.Output = viper.GetString("output")
	}
	if viper.IsSet("cache_dir") {
		cfg.CacheDir = viper.GetString("cache_dir")
	}
	if viper.IsSet("fill_to_end") {
		cfg.FillToEnd = viper.GetBool("fill_to_end")
	}
	if viper.IsSet("hard_cut") {
		cfg.HardCut = viper.GetBool("hard_cut")
	}
	if viper.IsSet("pad_start") {
		if d, err := time.ParseDuration(viper.GetString("pad_start")); err == nil {
			cfg.PadStart = d
		}
	}
	if viper.IsSet("pad_end") {
		if d, err := time.ParseDuration(viper.GetString("pad_end")); err == nil {
			cfg.PadEnd = d
		}
	}
	if viper.IsSet("max_chars") {
		cfg.MaxChars = viper.GetInt("max_chars")
	}
	if viper.IsSet("max_speedup") {
		cfg.MaxSpeedup = viper.GetFloat64("max_speedup")
	}
	if viper.IsSet("transliterate") {
		cfg.Transliterate = viper.GetBool("transliterate")
	}

	cfg.OpenAI = openAIFromViper(cfg.OpenAI)
	cfg.ElevenLabs = elevenLabsFromViper(cfg.ElevenLabs)
	cfg.Google = googleFromViper(cfg.Google)
	cfg.Mock = mockFromViper(cfg.Mock)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openAIFromViper(cfg OpenAIConfig) OpenAIConfig {
	if viper.IsSet("openai.api_key") {
		cfg.APIKey = viper.GetString("openai.api_key")
	}
	if viper.IsSet("openai.model") {
		cfg.Model = viper.GetString("openai.model")
	}
	if viper.IsSet("openai.voice") {
		cfg.Voice = viper.GetString("openai.voice")
	}
	if viper.IsSet("openai.format") {
		cfg.Format = viper.GetString("openai.format")
	}
	if viper.IsSet("openai.instructions") {
		cfg.Instructions = viper.GetString("openai.instructions")
	}
	if viper.IsSet("openai.force_language") {
		cfg.ForceLanguage = viper.GetString("openai.force_language")
	}
	if viper.IsSet("openai.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("openai.requests_per_minute")
	}
	return cfg
}

func elevenLabsFromViper(cfg ElevenLabsConfig) ElevenLabsConfig {
	if viper.IsSet("elevenlabs.api_key") {
		cfg.APIKey = viper.GetString("elevenlabs.api_key")
	}
	if viper.IsSet("elevenlabs.voice_id") {
		cfg.VoiceID = viper.GetString("elevenlabs.voice_id")
	}
	if viper.IsSet("elevenlabs.model_id") {
		cfg.ModelID = viper.GetString("elevenlabs.model_id")
	}
	if viper.IsSet("elevenlabs.output_format") {
		cfg.OutputFormat = viper.GetString("elevenlabs.output_format")
	}
	if viper.IsSet("elevenlabs.stability") {
		cfg.Stability = viper.GetFloat64("elevenlabs.stability")
	}
	if viper.IsSet("elevenlabs.similarity_boost") {
		cfg.SimilarityBoost = viper.GetFloat64("elevenlabs.similarity_boost")
	}
	if viper.IsSet("elevenlabs.style") {
		cfg.Style = viper.GetFloat64("elevenlabs.style")
	}
	if viper.IsSet("elevenlabs.use_speaker_boost") {
		cfg.UseSpeakerBoost = viper.GetBool("elevenlabs.use_speaker_boost")
	}
	if viper.IsSet("elevenlabs.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("elevenlabs.requests_per_minute")
	}
	return cfg
}

func googleFromViper(cfg GoogleConfig) GoogleConfig {
	if viper.IsSet("google.api_key") {
		cfg.APIKey = viper.GetString("google.api_key")
	}
	if viper.IsSet("google.voice_name") {
		cfg.VoiceName = viper.GetString("google.voice_name")
	}
	if viper.IsSet("google.audio_encoding") {
		cfg.AudioEncoding = viper.GetString("google.audio_encoding")
	}
	if viper.IsSet("google.speaking_rate") {
		cfg.SpeakingRate = viper.GetFloat64("google.speaking_rate")
	}
	if viper.IsSet("google.pitch") {
		cfg.Pitch = viper.GetFloat64("google.pitch")
	}
	if viper.IsSet("google.sample_rate_hertz") {
		cfg.SampleRateHertz = viper.GetInt("google.sample_rate_hertz")
	}
	if viper.IsSet("google.volume_gain_db") {
		cfg.VolumeGainDB = viper.GetFloat64("google.volume_gain_db")
	}
	if viper.IsSet("google.effects_profile_id") {
		cfg.EffectsProfileIDs = viper.GetStringSlice("google.effects_profile_id")
	}
	if viper.IsSet("google.language_code") {
		cfg.LanguageCode = viper.GetString("google.language_code")
	}
	if viper.IsSet("google.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("google.requests_per_minute")
	}
	return cfg
}

func mockFromViper(cfg MockConfig) MockConfig {
	if viper.IsSet("mock.words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("mock.words_per_minute")
	}
	if viper.IsSet("mock.tone_hz") {
		cfg.ToneHz = viper.GetFloat64("mock.tone_hz")
	}
	if viper.IsSet("mock.delay") {
		if d, err := time.ParseDuration(viper.GetString("mock.delay")); err == nil {
			cfg.Delay = d
		}
	}
	return cfg
}

// SetViperDefaults registers the stock defaults with viper so config file
// templates and unset lookups agree with Default().
func SetViperDefaults() {
	defaults := Default()

	viper.SetDefault("provider", defaults.Provider)
	viper.SetDefault("job_name", defaults.JobName)
	viper.SetDefault("srt_path", defaults.SRTPath)
	viper.SetDefault("output", defaults.Output)
	viper.SetDefault("cache_dir", defaults.CacheDir)
	viper.SetDefault("fill_to_end", defaults.FillToEnd)
	viper.SetDefault("hard_cut", defaults.HardCut)
	viper.SetDefault("pad_start", defaults.PadStart.String())
	viper.SetDefault("pad_end", defaults.PadEnd.String())
	viper.SetDefault("max_chars", defaults.MaxChars)
	viper.SetDefault("max_speedup", defaults.MaxSpeedup)
	viper.SetDefault("transliterate", defaults.Transliterate)

	viper.SetDefault("openai.model", defaults.OpenAI.Model)
	viper.SetDefault("openai.voice", defaults.OpenAI.Voice)
	viper.SetDefault("openai.format", defaults.OpenAI.Format)

	viper.SetDefault("elevenlabs.model_id", defaults.ElevenLabs.ModelID)
	viper.SetDefault("elevenlabs.output_format", defaults.ElevenLabs.OutputFormat)

	viper.SetDefault("google.voice_name", defaults.Google.VoiceName)
	viper.SetDefault("google.audio_encoding", defaults.Google.AudioEncoding)

	viper.SetDefault("mock.words_per_minute", defaults.Mock.WordsPerMinute)
	viper.SetDefault("mock.tone_hz", defaults.Mock.ToneHz)
	viper.SetDefault("mock.delay", defaults.Mock.Delay.String())
}

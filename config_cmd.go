package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech provider: openai, elevenlabs, google or mock
provider: "openai"
# job name used as the output file prefix
job_name: "default"
# subtitle source used when no argument is given
srt_path: "input.srt"
# base name of the output file ("output/<job>-<provider>-<output>")
output: "voiceover.mp3"
# directory for permanently cached synthesis
cache_dir: ".cache"
# pad every cue slot with silence up to its end time
fill_to_end: true
# truncate speech that still overruns its slot after speedup
hard_cut: false
# silence around the whole track
pad_start: "0s"
pad_end: "0s"
# maximum characters per synthesis call
max_chars: 4000
# maximum speed factor applied to overrunning cues
max_speedup: 1.15
# convert Latin-script subtitles to Serbian Cyrillic
transliterate: true

# OpenAI speech synthesis
openai:
  # api_key: "sk-..."           # or set OPENAI_API_KEY
  model: "gpt-4o-mini-tts"
  voice: "alloy"
  format: "mp3"
  # instructions: "Speak slowly and clearly."
  # force_language: "sr"        # BCP-47 hint prepended to every chunk
  # requests_per_minute: 0      # 0 disables client-side throttling

# ElevenLabs speech synthesis
elevenlabs:
  # api_key: "..."              # or set ELEVENLABS_API_KEY
  # voice_id: "..."
  model_id: "eleven_multilingual_v2"
  output_format: "mp3_44100_128"
  # stability: 0.5
  # similarity_boost: 0.75
  # style: 0.0
  # use_speaker_boost: false

# Google Cloud text-to-speech
google:
  # api_key: "..."              # or set GOOGLE_TTS_API_KEY
  voice_name: "sr-RS-Standard-A"
  audio_encoding: "MP3"
  # speaking_rate: 1.0
  # pitch: 0.0
  # sample_rate_hertz: 24000
  # volume_gain_db: 0.0
  # language_code: "sr-RS"

# Offline tone generator, for tests and dry runs
mock:
  words_per_minute: 150
  tone_hz: 220
  delay: "0s"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the subvox config file",
	Long:    paragraph(fmt.Sprintf("\n%s the subvox config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("subvox config\nsubvox config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Subvox", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

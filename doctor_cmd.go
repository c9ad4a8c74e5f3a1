package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/subvox/internal/audio"
	"github.com/dgnsrekt/subvox/internal/config"
)

// checkResult is one doctor finding.
type checkResult struct {
	// Name identifies the check, e.g. "ffmpeg".
	Name string

	// Available indicates the checked piece is present and usable.
	Available bool

	// Required marks checks whose failure should fail the command.
	Required bool

	// Error contains the failure, if any.
	Error error

	// Guidance provides setup instructions when the check failed.
	Guidance string

	// Details contains additional information for the report.
	Details map[string]string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment for everything a build needs",
	Long: paragraph(
		fmt.Sprintf("\nVerify that %s: ffmpeg on the PATH, an API key for the configured provider, a writable cache directory, and the config file location.", keyword("a build can succeed")),
	),
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	results := []checkResult{
		checkFFmpeg(),
		checkAPIKey(cfg),
		checkCacheDir(cfg),
		checkConfigFile(),
	}

	failures := 0
	for _, r := range results {
		printCheck(r)
		if r.Required && !r.Available {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d problems found", failures)
	}
	fmt.Println(okStyle.Render("Everything looks good."))
	return nil
}

func printCheck(r checkResult) {
	mark := okStyle.Render("✓")
	if !r.Available {
		mark = errorStyle.Render("✗")
	}
	fmt.Printf("%s %s\n", mark, r.Name)

	for k, v := range r.Details {
		fmt.Println(subtle(fmt.Sprintf("  %s: %s", k, v)))
	}
	if r.Error != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("  %v", r.Error)))
	}
	if !r.Available && r.Guidance != "" {
		fmt.Println(subtle("  " + r.Guidance))
	}
}

// checkFFmpeg looks for ffmpeg on the PATH. It is advisory: WAV and raw PCM
// export work without it.
func checkFFmpeg() checkResult {
	r := checkResult{Name: "ffmpeg", Details: map[string]string{}}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		r.Error = audio.ErrFFmpegNotFound
		r.Guidance = audio.FFmpegGuidance
		r.Details["needed for"] = "mp3, flac, aac and opus export"
		return r
	}
	r.Available = true
	r.Details["path"] = path
	return r
}

func checkAPIKey(cfg config.Config) checkResult {
	r := checkResult{
		Name:     fmt.Sprintf("%s API key", cfg.Provider),
		Required: true,
		Details:  map[string]string{},
	}

	var key, envVar string
	switch cfg.Provider {
	case "openai":
		key, envVar = cfg.OpenAI.APIKey, "OPENAI_API_KEY"
	case "elevenlabs":
		key, envVar = cfg.ElevenLabs.APIKey, "ELEVENLABS_API_KEY"
	case "google":
		key, envVar = cfg.Google.APIKey, "GOOGLE_TTS_API_KEY"
	default:
		r.Name = fmt.Sprintf("%s provider", cfg.Provider)
		r.Available = true
		r.Details["note"] = "no API key required"
		return r
	}

	if key == "" {
		r.Error = fmt.Errorf("no API key configured for provider %q", cfg.Provider)
		r.Guidance = fmt.Sprintf("Set %s or add the key to the config file.", envVar)
		return r
	}
	r.Available = true
	r.Details["source"] = envVar + " or config"
	return r
}

func checkCacheDir(cfg config.Config) checkResult {
	r := checkResult{
		Name:     "cache directory",
		Required: true,
		Details:  map[string]string{"path": cfg.CacheDir},
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		r.Error = err
		r.Guidance = "Point cache_dir at a writable location."
		return r
	}
	probe, err := os.CreateTemp(cfg.CacheDir, "doctor-*")
	if err != nil {
		r.Error = err
		r.Guidance = "Point cache_dir at a writable location."
		return r
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	r.Available = true
	return r
}

func checkConfigFile() checkResult {
	r := checkResult{Name: "config file", Details: map[string]string{}}

	path := viper.ConfigFileUsed()
	if path == "" {
		path = configFile
		r.Details["path"] = path
		r.Details["note"] = "not created yet, run 'subvox config'"
		r.Available = true
		return r
	}

	r.Details["path"] = path
	r.Available = true
	return r
}

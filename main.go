// Package main provides the entry point for the subvox CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/subvox/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	exportFormats = []string{"mp3", "wav", "flac", "aac", "opus", "pcm"}

	configFile    string
	debug         bool
	outPath       string
	modelName     string
	voiceName     string
	outFormat     string
	noFill        bool
	instructions  string
	forceLanguage string
	watchSource   bool
	preview       bool
	quiet         bool

	rootCmd = &cobra.Command{
		Use:   "subvox [source.srt]",
		Short: "Turn timed subtitles into a continuous voiceover track",
		Long: paragraph(
			fmt.Sprintf("\nRender an SRT file as %s: every cue is synthesized, cached permanently, and placed at its exact timestamp.", keyword("one continuous voiceover")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"srt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(_ *cobra.Command) error {
	if debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if outFormat != "" && !validExportFormat(outFormat) {
		return fmt.Errorf("unsupported output format %q: use one of %v", outFormat, exportFormats)
	}
	return nil
}

func validExportFormat(format string) bool {
	for _, f := range exportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLog sends logs to SUBVOX_LOGFILE when set; otherwise they go to
// stderr. The file always logs at debug level.
func setupLog() (func() error, error) {
	log.SetLevel(log.InfoLevel)
	if os.Getenv("DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	if logFile := os.Getenv("SUBVOX_LOGFILE"); logFile != "" {
		f, err := tea.LogToFile(logFile, "subvox")
		if err != nil {
			return nil, fmt.Errorf("error setting up logging: %w", err)
		}
		log.SetOutput(f)
		log.SetReportTimestamp(true)
		log.SetTimeFormat(time.Kitchen)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}

	log.SetOutput(os.Stderr)
	return func() error { return nil }, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	flags := rootCmd.Flags()
	flags.StringP("provider", "p", "", "speech provider: openai, elevenlabs, google or mock")
	flags.String("job-name", "", "job name used as the output file prefix")
	flags.StringVarP(&outPath, "out", "o", "", "output file path")
	flags.StringVar(&modelName, "model", "", "synthesis model for the selected provider")
	flags.StringVar(&voiceName, "voice", "", "voice for the selected provider")
	flags.StringVarP(&outFormat, "format", "f", "", "output format: mp3, wav, flac, aac, opus or pcm")
	flags.BoolVar(&noFill, "no-fill", false, "let speech flow naturally instead of padding each cue slot")
	flags.Bool("hard-cut", false, "truncate speech that still overruns its slot after speedup")
	flags.Duration("pad-start", 0, "silence inserted before the first cue")
	flags.Duration("pad-end", 0, "silence appended after the last cue")
	flags.Int("max-chars", 0, "maximum characters per synthesis call")
	flags.String("cache-dir", "", "directory for permanently cached synthesis")
	flags.Float64("max-speedup", 0, "maximum speed factor applied to overrunning cues")
	flags.StringVar(&instructions, "instructions", "", "extra voice instructions (openai)")
	flags.StringVar(&forceLanguage, "force-language", "", "BCP-47 language hint prepended to every chunk (openai)")
	flags.Bool("transliterate", true, "convert Latin-script subtitles to Serbian Cyrillic")
	flags.BoolVarP(&watchSource, "watch", "w", false, "rebuild whenever the source file changes")
	flags.BoolVar(&preview, "preview", false, "play the track after a successful build")
	flags.BoolVarP(&quiet, "quiet", "q", false, "disable the progress UI")

	// Config bindings
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("job_name", flags.Lookup("job-name"))
	_ = viper.BindPFlag("hard_cut", flags.Lookup("hard-cut"))
	_ = viper.BindPFlag("pad_start", flags.Lookup("pad-start"))
	_ = viper.BindPFlag("pad_end", flags.Lookup("pad-end"))
	_ = viper.BindPFlag("max_chars", flags.Lookup("max-chars"))
	_ = viper.BindPFlag("cache_dir", flags.Lookup("cache-dir"))
	_ = viper.BindPFlag("max_speedup", flags.Lookup("max-speedup"))
	_ = viper.BindPFlag("transliterate", flags.Lookup("transliterate"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	config.SetViperDefaults()

	rootCmd.AddCommand(cuesCmd, cacheCmd, doctorCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "subvox")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find the configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "subvox")}, dirs...)
	}

	if c := os.Getenv("SUBVOX_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("subvox")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("subvox")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "subvox.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

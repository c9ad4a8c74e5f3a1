package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/subvox/internal/audio"
	"github.com/dgnsrekt/subvox/internal/cache"
	"github.com/dgnsrekt/subvox/internal/config"
	"github.com/dgnsrekt/subvox/internal/player"
	"github.com/dgnsrekt/subvox/internal/subtitle"
	"github.com/dgnsrekt/subvox/internal/synth"
	"github.com/dgnsrekt/subvox/internal/timeline"
	"github.com/dgnsrekt/subvox/internal/voice"
	"github.com/dgnsrekt/subvox/ui"
)

var errInterrupted = errors.New("build interrupted")

// loadConfig assembles the effective configuration: struct defaults, then
// environment, then config file and flags through viper. Provider-specific
// flags are routed to the namespaced key of the selected provider.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	base, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}

	provider := base.Provider
	if viper.IsSet("provider") {
		provider = viper.GetString("provider")
	}

	flags := cmd.Flags()
	if flags.Changed("no-fill") && noFill {
		viper.Set("fill_to_end", false)
	}
	if flags.Changed("model") {
		switch provider {
		case "elevenlabs":
			viper.Set("elevenlabs.model_id", modelName)
		case "google", "mock":
			log.Warn("--model has no effect for this provider", "provider", provider)
		default:
			viper.Set("openai.model", modelName)
		}
	}
	if flags.Changed("voice") {
		switch provider {
		case "elevenlabs":
			viper.Set("elevenlabs.voice_id", voiceName)
		case "google":
			viper.Set("google.voice_name", voiceName)
		case "mock":
			log.Warn("--voice has no effect for this provider", "provider", provider)
		default:
			viper.Set("openai.voice", voiceName)
		}
	}
	if instructions != "" {
		viper.Set("openai.instructions", instructions)
	}
	if forceLanguage != "" {
		viper.Set("openai.force_language", forceLanguage)
	}

	return config.FromViper(base)
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// resolveSource picks the subtitle source: the positional argument, piped
// stdin, the configured srt_path, and finally the first .srt file in the
// working tree.
func resolveSource(args []string, cfg config.Config) (string, error) {
	if len(args) > 0 {
		if args[0] == "-" {
			return "-", nil
		}
		return config.ExpandPath(args[0]), nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if yes {
		return "-", nil
	}

	if path := config.ExpandPath(cfg.SRTPath); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	cwd, err := os.Getwd()
	if err == nil {
		ch, err := gitcha.FindFilesExcept(cwd, []string{"*.srt"}, nil)
		if err == nil {
			if res, ok := <-ch; ok {
				go func() {
					for range ch { //nolint:revive
					}
				}()
				log.Debug("found subtitle source", "path", res.Path)
				return res.Path, nil
			}
		}
	}

	return "", errors.New("no subtitle source: pass a file argument, set srt_path in the config, or run inside a directory containing an .srt file")
}

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src, err := resolveSource(args, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !watchSource {
		return buildOnce(ctx, cfg, src)
	}

	if src == "-" {
		return errors.New("cannot watch stdin: pass a file to --watch")
	}
	if err := buildOnce(ctx, cfg, src); err != nil {
		if errors.Is(err, errInterrupted) || ctx.Err() != nil {
			return nil
		}
		log.Error("build failed", "error", err)
	}
	return watchAndRebuild(ctx, cfg, src)
}

// buildOnce runs one full pass: load cues, synthesize, assemble, export.
// The output file is written only after the whole track assembled.
func buildOnce(ctx context.Context, cfg config.Config, src string) error {
	started := time.Now()

	cues, err := subtitle.Load(src, subtitle.LoadOptions{
		Transliterate: cfg.Transliterate,
		CacheDir:      cfg.CacheDir,
	})
	if err != nil {
		return err
	}
	if len(cues) == 0 {
		return errors.New("no cues in subtitle source")
	}
	log.Debug("loaded subtitles", "source", src, "cues", len(cues))

	provider, err := voice.New(cfg.Provider, cfg.Settings())
	if err != nil {
		return err
	}
	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		return err
	}
	syn := synth.New(provider, store, synth.DefaultRetryPolicy())
	asm := timeline.New(syn, cfg.AssemblyOptions())

	track, err := runBuild(ctx, asm, cues)
	if err != nil {
		return err
	}

	out := cfg.OutputPath(outPath)
	format := outFormat
	if format == "" {
		format = config.ExportFormat(out, syn.OutputFormat())
	}
	if err := audio.Export(ctx, track, out, format); err != nil {
		return err
	}

	printSummary(out, len(cues), track, syn, time.Since(started))

	if preview {
		if err := playPreview(ctx, track); err != nil {
			return err
		}
	}
	return nil
}

// runBuild drives the assembler. On a TTY the progress callback feeds a
// bubbletea program through a buffered channel; sends drop when the buffer
// is full so assembly never waits for the UI.
func runBuild(ctx context.Context, asm *timeline.Assembler, cues []subtitle.Cue) (*audio.Track, error) {
	if quiet || !term.IsTerminal(int(os.Stdout.Fd())) {
		if !quiet {
			asm.OnProgress = func(index, count int, cue subtitle.Cue) {
				log.Info("synthesizing cue",
					"cue", index+1,
					"total", count,
					"start", subtitle.FormatTimestamp(cue.Start),
				)
			}
		}
		return asm.Build(ctx, cues)
	}

	events := make(chan tea.Msg, 16)
	asm.OnProgress = func(index, count int, cue subtitle.Cue) {
		select {
		case events <- ui.CueMsg{Index: index, Count: count, Cue: cue}:
		default:
		}
	}

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		track *audio.Track
		err   error
		done  = make(chan struct{})
	)
	go func() {
		defer close(done)
		track, err = asm.Build(buildCtx, cues)
		close(events)
	}()

	// Logs would garble the inline UI; without a logfile they are dropped
	// for the duration of the program.
	if os.Getenv("SUBVOX_LOGFILE") == "" {
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	final, uiErr := tea.NewProgram(ui.NewBuildModel(events)).Run()
	if uiErr != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress ui: %w", uiErr)
	}
	if m, ok := final.(ui.BuildModel); ok && m.Interrupted() {
		cancel()
		<-done
		return nil, errInterrupted
	}

	<-done
	return track, err
}

func printSummary(path string, cueCount int, track *audio.Track, syn *synth.Synthesizer, elapsed time.Duration) {
	size := uint64(0)
	if st, err := os.Stat(path); err == nil {
		size = uint64(st.Size()) //nolint:gosec
	}
	hits, misses := syn.Stats()

	fmt.Println("Done:", keyword(path))
	fmt.Println(subtle(fmt.Sprintf("%d cues · %s · %s · cache %d/%d · %s",
		cueCount,
		track.Duration().Round(time.Second),
		humanize.Bytes(size),
		hits, hits+misses,
		elapsed.Round(time.Millisecond),
	)))
}

func playPreview(ctx context.Context, track *audio.Track) error {
	log.Info("playing preview", "duration", track.Duration().Round(time.Second))
	err := player.Play(ctx, track)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, player.ErrUnavailable):
		log.Warn("preview not available", "error", err)
		return nil
	case ctx.Err() != nil:
		return nil
	default:
		return fmt.Errorf("preview: %w", err)
	}
}

// watchAndRebuild re-runs the build whenever the source file changes. The
// watch sits on the parent directory: editors replace files on save, which
// would drop a watch registered on the file itself.
func watchAndRebuild(ctx context.Context, cfg config.Config, src string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	dir := filepath.Dir(src)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info("watching for changes", "path", src)

	const settle = 400 * time.Millisecond
	var timer *time.Timer
	changed := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(src) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors emit bursts of events per save.
			if timer == nil {
				timer = time.AfterFunc(settle, func() {
					select {
					case changed <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(settle)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-changed:
			log.Info("source changed, rebuilding", "path", src)
			if err := buildOnce(ctx, cfg, src); err != nil {
				if errors.Is(err, errInterrupted) || ctx.Err() != nil {
					return nil
				}
				log.Error("rebuild failed", "error", err)
			}
		}
	}
}

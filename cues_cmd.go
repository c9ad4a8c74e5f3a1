package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/subvox/internal/subtitle"
)

var (
	copyScript bool

	cuesCmd = &cobra.Command{
		Use:   "cues [source.srt]",
		Short: "List the cues of a subtitle file",
		Long: paragraph(
			fmt.Sprintf("\nParse a subtitle file and print its cues as a table, %s. Useful for checking timing and transliteration before a build.", keyword("without synthesizing anything")),
		),
		Example: paragraph("subvox cues episode-01.srt\nsubvox cues --copy episode-01.srt"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCues,
	}
)

func init() {
	cuesCmd.Flags().BoolVarP(&copyScript, "copy", "c", false, "copy the script text to the clipboard instead")
}

func runCues(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src, err := resolveSource(args, cfg)
	if err != nil {
		return err
	}

	// Listing never writes the transliterated cache copy.
	cues, err := subtitle.Load(src, subtitle.LoadOptions{Transliterate: cfg.Transliterate})
	if err != nil {
		return err
	}
	if len(cues) == 0 {
		return errors.New("no cues in subtitle source")
	}

	if copyScript {
		script := scriptText(cues)
		// OSC 52 first, then the native clipboard.
		termenv.Copy(script)
		if err := clipboard.WriteAll(script); err != nil {
			log.Debug("could not write system clipboard", "error", err)
		}
		fmt.Printf("Copied the script of %d cues to the clipboard.\n", len(cues))
		return nil
	}

	printCueTable(os.Stdout, cues)
	return nil
}

// scriptText flattens the spoken lines into one paragraph per cue, the same
// normalization the synthesizer receives.
func scriptText(cues []subtitle.Cue) string {
	var lines []string
	for _, cue := range cues {
		text := strings.TrimSpace(strings.ReplaceAll(cue.Text, "\n", " "))
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func printCueTable(w io.Writer, cues []subtitle.Cue) {
	width := 100
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 40 {
			width = tw
		}
	}

	idxWidth := len(strconv.Itoa(cues[len(cues)-1].Index))
	if idxWidth < 2 {
		idxWidth = 2
	}

	// index, start, end, duration, then whatever is left for the text.
	const tsWidth = 12
	textWidth := width - idxWidth - 2*tsWidth - 8 - 8
	if textWidth < 10 {
		textWidth = 10
	}

	header := fmt.Sprintf("%*s  %-*s  %-*s  %6s  %s",
		idxWidth, "#", tsWidth, "start", tsWidth, "end", "dur", "text")
	fmt.Fprintln(w, subtle(header))

	for _, cue := range cues {
		text := strings.TrimSpace(strings.ReplaceAll(cue.Text, "\n", " "))
		fmt.Fprintf(w, "%*d  %s  %s  %5.1fs  %s\n",
			idxWidth, cue.Index,
			subtitle.FormatTimestamp(cue.Start),
			subtitle.FormatTimestamp(cue.End),
			cue.Duration().Seconds(),
			runewidth.Truncate(text, textWidth, "…"),
		)
	}
}

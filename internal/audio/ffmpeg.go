package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrFFmpegNotFound indicates the ffmpeg binary is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")

// FFmpegGuidance tells the user how to get ffmpeg installed.
const FFmpegGuidance = "Install ffmpeg: 'apt install ffmpeg' (Debian/Ubuntu), 'brew install ffmpeg' (macOS), or download from https://ffmpeg.org"

// HasFFmpeg reports whether the ffmpeg binary is available.
func HasFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// runFFmpeg feeds stdin to an ffmpeg invocation and returns its stdout.
// Stderr is folded into the returned error so codec failures stay readable.
func runFFmpeg(ctx context.Context, stdin io.Reader, args []string) ([]byte, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w; %s", ErrFFmpegNotFound, FFmpegGuidance)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	return stdout.Bytes(), nil
}

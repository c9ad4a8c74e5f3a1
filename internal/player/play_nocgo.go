//go:build nocgo
// +build nocgo

package player

import (
	"context"

	"github.com/dgnsrekt/subvox/internal/audio"
)

// Play is a stub for builds without audio playback support.
func Play(context.Context, *audio.Track) error {
	return ErrUnavailable
}

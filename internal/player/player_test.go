//go:build !nocgo
// +build !nocgo

package player

import (
	"context"
	"testing"

	"github.com/dgnsrekt/subvox/internal/audio"
)

func TestPlayEmptyTrack(t *testing.T) {
	// An empty track finishes immediately without touching the audio device.
	if err := Play(context.Background(), audio.Silence(0)); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
}

func TestPCMBytes(t *testing.T) {
	track := audio.NewTrack([]int16{0x0102, -2}, audio.DefaultRate)
	got := pcmBytes(track)
	want := []byte{0x02, 0x01, 0xFE, 0xFF}
	if len(got) != len(want) {
		t.Fatalf("pcmBytes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

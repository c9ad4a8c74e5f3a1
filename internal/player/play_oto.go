//go:build !nocgo
// +build !nocgo

package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/subvox/internal/audio"
)

// Play blocks until the track finishes or ctx is canceled.
func Play(ctx context.Context, t *audio.Track) error {
	if t.Len() == 0 {
		return nil
	}

	options := &oto.NewContextOptions{
		SampleRate:   t.Rate(),
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}
	otoCtx, ready, err := oto.NewContext(options)
	if err != nil {
		return fmt.Errorf("unable to open audio device: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("audio device initialization timeout")
	case <-ctx.Done():
		return ctx.Err()
	}

	p := otoCtx.NewPlayer(bytes.NewReader(pcmBytes(t)))
	p.Play()

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			_ = p.Close()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return p.Close()
}

func pcmBytes(t *audio.Track) []byte {
	samples := t.Samples()
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

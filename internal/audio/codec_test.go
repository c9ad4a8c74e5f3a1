package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	tr := NewTrack([]int16{0, 1000, -1000, 32767, -32768}, 24000)
	data := EncodeWAV(tr)

	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatal("missing RIFF/WAVE header")
	}
	if want := 44 + tr.Len()*2; len(data) != want {
		t.Fatalf("len = %d, want %d", len(data), want)
	}

	got, err := Decode(context.Background(), data, "wav")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rate() != tr.Rate() {
		t.Fatalf("Rate() = %d, want %d", got.Rate(), tr.Rate())
	}
	if got.Len() != tr.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), tr.Len())
	}
	for i, s := range got.Samples() {
		if s != tr.Samples()[i] {
			t.Fatalf("sample[%d] = %d, want %d", i, s, tr.Samples()[i])
		}
	}
}

func TestEncodeWAVEmptyTrack(t *testing.T) {
	data := EncodeWAV(&Track{})
	if len(data) != 44 {
		t.Fatalf("len = %d, want bare 44-byte header", len(data))
	}
}

func TestDecodePCM(t *testing.T) {
	data := []byte{0x10, 0x00, 0xF0, 0xFF} // 16, -16
	got, err := Decode(context.Background(), data, "pcm")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rate() != DefaultRate {
		t.Fatalf("Rate() = %d, want %d", got.Rate(), DefaultRate)
	}
	s := got.Samples()
	if len(s) != 2 || s[0] != 16 || s[1] != -16 {
		t.Fatalf("Samples() = %v, want [16 -16]", s)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	for _, format := range []string{"mp3", "wav", "pcm", "ogg"} {
		if _, err := Decode(context.Background(), nil, format); err == nil {
			t.Errorf("format %q: want error for empty payload", format)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	garbage := []byte("definitely not an audio stream of any kind")
	for _, format := range []string{"mp3", "wav"} {
		if _, err := Decode(context.Background(), garbage, format); err == nil {
			t.Errorf("format %q: want error for garbage payload", format)
		}
	}
}

func TestExportWAV(t *testing.T) {
	tr := NewTrack([]int16{5, -5, 1234, -1234}, 24000)
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := Export(context.Background(), tr, path, "wav"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got, err := Decode(context.Background(), data, "wav")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Len() != tr.Len() || got.Rate() != tr.Rate() {
		t.Fatalf("round trip: Len=%d Rate=%d, want Len=%d Rate=%d", got.Len(), got.Rate(), tr.Len(), tr.Rate())
	}
	for i, s := range got.Samples() {
		if s != tr.Samples()[i] {
			t.Fatalf("sample[%d] = %d, want %d", i, s, tr.Samples()[i])
		}
	}
}

func TestExportPCM(t *testing.T) {
	tr := NewTrack([]int16{1, 2, 3}, 24000)
	path := filepath.Join(t.TempDir(), "out.pcm")

	if err := Export(context.Background(), tr, path, "pcm"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) != tr.Len()*2 {
		t.Fatalf("len = %d, want %d", len(data), tr.Len()*2)
	}
}

func TestExportCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.wav")
	if err := Export(context.Background(), Silence(50), path, "wav"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestExportWithoutFFmpeg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	err := Export(context.Background(), Silence(50), filepath.Join(t.TempDir(), "out.mp3"), "mp3")
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Fatalf("err = %v, want ErrFFmpegNotFound", err)
	}
}

func TestMuxerFor(t *testing.T) {
	if got := muxerFor("aac"); got != "adts" {
		t.Fatalf("muxerFor(aac) = %q, want adts", got)
	}
	if got := muxerFor("mp3"); got != "mp3" {
		t.Fatalf("muxerFor(mp3) = %q, want mp3", got)
	}
}

func TestFFmpegMP3RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg round trip in short mode")
	}
	if !HasFFmpeg() {
		t.Skip("ffmpeg not installed")
	}

	tr := Silence(500)
	path := filepath.Join(t.TempDir(), "out.mp3")
	if err := Export(context.Background(), tr, path, "mp3"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got, err := Decode(context.Background(), data, "mp3")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Frame padding shifts mp3 durations slightly.
	if diff := got.DurationMS() - 500; diff < -150 || diff > 150 {
		t.Fatalf("DurationMS() = %d, want about 500", got.DurationMS())
	}
}

func TestFFmpegDecodeFallback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg round trip in short mode")
	}
	if !HasFFmpeg() {
		t.Skip("ffmpeg not installed")
	}

	tr := Silence(500)
	path := filepath.Join(t.TempDir(), "out.ogg")
	if err := Export(context.Background(), tr, path, "ogg"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got, err := Decode(context.Background(), data, "ogg")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rate() != DefaultRate {
		t.Fatalf("Rate() = %d, want %d", got.Rate(), DefaultRate)
	}
	if diff := got.DurationMS() - 500; diff < -150 || diff > 150 {
		t.Fatalf("DurationMS() = %d, want about 500", got.DurationMS())
	}
}

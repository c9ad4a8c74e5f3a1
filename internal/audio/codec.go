package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Decode turns encoded audio bytes into a Track. MP3, WAV, and raw PCM are
// decoded natively; any other container format is handed to ffmpeg.
func Decode(ctx context.Context, data []byte, format string) (*Track, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode %s: empty payload", format)
	}
	switch strings.ToLower(format) {
	case "mp3":
		return decodeMP3(data)
	case "wav", "wave":
		return decodeWAV(data)
	case "pcm":
		return decodePCM(data), nil
	default:
		return decodeFFmpeg(ctx, data, format)
	}
}

func decodeMP3(data []byte) (*Track, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	// The decoder always emits 16-bit little-endian stereo frames.
	n := len(raw) / 4
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		l := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		samples[i] = int16((int32(l) + int32(r)) / 2)
	}
	return &Track{rate: dec.SampleRate(), samples: samples}, nil
}

func decodeWAV(data []byte) (*Track, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("decode wav: not a RIFF/WAVE payload")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, errors.New("decode wav: missing format header")
	}

	var toInt16 func(v int) int16
	switch dec.BitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		toInt16 = func(v int) int16 { return int16((v - 128) << 8) }
	case 16:
		toInt16 = func(v int) int16 { return int16(v) }
	case 24:
		toInt16 = func(v int) int16 { return int16(v >> 8) }
	case 32:
		toInt16 = func(v int) int16 { return int16(v >> 16) }
	default:
		return nil, fmt.Errorf("decode wav: unsupported bit depth %d", dec.BitDepth)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var acc int32
		for c := 0; c < channels; c++ {
			acc += int32(toInt16(buf.Data[f*channels+c]))
		}
		samples[f] = int16(acc / int32(channels))
	}
	return &Track{rate: buf.Format.SampleRate, samples: samples}, nil
}

// decodePCM interprets raw pcm payloads as 24 kHz signed 16-bit
// little-endian mono, the shape OpenAI returns for response_format "pcm".
func decodePCM(data []byte) *Track {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return &Track{rate: DefaultRate, samples: samples}
}

func decodeFFmpeg(ctx context.Context, data []byte, format string) (*Track, error) {
	out, err := runFFmpeg(ctx, bytes.NewReader(data), []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le", "-acodec", "pcm_s16le",
		"-ac", "1", "-ar", strconv.Itoa(DefaultRate),
		"pipe:1",
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("decode %s: ffmpeg produced no audio", format)
	}
	return decodePCM(out), nil
}

// EncodeWAV renders t as a 16-bit PCM WAV document in memory.
func EncodeWAV(t *Track) []byte {
	rate := t.Rate()
	if rate == 0 {
		rate = DefaultRate
	}
	dataLen := t.Len() * 2

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	le32(buf, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	le32(buf, 16)
	le16(buf, 1) // PCM
	le16(buf, 1) // mono
	le32(buf, uint32(rate))
	le32(buf, uint32(rate*2))
	le16(buf, 2)
	le16(buf, 16)
	buf.WriteString("data")
	le32(buf, uint32(dataLen))
	buf.Write(pcmBytes(t))
	return buf.Bytes()
}

// Export writes t to path in the given container format. WAV is written
// natively; other formats are encoded by ffmpeg reading raw PCM on stdin.
// No file is left behind on failure.
func Export(ctx context.Context, t *Track, path, format string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	switch strings.ToLower(format) {
	case "wav", "wave":
		return exportWAV(t, path)
	case "pcm":
		if err := os.WriteFile(path, pcmBytes(t), 0o644); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return nil
	default:
		return exportFFmpeg(ctx, t, path, strings.ToLower(format))
	}
}

func exportWAV(t *Track, path string) error {
	rate := t.Rate()
	if rate == 0 {
		rate = DefaultRate
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export wav: %w", err)
	}

	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, t.Len()),
	}
	for i, s := range t.Samples() {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("export wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("export wav: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("export wav: %w", err)
	}
	return nil
}

func exportFFmpeg(ctx context.Context, t *Track, path, format string) error {
	rate := t.Rate()
	if rate == 0 {
		rate = DefaultRate
	}

	out, err := runFFmpeg(ctx, bytes.NewReader(pcmBytes(t)), []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le", "-ar", strconv.Itoa(rate), "-ac", "1",
		"-i", "pipe:0",
		"-f", muxerFor(format),
		"pipe:1",
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}

// muxerFor maps a container name to the ffmpeg muxer that can stream it to
// a pipe.
func muxerFor(format string) string {
	if format == "aac" {
		return "adts"
	}
	return format
}

func pcmBytes(t *Track) []byte {
	out := make([]byte, t.Len()*2)
	for i, s := range t.Samples() {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func le16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func le32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

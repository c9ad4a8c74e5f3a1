// Package audio provides the mono PCM16 track value the voiceover pipeline
// is assembled from: silence construction, concatenation, slicing, duration
// math, speed resampling, and codec conversion (MP3, WAV, and raw PCM
// natively, everything else through ffmpeg).
package audio

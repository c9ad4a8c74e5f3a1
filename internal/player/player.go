// Package player plays assembled tracks through the system audio device.
// Builds tagged nocgo get a stub that reports playback as unavailable.
package player

import "errors"

// ErrUnavailable is returned when the binary was built without audio
// playback support.
var ErrUnavailable = errors.New("audio playback not available in this build")

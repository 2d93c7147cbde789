package source

import (
	"context"
)

// SampleSource delivers fixed-size frames of complex baseband samples to
// the receiver loop. ReadFrame blocks until a full frame is available,
// the source ends (io.EOF) or ctx is cancelled. Frame ownership passes to
// the caller; sources must not reuse returned slices.
type SampleSource interface {
	ReadFrame(ctx context.Context) ([]complex128, error)
	Close() error
}

// bytesToIQ converts interleaved unsigned 8-bit I/Q bytes to complex
// samples centered on zero.
func bytesToIQ(data []byte, out []complex128) []complex128 {
	for i := 0; i+1 < len(data); i += 2 {
		re := float64(data[i]) - 127.5
		im := float64(data[i+1]) - 127.5
		out = append(out, complex(re, im))
	}
	return out
}

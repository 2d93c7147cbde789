package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// IQFileReader replays a capture of interleaved unsigned 8-bit I/Q
// samples as fixed-size frames. A partial final frame is zero-padded so
// the synchronizer's buffer arithmetic always sees full frames.
type IQFileReader struct {
	file         *os.File
	reader       *bufio.Reader
	frameSamples int
	raw          []byte
	logger       *logrus.Logger
	done         bool
}

// NewIQFileReader opens path for frame-by-frame replay.
func NewIQFileReader(path string, frameSamples int, logger *logrus.Logger) (*IQFileReader, error) {
	if frameSamples <= 0 {
		return nil, fmt.Errorf("invalid frame size %d", frameSamples)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open IQ file: %w", err)
	}
	return &IQFileReader{
		file:         f,
		reader:       bufio.NewReaderSize(f, 1<<20),
		frameSamples: frameSamples,
		raw:          make([]byte, 2*frameSamples),
		logger:       logger,
	}, nil
}

// ReadFrame returns the next frame, or io.EOF once the capture is
// exhausted.
func (r *IQFileReader) ReadFrame(ctx context.Context) ([]complex128, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := io.ReadFull(r.reader, r.raw)
	switch err {
	case nil:
	case io.ErrUnexpectedEOF:
		// Zero-pad the tail so the last partial frame still decodes.
		for i := n; i < len(r.raw); i++ {
			r.raw[i] = 0x80
		}
		r.done = true
	case io.EOF:
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("IQ file read failed: %w", err)
	}

	frame := bytesToIQ(r.raw, make([]complex128, 0, r.frameSamples))
	return frame, nil
}

// Close releases the underlying file.
func (r *IQFileReader) Close() error {
	return r.file.Close()
}

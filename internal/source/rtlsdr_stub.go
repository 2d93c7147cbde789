//go:build !cgo

package source

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// RTLSDRSource is a stub for builds without cgo; live capture needs
// librtlsdr.
type RTLSDRSource struct{}

var errNoCgo = errors.New("RTL-SDR support requires a cgo build with librtlsdr; use an IQ file source instead")

// NewRTLSDRSource always fails on non-cgo builds.
func NewRTLSDRSource(index int, frequency uint32, sampleRate, frameSamples, gain int, logger *logrus.Logger) (*RTLSDRSource, error) {
	return nil, errNoCgo
}

// ReadFrame is unreachable on non-cgo builds.
func (s *RTLSDRSource) ReadFrame(ctx context.Context) ([]complex128, error) {
	return nil, errNoCgo
}

// Close is unreachable on non-cgo builds.
func (s *RTLSDRSource) Close() error {
	return errNoCgo
}

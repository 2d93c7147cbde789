//go:build cgo

package source

import (
	"context"
	"errors"
	"fmt"

	rtlsdr "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"
)

// RTLSDRSource captures live frames from an RTL2832-based dongle tuned to
// the Mode S downlink.
type RTLSDRSource struct {
	device       *rtlsdr.Context
	logger       *logrus.Logger
	frameSamples int
	raw          []byte
}

// NewRTLSDRSource opens and configures device index for synchronous
// frame reads.
func NewRTLSDRSource(index int, frequency uint32, sampleRate, frameSamples, gain int, logger *logrus.Logger) (*RTLSDRSource, error) {
	count := rtlsdr.GetDeviceCount()
	if count == 0 {
		return nil, errors.New("no RTL-SDR devices found")
	}
	if index >= count {
		return nil, fmt.Errorf("device index %d out of range (0-%d)", index, count-1)
	}

	dev, err := rtlsdr.Open(index)
	if err != nil {
		return nil, fmt.Errorf("failed to open device: %w", err)
	}

	src := &RTLSDRSource{
		device:       dev,
		logger:       logger,
		frameSamples: frameSamples,
		raw:          make([]byte, 2*frameSamples),
	}
	if err := src.configure(frequency, sampleRate, gain); err != nil {
		dev.Close()
		return nil, err
	}
	return src, nil
}

func (s *RTLSDRSource) configure(frequency uint32, sampleRate, gain int) error {
	if err := s.device.SetCenterFreq(int(frequency)); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}
	if err := s.device.SetSampleRate(sampleRate); err != nil {
		return fmt.Errorf("failed to set sample rate: %w", err)
	}

	if gain == 0 {
		if err := s.device.SetTunerGainMode(false); err != nil {
			return fmt.Errorf("failed to set auto gain: %w", err)
		}
	} else {
		if err := s.device.SetTunerGainMode(true); err != nil {
			return fmt.Errorf("failed to set manual gain mode: %w", err)
		}
		if err := s.device.SetTunerGain(gain * 10); err != nil {
			return fmt.Errorf("failed to set gain: %w", err)
		}
	}

	if err := s.device.ResetBuffer(); err != nil {
		return fmt.Errorf("failed to reset buffer: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"frequency":   frequency,
		"sample_rate": sampleRate,
		"gain":        gain,
	}).Info("RTL-SDR configured")
	return nil
}

// ReadFrame blocks on the dongle until a full frame of samples arrived.
func (s *RTLSDRSource) ReadFrame(ctx context.Context) ([]complex128, error) {
	filled := 0
	for filled < len(s.raw) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.device.ReadSync(s.raw[filled:], len(s.raw)-filled)
		if err != nil {
			return nil, fmt.Errorf("RTL-SDR read failed: %w", err)
		}
		filled += n
	}
	return bytesToIQ(s.raw, make([]complex128, 0, s.frameSamples)), nil
}

// Close releases the device.
func (s *RTLSDRSource) Close() error {
	return s.device.Close()
}

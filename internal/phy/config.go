package phy

import (
	"fmt"

	"github.com/racerxdl/segdsp/dsp"
)

// Mode S signaling constants. Bits are PPM encoded at 1 Mbit/s, two chips
// per bit, so the chip rate is fixed at 2 MHz regardless of sample rate.
const (
	ChipRate = 2000000 // chips per second
	BitRate  = 1000000 // bits per second

	LongPacketBits  = 112 // extended squitter
	ShortPacketBits = 56  // short/acquisition squitter

	PreambleChipCount = 16                  // 8 us preamble
	DataChipCount     = 2 * LongPacketBits  // chips in a long packet body
	PacketChipCount   = PreambleChipCount + DataChipCount

	// RRC interpolation filter design parameters.
	rrcAlpha       = 0.4
	rrcTapsPerArm  = 16
	maxInterpOrder = 32
)

// preambleChips is the Mode S preamble: pulses at chips 0, 2, 7 and 9,
// silence elsewhere.
var preambleChips = [PreambleChipCount]byte{1, 0, 1, 0, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0}

// ReceiverConfig holds every parameter the receiver chain derives from the
// session settings. It is built once per session and never mutated; all
// downstream length and timing invariants flow from it.
type ReceiverConfig struct {
	SampleRate   int // input sample rate (Hz)
	InterpFactor int // interpolation factor applied before synchronization
	OutputRate   int // SampleRate * InterpFactor (Hz)

	SamplesPerChip   int // at OutputRate
	SamplesPerSymbol int // two chips per bit

	FrameSamples  int     // input samples per receive cycle
	FrameLen      int     // interpolated samples per receive cycle
	FrameDuration float64 // seconds of signal per receive cycle

	MaxPacketSamples   int // preamble plus long packet body, in samples
	MaxPacketsPerFrame int // candidate capacity per frame

	SyncThreshold float64 // correlation peak gate, relative to mean energy

	// PreambleChips and SyncRef describe the 16-chip sync sequence and its
	// +/-1 correlation reference.
	PreambleChips [PreambleChipCount]byte
	SyncRef       [PreambleChipCount]float64

	// RRCTaps is the interpolation prototype filter; empty when
	// InterpFactor == 1. GroupDelay is its delay in output samples.
	RRCTaps    []float64
	GroupDelay int
}

// NewReceiverConfig derives the receiver parameters for the given input
// sample rate and frame size. The sample rate must reach an integer
// multiple of the chip rate, with at least two samples per chip, through an
// integer interpolation factor; anything else is a session-fatal error.
func NewReceiverConfig(sampleRate, frameSamples, maxPackets int, syncThreshold float64) (*ReceiverConfig, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d Hz", sampleRate)
	}
	if frameSamples <= 0 {
		return nil, fmt.Errorf("invalid frame size %d samples", frameSamples)
	}
	if maxPackets <= 0 {
		return nil, fmt.Errorf("invalid packet capacity %d", maxPackets)
	}

	factor := 0
	for i := 1; i <= maxInterpOrder; i++ {
		rate := sampleRate * i
		if rate%ChipRate == 0 && rate/ChipRate >= 2 {
			factor = i
			break
		}
	}
	if factor == 0 {
		return nil, fmt.Errorf("sample rate %d Hz has no integer interpolation to >=2 samples per chip (factor <= %d)", sampleRate, maxInterpOrder)
	}

	cfg := &ReceiverConfig{
		SampleRate:         sampleRate,
		InterpFactor:       factor,
		OutputRate:         sampleRate * factor,
		FrameSamples:       frameSamples,
		FrameLen:           frameSamples * factor,
		FrameDuration:      float64(frameSamples) / float64(sampleRate),
		MaxPacketsPerFrame: maxPackets,
		SyncThreshold:      syncThreshold,
		PreambleChips:      preambleChips,
	}
	cfg.SamplesPerChip = cfg.OutputRate / ChipRate
	cfg.SamplesPerSymbol = 2 * cfg.SamplesPerChip
	cfg.MaxPacketSamples = PacketChipCount * cfg.SamplesPerChip

	for i, c := range cfg.PreambleChips {
		if c != 0 {
			cfg.SyncRef[i] = 1
		} else {
			cfg.SyncRef[i] = -1
		}
	}

	if factor > 1 {
		taps := dsp.MakeRRC(float64(factor), float64(cfg.OutputRate), ChipRate, rrcAlpha, rrcTapsPerArm*factor+1)
		cfg.RRCTaps = make([]float64, len(taps))
		for i, t := range taps {
			cfg.RRCTaps[i] = float64(t)
		}
		cfg.GroupDelay = (len(cfg.RRCTaps) - 1) / 2
	}

	return cfg, nil
}

// PreambleHighChips returns the chip indices carrying preamble pulses.
func (c *ReceiverConfig) PreambleHighChips() []int {
	high := make([]int, 0, 4)
	for i, ch := range c.PreambleChips {
		if ch != 0 {
			high = append(high, i)
		}
	}
	return high
}

package phy

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// hexToBits expands a hex message into one byte per bit, MSB first,
// padded with zeros to the long packet length.
func hexToBits(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)

	bits := make([]byte, LongPacketBits)
	require.LessOrEqual(t, len(raw)*8, len(bits))
	for i, b := range raw {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = (b >> (7 - j)) & 1
		}
	}
	return bits
}

// modulatePacket renders a full packet (preamble plus PPM data chips) as
// complex samples of the given amplitude at the config's working rate.
func modulatePacket(cfg *ReceiverConfig, bits []byte, amp float64) []complex128 {
	chips := make([]byte, 0, PacketChipCount)
	chips = append(chips, cfg.PreambleChips[:]...)
	for _, b := range bits {
		if b != 0 {
			chips = append(chips, 1, 0)
		} else {
			chips = append(chips, 0, 1)
		}
	}

	out := make([]complex128, 0, len(chips)*cfg.SamplesPerChip)
	for _, c := range chips {
		v := complex(0, 0)
		if c != 0 {
			v = complex(amp, 0)
		}
		for s := 0; s < cfg.SamplesPerChip; s++ {
			out = append(out, v)
		}
	}
	return out
}

// energyWindow renders the energy-domain demodulation window for a bit
// sequence, the shape the synchronizer hands to the bit parser.
func energyWindow(cfg *ReceiverConfig, bits []byte, energy float64) []float64 {
	out := make([]float64, DataChipCount*cfg.SamplesPerChip)
	for i, b := range bits {
		base := i * cfg.SamplesPerSymbol
		half := cfg.SamplesPerChip
		for s := 0; s < half; s++ {
			if b != 0 {
				out[base+s] = energy
			} else {
				out[base+half+s] = energy
			}
		}
	}
	return out
}

// testConfig derives a small 4 MS/s configuration: interpolation factor
// 1, two samples per chip.
func testConfig(t *testing.T) *ReceiverConfig {
	t.Helper()
	cfg, err := NewReceiverConfig(4000000, 4000, 8, 8.0)
	require.NoError(t, err)
	return cfg
}

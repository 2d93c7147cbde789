package phy

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// CandidatePacket is one aligned demodulation window: the energy samples
// of a long packet body starting at the first data chip after the
// preamble, plus the preamble's sample offset relative to the start of
// the frame it was found in. Offsets are negative for packets that began
// inside the previous frame's overlap region.
type CandidatePacket struct {
	Energy []float64
	Offset int
}

// SyncStats counts synchronizer activity for packet-error-rate telemetry.
type SyncStats struct {
	Peaks      uint64 // correlation peaks above threshold
	Rejected   uint64 // peaks failing structural preamble validation
	Candidates uint64
	Dropped    uint64 // candidates beyond per-frame capacity
}

// Synchronizer locates Mode S preambles in the energy domain. It owns a
// ring buffer spanning one frame plus one maximum-length packet so that
// packets straddling a frame boundary survive into the next call. One
// synchronizer serves exactly one sample stream; frames must arrive in
// order.
type Synchronizer struct {
	cfg    *ReceiverConfig
	logger *logrus.Logger

	buf        []float64 // energy ring buffer, overlap head + current frame
	corr       []float64
	lastPacket []float64 // most recent validated window, preamble included
	stats      SyncStats
}

// NewSynchronizer creates a synchronizer for cfg. The overlap region
// starts zeroed, so the first call behaves as if preceded by silence.
func NewSynchronizer(cfg *ReceiverConfig, logger *logrus.Logger) *Synchronizer {
	return &Synchronizer{
		cfg:    cfg,
		logger: logger,
		buf:    make([]float64, cfg.FrameLen+cfg.MaxPacketSamples),
		corr:   make([]float64, cfg.FrameLen+1),
	}
}

// Process ingests one interpolated frame and returns the aligned candidate
// windows found in it, at most MaxPacketsPerFrame of them. Candidates
// beyond capacity are dropped silently; that is a throughput bound, not a
// failure.
func (s *Synchronizer) Process(frame []complex128) []CandidatePacket {
	overlap := s.cfg.MaxPacketSamples

	// Shift: previous tail becomes the overlap head, then the new frame's
	// energies fill the rest. Short frames leave stale samples dark.
	copy(s.buf[:overlap], s.buf[len(s.buf)-overlap:])
	n := len(frame)
	if n > s.cfg.FrameLen {
		n = s.cfg.FrameLen
	}
	for i := 0; i < n; i++ {
		re := real(frame[i])
		im := imag(frame[i])
		s.buf[overlap+i] = re*re + im*im
	}
	for i := overlap + n; i < len(s.buf); i++ {
		s.buf[i] = 0
	}

	threshold := s.detectionThreshold()
	spc := s.cfg.SamplesPerChip

	// Chip-rate cross-correlation against the preamble reference at every
	// sample offset that still leaves room for a full packet. Offsets
	// [0, scan) are peak-tested here; offset scan itself reappears as
	// offset 0 of the next call, so every position is tested exactly once.
	scan := len(s.buf) - s.cfg.MaxPacketSamples
	for i := 0; i <= scan; i++ {
		var acc float64
		for k := 0; k < PreambleChipCount; k++ {
			acc += s.cfg.SyncRef[k] * s.buf[i+k*spc]
		}
		s.corr[i] = acc
	}

	var out []CandidatePacket
	for i := 0; i < scan; i++ {
		c := s.corr[i]
		if c <= threshold || c < s.corr[i+1] {
			continue
		}
		if i > 0 && c < s.corr[i-1] {
			continue
		}
		s.stats.Peaks++

		if !s.validatePreamble(i) {
			s.stats.Rejected++
			continue
		}

		dataStart := i + PreambleChipCount*spc
		if len(out) < s.cfg.MaxPacketsPerFrame {
			window := make([]float64, DataChipCount*spc)
			copy(window, s.buf[dataStart:dataStart+len(window)])
			out = append(out, CandidatePacket{Energy: window, Offset: i - overlap})
			s.stats.Candidates++
		} else {
			s.stats.Dropped++
		}

		if s.lastPacket == nil {
			s.lastPacket = make([]float64, s.cfg.MaxPacketSamples)
		}
		copy(s.lastPacket, s.buf[i:i+s.cfg.MaxPacketSamples])

		// Skip past the packet body so its data chips are not mistaken
		// for further preambles.
		i = dataStart + DataChipCount*spc - 1
	}
	return out
}

// detectionThreshold scales the configured factor by the frame's mean
// energy, so the gate follows the noise floor. Silence yields a zero
// threshold and the strict comparison rejects everything.
func (s *Synchronizer) detectionThreshold() float64 {
	mean := floats.Sum(s.buf) / float64(len(s.buf))
	return s.cfg.SyncThreshold * mean
}

// validatePreamble checks the high/low chip structure at offset i. A peak
// with the right correlation magnitude but the wrong pulse pattern is a
// noise artifact and is discarded here.
func (s *Synchronizer) validatePreamble(i int) bool {
	spc := s.cfg.SamplesPerChip

	var chips [PreambleChipCount]float64
	for k := 0; k < PreambleChipCount; k++ {
		chips[k] = floats.Sum(s.buf[i+k*spc:i+(k+1)*spc]) / float64(spc)
	}

	var hi, lo float64
	var nhi, nlo int
	for k, c := range s.cfg.PreambleChips {
		if c != 0 {
			hi += chips[k]
			nhi++
		} else {
			lo += chips[k]
			nlo++
		}
	}
	hi /= float64(nhi)
	lo /= float64(nlo)

	if hi <= 2*lo {
		return false
	}
	for k, c := range s.cfg.PreambleChips {
		if c != 0 && chips[k] <= lo {
			return false
		}
		if c == 0 && chips[k] >= hi {
			return false
		}
	}
	return true
}

// LastPacket returns the raw energy window of the most recently validated
// packet, preamble included, or nil when none has been seen. Diagnostic
// hook for offline analysis.
func (s *Synchronizer) LastPacket() []float64 {
	return s.lastPacket
}

// Stats returns the accumulated synchronizer counters.
func (s *Synchronizer) Stats() SyncStats {
	return s.stats
}

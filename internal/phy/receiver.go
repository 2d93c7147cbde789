package phy

import (
	"github.com/sirupsen/logrus"
)

// Receiver composes the physical-layer chain: interpolate, synchronize,
// demodulate, validate. One receiver serves one sample stream and must be
// fed frames strictly in arrival order; it performs no I/O and keeps no
// clock of its own.
type Receiver struct {
	cfg    *ReceiverConfig
	interp *Interpolator
	sync   *Synchronizer
	bits   *BitParser
}

// NewReceiver builds the full chain for cfg.
func NewReceiver(cfg *ReceiverConfig, logger *logrus.Logger) *Receiver {
	return &Receiver{
		cfg:    cfg,
		interp: NewInterpolator(cfg),
		sync:   NewSynchronizer(cfg, logger),
		bits:   NewBitParser(cfg, logger),
	}
}

// ProcessFrame runs one receive cycle over a frame of baseband samples.
// radioTime is the caller's monotonic time for the frame's first sample.
// It returns the bit parser's packet slots and the count of valid
// entries; only the first count entries are meaningful.
func (r *Receiver) ProcessFrame(frame []complex128, radioTime float64) ([]PhyPacket, int) {
	interpolated := r.interp.Process(frame)
	candidates := r.sync.Process(interpolated)
	return r.bits.Process(candidates, radioTime)
}

// Config returns the derived session parameters.
func (r *Receiver) Config() *ReceiverConfig {
	return r.cfg
}

// LastPacket exposes the synchronizer's diagnostic window: the raw energy
// samples of the most recently validated packet, or nil.
func (r *Receiver) LastPacket() []float64 {
	return r.sync.LastPacket()
}

// SyncStats returns synchronizer counters.
func (r *Receiver) SyncStats() SyncStats {
	return r.sync.Stats()
}

// BitStats returns checksum counters.
func (r *Receiver) BitStats() BitStats {
	return r.bits.Stats()
}

package phy

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Downlink formats this receiver demodulates end to end. Everything else
// is recorded but flagged as a CRC failure without computing a checksum.
const (
	DFAllCall     = 11 // short acquisition squitter, 56 bits
	DFExtSquitter = 17 // extended squitter, 112 bits
)

// PhyPacket is one demodulated physical-layer packet. Bits holds one byte
// per bit, MSB of the message first, always LongPacketBits long; short
// packets only use the first ShortPacketBits entries. CRCError defaults
// true and is cleared only by a passing checksum.
type PhyPacket struct {
	Bits     [LongPacketBits]byte
	CRCError bool
	Time     float64 // radio time of the preamble start, seconds
	DF       byte
	CA       byte
}

// BitStats counts checksum outcomes per downlink format for
// packet-error-rate reporting.
type BitStats struct {
	CRCPassed  uint64
	CRCFailed  uint64
	ShortValid uint64 // DF 11
	LongValid  uint64 // DF 17
}

// BitParser turns candidate windows into PhyPackets: PPM demodulation,
// header extraction and CRC validation. It owns a fixed array of packet
// slots sized to the synchronizer's per-frame capacity; callers must only
// consult the first packetCnt entries of each result.
type BitParser struct {
	cfg    *ReceiverConfig
	logger *logrus.Logger

	symRef  []float64 // +1 over the first chip, -1 over the second
	packets []PhyPacket
	stats   BitStats
}

// NewBitParser creates a bit parser for cfg.
func NewBitParser(cfg *ReceiverConfig, logger *logrus.Logger) *BitParser {
	ref := make([]float64, cfg.SamplesPerSymbol)
	for i := range ref {
		if i < cfg.SamplesPerChip {
			ref[i] = 1
		} else {
			ref[i] = -1
		}
	}
	return &BitParser{
		cfg:     cfg,
		logger:  logger,
		symRef:  ref,
		packets: make([]PhyPacket, cfg.MaxPacketsPerFrame),
	}
}

// Process demodulates every candidate and returns the packet slot array
// plus the number of valid entries. radioTime is the caller-supplied time
// of the current frame's first sample; each packet is stamped with its
// offset within the frame, corrected for the interpolator's group delay.
// Slots beyond the count are zeroed records with CRCError set.
func (p *BitParser) Process(candidates []CandidatePacket, radioTime float64) ([]PhyPacket, int) {
	for i := range p.packets {
		p.packets[i] = PhyPacket{CRCError: true}
	}

	cnt := 0
	for _, cand := range candidates {
		if cnt >= len(p.packets) {
			break
		}
		pkt := &p.packets[cnt]
		p.demodulate(cand.Energy, pkt)
		pkt.DF = foldBits(pkt.Bits[0:5])
		pkt.CA = foldBits(pkt.Bits[5:8])
		pkt.Time = radioTime + float64(cand.Offset-p.cfg.GroupDelay)/float64(p.cfg.OutputRate)

		switch pkt.DF {
		case DFAllCall:
			pkt.CRCError = Checksum(pkt.Bits[:ShortPacketBits]) != 0
		case DFExtSquitter:
			pkt.CRCError = Checksum(pkt.Bits[:LongPacketBits]) != 0
		default:
			// Not a decodable format in this design; leave CRCError set.
		}

		if pkt.CRCError {
			p.stats.CRCFailed++
		} else {
			p.stats.CRCPassed++
			if pkt.DF == DFAllCall {
				p.stats.ShortValid++
			} else {
				p.stats.LongValid++
			}
		}
		cnt++
	}
	return p.packets, cnt
}

// demodulate makes the pulse-position decision for each bit: the dot
// product of the symbol's energy samples with the +1/-1 chip reference.
// A positive statistic decodes 1; zero is a tie and decodes 0.
func (p *BitParser) demodulate(window []float64, pkt *PhyPacket) {
	sps := p.cfg.SamplesPerSymbol
	for b := 0; b < LongPacketBits; b++ {
		seg := window[b*sps : (b+1)*sps]
		if floats.Dot(p.symRef, seg) > 0 {
			pkt.Bits[b] = 1
		} else {
			pkt.Bits[b] = 0
		}
	}
}

// Stats returns the accumulated checksum counters.
func (p *BitParser) Stats() BitStats {
	return p.stats
}

// foldBits packs MSB-first bits into a byte.
func foldBits(bits []byte) byte {
	var v byte
	for _, b := range bits {
		v = v<<1 | (b & 1)
	}
	return v
}

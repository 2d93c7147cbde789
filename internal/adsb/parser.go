package adsb

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"modesrx/internal/phy"
)

// ParserStats counts parse outcomes per message class for telemetry.
type ParserStats struct {
	Messages       uint64
	Identification uint64
	Position       uint64
	PositionFixes  uint64 // positions with a successful global CPR decode
	Velocity       uint64
	Status         uint64
	Unhandled      uint64
	CRCSkipped     uint64 // packets dropped by the CRC gate
}

// Parser maps validated physical-layer packets onto DecodedMessages,
// dispatching on downlink format and, for extended squitters, the type
// code. It owns the CPR pairing state, so one parser serves one receiver
// chain.
type Parser struct {
	logger *logrus.Logger
	cpr    *CPRDecoder
	stats  ParserStats
}

// NewParser creates a parser with empty CPR state.
func NewParser(logger *logrus.Logger) *Parser {
	return &Parser{
		logger: logger,
		cpr:    NewCPRDecoder(logger),
	}
}

// ProcessPackets parses the first cnt packet slots, emitting one message
// per packet that passed CRC, in detection order. CRC-failed packets emit
// nothing but are counted for packet-error-rate telemetry.
func (p *Parser) ProcessPackets(packets []phy.PhyPacket, cnt int) []DecodedMessage {
	var out []DecodedMessage
	for i := 0; i < cnt && i < len(packets); i++ {
		if packets[i].CRCError {
			p.stats.CRCSkipped++
			continue
		}
		out = append(out, p.Parse(&packets[i]))
	}
	return out
}

// Parse decodes a single CRC-validated packet. Unhandled DF/TC
// combinations still yield a message carrying the ICAO address.
func (p *Parser) Parse(pkt *phy.PhyPacket) DecodedMessage {
	msg := NewDecodedMessage()
	msg.DF = pkt.DF
	msg.CA = pkt.CA
	msg.Time = pkt.Time
	msg.ICAO = fmt.Sprintf("%06X", icaoAddress(pkt.Bits[:]))

	p.stats.Messages++

	if pkt.DF != phy.DFExtSquitter && pkt.DF != 18 {
		// Short formats carry nothing beyond the address and header.
		return msg
	}

	msg.TC = byte(bitField(pkt.Bits[:], 33, 37))
	switch {
	case msg.TC >= 1 && msg.TC <= 4:
		p.parseIdentification(pkt.Bits[:], &msg)
		p.stats.Identification++
	case (msg.TC >= 9 && msg.TC <= 18) || (msg.TC >= 20 && msg.TC <= 22):
		p.parseAirbornePosition(pkt.Bits[:], &msg)
		p.stats.Position++
	case msg.TC == 19:
		p.parseVelocity(pkt.Bits[:], &msg)
		p.stats.Velocity++
	case msg.TC == 28:
		p.parseStatus(pkt.Bits[:], &msg)
		p.stats.Status++
	default:
		p.stats.Unhandled++
	}
	return msg
}

// Stats returns the accumulated parse counters.
func (p *Parser) Stats() ParserStats {
	return p.stats
}

// parseIdentification extracts the callsign and emitter category from
// type codes 1-4.
func (p *Parser) parseIdentification(bits []byte, msg *DecodedMessage) {
	msg.Category = MakeCategory(msg.TC, byte(bitField(bits, 38, 40)))

	var cs [8]byte
	for i := 0; i < 8; i++ {
		first := 41 + 6*i
		cs[i] = Charset[bitField(bits, first, first+5)]
	}
	for _, ch := range cs {
		if !(ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == ' ') {
			if p.logger != nil {
				p.logger.WithField("icao", msg.ICAO).Debug("identification with invalid charset, dropping callsign")
			}
			return
		}
	}
	msg.Callsign = strings.TrimRight(string(cs[:]), " ")
}

// parseAirbornePosition extracts the altitude code and CPR fields from
// type codes 9-18 and 20-22, attempting a global position decode.
func (p *Parser) parseAirbornePosition(bits []byte, msg *DecodedMessage) {
	msg.Altitude = decodeAC12(uint16(bitField(bits, 41, 52)))

	msg.CPRFormat = CPRFormat(bitField(bits, 54, 54))
	msg.CPRLat = bitField(bits, 55, 71)
	msg.CPRLon = bitField(bits, 72, 88)
	msg.CPRValid = true

	lat, lon, ok := p.cpr.Decode(icaoAddress(bits), msg.CPRFormat, msg.CPRLat, msg.CPRLon, msg.Time)
	if ok {
		msg.Latitude = lat
		msg.Longitude = lon
		p.stats.PositionFixes++
	}
}

// parseVelocity extracts type code 19. Subtypes 1-2 carry ground-
// referenced east/north components that resolve to polar speed and
// track; subtypes 3-4 carry airspeed and magnetic heading directly.
func (p *Parser) parseVelocity(bits []byte, msg *DecodedMessage) {
	subtype := byte(bitField(bits, 38, 40))
	if subtype < 1 || subtype > 4 {
		p.stats.Unhandled++
		return
	}

	switch subtype {
	case 1, 2:
		ew := bitField(bits, 47, 56)
		ns := bitField(bits, 58, 67)
		if ew != 0 && ns != 0 {
			scale := 1.0
			if subtype == 2 { // supersonic, 4 kt units
				scale = 4.0
			}
			vew := float64(ew-1) * scale
			if bitField(bits, 46, 46) != 0 {
				vew = -vew
			}
			vns := float64(ns-1) * scale
			if bitField(bits, 57, 57) != 0 {
				vns = -vns
			}

			msg.GroundSpeed = math.Hypot(vew, vns)
			track := math.Atan2(vew, vns) * 180 / math.Pi
			if track < 0 {
				track += 360
			}
			msg.Track = track
		}
	case 3, 4:
		if bitField(bits, 46, 46) != 0 {
			msg.Track = float64(bitField(bits, 47, 56)) * 360 / 1024
		}
		as := bitField(bits, 58, 67)
		if as != 0 {
			scale := 1.0
			if subtype == 4 {
				scale = 4.0
			}
			msg.GroundSpeed = float64(as-1) * scale
		}
	}

	// Vertical rate layout is shared across subtypes: source flag, sign,
	// then 9 bits of 64 ft/min units with 0 as the no-data sentinel.
	vr := bitField(bits, 70, 78)
	if vr != 0 {
		rate := float64(vr-1) * 64
		if bitField(bits, 69, 69) != 0 {
			rate = -rate
		}
		msg.VerticalRate = rate
		msg.VRSource = VerticalRateSource(bitField(bits, 68, 68))
	}
}

// parseStatus extracts the emergency/priority state from aircraft status
// messages (type code 28, subtype 1).
func (p *Parser) parseStatus(bits []byte, msg *DecodedMessage) {
	if bitField(bits, 38, 40) != 1 {
		return
	}
	msg.Emergency = EmergencyState(bitField(bits, 41, 43))
}

// icaoAddress reads bits 9-32, the 24-bit announced address.
func icaoAddress(bits []byte) uint32 {
	return bitField(bits, 9, 32)
}

// decodeAC12 decodes the 12-bit altitude code of airborne position
// messages. Zero is the no-altitude sentinel. With the Q bit set the code
// counts 25 ft units offset by -1000 ft; otherwise it is a Gillham coded
// 100 ft altitude.
func decodeAC12(ac uint16) float64 {
	if ac == 0 {
		return math.NaN()
	}

	if ac&0x10 != 0 {
		n := (ac&0x0FE0)>>1 | ac&0x000F
		return float64(n)*25 - 1000
	}

	// Gillham 100 ft encoding: reinsert the M bit as zero and combine the
	// 500 ft and 100 ft groups.
	n13 := (ac&0x0FC0)<<1 | ac&0x003F
	if n13 == 0 {
		return math.NaN()
	}
	hundreds := float64((n13 >> 8) & 0x07)
	fiveHundreds := float64((n13 >> 4) & 0x0F)
	alt := (fiveHundreds*5 + hundreds) * 100
	if alt < -2000 || alt > 60000 {
		return math.NaN()
	}
	return alt
}

// bitField reads an inclusive, 1-based MSB-first bit range from a
// byte-per-bit message, mirroring the bit numbering of the Mode S
// specification tables.
func bitField(bits []byte, first, last int) uint32 {
	var v uint32
	for i := first - 1; i < last && i < len(bits); i++ {
		v = v<<1 | uint32(bits[i]&1)
	}
	return v
}

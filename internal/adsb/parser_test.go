package adsb

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modesrx/internal/phy"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewParser(logger)
}

// makePacket builds a CRC-validated packet from a hex message, padded
// with zeros when shorter than 112 bits.
func makePacket(t *testing.T, s string, at float64) *phy.PhyPacket {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)

	pkt := &phy.PhyPacket{Time: at}
	require.LessOrEqual(t, len(raw)*8, len(pkt.Bits))
	for i, b := range raw {
		for j := 0; j < 8; j++ {
			pkt.Bits[i*8+j] = (b >> (7 - j)) & 1
		}
	}
	pkt.DF = byte(bitField(pkt.Bits[:], 1, 5))
	pkt.CA = byte(bitField(pkt.Bits[:], 6, 8))
	return pkt
}

// setBits writes v into an inclusive, 1-based MSB-first bit range.
func setBits(bits []byte, first, last int, v uint32) {
	for i := last; i >= first; i-- {
		bits[i-1] = byte(v & 1)
		v >>= 1
	}
}

func TestParseIdentification(t *testing.T) {
	p := newTestParser(t)

	msg := p.Parse(makePacket(t, "8D4840D6202CC371C32CE0576098", 0))

	assert.Equal(t, "4840D6", msg.ICAO)
	assert.Equal(t, byte(17), msg.DF)
	assert.Equal(t, byte(5), msg.CA)
	assert.Equal(t, byte(4), msg.TC)
	assert.Equal(t, "KLM1023", msg.Callsign)
	assert.Equal(t, "A0", msg.Category.String())
	assert.True(t, math.IsNaN(msg.Altitude))
	assert.Equal(t, uint64(1), p.Stats().Identification)
}

func TestParseIdentificationRejectsInvalidCharset(t *testing.T) {
	p := newTestParser(t)

	pkt := makePacket(t, "8D4840D6202CC371C32CE0576098", 0)
	// Force the first character code to 0 ("@"), outside A-Z/0-9/space.
	setBits(pkt.Bits[:], 41, 46, 0)

	msg := p.Parse(pkt)
	assert.Empty(t, msg.Callsign)
}

func TestParseAirbornePositionPair(t *testing.T) {
	p := newTestParser(t)

	even := p.Parse(makePacket(t, "8D40621D58C382D690C8AC2863A7", 0))
	assert.Equal(t, "40621D", even.ICAO)
	assert.Equal(t, byte(11), even.TC)
	assert.InDelta(t, 38000.0, even.Altitude, 1e-9)
	assert.Equal(t, CPREven, even.CPRFormat)
	assert.True(t, even.CPRValid)
	assert.Equal(t, uint32(93000), even.CPRLat)
	assert.Equal(t, uint32(51372), even.CPRLon)
	assert.False(t, even.HasPosition(), "no fix from a single frame")

	odd := p.Parse(makePacket(t, "8D40621D58C386435CC412692AD6", 1))
	assert.Equal(t, CPROdd, odd.CPRFormat)
	assert.Equal(t, uint32(74158), odd.CPRLat)
	assert.Equal(t, uint32(50194), odd.CPRLon)
	require.True(t, odd.HasPosition(), "second frame completes the pair")
	assert.InDelta(t, 52.265780, odd.Latitude, 1e-5)
	assert.InDelta(t, 3.938912, odd.Longitude, 1e-5)

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.Position)
	assert.Equal(t, uint64(1), stats.PositionFixes)
}

func TestParseVelocityGroundReferenced(t *testing.T) {
	p := newTestParser(t)

	msg := p.Parse(makePacket(t, "8D485020994409940838175B284F", 0))

	assert.Equal(t, "485020", msg.ICAO)
	assert.Equal(t, byte(19), msg.TC)
	assert.InDelta(t, 159.20, msg.GroundSpeed, 0.01)
	assert.InDelta(t, 182.88, msg.Track, 0.01)
	assert.InDelta(t, -832.0, msg.VerticalRate, 1e-9)
	assert.Equal(t, VRSourceGNSS, msg.VRSource)
	assert.Equal(t, uint64(1), p.Stats().Velocity)
}

func TestParseVelocityAirspeed(t *testing.T) {
	p := newTestParser(t)

	// Hand-built subtype 4 frame: heading 90 degrees, 100 kt in 4 kt
	// units, 1216 ft/min climb from the barometric source.
	pkt := &phy.PhyPacket{DF: 17}
	setBits(pkt.Bits[:], 1, 5, 17)
	setBits(pkt.Bits[:], 9, 32, 0x48F2E3)
	setBits(pkt.Bits[:], 33, 37, 19)
	setBits(pkt.Bits[:], 38, 40, 4)
	setBits(pkt.Bits[:], 46, 46, 1)          // heading available
	setBits(pkt.Bits[:], 47, 56, 256)        // 256/1024 of a turn
	setBits(pkt.Bits[:], 58, 67, 26)         // (26-1)*4 kt
	setBits(pkt.Bits[:], 68, 68, 1)          // barometric
	setBits(pkt.Bits[:], 70, 78, 20)         // (20-1)*64 ft/min

	msg := p.Parse(pkt)
	assert.InDelta(t, 90.0, msg.Track, 1e-9)
	assert.InDelta(t, 100.0, msg.GroundSpeed, 1e-9)
	assert.InDelta(t, 1216.0, msg.VerticalRate, 1e-9)
	assert.Equal(t, VRSourceBaro, msg.VRSource)
}

func TestParseVelocityNoData(t *testing.T) {
	p := newTestParser(t)

	// Subtype 1 with zeroed velocity and vertical rate fields: every
	// sentinel must survive as NaN/unset.
	pkt := &phy.PhyPacket{DF: 17}
	setBits(pkt.Bits[:], 1, 5, 17)
	setBits(pkt.Bits[:], 33, 37, 19)
	setBits(pkt.Bits[:], 38, 40, 1)

	msg := p.Parse(pkt)
	assert.True(t, math.IsNaN(msg.GroundSpeed))
	assert.True(t, math.IsNaN(msg.Track))
	assert.True(t, math.IsNaN(msg.VerticalRate))
	assert.Equal(t, VRSourceUnset, msg.VRSource)
}

func TestParseStatusEmergency(t *testing.T) {
	p := newTestParser(t)

	pkt := &phy.PhyPacket{DF: 17}
	setBits(pkt.Bits[:], 1, 5, 17)
	setBits(pkt.Bits[:], 9, 32, 0x3C6DD0)
	setBits(pkt.Bits[:], 33, 37, 28)
	setBits(pkt.Bits[:], 38, 40, 1)
	setBits(pkt.Bits[:], 41, 43, uint32(EmergencyGeneral))

	msg := p.Parse(pkt)
	assert.Equal(t, EmergencyGeneral, msg.Emergency)
	assert.Equal(t, "general", msg.Emergency.String())
	assert.Equal(t, uint64(1), p.Stats().Status)

	// Other subtypes carry no emergency state.
	setBits(pkt.Bits[:], 38, 40, 2)
	msg = p.Parse(pkt)
	assert.Equal(t, EmergencyUnset, msg.Emergency)
}

func TestParseShortSquitter(t *testing.T) {
	p := newTestParser(t)

	pkt := &phy.PhyPacket{DF: 11, CA: 5}
	setBits(pkt.Bits[:], 1, 5, 11)
	setBits(pkt.Bits[:], 6, 8, 5)
	setBits(pkt.Bits[:], 9, 32, 0x4840D6)
	parity := phy.Parity(pkt.Bits[:32])
	setBits(pkt.Bits[:], 33, 56, parity)

	msg := p.Parse(pkt)
	assert.Equal(t, "4840D6", msg.ICAO)
	assert.Equal(t, byte(11), msg.DF)
	assert.Zero(t, msg.TC)
	assert.Empty(t, msg.Callsign)
	assert.True(t, math.IsNaN(msg.Altitude))
}

func TestParseUnhandledTypeCode(t *testing.T) {
	p := newTestParser(t)

	pkt := &phy.PhyPacket{DF: 17}
	setBits(pkt.Bits[:], 1, 5, 17)
	setBits(pkt.Bits[:], 9, 32, 0xA1B2C3)
	setBits(pkt.Bits[:], 33, 37, 31)

	msg := p.Parse(pkt)
	assert.Equal(t, "A1B2C3", msg.ICAO)
	assert.Equal(t, byte(31), msg.TC)
	assert.Empty(t, msg.Callsign)
	assert.Equal(t, uint64(1), p.Stats().Unhandled)
}

func TestProcessPacketsCRCGate(t *testing.T) {
	p := newTestParser(t)

	good := makePacket(t, "8D4840D6202CC371C32CE0576098", 0)
	bad := makePacket(t, "8D4840D6202CC371C32CE0576098", 0)
	bad.CRCError = true

	packets := []phy.PhyPacket{*good, *bad, *good, {CRCError: true}}
	msgs := p.ProcessPackets(packets, 3)

	require.Len(t, msgs, 2, "CRC failures emit nothing, slots beyond cnt are ignored")
	assert.Equal(t, "4840D6", msgs[0].ICAO)
	assert.Equal(t, uint64(1), p.Stats().CRCSkipped)
}

func TestDecodeAC12(t *testing.T) {
	assert.True(t, math.IsNaN(decodeAC12(0)), "zero is the no-altitude sentinel")
	assert.Equal(t, 38000.0, decodeAC12(0xC38))
	assert.Equal(t, 2175.0, decodeAC12(0xFF))
	assert.Equal(t, -1000.0, decodeAC12(0x10))
}

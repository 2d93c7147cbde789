package adsb

import (
	"math"

	"github.com/sirupsen/logrus"
)

const (
	cprMax = 131072.0 // 2^17, the CPR field range

	// PairingWindow is the maximum radio-time separation between the even
	// and odd frames of a global decode. Staler counterparts are ignored.
	PairingWindow = 10.0
)

type cprFrame struct {
	lat, lon uint32
	time     float64
}

type cprAircraft struct {
	even *cprFrame
	odd  *cprFrame
}

// CPRDecoder performs globally unambiguous CPR position decoding by
// pairing even and odd frames per aircraft. It never guesses: single
// frames, stale pairs and pairs whose implied zone counts disagree all
// yield no position. Timestamps are radio time, not wall clock.
type CPRDecoder struct {
	aircraft map[uint32]*cprAircraft
	logger   *logrus.Logger
}

// NewCPRDecoder creates an empty decoder.
func NewCPRDecoder(logger *logrus.Logger) *CPRDecoder {
	return &CPRDecoder{
		aircraft: make(map[uint32]*cprAircraft),
		logger:   logger,
	}
}

// Decode registers one CPR frame for icao at radio time t and attempts a
// global decode against the stored counterpart. ok is false whenever no
// unambiguous position exists yet.
func (c *CPRDecoder) Decode(icao uint32, format CPRFormat, latCPR, lonCPR uint32, t float64) (lat, lon float64, ok bool) {
	state := c.aircraft[icao]
	if state == nil {
		state = &cprAircraft{}
		c.aircraft[icao] = state
	}

	frame := &cprFrame{lat: latCPR, lon: lonCPR, time: t}
	if format == CPREven {
		state.even = frame
	} else {
		state.odd = frame
	}

	if state.even == nil || state.odd == nil {
		return 0, 0, false
	}
	if math.Abs(state.even.time-state.odd.time) > PairingWindow {
		return 0, 0, false
	}
	return c.decodeGlobal(state.even, state.odd)
}

// decodeGlobal runs the ICAO global decode over an even/odd pair. The
// more recent frame's format picks the longitude solution.
func (c *CPRDecoder) decodeGlobal(even, odd *cprFrame) (float64, float64, bool) {
	const dlatEven = 360.0 / 60.0
	const dlatOdd = 360.0 / 59.0

	lat0 := float64(even.lat)
	lat1 := float64(odd.lat)
	lon0 := float64(even.lon)
	lon1 := float64(odd.lon)

	// Latitude index.
	j := math.Floor((59*lat0-60*lat1)/cprMax + 0.5)

	rlat0 := dlatEven * (cprMod(j, 60) + lat0/cprMax)
	rlat1 := dlatOdd * (cprMod(j, 59) + lat1/cprMax)
	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}
	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	// Both solutions must sit in the same longitude zone band, otherwise
	// the pair spans a zone boundary and the decode is ambiguous.
	if cprNL(rlat0) != cprNL(rlat1) {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"nl_even": cprNL(rlat0),
				"nl_odd":  cprNL(rlat1),
			}).Debug("CPR pair crossed a latitude zone, rejecting")
		}
		return 0, 0, false
	}

	var rlat, rlon float64
	if odd.time > even.time {
		nl := cprNL(rlat1)
		ni := maxInt(nl-1, 1)
		m := math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5)
		rlon = (360.0 / float64(ni)) * (cprMod(m, float64(ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		nl := cprNL(rlat0)
		ni := maxInt(nl, 1)
		m := math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5)
		rlon = (360.0 / float64(ni)) * (cprMod(m, float64(ni)) + lon0/cprMax)
		rlat = rlat0
	}

	// Renormalize longitude to (-180, 180].
	rlon -= math.Floor((rlon+180)/360) * 360

	return rlat, rlon, true
}

// cprMod is the always-positive modulus the CPR algorithm requires.
func cprMod(a, b float64) float64 {
	res := math.Mod(a, b)
	if res < 0 {
		res += b
	}
	return res
}

// cprNL is the longitude zone count for a latitude, per the closed form
// in the ICAO CPR specification (NZ = 15). The function ranges 1 to 59;
// the closed form reaches 60 in the limit at the equator and is clamped.
func cprNL(lat float64) int {
	abs := math.Abs(lat)
	if abs >= 87 {
		return 1
	}

	a := 1 - math.Cos(math.Pi/30)
	b := math.Cos(math.Pi / 180.0 * abs)
	nl := int(math.Floor(2 * math.Pi / math.Acos(1-a/(b*b))))
	if nl > 59 {
		nl = 59
	}
	return nl
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

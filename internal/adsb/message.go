package adsb

import (
	"fmt"
	"math"
)

// Charset is the 6-bit identification alphabet. Indexes outside A-Z, 0-9
// and space are invalid in a callsign.
const Charset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// CPRFormat selects the even or odd position encoding.
type CPRFormat byte

const (
	CPREven CPRFormat = 0
	CPROdd  CPRFormat = 1
)

// VehicleCategory encodes the emitter category as (class set << 3) | value,
// where set 0 is class A (type code 4) through set 3, class D (type code 1).
// CategoryUnset marks messages that carry no category.
type VehicleCategory byte

const CategoryUnset VehicleCategory = 0xFF

// MakeCategory derives the category enumerant from an identification
// message's type code and its 3-bit category subfield.
func MakeCategory(tc, sub byte) VehicleCategory {
	if tc < 1 || tc > 4 {
		return CategoryUnset
	}
	return VehicleCategory((4-tc)<<3 | sub&0x07)
}

func (c VehicleCategory) String() string {
	if c == CategoryUnset {
		return ""
	}
	return fmt.Sprintf("%c%d", 'A'+byte(c>>3), c&0x07)
}

// EmergencyState is the 3-bit priority status from extended squitter
// aircraft status messages.
type EmergencyState byte

const (
	EmergencyNone EmergencyState = iota
	EmergencyGeneral
	EmergencyLifeguard
	EmergencyMinimumFuel
	EmergencyNoCommunications
	EmergencyUnlawfulInterference
	EmergencyDownedAircraft

	EmergencyUnset EmergencyState = 0xFF
)

var emergencyNames = map[EmergencyState]string{
	EmergencyNone:                 "none",
	EmergencyGeneral:              "general",
	EmergencyLifeguard:            "lifeguard",
	EmergencyMinimumFuel:          "minimum-fuel",
	EmergencyNoCommunications:     "no-communications",
	EmergencyUnlawfulInterference: "unlawful-interference",
	EmergencyDownedAircraft:       "downed-aircraft",
}

func (e EmergencyState) String() string {
	if name, ok := emergencyNames[e]; ok {
		return name
	}
	return ""
}

// VerticalRateSource flags which sensor produced the vertical rate.
type VerticalRateSource byte

const (
	VRSourceGNSS VerticalRateSource = 0
	VRSourceBaro VerticalRateSource = 1

	VRSourceUnset VerticalRateSource = 0xFF
)

// DecodedMessage is the application-level view of one validated packet.
// The shape is fixed: every field is always present, with NaN marking
// unset numerics and the empty string unset text, so downstream counters
// and display tables never deal with absent fields.
type DecodedMessage struct {
	ICAO string // 24-bit address as six upper-case hex characters
	DF   byte
	CA   byte
	TC   byte // 0 outside DF 17/18
	Time float64

	Callsign string
	Category VehicleCategory

	Altitude  float64 // feet
	Latitude  float64 // degrees
	Longitude float64 // degrees

	CPRFormat CPRFormat
	CPRValid  bool // raw CPR fields below are populated
	CPRLat    uint32
	CPRLon    uint32

	GroundSpeed  float64 // knots
	Track        float64 // degrees true
	VerticalRate float64 // ft/min
	VRSource     VerticalRateSource

	Emergency EmergencyState
}

// NewDecodedMessage returns a message with every field in its unset state.
func NewDecodedMessage() DecodedMessage {
	nan := math.NaN()
	return DecodedMessage{
		Category:     CategoryUnset,
		Altitude:     nan,
		Latitude:     nan,
		Longitude:    nan,
		GroundSpeed:  nan,
		Track:        nan,
		VerticalRate: nan,
		VRSource:     VRSourceUnset,
		Emergency:    EmergencyUnset,
	}
}

// HasPosition reports whether a global CPR decode populated the
// latitude/longitude pair.
func (m *DecodedMessage) HasPosition() bool {
	return !math.IsNaN(m.Latitude) && !math.IsNaN(m.Longitude)
}

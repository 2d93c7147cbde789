package basestation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"modesrx/internal/adsb"
	"modesrx/internal/logging"
	"modesrx/internal/phy"
)

// SBS transmission types emitted by this receiver.
const (
	TransmissionESIdent    = 1 // extended squitter identification and category
	TransmissionESAirborne = 3 // extended squitter airborne position
	TransmissionESVelocity = 4 // extended squitter airborne velocity
	TransmissionAllCall    = 8 // all-call reply
)

// Writer renders decoded messages as BaseStation (SBS) MSG lines into the
// rotating message log. One line per message; unset fields stay empty.
type Writer struct {
	rotator *logging.LogRotator
	logger  *logrus.Logger
}

// NewWriter creates a writer over the given rotator.
func NewWriter(rotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{rotator: rotator, logger: logger}
}

// WriteMessage appends one SBS line for msg.
func (w *Writer) WriteMessage(msg *adsb.DecodedMessage) error {
	line := FormatMessage(msg, time.Now().UTC())

	out, err := w.rotator.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}
	if _, err := out.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("failed to write log line: %w", err)
	}
	return nil
}

// FormatMessage renders one DecodedMessage as an SBS MSG line stamped
// with now.
func FormatMessage(msg *adsb.DecodedMessage, now time.Time) string {
	dateStr := now.Format("2006/01/02")
	timeStr := now.Format("15:04:05.000")

	tt := transmissionType(msg)
	fields := []string{
		"MSG", fmt.Sprintf("%d", tt),
		"1", "1", msg.ICAO, "1",
		dateStr, timeStr, dateStr, timeStr,
		msg.Callsign,
		formatFloat(msg.Altitude, "%.0f"),
		formatFloat(msg.GroundSpeed, "%.1f"),
		formatFloat(msg.Track, "%.1f"),
		formatFloat(msg.Latitude, "%.6f"),
		formatFloat(msg.Longitude, "%.6f"),
		formatFloat(msg.VerticalRate, "%.0f"),
		"", // squawk, not carried by extended squitters decoded here
		"", // alert
		emergencyFlag(msg),
		"", // SPI
		"", // on ground
	}
	return strings.Join(fields, ",")
}

func transmissionType(msg *adsb.DecodedMessage) int {
	if msg.DF == phy.DFAllCall {
		return TransmissionAllCall
	}
	switch {
	case msg.TC >= 1 && msg.TC <= 4:
		return TransmissionESIdent
	case msg.TC == 19:
		return TransmissionESVelocity
	default:
		return TransmissionESAirborne
	}
}

func formatFloat(v float64, format string) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf(format, v)
}

func emergencyFlag(msg *adsb.DecodedMessage) string {
	if msg.Emergency == adsb.EmergencyUnset || msg.Emergency == adsb.EmergencyNone {
		return ""
	}
	return "1"
}

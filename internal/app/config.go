package app

// Default configuration constants
const (
	DefaultFrequency     = 1090000000 // 1090 MHz Mode S downlink
	DefaultSampleRate    = 2400000    // 2.4 MHz, interpolated 5x to 12 MHz
	DefaultFrameSamples  = 240000     // 100 ms of signal per receive cycle
	DefaultGain          = 40
	DefaultMaxPackets    = 32  // candidate capacity per frame
	DefaultSyncThreshold = 8.0 // correlation gate over mean frame energy
)

// Config holds application configuration
type Config struct {
	InputFile     string // IQ capture to replay; empty selects live RTL-SDR
	DeviceIndex   int
	Frequency     uint32
	SampleRate    int
	FrameSamples  int
	Gain          int
	MaxPackets    int
	SyncThreshold float64
	LogDir        string
	LogRotateUTC  bool
	Verbose       bool
	ShowVersion   bool
}

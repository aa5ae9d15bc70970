package env

import "time"

const (
	GPIO12 = "GPIO12" // rain gauge 1
	GPIO13 = "GPIO13" // rain gauge 2
	GPIO19 = "GPIO19" // uplink LED
	GPIO20 = "GPIO20" // heartbeat LED
	GPIO21 = "GPIO21" // rain tip LED
	GPIO27 = "GPIO27" // anemometer

	Rain1SensorIn = GPIO12
	Rain2SensorIn = GPIO13
	WindSensorIn  = GPIO27

	HeartbeatLed = GPIO20
	UplinkLed    = GPIO19
	RainTipLed   = GPIO21

	BMX1_I2C    = 0x77
	BMX2_I2C    = 0x76
	MCP1_I2C    = 0x18
	MCP2_I2C    = 0x19
	ADS1115_I2C = 0x48 // ads1x15.DefaultOpts

	// Each tip of the bucket is 0.2mm of rain
	MmPerTip = 0.2

	// 1 pulse/second = 2.4km/h = 0.6667 m/s
	MsPerTick = 0.6667

	LEDFlashDuration = time.Millisecond * 100

	WindSamplesPerSecond    = 1
	WindBufferLengthSeconds = 120
	WindGustSeconds         = 3

	// Battery is read through a 1:2 divider
	BatteryDivider = 2.0
)

// Observation intervals and the time we allow the need to send file to be
// worked before the next observation is due.
const (
	ObservationInterval    = time.Minute
	ObservationInterval5m  = 5 * time.Minute
	ObservationInterval15m = 15 * time.Minute

	DrainBudget    = 45 * time.Second
	DrainBudget5m  = 4 * time.Minute
	DrainBudget15m = 14 * time.Minute
)

// SD card layout
const (
	ObsDir     = "OBS"
	N2SFile    = "N2SOBS.TXT"
	ConfigFile = "CONFIG.TXT"
	StateFile  = "EEPROM.YML"
)

const (
	// Keep a little over 1 day. When it fills, it is deleted and we start over.
	N2SMaxFileSize int64 = 512 * 60 * 24
	// Anything this size or smaller can not hold a valid observation
	N2SMinFileSize int64 = 20
)

// Longest line we will read back from the need to send file
const MaxLineSize = 1024

// Radio
const UplinkPort uint8 = 1

const (
	RadioBusyWait   = 10 * time.Second
	RadioPollPeriod = 100 * time.Millisecond
)

// GPS / RTC
const (
	GPSFixWait      = 30 * time.Second
	GPSMinYear      = 2024
	GPSMaxYear      = 2032
	RTCMinYear      = 2024
	RTCMaxYear      = 2033
	FeetPerMetre    = 3.28084
	SoftwareVersion = "FS-LW-GO-1.0.0"
)

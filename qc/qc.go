// Package qc applies the quality control ranges to raw sensor values.
//
// A value that is NaN or outside its admissible range is replaced by the
// error sentinel for its sensor class. The sentinel goes on the wire so the
// backend (and a person reading the logs) can see the sensor fault without
// any other error channel.
package qc

import (
	"math"
	"time"
)

type Range struct {
	Min float64
	Max float64
	Err float64
}

// Units: rain mm per 60 seconds, wind m/s and degrees, pressure hPa,
// temperature C, humidity %RH.
var (
	Rain          = Range{Min: 0, Max: 40, Err: -999.9}
	WindSpeed     = Range{Min: 0, Max: 103, Err: -999.9}
	WindDirection = Range{Min: 0, Max: 360, Err: -999}
	Pressure      = Range{Min: 300, Max: 1100, Err: -999.9}
	Temperature   = Range{Min: -40, Max: 60, Err: -999.9}
	Humidity      = Range{Min: 0, Max: 100, Err: -999.9}
	UV            = Range{Min: 0, Max: 1000, Err: -999.9}
	Visible       = Range{Min: 0, Max: 16000, Err: -999.9}
	IR            = Range{Min: 0, Max: 16000, Err: -999.9}
	Lux           = Range{Min: 0, Max: 150000, Err: -999.9}
)

const rainBasePeriod = 60 * time.Second

// Check returns errorSentinel when value is NaN, below min or above max and
// value unchanged otherwise.
func Check(value, min, max, errorSentinel float64) float64 {
	if math.IsNaN(value) || value < min || value > max {
		return errorSentinel
	}
	return value
}

// Reading is a quality controlled value, either a good value or a fault.
type Reading struct {
	value    float64
	fault    bool
	sentinel float64
}

func (r Range) Check(value float64) Reading {
	bad := math.IsNaN(value) || value < r.Min || value > r.Max
	return Reading{value: value, fault: bad, sentinel: r.Err}
}

// Faulty reports whether the raw value failed the check.
func (r Reading) Faulty() bool {
	return r.fault
}

// Float64 returns the value to report, the sentinel on a fault.
func (r Reading) Float64() float64 {
	if r.fault {
		return r.sentinel
	}
	return r.value
}

// Int32 is Float64 truncated for integer valued observations.
func (r Reading) Int32() int32 {
	return int32(r.Float64())
}

// RainForPeriod checks a rain amount collected over elapsed. The maximum
// allowed is scaled from the 60 second maximum. An elapsed of zero (or less)
// is taken as a full 60 second period.
func RainForPeriod(mm float64, elapsed time.Duration) Reading {
	if elapsed <= 0 {
		elapsed = rainBasePeriod
	}
	r := Rain
	r.Max = (elapsed.Seconds() / rainBasePeriod.Seconds()) * Rain.Max
	return r.Check(mm)
}

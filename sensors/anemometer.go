package sensors

import (
	"context"
	"math"
	"time"

	"github.com/gr-butler/fullstation/buffer"
	"github.com/gr-butler/fullstation/env"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// AnalogIn is a single ADC channel, the wind vane or the battery divider.
type AnalogIn interface {
	Read() (analog.Sample, error)
}

type Anemometer struct {
	gpioPin  gpio.PinIO // Wind speed pulse
	pulses   *Counter
	vane     AnalogIn
	clock    clockwork.Clock
	speedBuf *buffer.SampleBuffer // m/s
	dirBuf   *buffer.SampleBuffer // degrees
}

func NewAnemometer(pinName string, vane AnalogIn, clock clockwork.Clock) *Anemometer {
	windpin := gpioreg.ByName(pinName)
	if windpin == nil {
		logger.Errorf("Failed to find %v - wind pin", pinName)
		return nil
	}
	logger.Infof("%s: %s", windpin, windpin.Function())
	if err := windpin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		logger.Errorf("Failed to set up wind pin [%v]", err)
		return nil
	}
	return newAnemometer(windpin, vane, clock)
}

func newAnemometer(pin gpio.PinIO, vane AnalogIn, clock clockwork.Clock) *Anemometer {
	size := env.WindSamplesPerSecond * env.WindBufferLengthSeconds
	return &Anemometer{
		gpioPin:  pin,
		pulses:   NewCounter(clock),
		vane:     vane,
		clock:    clock,
		speedBuf: buffer.NewBuffer(size),
		dirBuf:   buffer.NewBuffer(size),
	}
}

// Monitor counts cup pulses until ctx is done.
func (a *Anemometer) Monitor(ctx context.Context) {
	logger.Info("Starting wind sensor")
	defer func() { _ = a.gpioPin.Halt() }()
	for ctx.Err() == nil {
		if a.gpioPin.WaitForEdge(time.Second) {
			a.pulses.Inc()
		}
	}
}

// Sample records speed and direction WindSamplesPerSecond times a second
// until ctx is done.
func (a *Anemometer) Sample(ctx context.Context) {
	ticker := a.clock.NewTicker(time.Second / env.WindSamplesPerSecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			count, elapsed := a.pulses.Snapshot()
			a.record(count, elapsed, a.readDirection(count))
		}
	}
}

func (a *Anemometer) record(count int, elapsed time.Duration, dir float64) {
	speed := 0.0
	if elapsed > 0 {
		speed = float64(count) / elapsed.Seconds() * env.MsPerTick
	}
	a.speedBuf.AddItem(speed)
	a.dirBuf.AddItem(dir)
}

func (a *Anemometer) readDirection(count int) float64 {
	// with the cups still the vane is not worth reading
	if count == 0 || a.vane == nil {
		return a.dirBuf.GetLast()
	}
	sample, err := a.vane.Read()
	if err != nil {
		logger.Debugf("Error reading wind direction value [%v]", err)
		return a.dirBuf.GetLast()
	}
	return voltToDegrees(float64(sample.V) / float64(physic.Volt))
}

// Speed is the average speed in m/s over the buffer, NaN before the first
// sample.
func (a *Anemometer) Speed() float64 {
	if a.speedBuf.Len() == 0 {
		return math.NaN()
	}
	avg, _, _, _ := a.speedBuf.GetAverageMinMaxSum()
	return float64(avg)
}

// Gust is the highest 3 second average speed in the buffer and the direction
// at the end of it.
func (a *Anemometer) Gust() (float64, float64) {
	avg, end := a.speedBuf.MaxWindowAverage(env.WindSamplesPerSecond * env.WindGustSeconds)
	if end < 0 {
		return math.NaN(), math.NaN()
	}
	return float64(avg), a.dirBuf.Values()[end]
}

// Direction is the speed weighted vector average of the buffer in degrees.
func (a *Anemometer) Direction() float64 {
	speeds := a.speedBuf.Values()
	dirs := a.dirBuf.Values()
	if len(speeds) == 0 || len(speeds) != len(dirs) {
		return math.NaN()
	}
	return vectorAverage(speeds, dirs)
}

// vectorAverage splits each sample into north-south and east-west components
// and returns the direction of their sum.
func vectorAverage(speeds, dirs []float64) float64 {
	var ns, ew float64
	for i := range speeds {
		rad := dirs[i] * math.Pi / 180
		ns += math.Cos(rad) * speeds[i]
		ew += math.Sin(rad) * speeds[i]
	}
	if ns == 0 && ew == 0 {
		return 0
	}
	deg := math.Atan2(ew, ns) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return math.Mod(math.Round(deg), 360)
}

func voltToDegrees(v float64) float64 {
	// this is based on the sensor datasheet that gives a list of voltages for each direction when set up according
	// to the circuit given.
	switch {
	case v < 0.365:
		return 112.5
	case v < 0.430:
		return 67.5
	case v < 0.535:
		return 90.0
	case v < 0.760:
		return 157.5
	case v < 1.045:
		return 135.0
	case v < 1.295:
		return 202.5
	case v < 1.690:
		return 180.0
	case v < 2.115:
		return 22.5
	case v < 2.590:
		return 45.0
	case v < 3.005:
		return 247.5
	case v < 3.225:
		return 225.0
	case v < 3.635:
		return 337.5
	case v < 3.940:
		return 0
	case v < 4.185:
		return 292.5
	case v < 4.475:
		return 315.0
	default:
		return 270.0
	}
}

/*
Measuring gusts and wind intensity

The gust speed and direction are defined by the maximum three second average
wind speed occurring in any period.

https://www.ncbi.nlm.nih.gov/pmc/articles/PMC5948875/

The wind gust speed, Umax, is defined as a short-duration maximum of the horizontal
wind speed during a longer sampling period (T). Mathematically, it is expressed as
the maximum of the moving averages with a moving average window length equal to the
gust duration (tg).

Direction is averaged as vectors, www.noaa.gov/windav.shtml, so that samples
either side of north do not average to south.
*/

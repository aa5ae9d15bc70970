package sensors

import (
	"context"
	"time"

	"github.com/gr-butler/fullstation/env"
	"github.com/gr-butler/fullstation/led"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpioutil"
)

type Rainmeter struct {
	Name    string
	gpioPin gpio.PinIO // Rain bucket tip pin
	tips    *Counter
	ledOut  *led.LED
}

// NewRainmeter watches the tipping bucket on the named pin.
func NewRainmeter(name, pinName string, clock clockwork.Clock, tipLed *led.LED) *Rainmeter {
	rp := gpioreg.ByName(pinName)
	if rp == nil {
		logger.Errorf("Failed to find %v - rain pin", pinName)
		return nil
	}
	if err := rp.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		logger.Errorf("Failed to set up rain pin [%v]", err)
		return nil
	}
	logger.Infof("%s: %s", rp, rp.Function())

	// Ignore glitches lasting less than 100ms, and ignore repeated edges within 500ms.
	rainpin, err := gpioutil.Debounce(rp, 100*time.Millisecond, 500*time.Millisecond, gpio.FallingEdge)
	if err != nil {
		logger.Errorf("Failed to set debounce [%v]", err)
		return nil
	}
	return newRainmeter(name, rainpin, NewCounter(clock), tipLed)
}

func newRainmeter(name string, pin gpio.PinIO, tips *Counter, tipLed *led.LED) *Rainmeter {
	return &Rainmeter{
		Name:    name,
		gpioPin: pin,
		tips:    tips,
		ledOut:  tipLed,
	}
}

// Monitor counts bucket tips until ctx is done.
func (r *Rainmeter) Monitor(ctx context.Context) {
	logger.Infof("Starting tip bucket monitor [%v]", r.Name)
	defer func() { _ = r.gpioPin.Halt() }()
	for ctx.Err() == nil {
		if !r.gpioPin.WaitForEdge(time.Second) {
			continue
		}
		if r.gpioPin.Read() == gpio.Low {
			r.tips.Inc()
			logger.Debugf("Bucket tip [%v]", r.Name)
			r.ledOut.Flash()
		}
	}
}

// Rain returns the mm of rain since the last call and the time it fell over.
func (r *Rainmeter) Rain() (float64, time.Duration) {
	count, elapsed := r.tips.Snapshot()
	return float64(count) * env.MmPerTip, elapsed
}

package led

import (
	"sync"
	"time"

	"github.com/gr-butler/fullstation/env"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// LED drives an indicator on a GPIO pin. A nil *LED is valid and does
// nothing, so callers need not check whether the board has one fitted.
type LED struct {
	Name    string
	lock    sync.Mutex
	on      bool
	gpioPin gpio.PinIO
}

func NewLED(name string, GPIOPin string) *LED {
	logger.Infof("Creating new LED on pin [%v] called [%v]", GPIOPin, name)
	pin := gpioreg.ByName(GPIOPin)
	if pin == nil {
		logger.Errorf("Failed to find %v pin", GPIOPin)
		return nil
	}
	l := newLED(name, pin)
	// flicker to show it's working
	l.Flicker(3)
	return l
}

func newLED(name string, pin gpio.PinIO) *LED {
	return &LED{Name: name, gpioPin: pin}
}

func (l *LED) On() {
	if l == nil {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = true
	_ = l.gpioPin.Out(gpio.High)
}

func (l *LED) Off() {
	if l == nil {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = false
	_ = l.gpioPin.Out(gpio.Low)
}

// Flash briefly inverts the LED. A request made while a flash is in progress
// is dropped rather than queued.
func (l *LED) Flash() {
	if l == nil {
		return
	}
	if !l.lock.TryLock() {
		logger.Debugf("LED busy [%v]", l.Name)
		return
	}
	defer l.lock.Unlock()
	if !l.on {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(env.LEDFlashDuration)
		_ = l.gpioPin.Out(gpio.Low)
	} else {
		// 'off' flash
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(env.LEDFlashDuration)
		_ = l.gpioPin.Out(gpio.High)
	}
}

func (l *LED) Flicker(pulses int) {
	if l == nil {
		return
	}
	if pulses < 1 || pulses > 100 {
		// reject daft or excessive requests
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	for i := 0; i < pulses; i++ {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(env.LEDFlashDuration)
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(env.LEDFlashDuration)
	}
	l.on = false
}

func (l *LED) IsOn() bool {
	if l == nil {
		return false
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}

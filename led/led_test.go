package led

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestNilLED(t *testing.T) {
	var l *LED
	assert.NotPanics(t, func() {
		l.On()
		l.Flash()
		l.Flicker(2)
		l.Off()
	})
	assert.False(t, l.IsOn())
}

func Test_LED_OnOff(t *testing.T) {
	pin := &gpiotest.Pin{N: "LED"}
	l := newLED("test", pin)

	l.On()
	assert.True(t, l.IsOn())
	assert.Equal(t, gpio.High, pin.Read())

	l.Off()
	assert.False(t, l.IsOn())
	assert.Equal(t, gpio.Low, pin.Read())
}

func Test_LED_FlashRestoresState(t *testing.T) {
	pin := &gpiotest.Pin{N: "LED"}
	l := newLED("test", pin)

	l.Flash()
	assert.Equal(t, gpio.Low, pin.Read())

	l.On()
	l.Flash()
	assert.Equal(t, gpio.High, pin.Read())
	assert.True(t, l.IsOn())
}

func Test_LED_Flicker(t *testing.T) {
	pin := &gpiotest.Pin{N: "LED"}
	l := newLED("test", pin)
	l.On()
	l.Flicker(0)
	assert.True(t, l.IsOn())

	l.Flicker(2)
	assert.False(t, l.IsOn())
	assert.Equal(t, gpio.Low, pin.Read())
}

package sensors

import (
	"math"

	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

// Battery reads the supply through a resistor divider on an ADC channel.
type Battery struct {
	adc     AnalogIn
	divider float64
}

func NewBattery(adc AnalogIn, divider float64) *Battery {
	return &Battery{adc: adc, divider: divider}
}

// Voltage is the battery voltage, 0 when it can not be read.
func (b *Battery) Voltage() float64 {
	if b == nil || b.adc == nil {
		return 0
	}
	sample, err := b.adc.Read()
	if err != nil {
		logger.Errorf("Battery read failed [%v]", err)
		return 0
	}
	v := float64(sample.V) / float64(physic.Volt) * b.divider
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

package sensors

import (
	"periph.io/x/conn/v3/physic"
)

// EnvSensor is satisfied by the periph bmxx80 and mcp9808 devices.
type EnvSensor interface {
	Sense(e *physic.Env) error
}

// Atmosphere is a pressure, temperature and humidity sensor. A BMP280 has no
// humidity element and always reports 0%.
type Atmosphere struct {
	Name string
	dev  EnvSensor
}

func NewAtmosphere(name string, dev EnvSensor) *Atmosphere {
	return &Atmosphere{Name: name, dev: dev}
}

// Read returns pressure in hPa, temperature in C and relative humidity in %.
func (a *Atmosphere) Read() (float64, float64, float64, error) {
	e := physic.Env{}
	if err := a.dev.Sense(&e); err != nil {
		return 0, 0, 0, err
	}
	return hPa(e.Pressure), e.Temperature.Celsius(), humidity(e.Humidity), nil
}

// Thermometer is a temperature only sensor such as the MCP9808.
type Thermometer struct {
	Name string
	dev  EnvSensor
}

func NewThermometer(name string, dev EnvSensor) *Thermometer {
	return &Thermometer{Name: name, dev: dev}
}

// Read returns the temperature in C.
func (t *Thermometer) Read() (float64, error) {
	e := physic.Env{}
	if err := t.dev.Sense(&e); err != nil {
		return 0, err
	}
	return e.Temperature.Celsius(), nil
}

func hPa(p physic.Pressure) float64 {
	return float64(p) / float64(100*physic.Pascal)
}

func humidity(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

package sensors

import (
	"context"

	"github.com/gr-butler/fullstation/env"
	"github.com/gr-butler/fullstation/health"
	"github.com/gr-butler/fullstation/led"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/mcp9808"
	"periph.io/x/host/v3"
)

/*
 * Sensors holds whatever the station found at start up. Anything missing is
 * nil, has its health bit set and is left out of the observation.
 */
type Sensors struct {
	Atm1    *Atmosphere
	Atm2    *Atmosphere
	Temp1   *Thermometer
	Temp2   *Thermometer
	Wind    *Anemometer
	Rain1   *Rainmeter
	Rain2   *Rainmeter
	Battery *Battery

	// Passed in through Options, see fit.
	Light    *Light
	Lux      LuxSensor
	PM       ParticleSensor
	Distance DistanceSensor

	bus  i2c.BusCloser
	pins []ads1x15.PinADC
}

// Options selects the optional parts of the station.
type Options struct {
	Rain1  bool
	Rain2  bool
	TipLed string // flashed on every bucket tip, empty for none

	// No periph drivers, the board build passes them in when fitted.
	Light    LightSensor
	Lux      LuxSensor
	PM       ParticleSensor
	Distance DistanceSensor
}

// InitHardware opens the I2C bus and every sensor on it, then the GPIO
// inputs. Only a failure to reach the host or the bus is returned, a missing
// sensor is logged and recorded in status.
func InitHardware(args env.Args, opts Options, status *health.Status, clock clockwork.Clock) (*Sensors, error) {
	s := &Sensors{}
	if _, err := host.Init(); err != nil {
		logger.Errorf("Failed to init host [%v]", err)
		return nil, err
	}

	bus, err := i2creg.Open(*args.I2CBus)
	if err != nil {
		logger.Errorf("Failed to open I2C [%v]", err)
		return nil, err
	}
	s.bus = bus

	if *args.Bmx1 {
		s.Atm1 = openAtmosphere("bmx1", bus, env.BMX1_I2C, status, health.BMX1)
	}
	if *args.Bmx2 {
		s.Atm2 = openAtmosphere("bmx2", bus, env.BMX2_I2C, status, health.BMX2)
	}

	if *args.Mcp1 {
		s.Temp1 = openThermometer("mcp1", bus, env.MCP1_I2C, status, health.MCP1)
	}
	if args.Mcp2 != nil && *args.Mcp2 {
		s.Temp2 = openThermometer("mcp2", bus, env.MCP2_I2C, status, health.MCP2)
	}

	logger.Info("Starting ADC")
	var vane, battery AnalogIn
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		logger.Errorf("Failed to open ADS1115 [%v]", err)
	} else {
		vane = s.openChannel(adc, ads1x15.Channel0)
		battery = s.openChannel(adc, ads1x15.Channel1)
	}
	if battery != nil {
		s.Battery = NewBattery(battery, env.BatteryDivider)
	}

	if *args.Windon {
		s.Wind = NewAnemometer(env.WindSensorIn, vane, clock)
		if s.Wind == nil || vane == nil {
			status.Set(health.Wind)
		}
	}
	var tipLed *led.LED
	if opts.TipLed != "" {
		tipLed = led.NewLED("rain tip", opts.TipLed)
	}
	if opts.Rain1 {
		s.Rain1 = NewRainmeter("rg1", env.Rain1SensorIn, clock, tipLed)
	}
	if opts.Rain2 {
		s.Rain2 = NewRainmeter("rg2", env.Rain2SensorIn, clock, tipLed)
	}

	s.fit(opts, status)

	logger.Info("Sensors initialized.")
	return s, nil
}

// fit takes the sensors that have no periph driver from opts.
func (s *Sensors) fit(opts Options, status *health.Status) {
	if opts.Light != nil {
		s.Light = NewLight(opts.Light, status)
	}
	s.Lux = opts.Lux
	s.PM = opts.PM
	s.Distance = opts.Distance
}

func openThermometer(name string, bus i2c.Bus, addr uint16, status *health.Status, bit health.Bits) *Thermometer {
	logger.Infof("Starting MCP9808 [%v] at [%#x]", name, addr)
	dev, err := mcp9808.New(bus, &mcp9808.Opts{Addr: int(addr), Res: mcp9808.High})
	if err != nil {
		logger.Errorf("Failed to open MCP9808 [%v] [%v]", name, err)
		status.Set(bit)
		return nil
	}
	return NewThermometer(name, dev)
}

func openAtmosphere(name string, bus i2c.Bus, addr uint16, status *health.Status, bit health.Bits) *Atmosphere {
	logger.Infof("Starting BMx280 [%v] at [%#x]", name, addr)
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		logger.Errorf("Failed to initialize [%v] [%v]", name, err)
		status.Set(bit)
		return nil
	}
	return NewAtmosphere(name, dev)
}

func (s *Sensors) openChannel(adc *ads1x15.Dev, ch ads1x15.Channel) AnalogIn {
	pin, err := adc.PinForChannel(ch, 5*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		logger.Errorf("Failed to open ADC channel [%v] [%v]", ch, err)
		return nil
	}
	s.pins = append(s.pins, pin)
	return pin
}

// Start runs the pulse counters and wind sampler until ctx is done.
func (s *Sensors) Start(ctx context.Context) {
	if s.Wind != nil {
		go s.Wind.Monitor(ctx)
		go s.Wind.Sample(ctx)
	}
	for _, r := range []*Rainmeter{s.Rain1, s.Rain2} {
		if r != nil {
			go r.Monitor(ctx)
		}
	}
}

func (s *Sensors) Close() {
	for _, p := range s.pins {
		_ = p.Halt()
	}
	if s.bus != nil {
		_ = s.bus.Close()
	}
}

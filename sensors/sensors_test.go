package sensors

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gr-butler/fullstation/env"
	"github.com/gr-butler/fullstation/health"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func (c *Counter) peek() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.count
}

func TestCounter_Snapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCounter(clock)
	c.Inc()
	c.Inc()
	c.Inc()
	clock.Advance(time.Minute)

	count, elapsed := c.Snapshot()
	assert.Equal(t, 3, count)
	assert.Equal(t, time.Minute, elapsed)

	count, elapsed = c.Snapshot()
	assert.Equal(t, 0, count)
	assert.Equal(t, time.Duration(0), elapsed)
}

func TestRainmeter_Monitor(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pin := &gpiotest.Pin{N: "rain", EdgesChan: make(chan gpio.Level)}
	r := newRainmeter("rg1", pin, NewCounter(clock), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Monitor(ctx)
		close(done)
	}()

	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.Low
	assert.Eventually(t, func() bool { return r.tips.peek() == 2 }, time.Second, 10*time.Millisecond)

	clock.Advance(5 * time.Minute)
	mm, elapsed := r.Rain()
	assert.InDelta(t, 2*env.MmPerTip, mm, 0.0001)
	assert.Equal(t, 5*time.Minute, elapsed)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

type fakeAnalog struct {
	v   physic.ElectricPotential
	err error
}

func (f *fakeAnalog) Read() (analog.Sample, error) {
	return analog.Sample{V: f.v}, f.err
}

func testAnemometer(vane AnalogIn) (*Anemometer, clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return newAnemometer(&gpiotest.Pin{N: "wind"}, vane, clock), clock
}

func TestAnemometer_NoSamples(t *testing.T) {
	a, _ := testAnemometer(nil)
	assert.True(t, math.IsNaN(a.Speed()))
	assert.True(t, math.IsNaN(a.Direction()))
	ws, wd := a.Gust()
	assert.True(t, math.IsNaN(ws))
	assert.True(t, math.IsNaN(wd))
}

func TestAnemometer_SpeedAndGust(t *testing.T) {
	a, _ := testAnemometer(nil)
	speeds := []int{1, 1, 6, 6, 6, 1}
	dirs := []float64{0, 45, 90, 135, 180, 225}
	for i := range speeds {
		a.record(speeds[i], time.Second, dirs[i])
	}

	assert.InDelta(t, 21*env.MsPerTick/6, a.Speed(), 0.0001)

	ws, wd := a.Gust()
	assert.InDelta(t, 6*env.MsPerTick, ws, 0.0001)
	assert.Equal(t, 180.0, wd)
}

func TestAnemometer_ZeroElapsed(t *testing.T) {
	a, _ := testAnemometer(nil)
	a.record(5, 0, 90)
	assert.Equal(t, 0.0, a.Speed())
}

func TestVectorAverage(t *testing.T) {
	assert.Equal(t, 90.0, vectorAverage([]float64{2, 2}, []float64{80, 100}))
	assert.Equal(t, 0.0, vectorAverage([]float64{2, 2}, []float64{350, 10}))
	assert.Equal(t, 270.0, vectorAverage([]float64{1, 1}, []float64{260, 280}))
	// calm
	assert.Equal(t, 0.0, vectorAverage([]float64{0, 0}, []float64{90, 270}))
	// the faster sample wins
	assert.Equal(t, 180.0, vectorAverage([]float64{0, 5}, []float64{0, 180}))
}

func TestAnemometer_Sample(t *testing.T) {
	vane := &fakeAnalog{v: 1500 * physic.MilliVolt}
	a, clock := testAnemometer(vane)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Sample(ctx)

	clock.BlockUntil(1)
	a.pulses.Inc()
	a.pulses.Inc()
	a.pulses.Inc()
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return a.speedBuf.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.InDelta(t, 3*env.MsPerTick, a.Speed(), 0.0001)
	assert.Equal(t, 180.0, a.Direction())
}

func TestAnemometer_DirectionHeldWhenCalm(t *testing.T) {
	vane := &fakeAnalog{v: 1500 * physic.MilliVolt}
	a, _ := testAnemometer(vane)
	a.record(1, time.Second, a.readDirection(1))
	vane.v = 4600 * physic.MilliVolt
	assert.Equal(t, 180.0, a.readDirection(0))
	assert.Equal(t, 270.0, a.readDirection(1))

	vane.err = errors.New("i2c")
	assert.Equal(t, 180.0, a.readDirection(1))
}

func Test_voltToDegrees(t *testing.T) {
	cases := map[float64]float64{
		0.3:  112.5,
		0.4:  67.5,
		0.9:  135.0,
		1.5:  180.0,
		2.0:  22.5,
		3.8:  0,
		4.3:  315.0,
		4.9:  270.0,
		3.1:  225.0,
		2.75: 247.5,
	}
	for v, deg := range cases {
		assert.Equal(t, deg, voltToDegrees(v), "volts %v", v)
	}
}

type fakeEnv struct {
	env physic.Env
	err error
}

func (f *fakeEnv) Sense(e *physic.Env) error {
	*e = f.env
	return f.err
}

func TestAtmosphere_Read(t *testing.T) {
	dev := &fakeEnv{env: physic.Env{
		Pressure:    101325 * physic.Pascal,
		Temperature: physic.ZeroCelsius + 21500*physic.MilliKelvin,
		Humidity:    55 * physic.PercentRH,
	}}
	p, temp, h, err := NewAtmosphere("bmx1", dev).Read()
	require.NoError(t, err)
	assert.InDelta(t, 1013.25, p, 0.001)
	assert.InDelta(t, 21.5, temp, 0.001)
	assert.InDelta(t, 55.0, h, 0.001)

	dev.err = errors.New("nack")
	_, _, _, err = NewAtmosphere("bmx1", dev).Read()
	assert.Error(t, err)
}

func TestThermometer_Read(t *testing.T) {
	dev := &fakeEnv{env: physic.Env{Temperature: physic.ZeroCelsius - 5*physic.Kelvin}}
	temp, err := NewThermometer("mcp1", dev).Read()
	require.NoError(t, err)
	assert.InDelta(t, -5.0, temp, 0.001)
}

func TestBattery_Voltage(t *testing.T) {
	adc := &fakeAnalog{v: 2050 * physic.MilliVolt}
	assert.InDelta(t, 4.1, NewBattery(adc, env.BatteryDivider).Voltage(), 0.0001)

	adc.err = errors.New("nack")
	assert.Equal(t, 0.0, NewBattery(adc, env.BatteryDivider).Voltage())

	var missing *Battery
	assert.Equal(t, 0.0, missing.Voltage())
}

type fakeLight struct {
	readings []LightReading
	resetErr error
	resets   int
}

func (f *fakeLight) Read() (LightReading, error) {
	r := f.readings[0]
	if len(f.readings) > 1 {
		f.readings = f.readings[1:]
	}
	return r, nil
}

func (f *fakeLight) Reset() error {
	f.resets++
	return f.resetErr
}

func TestLight_ResetOnZeros(t *testing.T) {
	status := health.NewStatus(health.SI1145)
	dev := &fakeLight{readings: []LightReading{
		{Visible: 260, IR: 250, UV: 0.02},
		{},
		{Visible: 261, IR: 252, UV: 0.03},
	}}
	l := NewLight(dev, status)

	assert.Equal(t, 260.0, l.Read().Visible)
	assert.Equal(t, 261.0, l.Read().Visible)
	assert.Equal(t, 1, dev.resets)
	assert.True(t, l.Online())
	assert.False(t, status.Bits().Has(health.SI1145))
}

func TestLight_ZerosFromStartNoReset(t *testing.T) {
	dev := &fakeLight{readings: []LightReading{{}}}
	l := NewLight(dev, health.NewStatus(0))
	l.Read()
	l.Read()
	assert.Equal(t, 0, dev.resets)
}

func TestLight_ResetFails(t *testing.T) {
	status := health.NewStatus(0)
	dev := &fakeLight{
		readings: []LightReading{{Visible: 1}, {}},
		resetErr: errors.New("no device"),
	}
	l := NewLight(dev, status)
	l.Read()
	r := l.Read()
	assert.Equal(t, LightReading{}, r)
	assert.False(t, l.Online())
	assert.True(t, status.Bits().Has(health.SI1145))
}

type fixedLux float64

func (f fixedLux) Lux() (float64, error) { return float64(f), nil }

type fixedDistance float64

func (f fixedDistance) Median() (float64, error) { return float64(f), nil }

type fixedPM struct{}

func (fixedPM) Read() (PMReading, error) { return PMReading{E25: 7}, nil }
func (fixedPM) Clear()                   {}

func TestSensors_Fit(t *testing.T) {
	status := health.NewStatus(0)
	dev := &fakeLight{readings: []LightReading{{Visible: 12}}}
	s := &Sensors{}
	s.fit(Options{Light: dev, Lux: fixedLux(300), PM: fixedPM{}, Distance: fixedDistance(42)}, status)

	require.NotNil(t, s.Light)
	assert.Equal(t, 12.0, s.Light.Read().Visible)
	lux, err := s.Lux.Lux()
	require.NoError(t, err)
	assert.Equal(t, 300.0, lux)
	pm, _ := s.PM.Read()
	assert.Equal(t, int32(7), pm.E25)
	ds, _ := s.Distance.Median()
	assert.Equal(t, 42.0, ds)
}

func TestSensors_FitNothing(t *testing.T) {
	s := &Sensors{}
	s.fit(Options{}, health.NewStatus(0))
	assert.Nil(t, s.Light)
	assert.Nil(t, s.Lux)
	assert.Nil(t, s.PM)
	assert.Nil(t, s.Distance)
}

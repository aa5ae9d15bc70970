package main

import (
	"math"

	"github.com/gr-butler/fullstation/health"
	"github.com/gr-butler/fullstation/qc"
	"github.com/gr-butler/fullstation/sensors"
	logger "github.com/sirupsen/logrus"
)

type atmosphereSensor interface {
	Read() (float64, float64, float64, error)
}

type thermometer interface {
	Read() (float64, error)
}

type lightSensor interface {
	Read() sensors.LightReading
	Online() bool
}

// addAtmosphere adds pressure, temperature and humidity from each BMx280.
// A read failure reports the error sentinels and sets the sensor's bit.
func (w *weatherstation) addAtmosphere() {
	w.addBMX("1", w.atm1, health.BMX1)
	w.addBMX("2", w.atm2, health.BMX2)
}

func (w *weatherstation) addBMX(n string, a atmosphereSensor, bit health.Bits) {
	if a == nil {
		return
	}
	p, t, h, err := a.Read()
	if err != nil {
		logger.Errorf("BMX%v read failed [%v]", n, err)
		p, t, h = math.NaN(), math.NaN(), math.NaN()
	}
	w.status.Mark(bit, err != nil)

	bp := qc.Pressure.Check(p)
	bt := qc.Temperature.Check(t)
	bh := qc.Humidity.Check(h)
	w.addFloat("bp"+n, bp.Float64())
	w.addFloat("bt"+n, bt.Float64())
	w.addFloat("bh"+n, bh.Float64())

	if bit != health.BMX1 {
		return
	}
	if !bp.Faulty() {
		Prom_atmPresure.Set(bp.Float64())
	}
	if !bh.Faulty() {
		Prom_humidity.Set(bh.Float64())
	}
}

func (w *weatherstation) addLight() {
	if w.light == nil || !w.light.Online() {
		return
	}
	r := w.light.Read()
	w.addFloat("sv1", qc.Visible.Check(r.Visible).Float64())
	w.addFloat("si1", qc.IR.Check(r.IR).Float64())
	w.addFloat("su1", qc.UV.Check(r.UV).Float64())
}

func (w *weatherstation) addTemperature() {
	if mt, ok := w.readMCP("mt1", w.temp1, health.MCP1); ok {
		Prom_temperature.Set(mt)
	}
	w.readMCP("mt2", w.temp2, health.MCP2)
}

// readMCP adds one MCP9808 reading. ok is false when there is no usable value.
func (w *weatherstation) readMCP(key string, th thermometer, bit health.Bits) (float64, bool) {
	if th == nil {
		return 0, false
	}
	t, err := th.Read()
	if err != nil {
		logger.Errorf("[%v] read failed [%v]", key, err)
		t = math.NaN()
	}
	w.status.Mark(bit, err != nil)
	mt := qc.Temperature.Check(t)
	w.addFloat(key, mt.Float64())
	return mt.Float64(), !mt.Faulty()
}

func (w *weatherstation) addLux() {
	if w.lux == nil {
		return
	}
	lx, err := w.lux.Lux()
	if err != nil {
		logger.Errorf("Lux read failed [%v]", err)
		lx = math.NaN()
	}
	w.status.Mark(health.Lux, err != nil)
	w.addFloat("lx", qc.Lux.Check(lx).Float64())
}

// addParticles adds the highest concentrations seen since the last
// observation and starts a new period.
func (w *weatherstation) addParticles() {
	if w.pm == nil {
		return
	}
	r, err := w.pm.Read()
	w.status.Mark(health.PM25AQI, err != nil)
	if err != nil {
		logger.Errorf("PM read failed [%v]", err)
		return
	}
	w.addInt("pm1s10", r.S10)
	w.addInt("pm1s25", r.S25)
	w.addInt("pm1s100", r.S100)
	w.addInt("pm1e10", r.E10)
	w.addInt("pm1e25", r.E25)
	w.addInt("pm1e100", r.E100)
	w.pm.Clear()
}

func (w *weatherstation) addDistance() {
	if w.distance == nil || w.cfg.DS <= 0 {
		return
	}
	d, err := w.distance.Median()
	if err != nil {
		logger.Errorf("Distance read failed [%v]", err)
		return
	}
	w.addFloat("ds", d)
}

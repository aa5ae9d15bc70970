package main

import (
	"github.com/gr-butler/fullstation/qc"
)

type windSensor interface {
	Speed() float64
	Direction() float64
	Gust() (float64, float64)
}

// addWind adds average speed, vector average direction, gust and gust
// direction. Directions are whole degrees.
func (w *weatherstation) addWind() {
	if w.wind == nil {
		return
	}
	ws := qc.WindSpeed.Check(w.wind.Speed())
	wd := qc.WindDirection.Check(w.wind.Direction())
	gust, gustDir := w.wind.Gust()
	wg := qc.WindSpeed.Check(gust)
	wgd := qc.WindDirection.Check(gustDir)

	w.addFloat("ws", ws.Float64())
	w.addInt("wd", wd.Int32())
	w.addFloat("wg", wg.Float64())
	w.addInt("wgd", wgd.Int32())

	if !ws.Faulty() {
		Prom_windspeed.Set(ws.Float64())
	}
	if !wg.Faulty() {
		Prom_windgust.Set(wg.Float64())
	}
	if !wd.Faulty() {
		Prom_windDirection.Set(wd.Float64())
	}
}

package main

import (
	"time"

	"github.com/gr-butler/fullstation/qc"
	logger "github.com/sirupsen/logrus"
)

type rainGauge interface {
	Rain() (float64, time.Duration)
}

// addRain adds rg, rgt and rgp for each fitted gauge. Good readings are
// added to today's totals first, a faulty reading is reported but never
// accumulated.
func (w *weatherstation) addRain(now time.Time) {
	if w.rain1 == nil && w.rain2 == nil {
		return
	}
	rg1 := readRain(w.rain1)
	rg2 := readRain(w.rain2)

	err := w.state.UpdateRainTotals(now,
		rg1.Float64(), w.rain1 != nil && !rg1.Faulty(),
		rg2.Float64(), w.rain2 != nil && !rg2.Faulty())
	if err != nil {
		logger.Errorf("EEPROM:Rain totals not saved [%v]", err)
	}
	st := w.state.State()

	if w.rain1 != nil {
		w.addFloat("rg1", rg1.Float64())
		w.addFloat("rgt1", st.Rain1Today)
		w.addFloat("rgp1", st.Rain1Prior)
		Prom_rainDayTotal.Set(st.Rain1Today)
	}
	if w.rain2 != nil {
		w.addFloat("rg2", rg2.Float64())
		w.addFloat("rgt2", st.Rain2Today)
		w.addFloat("rgp2", st.Rain2Prior)
	}
}

func readRain(g rainGauge) qc.Reading {
	if g == nil {
		return qc.Reading{}
	}
	mm, elapsed := g.Rain()
	r := qc.RainForPeriod(mm, elapsed)
	if r.Faulty() {
		logger.Warnf("Rain [%v]mm in [%v] failed QC", mm, elapsed)
	}
	return r
}

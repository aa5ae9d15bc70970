package main

import (
	"context"
	"time"

	"github.com/gr-butler/fullstation/gps"
	"github.com/gr-butler/fullstation/health"
	"github.com/gr-butler/fullstation/obs"
	"github.com/gr-butler/fullstation/radio"
	logger "github.com/sirupsen/logrus"
)

type archiver interface {
	Record(ctx context.Context, ts time.Time, hth uint32, line string) error
}

// Reporting runs an observation cycle on every interval boundary until ctx
// is done.
func (w *weatherstation) Reporting(ctx context.Context) {
	interval := w.cfg.Interval()
	logger.Infof("Observation interval [%v]", interval)

	select {
	case <-ctx.Done():
		return
	case <-w.clock.After(untilNext(w.clock.Now(), interval)):
	}
	ticker := w.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		w.cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}

// untilNext is the wait from now to the next multiple of interval.
func untilNext(now time.Time, interval time.Duration) time.Duration {
	return now.Truncate(interval).Add(interval).Sub(now)
}

// cycle takes one observation, logs it, then sends it or saves it for later.
// The need to send file is only worked after a live send succeeds.
func (w *weatherstation) cycle(ctx context.Context) {
	start := w.clock.Now()
	now := start.UTC()
	if !gps.ClockValid(now) {
		logger.Warnf("OBS:Clock not valid [%v], skipping", now.Format(time.RFC3339))
		Prom_observations.WithLabelValues("skipped").Inc()
		return
	}

	logger.Info("OBS:Take")
	w.takeObservation(now.Truncate(time.Second))

	logger.Info("OBS:Log")
	w.logObservation(ctx)

	payload, err := obs.Render(&w.rec, obs.FormTransmit)
	if err != nil {
		logger.Errorf("OBS:Build failed [%v]", err)
		return
	}
	res := w.tx.Send([]byte(payload))
	if res == radio.Sent {
		logger.Info("FS->PUB OK")
		w.uplinkLed.Flash()
		Prom_observations.WithLabelValues("sent").Inc()
		n := w.queue.Drain(ctx, w.drainBudget(start), w.tx)
		Prom_n2sDrained.Add(float64(n))
	} else {
		logger.Warnf("FS->PUB FAILED [%v]", res)
		w.saveToQueue()
	}

	Prom_n2sFileSize.Set(float64(w.queue.Size()))
	Prom_health.Set(float64(w.status.Bits()))
	if took := w.clock.Since(start); took > w.cfg.Interval() {
		logger.Warnf("OBS:Cycle overran [%v] > [%v]", took, w.cfg.Interval())
	}
}

// drainBudget is the configured budget less the time this cycle has already
// used, so a slow live send cannot push the drain into the next interval.
func (w *weatherstation) drainBudget(start time.Time) time.Duration {
	left := w.cfg.DrainBudget() - w.clock.Since(start)
	if left < 0 {
		return 0
	}
	return left
}

func (w *weatherstation) takeObservation(now time.Time) {
	bv := 0.0
	if w.battery != nil {
		bv = w.battery.Voltage()
	}
	w.rec.Start(now, bv, w.status.Bits())

	w.addRain(now)
	w.addDistance()
	w.addWind()
	w.addAtmosphere()
	w.addLight()
	w.addTemperature()
	w.addLux()
	w.addParticles()

	// sensors may have changed their bits while being read
	w.rec.Health = w.status.Bits()
}

func (w *weatherstation) logObservation(ctx context.Context) {
	line, err := obs.Render(&w.rec, obs.FormLog)
	if err != nil {
		logger.Errorf("OBS:Log render failed [%v]", err)
		return
	}
	w.setLatest(line)

	if err := w.card.LogObservation(w.rec.Timestamp, line); err != nil {
		logger.Errorf("SD:Log failed [%v]", err)
	}
	if w.archive == nil {
		return
	}
	if err := w.archive.Record(ctx, w.rec.Timestamp, uint32(w.rec.Health), line); err != nil {
		logger.Errorf("Failed to write to db [%v]", err)
	}
}

func (w *weatherstation) saveToQueue() {
	line, err := obs.Render(&w.rec, obs.FormQueue)
	if err != nil {
		logger.Errorf("OBS:N2S render failed [%v]", err)
		return
	}
	if err := w.queue.Append(line); err != nil {
		logger.Errorf("OBS:N2S save failed [%v]", err)
		Prom_observations.WithLabelValues("lost").Inc()
		return
	}
	Prom_observations.WithLabelValues("queued").Inc()
}

func (w *weatherstation) addFloat(id string, v float64) {
	if err := w.rec.AddFloat(id, v); err != nil {
		logger.Errorf("OBS:Add [%v] [%v]", id, err)
	}
}

func (w *weatherstation) addInt(id string, v int32) {
	if err := w.rec.AddInt(id, v); err != nil {
		logger.Errorf("OBS:Add [%v] [%v]", id, err)
	}
}

// reportPosition waits for a GPS fix and sends the position once.
func (w *weatherstation) reportPosition(ctx context.Context, rx gps.Receiver) {
	fix, ok := gps.Acquire(ctx, rx, w.clock, w.gpsWait)
	w.status.Mark(health.GPS, !ok)
	if !ok {
		return
	}
	bv := 0.0
	if w.battery != nil {
		bv = w.battery.Voltage()
	}
	now := w.clock.Now()
	gps.NewReport(now, now.Sub(w.started), bv, w.status.Bits(), fix).Publish(w.tx)
}

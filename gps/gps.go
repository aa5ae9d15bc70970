// Package gps sets the station clock from a GPS receiver and reports the
// station's position once after start up.
package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/gr-butler/fullstation/env"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

type Fix struct {
	Time       time.Time
	Lat        float64
	Lon        float64
	AltM       float64
	Satellites int
}

func (f Fix) AltF() float64 {
	return f.AltM * env.FeetPerMetre
}

// Valid reports whether the fix has a believable date and at least one
// satellite.
func (f Fix) Valid() bool {
	return yearIn(f.Time, env.GPSMinYear, env.GPSMaxYear) && f.Satellites > 0
}

// ClockValid reports whether t can be used to timestamp observations.
func ClockValid(t time.Time) bool {
	return yearIn(t, env.RTCMinYear, env.RTCMaxYear)
}

func yearIn(t time.Time, min, max int) bool {
	y := t.UTC().Year()
	return y >= min && y <= max
}

// how often Acquire looks at the receiver
var pollPeriod = time.Second

// Receiver gives the most recent fix.
type Receiver interface {
	Fix() Fix
}

// NMEA builds a fix from RMC and GGA sentences.
type NMEA struct {
	lock sync.Mutex
	fix  Fix
}

func NewNMEA() *NMEA {
	return &NMEA{}
}

func (n *NMEA) Fix() Fix {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.fix
}

// Update feeds one sentence to the receiver. Sentences other than RMC and GGA
// are ignored.
func (n *NMEA) Update(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return fmt.Errorf("parse nmea: %w", err)
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	switch m := s.(type) {
	case nmea.RMC:
		if m.Validity != nmea.ValidRMC || !m.Date.Valid || !m.Time.Valid {
			return nil
		}
		n.fix.Time = time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
			m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
		n.fix.Lat = m.Latitude
		n.fix.Lon = m.Longitude
	case nmea.GGA:
		if m.FixQuality == nmea.Invalid {
			n.fix.Satellites = 0
			return nil
		}
		n.fix.Satellites = int(m.NumSatellites)
		n.fix.AltM = m.Altitude
	}
	return nil
}

// Run reads sentences from r until it ends or ctx is done.
func (n *NMEA) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := n.Update(scanner.Text()); err != nil {
			logger.Debugf("GPS:Bad sentence [%v]", err)
		}
	}
	return scanner.Err()
}

// Acquire waits up to wait for the receiver to report a valid fix.
func Acquire(ctx context.Context, rx Receiver, clock clockwork.Clock, wait time.Duration) (Fix, bool) {
	fix := rx.Fix()
	if fix.Valid() {
		logger.Info("GPS:VALID")
		return fix, true
	}
	logger.Info("GPS:TM NOT VALID")

	deadline := clock.Now().Add(wait)
	ticker := clock.NewTicker(pollPeriod)
	defer ticker.Stop()
	for clock.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return Fix{}, false
		case <-ticker.Chan():
		}
		fix = rx.Fix()
		if fix.Valid() {
			logger.Info("GPS:VALID")
			logger.Infof("GPS: DATE [%v] LAT [%f] LON [%f] ALT [%fm] SAT [%d]",
				fix.Time.Format(time.RFC3339), fix.Lat, fix.Lon, fix.AltM, fix.Satellites)
			return fix, true
		}
	}
	logger.Warn("GPS:TM NO SYNC")
	return Fix{}, false
}

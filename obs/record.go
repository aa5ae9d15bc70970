// Package obs holds one observation interval's results and renders it into
// the log, transmit and need to send line formats.
package obs

import (
	"errors"
	"time"

	"github.com/gr-butler/fullstation/health"
)

// MaxSensors is the number of sensor slots in a record.
const MaxSensors = 48

type Kind int

const (
	Float Kind = iota
	Int
	Unsigned
)

var (
	ErrNotInUse   = errors.New("observation not in use")
	ErrRecordFull = errors.New("observation has no free sensor slot")
)

type Sensor struct {
	ID    string
	Kind  Kind
	F     float64
	I     int32
	U     uint32
	InUse bool
}

// Record is a fixed size observation. It is cleared and refilled every cycle,
// never reallocated.
type Record struct {
	InUse          bool
	Timestamp      time.Time
	BatteryVoltage float64
	Health         health.Bits
	sensors        [MaxSensors]Sensor
	next           int
}

// Clear marks the record and every slot as unused.
func (r *Record) Clear() {
	r.InUse = false
	for i := range r.sensors {
		r.sensors[i].InUse = false
	}
	r.next = 0
}

// Start clears the record and marks it in use for an observation taken at ts.
func (r *Record) Start(ts time.Time, bv float64, hth health.Bits) {
	r.Clear()
	r.InUse = true
	r.Timestamp = ts
	r.BatteryVoltage = bv
	r.Health = hth
}

func (r *Record) AddFloat(id string, v float64) error {
	s, err := r.slot(id, Float)
	if err != nil {
		return err
	}
	s.F = v
	return nil
}

func (r *Record) AddInt(id string, v int32) error {
	s, err := r.slot(id, Int)
	if err != nil {
		return err
	}
	s.I = v
	return nil
}

func (r *Record) AddUnsigned(id string, v uint32) error {
	s, err := r.slot(id, Unsigned)
	if err != nil {
		return err
	}
	s.U = v
	return nil
}

func (r *Record) slot(id string, k Kind) (*Sensor, error) {
	if r.next >= MaxSensors {
		return nil, ErrRecordFull
	}
	s := &r.sensors[r.next]
	r.next++
	s.ID = id
	s.Kind = k
	s.F, s.I, s.U = 0, 0, 0
	s.InUse = true
	return s, nil
}

// Sensors returns the slots in use, in the order they were added.
func (r *Record) Sensors() []Sensor {
	out := make([]Sensor, 0, r.next)
	for _, s := range r.sensors {
		if s.InUse {
			out = append(out, s)
		}
	}
	return out
}

// Len is the number of slots in use.
func (r *Record) Len() int {
	n := 0
	for i := range r.sensors {
		if r.sensors[i].InUse {
			n++
		}
	}
	return n
}

// Lookup returns the first slot with the given id.
func (r *Record) Lookup(id string) (Sensor, bool) {
	for _, s := range r.sensors {
		if s.InUse && s.ID == id {
			return s, true
		}
	}
	return Sensor{}, false
}

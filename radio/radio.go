// Package radio is the single path out of the station. Live observations, the
// need to send drain and the GPS report all go through one Transport.
package radio

import (
	"sync"
	"time"

	"github.com/gr-butler/fullstation/env"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

type Result int

const (
	// Sent means the payload was accepted for transmission, not that it was
	// delivered.
	Sent Result = iota
	// Busy means a previous transmission was still outstanding after the
	// busy wait.
	Busy
	// Unavailable means the radio has not joined, or refused the payload.
	Unavailable
)

func (r Result) String() string {
	switch r {
	case Sent:
		return "Sent"
	case Busy:
		return "Busy"
	case Unavailable:
		return "Unavailable"
	}
	return "Unknown"
}

// Radio is the uplink hardware, or whatever stands in for it.
type Radio interface {
	// Joined reports whether the radio has network credentials and can send.
	Joined() bool
	// Busy reports whether a transmission is still outstanding.
	Busy() bool
	// Service lets the radio make progress on outstanding work.
	Service()
	// Queue hands a payload to the radio for transmission on port.
	Queue(port uint8, payload []byte, confirmed bool) error
}

type Transport struct {
	lock  sync.Mutex
	radio Radio
	clock clockwork.Clock
	wait  time.Duration
	poll  time.Duration
	port  uint8
}

func NewTransport(r Radio, clock clockwork.Clock) *Transport {
	return &Transport{
		radio: r,
		clock: clock,
		wait:  env.RadioBusyWait,
		poll:  env.RadioPollPeriod,
		port:  env.UplinkPort,
	}
}

// Send queues payload for unconfirmed transmission. When the radio is busy it
// is serviced for up to the busy wait before giving up. Only one caller is
// in Send at a time.
func (t *Transport) Send(payload []byte) Result {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.radio.Joined() {
		logger.Warn("LW:Not Valid")
		return Unavailable
	}

	if t.radio.Busy() {
		logger.Info("LW:RetryWait")
		deadline := t.clock.Now().Add(t.wait)
		for t.radio.Busy() && t.clock.Now().Before(deadline) {
			t.radio.Service()
			t.clock.Sleep(t.poll)
		}
		logger.Info("LW:Retry")
		if t.radio.Busy() {
			logger.Warn("LW:Busy, OBS NOT Sent")
			return Busy
		}
	}

	logger.Debug("LW:OBS Queuing")
	if err := t.radio.Queue(t.port, payload, false); err != nil {
		logger.Errorf("LW:Queue failed [%v]", err)
		return Unavailable
	}
	logger.Infof("LW:OBS Queued [%d bytes]", len(payload))
	return Sent
}

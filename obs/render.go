package obs

import (
	"math"
	"strconv"
	"strings"

	"github.com/gr-butler/fullstation/health"
	logger "github.com/sirupsen/logrus"
)

type Form int

const (
	// FormLog is the JSON shaped line written to the daily log file
	FormLog Form = iota
	// FormTransmit is the url query line sent over the air
	FormTransmit
	// FormQueue is FormTransmit with the from need to send bit set
	FormQueue
)

func (f Form) String() string {
	switch f {
	case FormLog:
		return "log"
	case FormTransmit:
		return "transmit"
	case FormQueue:
		return "queue"
	}
	return "unknown"
}

const (
	logTimeFormat = "2006-01-02T15:04:05"
	// go magic date with ':' url encoded
	urlTimeFormat = "2006-01-02T15%3A04%3A05"
)

// Render builds the text for the record in the given form. The record is not
// modified.
func Render(r *Record, form Form) (string, error) {
	if !r.InUse {
		logger.Warnf("OBS render [%v]: record empty", form)
		return "", ErrNotInUse
	}

	hth := r.Health
	if form == FormQueue {
		hth |= health.FromN2S
	}

	var sb strings.Builder
	ts := r.Timestamp.UTC()

	if form == FormLog {
		sb.WriteString(`{"at":"`)
		sb.WriteString(ts.Format(logTimeFormat))
		sb.WriteString(`","bv":`)
		sb.WriteString(batteryVoltage(r.BatteryVoltage))
		sb.WriteString(`,"hth":`)
		sb.WriteString(strconv.FormatUint(uint64(hth), 10))
	} else {
		sb.WriteString("at=")
		sb.WriteString(ts.Format(urlTimeFormat))
		sb.WriteString("&bv=")
		sb.WriteString(batteryVoltage(r.BatteryVoltage))
		sb.WriteString("&hth=")
		sb.WriteString(strconv.FormatUint(uint64(hth), 10))
	}

	for i := range r.sensors {
		s := &r.sensors[i]
		if !s.InUse {
			continue
		}
		if form == FormLog {
			sb.WriteString(`,"`)
			sb.WriteString(s.ID)
			sb.WriteString(`":`)
		} else {
			sb.WriteByte('&')
			sb.WriteString(s.ID)
			sb.WriteByte('=')
		}
		sb.WriteString(s.value())
	}

	if form == FormLog {
		sb.WriteByte('}')
	}
	return sb.String(), nil
}

func (s *Sensor) value() string {
	switch s.Kind {
	case Int:
		return strconv.FormatInt(int64(s.I), 10)
	case Unsigned:
		return strconv.FormatUint(uint64(s.U), 10)
	default:
		return strconv.FormatFloat(s.F, 'f', 1, 64)
	}
}

// batteryVoltage formats volts as D.DD from hundredths of a volt.
func batteryVoltage(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	cv := int64(math.Round(v * 100))
	sign := ""
	if cv < 0 {
		sign = "-"
		cv = -cv
	}
	frac := strconv.FormatInt(cv%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cv/100, 10) + "." + frac
}

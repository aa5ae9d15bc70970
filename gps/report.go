package gps

import (
	"strconv"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/gr-butler/fullstation/health"
	"github.com/gr-butler/fullstation/radio"
	logger "github.com/sirupsen/logrus"
)

// Report is the station position message.
type Report struct {
	At         string `url:"at"`
	Ms         int64  `url:"ms"`
	Battery    string `url:"bv"`
	Health     uint32 `url:"hth"`
	Lat        string `url:"lat"`
	Lon        string `url:"lon"`
	AltMetres  string `url:"altm"`
	AltFeet    string `url:"altf"`
	Satellites int    `url:"sat"`
}

func NewReport(now time.Time, uptime time.Duration, bv float64, hth health.Bits, fix Fix) Report {
	return Report{
		At:         now.UTC().Format("2006-01-02T15:04:05"),
		Ms:         uptime.Milliseconds(),
		Battery:    strconv.FormatFloat(bv, 'f', 2, 64),
		Health:     uint32(hth),
		Lat:        strconv.FormatFloat(fix.Lat, 'f', 6, 64),
		Lon:        strconv.FormatFloat(fix.Lon, 'f', 6, 64),
		AltMetres:  strconv.FormatFloat(fix.AltM, 'f', 6, 64),
		AltFeet:    strconv.FormatFloat(fix.AltF(), 'f', 6, 64),
		Satellites: fix.Satellites,
	}
}

// Encode gives the report in query string form.
func (r Report) Encode() (string, error) {
	vals, err := query.Values(r)
	if err != nil {
		return "", err
	}
	return vals.Encode(), nil
}

// Sender is the shared uplink, normally a *radio.Transport.
type Sender interface {
	Send(payload []byte) radio.Result
}

// Publish sends the report once. It is not queued when the send fails.
func (r Report) Publish(t Sender) radio.Result {
	payload, err := r.Encode()
	if err != nil {
		logger.Errorf("GPS->PUB encode failed [%v]", err)
		return radio.Unavailable
	}
	logger.Infof("GPS report [%v]", payload)
	res := t.Send([]byte(payload))
	if res != radio.Sent {
		logger.Warnf("GPS->PUB FAILED [%v]", res)
		return res
	}
	logger.Info("GPS->PUB OK")
	return res
}

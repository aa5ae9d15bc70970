package sensors

import (
	"github.com/gr-butler/fullstation/health"
	logger "github.com/sirupsen/logrus"
)

type LightReading struct {
	Visible float64
	IR      float64
	UV      float64
}

func (l LightReading) sum() float64 {
	return l.Visible + l.IR + l.UV
}

// LightSensor is an SI1145 style visible, IR and UV sensor.
type LightSensor interface {
	Read() (LightReading, error)
	Reset() error
}

// Light wraps a LightSensor that is known to drop to all zeros and stay there
// until it is reset.
type Light struct {
	dev    LightSensor
	status *health.Status
	last   LightReading
	online bool
}

func NewLight(dev LightSensor, status *health.Status) *Light {
	return &Light{dev: dev, status: status, online: true}
}

// Online is false once a reset has failed.
func (l *Light) Online() bool {
	return l.online
}

// Read returns the current reading. When it is all zeros after a non zero
// reading the device is reset and read again. A failed reset marks the
// sensor offline and sets the SI1145 health bit.
func (l *Light) Read() LightReading {
	cur, err := l.dev.Read()
	if err != nil {
		logger.Errorf("Light sensor read failed [%v]", err)
	}
	if cur.sum() == 0 && l.last.sum() != 0 {
		logger.Info("Light sensor reset")
		if err := l.dev.Reset(); err != nil {
			logger.Errorf("Light sensor offline [%v]", err)
			l.online = false
			l.status.Set(health.SI1145)
		} else {
			logger.Info("Light sensor online")
			l.status.Clear(health.SI1145)
			if cur, err = l.dev.Read(); err != nil {
				logger.Errorf("Light sensor read failed [%v]", err)
			}
		}
	}
	l.last = cur
	return cur
}

// LuxSensor is a VEML7700 style ambient light sensor.
type LuxSensor interface {
	Lux() (float64, error)
}

// PMReading holds the maximum particle concentrations, in ug/m3, seen since
// the last Clear. S is standard particle, E atmospheric environmental.
type PMReading struct {
	S10, S25, S100 int32
	E10, E25, E100 int32
}

// ParticleSensor is a PM25AQI style particle counter.
type ParticleSensor interface {
	Read() (PMReading, error)
	Clear()
}

// DistanceSensor is a snow or stream depth sensor.
type DistanceSensor interface {
	Median() (float64, error)
}

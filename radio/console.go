package radio

import (
	"errors"

	logger "github.com/sirupsen/logrus"
)

// ConsoleRadio logs payloads instead of sending them. It is always joined and
// never busy.
type ConsoleRadio struct{}

func (ConsoleRadio) Joined() bool { return true }

func (ConsoleRadio) Busy() bool { return false }

func (ConsoleRadio) Service() {}

func (ConsoleRadio) Queue(port uint8, payload []byte, confirmed bool) error {
	logger.Infof("LW:TX port [%v] confirmed [%v] [%s]", port, confirmed, payload)
	return nil
}

// OfflineRadio is a station with no uplink. It never joins, so every
// observation goes to the need to send file.
type OfflineRadio struct{}

func (OfflineRadio) Joined() bool { return false }

func (OfflineRadio) Busy() bool { return false }

func (OfflineRadio) Service() {}

func (OfflineRadio) Queue(port uint8, payload []byte, confirmed bool) error {
	return errors.New("radio offline")
}

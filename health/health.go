// Package health holds the station status bits that are carried in every
// observation as the "hth" field.
package health

import (
	"sync"

	logger "github.com/sirupsen/logrus"
)

type Bits uint32

const (
	PowerOn Bits = 1 << iota
	SD
	OLED
	N2S
	FromN2S // observation was re-sent from the need to send file
	Wind
	BMX1
	BMX2
	HTU21DF
	SI1145
	MCP1
	MCP2
	LoRa
	SHT1
	SHT2
	HIH8
	Lux
	PM25AQI
	GPS
)

var names = map[Bits]string{
	PowerOn: "PWRON",
	SD:      "SD",
	OLED:    "OLED",
	N2S:     "N2S",
	FromN2S: "FROM_N2S",
	Wind:    "WIND",
	BMX1:    "BMX1",
	BMX2:    "BMX2",
	HTU21DF: "HTU21DF",
	SI1145:  "SI1145",
	MCP1:    "MCP1",
	MCP2:    "MCP2",
	LoRa:    "LORA",
	SHT1:    "SHT1",
	SHT2:    "SHT2",
	HIH8:    "HIH8",
	Lux:     "LUX",
	PM25AQI: "PM25AQI",
	GPS:     "GPS",
}

func (b Bits) Has(bit Bits) bool {
	return b&bit == bit
}

func (b Bits) String() string {
	s := ""
	for i := 0; i < 32; i++ {
		bit := Bits(1) << i
		if b&bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		if n, ok := names[bit]; ok {
			s += n
		} else {
			s += "?"
		}
	}
	return s
}

// Status is the shared, cumulative bitmask. Subsystems turn their bit on when
// they go unavailable and off again when they recover.
type Status struct {
	lock sync.Mutex
	bits Bits
}

func NewStatus(initial Bits) *Status {
	return &Status{bits: initial}
}

func (s *Status) Set(bit Bits) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.bits&bit != bit {
		logger.Debugf("Health bit on [%v]", bit)
	}
	s.bits |= bit
}

func (s *Status) Clear(bit Bits) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.bits&bit != 0 {
		logger.Debugf("Health bit off [%v]", bit)
	}
	s.bits &^= bit
}

// Mark sets the bit when failed is true, clears it otherwise.
func (s *Status) Mark(bit Bits, failed bool) {
	if failed {
		s.Set(bit)
		return
	}
	s.Clear(bit)
}

func (s *Status) Bits() Bits {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.bits
}

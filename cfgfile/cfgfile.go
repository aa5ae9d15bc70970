// Package cfgfile reads CONFIG.TXT, the station settings kept on the SD card
// as key=value lines.
package cfgfile

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gr-butler/fullstation/env"
	logger "github.com/sirupsen/logrus"
)

type Mode int

const (
	OTAA Mode = 0
	ABP  Mode = 1
)

func (m Mode) String() string {
	if m == ABP {
		return "ABP"
	}
	return "OTAA"
}

type Config struct {
	LWMode  Mode
	AppEUI  string
	DevEUI  string
	AppKey  string
	DevAddr string
	NwkSKey string
	AppSKey string

	RG1 bool
	RG2 bool
	// Distance sensor type, 0 is off
	DS int

	FiveMinute    bool
	FifteenMinute bool
	// Hours between restarts, 0 is off
	DailyReboot int
}

// hex digits expected for each key
var keyLengths = map[string]int{
	"lw_appeui":  16,
	"lw_deveui":  16,
	"lw_appkey":  32,
	"lw_devaddr": 8,
	"lw_nwkskey": 32,
	"lw_appskey": 32,
}

// Load reads the config file at path. When it can not be read every setting
// is off.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		logger.Errorf("CF:Open ERR [%v]", err)
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads key=value lines from r. Lines starting with # are comments and
// the first value for a key wins. Bad values are logged and left off.
func Parse(r io.Reader) (Config, error) {
	values := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			logger.Warnf("CF:Ignored [%v]", line)
			continue
		}
		if _, seen := values[key]; !seen {
			values[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	c := Config{
		AppEUI:  hexValue(values, "lw_appeui"),
		DevEUI:  hexValue(values, "lw_deveui"),
		AppKey:  hexValue(values, "lw_appkey"),
		DevAddr: hexValue(values, "lw_devaddr"),
		NwkSKey: hexValue(values, "lw_nwkskey"),
		AppSKey: hexValue(values, "lw_appskey"),

		RG1:           intValue(values, "rg1_enable") > 0,
		RG2:           intValue(values, "rg2_enable") > 0,
		DS:            intValue(values, "ds_enable"),
		FiveMinute:    intValue(values, "5m_enable") > 0,
		FifteenMinute: intValue(values, "15m_enable") > 0,
		DailyReboot:   intValue(values, "daily_reboot"),
	}
	switch m := intValue(values, "lw_mode"); m {
	case 0:
		c.LWMode = OTAA
	case 1:
		c.LWMode = ABP
	default:
		logger.Warnf("CF:lw_mode invalid [%v], using OTAA", m)
	}
	if c.DailyReboot < 0 {
		logger.Warnf("CF:daily_reboot invalid [%v]", c.DailyReboot)
		c.DailyReboot = 0
	}
	return c, nil
}

func intValue(values map[string]string, key string) int {
	v, ok := values[key]
	if !ok {
		logger.Infof("CF:%s not set", key)
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("CF:%s=[%v] not a number", key, v)
		return 0
	}
	logger.Infof("CF:%s=[%d]", key, i)
	return i
}

func hexValue(values map[string]string, key string) string {
	v, ok := values[key]
	if !ok {
		return ""
	}
	if _, err := hex.DecodeString(v); err != nil || len(v) != keyLengths[key] {
		logger.Warnf("CF:%s=[%v] invalid", key, v)
		return ""
	}
	logger.Infof("CF:%s=[%v]", key, v)
	return strings.ToUpper(v)
}

// Valid reports whether the LoRaWAN credentials for the configured mode are
// all present.
func (c Config) Valid() bool {
	if c.LWMode == ABP {
		return c.DevAddr != "" && c.NwkSKey != "" && c.AppSKey != ""
	}
	return c.AppEUI != "" && c.DevEUI != "" && c.AppKey != ""
}

// DeviceID names the station on the network.
func (c Config) DeviceID() string {
	if c.LWMode == ABP {
		return c.DevAddr
	}
	return c.DevEUI
}

// Interval between observations. 5 minute mode takes precedence.
func (c Config) Interval() time.Duration {
	switch {
	case c.FiveMinute:
		return env.ObservationInterval5m
	case c.FifteenMinute:
		return env.ObservationInterval15m
	}
	return env.ObservationInterval
}

// DrainBudget is how long the need to send file may be worked each cycle.
func (c Config) DrainBudget() time.Duration {
	switch {
	case c.FiveMinute:
		return env.DrainBudget5m
	case c.FifteenMinute:
		return env.DrainBudget15m
	}
	return env.DrainBudget
}

// RebootAfter is the time to run before restarting, 0 when restarts are off.
func (c Config) RebootAfter() time.Duration {
	return time.Duration(c.DailyReboot) * time.Hour
}

// Package sdcard is the station's SD card. The card shares its bus with the
// LoRa radio, every access goes through Acquire which deselects the radio
// first.
package sdcard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gr-butler/fullstation/env"
	"github.com/gr-butler/fullstation/health"
	logger "github.com/sirupsen/logrus"
)

var ErrNoCard = errors.New("sd card not available")

// CRLF ends every line we write, matching what the card has always held.
const CRLF = "\r\n"

type Card struct {
	lock     sync.Mutex
	root     string
	exists   bool
	deselect func()
	status   *health.Status
}

// New mounts the card at root and makes sure the observation directory
// exists. A card that can not be used is returned unavailable with the SD
// health bit set. deselect is called before every access to release the
// radio's chip select, it may be nil.
func New(root string, status *health.Status, deselect func()) *Card {
	c := &Card{
		root:     root,
		deselect: deselect,
		status:   status,
	}

	c.Acquire()
	defer c.Release()

	obsDir := filepath.Join(root, env.ObsDir)
	if _, err := os.Stat(obsDir); err == nil {
		logger.Info("SD:Online")
		logger.Info("SD:OBS DIR Exists")
		c.exists = true
		return c
	}
	if err := os.MkdirAll(obsDir, 0o755); err != nil {
		logger.Errorf("SD:MKDIR OBS ERR [%v]", err)
		logger.Error("SD:Offline")
		status.Set(health.SD)
		return c
	}
	logger.Info("SD:MKDIR OBS OK")
	logger.Info("SD:Online")
	c.exists = true
	return c
}

func (c *Card) Available() bool {
	return c.exists
}

// Acquire takes the bus for SD access.
func (c *Card) Acquire() {
	c.lock.Lock()
	if c.deselect != nil {
		c.deselect()
	}
}

func (c *Card) Release() {
	c.lock.Unlock()
}

// Path returns the location of a file on the card.
func (c *Card) Path(name string) string {
	return filepath.Join(c.root, name)
}

// LogObservation appends line to the day's log file, OBS/YYYYMMDD.log.
func (c *Card) LogObservation(ts time.Time, line string) error {
	if !c.exists {
		logger.Warn("SD:NOT EXIST")
		return ErrNoCard
	}
	name := LogFileName(ts)
	logger.Debugf("SD log file [%v]", name)

	c.Acquire()
	defer c.Release()

	f, err := os.OpenFile(c.Path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		c.status.Set(health.SD)
		logger.Errorf("SD:Open(Log)ERR [%v]", err)
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, line+CRLF); err != nil {
		c.status.Set(health.SD)
		logger.Errorf("SD:Write(Log)ERR [%v]", err)
		return fmt.Errorf("write log: %w", err)
	}
	c.status.Clear(health.SD)
	logger.Info("OBS Logged to SD")
	return nil
}

// LogFileName is the per day log file, relative to the card root.
func LogFileName(ts time.Time) string {
	return filepath.Join(env.ObsDir, ts.UTC().Format("20060102")+".log")
}

// Reader wraps r so that every read holds the bus. A file can then be worked
// through slowly while the radio is used between reads.
func (c *Card) Reader(r io.Reader) io.Reader {
	return &busReader{c: c, r: r}
}

type busReader struct {
	c *Card
	r io.Reader
}

func (b *busReader) Read(p []byte) (int, error) {
	b.c.Acquire()
	defer b.c.Release()
	return b.r.Read(p)
}

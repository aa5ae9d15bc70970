// Package eeprom keeps the small amount of station state that has to survive
// a restart: the need to send resume offset and the rain totals.
package eeprom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type State struct {
	N2SOffset int64 `yaml:"n2sfp"`
	// Day the today totals belong to, YYYYMMDD UTC
	Day        string  `yaml:"day"`
	Rain1Today float64 `yaml:"rgt1"`
	Rain1Prior float64 `yaml:"rgp1"`
	Rain2Today float64 `yaml:"rgt2"`
	Rain2Prior float64 `yaml:"rgp2"`
}

type Store struct {
	lock  sync.Mutex
	path  string
	state State
}

// Open loads the state file at path. A missing or unreadable file starts
// from zero, the state is rebuilt as the station runs.
func Open(path string) *Store {
	s := &Store{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Errorf("EEPROM:Read ERR [%v]", err)
		}
		logger.Info("EEPROM:Initialized")
		return s
	}
	if err := yaml.Unmarshal(b, &s.state); err != nil {
		logger.Errorf("EEPROM:Invalid, reinitializing [%v]", err)
		s.state = State{}
		return s
	}
	logger.Infof("EEPROM:Loaded n2sfp [%v]", s.state.N2SOffset)
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

func (s *Store) Offset() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state.N2SOffset
}

func (s *Store) SetOffset(off int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.state.N2SOffset = off
	return s.save()
}

// UpdateRainTotals adds the rain that fell since the last observation to
// today's totals. On the first update of a new UTC day, today's totals become
// the prior day's. Faulty readings are passed as ok false and not added.
func (s *Store) UpdateRainTotals(now time.Time, rg1 float64, ok1 bool, rg2 float64, ok2 bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	day := now.UTC().Format("20060102")
	if s.state.Day != day {
		if s.state.Day != "" {
			logger.Infof("EEPROM:Rain totals rollover [%v]->[%v]", s.state.Day, day)
			s.state.Rain1Prior = s.state.Rain1Today
			s.state.Rain2Prior = s.state.Rain2Today
		}
		s.state.Rain1Today = 0
		s.state.Rain2Today = 0
		s.state.Day = day
	}
	if ok1 {
		s.state.Rain1Today += rg1
	}
	if ok2 {
		s.state.Rain2Today += rg2
	}
	return s.save()
}

// save writes the state to a temporary file and renames it into place so a
// power cut never leaves a half written file. Caller holds the lock.
func (s *Store) save() error {
	b, err := yaml.Marshal(&s.state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

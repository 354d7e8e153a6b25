// Package seqnum holds the durable outbound sequence counter for a FIX
// session. The counter survives process restarts: every message ever sent
// consumed exactly one number, and the last consumed number is always on
// disk before the message that carries it leaves the process.
package seqnum

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrStorageUnavailable means the sequence record exists but cannot be
// read back as an integer. There is no safe guess for a sequence number,
// so callers must treat this as fatal for the session.
var ErrStorageUnavailable = errors.New("sequence record unavailable")

// Store is a file-backed counter of the last used outbound sequence
// number. The file holds the value as plain decimal text and is replaced
// whole on every change, so a crash can never leave a torn record.
type Store struct {
	mu   sync.Mutex
	path string
	cur  int
}

// Open loads the counter from path. A missing file means a fresh session
// and the counter starts at 1.
func Open(path string) (*Store, error) {
	s := &Store{path: path, cur: 1}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrStorageUnavailable, strings.TrimSpace(string(data)))
	}
	s.cur = v
	return s, nil
}

// Current returns the last used sequence number without consuming one.
func (s *Store) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Next increments the counter, persists it, and returns the new value.
// The value is durable before it is returned, so a crash between persist
// and send loses at most one number, never reuses one.
func (s *Store) Next() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur + 1
	if err := s.persist(next); err != nil {
		return 0, err
	}
	s.cur = next
	return next, nil
}

// Set overwrites the counter. Used for the daily reset and for gap
// recovery realignment.
func (s *Store) Set(v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(v); err != nil {
		return err
	}
	s.cur = v
	return nil
}

// ResetIfDue applies the daily reset policy: if now is at or after
// today's midnight in loc, the counter resets to 1. This runs once at
// session creation; a session that stays open across midnight is not
// reset by this check.
func (s *Store) ResetIfDue(now time.Time, loc *time.Location) (bool, error) {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Before(midnight) {
		return false, nil
	}
	if err := s.Set(1); err != nil {
		return false, err
	}
	return true, nil
}

// persist writes the whole value to a temp file and renames it over the
// record. Callers hold s.mu.
func (s *Store) persist(v int) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(v)), 0644); err != nil {
		return fmt.Errorf("persist sequence: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("persist sequence: %w", err)
	}
	return nil
}

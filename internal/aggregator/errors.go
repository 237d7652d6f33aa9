package aggregator

import (
	"errors"
	"fmt"

	"github.com/pable/go-football-metrics/internal/model"
)

// Sentinel kinds; the typed errors below match them via errors.Is.
var (
	ErrMissingData  = errors.New("no defined xG value")
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate event id")
)

// MissingDataError is returned when an average is requested over a set with no
// defined expected-goals value.
type MissingDataError struct {
	Scope string // e.g. "match 3788741", "player Karim Benzema"
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("%s: %s", e.Scope, ErrMissingData)
}

func (e *MissingDataError) Unwrap() error { return ErrMissingData }

// NotFoundError is returned when a match id or player name is absent from the
// source data.
type NotFoundError struct {
	Kind string // "match" or "player"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Kind, e.Key, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateKeyError is returned when two shots share one event id.
type DuplicateKeyError struct {
	ID model.EventID
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateKey, e.ID)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

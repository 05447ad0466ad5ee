// Package trace persists decision traces. The controller never reads them
// back; they exist for inspection and replay tooling.
package trace

import (
	"errors"

	"github.com/damoonsh/Halite/tick"
)

// Recorder receives one trace per tick and player.
type Recorder interface {
	Record(tr tick.Trace) error
	Close() error
}

type multi []Recorder

// Multi fans every trace out to all recorders. Errors from each are joined.
func Multi(recs ...Recorder) Recorder {
	return multi(recs)
}

func (m multi) Record(tr tick.Trace) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(tr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

// Discard drops every trace.
var Discard Recorder = discard{}

func (discard) Record(tick.Trace) error { return nil }
func (discard) Close() error            { return nil }

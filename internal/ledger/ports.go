package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Persister when nothing is stored under a key.
var ErrNotFound = errors.New("ledger blob not found")

// Ports for outbound adapters.
type (
	// Persister stores one serialized ledger per key.
	Persister interface {
		Load(ctx context.Context, key string) ([]byte, error)
		Save(ctx context.Context, key string, blob []byte) error
	}

	// Notifier is told about every applied mutation. Failures are logged
	// and never undo the mutation.
	Notifier interface {
		Publish(ctx context.Context, ev ChangeEvent) error
	}

	// Observer receives outcome counts, typically for metrics.
	Observer interface {
		ObserveMutation(op string, outcome string)
		ObserveLoad(outcome string)
	}
)

// ChangeEvent describes an applied mutation.
type ChangeEvent struct {
	Key       string
	Operation string
	RecordID  int64
	Persisted bool
	At        time.Time
}

// Mutation outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeUnsaved   = "unsaved"
	OutcomeUnchanged = "unchanged"
	OutcomeRefused   = "refused"
)

// Load outcomes reported to the Observer.
const (
	LoadOK      = "ok"
	LoadEmpty   = "empty"
	LoadCorrupt = "corrupt"
	LoadError   = "error"
)

type nopObserver struct{}

func (nopObserver) ObserveMutation(string, string) {}
func (nopObserver) ObserveLoad(string)             {}

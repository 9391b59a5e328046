// Package ledger owns the canonical ledger snapshot: it loads and validates
// the persisted blob, applies mutations atomically and persists after each
// one.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"debtledger/internal/core"
	"debtledger/internal/log"
)

// DefaultKey is the namespaced key the ledger is stored under.
const DefaultKey = "debtExpenseTracker"

// Outcome is the result of a mutation, suitable for a user notification.
type Outcome struct {
	Applied   bool   `json:"applied"`
	Persisted bool   `json:"persisted"`
	ID        int64  `json:"id,omitempty"`
	Message   string `json:"message"`
}

// Store holds a single ledger. All methods are safe for concurrent use;
// mutations are serialized.
type Store struct {
	mu   sync.Mutex
	snap core.Snapshot
	// unread is set while the stored ledger could not be read. Writing in
	// that state would replace the real ledger with defaults.
	unread    bool
	persister Persister
	key       string
	now       func() time.Time
	ids       *IDGenerator
	notifier  Notifier
	observer  Observer
	logger    *log.Logger
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock sets the time source used for validation and ID assignment.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// New returns a Store holding the default snapshot. Call Load to read the
// persisted ledger.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		snap:      core.DefaultSnapshot(),
		persister: p,
		key:       DefaultKey,
		now:       time.Now,
		observer:  nopObserver{},
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = NewIDGenerator(s.now)
	return s
}

// Key returns the key the ledger is persisted under.
func (s *Store) Key() string { return s.key }

// Load reads the persisted ledger. A missing blob yields the default
// snapshot and no error. A malformed blob yields the default snapshot and a
// *CorruptDataError the caller should show as a warning. When the medium
// cannot be read at all the Store also shows defaults, but it refuses to
// write until a read succeeds.
func (s *Store) Load(ctx context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, outcome, err := s.read(ctx)
	s.snap = snap
	s.unread = outcome == LoadError
	s.ids.Seed(snap.MaxID())
	s.observer.ObserveLoad(outcome)

	switch outcome {
	case LoadCorrupt:
		s.logger.WarnContext(ctx, "Invalid ledger data in storage, using defaults",
			log.FieldOperation, log.OpLoad,
			log.FieldLedgerKey, s.key, log.FieldError, err)
	case LoadError:
		s.logger.ErrorContext(ctx, "Error loading ledger data, using defaults",
			log.FieldOperation, log.OpLoad,
			log.FieldLedgerKey, s.key, log.FieldError, err)
	default:
		s.logger.DebugContext(ctx, "Ledger loaded",
			log.FieldLedgerKey, s.key,
			log.FieldExpenses, len(snap.Expenses),
			log.FieldPayments, len(snap.DebtPayments))
	}
	return snap.Clone(), err
}

func (s *Store) read(ctx context.Context) (core.Snapshot, string, error) {
	blob, err := s.persister.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return core.DefaultSnapshot(), LoadEmpty, nil
	}
	if err != nil {
		return core.DefaultSnapshot(), LoadError, fmt.Errorf("load ledger %q: %w", s.key, err)
	}
	snap, err := Decode(blob)
	if err != nil {
		return core.DefaultSnapshot(), LoadCorrupt, err
	}
	return snap, LoadOK, nil
}

// rereadLocked retries a failed read before a mutation. It reports whether
// the Store now holds the stored ledger (or defaults for a corrupt one).
func (s *Store) rereadLocked(ctx context.Context) bool {
	snap, outcome, err := s.read(ctx)
	s.observer.ObserveLoad(outcome)
	if outcome == LoadError {
		s.logger.ErrorContext(ctx, "Ledger still unreadable",
			log.FieldOperation, log.OpLoad,
			log.FieldLedgerKey, s.key,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeStorage)
		return false
	}
	if outcome == LoadCorrupt {
		s.logger.WarnContext(ctx, "Invalid ledger data in storage, using defaults",
			log.FieldOperation, log.OpLoad,
			log.FieldLedgerKey, s.key, log.FieldError, err)
	}
	s.snap = snap
	s.unread = false
	s.ids.Seed(snap.MaxID())
	s.logger.InfoContext(ctx, "Ledger reloaded after read failure", log.FieldLedgerKey, s.key)
	return true
}

// Persist writes the current snapshot. It reports false on any failure and
// never returns an error.
func (s *Store) Persist(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) bool {
	if s.unread {
		s.logger.ErrorContext(ctx, "Refusing to save over a ledger that could not be read",
			log.FieldOperation, log.OpPersist,
			log.FieldLedgerKey, s.key,
			log.FieldErrorType, log.ErrorTypeStorage)
		return false
	}
	blob, err := Encode(s.snap)
	if err == nil {
		err = s.persister.Save(ctx, s.key, blob)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving ledger data",
			log.FieldOperation, log.OpPersist,
			log.FieldLedgerKey, s.key,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeStorage)
		return false
	}
	return true
}

// Snapshot returns a deep copy of the current ledger.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Aggregates computes every derived value from the current ledger.
func (s *Store) Aggregates() core.Aggregates {
	return core.Summarize(s.Snapshot())
}

// Export returns the pretty-printed JSON of the current ledger, exactly as
// stored.
func (s *Store) Export() ([]byte, error) {
	return EncodeIndent(s.Snapshot())
}

func (s *Store) AddExpense(ctx context.Context, e core.Expense) (Outcome, error) {
	return s.mutate(ctx, log.OpAddExpense, MsgExpenseAdded, func(snap *core.Snapshot) (int64, error) {
		if err := core.ValidateExpense(e, s.now()); err != nil {
			return 0, err
		}
		e.ID = s.ids.Next()
		snap.Expenses = append(snap.Expenses, e)
		return e.ID, nil
	})
}

func (s *Store) AddPayment(ctx context.Context, p core.Payment) (Outcome, error) {
	return s.mutate(ctx, log.OpAddPayment, MsgPaymentAdded, func(snap *core.Snapshot) (int64, error) {
		if err := core.ValidatePayment(p, s.now()); err != nil {
			return 0, err
		}
		p.ID = s.ids.Next()
		snap.DebtPayments = append(snap.DebtPayments, p)
		return p.ID, nil
	})
}

// DeleteExpense removes the expense with the given ID. An unknown ID is not
// an error: nothing is saved or announced and the outcome says so.
func (s *Store) DeleteExpense(ctx context.Context, id int64) (Outcome, error) {
	return s.mutate(ctx, log.OpDeleteExpense, MsgExpenseDeleted, func(snap *core.Snapshot) (int64, error) {
		n := len(snap.Expenses)
		snap.Expenses = slices.DeleteFunc(snap.Expenses, func(e core.Expense) bool { return e.ID == id })
		if len(snap.Expenses) == n {
			return id, unchanged(MsgExpenseMissing)
		}
		return id, nil
	})
}

// DeletePayment removes the payment with the given ID. An unknown ID is not
// an error: nothing is saved or announced and the outcome says so.
func (s *Store) DeletePayment(ctx context.Context, id int64) (Outcome, error) {
	return s.mutate(ctx, log.OpDeletePayment, MsgPaymentDeleted, func(snap *core.Snapshot) (int64, error) {
		n := len(snap.DebtPayments)
		snap.DebtPayments = slices.DeleteFunc(snap.DebtPayments, func(p core.Payment) bool { return p.ID == id })
		if len(snap.DebtPayments) == n {
			return id, unchanged(MsgPaymentMissing)
		}
		return id, nil
	})
}

// ResetMonth clears expenses and payments, keeping salary and initial debt.
func (s *Store) ResetMonth(ctx context.Context) (Outcome, error) {
	return s.mutate(ctx, log.OpResetMonth, MsgMonthReset, func(snap *core.Snapshot) (int64, error) {
		snap.Expenses = []core.Expense{}
		snap.DebtPayments = []core.Payment{}
		return 0, nil
	})
}

// ClearAll restores the default snapshot.
func (s *Store) ClearAll(ctx context.Context) (Outcome, error) {
	return s.mutate(ctx, log.OpClearAll, MsgAllCleared, func(snap *core.Snapshot) (int64, error) {
		*snap = core.DefaultSnapshot()
		return 0, nil
	})
}

func (s *Store) SetSalary(ctx context.Context, v float64) (Outcome, error) {
	return s.mutate(ctx, log.OpSetSalary, MsgSalaryUpdated, func(snap *core.Snapshot) (int64, error) {
		if err := core.ValidateSalary(v); err != nil {
			return 0, err
		}
		snap.Salary = v
		return 0, nil
	})
}

func (s *Store) SetInitialDebt(ctx context.Context, v float64) (Outcome, error) {
	return s.mutate(ctx, log.OpSetDebt, MsgDebtUpdated, func(snap *core.Snapshot) (int64, error) {
		if err := core.ValidateInitialDebt(v); err != nil {
			return 0, err
		}
		snap.InitialDebt = v
		return 0, nil
	})
}

// unchanged is returned by a mutation func that found nothing to do. The
// string is the message reported to the caller.
type unchanged string

func (u unchanged) Error() string { return string(u) }

// mutate applies fn to a working copy and installs it only if fn succeeds,
// then persists. A validation error leaves the ledger untouched. A persist
// failure keeps the change in memory and is reported as ErrStorage. While
// the stored ledger is unreadable nothing is applied and ErrUnread is
// returned alongside ErrStorage.
func (s *Store) mutate(ctx context.Context, op, okMsg string, fn func(*core.Snapshot) (int64, error)) (Outcome, error) {
	s.mu.Lock()
	if s.unread && !s.rereadLocked(ctx) {
		s.mu.Unlock()
		s.observer.ObserveMutation(op, OutcomeRefused)
		return Outcome{Message: MsgLoadFailed}, fmt.Errorf("%s: %w: %w", op, ErrStorage, ErrUnread)
	}
	work := s.snap.Clone()
	id, err := fn(&work)
	var noop unchanged
	if errors.As(err, &noop) {
		s.mu.Unlock()
		s.observer.ObserveMutation(op, OutcomeUnchanged)
		s.logger.DebugContext(ctx, "Nothing to change",
			log.FieldOperation, op,
			log.FieldRecordID, id)
		return Outcome{ID: id, Message: string(noop)}, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.observer.ObserveMutation(op, OutcomeRejected)
		s.logger.InfoContext(ctx, "Mutation rejected",
			log.FieldOperation, op,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeValidation)
		return Outcome{Message: err.Error()}, err
	}
	s.snap = work
	persisted := s.persistLocked(ctx)
	s.mu.Unlock()

	out := Outcome{Applied: true, Persisted: persisted, ID: id, Message: okMsg}
	outcome := OutcomeOK
	if !persisted {
		out.Message = MsgSaveFailed
		err = fmt.Errorf("%s: %w", op, ErrStorage)
		outcome = OutcomeUnsaved
	}
	s.observer.ObserveMutation(op, outcome)
	s.logger.InfoContext(ctx, "Ledger updated",
		log.FieldOperation, op,
		log.FieldRecordID, id,
		log.FieldPersisted, persisted)

	s.notify(ctx, ChangeEvent{Key: s.key, Operation: op, RecordID: id, Persisted: persisted, At: s.now()})
	return out, err
}

func (s *Store) notify(ctx context.Context, ev ChangeEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, ev.Operation,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

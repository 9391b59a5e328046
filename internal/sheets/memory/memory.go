package memory

import (
	"context"
	"sync"

	"debtledger/internal/core"
	ports "debtledger/internal/sheets"
)

// Writer keeps the last mirrored summary in memory. It backs dry-run
// workers and tests.
type Writer struct {
	mu     sync.Mutex
	last   core.Aggregates
	writes int
	err    error
}

var _ ports.SummaryWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteSummary(_ context.Context, agg core.Aggregates) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.last = agg
	w.writes++
	return nil
}

// Last returns the most recent summary and whether anything was written.
func (w *Writer) Last() (core.Aggregates, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.writes > 0
}

// Writes returns how many summaries were written successfully.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// FailWith makes later writes return err. Pass nil to recover.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

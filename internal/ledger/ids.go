package ledger

import "time"

// IDGenerator hands out millisecond timestamps as record IDs, bumping past
// the last issued value so two records created in the same millisecond
// never collide. Not safe for concurrent use; the Store serializes calls.
type IDGenerator struct {
	now  func() time.Time
	last int64
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() int64 {
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Seed guarantees every later ID is greater than min.
func (g *IDGenerator) Seed(min int64) {
	if min > g.last {
		g.last = min
	}
}

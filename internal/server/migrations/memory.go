package migrations

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Ledger records applied versions. Runners sharing a ledger agree on what
// has been applied, the way goose runners share the version table.
type Ledger struct {
	mu      sync.Mutex
	applied map[int64]time.Time
}

func NewLedger() *Ledger {
	return &Ledger{applied: make(map[int64]time.Time)}
}

// MemoryRunner applies steps against stores without transactions and keeps
// the applied versions in a Ledger.
type MemoryRunner struct {
	mu      *sync.Mutex
	steps   []Step
	applied map[int64]time.Time
	now     func() time.Time
}

// NewMemoryRunner returns a runner with a private ledger.
func NewMemoryRunner(steps []Step) *MemoryRunner {
	return NewMemoryRunnerWithLedger(NewLedger(), steps)
}

func NewMemoryRunnerWithLedger(l *Ledger, steps []Step) *MemoryRunner {
	sorted := slices.Clone(steps)
	slices.SortFunc(sorted, func(a, b Step) int { return cmp.Compare(a.Version, b.Version) })
	return &MemoryRunner{
		mu:      &l.mu,
		steps:   sorted,
		applied: l.applied,
		now:     time.Now,
	}
}

func (r *MemoryRunner) Up(ctx context.Context) ([]Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Result
	for _, s := range r.steps {
		if _, done := r.applied[s.Version]; done {
			continue
		}
		start := time.Now()
		if s.Up != nil {
			if err := s.Up(ctx, nil); err != nil {
				return out, fmt.Errorf("migration %d (%s): %w", s.Version, s.Description, err)
			}
		}
		r.applied[s.Version] = r.now()
		out = append(out, Result{Version: s.Version, Description: s.Description, Direction: DirectionUp, Duration: time.Since(start)})
	}
	return out, nil
}

func (r *MemoryRunner) Down(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.steps) - 1; i >= 0; i-- {
		s := r.steps[i]
		if _, done := r.applied[s.Version]; !done {
			continue
		}
		start := time.Now()
		if s.Down != nil {
			if err := s.Down(ctx, nil); err != nil {
				return nil, fmt.Errorf("migration %d (%s): %w", s.Version, s.Description, err)
			}
		}
		delete(r.applied, s.Version)
		return &Result{Version: s.Version, Description: s.Description, Direction: DirectionDown, Duration: time.Since(start)}, nil
	}
	return nil, ErrNothingApplied
}

func (r *MemoryRunner) Status(_ context.Context) ([]Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.steps))
	for _, s := range r.steps {
		at, done := r.applied[s.Version]
		out = append(out, Status{Version: s.Version, Description: s.Description, Applied: done, AppliedAt: at})
	}
	return out, nil
}

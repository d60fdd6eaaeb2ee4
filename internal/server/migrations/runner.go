package migrations

import (
	"context"
	"errors"
	"time"
)

// ErrNothingApplied is returned by Down when no step is applied.
var ErrNothingApplied = errors.New("no applied migration to roll back")

// Direction of a step run.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Result describes one executed step.
type Result struct {
	Version     int64
	Description string
	Direction   string
	Duration    time.Duration
}

// Status is the applied state of one step.
type Status struct {
	Version     int64
	Description string
	Applied     bool
	AppliedAt   time.Time
}

// Runner applies the bootstrap steps in version order.
type Runner interface {
	// Up applies every pending step.
	Up(ctx context.Context) ([]Result, error)
	// Down rolls back the most recently applied step.
	Down(ctx context.Context) (*Result, error)
	Status(ctx context.Context) ([]Status, error)
}

package chrono

import "time"

// API is the clock of a component, tests swap it for a fixed one.
type API interface {
	Now() time.Time
}

type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	T time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.T
}

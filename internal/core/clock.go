package core

import "time"

// Clock supplies "now" for current-month budget resolution and spent_at
// defaulting. Both must read the same clock so that an expense recorded at a
// month boundary lands in the budget it was checked against.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

package clock

import (
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(NewSystem),
)

// Clock is the time source used for transaction numbers and timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystem returns a wall clock in the store's local zone (TZ, else UTC).
func NewSystem() Clock {
	return &systemClock{loc: time.Local}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

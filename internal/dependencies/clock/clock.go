package clock

import "time"

// Clock supplies registration and session timestamps
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC so stored timestamps compare
// equal across storage backends.
type RealClock struct{}

func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

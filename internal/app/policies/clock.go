package policies

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time; handlers fall back to time.Now when nil.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// IDGenerator produces aggregate identifiers.
type IDGenerator func() string

func (g IDGenerator) NewID() string {
	if g == nil {
		return uuid.NewString()
	}
	return g()
}

package services

import "time"

// Clock abstracts the current instant so scheduling math is deterministic in
// tests. Production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Package clock abstracts time for deterministic tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by the wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

package service

import "time"

// Clock returns the current instant.
type Clock func() time.Time

// SystemClock returns UTC time at the storage precision of timestamptz.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

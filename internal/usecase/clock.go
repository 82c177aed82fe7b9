package usecase

import "time"

// Clock supplies the instant used for balance checks and entry timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall-clock time in UTC.
type SystemClock struct{}

// Now returns current UTC time truncated to microseconds, the precision
// Postgres keeps for timestamptz, so an instant survives a round trip.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

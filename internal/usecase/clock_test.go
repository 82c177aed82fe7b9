package usecase

import (
	"testing"
	"time"
)

func TestSystemClockNowMatchesStoredPrecision(t *testing.T) {
	var clock SystemClock
	for i := 0; i < 50; i++ {
		now := clock.Now()
		if now.Location() != time.UTC {
			t.Fatalf("expected UTC, got %v", now.Location())
		}
		if now.Nanosecond()%int(time.Microsecond) != 0 {
			t.Fatalf("expected microsecond precision, got %d ns", now.Nanosecond())
		}
		if !now.Equal(now.Truncate(time.Microsecond)) {
			t.Fatalf("expected %v to be unchanged by truncation", now)
		}
	}
}

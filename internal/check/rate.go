package check

import (
	"time"

	"codeberg.org/mutker/smartmon/internal/store"
)

// getRate returns the per second rate of change of a monotonic counter
// since the sample last recorded under key, and stores the new sample.
// The first observation only primes the store and yields no rate. A
// replayed or earlier timestamp yields no rate either and leaves the
// stored sample untouched, so a repeated call cannot divide by zero or
// double-count.
func getRate(values store.ItemStore, key string, now time.Time, value float64) (float64, bool, error) {
	prev, ok, err := values.Load(key)
	if err != nil {
		return 0, false, err
	}

	if !ok {
		if err := values.Save(key, store.Sample{Time: now, Value: value}); err != nil {
			return 0, false, err
		}

		return 0, false, nil
	}

	elapsed := now.Sub(prev.Time).Seconds()
	if elapsed <= 0 {
		return 0, false, nil
	}

	rate := (value - prev.Value) / elapsed
	if err := values.Save(key, store.Sample{Time: now, Value: value}); err != nil {
		return 0, false, err
	}

	return rate, true, nil
}

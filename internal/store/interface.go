package store

import "time"

// Sample is one persisted counter observation.
type Sample struct {
	Time  time.Time
	Value float64
}

// ItemStore is the value-store slot scoped to one monitored item.
// Checks treat it as an opaque read-modify-write key-value interface;
// the caller guarantees no concurrent writers for the same item.
type ItemStore interface {
	Load(key string) (Sample, bool, error)
	Save(key string, sample Sample) error
}

package store

import "sync"

// Memory is an in-memory ItemStore, used when no database is
// configured and by tests. State does not survive a restart, so rate
// checks re-prime after every start.
type Memory struct {
	mu      sync.Mutex
	samples map[string]Sample
}

func NewMemory() *Memory {
	return &Memory{samples: make(map[string]Sample)}
}

func (m *Memory) Load(key string) (Sample, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sample, ok := m.samples[key]

	return sample, ok, nil
}

func (m *Memory) Save(key string, sample Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples[key] = sample

	return nil
}

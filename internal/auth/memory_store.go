package auth

import "sync"

type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore returns a Store that lives as long as the process
func NewMemoryStore() Store {
	return newKVStore(&memoryBackend{entries: make(map[string]string)}, "")
}

func (m *memoryBackend) load(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *memoryBackend) save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryBackend) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

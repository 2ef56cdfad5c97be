package secret

import "sync"

// Memory is an in-memory Store, used by tests and headless environments
// with no OS keyring.
type Memory struct {
	mu      sync.Mutex
	secrets map[string]string
}

func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]string)}
}

func (m *Memory) StoreSecret(id, value string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[id] = value
	return nil
}

func (m *Memory) Get(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.secrets[id]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Remove(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, id)
	return nil
}

func (m *Memory) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.secrets))
	for id := range m.secrets {
		ids = append(ids, id)
	}
	return ids, nil
}

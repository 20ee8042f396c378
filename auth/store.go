package auth

import "sync"

// TokenStore persists the session's token pair. Implementations report
// absent values as the empty string rather than an error.
type TokenStore interface {
	AccessToken() (string, error)
	SetAccessToken(token string) error
	RefreshToken() (string, error)
	SetRefreshToken(token string) error
	Clear() error
}

// MemoryStore is a volatile [TokenStore]. The zero value is ready to use.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func (m *MemoryStore) AccessToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, nil
}

func (m *MemoryStore) SetAccessToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = token
	return nil
}

func (m *MemoryStore) RefreshToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh, nil
}

func (m *MemoryStore) SetRefreshToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = token
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
	return nil
}

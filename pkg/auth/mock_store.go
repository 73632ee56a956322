package auth

import "sync"

// MockStore is an in-memory KeyStore for tests.
type MockStore struct {
	mu    sync.RWMutex
	creds map[string]*Credential

	// Optional error injection
	StoreErr    error
	RetrieveErr error
	ListErr     error
	DeleteErr   error
}

// NewMockStore creates an empty in-memory key store.
func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]*Credential)}
}

func (m *MockStore) Store(cred *Credential) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	if cred == nil || cred.Provider == "" {
		return ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cred
	m.creds[cred.Provider] = &c
	return nil
}

func (m *MockStore) Retrieve(provider string) (*Credential, error) {
	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[provider]
	if !ok {
		return nil, ErrKeyNotFound
	}
	c := *cred
	return &c, nil
}

func (m *MockStore) List() ([]*Credential, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Credential
	for _, cred := range m.creds {
		c := *cred
		out = append(out, &c)
	}
	return out, nil
}

func (m *MockStore) Delete(provider string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[provider]; !ok {
		return ErrKeyNotFound
	}
	delete(m.creds, provider)
	return nil
}

func (m *MockStore) Exists(provider string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.creds[provider]
	return ok
}

package docstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"evecorpbot/internal/domain"
)

type memoryDocs struct {
	mu      sync.Mutex
	docs    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: make(map[string][]byte)}
}

func (m *memoryDocs) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.docs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memoryDocs) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.docs[key] = append([]byte(nil), data...)
	return nil
}

// prefixSealer marks sealed values so tests can tell them apart on disk.
type prefixSealer struct{}

func (prefixSealer) Seal(plaintext string) (string, error) { return "sealed:" + plaintext, nil }

func (prefixSealer) Open(sealed string) (string, error) {
	plain, ok := strings.CutPrefix(sealed, "sealed:")
	if !ok {
		return "", errors.New("not sealed")
	}
	return plain, nil
}

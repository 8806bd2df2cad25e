package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
)

var _ inventoryapp.ExportArchive = (*MemoryArchive)(nil)

// MemoryArchive keeps exports in process memory. Download links point at
// BaseURL and are not signed; it serves local development and tests.
type MemoryArchive struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryArchive creates an empty archive
func NewMemoryArchive(baseURL string) *MemoryArchive {
	if baseURL == "" {
		baseURL = "http://localhost/exports"
	}
	return &MemoryArchive{BaseURL: baseURL, objects: make(map[string]memoryObject)}
}

// Upload stores a copy of data under key
func (m *MemoryArchive) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GenerateDownloadURL returns BaseURL/key with the expiry as a query parameter
func (m *MemoryArchive) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if _, ok := m.Get(key); !ok {
		return "", time.Time{}, errors.New("object " + key + " does not exist")
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiry
	}
	expiresAt := time.Now().Add(expiresIn)
	link, err := url.JoinPath(m.BaseURL, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return link + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}

// Get returns the stored bytes for key
func (m *MemoryArchive) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, ok
}

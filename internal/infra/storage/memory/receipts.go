package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

var ErrReceiptNotFound = errors.New("memory: receipt not found")

type storedReceipt struct {
	contentType string
	body        []byte
}

// ReceiptStore keeps uploaded receipts in process memory for dev runs and tests.
type ReceiptStore struct {
	mu    sync.RWMutex
	items map[string]storedReceipt
}

func NewReceiptStore() *ReceiptStore {
	return &ReceiptStore{items: make(map[string]storedReceipt)}
}

func (s *ReceiptStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = storedReceipt{contentType: contentType, body: data}
	return "memory://" + key, nil
}

func (s *ReceiptStore) Open(key string) (io.Reader, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	if !ok {
		return nil, "", ErrReceiptNotFound
	}
	return bytes.NewReader(item.body), item.contentType, nil
}

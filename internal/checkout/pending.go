package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"herbal_store/internal/domain"

	"github.com/shopspring/decimal"
)

// PendingOrder is what the client remembers between leaving for the gateway
// and coming back from it.
type PendingOrder struct {
	TransactionID   string                 `json:"transactionId"`
	Items           []domain.OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal        `json:"totalAmount"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// PendingOrderStore holds at most one pending order. Load returns nil, nil when empty.
type PendingOrderStore interface {
	Save(p PendingOrder) error
	Load() (*PendingOrder, error)
	Clear() error
}

type MemoryPendingStore struct {
	mu      sync.Mutex
	pending *PendingOrder
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{}
}

func (s *MemoryPendingStore) Save(p PendingOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &p
	return nil
}

func (s *MemoryPendingStore) Load() (*PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, nil
	}
	p := *s.pending
	return &p, nil
}

func (s *MemoryPendingStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

// FilePendingStore keeps the pending order in a single JSON file so it
// survives the process restarting while the shopper is on the gateway page.
type FilePendingStore struct {
	path string
	mu   sync.Mutex
}

const pendingFileName = "pending_order.json"

func NewFilePendingStore(dir string) (*FilePendingStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create pending order directory: %w", err)
	}
	return &FilePendingStore{path: filepath.Join(dir, pendingFileName)}, nil
}

func (s *FilePendingStore) Save(p PendingOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not encode pending order: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("could not write pending order: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("could not store pending order: %w", err)
	}
	return nil
}

func (s *FilePendingStore) Load() (*PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read pending order: %w", err)
	}
	var p PendingOrder
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("could not decode pending order: %w", err)
	}
	return &p, nil
}

func (s *FilePendingStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not clear pending order: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rfbmarket/models"
)

// MemoryStorage is the storage used when no Postgres connection is configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	rfbs  []models.RFBRecord
	bids  map[string]models.Bid
	order []string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{bids: map[string]models.Bid{}}
}

// NewSeededMemoryStorage returns a store holding the demo listing and the
// bids of RFB "1", dated relative to now.
func NewSeededMemoryStorage(now time.Time) *MemoryStorage {
	m := NewMemoryStorage()
	m.rfbs = SeedRFBs(now)
	for _, b := range SeedBids(now) {
		m.bids[b.ID] = b
		m.order = append(m.order, b.ID)
	}
	return m
}

func (m *MemoryStorage) ListRFBs(_ context.Context) ([]models.RFBRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RFBRecord, len(m.rfbs))
	copy(out, m.rfbs)
	return out, nil
}

func (m *MemoryStorage) GetRFB(_ context.Context, id string) (*models.RFBRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rfbs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("rfb %s: %w", id, ErrNotFound)
}

func (m *MemoryStorage) CreateRFB(_ context.Context, r *models.RFBRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rfbs {
		if existing.ID == r.ID {
			return fmt.Errorf("rfb %s already exists", r.ID)
		}
	}
	m.rfbs = append(m.rfbs, *r)
	return nil
}

func (m *MemoryStorage) UpdateRFBStatus(_ context.Context, id string, status models.RFBStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rfbs {
		if m.rfbs[i].ID == id {
			m.rfbs[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("rfb %s: %w", id, ErrNotFound)
}

func (m *MemoryStorage) CreateBid(_ context.Context, b *models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bids[b.ID]; ok {
		return nil
	}
	m.bids[b.ID] = *b
	m.order = append(m.order, b.ID)
	return nil
}

func (m *MemoryStorage) ListBidsForRFB(_ context.Context, rfbID string) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bids := []models.Bid{}
	for _, id := range m.order {
		if b := m.bids[id]; b.RFBID == rfbID {
			bids = append(bids, b)
		}
	}
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].SubmittedAt.After(bids[j].SubmittedAt)
	})
	return bids, nil
}

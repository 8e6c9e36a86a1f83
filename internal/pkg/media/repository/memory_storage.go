package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"media_relay_bot/internal/pkg/media/domain"
)

type MemoryStorage struct {
	records       map[string]*domain.MediaRecord
	order         []string
	verifications map[int64]time.Time
	nextID        int64
	mu            sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:       make(map[string]*domain.MediaRecord),
		verifications: make(map[int64]time.Time),
	}
}

func (m *MemoryStorage) Put(_ context.Context, rec *domain.MediaRecord) (bool, error) {
	if rec.Key == "" {
		return false, fmt.Errorf("record key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.Key]; exists {
		return false, nil
	}

	m.nextID++
	stored := *rec
	stored.ID = m.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	m.records[rec.Key] = &stored
	m.order = append(m.order, rec.Key)

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return true, nil
}

func (m *MemoryStorage) GetByKey(_ context.Context, key string) (*domain.MediaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, exists := m.records[key]
	if !exists {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStorage) ListAll(_ context.Context, filter domain.Filter) ([]*domain.MediaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.MediaRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		rec := m.records[m.order[i]]
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStorage) ListWithPreviewRef(_ context.Context) ([]*domain.MediaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.MediaRecord
	for _, key := range m.order {
		rec := m.records[key]
		if rec.PreviewRef == "" {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStorage) SetThumbnail(_ context.Context, key, thumbnailRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[key]
	if !exists {
		return fmt.Errorf("record %s not found", key)
	}
	rec.ThumbnailRef = thumbnailRef
	return nil
}

func (m *MemoryStorage) GetVerification(_ context.Context, userID int64) (*domain.VerificationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, exists := m.verifications[userID]
	if !exists {
		return nil, nil
	}
	return &domain.VerificationRecord{UserID: userID, LastVerifiedAt: at}, nil
}

func (m *MemoryStorage) UpsertVerification(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications[userID] = at
	return nil
}

package repository

import (
	"context"
	"time"

	"media_relay_bot/internal/pkg/media/domain"
)

// MediaRepository persists catalog records. Lookups of missing rows return (nil, nil).
type MediaRepository interface {
	// Put inserts rec unless its key already exists. It reports whether rec was inserted.
	Put(ctx context.Context, rec *domain.MediaRecord) (bool, error)
	GetByKey(ctx context.Context, key string) (*domain.MediaRecord, error)
	// ListAll returns records newest first.
	ListAll(ctx context.Context, filter domain.Filter) ([]*domain.MediaRecord, error)
	// ListWithPreviewRef returns records that carry a raw preview handle.
	ListWithPreviewRef(ctx context.Context) ([]*domain.MediaRecord, error)
	SetThumbnail(ctx context.Context, key, thumbnailRef string) error
}

type VerificationRepository interface {
	GetVerification(ctx context.Context, userID int64) (*domain.VerificationRecord, error)
	UpsertVerification(ctx context.Context, userID int64, at time.Time) error
}

type Repository interface {
	MediaRepository
	VerificationRepository
}

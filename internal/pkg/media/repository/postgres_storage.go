package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"media_relay_bot/internal/pkg/media/domain"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Open connects to PostgreSQL through lib/pq and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ------------------ Media ------------------

func (p *PostgresStorage) Put(ctx context.Context, rec *domain.MediaRecord) (bool, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO media_records (custom_key, file_id, title, media_type, thumbnail_ref, preview_ref, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (custom_key) DO NOTHING
		RETURNING id, created_at
	`, rec.Key, rec.FileRef, rec.Title, string(rec.Kind), rec.ThumbnailRef, rec.PreviewRef, rec.Category)

	err := row.Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert media record: %w", err)
	}
	return true, nil
}

const selectRecord = `
	SELECT id, custom_key, file_id, title, media_type, thumbnail_ref, preview_ref, category, created_at
	FROM media_records`

func (p *PostgresStorage) GetByKey(ctx context.Context, key string) (*domain.MediaRecord, error) {
	row := p.db.QueryRowContext(ctx, selectRecord+` WHERE custom_key = $1`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *PostgresStorage) ListAll(ctx context.Context, filter domain.Filter) ([]*domain.MediaRecord, error) {
	query := selectRecord + ` WHERE ($1::text = '' OR category = $1) ORDER BY id DESC`
	args := []any{filter.Category}
	if filter.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, filter.Limit)
	}
	return p.queryRecords(ctx, query, args...)
}

func (p *PostgresStorage) ListWithPreviewRef(ctx context.Context) ([]*domain.MediaRecord, error) {
	return p.queryRecords(ctx, selectRecord+` WHERE preview_ref <> '' ORDER BY id`)
}

func (p *PostgresStorage) SetThumbnail(ctx context.Context, key, thumbnailRef string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE media_records SET thumbnail_ref = $2 WHERE custom_key = $1
	`, key, thumbnailRef)
	if err != nil {
		return fmt.Errorf("update thumbnail: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s not found", key)
	}
	return nil
}

func (p *PostgresStorage) queryRecords(ctx context.Context, query string, args ...any) ([]*domain.MediaRecord, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query media records: %w", err)
	}
	defer rows.Close()

	var records []*domain.MediaRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.MediaRecord, error) {
	rec := &domain.MediaRecord{}
	var kind string
	err := s.Scan(&rec.ID, &rec.Key, &rec.FileRef, &rec.Title, &kind,
		&rec.ThumbnailRef, &rec.PreviewRef, &rec.Category, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Kind = domain.MediaKind(kind)
	return rec, nil
}

// ------------------ Verification ------------------

func (p *PostgresStorage) GetVerification(ctx context.Context, userID int64) (*domain.VerificationRecord, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT user_id, last_verified_at FROM verifications WHERE user_id = $1
	`, userID)

	v := &domain.VerificationRecord{}
	err := row.Scan(&v.UserID, &v.LastVerifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select verification: %w", err)
	}
	return v, nil
}

func (p *PostgresStorage) UpsertVerification(ctx context.Context, userID int64, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO verifications (user_id, last_verified_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_verified_at = $2
	`, userID, at)
	if err != nil {
		return fmt.Errorf("upsert verification: %w", err)
	}
	return nil
}

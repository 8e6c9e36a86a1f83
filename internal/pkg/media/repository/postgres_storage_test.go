package repository

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"
)

// setupPostgres connects to TEST_DATABASE_URL, applies migrations and empties the tables.
func setupPostgres(t *testing.T) *PostgresStorage {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skipping integration test")
	}

	if err := Migrate(dsn, zap.NewNop()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, `TRUNCATE media_records, verifications RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewPostgresStorage(db)
}

func TestPostgresStorage_Contract(t *testing.T) {
	exerciseRepository(t, setupPostgres(t))
}

func TestPostgresStorage_Thumbnails(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	rec := newRecord("file_p", "")
	rec.PreviewRef = "thumb-ref"
	if _, err := repo.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	list, err := repo.ListWithPreviewRef(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListWithPreviewRef = %v, %v", list, err)
	}
	if err := repo.SetThumbnail(ctx, "file_p", "file_p.jpg"); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByKey(ctx, "file_p")
	if got.ThumbnailRef != "file_p.jpg" || got.PreviewRef != "thumb-ref" {
		t.Errorf("record after SetThumbnail = %+v", got)
	}
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"media_relay_bot/internal/pkg/media/domain"
)

func newRecord(key, category string) *domain.MediaRecord {
	return &domain.MediaRecord{
		Key:      key,
		FileRef:  "ref-" + key,
		Title:    domain.UntitledTitle,
		Kind:     domain.KindVideo,
		Category: category,
	}
}

// exerciseRepository runs the store contract against any Repository.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	inserted, err := repo.Put(ctx, newRecord("file_a", ""))
	if err != nil || !inserted {
		t.Fatalf("Put(file_a) = %v, %v; want true, nil", inserted, err)
	}

	dup := newRecord("file_a", "")
	dup.FileRef = "another"
	inserted, err = repo.Put(ctx, dup)
	if err != nil || inserted {
		t.Fatalf("Put(duplicate) = %v, %v; want false, nil", inserted, err)
	}

	got, err := repo.GetByKey(ctx, "file_a")
	if err != nil || got == nil {
		t.Fatalf("GetByKey(file_a) = %v, %v", got, err)
	}
	if got.FileRef != "ref-file_a" {
		t.Errorf("FileRef = %q, first writer must win", got.FileRef)
	}

	missing, err := repo.GetByKey(ctx, "file_missing")
	if err != nil || missing != nil {
		t.Fatalf("GetByKey(missing) = %v, %v; want nil, nil", missing, err)
	}

	if _, err := repo.Put(ctx, newRecord("file_b", "movies")); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Put(ctx, newRecord("file_c", "")); err != nil {
		t.Fatal(err)
	}

	all, err := repo.ListAll(ctx, domain.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []string{"file_c", "file_b", "file_a"}
	if len(all) != len(wantOrder) {
		t.Fatalf("ListAll returned %d records, want %d", len(all), len(wantOrder))
	}
	for i, key := range wantOrder {
		if all[i].Key != key {
			t.Errorf("ListAll[%d] = %s, want %s", i, all[i].Key, key)
		}
	}

	movies, err := repo.ListAll(ctx, domain.Filter{Category: "movies"})
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 1 || movies[0].Key != "file_b" {
		t.Errorf("ListAll(movies) = %v", movies)
	}

	limited, err := repo.ListAll(ctx, domain.Filter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].Key != "file_c" {
		t.Errorf("ListAll(limit 2) = %v", limited)
	}

	v, err := repo.GetVerification(ctx, 42)
	if err != nil || v != nil {
		t.Fatalf("GetVerification before upsert = %v, %v", v, err)
	}
	first := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
	if err := repo.UpsertVerification(ctx, 42, first); err != nil {
		t.Fatal(err)
	}
	second := first.Add(30 * time.Minute)
	if err := repo.UpsertVerification(ctx, 42, second); err != nil {
		t.Fatal(err)
	}
	v, err = repo.GetVerification(ctx, 42)
	if err != nil || v == nil {
		t.Fatalf("GetVerification = %v, %v", v, err)
	}
	if !v.LastVerifiedAt.Equal(second) {
		t.Errorf("LastVerifiedAt = %v, want %v", v.LastVerifiedAt, second)
	}
}

func TestMemoryStorage_Contract(t *testing.T) {
	exerciseRepository(t, NewMemoryStorage())
}

func TestMemoryStorage_ConcurrentPutSameKey(t *testing.T) {
	repo := NewMemoryStorage()
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := newRecord("file_same", "")
			rec.FileRef = fmt.Sprintf("ref-%d", i)
			ok, err := repo.Put(ctx, rec)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d writers won, want exactly 1", wins)
	}
	all, _ := repo.ListAll(ctx, domain.Filter{})
	if len(all) != 1 {
		t.Fatalf("store holds %d records, want 1", len(all))
	}
}

func TestMemoryStorage_Thumbnails(t *testing.T) {
	repo := NewMemoryStorage()
	ctx := context.Background()

	withPreview := newRecord("file_p", "")
	withPreview.PreviewRef = "thumb-ref"
	repo.Put(ctx, withPreview)
	repo.Put(ctx, newRecord("file_q", ""))

	list, err := repo.ListWithPreviewRef(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Key != "file_p" {
		t.Fatalf("ListWithPreviewRef = %v", list)
	}

	if err := repo.SetThumbnail(ctx, "file_p", "file_p.jpg"); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByKey(ctx, "file_p")
	if got.ThumbnailRef != "file_p.jpg" {
		t.Errorf("ThumbnailRef = %q", got.ThumbnailRef)
	}

	if err := repo.SetThumbnail(ctx, "file_none", "x.jpg"); err == nil {
		t.Error("SetThumbnail on a missing key must fail")
	}
}

func TestMemoryStorage_RejectsEmptyKey(t *testing.T) {
	repo := NewMemoryStorage()
	if _, err := repo.Put(context.Background(), &domain.MediaRecord{}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

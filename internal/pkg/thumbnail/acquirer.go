// Package thumbnail fetches or generates preview images for catalog records.
// Failures never propagate as fatal: a record without a preview is valid.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/media/domain"
	"media_relay_bot/internal/pkg/metrics"
)

// FrameOffset is where the generated preview frame is taken from.
const FrameOffset = time.Second

var ErrNoPreview = errors.New("no preview source")

// FileFetcher downloads a transport file by reference.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileRef string) (io.ReadCloser, error)
}

type Acquirer struct {
	fetcher   FileFetcher
	extractor FrameExtractor
	store     Store
	tmpDir    string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAcquirer(fetcher FileFetcher, extractor FrameExtractor, store Store, tmpDir string, timeout time.Duration, logger *zap.Logger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Acquirer{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		tmpDir:    tmpDir,
		timeout:   timeout,
		logger:    logger,
	}
}

func (a *Acquirer) Store() Store {
	return a.store
}

// Acquire stores a preview for key and returns its name, or "" when none could be made.
func (a *Acquirer) Acquire(ctx context.Context, key string, m *domain.Media) string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var err error
	switch {
	case m.Preview != nil && m.Preview.FileRef != "":
		err = a.FromPreview(ctx, key, m.Preview.FileRef)
		if err != nil && m.Decodable() {
			a.logger.Warn("preview fetch failed, extracting frame", zap.String("key", key), zap.Error(err))
			err = a.FromFrame(ctx, key, m.FileRef)
		}
	case m.Decodable():
		err = a.FromFrame(ctx, key, m.FileRef)
	default:
		err = ErrNoPreview
	}

	if err != nil {
		if errors.Is(err, ErrNoPreview) {
			metrics.ThumbnailsTotal.WithLabelValues("absent").Inc()
		} else {
			metrics.ThumbnailsTotal.WithLabelValues("failed").Inc()
			a.logger.Warn("thumbnail unavailable", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	metrics.ThumbnailsTotal.WithLabelValues("stored").Inc()
	return NameFor(key)
}

// FromPreview copies the embedded preview image into the store.
func (a *Acquirer) FromPreview(ctx context.Context, key, previewRef string) error {
	body, err := a.fetcher.FetchFile(ctx, previewRef)
	if err != nil {
		return fmt.Errorf("fetch preview: %w", err)
	}
	defer body.Close()

	if err := a.store.Put(ctx, NameFor(key), body); err != nil {
		return fmt.Errorf("store preview: %w", err)
	}
	return nil
}

// FromFrame downloads the full media, extracts one frame and stores it.
// Temporary files are removed in every case.
func (a *Acquirer) FromFrame(ctx context.Context, key, fileRef string) error {
	if a.extractor == nil {
		return ErrNoPreview
	}

	src, err := os.CreateTemp(a.tmpDir, "media-*")
	if err != nil {
		return err
	}
	defer os.Remove(src.Name())

	body, err := a.fetcher.FetchFile(ctx, fileRef)
	if err != nil {
		src.Close()
		return fmt.Errorf("fetch media: %w", err)
	}
	_, err = io.Copy(src, body)
	body.Close()
	src.Close()
	if err != nil {
		return fmt.Errorf("download media: %w", err)
	}

	framePath := filepath.Join(filepath.Dir(src.Name()), filepath.Base(src.Name())+".jpg")
	defer os.Remove(framePath)

	if err := a.extractor.ExtractFrame(ctx, src.Name(), framePath, FrameOffset); err != nil {
		return err
	}

	frame, err := os.Open(framePath)
	if err != nil {
		return fmt.Errorf("open frame: %w", err)
	}
	defer frame.Close()

	if err := a.store.Put(ctx, NameFor(key), frame); err != nil {
		return fmt.Errorf("store frame: %w", err)
	}
	return nil
}

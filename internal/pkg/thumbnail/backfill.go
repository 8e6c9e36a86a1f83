package thumbnail

import (
	"context"

	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/media/domain"
)

// RecordSource is the part of the record store the backfill needs.
type RecordSource interface {
	ListWithPreviewRef(ctx context.Context) ([]*domain.MediaRecord, error)
	SetThumbnail(ctx context.Context, key, thumbnailRef string) error
}

type BackfillReport struct {
	Scanned int
	Filled  int
	Failed  int
}

// Backfill makes one pass over records that have a preview handle but no stored
// preview and retries the download. Records that still fail are left for the next run.
func Backfill(ctx context.Context, records RecordSource, a *Acquirer) (BackfillReport, error) {
	var report BackfillReport
	logger := a.logger

	list, err := records.ListWithPreviewRef(ctx)
	if err != nil {
		return report, err
	}

	for _, rec := range list {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Scanned++

		if rec.ThumbnailRef != "" {
			ok, err := a.store.Exists(ctx, rec.ThumbnailRef)
			if err == nil && ok {
				continue
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		err := a.FromPreview(attemptCtx, rec.Key, rec.PreviewRef)
		if err != nil && rec.Kind == domain.KindVideo {
			if ferr := a.FromFrame(attemptCtx, rec.Key, rec.FileRef); ferr == nil {
				err = nil
			}
		}
		cancel()
		if err != nil {
			report.Failed++
			logger.Warn("thumbnail backfill failed", zap.String("key", rec.Key), zap.Error(err))
			continue
		}

		if err := records.SetThumbnail(ctx, rec.Key, NameFor(rec.Key)); err != nil {
			report.Failed++
			logger.Warn("thumbnail backfill update failed", zap.String("key", rec.Key), zap.Error(err))
			continue
		}
		report.Filled++
	}

	logger.Info("thumbnail backfill finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("filled", report.Filled),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

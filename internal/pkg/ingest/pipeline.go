// Package ingest turns inbound media events into catalog records.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/media/domain"
	"media_relay_bot/internal/pkg/media/repository"
	"media_relay_bot/internal/pkg/metrics"
)

type Source string

const (
	SourceAdmin   Source = "admin"
	SourceChannel Source = "channel"
)

type Result int

const (
	ResultIgnored Result = iota
	ResultDuplicate
	ResultSaved
)

func (r Result) String() string {
	switch r {
	case ResultDuplicate:
		return "duplicate"
	case ResultSaved:
		return "saved"
	default:
		return "ignored"
	}
}

// Event is a media-bearing message seen by one of the ingestion triggers.
type Event struct {
	Source    Source
	SenderID  int64
	ChatID    int64
	MessageID int
	Caption   string
	Media     *domain.Media
	Category  string
}

// Relayer copies a message into the permanent channel and returns the media of the copy.
type Relayer interface {
	ForwardToChannel(ctx context.Context, fromChatID int64, messageID int) (*domain.Media, error)
}

type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type ThumbnailAcquirer interface {
	Acquire(ctx context.Context, key string, m *domain.Media) string
}

type Pipeline struct {
	repo     repository.MediaRepository
	relayer  Relayer
	thumbs   ThumbnailAcquirer
	notifier Notifier
	adminID  int64
	logger   *zap.Logger
}

func NewPipeline(repo repository.MediaRepository, relayer Relayer, thumbs ThumbnailAcquirer, notifier Notifier, adminID int64, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		repo:     repo,
		relayer:  relayer,
		thumbs:   thumbs,
		notifier: notifier,
		adminID:  adminID,
		logger:   logger,
	}
}

// Handle ingests one event. Unauthorized senders and events without usable
// media are ignored without error; a replayed media object is a duplicate.
func (p *Pipeline) Handle(ctx context.Context, ev Event) (Result, error) {
	res, err := p.handle(ctx, ev)
	label := res.String()
	if err != nil {
		label = "failed"
	}
	metrics.IngestTotal.WithLabelValues(string(ev.Source), label).Inc()
	return res, err
}

func (p *Pipeline) handle(ctx context.Context, ev Event) (Result, error) {
	if ev.Source == SourceAdmin && ev.SenderID != p.adminID {
		return ResultIgnored, nil
	}
	if ev.Media == nil || ev.Media.UniqueID == "" || ev.Media.FileRef == "" {
		return ResultIgnored, nil
	}

	key := domain.DeriveKey(ev.Media)
	log := p.logger.With(zap.String("key", key), zap.String("source", string(ev.Source)))

	existing, err := p.repo.GetByKey(ctx, key)
	if err != nil {
		return ResultIgnored, fmt.Errorf("lookup %s: %w", key, err)
	}
	if existing != nil {
		log.Info("duplicate media skipped")
		return ResultDuplicate, nil
	}

	p.notify(ctx, fmt.Sprintf("🔄 Processing %s media %s...", ev.Source, key))

	stored := ev.Media
	if ev.Source == SourceAdmin {
		relayed, err := p.relayer.ForwardToChannel(ctx, ev.ChatID, ev.MessageID)
		if err != nil {
			p.notify(ctx, fmt.Sprintf("❌ Relay failed for %s", key))
			return ResultIgnored, fmt.Errorf("relay %s: %w", key, err)
		}
		if relayed == nil || relayed.FileRef == "" {
			return ResultIgnored, fmt.Errorf("relay %s: channel copy has no media", key)
		}
		stored = relayed
	}

	rec := &domain.MediaRecord{
		Key:      key,
		FileRef:  stored.FileRef,
		Title:    domain.Title(ev.Caption, ev.Media),
		Kind:     ev.Media.Kind,
		Category: ev.Category,
	}
	if stored.Preview != nil {
		rec.PreviewRef = stored.Preview.FileRef
	}
	if p.thumbs != nil {
		rec.ThumbnailRef = p.thumbs.Acquire(ctx, key, stored)
	}

	inserted, err := p.repo.Put(ctx, rec)
	if err != nil {
		return ResultIgnored, fmt.Errorf("save %s: %w", key, err)
	}
	if !inserted {
		log.Info("duplicate media lost insert race")
		return ResultDuplicate, nil
	}

	log.Info("media saved",
		zap.String("kind", string(rec.Kind)),
		zap.String("title", rec.Title),
		zap.Bool("thumbnail", rec.ThumbnailRef != ""),
	)
	p.notify(ctx, fmt.Sprintf("✅ %s %s saved: %s (%s)", ev.Source, rec.Kind, rec.Title, key))
	return ResultSaved, nil
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.notifier == nil || p.adminID == 0 {
		return
	}
	if err := p.notifier.SendText(ctx, p.adminID, text); err != nil {
		p.logger.Warn("admin notification failed", zap.Error(err))
	}
}

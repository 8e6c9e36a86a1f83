// Package retrieval resolves deep links into gated deliveries.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/access"
	"media_relay_bot/internal/pkg/media/domain"
	"media_relay_bot/internal/pkg/media/repository"
	"media_relay_bot/internal/pkg/metrics"
	"media_relay_bot/internal/pkg/scheduler"
)

const (
	WelcomeText     = "👋 Send me a media or use a deep link."
	NotFoundText    = "❌ Media not found."
	JoinText        = "📢 Join our channel first, then open the link again."
	JoinButton      = "Join channel"
	VerifyText      = "🔐 Please verify to continue. Verification stays valid for %s."
	VerifyButton    = "Verify"
	VerifiedText    = "✅ You are verified. Open your link again to get the file."
	UnavailableText = "⚠️ Could not send the file right now, try again later."
)

type Outcome int

const (
	OutcomeWelcome Outcome = iota
	OutcomeJoinRequired
	OutcomeVerifyRequired
	OutcomeNotFound
	OutcomeDelivered
	OutcomeVerified
	OutcomeFailed
)

// Messenger is the part of the transport used to answer a user.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPrompt(ctx context.Context, chatID int64, text, buttonText, url string) error
	SendMedia(ctx context.Context, chatID int64, kind domain.MediaKind, fileRef, caption string, protect bool) (int, error)
}

type AccessGate interface {
	Check(ctx context.Context, userID int64) access.Decision
	MarkVerified(ctx context.Context, userID int64) (time.Time, error)
	Window() time.Duration
}

type Config struct {
	VerifyToken string
	VerifyURL   string
	InviteLink  string
	// AuditChatID receives verification notices; zero disables them.
	AuditChatID int64
	DeleteAfter time.Duration
}

type Request struct {
	ChatID   int64
	UserID   int64
	UserName string
	Arg      string
}

type Service struct {
	records   repository.MediaRepository
	gate      AccessGate
	messenger Messenger
	scheduler scheduler.Scheduler
	cfg       Config
	logger    *zap.Logger
}

func NewService(records repository.MediaRepository, gate AccessGate, messenger Messenger, sched scheduler.Scheduler, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VerifyToken == "" {
		cfg.VerifyToken = domain.DefaultVerifyToken
	}
	if cfg.DeleteAfter <= 0 {
		cfg.DeleteAfter = scheduler.DefaultDelay
	}
	return &Service{
		records:   records,
		gate:      gate,
		messenger: messenger,
		scheduler: sched,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start handles one start command. Guidance for every outcome is sent to the user
// before it returns.
func (s *Service) Start(ctx context.Context, req Request) Outcome {
	link := domain.ParseDeepLink(req.Arg, s.cfg.VerifyToken)
	log := s.logger.With(zap.Int64("user_id", req.UserID), zap.Int64("chat_id", req.ChatID))

	switch link.Kind {
	case domain.DeepLinkNone:
		s.reply(ctx, req.ChatID, WelcomeText)
		return OutcomeWelcome
	case domain.DeepLinkVerify:
		return s.verify(ctx, req, log)
	}

	log = log.With(zap.String("key", link.Key))

	decision := s.gate.Check(ctx, req.UserID)
	if !decision.Allowed {
		log.Info("retrieval blocked", zap.String("stage", string(decision.Stage)))
		if decision.Stage == access.StageMembership {
			s.prompt(ctx, req.ChatID, JoinText, JoinButton, s.cfg.InviteLink)
			return OutcomeJoinRequired
		}
		s.prompt(ctx, req.ChatID, fmt.Sprintf(VerifyText, s.gate.Window()), VerifyButton, s.cfg.VerifyURL)
		return OutcomeVerifyRequired
	}

	rec, err := s.records.GetByKey(ctx, link.Key)
	if err != nil {
		log.Error("record lookup failed", zap.Error(err))
		s.reply(ctx, req.ChatID, UnavailableText)
		return OutcomeFailed
	}
	if rec == nil {
		s.reply(ctx, req.ChatID, NotFoundText)
		return OutcomeNotFound
	}

	messageID, err := s.messenger.SendMedia(ctx, req.ChatID, rec.Kind, rec.FileRef, rec.Title, true)
	if err != nil {
		log.Error("delivery failed", zap.Error(err))
		s.reply(ctx, req.ChatID, UnavailableText)
		return OutcomeFailed
	}
	metrics.DeliveriesTotal.WithLabelValues(string(rec.Kind)).Inc()

	if err := s.scheduler.ScheduleDeletion(ctx, req.ChatID, messageID, s.cfg.DeleteAfter); err != nil {
		log.Warn("deletion not scheduled", zap.Int("message_id", messageID), zap.Error(err))
	}
	log.Info("media delivered", zap.Int("message_id", messageID), zap.Duration("delete_after", s.cfg.DeleteAfter))
	return OutcomeDelivered
}

// verify registers a verification. It runs neither gate so it is reachable
// before the user has passed them.
func (s *Service) verify(ctx context.Context, req Request, log *zap.Logger) Outcome {
	at, err := s.gate.MarkVerified(ctx, req.UserID)
	if err != nil {
		log.Error("verification not saved", zap.Error(err))
		s.reply(ctx, req.ChatID, UnavailableText)
		return OutcomeFailed
	}
	s.reply(ctx, req.ChatID, VerifiedText)

	if s.cfg.AuditChatID != 0 {
		who := fmt.Sprintf("%d", req.UserID)
		if req.UserName != "" {
			who = fmt.Sprintf("@%s (%d)", req.UserName, req.UserID)
		}
		note := fmt.Sprintf("🔏 User %s verified at %s", who, at.UTC().Format(time.RFC3339))
		if err := s.messenger.SendText(ctx, s.cfg.AuditChatID, note); err != nil {
			log.Warn("audit notification failed", zap.Error(err))
		}
	}
	log.Info("user verified", zap.Time("at", at))
	return OutcomeVerified
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.messenger.SendText(ctx, chatID, text); err != nil {
		s.logger.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *Service) prompt(ctx context.Context, chatID int64, text, button, url string) {
	var err error
	if url == "" {
		err = s.messenger.SendText(ctx, chatID, text)
	} else {
		err = s.messenger.SendPrompt(ctx, chatID, text, button, url)
	}
	if err != nil {
		s.logger.Warn("prompt failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Package access implements the two admission gates that guard every delivery:
// channel membership first, then a time-limited human verification.
package access

import (
	"context"
	"time"

	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/media/repository"
	"media_relay_bot/internal/pkg/metrics"
)

const DefaultWindow = 2 * time.Hour

type Stage string

const (
	StageNone         Stage = ""
	StageMembership   Stage = "membership"
	StageVerification Stage = "verification"
)

// MembershipChecker reports a user's status in a channel, e.g. "member" or "left".
type MembershipChecker interface {
	MemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}

// Decision is the outcome of Check. Stage names the gate that blocked the user.
type Decision struct {
	Allowed bool
	Stage   Stage
}

type Gate struct {
	members       MembershipChecker
	verifications repository.VerificationRepository
	channelID     int64
	window        time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewGate(members MembershipChecker, verifications repository.VerificationRepository, channelID int64, window time.Duration, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{
		members:       members,
		verifications: verifications,
		channelID:     channelID,
		window:        window,
		now:           time.Now,
		logger:        logger,
	}
}

// WithClock replaces the time source.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

func (g *Gate) Window() time.Duration {
	return g.window
}

// Check runs both gates in order. Nothing is remembered between calls.
func (g *Gate) Check(ctx context.Context, userID int64) Decision {
	if !g.IsMember(ctx, userID) {
		metrics.GateTotal.WithLabelValues(string(StageMembership), "blocked").Inc()
		return Decision{Stage: StageMembership}
	}
	metrics.GateTotal.WithLabelValues(string(StageMembership), "passed").Inc()

	if !g.IsVerified(ctx, userID) {
		metrics.GateTotal.WithLabelValues(string(StageVerification), "blocked").Inc()
		return Decision{Stage: StageVerification}
	}
	metrics.GateTotal.WithLabelValues(string(StageVerification), "passed").Inc()

	return Decision{Allowed: true}
}

// IsMember fails closed: a lookup error counts as not a member.
func (g *Gate) IsMember(ctx context.Context, userID int64) bool {
	status, err := g.members.MemberStatus(ctx, g.channelID, userID)
	if err != nil {
		g.logger.Warn("membership check failed",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", g.channelID),
			zap.Error(err),
		)
		return false
	}
	switch status {
	case "left", "kicked":
		return false
	}
	return true
}

// IsVerified passes iff the last verification is younger than the window.
func (g *Gate) IsVerified(ctx context.Context, userID int64) bool {
	v, err := g.verifications.GetVerification(ctx, userID)
	if err != nil {
		g.logger.Warn("verification lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	if v == nil {
		return false
	}
	return g.now().Sub(v.LastVerifiedAt) < g.window
}

// MarkVerified records a fresh verification for userID and returns its timestamp.
func (g *Gate) MarkVerified(ctx context.Context, userID int64) (time.Time, error) {
	at := g.now()
	if err := g.verifications.UpsertVerification(ctx, userID, at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

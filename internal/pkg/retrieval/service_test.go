package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"media_relay_bot/internal/pkg/access"
	"media_relay_bot/internal/pkg/media/domain"
	"media_relay_bot/internal/pkg/media/repository"
)

const (
	userID   = 7
	chatID   = 7
	auditID  = -100999
	verifyTo = "https://example.org/verify"
)

type sentMedia struct {
	kind    domain.MediaKind
	fileRef string
	caption string
	protect bool
}

type fakeMessenger struct {
	texts   []string
	audits  []string
	prompts []string
	media   []sentMedia
	sendErr error
}

func (f *fakeMessenger) SendText(_ context.Context, chat int64, text string) error {
	if chat == auditID {
		f.audits = append(f.audits, text)
		return nil
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendPrompt(_ context.Context, _ int64, text, _, url string) error {
	f.prompts = append(f.prompts, url)
	return nil
}

func (f *fakeMessenger) SendMedia(_ context.Context, _ int64, kind domain.MediaKind, fileRef, caption string, protect bool) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.media = append(f.media, sentMedia{kind, fileRef, caption, protect})
	return 500 + len(f.media), nil
}

type scheduled struct {
	chatID    int64
	messageID int
	delay     time.Duration
}

type fakeScheduler struct {
	jobs []scheduled
}

func (f *fakeScheduler) ScheduleDeletion(_ context.Context, chatID int64, messageID int, delay time.Duration) error {
	f.jobs = append(f.jobs, scheduled{chatID, messageID, delay})
	return nil
}

type fakeMembers struct{ status string }

func (f *fakeMembers) MemberStatus(context.Context, int64, int64) (string, error) {
	return f.status, nil
}

type fixture struct {
	svc   *Service
	repo  *repository.MemoryStorage
	msg   *fakeMessenger
	sched *fakeScheduler
	mem   *fakeMembers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryStorage()
	mem := &fakeMembers{status: "member"}
	gate := access.NewGate(mem, repo, -100123, 2*time.Hour, nil)
	msg := &fakeMessenger{}
	sched := &fakeScheduler{}
	svc := NewService(repo, gate, msg, sched, Config{
		VerifyURL:   verifyTo,
		InviteLink:  "https://t.me/+invite",
		AuditChatID: auditID,
		DeleteAfter: time.Hour,
	}, nil)

	repo.Put(context.Background(), &domain.MediaRecord{
		Key:     "file_AgADu1",
		FileRef: "channel-copy-ref",
		Title:   "Launch recap",
		Kind:    domain.KindVideo,
	})
	return &fixture{svc: svc, repo: repo, msg: msg, sched: sched, mem: mem}
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, Arg: "verified"}); out != OutcomeVerified {
		t.Fatalf("verify outcome = %v", out)
	}
}

func TestStart_Welcome(t *testing.T) {
	f := newFixture(t)
	f.mem.status = "left"

	if out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID}); out != OutcomeWelcome {
		t.Fatalf("outcome = %v, want welcome", out)
	}
	if len(f.msg.texts) != 1 || f.msg.texts[0] != WelcomeText {
		t.Errorf("texts = %v", f.msg.texts)
	}
}

func TestStart_UnverifiedHaltsAtVerification(t *testing.T) {
	f := newFixture(t)

	out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, Arg: "file_AgADu1"})
	if out != OutcomeVerifyRequired {
		t.Fatalf("outcome = %v, want verify required", out)
	}
	if len(f.msg.media) != 0 {
		t.Error("media delivered to an unverified user")
	}
	if len(f.msg.prompts) != 1 || f.msg.prompts[0] != verifyTo {
		t.Errorf("prompts = %v", f.msg.prompts)
	}
}

func TestStart_NonMemberHaltsAtMembership(t *testing.T) {
	f := newFixture(t)
	f.verify(t)
	f.mem.status = "kicked"

	out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, Arg: "file_AgADu1"})
	if out != OutcomeJoinRequired {
		t.Fatalf("outcome = %v, want join required", out)
	}
	if len(f.msg.media) != 0 {
		t.Error("media delivered to a non-member")
	}
}

func TestStart_UnknownKeyNeverDelivers(t *testing.T) {
	f := newFixture(t)
	f.verify(t)

	out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, Arg: "file_missing"})
	if out != OutcomeNotFound {
		t.Fatalf("outcome = %v, want not found", out)
	}
	if len(f.msg.media) != 0 || len(f.sched.jobs) != 0 {
		t.Error("unknown key reached delivery")
	}
	if last := f.msg.texts[len(f.msg.texts)-1]; last != NotFoundText {
		t.Errorf("last reply = %q", last)
	}
}

func TestStart_DeliversAndSchedulesDeletion(t *testing.T) {
	f := newFixture(t)
	f.verify(t)

	out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, Arg: "file_AgADu1"})
	if out != OutcomeDelivered {
		t.Fatalf("outcome = %v, want delivered", out)
	}

	want := sentMedia{domain.KindVideo, "channel-copy-ref", "Launch recap", true}
	if len(f.msg.media) != 1 || f.msg.media[0] != want {
		t.Fatalf("media = %+v, want %+v", f.msg.media, want)
	}
	if len(f.sched.jobs) != 1 {
		t.Fatalf("jobs = %+v", f.sched.jobs)
	}
	if job := f.sched.jobs[0]; job.chatID != chatID || job.messageID != 501 || job.delay != time.Hour {
		t.Errorf("job = %+v", job)
	}
}

func TestStart_DeliveryFailureSchedulesNothing(t *testing.T) {
	f := newFixture(t)
	f.verify(t)
	f.msg.sendErr = errors.New("Bad Request: wrong file identifier")

	out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, Arg: "file_AgADu1"})
	if out != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", out)
	}
	if len(f.sched.jobs) != 0 {
		t.Error("deletion scheduled for an undelivered message")
	}
}

func TestStart_VerifySkipsGatesAndAudits(t *testing.T) {
	f := newFixture(t)
	f.mem.status = "left"

	out := f.svc.Start(context.Background(), Request{ChatID: chatID, UserID: userID, UserName: "alex", Arg: "verified"})
	if out != OutcomeVerified {
		t.Fatalf("outcome = %v, want verified", out)
	}
	if rec, _ := f.repo.GetVerification(context.Background(), userID); rec == nil {
		t.Error("verification not stored")
	}
	if len(f.msg.audits) != 1 {
		t.Errorf("audits = %v, want one notice", f.msg.audits)
	}
}

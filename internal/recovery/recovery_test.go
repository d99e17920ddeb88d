package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
	"github.com/BTreeMap/SiteBot/internal/transcript"
)

type stubRecoverable struct {
	name  string
	err   error
	calls int
}

func (s *stubRecoverable) Name() string { return s.name }

func (s *stubRecoverable) Recover(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestManager_RecoverAll(t *testing.T) {
	ok := &stubRecoverable{name: "ok"}
	bad := &stubRecoverable{name: "bad", err: errors.New("boom")}
	after := &stubRecoverable{name: "after"}

	m := NewManager()
	m.Register(ok)
	m.Register(bad)
	m.Register(after)

	err := m.RecoverAll(context.Background())
	if err == nil {
		t.Fatal("expected an error when a component fails")
	}
	if ok.calls != 1 || bad.calls != 1 || after.calls != 1 {
		t.Errorf("expected every component to run once, got %d/%d/%d", ok.calls, bad.calls, after.calls)
	}
}

func TestManager_RecoverAllEmpty(t *testing.T) {
	if err := NewManager().RecoverAll(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestTranscriptSweeper(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	startedAt := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	seed := []models.Transcript{
		{ChatID: "orphan", TenantCode: "acme", Status: models.TranscriptActive, UpdatedAt: startedAt.Add(-time.Hour)},
		{ChatID: "done", TenantCode: "acme", Status: models.TranscriptCompleted, UpdatedAt: startedAt.Add(-time.Hour)},
		{ChatID: "live", TenantCode: "acme", Status: models.TranscriptActive, UpdatedAt: startedAt.Add(time.Minute)},
	}
	for _, tr := range seed {
		if err := st.CreateTranscript(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	sweeper := NewTranscriptSweeper(st, transcript.NewRecorder(st), startedAt)
	if err := sweeper.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	want := map[string]models.TranscriptStatus{
		"orphan": models.TranscriptAbandoned,
		"done":   models.TranscriptCompleted,
		"live":   models.TranscriptActive,
	}
	for id, status := range want {
		got, err := st.GetTranscript(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != status {
			t.Errorf("%s: expected %s, got %s", id, status, got.Status)
		}
	}

	// A second pass finds nothing left to do.
	if err := sweeper.Recover(ctx); err != nil {
		t.Errorf("second Recover failed: %v", err)
	}
}

type failingFinalizer struct{}

func (failingFinalizer) Abandon(ctx context.Context, chatID string) error {
	return errors.New("store offline")
}

func TestTranscriptSweeper_ReportsFailures(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	startedAt := time.Now()
	if err := st.CreateTranscript(ctx, models.Transcript{ChatID: "orphan", UpdatedAt: startedAt.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	err := NewTranscriptSweeper(st, failingFinalizer{}, startedAt).Recover(ctx)
	if err == nil {
		t.Fatal("expected an error when a transcript cannot be abandoned")
	}
}

type fakeLiveness struct {
	owned map[string]bool
	err   error
}

func (f fakeLiveness) Alive(ctx context.Context, chatID string) (bool, error) {
	return f.owned[chatID], f.err
}

func TestTranscriptSweeper_SkipsOwnedTranscripts(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	startedAt := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"served-elsewhere", "orphan"} {
		if err := st.CreateTranscript(ctx, models.Transcript{ChatID: id, UpdatedAt: startedAt.Add(-time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}

	liveness := fakeLiveness{owned: map[string]bool{"served-elsewhere": true}}
	sweeper := NewTranscriptSweeper(st, transcript.NewRecorder(st), startedAt, WithLiveness(liveness))
	if err := sweeper.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if got, _ := st.GetTranscript(ctx, "served-elsewhere"); got.Status != models.TranscriptActive {
		t.Errorf("expected owned transcript left active, got %s", got.Status)
	}
	if got, _ := st.GetTranscript(ctx, "orphan"); got.Status != models.TranscriptAbandoned {
		t.Errorf("expected orphan abandoned, got %s", got.Status)
	}
}

func TestTranscriptSweeper_LivenessErrorLeavesTranscript(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	startedAt := time.Now()
	if err := st.CreateTranscript(ctx, models.Transcript{ChatID: "unknown", UpdatedAt: startedAt.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	sweeper := NewTranscriptSweeper(st, transcript.NewRecorder(st), startedAt, WithLiveness(fakeLiveness{err: errors.New("redis down")}))
	if err := sweeper.Recover(ctx); err == nil {
		t.Error("expected an error when ownership cannot be checked")
	}
	if got, _ := st.GetTranscript(ctx, "unknown"); got.Status != models.TranscriptActive {
		t.Errorf("expected transcript left active, got %s", got.Status)
	}
}

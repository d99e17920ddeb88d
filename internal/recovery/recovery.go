// Package recovery reconciles persisted state left behind by a previous
// SiteBot process. Sessions live only in memory, so anything a dead process
// left in flight can never finish and is closed out at startup. When several
// instances share a database, a Liveness check keeps the sweep away from
// transcripts another instance is still serving.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
)

// Recoverable is a component with startup reconciliation work.
type Recoverable interface {
	Name() string
	Recover(ctx context.Context) error
}

// Manager runs every registered Recoverable once.
type Manager struct {
	recoverables []Recoverable
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a component to the recovery pass.
func (m *Manager) Register(r Recoverable) {
	m.recoverables = append(m.recoverables, r)
}

// RecoverAll runs every component, continuing past failures, and reports
// how many failed.
func (m *Manager) RecoverAll(ctx context.Context) error {
	slog.Info("Starting startup recovery", "components", len(m.recoverables))
	failed := 0
	for _, r := range m.recoverables {
		if err := r.Recover(ctx); err != nil {
			slog.Error("Component recovery failed", "component", r.Name(), "error", err)
			failed++
		}
	}
	slog.Info("Startup recovery completed", "recovered", len(m.recoverables)-failed, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("recovery completed with %d errors out of %d components", failed, len(m.recoverables))
	}
	return nil
}

// Finalizer closes a transcript; transcript.Recorder satisfies it.
type Finalizer interface {
	Abandon(ctx context.Context, chatID string) error
}

// Liveness reports whether some running instance still owns a transcript.
// session.RedisPresence satisfies it.
type Liveness interface {
	Alive(ctx context.Context, chatID string) (bool, error)
}

// TranscriptSweeper abandons transcripts still marked active from before
// this process started.
type TranscriptSweeper struct {
	transcripts store.TranscriptStore
	finalizer   Finalizer
	startedAt   time.Time
	liveness    Liveness
}

// SweeperOption configures a TranscriptSweeper.
type SweeperOption func(*TranscriptSweeper)

// WithLiveness skips transcripts that l reports as owned.
func WithLiveness(l Liveness) SweeperOption {
	return func(s *TranscriptSweeper) { s.liveness = l }
}

// NewTranscriptSweeper sweeps transcripts last touched before startedAt.
func NewTranscriptSweeper(transcripts store.TranscriptStore, finalizer Finalizer, startedAt time.Time, opts ...SweeperOption) *TranscriptSweeper {
	s := &TranscriptSweeper{transcripts: transcripts, finalizer: finalizer, startedAt: startedAt}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TranscriptSweeper) Name() string { return "transcripts" }

// Recover marks each orphaned transcript abandoned. A transcript that fails
// to close, or whose ownership cannot be checked, is logged and skipped.
func (s *TranscriptSweeper) Recover(ctx context.Context) error {
	ids, err := s.transcripts.ListTranscriptIDs(ctx, models.TranscriptActive, s.startedAt)
	if err != nil {
		return err
	}
	abandoned, owned, failed := 0, 0, 0
	for _, id := range ids {
		if s.liveness != nil {
			alive, err := s.liveness.Alive(ctx, id)
			if err != nil {
				slog.Warn("TranscriptSweeper.Recover: liveness check failed", "chatID", id, "error", err)
				failed++
				continue
			}
			if alive {
				owned++
				continue
			}
		}
		if err := s.finalizer.Abandon(ctx, id); err != nil {
			slog.Warn("TranscriptSweeper.Recover: failed to abandon transcript", "chatID", id, "error", err)
			failed++
			continue
		}
		abandoned++
	}
	if len(ids) > 0 {
		slog.Info("TranscriptSweeper.Recover: abandoned orphaned transcripts", "count", abandoned, "owned", owned, "found", len(ids))
	}
	if failed > 0 {
		return fmt.Errorf("abandoned %d of %d orphaned transcripts", abandoned, len(ids)-owned)
	}
	return nil
}

// Package transcript records chat transcripts: an append-only message log per
// session plus a projection of the collected booking fields.
package transcript

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
)

// Recorder writes transcript entries through a TranscriptStore.
type Recorder struct {
	store store.TranscriptStore
	now   func() time.Time
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder over s.
func NewRecorder(s store.TranscriptStore, opts ...Option) *Recorder {
	r := &Recorder{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin creates the active transcript for a new session.
func (r *Recorder) Begin(ctx context.Context, chatID, sessionID, tenantCode string) error {
	now := r.now().UTC()
	err := r.store.CreateTranscript(ctx, models.Transcript{
		ChatID:     chatID,
		SessionID:  sessionID,
		TenantCode: tenantCode,
		Status:     models.TranscriptActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		slog.Error("Recorder.Begin failed", "error", err, "chatID", chatID, "tenantCode", tenantCode)
		return err
	}
	slog.Debug("Recorder.Begin", "chatID", chatID, "tenantCode", tenantCode)
	return nil
}

// Record appends one message.
func (r *Recorder) Record(ctx context.Context, chatID string, sender models.Sender, message string) error {
	entry := models.TranscriptEntry{Sender: sender, Message: message, Timestamp: r.now().UTC()}
	if err := r.store.AppendMessage(ctx, chatID, entry); err != nil {
		slog.Error("Recorder.Record failed", "error", err, "chatID", chatID, "sender", sender)
		return err
	}
	return nil
}

// SetField updates the collected-fields projection. Unknown field types are
// ignored.
func (r *Recorder) SetField(ctx context.Context, chatID string, field models.FieldType, value string) error {
	if !models.IsKnownFieldType(field) {
		return nil
	}
	if err := r.store.SetCollectedField(ctx, chatID, field, value); err != nil {
		slog.Error("Recorder.SetField failed", "error", err, "chatID", chatID, "field", field)
		return err
	}
	return nil
}

// Complete marks the transcript completed. Completing an already finalized
// transcript is a no-op.
func (r *Recorder) Complete(ctx context.Context, chatID string) error {
	return r.finalize(ctx, chatID, models.TranscriptCompleted)
}

// Abandon marks the transcript abandoned unless it already finished.
func (r *Recorder) Abandon(ctx context.Context, chatID string) error {
	return r.finalize(ctx, chatID, models.TranscriptAbandoned)
}

func (r *Recorder) finalize(ctx context.Context, chatID string, status models.TranscriptStatus) error {
	err := r.store.SetTranscriptStatus(ctx, chatID, status)
	if errors.Is(err, models.ErrTranscriptFinalized) {
		slog.Debug("Recorder: transcript already finalized", "chatID", chatID, "status", status)
		return nil
	}
	if err != nil {
		slog.Error("Recorder: set status failed", "error", err, "chatID", chatID, "status", status)
		return err
	}
	slog.Debug("Recorder: transcript finalized", "chatID", chatID, "status", status)
	return nil
}

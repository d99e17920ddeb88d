package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/SiteBot/internal/booking"
	"github.com/BTreeMap/SiteBot/internal/metrics"
	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/session"
	"github.com/BTreeMap/SiteBot/internal/store"
	"github.com/BTreeMap/SiteBot/internal/transcript"
	"github.com/BTreeMap/SiteBot/internal/validation"
)

// User-facing messages. Internal errors are never shown to the visitor.
const (
	MsgStartOver         = "Your chat session has ended. Please start over."
	MsgConfigError       = "This chat is not available right now because of a configuration error. Please contact support."
	MsgSomethingWrong    = "Something went wrong. Please try again."
	MsgBookingRetry      = "Something went wrong while saving your booking. Please try again in a moment."
	MsgFreeFormFallback  = "Sorry, I didn't quite catch that. Which service are you interested in?"
	MsgDateInPast        = "Please choose today or a later date."
	MsgNoSlotsLeft       = "Sorry, there are no free time slots left on that date. Please choose another date."
	MsgPickAnotherSlot   = "Please pick one of the available time slots."
	MsgNoBookingPending  = "There is no booking waiting to be completed."
	DefaultWelcome       = "Hi! How can we help you today?"
	DefaultEndMessage    = "Thank you for chatting with us!"
	bookingDoneMessage   = "Thanks%s! Your booking request for %s on %s has been received. Your reference is %s."
	turnOutcomeAdvanced  = "advanced"
	turnOutcomeInvalid   = "invalid"
	turnOutcomeFull      = "unavailable"
	turnOutcomeFreeForm  = "freeform"
	turnOutcomeEnded     = "ended"
	turnOutcomeNoSession = "no_session"
)

// Generator produces free text for AI-backed replies.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Notifier receives best-effort side effects once they have committed.
// Implementations must not block.
type Notifier interface {
	BookingCreated(b models.BookingRecord)
	ComplaintFiled(tenantCode, chatID string, fields models.CollectedFields)
}

// Dependencies holds the collaborators every Engine needs.
type Dependencies struct {
	Tenants  store.TenantStore
	Flows    store.FlowStore
	Sessions *session.Registry
	Recorder *transcript.Recorder
	Checker  *booking.Checker
	Bookings *booking.Service
}

// Opts holds optional Engine configuration.
type Opts struct {
	Generator    Generator
	Notifier     Notifier
	Metrics      *metrics.Metrics
	SystemPrompt string
	AITimeout    time.Duration
	Clock        func() time.Time
	NewChatID    func() string
}

// Option defines a configuration option for the Engine.
type Option func(*Opts)

// WithGenerator enables AI-backed replies.
func WithGenerator(g Generator) Option {
	return func(o *Opts) { o.Generator = g }
}

// WithNotifier sets the booking and complaint notification sink.
func WithNotifier(n Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

// WithMetrics enables Prometheus recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Opts) { o.Metrics = m }
}

// WithSystemPrompt overrides the AI persona prompt template.
func WithSystemPrompt(p string) Option {
	return func(o *Opts) { o.SystemPrompt = p }
}

// WithAITimeout bounds each AI call.
func WithAITimeout(d time.Duration) Option {
	return func(o *Opts) { o.AITimeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// WithChatIDGenerator overrides transcript id generation.
func WithChatIDGenerator(f func() string) Option {
	return func(o *Opts) { o.NewChatID = f }
}

// Engine runs conversations. Turns on one session are serialized through
// the session registry; different sessions proceed concurrently.
type Engine struct {
	deps Dependencies
	opts Opts
}

// NewEngine creates an Engine.
func NewEngine(deps Dependencies, opts ...Option) *Engine {
	cfg := Opts{
		AITimeout: 20 * time.Second,
		Clock:     time.Now,
		NewChatID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Engine.NewEngine: creating engine", "hasGenAI", cfg.Generator != nil, "hasNotifier", cfg.Notifier != nil)
	return &Engine{deps: deps, opts: cfg}
}

// Sessions returns the registry the engine serves.
func (e *Engine) Sessions() *session.Registry {
	return e.deps.Sessions
}

// HandleTurn processes one inbound event for a session and returns the
// events to send back. The returned error is for logging; the events always
// carry a user-facing message.
func (e *Engine) HandleTurn(ctx context.Context, sessionID string, in models.Input) ([]models.OutgoingEvent, error) {
	switch in.Type {
	case models.InboundStartChat:
		return e.Start(ctx, sessionID, in.Value)
	case models.InboundEndConversation:
		return e.End(ctx, sessionID)
	case models.InboundBookingComplete:
		return e.CompleteBooking(ctx, sessionID)
	}

	started := e.opts.Clock()
	tenant := ""
	outcome := turnOutcomeNoSession
	var events []models.OutgoingEvent
	err := e.withSession(ctx, sessionID, func(t *turn) {
		tenant = t.state.TenantCode
		outcome = t.handle(in.Value)
		events = t.events
	})
	e.opts.Metrics.TurnHandled(tenant, outcome, e.opts.Clock().Sub(started))
	if err != nil {
		return e.failure(err), err
	}
	return events, nil
}

// Start creates (or restarts) the session for sessionID on tenantCode's flow
// and returns the greeting events. Configuration problems are reported to the
// visitor as a generic message and no session is created.
func (e *Engine) Start(ctx context.Context, sessionID, tenantCode string) ([]models.OutgoingEvent, error) {
	tenantCode = strings.TrimSpace(tenantCode)
	var events []models.OutgoingEvent
	err := e.deps.Sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if prev, ok := e.deps.Sessions.Delete(sessionID); ok {
			slog.Debug("Engine.Start: replacing existing session", "sessionID", sessionID, "chatID", prev.ChatID)
			e.teardown(ctx, prev)
		}

		state, err := e.newSession(ctx, sessionID, tenantCode)
		if err != nil {
			e.opts.Metrics.SessionStarted(tenantCode, false)
			return err
		}
		e.deps.Sessions.Put(state)
		e.opts.Metrics.SessionStarted(tenantCode, true)

		t := e.newTurn(ctx, state)
		t.emit(models.OutgoingEvent{Type: models.EventWebsiteInfo, Data: state.Website})
		welcome := state.Flow.WelcomeMessage
		if welcome == "" {
			welcome = DefaultWelcome
		}
		t.say(Substitute(welcome, templateVars(state, "")))
		t.enter(t.graph.Start())
		t.flush()
		events = t.events
		slog.Info("Engine.Start: session started", "sessionID", sessionID, "tenantCode", tenantCode, "chatID", state.ChatID)
		return nil
	})
	if err != nil {
		return e.failure(err), err
	}
	return events, nil
}

func (e *Engine) newSession(ctx context.Context, sessionID, tenantCode string) (*models.SessionState, error) {
	if tenantCode == "" {
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, models.ErrEmptyTenantCode)
	}
	website, err := e.deps.Tenants.GetWebsite(ctx, tenantCode)
	if err != nil {
		slog.Warn("Engine.Start: tenant lookup failed", "tenantCode", tenantCode, "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}
	def, err := e.deps.Flows.GetFlow(ctx, tenantCode)
	if err != nil {
		slog.Warn("Engine.Start: flow lookup failed", "tenantCode", tenantCode, "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}
	if err := ValidateDefinition(def); err != nil {
		slog.Error("Engine.Start: flow failed validation", "tenantCode", tenantCode, "error", err)
		return nil, err
	}

	state := models.NewSessionState(sessionID, tenantCode, e.opts.Clock())
	state.ChatID = e.opts.NewChatID()
	state.Flow = def
	state.Website = website
	if err := e.deps.Recorder.Begin(ctx, state.ChatID, sessionID, tenantCode); err != nil {
		return nil, err
	}
	return state, nil
}

// End handles an explicit end of conversation: the end message is sent and
// the transcript is completed.
func (e *Engine) End(ctx context.Context, sessionID string) ([]models.OutgoingEvent, error) {
	var events []models.OutgoingEvent
	err := e.withSession(ctx, sessionID, func(t *turn) {
		if !t.state.Completed {
			t.finish(true)
		}
		events = t.events
	})
	if err != nil {
		return e.failure(err), err
	}
	return events, nil
}

// Disconnect tears the session down when its connection closes. An
// unfinished transcript is marked abandoned.
func (e *Engine) Disconnect(ctx context.Context, sessionID string) error {
	return e.deps.Sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, ok := e.deps.Sessions.Delete(sessionID)
		if !ok {
			return nil
		}
		e.teardown(ctx, state)
		slog.Debug("Engine.Disconnect: session removed", "sessionID", sessionID, "chatID", state.ChatID)
		return nil
	})
}

func (e *Engine) teardown(ctx context.Context, state *models.SessionState) {
	if !state.Completed {
		if err := e.deps.Recorder.Abandon(ctx, state.ChatID); err != nil {
			slog.Warn("Engine: failed to abandon transcript", "chatID", state.ChatID, "error", err)
		}
	}
	e.opts.Metrics.SessionClosed()
}

// CompleteBooking retries booking creation for a session whose completing
// step was reached but failed to persist. A booking that already exists is
// reported again rather than duplicated; a flow still collecting fields is
// left alone.
func (e *Engine) CompleteBooking(ctx context.Context, sessionID string) ([]models.OutgoingEvent, error) {
	var events []models.OutgoingEvent
	err := e.withSession(ctx, sessionID, func(t *turn) {
		switch {
		case t.state.LastBookingID != "":
			t.emit(models.OutgoingEvent{Type: models.EventBookingDone, Data: models.BookingDonePayload{
				BookingID: t.state.LastBookingID,
				Message:   t.bookingDoneText(t.state.LastBookingID),
			}})
		case t.state.BookingPending:
			t.completeBooking()
		default:
			t.say(MsgNoBookingPending)
		}
		events = t.events
	})
	if err != nil {
		return e.failure(err), err
	}
	return events, nil
}

// withSession runs fn on the live session under its turn lock.
func (e *Engine) withSession(ctx context.Context, sessionID string, fn func(t *turn)) error {
	return e.deps.Sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, ok := e.deps.Sessions.Get(sessionID)
		if !ok {
			slog.Debug("Engine: no active session", "sessionID", sessionID)
			return models.ErrNoActiveSession
		}
		t := e.newTurn(ctx, state)
		fn(t)
		t.flush()
		state.UpdatedAt = e.opts.Clock()
		return nil
	})
}

func (e *Engine) failure(err error) []models.OutgoingEvent {
	switch {
	case errors.Is(err, models.ErrNoActiveSession):
		return []models.OutgoingEvent{models.Reply(MsgStartOver)}
	case errors.Is(err, models.ErrConfiguration):
		return []models.OutgoingEvent{models.Reply(MsgConfigError)}
	default:
		return []models.OutgoingEvent{models.Reply(MsgSomethingWrong)}
	}
}

func (e *Engine) newTurn(ctx context.Context, state *models.SessionState) *turn {
	return &turn{e: e, ctx: ctx, state: state, graph: NewGraph(state.Flow)}
}

// turn accumulates the events of one locked engine call.
type turn struct {
	e      *Engine
	ctx    context.Context
	state  *models.SessionState
	graph  *Graph
	events []models.OutgoingEvent
	said   []string
}

func (t *turn) emit(ev models.OutgoingEvent) {
	t.events = append(t.events, ev)
}

// say sends bot text. The texts of one call are recorded together by flush.
func (t *turn) say(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	t.said = append(t.said, text)
	t.emit(models.Reply(text))
}

// flush records everything the bot said during the call as one transcript
// entry.
func (t *turn) flush() {
	if len(t.said) == 0 {
		return
	}
	t.record(models.SenderBot, strings.Join(t.said, "\n"))
	t.said = nil
}

// record appends to the transcript. Write failures are logged and the
// conversation continues.
func (t *turn) record(sender models.Sender, text string) {
	if err := t.e.deps.Recorder.Record(t.ctx, t.state.ChatID, sender, text); err != nil {
		slog.Warn("Engine: transcript append failed", "chatID", t.state.ChatID, "sender", sender, "error", err)
	}
}

func (t *turn) vars(response string) map[string]string {
	return templateVars(t.state, response)
}

// handle runs one user turn and returns its outcome label.
func (t *turn) handle(raw string) string {
	state := t.state
	input := strings.TrimSpace(raw)
	t.record(models.SenderUser, raw)

	step := state.CurrentStep
	if step == nil {
		return t.freeForm(input)
	}

	if step.Validation != nil || step.Type == models.StepTypeNumber {
		if !validation.Validate(step.Type, input, step.Validation) {
			slog.Debug("Engine: input failed validation", "sessionID", state.SessionID, "stepID", step.StepID)
			t.say(validation.Message(step))
			t.prompt(step)
			return turnOutcomeInvalid
		}
	}

	if step.IsBookingStep {
		state.BookingInProgress = true
	}
	value := input
	if state.BookingInProgress {
		var outcome string
		var ok bool
		value, outcome, ok = t.checkBookingField(step, input)
		if !ok {
			return outcome
		}
	}

	state.SetResponse(step.StepID, value)
	if field := step.EffectiveFieldType(); field != "" {
		state.Fields.Set(field, value)
		if err := t.e.deps.Recorder.SetField(t.ctx, state.ChatID, field, value); err != nil {
			slog.Warn("Engine: transcript field update failed", "chatID", state.ChatID, "field", field, "error", err)
		}
	}

	t.say(t.respond(step, input))

	nextID := t.graph.NextStepID(step, input)
	next := t.graph.Step(nextID)
	if next == nil {
		if nextID != "" {
			slog.Warn("Engine: next step not found, ending conversation", "tenantCode", state.TenantCode, "stepID", step.StepID, "nextStepID", nextID)
		}
		t.finish(step.IsEnd)
		return turnOutcomeEnded
	}
	t.enter(next)
	if state.Completed {
		return turnOutcomeEnded
	}
	return turnOutcomeAdvanced
}

// checkBookingField applies the booking rules for the step's field type and
// returns the value to store. Failures emit their own messages.
func (t *turn) checkBookingField(step *models.Step, input string) (string, string, bool) {
	state := t.state
	switch step.EffectiveFieldType() {
	case models.FieldDate:
		if _, err := validation.ParseDate(input); err != nil {
			t.say(validation.Message(&models.Step{Type: models.StepTypeDate, Validation: step.Validation}))
			t.prompt(step)
			return "", turnOutcomeInvalid, false
		}
		if !validation.NotBefore(input, t.e.opts.Clock()) {
			t.say(MsgDateInPast)
			t.prompt(step)
			return "", turnOutcomeInvalid, false
		}
		return validation.CanonicalDate(input), "", true

	case models.FieldTime:
		slot := booking.CanonicalSlot(input)
		service, date := state.Fields.Service, state.Fields.ServiceDate
		if service == "" || date == "" {
			return slot, "", true
		}
		a, err := t.e.deps.Checker.CheckAvailability(t.ctx, state.TenantCode, service, date, slot)
		if err != nil {
			slog.Error("Engine: availability check failed", "tenantCode", state.TenantCode, "service", service, "error", err)
			t.say(MsgSomethingWrong)
			return "", turnOutcomeInvalid, false
		}
		if !a.Available {
			t.say(a.Message)
			t.offerTimeSlots(step, MsgPickAnotherSlot)
			return "", turnOutcomeFull, false
		}
		return slot, "", true

	case models.FieldEmail:
		if !validation.Email(input, step.Validation) {
			t.say(validation.Message(&models.Step{Type: models.StepTypeEmail, Validation: step.Validation}))
			return "", turnOutcomeInvalid, false
		}
	case models.FieldPhone:
		if !validation.Phone(input, step.Validation) {
			t.say(validation.Message(&models.Step{Type: models.StepTypePhone, Validation: step.Validation}))
			return "", turnOutcomeInvalid, false
		}
	}
	return input, "", true
}

// respond resolves the reply to an accepted answer: AI text when the step or
// flow asks for it, else the substituted response template.
func (t *turn) respond(step *models.Step, input string) string {
	if step.RequiresAI || t.state.Flow.AIEnabled {
		t.state.NeedsAIResponse = true
		text := t.generate(step, input)
		t.state.NeedsAIResponse = false
		if text != "" {
			return text
		}
	}
	return Substitute(step.ResponseTemplate, t.vars(input))
}

// freeForm answers input received outside any step.
func (t *turn) freeForm(input string) string {
	if text := t.generate(nil, input); text != "" {
		t.say(text)
	} else {
		t.say(MsgFreeFormFallback)
	}
	return turnOutcomeFreeForm
}

// generate calls the AI collaborator. Every failure yields "".
func (t *turn) generate(step *models.Step, input string) string {
	gen := t.e.opts.Generator
	if gen == nil {
		return ""
	}
	ctx := t.ctx
	if t.e.opts.AITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.e.opts.AITimeout)
		defer cancel()
	}
	text, err := gen.Generate(ctx, systemPrompt(t.e.opts.SystemPrompt, t.state), userPrompt(t.state, step, input))
	switch {
	case err != nil:
		slog.Warn("Engine: AI generation failed, using fallback", "sessionID", t.state.SessionID, "error", err)
		t.e.opts.Metrics.AIRequest("error")
		return ""
	case strings.TrimSpace(text) == "":
		t.e.opts.Metrics.AIRequest("empty")
		return ""
	}
	t.e.opts.Metrics.AIRequest("ok")
	return strings.TrimSpace(text)
}

// enter makes step current and presents it. Reaching an end step finishes
// the conversation; reaching a completing step runs its side effect first.
func (t *turn) enter(step *models.Step) {
	t.state.CurrentStep = step
	if step == nil {
		t.finish(false)
		return
	}
	t.say(Substitute(step.Question, t.vars("")))
	if !step.IsEnd {
		t.prompt(step)
	}
	if step.CompletesBooking {
		if t.state.LastBookingID != "" {
			slog.Debug("Engine: booking already created for session", "sessionID", t.state.SessionID, "bookingID", t.state.LastBookingID)
		} else {
			t.completeBooking()
		}
	}
	if step.CompletesComplaint {
		t.fileComplaint()
	}
	if step.IsEnd {
		t.finish(true)
	}
}

// prompt emits the widget controls for step: choices, date picker or the
// free time slots.
func (t *turn) prompt(step *models.Step) {
	if step.Type.IsChoice() && len(step.Options) > 0 {
		t.emit(models.OutgoingEvent{Type: models.EventShowOptions, Data: models.OptionsPayload{
			StepID:   step.StepID,
			Options:  step.Options,
			Multiple: step.Type == models.StepTypeMultiselect,
		}})
	}
	switch step.EffectiveFieldType() {
	case models.FieldDate:
		t.emit(models.OutgoingEvent{Type: models.EventShowDatePicker, Data: models.DatePickerPayload{
			StepID:  step.StepID,
			MinDate: t.e.opts.Clock().Format(validation.DateLayout),
		}})
	case models.FieldTime:
		if t.state.Fields.ServiceDate != "" {
			t.offerTimeSlots(step, "")
		}
	}
}

// offerTimeSlots lists the free slots for the chosen date, with lead
// shown before the list when any slot is free.
func (t *turn) offerTimeSlots(step *models.Step, lead string) {
	state := t.state
	slots, err := t.e.deps.Checker.AvailableTimeSlots(t.ctx, state.TenantCode, state.Fields.Service, state.Fields.ServiceDate)
	if err != nil {
		slog.Error("Engine: time slot lookup failed", "tenantCode", state.TenantCode, "error", err)
		return
	}
	if len(slots) == 0 {
		t.say(MsgNoSlotsLeft)
		return
	}
	t.say(lead)
	t.emit(models.OutgoingEvent{Type: models.EventShowTimeSlots, Data: models.TimeSlotsPayload{
		StepID: step.StepID,
		Date:   state.Fields.ServiceDate,
		Slots:  slots,
	}})
}

// finish closes the conversation. withMessage controls the end message and
// contact card; a silent finish is used when the graph simply runs out.
func (t *turn) finish(withMessage bool) {
	state := t.state
	if withMessage {
		end := state.Flow.EndMessage
		if end == "" {
			end = DefaultEndMessage
		}
		t.say(Substitute(end, t.vars("")))
		if w := state.Website; w != nil && w.HasContactDetails() {
			t.emit(models.OutgoingEvent{Type: models.EventContactDetails, Data: models.ContactDetailsPayload{
				Title:   w.Title,
				Phone:   w.ContactPhone,
				Email:   w.ContactEmail,
				Address: w.Address,
			}})
		}
	}
	state.CurrentStep = nil
	if state.Completed {
		return
	}
	state.Completed = true
	if err := t.e.deps.Recorder.Complete(t.ctx, state.ChatID); err != nil {
		slog.Warn("Engine: failed to complete transcript", "chatID", state.ChatID, "error", err)
	}
	slog.Debug("Engine: conversation finished", "sessionID", state.SessionID, "chatID", state.ChatID)
}

// bookingFromSession maps the collected fields onto a booking draft.
func bookingFromSession(state *models.SessionState) models.BookingRecord {
	f := state.Fields
	return models.BookingRecord{
		Name:             f.Name,
		Phone:            validation.NormalizePhone(f.Contact),
		Email:            f.Email,
		SelectedCategory: f.Category,
		SelectedService:  f.Service,
		Address:          f.Address,
		ServiceDate:      f.ServiceDate,
		TimeSlot:         f.TimeSlot,
		TenantCode:       state.TenantCode,
		ChatID:           state.ChatID,
	}
}

// completeBooking persists the booking built from the session. A failure
// marks the booking pending so an explicit booking_completed can retry it.
func (t *turn) completeBooking() {
	state := t.state
	state.BookingInProgress = true
	state.BookingPending = true
	b, err := t.e.deps.Bookings.Create(t.ctx, bookingFromSession(state))
	switch {
	case err == nil:
		state.LastBookingID = b.ID
		state.BookingInProgress = false
		state.BookingPending = false
		text := t.bookingDoneText(b.ID)
		t.said = append(t.said, text)
		t.emit(models.OutgoingEvent{Type: models.EventBookingDone, Data: models.BookingDonePayload{BookingID: b.ID, Message: text}})
		t.e.opts.Metrics.BookingAttempt(state.TenantCode, "created")
		if n := t.e.opts.Notifier; n != nil {
			n.BookingCreated(*b)
		}
	case errors.Is(err, models.ErrSlotUnavailable):
		t.e.opts.Metrics.BookingAttempt(state.TenantCode, "unavailable")
		msg := fmt.Sprintf("Sorry, %s is no longer available on %s.", state.Fields.Service, state.Fields.ServiceDate)
		if a, aerr := t.e.deps.Checker.CheckAvailability(t.ctx, state.TenantCode, state.Fields.Service, state.Fields.ServiceDate, state.Fields.TimeSlot); aerr == nil && a.Message != "" {
			msg = a.Message
		}
		t.say(msg)
		if state.Fields.TimeSlot != "" {
			t.offerTimeSlots(&models.Step{Type: models.StepTypeTime, FieldType: models.FieldTime}, MsgPickAnotherSlot)
		}
	default:
		t.e.opts.Metrics.BookingAttempt(state.TenantCode, "failed")
		slog.Error("Engine: booking creation failed", "sessionID", state.SessionID, "chatID", state.ChatID, "error", err)
		t.say(MsgBookingRetry)
	}
}

func (t *turn) bookingDoneText(id string) string {
	f := t.state.Fields
	name := ""
	if f.Name != "" {
		name = " " + f.Name
	}
	when := f.ServiceDate
	if f.TimeSlot != "" {
		when += " at " + f.TimeSlot
	}
	return fmt.Sprintf(bookingDoneMessage, name, f.Service, when, id)
}

// fileComplaint hands the collected fields to the notifier.
func (t *turn) fileComplaint() {
	slog.Info("Engine: complaint filed", "tenantCode", t.state.TenantCode, "chatID", t.state.ChatID)
	if n := t.e.opts.Notifier; n != nil {
		n.ComplaintFiled(t.state.TenantCode, t.state.ChatID, t.state.Fields)
	}
}

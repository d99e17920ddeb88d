package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender sends one templated message.
type Sender interface {
	SendTemplate(ctx context.Context, to, templateID string, params []string) error
}

// Opts holds configuration options for the Twilio sender.
type Opts struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Option defines a configuration option for the Twilio sender.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFrom sets the sending number. A "whatsapp:" prefix selects the
// WhatsApp channel; recipients are prefixed to match.
func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

// TwilioSender sends Twilio content templates.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a sender, falling back to TWILIO_ACCOUNT_SID,
// TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER for unset options.
func NewTwilioSender(opts ...Option) (*TwilioSender, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio sender config loaded",
		"accountSIDSet", cfg.AccountSID != "",
		"authTokenSet", cfg.AuthToken != "",
		"fromSet", cfg.From != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{client: client, from: cfg.From}, nil
}

// SendTemplate sends the content template templateID to the given number.
// params fill the template's numbered variables in order.
func (s *TwilioSender) SendTemplate(ctx context.Context, to, templateID string, params []string) error {
	vars, err := contentVariables(params)
	if err != nil {
		return err
	}
	msg := &twilioApi.CreateMessageParams{}
	msg.SetTo(recipient(s.from, to))
	msg.SetFrom(s.from)
	msg.SetContentSid(templateID)
	msg.SetContentVariables(vars)

	if _, err := s.client.Api.CreateMessage(msg); err != nil {
		slog.Error("Twilio SendTemplate failed", "to", to, "templateID", templateID, "error", err)
		return fmt.Errorf("failed to send template %s to %s: %w", templateID, to, err)
	}
	slog.Debug("Twilio template sent", "to", to, "templateID", templateID)
	return nil
}

// contentVariables encodes params as Twilio's {"1": ..., "2": ...} object.
func contentVariables(params []string) (string, error) {
	vars := make(map[string]string, len(params))
	for i, p := range params {
		vars[strconv.Itoa(i+1)] = p
	}
	b, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode content variables: %w", err)
	}
	return string(b), nil
}

// recipient prefixes to with the channel of from.
func recipient(from, to string) string {
	const wa = "whatsapp:"
	if strings.HasPrefix(from, wa) && !strings.HasPrefix(to, wa) {
		return wa + to
	}
	return to
}

// SentTemplate is one message captured by MockSender.
type SentTemplate struct {
	To         string
	TemplateID string
	Params     []string
}

// MockSender records templates instead of sending them.
type MockSender struct {
	mu   sync.Mutex
	Sent []SentTemplate
	Err  error
}

// NewMockSender creates an empty MockSender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) SendTemplate(ctx context.Context, to, templateID string, params []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentTemplate{To: to, TemplateID: templateID, Params: append([]string(nil), params...)})
	return nil
}

// Messages returns a copy of the recorded templates.
func (m *MockSender) Messages() []SentTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentTemplate(nil), m.Sent...)
}

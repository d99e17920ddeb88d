// Package gateway serves the chat widget over WebSocket. Each connection is
// one session: inbound frames become engine turns and the resulting events
// are written back in order.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// Default connection settings.
const (
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultPingInterval = 30 * time.Second
	writeTimeout        = 10 * time.Second
	maxFrameBytes       = 16 << 10
)

// Engine runs conversation turns for a session.
type Engine interface {
	HandleTurn(ctx context.Context, sessionID string, in models.Input) ([]models.OutgoingEvent, error)
	Disconnect(ctx context.Context, sessionID string) error
}

// Opts holds configuration options for the Gateway.
type Opts struct {
	ChunkWords     int
	ChunkDelay     time.Duration
	IdleTimeout    time.Duration
	PingInterval   time.Duration
	AllowedOrigins []string
}

// Option defines a configuration option for the Gateway.
type Option func(*Opts)

// WithChunking splits each reply into chunks of words with delay between
// them. words <= 0 sends replies whole.
func WithChunking(words int, delay time.Duration) Option {
	return func(o *Opts) {
		o.ChunkWords = words
		o.ChunkDelay = delay
	}
}

// WithIdleTimeout closes connections that send nothing, pongs included,
// for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Opts) { o.IdleTimeout = d }
}

// WithPingInterval sets the keepalive ping interval.
func WithPingInterval(d time.Duration) Option {
	return func(o *Opts) { o.PingInterval = d }
}

// WithAllowedOrigins restricts the Origin header. Empty allows any origin,
// as the widget is embedded on tenant sites.
func WithAllowedOrigins(origins []string) Option {
	return func(o *Opts) { o.AllowedOrigins = origins }
}

// inboundFrame is the widget's message envelope. Older widgets put the text
// in "message" and the tenant in "tenantCode"; newer ones use "value".
type inboundFrame struct {
	Type       models.InboundType `json:"type"`
	Value      string             `json:"value"`
	Message    string             `json:"message"`
	TenantCode string             `json:"tenantCode"`
}

func (f inboundFrame) input() models.Input {
	value := f.Value
	if value == "" {
		value = f.Message
	}
	if value == "" && f.Type == models.InboundStartChat {
		value = f.TenantCode
	}
	return models.Input{Type: f.Type, Value: value}
}

func knownInbound(t models.InboundType) bool {
	switch t {
	case models.InboundStartChat, models.InboundUserMessage, models.InboundOptionSelected,
		models.InboundDateSelected, models.InboundTimeSelected, models.InboundEndConversation,
		models.InboundBookingComplete:
		return true
	}
	return false
}

// Gateway is an http.Handler that upgrades widget connections.
type Gateway struct {
	engine   Engine
	opts     Opts
	upgrader websocket.Upgrader
	newID    func() string
}

// New creates a Gateway over engine.
func New(engine Engine, opts ...Option) *Gateway {
	cfg := Opts{IdleTimeout: DefaultIdleTimeout, PingInterval: DefaultPingInterval}
	for _, opt := range opts {
		opt(&cfg)
	}
	g := &Gateway{engine: engine, opts: cfg, newID: uuid.NewString}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if len(g.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range g.opts.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	slog.Warn("Gateway.checkOrigin: origin rejected", "origin", origin)
	return false
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Gateway.ServeHTTP: upgrade failed", "remoteAddr", r.RemoteAddr, "error", err)
		return
	}
	c := &connection{
		gw:        g,
		conn:      conn,
		sessionID: g.newID(),
	}
	slog.Info("Gateway: client connected", "sessionID", c.sessionID, "remoteAddr", r.RemoteAddr)
	c.serve(r.Context())
}

// connection is one widget socket.
type connection struct {
	gw        *Gateway
	conn      *websocket.Conn
	sessionID string
	writeMu   sync.Mutex
}

func (c *connection) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		if err := c.gw.engine.Disconnect(context.WithoutCancel(ctx), c.sessionID); err != nil {
			slog.Warn("Gateway: disconnect teardown failed", "sessionID", c.sessionID, "error", err)
		}
		c.conn.Close()
		slog.Info("Gateway: client disconnected", "sessionID", c.sessionID)
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	c.extendDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendDeadline()
		return nil
	})
	go c.keepAlive(ctx)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Gateway: read failed", "sessionID", c.sessionID, "error", err)
			}
			return
		}
		c.extendDeadline()

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil || !knownInbound(frame.Type) {
			slog.Warn("Gateway: ignoring malformed frame", "sessionID", c.sessionID, "type", frame.Type, "error", err)
			continue
		}
		events, err := c.gw.engine.HandleTurn(ctx, c.sessionID, frame.input())
		if err != nil {
			slog.Warn("Gateway: turn failed", "sessionID", c.sessionID, "type", frame.Type, "error", err)
		}
		if err := c.deliver(ctx, events); err != nil {
			slog.Debug("Gateway: write failed", "sessionID", c.sessionID, "error", err)
			return
		}
	}
}

func (c *connection) extendDeadline() {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.gw.opts.IdleTimeout))
}

func (c *connection) keepAlive(ctx context.Context) {
	if c.gw.opts.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.gw.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// deliver writes events in order. Every reply is followed by ai_complete,
// and is split into chunks when chunking is enabled.
func (c *connection) deliver(ctx context.Context, events []models.OutgoingEvent) error {
	for _, ev := range events {
		if ev.Type != models.EventAIReply {
			if err := c.write(ev); err != nil {
				return err
			}
			continue
		}
		text := ""
		if p, ok := ev.Data.(models.ReplyPayload); ok {
			text = p.Chunk
		}
		for i, chunk := range chunkWords(text, c.gw.opts.ChunkWords) {
			if i > 0 && c.gw.opts.ChunkDelay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.gw.opts.ChunkDelay):
				}
			}
			if err := c.write(models.Reply(chunk)); err != nil {
				return err
			}
		}
		if err := c.write(models.OutgoingEvent{Type: models.EventAIComplete}); err != nil {
			return err
		}
	}
	return nil
}

func (c *connection) write(ev models.OutgoingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// chunkWords splits text into pieces of n words. Every piece but the last
// keeps a trailing space so the widget can concatenate them.
func chunkWords(text string, n int) []string {
	words := strings.Fields(text)
	if n <= 0 || len(words) <= n {
		return []string{text}
	}
	var chunks []string
	for i := 0; i < len(words); i += n {
		end := i + n
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Package signal implements core.SignalChannel over a gorilla websocket.
package signal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/peercalls/internal/app"
	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Handler receives the events the signaling server pushes to us.
type Handler interface {
	OnUsers(app.UsersPayload)
	OnSignal(core.SignalPayload)
	OnDisconnect()
}

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	QueueSize  int
	Policy     Policy
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 32
	}
	if o.Policy == nil {
		o.Policy = SimplePolicy{}
	}
	return o
}

func (o Options) pongWait() time.Duration {
	return o.PingPeriod * 10 / 9
}

// Client is the websocket connection to the signaling server.
type Client struct {
	id   domain.ParticipantID
	url  string
	opts Options

	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func NewClient(url string, id domain.ParticipantID, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		id:   id,
		url:  url,
		opts: opts,
		send: make(chan []byte, opts.QueueSize),
	}
}

func (c *Client) ID() domain.ParticipantID { return c.id }

// Connect dials the signaling server.
func (c *Client) Connect(ctx context.Context) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	ws.SetReadLimit(c.opts.ReadLimit)
	c.conn = ws
	log.Info().Str("module", "signal").Str("url", c.url).Str("sid", string(c.id)).Msg("connected")
	return nil
}

// Run pumps frames until ctx is done or the connection drops, then tells h.
func (c *Client) Run(ctx context.Context, h Handler) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.writePump(ctx)
	c.readPump(ctx, h)
	h.OnDisconnect()
}

// Join announces us in room; the server answers with a users message.
func (c *Client) Join(room string) error {
	return c.emit(TypeReady, ReadyPayload{Room: room, UserID: c.id})
}

func (c *Client) EmitSignal(p core.SignalPayload) error {
	return c.emit(TypeSignal, p)
}

func (c *Client) emit(typ string, payload any) error {
	b, err := newMessage(typ, payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	err = c.TrySend(b)
	if errors.Is(err, ErrBackpressure) && c.opts.Policy.OnBackpressure(typ) == Disconnect {
		log.Warn().Str("module", "signal").Str("type", typ).Msg("send queue full, disconnecting")
		c.Close()
	}
	return err
}

func (c *Client) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/peercalls/internal/app"
	"github.com/dkeye/peercalls/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(c.opts.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context, h Handler) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump closing")
		c.Close()
	}()

	pongWait := c.opts.pongWait()
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("readPump read error")
				return
			}
			c.handleMessage(h, data)
		}
	}
}

func (c *Client) handleMessage(h Handler, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch msg.Type {
	case TypeUsers:
		var p app.UsersPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad users payload")
			return
		}
		h.OnUsers(p)
	case TypeSignal:
		var p core.SignalPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
			return
		}
		h.OnSignal(p)
	case TypePing:
		c.handlePing()
	case TypeError:
		var p ErrorPayload
		_ = json.Unmarshal(msg.Payload, &p)
		log.Error().Str("module", "signal").Str("error", p.Error).Msg("server error")
	default:
		log.Warn().Str("module", "signal").Str("type", msg.Type).Msg("unknown signal")
	}
}

package app

import (
	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/rs/zerolog/log"
)

// UsersPayload is the room membership announced by the signaling server.
// Initiator is the participant that triggered the announcement by joining.
type UsersPayload struct {
	Initiator domain.ParticipantID `json:"initiator"`
	Users     []domain.Participant `json:"users"`
}

// Handshake feeds signaling events into the registry.
type Handshake struct {
	Registry *Registry
	Channel  core.SignalChannel
	Stream   *core.LocalStream
}

// OnUsers connects to every announced participant that is neither us nor already connected.
func (h *Handshake) OnUsers(p UsersPayload) {
	self := h.Channel.ID()
	initiator := p.Initiator == self
	log.Info().Str("module", "app.handshake").Int("users", len(p.Users)).Bool("initiator", initiator).Msg("users")

	for _, u := range p.Users {
		if u.ID == self {
			continue
		}
		if _, ok := h.Registry.Get(u.ID); ok {
			continue
		}
		if err := h.Registry.Create(h.Channel, u, initiator, h.Stream); err != nil {
			log.Error().Err(err).Str("module", "app.handshake").Str("participant", string(u.ID)).Msg("create peer")
		}
	}
}

// OnSignal hands remote negotiation data to the matching peer.
func (h *Handshake) OnSignal(p core.SignalPayload) {
	peer, ok := h.Registry.Get(p.UserID)
	if !ok {
		log.Warn().Str("module", "app.handshake").Str("participant", string(p.UserID)).Msg("signal: no peer for")
		return
	}
	if err := peer.Signal(p.Signal); err != nil {
		log.Error().Err(err).Str("module", "app.handshake").Str("participant", string(p.UserID)).Msg("apply signal")
	}
}

// OnDisconnect drops every peer once the signaling channel is gone.
func (h *Handshake) OnDisconnect() {
	log.Info().Str("module", "app.handshake").Msg("signaling disconnected")
	h.Registry.Clear()
}

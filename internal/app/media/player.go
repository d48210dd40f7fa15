// Package media plays remote streams by draining their RTP into relays.
package media

import (
	"context"
	"sync"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/rs/zerolog/log"
)

type StreamSource interface {
	Streams() map[domain.ParticipantID][]core.MediaStream
}

type Player struct {
	ctx context.Context
	src StreamSource

	mu      sync.Mutex
	playing bool
	relays  map[domain.ParticipantID][]*Relay
}

func NewPlayer(ctx context.Context, src StreamSource) *Player {
	return &Player{
		ctx:    ctx,
		src:    src,
		relays: make(map[domain.ParticipantID][]*Relay),
	}
}

// Play starts relays for every known stream. Streams added later start
// immediately while playing. Calling Play again is a no-op.
func (p *Player) Play() {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.mu.Unlock()

	log.Info().Str("module", "media").Msg("play")
	for id, streams := range p.src.Streams() {
		for _, s := range streams {
			p.start(id, s)
		}
	}
}

// OnAction follows store updates; subscribe it to the dispatch store.
func (p *Player) OnAction(a core.Action) {
	switch a := a.(type) {
	case core.StreamAdded:
		p.mu.Lock()
		playing := p.playing
		p.mu.Unlock()
		if playing {
			p.start(a.ParticipantID, a.Stream)
		}
	case core.StreamRemoved:
		p.stopParticipant(a.ParticipantID)
	}
}

func (p *Player) start(id domain.ParticipantID, s core.MediaStream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.relays[id] {
		if r.Src.ID() == s.ID() && r.State() == RelayStateRunning {
			return
		}
	}

	logger := log.With().
		Str("module", "media").
		Str("participant", string(id)).
		Str("stream_id", s.ID()).
		Logger()

	ctx, cancel := context.WithCancel(p.ctx)
	relay := NewRelay(s, cancel)
	p.relays[id] = append(p.relays[id], relay)

	logger.Info().Msg("starting relay loop")
	go relay.loop(ctx, &logger)
}

func (p *Player) stopParticipant(id domain.ParticipantID) {
	p.mu.Lock()
	relays := p.relays[id]
	delete(p.relays, id)
	p.mu.Unlock()

	for _, r := range relays {
		r.Stop()
	}
	if len(relays) > 0 {
		log.Info().Str("module", "media").Str("participant", string(id)).Int("relays", len(relays)).Msg("stopped relays")
	}
}

// Stop cancels every relay and leaves playing mode.
func (p *Player) Stop() {
	p.mu.Lock()
	all := p.relays
	p.relays = make(map[domain.ParticipantID][]*Relay)
	p.playing = false
	p.mu.Unlock()

	for _, relays := range all {
		for _, r := range relays {
			r.Stop()
		}
	}
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Stats() map[domain.ParticipantID][]RelayStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[domain.ParticipantID][]RelayStats, len(p.relays))
	for id, relays := range p.relays {
		for _, r := range relays {
			out[id] = append(out[id], r.Stats())
		}
	}
	return out
}

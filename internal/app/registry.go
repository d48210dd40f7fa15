package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrSendPanic = errors.New("peer send panicked")

const (
	msgConnecting  = "Connecting to peer..."
	msgCleanup     = "Cleaning up old connection..."
	msgPeerError   = "A peer connection error occurred"
	msgEstablished = "Peer connection established"
	msgClosed      = "Peer connection closed"
)

// peerEntry is the per-handle context handed to every reaction.
// An entry is dead once it left the map or its peer errored or closed.
type peerEntry struct {
	participantID domain.ParticipantID
	connID        string
	peer          core.Peer
	dead          atomic.Bool
}

// Registry owns the participant -> peer mapping and is its sole mutator.
// The lock is never held while calling into peers, the dispatcher, the
// signal channel or the player, so reactions may re-enter the registry.
type Registry struct {
	mu    sync.Mutex
	peers map[domain.ParticipantID]*peerEntry

	factory    core.PeerFactory
	dispatcher core.Dispatcher
	player     core.Player
	iceServers []webrtc.ICEServer
}

func NewRegistry(
	factory core.PeerFactory,
	dispatcher core.Dispatcher,
	player core.Player,
	iceServers []webrtc.ICEServer,
) *Registry {
	return &Registry{
		peers:      make(map[domain.ParticipantID]*peerEntry),
		factory:    factory,
		dispatcher: dispatcher,
		player:     player,
		iceServers: iceServers,
	}
}

func (r *Registry) logger(e *peerEntry) zerolog.Logger {
	return log.With().
		Str("module", "app.registry").
		Str("participant", string(e.participantID)).
		Str("conn_id", e.connID).
		Logger()
}

// Create connects to participant p, replacing any existing connection to it.
func (r *Registry) Create(ch core.SignalChannel, p domain.Participant, initiator bool, stream *core.LocalStream) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("create peer: %w", err)
	}
	log.Info().Str("module", "app.registry").Str("participant", string(p.ID)).Bool("initiator", initiator).Msg("create peer")
	r.notify(domain.Warn(msgConnecting))

	if _, ok := r.Get(p.ID); ok {
		r.notify(domain.Info(msgCleanup))
		r.Destroy(p.ID)
	}

	peer, err := r.factory.NewPeer(core.PeerOptions{
		Initiator: initiator,
		Stream:    stream,
		Config:    webrtc.Configuration{ICEServers: r.iceServers},
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("participant", string(p.ID)).Msg("new peer")
		r.notify(domain.Error(msgPeerError))
		return fmt.Errorf("create peer %s: %w", p.ID, err)
	}

	e := &peerEntry{participantID: p.ID, connID: uuid.NewString(), peer: peer}
	onError := r.wire(ch, e)

	r.mu.Lock()
	prev := r.peers[p.ID]
	r.peers[p.ID] = e
	r.mu.Unlock()

	// Another Create for the same participant slipped in between cleanup and store.
	if prev != nil {
		prev.dead.Store(true)
		prev.peer.Destroy()
	}
	// The peer may have closed before it was stored.
	if e.dead.Load() {
		r.removeIfCurrent(e)
	}

	if err := peer.Start(); err != nil {
		onError(err)
		return fmt.Errorf("start peer %s: %w", p.ID, err)
	}
	return nil
}

// wire binds the six reactions of a new peer and returns its error reaction.
func (r *Registry) wire(ch core.SignalChannel, e *peerEntry) func(error) {
	onError := subscribe(FiresOnce, func(err error) { r.onError(e, err) })

	e.peer.OnError(onError)
	e.peer.OnSignal(subscribe(FiresMany, func(sig core.Signal) { r.onSignal(ch, e, sig) }))
	e.peer.OnConnect(subscribeNoArg(FiresOnce, func() { r.onConnect(e) }))
	e.peer.OnStream(subscribe(FiresMany, func(s core.MediaStream) { r.onStream(e, s) }))
	e.peer.OnData(subscribe(FiresMany, func(data []byte) { r.onData(e, data) }))
	e.peer.OnClose(subscribeNoArg(FiresOnce, func() { r.onClose(e) }))

	return onError
}

func (r *Registry) onError(e *peerEntry, err error) {
	logger := r.logger(e)
	if !e.dead.CompareAndSwap(false, true) {
		logger.Debug().Err(err).Msg("error on dead peer ignored")
		return
	}
	logger.Error().Err(err).Msg("peer error")
	r.notify(domain.Error(msgPeerError))
	r.removeIfCurrent(e)
	e.peer.Destroy()
}

func (r *Registry) onSignal(ch core.SignalChannel, e *peerEntry, sig core.Signal) {
	if e.dead.Load() {
		return
	}
	logger := r.logger(e)
	logger.Debug().RawJSON("signal", sig).Msg("signal")
	if err := ch.EmitSignal(core.SignalPayload{UserID: e.participantID, Signal: sig}); err != nil {
		logger.Error().Err(err).Msg("emit signal")
	}
}

func (r *Registry) onConnect(e *peerEntry) {
	if e.dead.Load() {
		return
	}
	logger := r.logger(e)
	logger.Info().Msg("connect")
	r.notify(domain.Warn(msgEstablished))
	if r.player != nil {
		r.player.Play()
	}
}

func (r *Registry) onStream(e *peerEntry, s core.MediaStream) {
	if e.dead.Load() {
		return
	}
	logger := r.logger(e)
	logger.Info().Str("stream_id", s.ID()).Str("kind", s.Kind()).Msg("stream")
	r.dispatcher.Dispatch(core.StreamAdded{ParticipantID: e.participantID, Stream: s})
}

func (r *Registry) onData(e *peerEntry, data []byte) {
	if e.dead.Load() {
		return
	}
	logger := r.logger(e)
	m, err := domain.DecodeMessage(data)
	if err != nil {
		logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping data message")
		return
	}
	logger.Debug().Str("message", m.Message).Msg("message")
	r.notify(domain.Info(fmt.Sprintf("%s: %s", e.participantID, m.Message)))
}

func (r *Registry) onClose(e *peerEntry) {
	e.dead.Store(true)
	logger := r.logger(e)
	logger.Info().Msg("close")
	r.notify(domain.Error(msgClosed))
	r.dispatcher.Dispatch(core.StreamRemoved{ParticipantID: e.participantID})
	r.removeIfCurrent(e)
}

// removeIfCurrent deletes the map slot only when it still holds e, so a newer
// peer registered between Destroy and a late close is never evicted.
func (r *Registry) removeIfCurrent(e *peerEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peers[e.participantID] != e {
		return false
	}
	delete(r.peers, e.participantID)
	return true
}

func (r *Registry) Get(id domain.ParticipantID) (core.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.peers[id]
	if !ok {
		return nil, false
	}
	return e.peer, true
}

// GetIDs returns a snapshot of the registered participant ids in no particular order.
func (r *Registry) GetIDs() []domain.ParticipantID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ParticipantID, 0, len(r.peers))
	for id := range r.peers {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Destroy(id domain.ParticipantID) {
	r.mu.Lock()
	e, ok := r.peers[id]
	if ok {
		delete(r.peers, id)
	}
	r.mu.Unlock()

	if !ok {
		log.Debug().Str("module", "app.registry").Str("participant", string(id)).Msg("destroy: peer not found")
		return
	}
	logger := r.logger(e)
	logger.Info().Msg("destroy peer")
	e.dead.Store(true)
	e.peer.Destroy()
}

// Clear destroys every registered peer and leaves the registry empty.
func (r *Registry) Clear() {
	log.Info().Str("module", "app.registry").Msg("clear")
	for _, id := range r.GetIDs() {
		r.Destroy(id)
	}

	r.mu.Lock()
	rest := r.peers
	r.peers = make(map[domain.ParticipantID]*peerEntry)
	r.mu.Unlock()

	// Peers created re-entrantly while clearing.
	for _, e := range rest {
		e.dead.Store(true)
		e.peer.Destroy()
	}
}

// Message sends text to every registered peer and returns how many accepted it.
func (r *Registry) Message(text string) int {
	data, err := domain.EncodeMessage(text)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Msg("encode message")
		return 0
	}

	r.mu.Lock()
	entries := make([]*peerEntry, 0, len(r.peers))
	for _, e := range r.peers {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	sent := 0
	for _, e := range entries {
		if err := send(e.peer, data); err != nil {
			logger := r.logger(e)
			logger.Warn().Err(err).Msg("send message")
			continue
		}
		sent++
	}
	return sent
}

func send(p core.Peer, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrSendPanic, rec)
		}
	}()
	return p.Send(data)
}

func (r *Registry) notify(n domain.Notification) {
	r.dispatcher.Dispatch(core.Notify{Notification: n})
}

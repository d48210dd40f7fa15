package rtc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const dataChannelLabel = "data"

var (
	ErrChannelNotOpen   = errors.New("data channel not open")
	ErrConnectionFailed = errors.New("peer connection failed")
	ErrBadSignal        = errors.New("bad signal")
	ErrDestroyed        = errors.New("peer destroyed")
)

// signalMessage is the wire form of core.Signal produced and accepted here.
type signalMessage struct {
	Type      string                   `json:"type"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

type handlers struct {
	onError   func(error)
	onSignal  func(core.Signal)
	onConnect func()
	onStream  func(core.MediaStream)
	onData    func([]byte)
	onClose   func()
}

// WebRTCConnection implements core.Peer on top of a pion PeerConnection.
type WebRTCConnection struct {
	pc        *webrtc.PeerConnection
	initiator bool
	logger    zerolog.Logger

	mu        sync.Mutex
	h         handlers
	dc        *webrtc.DataChannel
	pending   []webrtc.ICECandidateInit
	destroyed bool

	destroyOnce sync.Once
	closeOnce   sync.Once
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func NewWebRTCConnection(opts core.PeerOptions) (*WebRTCConnection, error) {
	pc, err := webrtc.NewPeerConnection(opts.Config)
	if err != nil {
		return nil, err
	}
	c := &WebRTCConnection{
		pc:        pc,
		initiator: opts.Initiator,
		logger:    log.With().Str("module", "webrtc").Bool("initiator", opts.Initiator).Logger(),
	}

	if opts.Stream != nil {
		for _, track := range opts.Stream.Tracks {
			if _, err := pc.AddTrack(track); err != nil {
				_ = pc.Close()
				return nil, fmt.Errorf("add track %s: %w", track.ID(), err)
			}
		}
	}

	c.bindPeerConnection()

	if opts.Initiator {
		ordered := true
		dc, err := pc.CreateDataChannel(dataChannelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
		if err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("create data channel: %w", err)
		}
		c.setupDataChannel(dc)
	} else {
		pc.OnDataChannel(func(dc *webrtc.DataChannel) {
			c.logger.Info().Str("label", dc.Label()).Msg("remote data channel")
			c.setupDataChannel(dc)
		})
	}

	return c, nil
}

func (c *WebRTCConnection) bindPeerConnection() {
	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		init := cand.ToJSON()
		c.emitSignal(signalMessage{Type: "candidate", Candidate: &init})
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		switch s {
		case webrtc.PeerConnectionStateFailed:
			c.fail(ErrConnectionFailed)
		case webrtc.PeerConnectionStateClosed:
			c.fireClose()
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		c.logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		if fn := c.handlers().onStream; fn != nil {
			fn(&RemoteTrack{track: track})
		}
	})
}

func (c *WebRTCConnection) setupDataChannel(dc *webrtc.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.mu.Unlock()

	dc.OnOpen(func() {
		c.logger.Info().Msg("data channel open")
		if fn := c.handlers().onConnect; fn != nil {
			fn()
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if fn := c.handlers().onData; fn != nil {
			fn(msg.Data)
		}
	})
}

// Start creates and emits the offer when this side initiates.
func (c *WebRTCConnection) Start() error {
	if !c.initiator {
		return nil
	}
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	c.emitSignal(signalMessage{Type: offer.Type.String(), SDP: offer.SDP})
	return nil
}

func (c *WebRTCConnection) Signal(sig core.Signal) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	var msg signalMessage
	if err := json.Unmarshal(sig, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignal, err)
	}

	if msg.Candidate != nil {
		return c.addCandidate(*msg.Candidate)
	}

	switch msg.Type {
	case "offer":
		return c.applyOffer(msg.SDP)
	case "answer":
		if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: msg.SDP}); err != nil {
			return fmt.Errorf("set remote description: %w", err)
		}
		return c.flushCandidates()
	default:
		return fmt.Errorf("%w: unexpected type %q", ErrBadSignal, msg.Type)
	}
}

func (c *WebRTCConnection) applyOffer(sdp string) error {
	if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	if err := c.flushCandidates(); err != nil {
		return err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	c.emitSignal(signalMessage{Type: answer.Type.String(), SDP: answer.SDP})
	return nil
}

// addCandidate queues candidates until a remote description is known.
func (c *WebRTCConnection) addCandidate(ci webrtc.ICECandidateInit) error {
	c.mu.Lock()
	if c.pc.RemoteDescription() == nil {
		c.pending = append(c.pending, ci)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.pc.AddICECandidate(ci)
}

func (c *WebRTCConnection) flushCandidates() error {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, ci := range pending {
		if err := c.pc.AddICECandidate(ci); err != nil {
			return fmt.Errorf("add ice candidate: %w", err)
		}
	}
	return nil
}

func (c *WebRTCConnection) Send(data []byte) error {
	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrChannelNotOpen
	}
	return dc.Send(data)
}

// Destroy closes the data channel and the peer connection, then fires OnClose once.
func (c *WebRTCConnection) Destroy() {
	c.destroyOnce.Do(func() {
		c.mu.Lock()
		c.destroyed = true
		dc := c.dc
		c.mu.Unlock()

		if dc != nil {
			_ = dc.Close()
		}
		if err := c.pc.Close(); err != nil {
			c.logger.Error().Err(err).Msg("close error")
		} else {
			c.logger.Info().Msg("closed")
		}
	})
	c.fireClose()
}

func (c *WebRTCConnection) fail(err error) {
	if fn := c.handlers().onError; fn != nil {
		fn(err)
	}
	c.Destroy()
}

func (c *WebRTCConnection) fireClose() {
	c.closeOnce.Do(func() {
		if fn := c.handlers().onClose; fn != nil {
			fn()
		}
	})
}

func (c *WebRTCConnection) emitSignal(msg signalMessage) {
	fn := c.handlers().onSignal
	if fn == nil || c.isDestroyed() {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("marshal signal")
		return
	}
	fn(b)
}

func (c *WebRTCConnection) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

func (c *WebRTCConnection) handlers() handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.h
}

func (c *WebRTCConnection) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h.onError = fn
}

func (c *WebRTCConnection) OnSignal(fn func(core.Signal)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h.onSignal = fn
}

func (c *WebRTCConnection) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h.onConnect = fn
}

func (c *WebRTCConnection) OnStream(fn func(core.MediaStream)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h.onStream = fn
}

func (c *WebRTCConnection) OnData(fn func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h.onData = fn
}

// OnClose sets application-level callback for cleanup.
func (c *WebRTCConnection) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h.onClose = fn
}

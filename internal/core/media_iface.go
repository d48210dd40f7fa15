package core

import (
	"encoding/json"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// Signal is opaque negotiation data; the registry never looks inside.
type Signal = json.RawMessage

// MediaStream is a remote media source received from a peer.
type MediaStream interface {
	ID() string
	Kind() string
	// ReadRTP blocks until the next packet or an error.
	ReadRTP() (*rtp.Packet, error)
}

// LocalStream is local media offered to a peer.
type LocalStream struct {
	Tracks []webrtc.TrackLocal
}

type PeerOptions struct {
	Initiator bool
	Stream    *LocalStream
	Config    webrtc.Configuration
}

// Peer is one connection to a remote participant.
// Callbacks may be invoked from any goroutine, including synchronously from Destroy.
type Peer interface {
	// Start begins negotiation. Callbacks must be set before.
	Start() error
	// Signal applies negotiation data produced by the remote side.
	Signal(Signal) error
	Send(data []byte) error
	// Destroy releases transport and media resources and eventually fires OnClose.
	Destroy()

	OnError(func(error))
	OnSignal(func(Signal))
	OnConnect(func())
	OnStream(func(MediaStream))
	OnData(func([]byte))
	OnClose(func())
}

type PeerFactory interface {
	NewPeer(opts PeerOptions) (Peer, error)
}

// PeerFactoryFunc adapts a function to PeerFactory.
type PeerFactoryFunc func(opts PeerOptions) (Peer, error)

func (f PeerFactoryFunc) NewPeer(opts PeerOptions) (Peer, error) { return f(opts) }

package rtc

import (
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// RemoteTrack exposes a pion remote track as core.MediaStream.
type RemoteTrack struct {
	track *webrtc.TrackRemote
}

func (t *RemoteTrack) ID() string   { return t.track.ID() }
func (t *RemoteTrack) Kind() string { return t.track.Kind().String() }

// StreamID is the remote media stream the track belongs to.
func (t *RemoteTrack) StreamID() string { return t.track.StreamID() }

func (t *RemoteTrack) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := t.track.ReadRTP()
	return pkt, err
}

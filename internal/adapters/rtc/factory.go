package rtc

import (
	"github.com/dkeye/peercalls/internal/core"
	"github.com/pion/webrtc/v4"
)

// Factory builds pion-backed peers.
type Factory struct{}

func (Factory) NewPeer(opts core.PeerOptions) (core.Peer, error) {
	c, err := NewWebRTCConnection(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ICEServer is the configuration form of a webrtc.ICEServer.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// ICEServers converts configured servers, falling back to the default STUN server.
func ICEServers(servers []ICEServer) []webrtc.ICEServer {
	if len(servers) == 0 {
		return DefaultWebRTCConfig().ICEServers
	}
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		srv := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			srv.Username = s.Username
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	return out
}

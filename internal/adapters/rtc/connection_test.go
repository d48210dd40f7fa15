package rtc

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

func newConn(t *testing.T, initiator bool) (*WebRTCConnection, <-chan signalMessage) {
	t.Helper()
	c, err := NewWebRTCConnection(core.PeerOptions{Initiator: initiator})
	require.NoError(t, err)
	t.Cleanup(c.Destroy)

	sigs := make(chan signalMessage, 64)
	c.OnSignal(func(s core.Signal) {
		var msg signalMessage
		if err := json.Unmarshal(s, &msg); err == nil {
			select {
			case sigs <- msg:
			default:
			}
		}
	})
	return c, sigs
}

// waitSDP skips trickled candidates until a description of type typ shows up.
func waitSDP(t *testing.T, sigs <-chan signalMessage, typ string) signalMessage {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-sigs:
			if msg.Type == typ {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %s signal", typ)
		}
	}
}

func TestWebRTCConnection_Initiator_Emits_Offer(t *testing.T) {
	req := require.New(t)
	c, sigs := newConn(t, true)

	req.NoError(c.Start())

	offer := waitSDP(t, sigs, "offer")
	req.Contains(offer.SDP, "m=application")
}

func TestWebRTCConnection_Responder_Answers_Offer(t *testing.T) {
	req := require.New(t)
	initiator, offers := newConn(t, true)
	responder, answers := newConn(t, false)

	// Responder does nothing on Start
	req.NoError(responder.Start())
	req.NoError(initiator.Start())
	offer := waitSDP(t, offers, "offer")

	raw, err := json.Marshal(offer)
	req.NoError(err)
	req.NoError(responder.Signal(raw))

	answer := waitSDP(t, answers, "answer")
	raw, err = json.Marshal(answer)
	req.NoError(err)
	req.NoError(initiator.Signal(raw))
}

func TestWebRTCConnection_Candidate_Before_Description_Is_Queued(t *testing.T) {
	req := require.New(t)
	c, _ := newConn(t, false)

	err := c.Signal(core.Signal(`{"type":"candidate","candidate":{"candidate":"candidate:1 1 udp 2130706431 192.0.2.1 5000 typ host"}}`))

	req.NoError(err)
	req.Len(c.pending, 1)
}

func TestWebRTCConnection_Bad_Signal(t *testing.T) {
	req := require.New(t)
	c, _ := newConn(t, false)

	req.ErrorIs(c.Signal(core.Signal(`not json`)), ErrBadSignal)
	req.ErrorIs(c.Signal(core.Signal(`{"type":"rollback-ish"}`)), ErrBadSignal)
}

func TestWebRTCConnection_Send_Before_Open(t *testing.T) {
	initiator, _ := newConn(t, true)
	responder, _ := newConn(t, false)

	require.ErrorIs(t, initiator.Send([]byte(`{"message":"hi"}`)), ErrChannelNotOpen)
	require.ErrorIs(t, responder.Send([]byte(`{"message":"hi"}`)), ErrChannelNotOpen)
}

func TestWebRTCConnection_Destroy_Fires_Close_Once(t *testing.T) {
	req := require.New(t)
	c, _ := newConn(t, true)
	var closes atomic.Int32
	c.OnClose(func() { closes.Add(1) })

	c.Destroy()
	c.Destroy()

	req.Eventually(func() bool { return closes.Load() == 1 }, time.Second, 10*time.Millisecond)
	req.Never(func() bool { return closes.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	req.ErrorIs(c.Signal(core.Signal(`{"type":"offer","sdp":""}`)), ErrDestroyed)
}

func TestICEServers(t *testing.T) {
	req := require.New(t)

	req.Equal(DefaultWebRTCConfig().ICEServers, ICEServers(nil))

	got := ICEServers([]ICEServer{
		{URLs: []string{"stun:stun.example.org"}},
		{URLs: []string{"turn:turn.example.org"}, Username: "u", Credential: "p"},
	})
	req.Equal([]webrtc.ICEServer{
		{URLs: []string{"stun:stun.example.org"}},
		{URLs: []string{"turn:turn.example.org"}, Username: "u", Credential: "p"},
	}, got)
}

func TestFactory_NewPeer(t *testing.T) {
	req := require.New(t)

	p, err := Factory{}.NewPeer(core.PeerOptions{Config: webrtc.Configuration{}})

	req.NoError(err)
	req.NotNil(p)
	p.Destroy()
}

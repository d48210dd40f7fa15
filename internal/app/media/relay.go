package media

import (
	"context"
	"sync/atomic"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

type RelayState int32

const (
	RelayStateRunning RelayState = iota
	RelayStateStopped
)

type RelayStats struct {
	StreamID string `json:"stream_id"`
	Kind     string `json:"kind"`
	Packets  uint64 `json:"packets"`
	Bytes    uint64 `json:"bytes"`
	Running  bool   `json:"running"`
}

// Relay drains RTP packets from one remote stream.
type Relay struct {
	Src core.MediaStream

	state   atomic.Int32
	packets atomic.Uint64
	bytes   atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRelay(src core.MediaStream, cancel context.CancelFunc) *Relay {
	return &Relay{
		Src:    src,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// loop reads RTP packets from the source until ctx is done or the read fails.
func (r *Relay) loop(ctx context.Context, logger *zerolog.Logger) {
	defer close(r.done)
	defer r.state.Store(int32(RelayStateStopped))
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("relay ctx done")
			return
		default:
		}
		pkt, err := r.Src.ReadRTP()
		if err != nil {
			logger.Info().Err(err).Msg("relay read RTP stopped")
			return
		}
		r.account(pkt)
	}
}

func (r *Relay) account(pkt *rtp.Packet) {
	r.packets.Add(1)
	r.bytes.Add(uint64(len(pkt.Payload)))
}

func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Done is closed once the loop has returned.
func (r *Relay) Done() <-chan struct{} { return r.done }

func (r *Relay) State() RelayState { return RelayState(r.state.Load()) }

func (r *Relay) Stats() RelayStats {
	return RelayStats{
		StreamID: r.Src.ID(),
		Kind:     r.Src.Kind(),
		Packets:  r.packets.Load(),
		Bytes:    r.bytes.Load(),
		Running:  r.State() == RelayStateRunning,
	}
}

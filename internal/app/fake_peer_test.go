package app

import (
	"errors"
	"sync"

	"github.com/dkeye/peercalls/internal/core"
	"github.com/dkeye/peercalls/internal/domain"
	"github.com/pion/rtp"
)

// fakePeer records calls and lets tests fire transport events by hand.
type fakePeer struct {
	mu   sync.Mutex
	opts core.PeerOptions

	onError   func(error)
	onSignal  func(core.Signal)
	onConnect func()
	onStream  func(core.MediaStream)
	onData    func([]byte)
	onClose   func()

	started   int
	destroyed int
	signals   []core.Signal
	sent      [][]byte

	startErr       error
	sendErr        error
	sendPanic      bool
	closeOnDestroy bool
}

func (p *fakePeer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started++
	return p.startErr
}

func (p *fakePeer) Signal(s core.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, s)
	return nil
}

func (p *fakePeer) Send(data []byte) error {
	if p.sendPanic {
		panic("send on broken channel")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, data)
	return nil
}

func (p *fakePeer) Destroy() {
	p.mu.Lock()
	p.destroyed++
	closeNow := p.closeOnDestroy
	p.mu.Unlock()
	if closeNow {
		p.fireClose()
	}
}

func (p *fakePeer) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

func (p *fakePeer) OnSignal(fn func(core.Signal)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSignal = fn
}

func (p *fakePeer) OnConnect(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConnect = fn
}

func (p *fakePeer) OnStream(fn func(core.MediaStream)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStream = fn
}

func (p *fakePeer) OnData(fn func([]byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onData = fn
}

func (p *fakePeer) OnClose(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = fn
}

func (p *fakePeer) fireError(err error) {
	p.mu.Lock()
	fn := p.onError
	p.mu.Unlock()
	fn(err)
}

func (p *fakePeer) fireSignal(s core.Signal) {
	p.mu.Lock()
	fn := p.onSignal
	p.mu.Unlock()
	fn(s)
}

func (p *fakePeer) fireConnect() {
	p.mu.Lock()
	fn := p.onConnect
	p.mu.Unlock()
	fn()
}

func (p *fakePeer) fireStream(s core.MediaStream) {
	p.mu.Lock()
	fn := p.onStream
	p.mu.Unlock()
	fn(s)
}

func (p *fakePeer) fireData(data []byte) {
	p.mu.Lock()
	fn := p.onData
	p.mu.Unlock()
	fn(data)
}

func (p *fakePeer) fireClose() {
	p.mu.Lock()
	fn := p.onClose
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *fakePeer) destroyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

func (p *fakePeer) sentMessages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

type fakeFactory struct {
	mu             sync.Mutex
	peers          []*fakePeer
	err            error
	closeOnDestroy bool
	prepare        func(*fakePeer)
}

func (f *fakeFactory) NewPeer(opts core.PeerOptions) (core.Peer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := &fakePeer{opts: opts, closeOnDestroy: f.closeOnDestroy}
	if f.prepare != nil {
		f.prepare(p)
	}
	f.peers = append(f.peers, p)
	return p, nil
}

func (f *fakeFactory) created() []*fakePeer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakePeer(nil), f.peers...)
}

func (f *fakeFactory) last() *fakePeer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peers[len(f.peers)-1]
}

// recorder is a Dispatcher keeping every action in order.
type recorder struct {
	mu      sync.Mutex
	actions []core.Action
}

func (r *recorder) Dispatch(a core.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

func (r *recorder) notifications() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, a := range r.actions {
		if n, ok := a.(core.Notify); ok {
			out = append(out, n.Notification)
		}
	}
	return out
}

func (r *recorder) messages() []string {
	var out []string
	for _, n := range r.notifications() {
		out = append(out, n.Message)
	}
	return out
}

func (r *recorder) all() []core.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Action(nil), r.actions...)
}

type fakeStream struct {
	id   string
	kind string

	mu      sync.Mutex
	packets []*rtp.Packet
}

func (s *fakeStream) ID() string   { return s.id }
func (s *fakeStream) Kind() string { return s.kind }

func (s *fakeStream) ReadRTP() (*rtp.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.packets) == 0 {
		return nil, errors.New("EOF")
	}
	pkt := s.packets[0]
	s.packets = s.packets[1:]
	return pkt, nil
}

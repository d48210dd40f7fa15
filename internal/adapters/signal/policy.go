package signal

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	Disconnect
)

// Policy decides what happens to a frame that does not fit the send queue.
type Policy interface {
	OnBackpressure(typ string) BackpressureAction
}

// SimplePolicy drops keepalives and disconnects on any other frame.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(typ string) BackpressureAction {
	if typ == TypePong {
		return DropFrame
	}
	return Disconnect
}

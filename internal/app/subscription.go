package app

import "sync/atomic"

// SubscriptionKind tells the registry how often a peer event may be acted upon.
type SubscriptionKind int

const (
	FiresMany SubscriptionKind = iota
	FiresOnce
)

func (k SubscriptionKind) String() string {
	if k == FiresOnce {
		return "once"
	}
	return "many"
}

// subscribe wraps fn so that a FiresOnce reaction runs at most once,
// whatever the underlying transport does.
func subscribe[T any](kind SubscriptionKind, fn func(T)) func(T) {
	if kind == FiresMany {
		return fn
	}
	var fired atomic.Bool
	return func(v T) {
		if fired.CompareAndSwap(false, true) {
			fn(v)
		}
	}
}

func subscribeNoArg(kind SubscriptionKind, fn func()) func() {
	wrapped := subscribe(kind, func(struct{}) { fn() })
	return func() { wrapped(struct{}{}) }
}

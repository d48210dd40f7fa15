//go:generate go run go.uber.org/mock/mockgen -source=dispatch_iface.go -destination=../mocks/mock_dispatcher.go -package=mocks -exclude_interfaces=Action

package core

import "github.com/dkeye/peercalls/internal/domain"

// Action is a notification or a state update accepted by a Dispatcher.
type Action interface {
	action()
}

type Notify struct {
	domain.Notification
}

type StreamAdded struct {
	ParticipantID domain.ParticipantID
	Stream        MediaStream
}

type StreamRemoved struct {
	ParticipantID domain.ParticipantID
}

func (Notify) action()        {}
func (StreamAdded) action()   {}
func (StreamRemoved) action() {}

// Dispatcher is the application's central event and state consumer.
type Dispatcher interface {
	Dispatch(Action)
}

// Player starts media playback. Fire-and-forget.
type Player interface {
	Play()
}

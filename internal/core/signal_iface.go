//go:generate go run go.uber.org/mock/mockgen -source=signal_iface.go -destination=../mocks/mock_signal_channel.go -package=mocks

package core

import "github.com/dkeye/peercalls/internal/domain"

// SignalPayload carries negotiation data between the local side and one participant.
type SignalPayload struct {
	UserID domain.ParticipantID `json:"userId"`
	Signal Signal               `json:"signal"`
}

// SignalChannel abstracts the signaling transport.
// Owned by the adapter; the adapter must Close() it.
type SignalChannel interface {
	// ID is the identity the signaling server knows the local side by.
	ID() domain.ParticipantID
	EmitSignal(SignalPayload) error
	Close()
}

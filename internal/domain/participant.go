// Package domain contains entities without transport logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxParticipantIDLen = 64

var (
	ErrParticipantIDEmpty   = errors.New("participant id empty")
	ErrParticipantIDTooLong = errors.New("participant id too long")
)

// ParticipantID is the stable identity of a remote endpoint.
type ParticipantID string

// Participant describes a remote endpoint announced by the signaling server.
type Participant struct {
	ID ParticipantID `json:"id"`
}

// NewParticipantID generates an identity for the local side.
func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

func (p Participant) Validate() error {
	if len(p.ID) == 0 {
		return ErrParticipantIDEmpty
	}
	if len(p.ID) > MaxParticipantIDLen {
		return ErrParticipantIDTooLong
	}
	return nil
}

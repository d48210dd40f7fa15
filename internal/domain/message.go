package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrInvalidMessage = errors.New("invalid data message")

// DataMessage is the only payload exchanged over a peer data channel.
type DataMessage struct {
	Message string `json:"message"`
}

func EncodeMessage(text string) ([]byte, error) {
	return json.Marshal(DataMessage{Message: text})
}

func DecodeMessage(data []byte) (DataMessage, error) {
	var m DataMessage
	if !utf8.Valid(data) {
		return m, fmt.Errorf("%w: not utf-8", ErrInvalidMessage)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return m, nil
}

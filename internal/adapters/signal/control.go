package signal

import "github.com/rs/zerolog/log"

func (c *Client) handlePing() {
	if err := c.emit(TypePong, nil); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("pong")
	}
}

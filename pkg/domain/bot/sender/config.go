package sender

import "time"

// ProcessorConfig describes where confirmed bookings are announced.
type ProcessorConfig struct {
	ChannelID string // @username or numeric chat id
	Attempts  int
	Backoff   time.Duration // doubled after every failed attempt
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	return c
}

package config

import "time"

type RateLimitConfig struct {
	Enabled        bool          `env:"ENABLED"         envDefault:"true"`
	Capacity       int           `env:"CAPACITY"        envDefault:"60"`
	RefillTokens   int           `env:"REFILL_TOKENS"   envDefault:"1"`
	RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"1s"`
	TTL            time.Duration `env:"TTL"             envDefault:"10m"`
	KeyStrategy    string        `env:"KEY_STRATEGY"    envDefault:"ip_user_route"`
	Prefix         string        `env:"PREFIX"          envDefault:"rl"`
	Debug          bool          `env:"DEBUG"           envDefault:"false"`
	// Burst and RefillEvery are shorthands that override Capacity and
	// RefillTokens/RefillInterval when set.
	Burst       int           `env:"BURST"`
	RefillEvery time.Duration `env:"REFILL_EVERY"`
}

func (c *RateLimitConfig) normalize() {
	if c.Burst > 0 {
		c.Capacity = c.Burst
	}
	if c.RefillEvery > 0 {
		c.RefillTokens = 1
		c.RefillInterval = c.RefillEvery
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	minTTL := 5 * c.RefillInterval
	if c.TTL < minTTL {
		c.TTL = minTTL
	}
}

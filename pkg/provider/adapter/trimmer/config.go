package trimmer

type Config struct {
	tokenThreshold int
	keepTurns      int
	charsPerToken  int
}

type Option func(*Config)

// WithTokenThreshold sets the estimated history size above which old turns
// are trimmed.
func WithTokenThreshold(threshold int) Option {
	return func(c *Config) {
		if threshold > 0 {
			c.tokenThreshold = threshold
		}
	}
}

// WithKeepTurns sets how many recent turns keep their tool results.
func WithKeepTurns(turns int) Option {
	return func(c *Config) {
		if turns > 0 {
			c.keepTurns = turns
		}
	}
}

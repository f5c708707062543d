package search

type Option func(*Client)

func WithLimit(val int) Option {
	return func(c *Client) {
		c.limit = val
	}
}

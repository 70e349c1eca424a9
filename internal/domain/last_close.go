package domain

// LastCloseCache holds the most recent close seen per symbol. It is owned by
// a single poll loop and is not safe for concurrent use.
type LastCloseCache struct {
	closes map[string]float64
}

func NewLastCloseCache() *LastCloseCache {
	return &LastCloseCache{closes: make(map[string]float64)}
}

func (c *LastCloseCache) Get(symbol string) (float64, bool) {
	v, ok := c.closes[symbol]
	return v, ok
}

func (c *LastCloseCache) Set(symbol string, price float64) {
	c.closes[symbol] = price
}

func (c *LastCloseCache) Len() int { return len(c.closes) }

// Snapshot returns a copy of the cache contents.
func (c *LastCloseCache) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(c.closes))
	for k, v := range c.closes {
		out[k] = v
	}
	return out
}

package handler

import "github.com/coocood/freecache"

// verifiedTTL bounds how long a positive verify result is trusted, in seconds.
const verifiedTTL = 60

// VerifyCache remembers chain roots that have already verified clean. An
// append-only chain with a known-good root stays good until the root moves.
type VerifyCache interface {
	Verified(root string) bool
	MarkVerified(root string)
}

type freeVerifyCache struct {
	cache *freecache.Cache
}

// NewVerifyCache returns a freecache-backed VerifyCache of sizeMB megabytes,
// or a no-op cache when sizeMB is not positive.
func NewVerifyCache(sizeMB int) VerifyCache {
	if sizeMB <= 0 {
		return noopVerifyCache{}
	}
	return &freeVerifyCache{cache: freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (c *freeVerifyCache) Verified(root string) bool {
	_, err := c.cache.Get([]byte(root))
	return err == nil
}

func (c *freeVerifyCache) MarkVerified(root string) {
	_ = c.cache.Set([]byte(root), []byte{1}, verifiedTTL)
}

type noopVerifyCache struct{}

func (noopVerifyCache) Verified(string) bool { return false }
func (noopVerifyCache) MarkVerified(string)  {}

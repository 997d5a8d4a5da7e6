package minter

import "sync"

// NonceCache holds the last nonce known to have been consumed by a confirmed
// transaction from the signing account. It exists so that back-to-back mints
// triggered within a single poll firing do not race a chain query for the
// account's transaction count.
//
// There is deliberately no rollback operation: a failed send never consumes a
// nonce, so the cache is simply left untouched on failure.
type NonceCache struct {
	mu     sync.Mutex
	nonce  uint64
	cached bool
}

// NewNonceCache returns an empty cache. Until the first Advance, PeekNext
// reports that the nonce must be fetched from the chain.
func NewNonceCache() *NonceCache {
	return &NonceCache{}
}

// PeekNext returns the next nonce to use and true when a confirmed nonce is
// cached. When it returns false the caller must query the chain for the
// account's current transaction count.
func (c *NonceCache) PeekNext() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cached {
		return 0, false
	}
	return c.nonce + 1, true
}

// Advance records the nonce consumed by a confirmed transaction,
// unconditionally overwriting any previous value.
func (c *NonceCache) Advance(confirmed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nonce = confirmed
	c.cached = true
}

package approval

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/actiongate/internal/model"
)

// DefaultHashTTL is how long a computed action hash is reused.
const DefaultHashTTL = 10 * time.Minute

// ActionHash returns a 16-hex digest of kind, target, current URL and a
// content hash of ctx. Identical inputs always give the same hash.
func ActionHash(kind model.ActionKind, target string, ctx model.Context) string {
	url := ctx.String(model.KeyCurrentURL)
	sum := md5.Sum(canonicalJSON(ctx))
	data := fmt.Sprintf("%s:%s:%s:%s", kind, target, url, hex.EncodeToString(sum[:])[:8])
	h := md5.Sum([]byte(data))
	return hex.EncodeToString(h[:])[:16]
}

// canonicalJSON encodes ctx with sorted keys. Values that do not encode are
// replaced by their printed form.
func canonicalJSON(ctx model.Context) []byte {
	if data, err := json.Marshal(ctx); err == nil {
		return data
	}
	printable := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if _, err := json.Marshal(v); err != nil {
			printable[k] = fmt.Sprint(v)
			continue
		}
		printable[k] = v
	}
	data, _ := json.Marshal(printable)
	return data
}

type cachedHash struct {
	hash    string
	created time.Time
}

// HashCache memoizes ActionHash per (kind, target, current URL) for a TTL.
// Within the TTL the first computed hash is returned even if other context
// keys changed. Expired entries are swept on every access.
type HashCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedHash
}

// NewHashCache creates a cache. ttl <= 0 uses DefaultHashTTL.
func NewHashCache(ttl time.Duration) *HashCache {
	if ttl <= 0 {
		ttl = DefaultHashTTL
	}
	return &HashCache{ttl: ttl, now: time.Now, entries: make(map[string]cachedHash)}
}

// Hash returns the cached hash for the action, computing it when absent or expired.
func (c *HashCache) Hash(kind model.ActionKind, target string, ctx model.Context) string {
	key := fmt.Sprintf("%s:%s:%s", kind, target, ctx.String(model.KeyCurrentURL))

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)
	if e, ok := c.entries[key]; ok {
		return e.hash
	}
	h := ActionHash(kind, target, ctx)
	c.entries[key] = cachedHash{hash: h, created: now}
	return h
}

// Len returns the number of live entries.
func (c *HashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(c.now())
	return len(c.entries)
}

func (c *HashCache) sweep(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.created) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

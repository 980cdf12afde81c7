package approval

import (
	"testing"
	"time"

	"github.com/ppiankov/actiongate/internal/model"
)

func TestActionHashDeterministic(t *testing.T) {
	ctx := model.Context{model.KeyCurrentURL: "https://a.example", "b": 1, "a": true}
	h1 := ActionHash(model.KindClick, "Buy", ctx)
	h2 := ActionHash(model.KindClick, "Buy", model.Context{"a": true, "b": 1, model.KeyCurrentURL: "https://a.example"})
	if h1 != h2 {
		t.Error("hash must not depend on map order")
	}
	if len(h1) != 16 {
		t.Errorf("expected 16 hex chars, got %q", h1)
	}

	for name, other := range map[string]string{
		"kind":    ActionHash(model.KindPayment, "Buy", ctx),
		"target":  ActionHash(model.KindClick, "Sell", ctx),
		"context": ActionHash(model.KindClick, "Buy", model.Context{model.KeyCurrentURL: "https://a.example"}),
		"url":     ActionHash(model.KindClick, "Buy", model.Context{model.KeyCurrentURL: "https://b.example", "b": 1, "a": true}),
	} {
		if other == h1 {
			t.Errorf("changing %s must change the hash", name)
		}
	}
}

func TestActionHashUnencodableContext(t *testing.T) {
	ctx := model.Context{"ch": make(chan int)}
	if h := ActionHash(model.KindClick, "x", ctx); len(h) != 16 {
		t.Errorf("expected a hash for unencodable context, got %q", h)
	}
}

func TestHashCacheTTL(t *testing.T) {
	c := NewHashCache(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	first := c.Hash(model.KindClick, "Buy", model.Context{"n": 1})
	// Same (kind, target, url) within the TTL reuses the first hash.
	if got := c.Hash(model.KindClick, "Buy", model.Context{"n": 2}); got != first {
		t.Error("expected cached hash within TTL")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	now = now.Add(2 * time.Minute)
	if c.Len() != 0 {
		t.Error("expired entries must be swept")
	}
	if got := c.Hash(model.KindClick, "Buy", model.Context{"n": 2}); got == first {
		t.Error("expected fresh hash after TTL")
	}
}

func TestHashCacheDefaultTTL(t *testing.T) {
	if c := NewHashCache(0); c.ttl != DefaultHashTTL {
		t.Errorf("expected default TTL, got %v", c.ttl)
	}
}

func TestMemo(t *testing.T) {
	m := NewMemo()
	if m.Approved("x") {
		t.Error("empty memo approves nothing")
	}
	m.Approve("x")
	m.Approve("x")
	if !m.Approved("x") || m.Len() != 1 {
		t.Errorf("unexpected memo state len=%d", m.Len())
	}
}

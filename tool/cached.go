package tool

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/internal/cache"
)

// CachedToolOptions configure a CachedTool.
type CachedToolOptions struct {
	TTL time.Duration
	// OnLookup observes every cache lookup.
	OnLookup func(tool string, hit bool)
}

// CachedTool memoizes successful results of another Tool keyed by tool name
// and arguments. Store failures never fail the call; they only skip caching.
type CachedTool struct {
	Tool
	store cache.Store
	opts  CachedToolOptions
}

// NewCachedTool wraps t with a result cache stored in store.
func NewCachedTool(t Tool, store cache.Store, optFns ...func(o *CachedToolOptions)) *CachedTool {
	opts := CachedToolOptions{TTL: time.Hour}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &CachedTool{Tool: t, store: store, opts: opts}
}

// Call returns a cached payload when present, otherwise delegates and caches.
func (c *CachedTool) Call(toolCtx *core.ToolContext, args map[string]any) (core.Payload, error) {
	ctx := toolCtx.Context()

	key, err := cacheKey(c.Name(), args)
	if err != nil {
		return c.Tool.Call(toolCtx, args)
	}

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		toolCtx.LogWarn("tool.cache.get_failed", "error", err.Error())
	} else if ok {
		if p, err := core.UnmarshalPayload(data); err == nil {
			c.observe(true)
			toolCtx.LogDebug("tool.cache.hit")
			return p, nil
		}
	}

	c.observe(false)

	result, err := c.Tool.Call(toolCtx, args)
	if err != nil {
		return nil, err
	}

	if data, err := core.MarshalPayload(result); err == nil {
		if err := c.store.Set(ctx, key, data, c.opts.TTL); err != nil {
			toolCtx.LogWarn("tool.cache.set_failed", "error", err.Error())
		}
	}

	return result, nil
}

func (c *CachedTool) observe(hit bool) {
	if c.opts.OnLookup != nil {
		c.opts.OnLookup(c.Name(), hit)
	}
}

// cacheKey hashes the arguments; encoding/json sorts map keys.
func cacheKey(name string, args map[string]any) (string, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "tool:" + name + ":" + hex.EncodeToString(sum[:]), nil
}

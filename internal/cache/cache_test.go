package cache

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("f"), 0))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok, "entry should expire")

	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_SweepsExpiredOnSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "forever", []byte("f"), 0))
	for i := 0; i < minSweepSize-2; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("q%d", i), []byte("v"), time.Minute))
	}
	assert.Equal(t, minSweepSize-1, s.Len())

	// one-off keys are never read again; the next Set reaching the threshold drops them
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Set(ctx, "fresh", []byte("v"), time.Minute))

	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.Get(ctx, "forever")
	assert.True(t, ok)
	_, ok, _ = s.Get(ctx, "fresh")
	assert.True(t, ok)
}

// fakeRedis answers GET/SET in a hook so no server is needed.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (f *fakeRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := f.data[args[1].(string)]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			key := args[1].(string)
			switch v := args[2].(type) {
			case []byte:
				f.data[key] = string(v)
			case string:
				f.data[key] = v
			}
			if len(args) >= 5 {
				if px, ok := args[4].(int64); ok {
					f.ttl[key] = time.Duration(px) * time.Millisecond
				}
			}
			c.SetVal("OK")
		}
		return nil
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	fake := &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(fake)
	defer client.Close()

	s := NewRedisStoreFromClient(client, "")

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tool:encyclopedia:abc", []byte(`{"kind":"text"}`), 30*time.Second))

	fake.mu.Lock()
	assert.Equal(t, `{"kind":"text"}`, fake.data["tutormesh:tool:encyclopedia:abc"])
	fake.mu.Unlock()

	v, ok, err := s.Get(ctx, "tool:encyclopedia:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"kind":"text"}`, string(v))
}

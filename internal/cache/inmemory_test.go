package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig())

	c.Set(ctx, "progress:v1:a", 42, time.Minute)
	v, ok := c.Get(ctx, "progress:v1:a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get(ctx, "progress:v1:missing")
	assert.False(t, ok)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(nil)

	c.Set(ctx, "progress:v1:a", "x", 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get(ctx, "progress:v1:a")
	assert.False(t, ok)
	assert.Empty(t, c.GetByPrefix(ctx, PrefixProgress))
}

func TestInMemoryCache_GetByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(nil)

	c.Set(ctx, GenerateKey(PrefixProgress, "1"), 1, time.Minute)
	c.Set(ctx, GenerateKey(PrefixProgress, "2"), 2, time.Minute)
	c.Set(ctx, "other:3", 3, time.Minute)

	records := c.GetByPrefix(ctx, PrefixProgress)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, records["progress:v1:1"])

	c.Delete(ctx, "progress:v1:1")
	assert.Len(t, c.GetByPrefix(ctx, PrefixProgress), 1)

	c.Flush(ctx)
	assert.Empty(t, c.GetByPrefix(ctx, ""))
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "progress:v1:abc", GenerateKey(PrefixProgress, "abc"))
	assert.Equal(t, "progress:v1:a:2", GenerateKey(PrefixProgress, "a", 2))
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	c.Set("kpis", map[string]int{"risk": 3}, time.Minute)

	var val map[string]int
	ok := c.Get("kpis", &val)
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"risk": 3}, val)
}

func TestMemoryCache_GetMismatchedType(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	c.Set("count", 3, time.Minute)

	var val string
	assert.False(t, c.Get("count", &val))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	c.Set("short", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	var val string
	assert.False(t, c.Get("short", &val))
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	var val string
	assert.False(t, c.Get("nope", &val))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	var val int
	c.Delete("a")
	assert.False(t, c.Get("a", &val))

	c.Clear()
	assert.False(t, c.Get("b", &val))
}

func TestMemoryCache_Sweep(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	defer c.Close()

	c.Set("gone", "v", 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	var val string
	assert.False(t, c.Get("gone", &val))
}

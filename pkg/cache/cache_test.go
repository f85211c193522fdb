package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGet(t *testing.T) {
	c := New(time.Minute, 0, 0)

	c.Set("k", []float64{1, 2, 3})
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute, 0, 0)

	c.SetWithExpiration("short", "v", 10*time.Millisecond)
	_, ok := c.Get("short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
}

func TestZeroExpirationNeverExpires(t *testing.T) {
	c := New(0, 0, 0)

	c.Set("forever", 1)
	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get("forever")
	assert.True(t, ok)
}

func TestMaxItemsEvicts(t *testing.T) {
	c := New(time.Minute, 0, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok, "newest item survives eviction")
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(time.Minute, 0, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	assert.Equal(t, 2, c.Len())
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestDelete(t *testing.T) {
	c := New(time.Minute, 0, 0)

	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute, 2)
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	now = now.Add(10 * time.Second)
	c.Set("b", "2")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	c.Set("c", "3")
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok, "entry closest to expiry is evicted")

	c.Set("b", "2b")
	assert.Equal(t, 2, c.Len())

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

package memory

import (
	"testing"
	"time"

	"ai-thumbnail-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestAlgorithmCache_SaveGetFlush(t *testing.T) {
	c := NewAlgorithmCache(time.Minute)

	_, found := c.Get("basic")
	assert.False(t, found)

	c.Save(&entity.Algorithm{Id: "basic", CostCredits: 1})
	got, found := c.Get("basic")
	assert.True(t, found)
	assert.Equal(t, 1, got.CostCredits)

	c.Flush()
	_, found = c.Get("basic")
	assert.False(t, found)
}

func TestAlgorithmCache_Expires(t *testing.T) {
	c := NewAlgorithmCache(20 * time.Millisecond)
	c.Save(&entity.Algorithm{Id: "pro"})

	time.Sleep(40 * time.Millisecond)

	_, found := c.Get("pro")
	assert.False(t, found)
}

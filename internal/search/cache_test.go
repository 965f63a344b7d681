package search

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/icdlookup/internal/models"
)

func response(code string) *models.SearchResponse {
	return &models.SearchResponse{
		Query:   code,
		Results: []*models.SearchResult{{Code: code, MatchType: models.MatchKeyword}},
		Total:   1,
	}
}

func TestResultCache_Eviction(t *testing.T) {
	c := NewResultCache(2)
	c.Set("a", response("A00"))
	c.Set("b", response("B00"))

	// Touch a so b becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", response("C00"))

	_, ok = c.Get("b")
	assert.False(t, ok)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A00", got.Results[0].Code)
	assert.Equal(t, 2, c.Len())
}

func TestResultCache_UpdateExisting(t *testing.T) {
	c := NewResultCache(2)
	c.Set("a", response("A00"))
	c.Set("a", response("A01"))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A01", got.Results[0].Code)
	assert.Equal(t, 1, c.Len())
}

func TestResultCache_ReturnsCopies(t *testing.T) {
	c := NewResultCache(1)
	in := response("A00")
	c.Set("a", in)
	in.Results[0].Code = "changed"

	got, _ := c.Get("a")
	got.Results[0].Code = "changed again"

	again, _ := c.Get("a")
	assert.Equal(t, "A00", again.Results[0].Code)
}

func TestResultCache_Disabled(t *testing.T) {
	c := NewResultCache(0)
	assert.Nil(t, c)
	c.Set("a", response("A00"))
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestResultCache_Concurrent(t *testing.T) {
	c := NewResultCache(8)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := strconv.Itoa(i % 10)
			c.Set(key, response(key))
			c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 8)
}

package tempo

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramCache(t *testing.T) {
	cache := NewProgramCacheWithSize(2)

	p1 := cache.Compile("<b>{{a}}</b>")
	assert.Same(t, p1, cache.Compile("<b>{{a}}</b>"), "second compile is served from the cache")
	assert.Equal(t, CacheStats{Size: 1, Hits: 1, Misses: 1}, cache.Stats())

	p2 := cache.Compile("<i>{{b}}</i>")
	cache.Compile("<b>{{a}}</b>") // a becomes most recently used
	cache.Compile("<u>{{c}}</u>") // evicts b

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("<i>{{b}}</i>")
	assert.False(t, ok)
	got, ok := cache.Get("<b>{{a}}</b>")
	require.True(t, ok)
	assert.Same(t, p1, got)
	assert.NotSame(t, p2, cache.Compile("<i>{{b}}</i>"))
}

func TestProgramCacheSetRemoveClear(t *testing.T) {
	cache := NewProgramCacheWithSize(3)
	prog := Compile("x")

	cache.Set("x", prog)
	cache.Set("x", Compile("x"))
	assert.Equal(t, 1, cache.Size())

	cache.Remove("x")
	cache.Remove("never added")
	assert.Equal(t, 0, cache.Size())

	cache.Set("y", prog)
	cache.Get("y")
	cache.Clear()
	assert.Equal(t, CacheStats{}, cache.Stats())
}

func TestProgramCacheDisabled(t *testing.T) {
	cache := NewProgramCacheWithSize(0)
	p1 := cache.Compile("{{a}}")
	p2 := cache.Compile("{{a}}")
	assert.NotSame(t, p1, p2)
	assert.Equal(t, 0, cache.Size())

	var nilCache *ProgramCache
	assert.NotNil(t, nilCache.Compile("{{a}}"))
}

func TestProgramCacheConcurrent(t *testing.T) {
	cache := NewProgramCacheWithSize(8)
	ctx := NewSubstitutionContext()
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			source := fmt.Sprintf("<p>{{n}}-%d</p>", i%4)
			prog := cache.Compile(source)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, fmt.Sprintf("<p>%d-%d</p>", i, i%4), prog.Execute(ctx, Data{"n": i}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, cache.Size())
}

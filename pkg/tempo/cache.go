package tempo

import (
	"container/list"
	"sync"
)

// ProgramCache caches compiled programs keyed by their source text, evicting the least
// recently used entry once MaxSize is reached.
type ProgramCache struct {
	mu      sync.Mutex
	cache   map[string]*cacheEntry
	lru     *list.List
	maxSize int

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key     string
	program *Program
	element *list.Element
}

// CacheStats reports cache usage.
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// NewProgramCache creates a cache sized from the global configuration
func NewProgramCache() *ProgramCache {
	return NewProgramCacheWithSize(GetGlobalConfig().CacheMaxSize)
}

// NewProgramCacheWithSize creates a cache holding at most maxSize programs. 0 disables caching.
func NewProgramCacheWithSize(maxSize int) *ProgramCache {
	return &ProgramCache{
		cache:   make(map[string]*cacheEntry),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Compile returns the cached program for source, compiling and storing it on a miss.
func (pc *ProgramCache) Compile(source string) *Program {
	if pc == nil || pc.maxSize <= 0 {
		return Compile(source)
	}

	if prog, ok := pc.Get(source); ok {
		return prog
	}

	prog := Compile(source)
	pc.Set(source, prog)
	return prog
}

// Get retrieves a program without compiling
func (pc *ProgramCache) Get(source string) (*Program, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.cache[source]
	if !exists {
		pc.misses++
		return nil, false
	}
	pc.hits++
	pc.lru.MoveToFront(entry.element)
	return entry.program, true
}

// Set adds a program to the cache
func (pc *ProgramCache) Set(source string, program *Program) {
	if pc.maxSize <= 0 {
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if existing, exists := pc.cache[source]; exists {
		existing.program = program
		pc.lru.MoveToFront(existing.element)
		return
	}

	if pc.lru.Len() >= pc.maxSize {
		if oldest := pc.lru.Back(); oldest != nil {
			oldEntry := oldest.Value.(*cacheEntry)
			delete(pc.cache, oldEntry.key)
			pc.lru.Remove(oldest)
		}
	}

	entry := &cacheEntry{key: source, program: program}
	entry.element = pc.lru.PushFront(entry)
	pc.cache[source] = entry
}

// Remove drops a program from the cache
func (pc *ProgramCache) Remove(source string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.cache[source]
	if !exists {
		return
	}
	delete(pc.cache, source)
	pc.lru.Remove(entry.element)
}

// Clear removes all programs from the cache
func (pc *ProgramCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache = make(map[string]*cacheEntry)
	pc.lru = list.New()
	pc.hits, pc.misses = 0, 0
}

// Size returns the current number of cached programs
func (pc *ProgramCache) Size() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.cache)
}

// Stats returns a snapshot of the cache counters
func (pc *ProgramCache) Stats() CacheStats {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return CacheStats{Size: len(pc.cache), Hits: pc.hits, Misses: pc.misses}
}

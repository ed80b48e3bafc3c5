package state

import (
	"sort"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// VisitedSet records URLs a scan has already admitted. The bloom filter
// answers most misses without touching the map; the map settles hits.
type VisitedSet struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewVisitedSet sizes the filter for roughly estimatedItems URLs.
func NewVisitedSet(estimatedItems int) *VisitedSet {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}
	return &VisitedSet{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// AddIfAbsent inserts url and reports whether it was new. Check and insert
// happen under one lock, so concurrent callers never both win.
func (v *VisitedSet) AddIfAbsent(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.filter.TestString(url) {
		if _, ok := v.exact[url]; ok {
			return false
		}
	}
	v.filter.AddString(url)
	v.exact[url] = struct{}{}
	return true
}

// Contains reports whether url was added.
func (v *VisitedSet) Contains(url string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.filter.TestString(url) {
		return false
	}
	_, ok := v.exact[url]
	return ok
}

// Count returns the number of distinct URLs.
func (v *VisitedSet) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.exact)
}

// URLs returns the recorded URLs in lexical order.
func (v *VisitedSet) URLs() []string {
	v.mu.RLock()
	urls := make([]string, 0, len(v.exact))
	for u := range v.exact {
		urls = append(urls, u)
	}
	v.mu.RUnlock()

	sort.Strings(urls)
	return urls
}

package queue

import (
	"container/heap"
	"errors"
	"sync"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
	ErrQueueFull   = errors.New("queue at capacity")
)

type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(*Item))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// MemoryQueue is a thread-safe in-memory frontier. A URL is held at most once
// while queued.
type MemoryQueue struct {
	mu       sync.Mutex
	h        itemHeap
	queued   map[string]struct{}
	nextSeq  uint64
	capacity int
	closed   bool
}

// NewMemoryQueue creates a queue; capacity <= 0 means unbounded.
func NewMemoryQueue(capacity int) *MemoryQueue {
	mq := &MemoryQueue{
		queued:   make(map[string]struct{}),
		capacity: capacity,
	}
	heap.Init(&mq.h)
	return mq
}

// Push queues item. Duplicates of a queued URL are dropped silently.
func (mq *MemoryQueue) Push(item *Item) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return ErrQueueClosed
	}
	if _, ok := mq.queued[item.URL]; ok {
		return nil
	}
	if mq.capacity > 0 && len(mq.h) >= mq.capacity {
		return ErrQueueFull
	}

	item.seq = mq.nextSeq
	mq.nextSeq++
	mq.queued[item.URL] = struct{}{}
	heap.Push(&mq.h, item)
	return nil
}

// PopLevel removes all items at the smallest queued depth, in push order.
func (mq *MemoryQueue) PopLevel() ([]*Item, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil, ErrQueueClosed
	}
	if len(mq.h) == 0 {
		return nil, ErrQueueEmpty
	}

	depth := mq.h[0].Depth
	var level []*Item
	for len(mq.h) > 0 && mq.h[0].Depth == depth {
		level = append(level, mq.popLocked())
	}
	return level, nil
}

func (mq *MemoryQueue) popLocked() *Item {
	item := heap.Pop(&mq.h).(*Item)
	delete(mq.queued, item.URL)
	return item
}

// Len returns the number of queued items.
func (mq *MemoryQueue) Len() int {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.h)
}

// Close rejects further operations.
func (mq *MemoryQueue) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.closed = true
	return nil
}

// Package queue provides the crawl frontier: items come out by ascending
// depth and, within a depth, in the order they were pushed.
package queue

// Item is one URL waiting to be fetched.
type Item struct {
	URL       string
	Depth     int
	ParentURL string

	seq uint64 // insertion order, breaks ties within a depth
}

// Package queue provides bounded top-K selection for query results.
package queue

import "slices"

// Item is a scored document.
type Item struct {
	ID    uint32
	Score float64
}

// Better reports whether a ranks before b: higher score first, then lower id.
func Better(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// TopK keeps the k best items pushed into it.
// Internally a heap whose root is the worst retained item, so a candidate is
// compared against a single element before being admitted.
type TopK struct {
	k     int
	items []Item
}

// NewTopK creates a selector retaining at most k items.
func NewTopK(k int) *TopK {
	capacity := k
	if capacity > 1024 {
		capacity = 1024
	}
	return &TopK{
		k:     k,
		items: make([]Item, 0, capacity),
	}
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// Full reports whether k items are retained.
func (q *TopK) Full() bool { return len(q.items) >= q.k }

// Worst returns the lowest-ranked retained item.
func (q *TopK) Worst() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Push offers an item; it is kept if fewer than k items are retained or it
// ranks better than the current worst.
func (q *TopK) Push(it Item) {
	if q.k <= 0 {
		return
	}
	if len(q.items) < q.k {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return
	}
	if Better(it, q.items[0]) {
		q.items[0] = it
		q.siftDown(0)
	}
}

// Sorted returns the retained items best first and resets the selector.
func (q *TopK) Sorted() []Item {
	out := q.items
	q.items = nil
	slices.SortFunc(out, func(a, b Item) int {
		switch {
		case Better(a, b):
			return -1
		case Better(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// less orders the heap so the worst item is at the root.
func (q *TopK) less(i, j int) bool {
	return Better(q.items[j], q.items[i])
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}

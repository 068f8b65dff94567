package repo

import "github.com/gritvc/grit/pkg/object"

type walkItem struct {
	hash   object.Hash
	commit *object.CommitObj
}

// walkMaxHeap orders the traversal frontier so the next-emitted commit is
// always the most recent unvisited one; ties break on the hash to keep the
// order total.
type walkMaxHeap []walkItem

func (h walkMaxHeap) Len() int { return len(h) }

func (h walkMaxHeap) Less(i, j int) bool {
	if h[i].commit.CommitTime == h[j].commit.CommitTime {
		return h[i].hash < h[j].hash
	}
	return h[i].commit.CommitTime > h[j].commit.CommitTime
}

func (h walkMaxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *walkMaxHeap) Push(x any) {
	*h = append(*h, x.(walkItem))
}

func (h *walkMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

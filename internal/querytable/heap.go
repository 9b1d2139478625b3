package querytable

// deadlineHeap is a container/heap.Interface over *Query ordered by
// DeadlineAt, giving O(1) NextDeadline (peek) and O(log n) push/pop/fix.
type deadlineHeap []*Query

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool { return h[i].DeadlineAt < h[j].DeadlineAt }

func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *deadlineHeap) Push(x any) {
	q := x.(*Query)
	q.heapIndex = len(*h)
	*h = append(*h, q)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	q := old[n-1]
	old[n-1] = nil
	q.heapIndex = -1
	*h = old[:n-1]
	return q
}

package simtime

import "container/heap"

// queue is a min-heap of Events ordered by Event.Less, giving O(log n)
// push/pop and FIFO dispatch among equal timestamps.
type queue []Event

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool { return q[i].Less(q[j]) }

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) {
	*q = append(*q, x.(Event))
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}

var _ heap.Interface = (*queue)(nil)

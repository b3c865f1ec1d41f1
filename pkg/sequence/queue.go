package sequence

import "container/heap"

type pqItem[T any] struct {
	value    T
	priority int
}

type pqHeap[T any] []pqItem[T]

func (h pqHeap[T]) Len() int           { return len(h) }
func (h pqHeap[T]) Less(i, j int) bool { return h[i].priority > h[j].priority }
func (h pqHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *pqHeap[T]) Push(x any) { *h = append(*h, x.(pqItem[T])) }

func (h *pqHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// PriorityQueue pops the highest-priority value first. Equal priorities
// come out in heap order, not insertion order.
type PriorityQueue[T any] struct {
	h pqHeap[T]
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

func (q *PriorityQueue[T]) Enqueue(value T, priority int) {
	heap.Push(&q.h, pqItem[T]{value: value, priority: priority})
}

func (q *PriorityQueue[T]) Dequeue() (T, bool) {
	if len(q.h) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.h).(pqItem[T]).value, true
}

func (q *PriorityQueue[T]) Peek() (T, bool) {
	if len(q.h) == 0 {
		var zero T
		return zero, false
	}
	return q.h[0].value, true
}

func (q *PriorityQueue[T]) Len() int      { return len(q.h) }
func (q *PriorityQueue[T]) IsEmpty() bool { return len(q.h) == 0 }

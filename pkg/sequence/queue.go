package sequence

import "container/heap"

// PriorityQueue pops the lowest priority first. Equal priorities pop in
// insertion order.
type PriorityQueue[T any] struct {
	pq  priorityQueue[T]
	seq uint64
}

type priorityItem[T any] struct {
	value    T
	priority float64
	seq      uint64
}

type priorityQueue[T any] []priorityItem[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

func (pq priorityQueue[T]) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue[T]) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue[T]) Push(x any) { *pq = append(*pq, x.(priorityItem[T])) }

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = priorityItem[T]{}
	*pq = old[:n-1]
	return item
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

func (q *PriorityQueue[T]) Enqueue(value T, priority float64) {
	q.seq++
	heap.Push(&q.pq, priorityItem[T]{value: value, priority: priority, seq: q.seq})
}

func (q *PriorityQueue[T]) Dequeue() (T, bool) {
	if q.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.pq).(priorityItem[T]).value, true
}

func (q *PriorityQueue[T]) Peek() (T, bool) {
	if q.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.pq[0].value, true
}

func (q *PriorityQueue[T]) Len() int { return q.pq.Len() }

func (q *PriorityQueue[T]) IsEmpty() bool { return q.pq.Len() == 0 }

package server

import (
	"sync"

	"github.com/taskfleet/taskfleet/scheduler/domain"
)

// TaskQueue is the holding area for tasks awaiting assignment: one FIFO
// sequence per priority tier. A single lock guards all three tiers so that
// enqueue/dequeue/remove/size are atomic as a group, not just per tier --
// a concurrent dequeue and size check must never disagree.
type TaskQueue struct {
	mu     sync.Mutex
	high   []*domain.Task
	medium []*domain.Task
	low    []*domain.Task
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Enqueue appends the task to the sequence matching its priority tier.
func (q *TaskQueue) Enqueue(t *domain.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tier := q.tierFor(t.Priority())
	*tier = append(*tier, t)
}

// Dequeue removes and returns the task at the front of the highest non-empty
// tier, checking HIGH, then MEDIUM, then LOW. Within a tier, first enqueued is
// first dequeued; that FIFO order is the sole fairness guarantee. Returns
// false if all tiers are empty.
func (q *TaskQueue) Dequeue() (*domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, tier := range []*[]*domain.Task{&q.high, &q.medium, &q.low} {
		if len(*tier) == 0 {
			continue
		}
		t := (*tier)[0]
		*tier = (*tier)[1:]
		return t, true
	}
	return nil, false
}

// Remove takes a specific task out of its tier, reporting whether it was
// present. Absence is not an error; cancellation calls this without knowing
// if the task is still queued.
func (q *TaskQueue) Remove(t *domain.Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	tier := q.tierFor(t.Priority())
	for i, queued := range *tier {
		if queued.ID() == t.ID() {
			*tier = append((*tier)[:i], (*tier)[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the number of queued tasks across all tiers as one consistent
// snapshot.
func (q *TaskQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.medium) + len(q.low)
}

// IsEmpty reports whether no task is queued in any tier.
func (q *TaskQueue) IsEmpty() bool {
	return q.Size() == 0
}

// Clear drops every queued task.
func (q *TaskQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.high, q.medium, q.low = nil, nil, nil
}

func (q *TaskQueue) tierFor(p domain.Priority) *[]*domain.Task {
	switch p {
	case domain.HighPriority:
		return &q.high
	case domain.LowPriority:
		return &q.low
	default:
		return &q.medium
	}
}

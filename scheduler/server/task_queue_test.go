package server

import (
	"fmt"
	"testing"

	"github.com/taskfleet/taskfleet/scheduler/domain"
)

func makeTask(t *testing.T, id string, priority domain.Priority) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(id, 1, 1, 1, priority)
	if err != nil {
		t.Fatalf("could not create task %s: %v", id, err)
	}
	return task
}

func Test_TaskQueue_TierPrecedence(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue(makeTask(t, "low", domain.LowPriority))
	q.Enqueue(makeTask(t, "medium", domain.MediumPriority))
	q.Enqueue(makeTask(t, "high", domain.HighPriority))

	for _, want := range []string{"high", "medium", "low"} {
		got, ok := q.Dequeue()
		if !ok {
			t.Fatalf("expected a task, queue reported empty")
		}
		if got.ID() != want {
			t.Errorf("expected %s, got %s", want, got.ID())
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Errorf("expected empty queue after draining")
	}
}

func Test_TaskQueue_FIFOWithinTier(t *testing.T) {
	q := NewTaskQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(makeTask(t, fmt.Sprintf("T%d", i), domain.HighPriority))
	}
	for i := 0; i < 5; i++ {
		got, _ := q.Dequeue()
		if want := fmt.Sprintf("T%d", i); got.ID() != want {
			t.Errorf("expected %s, got %s", want, got.ID())
		}
	}
}

func Test_TaskQueue_Remove(t *testing.T) {
	q := NewTaskQueue()
	keep := makeTask(t, "keep", domain.MediumPriority)
	drop := makeTask(t, "drop", domain.MediumPriority)
	q.Enqueue(keep)
	q.Enqueue(drop)

	if !q.Remove(drop) {
		t.Errorf("expected removal of a queued task to succeed")
	}
	if q.Remove(drop) {
		t.Errorf("expected removal of an absent task to report false")
	}
	if q.Size() != 1 {
		t.Errorf("expected size 1 after removal, got %d", q.Size())
	}
	got, _ := q.Dequeue()
	if got.ID() != "keep" {
		t.Errorf("expected remaining task to be keep, got %s", got.ID())
	}
}

func Test_TaskQueue_SizeAndClear(t *testing.T) {
	q := NewTaskQueue()
	if !q.IsEmpty() {
		t.Errorf("new queue should be empty")
	}
	q.Enqueue(makeTask(t, "T1", domain.HighPriority))
	q.Enqueue(makeTask(t, "T2", domain.LowPriority))
	if q.Size() != 2 {
		t.Errorf("expected size 2, got %d", q.Size())
	}
	q.Clear()
	if !q.IsEmpty() {
		t.Errorf("expected empty queue after Clear")
	}
}

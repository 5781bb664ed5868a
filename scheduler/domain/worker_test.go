package domain

import (
	"testing"

	"github.com/pkg/errors"
)

func Test_NewWorkerNode_Validation(t *testing.T) {
	for _, bad := range []struct {
		name            string
		id              string
		cpu, mem, speed int
	}{
		{"empty id", "", 2, 4, 1},
		{"zero cpu", "W1", 0, 4, 1},
		{"zero memory", "W1", 2, 0, 1},
		{"zero speed", "W1", 2, 4, 0},
		{"negative speed", "W1", 2, 4, -1},
	} {
		_, err := NewWorkerNode(bad.id, bad.cpu, bad.mem, bad.speed)
		if err == nil {
			t.Errorf("%s: expected construction to fail", bad.name)
		} else if errors.Cause(err) != ErrInvalidArgument {
			t.Errorf("%s: expected ErrInvalidArgument cause, got %v", bad.name, err)
		}
	}
}

func Test_Worker_CanAccommodate(t *testing.T) {
	w, err := NewWorkerNode("W1", 4, 16, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.CanAccommodate(4, 16) {
		t.Errorf("fresh worker should accommodate its full capacity")
	}
	if w.CanAccommodate(5, 16) {
		t.Errorf("worker should not accommodate more cpu than it has")
	}
	if w.CanAccommodate(4, 17) {
		t.Errorf("worker should not accommodate more memory than it has")
	}

	w.SetStatus(WorkerInactive)
	if w.CanAccommodate(1, 1) {
		t.Errorf("inactive worker should not accommodate anything")
	}
}

func Test_Worker_AllocateAndRelease(t *testing.T) {
	w, _ := NewWorkerNode("W1", 4, 16, 5)
	task, _ := NewTask("T1", 3, 10, 10, MediumPriority)

	if !w.Allocate(task) {
		t.Fatalf("expected allocation to succeed")
	}
	if w.AvailableCPU() != 1 || w.AvailableMemory() != 6 {
		t.Errorf("expected 1 cpu / 6 memory available, got %d / %d", w.AvailableCPU(), w.AvailableMemory())
	}
	if len(w.RunningTasks()) != 1 {
		t.Errorf("expected 1 running task, got %d", len(w.RunningTasks()))
	}

	// The allocate double-check: a second task that fit at selection time no
	// longer fits once the first allocation landed.
	second, _ := NewTask("T2", 2, 2, 10, MediumPriority)
	if w.Allocate(second) {
		t.Errorf("expected allocation to fail after capacity was consumed")
	}
	if w.AvailableCPU() != 1 {
		t.Errorf("failed allocation must not change the ledger")
	}

	w.Release(task)
	if w.AvailableCPU() != 4 || w.AvailableMemory() != 16 {
		t.Errorf("expected full capacity back after release")
	}

	// Releasing twice has the same resource effect as releasing once.
	w.Release(task)
	if w.AvailableCPU() != 4 || w.AvailableMemory() != 16 {
		t.Errorf("double release must be a no-op, got %d cpu / %d memory",
			w.AvailableCPU(), w.AvailableMemory())
	}
}

func Test_Worker_ReleaseAll(t *testing.T) {
	w, _ := NewWorkerNode("W1", 8, 32, 5)
	t1, _ := NewTask("T1", 2, 8, 10, MediumPriority)
	t2, _ := NewTask("T2", 4, 16, 10, MediumPriority)
	w.Allocate(t1)
	w.Allocate(t2)

	released := w.ReleaseAll()
	if len(released) != 2 {
		t.Errorf("expected 2 released tasks, got %d", len(released))
	}
	if len(w.RunningTasks()) != 0 {
		t.Errorf("expected empty running set after ReleaseAll")
	}
	if w.AvailableCPU() != 8 || w.AvailableMemory() != 32 {
		t.Errorf("expected zeroed ledger after ReleaseAll")
	}
}

package server

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/taskfleet/taskfleet/scheduler/domain"
)

func makeWorker(t *testing.T, id string, cpu, mem, speed int) *domain.WorkerNode {
	t.Helper()
	w, err := domain.NewWorkerNode(id, cpu, mem, speed)
	if err != nil {
		t.Fatalf("could not create worker %s: %v", id, err)
	}
	return w
}

func Test_TaskRegistry_DuplicateAndLookup(t *testing.T) {
	reg := NewTaskRegistry()
	task := makeTask(t, "T1", domain.MediumPriority)

	if err := reg.Register(task); err != nil {
		t.Fatalf("unexpected error registering task: %v", err)
	}
	if err := reg.Register(task); errors.Cause(err) != ErrDuplicateTask {
		t.Errorf("expected ErrDuplicateTask, got %v", err)
	}

	got, err := reg.Get("T1")
	if err != nil || got.ID() != "T1" {
		t.Errorf("expected to look up T1, got %v / %v", got, err)
	}
	if _, err := reg.Get("unknown"); errors.Cause(err) != ErrTaskNotFound {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if !reg.Contains("T1") || reg.Contains("unknown") {
		t.Errorf("Contains disagrees with registry contents")
	}
}

func Test_TaskRegistry_EnumerationOrder(t *testing.T) {
	reg := NewTaskRegistry()
	ids := []string{"T3", "T1", "T2"}
	for _, id := range ids {
		reg.Register(makeTask(t, id, domain.MediumPriority))
	}
	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}
	for i, id := range ids {
		if all[i].ID() != id {
			t.Errorf("expected insertion order %v, got %s at %d", ids, all[i].ID(), i)
		}
	}
}

func Test_TaskRegistry_ByStatusAndWorker(t *testing.T) {
	reg := NewTaskRegistry()
	queued := makeTask(t, "T1", domain.MediumPriority)
	assigned := makeTask(t, "T2", domain.MediumPriority)
	reg.Register(queued)
	reg.Register(assigned)
	assigned.MarkAssigned("W1", 0)

	if got := reg.ByStatus(domain.TaskQueued); len(got) != 1 || got[0].ID() != "T1" {
		t.Errorf("expected only T1 queued, got %v", got)
	}
	if got := reg.ByWorker("W1"); len(got) != 1 || got[0].ID() != "T2" {
		t.Errorf("expected only T2 on W1, got %v", got)
	}
	if got := reg.ByWorker("W2"); len(got) != 0 {
		t.Errorf("expected no tasks on W2, got %v", got)
	}
}

func Test_WorkerRegistry_DuplicateAndLookup(t *testing.T) {
	reg := NewWorkerRegistry(nil)
	w := makeWorker(t, "W1", 4, 16, 5)

	if err := reg.Register(w); err != nil {
		t.Fatalf("unexpected error registering worker: %v", err)
	}
	if err := reg.Register(w); errors.Cause(err) != ErrDuplicateWorker {
		t.Errorf("expected ErrDuplicateWorker, got %v", err)
	}
	if _, err := reg.Get("unknown"); errors.Cause(err) != ErrWorkerNotFound {
		t.Errorf("expected ErrWorkerNotFound, got %v", err)
	}
}

func Test_WorkerRegistry_MarkFailed(t *testing.T) {
	reg := NewWorkerRegistry(nil)
	w := makeWorker(t, "W1", 4, 16, 5)
	reg.Register(w)
	task := makeTask(t, "T1", domain.MediumPriority)
	w.Allocate(task)

	affected, err := reg.MarkFailed("W1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(affected) != 1 || affected[0].ID() != "T1" {
		t.Errorf("expected T1 back from the failed worker, got %v", affected)
	}
	if w.Active() {
		t.Errorf("expected failed worker to be INACTIVE")
	}
	if reg.ActiveCount() != 0 {
		t.Errorf("expected no active workers, got %d", reg.ActiveCount())
	}

	if _, err := reg.MarkFailed("unknown"); errors.Cause(err) != ErrWorkerNotFound {
		t.Errorf("expected ErrWorkerNotFound for unknown worker, got %v", err)
	}
}

func Test_WorkerRegistry_Reactivate(t *testing.T) {
	reg := NewWorkerRegistry(nil)
	w := makeWorker(t, "W1", 4, 16, 5)
	reg.Register(w)

	if reg.Reactivate("W1") {
		t.Errorf("reactivating an already active worker should report false")
	}
	reg.MarkFailed("W1")
	if !reg.Reactivate("W1") {
		t.Errorf("expected reactivation of an inactive worker to succeed")
	}
	if !w.Active() {
		t.Errorf("expected worker to be ACTIVE after reactivation")
	}
	if reg.Reactivate("unknown") {
		t.Errorf("reactivating an unknown worker should report false")
	}
}

func Test_WorkerRegistry_AutoScale(t *testing.T) {
	reg := NewWorkerRegistry(nil)

	first := reg.AutoScale()
	second := reg.AutoScale()
	if first.ID() == second.ID() {
		t.Errorf("auto-scaled ids must be unique, both were %s", first.ID())
	}
	for _, w := range []*domain.WorkerNode{first, second} {
		if w.TotalCPU() != 2 || w.TotalMemory() != 4 || w.Speed() != 10 {
			t.Errorf("auto-scaled worker %s should have the fixed standard shape, got %v", w.ID(), w)
		}
		if !w.Active() {
			t.Errorf("auto-scaled worker %s should start ACTIVE", w.ID())
		}
		if !reg.Contains(w.ID()) {
			t.Errorf("auto-scaled worker %s should be registered", w.ID())
		}
	}
}

// Auto-scaling must not collide with ids chosen by explicit registration.
func Test_WorkerRegistry_AutoScaleSkipsTakenIds(t *testing.T) {
	reg := NewWorkerRegistry(nil)
	reg.Register(makeWorker(t, "W2", 4, 16, 5))

	seen := map[string]bool{"W2": true}
	for i := 0; i < 5; i++ {
		w := reg.AutoScale()
		if seen[w.ID()] {
			t.Fatalf("auto-scale produced duplicate id %s", w.ID())
		}
		seen[w.ID()] = true
	}
}

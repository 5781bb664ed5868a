package domain

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// WorkerNode is a compute node with finite cpu/memory capacity and a relative
// processing speed. It owns its own resource ledger: the used counters and the
// running-task set are only touched together, under the node's lock, so
// available capacity can never go negative and a task is either fully
// allocated or not at all.
type WorkerNode struct {
	id          string
	totalCPU    int
	totalMemory int
	speed       int

	mu         sync.Mutex
	status     WorkerStatus
	usedCPU    int
	usedMemory int
	running    map[string]*Task
}

// NewWorkerNode returns an ACTIVE worker with zero usage. Capacity and speed
// must be positive and the id non-empty.
func NewWorkerNode(id string, totalCPU, totalMemory, speed int) (*WorkerNode, error) {
	if id == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "worker id cannot be empty")
	}
	if totalCPU <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "cpu capacity must be positive, got %d", totalCPU)
	}
	if totalMemory <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "memory capacity must be positive, got %d", totalMemory)
	}
	if speed <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "processing speed must be positive, got %d", speed)
	}
	return &WorkerNode{
		id:          id,
		totalCPU:    totalCPU,
		totalMemory: totalMemory,
		speed:       speed,
		status:      WorkerActive,
		running:     make(map[string]*Task),
	}, nil
}

func (w *WorkerNode) ID() string       { return w.id }
func (w *WorkerNode) TotalCPU() int    { return w.totalCPU }
func (w *WorkerNode) TotalMemory() int { return w.totalMemory }
func (w *WorkerNode) Speed() int       { return w.speed }

func (w *WorkerNode) Status() WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *WorkerNode) SetStatus(status WorkerStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
}

// Active reports whether the worker is accepting assignments.
func (w *WorkerNode) Active() bool {
	return w.Status() == WorkerActive
}

// AvailableCPU returns the unreserved cpu units.
func (w *WorkerNode) AvailableCPU() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalCPU - w.usedCPU
}

// AvailableMemory returns the unreserved memory units.
func (w *WorkerNode) AvailableMemory() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalMemory - w.usedMemory
}

// RunningTasks returns a snapshot of the tasks currently occupying this
// worker.
func (w *WorkerNode) RunningTasks() []*Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	tasks := make([]*Task, 0, len(w.running))
	for _, t := range w.running {
		tasks = append(tasks, t)
	}
	return tasks
}

// CanAccommodate reports whether the worker is active and has capacity for
// the given requirements.
func (w *WorkerNode) CanAccommodate(cpu, memory int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAccommodate(cpu, memory)
}

func (w *WorkerNode) canAccommodate(cpu, memory int) bool {
	return w.status == WorkerActive &&
		w.totalCPU-w.usedCPU >= cpu &&
		w.totalMemory-w.usedMemory >= memory
}

// Allocate reserves the task's requirements and adds it to the running set.
// Capacity is re-checked under the lock: candidate selection and allocation
// are separate steps, and another caller may have consumed capacity in
// between. Returns false, with no side effect, if the task no longer fits.
func (w *WorkerNode) Allocate(t *Task) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.canAccommodate(t.CPU(), t.Memory()) {
		return false
	}
	w.usedCPU += t.CPU()
	w.usedMemory += t.Memory()
	w.running[t.ID()] = t
	return true
}

// Release returns the task's resources to the pool. A task not in the running
// set is a no-op, so releasing twice has the same effect as releasing once.
func (w *WorkerNode) Release(t *Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.running[t.ID()]; !ok {
		return
	}
	delete(w.running, t.ID())
	w.usedCPU = max(0, w.usedCPU-t.CPU())
	w.usedMemory = max(0, w.usedMemory-t.Memory())
}

// ReleaseAll atomically empties the running set, zeroes the ledger and
// returns every task that was running. Used by failure handling to obtain the
// reassignment work list.
func (w *WorkerNode) ReleaseAll() []*Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	tasks := make([]*Task, 0, len(w.running))
	for _, t := range w.running {
		tasks = append(tasks, t)
	}
	w.running = make(map[string]*Task)
	w.usedCPU = 0
	w.usedMemory = 0
	return tasks
}

func (w *WorkerNode) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fmt.Sprintf("{nodeId:%s, cpu:%d/%d, memory:%d/%d, speed:%d, status:%s}",
		w.id, w.usedCPU, w.totalCPU, w.usedMemory, w.totalMemory, w.speed, w.status)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Package domain provides definitions for the tasks and worker nodes the
// scheduler operates on.
package domain

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Task is a unit of work that can be scheduled onto a worker node.
//
// The resource requirements, estimated execution time and priority are fixed
// at construction. Execution state (status, assignment, start time, retries)
// is mutated exclusively by the scheduler, never by the task itself. Mutators
// and accessors are safe for concurrent callers.
type Task struct {
	id       string
	cpu      int
	memory   int
	execTime Tick
	priority Priority

	mu        sync.Mutex
	status    TaskStatus
	workerID  string
	startTime Tick
	started   bool
	retries   int
}

// NewTask returns a Task in the QUEUED state. The cpu and memory requirements
// and the estimated execution time must be positive and the id non-empty.
// An unset (zero) priority defaults to MediumPriority.
func NewTask(id string, cpu, memory int, execTime Tick, priority Priority) (*Task, error) {
	if id == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "task id cannot be empty")
	}
	if cpu <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "cpu requirement must be positive, got %d", cpu)
	}
	if memory <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "memory requirement must be positive, got %d", memory)
	}
	if execTime <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "execution time must be positive, got %d", execTime)
	}
	if !priority.valid() {
		priority = MediumPriority
	}
	return &Task{
		id:       id,
		cpu:      cpu,
		memory:   memory,
		execTime: execTime,
		priority: priority,
		status:   TaskQueued,
	}, nil
}

func (t *Task) ID() string         { return t.id }
func (t *Task) CPU() int           { return t.cpu }
func (t *Task) Memory() int        { return t.memory }
func (t *Task) ExecTime() Tick     { return t.execTime }
func (t *Task) Priority() Priority { return t.priority }

// Status returns the current lifecycle state.
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// AssignedWorker returns the id of the worker this task occupies, and whether
// the task is currently assigned at all.
func (t *Task) AssignedWorker() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workerID, t.workerID != ""
}

// StartTime returns when the current assignment started. The bool is false
// while the task has no assignment.
func (t *Task) StartTime() (Tick, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime, t.started
}

// Retries returns how many times the task has been put back for reassignment
// after a worker failure or timeout.
func (t *Task) Retries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retries
}

// MarkAssigned records a successful assignment to the given worker starting now.
func (t *Task) MarkAssigned(workerID string, now Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskAssigned
	t.workerID = workerID
	t.startTime = now
	t.started = true
}

// MarkCompleted moves the task to its COMPLETED terminal state. Assignment
// and start time are cleared: only an ASSIGNED task carries them.
func (t *Task) MarkCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskCompleted
	t.workerID = ""
	t.started = false
}

// MarkCancelled moves the task to its CANCELLED terminal state, clearing any
// assignment.
func (t *Task) MarkCancelled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskCancelled
	t.workerID = ""
	t.started = false
}

// ResetForReassignment puts the task back in the QUEUED state with no
// assignment, preserving its retry history.
func (t *Task) ResetForReassignment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskQueued
	t.workerID = ""
	t.started = false
}

// IncrementRetries bumps the retry count. The count never decreases.
func (t *Task) IncrementRetries() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retries++
}

// ExecutionComplete reports whether an assigned task has run for at least its
// estimated execution time. Equality counts as complete.
func (t *Task) ExecutionComplete(now Tick) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || t.status != TaskAssigned {
		return false
	}
	return now-t.startTime >= t.execTime
}

func (t *Task) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.workerID != "" {
		return fmt.Sprintf("{taskId:%s, status:%s, assignedTo:%s}", t.id, t.status, t.workerID)
	}
	return fmt.Sprintf("{taskId:%s, status:%s}", t.id, t.status)
}

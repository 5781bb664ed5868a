package server

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/taskfleet/taskfleet/scheduler/domain"
)

// TaskRegistry is the authoritative task-id to task mapping. Tasks are never
// removed; terminal tasks stay registered for audit and lookup. Enumeration
// follows registration order.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*domain.Task)}
}

// Register adds a task, rejecting duplicate ids.
func (r *TaskRegistry) Register(t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID()]; ok {
		return errors.Wrapf(ErrDuplicateTask, "id %s", t.ID())
	}
	r.tasks[t.ID()] = t
	r.order = append(r.order, t.ID())
	return nil
}

// Get returns the task with the given id, or ErrTaskNotFound.
func (r *TaskRegistry) Get(id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, errors.Wrapf(ErrTaskNotFound, "id %s", id)
	}
	return t, nil
}

// Contains reports whether a task with the given id is registered.
func (r *TaskRegistry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[id]
	return ok
}

// All returns every registered task in registration order.
func (r *TaskRegistry) All() []*domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.Task, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.tasks[id])
	}
	return all
}

// ByStatus returns the registered tasks currently in the given state.
func (r *TaskRegistry) ByStatus(status domain.TaskStatus) []*domain.Task {
	var matched []*domain.Task
	for _, t := range r.All() {
		if t.Status() == status {
			matched = append(matched, t)
		}
	}
	return matched
}

// ByWorker returns the registered tasks currently assigned to the given
// worker.
func (r *TaskRegistry) ByWorker(workerID string) []*domain.Task {
	var matched []*domain.Task
	for _, t := range r.All() {
		if assigned, ok := t.AssignedWorker(); ok && assigned == workerID {
			matched = append(matched, t)
		}
	}
	return matched
}

// Count returns the number of registered tasks.
func (r *TaskRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

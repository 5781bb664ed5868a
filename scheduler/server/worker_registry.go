package server

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/taskfleet/taskfleet/common/stats"
	"github.com/taskfleet/taskfleet/scheduler/domain"
)

// Shape of workers created by reactive auto-scaling. The fixed sizing is a
// deliberate simplification, not a derived or negotiated value.
const (
	autoScaleCPU    = 2
	autoScaleMemory = 4
	autoScaleSpeed  = 10
)

// WorkerRegistry is the authoritative worker-id to worker mapping. Workers
// are never removed once created; failed workers go INACTIVE and may be
// reactivated. Enumeration follows registration order. The registry also owns
// id generation for auto-scaled workers.
type WorkerRegistry struct {
	mu           sync.RWMutex
	workers      map[string]*domain.WorkerNode
	order        []string
	autoScaleSeq int
	stat         stats.StatsReceiver
}

func NewWorkerRegistry(stat stats.StatsReceiver) *WorkerRegistry {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &WorkerRegistry{workers: make(map[string]*domain.WorkerNode), stat: stat}
}

// Register adds a worker, rejecting duplicate ids.
func (r *WorkerRegistry) Register(w *domain.WorkerNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[w.ID()]; ok {
		return errors.Wrapf(ErrDuplicateWorker, "id %s", w.ID())
	}
	r.insert(w)
	return nil
}

// insert requires r.mu held.
func (r *WorkerRegistry) insert(w *domain.WorkerNode) {
	r.workers[w.ID()] = w
	r.order = append(r.order, w.ID())
	r.updateActiveGauge()
}

// Get returns the worker with the given id, or ErrWorkerNotFound.
func (r *WorkerRegistry) Get(id string) (*domain.WorkerNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, errors.Wrapf(ErrWorkerNotFound, "id %s", id)
	}
	return w, nil
}

// Contains reports whether a worker with the given id is registered.
func (r *WorkerRegistry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.workers[id]
	return ok
}

// All returns every registered worker in registration order.
func (r *WorkerRegistry) All() []*domain.WorkerNode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.WorkerNode, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.workers[id])
	}
	return all
}

// Active returns the registered workers currently accepting assignments, in
// registration order.
func (r *WorkerRegistry) Active() []*domain.WorkerNode {
	return r.ByStatus(domain.WorkerActive)
}

// ByStatus returns the registered workers currently in the given state.
func (r *WorkerRegistry) ByStatus(status domain.WorkerStatus) []*domain.WorkerNode {
	var matched []*domain.WorkerNode
	for _, w := range r.All() {
		if w.Status() == status {
			matched = append(matched, w)
		}
	}
	return matched
}

// Count returns the number of registered workers.
func (r *WorkerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// ActiveCount returns the number of workers accepting assignments.
func (r *WorkerRegistry) ActiveCount() int {
	return len(r.Active())
}

// MarkFailed takes the worker out of rotation and drains its ledger,
// returning the tasks that were running on it so the scheduler can reassign
// them.
func (r *WorkerRegistry) MarkFailed(id string) ([]*domain.Task, error) {
	w, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	w.SetStatus(domain.WorkerInactive)
	r.mu.RLock()
	r.updateActiveGauge()
	r.mu.RUnlock()
	return w.ReleaseAll(), nil
}

// Reactivate puts an INACTIVE worker back in rotation. Returns false if the
// worker is unknown or already active.
func (r *WorkerRegistry) Reactivate(id string) bool {
	r.mu.RLock()
	w, ok := r.workers[id]
	r.mu.RUnlock()
	if !ok || w.Active() {
		return false
	}
	w.SetStatus(domain.WorkerActive)
	r.mu.RLock()
	r.updateActiveGauge()
	r.mu.RUnlock()
	return true
}

// AutoScale creates, registers and returns a worker with the fixed standard
// capacity under a freshly generated id. The sequence number only ever grows,
// so concurrent scale-outs get distinct ids; ids already taken by explicitly
// registered workers are skipped.
func (r *WorkerRegistry) AutoScale() *domain.WorkerNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	var id string
	for {
		r.autoScaleSeq++
		id = fmt.Sprintf("W%d", len(r.workers)+r.autoScaleSeq)
		if _, taken := r.workers[id]; !taken {
			break
		}
	}
	w, err := domain.NewWorkerNode(id, autoScaleCPU, autoScaleMemory, autoScaleSpeed)
	if err != nil {
		// Fixed positive capacity can't fail validation.
		panic(err)
	}
	r.insert(w)
	return w
}

// updateActiveGauge requires at least a read lock on r.mu.
func (r *WorkerRegistry) updateActiveGauge() {
	active := 0
	for _, w := range r.workers {
		if w.Active() {
			active++
		}
	}
	r.stat.Gauge(stats.SchedActiveWorkersGauge).Update(int64(active))
}

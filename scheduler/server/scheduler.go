// Package server implements the scheduling engine: the priority queue, the
// task and worker registries, and the service that orchestrates submission,
// assignment, completion, failure recovery, timeouts, cancellation and
// reactive auto-scaling. All time-dependent decisions are pure functions of
// the caller-supplied simulated clock, never of wall-clock time.
package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/taskfleet/taskfleet/common/stats"
	"github.com/taskfleet/taskfleet/scheduler/domain"
)

// A task whose simulated runtime reaches this multiple of its estimated
// execution time is considered timed out and put back for reassignment.
const DefaultTimeoutFactor = 1.2

// SchedulerConfig tunes the service. Zero values fall back to defaults.
type SchedulerConfig struct {
	// Multiple of a task's estimated execution time after which a timeout
	// event releases it from its worker.
	TimeoutFactor float64
}

// SchedulerService matches tasks to workers. Policy is fastest-worker-first:
// among the active workers with enough free capacity, the task goes to the
// one with the highest processing speed. That optimizes completion latency
// for the task at hand at the cost of load balance; a fast worker can be
// monopolized while slower ones sit idle, and reactive auto-scaling is the
// only mitigation.
//
// All collaborators are injected so test instances are fully isolated. Each
// collaborator guards its own state; the service holds no lock of its own and
// never holds one container's lock while calling into another.
type SchedulerService struct {
	queue   *TaskQueue
	tasks   *TaskRegistry
	workers *WorkerRegistry
	config  SchedulerConfig
	stat    stats.StatsReceiver
}

func NewSchedulerService(
	queue *TaskQueue,
	tasks *TaskRegistry,
	workers *WorkerRegistry,
	config SchedulerConfig,
	stat stats.StatsReceiver,
) *SchedulerService {
	if config.TimeoutFactor <= 0 {
		config.TimeoutFactor = DefaultTimeoutFactor
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &SchedulerService{
		queue:   queue,
		tasks:   tasks,
		workers: workers,
		config:  config,
		stat:    stat,
	}
}

// SubmitTask registers the task and immediately attempts assignment; a task
// only lands on the queue if no worker can take it right now.
func (s *SchedulerService) SubmitTask(t *domain.Task, now domain.Tick) error {
	if err := s.tasks.Register(t); err != nil {
		return err
	}
	s.stat.Counter(stats.SchedSubmittedTasksCounter).Inc(1)
	s.TryAssignTask(t, now)
	return nil
}

// TryAssignTask runs the assignment algorithm for one task. If no candidate
// worker exists, or allocation on the chosen worker loses a capacity race,
// the task is queued and false is returned.
func (s *SchedulerService) TryAssignTask(t *domain.Task, now domain.Tick) bool {
	if w, ok := s.findFastestWorker(t); ok {
		if s.assignToWorker(t, w, now) {
			return true
		}
	}
	t.ResetForReassignment()
	s.queue.Enqueue(t)
	s.updateQueueGauge()
	log.WithFields(log.Fields{
		"taskID":   t.ID(),
		"priority": t.Priority(),
	}).Debug("No worker can accommodate task, queued")
	return false
}

// findFastestWorker selects the active worker with the highest processing
// speed among those that can accommodate the task. Ties break to the lowest
// worker id so selection does not depend on enumeration order. The bool is
// false when no worker qualifies; absence of a candidate is a normal outcome,
// not an error.
func (s *SchedulerService) findFastestWorker(t *domain.Task) (*domain.WorkerNode, bool) {
	var best *domain.WorkerNode
	for _, w := range s.workers.Active() {
		if !w.CanAccommodate(t.CPU(), t.Memory()) {
			continue
		}
		if best == nil || w.Speed() > best.Speed() ||
			(w.Speed() == best.Speed() && w.ID() < best.ID()) {
			best = w
		}
	}
	return best, best != nil
}

// assignToWorker binds the task to the worker. Allocation re-checks capacity
// under the worker's lock; on a lost race nothing changes and the caller
// treats it as no-candidate.
func (s *SchedulerService) assignToWorker(t *domain.Task, w *domain.WorkerNode, now domain.Tick) bool {
	if !w.Allocate(t) {
		return false
	}
	t.MarkAssigned(w.ID(), now)
	s.queue.Remove(t)
	s.updateQueueGauge()
	s.stat.Counter(stats.SchedAssignedTasksCounter).Inc(1)
	log.WithFields(log.Fields{
		"taskID":   t.ID(),
		"workerID": w.ID(),
		"tick":     now,
	}).Info("Assigned task to worker")
	return true
}

// ProcessCompletedTasks finishes every assigned task whose estimated
// execution time has elapsed by now (equality counts as complete), releases
// its resources, then runs the queued-task sweep against the freed capacity.
// Returns the tasks completed this step.
func (s *SchedulerService) ProcessCompletedTasks(now domain.Tick) []*domain.Task {
	completed := []*domain.Task{}
	for _, w := range s.workers.Active() {
		for _, t := range w.RunningTasks() {
			if !t.ExecutionComplete(now) {
				continue
			}
			w.Release(t)
			t.MarkCompleted()
			completed = append(completed, t)
			s.stat.Counter(stats.SchedCompletedTasksCounter).Inc(1)
			log.WithFields(log.Fields{
				"taskID":   t.ID(),
				"workerID": w.ID(),
				"tick":     now,
			}).Info("Task completed")
		}
	}
	s.AssignQueued(now)
	return completed
}

// AssignQueued is the drain-and-retry sweep: repeatedly dequeue the highest
// priority task and attempt assignment, stopping (and putting the current
// task back) the moment one attempt fails. Stopping at the first stuck task
// preserves priority order; the sweep never skips ahead past it.
func (s *SchedulerService) AssignQueued(now domain.Tick) {
	for {
		t, ok := s.queue.Dequeue()
		if !ok {
			break
		}
		w, ok := s.findFastestWorker(t)
		if !ok {
			s.queue.Enqueue(t)
			break
		}
		if !s.assignToWorker(t, w, now) {
			s.queue.Enqueue(t)
			break
		}
	}
	s.updateQueueGauge()
}

// HandleWorkerFailure marks the worker INACTIVE, takes back its running
// tasks, and immediately retries assignment for each one -- a task may skip
// the queue entirely and land on another worker in the same step. Returns the
// tasks that found a new worker. Retry counts grow without cap; nothing
// currently drives a task into the FAILED state.
func (s *SchedulerService) HandleWorkerFailure(workerID string, now domain.Tick) ([]*domain.Task, error) {
	affected, err := s.workers.MarkFailed(workerID)
	if err != nil {
		return nil, err
	}
	s.stat.Counter(stats.SchedFailedWorkersCounter).Inc(1)
	log.WithFields(log.Fields{
		"workerID": workerID,
		"numTasks": len(affected),
	}).Warn("Worker failed, reassigning its tasks")

	reassigned := []*domain.Task{}
	for _, t := range affected {
		if t.Status() != domain.TaskAssigned {
			continue
		}
		t.ResetForReassignment()
		t.IncrementRetries()
		s.stat.Counter(stats.SchedRequeuedTasksCounter).Inc(1)
		if s.TryAssignTask(t, now) {
			reassigned = append(reassigned, t)
		}
	}
	return reassigned, nil
}

// SimulateTaskTimeout reports that the given task has been running for
// elapsed ticks. A task that is not ASSIGNED is left alone. Past the timeout
// threshold the task is released from its worker, requeued with one more
// retry, and a sweep runs with the clock advanced by the elapsed duration --
// the timed-out task is reassigned as if that much more time had passed than
// the scheduler's own clock reflects.
func (s *SchedulerService) SimulateTaskTimeout(taskID string, elapsed, now domain.Tick) error {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return err
	}
	if t.Status() != domain.TaskAssigned {
		return nil
	}
	workerID, _ := t.AssignedWorker()
	w, err := s.workers.Get(workerID)
	if err != nil {
		return err
	}

	threshold := domain.Tick(float64(t.ExecTime()) * s.config.TimeoutFactor)
	if elapsed < threshold {
		return nil
	}

	w.Release(t)
	t.ResetForReassignment()
	t.IncrementRetries()
	s.queue.Enqueue(t)
	s.stat.Counter(stats.SchedTimedOutTasksCounter).Inc(1)
	s.stat.Counter(stats.SchedRequeuedTasksCounter).Inc(1)
	log.WithFields(log.Fields{
		"taskID":    taskID,
		"workerID":  workerID,
		"elapsed":   elapsed,
		"threshold": threshold,
	}).Warn("Task timed out, requeued")
	s.AssignQueued(now + elapsed)
	return nil
}

// CancelTask cancels by id. A QUEUED task leaves the queue; an ASSIGNED task
// releases its worker's resources and the freed capacity is swept, which may
// unblock other queued tasks. Returns false for tasks already in a terminal
// state. Unknown ids are an invariant violation and propagate as an error.
func (s *SchedulerService) CancelTask(taskID string, now domain.Tick) (bool, error) {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return false, err
	}

	switch t.Status() {
	case domain.TaskQueued:
		s.queue.Remove(t)
		s.updateQueueGauge()
		t.MarkCancelled()
		s.stat.Counter(stats.SchedCancelledTasksCounter).Inc(1)
		log.WithFields(log.Fields{"taskID": taskID}).Info("Cancelled queued task")
		return true, nil

	case domain.TaskAssigned:
		workerID, _ := t.AssignedWorker()
		w, err := s.workers.Get(workerID)
		if err != nil {
			return false, err
		}
		w.Release(t)
		t.MarkCancelled()
		s.stat.Counter(stats.SchedCancelledTasksCounter).Inc(1)
		log.WithFields(log.Fields{"taskID": taskID, "workerID": workerID}).Info("Cancelled assigned task")
		s.AssignQueued(now)
		return true, nil

	default:
		// COMPLETED, CANCELLED and FAILED are terminal.
		return false, nil
	}
}

// AutoScale creates one standard-capacity worker if, and only if, tasks are
// waiting on the queue -- scaling is reactive, never speculative. The sweep
// runs immediately so queued work is considered against the new capacity.
// Returns nil when the queue is empty.
func (s *SchedulerService) AutoScale(now domain.Tick) *domain.WorkerNode {
	if s.queue.IsEmpty() {
		return nil
	}
	w := s.workers.AutoScale()
	s.stat.Counter(stats.SchedAutoScaledWorkersCounter).Inc(1)
	log.WithFields(log.Fields{
		"workerID": w.ID(),
		"cpu":      w.TotalCPU(),
		"memory":   w.TotalMemory(),
	}).Info("Auto-scaled new worker")
	s.AssignQueued(now)
	return w
}

// QueueSize returns the number of tasks currently awaiting assignment.
func (s *SchedulerService) QueueSize() int {
	return s.queue.Size()
}

func (s *SchedulerService) updateQueueGauge() {
	s.stat.Gauge(stats.SchedQueuedTasksGauge).Update(int64(s.queue.Size()))
}

// Package api is the public facade over the scheduling engine. It owns the
// simulated clock, exposes simplified registration/submission calls, and
// converts internal entities to display records. Raw parameter validation
// happens here and in the entity constructors; the engine below assumes
// validated input.
package api

import (
	"sync"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"

	"github.com/taskfleet/taskfleet/common/stats"
	"github.com/taskfleet/taskfleet/scheduler/domain"
	"github.com/taskfleet/taskfleet/scheduler/server"
)

// TaskConfig describes a task to submit. An empty TaskID gets a generated
// one; an unset Priority defaults to MEDIUM.
type TaskConfig struct {
	TaskID   string
	CPU      int
	Memory   int
	ExecTime domain.Tick
	Priority domain.Priority
}

// WorkerInfo is the display record for a worker node.
type WorkerInfo struct {
	NodeID     string
	CPU        int
	Memory     int
	Speed      int
	Status     string
	UsedCPU    int
	UsedMemory int
}

// TaskInfo is the display record for a task.
type TaskInfo struct {
	TaskID     string
	Status     string
	AssignedTo string
	Retries    int
}

// ClusterScheduler drives the scheduling engine on a single logical clock.
// The clock only advances through WaitFor; nothing here looks at wall-clock
// time, so a fixed sequence of calls always produces the same state.
type ClusterScheduler struct {
	mu      sync.Mutex
	now     domain.Tick
	tasks   *server.TaskRegistry
	workers *server.WorkerRegistry
	service *server.SchedulerService
}

// NewClusterScheduler wires a queue, fresh registries and a scheduler service
// together at tick zero.
func NewClusterScheduler(stat stats.StatsReceiver) *ClusterScheduler {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	queue := server.NewTaskQueue()
	tasks := server.NewTaskRegistry()
	workers := server.NewWorkerRegistry(stat)
	return &ClusterScheduler{
		tasks:   tasks,
		workers: workers,
		service: server.NewSchedulerService(queue, tasks, workers, server.SchedulerConfig{}, stat),
	}
}

// Now returns the current simulated time.
func (c *ClusterScheduler) Now() domain.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// RegisterWorker adds a worker node and sweeps the queue, since the new
// capacity may unblock waiting tasks.
func (c *ClusterScheduler) RegisterWorker(nodeID string, cpu, memory, speed int) error {
	w, err := domain.NewWorkerNode(nodeID, cpu, memory, speed)
	if err != nil {
		return err
	}
	if err := c.workers.Register(w); err != nil {
		return err
	}
	c.service.AssignQueued(c.Now())
	return nil
}

// SubmitTask creates and submits one task.
func (c *ClusterScheduler) SubmitTask(cfg TaskConfig) (string, error) {
	if cfg.TaskID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return "", errors.Wrap(err, "could not generate task id")
		}
		cfg.TaskID = "task-" + id.String()
	}
	t, err := domain.NewTask(cfg.TaskID, cfg.CPU, cfg.Memory, cfg.ExecTime, cfg.Priority)
	if err != nil {
		return "", err
	}
	return cfg.TaskID, c.service.SubmitTask(t, c.Now())
}

// SubmitTasks submits tasks in order, stopping at the first failure.
func (c *ClusterScheduler) SubmitTasks(cfgs []TaskConfig) error {
	for _, cfg := range cfgs {
		if _, err := c.SubmitTask(cfg); err != nil {
			return err
		}
	}
	return nil
}

// WaitFor advances the simulated clock and runs the completion sweep,
// returning display records for the tasks that finished.
func (c *ClusterScheduler) WaitFor(d domain.Tick) []TaskInfo {
	c.mu.Lock()
	c.now += d
	now := c.now
	c.mu.Unlock()

	completed := c.service.ProcessCompletedTasks(now)
	infos := make([]TaskInfo, 0, len(completed))
	for _, t := range completed {
		infos = append(infos, makeTaskInfo(t))
	}
	return infos
}

// SimulateWorkerFailure fails a worker and reassigns its tasks where
// possible.
func (c *ClusterScheduler) SimulateWorkerFailure(nodeID string) ([]TaskInfo, error) {
	reassigned, err := c.service.HandleWorkerFailure(nodeID, c.Now())
	if err != nil {
		return nil, err
	}
	infos := make([]TaskInfo, 0, len(reassigned))
	for _, t := range reassigned {
		infos = append(infos, makeTaskInfo(t))
	}
	return infos, nil
}

// SimulateTaskTimeout reports elapsed runtime for a task, retrying it on
// another worker if it exceeded its timeout threshold.
func (c *ClusterScheduler) SimulateTaskTimeout(taskID string, elapsed domain.Tick) error {
	return c.service.SimulateTaskTimeout(taskID, elapsed, c.Now())
}

// CancelTask cancels by id; false means the task was already terminal.
func (c *ClusterScheduler) CancelTask(taskID string) (bool, error) {
	return c.service.CancelTask(taskID, c.Now())
}

// AutoScale adds one standard worker if tasks are queued. The bool reports
// whether a worker was created.
func (c *ClusterScheduler) AutoScale() (WorkerInfo, bool) {
	w := c.service.AutoScale(c.Now())
	if w == nil {
		return WorkerInfo{}, false
	}
	return makeWorkerInfo(w), true
}

// ReactivateWorker puts a failed worker back in rotation and sweeps the
// queue against its capacity.
func (c *ClusterScheduler) ReactivateWorker(nodeID string) bool {
	if !c.workers.Reactivate(nodeID) {
		return false
	}
	c.service.AssignQueued(c.Now())
	return true
}

// ListWorkers returns display records for all workers in registration order.
func (c *ClusterScheduler) ListWorkers() []WorkerInfo {
	all := c.workers.All()
	infos := make([]WorkerInfo, 0, len(all))
	for _, w := range all {
		infos = append(infos, makeWorkerInfo(w))
	}
	return infos
}

// ListTasks returns display records for all tasks in submission order.
func (c *ClusterScheduler) ListTasks() []TaskInfo {
	all := c.tasks.All()
	infos := make([]TaskInfo, 0, len(all))
	for _, t := range all {
		infos = append(infos, makeTaskInfo(t))
	}
	return infos
}

// ListTasksByStatus returns display records for the tasks in a given state.
func (c *ClusterScheduler) ListTasksByStatus(status domain.TaskStatus) []TaskInfo {
	tasks := c.tasks.ByStatus(status)
	infos := make([]TaskInfo, 0, len(tasks))
	for _, t := range tasks {
		infos = append(infos, makeTaskInfo(t))
	}
	return infos
}

func makeTaskInfo(t *domain.Task) TaskInfo {
	info := TaskInfo{
		TaskID:  t.ID(),
		Status:  t.Status().String(),
		Retries: t.Retries(),
	}
	if workerID, ok := t.AssignedWorker(); ok {
		info.AssignedTo = workerID
	}
	return info
}

func makeWorkerInfo(w *domain.WorkerNode) WorkerInfo {
	return WorkerInfo{
		NodeID:     w.ID(),
		CPU:        w.TotalCPU(),
		Memory:     w.TotalMemory(),
		Speed:      w.Speed(),
		Status:     w.Status().String(),
		UsedCPU:    w.TotalCPU() - w.AvailableCPU(),
		UsedMemory: w.TotalMemory() - w.AvailableMemory(),
	}
}

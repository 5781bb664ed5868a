package domain

// Tick is a point on the simulated clock. The clock only moves when an
// external driver advances it, so every time-based decision in the scheduler
// is deterministic and replayable.
type Tick int64

// Priority is the scheduling tier of a task. Higher tiers are always drained
// before lower ones; there is no starvation prevention across tiers.
type Priority int

const (
	// The zero value is deliberately not a valid priority so that callers who
	// leave it unset get the default (MediumPriority) rather than LowPriority.
	LowPriority Priority = iota + 1
	MediumPriority
	HighPriority
)

func (p Priority) String() string {
	switch p {
	case LowPriority:
		return "LOW"
	case MediumPriority:
		return "MEDIUM"
	case HighPriority:
		return "HIGH"
	}
	return "UNKNOWN"
}

func (p Priority) valid() bool {
	return p >= LowPriority && p <= HighPriority
}

// TaskStatus for Tasks. COMPLETED, CANCELLED and FAILED are terminal; a task
// is never destroyed, terminal tasks stay in the registry for audit/lookup.
type TaskStatus int

const (
	// Waiting to be assigned to a worker.
	TaskQueued TaskStatus = iota

	// Currently occupying resources on a worker.
	TaskAssigned

	// Ran for its full estimated execution time.
	TaskCompleted

	// Cancelled by request before completing.
	TaskCancelled

	// Defined for completeness of the state machine. No code path currently
	// drives a task into this state (there is no retry cap).
	TaskFailed
)

func (s TaskStatus) String() string {
	asString := [5]string{"QUEUED", "ASSIGNED", "COMPLETED", "CANCELLED", "FAILED"}
	return asString[s]
}

// Terminal returns whether the status permits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskCancelled || s == TaskFailed
}

// WorkerStatus for WorkerNodes.
type WorkerStatus int

const (
	// Accepting assignments.
	WorkerActive WorkerStatus = iota

	// Failed and out of rotation. May be reactivated; never removed.
	WorkerInactive
)

func (s WorkerStatus) String() string {
	asString := [2]string{"ACTIVE", "INACTIVE"}
	return asString[s]
}

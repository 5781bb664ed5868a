package stats

/*
This file defines all the metrics being collected. Each part of the system
that collects metrics references these names.
*/
const (
	/****************** Scheduler metrics ***************************/

	// Number of tasks submitted to the scheduler since startup.
	SchedSubmittedTasksCounter = "submittedTasksCounter"

	// Number of task to worker assignments made since startup.
	SchedAssignedTasksCounter = "assignedTasksCounter"

	// Number of tasks that ran to completion since startup.
	SchedCompletedTasksCounter = "completedTasksCounter"

	// Number of tasks put back on the queue after a worker failure or timeout.
	SchedRequeuedTasksCounter = "requeuedTasksCounter"

	// Number of tasks cancelled since startup.
	SchedCancelledTasksCounter = "cancelledTasksCounter"

	// Number of tasks whose simulated runtime exceeded the timeout threshold.
	SchedTimedOutTasksCounter = "timedOutTasksCounter"

	// Number of tasks waiting on the queue for a worker with free capacity.
	SchedQueuedTasksGauge = "queuedTasksGauge"

	/****************** Worker pool metrics *************************/

	// Number of workers marked failed since startup.
	SchedFailedWorkersCounter = "failedWorkersCounter"

	// Number of workers created by reactive auto-scaling since startup.
	SchedAutoScaledWorkersCounter = "autoScaledWorkersCounter"

	// Number of workers currently accepting assignments.
	SchedActiveWorkersGauge = "activeWorkersGauge"
)

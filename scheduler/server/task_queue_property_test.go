package server

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/taskfleet/taskfleet/scheduler/domain"
)

// For any enqueue sequence, dequeue must drain HIGH before MEDIUM before LOW
// and preserve arrival order within each tier, with size tracking the number
// of enqueued-but-not-dequeued tasks throughout.
func Test_TaskQueue_DequeueOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("dequeue respects tier precedence and tier FIFO", prop.ForAll(
		func(priorities []int) bool {
			q := NewTaskQueue()
			perTier := map[domain.Priority][]string{}
			for i, p := range priorities {
				id := fmt.Sprintf("T%d", i)
				task, err := domain.NewTask(id, 1, 1, 1, domain.Priority(p))
				if err != nil {
					return false
				}
				q.Enqueue(task)
				perTier[task.Priority()] = append(perTier[task.Priority()], id)
			}

			want := []string{}
			for _, tier := range []domain.Priority{domain.HighPriority, domain.MediumPriority, domain.LowPriority} {
				want = append(want, perTier[tier]...)
			}

			if q.Size() != len(want) {
				return false
			}
			for i, id := range want {
				got, ok := q.Dequeue()
				if !ok || got.ID() != id {
					return false
				}
				if q.Size() != len(want)-i-1 {
					return false
				}
			}
			_, ok := q.Dequeue()
			return !ok && q.IsEmpty()
		},
		gen.SliceOf(gen.IntRange(int(domain.LowPriority), int(domain.HighPriority))),
	))

	properties.TestingRun(t)
}

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/taskfleet/taskfleet/common/stats"
	"github.com/taskfleet/taskfleet/scheduler/api"
	"github.com/taskfleet/taskfleet/scheduler/domain"
)

// clusterdemo drives the scheduler through fixed scenarios on the simulated
// clock and prints the resulting task/worker state after each step.
func main() {
	logLevel := ""
	printStats := false

	rootCmd := &cobra.Command{
		Use:   "clusterdemo",
		Short: "clusterdemo exercises the cluster scheduler with fixed scenarios",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenarios {
				if err := runScenario(s, printStats); err != nil {
					return err
				}
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "warning", "Log everything at this level and above (error|warning|info|debug)")
	rootCmd.PersistentFlags().BoolVar(&printStats, "stats", false, "Render collected stats after each scenario")

	for _, s := range scenarios {
		s := s
		rootCmd.AddCommand(&cobra.Command{
			Use:   s.name,
			Short: s.desc,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runScenario(s, printStats)
			},
		})
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

type scenario struct {
	name string
	desc string
	run  func(c *api.ClusterScheduler) error
}

func runScenario(s scenario, printStats bool) error {
	fmt.Printf("=== %s: %s\n", s.name, s.desc)
	stat := stats.DefaultStatsReceiver().Scope("sched")
	c := api.NewClusterScheduler(stat)
	if err := s.run(c); err != nil {
		return err
	}
	if printStats {
		fmt.Println(string(stat.Render(true)))
	}
	fmt.Println()
	return nil
}

func dump(c *api.ClusterScheduler) {
	for _, t := range c.ListTasks() {
		fmt.Printf("  %+v\n", t)
	}
}

func dumpWorkers(c *api.ClusterScheduler) {
	for _, w := range c.ListWorkers() {
		fmt.Printf("  %+v\n", w)
	}
}

var scenarios = []scenario{
	{
		name: "register",
		desc: "register worker nodes",
		run: func(c *api.ClusterScheduler) error {
			if err := c.RegisterWorker("W1", 4, 16, 5); err != nil {
				return err
			}
			if err := c.RegisterWorker("W2", 8, 32, 10); err != nil {
				return err
			}
			dumpWorkers(c)
			return nil
		},
	},
	{
		name: "assign",
		desc: "submit tasks and assign them to the fastest fitting worker",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 4, 16, 5)
			c.RegisterWorker("W2", 8, 32, 10)
			err := c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 8, ExecTime: 10},
				{TaskID: "T2", CPU: 4, Memory: 16, ExecTime: 20},
			})
			dump(c)
			return err
		},
	},
	{
		name: "complete",
		desc: "task execution and completion on the simulated clock",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 4, 16, 5)
			c.SubmitTasks([]api.TaskConfig{{TaskID: "T1", CPU: 2, Memory: 8, ExecTime: 10}})
			c.WaitFor(10)
			dump(c)
			return nil
		},
	},
	{
		name: "saturate",
		desc: "second task queues when the only worker is full",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 2, 8, 5)
			c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 4, ExecTime: 10},
				{TaskID: "T2", CPU: 2, Memory: 4, ExecTime: 5},
			})
			dump(c)
			return nil
		},
	},
	{
		name: "failover",
		desc: "worker failure and task reassignment",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 6, 32, 5)
			c.RegisterWorker("W2", 8, 32, 10)
			c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 8, ExecTime: 10},
				{TaskID: "T2", CPU: 4, Memory: 16, ExecTime: 20},
			})
			dump(c)
			if _, err := c.SimulateWorkerFailure("W2"); err != nil {
				return err
			}
			dump(c)
			dumpWorkers(c)
			return nil
		},
	},
	{
		name: "priority",
		desc: "high priority tasks drain before low priority ones",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 2, 16, 5)
			c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 4, ExecTime: 10, Priority: domain.LowPriority},
				{TaskID: "T2", CPU: 2, Memory: 4, ExecTime: 5, Priority: domain.HighPriority},
			})
			dump(c)
			return nil
		},
	},
	{
		name: "autoscale",
		desc: "reactive scale-out when tasks are queued",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 2, 8, 5)
			c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 4, ExecTime: 10},
				{TaskID: "T2", CPU: 2, Memory: 4, ExecTime: 5},
			})
			dump(c)
			if w, ok := c.AutoScale(); ok {
				fmt.Printf("  scaled out: %+v\n", w)
			}
			dump(c)
			dumpWorkers(c)
			return nil
		},
	},
	{
		name: "timeout",
		desc: "task timeout and reassignment",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 2, 16, 5)
			c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 4, ExecTime: 10},
				{TaskID: "T2", CPU: 2, Memory: 4, ExecTime: 10},
			})
			dump(c)
			if err := c.SimulateTaskTimeout("T1", 13); err != nil {
				return err
			}
			dump(c)
			return nil
		},
	},
	{
		name: "cancel",
		desc: "task cancellation",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 4, 16, 5)
			c.SubmitTasks([]api.TaskConfig{{TaskID: "T1", CPU: 2, Memory: 4, ExecTime: 10}})
			if _, err := c.CancelTask("T1"); err != nil {
				return err
			}
			dump(c)
			return nil
		},
	},
	{
		name: "parallel",
		desc: "parallel execution, completion sweep and failover combined",
		run: func(c *api.ClusterScheduler) error {
			c.RegisterWorker("W1", 4, 16, 5)
			c.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 4, ExecTime: 10},
				{TaskID: "T2", CPU: 2, Memory: 4, ExecTime: 5},
			})
			c.WaitFor(10)
			dump(c)

			c2 := api.NewClusterScheduler(nil)
			c2.RegisterWorker("W1", 4, 16, 5)
			c2.RegisterWorker("W2", 8, 32, 10)
			c2.SubmitTasks([]api.TaskConfig{
				{TaskID: "T1", CPU: 2, Memory: 8, ExecTime: 10},
				{TaskID: "T2", CPU: 4, Memory: 16, ExecTime: 20},
			})
			dump(c2)
			c2.WaitFor(12)
			if _, err := c2.SimulateWorkerFailure("W2"); err != nil {
				return err
			}
			dump(c2)
			dumpWorkers(c2)
			return nil
		},
	},
}

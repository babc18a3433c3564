/***************************************************************
 *
 * Copyright (C) 2025, Trawl Project
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trawlproject/trawl/config"
	"github.com/trawlproject/trawl/executor"
	"github.com/trawlproject/trawl/modules"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [job-id service-id]...",
		Short: "Run fetch jobs",
		Long: `Run fetch jobs through the worker pool.  With no arguments every
job defined in the jobs file is submitted; otherwise arguments are taken
as job-id/service-id pairs selecting specific jobs.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args)%2 != 0 {
				return errors.New("arguments must be job-id service-id pairs")
			}
			return nil
		},
		RunE: runMain,
	}

	runWatch bool
)

func init() {
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Print executor statistics while jobs run")
	rootCmd.AddCommand(runCmd)
}

func runMain(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return errors.Wrap(err, "failed to load environment")
	}

	store, err := config.LoadJobStore(jobsFile, env)
	if err != nil {
		return errors.Wrapf(err, "failed to load job definitions from %s", jobsFile)
	}

	factory := func(jobID, serviceID string) (modules.Module, error) {
		job, err := store.Lookup(jobID, serviceID)
		if err != nil {
			return nil, err
		}
		return modules.New(job)
	}

	// Jobs run under a cancellable context so an interrupt aborts in-flight
	// transfers instead of waiting out the full shutdown timeout.
	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	exec := executor.New(runCtx, env.MaxWorkers, factory)

	submitted := 0
	if len(args) == 0 {
		for _, job := range store.All() {
			if exec.Submit(job.JobID, job.ServiceID) {
				submitted++
			}
		}
	} else {
		for i := 0; i < len(args); i += 2 {
			if exec.Submit(args[i], args[i+1]) {
				submitted++
			}
		}
	}
	if submitted == 0 {
		return errors.New("no jobs submitted")
	}
	log.Infof("Submitted %d jobs", submitted)

	if runWatch {
		go watchStats(runCtx, exec, submitted)
	}

	timeout := time.Duration(env.JobTimeout) * time.Second

	var group run.Group
	group.Add(run.SignalHandler(runCtx, os.Interrupt, syscall.SIGTERM))
	group.Add(func() error {
		exec.Shutdown(true, timeout)
		return nil
	}, func(error) {
		cancel()
	})
	if err := group.Run(); err != nil {
		var sigErr run.SignalError
		if !errors.As(err, &sigErr) {
			return err
		}
		log.Warnln("Interrupted, abandoning outstanding jobs:", sigErr)
	}

	stats := exec.Stats()
	printStats(stats)
	if stats.TotalFailed > 0 {
		return errors.Errorf("%d of %d jobs failed", stats.TotalFailed, submitted)
	}
	return nil
}

func watchStats(ctx context.Context, exec *executor.Executor, submitted int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := exec.Stats()
			fmt.Print("\033[H\033[2J")
			printStats(stats)
			if stats.CompletedJobs >= submitted {
				return
			}
		}
	}
}

func printStats(stats executor.Stats) {
	fmt.Printf("Submitted: %d\n", stats.TotalSubmitted)
	fmt.Printf("Completed: %d\n", stats.TotalCompleted)
	fmt.Printf("Failed:    %d\n", stats.TotalFailed)
	fmt.Printf("Running:   %d\n", stats.CurrentlyRunning)
	fmt.Printf("Queued:    %d\n", stats.QueueSize)
}

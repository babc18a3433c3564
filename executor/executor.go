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

// Package executor schedules fetch jobs across a bounded worker pool.
//
// Three independently locked regions guard the scheduler state: the FIFO
// queue, the active-job table (which also covers the append-only completed
// history), and the statistics counters.  Whenever the queue lock and the
// active-table lock are both needed, the queue lock is acquired first;
// never the reverse.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trawlproject/trawl/modules"
)

// JobRequest identifies one submitted unit of work.
type JobRequest struct {
	JobID       string
	ServiceID   string
	SubmittedAt time.Time
}

// JobResult is the immutable terminal record of one job.
type JobResult struct {
	JobID             string
	ServiceID         string
	Success           bool
	StartTime         time.Time
	EndTime           time.Time
	ExecutionDuration float64 // seconds
	ResultData        *modules.ExecutionResult
	ErrorMessage      string
}

// JobStatus is a point-in-time answer to a status query.
type JobStatus struct {
	Status            string // QUEUED, RUNNING, COMPLETED or FAILED
	JobID             string
	ServiceID         string
	QueuePosition     int // 1-based, only for QUEUED
	ExecutionDuration float64
	ErrorMessage      string
	StartTime         time.Time
	EndTime           time.Time
}

// ModuleFactory resolves a job's configuration and builds the module that
// will execute it.
type ModuleFactory func(jobID, serviceID string) (modules.Module, error)

type jobHandle struct {
	request *JobRequest
}

// Executor runs submitted jobs on at most maxWorkers concurrent workers,
// FIFO by submission order.
type Executor struct {
	maxWorkers int
	factory    ModuleFactory
	baseCtx    context.Context

	queueMu sync.Mutex
	queue   []*JobRequest

	// activeMu guards both the active table and the completed history.
	activeMu  sync.Mutex
	active    map[string]*jobHandle
	completed []*JobResult

	stats executorStats

	group errgroup.Group
}

// New builds an executor.  Jobs run under ctx; there is no per-job
// cancellation once a job has been accepted.
func New(ctx context.Context, maxWorkers int, factory ModuleFactory) *Executor {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	e := &Executor{
		maxWorkers: maxWorkers,
		factory:    factory,
		baseCtx:    ctx,
		active:     make(map[string]*jobHandle),
	}
	log.Infof("Job executor initialized with %d workers", maxWorkers)
	return e
}

func jobKey(jobID, serviceID string) string {
	return jobID + "_" + serviceID
}

// Submit queues a job for execution.  A job whose identical
// (jobID, serviceID) pair is still waiting in the queue is rejected.
// Returns whether the job was accepted.
func (e *Executor) Submit(jobID, serviceID string) bool {
	req := &JobRequest{JobID: jobID, ServiceID: serviceID, SubmittedAt: time.Now().UTC()}

	e.queueMu.Lock()
	for _, queued := range e.queue {
		if queued.JobID == jobID && queued.ServiceID == serviceID {
			e.queueMu.Unlock()
			log.Warnf("Job %s/%s already in queue", jobID, serviceID)
			return false
		}
	}
	e.queue = append(e.queue, req)
	queueSize := len(e.queue)
	e.queueMu.Unlock()

	e.stats.IncrementSubmitted()
	e.stats.SetQueueSize(queueSize)

	log.Infof("Job %s/%s submitted at queue position %d", jobID, serviceID, queueSize)

	e.drain()
	return true
}

// drain moves queued jobs onto free workers.  The pop from the queue and the
// registration in the active table happen as one atomic step under both
// locks (queue lock first); the worker goroutine is launched only after both
// locks are released so that completion handling can safely re-enter.
func (e *Executor) drain() {
	for {
		e.queueMu.Lock()
		e.activeMu.Lock()
		if len(e.active) >= e.maxWorkers || len(e.queue) == 0 {
			e.activeMu.Unlock()
			e.queueMu.Unlock()
			return
		}
		req := e.queue[0]
		e.queue = e.queue[1:]
		key := jobKey(req.JobID, req.ServiceID)
		e.active[key] = &jobHandle{request: req}
		queueSize := len(e.queue)
		running := len(e.active)
		e.activeMu.Unlock()
		e.queueMu.Unlock()

		e.stats.SetQueueSize(queueSize)
		e.stats.SetRunning(running)

		log.Infof("Job %s/%s started (%d running, %d queued)", req.JobID, req.ServiceID, running, queueSize)

		request := req
		e.group.Go(func() error {
			result := e.runJob(request)
			e.finishJob(key, result)
			return nil
		})
	}
}

// runJob executes one job end to end.  Any panic from module code is
// recovered at this boundary and becomes a failed JobResult.
func (e *Executor) runJob(req *JobRequest) (result *JobResult) {
	startTime := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			endTime := time.Now().UTC()
			log.Errorf("Job %s/%s panicked: %v", req.JobID, req.ServiceID, r)
			result = &JobResult{
				JobID:             req.JobID,
				ServiceID:         req.ServiceID,
				Success:           false,
				StartTime:         startTime,
				EndTime:           endTime,
				ExecutionDuration: endTime.Sub(startTime).Seconds(),
				ErrorMessage:      fmt.Sprintf("job execution panicked: %v", r),
			}
		}
	}()

	module, err := e.factory(req.JobID, req.ServiceID)
	if err != nil {
		endTime := time.Now().UTC()
		return &JobResult{
			JobID:             req.JobID,
			ServiceID:         req.ServiceID,
			Success:           false,
			StartTime:         startTime,
			EndTime:           endTime,
			ExecutionDuration: endTime.Sub(startTime).Seconds(),
			ErrorMessage:      "failed to create module: " + err.Error(),
		}
	}

	execution := modules.Execute(e.baseCtx, module)
	endTime := time.Now().UTC()

	result = &JobResult{
		JobID:             req.JobID,
		ServiceID:         req.ServiceID,
		Success:           execution.Success,
		StartTime:         startTime,
		EndTime:           endTime,
		ExecutionDuration: endTime.Sub(startTime).Seconds(),
		ResultData:        execution,
	}
	if !execution.Success {
		result.ErrorMessage = execution.Error
	}
	return result
}

// finishJob removes a completed job from the active table, records its
// terminal result and pulls the next queued job in.  Runs outside the drain
// locks; even a missing handle leaves the tables consistent.
func (e *Executor) finishJob(key string, result *JobResult) {
	e.activeMu.Lock()
	if _, ok := e.active[key]; ok {
		delete(e.active, key)
	} else {
		log.Warnf("Completion for unknown job %s", key)
	}
	running := len(e.active)
	e.completed = append(e.completed, result)
	e.activeMu.Unlock()

	if result.Success {
		e.stats.IncrementCompleted()
	} else {
		e.stats.IncrementFailed()
	}
	e.stats.SetRunning(running)

	log.Infof("Job %s/%s finished (success=%t, %.2fs)", result.JobID, result.ServiceID,
		result.Success, result.ExecutionDuration)

	e.drain()
}

// Status reports where a job currently is: the active table first, then the
// queue with a 1-based position, then the completed history.  Nil when the
// job is unknown.
func (e *Executor) Status(jobID, serviceID string) *JobStatus {
	key := jobKey(jobID, serviceID)

	e.activeMu.Lock()
	if _, ok := e.active[key]; ok {
		e.activeMu.Unlock()
		return &JobStatus{Status: "RUNNING", JobID: jobID, ServiceID: serviceID}
	}
	e.activeMu.Unlock()

	e.queueMu.Lock()
	for i, req := range e.queue {
		if req.JobID == jobID && req.ServiceID == serviceID {
			e.queueMu.Unlock()
			return &JobStatus{
				Status: "QUEUED", JobID: jobID, ServiceID: serviceID,
				QueuePosition: i + 1,
			}
		}
	}
	e.queueMu.Unlock()

	e.activeMu.Lock()
	defer e.activeMu.Unlock()
	for _, result := range e.completed {
		if result.JobID == jobID && result.ServiceID == serviceID {
			status := "COMPLETED"
			if !result.Success {
				status = "FAILED"
			}
			return &JobStatus{
				Status: status, JobID: jobID, ServiceID: serviceID,
				ExecutionDuration: result.ExecutionDuration,
				ErrorMessage:      result.ErrorMessage,
				StartTime:         result.StartTime,
				EndTime:           result.EndTime,
			}
		}
	}
	return nil
}

// Stats merges the counter snapshot with live queue and active sizes taken
// under lock.
func (e *Executor) Stats() Stats {
	snapshot := e.stats.Snapshot()

	e.queueMu.Lock()
	e.activeMu.Lock()
	snapshot.QueueSize = len(e.queue)
	snapshot.CurrentlyRunning = len(e.active)
	snapshot.CompletedJobs = len(e.completed)
	e.activeMu.Unlock()
	e.queueMu.Unlock()

	snapshot.MaxWorkers = e.maxWorkers
	return snapshot
}

// Shutdown stops accepting the notion of further progress tracking and, when
// wait is set, blocks until in-flight and queued jobs finish or the timeout
// expires.  A final statistics snapshot is always logged.
func (e *Executor) Shutdown(wait bool, timeout time.Duration) {
	finalStats := e.Stats()
	log.Infof("Shutting down job executor (wait=%t, timeout=%s): %+v", wait, timeout, finalStats)

	if wait {
		done := make(chan struct{})
		go func() {
			_ = e.group.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			log.Warnf("Shutdown timed out after %s with jobs still outstanding", timeout)
		}
	}

	log.Infof("Job executor shutdown completed: %+v", e.Stats())
}

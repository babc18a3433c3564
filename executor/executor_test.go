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

package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trawlproject/trawl/fetcher"
	"github.com/trawlproject/trawl/modules"
)

// testModule is a minimal Module whose stages can be steered from the test.
type testModule struct {
	name     string
	delay    time.Duration
	fetchErr error
	panicMsg string

	// gate, when set, blocks Fetch until released
	gate chan struct{}

	// onRunning and onDone, when set, bracket the body of Fetch
	onRunning func()
	onDone    func()
}

func (m *testModule) Name() string                       { return m.name }
func (m *testModule) Cleanup()                           {}
func (m *testModule) Initialize(_ context.Context) error { return nil }
func (m *testModule) ValidateConfig() error              { return nil }

func (m *testModule) Fetch(_ context.Context) (*fetcher.FetchResult, error) {
	if m.onRunning != nil {
		m.onRunning()
	}
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.gate != nil {
		<-m.gate
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.onDone != nil {
		m.onDone()
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return &fetcher.FetchResult{Success: true, FilesDownloaded: []string{"/tmp/a.csv"}}, nil
}

func (m *testModule) Validate(_ context.Context, _ *fetcher.FetchResult) (*modules.ValidationResult, error) {
	return &modules.ValidationResult{Success: true, ValidFiles: []string{"/tmp/a.csv"}}, nil
}

func okFactory(jobID, serviceID string) (modules.Module, error) {
	return &testModule{name: "test"}, nil
}

func waitForCompleted(t *testing.T, e *Executor, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.Stats().CompletedJobs >= want
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubmitAndComplete(t *testing.T) {
	e := New(context.Background(), 2, okFactory)

	require.True(t, e.Submit("job1", "ch_1"))
	waitForCompleted(t, e, 1)

	status := e.Status("job1", "ch_1")
	require.NotNil(t, status)
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Empty(t, status.ErrorMessage)
	assert.False(t, status.EndTime.Before(status.StartTime))

	stats := e.Stats()
	assert.Equal(t, 1, stats.TotalSubmitted)
	assert.Equal(t, 1, stats.TotalCompleted)
	assert.Equal(t, 0, stats.TotalFailed)
	assert.Equal(t, 0, stats.QueueSize)
	assert.Equal(t, 0, stats.CurrentlyRunning)
	assert.Equal(t, 2, stats.MaxWorkers)
}

func TestDuplicateQueuedSubmissionRejected(t *testing.T) {
	gate := make(chan struct{})
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{name: "test", gate: gate}, nil
	}
	// One worker so the second submission stays in the queue.
	e := New(context.Background(), 1, factory)

	require.True(t, e.Submit("blocker", "ch_0"))
	require.Eventually(t, func() bool {
		s := e.Status("blocker", "ch_0")
		return s != nil && s.Status == "RUNNING"
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, e.Submit("job1", "ch_1"))
	assert.False(t, e.Submit("job1", "ch_1"), "identical queued pair must be rejected")
	assert.True(t, e.Submit("job1", "ch_2"), "same job on a different channel is distinct")

	close(gate)
	waitForCompleted(t, e, 3)

	// Once the pair has left the queue it can be submitted again.
	assert.True(t, e.Submit("job1", "ch_1"))
	waitForCompleted(t, e, 4)
}

func TestWorkerLimitRespected(t *testing.T) {
	const maxWorkers = 3
	const totalJobs = 10

	var running, peak int32
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{
			name:  "test",
			delay: 20 * time.Millisecond,
			onRunning: func() {
				now := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
						break
					}
				}
			},
			onDone: func() {
				atomic.AddInt32(&running, -1)
			},
		}, nil
	}

	e := New(context.Background(), maxWorkers, factory)
	for i := 0; i < totalJobs; i++ {
		require.True(t, e.Submit(fmt.Sprintf("job%d", i), "ch_1"))
	}
	waitForCompleted(t, e, totalJobs)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(maxWorkers))

	stats := e.Stats()
	assert.Equal(t, totalJobs, stats.TotalSubmitted)
	assert.Equal(t, totalJobs, stats.TotalCompleted+stats.TotalFailed)
	assert.Equal(t, totalJobs, stats.TotalCompleted)
}

func TestQueuedStatusReportsPosition(t *testing.T) {
	gate := make(chan struct{})
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{name: "test", gate: gate}, nil
	}
	e := New(context.Background(), 1, factory)

	require.True(t, e.Submit("blocker", "ch_0"))
	require.Eventually(t, func() bool {
		s := e.Status("blocker", "ch_0")
		return s != nil && s.Status == "RUNNING"
	}, 5*time.Second, 10*time.Millisecond)

	require.True(t, e.Submit("job1", "ch_1"))
	require.True(t, e.Submit("job2", "ch_1"))

	first := e.Status("job1", "ch_1")
	require.NotNil(t, first)
	assert.Equal(t, "QUEUED", first.Status)
	assert.Equal(t, 1, first.QueuePosition)

	second := e.Status("job2", "ch_1")
	require.NotNil(t, second)
	assert.Equal(t, "QUEUED", second.Status)
	assert.Equal(t, 2, second.QueuePosition)

	assert.Nil(t, e.Status("nope", "ch_9"))

	close(gate)
	waitForCompleted(t, e, 3)
}

func TestFetchFailureProducesFailedStatus(t *testing.T) {
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{name: "test", fetchErr: errors.New("connection refused")}, nil
	}
	e := New(context.Background(), 2, factory)

	require.True(t, e.Submit("job1", "ch_1"))
	waitForCompleted(t, e, 1)

	status := e.Status("job1", "ch_1")
	require.NotNil(t, status)
	assert.Equal(t, "FAILED", status.Status)
	assert.Contains(t, status.ErrorMessage, "fetch failed")

	stats := e.Stats()
	assert.Equal(t, 1, stats.TotalFailed)
	assert.Equal(t, 0, stats.TotalCompleted)
}

func TestFactoryErrorFailsJob(t *testing.T) {
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return nil, errors.Errorf("no job config for %s/%s", jobID, serviceID)
	}
	e := New(context.Background(), 1, factory)

	require.True(t, e.Submit("ghost", "ch_1"))
	waitForCompleted(t, e, 1)

	status := e.Status("ghost", "ch_1")
	require.NotNil(t, status)
	assert.Equal(t, "FAILED", status.Status)
	assert.Contains(t, status.ErrorMessage, "failed to create module")
}

func TestPanicRecoveredAsFailure(t *testing.T) {
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{name: "test", panicMsg: "boom"}, nil
	}
	e := New(context.Background(), 2, factory)

	require.True(t, e.Submit("job1", "ch_1"))
	require.True(t, e.Submit("job2", "ch_1"))
	waitForCompleted(t, e, 2)

	status := e.Status("job1", "ch_1")
	require.NotNil(t, status)
	assert.Equal(t, "FAILED", status.Status)
	assert.Contains(t, status.ErrorMessage, "boom")

	// The pool survives a panic and keeps running new work.
	ok := New(context.Background(), 2, okFactory)
	require.True(t, ok.Submit("job3", "ch_1"))
	waitForCompleted(t, ok, 1)
}

func TestConcurrentSubmissionsAllComplete(t *testing.T) {
	const totalJobs = 25

	e := New(context.Background(), 4, okFactory)

	var wg sync.WaitGroup
	for i := 0; i < totalJobs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e.Submit(fmt.Sprintf("job%d", n), "ch_1")
		}(i)
	}
	wg.Wait()
	waitForCompleted(t, e, totalJobs)

	stats := e.Stats()
	assert.Equal(t, totalJobs, stats.TotalSubmitted)
	assert.Equal(t, totalJobs, stats.CompletedJobs)
	assert.Equal(t, 0, stats.QueueSize)
	assert.Equal(t, 0, stats.CurrentlyRunning)
}

func TestShutdownWaitsForOutstandingJobs(t *testing.T) {
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{name: "test", delay: 30 * time.Millisecond}, nil
	}
	e := New(context.Background(), 2, factory)

	for i := 0; i < 5; i++ {
		require.True(t, e.Submit(fmt.Sprintf("job%d", i), "ch_1"))
	}
	e.Shutdown(true, 10*time.Second)

	stats := e.Stats()
	assert.Equal(t, 5, stats.CompletedJobs)
	assert.Equal(t, 0, stats.CurrentlyRunning)
	assert.Equal(t, 0, stats.QueueSize)
}

func TestShutdownWithoutWaitReturnsImmediately(t *testing.T) {
	gate := make(chan struct{})
	factory := func(jobID, serviceID string) (modules.Module, error) {
		return &testModule{name: "test", gate: gate}, nil
	}
	e := New(context.Background(), 1, factory)

	require.True(t, e.Submit("job1", "ch_1"))
	require.Eventually(t, func() bool {
		s := e.Status("job1", "ch_1")
		return s != nil && s.Status == "RUNNING"
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	e.Shutdown(false, time.Second)
	assert.Less(t, time.Since(start), time.Second)

	close(gate)
	waitForCompleted(t, e, 1)
}

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

import "sync"

// Stats is a point-in-time snapshot of the executor's counters.
type Stats struct {
	TotalSubmitted   int `json:"total_submitted"`
	TotalCompleted   int `json:"total_completed"`
	TotalFailed      int `json:"total_failed"`
	CurrentlyRunning int `json:"currently_running"`
	QueueSize        int `json:"queue_size"`
	CompletedJobs    int `json:"completed_jobs"`
	MaxWorkers       int `json:"max_workers"`
}

// executorStats guards the counters behind explicit mutation methods.
type executorStats struct {
	mu               sync.Mutex
	totalSubmitted   int
	totalCompleted   int
	totalFailed      int
	currentlyRunning int
	queueSize        int
}

func (s *executorStats) IncrementSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSubmitted++
}

func (s *executorStats) IncrementCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalCompleted++
}

func (s *executorStats) IncrementFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalFailed++
}

func (s *executorStats) SetQueueSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueSize = n
}

func (s *executorStats) SetRunning(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentlyRunning = n
}

func (s *executorStats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		TotalSubmitted:   s.totalSubmitted,
		TotalCompleted:   s.totalCompleted,
		TotalFailed:      s.totalFailed,
		CurrentlyRunning: s.currentlyRunning,
		QueueSize:        s.queueSize,
	}
}

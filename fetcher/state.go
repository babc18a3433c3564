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

package fetcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// TransferState records which remote files a transfer key has already
// downloaded, allowing a later run to resume after a crash.  State files are
// scoped per (instance, channel) and never shared between concurrent writers
// against the same key.
type TransferState struct {
	ProcessedFiles []string `json:"processed_files"`
	RemainingFiles []string `json:"remaining_files"`
	Timestamp      string   `json:"timestamp"`
}

func stateFilePath(cfg *TransferConfig) string {
	dir := cfg.StateDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("transfer_state_%s_%s.json", cfg.InstanceID, cfg.ChannelID))
}

// SaveState persists the processed/remaining partition for the transfer key.
// Persistence failures are logged, never fatal.
func SaveState(cfg *TransferConfig, processedFiles, remainingFiles []string) {
	state := TransferState{
		ProcessedFiles: processedFiles,
		RemainingFiles: remainingFiles,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
	if state.ProcessedFiles == nil {
		state.ProcessedFiles = []string{}
	}
	if state.RemainingFiles == nil {
		state.RemainingFiles = []string{}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Errorf("Failed to marshal transfer state: %v", err)
		return
	}
	path := stateFilePath(cfg)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Errorf("Failed to save transfer state to %s: %v", path, err)
		return
	}
	log.Debugf("State saved to %s", path)
}

// LoadState returns the persisted state for the transfer key, or nil when
// none exists or it cannot be read.
func LoadState(cfg *TransferConfig) *TransferState {
	path := stateFilePath(cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("Failed to load transfer state from %s: %v", path, err)
		}
		return nil
	}
	var state TransferState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Errorf("Failed to parse transfer state in %s: %v", path, err)
		return nil
	}
	log.Debugf("State loaded from %s", path)
	return &state
}

// ClearState removes the persisted state for the transfer key.
func ClearState(cfg *TransferConfig) {
	path := stateFilePath(cfg)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Errorf("Failed to clear transfer state %s: %v", path, err)
		return
	}
	log.Debugf("State cleared: %s", path)
}

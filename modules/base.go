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

package modules

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/trawlproject/trawl/config"
	"github.com/trawlproject/trawl/fetcher"
)

// base carries the state and helpers shared by every concrete module.
type base struct {
	job      *config.JobConfig
	transfer *fetcher.TransferConfig
	tempDir  string
}

// prepareTempDir creates this run's scratch download directory under the
// environment temp path.
func (b *base) prepareTempDir() error {
	root := os.TempDir()
	if b.job.Env != nil && b.job.Env.TempPath != "" {
		root = b.job.Env.TempPath
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.Wrapf(err, "failed to create temp root %s", root)
	}
	dir, err := os.MkdirTemp(root, fmt.Sprintf("%s_%s_", b.job.JobID, b.job.ServiceID))
	if err != nil {
		return errors.Wrap(err, "failed to create temp download directory")
	}
	b.tempDir = dir
	return nil
}

// finishTransferConfig applies the job identity and the layered override
// values (channel > fetcher > raw) on top of a mapped transfer config.
func (b *base) finishTransferConfig(cfg *fetcher.TransferConfig) {
	cfg.LocalDownloadPath = b.tempDir
	cfg.InstanceID = b.job.JobID
	cfg.ChannelID = b.job.ServiceID
	if b.job.Env != nil && b.job.Env.TempPath != "" {
		cfg.StateDir = b.job.Env.TempPath
	}
	if timeout := cast.ToInt(b.job.Value("timeout", 0)); timeout > 0 {
		cfg.ConnectionTimeout = timeout
	}
	if retries := cast.ToInt(b.job.Value("retry_count", 0)); retries > 0 {
		cfg.MaxReconnectAttempts = retries
	}
	b.transfer = cfg
}

// validateFetched checks the downloaded files on disk and decides the upload
// folder.  A run with no valid files does not pass validation.
func (b *base) validateFetched(moduleName string, files []string) *ValidationResult {
	var valid, invalid []string
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() == 0 {
			log.Warnf("Invalid fetched file: %s", f)
			invalid = append(invalid, f)
			continue
		}
		valid = append(valid, f)
	}

	return &ValidationResult{
		Success:      len(valid) > 0,
		ValidFiles:   valid,
		InvalidFiles: invalid,
		UploadFolder: fmt.Sprintf("data/%s/%s/validated", moduleName, b.job.ServiceID),
	}
}

// Cleanup removes the scratch download directory.
func (b *base) Cleanup() {
	if b.tempDir == "" {
		return
	}
	if err := os.RemoveAll(b.tempDir); err != nil {
		log.Debugf("Failed to remove temp directory %s: %v", b.tempDir, err)
	}
}

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
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trawlproject/trawl/config"
	"github.com/trawlproject/trawl/fetcher"
)

// FTPModule fetches files from FTP and SFTP servers.
type FTPModule struct {
	base
}

func NewFTPModule(job *config.JobConfig) *FTPModule {
	return &FTPModule{base{job: job}}
}

func (m *FTPModule) Name() string { return "ftp" }

func (m *FTPModule) Initialize(_ context.Context) error {
	if err := m.prepareTempDir(); err != nil {
		return err
	}
	m.finishTransferConfig(fetcher.MapFTPConfig(m.job.Raw))
	log.Infof("FTP module initialized for %s@%s", m.transfer.User, m.transfer.Host)
	return nil
}

func (m *FTPModule) ValidateConfig() error {
	if m.transfer == nil {
		return errors.New("module not initialized")
	}
	if m.transfer.Host == "" {
		return errors.New("missing required config field: host")
	}
	if m.transfer.User == "" {
		return errors.New("missing required config field: username")
	}
	return nil
}

func (m *FTPModule) Fetch(ctx context.Context) (*fetcher.FetchResult, error) {
	return fetcher.RunFileTransfer(ctx, m.transfer), nil
}

func (m *FTPModule) Validate(_ context.Context, fetch *fetcher.FetchResult) (*ValidationResult, error) {
	return m.validateFetched(m.Name(), fetch.FilesDownloaded), nil
}

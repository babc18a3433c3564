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

// LocalModule fetches files from a directory on the local host, typically a
// mounted pickup share.
type LocalModule struct {
	base
}

func NewLocalModule(job *config.JobConfig) *LocalModule {
	return &LocalModule{base{job: job}}
}

func (m *LocalModule) Name() string { return "local" }

func (m *LocalModule) Initialize(_ context.Context) error {
	if err := m.prepareTempDir(); err != nil {
		return err
	}
	m.finishTransferConfig(fetcher.MapLocalConfig(m.job.Raw))
	log.Infof("Local module initialized for path %s", m.transfer.Path)
	return nil
}

func (m *LocalModule) ValidateConfig() error {
	if m.transfer == nil {
		return errors.New("module not initialized")
	}
	if m.transfer.Path == "" || m.transfer.Path == "/" {
		return errors.New("missing required config field: scope path")
	}
	return nil
}

func (m *LocalModule) Fetch(ctx context.Context) (*fetcher.FetchResult, error) {
	return fetcher.RunFileTransfer(ctx, m.transfer), nil
}

func (m *LocalModule) Validate(_ context.Context, fetch *fetcher.FetchResult) (*ValidationResult, error) {
	return m.validateFetched(m.Name(), fetch.FilesDownloaded), nil
}

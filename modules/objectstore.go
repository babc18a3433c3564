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

// ObjectStoreModule fetches objects from S3-compatible storage.
type ObjectStoreModule struct {
	base
}

func NewObjectStoreModule(job *config.JobConfig) *ObjectStoreModule {
	return &ObjectStoreModule{base{job: job}}
}

func (m *ObjectStoreModule) Name() string { return "s3" }

func (m *ObjectStoreModule) Initialize(_ context.Context) error {
	if err := m.prepareTempDir(); err != nil {
		return err
	}
	m.finishTransferConfig(fetcher.MapObjectStoreConfig(m.job.Raw))
	log.Infof("Object store module initialized for bucket %s (%s)", m.transfer.Bucket, m.transfer.Region)
	return nil
}

func (m *ObjectStoreModule) ValidateConfig() error {
	if m.transfer == nil {
		return errors.New("module not initialized")
	}
	if m.transfer.Bucket == "" {
		return errors.New("missing required config field: bucket")
	}
	if m.transfer.AccessKeyID == "" || m.transfer.SecretAccessKey == "" {
		return errors.New("missing required config field: credentials")
	}
	return nil
}

func (m *ObjectStoreModule) Fetch(ctx context.Context) (*fetcher.FetchResult, error) {
	return fetcher.RunFileTransfer(ctx, m.transfer), nil
}

func (m *ObjectStoreModule) Validate(_ context.Context, fetch *fetcher.FetchResult) (*ValidationResult, error) {
	return m.validateFetched(m.Name(), fetch.FilesDownloaded), nil
}

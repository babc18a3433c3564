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
	"strings"

	"github.com/pkg/errors"

	"github.com/trawlproject/trawl/config"
)

// New builds the module matching the job's source type.
func New(job *config.JobConfig) (Module, error) {
	switch strings.ToLower(job.SourceType) {
	case "s3":
		return NewObjectStoreModule(job), nil
	case "ftp", "sftp":
		return NewFTPModule(job), nil
	case "local":
		return NewLocalModule(job), nil
	}
	return nil, errors.Errorf("unknown source type: %s", job.SourceType)
}

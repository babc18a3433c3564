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

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// UploadResult describes one upload batch.
type UploadResult struct {
	Success       bool
	BatchID       string
	UploadedFiles []string
	UploadFolder  string
	Error         string
}

// Upload ships validated files to the target store.  The actual transfer is
// not implemented yet; the batch is acknowledged as uploaded so the rest of
// the lifecycle can be exercised end to end.
func Upload(_ context.Context, validation *ValidationResult) *UploadResult {
	batchID := uuid.NewString()
	log.Infof("Upload batch %s: %d file(s) to %s",
		batchID, len(validation.ValidFiles), validation.UploadFolder)

	return &UploadResult{
		Success:       true,
		BatchID:       batchID,
		UploadedFiles: validation.ValidFiles,
		UploadFolder:  validation.UploadFolder,
	}
}

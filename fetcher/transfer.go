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
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// RunFileTransfer drives the whole pipeline for one transfer config:
// resolve the connection, list the remote tree, filter, sort, download.
// It never returns an error; failures are reported through FetchResult so a
// higher-level job always gets a terminal record.
func RunFileTransfer(ctx context.Context, cfg *TransferConfig) *FetchResult {
	cfg.ApplyDefaults()

	fs, _ := ResolveConnection(ctx, cfg)
	if fs == nil {
		return &FetchResult{
			Success: false,
			Error:   fmt.Sprintf("failed to establish %s connection to %s", cfg.Type, cfg.Host),
		}
	}
	defer func() {
		if err := fs.Close(); err != nil {
			log.Debugf("Error closing connection: %v", err)
		}
	}()

	files, skippedFolders := ListFiles(ctx, fs, cfg)
	totalFound := len(files)
	log.Infof("Listing found %d files under %s (%d folders skipped)", totalFound, cfg.Path, len(skippedFolders))

	files = FilterFiles(files, cfg)
	afterFiltering := len(files)
	log.Infof("%d files remain after filtering", afterFiltering)

	files = SortFiles(files, cfg)
	afterSorting := len(files)

	successCount, failedCount := DownloadFiles(ctx, fs, files, cfg)
	totalCount := successCount + failedCount

	// Report only files actually present on disk.
	downloaded := make([]string, 0, len(files))
	for _, f := range files {
		localPath := localDestination(cfg, f)
		if _, err := os.Stat(localPath); err != nil {
			continue
		}
		if abs, err := filepath.Abs(localPath); err == nil {
			localPath = abs
		}
		downloaded = append(downloaded, localPath)
	}

	// A batch counts as successful when anything came down; per-file failures
	// are reported through the metadata and the error string.
	result := &FetchResult{
		Success:         successCount > 0,
		FilesDownloaded: downloaded,
		Metadata: map[string]any{
			"total_found":     totalFound,
			"after_filtering": afterFiltering,
			"after_sorting":   afterSorting,
			"downloaded":      successCount,
			"failed":          failedCount,
			"skipped_folders": skippedFolders,
		},
	}
	if failedCount > 0 {
		result.Error = fmt.Sprintf("%d of %d files failed to download", failedCount, totalCount)
	} else if successCount == 0 {
		result.Error = "no files to download"
	}
	return result
}

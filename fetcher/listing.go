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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// listingRetryInitialInterval is the first backoff delay between listing
// attempts; subsequent delays double (0.5s, 1s, 2s, ...).
const listingRetryInitialInterval = 500 * time.Millisecond

// shouldSkipFolder reports whether a directory matches the configured
// exclude-folder name list.
func shouldSkipFolder(folderPath string, excludeFolders []string) bool {
	folderName := baseName(folderPath)
	for _, excluded := range excludeFolders {
		if folderName == strings.TrimSpace(excluded) {
			return true
		}
	}
	return false
}

func baseName(p string) string {
	p = strings.TrimRight(p, "/")
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// listDirWithRetry lists one directory, retrying with exponential backoff up
// to the configured attempt ceiling before giving up on the subtree.
func listDirWithRetry(ctx context.Context, fs RemoteFS, dir string, maxRetries int) ([]RemoteEntry, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = listingRetryInitialInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 1 * time.Minute

	var entries []RemoteEntry
	attempt := 0
	operation := func() error {
		var err error
		entries, err = fs.List(ctx, dir)
		if err != nil {
			attempt++
			log.Errorf("Failed to list directory %s (attempt %d/%d): %v", dir, attempt, maxRetries+1, err)
		}
		return err
	}

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx))
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFiles recursively enumerates files under the configured root path.
// A subtree whose listing keeps failing is abandoned with an error log; the
// rest of the traversal continues.  Returns the flattened file list and the
// paths of folders skipped by the exclude list.
func ListFiles(ctx context.Context, fs RemoteFS, cfg *TransferConfig) ([]FileEntry, []string) {
	if fs == nil {
		log.Error("No filesystem provided for listing")
		return nil, nil
	}

	root := cfg.Path
	if root == "" {
		root = "/"
	}
	log.Infof("Listing files from: %s", root)

	var files []FileEntry
	var skippedFolders []string
	listDirRecursive(ctx, fs, root, cfg, &files, &skippedFolders, 0)

	if len(skippedFolders) > 0 {
		log.Infof("Folders skipped during listing: %s", strings.Join(skippedFolders, ", "))
	}
	log.Infof("Found %d files", len(files))
	return files, skippedFolders
}

func listDirRecursive(ctx context.Context, fs RemoteFS, dir string, cfg *TransferConfig,
	files *[]FileEntry, skippedFolders *[]string, depth int) {

	entries, err := listDirWithRetry(ctx, fs, dir, cfg.MaxReconnectAttempts)
	if err != nil {
		// Non-fatal: the subtree is dropped, the traversal goes on.
		log.Errorf("Abandoning directory %s after repeated listing failures: %v", dir, err)
		return
	}
	log.Debugf("Found %d items in %s", len(entries), dir)

	for _, entry := range entries {
		if entry.IsDir {
			if shouldSkipFolder(entry.Path, cfg.ExcludeFolders) {
				log.Infof("SKIP FOLDER: %s (matches excluded folder name)", entry.Path)
				*skippedFolders = append(*skippedFolders, entry.Path)
				continue
			}
			if cfg.SkipSubFolders {
				log.Debugf("SKIP SUBFOLDER: %s (skip_subfolders enabled)", entry.Path)
				continue
			}
			listDirRecursive(ctx, fs, entry.Path, cfg, files, skippedFolders, depth+1)
			continue
		}

		mtime := entry.MTime
		if mtime.IsZero() {
			mtime = time.Now()
		}
		*files = append(*files, FileEntry{
			Name:  entry.Name,
			Path:  entry.Path,
			Size:  entry.Size,
			MTime: mtime,
			Type:  entryTypeFile,
		})
		log.Debugf("FOUND FILE: %s - Size: %s - Modified: %s", entry.Name, FormatSize(entry.Size), mtime)
	}
}

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
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// localDestination computes where a remote file lands on disk.  With
// AppendFullPath the remote path is reproduced under the download dir
// (normalized to a relative path); otherwise only the bare filename is used.
func localDestination(cfg *TransferConfig, f FileEntry) string {
	if !cfg.AppendFullPath {
		return filepath.Join(cfg.LocalDownloadPath, f.Name)
	}
	relative := f.Path
	if cfg.SkipFrontSlashPath {
		relative = strings.TrimPrefix(relative, "/")
	} else if cfg.AddFrontSlashPath && !strings.HasPrefix(relative, "/") {
		relative = "/" + relative
	}
	// Never let the remote path escape the download directory.
	relative = strings.TrimPrefix(relative, "/")
	return filepath.Join(cfg.LocalDownloadPath, filepath.FromSlash(relative))
}

// downloadOne copies a single remote file to disk.
func downloadOne(ctx context.Context, fs RemoteFS, remotePath, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create local directory for %s", localPath)
	}

	reader, err := fs.Open(ctx, remotePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open remote file %s", remotePath)
	}
	defer reader.Close()

	writer, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create local file %s", localPath)
	}
	defer writer.Close()

	start := time.Now()
	written, err := io.Copy(writer, reader)
	if err != nil {
		return errors.Wrapf(err, "transfer of %s failed", remotePath)
	}
	elapsed := time.Since(start)
	log.Infof("DOWNLOAD SUCCESS: %s (%s) in %.2fs", remotePath, FormatSize(written), elapsed.Seconds())
	return nil
}

// DownloadFiles downloads the file list with per-file retry, size
// verification and persisted resume state.  Returns the number of successful
// downloads (including previously processed files when resuming) and the
// number of files that did not make it to disk this run.
func DownloadFiles(ctx context.Context, fs RemoteFS, files []FileEntry, cfg *TransferConfig) (successCount, failedCount int) {
	if len(files) == 0 {
		log.Info("No files to download")
		return 0, 0
	}

	log.Infof("Starting download: %d files to %s", len(files), cfg.LocalDownloadPath)

	var processedFiles []string
	if state := LoadState(cfg); state != nil && len(state.ProcessedFiles) > 0 && cfg.ResumeTransfer {
		processedFiles = state.ProcessedFiles
		processedSet := make(map[string]struct{}, len(processedFiles))
		for _, p := range processedFiles {
			processedSet[p] = struct{}{}
		}
		remaining := files[:0:0]
		for _, f := range files {
			if _, done := processedSet[f.Path]; !done {
				remaining = append(remaining, f)
			}
		}
		files = remaining
		log.Infof("Resuming: %d done, %d remaining", len(processedFiles), len(files))
	}

	totalCount := len(files) + len(processedFiles)

	if err := os.MkdirAll(cfg.LocalDownloadPath, 0755); err != nil {
		log.Errorf("Failed to create download directory %s: %v", cfg.LocalDownloadPath, err)
		return len(processedFiles), len(files)
	}

	// Consistent processing order regardless of what the sort engine chose
	// to emphasize.
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	successCount = len(processedFiles)
	skippedCount := 0
	errorCount := 0
	var failedFiles []string

	SaveState(cfg, processedFiles, remotePaths(files))

	for i, f := range files {
		localPath := localDestination(cfg, f)
		log.Infof("[%d/%d] %s (%s)", i+1, len(files), f.Name, FormatSize(f.Size))

		if _, err := os.Stat(localPath); err == nil && !cfg.OverwriteExisting {
			log.Infof("SKIPPED: %s (exists)", f.Name)
			skippedCount++
			continue
		}

		if downloadWithRetry(ctx, &fs, f, localPath, cfg) {
			successCount++
			processedFiles = append(processedFiles, f.Path)

			if cfg.RenameAfterFetching {
				renameRemote(ctx, fs, f.Path, cfg.FileParsedString)
			}

			SaveState(cfg, processedFiles, remotePaths(files[i+1:]))
		} else {
			errorCount++
			failedFiles = append(failedFiles, f.Name)
		}
	}

	log.Infof("Download complete: %d success, %d skipped, %d failed", successCount, skippedCount, errorCount)
	if errorCount > 0 {
		log.Errorf("Failed files: %s", strings.Join(failedFiles, ", "))
	}

	if errorCount == 0 && skippedCount == 0 {
		ClearState(cfg)
		log.Info("State cleared - all files processed")
	} else {
		SaveState(cfg, processedFiles, []string{})
	}

	return successCount, totalCount - successCount
}

// downloadWithRetry attempts one file up to the configured retry ceiling,
// verifying the byte count after each raw transfer and re-resolving a dead
// connection between attempts.
func downloadWithRetry(ctx context.Context, fs *RemoteFS, f FileEntry, localPath string, cfg *TransferConfig) bool {
	maxRetries := cfg.MaxReconnectAttempts
	retryDelay := time.Duration(cfg.ReconnectDelaySeconds) * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Infof("Retry %d/%d for %s", attempt, maxRetries, f.Name)
			if *fs == nil || !(*fs).Alive() {
				time.Sleep(retryDelay)
				fresh, _ := ResolveConnection(ctx, cfg)
				if fresh == nil {
					log.Error("Reconnection failed")
					continue
				}
				*fs = fresh
			}
		}

		if err := downloadOne(ctx, *fs, f.Path, localPath); err != nil {
			log.Errorf("DOWNLOAD ERROR: %v", err)
			continue
		}

		info, err := os.Stat(localPath)
		if err != nil {
			log.Errorf("File not found after download: %s", f.Name)
			continue
		}
		if info.Size() != f.Size {
			// A short or long file is corrupt; remove it and spend a retry.
			log.Errorf("SIZE MISMATCH: %s - expected %s, got %s", f.Name, FormatSize(f.Size), FormatSize(info.Size()))
			if err := os.Remove(localPath); err != nil {
				log.Errorf("Failed to remove partial file %s: %v", localPath, err)
			}
			continue
		}

		log.Infof("SUCCESS: %s", f.Name)
		return true
	}

	log.Errorf("Download of %s failed after %d attempts", f.Name, maxRetries+1)
	return false
}

// renameRemote prefixes the remote object's filename with the configured
// template so re-runs skip already-fetched objects server-side.  Rename
// failures are logged, never fatal.
func renameRemote(ctx context.Context, fs RemoteFS, remotePath, prefix string) {
	dir := path.Dir(remotePath)
	newName := prefix + "_" + path.Base(remotePath)
	newPath := newName
	if dir != "." && dir != "/" {
		newPath = path.Join(dir, newName)
	} else if dir == "/" {
		newPath = "/" + newName
	}

	log.Infof("Renaming file on server: %s -> %s", remotePath, newPath)
	if err := fs.Rename(ctx, remotePath, newPath); err != nil {
		log.Errorf("Failed to rename file on server: %v", err)
		return
	}
	log.Debug("File renamed successfully on server")
}

func remotePaths(files []FileEntry) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

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

// Package fetcher implements the file transfer pipeline: connection
// resolution, recursive listing, filtering, sorting, and resumable download.
package fetcher

import (
	"context"
	"io"
	"time"
)

type (
	// FileEntry is the normalized representation of a single remote file.
	//
	// The two extracted-date fields are attached in place by the sort engine
	// when a date-based strategy is active; they stay nil otherwise.
	FileEntry struct {
		Name              string     `json:"name"`
		Path              string     `json:"path"`
		Size              int64      `json:"size"`
		MTime             time.Time  `json:"mtime"`
		Type              string     `json:"type"`
		ExtractedDate     *time.Time `json:"-"`
		ExtractedPathDate *time.Time `json:"-"`
	}

	// RemoteEntry is a single item returned by a directory listing.
	RemoteEntry struct {
		Name  string // base name
		Path  string // full remote path
		Size  int64
		MTime time.Time
		IsDir bool
	}

	// RemoteFS abstracts the protocol-specific remote filesystem handle
	// produced by the connection resolver.
	RemoteFS interface {
		// List returns the immediate entries of a single remote directory.
		List(ctx context.Context, dir string) ([]RemoteEntry, error)

		// Open returns a reader for the remote file contents.
		Open(ctx context.Context, remotePath string) (io.ReadCloser, error)

		// Rename moves a remote object to a new path on the same system.
		Rename(ctx context.Context, oldPath, newPath string) error

		// Alive reports whether the underlying connection is still usable.
		Alive() bool

		Close() error
	}

	// ConnectionOptions carries protocol details resolved alongside a handle.
	ConnectionOptions map[string]any

	// FetchResult is the outcome of one pipeline run.
	FetchResult struct {
		Success         bool           `json:"success"`
		FilesDownloaded []string       `json:"files_downloaded"`
		Metadata        map[string]any `json:"metadata,omitempty"`
		Error           string         `json:"error,omitempty"`
	}
)

const (
	entryTypeFile      = "file"
	entryTypeDirectory = "directory"
)

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
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// localFS serves a directory on the local machine through the RemoteFS
// interface.  Used for the "local" connection type and heavily in tests.
type localFS struct {
	root string
}

func newLocalFS(root string) (*localFS, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		log.Warnf("Local path does not exist, creating: %s", root)
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create local path %s", root)
		}
	}
	return &localFS{root: root}, nil
}

func (l *localFS) List(_ context.Context, dir string) ([]RemoteEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]RemoteEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, RemoteEntry{
			Name:  de.Name(),
			Path:  filepath.Join(dir, de.Name()),
			Size:  info.Size(),
			MTime: info.ModTime(),
			IsDir: de.IsDir(),
		})
	}
	return entries, nil
}

func (l *localFS) Open(_ context.Context, remotePath string) (io.ReadCloser, error) {
	return os.Open(remotePath)
}

func (l *localFS) Rename(_ context.Context, oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (l *localFS) Alive() bool {
	_, err := os.Stat(l.root)
	return err == nil
}

func (l *localFS) Close() error {
	return nil
}

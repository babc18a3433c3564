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
	"io"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

// ftpFS wraps an FTP control connection as a RemoteFS.
type ftpFS struct {
	conn *ftp.ServerConn
	host string
	port int
}

func newFTPFS(ctx context.Context, cfg *TransferConfig, timeout time.Duration) (*ftpFS, error) {
	port := cfg.Port
	if port == 0 {
		port = 21
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)

	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(timeout),
	}
	if !cfg.UsePassiveMode {
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}

	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, err
	}
	if err := conn.Login(cfg.User, cfg.Pass); err != nil {
		_ = conn.Quit()
		return nil, err
	}
	// Probe the configured root so a bad path fails here, not mid-listing.
	if _, err := conn.List(cfg.Path); err != nil {
		_ = conn.Quit()
		return nil, err
	}
	return &ftpFS{conn: conn, host: cfg.Host, port: port}, nil
}

func (f *ftpFS) List(_ context.Context, dir string) ([]RemoteEntry, error) {
	ftpEntries, err := f.conn.List(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]RemoteEntry, 0, len(ftpEntries))
	for _, e := range ftpEntries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		entries = append(entries, RemoteEntry{
			Name:  e.Name,
			Path:  path.Join(dir, e.Name),
			Size:  int64(e.Size),
			MTime: e.Time,
			IsDir: e.Type == ftp.EntryTypeFolder,
		})
	}
	return entries, nil
}

func (f *ftpFS) Open(_ context.Context, remotePath string) (io.ReadCloser, error) {
	resp, err := f.conn.Retr(remotePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to retrieve %s", remotePath)
	}
	return resp, nil
}

func (f *ftpFS) Rename(_ context.Context, oldPath, newPath string) error {
	return f.conn.Rename(oldPath, newPath)
}

func (f *ftpFS) Alive() bool {
	return f.conn.NoOp() == nil
}

func (f *ftpFS) Close() error {
	return f.conn.Quit()
}

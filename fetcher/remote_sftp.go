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

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// sftpFS wraps an SFTP session (over SSH) as a RemoteFS.
type sftpFS struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	host       string
	port       int
}

func newSFTPFS(cfg *TransferConfig, timeout time.Duration) (*sftpFS, error) {
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)

	sshConfig := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Pass),
		},
		// Host-key pinning is the deployment's concern; the fetcher targets
		// partner-managed drop boxes whose keys rotate without notice.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, err
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, err
	}
	// Fail fast on an unreadable root.
	if _, err := sftpClient.ReadDir(cfg.Path); err != nil {
		_ = sftpClient.Close()
		_ = sshClient.Close()
		return nil, err
	}
	return &sftpFS{sshClient: sshClient, sftpClient: sftpClient, host: cfg.Host, port: port}, nil
}

func (s *sftpFS) List(_ context.Context, dir string) ([]RemoteEntry, error) {
	infos, err := s.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]RemoteEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, RemoteEntry{
			Name:  info.Name(),
			Path:  path.Join(dir, info.Name()),
			Size:  info.Size(),
			MTime: info.ModTime(),
			IsDir: info.IsDir(),
		})
	}
	return entries, nil
}

func (s *sftpFS) Open(_ context.Context, remotePath string) (io.ReadCloser, error) {
	return s.sftpClient.Open(remotePath)
}

func (s *sftpFS) Rename(_ context.Context, oldPath, newPath string) error {
	return s.sftpClient.Rename(oldPath, newPath)
}

func (s *sftpFS) Alive() bool {
	_, err := s.sftpClient.Getwd()
	return err == nil
}

func (s *sftpFS) Close() error {
	err := s.sftpClient.Close()
	if cerr := s.sshClient.Close(); err == nil {
		err = cerr
	}
	return err
}

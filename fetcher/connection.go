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

	log "github.com/sirupsen/logrus"
)

// ResolveConnection builds a protocol-specific remote-filesystem handle from
// the transfer config.  The `Type` field discriminates between local, ftp,
// sftp and s3.  On any unrecoverable failure the classified error is logged
// and (nil, empty options) is returned; this boundary never panics.
func ResolveConnection(ctx context.Context, cfg *TransferConfig) (RemoteFS, ConnectionOptions) {
	connType := strings.ToLower(cfg.Type)
	if connType == "" {
		log.Error("Connection type not specified in config")
		return nil, ConnectionOptions{}
	}

	timeout := time.Duration(cfg.ConnectionTimeout) * time.Second
	log.Infof("Creating %s connection", connType)

	switch connType {
	case "local":
		fs, err := newLocalFS(cfg.Path)
		if err != nil {
			log.Errorf("Local filesystem setup failed: %v", err)
			return nil, ConnectionOptions{}
		}
		return fs, ConnectionOptions{"path": cfg.Path}

	case "ftp":
		fs, err := newFTPFS(ctx, cfg, timeout)
		if err != nil {
			log.Errorf("FTP connection failed: %s", ClassifyConnectionError(err, cfg.Host).Message)
			return nil, ConnectionOptions{}
		}
		return fs, ConnectionOptions{"host": cfg.Host, "port": fs.port}

	case "sftp":
		fs, err := newSFTPFS(cfg, timeout)
		if err != nil {
			log.Errorf("SFTP connection failed: %s", ClassifyConnectionError(err, cfg.Host).Message)
			return nil, ConnectionOptions{}
		}
		return fs, ConnectionOptions{"host": cfg.Host, "port": fs.port}

	case "s3":
		if cfg.Bucket == "" {
			log.Error("No bucket specified in object store configuration")
			return nil, ConnectionOptions{}
		}
		fs, err := newS3FS(ctx, cfg)
		if err != nil {
			log.Errorf("Object store connection failed: %s", ClassifyObjectStoreError(err, cfg.Bucket).Message)
			return nil, ConnectionOptions{}
		}
		log.Infof("Successfully connected to bucket %s", cfg.Bucket)
		return fs, ConnectionOptions{"bucket": cfg.Bucket, "region": fs.region}
	}

	log.Errorf("Unsupported connection type: %s", connType)
	return nil, ConnectionOptions{}
}

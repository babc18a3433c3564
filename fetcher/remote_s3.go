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
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3FS exposes a bucket prefix tree as a RemoteFS.  "Directories" are
// synthesized from common prefixes under the / delimiter.
type s3FS struct {
	client *s3.Client
	bucket string
	region string
}

func newS3FS(ctx context.Context, cfg *TransferConfig) (*s3FS, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	fs := &s3FS{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: region,
	}

	// Existence probe: list the target root so credential, bucket and region
	// problems surface now instead of mid-pipeline.
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectionTimeout)*time.Second)
	defer cancel()
	if _, err := fs.List(probeCtx, cfg.Path); err != nil {
		return nil, err
	}
	return fs, nil
}

// keyFor normalizes a remote path into an S3 object key or prefix.
func (f *s3FS) keyFor(remotePath string) string {
	return strings.TrimPrefix(remotePath, "/")
}

func (f *s3FS) List(ctx context.Context, dir string) ([]RemoteEntry, error) {
	prefix := f.keyFor(dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var entries []RemoteEntry
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, cp := range page.CommonPrefixes {
			dirKey := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
			entries = append(entries, RemoteEntry{
				Name:  path.Base(dirKey),
				Path:  "/" + dirKey,
				IsDir: true,
			})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				// The prefix itself shows up as a zero-byte marker object
				// on some buckets.
				continue
			}
			var mtime time.Time
			if obj.LastModified != nil {
				mtime = *obj.LastModified
			}
			entries = append(entries, RemoteEntry{
				Name:  path.Base(key),
				Path:  "/" + key,
				Size:  aws.ToInt64(obj.Size),
				MTime: mtime,
			})
		}
	}
	return entries, nil
}

func (f *s3FS) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.keyFor(remotePath)),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Rename is a copy followed by a delete; S3 has no native move.
func (f *s3FS) Rename(ctx context.Context, oldPath, newPath string) error {
	oldKey := f.keyFor(oldPath)
	newKey := f.keyFor(newPath)
	_, err := f.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(f.bucket),
		CopySource: aws.String(url.PathEscape(f.bucket + "/" + oldKey)),
		Key:        aws.String(newKey),
	})
	if err != nil {
		return err
	}
	_, err = f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(oldKey),
	})
	return err
}

func (f *s3FS) Alive() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := f.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(f.bucket)})
	return err == nil
}

func (f *s3FS) Close() error {
	return nil
}

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

// Package modules defines the per-source-type module contract and the
// driver that runs a module through its lifecycle.
package modules

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/trawlproject/trawl/fetcher"
)

// Module is the contract every source-type module implements.  The executor
// depends only on this interface and a factory function, never on a concrete
// module type.
type Module interface {
	Name() string
	Initialize(ctx context.Context) error
	ValidateConfig() error
	Fetch(ctx context.Context) (*fetcher.FetchResult, error)
	Validate(ctx context.Context, fetch *fetcher.FetchResult) (*ValidationResult, error)
	Cleanup()
}

// ValidationResult reports which fetched files passed validation and where
// the valid ones should be uploaded.
type ValidationResult struct {
	Success          bool
	ValidFiles       []string
	InvalidFiles     []string
	ValidationErrors []string
	UploadFolder     string
}

// ExecutionResult is the terminal record of one module run.
type ExecutionResult struct {
	Success bool
	Error   string
	Details map[string]any
}

func failure(err string, details map[string]any) *ExecutionResult {
	return &ExecutionResult{Success: false, Error: err, Details: details}
}

// Execute drives a module through Initialize, ValidateConfig, Fetch,
// Validate and Upload, short-circuiting on the first failure.  It always
// returns a terminal ExecutionResult; module errors never propagate.
func Execute(ctx context.Context, m Module) *ExecutionResult {
	moduleLog := log.WithField("module", m.Name())
	defer m.Cleanup()

	if err := m.Initialize(ctx); err != nil {
		moduleLog.Errorf("Initialization failed: %v", err)
		return failure("initialization failed: "+err.Error(), nil)
	}

	if err := m.ValidateConfig(); err != nil {
		moduleLog.Errorf("Config validation failed: %v", err)
		return failure("config validation failed: "+err.Error(), nil)
	}

	fetchResult, err := m.Fetch(ctx)
	if err != nil {
		moduleLog.Errorf("Fetch failed: %v", err)
		return failure("fetch failed: "+err.Error(), nil)
	}
	if !fetchResult.Success {
		moduleLog.Errorf("Fetch failed: %s", fetchResult.Error)
		return failure("fetch failed: "+fetchResult.Error, map[string]any{"fetch": fetchResult})
	}

	validation, err := m.Validate(ctx, fetchResult)
	if err != nil {
		moduleLog.Errorf("Validation failed: %v", err)
		return failure("validation failed: "+err.Error(), map[string]any{"fetch": fetchResult})
	}
	if !validation.Success {
		moduleLog.Errorf("Validation rejected the fetched files: %v", validation.ValidationErrors)
		return failure("validation failed", map[string]any{
			"fetch":      fetchResult,
			"validation": validation,
		})
	}

	uploadResult := Upload(ctx, validation)
	if !uploadResult.Success {
		moduleLog.Errorf("Upload failed: %s", uploadResult.Error)
		return failure("upload failed: "+uploadResult.Error, map[string]any{
			"fetch":      fetchResult,
			"validation": validation,
		})
	}

	moduleLog.Infof("Module execution completed: %d file(s) fetched, %d valid",
		len(fetchResult.FilesDownloaded), len(validation.ValidFiles))

	return &ExecutionResult{
		Success: true,
		Details: map[string]any{
			"fetch":      fetchResult,
			"validation": validation,
			"upload":     uploadResult,
		},
	}
}

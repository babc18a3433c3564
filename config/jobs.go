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

package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// JobConfig is one job's full configuration: identity, the source type the
// module factory dispatches on, and the raw per-protocol tree handed to the
// structured-to-flat mappers.
type JobConfig struct {
	JobID      string
	ServiceID  string
	SourceType string

	// Raw is the job's own config tree from the jobs file.
	Raw map[string]any

	// Channel and Fetcher are the per-channel and per-source-type override
	// layers; Env is the infrastructure layer.
	Channel map[string]any
	Fetcher map[string]any
	Env     *EnvConfig
}

// Value looks a key up through the layered config with priority
// channel > fetcher > environment-level defaults in Raw.
func (jc *JobConfig) Value(key string, fallback any) any {
	if v, ok := jc.Channel[key]; ok {
		return v
	}
	if v, ok := jc.Fetcher[key]; ok {
		return v
	}
	if v, ok := jc.Raw[key]; ok {
		return v
	}
	return fallback
}

// JobStore reads job definitions from a YAML jobs file and resolves them by
// (job_id, service_id).
type JobStore struct {
	jobs []map[string]any
	env  *EnvConfig
}

// LoadJobStore parses the jobs file.  The file holds a top-level `jobs` list
// where each entry carries job_id, service_id, source_type and the
// per-protocol config tree.
func LoadJobStore(path string, env *EnvConfig) (*JobStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read jobs file %s", path)
	}

	raw := v.Get("jobs")
	if raw == nil {
		return nil, errors.Errorf("jobs file %s has no jobs list", path)
	}

	entries := cast.ToSlice(raw)
	jobs := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		job := cast.ToStringMap(entry)
		if job == nil {
			continue
		}
		jobs = append(jobs, job)
	}

	log.Infof("Loaded %d job definition(s) from %s", len(jobs), path)
	return &JobStore{jobs: jobs, env: env}, nil
}

// Lookup resolves one job by its identity key.
func (s *JobStore) Lookup(jobID, serviceID string) (*JobConfig, error) {
	for _, job := range s.jobs {
		if cast.ToString(job["job_id"]) != jobID || cast.ToString(job["service_id"]) != serviceID {
			continue
		}
		return s.buildJobConfig(job)
	}
	return nil, errors.Errorf("no job configuration for job_id=%s service_id=%s", jobID, serviceID)
}

// All returns every job in the store, skipping entries that fail to build.
func (s *JobStore) All() []*JobConfig {
	configs := make([]*JobConfig, 0, len(s.jobs))
	for _, job := range s.jobs {
		jc, err := s.buildJobConfig(job)
		if err != nil {
			log.Errorf("Skipping invalid job definition: %v", err)
			continue
		}
		configs = append(configs, jc)
	}
	return configs
}

func (s *JobStore) buildJobConfig(job map[string]any) (*JobConfig, error) {
	jobID := cast.ToString(job["job_id"])
	serviceID := cast.ToString(job["service_id"])
	sourceType := cast.ToString(job["source_type"])
	if jobID == "" || serviceID == "" || sourceType == "" {
		return nil, errors.New("job definition missing job_id, service_id or source_type")
	}

	return &JobConfig{
		JobID:      jobID,
		ServiceID:  serviceID,
		SourceType: sourceType,
		Raw:        job,
		Channel:    cast.ToStringMap(job["channel"]),
		Fetcher:    cast.ToStringMap(job["fetcher"]),
		Env:        s.env,
	}, nil
}

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
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvConfig holds the infrastructure settings shared by every job in a run.
// Each deployment environment carries its own defaults; a config file or
// TRAWL_-prefixed environment variables override them.
type EnvConfig struct {
	Environment  string
	MaxWorkers   int    `mapstructure:"max_workers"`
	JobTimeout   int    `mapstructure:"job_timeout"`
	LogLevel     string `mapstructure:"log_level"`
	LogLocation  string `mapstructure:"log_location"`
	TempPath     string `mapstructure:"temp_path"`
	TargetBucket string `mapstructure:"target_bucket"`
	TargetRegion string `mapstructure:"target_region"`
	APIURL       string `mapstructure:"api_url"`
}

var knownEnvironments = []string{"local", "dev", "nonprod", "prod"}

// environmentDefaults applies the per-environment infrastructure defaults.
func environmentDefaults(v *viper.Viper, env string) {
	// Common baseline shared by every environment.
	v.SetDefault("max_workers", 20)
	v.SetDefault("job_timeout", 3600)
	v.SetDefault("log_level", "info")
	v.SetDefault("temp_path", "/tmp/trawl")
	v.SetDefault("target_region", "us-east-1")

	switch env {
	case "local":
		v.SetDefault("max_workers", 5)
		v.SetDefault("temp_path", "./temp")
		v.SetDefault("target_bucket", "local-dev-trawl-bucket")
		v.SetDefault("api_url", "http://localhost:8080/api/v1")
	case "dev":
		v.SetDefault("target_bucket", "dev-trawl-bucket")
		v.SetDefault("api_url", "http://api.dev.internal/api/v1")
	case "nonprod":
		v.SetDefault("target_bucket", "nonprod-trawl-bucket")
		v.SetDefault("api_url", "http://api.nonprod.internal/api/v1")
	case "prod":
		v.SetDefault("max_workers", 50)
		v.SetDefault("log_level", "warn")
		v.SetDefault("temp_path", "/var/trawl/temp")
		v.SetDefault("target_bucket", "prod-trawl-bucket")
		v.SetDefault("api_url", "http://api.internal/api/v1")
	}
}

// LoadEnvironment builds the environment configuration.  When env is empty
// the ENVIRONMENT variable selects it, defaulting to local.  An optional
// config file layers user overrides on top of the per-environment defaults.
func LoadEnvironment(env, cfgFile string) (*EnvConfig, error) {
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "local"
	}
	env = strings.ToLower(env)

	if !isKnownEnvironment(env) {
		return nil, errors.Errorf("unknown environment %q, available: %s",
			env, strings.Join(knownEnvironments, ", "))
	}

	v := viper.New()
	environmentDefaults(v, env)

	v.SetEnvPrefix("TRAWL")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", cfgFile)
		}
		log.Debugf("Loaded config overrides from %s", v.ConfigFileUsed())
	}

	cfg := &EnvConfig{Environment: env}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal environment config")
	}
	return cfg, nil
}

func isKnownEnvironment(env string) bool {
	for _, known := range knownEnvironments {
		if env == known {
			return true
		}
	}
	return false
}

// SetLogging applies the configured log level to the global logger.
func (c *EnvConfig) SetLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, staying at %s", c.LogLevel, log.GetLevel())
		return
	}
	log.SetLevel(level)
}

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

package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trawlproject/trawl/config"
	"github.com/trawlproject/trawl/logging"
)

var (
	cfgFile     string
	environment string
	jobsFile    string
	debug       bool

	rootCmd = &cobra.Command{
		Use:   "trawl",
		Short: "Fetch files from remote sources",
		Long: `The trawl software runs configured fetch jobs against remote
sources (FTP, SFTP, S3 and local paths), filtering and sorting the
remote listing before downloading files for validation and upload.`,
	}
)

func Execute() error {
	logging.SetupLogBuffering()
	err := rootCmd.Execute()
	if err != nil {
		log.Errorln("Fatal error occurred at the start of the program:", err)
	}
	return err
}

// loadEnvironment resolves the runtime environment from the CLI flags and
// applies its logging settings.
func loadEnvironment() (*config.EnvConfig, error) {
	env, err := config.LoadEnvironment(environment, cfgFile)
	if err != nil {
		return nil, err
	}
	env.SetLogging()
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	logging.FlushLogs(env.LogLocation)
	return env, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file to load environment overrides from")
	rootCmd.PersistentFlags().StringVarP(&environment, "environment", "e", "", "Runtime environment (local, dev, nonprod, prod)")
	rootCmd.PersistentFlags().StringVar(&jobsFile, "jobs", "jobs.yaml", "Job definitions file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
}

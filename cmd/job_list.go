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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trawlproject/trawl/config"
)

var jobListCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the jobs defined in the jobs file",
	RunE:  jobListMain,
}

func init() {
	rootCmd.AddCommand(jobListCmd)
}

func jobListMain(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return errors.Wrap(err, "failed to load environment")
	}

	store, err := config.LoadJobStore(jobsFile, env)
	if err != nil {
		return errors.Wrapf(err, "failed to load job definitions from %s", jobsFile)
	}

	jobs := store.All()
	if len(jobs) == 0 {
		fmt.Println("No jobs defined")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "JOB ID\tSERVICE ID\tSOURCE TYPE")
	for _, job := range jobs {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", job.JobID, job.ServiceID, job.SourceType)
	}
	return writer.Flush()
}

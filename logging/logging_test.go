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

package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushLogsRedirectsToFile(t *testing.T) {
	t.Cleanup(func() {
		CloseLogger()
		ResetLogFlush()
		log.SetOutput(os.Stderr)
	})

	SetupLogBuffering()
	log.Error("buffered before flush")

	logPath := filepath.Join(t.TempDir(), "logs", "trawl.log")
	FlushLogs(logPath)
	log.Error("written after flush")

	CloseLogger()

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "buffered before flush")
	assert.Contains(t, string(contents), "written after flush")
}

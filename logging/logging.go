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

// Package logging buffers early log output until the configuration has been
// read, then flushes it to stderr or the configured log file.  Log lines
// emitted before the destination is known are never lost.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log/term"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// BufferedLogHook buffers log entries until they are flushed
type BufferedLogHook struct {
	entries []*log.Entry
	flushed atomic.Bool
}

var (
	bufferedHook atomic.Pointer[BufferedLogHook]
	flushOnce    sync.Once
	logFHandle   *os.File
)

// Reset function intended for unit tests to be able to
// reset log flush state.
func ResetLogFlush() {
	flushOnce = sync.Once{}
}

func NewBufferedLogHook() *BufferedLogHook {
	return &BufferedLogHook{
		entries: make([]*log.Entry, 0),
	}
}

// Fire is called on every log entry
func (hook *BufferedLogHook) Fire(entry *log.Entry) error {
	if hook.flushed.Load() {
		return nil
	}
	hook.entries = append(hook.entries, entry)
	return nil
}

// Levels defines which log levels this hook applies to
func (hook *BufferedLogHook) Levels() []log.Level {
	return log.AllLevels
}

func removeBufferedHook() {
	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
}

// FlushLogs flushes buffered logs and switches to direct logging.  With a
// non-empty logLocation all further output goes to that file.
func FlushLogs(logLocation string) {
	flushOnce.Do(func() {
		hook := bufferedHook.Load()
		if hook == nil {
			fmt.Fprintln(os.Stderr, "FlushLogs called but no bufferedHook exists")
			return
		}

		if hook.flushed.Load() {
			return
		}

		hook.flushed.Store(true)

		if logLocation != "" {
			dir := filepath.Dir(logLocation)
			if dir != "" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					cobra.CheckErr(fmt.Errorf("failed to access/create specified directory: %w", err))
				}
			}

			f, err := os.OpenFile(logLocation, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to access specified log file: %w", err))
			}
			logFHandle = f
			fmt.Fprintf(os.Stderr, "Log location is set to %s. All logs are redirected to the log file.\n", logLocation)
			log.SetOutput(f)

			// No colors in log files
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp:          true,
				DisableColors:          true,
				DisableLevelTruncation: true,
			})
		} else {
			log.SetOutput(os.Stderr)

			log.SetFormatter(&log.TextFormatter{
				FullTimestamp:          true,
				ForceColors:            term.IsTerminal(log.StandardLogger().Out),
				DisableColors:          false,
				DisableLevelTruncation: true,
			})
		}

		// Flush buffered logs
		if len(hook.entries) > 0 {
			for _, entry := range hook.entries {
				formatted, err := entry.String()
				if err == nil {
					_, _ = log.StandardLogger().Out.Write([]byte(formatted))
				}
			}
			hook.entries = nil
		}

		removeBufferedHook()

		if out, ok := log.StandardLogger().Out.(*os.File); ok {
			_ = out.Sync()
		}
	})
}

// For unit tests, guarantees the filehandle is closed so tests can clean up
// after themselves. Generally not needed in production code because the OS
// should clean up the file handle when the process exits. Invoking this outside
// a test will prevent the log file from being written to!!
func CloseLogger() {
	if logFHandle != nil {
		_ = logFHandle.Close()
	}
}

func SetupLogBuffering() {
	log.SetOutput(io.Discard) // Discard until flush decides the destination

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})

	hook := NewBufferedLogHook()
	if bufferedHook.CompareAndSwap(nil, hook) {
		log.AddHook(hook)
	}
}

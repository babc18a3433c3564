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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkFile(name, path string, size int64, mtime time.Time) FileEntry {
	return FileEntry{Name: name, Path: path, Size: size, MTime: mtime, Type: entryTypeFile}
}

func fileNames(files []FileEntry) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

func TestFilterFilesByPattern(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("report_a.csv", "/data/report_a.csv", 100, now),
		mkFile("report_b.csv", "/data/report_b.csv", 100, now),
		mkFile("summary.txt", "/data/summary.txt", 100, now),
	}

	cfg := &TransferConfig{Pattern: "report_.*"}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"report_a.csv", "report_b.csv"}, fileNames(got))
}

func TestFilterFilesSampleFilesWinOverPattern(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("report_a.csv", "/data/report_a.csv", 100, now),
		mkFile("summary.txt", "/data/summary.txt", 100, now),
	}

	cfg := &TransferConfig{
		Pattern:     "report_.*",
		SampleFiles: []string{"summary.txt"},
	}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"summary.txt"}, fileNames(got))
}

func TestFilterFilesInvalidPatternFailsClosed(t *testing.T) {
	now := time.Now()
	files := []FileEntry{mkFile("a.csv", "/a.csv", 1, now)}

	cfg := &TransferConfig{Pattern: "("}
	assert.Empty(t, FilterFiles(files, cfg))

	cfg = &TransferConfig{ExcludePattern: "("}
	assert.Empty(t, FilterFiles(files, cfg))
}

func TestFilterFilesInvalidSkipPatternIsIgnored(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("keep.csv", "/keep.csv", 1, now),
		mkFile("temp.csv", "/temp.csv", 1, now),
	}

	// The unparseable member of the list must not abort the chain.
	cfg := &TransferConfig{SkipPatterns: "(, temp.*", DontEscapeBrackets: true}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"keep.csv"}, fileNames(got))
}

func TestFilterFilesExcludeStages(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("data_final.csv", "/data_final.csv", 100, now),
		mkFile("data_DRAFT.csv", "/data_DRAFT.csv", 100, now),
		mkFile("data_backup.csv", "/data_backup.csv", 100, now),
	}

	cfg := &TransferConfig{
		ExcludePattern:  ".*backup.*",
		ExcludeKeywords: "draft",
	}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"data_final.csv"}, fileNames(got))
}

func TestFilterFilesByExtension(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("a.csv", "/a.csv", 1, now),
		mkFile("b.CSV", "/b.CSV", 1, now),
		mkFile("c.txt", "/c.txt", 1, now),
		mkFile("d.json", "/d.json", 1, now),
	}

	// Leading dot optional, matching case-insensitive.
	cfg := &TransferConfig{Extensions: []string{"csv", ".json"}}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"a.csv", "b.CSV", "d.json"}, fileNames(got))
}

func TestFilterFilesBySize(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("tiny.csv", "/tiny.csv", 100, now),
		mkFile("medium.csv", "/medium.csv", 5*1024*1024, now),
		mkFile("huge.csv", "/huge.csv", 500*1024*1024, now),
	}

	cfg := &TransferConfig{MinSize: "1MB", MaxSize: "100MB"}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"medium.csv"}, fileNames(got))
}

func TestFilterFilesByModifiedWindow(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("recent.csv", "/recent.csv", 1, now.AddDate(0, 0, -1)),
		mkFile("old.csv", "/old.csv", 1, now.AddDate(0, 0, -30)),
	}

	cfg := &TransferConfig{LastDays: 7}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"recent.csv"}, fileNames(got))
}

func TestFilterFilesByStartEndDate(t *testing.T) {
	files := []FileEntry{
		mkFile("jan.csv", "/jan.csv", 1, time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)),
		mkFile("feb.csv", "/feb.csv", 1, time.Date(2024, 2, 15, 12, 0, 0, 0, time.Local)),
		mkFile("mar.csv", "/mar.csv", 1, time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)),
		// Late on the end date itself must still be included.
		mkFile("eod.csv", "/eod.csv", 1, time.Date(2024, 2, 28, 23, 30, 0, 0, time.Local)),
	}

	cfg := &TransferConfig{StartDate: "2024-02-01", EndDate: "2024-02-28"}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"feb.csv", "eod.csv"}, fileNames(got))
}

func TestExtractedDateFilterActivation(t *testing.T) {
	// Window configured but no location flag: stage must stay off.
	cfg := &TransferConfig{ExtractedDateStart: "2024-01-01"}
	assert.False(t, extractedDateFilterActive(cfg))

	// Location flag but no window: stage must stay off.
	cfg = &TransferConfig{SortByDateInFilename: true}
	assert.False(t, extractedDateFilterActive(cfg))

	// Last-days alone only shapes the window; it never switches the stage on.
	cfg = &TransferConfig{SortByDateInFilename: true, ExtractedDateLastDays: 7}
	assert.False(t, extractedDateFilterActive(cfg))

	cfg = &TransferConfig{SortByDateInFilename: true, ExtractedDateNextDays: 14}
	assert.True(t, extractedDateFilterActive(cfg))

	cfg = &TransferConfig{SortByDateInPath: true, ExtractedDateEnd: "2024-02-28", ExtractedDateLastDays: 7}
	assert.True(t, extractedDateFilterActive(cfg))
}

func TestFilterFilesByExtractedDate(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("report_2024-02-10.csv", "/report_2024-02-10.csv", 1, now),
		mkFile("report_2024-02-20.csv", "/report_2024-02-20.csv", 1, now),
		mkFile("report_2024-03-05.csv", "/report_2024-03-05.csv", 1, now),
		mkFile("nodate.csv", "/nodate.csv", 1, now),
	}

	cfg := &TransferConfig{
		SortByDateInFilename: true,
		DateFormatInFilename: "%Y-%m-%d",
		ExtractedDateStart:   "2024-02-15",
		ExtractedDateEnd:     "2024-02-28",
	}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"report_2024-02-20.csv"}, fileNames(got))
}

func TestFilterFilesByExtractedDateInPath(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("a.csv", "/data/2024/02/20/a.csv", 1, now),
		mkFile("b.csv", "/data/2024/03/05/b.csv", 1, now),
	}

	cfg := &TransferConfig{
		SortByDateInPath:   true,
		DateFormatInPath:   "%Y/%m/%d",
		ExtractedDateStart: "2024-02-01",
		ExtractedDateEnd:   "2024-02-28",
	}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"a.csv"}, fileNames(got))
}

func TestResolveExtractedDateWindow(t *testing.T) {
	now := time.Date(2024, 3, 7, 14, 0, 0, 0, time.Local)

	t.Run("next days from today", func(t *testing.T) {
		cfg := &TransferConfig{ExtractedDateNextDays: 14}
		start, end := resolveExtractedDateWindow(cfg, now)
		require.NotNil(t, start)
		require.NotNil(t, end)
		assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.Local), *start)
		assert.Equal(t, time.Date(2024, 3, 21, 23, 59, 59, 0, time.Local), *end)
	})

	t.Run("last days anchored to end date", func(t *testing.T) {
		cfg := &TransferConfig{ExtractedDateLastDays: 7, ExtractedDateEnd: "2024-02-28"}
		start, end := resolveExtractedDateWindow(cfg, now)
		require.NotNil(t, start)
		require.NotNil(t, end)
		assert.Equal(t, time.Date(2024, 2, 22, 0, 0, 0, 0, time.Local), *start)
		assert.Equal(t, time.Date(2024, 2, 28, 23, 59, 59, 0, time.Local), *end)
	})

	t.Run("explicit bounds win", func(t *testing.T) {
		cfg := &TransferConfig{
			ExtractedDateNextDays: 5,
			ExtractedDateStart:    "2024-01-01",
			ExtractedDateEnd:      "2024-01-31",
		}
		start, end := resolveExtractedDateWindow(cfg, now)
		require.NotNil(t, start)
		require.NotNil(t, end)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), *start)
		assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.Local), *end)
	})
}

func TestFilterFilesStagesCompose(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("report_1.csv", "/report_1.csv", 2048, now),
		mkFile("report_2.csv", "/report_2.csv", 10, now),
		mkFile("report_backup.csv", "/report_backup.csv", 2048, now),
		mkFile("other.csv", "/other.csv", 2048, now),
	}

	cfg := &TransferConfig{
		Pattern:        "report.*",
		ExcludePattern: ".*backup.*",
		MinSize:        "1KB",
	}
	got := FilterFiles(files, cfg)
	assert.Equal(t, []string{"report_1.csv"}, fileNames(got))
}

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
)

func TestSortFilesByModifiedTime(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	files := []FileEntry{
		mkFile("b.csv", "/b.csv", 1, base.Add(2*time.Hour)),
		mkFile("a.csv", "/a.csv", 1, base),
		mkFile("c.csv", "/c.csv", 1, base.Add(time.Hour)),
	}

	cfg := &TransferConfig{SortFilesByModifiedTime: true}
	got := SortFiles(files, cfg)
	assert.Equal(t, []string{"a.csv", "c.csv", "b.csv"}, fileNames(got))

	cfg = &TransferConfig{SortFilesByModifiedTime: true, SortDescending: true}
	got = SortFiles(files, cfg)
	assert.Equal(t, []string{"b.csv", "c.csv", "a.csv"}, fileNames(got))
}

func TestSortFilesByFilename(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("Banana.csv", "/Banana.csv", 1, now),
		mkFile("apple.csv", "/apple.csv", 1, now),
		mkFile("cherry.csv", "/cherry.csv", 1, now),
	}

	cfg := &TransferConfig{SortOnFileName: true}
	got := SortFiles(files, cfg)
	assert.Equal(t, []string{"apple.csv", "Banana.csv", "cherry.csv"}, fileNames(got))

	cfg = &TransferConfig{SortOnFileName: true, CaseSensitive: true}
	got = SortFiles(files, cfg)
	assert.Equal(t, []string{"Banana.csv", "apple.csv", "cherry.csv"}, fileNames(got))
}

func TestSortFilesByDateInFilename(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("report_2024-03-05.csv", "/report_2024-03-05.csv", 1, now),
		mkFile("report_2024-01-10.csv", "/report_2024-01-10.csv", 1, now),
		mkFile("nodate.csv", "/nodate.csv", 1, now),
		mkFile("report_2024-02-20.csv", "/report_2024-02-20.csv", 1, now),
	}

	cfg := &TransferConfig{SortByDateInFilename: true, DateFormatInFilename: "%Y-%m-%d"}
	got := SortFiles(files, cfg)
	// Dated ascending, undated appended in original order.
	assert.Equal(t, []string{
		"report_2024-01-10.csv",
		"report_2024-02-20.csv",
		"report_2024-03-05.csv",
		"nodate.csv",
	}, fileNames(got))
	assert.NotNil(t, got[0].ExtractedDate)
	assert.Nil(t, got[3].ExtractedDate)
}

func TestSortFilesByDateInPath(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("b.csv", "/data/2024/03/05/b.csv", 1, now),
		mkFile("a.csv", "/data/2024/01/10/a.csv", 1, now),
	}

	cfg := &TransferConfig{SortByDateInPath: true, DateFormatInPath: "%Y/%m/%d", SortDescending: true}
	got := SortFiles(files, cfg)
	assert.Equal(t, []string{"b.csv", "a.csv"}, fileNames(got))
	assert.NotNil(t, got[0].ExtractedPathDate)
}

func TestSortFilesInvalidDateFormatFailsOpen(t *testing.T) {
	now := time.Now()
	files := []FileEntry{
		mkFile("z.csv", "/z.csv", 1, now),
		mkFile("a.csv", "/a.csv", 1, now),
	}

	cfg := &TransferConfig{SortByDateInFilename: true, DateFormatInFilename: ""}
	got := SortFiles(files, cfg)
	// Original order preserved when the strategy cannot be applied.
	assert.Equal(t, []string{"z.csv", "a.csv"}, fileNames(got))
}

func TestSortFilesLatestOnlyKeepsTies(t *testing.T) {
	latest := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	files := []FileEntry{
		mkFile("old.csv", "/old.csv", 1, latest.Add(-time.Hour)),
		mkFile("tie1.csv", "/tie1.csv", 1, latest),
		mkFile("tie2.csv", "/tie2.csv", 1, latest),
	}

	cfg := &TransferConfig{GetLatestFileOnly: true}
	got := SortFiles(files, cfg)
	assert.ElementsMatch(t, []string{"tie1.csv", "tie2.csv"}, fileNames(got))
}

func TestSortFilesLatestOnlyIgnoresNumFilesCap(t *testing.T) {
	latest := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	files := []FileEntry{
		mkFile("tie1.csv", "/tie1.csv", 1, latest),
		mkFile("tie2.csv", "/tie2.csv", 1, latest),
		mkFile("tie3.csv", "/tie3.csv", 1, latest),
	}

	cfg := &TransferConfig{GetLatestFileOnly: true, NumFiles: 1}
	got := SortFiles(files, cfg)
	assert.Len(t, got, 3)
}

func TestSortFilesNumFilesCapAfterSort(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	files := []FileEntry{
		mkFile("c.csv", "/c.csv", 1, base.Add(2*time.Hour)),
		mkFile("a.csv", "/a.csv", 1, base),
		mkFile("b.csv", "/b.csv", 1, base.Add(time.Hour)),
	}

	cfg := &TransferConfig{SortFilesByModifiedTime: true, SortDescending: true, NumFiles: 2}
	got := SortFiles(files, cfg)
	assert.Equal(t, []string{"c.csv", "b.csv"}, fileNames(got))
}

func TestSortFilesEmptyInput(t *testing.T) {
	cfg := &TransferConfig{SortOnFileName: true}
	assert.Empty(t, SortFiles(nil, cfg))
}

func TestDetectDateLocation(t *testing.T) {
	now := time.Now()

	t.Run("dates in filenames", func(t *testing.T) {
		files := []FileEntry{
			mkFile("report_2024-03-05.csv", "/data/report_2024-03-05.csv", 1, now),
			mkFile("report_2024-03-06.csv", "/data/report_2024-03-06.csv", 1, now),
		}
		cfg := &TransferConfig{}
		detectDateLocation(files, cfg)
		assert.True(t, cfg.SortByDateInFilename)
		assert.Equal(t, "%Y-%m-%d", cfg.DateFormatInFilename)
	})

	t.Run("dates in paths", func(t *testing.T) {
		files := []FileEntry{
			mkFile("a.csv", "/data/2024/03/05/a.csv", 1, now),
			mkFile("b.csv", "/data/2024/03/06/b.csv", 1, now),
		}
		cfg := &TransferConfig{}
		detectDateLocation(files, cfg)
		assert.True(t, cfg.SortByDateInPath)
		assert.Equal(t, "%Y/%m/%d", cfg.DateFormatInPath)
	})

	t.Run("no dates falls back to filename sort", func(t *testing.T) {
		files := []FileEntry{
			mkFile("a.csv", "/data/a.csv", 1, now),
			mkFile("b.csv", "/data/b.csv", 1, now),
		}
		cfg := &TransferConfig{}
		detectDateLocation(files, cfg)
		assert.True(t, cfg.SortOnFileName)
		assert.False(t, cfg.SortByDateInFilename)
		assert.False(t, cfg.SortByDateInPath)
	})

	t.Run("explicit location respected", func(t *testing.T) {
		files := []FileEntry{
			mkFile("report_2024-03-05.csv", "/report_2024-03-05.csv", 1, now),
		}
		cfg := &TransferConfig{SortByDateInPath: true}
		detectDateLocation(files, cfg)
		assert.False(t, cfg.SortByDateInFilename)
	})
}

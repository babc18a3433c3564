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
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Date format shortlists tried during auto-detection.
var (
	autoDetectFilenameFormats = []string{"%Y-%m-%d", "%Y%m%d", "%d-%m-%Y", "%Y_%m_%d"}
	autoDetectPathFormats     = []string{"%Y/%m/%d", "%Y/%b/%d", "%Y-%m-%d"}
)

const autoDetectSampleSize = 10

// detectDateLocation samples the file list and decides whether dates live in
// filenames or directory paths, recording the winning location and format
// back into the config.  Runs only when the caller has not chosen a
// location.  Ties and zero matches fall back to filename sorting.
func detectDateLocation(files []FileEntry, cfg *TransferConfig) {
	if cfg.SortByDateInPath || cfg.SortByDateInFilename {
		return
	}

	sampleSize := len(files)
	if sampleSize > autoDetectSampleSize {
		sampleSize = autoDetectSampleSize
	}
	sample := files[:sampleSize]

	filenameFormats := autoDetectFilenameFormats
	pathFormats := autoDetectPathFormats
	if cfg.DateFormat != "" {
		filenameFormats = []string{cfg.DateFormat}
		pathFormats = []string{cfg.DateFormat}
	}

	filenameMatches, bestFilenameFormat := 0, ""
	for _, f := range sample {
		for _, format := range filenameFormats {
			if ExtractDate(f.Name, format) != nil {
				filenameMatches++
				bestFilenameFormat = format
				break
			}
		}
	}

	pathMatches, bestPathFormat := 0, ""
	for _, f := range sample {
		dir := dirName(f.Path)
		if dir == "" {
			continue
		}
		for _, format := range pathFormats {
			if ExtractDate(dir, format) != nil {
				pathMatches++
				bestPathFormat = format
				break
			}
		}
	}

	switch {
	case filenameMatches > pathMatches:
		log.Infof("Auto-detected dates in filenames (%d/%d matches)", filenameMatches, sampleSize)
		cfg.SortByDateInFilename = true
		if bestFilenameFormat != "" {
			cfg.DateFormatInFilename = bestFilenameFormat
		}
	case pathMatches > 0:
		log.Infof("Auto-detected dates in directory paths (%d/%d matches)", pathMatches, sampleSize)
		cfg.SortByDateInPath = true
		if bestPathFormat != "" {
			cfg.DateFormatInPath = bestPathFormat
		}
	default:
		log.Info("Could not auto-detect dates in filenames or paths, defaulting to filename sorting")
		cfg.SortOnFileName = true
	}
}

// SortFiles orders or selects the file list by exactly one strategy, chosen
// by priority: modified-time > date-in-path > date-in-filename > latest-only
// > filename.  Auto-detection fills in a strategy when none is set.  A
// strategy that cannot be applied falls back to the original, unsorted list.
func SortFiles(files []FileEntry, cfg *TransferConfig) []FileEntry {
	if len(files) == 0 {
		log.Info("No files to sort")
		return []FileEntry{}
	}

	if cfg.SortByDate {
		detectDateLocation(files, cfg)
	} else if !cfg.SortByDateInPath && !cfg.SortByDateInFilename && !cfg.SortFilesByModifiedTime &&
		!cfg.SortOnFileName && !cfg.GetLatestFileOnly {
		detectDateLocation(files, cfg)
	}

	log.Infof("Sorting %d files", len(files))
	sorted := make([]FileEntry, len(files))
	copy(sorted, files)

	switch {
	case cfg.SortFilesByModifiedTime:
		log.Infof("Sorting files by modification time (descending=%t)", cfg.SortDescending)
		sort.SliceStable(sorted, func(i, j int) bool {
			if cfg.SortDescending {
				return sorted[i].MTime.After(sorted[j].MTime)
			}
			return sorted[i].MTime.Before(sorted[j].MTime)
		})

	case cfg.SortByDateInPath:
		log.Infof("Sorting files by date in path using format %q (descending=%t)", cfg.DateFormatInPath, cfg.SortDescending)
		sorted = sortByExtractedDate(sorted, cfg, false)

	case cfg.SortByDateInFilename:
		log.Infof("Sorting files by date in filename using format %q (descending=%t)", cfg.DateFormatInFilename, cfg.SortDescending)
		sorted = sortByExtractedDate(sorted, cfg, true)

	case cfg.GetLatestFileOnly:
		log.Info("Getting latest file only - sorting by modification time (descending)")
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].MTime.After(sorted[j].MTime)
		})
		latest := sorted[0].MTime
		keepCount := 0
		for _, f := range sorted {
			if f.MTime.Equal(latest) {
				keepCount++
			}
		}
		sorted = sorted[:keepCount]
		log.Infof("Found %d file(s) with latest modification time %s", len(sorted), latest)

	case cfg.SortOnFileName:
		log.Infof("Sorting files by filename (case-sensitive=%t, descending=%t)", cfg.CaseSensitive, cfg.SortDescending)
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i].Name, sorted[j].Name
			if !cfg.CaseSensitive {
				a, b = strings.ToLower(a), strings.ToLower(b)
			}
			if cfg.SortDescending {
				return a > b
			}
			return a < b
		})
	}

	// The cap applies after sorting; latest-only keeps every tied file.
	if !cfg.GetLatestFileOnly && cfg.NumFiles > 0 && len(sorted) > cfg.NumFiles {
		log.Infof("Limiting to %d files (from %d total)", cfg.NumFiles, len(sorted))
		sorted = sorted[:cfg.NumFiles]
	}

	log.Infof("Sorted to %d files", len(sorted))
	return sorted
}

// sortByExtractedDate partitions files into those with an extractable date
// (sorted by it) and those without (original order, appended after).  The
// extracted date is attached to the entry in place.  A date format that
// cannot be compiled leaves the list unsorted (fail-open).
func sortByExtractedDate(files []FileEntry, cfg *TransferConfig, fromFilename bool) []FileEntry {
	format := cfg.DateFormatInPath
	if fromFilename {
		format = cfg.DateFormatInFilename
	}
	if _, err := CompileDateFormat(format); err != nil {
		log.Errorf("Error sorting by date: %v", err)
		log.Warn("Falling back to unsorted file list")
		return files
	}

	var dated, undated []FileEntry
	for i := range files {
		entry := &files[i]
		if fromFilename {
			entry.ExtractedDate = ExtractDate(entry.Name, format)
		} else {
			entry.ExtractedPathDate = ExtractDate(dirName(entry.Path), format)
		}
		if datedTime(entry, fromFilename) != nil {
			dated = append(dated, *entry)
		} else {
			undated = append(undated, *entry)
		}
	}

	log.Infof("Found dates in %d files, %d files without recognizable dates", len(dated), len(undated))

	sort.SliceStable(dated, func(i, j int) bool {
		a := *datedTime(&dated[i], fromFilename)
		b := *datedTime(&dated[j], fromFilename)
		if cfg.SortDescending {
			return a.After(b)
		}
		return a.Before(b)
	})

	return append(dated, undated...)
}

// datedTime returns the annotation relevant to the active strategy.
func datedTime(f *FileEntry, fromFilename bool) *time.Time {
	if fromFilename {
		return f.ExtractedDate
	}
	return f.ExtractedPathDate
}

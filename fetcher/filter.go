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
	"path"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const dateOnlyLayout = "2006-01-02"

// FilterFiles reduces the file list through a fixed, sequential chain of
// predicates; each stage operates on the output of the previous one.  An
// invalid include or exclude pattern aborts the chain with an empty result
// (fail-closed).
func FilterFiles(files []FileEntry, cfg *TransferConfig) []FileEntry {
	filtered := files

	// Stage 1: exact sample-file match, or the include pattern when no
	// sample list is supplied.  The sample list wins when both exist.
	if len(cfg.SampleFiles) > 0 {
		before := len(filtered)
		filtered = filterBySampleFiles(filtered, cfg.SampleFiles)
		log.Infof("Filtered by sample files %v: %d files match, %d skipped", cfg.SampleFiles, len(filtered), before-len(filtered))
	} else if cfg.Pattern != "" {
		pattern := PrepareRegexPattern(cfg.Pattern, cfg.EscapeSpecialCharacters, cfg.DontEscapeBrackets)
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Errorf("Invalid include pattern %q: %v", pattern, err)
			return []FileEntry{}
		}
		before := len(filtered)
		filtered = filterByRegex(filtered, re, cfg.AppendFullPath, true)
		log.Infof("Filtered by pattern %q: %d files match, %d skipped", pattern, len(filtered), before-len(filtered))
	}

	// Stage 2: exclude pattern.
	if cfg.ExcludePattern != "" {
		pattern := PrepareRegexPattern(cfg.ExcludePattern, cfg.EscapeSpecialCharacters, cfg.DontEscapeBrackets)
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Errorf("Invalid exclude pattern %q: %v", pattern, err)
			return []FileEntry{}
		}
		before := len(filtered)
		filtered = filterByRegex(filtered, re, cfg.AppendFullPath, false)
		log.Infof("Filtered by exclude pattern %q: %d files remain, %d skipped", pattern, len(filtered), before-len(filtered))
	}

	// Stage 3: comma-separated skip patterns, applied one after another.
	// An invalid individual pattern is logged and skipped.
	if cfg.SkipPatterns != "" {
		before := len(filtered)
		for _, raw := range strings.Split(cfg.SkipPatterns, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			pattern := PrepareRegexPattern(raw, cfg.EscapeSpecialCharacters, cfg.DontEscapeBrackets)
			re, err := regexp.Compile(pattern)
			if err != nil {
				log.Warnf("Invalid skip pattern %q: %v", raw, err)
				continue
			}
			filtered = filterByRegex(filtered, re, cfg.AppendFullPath, false)
		}
		if skipped := before - len(filtered); skipped > 0 {
			log.Infof("Total files skipped by skip patterns: %d", skipped)
		}
	}

	// Stage 4: case-insensitive substring exclude keywords.
	if cfg.ExcludeKeywords != "" {
		keywords := splitAndLower(cfg.ExcludeKeywords)
		before := len(filtered)
		filtered = filterByKeywords(filtered, keywords)
		log.Infof("Filtered by exclude keywords %v: %d files remain, %d skipped", keywords, len(filtered), before-len(filtered))
	}

	// Stage 5: extension allow-list.
	if len(cfg.Extensions) > 0 {
		extensions := normalizeExtensions(cfg.Extensions)
		filtered = keep(filtered, func(f FileEntry) bool {
			ext := strings.ToLower(path.Ext(f.Name))
			for _, allowed := range extensions {
				if ext == allowed {
					return true
				}
			}
			return false
		})
		log.Infof("Filtered by extensions %v: %d files match", extensions, len(filtered))
	}

	// Stages 6: size bounds.
	if cfg.MinSize != "" {
		if minSize := ParseSize(cfg.MinSize); minSize >= 0 {
			filtered = keep(filtered, func(f FileEntry) bool { return f.Size >= minSize })
			log.Infof("Filtered by min size %d bytes: %d files match", minSize, len(filtered))
		}
	}
	if cfg.MaxSize != "" {
		if maxSize := ParseSize(cfg.MaxSize); maxSize >= 0 {
			filtered = keep(filtered, func(f FileEntry) bool { return f.Size <= maxSize })
			log.Infof("Filtered by max size %d bytes: %d files match", maxSize, len(filtered))
		}
	}

	// Stage 7: last-N-days modified-time window.
	if cfg.LastDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.LastDays)
		filtered = keep(filtered, func(f FileEntry) bool { return !f.MTime.Before(cutoff) })
		log.Infof("Filtered by last %d days: %d files match", cfg.LastDays, len(filtered))
	}

	// Stage 8: explicit modified-time bounds.
	if cfg.StartDate != "" {
		if start, err := time.ParseInLocation(dateOnlyLayout, cfg.StartDate, time.Local); err == nil {
			filtered = keep(filtered, func(f FileEntry) bool { return !f.MTime.Before(start) })
			log.Infof("Filtered by start date %s: %d files match", cfg.StartDate, len(filtered))
		} else {
			log.Errorf("Invalid start_date %q, expected YYYY-MM-DD", cfg.StartDate)
		}
	}
	if cfg.EndDate != "" {
		if end, err := time.ParseInLocation(dateOnlyLayout, cfg.EndDate, time.Local); err == nil {
			endOfDay := end.Add(24*time.Hour - time.Second)
			filtered = keep(filtered, func(f FileEntry) bool { return !f.MTime.After(endOfDay) })
			log.Infof("Filtered by end date %s: %d files match", cfg.EndDate, len(filtered))
		} else {
			log.Errorf("Invalid end_date %q, expected YYYY-MM-DD", cfg.EndDate)
		}
	}

	// Stage 9: extracted-date window.
	if extractedDateFilterActive(cfg) {
		filtered = filterByExtractedDate(filtered, cfg)
	}

	return filtered
}

func filterBySampleFiles(files []FileEntry, samples []string) []FileEntry {
	sampleSet := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		sampleSet[s] = struct{}{}
	}
	return keep(files, func(f FileEntry) bool {
		_, ok := sampleSet[f.Name]
		return ok
	})
}

// filterByRegex keeps files matching (include) or not matching (exclude) the
// regex, checking the full path too when appendFullPath is set.
func filterByRegex(files []FileEntry, re *regexp.Regexp, appendFullPath, include bool) []FileEntry {
	return keep(files, func(f FileEntry) bool {
		matched := re.MatchString(f.Name)
		if !matched && appendFullPath {
			matched = re.MatchString(f.Path)
		}
		return matched == include
	})
}

func filterByKeywords(files []FileEntry, keywords []string) []FileEntry {
	return keep(files, func(f FileEntry) bool {
		nameLower := strings.ToLower(f.Name)
		for _, kw := range keywords {
			if strings.Contains(nameLower, kw) {
				log.Debugf("Excluded %s: contains keyword %q", f.Name, kw)
				return false
			}
		}
		return true
	})
}

func keep(files []FileEntry, pred func(FileEntry) bool) []FileEntry {
	result := make([]FileEntry, 0, len(files))
	for _, f := range files {
		if pred(f) {
			result = append(result, f)
		}
	}
	return result
}

func splitAndLower(commaList string) []string {
	parts := strings.Split(commaList, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// extractedDateFilterActive reports whether the extracted-date stage should
// run: an explicit bound or a forward window must be configured and a date
// location flag must be set.  A bare last-N-days setting does not activate
// the stage on its own; it only shapes the window once a bound does.
func extractedDateFilterActive(cfg *TransferConfig) bool {
	windowConfigured := cfg.ExtractedDateStart != "" || cfg.ExtractedDateEnd != "" ||
		cfg.ExtractedDateNextDays > 0
	locationKnown := cfg.SortByDateInFilename || cfg.SortByDateInPath
	return windowConfigured && locationKnown
}

// resolveExtractedDateWindow computes the [start, end] window with priority:
// explicit start/end > next-N-days from today > last-N-days (anchored to the
// explicit end date when present, else today).
func resolveExtractedDateWindow(cfg *TransferConfig, now time.Time) (start, end *time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	}

	if cfg.ExtractedDateNextDays > 0 {
		s := today
		e := endOfDay(today.AddDate(0, 0, cfg.ExtractedDateNextDays))
		start, end = &s, &e
	}

	if cfg.ExtractedDateLastDays > 0 {
		anchor := today
		if cfg.ExtractedDateEnd != "" {
			if parsed, err := time.ParseInLocation(dateOnlyLayout, cfg.ExtractedDateEnd, time.Local); err == nil {
				anchor = parsed
			}
		}
		s := anchor.AddDate(0, 0, -(cfg.ExtractedDateLastDays - 1))
		e := endOfDay(anchor)
		start, end = &s, &e
	}

	// Explicit bounds override whatever the relative windows produced.
	if cfg.ExtractedDateStart != "" {
		if parsed, err := time.ParseInLocation(dateOnlyLayout, cfg.ExtractedDateStart, time.Local); err == nil {
			start = &parsed
		} else {
			log.Errorf("Invalid extracted_date_start %q, expected YYYY-MM-DD", cfg.ExtractedDateStart)
		}
	}
	if cfg.ExtractedDateEnd != "" {
		if parsed, err := time.ParseInLocation(dateOnlyLayout, cfg.ExtractedDateEnd, time.Local); err == nil {
			e := endOfDay(parsed)
			end = &e
		} else {
			log.Errorf("Invalid extracted_date_end %q, expected YYYY-MM-DD", cfg.ExtractedDateEnd)
		}
	}
	return start, end
}

// filterByExtractedDate keeps files whose date, extracted from the filename
// first and the containing directory path second, falls inside the resolved
// window.  Files with no extractable date are dropped.
func filterByExtractedDate(files []FileEntry, cfg *TransferConfig) []FileEntry {
	start, end := resolveExtractedDateWindow(cfg, time.Now())

	result := make([]FileEntry, 0, len(files))
	skipped := 0
	for _, f := range files {
		var extracted *time.Time

		if cfg.SortByDateInFilename {
			extracted = ExtractDate(f.Name, cfg.DateFormatInFilename)
		}
		if extracted == nil && cfg.SortByDateInPath {
			extracted = ExtractDate(dirName(f.Path), cfg.DateFormatInPath)
		}

		if extracted == nil {
			log.Debugf("Skipped %s: no date extracted", f.Name)
			skipped++
			continue
		}
		if start != nil && extracted.Before(*start) {
			log.Debugf("Skipped %s: date %s before window start", f.Name, extracted.Format(dateOnlyLayout))
			skipped++
			continue
		}
		if end != nil && extracted.After(*end) {
			log.Debugf("Skipped %s: date %s after window end", f.Name, extracted.Format(dateOnlyLayout))
			skipped++
			continue
		}
		result = append(result, f)
	}
	log.Infof("Filtered by extracted dates: %d files match, %d skipped", len(result), skipped)
	return result
}

func dirName(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return ""
	}
	return p[:idx]
}

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
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// This file is the single date-pattern compiler shared by the filter and
// sort engines.  It covers three conversions:
//
//   - curly-brace date placeholders in user patterns ({Y}, {m}, {d}, {S}, ...)
//     expanded against a reference time, with existing regex quantifiers like
//     \d{4} protected from corruption;
//   - strftime-style date formats (%Y-%m-%d) compiled into matching regexes;
//   - strftime-style date formats converted to Go time layouts for parsing
//     the matched substring back into a time.Time.

// Matches regex quantifier constructs such as \d{4} or \w{2,5} whose braces
// must survive placeholder expansion untouched.
var quantifierRegex = regexp.MustCompile(`\\[dswbDSWB]\{[0-9,]+\}`)

// Matches a curly-brace placeholder group.
var placeholderRegex = regexp.MustCompile(`\{([^}]+)\}`)

// ordinalSuffix returns the English ordinal suffix for a day of month.
func ordinalSuffix(day int) string {
	if (day >= 4 && day <= 20) || (day >= 24 && day <= 30) {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// placeholderValue resolves a single placeholder letter against the
// reference time.  The letters follow the original configuration dialect
// (PHP-date style), not strftime.
func placeholderValue(letter byte, now time.Time) (string, bool) {
	switch letter {
	case 'Y':
		return now.Format("2006"), true
	case 'y':
		return now.Format("06"), true
	case 'm':
		return now.Format("01"), true
	case 'n':
		return strconv.Itoa(int(now.Month())), true
	case 'M':
		return now.Format("Jan"), true
	case 'F':
		return now.Format("January"), true
	case 'd':
		return now.Format("02"), true
	case 'j':
		return strconv.Itoa(now.Day()), true
	case 'D':
		return now.Format("Mon"), true
	case 'l':
		return now.Format("Monday"), true
	case 'S':
		return ordinalSuffix(now.Day()), true
	case 'H':
		return now.Format("15"), true
	case 'G':
		return strconv.Itoa(now.Hour()), true
	case 'h':
		return now.Format("03"), true
	case 'g':
		return strconv.Itoa((now.Hour()+11)%12 + 1), true
	case 'a':
		return strings.ToLower(now.Format("PM")), true
	case 'A':
		return now.Format("PM"), true
	case 'i':
		return now.Format("04"), true
	case 's':
		return now.Format("05"), true
	case 'W':
		_, week := now.ISOWeek()
		return fmt.Sprintf("%02d", week), true
	}
	return "", false
}

// ExpandDatePlaceholders replaces curly-brace date placeholders in a pattern
// with values from the reference time.  Compound placeholders such as
// {Y-m-d} expand letter by letter, keeping unknown characters literal.
// Regex quantifiers like \d{4} pass through unchanged.
func ExpandDatePlaceholders(pattern string, now time.Time) string {
	if pattern == "" {
		return pattern
	}

	// Protect quantifier braces before touching any placeholders.
	protected := map[string]string{}
	idx := 0
	processed := quantifierRegex.ReplaceAllStringFunc(pattern, func(m string) string {
		token := fmt.Sprintf("\x00QTOK%d\x00", idx)
		protected[token] = m
		idx++
		return token
	})

	processed = placeholderRegex.ReplaceAllStringFunc(processed, func(m string) string {
		inner := m[1 : len(m)-1]
		if len(inner) == 1 {
			if val, ok := placeholderValue(inner[0], now); ok {
				return val
			}
			return m
		}
		// Compound placeholder: expand each letter independently.
		var sb strings.Builder
		expanded := false
		for i := 0; i < len(inner); i++ {
			if val, ok := placeholderValue(inner[i], now); ok {
				sb.WriteString(val)
				expanded = true
			} else {
				sb.WriteByte(inner[i])
			}
		}
		if !expanded {
			return m
		}
		return sb.String()
	})

	for token, original := range protected {
		processed = strings.Replace(processed, token, original, 1)
	}

	if processed != pattern {
		log.Debugf("Expanded date placeholders in pattern %q to %q", pattern, processed)
	}
	return processed
}

// escapeSpecialCharacters backslash-escapes every rune of text that appears
// in charsToEscape.
func escapeSpecialCharacters(text, charsToEscape string) string {
	if text == "" || charsToEscape == "" {
		return text
	}
	var sb strings.Builder
	for _, r := range text {
		if strings.ContainsRune(charsToEscape, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// escapeBrackets escapes literal square brackets so they match themselves.
// Brackets the caller already escaped are left alone.
func escapeBrackets(pattern string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) && (pattern[i+1] == '[' || pattern[i+1] == ']') {
			sb.WriteByte(pattern[i])
			sb.WriteByte(pattern[i+1])
			i++
			continue
		}
		if pattern[i] == '[' || pattern[i] == ']' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(pattern[i])
	}
	return sb.String()
}

// PrepareRegexPattern normalizes a user-supplied pattern before compilation:
// date placeholders are expanded against the current date, configured special
// characters are escaped, and square brackets are treated as literals unless
// the caller opted out.
func PrepareRegexPattern(pattern, escapeChars string, dontEscapeBrackets bool) string {
	if pattern == "" {
		return pattern
	}
	pattern = ExpandDatePlaceholders(pattern, time.Now())
	if escapeChars != "" {
		pattern = escapeSpecialCharacters(pattern, escapeChars)
	}
	if !dontEscapeBrackets {
		pattern = escapeBrackets(pattern)
	}
	return pattern
}

// strftime directives recognized when compiling a date format to a regex.
// Order matters: each directive is replaced wherever it occurs.
var formatDirectives = []struct {
	directive string
	pattern   string
	layout    string
}{
	{"%Y", `(\d{4})`, "2006"},
	{"%y", `(\d{2})`, "06"},
	{"%m", `(\d{1,2})`, "1"},
	{"%d", `(\d{1,2})`, "2"},
	{"%b", `([A-Za-z]{3})`, "Jan"},
	{"%B", `([A-Za-z]+)`, "January"},
	{"%H", `(\d{1,2})`, "15"},
	{"%M", `(\d{1,2})`, "4"},
	{"%S", `(\d{1,2})`, "5"},
}

// CompileDateFormat converts a strftime-style date format into a regex that
// locates an occurrence of that date inside a larger string.
func CompileDateFormat(format string) (*regexp.Regexp, error) {
	if format == "" {
		return nil, errors.New("empty date format")
	}
	pattern := format
	for _, d := range formatDirectives {
		pattern = strings.ReplaceAll(pattern, d.directive, d.pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "date format %q compiled to invalid regex", format)
	}
	return re, nil
}

// dateFormatLayout converts a strftime-style format to a Go time layout.
func dateFormatLayout(format string) string {
	layout := format
	for _, d := range formatDirectives {
		layout = strings.ReplaceAll(layout, d.directive, d.layout)
	}
	return layout
}

// ExtractDate finds a date matching the strftime-style format inside s and
// parses it.  Returns nil when no parseable date is present.
func ExtractDate(s, format string) *time.Time {
	re, err := CompileDateFormat(format)
	if err != nil {
		log.Debugf("Cannot compile date format %q: %v", format, err)
		return nil
	}
	match := re.FindString(s)
	if match == "" {
		return nil
	}
	parsed, err := time.ParseInLocation(dateFormatLayout(format), match, time.Local)
	if err != nil {
		log.Debugf("Matched %q in %q but failed to parse with format %q: %v", match, s, format, err)
		return nil
	}
	return &parsed
}

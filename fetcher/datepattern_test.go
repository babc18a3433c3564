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

// 2024-03-07 is a Thursday, 14:05:09.
var refTime = time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

func TestExpandDatePlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{"year month day", "report_{Y}-{m}-{d}.csv", "report_2024-03-07.csv"},
		{"short year", "{y}{m}{d}", "240307"},
		{"non padded", "{n}/{j}", "3/7"},
		{"month names", "{M}_{F}", "Mar_March"},
		{"day names", "{D}_{l}", "Thu_Thursday"},
		{"ordinal suffix", "{j}{S}", "7th"},
		{"hours", "{H}:{i}:{s}", "14:05:09"},
		{"twelve hour clock", "{h}{a}", "02pm"},
		{"iso week", "week{W}", "week10"},
		{"compound placeholder", "{Y-m-d}", "2024-03-07"},
		{"quantifier untouched", `file_\d{4}_{Y}`, `file_\d{4}_2024`},
		{"multiple quantifiers", `\d{4}-\d{2}-\d{2}`, `\d{4}-\d{2}-\d{2}`},
		{"unknown placeholder kept", "{qqq}", "{qqq}"},
		{"unknown single letter kept", "{x}", "{x}"},
		{"empty", "", ""},
		{"no placeholders", "plain.txt", "plain.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandDatePlaceholders(tt.pattern, refTime))
		})
	}
}

func TestOrdinalSuffix(t *testing.T) {
	assert.Equal(t, "st", ordinalSuffix(1))
	assert.Equal(t, "nd", ordinalSuffix(2))
	assert.Equal(t, "rd", ordinalSuffix(3))
	assert.Equal(t, "th", ordinalSuffix(11))
	assert.Equal(t, "st", ordinalSuffix(21))
	assert.Equal(t, "nd", ordinalSuffix(22))
	assert.Equal(t, "rd", ordinalSuffix(23))
	assert.Equal(t, "st", ordinalSuffix(31))
}

func TestPrepareRegexPattern(t *testing.T) {
	tests := []struct {
		name               string
		pattern            string
		escapeChars        string
		dontEscapeBrackets bool
		expected           string
	}{
		{"brackets escaped by default", "data[1].csv", "", false, `data\[1\].csv`},
		{"brackets kept on opt out", "data[0-9].csv", "", true, "data[0-9].csv"},
		{"already escaped brackets untouched", `data\[1\].csv`, "", false, `data\[1\].csv`},
		{"special chars escaped", "a.b", ".", true, `a\.b`},
		{"escape then brackets", "data[1].csv", ".", false, `data\[1\]\.csv`},
		{"quantifier braces survive", `\d{4}\.log`, "", true, `\d{4}\.log`},
		{"empty pattern", "", ".", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrepareRegexPattern(tt.pattern, tt.escapeChars, tt.dontEscapeBrackets))
		})
	}
}

func TestCompileDateFormat(t *testing.T) {
	re, err := CompileDateFormat("%Y-%m-%d")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", re.FindString("report_2024-03-07.csv"))
	assert.Equal(t, "2024-3-7", re.FindString("report_2024-3-7.csv"))
	assert.Empty(t, re.FindString("report.csv"))

	re, err = CompileDateFormat("%Y/%b/%d")
	require.NoError(t, err)
	assert.Equal(t, "2024/Mar/07", re.FindString("/data/2024/Mar/07/file.csv"))

	_, err = CompileDateFormat("")
	assert.Error(t, err)
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		format   string
		expected *time.Time
	}{
		{
			"date in filename",
			"report_2024-03-07.csv", "%Y-%m-%d",
			timePtr(time.Date(2024, 3, 7, 0, 0, 0, 0, time.Local)),
		},
		{
			"compact date",
			"file_20240307.txt", "%Y%m%d",
			timePtr(time.Date(2024, 3, 7, 0, 0, 0, 0, time.Local)),
		},
		{
			"date in path",
			"/data/2024/03/07", "%Y/%m/%d",
			timePtr(time.Date(2024, 3, 7, 0, 0, 0, 0, time.Local)),
		},
		{
			"single digit components",
			"log_2024-3-7.txt", "%Y-%m-%d",
			timePtr(time.Date(2024, 3, 7, 0, 0, 0, 0, time.Local)),
		},
		{"no date present", "report.csv", "%Y-%m-%d", nil},
		{"empty format", "report_2024-03-07.csv", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDate(tt.input, tt.format)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.True(t, tt.expected.Equal(*got), "expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

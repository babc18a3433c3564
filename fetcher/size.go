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
	"strconv"
	"strings"
)

// ParseSize converts a human-readable size string ("10MB", "1.5GB", "2048")
// to bytes.  Returns -1 when the input is empty or unparseable.
func ParseSize(sizeStr string) int64 {
	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))
	if sizeStr == "" {
		return -1
	}

	units := []struct {
		suffix     string
		multiplier int64
	}{
		{"TB", 1 << 40},
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
	}

	for _, unit := range units {
		if strings.HasSuffix(sizeStr, unit.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(sizeStr, unit.suffix))
			val, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return -1
			}
			return int64(val * float64(unit.multiplier))
		}
	}

	val, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return -1
	}
	return val
}

// FormatSize renders a byte count as a human-readable string for log lines.
func FormatSize(sizeInBytes int64) string {
	switch {
	case sizeInBytes >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(sizeInBytes)/float64(1<<20))
	case sizeInBytes >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(sizeInBytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d Bytes", sizeInBytes)
	}
}

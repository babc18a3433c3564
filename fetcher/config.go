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
	"github.com/spf13/cast"
)

// TransferConfig is the flattened configuration consumed by the pipeline.
// Structured per-protocol configs are reduced to this shape by the mapping
// functions below; unrecognized top-level keys are carried in Extra.
type TransferConfig struct {
	// Connection
	Type            string
	Host            string
	Port            int
	User            string
	Pass            string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePassiveMode  bool

	// Scope
	Path string

	// File selection
	Pattern         string
	SampleFiles     []string
	ExcludePattern  string
	SkipPatterns    string
	ExcludeKeywords string
	ExcludeFolders  []string
	SkipSubFolders  bool
	Extensions      []string
	MinSize         string
	MaxSize         string
	LastDays        int
	StartDate       string
	EndDate         string

	// Regex normalization
	EscapeSpecialCharacters string
	DontEscapeBrackets      bool

	// Sorting
	SortByDate              bool
	SortFilesByModifiedTime bool
	SortByDateInFilename    bool
	SortByDateInPath        bool
	DateFormat              string
	DateFormatInFilename    string
	DateFormatInPath        string
	GetLatestFileOnly       bool
	SortOnFileName          bool
	SortDescending          bool
	CaseSensitive           bool
	NumFiles                int

	// Extracted-date window
	ExtractedDateStart    string
	ExtractedDateEnd      string
	ExtractedDateLastDays int
	ExtractedDateNextDays int

	// Download
	LocalDownloadPath     string
	OverwriteExisting     bool
	AppendFullPath        bool
	SkipFrontSlashPath    bool
	AddFrontSlashPath     bool
	ResumeTransfer        bool
	ConnectionTimeout     int // seconds
	MaxReconnectAttempts  int
	ReconnectDelaySeconds int
	RenameAfterFetching   bool
	FileParsedString      string

	// Resume-state key
	InstanceID string
	ChannelID  string
	StateDir   string

	// Unrecognized top-level keys from the structured config.
	Extra map[string]any
}

// ApplyDefaults fills in the values assumed throughout the pipeline when the
// structured config left them unset.
func (c *TransferConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "/"
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = 30
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 3
	}
	if c.ReconnectDelaySeconds <= 0 {
		c.ReconnectDelaySeconds = 5
	}
	if c.FileParsedString == "" {
		c.FileParsedString = "Processed"
	}
	if c.InstanceID == "" {
		c.InstanceID = "default"
	}
	if c.ChannelID == "" {
		c.ChannelID = "default"
	}
	if c.DateFormatInFilename == "" {
		c.DateFormatInFilename = "%Y-%m-%d"
	}
	if c.DateFormatInPath == "" {
		c.DateFormatInPath = "%Y/%m/%d"
	}
}

func subMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if sub, ok := m[key].(map[string]any); ok {
		return sub
	}
	return nil
}

func firstPattern(m map[string]any, key string) string {
	patterns := cast.ToStringSlice(m[key])
	if len(patterns) == 0 {
		return ""
	}
	return patterns[0]
}

// sortFlags translates the structured sorting block's "by" selector into the
// flat boolean strategy flags.
func applySorting(cfg *TransferConfig, sorting map[string]any) {
	by := cast.ToString(sorting["by"])
	cfg.SortFilesByModifiedTime = by == "modified_time"
	cfg.SortByDateInFilename = by == "date_in_filename"
	cfg.SortByDateInPath = by == "date_in_path"
	cfg.SortOnFileName = by == "filename"
	cfg.GetLatestFileOnly = by == "latest_only"
	cfg.SortDescending = cast.ToBool(sorting["descending"])
	if f := cast.ToString(sorting["date_format"]); f != "" {
		cfg.DateFormatInFilename = f
		cfg.DateFormatInPath = f
	}
}

// parseDateRange parses the structured date-window range syntax ("T+14")
// into a next-N-days count.  Unrecognized syntax yields zero.
func parseDateRange(rangeStr string) int {
	if len(rangeStr) > 2 && rangeStr[:2] == "T+" {
		return cast.ToInt(rangeStr[2:])
	}
	return 0
}

// downloadOptionKeys are the top-level behavior switches shared by every
// protocol family; they map to typed fields, never to Extra.
var downloadOptionKeys = map[string]struct{}{
	"resume_transfer":    {},
	"overwrite_existing": {},
	"appendFullPath":     {},
	"skipFrontSlashPath": {},
	"addFrontSlashPath":  {},
}

// applyDownloadOptions maps the top-level download switches into the typed
// fields.  Resume is on unless the config turns it off.
func applyDownloadOptions(cfg *TransferConfig, structured map[string]any) {
	cfg.ResumeTransfer = true
	if v, ok := structured["resume_transfer"]; ok {
		cfg.ResumeTransfer = cast.ToBool(v)
	}
	cfg.OverwriteExisting = cast.ToBool(structured["overwrite_existing"])
	cfg.AppendFullPath = cast.ToBool(structured["appendFullPath"])
	cfg.SkipFrontSlashPath = cast.ToBool(structured["skipFrontSlashPath"])
	cfg.AddFrontSlashPath = cast.ToBool(structured["addFrontSlashPath"])
}

// copyExtras carries through any top-level keys the mapper did not consume.
func copyExtras(cfg *TransferConfig, structured map[string]any, consumed string) {
	for key, value := range structured {
		if key == consumed {
			continue
		}
		if _, ok := downloadOptionKeys[key]; ok {
			continue
		}
		if cfg.Extra == nil {
			cfg.Extra = map[string]any{}
		}
		cfg.Extra[key] = value
	}
}

// applyCommon maps the blocks shared by every protocol family.
func applyCommon(cfg *TransferConfig, proto map[string]any) {
	scope := subMap(proto, "scope")
	if p := cast.ToString(scope["path"]); p != "" {
		cfg.Path = p
	}

	fileSelect := subMap(proto, "file_select")
	include := subMap(fileSelect, "include")
	exclude := subMap(fileSelect, "exclude")
	cfg.Pattern = firstPattern(include, "patterns")
	cfg.Extensions = cast.ToStringSlice(include["extensions"])
	cfg.CaseSensitive = cast.ToBool(include["case_sensitive"])
	cfg.ExcludePattern = firstPattern(exclude, "patterns")
	cfg.ExcludeFolders = cast.ToStringSlice(exclude["folders"])
	cfg.SkipSubFolders = cast.ToBool(exclude["skip_subfolders"])

	applySorting(cfg, subMap(proto, "sorting"))

	dateWindow := subMap(proto, "date_window")
	cfg.ExtractedDateNextDays = parseDateRange(cast.ToString(dateWindow["range"]))

	cfg.SampleFiles = cast.ToStringSlice(proto["file_examples"])

	postFetch := subMap(proto, "post_fetch")
	cfg.RenameAfterFetching = cast.ToBool(postFetch["rename_after_fetch"])
	if tmpl := cast.ToString(postFetch["rename_template"]); tmpl != "" {
		cfg.FileParsedString = tmpl
	}
}

// MapFTPConfig reduces a structured FTP/SFTP config to the flat form.
func MapFTPConfig(structured map[string]any) *TransferConfig {
	cfg := &TransferConfig{}
	proto := subMap(structured, "ftp")

	connection := subMap(proto, "connection")
	auth := subMap(connection, "auth")
	cfg.Type = cast.ToString(connection["protocol"])
	if cfg.Type == "" {
		cfg.Type = "ftp"
	}
	cfg.Host = cast.ToString(connection["host"])
	cfg.Port = cast.ToInt(connection["port"])
	cfg.User = cast.ToString(auth["username"])
	cfg.Pass = cast.ToString(auth["password"])
	cfg.UsePassiveMode = cast.ToBool(connection["passive_mode"])

	applyCommon(cfg, proto)
	applyDownloadOptions(cfg, structured)
	copyExtras(cfg, structured, "ftp")
	cfg.ApplyDefaults()
	return cfg
}

// MapLocalConfig reduces a structured local-directory config to the flat
// form.  Used for on-host pickup directories and heavily in tests.
func MapLocalConfig(structured map[string]any) *TransferConfig {
	cfg := &TransferConfig{Type: "local"}
	proto := subMap(structured, "local")

	applyCommon(cfg, proto)
	applyDownloadOptions(cfg, structured)
	copyExtras(cfg, structured, "local")
	cfg.ApplyDefaults()
	return cfg
}

// MapObjectStoreConfig reduces a structured object-store config to the flat
// form.
func MapObjectStoreConfig(structured map[string]any) *TransferConfig {
	cfg := &TransferConfig{Type: "s3"}
	proto := subMap(structured, "s3")

	connection := subMap(proto, "connection")
	credentials := subMap(connection, "credentials")
	cfg.Bucket = cast.ToString(connection["bucket"])
	cfg.Region = cast.ToString(connection["region"])
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	cfg.AccessKeyID = cast.ToString(credentials["access_key_id"])
	cfg.SecretAccessKey = cast.ToString(credentials["secret_access_key"])

	applyCommon(cfg, proto)
	applyDownloadOptions(cfg, structured)
	copyExtras(cfg, structured, "s3")
	cfg.ApplyDefaults()
	return cfg
}

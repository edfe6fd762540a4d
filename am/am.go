// Package am loads mavgen's configuration ("I am").
//
// Configuration sources (in order of precedence):
//  1. Command line flags (bound by cmd/mavgen)
//  2. Environment variables (MAVGEN_* prefix, dots become underscores)
//  3. Project config (mavgen.toml, searched upward from the working directory)
//  4. User config (~/.mavgen/mavgen.toml)
//  5. Default values
package am

// Config represents the complete mavgen configuration
type Config struct {
	Definitions DefinitionsConfig `mapstructure:"definitions" toml:"definitions" json:"definitions" yaml:"definitions"`
	Output      OutputConfig      `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	Format      FormatConfig      `mapstructure:"format" toml:"format" json:"format" yaml:"format"`
	Build       BuildConfig       `mapstructure:"build" toml:"build" json:"build" yaml:"build"`
	Watch       WatchConfig       `mapstructure:"watch" toml:"watch" json:"watch" yaml:"watch"`
	Log         LogConfig         `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// DefinitionsConfig locates the dialect definition files and how to refresh them
type DefinitionsConfig struct {
	Dir          string `mapstructure:"dir" toml:"dir" json:"dir" yaml:"dir"`                               // Directory holding *.xml dialect files
	Source       string `mapstructure:"source" toml:"source" json:"source" yaml:"source"`                   // go-getter source or git URL; empty disables fetching
	Fetch        bool   `mapstructure:"fetch" toml:"fetch" json:"fetch" yaml:"fetch"`                       // Refresh Dir before generating
	RepoDir      string `mapstructure:"repo_dir" toml:"repo_dir" json:"repo_dir" yaml:"repo_dir"`           // Checkout root; patches apply here (default: Dir)
	PatchDir     string `mapstructure:"patch_dir" toml:"patch_dir" json:"patch_dir" yaml:"patch_dir"`       // *.patch files applied after fetching
	PatchCommand string `mapstructure:"patch_command" toml:"patch_command" json:"patch_command" yaml:"patch_command"` // Command line, patch path appended
}

// OutputConfig controls where and how generated code is written
type OutputConfig struct {
	Dir              string   `mapstructure:"dir" toml:"dir" json:"dir" yaml:"dir"`
	Lang             []string `mapstructure:"lang" toml:"lang" json:"lang" yaml:"lang"`                                             // go, markdown
	ImportPath       string   `mapstructure:"import_path" toml:"import_path" json:"import_path" yaml:"import_path"`                 // Go import path of Dir
	AggregatePackage string   `mapstructure:"aggregate_package" toml:"aggregate_package" json:"aggregate_package" yaml:"aggregate_package"`
	Dialects         []string `mapstructure:"dialects" toml:"dialects" json:"dialects" yaml:"dialects"` // Only these dialects (empty: every file)
	TrimExtensions   bool     `mapstructure:"trim_extensions" toml:"trim_extensions" json:"trim_extensions" yaml:"trim_extensions"` // Encoders drop trailing all-zero extension fields
	Reexport         bool     `mapstructure:"reexport" toml:"reexport" json:"reexport" yaml:"reexport"`                             // Aggregate re-exports every dialect type
}

// FormatConfig controls the formatting pass over emitted units
type FormatConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Command string `mapstructure:"command" toml:"command" json:"command" yaml:"command"` // External formatter; empty uses the in-process formatter
}

// BuildConfig controls the compile pipeline
type BuildConfig struct {
	Jobs  int  `mapstructure:"jobs" toml:"jobs" json:"jobs" yaml:"jobs"` // Concurrent dialect pipelines (0: GOMAXPROCS)
	Force bool `mapstructure:"force" toml:"force" json:"force" yaml:"force"`
}

// WatchConfig controls `mavgen watch`
type WatchConfig struct {
	DebounceMS       int `mapstructure:"debounce_ms" toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
	MaxRunsPerMinute int `mapstructure:"max_runs_per_minute" toml:"max_runs_per_minute" json:"max_runs_per_minute" yaml:"max_runs_per_minute"`
}

// LogConfig controls logger initialisation
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Theme string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"` // everforest, gruvbox
}

// Supported output languages
const (
	LangGo       = "go"
	LangMarkdown = "markdown"
)

// ConfigFileName is the project and user config file name
const ConfigFileName = "mavgen.toml"

// DefaultDirPermissions for directories mavgen creates
const DefaultDirPermissions = 0o755

// PatchRoot returns the directory patches are applied in.
func (d DefinitionsConfig) PatchRoot() string {
	if d.RepoDir != "" {
		return d.RepoDir
	}
	return d.Dir
}

// WantsLang reports whether lang is among the configured output languages.
func (o OutputConfig) WantsLang(lang string) bool {
	for _, l := range o.Lang {
		if l == lang {
			return true
		}
	}
	return false
}

package am

import (
	"regexp"

	"github.com/teranos/mavgen/errors"
)

var packageNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Definitions.Dir == "" {
		return errors.New("definitions.dir cannot be empty")
	}
	if c.Definitions.PatchCommand == "" && c.Definitions.PatchDir != "" {
		return errors.New("definitions.patch_command cannot be empty when definitions.patch_dir is set")
	}

	if c.Output.Dir == "" {
		return errors.New("output.dir cannot be empty")
	}
	if len(c.Output.Lang) == 0 {
		return errors.New("output.lang must name at least one language")
	}
	for _, lang := range c.Output.Lang {
		if lang != LangGo && lang != LangMarkdown {
			return errors.Newf("output.lang: unsupported language %q (supported: go, markdown)", lang)
		}
	}
	if c.Output.WantsLang(LangGo) {
		if c.Output.ImportPath == "" {
			return errors.WithHint(
				errors.New("output.import_path cannot be empty when generating Go"),
				"set it to the import path of output.dir, e.g. github.com/you/project/dialects",
			)
		}
		if !packageNamePattern.MatchString(c.Output.AggregatePackage) {
			return errors.Newf("output.aggregate_package %q is not a valid Go package name", c.Output.AggregatePackage)
		}
	}

	// Jobs: 0 = GOMAXPROCS, negative = invalid
	if c.Build.Jobs < 0 {
		return errors.Newf("build.jobs must be >= 0, got %d", c.Build.Jobs)
	}

	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.MaxRunsPerMinute <= 0 {
		return errors.Newf("watch.max_runs_per_minute must be > 0, got %d", c.Watch.MaxRunsPerMinute)
	}

	if c.Log.Theme != "" && c.Log.Theme != "everforest" && c.Log.Theme != "gruvbox" {
		return errors.Newf("log.theme: unknown theme %q (supported: everforest, gruvbox)", c.Log.Theme)
	}

	return nil
}

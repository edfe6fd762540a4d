package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Definitions
	v.SetDefault("definitions.dir", "mavlink/message_definitions/v1.0")
	v.SetDefault("definitions.source", "")
	v.SetDefault("definitions.fetch", true)
	v.SetDefault("definitions.repo_dir", "")
	v.SetDefault("definitions.patch_dir", "patches")
	v.SetDefault("definitions.patch_command", "git apply")

	// Output
	v.SetDefault("output.dir", "dialects")
	v.SetDefault("output.lang", []string{LangGo})
	v.SetDefault("output.import_path", "")
	v.SetDefault("output.aggregate_package", "dialects")
	v.SetDefault("output.dialects", []string{})
	v.SetDefault("output.trim_extensions", false)
	v.SetDefault("output.reexport", true)

	// Formatting pass
	v.SetDefault("format.enabled", true)
	v.SetDefault("format.command", "")

	// Build
	v.SetDefault("build.jobs", 0)
	v.SetDefault("build.force", false)

	// Watch
	v.SetDefault("watch.debounce_ms", 500)
	v.SetDefault("watch.max_runs_per_minute", 30)

	// Logging
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
}

func newDefaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/errors"
)

// flagKeys maps command flags to the configuration keys they override.
var flagKeys = map[string]string{
	"out":     "output.dir",
	"lang":    "output.lang",
	"dialect": "output.dialects",
	"jobs":    "build.jobs",
	"defs":    "definitions.dir",
}

// loadConfig loads the configuration with the flags cmd defines bound over
// it. Commands that write output validate the whole configuration; the
// others only need the definitions directory.
func loadConfig(cmd *cobra.Command, validate bool) (*am.Config, error) {
	v := am.GetViper()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "failed to bind --%s", flag)
			}
		}
	}

	cfg, err := am.LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if !validate {
		if cfg.Definitions.Dir == "" {
			return nil, errors.New("definitions.dir cannot be empty")
		}
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "invalid configuration"),
			"inspect it with: mavgen am show",
		)
	}
	return cfg, nil
}

// addOutputFlags adds the flags shared by commands that compile.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("defs", "", "Definitions directory (overrides definitions.dir)")
	cmd.Flags().StringP("out", "o", "", "Output directory (overrides output.dir)")
	cmd.Flags().StringSlice("lang", nil, "Output languages: go, markdown (overrides output.lang)")
	cmd.Flags().StringSlice("dialect", nil, "Only these dialects (overrides output.dialects)")
	cmd.Flags().IntP("jobs", "j", 0, "Concurrent dialect pipelines (overrides build.jobs)")
}

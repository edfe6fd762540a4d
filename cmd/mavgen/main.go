package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/cmd/mavgen/commands"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mavgen",
	Short: "mavgen - MAVLink dialect compiler",
	Long: `mavgen - compile MAVLink message definitions into typed code.

Every *.xml file in the definitions directory is compiled as a dialect of its
own: its includes are resolved and merged, every message gets a wire layout
and crc_extra, and one unit is emitted per dialect plus an aggregate unit that
dispatches by explicit dialect tag.

Available commands:
  generate - Fetch definitions, compile and write output
  check    - Verify committed output matches the definitions
  watch    - Regenerate whenever definitions change
  fetch    - Refresh and patch the definitions checkout
  inspect  - Print the planned wire layout of dialects
  decode   - Decode a payload against a dialect
  am       - Manage mavgen configuration ("I am")
  version  - Show build information

Examples:
  mavgen generate                  # Generate when definitions changed
  mavgen generate --force -j 4     # Regenerate everything with 4 workers
  mavgen check                     # Fail when output is stale
  mavgen inspect common -f json    # Dump the common dialect layout
  mavgen decode common 0 0403020102038104 03`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			am.SetConfigFile(configPath)
		}

		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		// Config errors surface in the command itself; here they only
		// mean the defaults for log settings apply.
		if cfg, err := am.Load(); err == nil {
			jsonLogs = jsonLogs || cfg.Log.JSON
			if cfg.Log.Theme != "" {
				logger.SetTheme(cfg.Log.Theme)
			}
		}

		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Logger.Debugw("logging", "level", logger.LevelName(verbosity))

		if logger.Shows(logger.OutputConfig) {
			for _, path := range am.ConfigPaths() {
				pterm.Info.WithWriter(os.Stderr).Printfln("config: %s", path)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: mavgen.toml searched upward, then ~/.mavgen/mavgen.toml)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.FetchCmd)
	rootCmd.AddCommand(commands.InspectCmd)
	rootCmd.AddCommand(commands.DecodeCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if logger.Shows(logger.OutputErrors) {
			for _, hint := range errors.GetAllHints(err) {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
			}
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for unusable definitions, 3 for payloads that fail to
// decode and 1 for everything else.
func exitCode(err error) int {
	switch {
	case errors.IsSchemaError(err), errors.IsModelError(err):
		return 2
	case errors.IsCodecError(err):
		return 3
	default:
		return 1
	}
}

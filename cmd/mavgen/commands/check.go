package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/compiler"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
)

// CheckCmd checks if generated output is up to date
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check if generated output is up to date",
	Long: `Check that the output directory matches what the current definitions produce.

This command compiles into a temporary directory and compares every generated
file with the output directory. Files only present in the output directory are
ignored. Definitions are not fetched.

Exit codes:
  0 - Output is up to date
  1 - Output is out of date (differences listed) or the check failed

Examples:
  mavgen check                 # Check all generated output
  mavgen check -o gen/mavlink  # Check a different output directory`,
	RunE: runCheck,
}

func init() {
	addOutputFlags(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	log := logger.ComponentLogger("check")

	opts, err := compiler.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	res, err := compiler.Compile(cmd.Context(), opts)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "mavgen-check-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	if _, err := compiler.Write(tempDir, res.Units, log); err != nil {
		return err
	}
	result, err := compiler.CompareDirectories(tempDir, cfg.Output.Dir)
	if err != nil {
		return errors.Wrap(err, "failed to compare directories")
	}

	if result.UpToDate {
		pterm.Success.Printfln("%s is up to date (%d files)", cfg.Output.Dir, len(res.Units))
		return nil
	}

	pterm.Error.Printfln("%s is out of date, %d files differ:", cfg.Output.Dir, len(result.Differences))
	for _, file := range result.Differences {
		pterm.Printfln("  - %s", file)
	}
	return errors.WithHint(errStale, "run: mavgen generate --force")
}

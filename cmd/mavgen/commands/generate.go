package commands

import (
	"github.com/spf13/cobra"
)

// GenerateCmd compiles every dialect and writes the output
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compile definitions and write generated code",
	Long: `Compile every definition file into its dialect unit plus the aggregate unit.

Before compiling, the definitions checkout is refreshed (pulled or fetched) and
local patches are applied; both steps are skipped with --no-fetch and never fail
the run while definition files exist on disk.

A manifest in the output directory records the definition hashes, the output
options and the mavgen version of the last run. When none of them changed and
every recorded file still exists, generate does nothing unless --force is set.

Examples:
  mavgen generate                     # Generate when something changed
  mavgen generate --force             # Always regenerate
  mavgen generate --lang go,markdown  # Emit Go and reference pages
  mavgen generate --dialect common    # Only the common dialect`,
	RunE: runGenerate,
}

func init() {
	addOutputFlags(GenerateCmd)
	GenerateCmd.Flags().Bool("force", false, "Regenerate even when nothing changed")
	GenerateCmd.Flags().Bool("no-fetch", false, "Skip refreshing and patching the definitions")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	noFetch, _ := cmd.Flags().GetBool("no-fetch")

	report, err := generate(cmd.Context(), cfg, force || cfg.Build.Force, cfg.Definitions.Fetch && !noFetch)
	if err != nil {
		return err
	}
	printReport(cfg, report)
	return nil
}

package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/sources"
)

// FetchCmd refreshes the definitions checkout
var FetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Refresh the definitions and apply local patches",
	Long: `Refresh the definitions checkout, then apply every *.patch file in
definitions.patch_dir with definitions.patch_command.

A checkout that is a git work tree is pulled. Otherwise definitions.source is
fetched: git sources are cloned, anything else go-getter understands (archives,
http, s3, local paths) is downloaded.

Examples:
  mavgen fetch
  mavgen fetch --no-patch`,
	RunE: runFetch,
}

func init() {
	FetchCmd.Flags().String("defs", "", "Definitions directory (overrides definitions.dir)")
	FetchCmd.Flags().Bool("no-patch", false, "Skip applying patches")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	log := logger.ComponentLogger("fetch")

	spinner, _ := pterm.DefaultSpinner.Start("Refreshing definitions...")
	method, err := sources.Fetch(cmd.Context(), cfg.Definitions, log)
	if err != nil {
		if spinner != nil {
			spinner.Fail("Fetch failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Success("Definitions refreshed (" + string(method) + ")")
	}

	if noPatch, _ := cmd.Flags().GetBool("no-patch"); noPatch {
		return nil
	}
	res, err := sources.ApplyPatches(cmd.Context(), cfg.Definitions, log)
	if err != nil {
		return err
	}
	if logger.Shows(logger.OutputSources) {
		for _, name := range res.Applied {
			pterm.Success.Printfln("Applied %s", name)
		}
	} else if len(res.Applied) > 0 {
		pterm.Success.Printfln("Applied %d patches", len(res.Applied))
	}
	for _, name := range res.Failed {
		pterm.Warning.Printfln("Could not apply %s", name)
	}
	if len(res.Applied)+len(res.Failed) == 0 {
		pterm.Info.Println("No patches to apply")
	}
	return nil
}

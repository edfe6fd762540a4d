package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage mavgen configuration",
	Long: `am - Manage mavgen configuration ("I am")

Display, validate and create mavgen configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (MAVGEN_* prefix, e.g. MAVGEN_OUTPUT_DIR)
3. Project config (mavgen.toml, searched upward from the working directory)
4. User config (~/.mavgen/mavgen.toml)
5. Default values

Examples:
  mavgen am show                  # Show current configuration
  mavgen am show --format json    # Show configuration in JSON format
  mavgen am validate              # Validate current configuration
  mavgen am init                  # Write a default mavgen.toml here
  mavgen am where                 # List the config files consulted`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current mavgen configuration merged from all sources",
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to path (default ./mavgen.toml).

An existing file is only replaced with --force; the previous version is kept
as <path>.back1.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmInit,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var (
	configFormat string
	initForce    bool
	initImport   string
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	amInitCmd.Flags().StringVar(&initImport, "import-path", "", "Go import path of the output directory")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if configFormat != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "# mavgen configuration")
	}
	return writeDoc(cmd.OutOrStdout(), configFormat, cfg)
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.WithHint(
			errors.Newf("%s already exists", path),
			"pass --force to overwrite it",
		)
	}

	cfg := am.Default()
	cfg.Output.ImportPath = initImport
	if err := am.WriteFile(path, cfg); err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	pterm.Success.Printfln("Wrote %s", abs)
	if initImport == "" {
		pterm.Warning.Println("Set output.import_path before generating Go code")
	}
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	pterm.Println("Configuration cascade (later overrides earlier):")
	pterm.Println("  1. [DEFAULT]  Built-in defaults")
	pterm.Println("  2. [USER]     ~/.mavgen/mavgen.toml")
	pterm.Println("  3. [PROJECT]  ./mavgen.toml (searches up directories)")
	pterm.Println("  4. [ENV]      MAVGEN_* environment variables")
	pterm.Println()

	paths := am.ConfigPaths()
	if len(paths) == 0 {
		pterm.Info.Println("No config files found, using defaults")
		return nil
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			pterm.Printfln("  %s (missing)", p)
			continue
		}
		pterm.Printfln("  %s", p)
	}
	return nil
}

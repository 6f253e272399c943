package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glintui/glint/internal/config"
	"github.com/glintui/glint/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a glint.json in the current directory",
		Long: `Create a glint.json with default settings.

The configuration carries the inspector address, metric namespace,
debug flag, and bench defaults. All commands work without one; the
file pins project-level choices.

Examples:
  glint init
  glint init my-app`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing glint.json")

	return cmd
}

func runInit(args []string, force bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.Exists(wd) && !force {
		return errors.New("E124").
			WithDetail("glint.json already exists in " + wd).
			WithSuggestion("Pass --force to overwrite it")
	}

	cfg := config.Default()
	if len(args) == 1 {
		cfg.Name = args[0]
	} else {
		cfg.Name = filepath.Base(wd)
	}

	if err := cfg.SaveTo(filepath.Join(wd, config.ConfigFileName)); err != nil {
		return err
	}

	success("Created %s", config.ConfigFileName)
	info("Inspector address: %s", cfg.DevtoolsAddr())
	info("Try: glint demo --devtools")
	return nil
}

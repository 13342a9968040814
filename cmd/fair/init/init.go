// Package initcmder provides the init command for creating a local .fair
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/config"
)

const dirName = ".fair"

const initLongDesc string = `Initialize a .fair/ directory in the current working directory.

A local .fair/ directory takes precedence over ~/.fair/ for the login,
the current session and config.toml. The new config.toml holds the
defaults so they are easy to edit.

Examples:
  fair init`

const initShortDesc string = "Initialize a local .fair/ directory"

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			return runInit(cmd, filepath.Join(cwd, dirName))
		},
	}
}

func runInit(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		fmt.Fprintf(out, "  %s Already initialized: %s\n", cliui.DimStyle.Render("●"), dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .fair directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}
	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Initialized %s\n", cliui.SuccessMark, dir)
	return nil
}

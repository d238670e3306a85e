package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Bishwas-py/fymo/internal/scaffolding"
)

var initCmd = &cobra.Command{
	Use:     "init [name]",
	Aliases: []string{"i"},
	Short:   "Initialize fymo in an existing project",
	Long: `Initialize fymo in the current directory: write a fymo.yml and create
the app/ layout (templates, data, static). Existing files are left alone,
and a directory that already holds a fymo.yml is refused.

The project name defaults to the directory name.

Examples:
  fymo init                        # Use the directory name
  fymo init blog                   # Explicit project name`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	name := filepath.Base(cwd)
	if len(args) > 0 {
		name = args[0]
	}

	gen := scaffolding.NewGenerator(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Initializing fymo project %q\n", name)

	if err := gen.InitProject(cwd, name); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nInitialized. Add svelte and esbuild to your package.json, then run fymo serve.")
	return nil
}

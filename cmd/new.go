package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Bishwas-py/fymo/internal/scaffolding"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new fymo project",
	Long: `Create a new fymo project directory with configuration, a home route,
its controller data, and the npm manifest for svelte and esbuild.

After creating the project:
  cd <name>
  npm install
  fymo serve

Examples:
  fymo new blog                    # Create ./blog
  fymo new my-app                  # Create ./my-app`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	name := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	gen := scaffolding.NewGenerator(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Creating fymo project %q\n", name)

	dir, err := gen.CreateProject(cwd, name)
	if err != nil {
		return err
	}

	rel, relErr := filepath.Rel(cwd, dir)
	if relErr != nil {
		rel = dir
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nProject created. Next steps:\n  cd %s\n  npm install\n  fymo serve\n", rel)
	return nil
}

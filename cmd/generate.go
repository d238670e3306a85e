package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bishwas-py/fymo/internal/scaffolding"
)

var generateCmd = &cobra.Command{
	Use:     "generate <component|controller> <name>",
	Aliases: []string{"g"},
	Short:   "Generate a component or controller",
	Long: `Generate a skeleton component template or controller data file.

Components land under app/templates and accept a path, so "widgets/card"
creates app/templates/widgets/card.svelte. Controllers land under app/data
as static YAML data files.

Examples:
  fymo generate component card          # app/templates/card.svelte
  fymo generate component widgets/card  # app/templates/widgets/card.svelte
  fymo generate controller posts        # app/data/posts.yml
  fymo g component hero                 # Short alias`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"component", "controller"},
	RunE:      runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind, name := args[0], args[1]

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if _, err := os.Stat("fymo.yml"); err != nil {
		return fmt.Errorf("no fymo.yml found, run fymo generate inside a project")
	}

	gen := scaffolding.NewGenerator(cmd.OutOrStdout())
	switch kind {
	case "component":
		return gen.GenerateComponent(root, name)
	case "controller":
		return gen.GenerateController(root, name)
	default:
		return fmt.Errorf("unknown generator %q (expected component or controller)", kind)
	}
}

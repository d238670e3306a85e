package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/config"
)

var buildRuntimeMinify bool

var buildRuntimeCmd = &cobra.Command{
	Use:   "build-runtime",
	Short: "Bundle the Svelte client runtime",
	Long: `Bundle the browser-side Svelte runtime from the project's node_modules
using esbuild and write it to the configured bundle path (default
dist/svelte-runtime.js). The bundle backs hydration for every rendered page.

Unlike "fymo build", this always rebuilds, so run it after upgrading the
project's svelte dependency.`,
	RunE: runBuildRuntime,
}

func init() {
	rootCmd.AddCommand(buildRuntimeCmd)

	buildRuntimeCmd.Flags().BoolVarP(&buildRuntimeMinify, "minify", "m", false, "Minify the runtime bundle")
}

func runBuildRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	bundler := build.NewRuntimeBundler(root, cfg.Build.Command, cfg.Paths.RuntimeBundle)
	bundler.Minify = buildRuntimeMinify

	fmt.Fprintln(cmd.OutOrStdout(), "Building Svelte runtime...")
	if err := bundler.Bundle(cmd.Context()); err != nil {
		return fmt.Errorf("building runtime: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Svelte runtime written to %s\n", bundler.BundlePath())
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/config"
	fymoerrors "github.com/Bishwas-py/fymo/internal/errors"
	"github.com/Bishwas-py/fymo/internal/router"
)

// buildConcurrency caps parallel compiler subprocesses.
const buildConcurrency = 4

var (
	buildOutput string
	buildMinify bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Precompile routed components for production",
	Long: `Compile every component reachable from the project's routes for both
render targets and write the results to the output directory:

  <output>/assets/css/<component>.css          extracted component styles
  <output>/assets/components/<component>.js    hydratable client modules
  <output>/svelte-runtime.js                   bundled client runtime

Examples:
  fymo build                       # Build to dist/
  fymo build --output public       # Build to public/
  fymo build --minify              # Minify the runtime bundle`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "dist", "Output directory")
	buildCmd.Flags().BoolVarP(&buildMinify, "minify", "m", false, "Minify the runtime bundle")
}

// buildResult records the outcome for one component identity.
type buildResult struct {
	Identity string
	CSS      bool
	Err      error
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	routes, err := router.Load(filepath.Join(root, "fymo.yml"))
	if err != nil {
		return fmt.Errorf("loading routes: %w", err)
	}

	identities := routedIdentities(routes)
	if len(identities) == 0 {
		return fmt.Errorf("no routes found, nothing to build")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Building %d components to %s/\n", len(identities), buildOutput)
	start := time.Now()

	ctx := cmd.Context()
	results, err := compileAll(ctx, root, cfg, identities)
	if err != nil {
		return err
	}

	failures := fymoerrors.NewErrorCollector()
	for _, res := range results {
		if res.Err != nil {
			failures.Add(res.Identity, res.Err)
			fmt.Fprintf(out, "  error   %s: %v\n", res.Identity, res.Err)
			continue
		}
		if res.CSS {
			fmt.Fprintf(out, "  built   %s (+css)\n", res.Identity)
			continue
		}
		fmt.Fprintf(out, "  built   %s\n", res.Identity)
	}

	bundler := build.NewRuntimeBundler(root, cfg.Build.Command, runtimeOutfile(buildOutput, cfg))
	bundler.Minify = buildMinify
	if built, bundleErr := bundler.Ensure(ctx); bundleErr != nil {
		failures.Add("svelte-runtime.js", bundleErr)
		fmt.Fprintf(out, "  error   svelte-runtime.js: %v\n", bundleErr)
	} else if built {
		fmt.Fprintf(out, "  built   %s\n", filepath.ToSlash(runtimeOutfile(buildOutput, cfg)))
	}

	if failures.HasErrors() {
		return fmt.Errorf("build finished with %d failures", len(failures.Errors()))
	}
	fmt.Fprintf(out, "Build complete in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// routedIdentities returns the distinct component identities the routing
// table references, in route order.
func routedIdentities(routes *router.Router) []string {
	var identities []string
	seen := make(map[string]bool)
	for _, route := range routes.Routes() {
		identity := route.Identity()
		if seen[identity] {
			continue
		}
		seen[identity] = true
		identities = append(identities, identity)
	}
	return identities
}

// compileAll compiles both targets for every identity and writes the client
// module and extracted CSS under the output directory. Failures are
// collected per component rather than aborting the batch.
func compileAll(ctx context.Context, root string, cfg *config.Config, identities []string) ([]buildResult, error) {
	builder := build.NewBuilder(root, cfg.Build.Command, false)

	var mu sync.Mutex
	results := make([]buildResult, 0, len(identities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(buildConcurrency)
	for _, identity := range identities {
		g.Go(func() error {
			res := compileComponent(gctx, builder, root, cfg, identity)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Identity < results[j].Identity })
	return results, nil
}

func compileComponent(ctx context.Context, builder *build.Builder, root string, cfg *config.Config, identity string) buildResult {
	res := buildResult{Identity: identity}
	templatePath := filepath.Join(root, cfg.Paths.Templates, filepath.FromSlash(identity))

	compileCtx, cancel := context.WithTimeout(ctx, cfg.Build.Timeout)
	defer cancel()

	server, err := builder.Artifact(compileCtx, identity, templatePath, build.TargetServer)
	if err != nil {
		res.Err = err
		return res
	}
	client, err := builder.Artifact(compileCtx, identity, templatePath, build.TargetClient)
	if err != nil {
		res.Err = err
		return res
	}

	stem := identityStem(identity)
	if server.Style != "" {
		res.CSS = true
		if err := writeBuildFile(filepath.Join(root, buildOutput, "assets", "css", stem+".css"), server.Style); err != nil {
			res.Err = err
			return res
		}
	}
	if err := writeBuildFile(filepath.Join(root, buildOutput, "assets", "components", stem+".js"), client.Code); err != nil {
		res.Err = err
	}
	return res
}

// identityStem strips the template extension, keeping the directory part so
// same-named templates in different folders do not collide.
func identityStem(identity string) string {
	return filepath.FromSlash(identity[:len(identity)-len(filepath.Ext(identity))])
}

func writeBuildFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// runtimeOutfile places the runtime bundle in the build output directory,
// keeping the configured bundle file name.
func runtimeOutfile(output string, cfg *config.Config) string {
	name := filepath.Base(cfg.Paths.RuntimeBundle)
	if name == "." || name == string(filepath.Separator) {
		name = "svelte-runtime.js"
	}
	return filepath.Join(output, name)
}

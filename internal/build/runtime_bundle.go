package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Bishwas-py/fymo/internal/validation"
)

// runtimeDriverScript runs inside Node and bundles the browser runtime with
// the project's own esbuild. The bundle re-exports svelte's client internals
// plus the public mount surface, which is everything a hydration bootstrap
// destructures.
const runtimeDriverScript = `import { build } from 'esbuild';

let raw = '';
process.stdin.setEncoding('utf8');
for await (const chunk of process.stdin) raw += chunk;
const input = JSON.parse(raw);

const entry = [
    "export * from 'svelte/internal/client';",
    "export { mount, unmount, hydrate, untrack, tick, flushSync } from 'svelte';"
].join('\n');

try {
    await build({
        stdin: { contents: entry, resolveDir: process.cwd(), sourcefile: 'svelte-runtime-entry.js' },
        bundle: true,
        format: 'esm',
        platform: 'browser',
        conditions: ['browser'],
        outfile: input.outfile,
        minify: !!input.minify,
        logLevel: 'silent'
    });
    process.stdout.write(JSON.stringify({ success: true }));
} catch (error) {
    process.stdout.write(JSON.stringify({
        success: false,
        error: error.message || String(error)
    }));
}
`

type bundleRequest struct {
	Outfile string `json:"outfile"`
	Minify  bool   `json:"minify"`
}

type bundleEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RuntimeBundler produces the dist/svelte-runtime.js bundle served to
// browsers. Like the compiler it shells out to the project's Node, so
// svelte and esbuild resolve from the project's node_modules.
type RuntimeBundler struct {
	command     string
	projectRoot string
	outfile     string

	// Minify enables esbuild minification, for production builds.
	Minify bool
}

// NewRuntimeBundler creates a bundler rooted at the project directory.
// outfile is project-relative; empty selects dist/svelte-runtime.js.
func NewRuntimeBundler(projectRoot, command, outfile string) *RuntimeBundler {
	if command == "" {
		command = "node"
	}
	if outfile == "" {
		outfile = filepath.Join("dist", "svelte-runtime.js")
	}
	return &RuntimeBundler{
		command:     command,
		projectRoot: projectRoot,
		outfile:     outfile,
	}
}

// BundlePath returns the absolute path of the runtime bundle.
func (rb *RuntimeBundler) BundlePath() string {
	return filepath.Join(rb.projectRoot, rb.outfile)
}

// Ensure builds the bundle only when it does not exist yet. It reports
// whether a build ran.
func (rb *RuntimeBundler) Ensure(ctx context.Context) (bool, error) {
	if _, err := os.Stat(rb.BundlePath()); err == nil {
		return false, nil
	}
	if err := rb.Bundle(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Bundle builds the runtime bundle unconditionally.
func (rb *RuntimeBundler) Bundle(ctx context.Context) error {
	if err := validateJSCommand(rb.command); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(rb.BundlePath()), 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}

	scriptRel, cleanup, err := writeDriverScript(rb.projectRoot, "runtime-driver-*.mjs", runtimeDriverScript)
	if err != nil {
		return fmt.Errorf("writing runtime driver: %w", err)
	}
	defer cleanup()
	if err := validation.ValidateArgument(scriptRel); err != nil {
		return fmt.Errorf("driver path validation failed: %w", err)
	}

	input, err := json.Marshal(bundleRequest{Outfile: filepath.ToSlash(rb.outfile), Minify: rb.Minify})
	if err != nil {
		return fmt.Errorf("encoding bundle request: %w", err)
	}

	cmd := exec.CommandContext(ctx, rb.command, scriptRel)
	cmd.Dir = rb.projectRoot
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("runtime bundle timed out: %w", ctx.Err())
		}
		return fmt.Errorf("runtime bundler process failed: %s", firstLine(stderr.String()))
	}

	var envelope bundleEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		return fmt.Errorf("runtime bundler produced invalid output: %v", err)
	}
	if !envelope.Success {
		return fmt.Errorf("bundling client runtime: %s", envelope.Error)
	}
	return nil
}

// writeDriverScript materializes a driver under the project's .fymo
// directory so Node resolves packages from the project's node_modules. The
// returned path is relative to the project root.
func writeDriverScript(projectRoot, pattern, content string) (string, func(), error) {
	dir := filepath.Join(projectRoot, ".fymo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	path := f.Name()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}

	rel, err := filepath.Rel(projectRoot, path)
	if err != nil {
		os.Remove(path)
		return "", nil, err
	}

	return filepath.ToSlash(rel), func() { os.Remove(path) }, nil
}

func validateJSCommand(command string) error {
	allowedCommands := map[string]bool{
		"node": true,
		"bun":  true,
	}
	return validation.ValidateCommand(command, allowedCommands)
}

// Package build provides Svelte compilation with artifact caching and
// security validation. Components compile through the project's own svelte
// installation, driven by a Node subprocess, and the results are prepared
// once into immutable artifacts keyed by content fingerprint.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	fymoerrors "github.com/Bishwas-py/fymo/internal/errors"
	"github.com/Bishwas-py/fymo/internal/validation"
)

// Target selects which artifact a compilation produces.
type Target string

const (
	// TargetServer produces the render-to-string artifact executed in the
	// sandbox.
	TargetServer Target = "server"
	// TargetClient produces the hydration artifact shipped to the browser.
	TargetClient Target = "client"
)

// driverScript runs inside Node and bridges to svelte/compiler. It reads a
// JSON request on stdin and answers with a JSON envelope on stdout, so a
// non-zero exit with garbage output always means the process itself broke.
const driverScript = `import { compile } from 'svelte/compiler';

let raw = '';
process.stdin.setEncoding('utf8');
for await (const chunk of process.stdin) raw += chunk;
const input = JSON.parse(raw);

try {
    const result = compile(input.source, {
        filename: input.filename,
        generate: input.target,
        css: 'external',
        dev: input.dev || false
    });
    process.stdout.write(JSON.stringify({
        success: true,
        js: result.js.code,
        css: result.css ? result.css.code : ''
    }));
} catch (error) {
    process.stdout.write(JSON.stringify({
        success: false,
        error: error.message || String(error),
        stack: error.stack || '',
        start: error.start ? { line: error.start.line, column: error.start.column } : null
    }));
}
`

// compileRequest is the stdin payload for one driver invocation.
type compileRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`
	Target   string `json:"target"`
	Dev      bool   `json:"dev"`
}

// compileEnvelope is the driver's stdout answer.
type compileEnvelope struct {
	Success bool   `json:"success"`
	JS      string `json:"js"`
	CSS     string `json:"css"`
	Error   string `json:"error"`
	Stack   string `json:"stack"`
	Start   *struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"start"`
}

// CompileOutput is the raw compiler result for one target before artifact
// preparation.
type CompileOutput struct {
	JS  string
	CSS string
}

// SvelteCompiler invokes the external svelte compiler through Node. The
// project root must contain a node_modules with svelte installed; the driver
// resolves the compiler from there.
type SvelteCompiler struct {
	command     string
	projectRoot string
}

// NewSvelteCompiler creates a compiler rooted at the project directory.
// command is the Node binary, typically "node".
func NewSvelteCompiler(projectRoot, command string) *SvelteCompiler {
	if command == "" {
		command = "node"
	}
	return &SvelteCompiler{
		command:     command,
		projectRoot: projectRoot,
	}
}

// Compile compiles source for one target. identity names the component for
// error attribution; filename is the project-relative template path recorded
// in dev-mode identity markers. Failures surface as *errors.CompileError.
// Server and client compilations are independent: a failure for one target
// says nothing about the other.
func (sc *SvelteCompiler) Compile(ctx context.Context, source, identity, filename string, target Target, dev bool) (*CompileOutput, error) {
	if err := validateJSCommand(sc.command); err != nil {
		return nil, fmt.Errorf("command validation failed: %w", err)
	}

	scriptRel, cleanup, err := writeDriverScript(sc.projectRoot, "compile-driver-*.mjs", driverScript)
	if err != nil {
		return nil, fmt.Errorf("writing compiler driver: %w", err)
	}
	defer cleanup()
	if err := validation.ValidateArgument(scriptRel); err != nil {
		return nil, fmt.Errorf("driver path validation failed: %w", err)
	}

	input, err := json.Marshal(compileRequest{
		Source:   source,
		Filename: filename,
		Target:   string(target),
		Dev:      dev,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding compile request: %w", err)
	}

	cmd := exec.CommandContext(ctx, sc.command, scriptRel)
	cmd.Dir = sc.projectRoot
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("svelte compile timed out: %w", ctx.Err())
		}
		return nil, &fymoerrors.CompileError{
			Component: identity,
			Target:    string(target),
			File:      filename,
			Message:   fmt.Sprintf("compiler process failed: %s", firstLine(stderr.String())),
			Stack:     stderr.String(),
		}
	}

	var envelope compileEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		return nil, &fymoerrors.CompileError{
			Component: identity,
			Target:    string(target),
			File:      filename,
			Message:   fmt.Sprintf("compiler produced invalid output: %v", err),
			Stack:     stdout.String(),
		}
	}

	if !envelope.Success {
		ce := &fymoerrors.CompileError{
			Component: identity,
			Target:    string(target),
			File:      filename,
			Message:   envelope.Error,
			Stack:     envelope.Stack,
		}
		if envelope.Start != nil {
			ce.Line = envelope.Start.Line
			ce.Column = envelope.Start.Column
		}
		return nil, ce
	}

	return &CompileOutput{JS: envelope.JS, CSS: envelope.CSS}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

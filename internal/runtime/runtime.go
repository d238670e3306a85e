// Package runtime executes compiled server artifacts inside an isolated
// JavaScript sandbox and extracts the rendered fragments. Each render gets
// its own single-use session; compiled programs are shared through an
// internal cache keyed by artifact fingerprint.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/document"
	fymoerrors "github.com/Bishwas-py/fymo/internal/errors"
)

// DefaultRenderBudget bounds how long a single render may execute before
// the interpreter is interrupted.
const DefaultRenderBudget = 5 * time.Second

// missingSentinel prefixes errors thrown by the emulation proxy for
// primitives it does not provide.
const missingSentinel = "FymoMissingPrimitive:"

var errBudgetExceeded = errors.New("render time budget exceeded")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Result carries the fragments extracted from one server render.
type Result struct {
	// HTML is the component's rendered markup.
	HTML string
	// Head holds title and head fragments the component produced.
	Head string
	// CSS is the compiled stylesheet for the component.
	CSS string
	// ConsoleErrors are messages the component wrote via console.error.
	ConsoleErrors []string
}

// Runtime renders server artifacts. It is safe for concurrent use; renders
// share nothing but the immutable program cache.
type Runtime struct {
	mu       sync.RWMutex
	programs map[string]*goja.Program
	budget   time.Duration
}

// NewRuntime creates a runtime with the given render time budget. A
// non-positive budget selects DefaultRenderBudget.
func NewRuntime(budget time.Duration) *Runtime {
	if budget <= 0 {
		budget = DefaultRenderBudget
	}
	return &Runtime{
		programs: make(map[string]*goja.Program),
		budget:   budget,
	}
}

// RenderServer executes a server artifact with the supplied component data
// and document metadata and returns the rendered fragments. Script throws
// surface as *errors.RuntimeError, emulation gaps as
// *errors.MissingAccessorError.
func (r *Runtime) RenderServer(ctx context.Context, artifact *build.Artifact, props map[string]any, doc *document.Document) (*Result, error) {
	if artifact.Target != build.TargetServer {
		return nil, fmt.Errorf("artifact %s is a %s artifact, want %s", artifact.Identity, artifact.Target, build.TargetServer)
	}
	if !identifierPattern.MatchString(artifact.Name) {
		return nil, &fymoerrors.RuntimeError{
			Component: artifact.Identity,
			Message:   fmt.Sprintf("invalid component constructor name %q", artifact.Name),
		}
	}

	program, err := r.program(artifact)
	if err != nil {
		return nil, err
	}

	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, &fymoerrors.ContextError{Controller: artifact.Identity, Err: err}
	}
	accessors, err := AccessorScript(props, doc)
	if err != nil {
		return nil, &fymoerrors.ContextError{Controller: artifact.Identity, Err: err}
	}

	sess, err := newSession()
	if err != nil {
		return nil, &fymoerrors.RuntimeError{Component: artifact.Identity, Message: err.Error()}
	}
	stop := sess.watch(ctx, r.budget)
	defer stop()

	if err := sess.install(accessors); err != nil {
		return nil, classifyError(ctx, artifact.Identity, err)
	}
	if _, err := sess.vm.RunProgram(program); err != nil {
		return nil, classifyError(ctx, artifact.Identity, err)
	}

	filenameJSON, err := json.Marshal(artifact.Filename)
	if err != nil {
		return nil, &fymoerrors.RuntimeError{Component: artifact.Identity, Message: err.Error()}
	}
	call := fmt.Sprintf("__fymoRender(%s, %s, %s)", artifact.Name, filenameJSON, propsJSON)
	value, err := sess.vm.RunString(call)
	if err != nil {
		return nil, classifyError(ctx, artifact.Identity, err)
	}

	result := &Result{
		CSS:           artifact.Style,
		ConsoleErrors: sess.consoleErrors(),
	}
	obj := value.ToObject(sess.vm)
	if obj == nil {
		return nil, &fymoerrors.RuntimeError{Component: artifact.Identity, Message: "render returned no result object"}
	}
	if v := obj.Get("html"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		result.HTML = v.String()
	}
	if v := obj.Get("head"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		result.Head = v.String()
	}
	return result, nil
}

// program returns the compiled form of an artifact, compiling and caching
// on first use. Artifacts are immutable, so a changed source produces a new
// fingerprint and with it a new cache slot.
func (r *Runtime) program(artifact *build.Artifact) (*goja.Program, error) {
	key := artifact.Identity + "|" + string(artifact.Target) + "|" + artifact.Fingerprint

	r.mu.RLock()
	program, ok := r.programs[key]
	r.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := goja.Compile(artifact.Identity, artifact.Code, false)
	if err != nil {
		return nil, &fymoerrors.RuntimeError{
			Component: artifact.Identity,
			Message:   fmt.Sprintf("parsing server artifact: %v", err),
		}
	}

	r.mu.Lock()
	r.programs[key] = program
	r.mu.Unlock()
	return program, nil
}

// classifyError maps an interpreter failure to the render error taxonomy.
func classifyError(ctx context.Context, identity string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if ctx.Err() != nil {
			return fmt.Errorf("render %s: %w", identity, ctx.Err())
		}
		return &fymoerrors.RuntimeError{
			Component: identity,
			Message:   fmt.Sprintf("%v", interrupted.Value()),
		}
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		message := strings.TrimPrefix(exception.Value().String(), "Error: ")
		if accessor, ok := strings.CutPrefix(message, missingSentinel); ok {
			return &fymoerrors.MissingAccessorError{Component: identity, Accessor: accessor}
		}
		return &fymoerrors.RuntimeError{
			Component: identity,
			Message:   message,
			Stack:     exception.String(),
		}
	}

	return &fymoerrors.RuntimeError{Component: identity, Message: err.Error()}
}

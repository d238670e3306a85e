package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// TemplateError reports a missing or unreadable component template.
type TemplateError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("template not found: %s", e.Path)
}

// Unwrap returns the underlying cause, if any
func (e *TemplateError) Unwrap() error { return e.Err }

// CompileError reports a failed compiler invocation for one target.
// Line and Column are 1-based and zero when the compiler gave no location.
type CompileError struct {
	Component string
	Target    string
	File      string
	Line      int
	Column    int
	Message   string
	Stack     string
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if loc := e.Location(); loc != "" {
		return fmt.Sprintf("compile %s (%s): %s: %s", e.Component, e.Target, loc, e.Message)
	}
	return fmt.Sprintf("compile %s (%s): %s", e.Component, e.Target, e.Message)
}

// Location formats file:line:column, or "" when the compiler gave none.
func (e *CompileError) Location() string {
	if e.File == "" && e.Line == 0 {
		return ""
	}
	if e.Line == 0 {
		return e.File
	}
	return fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
}

// RuntimeError reports a JavaScript failure while executing a server
// artifact. Stack holds the engine stack trace when one was available.
type RuntimeError struct {
	Component string
	Message   string
	Stack     string
}

// Error implements the error interface
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("render %s: %s", e.Component, e.Message)
}

// MissingAccessorError reports generated code referencing a runtime
// primitive or context accessor the sandbox does not install. It marks a
// contract mismatch between the compiler output and the runtime emulation
// and is never recoverable within a render.
type MissingAccessorError struct {
	Component string
	Accessor  string
}

// Error implements the error interface
func (e *MissingAccessorError) Error() string {
	return fmt.Sprintf("render %s: runtime emulation does not provide %q", e.Component, e.Accessor)
}

// ContextError reports controller data that cannot cross the JSON boundary
// into the component (cycles, channels, functions).
type ContextError struct {
	Controller string
	Err        error
}

// Error implements the error interface
func (e *ContextError) Error() string {
	return fmt.Sprintf("controller %s: context not serializable: %v", e.Controller, e.Err)
}

// Unwrap returns the underlying cause
func (e *ContextError) Unwrap() error { return e.Err }

// HTTPStatus maps a render error to its response status: missing templates
// are 404, every other render failure is 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var te *TemplateError
	if errors.As(err, &te) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Kind returns a short human label for the error category, used by error
// pages and logs.
func Kind(err error) string {
	var (
		te *TemplateError
		ce *CompileError
		re *RuntimeError
		me *MissingAccessorError
		xe *ContextError
	)
	switch {
	case errors.As(err, &te):
		return "Template Error"
	case errors.As(err, &ce):
		return "Compilation Error"
	case errors.As(err, &me):
		return "Runtime Mismatch"
	case errors.As(err, &re):
		return "Rendering Error"
	case errors.As(err, &xe):
		return "Controller Error"
	default:
		return "Server Error"
	}
}

// ComponentError is one collected failure attributed to a component.
type ComponentError struct {
	Component string
	Err       error
	Timestamp time.Time
}

// ErrorCollector aggregates per-component failures across a batch compile,
// such as a full-site build.
type ErrorCollector struct {
	mutex  sync.RWMutex
	errors []ComponentError
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{errors: make([]ComponentError, 0)}
}

// Add records a failure for a component.
func (ec *ErrorCollector) Add(component string, err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, ComponentError{
		Component: component,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Errors returns a copy of all collected failures.
func (ec *ErrorCollector) Errors() []ComponentError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]ComponentError, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// ByComponent returns the failures recorded for one component.
func (ec *ErrorCollector) ByComponent(component string) []ComponentError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []ComponentError
	for _, ce := range ec.errors {
		if ce.Component == component {
			out = append(out, ce)
		}
	}
	return out
}

// HasErrors returns true if any failure was collected.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Clear drops all collected failures.
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

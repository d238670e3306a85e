package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorPageDevelopment(t *testing.T) {
	err := &CompileError{
		Component: "home/index.svelte",
		Target:    "server",
		File:      "app/templates/home/index.svelte",
		Line:      3,
		Column:    7,
		Message:   "Unexpected token <b>",
		Stack:     "CompileError: Unexpected token\n    at parse",
	}

	page := ErrorPage(err, true)

	assert.Contains(t, page, "Compilation Error")
	assert.Contains(t, page, "Unexpected token &lt;b&gt;", "messages are escaped")
	assert.NotContains(t, page, "Unexpected token <b>")
	assert.Contains(t, page, "app/templates/home/index.svelte:3:7")
	assert.Contains(t, page, "at parse", "stack trace is shown in development")
	assert.Contains(t, page, "fymo-error-overlay")
}

func TestErrorPageProduction(t *testing.T) {
	err := &RuntimeError{
		Component: "home/index.svelte",
		Message:   "secret internal detail",
		Stack:     "at secretFunction",
	}

	page := ErrorPage(err, false)

	assert.Contains(t, page, "Something went wrong")
	assert.NotContains(t, page, "secret internal detail")
	assert.NotContains(t, page, "secretFunction")
	assert.NotContains(t, page, "home/index.svelte")
}

func TestErrorPageMissingAccessor(t *testing.T) {
	err := &MissingAccessorError{Component: "home/index.svelte", Accessor: "transition_fancy"}

	page := ErrorPage(err, true)
	assert.Contains(t, page, "Runtime Mismatch")
	assert.Contains(t, page, "transition_fancy")
}

func TestErrorOverlay(t *testing.T) {
	ec := NewErrorCollector()
	assert.Empty(t, ec.ErrorOverlay(), "no overlay without failures")

	ec.Add("home/index.svelte", &CompileError{
		Component: "home/index.svelte",
		Target:    "server",
		File:      "app/templates/home/index.svelte",
		Line:      2,
		Column:    1,
		Message:   `bad "attr"`,
	})

	overlay := ec.ErrorOverlay()
	require.NotEmpty(t, overlay)
	assert.Contains(t, overlay, "fymo-error-overlay")
	assert.Contains(t, overlay, "Build Errors")
	assert.Contains(t, overlay, "bad &quot;attr&quot;")
	assert.False(t, strings.Contains(overlay, `bad "attr"`), "messages are escaped in the overlay")
	assert.Contains(t, overlay, "home/index.svelte")
}

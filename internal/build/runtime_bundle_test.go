package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeBundlerDefaults(t *testing.T) {
	root := t.TempDir()
	rb := NewRuntimeBundler(root, "", "")

	assert.Equal(t, filepath.Join(root, "dist", "svelte-runtime.js"), rb.BundlePath())

	rb = NewRuntimeBundler(root, "node", filepath.Join("public", "runtime.js"))
	assert.Equal(t, filepath.Join(root, "public", "runtime.js"), rb.BundlePath())
}

func TestRuntimeBundlerRejectsUnknownCommand(t *testing.T) {
	rb := NewRuntimeBundler(t.TempDir(), "deno", "")
	err := rb.Bundle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command validation failed")
}

func TestRuntimeBundlerEnsureSkipsExistingBundle(t *testing.T) {
	root := t.TempDir()
	rb := NewRuntimeBundler(root, "deno", "")

	// With the bundle present, Ensure never reaches the (invalid) command.
	require.NoError(t, os.MkdirAll(filepath.Dir(rb.BundlePath()), 0o755))
	require.NoError(t, os.WriteFile(rb.BundlePath(), []byte("export const mount = () => {};"), 0o644))

	built, err := rb.Ensure(context.Background())
	require.NoError(t, err)
	assert.False(t, built)
}

func TestRuntimeDriverScript(t *testing.T) {
	root := t.TempDir()

	rel, cleanup, err := writeDriverScript(root, "runtime-driver-*.mjs", runtimeDriverScript)
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)

	script := string(content)
	assert.Contains(t, script, "from 'esbuild'")
	assert.Contains(t, script, "svelte/internal/client")
	assert.Contains(t, script, "export { mount")
	assert.Contains(t, script, "format: 'esm'")
	assert.Contains(t, script, "minify: !!input.minify")
}

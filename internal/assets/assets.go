// Package assets serves a fymo project's build products and static files:
// extracted component CSS, compiled client modules, the bundled client
// runtime, and files under the project's static directory. Build products
// live in memory, keyed by component file name; the render pipeline stores
// them as it compiles.
package assets

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Bishwas-py/fymo/internal/escape"
	"github.com/Bishwas-py/fymo/internal/validation"
)

// runtimeMissingStub is served in place of the client runtime when the
// project has no bundled runtime yet. Served with a 200 so hydration fails
// visibly in the browser console instead of as a network error.
const runtimeMissingStub = "console.error('Svelte runtime not found');"

// Manager stores compiled assets and serves the /assets/ tree.
type Manager struct {
	mu                 sync.RWMutex
	compiledComponents map[string]string
	extractedCSS       map[string]string

	projectRoot string
	staticDir   string
	runtimePath string
}

// NewManager creates an asset manager for a project. staticDir and
// runtimePath are project-relative, e.g. "app/static" and
// "dist/svelte-runtime.js".
func NewManager(projectRoot, staticDir, runtimePath string) *Manager {
	return &Manager{
		compiledComponents: make(map[string]string),
		extractedCSS:       make(map[string]string),
		projectRoot:        projectRoot,
		staticDir:          staticDir,
		runtimePath:        runtimePath,
	}
}

// StoreCompiledComponent stores a compiled client module under its file
// name, e.g. "index.js".
func (m *Manager) StoreCompiledComponent(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compiledComponents[name] = content
}

// StoreExtractedCSS stores a component's extracted CSS under its file name,
// e.g. "index.css".
func (m *Manager) StoreExtractedCSS(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractedCSS[name] = content
}

// CompiledComponent returns a stored client module.
func (m *Manager) CompiledComponent(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.compiledComponents[name]
	return content, ok
}

// ExtractedCSS returns a stored CSS text.
func (m *Manager) ExtractedCSS(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.extractedCSS[name]
	return content, ok
}

// CSSLinkFor returns the stylesheet link line for a component's extracted
// CSS, indented to sit inside the page head, or "" when the component has
// no stored CSS.
func (m *Manager) CSSLinkFor(name string) string {
	m.mu.RLock()
	_, ok := m.extractedCSS[name]
	m.mu.RUnlock()
	if !ok {
		return ""
	}
	return fmt.Sprintf("    <link rel=\"stylesheet\" href=\"/assets/css/%s\">\n", escape.HTMLAttr(name))
}

// ServeHTTP serves the /assets/ tree. Asset responses are cacheable and
// CORS-open so a separate frontend origin can load components during
// development.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	path := strings.TrimPrefix(r.URL.Path, "/assets/")
	if path == r.URL.Path {
		writePlain(w, http.StatusBadRequest, "Invalid asset path")
		return
	}

	switch {
	case strings.HasPrefix(path, "components/"):
		m.serveComponent(w, strings.TrimPrefix(path, "components/"))
	case path == "svelte-runtime.js":
		m.serveRuntime(w)
	case strings.HasPrefix(path, "svelte/"):
		m.serveRuntimeAlias(w, path)
	case strings.HasPrefix(path, "css/"):
		m.serveCSS(w, strings.TrimPrefix(path, "css/"))
	default:
		m.serveStatic(w, path)
	}
}

func (m *Manager) serveComponent(w http.ResponseWriter, name string) {
	content, ok := m.CompiledComponent(name)
	if !ok {
		writePlain(w, http.StatusNotFound, "Asset not found")
		return
	}
	writeContent(w, "application/javascript", []byte(content))
}

func (m *Manager) serveCSS(w http.ResponseWriter, name string) {
	content, ok := m.ExtractedCSS(name)
	if !ok {
		writePlain(w, http.StatusNotFound, "Asset not found")
		return
	}
	writeContent(w, "text/css", []byte(content))
}

func (m *Manager) serveRuntime(w http.ResponseWriter) {
	content, err := os.ReadFile(filepath.Join(m.projectRoot, m.runtimePath))
	if err != nil {
		content = []byte(runtimeMissingStub)
	}
	writeContent(w, "application/javascript", content)
}

// serveRuntimeAlias serves the bundled runtime under the module specifier
// path the compiled client code imports from.
func (m *Manager) serveRuntimeAlias(w http.ResponseWriter, path string) {
	if path == "svelte/client/index.js" {
		m.serveRuntime(w)
		return
	}
	writeContent(w, "application/javascript", []byte(runtimeMissingStub))
}

func (m *Manager) serveStatic(w http.ResponseWriter, assetPath string) {
	if err := validation.ValidatePath(assetPath); err != nil {
		writePlain(w, http.StatusNotFound, "File not found")
		return
	}

	fullPath := filepath.Join(m.projectRoot, m.staticDir, filepath.FromSlash(assetPath))
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		writePlain(w, http.StatusNotFound, "File not found")
		return
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		writePlain(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(fullPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	writeContent(w, contentType, content)
}

func writeContent(w http.ResponseWriter, contentType string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Write(content)
}

func writePlain(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(message))
}

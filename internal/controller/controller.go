// Package controller supplies the dynamic side of a rendered page: component
// data and document metadata, resolved per route. The two never merge:
// component data reaches the component as props and through getContext(),
// metadata only through getDoc().
//
// Controllers are optional. A route whose controller cannot be resolved
// still renders its template with empty props, matching the framework's
// convention-over-configuration defaults.
package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Bishwas-py/fymo/internal/document"
	fymoerrors "github.com/Bishwas-py/fymo/internal/errors"
	"github.com/Bishwas-py/fymo/internal/validation"
)

// Request carries the routing context a controller acts on.
type Request struct {
	// Path is the request path as matched.
	Path string
	// Params holds values captured from :param route segments.
	Params map[string]string
	// Query holds the parsed query string.
	Query url.Values
}

// NewRequest builds a controller request from an HTTP request and the
// params captured by the matched route.
func NewRequest(r *http.Request, params map[string]string) *Request {
	return &Request{
		Path:   r.URL.Path,
		Params: params,
		Query:  r.URL.Query(),
	}
}

// Controller supplies data for one route. Data feeds component props and
// the getContext() accessor; Doc feeds the page shell and getDoc(). Either
// may return an empty value.
type Controller interface {
	Data(req *Request) (map[string]any, error)
	Doc(req *Request) (*document.Document, error)
}

// Funcs adapts plain functions to the Controller interface for programmatic
// registration. Nil functions yield empty values.
type Funcs struct {
	DataFunc func(*Request) (map[string]any, error)
	DocFunc  func(*Request) (*document.Document, error)
}

// Data implements Controller
func (f Funcs) Data(req *Request) (map[string]any, error) {
	if f.DataFunc == nil {
		return map[string]any{}, nil
	}
	return f.DataFunc(req)
}

// Doc implements Controller
func (f Funcs) Doc(req *Request) (*document.Document, error) {
	if f.DocFunc == nil {
		return nil, nil
	}
	return f.DocFunc(req)
}

// Registry resolves controllers by name. Programmatic registrations take
// precedence; names without one fall back to the project data directory,
// where app/data/<name>.yml serves as a static controller.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]Controller
	dataDir     string
}

// NewRegistry creates a controller registry backed by the given data
// directory. An empty dataDir disables the YAML fallback.
func NewRegistry(dataDir string) *Registry {
	return &Registry{
		controllers: make(map[string]Controller),
		dataDir:     dataDir,
	}
}

// Register binds a controller name to an implementation.
func (r *Registry) Register(name string, c Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[name] = c
}

// Resolve returns the controller for a name. The boolean reports whether a
// real controller was found; on a miss the returned controller yields empty
// values so callers can render regardless.
func (r *Registry) Resolve(name string) (Controller, bool) {
	r.mu.RLock()
	c, ok := r.controllers[name]
	r.mu.RUnlock()
	if ok {
		return c, true
	}

	if r.dataDir != "" && validation.ValidatePath(name) == nil {
		for _, ext := range []string{".yml", ".yaml"} {
			path := filepath.Join(r.dataDir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return &fileController{name: name, path: path}, true
			}
		}
	}

	return Funcs{}, false
}

// fileController serves static controller data from a YAML file with a
// `context` mapping and an optional `doc` block. The file is re-read on
// every call so edits show up without a restart.
type fileController struct {
	name string
	path string
}

type dataFile struct {
	Context map[string]any     `yaml:"context"`
	Doc     *document.Document `yaml:"doc"`
}

func (f *fileController) load() (*dataFile, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading controller data %s: %w", f.path, err)
	}

	var file dataFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing controller data %s: %w", f.path, err)
	}
	return &file, nil
}

// Data implements Controller
func (f *fileController) Data(req *Request) (map[string]any, error) {
	file, err := f.load()
	if err != nil {
		return nil, err
	}
	if file.Context == nil {
		return map[string]any{}, nil
	}
	return file.Context, nil
}

// Doc implements Controller
func (f *fileController) Doc(req *Request) (*document.Document, error) {
	file, err := f.load()
	if err != nil {
		return nil, err
	}
	return file.Doc, nil
}

// ValidateData rejects component data that cannot cross the JSON boundary
// into the sandbox and the hydration payload (cycles, channels, functions).
// Called before any compile or render work starts.
func ValidateData(name string, data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := json.Marshal(data); err != nil {
		return &fymoerrors.ContextError{Controller: name, Err: err}
	}
	return nil
}

// Package router builds the route table of a fymo application from the
// routes declared in fymo.yml and matches request paths against it.
//
// Three declaration forms feed the table: `root: controller.action` binds
// the index page, `resources:` expands each entry into RESTful routes, and
// `routes:` maps explicit paths to handlers. Declaration order decides
// match priority for :param patterns, so the routes mapping is parsed with
// an order-preserving YAML decoder. The table is assembled once at startup
// and is read-only while serving.
package router

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// Route binds a URL path to a controller action and the svelte template
// that renders it.
type Route struct {
	Path       string
	Controller string
	Action     string
	// Template is the template-relative path of the svelte component,
	// e.g. "posts/show.svelte".
	Template string
	// Params holds values captured from :param segments. Only set on
	// routes returned by Match.
	Params map[string]string

	pattern *regexp.Regexp
}

// Router matches request paths to routes in declaration order.
type Router struct {
	routes []*Route
	byPath map[string]*Route
}

type routesFile struct {
	Root      string        `yaml:"root"`
	Resources []string      `yaml:"resources"`
	Routes    yaml.MapSlice `yaml:"routes"`
}

var paramSegment = regexp.MustCompile(`:(\w+)`)

// New creates an empty router.
func New() *Router {
	return &Router{byPath: make(map[string]*Route)}
}

// Default returns the route table used when a project declares no routes:
// the home controller's index action at the root path.
func Default() *Router {
	r := New()
	r.AddRoute("/", "home", "index", "")
	return r
}

// Load reads route declarations from the given fymo.yml. A missing file
// yields the default table.
func Load(path string) (*Router, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading routes from %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a route table from fymo.yml contents. Files that declare no
// routes at all yield the default table.
func Parse(data []byte) (*Router, error) {
	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing routes: %w", err)
	}

	r := New()

	if file.Root != "" {
		controller, action, err := splitHandler(file.Root)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		r.AddRoute("/", controller, action, "")
	}

	for _, resource := range file.Resources {
		if resource == "" {
			return nil, fmt.Errorf("resources: empty resource name")
		}
		r.addResource(resource)
	}

	for _, item := range file.Routes {
		path, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("routes: path %v is not a string", item.Key)
		}
		if err := r.addDeclared(path, item.Value); err != nil {
			return nil, err
		}
	}

	if len(r.routes) == 0 {
		return Default(), nil
	}
	return r, nil
}

// AddRoute appends a route to the table. An empty template defaults to
// controller/action.svelte. Later declarations override earlier ones with
// the same path.
func (r *Router) AddRoute(path, controller, action, template string) {
	if template == "" {
		template = fmt.Sprintf("%s/%s.svelte", controller, action)
	}

	route := &Route{
		Path:       path,
		Controller: controller,
		Action:     action,
		Template:   template,
	}
	if strings.Contains(path, ":") {
		expr := paramSegment.ReplaceAllString(regexp.QuoteMeta(path), `(?P<$1>[^/]+)`)
		route.pattern = regexp.MustCompile("^" + expr + "$")
	}

	if existing, ok := r.byPath[path]; ok {
		for i, candidate := range r.routes {
			if candidate == existing {
				r.routes[i] = route
				break
			}
		}
	} else {
		r.routes = append(r.routes, route)
	}
	r.byPath[path] = route
}

// addResource expands a resource into its RESTful routes.
func (r *Router) addResource(resource string) {
	r.AddRoute("/"+resource, resource, "index", "")
	r.AddRoute("/"+resource+"/:id", resource, "show", "")
	r.AddRoute("/"+resource+"/:id/edit", resource, "edit", "")
	r.AddRoute("/"+resource+"/new", resource, "new", "")
}

// addDeclared adds a route from the routes mapping. The handler is either
// a "controller.action" string or a mapping with controller, action and an
// optional template.
func (r *Router) addDeclared(path string, handler any) error {
	switch h := handler.(type) {
	case string:
		controller, action, err := splitHandler(h)
		if err != nil {
			return fmt.Errorf("route %s: %w", path, err)
		}
		r.AddRoute(path, controller, action, "")
		return nil
	case yaml.MapSlice:
		var controller, action, template string
		for _, field := range h {
			key, _ := field.Key.(string)
			value, _ := field.Value.(string)
			switch key {
			case "controller":
				controller = value
			case "action":
				action = value
			case "template":
				template = value
			}
		}
		if controller == "" || action == "" {
			return fmt.Errorf("route %s: handler needs controller and action", path)
		}
		r.AddRoute(path, controller, action, template)
		return nil
	default:
		return fmt.Errorf("route %s: handler must be a controller.action string or a mapping", path)
	}
}

// Match resolves a request path to a route. Trailing slashes are ignored
// except on the root path. Exact paths win over :param patterns; patterns
// match in declaration order. The returned route is a copy with Params
// filled in, so callers never mutate the table.
func (r *Router) Match(path string) (*Route, bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	if route, ok := r.byPath[path]; ok {
		matched := *route
		return &matched, true
	}

	for _, route := range r.routes {
		if route.pattern == nil {
			continue
		}
		m := route.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}

		matched := *route
		matched.Params = make(map[string]string)
		for i, name := range route.pattern.SubexpNames() {
			if i > 0 && name != "" {
				matched.Params[name] = m[i]
			}
		}
		return &matched, true
	}

	return nil, false
}

// Routes returns the table in declaration order.
func (r *Router) Routes() []*Route {
	routes := make([]*Route, len(r.routes))
	copy(routes, r.routes)
	return routes
}

// ChiPattern converts the route path to the chi mux syntax, rewriting
// :param segments to {param}.
func (route *Route) ChiPattern() string {
	return paramSegment.ReplaceAllString(route.Path, `{$1}`)
}

// Identity returns the template-relative path identifying the component
// this route renders.
func (route *Route) Identity() string {
	return route.Template
}

func splitHandler(handler string) (controller, action string, err error) {
	controller, action, found := strings.Cut(handler, ".")
	if !found || controller == "" || action == "" {
		return "", "", fmt.Errorf("handler %q must be controller.action", handler)
	}
	return controller, action, nil
}

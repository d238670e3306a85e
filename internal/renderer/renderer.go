// Package renderer drives the per-request render pipeline: read the routed
// template, load controller data, compile server and client artifacts,
// execute the server artifact in the sandbox, and assemble the complete
// HTML document around the result.
package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Bishwas-py/fymo/internal/assets"
	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/controller"
	"github.com/Bishwas-py/fymo/internal/document"
	fymoerrors "github.com/Bishwas-py/fymo/internal/errors"
	"github.com/Bishwas-py/fymo/internal/escape"
	"github.com/Bishwas-py/fymo/internal/hydrate"
	"github.com/Bishwas-py/fymo/internal/logging"
	"github.com/Bishwas-py/fymo/internal/registry"
	"github.com/Bishwas-py/fymo/internal/router"
	"github.com/Bishwas-py/fymo/internal/runtime"
)

// pageShell is the document every rendered route ships in. The slots are,
// in order: title, stylesheet links, head content, server-rendered markup,
// JSON props, hydration script body, live-reload block.
const pageShell = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>%s</title>
%s%s
</head>
<body>
    <div id="svelte-app">%s</div>
    <script id="svelte-props" type="application/json">%s</script>
    <script type="module">
        %s
    </script>
%s</body>
</html>`

// notFoundPage is served for unmatched routes.
const notFoundPage = `<!DOCTYPE html>
<html>
<head>
    <title>404 - Not Found</title>
</head>
<body>
    <h1>404 - Page Not Found</h1>
    <p>The requested page could not be found.</p>
</body>
</html>`

// reloadSnippet reconnects over /ws and reloads the page on full_reload
// messages. Included in development pages only.
const reloadSnippet = `    <script>
        (function () {
            var protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
            var retry;
            function connect() {
                var ws = new WebSocket(protocol + '//' + window.location.host + '/ws');
                ws.onopen = function () { clearInterval(retry); };
                ws.onmessage = function (event) {
                    var message = JSON.parse(event.data);
                    if (message.type === 'full_reload') {
                        window.location.reload();
                    }
                };
                ws.onclose = function () {
                    clearInterval(retry);
                    retry = setInterval(connect, 2000);
                };
            }
            connect();
        })();
    </script>
`

var (
	// headTitleTag matches the title a component set through <svelte:head>.
	headTitleTag = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	// scriptClose neutralizes close tags inside inline script bodies. The
	// inserted backslash is value-preserving inside string and template
	// literals.
	scriptClose = regexp.MustCompile(`(?i)</(script)`)
)

// Deps are the collaborating services shared with the HTTP layer. Logger
// may be nil, in which case a default stdout logger is used.
type Deps struct {
	Assets      *assets.Manager
	Controllers *controller.Registry
	Components  *registry.ComponentRegistry
	Logger      logging.Logger
}

// Renderer assembles complete pages for matched routes. It owns the
// compile pipeline and sandbox; asset stores and registries are shared.
type Renderer struct {
	cfg         *config.Config
	root        string
	builder     *build.Builder
	runtime     *runtime.Runtime
	hydrator    *hydrate.Generator
	assets      *assets.Manager
	controllers *controller.Registry
	components  *registry.ComponentRegistry
	logger      logging.Logger
	reload      bool
	overlay     bool
}

// New creates a renderer rooted at projectRoot.
func New(projectRoot string, cfg *config.Config, deps Deps) *Renderer {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}
	return &Renderer{
		cfg:         cfg,
		root:        projectRoot,
		builder:     build.NewBuilder(projectRoot, cfg.Build.Command, cfg.Dev()),
		runtime:     runtime.NewRuntime(cfg.Render.Budget),
		hydrator:    hydrate.NewGenerator(""),
		assets:      deps.Assets,
		controllers: deps.Controllers,
		components:  deps.Components,
		logger:      logger.WithComponent("renderer"),
		reload:      cfg.Dev() && cfg.Development.HotReload,
		overlay:     cfg.Dev() && cfg.Development.ErrorOverlay,
	}
}

// Builder exposes the compile pipeline for cache invalidation and batch
// builds.
func (r *Renderer) Builder() *build.Builder { return r.builder }

// RenderRoute produces the full HTML document for a matched route. The
// template is read first so a missing template wins over controller
// failures; component data is validated before any compile or sandbox
// work.
func (r *Renderer) RenderRoute(ctx context.Context, route *router.Route, req *controller.Request) (string, error) {
	start := time.Now()
	identity := route.Identity()
	templatePath := filepath.Join(r.root, r.cfg.Paths.Templates, filepath.FromSlash(identity))

	source, fingerprint, err := r.builder.ReadSource(templatePath)
	if err != nil {
		return "", err
	}

	data, doc, err := r.controllerData(ctx, route, req)
	if err != nil {
		return "", err
	}
	if err := controller.ValidateData(route.Controller, data); err != nil {
		return "", err
	}

	serverArtifact, err := r.builder.ArtifactFromSource(ctx, identity, templatePath, source, fingerprint, build.TargetServer)
	if err != nil {
		return "", err
	}

	result, err := r.runtime.RenderServer(ctx, serverArtifact, data, doc)
	if err != nil {
		return "", err
	}
	for _, msg := range result.ConsoleErrors {
		r.logger.Warn(ctx, nil, "Component logged an error during render",
			"component", identity, "console", msg)
	}

	cssName := assetName(identity, ".css")
	if serverArtifact.Style != "" {
		r.assets.StoreExtractedCSS(cssName, serverArtifact.Style)
	}

	hydration := r.hydration(ctx, identity, templatePath, source, fingerprint, data, doc)

	page, err := r.assemblePage(route, doc, result, cssName, data, hydration)
	if err != nil {
		return "", err
	}

	r.components.Register(&registry.ComponentInfo{
		Identity:     identity,
		Name:         serverArtifact.Name,
		Controller:   route.Controller,
		Action:       route.Action,
		TemplatePath: templatePath,
		Fingerprint:  serverArtifact.Fingerprint,
		LastMod:      time.Now(),
	})

	r.logger.Info(ctx, "Page rendered", "component", identity, "path", req.Path,
		"duration_ms", time.Since(start).Milliseconds())
	return page, nil
}

// NotFoundPage returns the page served when no route matches.
func (r *Renderer) NotFoundPage() string { return notFoundPage }

// ErrorResponse maps a pipeline error to an HTTP status and body: missing
// templates are 404, everything else 500. In development the body carries
// the full error detail, in production a generic failure page.
func (r *Renderer) ErrorResponse(err error) (int, string) {
	return fymoerrors.HTTPStatus(err), fymoerrors.ErrorPage(err, r.overlay)
}

// controllerData loads component data and document metadata for the route.
// Controllers are optional: an unresolved name means empty data and no
// metadata. A resolved controller that fails, however, fails the render.
func (r *Renderer) controllerData(ctx context.Context, route *router.Route, req *controller.Request) (map[string]any, *document.Document, error) {
	ctrl, ok := r.controllers.Resolve(route.Controller)
	if !ok {
		r.logger.Debug(ctx, "No controller for route", "controller", route.Controller, "path", route.Path)
		return map[string]any{}, nil, nil
	}

	data, err := ctrl.Data(req)
	if err != nil {
		return nil, nil, fmt.Errorf("controller %q data: %w", route.Controller, err)
	}
	if data == nil {
		data = map[string]any{}
	}

	doc, err := ctrl.Doc(req)
	if err != nil {
		return nil, nil, fmt.Errorf("controller %q doc: %w", route.Controller, err)
	}
	return data, doc, nil
}

// hydration compiles the client artifact and builds its bootstrap script.
// Client-side failures never fail the request: the page ships
// server-rendered with a console stub in place of the bootstrap.
func (r *Renderer) hydration(ctx context.Context, identity, templatePath, source, fingerprint string, data map[string]any, doc *document.Document) string {
	artifact, err := r.builder.ArtifactFromSource(ctx, identity, templatePath, source, fingerprint, build.TargetClient)
	if err != nil {
		r.logger.Warn(ctx, err, "Client compilation failed", "component", identity)
		return r.hydrator.Degraded()
	}
	r.assets.StoreCompiledComponent(assetName(identity, ".js"), artifact.Code)

	bootstrap, err := r.hydrator.Bootstrap(artifact, data, doc)
	if err != nil {
		r.logger.Warn(ctx, err, "Hydration bootstrap failed", "component", identity)
		return r.hydrator.Degraded()
	}
	return bootstrap
}

// assemblePage fills the document shell. The title comes from controller
// metadata (falling back to the configured app name) unless the component
// set one through <svelte:head>, which wins; its text is already
// markup-escaped by the compiler. Remaining component head fragments are
// appended after the metadata head content.
func (r *Renderer) assemblePage(route *router.Route, doc *document.Document, result *runtime.Result, cssName string, data map[string]any, hydration string) (string, error) {
	title := r.cfg.AppName()
	headContent := ""
	if doc != nil {
		if doc.Title != "" {
			title = doc.Title
		}
		headContent = doc.Head.HTML()
	}

	titleHTML := escape.HTMLAttr(title)
	componentHead := result.Head
	if m := headTitleTag.FindStringSubmatch(componentHead); m != nil {
		titleHTML = m[1]
		componentHead = headTitleTag.ReplaceAllString(componentHead, "")
	}
	if frag := strings.TrimSpace(componentHead); frag != "" {
		headContent += "    " + frag + "\n"
	}

	propsJSON, err := json.Marshal(data)
	if err != nil {
		return "", &fymoerrors.ContextError{Controller: route.Controller, Err: err}
	}

	reload := ""
	if r.reload {
		reload = reloadSnippet
	}

	return fmt.Sprintf(pageShell,
		titleHTML,
		r.assets.CSSLinkFor(cssName),
		headContent,
		result.HTML,
		propsJSON,
		scriptClose.ReplaceAllString(hydration, `<\/$1`),
		reload,
	), nil
}

// assetName maps a component identity to its served asset name, keeping
// the directory part so same-named templates in different folders do not
// collide: "home/index.svelte" becomes "home/index.css".
func assetName(identity, ext string) string {
	return strings.TrimSuffix(identity, path.Ext(identity)) + ext
}

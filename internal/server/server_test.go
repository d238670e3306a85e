package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/controller"
	"github.com/Bishwas-py/fymo/internal/document"
	"github.com/Bishwas-py/fymo/internal/logging"
	"github.com/Bishwas-py/fymo/internal/watcher"
)

const routesYAML = `root: home.index

routes:
  /posts/:id: posts.show
  /ghost: ghost.show
`

const homeTemplate = `<script>
	let { greeting } = $props();
</script>

<h1>{greeting}</h1>
`

const postTemplate = `<script>
	let { id } = $props();
</script>

<p>Post {id}</p>
`

type fixture struct {
	server *Server
	root   string
}

func testServerLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelDebug,
		Format: "json",
		Output: io.Discard,
	})
}

func newFixture(t *testing.T, environment string) *fixture {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "fymo.yml"), []byte(routesYAML), 0o644))
	writeFile(t, filepath.Join(root, "app", "templates", "home", "index.svelte"), homeTemplate)
	writeFile(t, filepath.Join(root, "app", "templates", "posts", "show.svelte"), postTemplate)
	writeFile(t, filepath.Join(root, "app", "static", "robots.txt"), "User-agent: *\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app", "data"), 0o755))

	cfg := &config.Config{
		Name: "Fixture App",
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        0,
			Environment: environment,
		},
		Build:  config.BuildConfig{Command: "node", Timeout: 30 * time.Second},
		Render: config.RenderConfig{Budget: 5 * time.Second},
		Paths: config.PathsConfig{
			Templates:     filepath.Join("app", "templates"),
			Static:        filepath.Join("app", "static"),
			Data:          filepath.Join("app", "data"),
			RuntimeBundle: filepath.Join("dist", "svelte-runtime.js"),
		},
		Development: config.DevelopmentConfig{HotReload: true, ErrorOverlay: true},
	}

	s, err := New(root, cfg, testServerLogger())
	require.NoError(t, err)

	f := &fixture{server: s, root: root}
	f.seed(t, "home/index.svelte", build.TargetServer, &build.Artifact{
		Name:  "Index",
		Style: "h1 { color: teal; }",
		Code: `
function Index($$payload, $$props) {
	$$payload.out += ` + "`" + `<h1>${$.escape($$props.greeting)}</h1>` + "`" + `;
}
`,
	})
	f.seed(t, "home/index.svelte", build.TargetClient, &build.Artifact{
		Name: "Index",
		Code: "const ComponentExport = function Index($$anchor, $$props) {};",
	})
	f.seed(t, "posts/show.svelte", build.TargetServer, &build.Artifact{
		Name: "Show",
		Code: `
function Show($$payload, $$props) {
	$$payload.out += ` + "`" + `<p>Post ${$.escape($$props.id)}</p>` + "`" + `;
}
`,
	})
	f.seed(t, "posts/show.svelte", build.TargetClient, &build.Artifact{
		Name: "Show",
		Code: "const ComponentExport = function Show($$anchor, $$props) {};",
	})

	s.Controllers().Register("home", controller.Funcs{
		DataFunc: func(*controller.Request) (map[string]any, error) {
			return map[string]any{"greeting": "World"}, nil
		},
		DocFunc: func(*controller.Request) (*document.Document, error) {
			return &document.Document{Title: "Home"}, nil
		},
	})
	s.Controllers().Register("posts", controller.Funcs{
		DataFunc: func(req *controller.Request) (map[string]any, error) {
			return map[string]any{"id": req.Params["id"]}, nil
		},
	})

	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// seed plants a compiled artifact in the builder cache under the template's
// current fingerprint, so requests never reach the external compiler.
func (f *fixture) seed(t *testing.T, identity string, target build.Target, artifact *build.Artifact) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(f.root, "app", "templates", filepath.FromSlash(identity)))
	require.NoError(t, err)

	artifact.Identity = identity
	artifact.Target = target
	artifact.Filename = "app/templates/" + identity
	artifact.Fingerprint = build.Fingerprint(raw)
	_, err = f.server.renderer.Builder().Cache().GetOrCompile(context.Background(), identity, target, artifact.Fingerprint,
		func(context.Context) (*build.Artifact, error) { return artifact, nil })
	require.NoError(t, err)
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestServerServesRenderedPage(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	assert.Contains(t, body, "<title>Home</title>")
	assert.Equal(t, 1, strings.Count(body, "<title>"), "the document carries a single title tag")
	assert.Contains(t, body, `<div id="svelte-app"><h1>World</h1></div>`)
	assert.Contains(t, body, `<script id="svelte-props" type="application/json">{"greeting":"World"}</script>`)
	assert.Contains(t, body, "svelte-runtime.js")
	assert.Contains(t, body, "full_reload")
}

func TestServerServesRouteParams(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/posts/42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<p>Post 42</p>")
}

func TestServerNotFound(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "404")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServerServesAssets(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/assets/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "User-agent")

	// Rendering stores the component's extracted CSS.
	_, _ = get(t, srv.URL+"/")
	resp, body = get(t, srv.URL+"/assets/css/home/index.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "color: teal")
}

func TestServerEchoesUpstreamRequestID(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Correlation-ID", "trace-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "trace-123", resp.Header.Get("X-Request-ID"))
}

func TestServerControllerFailure(t *testing.T) {
	f := newFixture(t, "development")
	f.server.Controllers().Register("home", controller.Funcs{
		DataFunc: func(*controller.Request) (map[string]any, error) {
			return nil, errors.New("db down")
		},
	})
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "db down")
}

func TestServerRecoversFromPanics(t *testing.T) {
	f := newFixture(t, "development")
	f.server.Controllers().Register("home", controller.Funcs{
		DataFunc: func(*controller.Request) (map[string]any, error) {
			panic("kaboom")
		},
	})
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "kaboom")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServerMissingTemplate(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/ghost")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Template Error")
}

func TestServerWebSocketEndpointDevOnly(t *testing.T) {
	dev := newFixture(t, "development")
	devSrv := httptest.NewServer(dev.server.Handler())
	defer devSrv.Close()

	// Present in development, but a plain request without an allowed
	// origin is rejected.
	resp, _ := get(t, devSrv.URL+"/ws")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	prod := newFixture(t, "production")
	prodSrv := httptest.NewServer(prod.server.Handler())
	defer prodSrv.Close()

	resp, _ = get(t, prodSrv.URL+"/ws")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := get(t, prodSrv.URL+"/")
	assert.NotContains(t, body, "full_reload")
}

func TestServerHandleChangesInvalidatesArtifacts(t *testing.T) {
	f := newFixture(t, "development")
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	_, _ = get(t, srv.URL+"/")
	cache := f.server.renderer.Builder().Cache()
	require.Equal(t, 4, cache.Stats().Entries)

	indexPath := filepath.Join(f.root, "app", "templates", "home", "index.svelte")
	err := f.server.handleChanges([]watcher.ChangeEvent{
		{Type: watcher.Modified, Path: indexPath, ModTime: time.Now()},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Stats().Entries, "both targets for the changed component drop")
	info, ok := f.server.Components().Get("home/index.svelte")
	require.True(t, ok)
	assert.Empty(t, info.Fingerprint, "touched components lose their fingerprint until re-rendered")

	err = f.server.handleChanges([]watcher.ChangeEvent{
		{Type: watcher.Deleted, Path: indexPath},
	})
	require.NoError(t, err)
	_, ok = f.server.Components().Get("home/index.svelte")
	assert.False(t, ok)

	// Data file changes only trigger the reload broadcast.
	err = f.server.handleChanges([]watcher.ChangeEvent{
		{Type: watcher.Modified, Path: filepath.Join(f.root, "app", "data", "home.yml")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Stats().Entries)
}

func TestServerStartAndShutdown(t *testing.T) {
	f := newFixture(t, "development")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- f.server.Start(ctx) }()

	require.Eventually(t, func() bool {
		f.server.mutex.Lock()
		defer f.server.mutex.Unlock()
		return f.server.httpServer != nil
	}, 2*time.Second, 10*time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	require.NoError(t, f.server.Shutdown(shutdownCtx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.NoError(t, f.server.Shutdown(shutdownCtx))
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			AllowedOrigins: []string{"app.example.com"},
		},
	}

	origins := allowedOrigins(cfg)
	assert.Contains(t, origins, "0.0.0.0:3000")
	assert.Contains(t, origins, "localhost:3000")
	assert.Contains(t, origins, "127.0.0.1:3000")
	assert.Contains(t, origins, "app.example.com")
}

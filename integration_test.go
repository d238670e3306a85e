package main

import (
	"context"
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
	"golang.org/x/net/html"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/logging"
	"github.com/Bishwas-py/fymo/internal/scaffolding"
	"github.com/Bishwas-py/fymo/internal/server"
)

// TestScaffoldedProjectServes drives the full stack the way a fresh project
// does: scaffold with the generator, boot the server against the generated
// fymo.yml and data files, and render the home route over HTTP. The compiled
// artifacts are planted in the builder cache so the test needs no Node
// toolchain.
func TestScaffoldedProjectServes(t *testing.T) {
	gen := scaffolding.NewGenerator(io.Discard)
	root, err := gen.CreateProject(t.TempDir(), "demo")
	require.NoError(t, err)

	cfg := scaffoldConfig()
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Format: "json",
		Output: io.Discard,
	})

	srv, err := server.New(root, cfg, logger)
	require.NoError(t, err)

	seedArtifacts(t, srv, root)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// Server-rendered markup from the generated controller data.
	assert.Contains(t, body, "<h1>Welcome to fymo</h1>")
	assert.Contains(t, body, "Your SSR framework for Svelte 5 is ready!")

	// The page must hold together as a document: title from the doc block,
	// a mount target for hydration, the embedded props payload, and the
	// development reload client.
	page := parsePage(t, body)
	assert.Equal(t, "demo", page.title)
	require.NotNil(t, page.mount, "hydration mount target missing")
	assert.Contains(t, page.props, "Welcome to fymo", "props JSON carries the context")
	assert.Contains(t, body, "/assets/svelte-runtime.js")
	assert.Contains(t, body, "full_reload")

	// Extracted component CSS is served once the page has rendered.
	resp, err = http.Get(ts.URL + "/assets/css/home/index.css")
	require.NoError(t, err)
	css := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, css, "#ff3e00")

	// Unknown paths get the framework 404 page.
	resp, err = http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	notFound := readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, notFound, "404")
}

// TestScaffoldedProjectGrows checks that generated components and
// controllers slot into a scaffolded project's layout.
func TestScaffoldedProjectGrows(t *testing.T) {
	gen := scaffolding.NewGenerator(io.Discard)
	root, err := gen.CreateProject(t.TempDir(), "demo")
	require.NoError(t, err)

	require.NoError(t, gen.GenerateComponent(root, "widgets/card"))
	require.NoError(t, gen.GenerateController(root, "widgets"))

	assert.FileExists(t, filepath.Join(root, "app", "templates", "widgets", "card.svelte"))
	assert.FileExists(t, filepath.Join(root, "app", "data", "widgets.yml"))
}

func scaffoldConfig() *config.Config {
	return &config.Config{
		Name: "demo",
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        0,
			Environment: "development",
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
}

// seedArtifacts plants compiled home-page artifacts keyed to the generated
// template's fingerprint.
func seedArtifacts(t *testing.T, srv *server.Server, root string) {
	t.Helper()

	identity := "home/index.svelte"
	raw, err := os.ReadFile(filepath.Join(root, "app", "templates", "home", "index.svelte"))
	require.NoError(t, err)
	fingerprint := build.Fingerprint(raw)

	artifacts := []*build.Artifact{
		{
			Target: build.TargetServer,
			Name:   "Index",
			Style:  "h1 { color: #ff3e00; }",
			Code: `
function Index($$payload, $$props) {
	$$payload.out += ` + "`" + `<h1>${$.escape($$props.title)}</h1><p>${$.escape($$props.message)}</p>` + "`" + `;
}
`,
		},
		{
			Target: build.TargetClient,
			Name:   "Index",
			Code:   "const ComponentExport = function Index($$anchor, $$props) {};",
		},
	}

	cache := srv.Renderer().Builder().Cache()
	for _, artifact := range artifacts {
		artifact.Identity = identity
		artifact.Filename = "app/templates/" + identity
		artifact.Fingerprint = fingerprint
		_, err := cache.GetOrCompile(context.Background(), identity, artifact.Target, fingerprint,
			func(context.Context) (*build.Artifact, error) { return artifact, nil })
		require.NoError(t, err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// pageFacts holds the structural pieces pulled from a rendered document.
type pageFacts struct {
	title string
	mount *html.Node
	props string
}

// parsePage parses the document and collects the head title, the hydration
// mount element, and the embedded props JSON.
func parsePage(t *testing.T, body string) *pageFacts {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)

	facts := &pageFacts{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil {
					facts.title = n.FirstChild.Data
				}
			case "div":
				if attrValue(n, "id") == "svelte-app" {
					facts.mount = n
				}
			case "script":
				if attrValue(n, "id") == "svelte-props" && n.FirstChild != nil {
					facts.props = n.FirstChild.Data
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return facts
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

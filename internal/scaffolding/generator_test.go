package scaffolding

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishwas-py/fymo/internal/controller"
	"github.com/Bishwas-py/fymo/internal/router"
)

func TestCreateProject(t *testing.T) {
	parent := t.TempDir()
	var out bytes.Buffer
	g := NewGenerator(&out)

	projectDir, err := g.CreateProject(parent, "blog")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "blog"), projectDir)

	for _, rel := range []string{
		"fymo.yml",
		"package.json",
		".gitignore",
		"README.md",
		"app/templates/home/index.svelte",
		"app/data/home.yml",
	} {
		_, statErr := os.Stat(filepath.Join(projectDir, filepath.FromSlash(rel)))
		assert.NoError(t, statErr, "expected %s to exist", rel)
	}
	for _, dir := range []string{"app/static/css", "dist"} {
		info, statErr := os.Stat(filepath.Join(projectDir, filepath.FromSlash(dir)))
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}

	raw, err := os.ReadFile(filepath.Join(projectDir, "fymo.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: blog")

	pkg, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(pkg), `"name": "blog"`)
	assert.Contains(t, string(pkg), `"svelte"`)
	assert.Contains(t, string(pkg), `"esbuild"`)

	assert.Contains(t, out.String(), "create  fymo.yml")
}

func TestCreateProjectRoutesAreLoadable(t *testing.T) {
	parent := t.TempDir()
	g := NewGenerator(nil)

	projectDir, err := g.CreateProject(parent, "blog")
	require.NoError(t, err)

	routes, err := router.Load(filepath.Join(projectDir, "fymo.yml"))
	require.NoError(t, err)

	route, ok := routes.Match("/")
	require.True(t, ok)
	assert.Equal(t, "home", route.Controller)
	assert.Equal(t, "index", route.Action)
	assert.Equal(t, "home/index.svelte", route.Identity())
}

func TestCreateProjectDataIsServable(t *testing.T) {
	parent := t.TempDir()
	g := NewGenerator(nil)

	projectDir, err := g.CreateProject(parent, "blog")
	require.NoError(t, err)

	controllers := controller.NewRegistry(filepath.Join(projectDir, "app", "data"))
	home, ok := controllers.Resolve("home")
	require.True(t, ok)

	data, err := home.Data(&controller.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to fymo", data["title"])
	assert.NotEmpty(t, data["message"])

	doc, err := home.Doc(&controller.Request{})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "blog", doc.Title)
}

func TestCreateProjectRefusesExistingDirectory(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(parent, "blog"), 0o755))

	_, err := NewGenerator(nil).CreateProject(parent, "blog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(nil)

	require.NoError(t, g.InitProject(dir, "legacy-app"))
	_, err := os.Stat(filepath.Join(dir, "fymo.yml"))
	assert.NoError(t, err)
	for _, sub := range []string{"app/templates", "app/data", "app/static"} {
		info, statErr := os.Stat(filepath.Join(dir, filepath.FromSlash(sub)))
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}

	err = g.InitProject(dir, "legacy-app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already contains a fymo.yml")
}

func TestGenerateComponent(t *testing.T) {
	root := t.TempDir()
	g := NewGenerator(nil)

	require.NoError(t, g.GenerateComponent(root, "widgets/card"))

	raw, err := os.ReadFile(filepath.Join(root, "app", "templates", "widgets", "card.svelte"))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "title = 'Card'")
	assert.Contains(t, content, `class="card"`)
	assert.Contains(t, content, "$props()")

	// A .svelte suffix on the identity is tolerated.
	require.NoError(t, g.GenerateComponent(root, "widgets/badge.svelte"))
	_, err = os.Stat(filepath.Join(root, "app", "templates", "widgets", "badge.svelte"))
	assert.NoError(t, err)

	err = g.GenerateComponent(root, "widgets/card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	err = g.GenerateComponent(root, "../outside")
	require.Error(t, err)
}

func TestGenerateController(t *testing.T) {
	root := t.TempDir()
	g := NewGenerator(nil)

	require.NoError(t, g.GenerateController(root, "posts"))

	controllers := controller.NewRegistry(filepath.Join(root, "app", "data"))
	posts, ok := controllers.Resolve("posts")
	require.True(t, ok)

	data, err := posts.Data(&controller.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Posts", data["title"])

	err = g.GenerateController(root, "posts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestValidateProjectName(t *testing.T) {
	assert.NoError(t, ValidateProjectName("blog"))
	assert.NoError(t, ValidateProjectName("my-app_2"))

	for _, name := range []string{"", "my app", "app/other", "app!", strings.Repeat(".", 2)} {
		assert.Error(t, ValidateProjectName(name), "name %q should be rejected", name)
	}
}

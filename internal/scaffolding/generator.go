// Package scaffolding creates fymo projects, components, and controllers.
package scaffolding

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/validation"
)

// projectDirs is the directory skeleton of a new project.
var projectDirs = []string{
	"app/templates/home",
	"app/data",
	"app/static/css",
	"app/static/js",
	"app/static/images",
	"dist",
}

// Generator writes scaffold files and reports each created path.
type Generator struct {
	out io.Writer
}

// NewGenerator creates a generator. A nil writer discards progress output.
func NewGenerator(out io.Writer) *Generator {
	if out == nil {
		out = io.Discard
	}
	return &Generator{out: out}
}

// CreateProject scaffolds a complete project named name under parentDir and
// returns the project path. The target directory must not exist yet.
func (g *Generator) CreateProject(parentDir, name string) (string, error) {
	if err := ValidateProjectName(name); err != nil {
		return "", err
	}

	projectDir := filepath.Join(parentDir, name)
	if _, err := os.Stat(projectDir); err == nil {
		return "", fmt.Errorf("directory %q already exists", name)
	}

	for _, dir := range projectDirs {
		if err := os.MkdirAll(filepath.Join(projectDir, filepath.FromSlash(dir)), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	ctx := projectContext{Name: name}
	files := []struct {
		path    string
		content string
	}{
		{"fymo.yml", fymoYML},
		{"package.json", packageJSON},
		{".gitignore", gitignore},
		{"README.md", readme},
		{"app/templates/home/index.svelte", homeTemplate},
		{"app/data/home.yml", homeData},
	}
	for _, file := range files {
		if err := g.renderFile(projectDir, file.path, file.content, ctx); err != nil {
			return "", err
		}
	}

	return projectDir, nil
}

// InitProject drops a minimal fymo.yml and the app directories into an
// existing directory. Directories that already hold a fymo.yml are refused.
func (g *Generator) InitProject(dir, name string) error {
	if err := ValidateProjectName(name); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, "fymo.yml")); err == nil {
		return fmt.Errorf("%s already contains a fymo.yml", dir)
	}

	for _, sub := range []string{"app/templates", "app/data", "app/static"} {
		if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(sub)), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", sub, err)
		}
	}
	return g.renderFile(dir, "fymo.yml", fymoYML, projectContext{Name: name})
}

// GenerateComponent scaffolds app/templates/<identity>.svelte. The identity
// is a template-relative path like "widgets/card"; a .svelte suffix is
// accepted and normalized.
func (g *Generator) GenerateComponent(projectRoot, identity string) error {
	identity = strings.TrimSuffix(filepath.ToSlash(identity), ".svelte")
	if err := validation.ValidatePath(identity); err != nil {
		return fmt.Errorf("component name: %w", err)
	}

	rel := filepath.Join("app", "templates", filepath.FromSlash(identity)+".svelte")
	path := filepath.Join(projectRoot, rel)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating component directory: %w", err)
	}

	stem := identity[strings.LastIndex(identity, "/")+1:]
	return g.renderFile(projectRoot, rel, componentTemplate, componentContext{
		Name:  build.ComponentName(identity + ".svelte"),
		Class: stem,
	})
}

// GenerateController scaffolds app/data/<name>.yml, the static data file
// backing a controller of that name.
func (g *Generator) GenerateController(projectRoot, name string) error {
	if err := validation.ValidatePath(name); err != nil {
		return fmt.Errorf("controller name: %w", err)
	}

	rel := filepath.Join("app", "data", name+".yml")
	path := filepath.Join(projectRoot, rel)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	return g.renderFile(projectRoot, rel, controllerData, componentContext{
		Name:  build.ComponentName(name + ".svelte"),
		Class: name,
	})
}

// ValidateProjectName rejects names that cannot serve as a directory and
// package name.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return fmt.Errorf("project name %q may only contain letters, digits, '-' and '_'", name)
		}
	}
	return nil
}

// renderFile executes a file template and writes the result, reporting the
// created path.
func (g *Generator) renderFile(root, rel, content string, ctx any) error {
	tmpl, err := template.New("scaffold").Parse(content)
	if err != nil {
		return fmt.Errorf("parsing scaffold template for %s: %w", rel, err)
	}

	file, err := os.Create(filepath.Join(root, rel))
	if err != nil {
		return fmt.Errorf("creating %s: %w", rel, err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, ctx); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}

	fmt.Fprintf(g.out, "  create  %s\n", filepath.ToSlash(rel))
	return nil
}

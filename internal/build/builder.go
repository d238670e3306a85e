package build

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	fymoerrors "github.com/Bishwas-py/fymo/internal/errors"
)

// Builder turns component templates into cached, prepared artifacts. It is
// the single entry point the render pipeline and the batch build use.
type Builder struct {
	compiler *SvelteCompiler
	cache    *ArtifactCache
	sources  *SourceCache
	root     string
	dev      bool
}

// NewBuilder creates a builder for the project root. command is the Node
// binary used for compiler invocations; dev enables dev-mode compilation
// (identity markers, richer diagnostics).
func NewBuilder(projectRoot, command string, dev bool) *Builder {
	return &Builder{
		compiler: NewSvelteCompiler(projectRoot, command),
		cache:    NewArtifactCache(),
		sources:  NewSourceCache(),
		root:     projectRoot,
		dev:      dev,
	}
}

// Artifact returns the compiled artifact for one component target, reading
// the template from disk (cheap when unchanged) and compiling only on
// fingerprint misses. identity is the template-relative component path,
// templatePath the full file path.
func (b *Builder) Artifact(ctx context.Context, identity, templatePath string, target Target) (*Artifact, error) {
	source, fingerprint, err := b.ReadSource(templatePath)
	if err != nil {
		return nil, err
	}
	return b.ArtifactFromSource(ctx, identity, templatePath, source, fingerprint, target)
}

// ReadSource returns the template source and its fingerprint, served from
// the source cache when the file is unchanged. A missing or unreadable
// template is a TemplateError.
func (b *Builder) ReadSource(templatePath string) (source, fingerprint string, err error) {
	source, fingerprint, err = b.sources.Read(templatePath)
	if err != nil {
		return "", "", &fymoerrors.TemplateError{Path: templatePath, Err: err}
	}
	return source, fingerprint, nil
}

// ArtifactFromSource is Artifact for callers that already hold the source
// text and its fingerprint.
func (b *Builder) ArtifactFromSource(ctx context.Context, identity, templatePath, source, fingerprint string, target Target) (*Artifact, error) {
	markerPath := b.markerPath(templatePath)

	return b.cache.GetOrCompile(ctx, identity, target, fingerprint, func(ctx context.Context) (*Artifact, error) {
		out, err := b.compiler.Compile(ctx, source, identity, markerPath, target, b.dev)
		if err != nil {
			return nil, err
		}

		var prep Prepared
		if target == TargetServer {
			prep = PrepareServer(out.JS)
		} else {
			prep = PrepareClient(out.JS)
		}
		if prep.Filename == "" {
			prep.Filename = markerPath
		}
		if prep.Name == "" {
			prep.Name = ComponentName(identity)
		}

		return &Artifact{
			Identity:    identity,
			Target:      target,
			Fingerprint: fingerprint,
			Name:        prep.Name,
			Filename:    prep.Filename,
			Code:        prep.Code,
			Style:       out.CSS,
		}, nil
	})
}

// Invalidate drops all cached state for one component: its source entry and
// every artifact generation.
func (b *Builder) Invalidate(identity, templatePath string) int {
	b.sources.Invalidate(templatePath)
	return b.cache.Invalidate(identity)
}

// Cache exposes the artifact cache for stats reporting.
func (b *Builder) Cache() *ArtifactCache { return b.cache }

// Dev reports whether the builder compiles in development mode.
func (b *Builder) Dev() bool { return b.dev }

// markerPath is the project-relative template path recorded in identity
// markers, with forward slashes on every platform.
func (b *Builder) markerPath(templatePath string) string {
	rel, err := filepath.Rel(b.root, templatePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(templatePath)
	}
	return filepath.ToSlash(rel)
}

var componentTitle = cases.Title(language.English)

// ComponentName derives a fallback constructor name from a component
// identity: the capitalized stem of the file name.
func ComponentName(identity string) string {
	if identity == "" {
		return "Component"
	}
	stem := strings.TrimSuffix(filepath.Base(identity), filepath.Ext(identity))
	if stem == "" {
		return "Component"
	}
	return componentTitle.String(stem)
}

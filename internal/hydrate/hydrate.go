// Package hydrate generates the client-side bootstrap script that attaches
// reactivity to server-rendered markup. The bootstrap embeds the compiled
// client artifact as an escaped string literal, installs the same context
// accessors the server sandbox provides, and mounts the component through
// the real client runtime against the existing DOM subtree.
package hydrate

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/Bishwas-py/fymo/internal/build"
	"github.com/Bishwas-py/fymo/internal/document"
	"github.com/Bishwas-py/fymo/internal/escape"
	"github.com/Bishwas-py/fymo/internal/runtime"
)

const (
	// TargetElementID is the DOM id of the element holding server-rendered
	// markup; the client runtime mounts over its contents.
	TargetElementID = "svelte-app"
	// PropsElementID is the DOM id of the JSON script element carrying the
	// initial component data.
	PropsElementID = "svelte-props"
	// DefaultRuntimePath is where the bundled client runtime is served.
	DefaultRuntimePath = "/assets/svelte-runtime.js"
)

// degradedBootstrap is emitted when no client artifact is available; the
// page stays server-rendered and non-interactive.
const degradedBootstrap = "console.error('Client compilation failed');"

// bootstrapTemplate wires the embedded artifact to the client runtime. The
// artifact source travels as a template-literal string and is rebuilt into
// a constructor with new Function, so the module scope of the bootstrap
// never collides with names inside the component code. The identity marker
// is assigned on the constructor before mounting, mirroring the server
// side.
const bootstrapTemplate = `import * as SvelteRuntime from '{{.RuntimePath}}';

{{.Accessors}}
const target = document.getElementById('{{.TargetID}}');
const propsElement = document.getElementById('{{.PropsID}}');
const componentProps = propsElement ? JSON.parse(propsElement.textContent) : {};

const componentFilename = {{.Filename}};
const componentSource = ` + "`{{.Source}}`" + `;

try {
	const createModule = new Function('SvelteRuntime', 'componentFilename', ` + "`" + `
		const $ = SvelteRuntime;
		const {
			state, derived, get, update, tag,
			template_effect, user_effect,
			from_html, add_locations, child, sibling, append, set_text,
			check_target, push, pop, reset, delegate,
			log_if_contains_state, legacy_api, FILENAME
		} = SvelteRuntime;

		${componentSource}

		if (typeof ComponentExport !== 'function') {
			throw new Error('client artifact did not define a component');
		}
		if (FILENAME) {
			ComponentExport[FILENAME] = componentFilename;
		}
		return ComponentExport;
	` + "`" + `);

	const Component = createModule(SvelteRuntime, componentFilename);

	target.innerHTML = '';
	if (typeof SvelteRuntime.mount === 'function') {
		SvelteRuntime.mount(Component, { target: target, props: componentProps });
	} else {
		Component(target, componentProps);
	}
} catch (error) {
	console.error('Hydration failed:', error);
}
`

var bootstrap = template.Must(template.New("bootstrap").Parse(bootstrapTemplate))

type bootstrapData struct {
	RuntimePath string
	Accessors   string
	TargetID    string
	PropsID     string
	Filename    string
	Source      string
}

// Generator builds hydration bootstraps for client artifacts.
type Generator struct {
	runtimePath string
}

// NewGenerator creates a generator. runtimePath is the URL the bundled
// client runtime is served from; empty selects DefaultRuntimePath.
func NewGenerator(runtimePath string) *Generator {
	if runtimePath == "" {
		runtimePath = DefaultRuntimePath
	}
	return &Generator{runtimePath: runtimePath}
}

// Bootstrap produces the hydration script for a client artifact. context
// and doc feed the same two accessors the server sandbox installs, so the
// component sees identical shapes in both environments.
func (g *Generator) Bootstrap(artifact *build.Artifact, context map[string]any, doc *document.Document) (string, error) {
	if artifact.Target != build.TargetClient {
		return "", fmt.Errorf("artifact %s is a %s artifact, want %s", artifact.Identity, artifact.Target, build.TargetClient)
	}

	accessors, err := runtime.AccessorScript(context, doc)
	if err != nil {
		return "", err
	}

	filename := artifact.Filename
	if filename == "" {
		filename = artifact.Identity
	}
	filenameJSON, err := jsonString(filename)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	err = bootstrap.Execute(&out, bootstrapData{
		RuntimePath: g.runtimePath,
		Accessors:   accessors,
		TargetID:    TargetElementID,
		PropsID:     PropsElementID,
		Filename:    filenameJSON,
		Source:      escape.ScriptLiteral(artifact.Code),
	})
	if err != nil {
		return "", fmt.Errorf("generating hydration bootstrap: %w", err)
	}
	return out.String(), nil
}

// Degraded returns the bootstrap used when the client artifact could not
// be compiled. The server-rendered page remains intact, without
// interactivity.
func (g *Generator) Degraded() string {
	return degradedBootstrap
}

// jsonString encodes a value as a JSON string literal, safe to place in
// script text.
func jsonString(s string) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding %q: %w", s, err)
	}
	return string(raw), nil
}

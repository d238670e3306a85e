package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const serverDevOutput = `import 'svelte/internal/disclose-version';
import * as $ from 'svelte/internal/server';

Index[$.FILENAME] = 'app/templates/home/index.svelte';

function Index($$payload, $$props) {
	$.push(Index);
	let count = 0;
	$$payload.out += ` + "`" + `<h1>Count: ${$.escape(count)}</h1>` + "`" + `;
	$.pop();
}

export default Index;
`

const serverProdOutput = `import * as $ from "svelte/internal/server";

export default function App($$payload) {
	$$payload.out += ` + "`" + `<p>hi</p>` + "`" + `;
}
`

const clientDevOutput = `import 'svelte/internal/disclose-version';
import * as $ from 'svelte/internal/client';

Index[$.FILENAME] = 'app/templates/home/index.svelte';

var root = $.template(` + "`" + `<h1> </h1>` + "`" + `);

function Index($$anchor, $$props) {
	$.check_target(new.target);
	$.push($$props, true, Index);
	$.pop();
}

export default Index;
`

const clientProdOutput = `import * as $ from "svelte/internal/client";

export default function Widget($$anchor) {
	var h = $.template(` + "`" + `<h2>w</h2>` + "`" + `)();
	$.append($$anchor, h);
}
`

func TestPrepareServerDevOutput(t *testing.T) {
	prep := PrepareServer(serverDevOutput)

	assert.Equal(t, "Index", prep.Name)
	assert.Equal(t, "app/templates/home/index.svelte", prep.Filename)
	assert.NotContains(t, prep.Code, "svelte/internal")
	assert.NotContains(t, prep.Code, "$.FILENAME] =")
	assert.NotContains(t, prep.Code, "export default")
	assert.Contains(t, prep.Code, "function Index($$payload, $$props)")
}

func TestPrepareServerProdOutput(t *testing.T) {
	prep := PrepareServer(serverProdOutput)

	assert.Equal(t, "App", prep.Name)
	assert.Empty(t, prep.Filename)
	assert.NotContains(t, prep.Code, "export default")
	assert.Contains(t, prep.Code, "function App($$payload)")
}

func TestPrepareClientDevOutput(t *testing.T) {
	prep := PrepareClient(clientDevOutput)

	assert.Equal(t, "Index", prep.Name)
	assert.Equal(t, "app/templates/home/index.svelte", prep.Filename)
	assert.NotContains(t, prep.Code, "svelte/internal")
	assert.NotContains(t, prep.Code, "export default")
	assert.Contains(t, prep.Code, "function Index($$anchor, $$props)")
	assert.Contains(t, prep.Code, "const ComponentExport = Index;")
}

func TestPrepareClientProdOutput(t *testing.T) {
	prep := PrepareClient(clientProdOutput)

	assert.Equal(t, "Widget", prep.Name)
	assert.NotContains(t, prep.Code, "export default")
	assert.Contains(t, prep.Code, "const ComponentExport = function Widget($$anchor)")
}

func TestPrepareKeepsRuntimeReferences(t *testing.T) {
	// Stripping must only touch module syntax; body references to $ stay.
	prep := PrepareServer(serverDevOutput)
	assert.Contains(t, prep.Code, "$.push(Index)")
	assert.Contains(t, prep.Code, "$.escape(count)")
}

func TestPrepareNoExportForm(t *testing.T) {
	code := "function Plain($$payload) {}\n"
	prep := PrepareServer(code)

	assert.Equal(t, "Plain", prep.Name)
	assert.Equal(t, strings.TrimSpace(code), strings.TrimSpace(prep.Code))
}

func TestComponentName(t *testing.T) {
	tests := []struct {
		identity string
		want     string
	}{
		{"home/index.svelte", "Index"},
		{"todos/show.svelte", "Show"},
		{"widget.svelte", "Widget"},
		{"", "Component"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ComponentName(tt.identity), "identity %q", tt.identity)
	}
}

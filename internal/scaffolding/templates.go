package scaffolding

// projectContext feeds the project file templates.
type projectContext struct {
	Name string
}

// componentContext feeds the component and controller templates.
type componentContext struct {
	Name  string
	Class string
}

const fymoYML = `# {{.Name}} configuration
name: {{.Name}}

root: home.index

# Declare more routes and RESTful resources:
#
# routes:
#   /about: pages.about
#   /posts/:id: posts.show
#
# resources:
#   - posts

server:
  host: 127.0.0.1
  port: 8000
  environment: development

development:
  hot_reload: true
  error_overlay: true
`

const packageJSON = `{
  "name": "{{.Name}}",
  "version": "1.0.0",
  "type": "module",
  "description": "A fymo project",
  "scripts": {
    "dev": "fymo serve",
    "build": "fymo build"
  },
  "dependencies": {
    "svelte": "^5.38.0"
  },
  "devDependencies": {
    "esbuild": "^0.25.0"
  }
}
`

const gitignore = `# Node
node_modules/
npm-debug.log*

# fymo
/dist/
/.fymo/
*.log

# IDE
.vscode/
.idea/
*.swp
.DS_Store
`

const homeTemplate = `<script>
  let { title, message } = $props();
  let count = $state(0);

  function increment() {
    count++;
  }
</script>

<div class="container">
  <h1>{title}</h1>
  <p>{message}</p>

  <div class="counter">
    <p>Count: {count}</p>
    <button onclick={increment}>Increment</button>
  </div>
</div>

<style>
  .container {
    max-width: 800px;
    margin: 2rem auto;
    padding: 2rem;
    font-family: system-ui, -apple-system, sans-serif;
  }

  h1 {
    color: #ff3e00;
    margin-bottom: 1rem;
  }

  .counter {
    margin-top: 2rem;
    padding: 1rem;
    background: #f5f5f5;
    border-radius: 8px;
  }

  button {
    background: #ff3e00;
    color: white;
    border: none;
    padding: 0.5rem 1rem;
    border-radius: 4px;
    cursor: pointer;
    font-size: 1rem;
  }

  button:hover {
    background: #ff5722;
  }
</style>
`

const homeData = `# Data served by the home controller. context values become component
# props; the doc block fills the page head.
context:
  title: Welcome to fymo
  message: Your SSR framework for Svelte 5 is ready!

doc:
  title: "{{.Name}}"
`

const readme = `# {{.Name}}

A fymo project - SSR framework for Svelte 5

## Setup

Install Node dependencies:
` + "```bash" + `
npm install
` + "```" + `

## Development

Start the development server:
` + "```bash" + `
fymo serve
` + "```" + `

## Build for Production

` + "```bash" + `
fymo build
` + "```" + `

## Project Structure

- ` + "`app/`" + ` - Application code
  - ` + "`templates/`" + ` - Svelte components, one per routed page
  - ` + "`data/`" + ` - YAML controller data
  - ` + "`static/`" + ` - Static assets
- ` + "`dist/`" + ` - Build output, including the client runtime bundle
`

const componentTemplate = `<script>
  let { title = '{{.Name}}' } = $props();
</script>

<div class="{{.Class}}">
  <h2>{title}</h2>
</div>

<style>
  .{{.Class}} {
    padding: 1rem;
  }
</style>
`

const controllerData = `# Data served by the {{.Class}} controller.
context:
  title: {{.Name}}

doc:
  title: {{.Name}}
`

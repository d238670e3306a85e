// Package internal contains the core implementation packages for fymo.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the functionality behind the fymo CLI.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - build: svelte compilation through Node, artifact preparation and caching
//   - runtime: goja sandbox executing server artifacts into HTML
//   - hydrate: client bootstrap generation for browser hydration
//   - renderer: the render pipeline assembling full pages
//   - router: the fymo.yml routing table
//   - controller: per-route data resolution from YAML files and Go functions
//   - document: page metadata (title, meta, links, scripts)
//   - assets: compiled asset storage and the /assets/ HTTP tree
//   - server: HTTP server, middleware, and the development loop
//   - watcher: file system monitoring with debouncing
//   - websocket: the live reload hub
//   - registry: component registry and change events
//   - scaffolding: project and file generators
//   - config: configuration loading and validation
//   - logging: structured logging with optional Sentry forwarding
//   - errors: the pipeline's error types
//   - escape: HTML and JS escaping helpers
//   - validation: path and command validation
//   - version: build metadata
//
// # Inter-Package Communication
//
// The render pipeline runs builder -> runtime -> hydrate -> page assembly,
// coordinated by renderer. The server owns the outer loop: it matches
// routes, invokes the renderer, and in development feeds watcher batches
// into cache invalidation and reload broadcasts. The registry records what
// has been rendered and when it changed.
package internal

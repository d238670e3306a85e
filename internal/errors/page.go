package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bishwas-py/fymo/internal/escape"
)

// kindColor picks the accent color for an error category on dev pages.
func kindColor(kind string) string {
	switch kind {
	case "Compilation Error":
		return "#ff6b6b"
	case "Rendering Error":
		return "#feca57"
	case "Runtime Mismatch":
		return "#48dbfb"
	case "Template Error":
		return "#a0aec0"
	default:
		return "#ff6b6b"
	}
}

// ErrorPage renders a full HTML document for a failed render. Development
// mode shows the error category, message, source location, and stack
// trace; production mode shows a generic page with no internals. All
// dynamic text is escaped, including on this path.
func ErrorPage(err error, dev bool) string {
	if !dev {
		return productionErrorPage
	}

	kind := Kind(err)
	color := kindColor(kind)

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>`)
	b.WriteString(escape.HTMLAttr(kind))
	b.WriteString(`</title>
</head>
<body style="margin: 0; background: #1a202c; color: white; font-family: 'Monaco', 'Menlo', monospace; font-size: 14px;">
	<div id="fymo-error-overlay" style="max-width: 1000px; margin: 0 auto; padding: 40px 20px;">
`)
	fmt.Fprintf(&b, `		<h2 style="margin: 0 0 20px 0; color: %s;">%s</h2>
`, color, escape.HTMLAttr(kind))

	fmt.Fprintf(&b, `		<div style="background: #2d3748; padding: 15px; border-radius: 4px; border-left: 4px solid %s;">
			<div style="color: #e2e8f0; margin-bottom: 5px;">
				<strong>%s</strong>
			</div>
`, color, escape.HTMLAttr(errMessage(err)))

	if loc := errLocation(err); loc != "" {
		fmt.Fprintf(&b, `			<div style="color: #a0aec0; font-size: 12px;">%s</div>
`, escape.HTMLAttr(loc))
	}
	b.WriteString("\t\t</div>\n")

	if stack := errStack(err); stack != "" {
		fmt.Fprintf(&b, `		<pre style="background: #2d3748; padding: 15px; border-radius: 4px; overflow: auto; color: #a0aec0; font-size: 12px;">%s</pre>
`, escape.HTMLAttr(stack))
	}

	b.WriteString(`	</div>
</body>
</html>
`)
	return b.String()
}

const productionErrorPage = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Server Error</title>
</head>
<body style="margin: 0; font-family: sans-serif; text-align: center; padding-top: 80px;">
	<h1>Something went wrong</h1>
	<p>The page could not be rendered. Please try again later.</p>
</body>
</html>
`

// errMessage extracts the primary message line for an error page.
func errMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	var (
		ce *CompileError
		re *RuntimeError
	)
	switch {
	case errors.As(err, &ce):
		return ce.Message
	case errors.As(err, &re):
		return re.Message
	}
	return err.Error()
}

// errLocation extracts component and source location, when known.
func errLocation(err error) string {
	var (
		ce *CompileError
		re *RuntimeError
		me *MissingAccessorError
		te *TemplateError
	)
	switch {
	case errors.As(err, &ce):
		if loc := ce.Location(); loc != "" {
			return fmt.Sprintf("%s (%s target) at %s", ce.Component, ce.Target, loc)
		}
		return fmt.Sprintf("%s (%s target)", ce.Component, ce.Target)
	case errors.As(err, &me):
		return fmt.Sprintf("%s expects runtime primitive %q", me.Component, me.Accessor)
	case errors.As(err, &re):
		return re.Component
	case errors.As(err, &te):
		return te.Path
	}
	return ""
}

// errStack extracts a stack trace, when one was captured.
func errStack(err error) string {
	var (
		ce *CompileError
		re *RuntimeError
	)
	switch {
	case errors.As(err, &ce):
		return ce.Stack
	case errors.As(err, &re):
		return re.Stack
	}
	return ""
}

// ErrorOverlay generates the dismissable HTML overlay injected into pages
// during development when the collector holds failures from a batch
// rebuild.
func (ec *ErrorCollector) ErrorOverlay() string {
	if !ec.HasErrors() {
		return ""
	}

	html := `
<div id="fymo-error-overlay" style="
	position: fixed;
	top: 0;
	left: 0;
	width: 100%;
	height: 100%;
	background: rgba(0, 0, 0, 0.8);
	color: white;
	font-family: 'Monaco', 'Menlo', monospace;
	font-size: 14px;
	z-index: 9999;
	padding: 20px;
	box-sizing: border-box;
	overflow: auto;
">
	<div style="max-width: 1000px; margin: 0 auto;">
		<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px;">
			<h2 style="margin: 0; color: #ff6b6b;">Build Errors</h2>
			<button onclick="document.getElementById('fymo-error-overlay').style.display='none'"
					style="background: none; border: 1px solid #ccc; color: white; padding: 5px 10px; cursor: pointer;">
				Close
			</button>
		</div>
		<div>`

	for _, ce := range ec.Errors() {
		kind := Kind(ce.Err)
		color := kindColor(kind)
		location := errLocation(ce.Err)
		if location == "" {
			location = ce.Component
		}

		html += fmt.Sprintf(`
			<div style="
				background: #2d3748;
				padding: 15px;
				margin-bottom: 15px;
				border-radius: 4px;
				border-left: 4px solid %s;
			">
				<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px;">
					<span style="color: %s; font-weight: bold;">%s</span>
					<span style="color: #a0aec0; font-size: 12px;">%s</span>
				</div>
				<div style="color: #e2e8f0; margin-bottom: 5px;">
					<strong>%s</strong>
				</div>
				<div style="color: #a0aec0; font-size: 12px;">
					%s
				</div>
			</div>
		`, color, color, escape.HTMLAttr(kind), ce.Timestamp.Format("15:04:05"), escape.HTMLAttr(errMessage(ce.Err)), escape.HTMLAttr(location))
	}

	html += `
		</div>
	</div>
</div>`

	return html
}

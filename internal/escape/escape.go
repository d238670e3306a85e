// Package escape provides the output escaping used when component markup,
// metadata, and generated code are embedded into HTML documents and
// hydration scripts.
//
// Both escapers are total over arbitrary input and neither is idempotent:
// callers escape exactly once, at the point of embedding.
package escape

import "strings"

// attrReplacer maps the five HTML-special characters to entity forms.
// Replacer output is never rescanned, so entity ampersands stay intact.
var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// HTMLAttr escapes a value for placement inside an HTML attribute or text
// position. The result is safe in both double- and single-quoted attributes.
func HTMLAttr(s string) string {
	return attrReplacer.Replace(s)
}

// ScriptLiteral escapes text for placement inside a backtick template
// literal. The replacement order is load-bearing: backslashes are doubled
// first, then backticks, then "${" openers. Running the steps in any other
// order mangles backslashes introduced by the later steps.
func ScriptLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", `\${`)
	return s
}

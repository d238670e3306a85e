package document

import "strings"

// dangerousPatterns are the call and property forms blocked in custom head
// scripts. Matching is exact-case: "Function(" stays blocked while plain
// function declarations pass through.
var dangerousPatterns = []string{
	"eval(",
	"Function(",
	"setTimeout(",
	"setInterval(",
	"document.write(",
	"innerHTML",
	"outerHTML",
	"document.cookie",
	"localStorage",
	"sessionStorage",
}

// SanitizeScript replaces blocked patterns in an inline head script with a
// marker comment. It is a coarse filter for controller-authored snippets,
// not a general JavaScript sanitizer.
func SanitizeScript(js string) string {
	for _, pattern := range dangerousPatterns {
		if strings.Contains(js, pattern) {
			js = strings.ReplaceAll(js, pattern, "/* BLOCKED: "+pattern+" */")
		}
	}
	return js
}

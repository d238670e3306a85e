package build

import (
	"regexp"
	"strings"
)

// The compiler emits ES modules wired to svelte's internal packages. The
// sandbox and the hydration bootstrap both run the code as plain scripts
// with the runtime provided by the host, so preparation strips module
// syntax once, here, and records what it removed.
var (
	importServerPattern   = regexp.MustCompile(`import \* as \$ from ['"]svelte/internal/server['"];?`)
	importClientPattern   = regexp.MustCompile(`import \* as \$ from ['"]svelte/internal/client['"];?`)
	importDisclosePattern = regexp.MustCompile(`import ['"]svelte/internal/disclose-version['"];?`)
	filenameMarkerPattern = regexp.MustCompile(`(?m)^(.+?)\[\$\.FILENAME\]\s*=\s*['"]([^'"]+)['"];?\n?`)
	exportDefaultFn       = regexp.MustCompile(`export default function (\w+)`)
	exportDefaultName     = regexp.MustCompile(`export default (\w+);?[ \t]*\n?`)
	functionName          = regexp.MustCompile(`function\s+(\w+)\s*\(`)
)

// Prepared is normalized compiler output: module syntax removed, component
// identity extracted.
type Prepared struct {
	// Name is the component constructor's function name.
	Name string
	// Filename is the identity-marker path the compiler recorded, or ""
	// outside dev mode.
	Filename string
	// Code is the prepared module text. For the client target the default
	// export is rebound to ComponentExport so the bootstrap can return it.
	Code string
}

// PrepareServer normalizes server-target compiler output for sandbox
// execution. The component stays a named function declaration that the
// execution wrapper invokes through the runtime's render entry point.
func PrepareServer(code string) Prepared {
	code = stripImports(code)
	name, filename, code := extractFilenameMarker(code)

	// Inline form first: "export default function App(" must keep its
	// declaration. The bare-name pattern would otherwise eat the keyword.
	code = exportDefaultFn.ReplaceAllString(code, "function $1")
	if m := exportDefaultName.FindStringSubmatch(code); m != nil {
		if name == "" {
			name = m[1]
		}
		code = exportDefaultName.ReplaceAllString(code, "")
	}

	if name == "" {
		if m := functionName.FindStringSubmatch(code); m != nil {
			name = m[1]
		}
	}

	return Prepared{Name: name, Filename: filename, Code: code}
}

// PrepareClient normalizes client-target compiler output for embedding in
// the hydration bootstrap. The component's default export becomes a
// ComponentExport binding regardless of which export form the compiler used.
func PrepareClient(code string) Prepared {
	code = stripImports(code)
	name, filename, code := extractFilenameMarker(code)

	if m := exportDefaultFn.FindStringSubmatch(code); m != nil {
		if name == "" {
			name = m[1]
		}
		code = exportDefaultFn.ReplaceAllString(code, "const ComponentExport = function $1")
	} else if m := exportDefaultName.FindStringSubmatch(code); m != nil {
		if name == "" {
			name = m[1]
		}
		code = exportDefaultName.ReplaceAllString(code, "")
		code = strings.TrimRight(code, "\n") + "\nconst ComponentExport = " + m[1] + ";\n"
	}

	if name == "" {
		if m := functionName.FindStringSubmatch(code); m != nil {
			name = m[1]
		}
	}

	return Prepared{Name: name, Filename: filename, Code: code}
}

func stripImports(code string) string {
	code = importServerPattern.ReplaceAllString(code, "")
	code = importClientPattern.ReplaceAllString(code, "")
	code = importDisclosePattern.ReplaceAllString(code, "")
	return code
}

// extractFilenameMarker captures and removes the dev-mode identity marker
// line (Name[$.FILENAME] = 'path';) so it can be re-assigned after the
// runtime object exists.
func extractFilenameMarker(code string) (name, filename, cleaned string) {
	m := filenameMarkerPattern.FindStringSubmatch(code)
	if m == nil {
		return "", "", code
	}
	return strings.TrimSpace(m[1]), m[2], strings.Replace(code, m[0], "", 1)
}

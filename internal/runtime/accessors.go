package runtime

import (
	"encoding/json"
	"fmt"
)

// AccessorScript builds the two-function context surface a component sees:
// getContext() yields its component data, getDoc() yields the document
// metadata. The two are never merged; a component reading metadata through
// its props gets nothing. The same script shape is installed in the server
// sandbox and embedded in the client hydration bootstrap, so component code
// behaves identically in both environments.
//
// Values cross as JSON, so both arguments must be JSON-representable.
// encoding/json escapes HTML delimiters, which keeps the script safe to
// inline into a page.
func AccessorScript(context, doc any) (string, error) {
	contextJSON, err := json.Marshal(context)
	if err != nil {
		return "", fmt.Errorf("encoding component data: %w", err)
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding document metadata: %w", err)
	}

	return fmt.Sprintf(`const __fymoContext = %s;
globalThis.getContext = function() { return __fymoContext || {}; };
const __fymoDoc = %s;
globalThis.getDoc = function() { return __fymoDoc || {}; };
`, contextJSON, docJSON), nil
}

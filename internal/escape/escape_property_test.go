//go:build property

package escape

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestEscapeProperties validates the escaping laws over generated input.
func TestEscapeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("script escape round-trips arbitrary strings", prop.ForAll(
		func(s string) bool {
			decoded, ok := interpretTemplateLiteral(ScriptLiteral(s))
			return ok && decoded == s
		},
		gen.AnyString(),
	))

	properties.Property("script escape round-trips escape-dense strings", prop.ForAll(
		func(parts []string) bool {
			s := strings.Join(parts, "")
			decoded, ok := interpretTemplateLiteral(ScriptLiteral(s))
			return ok && decoded == s
		},
		gen.SliceOf(gen.OneConstOf("`", `\`, "$", "{", "}", "${", "\\`", `\${`, "a")),
	))

	properties.Property("attribute escape leaves no raw specials", prop.ForAll(
		func(s string) bool {
			return !strings.ContainsAny(HTMLAttr(s), `<>"'`)
		},
		gen.AnyString(),
	))

	properties.Property("attribute escape preserves safe text verbatim", prop.ForAll(
		func(s string) bool {
			if strings.ContainsAny(s, `&<>"'`) {
				return true // Only safe inputs must pass through unchanged
			}
			return HTMLAttr(s) == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

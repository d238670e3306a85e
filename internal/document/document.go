// Package document models the per-route document metadata a controller
// supplies: page title plus structured head content. Metadata stays separate
// from component data end to end; components read it through getDoc() only.
package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Bishwas-py/fymo/internal/escape"
)

// Document is the metadata for one rendered page.
type Document struct {
	Title string `json:"title,omitempty" yaml:"title"`
	Head  Head   `json:"head,omitempty" yaml:"head"`
}

// Head holds structured head content: meta tags in declaration order and
// script descriptors.
type Head struct {
	Meta   []Meta  `json:"meta,omitempty" yaml:"meta"`
	Script Scripts `json:"script,omitempty" yaml:"script"`
}

// Meta is a single meta tag given as attribute name/value pairs.
type Meta map[string]string

// Scripts describes head script content. AnalyticsID and Hotjar expand to
// their loader snippets; Custom entries are sanitized inline statements.
type Scripts struct {
	AnalyticsID string   `json:"analyticsID,omitempty" yaml:"analyticsID"`
	Hotjar      string   `json:"hotjar,omitempty" yaml:"hotjar"`
	Custom      []string `json:"custom,omitempty" yaml:"custom"`
}

// IsZero reports whether the head carries no content at all.
func (h Head) IsZero() bool {
	return len(h.Meta) == 0 && h.Script.AnalyticsID == "" &&
		h.Script.Hotjar == "" && len(h.Script.Custom) == 0
}

// HTML renders the head content as indented tag lines ready to place inside
// <head>. Every metadata-derived value passes attribute escaping exactly
// once. Returns "" for an empty head; otherwise the result is newline-wrapped
// so it slots between the stylesheet links and </head>.
func (h Head) HTML() string {
	var parts []string

	for _, meta := range h.Meta {
		if len(meta) == 0 {
			continue
		}
		attrs := make([]string, 0, len(meta))
		for _, key := range sortedMetaKeys(meta) {
			attrs = append(attrs, fmt.Sprintf(`%s="%s"`,
				escape.HTMLAttr(key), escape.HTMLAttr(meta[key])))
		}
		parts = append(parts, fmt.Sprintf("    <meta %s>", strings.Join(attrs, " ")))
	}

	parts = appendAnalyticsScripts(parts, h.Script)
	parts = appendCustomScripts(parts, h.Script.Custom)

	if len(parts) == 0 {
		return ""
	}
	return "\n" + strings.Join(parts, "\n") + "\n"
}

// metaKeyRank orders identifying attributes ahead of the rest so rendered
// tags keep their conventional shape regardless of map iteration order.
var metaKeyRank = map[string]int{
	"charset":    0,
	"name":       1,
	"property":   2,
	"http-equiv": 3,
}

func sortedMetaKeys(m Meta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := metaKeyRank[keys[i]]
		rj, jKnown := metaKeyRank[keys[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func appendAnalyticsScripts(parts []string, s Scripts) []string {
	if s.AnalyticsID != "" {
		id := escape.HTMLAttr(s.AnalyticsID)
		parts = append(parts,
			fmt.Sprintf(`    <script async src="https://www.googletagmanager.com/gtag/js?id=%s"></script>`, id),
			"    <script>",
			"        window.dataLayer = window.dataLayer || [];",
			"        function gtag(){dataLayer.push(arguments);}",
			`        gtag("js", new Date());`,
			fmt.Sprintf(`        gtag("config", "%s");`, id),
			"    </script>",
		)
	}

	if s.Hotjar != "" {
		id := escape.HTMLAttr(s.Hotjar)
		parts = append(parts,
			"    <script>",
			"        (function(h,o,t,j,a,r){",
			"            h.hj=h.hj||function(){(h.hj.q=h.hj.q||[]).push(arguments)};",
			fmt.Sprintf("            h._hjSettings={hjid:%s,hjsv:6};", id),
			`            a=o.getElementsByTagName("head")[0];`,
			`            r=o.createElement("script");r.async=1;`,
			"            r.src=t+h._hjSettings.hjid+j+h._hjSettings.hjsv;",
			"            a.appendChild(r);",
			`        })(window,document,"https://static.hotjar.com/c/hotjar-",".js?sv=");`,
			"    </script>",
		)
	}

	return parts
}

func appendCustomScripts(parts []string, custom []string) []string {
	lines := make([]string, 0, len(custom))
	for _, script := range custom {
		script = strings.TrimSpace(script)
		if script == "" {
			continue
		}
		lines = append(lines, "        "+SanitizeScript(script))
	}
	if len(lines) == 0 {
		return parts
	}

	parts = append(parts, "    <script>")
	parts = append(parts, lines...)
	parts = append(parts, "    </script>")
	return parts
}

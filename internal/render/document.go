/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"strings"

	"mdpad/internal/theme"
)

// DocumentOptions controls the wrapping of an HTML fragment into a complete
// themed document.
type DocumentOptions struct {
	Title string
	Theme theme.Theme
	// IncludeCSS embeds the full preview stylesheet with the theme's colors
	// substituted for its CSS variables.
	IncludeCSS bool
	// Mermaid and MathJax pull the respective renderers from a CDN; exports
	// meant for offline viewing leave them off.
	Mermaid bool
	MathJax bool
}

// baseCSS is the preview stylesheet. The var(...) fallbacks double as the
// light theme, so the sheet works even unsubstituted.
const baseCSS = `h1, h2, h3, h4, h5, h6 { line-height: 1.25; margin-top: 24px; margin-bottom: 16px; }
h1 { font-size: 2em; border-bottom: 1px solid var(--border-color, #e1e4e8); padding-bottom: .3em; }
h2 { font-size: 1.5em; border-bottom: 1px solid var(--border-color, #e1e4e8); padding-bottom: .3em; }
a { color: var(--link-color, #0066cc); text-decoration: none; }
a:hover { text-decoration: underline; }
code { background: var(--code-bg, #f5f5f5); border-radius: 3px; padding: .2em .4em; font-size: 85%; }
pre { background: var(--pre-bg, #f5f5f5); border-radius: 6px; padding: 16px; overflow: auto; }
pre code { background: none; padding: 0; }
blockquote { border-left: 4px solid var(--border-color, #e1e4e8); margin: 0; padding: 0 1em; opacity: .8; }
table { border-collapse: collapse; margin: 16px 0; }
th, td { border: 1px solid var(--border-color, #e1e4e8); padding: 6px 13px; }
img { max-width: 100%; }
hr { border: none; border-top: 1px solid var(--border-color, #e1e4e8); margin: 24px 0; }
`

// themedCSS substitutes the theme colors for the stylesheet's CSS variables.
func themedCSS(t theme.Theme) string {
	r := strings.NewReplacer(
		"var(--bg-color, #ffffff)", t.Colors.Background,
		"var(--text-color, #1e1e1e)", t.Colors.Text,
		"var(--link-color, #0066cc)", t.Colors.Link,
		"var(--code-bg, #f5f5f5)", t.Colors.CodeBackground,
		"var(--pre-bg, #f5f5f5)", t.Colors.PreBackground,
		"var(--border-color, #e1e4e8)", t.Colors.Border,
	)
	return r.Replace(baseCSS)
}

const mermaidScript = `<script src="https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"></script>
<script>
    mermaid.initialize({ startOnLoad: true, theme: '%s', securityLevel: 'loose' });
</script>`

const mathJaxScript = `<script>
    window.MathJax = {
        tex: {
            inlineMath: [['$', '$'], ['\\(', '\\)']],
            displayMath: [['$$', '$$'], ['\\[', '\\]']],
            processEscapes: true
        },
        svg: { fontCache: 'global' }
    };
</script>
<script src="https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"></script>`

// Document wraps an HTML fragment into a complete standalone document with
// inline theme styling and optional diagram/math scripts.
func Document(body string, opts DocumentOptions) string {
	title := opts.Title
	if title == "" {
		title = "Exported Document"
	}
	var css string
	if opts.IncludeCSS {
		css = themedCSS(opts.Theme)
	}
	var scripts strings.Builder
	if opts.Mermaid {
		fmt.Fprintf(&scripts, mermaidScript, opts.Theme.MermaidTheme())
		scripts.WriteString("\n")
	}
	if opts.MathJax {
		scripts.WriteString(mathJaxScript)
		scripts.WriteString("\n")
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body {
            background: %s;
            color: %s;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", "Noto Sans", Helvetica, Arial, sans-serif;
            max-width: 900px;
            margin: 0 auto;
            padding: 40px 20px;
            line-height: 1.6;
        }
        %s
    </style>
%s</head>
<body>
%s
</body>
</html>`, htmlEscape(title), opts.Theme.Colors.Background, opts.Theme.Colors.Text, css, scripts.String(), body)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

package button

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Vars holds the values available to prompt templates. The placeholder
// grammar is small: {{content}}, {{title}} and
// {{customContext || 'fallback'}}. The fallback form is parsed, never
// evaluated.
type Vars struct {
	Content       string
	Title         string
	CustomContext string
}

// fallbackPattern matches {{name || 'default'}} with single or double
// quotes around the default.
var fallbackPattern = regexp.MustCompile(`\{\{(\w+)\s*\|\|\s*["']([^"']*)["']\}\}`)

// FillTemplate substitutes the recognized placeholders into tmpl.
// Substitution is order-independent, every occurrence of a placeholder is
// replaced, and unrecognized {{...}} tokens are left verbatim. The custom
// context is trimmed; when empty, the template's own fallback literal wins.
func FillTemplate(tmpl string, vars Vars) string {
	values := map[string]string{
		"content":       vars.Content,
		"title":         vars.Title,
		"customContext": strings.TrimSpace(vars.CustomContext),
	}

	// Fallback expressions resolve first so a bare {{customContext}} pass
	// can't eat the variable name out of {{customContext || '...'}}.
	result := fallbackPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		groups := fallbackPattern.FindStringSubmatch(match)
		name, fallback := groups[1], groups[2]
		if v, ok := values[name]; ok {
			if v == "" {
				return fallback
			}
			return v
		}
		return match
	})

	for name, v := range values {
		result = strings.ReplaceAll(result, "{{"+name+"}}", v)
	}

	return result
}

// ExtractText strips HTML down to plain text using a real parser: nested
// tags and entities are handled by the tokenizer, script/style subtrees
// are dropped, and block-level boundaries become whitespace so adjacent
// blocks don't run together. Runs of whitespace collapse to single spaces.
func ExtractText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// The parser is lenient; a hard failure means the input is not
		// meaningfully HTML, so treat it as already-plain text.
		return strings.Join(strings.Fields(content), " ")
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if isBlockTag(n.Data) {
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) {
			b.WriteByte(' ')
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true, "table": true, "section": true,
	"article": true, "header": true, "footer": true, "blockquote": true,
	"pre": true, "hr": true,
}

func isBlockTag(tag string) bool {
	return blockTags[tag]
}

package jsast

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// StringValue returns the unquoted value of a string literal, or of a template
// string without substitutions. ok is false for any other node.
func StringValue(node *tree_sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		return Unquote(node.Utf8Text(source)), true
	case "template_string":
		hasSubstitution := false
		IterateNamedChildren(node, func(child *tree_sitter.Node) {
			if child.Kind() == "template_substitution" {
				hasSubstitution = true
			}
		})
		if hasSubstitution {
			return "", false
		}
		return Unquote(node.Utf8Text(source)), true
	}
	return "", false
}

// Unquote strips the surrounding quote characters of a JavaScript string
// literal and resolves the common escape sequences.
func Unquote(literal string) string {
	if len(literal) < 2 {
		return literal
	}
	quote := literal[0]
	if (quote != '\'' && quote != '"' && quote != '`') || literal[len(literal)-1] != quote {
		return literal
	}
	body := literal[1 : len(literal)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	sb := strings.Builder{}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String()
}

// Quote renders s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	return "'" + EscapeJS(s) + "'"
}

// EscapeJS escapes s for inclusion in a single-quoted JavaScript string.
func EscapeJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

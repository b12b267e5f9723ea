// Package jsast wraps the tree-sitter JavaScript and TypeScript grammars with the
// small set of helpers the converters need to walk source trees
package jsast

import (
	"path/filepath"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Dialect selects the grammar used to parse a file.
type Dialect int

const (
	JavaScript Dialect = iota
	TypeScript
	TSX
)

func (d Dialect) String() string {
	switch d {
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	default:
		return "javascript"
	}
}

// DialectFor picks the grammar from a file extension.
func DialectFor(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return JavaScript
	}
}

// Language returns the tree-sitter language for a dialect
func Language(d Dialect) *tree_sitter.Language {
	switch d {
	case TypeScript:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case TSX:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	default:
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	}
}

// Parse parses source code and returns a tree-sitter tree. The caller owns the tree.
func Parse(source []byte, d Dialect) *tree_sitter.Tree {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language(d))
	return parser.Parse(source, nil)
}

// CheckSyntax returns a *diagnostics.SyntaxError locating the first ERROR or
// MISSING node of the tree, or nil when the tree is clean.
func CheckSyntax(tree *tree_sitter.Tree, source []byte, path string) error {
	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	bad := firstErrorNode(root)
	if bad == nil {
		bad = root
	}
	pos := bad.StartPosition()
	snippet := bad.Utf8Text(source)
	if idx := strings.IndexByte(snippet, '\n'); idx >= 0 {
		snippet = snippet[:idx]
	}
	if len(snippet) > 40 {
		snippet = snippet[:40]
	}
	return &diagnostics.SyntaxError{
		Path:    path,
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Snippet: strings.TrimSpace(snippet),
	}
}

func firstErrorNode(node *tree_sitter.Node) *tree_sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

// IterateChildren iterates over all children of a node and calls fn for each
func IterateChildren(node *tree_sitter.Node, fn func(child *tree_sitter.Node)) {
	cursor := node.Walk()
	defer cursor.Close()
	children := node.Children(cursor)
	for i := range children {
		fn(&children[i])
	}
}

// IterateNamedChildren iterates over the named children of a node
func IterateNamedChildren(node *tree_sitter.Node, fn func(child *tree_sitter.Node)) {
	cursor := node.Walk()
	defer cursor.Close()
	children := node.NamedChildren(cursor)
	for i := range children {
		fn(&children[i])
	}
}

// HasChildKind reports whether any direct child has the given kind. Keyword
// tokens such as `async`, `static` or `default` are anonymous children.
func HasChildKind(node *tree_sitter.Node, kind string) bool {
	found := false
	IterateChildren(node, func(child *tree_sitter.Node) {
		if child.Kind() == kind {
			found = true
		}
	})
	return found
}

// Line returns the 1-based start line of a node
func Line(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// Unwrap strips parentheses and await wrappers around an expression.
func Unwrap(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "await_expression":
			inner := node.NamedChild(0)
			if inner == nil {
				return node
			}
			node = inner
		default:
			return node
		}
	}
	return node
}

// IsComment reports comment nodes, which may appear anywhere in a tree.
func IsComment(node *tree_sitter.Node) bool {
	return node.Kind() == "comment"
}

// IsCommentText reports whether source text is a single comment.
func IsCommentText(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "//") || (strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/"))
}

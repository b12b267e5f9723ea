package jsast

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// RequireSource returns the module of a `require('m')` call.
func RequireSource(call *tree_sitter.Node, source []byte) (string, bool) {
	if call == nil || call.Kind() != "call_expression" {
		return "", false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || fn.Utf8Text(source) != "require" {
		return "", false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	return StringValue(args.NamedChild(0), source)
}

// IsRequireDeclaration reports whether a variable declaration only binds the
// results of require calls, e.g. `const { a } = require('m')`.
func IsRequireDeclaration(decl *tree_sitter.Node, source []byte) bool {
	if decl.Kind() != "lexical_declaration" && decl.Kind() != "variable_declaration" {
		return false
	}
	declarators := 0
	requires := 0
	IterateNamedChildren(decl, func(child *tree_sitter.Node) {
		if child.Kind() != "variable_declarator" {
			return
		}
		declarators++
		if _, ok := RequireSource(Unwrap(child.ChildByFieldName("value")), source); ok {
			requires++
		}
	})
	return declarators > 0 && declarators == requires
}

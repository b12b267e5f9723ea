package cypress

import (
	"strings"

	"github.com/heshanpadmasiri/cy2pw/jsast"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// function literals that must become async once their body awaits commands
var asyncable = map[string]bool{
	"arrow_function":       true,
	"function_expression":  true,
	"function":             true,
	"function_declaration": true,
}

// callback parses a function literal passed as an argument.
func (p *parser) callback(fn *tree_sitter.Node) *Callback {
	cb := &Callback{Params: p.params(fn)}
	if body := fn.ChildByFieldName("body"); body != nil {
		cb.Body = p.commands(body)
	}
	return cb
}

func (p *parser) params(fn *tree_sitter.Node) []string {
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []string{single.Utf8Text(p.source)}
	}
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []string
	jsast.IterateNamedChildren(list, func(param *tree_sitter.Node) {
		if jsast.IsComment(param) {
			return
		}
		// typescript wraps the binding in required_parameter
		if pattern := param.ChildByFieldName("pattern"); pattern != nil {
			param = pattern
		}
		params = append(params, param.Utf8Text(p.source))
	})
	return params
}

// holdsCommands reports whether a command chain appears anywhere under node.
func (p *parser) holdsCommands(node *tree_sitter.Node) bool {
	if p.isChain(node) {
		return true
	}
	found := false
	jsast.IterateNamedChildren(node, func(child *tree_sitter.Node) {
		if !found && p.holdsCommands(child) {
			found = true
		}
	})
	return found
}

// isChain is chain without building the invocation.
func (p *parser) isChain(node *tree_sitter.Node) bool {
	calls := 0
	for node != nil {
		switch node.Kind() {
		case "call_expression":
			fn := node.ChildByFieldName("function")
			if fn == nil || fn.Kind() != "member_expression" || fn.ChildByFieldName("property") == nil {
				return false
			}
			calls++
			node = fn.ChildByFieldName("object")
		case "identifier":
			return calls > 0 && node.Utf8Text(p.source) == p.namespace
		default:
			return false
		}
	}
	return false
}

// compound splits a statement that is not itself a command chain around the
// nested blocks holding commands, so the control flow is kept and only the
// blocks are converted. It returns false when nothing nested holds commands.
func (p *parser) compound(stmt *tree_sitter.Node) ([]Part, bool) {
	if !p.holdsCommands(stmt) {
		return nil, false
	}
	if parts, ok := p.forEachLoop(stmt); ok {
		return parts, true
	}
	s := &splitter{p: p, pos: stmt.StartByte()}
	s.walk(stmt, true)
	if !s.found {
		return nil, false
	}
	s.text(stmt.EndByte())
	return s.parts, true
}

type splitter struct {
	p     *parser
	pos   uint
	parts []Part
	found bool
}

func (s *splitter) text(end uint) {
	if end > s.pos {
		s.parts = append(s.parts, Part{Text: string(s.p.source[s.pos:end])})
		s.pos = end
	}
}

func (s *splitter) block(node *tree_sitter.Node, commands []Invocation) {
	s.text(node.StartByte())
	s.parts = append(s.parts, Part{Block: &Block{Commands: commands}})
	s.pos = node.EndByte()
	s.found = true
}

func (s *splitter) walk(node *tree_sitter.Node, top bool) {
	switch {
	case node.Kind() == "statement_block":
		if s.p.holdsCommands(node) {
			s.block(node, s.p.commands(node))
			return
		}
	case node.Kind() == "expression_statement" && !top:
		// unbraced body of an if, else or loop
		if s.p.holdsCommands(node) {
			s.block(node, []Invocation{s.p.statement(node)})
			return
		}
	case asyncable[node.Kind()] && !jsast.HasChildKind(node, "async"):
		if body := node.ChildByFieldName("body"); body != nil && body.Kind() == "statement_block" && s.p.holdsCommands(body) {
			s.text(node.StartByte())
			s.parts = append(s.parts, Part{Text: "async "})
		}
	}
	jsast.IterateNamedChildren(node, func(child *tree_sitter.Node) {
		s.walk(child, false)
	})
}

// forEachLoop rewrites `items.forEach((item) => {...})` as a for...of loop,
// since forEach does not wait for an async callback.
func (p *parser) forEachLoop(stmt *tree_sitter.Node) ([]Part, bool) {
	if stmt.Kind() != "expression_statement" {
		return nil, false
	}
	call := statementCall(stmt)
	if call == nil {
		return nil, false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "member_expression" {
		return nil, false
	}
	object := fn.ChildByFieldName("object")
	property := fn.ChildByFieldName("property")
	if object == nil || property == nil || property.Utf8Text(p.source) != "forEach" {
		return nil, false
	}
	if p.holdsCommands(object) {
		return nil, false
	}
	args := p.args(call.ChildByFieldName("arguments"))
	if len(args) != 1 || args[0].Callback == nil {
		return nil, false
	}
	cb := args[0].Callback
	for _, param := range cb.Params {
		if strings.Contains(param, "=") || strings.HasPrefix(param, "...") {
			return nil, false
		}
	}
	list := object.Utf8Text(p.source)
	var binding string
	switch len(cb.Params) {
	case 0:
		binding = "_"
	case 1:
		binding = cb.Params[0]
	case 2:
		binding = "[" + cb.Params[1] + ", " + cb.Params[0] + "]"
		list = operand(object, p.source) + ".entries()"
	default:
		return nil, false
	}
	return []Part{
		{Text: "for (const " + binding + " of " + list + ") "},
		{Block: &Block{Commands: cb.Body}},
	}, true
}

// operand parenthesizes node unless it can be followed by a member access
// as written.
func operand(node *tree_sitter.Node, source []byte) string {
	text := node.Utf8Text(source)
	switch node.Kind() {
	case "identifier", "member_expression", "call_expression", "subscript_expression", "array", "parenthesized_expression", "this":
		return text
	}
	return "(" + text + ")"
}

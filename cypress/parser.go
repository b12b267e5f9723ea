// Package cypress parses Cypress spec sources into a suite/case/hook/command
// tree. Parsing is purely static: arguments that are not literals are kept as
// source text and never evaluated.
package cypress

import (
	"slices"

	"github.com/heshanpadmasiri/cy2pw/jsast"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// DefaultNamespace is the identifier every command chain is rooted at.
const DefaultNamespace = "cy"

// Options configures the source parser
type Options struct {
	Namespace string
}

// DefaultOptions returns the parser options for stock Cypress specs.
func DefaultOptions() Options {
	return Options{Namespace: DefaultNamespace}
}

var (
	suiteCalls = map[string]bool{"describe": true, "context": true, "suite": true}
	caseCalls  = map[string]bool{"it": true, "specify": true, "test": true}
	hookCalls  = map[string]HookKind{
		"before":     HookBeforeAll,
		"beforeEach": HookBeforeEach,
		"after":      HookAfterAll,
		"afterEach":  HookAfterEach,
	}
)

type callKind int

const (
	callOther callKind = iota
	callSuite
	callCase
	callHook
)

type parser struct {
	source    []byte
	namespace string
}

func newParser(source []byte, opts Options) *parser {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &parser{source: source, namespace: namespace}
}

// Parse extracts the suite tree of a spec file. The grammar is picked from
// the file extension. Unparsable text yields a *diagnostics.SyntaxError.
func Parse(source []byte, filePath string, opts Options) ([]Suite, error) {
	tree := jsast.Parse(source, jsast.DialectFor(filePath))
	defer tree.Close()
	if err := jsast.CheckSyntax(tree, source, filePath); err != nil {
		return nil, err
	}
	p := newParser(source, opts)
	return p.parseProgram(tree.RootNode()), nil
}

// ParseBody parses a function body (including its braces) into invocations.
// Page-object method bodies are converted through this.
func ParseBody(body string, dialect jsast.Dialect, opts Options) ([]Invocation, error) {
	const prefix = "async function __body__() "
	source := []byte(prefix + body)
	tree := jsast.Parse(source, dialect)
	defer tree.Close()
	if err := jsast.CheckSyntax(tree, source, ""); err != nil {
		return nil, err
	}
	fn := tree.RootNode().NamedChild(0)
	if fn == nil {
		return nil, nil
	}
	block := fn.ChildByFieldName("body")
	if block == nil {
		return nil, nil
	}
	p := newParser(source, opts)
	return p.commands(block), nil
}

// parseProgram walks the top level of a file. A suite call is built in full
// and its subtree is never walked again, so nested suites and cases only
// appear under their parent.
func (p *parser) parseProgram(root *tree_sitter.Node) []Suite {
	implicit := Suite{Implicit: true, Line: 1}
	var suites []Suite
	jsast.IterateNamedChildren(root, func(child *tree_sitter.Node) {
		switch child.Kind() {
		// imports are handled by the import analyzer
		case "import_statement":
			return
		case "comment", "empty_statement":
			return
		case "lexical_declaration", "variable_declaration":
			if jsast.IsRequireDeclaration(child, p.source) {
				return
			}
		}
		if call := statementCall(child); call != nil && p.addMember(call, &implicit, &suites) {
			return
		}
		if !p.containsMemberCall(child) {
			implicit.Declarations = append(implicit.Declarations, Invocation{Verbatim: child.Utf8Text(p.source), Line: jsast.Line(child)})
			return
		}
		p.descend(child, &implicit, &suites)
	})
	if len(implicit.Declarations) == 0 && len(implicit.Cases) == 0 && len(implicit.Hooks) == 0 {
		return suites
	}
	return append([]Suite{implicit}, suites...)
}

// descend looks for suite, case and hook calls wrapped in other top-level
// code such as an immediately invoked function.
func (p *parser) descend(node *tree_sitter.Node, parent *Suite, suites *[]Suite) {
	if node.Kind() == "call_expression" && p.addMember(node, parent, suites) {
		return
	}
	jsast.IterateNamedChildren(node, func(child *tree_sitter.Node) {
		p.descend(child, parent, suites)
	})
}

// addMember appends the suite, case or hook built from call. It returns false
// when call is not one of them.
func (p *parser) addMember(call *tree_sitter.Node, parent *Suite, suites *[]Suite) bool {
	kind, modifier, hook := p.classifyCall(call)
	switch kind {
	case callSuite:
		*suites = append(*suites, p.buildSuite(call, modifier))
	case callCase:
		parent.Cases = append(parent.Cases, p.buildCase(call, modifier))
	case callHook:
		parent.Hooks = append(parent.Hooks, p.buildHook(call, hook))
	default:
		return false
	}
	return true
}

func (p *parser) classifyCall(call *tree_sitter.Node) (callKind, Modifier, HookKind) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return callOther, ModifierNone, ""
	}
	var name string
	modifier := ModifierNone
	switch fn.Kind() {
	case "identifier":
		name = fn.Utf8Text(p.source)
	case "member_expression":
		object := fn.ChildByFieldName("object")
		property := fn.ChildByFieldName("property")
		if object == nil || property == nil || object.Kind() != "identifier" {
			return callOther, ModifierNone, ""
		}
		switch Modifier(property.Utf8Text(p.source)) {
		case ModifierOnly:
			modifier = ModifierOnly
		case ModifierSkip:
			modifier = ModifierSkip
		default:
			return callOther, ModifierNone, ""
		}
		name = object.Utf8Text(p.source)
	default:
		return callOther, ModifierNone, ""
	}
	switch {
	case suiteCalls[name]:
		return callSuite, modifier, ""
	case caseCalls[name]:
		return callCase, modifier, ""
	}
	if hook, ok := hookCalls[name]; ok && modifier == ModifierNone {
		return callHook, modifier, hook
	}
	return callOther, ModifierNone, ""
}

func (p *parser) containsMemberCall(node *tree_sitter.Node) bool {
	if node.Kind() == "call_expression" {
		if kind, _, _ := p.classifyCall(node); kind != callOther {
			return true
		}
	}
	found := false
	jsast.IterateNamedChildren(node, func(child *tree_sitter.Node) {
		if !found && p.containsMemberCall(child) {
			found = true
		}
	})
	return found
}

func (p *parser) buildSuite(call *tree_sitter.Node, modifier Modifier) Suite {
	suite := Suite{
		Title:    p.title(call),
		Modifier: modifier,
		Line:     jsast.Line(call),
	}
	body := callbackBody(call)
	if body == nil {
		return suite
	}
	forEachStatement(body, func(stmt *tree_sitter.Node) {
		if jsast.IsComment(stmt) {
			return
		}
		if inner := statementCall(stmt); inner != nil && p.addMember(inner, &suite, &suite.Suites) {
			return
		}
		// anything else at suite level (data, helpers, loops) is kept as written
		suite.Declarations = append(suite.Declarations, Invocation{Verbatim: stmt.Utf8Text(p.source), Line: jsast.Line(stmt)})
	})
	return suite
}

func (p *parser) buildCase(call *tree_sitter.Node, modifier Modifier) Case {
	c := Case{
		Title:    p.title(call),
		Modifier: modifier,
		Line:     jsast.Line(call),
	}
	if body := callbackBody(call); body != nil {
		c.Commands = p.commands(body)
	}
	return c
}

func (p *parser) buildHook(call *tree_sitter.Node, kind HookKind) Hook {
	hook := Hook{Kind: kind, Line: jsast.Line(call)}
	if body := callbackBody(call); body != nil {
		hook.Commands = p.commands(body)
	}
	return hook
}

func (p *parser) title(call *tree_sitter.Node) Arg {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return StringArg("")
	}
	var title *tree_sitter.Node
	for i := uint(0); i < args.NamedChildCount(); i++ {
		child := args.NamedChild(i)
		if child != nil && !jsast.IsComment(child) {
			title = child
			break
		}
	}
	if title == nil || isFunction(title) {
		return StringArg("")
	}
	return p.arg(title)
}

func (p *parser) commands(body *tree_sitter.Node) []Invocation {
	var commands []Invocation
	forEachStatement(body, func(stmt *tree_sitter.Node) {
		commands = append(commands, p.statement(stmt))
	})
	return commands
}

func (p *parser) statement(stmt *tree_sitter.Node) Invocation {
	line := jsast.Line(stmt)
	expr := stmt
	returned := false
	switch stmt.Kind() {
	case "expression_statement":
		expr = stmt.NamedChild(0)
	case "return_statement":
		expr = stmt.NamedChild(0)
		returned = true
	}
	if expr != nil {
		if inv, ok := p.chain(jsast.Unwrap(expr)); ok {
			inv.Line = line
			inv.Returned = returned
			return inv
		}
	}
	inv := Invocation{Verbatim: stmt.Utf8Text(p.source), Line: line}
	if parts, ok := p.compound(stmt); ok {
		inv.Parts = parts
	}
	return inv
}

// chain unwinds `ns.cmd(a).link(b).link(c)` from the outermost call inwards.
// Anything other than a call on a member access, or a root other than the
// namespace identifier, breaks the chain.
func (p *parser) chain(expr *tree_sitter.Node) (Invocation, bool) {
	var links []ChainedCall
	node := expr
	for node != nil {
		switch node.Kind() {
		case "call_expression":
			fn := node.ChildByFieldName("function")
			if fn == nil || fn.Kind() != "member_expression" {
				return Invocation{}, false
			}
			property := fn.ChildByFieldName("property")
			if property == nil {
				return Invocation{}, false
			}
			links = append(links, ChainedCall{
				Method: property.Utf8Text(p.source),
				Args:   p.args(node.ChildByFieldName("arguments")),
			})
			node = fn.ChildByFieldName("object")
		case "identifier":
			if node.Utf8Text(p.source) != p.namespace || len(links) == 0 {
				return Invocation{}, false
			}
			slices.Reverse(links)
			inv := Invocation{Name: links[0].Method, Args: links[0].Args}
			if len(links) > 1 {
				inv.Chain = links[1:]
			}
			return inv, true
		default:
			return Invocation{}, false
		}
	}
	return Invocation{}, false
}

func (p *parser) args(node *tree_sitter.Node) []Arg {
	if node == nil {
		return nil
	}
	if node.Kind() != "arguments" {
		// tagged template call
		return []Arg{p.arg(node)}
	}
	var args []Arg
	jsast.IterateNamedChildren(node, func(child *tree_sitter.Node) {
		if jsast.IsComment(child) {
			return
		}
		args = append(args, p.arg(child))
	})
	return args
}

func (p *parser) arg(node *tree_sitter.Node) Arg {
	text := node.Utf8Text(p.source)
	switch node.Kind() {
	case "string", "template_string":
		if value, ok := jsast.StringValue(node, p.source); ok {
			return Arg{Kind: ArgString, Value: value}
		}
	case "number":
		return Arg{Kind: ArgNumber, Value: text}
	case "true", "false":
		return Arg{Kind: ArgBool, Value: text}
	case "identifier":
		return Arg{Kind: ArgIdentifier, Value: text}
	}
	arg := RawArg(text)
	if isFunction(node) {
		arg.Callback = p.callback(node)
	}
	return arg
}

// statementCall returns the call expression of an expression statement, or of
// a bare expression body of an arrow function.
func statementCall(stmt *tree_sitter.Node) *tree_sitter.Node {
	expr := stmt
	if stmt.Kind() == "expression_statement" {
		expr = stmt.NamedChild(0)
	}
	expr = jsast.Unwrap(expr)
	if expr == nil || expr.Kind() != "call_expression" {
		return nil
	}
	return expr
}

// callbackBody returns the body of the last function argument of a call.
func callbackBody(call *tree_sitter.Node) *tree_sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var body *tree_sitter.Node
	for i := uint(0); i < args.NamedChildCount(); i++ {
		child := args.NamedChild(i)
		if child != nil && isFunction(child) {
			body = child.ChildByFieldName("body")
		}
	}
	return body
}

func isFunction(node *tree_sitter.Node) bool {
	switch node.Kind() {
	case "arrow_function", "function_expression", "function":
		return true
	}
	return false
}

// forEachStatement visits the statements of a block, or the single
// expression of an expression-bodied arrow function.
func forEachStatement(body *tree_sitter.Node, fn func(stmt *tree_sitter.Node)) {
	if body.Kind() != "statement_block" {
		fn(body)
		return
	}
	jsast.IterateNamedChildren(body, fn)
}

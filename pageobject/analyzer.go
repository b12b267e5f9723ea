// Package pageobject analyzes Cypress page-object classes and converts them to
// Playwright page objects
package pageobject

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// ExportKind is how a page-object module exposes its class.
type ExportKind string

const (
	ExportNone             ExportKind = "none"
	ExportNamed            ExportKind = "named"
	ExportDefaultClass     ExportKind = "default-class"
	ExportDefaultInstance  ExportKind = "default-instance"
	ExportCommonJSClass    ExportKind = "commonjs-class"
	ExportCommonJSInstance ExportKind = "commonjs-instance"
)

// Method describes one class method.
type Method struct {
	Name   string
	Params []string
	// Body is the method block including braces; Statements holds its
	// top-level statements as written.
	Body           string
	Statements     []string
	Classification Classification
	Async          bool
	Getter         bool
	Setter         bool
	Static         bool
	Generator      bool
	Line           int
}

// ElementLocator is one `key: () => cy.get(...)` entry of an element map
// property.
type ElementLocator struct {
	Key    string
	Source string
}

// Property is a class field.
type Property struct {
	Name     string
	Source   string
	Static   bool
	Locators []ElementLocator
	Line     int
}

// Result describes a page-object module.
type Result struct {
	Path         string
	Dialect      jsast.Dialect
	Namespace    string
	IsPageObject bool
	ClassName    string
	Heritage     string
	Constructor  *Method
	Methods      []Method
	Properties   []Property
	ExportKind   ExportKind
	// ExportStatement is the separate statement exporting the class, empty
	// when the export is part of the class declaration.
	ExportStatement string
	// Before and After hold the other top-level statements around the class.
	Before []string
	After  []string
}

// Options configures the analyzer.
type Options struct {
	Namespace string
}

// DefaultOptions returns the analyzer options for stock Cypress code.
func DefaultOptions() Options {
	return Options{Namespace: cypress.DefaultNamespace}
}

type analyzer struct {
	source    []byte
	namespace string
	result    Result
	class     *tree_sitter.Node
}

// Analyze reads a page-object module. A file without a class is not a page
// object; unparsable text yields a *diagnostics.SyntaxError.
func Analyze(source []byte, filePath string, opts Options) (Result, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = cypress.DefaultNamespace
	}
	dialect := jsast.DialectFor(filePath)
	tree := jsast.Parse(source, dialect)
	defer tree.Close()
	if err := jsast.CheckSyntax(tree, source, filePath); err != nil {
		return Result{}, err
	}
	a := &analyzer{
		source:    source,
		namespace: namespace,
		result:    Result{Path: filePath, Dialect: dialect, Namespace: namespace, ExportKind: ExportNone},
	}
	root := tree.RootNode()
	a.findClass(root)
	if a.class == nil {
		return a.result, nil
	}
	a.readClass()
	a.readModule(root)
	a.result.IsPageObject = a.usesNamespace()
	siblings := a.result.methodNames()
	for i := range a.result.Methods {
		a.result.Methods[i].Classification = Classify(a.result.Methods[i], siblings, namespace)
	}
	return a.result, nil
}

// findClass picks the first class that uses the command namespace, or the
// first class when none does.
func (a *analyzer) findClass(root *tree_sitter.Node) {
	var first *tree_sitter.Node
	jsast.IterateNamedChildren(root, func(node *tree_sitter.Node) {
		class := classOf(node)
		if class == nil {
			return
		}
		if first == nil {
			first = class
		}
		if a.class == nil && a.namespaceUse().MatchString(class.Utf8Text(a.source)) {
			a.class = class
		}
	})
	if a.class == nil {
		a.class = first
	}
}

func classOf(node *tree_sitter.Node) *tree_sitter.Node {
	switch node.Kind() {
	case "class_declaration", "abstract_class_declaration", "class":
		return node
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil && isClass(decl) {
			return decl
		}
		if value := node.ChildByFieldName("value"); value != nil && value.Kind() == "class" {
			return value
		}
		var class *tree_sitter.Node
		jsast.IterateNamedChildren(node, func(child *tree_sitter.Node) {
			if class == nil && isClass(child) {
				class = child
			}
		})
		return class
	}
	return nil
}

func isClass(node *tree_sitter.Node) bool {
	switch node.Kind() {
	case "class_declaration", "abstract_class_declaration", "class":
		return true
	}
	return false
}

func (a *analyzer) readClass() {
	class := a.class
	if name := class.ChildByFieldName("name"); name != nil {
		a.result.ClassName = name.Utf8Text(a.source)
	}
	jsast.IterateNamedChildren(class, func(child *tree_sitter.Node) {
		if child.Kind() == "class_heritage" {
			a.result.Heritage = child.Utf8Text(a.source)
		}
	})
	body := class.ChildByFieldName("body")
	if body == nil {
		return
	}
	jsast.IterateNamedChildren(body, func(member *tree_sitter.Node) {
		switch member.Kind() {
		case "method_definition":
			m := a.readMethod(member)
			if m.Name == "constructor" {
				a.result.Constructor = &m
				return
			}
			a.result.Methods = append(a.result.Methods, m)
		case "field_definition", "public_field_definition":
			a.result.Properties = append(a.result.Properties, a.readProperty(member))
		}
	})
}

func (a *analyzer) readMethod(node *tree_sitter.Node) Method {
	m := Method{Line: jsast.Line(node)}
	if name := node.ChildByFieldName("name"); name != nil {
		m.Name = name.Utf8Text(a.source)
	}
	jsast.IterateChildren(node, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "async":
			m.Async = true
		case "get":
			m.Getter = true
		case "set":
			m.Setter = true
		case "static":
			m.Static = true
		case "*":
			m.Generator = true
		}
	})
	if params := node.ChildByFieldName("parameters"); params != nil {
		jsast.IterateNamedChildren(params, func(param *tree_sitter.Node) {
			if !jsast.IsComment(param) {
				m.Params = append(m.Params, param.Utf8Text(a.source))
			}
		})
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = body.Utf8Text(a.source)
		jsast.IterateNamedChildren(body, func(stmt *tree_sitter.Node) {
			m.Statements = append(m.Statements, stmt.Utf8Text(a.source))
		})
	}
	return m
}

func (a *analyzer) readProperty(node *tree_sitter.Node) Property {
	p := Property{Source: node.Utf8Text(a.source), Line: jsast.Line(node)}
	name := node.ChildByFieldName("property")
	if name == nil {
		name = node.ChildByFieldName("name")
	}
	if name != nil {
		p.Name = name.Utf8Text(a.source)
	}
	jsast.IterateChildren(node, func(child *tree_sitter.Node) {
		if child.Kind() == "static" {
			p.Static = true
		}
	})
	value := node.ChildByFieldName("value")
	if value != nil && value.Kind() == "object" {
		jsast.IterateNamedChildren(value, func(pair *tree_sitter.Node) {
			if pair.Kind() != "pair" {
				return
			}
			key := pair.ChildByFieldName("key")
			fn := pair.ChildByFieldName("value")
			if key == nil || fn == nil || fn.Kind() != "arrow_function" {
				return
			}
			body := fn.ChildByFieldName("body")
			if body == nil || body.Kind() == "statement_block" {
				return
			}
			text := body.Utf8Text(a.source)
			if !strings.HasPrefix(text, a.namespace+".") {
				return
			}
			p.Locators = append(p.Locators, ElementLocator{Key: key.Utf8Text(a.source), Source: text})
		})
	}
	return p
}

// readModule records the export form and the statements around the class.
func (a *analyzer) readModule(root *tree_sitter.Node) {
	name := a.result.ClassName
	seenClass := false
	jsast.IterateNamedChildren(root, func(node *tree_sitter.Node) {
		text := node.Utf8Text(a.source)
		class := classOf(node)
		switch {
		case node.Kind() == "import_statement" || jsast.IsRequireDeclaration(node, a.source):
			return
		case class != nil && class.Id() == a.class.Id():
			seenClass = true
			if node.Kind() == "export_statement" {
				if strings.HasPrefix(text, "export default") {
					a.result.ExportKind = ExportDefaultClass
				} else {
					a.result.ExportKind = ExportNamed
				}
			}
			return
		}
		if kind, ok := exportOf(node, text, name, a.source); ok {
			a.result.ExportKind = kind
			a.result.ExportStatement = text
			return
		}
		if jsast.IsComment(node) && strings.HasPrefix(strings.TrimSpace(text), "///") {
			return
		}
		if seenClass {
			a.result.After = append(a.result.After, text)
		} else {
			a.result.Before = append(a.result.Before, text)
		}
	})
}

var (
	moduleExports = regexp.MustCompile(`^module\.exports\s*=\s*(new\s+)?([\w$]+)\s*(\(\s*\))?\s*;?$`)
	exportDefault = regexp.MustCompile(`^export\s+default\s+(new\s+)?([\w$]+)\s*(\(\s*\))?\s*;?$`)
	exportNamed   = regexp.MustCompile(`^export\s*\{\s*([\w$]+)\s*\}\s*;?$`)
)

func exportOf(node *tree_sitter.Node, text, className string, source []byte) (ExportKind, bool) {
	if className == "" {
		return "", false
	}
	text = strings.TrimSpace(text)
	if m := exportDefault.FindStringSubmatch(text); m != nil && m[2] == className {
		if m[1] != "" {
			return ExportDefaultInstance, true
		}
		return ExportDefaultClass, true
	}
	if m := exportNamed.FindStringSubmatch(text); m != nil && m[1] == className {
		return ExportNamed, true
	}
	if node.Kind() == "expression_statement" {
		if m := moduleExports.FindStringSubmatch(text); m != nil && m[2] == className {
			if m[1] != "" {
				return ExportCommonJSInstance, true
			}
			return ExportCommonJSClass, true
		}
	}
	return "", false
}

func (a *analyzer) namespaceUse() *regexp.Regexp {
	return namespacePattern(a.namespace)
}

func namespacePattern(namespace string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^\w.$])` + regexp.QuoteMeta(namespace) + `\.`)
}

// usesNamespace reports whether any member of the class drives the browser.
func (a *analyzer) usesNamespace() bool {
	re := a.namespaceUse()
	for _, m := range a.result.Methods {
		if re.MatchString(m.Body) {
			return true
		}
	}
	for _, p := range a.result.Properties {
		if re.MatchString(p.Source) {
			return true
		}
	}
	return a.result.Constructor != nil && re.MatchString(a.result.Constructor.Body)
}

func (r Result) methodNames() []string {
	names := make([]string, 0, len(r.Methods))
	for _, m := range r.Methods {
		if !m.Getter && !m.Setter {
			names = append(names, m.Name)
		}
	}
	return names
}

// Method returns the method with the given name.
func (r Result) Method(name string) (Method, bool) {
	for _, m := range r.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

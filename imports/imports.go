// Package imports analyzes, deduplicates and reorders the import statements of
// a converted file
package imports

import (
	"regexp"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// Category orders imports into blocks.
type Category string

const (
	CategoryBuiltin         Category = "builtin"
	CategoryExternal        Category = "external"
	CategoryRelative        Category = "relative"
	CategorySourceFramework Category = "source-framework"
	CategoryTargetFramework Category = "target-framework"
)

// Kind is the statement form an import was written in.
type Kind int

const (
	KindImport Kind = iota
	KindRequire
	KindReference
)

// TargetModule is the module converted files import from.
const TargetModule = "@playwright/test"

// Record is one import statement.
type Record struct {
	Source    string
	Default   string
	Namespace string
	// Named holds each binding as written, e.g. `a` or `a as b`.
	Named    []string
	Category Category
	Kind     Kind
	TypeOnly bool
	Raw      string
	// Parsed is false for statements that could not be read; they pass through
	// as Raw.
	Parsed        bool
	Line          int
	RemovalReason string
}

// Group is a set of records importing the same module. Mixed is set when the
// records use more than one statement form, such as import and require; only
// records of the same form are merged.
type Group struct {
	Source  string
	Records []Record
	Mixed   bool
}

// Analysis is the result of reading every import of a file.
type Analysis struct {
	Path string
	// Imports lists records in source order as written.
	Imports         []Record
	DuplicateGroups []Group
	// SourceFrameworkOnly lists records flagged for removal.
	SourceFrameworkOnly []Record
	// Legitimate lists the records to keep, merged and normalized, in
	// first-occurrence order.
	Legitimate []Record
	Warnings   []diagnostics.Warning
}

// Options controls path normalization.
type Options struct {
	// MaxParentDepth is the number of leading `../` segments a relative path
	// may have before it is recomputed. Zero disables normalization.
	MaxParentDepth int
	// AllowList holds path prefixes or glob patterns that are never rewritten.
	AllowList []string
	// RootAlias replaces deep relative paths when set together with RootDir,
	// e.g. `@` turns `../../../../lib/x` into `@/lib/x`.
	RootAlias string
	RootDir   string
	// Relocate maps a resolved source-tree path to its converted location.
	// Relative imports are then recomputed from TargetPath.
	Relocate   func(string) string
	TargetPath string
}

// DefaultOptions returns the default normalization settings.
func DefaultOptions() Options {
	return Options{MaxParentDepth: 3}
}

var referenceDirective = regexp.MustCompile(`^///\s*<reference\s+(types|path)\s*=\s*["']([^"']+)["']\s*/>`)

// Analyze reads the import statements of a file. It never fails: statements
// it cannot read are kept verbatim.
func Analyze(source []byte, filePath string, opts Options) Analysis {
	a := Analysis{Path: filePath}
	tree := jsast.Parse(source, jsast.DialectFor(filePath))
	defer tree.Close()

	jsast.IterateNamedChildren(tree.RootNode(), func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "import_statement":
			a.Imports = append(a.Imports, readImport(node, source))
		case "lexical_declaration", "variable_declaration":
			if jsast.IsRequireDeclaration(node, source) {
				a.Imports = append(a.Imports, readRequires(node, source)...)
			}
		case "comment":
			if r, ok := readReference(node, source); ok {
				a.Imports = append(a.Imports, r)
			}
		case "ERROR":
			text := node.Utf8Text(source)
			if strings.HasPrefix(strings.TrimSpace(text), "import ") {
				a.Imports = append(a.Imports, Record{Raw: strings.TrimSpace(text), Line: jsast.Line(node)})
			}
		}
	})

	for i := range a.Imports {
		r := &a.Imports[i]
		if !r.Parsed {
			a.Warnings = append(a.Warnings, diagnostics.Warning{
				Kind:    diagnostics.KindImportParseFailure,
				Line:    r.Line,
				Message: "import kept unmodified: " + firstLine(r.Raw),
			})
			continue
		}
		r.Category = categorize(*r)
		r.RemovalReason = removalReason(*r)
	}
	a.group(opts)
	return a
}

func readImport(node *tree_sitter.Node, source []byte) Record {
	r := Record{Kind: KindImport, Raw: node.Utf8Text(source), Line: jsast.Line(node)}
	if node.HasError() {
		return r
	}
	value, ok := jsast.StringValue(node.ChildByFieldName("source"), source)
	if !ok {
		return r
	}
	r.Source = value
	parsed := true
	jsast.IterateChildren(node, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "type":
			r.TypeOnly = true
		case "import_clause":
			readClause(child, source, &r)
		case "import_require_clause":
			parsed = false
		}
	})
	r.Parsed = parsed
	return r
}

func readClause(clause *tree_sitter.Node, source []byte, r *Record) {
	jsast.IterateNamedChildren(clause, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "identifier":
			r.Default = child.Utf8Text(source)
		case "namespace_import":
			jsast.IterateNamedChildren(child, func(id *tree_sitter.Node) {
				if id.Kind() == "identifier" {
					r.Namespace = id.Utf8Text(source)
				}
			})
		case "named_imports":
			jsast.IterateNamedChildren(child, func(spec *tree_sitter.Node) {
				if spec.Kind() == "import_specifier" {
					r.Named = append(r.Named, normalizeSpace(spec.Utf8Text(source)))
				}
			})
		}
	})
}

func readRequires(decl *tree_sitter.Node, source []byte) []Record {
	var records []Record
	raw := decl.Utf8Text(source)
	jsast.IterateNamedChildren(decl, func(declarator *tree_sitter.Node) {
		if declarator.Kind() != "variable_declarator" {
			return
		}
		module, _ := jsast.RequireSource(jsast.Unwrap(declarator.ChildByFieldName("value")), source)
		r := Record{Kind: KindRequire, Source: module, Raw: raw, Line: jsast.Line(declarator), Parsed: true}
		name := declarator.ChildByFieldName("name")
		switch name.Kind() {
		case "identifier":
			r.Default = name.Utf8Text(source)
		case "object_pattern":
			jsast.IterateNamedChildren(name, func(prop *tree_sitter.Node) {
				if jsast.IsComment(prop) {
					return
				}
				r.Named = append(r.Named, normalizeSpace(prop.Utf8Text(source)))
			})
		default:
			r.Parsed = false
		}
		records = append(records, r)
	})
	return records
}

func readReference(node *tree_sitter.Node, source []byte) (Record, bool) {
	text := strings.TrimSpace(node.Utf8Text(source))
	m := referenceDirective.FindStringSubmatch(text)
	if m == nil {
		return Record{}, false
	}
	r := Record{Kind: KindReference, Source: m[2], Raw: text, Line: jsast.Line(node), Parsed: true}
	if m[1] == "path" {
		r.Source = "path:" + m[2]
	}
	return r, true
}

// group merges records by module and splits off the ones to remove.
func (a *Analysis) group(opts Options) {
	type key struct {
		source   string
		kind     Kind
		typeOnly bool
	}
	var order []key
	groups := map[key][]Record{}
	for _, r := range a.Imports {
		if !r.Parsed {
			a.Legitimate = append(a.Legitimate, r)
			continue
		}
		if r.RemovalReason != "" {
			a.SourceFrameworkOnly = append(a.SourceFrameworkOnly, r)
			continue
		}
		if r.Kind != KindReference {
			r.Source = normalizePath(r.Source, a.Path, opts)
			r.Category = categorize(r)
		}
		k := key{r.Source, r.Kind, r.TypeOnly}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	forms := map[string][]key{}
	var sources []string
	for _, k := range order {
		a.Legitimate = append(a.Legitimate, merge(groups[k]))
		if _, ok := forms[k.source]; !ok {
			sources = append(sources, k.source)
		}
		forms[k.source] = append(forms[k.source], k)
	}
	for _, source := range sources {
		var records []Record
		for _, k := range forms[source] {
			records = append(records, groups[k]...)
		}
		if len(records) < 2 {
			continue
		}
		sort.SliceStable(records, func(i, j int) bool { return records[i].Line < records[j].Line })
		a.DuplicateGroups = append(a.DuplicateGroups, Group{Source: source, Records: records, Mixed: len(forms[source]) > 1})
	}
}

// merge unions the bindings of records importing one module. Names of the
// first record keep their order; names only later records bring in follow in
// alphabetical order. The first default and namespace bindings win.
func merge(records []Record) Record {
	merged := records[0]
	merged.Named = nil
	seen := map[string]bool{}
	for _, n := range records[0].Named {
		if !seen[n] {
			seen[n] = true
			merged.Named = append(merged.Named, n)
		}
	}
	var added []string
	for _, r := range records[1:] {
		if merged.Default == "" {
			merged.Default = r.Default
		}
		if merged.Namespace == "" {
			merged.Namespace = r.Namespace
		}
		for _, n := range r.Named {
			if !seen[n] {
				seen[n] = true
				added = append(added, n)
			}
		}
	}
	sort.Strings(added)
	merged.Named = append(merged.Named, added...)
	if len(records) > 1 {
		merged.Raw = ""
	}
	return merged
}

// Add imports names from module, merging them into an existing import of the
// module when there is one. New imports use require() when the file only
// uses CommonJS.
func (a *Analysis) Add(module string, names ...string) {
	for i := range a.Legitimate {
		r := &a.Legitimate[i]
		if !r.Parsed || r.Source != module || r.TypeOnly || r.Kind == KindReference {
			continue
		}
		*r = merge([]Record{*r, {Named: names}})
		return
	}
	r := Record{Source: module, Named: append([]string{}, names...), Kind: a.style(), Parsed: true}
	r.Category = categorize(r)
	a.Legitimate = append(a.Legitimate, r)
}

func (a *Analysis) style() Kind {
	requires := false
	for _, r := range a.Imports {
		switch r.Kind {
		case KindImport:
			return KindImport
		case KindRequire:
			requires = true
		}
	}
	if requires {
		return KindRequire
	}
	return KindImport
}

// Removed reports whether a record was flagged for removal.
func (r Record) Removed() bool {
	return r.RemovalReason != ""
}

var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "crypto": true, "events": true,
	"fs": true, "http": true, "https": true, "net": true, "os": true, "path": true,
	"querystring": true, "readline": true, "stream": true, "timers": true, "url": true,
	"util": true, "zlib": true, "worker_threads": true,
}

func categorize(r Record) Category {
	source := r.Source
	if r.Kind == KindReference {
		if source == "cypress" {
			return CategorySourceFramework
		}
		return CategoryExternal
	}
	switch {
	case isSourceFramework(source):
		return CategorySourceFramework
	case source == TargetModule || strings.HasPrefix(source, "@playwright/") || source == "playwright":
		return CategoryTargetFramework
	case strings.HasPrefix(source, "node:"):
		return CategoryBuiltin
	case nodeBuiltins[strings.SplitN(source, "/", 2)[0]]:
		return CategoryBuiltin
	case isRelative(source) || strings.HasPrefix(source, "@/") || strings.HasPrefix(source, "~/"):
		return CategoryRelative
	}
	return CategoryExternal
}

func isSourceFramework(source string) bool {
	return source == "cypress" ||
		strings.HasPrefix(source, "cypress-") ||
		strings.HasPrefix(source, "cypress/") ||
		strings.HasPrefix(source, "@cypress/") ||
		source == "@testing-library/cypress" ||
		source == "chai"
}

func removalReason(r Record) string {
	if r.Category != CategorySourceFramework {
		return ""
	}
	switch {
	case r.Kind == KindReference:
		return "Cypress type reference is not needed by Playwright"
	case r.Source == "cypress" || strings.HasPrefix(r.Source, "cypress/"):
		return "Cypress runtime import is not used by Playwright"
	case r.Source == "@testing-library/cypress":
		return "Testing Library queries are built into Playwright locators"
	case r.Source == "chai":
		return "Playwright ships its own expect"
	}
	return "Cypress plugin " + r.Source + " has no Playwright counterpart"
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

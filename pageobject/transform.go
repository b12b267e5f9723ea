package pageobject

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/jsast"
	"github.com/heshanpadmasiri/cy2pw/mapping"
	"github.com/heshanpadmasiri/cy2pw/playwright"
)

// TransformOptions configures the transformer.
type TransformOptions struct {
	// Mapping holds the mapper settings; PageVar is chosen by the transformer.
	Mapping              mapping.Options
	ConstructorInjection bool
	PreserveMocking      bool
}

// DefaultTransformOptions injects the page through the constructor and keeps
// mocking methods as written.
func DefaultTransformOptions() TransformOptions {
	return TransformOptions{
		Mapping:              mapping.DefaultOptions(),
		ConstructorInjection: true,
		PreserveMocking:      true,
	}
}

// MethodOutcome reports the conversion of one method.
type MethodOutcome struct {
	Name           string
	Classification Classification
	Success        bool
	Notes          []string
	Markers        int
	Line           int
}

// Output is a converted page-object module without its imports.
type Output struct {
	Code     string
	Elements []playwright.Element
	Class    *playwright.Class
	Methods  []MethodOutcome
	// Valid is true when no method failed to convert.
	Valid    bool
	Warnings []diagnostics.Warning
	// TargetImports are the names the module needs from the target framework.
	TargetImports []string
}

// conversionPanic aborts the conversion of a single method
type conversionPanic struct {
	message string
}

func fail(format string, args ...any) {
	panic(conversionPanic{message: fmt.Sprintf(format, args...)})
}

// alias lets commands rooted at a page-object member (a locator getter or an
// element map entry) convert like the chain the member stands for.
type alias struct {
	member  string
	pattern *regexp.Regexp
	chain   string
	locator string
}

type transformer struct {
	result        Result
	opts          TransformOptions
	mapper        *mapping.Mapper
	staticMapper  *mapping.Mapper
	selfCalls     *mapping.RuleTable
	debugCalls    *mapping.RuleTable
	aliases       []alias
	getterLocator map[string]string
	warnings      []diagnostics.Warning
}

// Transform converts an analyzed page object. A method that fails to convert
// keeps its original body behind a marker; the class is always produced.
func Transform(r Result, opts TransformOptions) Output {
	t := newTransformer(r, opts)
	class := &playwright.Class{Name: r.ClassName, Heritage: r.Heritage}
	var outcomes []MethodOutcome

	class.Fields = t.fields()
	if ctor, outcome, ok := t.constructor(); ok {
		class.Constructor = ctor
		if outcome != nil {
			outcomes = append(outcomes, *outcome)
		}
	}
	for _, m := range r.Methods {
		converted, outcome := t.convertMethod(m)
		class.Methods = append(class.Methods, converted)
		outcomes = append(outcomes, outcome)
	}

	out := Output{Class: class, Methods: outcomes, Valid: true}
	for _, o := range outcomes {
		if !o.Success {
			out.Valid = false
		}
	}
	out.Elements = t.module(class)
	out.Code = (&playwright.File{Body: out.Elements}).ToSource()
	out.Warnings = t.warnings
	out.TargetImports = t.targetImports(out.Code)
	return out
}

func newTransformer(r Result, opts TransformOptions) *transformer {
	mapOpts := opts.Mapping
	mapOpts.Namespace = r.Namespace
	staticOpts := mapOpts
	staticOpts.PageVar = playwright.PageVar
	if opts.ConstructorInjection {
		mapOpts.PageVar = "this." + playwright.PageVar
	} else {
		mapOpts.PageVar = playwright.PageVar
	}
	t := &transformer{
		result:        r,
		opts:          opts,
		mapper:        mapping.NewMapper(mapOpts),
		staticMapper:  mapping.NewMapper(staticOpts),
		getterLocator: map[string]string{},
	}
	t.selfCalls = selfCallRules(r.methodNames(), opts.ConstructorInjection)
	t.debugCalls = debugRules(r.Namespace)
	t.collectAliases()
	return t
}

// selfCallRules await every call of a sibling method. Without constructor
// injection the page is passed along as the first argument.
func selfCallRules(siblings []string, injection bool) *mapping.RuleTable {
	if len(siblings) == 0 {
		return mapping.NewRuleTable()
	}
	names := make([]string, len(siblings))
	for i, s := range siblings {
		names[i] = regexp.QuoteMeta(s)
	}
	alternation := strings.Join(names, "|")
	rules := []mapping.Rule{{
		Name:        "await-self-call",
		Pattern:     regexp.MustCompile(`(^|[^\w.$])(?:await\s+)?this\.(` + alternation + `)\(`),
		Replacement: "${1}await this.${2}(",
		Priority:    10,
	}}
	if !injection {
		passPage := regexp.MustCompile(`\bthis\.(` + alternation + `)\((\s*\)|\s*page\b)?`)
		rules = append(rules, mapping.Rule{
			Name:    "pass-page",
			Pattern: passPage,
			Rewrite: func(match string) string {
				m := passPage.FindStringSubmatch(match)
				switch rest := strings.TrimSpace(m[2]); rest {
				case "page":
					return match
				case ")":
					return "this." + m[1] + "(page)"
				}
				return "this." + m[1] + "(page, "
			},
			Priority: 20,
		})
	}
	return mapping.NewRuleTable(rules...)
}

// debugRules comment out statements that only debug the Cypress runner.
func debugRules(namespace string) *mapping.RuleTable {
	ns := regexp.QuoteMeta(namespace)
	return mapping.NewRuleTable(mapping.Rule{
		Name:    "comment-debug",
		Pattern: regexp.MustCompile(`(?s)^\s*(?:` + ns + `\.(?:log|debug|pause)\b|console\.debug\b|debugger\b).*$`),
		Rewrite: commentOut,
	})
}

func commentOut(text string) string {
	lines := strings.Split(playwright.Dedent(strings.TrimSpace(text)), "\n")
	for i, l := range lines {
		lines[i] = "// " + l
	}
	return strings.Join(lines, "\n")
}

// collectAliases finds locator getters and element map entries.
func (t *transformer) collectAliases() {
	ns := cypress.Options{Namespace: t.result.Namespace}
	for _, m := range t.result.Methods {
		if !m.Getter || len(m.Statements) != 1 {
			continue
		}
		invs, err := cypress.ParseBody(m.Body, t.result.Dialect, ns)
		if err != nil || len(invs) != 1 || !invs[0].Returned {
			continue
		}
		locator, ok := t.mapper.Locator(invs[0])
		if !ok {
			continue
		}
		t.getterLocator[m.Name] = locator
		member := "this." + m.Name
		t.aliases = append(t.aliases, alias{
			member:  member,
			pattern: regexp.MustCompile(`\bthis\.` + regexp.QuoteMeta(m.Name) + `\s*\.`),
			chain:   invs[0].Source(t.result.Namespace),
			locator: locator,
		})
	}
	for _, p := range t.result.Properties {
		for _, l := range p.Locators {
			invs, err := cypress.ParseBody("{ return "+l.Source+" }", t.result.Dialect, ns)
			if err != nil || len(invs) != 1 {
				continue
			}
			locator, ok := t.mapper.Locator(invs[0])
			if !ok {
				continue
			}
			member := "this." + p.Name + "." + l.Key + "()"
			t.aliases = append(t.aliases, alias{
				member:  member,
				pattern: regexp.MustCompile(`\bthis\.` + regexp.QuoteMeta(p.Name) + `\.` + regexp.QuoteMeta(l.Key) + `\(\)\s*\.`),
				chain:   l.Source,
				locator: locator,
			})
		}
	}
}

// substitute roots member chains at the command namespace.
func (t *transformer) substitute(body string) string {
	for _, a := range t.aliases {
		body = a.pattern.ReplaceAllLiteralString(body, a.chain+".")
	}
	return body
}

// restore puts member references back into converted statements.
func (t *transformer) restore(statement string) string {
	if !t.opts.ConstructorInjection {
		return statement
	}
	for _, a := range t.aliases {
		statement = strings.ReplaceAll(statement, a.locator+".", a.member+".")
		statement = strings.ReplaceAll(statement, "expect("+a.locator+")", "expect("+a.member+")")
	}
	return statement
}

// commands converts a method body through the mapper.
func (t *transformer) commands(m Method) mapping.Result {
	invs, err := cypress.ParseBody(t.substitute(m.Body), t.result.Dialect, cypress.Options{Namespace: t.result.Namespace})
	if err != nil {
		fail("%s: %v", m.Name, err)
	}
	mapper := t.mapper
	if m.Static {
		mapper = t.staticMapper
	}
	res := mapper.MapAll(invs)
	for i, s := range res.Statements {
		res.Statements[i] = t.selfCalls.Apply(t.restore(s))
	}
	return res
}

type strategy func(t *transformer, m Method) (body []string, notes []string, markers []string)

var strategies = map[Classification]strategy{
	ClassVisit:     convertCommands,
	ClassInput:     convertCommands,
	ClassClick:     convertCommands,
	ClassComposite: convertComposite,
	ClassMocking:   convertMocking,
	ClassGeneric:   convertCommands,
}

func convertCommands(t *transformer, m Method) ([]string, []string, []string) {
	res := t.commands(m)
	return res.Statements, markerNotes(res), res.Markers
}

func convertComposite(t *transformer, m Method) ([]string, []string, []string) {
	res := t.commands(m)
	notes := markerNotes(res)
	if re := selfCall(t.result.methodNames(), m.Name); re != nil {
		var called []string
		seen := map[string]bool{}
		for _, match := range re.FindAllStringSubmatch(m.Body, -1) {
			if !seen[match[1]] {
				seen[match[1]] = true
				called = append(called, match[1])
			}
		}
		notes = append(notes, "awaits "+strings.Join(called, ", "))
	}
	return res.Statements, notes, res.Markers
}

func convertMocking(t *transformer, m Method) ([]string, []string, []string) {
	if !t.opts.PreserveMocking {
		return convertCommands(t, m)
	}
	body := make([]string, len(m.Statements))
	for i, s := range m.Statements {
		body[i] = t.debugCalls.Apply(s)
	}
	return body, []string{"mocking preserved as written"}, nil
}

func markerNotes(res mapping.Result) []string {
	if len(res.Markers) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%d statement(s) need manual conversion", len(res.Markers))}
}

var awaitUse = regexp.MustCompile(`\bawait\b`)

func (t *transformer) convertMethod(m Method) (converted playwright.ClassMethod, outcome MethodOutcome) {
	outcome = MethodOutcome{Name: m.Name, Classification: m.Classification, Success: true, Line: m.Line}
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			if p, ok := r.(conversionPanic); ok {
				msg = p.message
			}
			converted = t.failedMethod(m, msg)
			outcome.Success = false
			outcome.Notes = append(outcome.Notes, msg)
			outcome.Markers = 1
			t.warnings = append(t.warnings, diagnostics.Warning{
				Kind:    diagnostics.KindMethodConversionFailure,
				Line:    m.Line,
				Message: fmt.Sprintf("method %s: %s", m.Name, msg),
			})
		}
	}()

	if m.Generator {
		fail("generator method %s cannot be converted", m.Name)
	}
	converted = playwright.ClassMethod{
		Name:   m.Name,
		Params: t.params(m),
		Async:  m.Async,
		Static: m.Static,
		Getter: m.Getter,
	}
	if m.Setter {
		if namespacePattern(t.result.Namespace).MatchString(m.Body) {
			fail("setter %s drives the browser and cannot be awaited", m.Name)
		}
		converted.Body = m.Statements
		return converted, outcome
	}
	if locator, ok := t.getterLocator[m.Name]; ok {
		converted.Body = []string{"return " + locator + ";"}
		if !t.opts.ConstructorInjection {
			converted.Getter = false
		}
		return converted, outcome
	}

	body, notes, markers := strategies[m.Classification](t, m)
	converted.Body = body
	outcome.Notes = append(outcome.Notes, notes...)
	outcome.Markers = len(markers)
	for _, marker := range markers {
		t.warnings = append(t.warnings, diagnostics.Warning{
			Kind:    diagnostics.KindUnmappedConstruct,
			Line:    m.Line,
			Message: fmt.Sprintf("method %s: %s", m.Name, strings.TrimSpace(strings.TrimPrefix(marker, diagnostics.MarkerPrefix))),
		})
	}
	for _, s := range body {
		if awaitUse.MatchString(s) {
			converted.Async = true
		}
	}
	if m.Name == "constructor" && converted.Async {
		fail("constructor drives the browser and cannot await")
	}
	if converted.Getter && converted.Async {
		converted.Getter = false
		outcome.Notes = append(outcome.Notes, "getter converted to an async method")
	}
	return converted, outcome
}

// params adds the page parameter when the page is not injected. Getters keep
// their empty parameter list unless they become methods.
func (t *transformer) params(m Method) []string {
	params := append([]string{}, m.Params...)
	if t.opts.ConstructorInjection && !m.Static {
		return params
	}
	if m.Getter && t.getterLocator[m.Name] == "" && !m.Static {
		return params
	}
	return append([]string{t.pageParam()}, params...)
}

func (t *transformer) pageParam() string {
	if t.result.Dialect != jsast.JavaScript {
		return "page: Page"
	}
	return "page"
}

func (t *transformer) failedMethod(m Method, msg string) playwright.ClassMethod {
	body := []string{diagnostics.Marker("could not convert %s: %s", m.Name, msg)}
	for _, s := range m.Statements {
		body = append(body, commentOut(s))
	}
	return playwright.ClassMethod{
		Name:   m.Name,
		Params: m.Params,
		Async:  m.Async,
		Static: m.Static,
		Getter: m.Getter,
		Body:   body,
	}
}

// constructor builds the class constructor. ok is false when the class needs
// none.
func (t *transformer) constructor() (*playwright.Constructor, *MethodOutcome, bool) {
	existing := t.result.Constructor
	if !t.opts.ConstructorInjection {
		if existing == nil {
			return nil, nil, false
		}
		m := *existing
		m.Classification = ClassGeneric
		converted, outcome := t.convertMethod(m)
		return &playwright.Constructor{Params: existing.Params, Body: converted.Body}, &outcome, true
	}
	ctor := &playwright.Constructor{Params: []string{t.pageParam()}}
	var rest []string
	var outcome *MethodOutcome
	if existing != nil {
		ctor.Params = append(ctor.Params, existing.Params...)
		m := *existing
		m.Classification = ClassGeneric
		converted, o := t.convertMethod(m)
		outcome = &o
		rest = converted.Body
	}
	// super() must run before this is touched
	if len(rest) > 0 && strings.HasPrefix(strings.TrimSpace(rest[0]), "super(") {
		ctor.Body = append(ctor.Body, rest[0])
		rest = rest[1:]
	}
	ctor.Body = append(ctor.Body, "this."+playwright.PageVar+" = "+playwright.PageVar+";")
	ctor.Body = append(ctor.Body, rest...)
	return ctor, outcome, true
}

// fields renders class fields. Element maps are rewritten to Playwright
// locators.
func (t *transformer) fields() []string {
	var fields []string
	if t.opts.ConstructorInjection && t.result.Dialect != jsast.JavaScript && !t.hasProperty(playwright.PageVar) {
		fields = append(fields, "readonly page: Page;")
	}
	for _, p := range t.result.Properties {
		source := mapping.RewriteText(p.Source)
		if len(p.Locators) > 0 {
			if !t.opts.ConstructorInjection {
				fields = append(fields, diagnostics.Marker("element map %s needs the page; enable constructor injection", p.Name))
				t.warnings = append(t.warnings, diagnostics.Warning{
					Kind:    diagnostics.KindUnmappedConstruct,
					Line:    p.Line,
					Message: "element map " + p.Name + " needs the page",
				})
			} else {
				for _, a := range t.aliases {
					if strings.HasPrefix(a.member, "this."+p.Name+".") {
						source = strings.Replace(source, a.chain, a.locator, 1)
					}
				}
			}
		}
		fields = append(fields, strings.TrimSuffix(source, ";")+";")
	}
	return fields
}

func (t *transformer) hasProperty(name string) bool {
	for _, p := range t.result.Properties {
		if p.Name == name {
			return true
		}
	}
	return false
}

// module lays out the converted module: leading statements, the class,
// trailing statements and the export.
func (t *transformer) module(class *playwright.Class) []playwright.Element {
	var elements []playwright.Element
	for _, s := range t.result.Before {
		elements = append(elements, &playwright.Code{Source: mapping.RewriteText(s)})
	}
	elements = append(elements, class)
	for _, s := range t.result.After {
		elements = append(elements, &playwright.Code{Source: mapping.RewriteText(s)})
	}

	name := t.result.ClassName
	switch t.result.ExportKind {
	case ExportNamed:
		if t.result.ExportStatement == "" {
			class.Export = "export "
		}
	case ExportDefaultClass:
		if t.result.ExportStatement == "" {
			class.Export = "export default "
		}
	case ExportDefaultInstance, ExportCommonJSInstance:
		if t.opts.ConstructorInjection {
			export := "export default " + name + ";"
			if t.result.ExportKind == ExportCommonJSInstance {
				export = "module.exports = " + name + ";"
			}
			marker := diagnostics.Marker("the module exported an instance; callers must create it with new %s(page)", name)
			t.warnings = append(t.warnings, diagnostics.Warning{
				Kind:    diagnostics.KindUnmappedConstruct,
				Message: "instance export of " + name + " replaced by a class export",
			})
			elements = append(elements, &playwright.Code{Source: marker}, &playwright.Code{Source: export})
			return elements
		}
	}
	if t.result.ExportStatement != "" {
		elements = append(elements, &playwright.Code{Source: t.result.ExportStatement})
	}
	return elements
}

func (t *transformer) targetImports(code string) []string {
	var names []string
	if strings.Contains(code, "expect(") {
		names = append(names, "expect")
	}
	if t.result.Dialect != jsast.JavaScript && strings.Contains(code, ": Page") {
		names = append(names, "Page")
	}
	return names
}

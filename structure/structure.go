// Package structure converts the suite tree of a Cypress spec into Playwright
// test.describe, hook and test blocks
package structure

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/mapping"
	"github.com/heshanpadmasiri/cy2pw/playwright"
)

// Options configures the converter.
type Options struct {
	Mapping mapping.Options
}

// DefaultOptions converts assertions and drives the `page` fixture.
func DefaultOptions() Options {
	return Options{Mapping: mapping.DefaultOptions()}
}

// Output is a converted spec body without its imports.
type Output struct {
	Code     string
	Elements []playwright.Element
	Warnings []diagnostics.Warning
	// Cases is the number of test blocks emitted.
	Cases int
}

var hookMethods = map[cypress.HookKind]string{
	cypress.HookBeforeAll:  "beforeAll",
	cypress.HookBeforeEach: "beforeEach",
	cypress.HookAfterAll:   "afterAll",
	cypress.HookAfterEach:  "afterEach",
}

// suite-scoped hooks run without a page fixture
var suiteScoped = map[cypress.HookKind]bool{
	cypress.HookBeforeAll: true,
	cypress.HookAfterAll:  true,
}

type converter struct {
	mapper   *mapping.Mapper
	pageVar  string
	warnings []diagnostics.Warning
	cases    int
}

// Convert renders suites depth first in source order. Within a suite the
// declarations come first, then hooks, cases and nested suites. Nothing in a
// suite is fatal: constructs without an equivalent become markers, each
// reported by one warning.
func Convert(suites []cypress.Suite, opts Options) Output {
	c := &converter{mapper: mapping.NewMapper(opts.Mapping)}
	c.pageVar = c.mapper.Options().PageVar
	var elements []playwright.Element
	for _, s := range suites {
		if s.IsImplicit() {
			elements = append(elements, c.members(s)...)
			continue
		}
		elements = append(elements, c.describe(s))
	}
	return Output{
		Code:     (&playwright.File{Body: elements}).ToSource(),
		Elements: elements,
		Warnings: c.warnings,
		Cases:    c.cases,
	}
}

func (c *converter) describe(s cypress.Suite) *playwright.Describe {
	return &playwright.Describe{
		Title:    s.Title.Source(),
		Modifier: string(s.Modifier),
		Body:     c.members(s),
	}
}

func (c *converter) members(s cypress.Suite) []playwright.Element {
	var elements []playwright.Element
	for _, statement := range c.convert(s.Declarations) {
		elements = append(elements, &playwright.Code{Source: statement})
	}
	for _, h := range s.Hooks {
		elements = append(elements, c.hook(h)...)
	}
	for _, tc := range s.Cases {
		elements = append(elements, c.test(tc))
	}
	for _, nested := range s.Suites {
		elements = append(elements, c.describe(nested))
	}
	return elements
}

var pageUse = regexp.MustCompile(`\bpage\b`)

func (c *converter) hook(h cypress.Hook) []playwright.Element {
	method, ok := hookMethods[h.Kind]
	if !ok {
		marker := diagnostics.Marker("hook %q has no Playwright equivalent", h.Kind)
		c.warnings = append(c.warnings, diagnostics.Warning{
			Kind:    diagnostics.KindUnmappedConstruct,
			Line:    h.Line,
			Message: fmt.Sprintf("unknown hook kind %q, body kept as a comment", h.Kind),
		})
		elements := []playwright.Element{&playwright.Code{Source: marker}}
		for _, inv := range h.Commands {
			for _, line := range strings.Split(playwright.Dedent(inv.Source(c.mapper.Options().Namespace)), "\n") {
				elements = append(elements, &playwright.Code{Source: "// " + line})
			}
		}
		return elements
	}
	body := c.convert(h.Commands)
	if !suiteScoped[h.Kind] {
		return []playwright.Element{&playwright.Hook{Method: method, Fixtures: c.fixtures(), Body: body}}
	}
	if usesPage(body, c.pageVar) {
		opened := []string{"const " + c.pageVar + " = await browser.newPage();"}
		body = append(append(opened, body...), playwright.Await(c.pageVar+".close()"))
	}
	return []playwright.Element{&playwright.Hook{Method: method, Fixtures: "{ browser }", Body: body}}
}

func usesPage(body []string, pageVar string) bool {
	re := pageUse
	if pageVar != playwright.PageVar {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(pageVar) + `\b`)
	}
	for _, s := range body {
		if !diagnostics.IsMarker(s) && re.MatchString(s) {
			return true
		}
	}
	return false
}

func (c *converter) test(tc cypress.Case) *playwright.Test {
	c.cases++
	return &playwright.Test{
		Title:    tc.Title.Source(),
		Modifier: string(tc.Modifier),
		Fixtures: c.fixtures(),
		Body:     c.convert(tc.Commands),
	}
}

func (c *converter) fixtures() string {
	if c.pageVar == playwright.PageVar {
		return "{ page }"
	}
	return "{ page: " + c.pageVar + " }"
}

// convert maps invocations one at a time so every marker is reported
// against the line it came from.
func (c *converter) convert(invocations []cypress.Invocation) []string {
	var statements []string
	for _, inv := range invocations {
		res := c.mapper.Map(inv)
		statements = append(statements, res.Statements...)
		for _, m := range res.Markers {
			c.warnings = append(c.warnings, diagnostics.Warning{
				Kind:    diagnostics.KindUnmappedConstruct,
				Line:    inv.Line,
				Message: strings.TrimSpace(strings.TrimPrefix(m, diagnostics.MarkerPrefix)),
			})
		}
	}
	return statements
}

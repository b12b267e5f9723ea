package mapping

import (
	"regexp"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// Strategy is a Playwright locator strategy, listed in priority order.
type Strategy int

const (
	StrategyTestID Strategy = iota
	StrategyRole
	StrategyLabel
	StrategyPlaceholder
	StrategyLocator
)

func (s Strategy) String() string {
	switch s {
	case StrategyTestID:
		return "test-id"
	case StrategyRole:
		return "role"
	case StrategyLabel:
		return "label"
	case StrategyPlaceholder:
		return "placeholder"
	default:
		return "locator"
	}
}

// DefaultTestIDAttributes are the attributes treated as test ids.
var DefaultTestIDAttributes = []string{"data-testid", "data-test-id", "data-test", "data-cy"}

// DefaultPlaywrightTestIDAttribute is the attribute getByTestId matches when
// playwright.config leaves use.testIdAttribute unset.
const DefaultPlaywrightTestIDAttribute = "data-testid"

// Descriptor is what a selector says about the element it matches. Simple is
// false when the selector has combinators, pseudo classes or non-exact
// attribute operators; such selectors always fall back to a raw locator.
type Descriptor struct {
	Raw        string
	Tag        string
	Attributes map[string]string
	Simple     bool
}

// Locator is a chosen accessor: the method to call and its source arguments.
type Locator struct {
	Strategy Strategy
	Method   string
	Args     []string
}

var (
	compoundSelector = regexp.MustCompile(`^([a-zA-Z][\w-]*)?((?:\[[^\]]+\])+)$`)
	attributeFilter  = regexp.MustCompile(`\[\s*([\w:-]+)\s*(?:([~|^$*]?=)\s*(?:"([^"]*)"|'([^']*)'|([^\]\s'"]*))\s*)?\]`)
)

// ParseSelector turns a CSS selector into an element descriptor.
func ParseSelector(selector string) Descriptor {
	selector = strings.TrimSpace(selector)
	d := Descriptor{Raw: selector, Attributes: map[string]string{}}
	m := compoundSelector.FindStringSubmatch(selector)
	if m == nil {
		return d
	}
	d.Tag = m[1]
	d.Simple = true
	filters := attributeFilter.FindAllStringSubmatch(m[2], -1)
	consumed := 0
	for _, f := range filters {
		consumed += len(f[0])
		if f[2] != "=" {
			if f[2] != "" {
				d.Simple = false
			}
			continue
		}
		d.Attributes[strings.ToLower(f[1])] = f[3] + f[4] + f[5]
	}
	if consumed != len(m[2]) {
		d.Simple = false
	}
	return d
}

// Choose applies the fixed priority test id > role > label > placeholder >
// raw locator and returns the first strategy that matches. Matches are never
// merged. Only playwrightAttr becomes getByTestId; other test id attributes
// keep an exact attribute locator, since getByTestId would look for a
// different attribute.
func Choose(d Descriptor, testIDAttributes []string, playwrightAttr string) Locator {
	if d.Simple {
		for _, attr := range testIDAttributes {
			v, ok := d.Attributes[attr]
			if !ok || v == "" {
				continue
			}
			if attr == playwrightAttr {
				return Locator{Strategy: StrategyTestID, Method: "getByTestId", Args: []string{jsast.Quote(v)}}
			}
			return Locator{Strategy: StrategyTestID, Method: "locator", Args: []string{jsast.Quote(attributeSelector(attr, v))}}
		}
		if v, ok := d.Attributes["role"]; ok && v != "" {
			return Locator{Strategy: StrategyRole, Method: "getByRole", Args: []string{jsast.Quote(v)}}
		}
		if v, ok := d.Attributes["aria-label"]; ok && v != "" {
			return Locator{Strategy: StrategyLabel, Method: "getByLabel", Args: []string{jsast.Quote(v)}}
		}
		if v, ok := d.Attributes["placeholder"]; ok && v != "" {
			return Locator{Strategy: StrategyPlaceholder, Method: "getByPlaceholder", Args: []string{jsast.Quote(v)}}
		}
	}
	return Locator{Strategy: StrategyLocator, Method: "locator", Args: []string{jsast.Quote(d.Raw)}}
}

func attributeSelector(attr, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return "[" + attr + `="` + value + `"]`
}

// Expr renders the locator as a call on base.
func (l Locator) Expr(base string) string {
	return base + "." + l.Method + "(" + strings.Join(l.Args, ", ") + ")"
}

// locatorFor builds the accessor for a selector argument. Non-literal
// selectors are passed to locator() unchanged.
func (m *Mapper) locatorFor(base string, selector cypress.Arg) string {
	if selector.Kind != cypress.ArgString {
		return base + ".locator(" + selector.Source() + ")"
	}
	return Choose(ParseSelector(selector.Value), m.opts.TestIDAttributes, m.opts.PlaywrightTestIDAttribute).Expr(base)
}

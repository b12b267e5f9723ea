package mapping

import (
	"maps"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/playwright"
)

func (m *Mapper) queryBase() string {
	if m.scope != "" {
		return m.scope
	}
	return m.opts.PageVar
}

// scoped returns a mapper whose element queries start at base.
func (m *Mapper) scoped(base string) *Mapper {
	inner := *m
	inner.scope = base
	return &inner
}

// bind returns a mapper that treats name as a locator, so cy.wrap(name)
// keeps an element subject.
func (m *Mapper) bind(name string) *Mapper {
	inner := *m
	inner.elements = maps.Clone(m.elements)
	if inner.elements == nil {
		inner.elements = map[string]bool{}
	}
	inner.elements[name] = true
	return &inner
}

// compound converts the nested blocks of a statement such as an if or a loop
// in place and keeps the surrounding code as written.
func (m *Mapper) compound(inv cypress.Invocation) Result {
	var r Result
	var code, outside strings.Builder
	for _, part := range inv.Parts {
		if part.Block == nil {
			text := m.rules.Apply(part.Text)
			code.WriteString(text)
			outside.WriteString(text)
			continue
		}
		body := m.MapAll(part.Block.Commands)
		r.Markers = append(r.Markers, body.Markers...)
		code.WriteString(block(body.Statements))
	}
	if m.usesNamespace(outside.String()) {
		return m.verbatim(inv.Verbatim)
	}
	r.add(code.String())
	return r
}

// block renders statements as a braced block one level deeper.
func block(statements []string) string {
	if len(statements) == 0 {
		return "{}"
	}
	sb := strings.Builder{}
	sb.WriteString("{\n")
	for _, s := range statements {
		sb.WriteString(playwright.Indent(s, 1))
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func callbackOf(args []cypress.Arg) *cypress.Callback {
	for i := len(args) - 1; i >= 0; i-- {
		if args[i].Callback != nil {
			return args[i].Callback
		}
	}
	return nil
}

// addBlock appends a braced block opened by header, such as a binding for
// the callback parameter.
func (c *chain) addBlock(prefix, header string, body Result) {
	statements := body.Statements
	if header != "" {
		statements = append([]string{header}, statements...)
	}
	c.result.add(prefix + block(statements))
	c.result.Markers = append(c.result.Markers, body.Markers...)
}

// within maps the callback body with every query scoped to the current
// element. Playwright has no scoping block, so the body is emitted in place.
func (c *chain) within(link cypress.ChainedCall) bool {
	cb := callbackOf(link.Args)
	if c.subject != subjectElement || cb == nil {
		return false
	}
	inner := c.m.scoped(c.expr)
	if len(cb.Params) == 0 {
		c.result.Append(inner.MapAll(cb.Body))
	} else {
		param := cb.Params[0]
		c.addBlock("", "const "+param+" = "+c.expr+";", inner.bind(param).MapAll(cb.Body))
	}
	c.emitted = true
	return true
}

// then hands the current subject to the callback body. The parameter is
// declared in a block of its own so repeated names do not clash.
func (c *chain) then(link cypress.ChainedCall) bool {
	cb := callbackOf(link.Args)
	if cb == nil {
		return false
	}
	var value string
	switch c.subject {
	case subjectElement, subjectValue:
		value = c.expr
	case subjectURL:
		value = c.page() + ".url()"
	case subjectTitle:
		value = "await " + c.page() + ".title()"
	}
	subjectWas := c.subject
	c.emitted = true
	c.subject = subjectNone
	if len(cb.Params) == 0 || value == "" {
		c.result.Append(c.m.MapAll(cb.Body))
		return true
	}
	param := cb.Params[0]
	inner := c.m
	if subjectWas == subjectElement {
		inner = inner.bind(param)
		if usedAsJQuery(cb.Body, param) {
			c.result.marker("%s is a Playwright locator, not a jQuery element: %s", param, c.source())
		}
	}
	c.addBlock("", "const "+param+" = "+value+";", inner.MapAll(cb.Body))
	return true
}

// each loops over every matched element.
func (c *chain) each(link cypress.ChainedCall) bool {
	cb := callbackOf(link.Args)
	if c.subject != subjectElement || cb == nil || len(cb.Params) == 0 || len(cb.Params) > 2 {
		return false
	}
	param := cb.Params[0]
	binding, list := param, "await "+c.expr+".all()"
	if len(cb.Params) == 2 {
		binding = "[" + cb.Params[1] + ", " + param + "]"
		list = "(" + list + ").entries()"
	}
	if usedAsJQuery(cb.Body, param) {
		c.result.marker("%s is a Playwright locator, not a jQuery element: %s", param, c.source())
	}
	c.addBlock("for (const "+binding+" of "+list+") ", "", c.m.bind(param).MapAll(cb.Body))
	c.emitted = true
	c.subject = subjectNone
	return true
}

// usedAsJQuery reports whether a plain statement of body refers to name,
// most likely through the jQuery API.
func usedAsJQuery(body []cypress.Invocation, name string) bool {
	for _, inv := range body {
		if inv.IsVerbatim() && !inv.IsCompound() && strings.Contains(inv.Verbatim, name) {
			return true
		}
	}
	return false
}

package mapping

import (
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// locatorMutators narrow or move the current element subject.
var locatorMutators = map[string]func(c *chain, args []cypress.Arg) bool{
	"find": func(c *chain, args []cypress.Arg) bool {
		if len(args) == 0 {
			return false
		}
		c.expr = c.m.locatorFor(c.expr, args[0])
		return true
	},
	"get": func(c *chain, args []cypress.Arg) bool {
		if len(args) == 0 {
			return false
		}
		c.expr = c.m.locatorFor(c.m.queryBase(), args[0])
		return true
	},
	"contains": func(c *chain, args []cypress.Arg) bool {
		c.expr = containsLocator(c.m, c.expr, args)
		return true
	},
	"first": func(c *chain, _ []cypress.Arg) bool {
		c.expr += ".first()"
		return true
	},
	"last": func(c *chain, _ []cypress.Arg) bool {
		c.expr += ".last()"
		return true
	},
	"eq": func(c *chain, args []cypress.Arg) bool {
		if len(args) == 0 {
			return false
		}
		c.expr += ".nth(" + args[0].Source() + ")"
		return true
	},
	"parent": func(c *chain, _ []cypress.Arg) bool {
		c.expr += ".locator('..')"
		return true
	},
	"children": func(c *chain, args []cypress.Arg) bool {
		if len(args) == 0 {
			c.expr += ".locator(':scope > *')"
			return true
		}
		if args[0].Kind != cypress.ArgString {
			return false
		}
		c.expr += ".locator(" + jsast.Quote(":scope > "+args[0].Value) + ")"
		return true
	},
	"next": func(c *chain, _ []cypress.Arg) bool {
		c.expr += ".locator('xpath=following-sibling::*[1]')"
		return true
	},
	"prev": func(c *chain, _ []cypress.Arg) bool {
		c.expr += ".locator('xpath=preceding-sibling::*[1]')"
		return true
	},
	"filter": func(c *chain, args []cypress.Arg) bool {
		if len(args) == 0 || args[0].Kind == cypress.ArgRaw {
			return false
		}
		c.expr += ".and(" + c.m.locatorFor(c.page(), args[0]) + ")"
		return true
	},
}

// actions are terminal interactions on an element subject. Each returns the
// awaited statements it produces, or false when the arguments are not
// understood.
var actions = map[string]func(c *chain, args []cypress.Arg) ([]string, bool){
	"click": func(c *chain, args []cypress.Arg) ([]string, bool) {
		return []string{c.call("click", clickOptions(args, ""))}, true
	},
	"dblclick": func(c *chain, args []cypress.Arg) ([]string, bool) {
		return []string{c.call("dblclick", clickOptions(args, ""))}, true
	},
	"rightclick": func(c *chain, args []cypress.Arg) ([]string, bool) {
		return []string{c.call("click", clickOptions(args, "button: 'right'"))}, true
	},
	"type": func(c *chain, args []cypress.Arg) ([]string, bool) {
		if len(args) == 0 {
			return nil, false
		}
		return c.typeText(args[0]), true
	},
	"clear": func(c *chain, _ []cypress.Arg) ([]string, bool) {
		return []string{c.call("clear")}, true
	},
	"select": func(c *chain, args []cypress.Arg) ([]string, bool) {
		if len(args) == 0 {
			return nil, false
		}
		return []string{c.call("selectOption", args[0].Source())}, true
	},
	"check": func(c *chain, args []cypress.Arg) ([]string, bool) {
		if len(args) > 0 && args[0].Kind != cypress.ArgRaw {
			return nil, false
		}
		return []string{c.call("check", cypress.JoinArgs(args))}, true
	},
	"uncheck": func(c *chain, args []cypress.Arg) ([]string, bool) {
		if len(args) > 0 && args[0].Kind != cypress.ArgRaw {
			return nil, false
		}
		return []string{c.call("uncheck", cypress.JoinArgs(args))}, true
	},
	"focus": func(c *chain, _ []cypress.Arg) ([]string, bool) {
		return []string{c.call("focus")}, true
	},
	"blur": func(c *chain, _ []cypress.Arg) ([]string, bool) {
		return []string{c.call("blur")}, true
	},
	"hover": func(c *chain, _ []cypress.Arg) ([]string, bool) {
		return []string{c.call("hover")}, true
	},
	"trigger": func(c *chain, args []cypress.Arg) ([]string, bool) {
		if len(args) == 0 || args[0].Kind != cypress.ArgString {
			return nil, false
		}
		switch args[0].Value {
		case "mouseover", "mouseenter":
			return []string{c.call("hover")}, true
		}
		return []string{c.call("dispatchEvent", args[0].Source())}, true
	},
	"submit": func(c *chain, _ []cypress.Arg) ([]string, bool) {
		return []string{c.call("evaluate", "(form) => form.requestSubmit()")}, true
	},
	"scrollIntoView": func(c *chain, _ []cypress.Arg) ([]string, bool) {
		return []string{c.call("scrollIntoViewIfNeeded")}, true
	},
	"screenshot": func(c *chain, args []cypress.Arg) ([]string, bool) {
		return []string{c.call("screenshot", screenshotOptions(args))}, true
	},
}

// no-op links keep the subject unchanged.
var passthroughLinks = map[string]bool{
	"as":   true,
	"wrap": true,
}

func (c *chain) call(method string, args ...string) string {
	var kept []string
	for _, a := range args {
		if a != "" {
			kept = append(kept, a)
		}
	}
	return "await " + c.expr + "." + method + "(" + strings.Join(kept, ", ") + ");"
}

// clickOptions merges a Cypress options object with extra Playwright options.
// Position strings such as 'center' are dropped.
func clickOptions(args []cypress.Arg, extra string) string {
	var object string
	for _, a := range args {
		if a.Kind == cypress.ArgRaw && strings.HasPrefix(a.Value, "{") {
			object = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(a.Value, "{"), "}"))
		}
	}
	switch {
	case object == "" && extra == "":
		return ""
	case object == "":
		return "{ " + extra + " }"
	case extra == "":
		return "{ " + object + " }"
	default:
		return "{ " + extra + ", " + object + " }"
	}
}

var specialKeys = map[string]string{
	"enter":      "Enter",
	"esc":        "Escape",
	"tab":        "Tab",
	"backspace":  "Backspace",
	"del":        "Delete",
	"selectall":  "ControlOrMeta+a",
	"uparrow":    "ArrowUp",
	"downarrow":  "ArrowDown",
	"leftarrow":  "ArrowLeft",
	"rightarrow": "ArrowRight",
	"home":       "Home",
	"end":        "End",
	"pageup":     "PageUp",
	"pagedown":   "PageDown",
	"insert":     "Insert",
}

// typeText turns type() into fill() followed by press() for special key
// sequences. Text after the first key sequence is typed, since fill replaces
// the field value.
func (c *chain) typeText(text cypress.Arg) []string {
	if text.Kind != cypress.ArgString {
		return []string{c.call("fill", text.Source())}
	}
	var out []string
	filled := false
	rest := text.Value
	for rest != "" {
		open := strings.Index(rest, "{")
		end := -1
		if open >= 0 {
			end = strings.Index(rest[open:], "}")
		}
		if open < 0 || end < 0 {
			out = append(out, c.typeSegment(rest, filled))
			break
		}
		key, known := specialKeys[strings.ToLower(rest[open+1:open+end])]
		if !known {
			// literal braces are typed as text
			out = append(out, c.typeSegment(rest[:open+end+1], filled))
			filled = true
			rest = rest[open+end+1:]
			continue
		}
		if open > 0 {
			out = append(out, c.typeSegment(rest[:open], filled))
			filled = true
		}
		out = append(out, c.call("press", jsast.Quote(key)))
		filled = true
		rest = rest[open+end+1:]
	}
	if len(out) == 0 {
		out = append(out, c.call("fill", "''"))
	}
	return out
}

func (c *chain) typeSegment(text string, afterFill bool) string {
	if afterFill {
		return c.call("pressSequentially", jsast.Quote(text))
	}
	return c.call("fill", jsast.Quote(text))
}

// link translates one chained call against the current subject.
func (c *chain) link(link cypress.ChainedCall) {
	if passthroughLinks[link.Method] {
		return
	}
	switch link.Method {
	case "should", "and":
		c.assert(link)
		return
	case "wait":
		c.wait(link.Args)
		return
	case "its", "invoke":
		if c.subject == subjectValue && c.property(link) {
			return
		}
	case "within":
		if c.within(link) {
			return
		}
	case "then":
		if c.then(link) {
			return
		}
	case "each":
		if c.each(link) {
			return
		}
	}
	if c.subject == subjectElement {
		if mutate, ok := locatorMutators[link.Method]; ok {
			if !mutate(c, link.Args) {
				c.result.marker("%s not converted: %s", link.Source(), c.source())
			}
			return
		}
		if act, ok := actions[link.Method]; ok {
			statements, ok := act(c, link.Args)
			if !ok {
				c.result.marker("%s not converted: %s", link.Source(), c.source())
				c.emitted = true
				return
			}
			for _, s := range statements {
				c.result.add(s)
			}
			c.emitted = true
			return
		}
	}
	c.result.marker("unsupported chained call %s: %s", link.Source(), c.source())
	c.emitted = true
}

// property reads a property off a value subject, such as a request response.
func (c *chain) property(link cypress.ChainedCall) bool {
	if len(link.Args) == 0 || link.Args[0].Kind != cypress.ArgString {
		return false
	}
	name := link.Args[0].Value
	if c.expr == "response" {
		switch name {
		case "status":
			c.expr = "response.status()"
			return true
		case "body":
			c.expr = "await response.json()"
			return true
		case "headers":
			c.expr = "response.headers()"
			return true
		}
	}
	if link.Method == "invoke" {
		c.expr += "." + name + "()"
		return true
	}
	c.expr += "." + name
	return true
}

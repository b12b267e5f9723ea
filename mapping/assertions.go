package mapping

import (
	"regexp"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// matcher builds the expect() matcher call for an assertion from its
// remaining arguments. ok is false when the arguments do not fit.
type matcher func(args []cypress.Arg) (call string, ok bool)

func noArgs(name string) matcher {
	return func(_ []cypress.Arg) (string, bool) {
		return name + "()", true
	}
}

func oneArg(name string) matcher {
	return func(args []cypress.Arg) (string, bool) {
		if len(args) < 1 {
			return "", false
		}
		return name + "(" + args[0].Source() + ")", true
	}
}

func optionalArgs(name string, limit int) matcher {
	return func(args []cypress.Arg) (string, bool) {
		if len(args) > limit {
			args = args[:limit]
		}
		return name + "(" + cypress.JoinArgs(args) + ")", true
	}
}

func regexArg(name string) matcher {
	return func(args []cypress.Arg) (string, bool) {
		if len(args) < 1 {
			return "", false
		}
		return name + "(" + containsPattern(args[0]) + ")", true
	}
}

var elementMatchers = map[string]matcher{
	"be.visible":        noArgs("toBeVisible"),
	"be.hidden":         noArgs("toBeHidden"),
	"exist":             noArgs("toBeAttached"),
	"be.enabled":        noArgs("toBeEnabled"),
	"be.disabled":       noArgs("toBeDisabled"),
	"be.checked":        noArgs("toBeChecked"),
	"be.focused":        noArgs("toBeFocused"),
	"have.focus":        noArgs("toBeFocused"),
	"be.empty":          noArgs("toBeEmpty"),
	"have.text":         oneArg("toHaveText"),
	"contain":           oneArg("toContainText"),
	"contain.text":      oneArg("toContainText"),
	"include.text":      oneArg("toContainText"),
	"contains":          oneArg("toContainText"),
	"have.value":        oneArg("toHaveValue"),
	"have.length":       oneArg("toHaveCount"),
	"have.id":           oneArg("toHaveId"),
	"have.attr":         optionalArgs("toHaveAttribute", 2),
	"have.css":          optionalArgs("toHaveCSS", 2),
	"have.class":        classMatcher,
	"match":             oneArg("toHaveText"),
	"have.length.above": countComparison("toBeGreaterThan"),
	"have.length.gt":    countComparison("toBeGreaterThan"),
	"have.length.below": countComparison("toBeLessThan"),
	"have.length.lt":    countComparison("toBeLessThan"),
}

var urlMatchers = map[string]matcher{
	"eq":       oneArg("toHaveURL"),
	"equal":    oneArg("toHaveURL"),
	"include":  regexArg("toHaveURL"),
	"contain":  regexArg("toHaveURL"),
	"contains": regexArg("toHaveURL"),
	"match":    oneArg("toHaveURL"),
}

var titleMatchers = map[string]matcher{
	"eq":       oneArg("toHaveTitle"),
	"equal":    oneArg("toHaveTitle"),
	"include":  regexArg("toHaveTitle"),
	"contain":  regexArg("toHaveTitle"),
	"contains": regexArg("toHaveTitle"),
	"match":    oneArg("toHaveTitle"),
}

var valueMatchers = map[string]matcher{
	"eq":             oneArg("toBe"),
	"equal":          oneArg("toBe"),
	"deep.equal":     oneArg("toEqual"),
	"deep.eq":        oneArg("toEqual"),
	"include":        oneArg("toContain"),
	"contain":        oneArg("toContain"),
	"have.length":    oneArg("toHaveLength"),
	"have.property":  optionalArgs("toHaveProperty", 2),
	"match":          oneArg("toMatch"),
	"be.true":        fixed("toBe(true)"),
	"be.false":       fixed("toBe(false)"),
	"be.null":        noArgs("toBeNull"),
	"be.undefined":   noArgs("toBeUndefined"),
	"exist":          noArgs("toBeDefined"),
	"be.ok":          noArgs("toBeTruthy"),
	"be.empty":       fixed("toHaveLength(0)"),
	"be.gt":          oneArg("toBeGreaterThan"),
	"be.greaterThan": oneArg("toBeGreaterThan"),
	"be.above":       oneArg("toBeGreaterThan"),
	"be.gte":         oneArg("toBeGreaterThanOrEqual"),
	"be.at.least":    oneArg("toBeGreaterThanOrEqual"),
	"be.lt":          oneArg("toBeLessThan"),
	"be.lessThan":    oneArg("toBeLessThan"),
	"be.below":       oneArg("toBeLessThan"),
	"be.lte":         oneArg("toBeLessThanOrEqual"),
	"be.at.most":     oneArg("toBeLessThanOrEqual"),
}

func fixed(call string) matcher {
	return func(_ []cypress.Arg) (string, bool) {
		return call, true
	}
}

func classMatcher(args []cypress.Arg) (string, bool) {
	if len(args) < 1 {
		return "", false
	}
	if args[0].Kind != cypress.ArgString {
		return "toHaveClass(new RegExp('(^|\\\\s)' + " + args[0].Source() + " + '(\\\\s|$)'))", true
	}
	return "toHaveClass(/(^|\\s)" + regexSource(args[0].Value) + "(\\s|$)/)", true
}

// countComparison is marked by a prefix so assert can switch the subject to
// the element count.
func countComparison(name string) matcher {
	return func(args []cypress.Arg) (string, bool) {
		if len(args) < 1 {
			return "", false
		}
		return countPrefix + name + "(" + args[0].Source() + ")", true
	}
}

const countPrefix = "count:"

var regexSpecial = regexp.MustCompile(`[.*+?^${}()|\[\]\\/]`)

func regexSource(s string) string {
	return regexSpecial.ReplaceAllString(s, `\$0`)
}

// containsPattern builds a regular expression that matches any text
// containing the argument.
func containsPattern(arg cypress.Arg) string {
	if arg.Kind == cypress.ArgString {
		return "/" + regexSource(arg.Value) + "/"
	}
	if arg.Kind == cypress.ArgRaw && strings.HasPrefix(arg.Value, "/") {
		return arg.Value
	}
	return "new RegExp(" + arg.Source() + ")"
}

// assert translates should/and into an awaited expect statement.
func (c *chain) assert(link cypress.ChainedCall) {
	c.emitted = true
	if !c.m.opts.ConvertAssertions {
		c.result.marker("assertion not converted: %s", link.Source())
		return
	}
	if len(link.Args) == 0 || link.Args[0].Kind != cypress.ArgString {
		c.result.marker("callback assertion not converted: %s", link.Source())
		return
	}
	chainer := link.Args[0].Value
	negated := strings.HasPrefix(chainer, "not.")
	chainer = strings.TrimPrefix(chainer, "not.")
	chainer = strings.TrimPrefix(chainer, "to.")

	var table map[string]matcher
	var target string
	awaited := true
	switch c.subject {
	case subjectElement:
		table, target = elementMatchers, c.expr
	case subjectURL:
		table, target = urlMatchers, c.page()
	case subjectTitle:
		table, target = titleMatchers, c.page()
	case subjectValue:
		table, target, awaited = valueMatchers, c.expr, false
	default:
		c.result.marker("assertion without a subject: %s", link.Source())
		return
	}

	m, ok := table[chainer]
	if !ok {
		c.result.marker("unsupported assertion %s: %s", jsast.Quote(link.Args[0].Value), link.Source())
		return
	}
	call, ok := m(link.Args[1:])
	if !ok {
		c.result.marker("assertion arguments not understood: %s", link.Source())
		return
	}
	if rest, isCount := strings.CutPrefix(call, countPrefix); isCount {
		call = rest
		target = "await " + target + ".count()"
		awaited = false
	}
	if negated {
		call = "not." + call
	}
	statement := "expect(" + target + ")." + call + ";"
	if awaited {
		statement = "await " + statement
	}
	c.result.add(statement)
}

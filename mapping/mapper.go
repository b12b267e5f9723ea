// Package mapping translates Cypress command chains into Playwright statements.
package mapping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/jsast"
	"github.com/heshanpadmasiri/cy2pw/playwright"
)

// Options configures statement generation.
type Options struct {
	// PageVar is the expression the page is reached through, `page` in tests
	// and `this.page` inside page objects.
	PageVar                   string
	Namespace                 string
	TestIDAttributes          []string
	// PlaywrightTestIDAttribute is the testIdAttribute of the target
	// Playwright config, the only attribute rendered as getByTestId.
	PlaywrightTestIDAttribute string
	ConvertAssertions         bool
}

// DefaultOptions returns the options used for test files.
func DefaultOptions() Options {
	return Options{
		PageVar:                   playwright.PageVar,
		Namespace:                 cypress.DefaultNamespace,
		TestIDAttributes:          DefaultTestIDAttributes,
		PlaywrightTestIDAttribute: DefaultPlaywrightTestIDAttribute,
		ConvertAssertions:         true,
	}
}

// Result is the translation of one invocation. Statements holds every emitted
// line in order, markers included; Markers repeats the marker lines.
type Result struct {
	Statements []string
	Markers    []string
}

func (r *Result) add(statement string) {
	r.Statements = append(r.Statements, statement)
}

func (r *Result) marker(format string, args ...any) {
	m := diagnostics.Marker(format, args...)
	r.Statements = append(r.Statements, m)
	r.Markers = append(r.Markers, m)
}

// Append concatenates another result onto r.
func (r *Result) Append(other Result) {
	r.Statements = append(r.Statements, other.Statements...)
	r.Markers = append(r.Markers, other.Markers...)
}

// Mapper converts invocations. It holds no per-file state and is safe for
// concurrent use.
type Mapper struct {
	opts     Options
	rules    *RuleTable
	// scope is the locator element queries start from inside within().
	scope string
	// elements are callback parameters bound to a locator.
	elements map[string]bool
}

// NewMapper creates a mapper, filling unset options with defaults.
func NewMapper(opts Options) *Mapper {
	defaults := DefaultOptions()
	if opts.PageVar == "" {
		opts.PageVar = defaults.PageVar
	}
	if opts.Namespace == "" {
		opts.Namespace = defaults.Namespace
	}
	if len(opts.TestIDAttributes) == 0 {
		opts.TestIDAttributes = defaults.TestIDAttributes
	}
	if opts.PlaywrightTestIDAttribute == "" {
		opts.PlaywrightTestIDAttribute = defaults.PlaywrightTestIDAttribute
	}
	return &Mapper{opts: opts, rules: TextRules()}
}

// Options returns the effective options.
func (m *Mapper) Options() Options {
	return m.opts
}

type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdVisit
	cmdGet
	cmdContains
	cmdURL
	cmdTitle
	cmdLocation
	cmdReload
	cmdGo
	cmdWait
	cmdViewport
	cmdIntercept
	cmdRequest
	cmdLog
	cmdScreenshot
	cmdClearCookies
	cmdClearLocalStorage
	cmdClearSessionStorage
	cmdFocused
	cmdScrollTo
	cmdPause
	cmdWrap
	cmdUnsupported
)

var commandKinds = map[string]commandKind{
	"visit":                  cmdVisit,
	"get":                    cmdGet,
	"contains":               cmdContains,
	"url":                    cmdURL,
	"title":                  cmdTitle,
	"location":               cmdLocation,
	"hash":                   cmdLocation,
	"reload":                 cmdReload,
	"go":                     cmdGo,
	"wait":                   cmdWait,
	"viewport":               cmdViewport,
	"intercept":              cmdIntercept,
	"route":                  cmdIntercept,
	"request":                cmdRequest,
	"log":                    cmdLog,
	"screenshot":             cmdScreenshot,
	"clearCookies":           cmdClearCookies,
	"clearAllCookies":        cmdClearCookies,
	"clearLocalStorage":      cmdClearLocalStorage,
	"clearAllLocalStorage":   cmdClearLocalStorage,
	"clearAllSessionStorage": cmdClearSessionStorage,
	"focused":                cmdFocused,
	"scrollTo":               cmdScrollTo,
	"pause":                  cmdPause,
	"wrap":                   cmdWrap,
	"fixture":                cmdUnsupported,
	"task":                   cmdUnsupported,
	"exec":                   cmdUnsupported,
	"readFile":               cmdUnsupported,
	"writeFile":              cmdUnsupported,
	"window":                 cmdUnsupported,
	"document":               cmdUnsupported,
	"debug":                  cmdUnsupported,
	"session":                cmdUnsupported,
	"origin":                 cmdUnsupported,
	"stub":                   cmdUnsupported,
	"spy":                    cmdUnsupported,
	"clock":                  cmdUnsupported,
	"tick":                   cmdUnsupported,
	"setCookie":              cmdUnsupported,
	"getCookie":              cmdUnsupported,
	"getCookies":             cmdUnsupported,
}

var unsupportedHints = map[string]string{
	"fixture":    "load fixture data with an import or fs.readFileSync",
	"task":       "move node tasks into a fixture or helper",
	"exec":       "use child_process in a helper",
	"readFile":   "use fs in a helper",
	"writeFile":  "use fs in a helper",
	"window":     "use page.evaluate",
	"document":   "use page.evaluate",
	"debug":      "use page.pause() or the Playwright inspector",
	"session":    "use storageState or a setup project",
	"origin":     "Playwright handles cross-origin navigation directly",
	"stub":       "stub with page.evaluate or page.route",
	"spy":        "spy with page.evaluate or page.route",
	"clock":      "use page.clock",
	"tick":       "use page.clock.runFor",
	"setCookie":  "use page.context().addCookies",
	"getCookie":  "use page.context().cookies",
	"getCookies": "use page.context().cookies",
}

// KnownCommands lists every command with a dedicated translation.
func KnownCommands() []string {
	names := make([]string, 0, len(commandKinds))
	for name := range commandKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupCommand(name string) commandKind {
	if kind, ok := commandKinds[name]; ok {
		return kind
	}
	return cmdUnknown
}

// Map translates one invocation into Playwright statements.
func (m *Mapper) Map(inv cypress.Invocation) Result {
	if inv.IsCompound() {
		return m.compound(inv)
	}
	if inv.IsVerbatim() {
		return m.verbatim(inv.Verbatim)
	}
	c := &chain{m: m, inv: inv}
	if !c.command() {
		return c.result
	}
	for _, link := range inv.Chain {
		c.link(link)
	}
	c.finish()
	return c.result
}

// MapAll translates a sequence of invocations in order.
func (m *Mapper) MapAll(invocations []cypress.Invocation) Result {
	var r Result
	for _, inv := range invocations {
		r.Append(m.Map(inv))
	}
	return r
}

// Locator returns the locator expression for a command chain that only
// selects elements, such as a page-object getter returning cy.get(...).
func (m *Mapper) Locator(inv cypress.Invocation) (string, bool) {
	if inv.IsVerbatim() {
		return "", false
	}
	c := &chain{m: m, inv: inv}
	switch lookupCommand(inv.Name) {
	case cmdGet, cmdContains, cmdFocused:
	default:
		return "", false
	}
	if !c.command() {
		return "", false
	}
	for _, link := range inv.Chain {
		if link.Method == "as" {
			continue
		}
		if _, ok := locatorMutators[link.Method]; !ok {
			return "", false
		}
		c.link(link)
	}
	if len(c.result.Statements) > 0 || c.subject != subjectElement {
		return "", false
	}
	return c.expr, true
}

var namespaceUse = regexp.MustCompile(`(^|[^\w.$])(cy|Cypress)\.`)

// verbatim passes a non-command statement through. Statements still using the
// command namespace cannot run under Playwright and are commented out behind a
// marker.
func (m *Mapper) verbatim(text string) Result {
	var r Result
	text = m.rules.Apply(text)
	if m.usesNamespace(text) && !jsast.IsCommentText(text) {
		r.marker("statement uses %s outside a command chain", m.opts.Namespace)
		for _, line := range strings.Split(playwright.Dedent(text), "\n") {
			r.add("// " + line)
		}
		return r
	}
	r.add(text)
	return r
}

func (m *Mapper) usesNamespace(text string) bool {
	if m.opts.Namespace == cypress.DefaultNamespace {
		return namespaceUse.MatchString(text)
	}
	re := regexp.MustCompile(`(^|[^\w.$])(` + regexp.QuoteMeta(m.opts.Namespace) + `|Cypress)\.`)
	return re.MatchString(text)
}

type subject int

const (
	subjectNone subject = iota
	subjectElement
	subjectURL
	subjectTitle
	subjectValue
)

// chain carries the state of one invocation while it is translated.
type chain struct {
	m       *Mapper
	inv     cypress.Invocation
	subject subject
	expr    string
	emitted bool
	result  Result
}

func (c *chain) page() string {
	return c.m.opts.PageVar
}

func (c *chain) await(expr string) {
	c.result.add(playwright.Await(expr))
	c.emitted = true
}

func (c *chain) source() string {
	return c.inv.Source(c.m.opts.Namespace)
}

func (c *chain) arg(i int) (cypress.Arg, bool) {
	if i < len(c.inv.Args) {
		return c.inv.Args[i], true
	}
	return cypress.Arg{}, false
}

// command translates the root command. It returns false when the whole
// invocation was replaced by a marker.
func (c *chain) command() bool {
	name := c.inv.Name
	switch lookupCommand(name) {
	case cmdVisit:
		return c.visit()
	case cmdGet:
		return c.get()
	case cmdContains:
		c.subject = subjectElement
		c.expr = containsLocator(c.m, c.m.queryBase(), c.inv.Args)
	case cmdURL:
		c.subject = subjectURL
	case cmdTitle:
		c.subject = subjectTitle
	case cmdLocation:
		c.subject = subjectValue
		c.expr = "new URL(" + c.page() + ".url())"
		if name == "hash" {
			c.expr += ".hash"
		} else if prop, ok := c.arg(0); ok {
			if prop.Kind == cypress.ArgString {
				c.expr += "." + prop.Value
			} else {
				c.expr += "[" + prop.Source() + "]"
			}
		}
	case cmdReload:
		c.await(c.page() + ".reload()")
	case cmdGo:
		return c.navigateHistory()
	case cmdWait:
		return c.wait(c.inv.Args)
	case cmdViewport:
		return c.viewport()
	case cmdIntercept:
		return c.intercept()
	case cmdRequest:
		return c.request()
	case cmdLog:
		c.result.add("console.log(" + cypress.JoinArgs(c.inv.Args) + ");")
		c.emitted = true
	case cmdScreenshot:
		c.await(c.page() + ".screenshot(" + screenshotOptions(c.inv.Args) + ")")
	case cmdClearCookies:
		c.await(c.page() + ".context().clearCookies()")
	case cmdClearLocalStorage:
		c.await(c.page() + ".evaluate(() => localStorage.clear())")
	case cmdClearSessionStorage:
		c.await(c.page() + ".evaluate(() => sessionStorage.clear())")
	case cmdFocused:
		c.subject = subjectElement
		c.expr = c.page() + ".locator(':focus')"
	case cmdScrollTo:
		return c.scrollTo()
	case cmdPause:
		c.await(c.page() + ".pause()")
	case cmdWrap:
		arg, ok := c.arg(0)
		if !ok {
			c.result.marker("wrap without a value: %s", c.source())
			return false
		}
		c.subject = subjectValue
		if arg.Kind == cypress.ArgIdentifier && c.m.elements[arg.Value] {
			c.subject = subjectElement
		}
		c.expr = arg.Source()
	case cmdUnsupported:
		c.result.marker("%s has no Playwright equivalent (%s): %s", name, unsupportedHints[name], c.source())
		return false
	default:
		msg := fmt.Sprintf("unknown command %s", name)
		if s, ok := Suggest(name, KnownCommands()); ok {
			msg += fmt.Sprintf(", did you mean %s?", s)
		}
		c.result.marker("%s: %s", msg, c.source())
		return false
	}
	return true
}

func (c *chain) visit() bool {
	url, ok := c.arg(0)
	if !ok {
		c.result.marker("visit without a url: %s", c.source())
		return false
	}
	if url.Kind == cypress.ArgRaw && strings.HasPrefix(url.Value, "{") {
		c.result.marker("visit with an options object: %s", c.source())
		return false
	}
	c.await(c.page() + ".goto(" + url.Source() + ")")
	if len(c.inv.Args) > 1 {
		c.result.marker("visit options not converted: %s", c.inv.Args[1].Source())
	}
	return true
}

func (c *chain) get() bool {
	sel, ok := c.arg(0)
	if !ok {
		c.result.marker("get without a selector: %s", c.source())
		return false
	}
	if sel.Kind == cypress.ArgString && strings.HasPrefix(sel.Value, "@") {
		c.result.marker("alias %s has no Playwright equivalent, store the locator in a variable: %s", sel.Value, c.source())
		return false
	}
	c.subject = subjectElement
	c.expr = c.m.locatorFor(c.m.queryBase(), sel)
	return true
}

func containsLocator(m *Mapper, base string, args []cypress.Arg) string {
	switch len(args) {
	case 0:
		return base + ".locator('body')"
	case 1:
		return base + ".getByText(" + args[0].Source() + ")"
	default:
		if args[1].Kind == cypress.ArgRaw && strings.HasPrefix(args[1].Value, "{") {
			return base + ".getByText(" + args[0].Source() + ")"
		}
		return m.locatorFor(base, args[0]) + ".filter({ hasText: " + args[1].Source() + " })"
	}
}

func (c *chain) navigateHistory() bool {
	dir, ok := c.arg(0)
	if !ok {
		c.result.marker("go without a direction: %s", c.source())
		return false
	}
	switch dir.Value {
	case "back", "-1":
		c.await(c.page() + ".goBack()")
	case "forward", "1":
		c.await(c.page() + ".goForward()")
	default:
		c.result.marker("go(%s) has no direct equivalent: %s", dir.Source(), c.source())
		return false
	}
	return true
}

func (c *chain) wait(args []cypress.Arg) bool {
	if len(args) == 0 {
		c.result.marker("wait without a duration: %s", c.source())
		return false
	}
	arg := args[0]
	switch {
	case arg.Kind == cypress.ArgNumber || arg.Kind == cypress.ArgIdentifier:
		c.await(c.page() + ".waitForTimeout(" + arg.Source() + ")")
	case arg.Kind == cypress.ArgString && strings.HasPrefix(arg.Value, "@"):
		c.result.marker("wait on alias %s, use page.waitForResponse with the intercepted url: %s", arg.Value, c.source())
		c.emitted = true
	default:
		c.result.marker("wait(%s) not converted: %s", arg.Source(), c.source())
		c.emitted = true
	}
	return true
}

func (c *chain) viewport() bool {
	if len(c.inv.Args) < 2 || c.inv.Args[0].Kind == cypress.ArgString {
		c.result.marker("viewport presets are not converted, use a device descriptor: %s", c.source())
		return false
	}
	width, height := c.inv.Args[0].Source(), c.inv.Args[1].Source()
	c.await(c.page() + ".setViewportSize({ width: " + width + ", height: " + height + " })")
	return true
}

var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true, "HEAD": true, "OPTIONS": true,
}

func (c *chain) intercept() bool {
	args := c.inv.Args
	method := ""
	if len(args) >= 2 && args[0].Kind == cypress.ArgString && httpMethods[strings.ToUpper(args[0].Value)] {
		method = strings.ToUpper(args[0].Value)
		args = args[1:]
	}
	if len(args) == 0 {
		c.result.marker("intercept without a url: %s", c.source())
		return false
	}
	url := args[0]
	if url.Kind == cypress.ArgRaw && strings.HasPrefix(url.Value, "{") {
		c.result.marker("intercept with a route matcher object: %s", c.source())
		return false
	}
	pattern := url.Source()
	if url.Kind == cypress.ArgString && strings.HasPrefix(url.Value, "/") {
		pattern = jsast.Quote("**" + url.Value)
	}

	var body []string
	if method != "" {
		body = append(body, "if (route.request().method() !== "+jsast.Quote(method)+") return route.fallback();")
	}
	switch {
	case len(args) < 2:
		body = append(body, "await route.continue();")
	case args[1].Kind == cypress.ArgString:
		body = append(body, "await route.fulfill({ body: "+args[1].Source()+" });")
	case args[1].Kind == cypress.ArgRaw && strings.HasPrefix(args[1].Value, "{"):
		response := staticResponse(args[1].Value)
		if strings.Contains(args[1].Value, "fixture") {
			body = append(body, diagnostics.Marker("fixture responses need a path to the fixture file"))
			c.result.Markers = append(c.result.Markers, body[len(body)-1])
		}
		body = append(body, "await route.fulfill("+response+");")
	default:
		c.result.marker("intercept route handler not converted: %s", c.source())
		return false
	}

	sb := strings.Builder{}
	sb.WriteString("await " + c.page() + ".route(" + pattern + ", async (route) => {\n")
	for _, line := range body {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("});")
	c.result.add(sb.String())
	c.emitted = true
	return true
}

var statusCodeKey = regexp.MustCompile(`\bstatusCode\s*:`)

// staticResponse rewrites a static response object to route.fulfill options.
func staticResponse(object string) string {
	return statusCodeKey.ReplaceAllString(object, "status:")
}

func (c *chain) request() bool {
	args := c.inv.Args
	if len(args) == 0 {
		c.result.marker("request without a url: %s", c.source())
		return false
	}
	var call string
	switch {
	case args[0].Kind == cypress.ArgRaw && strings.HasPrefix(args[0].Value, "{"):
		c.result.marker("request with an options object: %s", c.source())
		return false
	case len(args) >= 2 && args[0].Kind == cypress.ArgString && httpMethods[strings.ToUpper(args[0].Value)]:
		method := strings.ToLower(args[0].Value)
		call = c.page() + ".request." + method + "(" + args[1].Source()
		if len(args) >= 3 {
			call += ", { data: " + args[2].Source() + " }"
		}
		call += ")"
	default:
		call = c.page() + ".request.get(" + args[0].Source() + ")"
	}
	if len(c.inv.Chain) == 0 {
		c.await(call)
		return true
	}
	c.result.add("const response = await " + call + ";")
	c.emitted = true
	c.subject = subjectValue
	c.expr = "response"
	return true
}

func screenshotOptions(args []cypress.Arg) string {
	if len(args) == 0 {
		return ""
	}
	if args[0].Kind == cypress.ArgString {
		return "{ path: " + jsast.Quote(args[0].Value+".png") + " }"
	}
	if args[0].Kind == cypress.ArgRaw && strings.HasPrefix(args[0].Value, "{") {
		return ""
	}
	return "{ path: " + args[0].Source() + " + '.png' }"
}

func (c *chain) scrollTo() bool {
	args := c.inv.Args
	if len(args) == 0 {
		c.result.marker("scrollTo without a position: %s", c.source())
		return false
	}
	var script string
	switch {
	case len(args) >= 2 && args[0].Kind == cypress.ArgNumber && args[1].Kind == cypress.ArgNumber:
		script = "window.scrollTo(" + args[0].Value + ", " + args[1].Value + ")"
	case args[0].Value == "top" || args[0].Value == "topLeft":
		script = "window.scrollTo(0, 0)"
	case args[0].Value == "bottom" || args[0].Value == "bottomLeft":
		script = "window.scrollTo(0, document.body.scrollHeight)"
	default:
		c.result.marker("scrollTo(%s) not converted: %s", cypress.JoinArgs(args), c.source())
		return false
	}
	c.await(c.page() + ".evaluate(() => " + script + ")")
	return true
}

// finish emits what a chain with no terminal call still implies.
func (c *chain) finish() {
	if c.emitted {
		return
	}
	switch c.subject {
	case subjectElement:
		if c.inv.Returned {
			c.result.add("return " + c.expr + ";")
			return
		}
		c.await(c.expr + ".waitFor()")
	case subjectValue:
		if c.inv.Returned {
			c.result.add("return " + c.expr + ";")
		}
	case subjectURL, subjectTitle:
		if c.inv.Returned {
			if c.subject == subjectURL {
				c.result.add("return " + c.page() + ".url();")
			} else {
				c.result.add("return " + c.page() + ".title();")
			}
			return
		}
		c.result.marker("result of %s is unused: %s", c.inv.Name, c.source())
	}
}

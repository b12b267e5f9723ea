package pageobject

import (
	"regexp"
	"strings"
)

// Classification tags a method by what its body does.
type Classification string

const (
	ClassVisit     Classification = "visit"
	ClassInput     Classification = "input"
	ClassClick     Classification = "click"
	ClassComposite Classification = "composite"
	ClassMocking   Classification = "mocking"
	ClassGeneric   Classification = "generic"
)

// facts is what the predicates look at. Self calls are masked out of
// masked so a call like this.submit() does not read as a click.
type facts struct {
	name      string
	body      string
	masked    string
	siblings  []string
	namespace string
}

type predicate struct {
	tag   Classification
	match func(f facts) bool
}

// predicates are evaluated in order; the first match wins.
var predicates = []predicate{
	{ClassVisit, isNavigation},
	{ClassInput, isInput},
	{ClassClick, isClick},
	{ClassComposite, isComposite},
	{ClassMocking, isMocking},
}

var (
	inputCall = regexp.MustCompile(`\.\s*(?:type|clear|select|fill|selectOption)\s*\(`)
	clickCall = regexp.MustCompile(`\.\s*(?:click|dblclick|rightclick|submit)\s*\(`)
	mockName  = regexp.MustCompile(`(?i)mock|stub|intercept|fixture|fake`)
)

func isNavigation(f facts) bool {
	return regexp.MustCompile(`(^|[^\w.$])` + regexp.QuoteMeta(f.namespace) + `\.\s*visit\s*\(`).MatchString(f.body)
}

func isInput(f facts) bool {
	return inputCall.MatchString(f.masked)
}

func isClick(f facts) bool {
	return clickCall.MatchString(f.masked)
}

func isComposite(f facts) bool {
	re := selfCall(f.siblings, f.name)
	return re != nil && re.MatchString(f.body)
}

func isMocking(f facts) bool {
	if mockName.MatchString(f.name) {
		return true
	}
	ns := regexp.QuoteMeta(f.namespace)
	infra := regexp.MustCompile(`(^|[^\w.$])` + ns + `\.\s*(?:intercept|stub|spy|fixture|route|server|clock)\s*\(|\bsinon\b|(?i:\bmock)`)
	return infra.MatchString(f.body)
}

// selfCall matches calls of sibling methods on this, excluding the method
// itself.
func selfCall(siblings []string, self string) *regexp.Regexp {
	var names []string
	for _, s := range siblings {
		if s != self {
			names = append(names, regexp.QuoteMeta(s))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return regexp.MustCompile(`\bthis\s*\.\s*(` + strings.Join(names, "|") + `)\s*\(`)
}

// Classify tags a method. siblings are the names of the other methods of the
// class; the result only depends on the arguments.
func Classify(m Method, siblings []string, namespace string) Classification {
	f := facts{name: m.Name, body: m.Body, masked: m.Body, siblings: siblings, namespace: namespace}
	if re := selfCall(siblings, m.Name); re != nil {
		f.masked = re.ReplaceAllString(m.Body, "this.self(")
	}
	for _, p := range predicates {
		if p.match(f) {
			return p.tag
		}
	}
	return ClassGeneric
}

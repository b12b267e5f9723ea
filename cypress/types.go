package cypress

import (
	"strings"

	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// Modifier is the focus/skip marker attached to a suite or case call
type Modifier string

const (
	ModifierNone Modifier = ""
	ModifierOnly Modifier = "only"
	ModifierSkip Modifier = "skip"
)

// HookKind identifies a lifecycle hook
type HookKind string

const (
	HookBeforeAll  HookKind = "before-all"
	HookBeforeEach HookKind = "before-each"
	HookAfterAll   HookKind = "after-all"
	HookAfterEach  HookKind = "after-each"
)

// ArgKind records how an argument was captured
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgNumber
	ArgBool
	ArgIdentifier
	// ArgRaw holds any other expression as source text, never evaluated.
	ArgRaw
)

type (
	// Arg is one argument of a command or chained call. Value holds the
	// unquoted text for strings and the source text for everything else.
	Arg struct {
		Kind     ArgKind
		Value    string
		// Callback is set when the argument is a function literal.
		Callback *Callback
	}

	// Callback is a function passed to a command, such as the body of
	// within() or then().
	Callback struct {
		Params []string
		Body   []Invocation
	}

	// Part is one slice of a compound statement: source text, or a nested
	// block whose statements are parsed like any other body.
	Part struct {
		Text  string
		Block *Block
	}

	// Block is the statement list of a nested body.
	Block struct {
		Commands []Invocation
	}

	// ChainedCall is one fluent call following a command
	ChainedCall struct {
		Method string
		Args   []Arg
	}

	// Invocation is one command rooted at the command namespace, with its
	// chained calls. Statements that are not commands keep their source text in
	// Verbatim and have an empty Name. When such a statement nests commands in
	// a block (if, loops, callbacks), Parts splits it around those blocks.
	Invocation struct {
		Name     string
		Args     []Arg
		Chain    []ChainedCall
		Line     int
		Verbatim string
		Parts    []Part
		// Returned is set for `return cy...` statements.
		Returned bool
	}

	// Case is one test scenario
	Case struct {
		Title    Arg
		Modifier Modifier
		Commands []Invocation
		Line     int
	}

	// Hook is setup/teardown code bound to the enclosing suite
	Hook struct {
		Kind     HookKind
		Commands []Invocation
		Line     int
	}

	// Suite groups cases, hooks and nested suites. Cases, hooks and
	// declarations written outside any suite call belong to an implicit
	// file-level suite.
	Suite struct {
		Implicit     bool
		Title        Arg
		Modifier     Modifier
		Declarations []Invocation
		Hooks        []Hook
		Cases        []Case
		Suites       []Suite
		Line         int
	}
)

// Source renders the argument as JavaScript source.
func (a Arg) Source() string {
	if a.Kind == ArgString {
		return jsast.Quote(a.Value)
	}
	return a.Value
}

// IsLiteral reports whether the argument was captured by value.
func (a Arg) IsLiteral() bool {
	return a.Kind == ArgString || a.Kind == ArgNumber || a.Kind == ArgBool
}

// StringArg builds a string literal argument.
func StringArg(value string) Arg {
	return Arg{Kind: ArgString, Value: value}
}

// RawArg builds a raw expression argument.
func RawArg(source string) Arg {
	return Arg{Kind: ArgRaw, Value: source}
}

// IsCompound reports whether a pass-through statement holds nested commands.
func (i Invocation) IsCompound() bool {
	return i.IsVerbatim() && len(i.Parts) > 0
}

// IsVerbatim reports whether the invocation is a pass-through statement.
func (i Invocation) IsVerbatim() bool {
	return i.Name == ""
}

// Source reconstructs the command chain as source text, rooted at namespace.
func (i Invocation) Source(namespace string) string {
	if i.IsVerbatim() {
		return i.Verbatim
	}
	sb := strings.Builder{}
	sb.WriteString(namespace)
	writeCall(&sb, i.Name, i.Args)
	for _, link := range i.Chain {
		writeCall(&sb, link.Method, link.Args)
	}
	return sb.String()
}

// Source renders the chained call as `.method(args)`.
func (c ChainedCall) Source() string {
	sb := strings.Builder{}
	writeCall(&sb, c.Method, c.Args)
	return sb.String()
}

func writeCall(sb *strings.Builder, method string, args []Arg) {
	sb.WriteString(".")
	sb.WriteString(method)
	sb.WriteString("(")
	sb.WriteString(JoinArgs(args))
	sb.WriteString(")")
}

// JoinArgs renders a comma separated argument list.
func JoinArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.Source()
	}
	return strings.Join(parts, ", ")
}

// Name returns the suite title text.
func (s Suite) Name() string {
	return s.Title.Value
}

// IsImplicit reports whether this is the file-level suite.
func (s Suite) IsImplicit() bool {
	return s.Implicit
}

// CountCases returns the number of cases in the suite and its descendants.
func (s Suite) CountCases() int {
	count := len(s.Cases)
	for _, child := range s.Suites {
		count += child.CountCases()
	}
	return count
}

// CountCases returns the number of cases across suites.
func CountCases(suites []Suite) int {
	count := 0
	for _, s := range suites {
		count += s.CountCases()
	}
	return count
}

package playwright

import (
	"strings"
)

// writer accumulates indented source lines
type writer struct {
	sb    strings.Builder
	depth int
}

func (w *writer) String() string {
	return w.sb.String()
}

// line writes text at the current depth. Multi-line text is dedented first so
// verbatim statements keep their relative indentation.
func (w *writer) line(text string) {
	for _, l := range strings.Split(Dedent(text), "\n") {
		if strings.TrimSpace(l) == "" {
			w.sb.WriteString("\n")
			continue
		}
		w.sb.WriteString(strings.Repeat(indent, w.depth))
		w.sb.WriteString(l)
		w.sb.WriteString("\n")
	}
}

func (w *writer) lines(lines []string) {
	for _, l := range lines {
		w.line(l)
	}
}

// raw writes text without indentation
func (w *writer) raw(text string) {
	w.sb.WriteString(text)
	w.sb.WriteString("\n")
}

func (w *writer) blank() {
	w.sb.WriteString("\n")
}

// Dedent removes the indentation shared by the second and later lines of a
// statement whose first line was cut at its first token.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return text
	}
	common := -1
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return text
	}
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) >= common {
			lines[i] = lines[i][common:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// Indent prefixes every non-empty line of text with depth levels of indentation.
func Indent(text string, depth int) string {
	w := &writer{depth: depth}
	w.line(text)
	return strings.TrimSuffix(w.String(), "\n")
}

// Call renders `callee(args...)`.
func Call(callee string, args ...string) string {
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// Await prefixes an expression with await and terminates the statement.
func Await(expr string) string {
	return "await " + expr + ";"
}

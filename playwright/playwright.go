// Package playwright provide type safe way to represent Playwright test source
// along with way to convert them to actual source code
package playwright

import (
	"strings"
)

const (
	// Module is the Playwright Test package.
	Module = "@playwright/test"
	// PageVar is the default name of the page fixture.
	PageVar = "page"
	indent  = "  "
)

// Interfaces for source elements

type (
	// SourceElement represents any element that can be converted to source
	SourceElement interface {
		ToSource() string
	}

	// Element is a block-level element inside a file or describe body
	Element interface {
		SourceElement
		write(w *writer)
	}
)

// Core structures

type (
	// File represents a complete generated spec or page-object module
	File struct {
		Header  string
		Imports string
		Body    []Element
	}

	// Describe represents a test.describe block
	Describe struct {
		Title    string
		Modifier string
		Body     []Element
	}

	// Hook represents a test.beforeEach/afterEach/beforeAll/afterAll block
	Hook struct {
		Method   string
		Fixtures string
		Body     []string
	}

	// Test represents a test(...) block
	Test struct {
		Title    string
		Modifier string
		Fixtures string
		Body     []string
	}

	// Code represents verbatim statements
	Code struct {
		Source string
	}

	// Class represents a page-object class
	Class struct {
		Name        string
		Export      string
		Heritage    string
		Fields      []string
		Constructor *Constructor
		Methods     []ClassMethod
		Comments    []string
	}

	// Constructor represents a class constructor
	Constructor struct {
		Params []string
		Body   []string
	}

	// ClassMethod represents a method of a page-object class
	ClassMethod struct {
		Name     string
		Params   []string
		Async    bool
		Static   bool
		Getter   bool
		Body     []string
		Comments []string
	}
)

// ToSource renders the file: header, imports, then body elements separated by blank lines.
func (f *File) ToSource() string {
	w := &writer{}
	if f.Header != "" {
		w.raw(strings.TrimRight(f.Header, "\n"))
		w.blank()
	}
	if imports := strings.TrimSpace(f.Imports); imports != "" {
		w.raw(imports)
		w.blank()
	}
	writeElements(w, f.Body)
	return w.String()
}

func (d *Describe) ToSource() string {
	w := &writer{}
	d.write(w)
	return w.String()
}

func (d *Describe) write(w *writer) {
	w.line("test.describe" + modifierSuffix(d.Modifier) + "(" + d.Title + ", () => {")
	w.depth++
	writeElements(w, d.Body)
	w.depth--
	w.line("});")
}

func (h *Hook) ToSource() string {
	w := &writer{}
	h.write(w)
	return w.String()
}

func (h *Hook) write(w *writer) {
	w.line("test." + h.Method + "(async (" + h.Fixtures + ") => {")
	w.depth++
	w.lines(h.Body)
	w.depth--
	w.line("});")
}

func (t *Test) ToSource() string {
	w := &writer{}
	t.write(w)
	return w.String()
}

func (t *Test) write(w *writer) {
	w.line("test" + modifierSuffix(t.Modifier) + "(" + t.Title + ", async (" + t.Fixtures + ") => {")
	w.depth++
	w.lines(t.Body)
	w.depth--
	w.line("});")
}

func (c *Code) ToSource() string {
	w := &writer{}
	c.write(w)
	return w.String()
}

func (c *Code) write(w *writer) {
	w.line(c.Source)
}

func (c *Class) ToSource() string {
	w := &writer{}
	c.write(w)
	return w.String()
}

func (c *Class) write(w *writer) {
	addComments(w, c.Comments)
	header := c.Export + "class " + c.Name
	if c.Heritage != "" {
		header += " " + c.Heritage
	}
	w.line(header + " {")
	w.depth++
	w.lines(c.Fields)
	needsBlank := len(c.Fields) > 0
	if c.Constructor != nil {
		if needsBlank {
			w.blank()
		}
		w.line("constructor(" + strings.Join(c.Constructor.Params, ", ") + ") {")
		w.depth++
		w.lines(c.Constructor.Body)
		w.depth--
		w.line("}")
		needsBlank = true
	}
	for _, m := range c.Methods {
		if needsBlank {
			w.blank()
		}
		m.write(w)
		needsBlank = true
	}
	w.depth--
	w.line("}")
}

func (m *ClassMethod) ToSource() string {
	w := &writer{}
	m.write(w)
	return w.String()
}

func (m *ClassMethod) write(w *writer) {
	addComments(w, m.Comments)
	sb := strings.Builder{}
	if m.Static {
		sb.WriteString("static ")
	}
	if m.Getter {
		sb.WriteString("get ")
	} else if m.Async {
		sb.WriteString("async ")
	}
	sb.WriteString(m.Name)
	sb.WriteString("(")
	sb.WriteString(strings.Join(m.Params, ", "))
	sb.WriteString(") {")
	w.line(sb.String())
	w.depth++
	w.lines(m.Body)
	w.depth--
	w.line("}")
}

func modifierSuffix(modifier string) string {
	if modifier == "" {
		return ""
	}
	return "." + modifier
}

func addComments(w *writer, comments []string) {
	for _, comment := range comments {
		w.line("// " + comment)
	}
}

// writeElements separates elements with a blank line, except runs of
// verbatim code which stay together.
func writeElements(w *writer, elements []Element) {
	for i, element := range elements {
		if i > 0 {
			_, prevCode := elements[i-1].(*Code)
			_, code := element.(*Code)
			if !prevCode || !code {
				w.blank()
			}
		}
		element.write(w)
	}
}

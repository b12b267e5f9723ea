package imports

import (
	"sort"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// Render returns the statement text for a record.
func (r Record) Render() string {
	if !r.Parsed || r.Kind == KindReference {
		return r.Raw
	}
	module := jsast.Quote(r.Source)
	if r.Kind == KindRequire {
		var lines []string
		if r.Default != "" {
			lines = append(lines, "const "+r.Default+" = require("+module+");")
		}
		if len(r.Named) > 0 {
			lines = append(lines, "const { "+strings.Join(r.Named, ", ")+" } = require("+module+");")
		}
		if len(lines) == 0 {
			return "require(" + module + ");"
		}
		return strings.Join(lines, "\n")
	}

	keyword := "import "
	if r.TypeOnly {
		keyword += "type "
	}
	var clauses []string
	if r.Default != "" {
		clauses = append(clauses, r.Default)
	}
	if r.Namespace != "" {
		clauses = append(clauses, "* as "+r.Namespace)
	}
	named := ""
	if len(r.Named) > 0 {
		named = "{ " + strings.Join(r.Named, ", ") + " }"
	}
	switch {
	case len(clauses) == 0 && named == "":
		return keyword + module + ";"
	case r.Namespace != "" && named != "":
		// a namespace import cannot share a statement with named bindings
		return keyword + strings.Join(clauses, ", ") + " from " + module + ";\n" +
			keyword + named + " from " + module + ";"
	case named != "":
		clauses = append(clauses, named)
	}
	return keyword + strings.Join(clauses, ", ") + " from " + module + ";"
}

func block(r Record) int {
	switch r.Category {
	case CategoryBuiltin:
		return 0
	case CategoryRelative:
		return 2
	}
	return 1
}

// Organize renders the legitimate imports: reference directives, then
// builtin, external and relative blocks separated by blank lines, each
// sorted by module.
func Organize(a Analysis) string {
	var references []string
	blocks := make([][]Record, 3)
	for _, r := range a.Legitimate {
		if r.Parsed && r.Kind == KindReference {
			references = append(references, r.Raw)
			continue
		}
		b := block(r)
		blocks[b] = append(blocks[b], r)
	}
	var parts []string
	if len(references) > 0 {
		sort.Strings(references)
		parts = append(parts, strings.Join(references, "\n"))
	}
	for _, records := range blocks {
		if len(records) == 0 {
			continue
		}
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Source != records[j].Source {
				return records[i].Source < records[j].Source
			}
			if records[i].Kind != records[j].Kind {
				return records[i].Kind < records[j].Kind
			}
			return !records[i].TypeOnly && records[j].TypeOnly
		})
		lines := make([]string, len(records))
		for i, r := range records {
			lines[i] = r.Render()
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

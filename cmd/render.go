package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/imports"
	"github.com/heshanpadmasiri/cy2pw/pageobject"
)

// RenderImports prints the organized imports of a file followed by the
// removed and merged ones.
func RenderImports(w io.Writer, a imports.Analysis) {
	if organized := imports.Organize(a); organized != "" {
		fmt.Fprintln(w, organized)
	}
	if len(a.SourceFrameworkOnly) > 0 {
		fmt.Fprintln(w, "\nremoved:")
		for _, r := range a.SourceFrameworkOnly {
			fmt.Fprintf(w, "  line %d: %s (%s)\n", r.Line, r.Source, r.RemovalReason)
		}
	}
	if len(a.DuplicateGroups) > 0 {
		fmt.Fprintln(w, "\nmerged:")
		for _, g := range a.DuplicateGroups {
			if g.Mixed {
				fmt.Fprintf(w, "  %s (%d imports, different forms kept apart)\n", g.Source, len(g.Records))
				continue
			}
			fmt.Fprintf(w, "  %s (%d imports)\n", g.Source, len(g.Records))
		}
	}
	for _, warning := range a.Warnings {
		fmt.Fprintln(w, "warning: "+warning.String())
	}
}

// RenderPageObject prints the analysis of a page-object module.
func RenderPageObject(w io.Writer, r pageobject.Result) {
	if !r.IsPageObject {
		fmt.Fprintf(w, "%s: no page-object class\n", r.Path)
		return
	}
	fmt.Fprintf(w, "class %s (export: %s)\n", r.ClassName, r.ExportKind)
	for _, p := range r.Properties {
		fmt.Fprintf(w, "  property %s\n", p.Name)
	}
	for _, m := range r.Methods {
		var flags []string
		for _, f := range []struct {
			set  bool
			name string
		}{{m.Static, "static"}, {m.Async, "async"}, {m.Getter, "getter"}, {m.Setter, "setter"}, {m.Generator, "generator"}} {
			if f.set {
				flags = append(flags, f.name)
			}
		}
		line := fmt.Sprintf("  %-10s %s(%s)", m.Classification, m.Name, strings.Join(m.Params, ", "))
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, " ") + "]"
		}
		fmt.Fprintln(w, line)
	}
}

package runner

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/config"
	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/imports"
	"github.com/heshanpadmasiri/cy2pw/pageobject"
	"github.com/heshanpadmasiri/cy2pw/playwright"
	"github.com/heshanpadmasiri/cy2pw/structure"
)

// Kind is the role of an input file.
type Kind int

const (
	KindSpec Kind = iota
	KindPageObject
	KindSupport
)

func (k Kind) String() string {
	switch k {
	case KindSpec:
		return "spec"
	case KindPageObject:
		return "page-object"
	default:
		return "support"
	}
}

var (
	scriptExtensions = map[string]bool{".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true, ".cjs": true}
	specSuffix       = regexp.MustCompile(`\.cy\.(?:js|jsx|ts|tsx)$`)
	specFolders      = map[string]bool{"e2e": true, "integration": true}
	pageFolders      = map[string]bool{"pages": true, "page-objects": true, "pageObjects": true, "support": true}
)

// Classify decides how a file is converted. ok is false for files that are
// not converted at all.
func Classify(path string, src []byte, namespace string) (kind Kind, ok bool) {
	slashed := filepath.ToSlash(path)
	if !scriptExtensions[filepath.Ext(slashed)] || strings.HasSuffix(slashed, ".d.ts") {
		return 0, false
	}
	if specSuffix.MatchString(slashed) {
		return KindSpec, true
	}
	inSpecFolder, inPageFolder := false, false
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Dir(slashed)), "/") {
		inSpecFolder = inSpecFolder || specFolders[segment]
		inPageFolder = inPageFolder || pageFolders[segment]
	}
	if inSpecFolder {
		return KindSpec, true
	}
	r, err := pageobject.Analyze(src, path, pageobject.Options{Namespace: namespace})
	if err == nil && r.IsPageObject {
		return KindPageObject, true
	}
	if inPageFolder {
		return KindSupport, true
	}
	return 0, false
}

// Result is the converted text of one file.
type Result struct {
	Code     string
	Warnings []diagnostics.Warning
	// Methods is set for page objects.
	Methods []pageobject.MethodOutcome
}

// Converter converts single files. It holds no per-file state and is safe for
// concurrent use.
type Converter struct {
	cfg     config.Config
	renamer Renamer
}

// NewConverter creates a converter for the given configuration.
func NewConverter(cfg config.Config) *Converter {
	return &Converter{cfg: cfg, renamer: NewRenamer(cfg)}
}

// Convert converts src according to its kind. path and target are project
// relative and used to recompute relative imports.
func (c *Converter) Convert(src []byte, path, target string, kind Kind) (Result, error) {
	if kind == KindPageObject {
		return c.PageObject(src, path, target)
	}
	return c.Spec(src, path, target)
}

// Spec converts a spec or support file.
func (c *Converter) Spec(src []byte, path, target string) (Result, error) {
	suites, err := cypress.Parse(src, path, c.cfg.Parser())
	if err != nil {
		return Result{}, err
	}
	out := structure.Convert(suites, c.cfg.Structure())
	analysis := imports.Analyze(src, path, c.importOptions(target))
	body := out.Code
	var names []string
	if strings.Contains(body, "test(") || strings.Contains(body, "test.") {
		names = append(names, "test")
	}
	if strings.Contains(body, "expect(") {
		names = append(names, "expect")
	}
	if len(names) > 0 {
		analysis.Add(imports.TargetModule, names...)
	}
	file := &playwright.File{
		Header:  c.cfg.LicenseHeader,
		Imports: imports.Organize(analysis),
		Body:    out.Elements,
	}
	return Result{
		Code:     file.ToSource(),
		Warnings: append(analysis.Warnings, out.Warnings...),
	}, nil
}

// PageObject converts a page-object module. Files without a page-object class
// are converted like support files.
func (c *Converter) PageObject(src []byte, path, target string) (Result, error) {
	r, err := pageobject.Analyze(src, path, c.cfg.Analyzer())
	if err != nil {
		return Result{}, err
	}
	if !r.IsPageObject {
		return c.Spec(src, path, target)
	}
	out := pageobject.Transform(r, c.cfg.Transformer())
	analysis := imports.Analyze(src, path, c.importOptions(target))
	if len(out.TargetImports) > 0 {
		analysis.Add(imports.TargetModule, out.TargetImports...)
	}
	file := &playwright.File{
		Header:  c.cfg.LicenseHeader,
		Imports: imports.Organize(analysis),
		Body:    out.Elements,
	}
	return Result{
		Code:     file.ToSource(),
		Warnings: append(analysis.Warnings, out.Warnings...),
		Methods:  out.Methods,
	}, nil
}

func (c *Converter) importOptions(target string) imports.Options {
	opts := c.cfg.Imports()
	if target != "" {
		opts.TargetPath = filepath.ToSlash(target)
		opts.Relocate = c.renamer.Target
	}
	return opts
}

// Package config loads conversion settings from Config.toml
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/imports"
	"github.com/heshanpadmasiri/cy2pw/mapping"
	"github.com/heshanpadmasiri/cy2pw/pageobject"
	"github.com/heshanpadmasiri/cy2pw/playwright"
	"github.com/heshanpadmasiri/cy2pw/structure"
)

// FileName is the configuration file looked up in the project directory.
const FileName = "Config.toml"

//go:embed schema.json
var schemaJSON string

// Renames holds the spec file suffix rename.
type Renames struct {
	SuffixFrom string `toml:"suffix_from"`
	SuffixTo   string `toml:"suffix_to"`
}

// Config represents conversion configuration
type Config struct {
	Namespace            string            `toml:"namespace"`
	PageVar              string            `toml:"page_var"`
	TestIDAttributes     []string          `toml:"test_id_attributes"`
	PlaywrightTestID     string            `toml:"playwright_test_id_attribute"`
	ConvertAssertions    bool              `toml:"convert_assertions"`
	ConstructorInjection bool              `toml:"constructor_injection"`
	PreserveMocking      bool              `toml:"preserve_mocking"`
	MaxParentDepth       int               `toml:"max_parent_depth"`
	RootAlias            string            `toml:"root_alias"`
	RootDir              string            `toml:"root_dir"`
	PathAllowList        []string          `toml:"path_allow_list"`
	LicenseHeader        string            `toml:"license_header"`
	Jobs                 int               `toml:"jobs"`
	Timeout              string            `toml:"timeout"`
	Ledger               string            `toml:"ledger"`
	Renames              Renames           `toml:"renames"`
	Directories          map[string]string `toml:"directories"`
}

// Default returns the configuration used when no Config.toml exists.
func Default() Config {
	return Config{
		Namespace:            cypress.DefaultNamespace,
		PageVar:              playwright.PageVar,
		TestIDAttributes:     append([]string{}, mapping.DefaultTestIDAttributes...),
		PlaywrightTestID:     mapping.DefaultPlaywrightTestIDAttribute,
		ConvertAssertions:    true,
		ConstructorInjection: true,
		PreserveMocking:      true,
		MaxParentDepth:       imports.DefaultOptions().MaxParentDepth,
		Jobs:                 4,
		Timeout:              "30s",
		Ledger:               filepath.Join(".cy2pw", "ledger.db"),
		Renames:              Renames{SuffixFrom: ".cy.", SuffixTo: ".spec."},
		Directories: map[string]string{
			"cypress/e2e":          "tests",
			"cypress/integration":  "tests",
			"cypress/support":      "tests/support",
			"cypress/fixtures":     "tests/fixtures",
			"cypress/pages":        "tests/pages",
			"cypress/page-objects": "tests/pages",
			"cypress/pageObjects":  "tests/pages",
		},
	}
}

// Load reads Config.toml from dir. A missing file yields the defaults.
func Load(dir string) (Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads a configuration file. Keys present in the file override the
// defaults; the file is validated against the embedded schema first.
func LoadFile(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := Validate(data); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	// tables in the file replace the default tables
	c.Directories = nil
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decoding %s: %w", path, err)
	}
	if c.Directories == nil {
		c.Directories = Default().Directories
	}
	return c, nil
}

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Validate checks a TOML document against the configuration schema.
func Validate(data []byte) error {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding toml: %w", err)
	}
	// the validator expects JSON values
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TimeoutDuration returns the per-file timeout. Zero means no timeout.
func (c Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Mapping returns the mapper options for test files.
func (c Config) Mapping() mapping.Options {
	return mapping.Options{
		PageVar:                   c.PageVar,
		Namespace:                 c.Namespace,
		TestIDAttributes:          c.TestIDAttributes,
		PlaywrightTestIDAttribute: c.PlaywrightTestID,
		ConvertAssertions:         c.ConvertAssertions,
	}
}

// Parser returns the source parser options.
func (c Config) Parser() cypress.Options {
	return cypress.Options{Namespace: c.Namespace}
}

// Structure returns the structure converter options.
func (c Config) Structure() structure.Options {
	return structure.Options{Mapping: c.Mapping()}
}

// Analyzer returns the page-object analyzer options.
func (c Config) Analyzer() pageobject.Options {
	return pageobject.Options{Namespace: c.Namespace}
}

// Transformer returns the page-object transformer options.
func (c Config) Transformer() pageobject.TransformOptions {
	return pageobject.TransformOptions{
		Mapping:              c.Mapping(),
		ConstructorInjection: c.ConstructorInjection,
		PreserveMocking:      c.PreserveMocking,
	}
}

// Imports returns the import analyzer options, without per-file relocation.
func (c Config) Imports() imports.Options {
	return imports.Options{
		MaxParentDepth: c.MaxParentDepth,
		AllowList:      c.PathAllowList,
		RootAlias:      c.RootAlias,
		RootDir:        c.RootDir,
	}
}

// DirectoryRules returns the directory remaps, longest source folder first so
// nested folders win over their parents.
func (c Config) DirectoryRules() [][2]string {
	rules := make([][2]string, 0, len(c.Directories))
	for from, to := range c.Directories {
		rules = append(rules, [2]string{strings.Trim(filepath.ToSlash(from), "/"), strings.Trim(filepath.ToSlash(to), "/")})
	}
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i][0]) != len(rules[j][0]) {
			return len(rules[i][0]) > len(rules[j][0])
		}
		return rules[i][0] < rules[j][0]
	})
	return rules
}

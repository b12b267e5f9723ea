package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, 30*time.Second, c.TimeoutDuration())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := writeConfig(t, `
namespace = "cmd"
convert_assertions = false
test_id_attributes = ["data-qa"]
playwright_test_id_attribute = "data-qa"
license_header = "// Copyright Acme"
jobs = 2
timeout = "1m30s"

[renames]
suffix_from = ".e2e."
suffix_to = ".test."

[directories]
"cypress/e2e" = "playwright"
`)
	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "cmd", c.Namespace)
	assert.False(t, c.ConvertAssertions)
	assert.True(t, c.ConstructorInjection)
	assert.Equal(t, []string{"data-qa"}, c.TestIDAttributes)
	assert.Equal(t, "// Copyright Acme", c.LicenseHeader)
	assert.Equal(t, 2, c.Jobs)
	assert.Equal(t, 90*time.Second, c.TimeoutDuration())
	assert.Equal(t, Renames{SuffixFrom: ".e2e.", SuffixTo: ".test."}, c.Renames)
	assert.Equal(t, map[string]string{"cypress/e2e": "playwright"}, c.Directories)
	assert.Equal(t, "page", c.PageVar)

	m := c.Mapping()
	assert.Equal(t, "cmd", m.Namespace)
	assert.False(t, m.ConvertAssertions)
	assert.Equal(t, "data-qa", m.PlaywrightTestIDAttribute)
	assert.Equal(t, "cmd", c.Transformer().Mapping.Namespace)
}

func TestLoad_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "colour = \"red\"\n",
		"wrong type":    "jobs = \"four\"\n",
		"zero jobs":     "jobs = 0\n",
		"bad timeout":   "timeout = \"soon\"\n",
		"bad namespace": "namespace = \"cy.x\"\n",
		"bad toml":      "jobs = \n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestDirectoryRules_LongestFirst(t *testing.T) {
	c := Default()
	c.Directories = map[string]string{
		"cypress":         "pw",
		"cypress/e2e/":    "tests",
		"cypress/support": "tests/support",
	}
	assert.Equal(t, [][2]string{
		{"cypress/support", "tests/support"},
		{"cypress/e2e", "tests"},
		{"cypress", "pw"},
	}, c.DirectoryRules())
}

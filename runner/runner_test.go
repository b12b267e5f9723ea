package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heshanpadmasiri/cy2pw/config"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/ledger"
)

const loginSpec = `import LoginPage from '../pages/LoginPage';

describe('Login', () => {
  it('works', () => {
    cy.visit('/login');
  });
});
`

const loginSpecOut = `import { test } from '@playwright/test';

import LoginPage from './pages/LoginPage';

test.describe('Login', () => {
  test('works', async ({ page }) => {
    await page.goto('/login');
  });
});
`

const loginPage = `class LoginPage {
  visit() {
    cy.visit('/login');
  }
}

export default LoginPage;
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func project(t *testing.T) string {
	return writeProject(t, map[string]string{
		"cypress/e2e/login.cy.js":     loginSpec,
		"cypress/pages/LoginPage.js":  loginPage,
		"cypress/fixtures/user.json":  `{"name": "bob"}`,
		"node_modules/x/e2e/a.cy.js":  loginSpec,
		"src/app.js":                  "export const x = 1;\n",
		"cypress/e2e/types.d.ts":      "declare const x: number;\n",
		"cypress/support/commands.js": "Cypress.Commands.add('login', () => {\n  cy.visit('/login');\n});\n",
	})
}

func TestRenamer(t *testing.T) {
	r := NewRenamer(config.Default())
	assert.Equal(t, filepath.FromSlash("tests/auth/login.spec.ts"), r.Target("cypress/e2e/auth/login.cy.ts"))
	assert.Equal(t, filepath.FromSlash("tests/pages/LoginPage.js"), r.Target("cypress/pages/LoginPage.js"))
	assert.Equal(t, filepath.FromSlash("tests/support"), r.Directory("cypress/support"))
	assert.Equal(t, "other/x.js", r.Directory("other/x.js"))
	assert.Equal(t, "a.cy.spec.js", r.Suffix("a.cy.cy.js"))
	assert.Equal(t, "login.js", r.Suffix("login.js"))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		src  string
		kind Kind
		ok   bool
	}{
		{"cypress/e2e/login.cy.js", loginSpec, KindSpec, true},
		{"specs/login.cy.ts", loginSpec, KindSpec, true},
		{"cypress/integration/old.js", loginSpec, KindSpec, true},
		{"cypress/pages/LoginPage.js", loginPage, KindPageObject, true},
		{"lib/LoginPage.js", loginPage, KindPageObject, true},
		{"cypress/support/commands.js", "Cypress.Commands.add('x', () => {});\n", KindSupport, true},
		{"src/app.js", "export const x = 1;\n", 0, false},
		{"cypress/e2e/types.d.ts", "declare const x: number;\n", 0, false},
		{"cypress/fixtures/user.json", "{}", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			kind, ok := Classify(tc.path, []byte(tc.src), "cy")
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.kind, kind)
			}
		})
	}
}

func TestConverter_Spec(t *testing.T) {
	c := NewConverter(config.Default())
	res, err := c.Convert([]byte(loginSpec), "cypress/e2e/login.cy.js", "tests/login.spec.js", KindSpec)
	require.NoError(t, err)
	assert.Equal(t, loginSpecOut, res.Code)
	assert.Empty(t, res.Warnings)
}

func TestConverter_SpecDropsCypressImportsAndAddsExpect(t *testing.T) {
	c := NewConverter(config.Default())
	src := `/// <reference types="cypress" />
import 'cypress-real-events';

it('shows title', () => {
  cy.get('h1').should('be.visible');
});
`
	res, err := c.Convert([]byte(src), "cypress/e2e/title.cy.js", "tests/title.spec.js", KindSpec)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "import { test, expect } from '@playwright/test';\n")
	assert.NotContains(t, res.Code, "cypress")
	assert.Contains(t, res.Code, "await expect(page.locator('h1')).toBeVisible();")
}

func TestConverter_LicenseHeader(t *testing.T) {
	cfg := config.Default()
	cfg.LicenseHeader = "// Copyright Example"
	res, err := NewConverter(cfg).Convert([]byte(loginSpec), "cypress/e2e/login.cy.js", "tests/login.spec.js", KindSpec)
	require.NoError(t, err)
	assert.Equal(t, "// Copyright Example\n\n"+loginSpecOut, res.Code)
}

func TestConverter_PageObject(t *testing.T) {
	c := NewConverter(config.Default())
	res, err := c.Convert([]byte(loginPage), "cypress/pages/LoginPage.js", "tests/pages/LoginPage.js", KindPageObject)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "  constructor(page) {\n    this.page = page;\n  }")
	assert.Contains(t, res.Code, "  async visit() {\n    await this.page.goto('/login');\n  }")
	assert.Contains(t, res.Code, "export default LoginPage;")
	require.Len(t, res.Methods, 1)
	assert.True(t, res.Methods[0].Success)
}

func TestConverter_SyntaxError(t *testing.T) {
	_, err := NewConverter(config.Default()).Convert([]byte("describe('x', () => {"), "a.cy.js", "a.spec.js", KindSpec)
	require.Error(t, err)
	assert.True(t, diagnostics.IsSyntaxError(err))
}

func TestDiscover(t *testing.T) {
	root := project(t)
	r := New(config.Default(), Options{Root: root})
	jobs, err := r.Discover(nil)
	require.NoError(t, err)

	var got [][3]string
	for _, j := range jobs {
		got = append(got, [3]string{j.Path, j.Target, j.Kind.String()})
	}
	assert.Equal(t, [][3]string{
		{"cypress/e2e/login.cy.js", "tests/login.spec.js", "spec"},
		{"cypress/pages/LoginPage.js", "tests/pages/LoginPage.js", "page-object"},
		{"cypress/support/commands.js", "tests/support/commands.js", "support"},
	}, got)
}

func TestDiscover_SkipsJobsThatWouldOverwriteTheirSource(t *testing.T) {
	root := writeProject(t, map[string]string{"e2e/helper.js": loginSpec})
	cfg := config.Default()
	cfg.Directories = map[string]string{}
	cfg.Renames = config.Renames{}
	jobs, err := New(cfg, Options{Root: root}).Discover(nil)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRun_WritesConvertedTree(t *testing.T) {
	root := project(t)
	cfg := config.Default()
	cfg.Jobs = 2
	reports, err := New(cfg, Options{Root: root}).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "cypress/e2e/login.cy.js", reports[0].Path)
	assert.Equal(t, diagnostics.StatusSuccess, reports[0].Status)

	data, err := os.ReadFile(filepath.Join(root, "tests", "login.spec.js"))
	require.NoError(t, err)
	assert.Equal(t, loginSpecOut, string(data))
	assert.FileExists(t, filepath.Join(root, "tests", "pages", "LoginPage.js"))

	// the source tree is untouched
	data, err = os.ReadFile(filepath.Join(root, "cypress", "e2e", "login.cy.js"))
	require.NoError(t, err)
	assert.Equal(t, loginSpec, string(data))
}

func TestRun_OutDir(t *testing.T) {
	root := project(t)
	out := t.TempDir()
	_, err := New(config.Default(), Options{Root: root, OutDir: out}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "tests", "login.spec.js"))
	assert.NoDirExists(t, filepath.Join(root, "tests"))
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	root := project(t)
	reports, err := New(config.Default(), Options{Root: root, DryRun: true}).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.NoDirExists(t, filepath.Join(root, "tests"))
}

func TestRun_SingleFile(t *testing.T) {
	root := project(t)
	reports, err := New(config.Default(), Options{Root: root, DryRun: true}).
		Run(context.Background(), []string{filepath.Join(root, "cypress", "e2e", "login.cy.js")})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "tests/login.spec.js", reports[0].Target)
}

func TestRun_LedgerSkipsUnchangedFiles(t *testing.T) {
	ctx := context.Background()
	root := project(t)
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	r := New(config.Default(), Options{Root: root, Ledger: l})
	reports, err := r.Run(ctx, nil)
	require.NoError(t, err)
	for _, report := range reports {
		assert.NotEqual(t, diagnostics.StatusSkipped, report.Status, report.Path)
	}

	reports, err = r.Run(ctx, nil)
	require.NoError(t, err)
	for _, report := range reports {
		assert.Equal(t, diagnostics.StatusSkipped, report.Status, report.Path)
	}

	spec := filepath.Join(root, "cypress", "e2e", "login.cy.js")
	require.NoError(t, os.WriteFile(spec, []byte(loginSpec+"\n"), 0o644))
	reports, err = r.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, diagnostics.StatusSuccess, reports[0].Status)
	assert.Equal(t, diagnostics.StatusSkipped, reports[1].Status)

	forced := New(config.Default(), Options{Root: root, Ledger: l, Force: true})
	reports, err = forced.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, diagnostics.StatusSuccess, reports[0].Status)

	entries, err := l.Latest(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRun_CanceledContextWritesNothing(t *testing.T) {
	root := project(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := New(config.Default(), Options{Root: root}).Run(ctx, nil)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, report := range reports {
		assert.Equal(t, diagnostics.StatusFailed, report.Status)
		assert.True(t, IsCanceled(report))
	}
	assert.NoDirExists(t, filepath.Join(root, "tests"))
}

func TestRun_SyntaxErrorIsReportedPerFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		"cypress/e2e/bad.cy.js":  "describe('x', () => {",
		"cypress/e2e/good.cy.js": loginSpec,
	})
	reports, err := New(config.Default(), Options{Root: root}).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, diagnostics.StatusFailed, reports[0].Status)
	assert.True(t, diagnostics.IsSyntaxError(reports[0].Err))
	assert.Equal(t, diagnostics.StatusSuccess, reports[1].Status)
	assert.NoFileExists(t, filepath.Join(root, "tests", "bad.spec.js"))
	assert.FileExists(t, filepath.Join(root, "tests", "good.spec.js"))
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "a.spec.js")
	require.NoError(t, writeAtomic(context.Background(), target, []byte("x")))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	other := filepath.Join(dir, "nested", "b.spec.js")
	err = writeAtomic(ctx, other, []byte("y"))
	require.ErrorIs(t, err, diagnostics.ErrCanceled)
	assert.NoFileExists(t, other)

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIsOutput(t *testing.T) {
	root := t.TempDir()
	r := New(config.Default(), Options{Root: root})
	assert.True(t, r.isOutput(filepath.Join(root, "tests", "login.spec.js")))
	assert.True(t, r.isOutput(filepath.Join(root, "cypress", "e2e", ".cy2pw-123")))
	assert.False(t, r.isOutput(filepath.Join(root, "cypress", "e2e", "login.cy.js")))
}

package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
)

func analyze(src string) Analysis {
	return Analyze([]byte(src), "cypress/e2e/login.cy.js", DefaultOptions())
}

func TestAnalyze_MergesDuplicateSources(t *testing.T) {
	a := analyze("import {a} from 'm'\nimport {b,a} from 'm'\n")
	require.Len(t, a.Imports, 2)
	require.Len(t, a.DuplicateGroups, 1)
	assert.Equal(t, "m", a.DuplicateGroups[0].Source)
	require.Len(t, a.Legitimate, 1)
	assert.Equal(t, []string{"a", "b"}, a.Legitimate[0].Named)
	assert.Equal(t, "import { a, b } from 'm';", Organize(a))
}

func TestAnalyze_MixedFormsAreReportedNotMerged(t *testing.T) {
	a := analyze("import {a} from 'm'\nconst {b} = require('m')\nimport {c} from 'm'\n")
	require.Len(t, a.DuplicateGroups, 1)
	g := a.DuplicateGroups[0]
	assert.Equal(t, "m", g.Source)
	assert.True(t, g.Mixed)
	require.Len(t, g.Records, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{g.Records[0].Line, g.Records[1].Line, g.Records[2].Line})
	assert.Equal(t, KindRequire, g.Records[1].Kind)

	require.Len(t, a.Legitimate, 2)
	assert.Equal(t, KindImport, a.Legitimate[0].Kind)
	assert.Equal(t, []string{"a", "c"}, a.Legitimate[0].Named)
	assert.Equal(t, KindRequire, a.Legitimate[1].Kind)

	a = analyze("import {a} from 'm'\nimport {b} from 'n'\n")
	assert.Empty(t, a.DuplicateGroups)
}

func TestAnalyze_MergeOrder(t *testing.T) {
	a := analyze("import {a, b} from 'm'\nimport {b, c} from 'm'\n")
	assert.Equal(t, []string{"a", "b", "c"}, a.Legitimate[0].Named)

	a = analyze("import { z, y } from 'm'\nimport Def, { x, d } from 'm'\nimport Other from 'm'\n")
	merged := a.Legitimate[0]
	assert.Equal(t, []string{"z", "y", "d", "x"}, merged.Named)
	assert.Equal(t, "Def", merged.Default)
}

func TestAnalyze_SourceFrameworkImportsAreRemoved(t *testing.T) {
	a := analyze(`/// <reference types="cypress" />
import 'cypress-real-events'
import { mount } from '@cypress/react'
const chai = require('chai')
import { format } from 'date-fns'
`)
	require.Len(t, a.SourceFrameworkOnly, 4)
	for _, r := range a.SourceFrameworkOnly {
		assert.NotEmpty(t, r.RemovalReason, r.Raw)
		assert.Equal(t, CategorySourceFramework, r.Category)
	}
	require.Len(t, a.Legitimate, 1)
	assert.Equal(t, "date-fns", a.Legitimate[0].Source)
}

func TestAnalyze_Categories(t *testing.T) {
	a := analyze(`import fs from 'fs'
import { readFile } from 'node:fs/promises'
import { test } from '@playwright/test'
import lodash from 'lodash'
import { login } from './helpers'
`)
	var got []Category
	for _, r := range a.Legitimate {
		got = append(got, r.Category)
	}
	assert.Equal(t, []Category{CategoryBuiltin, CategoryBuiltin, CategoryTargetFramework, CategoryExternal, CategoryRelative}, got)
}

func TestOrganize_BlocksAndOrder(t *testing.T) {
	a := analyze(`import { login } from './helpers'
import lodash from 'lodash'
import * as path from 'path'
import { test, expect } from '@playwright/test'
import { b } from '../b'
import fs from 'fs'
`)
	want := `import fs from 'fs';
import * as path from 'path';

import { test, expect } from '@playwright/test';
import lodash from 'lodash';

import { b } from '../b';
import { login } from './helpers';`
	assert.Equal(t, want, Organize(a))
}

func TestOrganize_IsIdempotent(t *testing.T) {
	sources := []string{
		"import {a} from 'm'\nimport {b,a} from 'm'\n",
		"import Def, * as ns from \"m\"\nimport { x as y } from 'm'\nimport 'side-effect'\n",
		"const { a, b: c } = require('m')\nconst m = require('m')\nconst path = require('path')\n",
		"import type { User } from './types'\nimport { render } from './types'\n",
		"/// <reference path=\"./global.d.ts\" />\nimport x from 'x'\n",
	}
	for _, src := range sources {
		path := "spec.ts"
		once := Organize(Analyze([]byte(src), path, DefaultOptions()))
		twice := Organize(Analyze([]byte(once), path, DefaultOptions()))
		assert.Equal(t, once, twice, src)
	}
}

func TestAnalyze_UnparsableImportPassesThrough(t *testing.T) {
	a := analyze("import { a from 'm'\nimport { b } from 'n'\n")
	require.NotEmpty(t, a.Warnings)
	assert.Equal(t, diagnostics.KindImportParseFailure, a.Warnings[0].Kind)
	found := false
	for _, r := range a.Legitimate {
		if !r.Parsed {
			found = true
			assert.Contains(t, r.Render(), "import { a")
		}
	}
	assert.True(t, found)
}

func TestAnalyze_RequireStatements(t *testing.T) {
	a := analyze("const { login, logout } = require('./auth')\nconst dayjs = require('dayjs')\n")
	require.Len(t, a.Legitimate, 2)
	assert.Equal(t, KindRequire, a.Legitimate[0].Kind)
	assert.Equal(t, []string{"login", "logout"}, a.Legitimate[0].Named)
	assert.Equal(t, "const dayjs = require('dayjs');\n\nconst { login, logout } = require('./auth');", Organize(a))
}

func TestAdd(t *testing.T) {
	a := analyze("import { expect } from '@playwright/test'\n")
	a.Add(TargetModule, "test", "expect")
	require.Len(t, a.Legitimate, 1)
	assert.Equal(t, "import { expect, test } from '@playwright/test';", Organize(a))

	cjs := analyze("const helpers = require('./helpers')\n")
	cjs.Add(TargetModule, "test", "expect")
	assert.Equal(t, "const { test, expect } = require('@playwright/test');\n\nconst helpers = require('./helpers');", Organize(cjs))
}

func TestNormalizePath(t *testing.T) {
	opts := DefaultOptions()
	file := "project/a/b/c/d/spec.js"
	assert.Equal(t, "../../x", normalizePath("../../x", file, opts))
	assert.Equal(t, "../../../../lib/x", normalizePath("../../../../lib/../lib/x", file, opts))

	opts.RootAlias = "@"
	opts.RootDir = "project"
	assert.Equal(t, "@/lib/x", normalizePath("../../../../lib/x", file, opts))
	assert.Equal(t, "../x", normalizePath("../x", file, opts))

	opts.AllowList = []string{"../../../../vendor/"}
	assert.Equal(t, "../../../../vendor/y", normalizePath("../../../../vendor/y", file, opts))
}

func TestNormalizePath_Relocate(t *testing.T) {
	opts := DefaultOptions()
	opts.TargetPath = "tests/login.spec.js"
	opts.Relocate = func(p string) string {
		switch p {
		case "cypress/support/helpers":
			return "tests/support/helpers"
		}
		return p
	}
	assert.Equal(t, "./support/helpers", normalizePath("../support/helpers", "cypress/e2e/login.cy.js", opts))
}

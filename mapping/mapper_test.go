package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/jsast"
)

// commands parses a case body into invocations.
func commands(t *testing.T, body string) []cypress.Invocation {
	t.Helper()
	invs, err := cypress.ParseBody("{\n"+body+"\n}", jsast.JavaScript, cypress.DefaultOptions())
	require.NoError(t, err)
	return invs
}

func mapBody(t *testing.T, opts Options, body string) Result {
	t.Helper()
	return NewMapper(opts).MapAll(commands(t, body))
}

func TestMap_LoginScenario(t *testing.T) {
	invs, err := cypress.ParseBody(`{ cmd.visit('/login'); cmd.get('[data-testid="u"]').type('bob'); cmd.get('[data-testid="go"]').click(); }`,
		jsast.JavaScript, cypress.Options{Namespace: "cmd"})
	require.NoError(t, err)
	r := NewMapper(Options{Namespace: "cmd"}).MapAll(invs)
	assert.Equal(t, []string{
		"await page.goto('/login');",
		"await page.getByTestId('u').fill('bob');",
		"await page.getByTestId('go').click();",
	}, r.Statements)
	assert.Empty(t, r.Markers)
}

func TestMap_Commands(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"reload", "cy.reload()", []string{"await page.reload();"}},
		{"back", "cy.go('back')", []string{"await page.goBack();"}},
		{"forward", "cy.go(1)", []string{"await page.goForward();"}},
		{"wait", "cy.wait(500)", []string{"await page.waitForTimeout(500);"}},
		{"viewport", "cy.viewport(1280, 720)", []string{"await page.setViewportSize({ width: 1280, height: 720 });"}},
		{"log", "cy.log('hello', name)", []string{"console.log('hello', name);"}},
		{"screenshot", "cy.screenshot('home')", []string{"await page.screenshot({ path: 'home.png' });"}},
		{"clear cookies", "cy.clearCookies()", []string{"await page.context().clearCookies();"}},
		{"clear storage", "cy.clearLocalStorage()", []string{"await page.evaluate(() => localStorage.clear());"}},
		{"scroll", "cy.scrollTo('bottom')", []string{"await page.evaluate(() => window.scrollTo(0, document.body.scrollHeight));"}},
		{"pause", "cy.pause()", []string{"await page.pause();"}},
		{"bare get", "cy.get('#app')", []string{"await page.locator('#app').waitFor();"}},
		{"contains", "cy.contains('Welcome').click()", []string{"await page.getByText('Welcome').click();"}},
		{"contains with selector", "cy.contains('button', 'Save').click()", []string{"await page.locator('button').filter({ hasText: 'Save' }).click();"}},
		{"focused", "cy.focused().should('have.value', 'x')", []string{"await expect(page.locator(':focus')).toHaveValue('x');"}},
		{"request", "cy.request('/api/health')", []string{"await page.request.get('/api/health');"}},
		{"request with method", "cy.request('POST', '/api/users', { name: 'bob' })", []string{"await page.request.post('/api/users', { data: { name: 'bob' } });"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mapBody(t, DefaultOptions(), tt.body)
			assert.Equal(t, tt.want, r.Statements)
			assert.Empty(t, r.Markers)
		})
	}
}

func TestMap_ChainedActions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"type with enter", "cy.get('#q').type('cats{enter}')", []string{
			"await page.locator('#q').fill('cats');",
			"await page.locator('#q').press('Enter');",
		}},
		{"only a key", "cy.get('#q').type('{esc}')", []string{"await page.locator('#q').press('Escape');"}},
		{"text after key", "cy.get('#q').type('a{enter}b')", []string{
			"await page.locator('#q').fill('a');",
			"await page.locator('#q').press('Enter');",
			"await page.locator('#q').pressSequentially('b');",
		}},
		{"type expression", "cy.get('#q').type(user.name)", []string{"await page.locator('#q').fill(user.name);"}},
		{"clear then type", "cy.get('#q').clear().type('x')", []string{
			"await page.locator('#q').clear();",
			"await page.locator('#q').fill('x');",
		}},
		{"select", "cy.get('select').select('two')", []string{"await page.locator('select').selectOption('two');"}},
		{"check", "cy.get('[type=checkbox]').check()", []string{"await page.locator('[type=checkbox]').check();"}},
		{"forced click", "cy.get('#b').click({ force: true })", []string{"await page.locator('#b').click({ force: true });"}},
		{"right click", "cy.get('#b').rightclick()", []string{"await page.locator('#b').click({ button: 'right' });"}},
		{"hover trigger", "cy.get('#b').trigger('mouseover')", []string{"await page.locator('#b').hover();"}},
		{"other trigger", "cy.get('#b').trigger('change')", []string{"await page.locator('#b').dispatchEvent('change');"}},
		{"find and index", "cy.get('ul').find('li').eq(2).click()", []string{"await page.locator('ul').locator('li').nth(2).click();"}},
		{"find test id", "cy.get('form').find('[data-cy=\"submit\"]').click()", []string{"await page.locator('form').locator('[data-cy=\"submit\"]').click();"}},
		{"first and last", "cy.get('li').first().click()", []string{"await page.locator('li').first().click();"}},
		{"alias is dropped", "cy.get('#b').as('button').click()", []string{"await page.locator('#b').click();"}},
		{"scroll into view", "cy.get('#b').scrollIntoView()", []string{"await page.locator('#b').scrollIntoViewIfNeeded();"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mapBody(t, DefaultOptions(), tt.body)
			assert.Equal(t, tt.want, r.Statements)
			assert.Empty(t, r.Markers)
		})
	}
}

func TestMap_Assertions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"visible", "cy.get('#m').should('be.visible')", []string{"await expect(page.locator('#m')).toBeVisible();"}},
		{"negated", "cy.get('#m').should('not.exist')", []string{"await expect(page.locator('#m')).not.toBeAttached();"}},
		{"text and", "cy.get('h1').should('have.text', 'Hi').and('be.visible')", []string{
			"await expect(page.locator('h1')).toHaveText('Hi');",
			"await expect(page.locator('h1')).toBeVisible();",
		}},
		{"length", "cy.get('li').should('have.length', 3)", []string{"await expect(page.locator('li')).toHaveCount(3);"}},
		{"length above", "cy.get('li').should('have.length.gt', 1)", []string{"expect(await page.locator('li').count()).toBeGreaterThan(1);"}},
		{"class", "cy.get('li').should('have.class', 'active')", []string{"await expect(page.locator('li')).toHaveClass(/(^|\\s)active(\\s|$)/);"}},
		{"attr", "cy.get('a').should('have.attr', 'href', '/home')", []string{"await expect(page.locator('a')).toHaveAttribute('href', '/home');"}},
		{"url include", "cy.url().should('include', '/dashboard')", []string{"await expect(page).toHaveURL(/\\/dashboard/);"}},
		{"url eq", "cy.url().should('eq', 'http://localhost/')", []string{"await expect(page).toHaveURL('http://localhost/');"}},
		{"title", "cy.title().should('eq', 'Home')", []string{"await expect(page).toHaveTitle('Home');"}},
		{"location", "cy.location('pathname').should('eq', '/a')", []string{"expect(new URL(page.url()).pathname).toBe('/a');"}},
		{"wrap", "cy.wrap(items).should('have.length', 2)", []string{"expect(items).toHaveLength(2);"}},
		{"request status", "cy.request('/api').its('status').should('eq', 200)", []string{
			"const response = await page.request.get('/api');",
			"expect(response.status()).toBe(200);",
		}},
		{"assert then act", "cy.get('#b').should('be.enabled').click()", []string{
			"await expect(page.locator('#b')).toBeEnabled();",
			"await page.locator('#b').click();",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mapBody(t, DefaultOptions(), tt.body)
			assert.Equal(t, tt.want, r.Statements)
			assert.Empty(t, r.Markers)
		})
	}
}

func TestMap_AssertionsDisabledLeaveMarkers(t *testing.T) {
	opts := DefaultOptions()
	opts.ConvertAssertions = false
	r := mapBody(t, opts, "cy.get('#b').should('be.visible').click()")
	require.Len(t, r.Markers, 1)
	assert.Contains(t, r.Markers[0], ".should('be.visible')")
	assert.Equal(t, "await page.locator('#b').click();", r.Statements[1])
}

func TestMap_UnknownChainedMethod(t *testing.T) {
	r := mapBody(t, DefaultOptions(), "cy.get('[data-testid=\"x\"]').frobnicate().click()")
	require.Len(t, r.Markers, 1)
	assert.True(t, diagnostics.IsMarker(r.Statements[0]))
	assert.Contains(t, r.Markers[0], "frobnicate")
	assert.Equal(t, []string{r.Markers[0], "await page.getByTestId('x').click();"}, r.Statements)
}

func TestMap_UnknownCommandSuggestsClosest(t *testing.T) {
	r := mapBody(t, DefaultOptions(), "cy.vist('/home')")
	require.Len(t, r.Markers, 1)
	assert.Contains(t, r.Markers[0], "unknown command vist")
	assert.Contains(t, r.Markers[0], "did you mean visit?")
	assert.Equal(t, r.Markers, r.Statements)
}

func TestMap_UnsupportedCommands(t *testing.T) {
	for _, body := range []string{
		"cy.fixture('user.json').then((u) => {})",
		"cy.task('db:seed')",
		"cy.get('@submit')",
		"cy.wait('@login')",
		"cy.get('li').each(($li) => {})",
		"cy.url()",
	} {
		r := mapBody(t, DefaultOptions(), body)
		assert.Len(t, r.Markers, 1, body)
	}
}

func TestMap_Intercept(t *testing.T) {
	r := mapBody(t, DefaultOptions(), "cy.intercept('GET', '/api/users', { statusCode: 200, body: [] }).as('users')")
	assert.Empty(t, r.Markers)
	assert.Equal(t, []string{strings.Join([]string{
		"await page.route('**/api/users', async (route) => {",
		"  if (route.request().method() !== 'GET') return route.fallback();",
		"  await route.fulfill({ status: 200, body: [] });",
		"});",
	}, "\n")}, r.Statements)
}

func TestMap_VerbatimStatements(t *testing.T) {
	r := mapBody(t, DefaultOptions(), "const name = Cypress.env('USER')\n// keep me")
	assert.Equal(t, []string{"const name = process.env.USER", "// keep me"}, r.Statements)
	assert.Empty(t, r.Markers)

	r = mapBody(t, DefaultOptions(), "const el = cy.get('#a')")
	require.Len(t, r.Markers, 1)
	assert.Equal(t, "// const el = cy.get('#a')", r.Statements[1])
}

func TestMap_NestedBlocks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"if else", "if (flag) {\n  cy.get('#a').click()\n} else cy.reload()",
			"if (flag) {\n  await page.locator('#a').click();\n} else {\n  await page.reload();\n}"},
		{"loop", "for (const path of paths) {\n  cy.visit(path)\n}",
			"for (const path of paths) {\n  await page.goto(path);\n}"},
		{"forEach", "users.forEach(u => cy.visit(u.url))",
			"for (const u of users) {\n  await page.goto(u.url);\n}"},
		{"forEach with index", "items.forEach((item, i) => {\n  cy.get(item).eq(i).click()\n})",
			"for (const [i, item] of items.entries()) {\n  await page.locator(item).nth(i).click();\n}"},
		{"helper function", "const open = () => {\n  cy.visit('/')\n}",
			"const open = async () => {\n  await page.goto('/');\n}"},
		{"nested twice", "if (a) {\n  if (b) {\n    cy.reload()\n  }\n}",
			"if (a) {\n  if (b) {\n    await page.reload();\n  }\n}"},
		{"env in condition", "if (Cypress.env('CI')) {\n  cy.reload()\n}",
			"if (process.env.CI) {\n  await page.reload();\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mapBody(t, DefaultOptions(), tt.body)
			assert.Equal(t, []string{tt.want}, r.Statements)
			assert.Empty(t, r.Markers)
		})
	}
}

func TestMap_NestedBlockMarkersAreKept(t *testing.T) {
	r := mapBody(t, DefaultOptions(), "if (flag) {\n  cy.fixture('user.json')\n}")
	require.Len(t, r.Markers, 1)
	require.Len(t, r.Statements, 1)
	assert.Contains(t, r.Statements[0], r.Markers[0])

	r = mapBody(t, DefaultOptions(), "while (cy.get('#x')) {\n  cy.reload()\n}")
	require.Len(t, r.Markers, 1)
	assert.Equal(t, "// while (cy.get('#x')) {", r.Statements[1])
}

func TestMap_Callbacks(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		markers int
	}{
		{"within", "cy.get('form').within(() => {\n  cy.get('input').type('bob')\n  cy.contains('Save').click()\n})", []string{
			"await page.locator('form').locator('input').fill('bob');",
			"await page.locator('form').getByText('Save').click();",
		}, 0},
		{"within keeps page commands", "cy.get('form').within(() => {\n  cy.visit('/')\n})", []string{
			"await page.goto('/');",
		}, 0},
		{"within with parameter", "cy.get('form').within(($form) => {\n  cy.wrap($form).submit()\n})", []string{
			"{\n  const $form = page.locator('form');\n  await $form.evaluate((form) => form.requestSubmit());\n}",
		}, 0},
		{"then on url", "cy.url().then((url) => {\n  cy.log(url)\n})", []string{
			"{\n  const url = page.url();\n  console.log(url);\n}",
		}, 0},
		{"then without parameter", "cy.reload().then(() => {\n  cy.visit('/')\n})", []string{
			"await page.reload();",
			"await page.goto('/');",
		}, 0},
		{"each", "cy.get('li').each(($li, i) => {\n  cy.wrap($li).click()\n})", []string{
			"for (const [i, $li] of (await page.locator('li').all()).entries()) {\n  await $li.click();\n}",
		}, 0},
		{"then with jquery use", "cy.get('h1').then(($h) => {\n  const text = $h.text()\n})", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mapBody(t, DefaultOptions(), tt.body)
			assert.Len(t, r.Markers, tt.markers)
			if tt.want != nil {
				assert.Equal(t, tt.want, r.Statements)
			}
		})
	}
}

func TestMap_TestIDAttributes(t *testing.T) {
	tests := []struct {
		attr       string
		playwright string
		want       string
	}{
		{"data-testid", "", "await page.getByTestId('save').click();"},
		{"data-test-id", "", "await page.locator('[data-test-id=\"save\"]').click();"},
		{"data-test", "", "await page.locator('[data-test=\"save\"]').click();"},
		{"data-cy", "", "await page.locator('[data-cy=\"save\"]').click();"},
		{"data-cy", "data-cy", "await page.getByTestId('save').click();"},
		{"data-testid", "data-cy", "await page.locator('[data-testid=\"save\"]').click();"},
	}
	for _, tt := range tests {
		t.Run(tt.attr+"/"+tt.playwright, func(t *testing.T) {
			r := mapBody(t, Options{PlaywrightTestIDAttribute: tt.playwright}, "cy.get('["+tt.attr+"=\"save\"]').click()")
			assert.Equal(t, []string{tt.want}, r.Statements)
			assert.Empty(t, r.Markers)
		})
	}
}

func TestMap_PageObjectScope(t *testing.T) {
	r := mapBody(t, Options{PageVar: "this.page"}, "cy.get('input[placeholder=\"Email\"]').type(email)")
	assert.Equal(t, []string{"await this.page.getByPlaceholder('Email').fill(email);"}, r.Statements)
}

func TestMap_ReturnedLocator(t *testing.T) {
	r := mapBody(t, DefaultOptions(), "return cy.get('[role=\"dialog\"]')")
	assert.Equal(t, []string{"return page.getByRole('dialog');"}, r.Statements)
}

func TestLocator(t *testing.T) {
	m := NewMapper(Options{PageVar: "this.page"})
	invs := commands(t, "cy.get('nav').find('[aria-label=\"Close\"]')\ncy.get('nav').click()\ncy.visit('/')")
	loc, ok := m.Locator(invs[0])
	require.True(t, ok)
	assert.Equal(t, "this.page.locator('nav').getByLabel('Close')", loc)
	_, ok = m.Locator(invs[1])
	assert.False(t, ok)
	_, ok = m.Locator(invs[2])
	assert.False(t, ok)
}

func TestMap_IsDeterministic(t *testing.T) {
	body := "cy.vist('/')\ncy.get('#a').type('x{enter}').should('have.value', '')"
	first := mapBody(t, DefaultOptions(), body)
	for range 5 {
		assert.Equal(t, first, mapBody(t, DefaultOptions(), body))
	}
}

package mapping

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		selector string
		want     Descriptor
	}{
		{`[data-testid="save"]`, Descriptor{Raw: `[data-testid="save"]`, Attributes: map[string]string{"data-testid": "save"}, Simple: true}},
		{`button[role='tab'][aria-label=Next]`, Descriptor{
			Raw: `button[role='tab'][aria-label=Next]`, Tag: "button",
			Attributes: map[string]string{"role": "tab", "aria-label": "Next"}, Simple: true,
		}},
		{`[data-cy^="row-"]`, Descriptor{Raw: `[data-cy^="row-"]`, Attributes: map[string]string{}, Simple: false}},
		{`#main .item`, Descriptor{Raw: `#main .item`, Attributes: map[string]string{}}},
		{`input[disabled]`, Descriptor{Raw: `input[disabled]`, Tag: "input", Attributes: map[string]string{}, Simple: true}},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseSelector(tt.selector)); diff != "" {
				t.Errorf("ParseSelector() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChoose_Priority(t *testing.T) {
	tests := []struct {
		selector string
		strategy Strategy
		expr     string
	}{
		{`[data-testid="x"][role="button"][aria-label="X"]`, StrategyTestID, "page.getByTestId('x')"},
		{`[role="button"][aria-label="X"][placeholder="p"]`, StrategyRole, "page.getByRole('button')"},
		{`[aria-label="X"][placeholder="p"]`, StrategyLabel, "page.getByLabel('X')"},
		{`input[placeholder="Search"]`, StrategyPlaceholder, "page.getByPlaceholder('Search')"},
		{`.btn-primary`, StrategyLocator, "page.locator('.btn-primary')"},
		{`[data-testid="x"] > span`, StrategyLocator, `page.locator('[data-testid="x"] > span')`},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			loc := Choose(ParseSelector(tt.selector), DefaultTestIDAttributes, DefaultPlaywrightTestIDAttribute)
			assert.Equal(t, tt.strategy, loc.Strategy)
			assert.Equal(t, tt.expr, loc.Expr("page"))
		})
	}
}

func TestChoose_HighestPriorityWins(t *testing.T) {
	attrs := []struct {
		filter   string
		strategy Strategy
		expr     string
	}{
		{`[data-testid="t"]`, StrategyTestID, "page.getByTestId('t')"},
		{`[role="button"]`, StrategyRole, "page.getByRole('button')"},
		{`[aria-label="L"]`, StrategyLabel, "page.getByLabel('L')"},
		{`[placeholder="P"]`, StrategyPlaceholder, "page.getByPlaceholder('P')"},
	}
	for set := 0; set < 1<<len(attrs); set++ {
		selector := "input"
		wantStrategy, wantExpr := StrategyLocator, "page.locator('input')"
		for i := len(attrs) - 1; i >= 0; i-- {
			if set&(1<<i) == 0 {
				continue
			}
			selector = "input" + attrs[i].filter + strings.TrimPrefix(selector, "input")
			wantStrategy, wantExpr = attrs[i].strategy, attrs[i].expr
		}
		t.Run(selector, func(t *testing.T) {
			loc := Choose(ParseSelector(selector), DefaultTestIDAttributes, DefaultPlaywrightTestIDAttribute)
			assert.Equal(t, wantStrategy, loc.Strategy)
			assert.Equal(t, wantExpr, loc.Expr("page"))
		})
	}
}

func TestChoose_TestIDAttributeOrder(t *testing.T) {
	d := ParseSelector(`[data-cy="cy-id"][data-testid="test-id"]`)
	assert.Equal(t, "page.getByTestId('test-id')", Choose(d, DefaultTestIDAttributes, "data-testid").Expr("page"))
	assert.Equal(t, `page.locator('[data-cy="cy-id"]')`, Choose(d, []string{"data-cy"}, "data-testid").Expr("page"))
	assert.Equal(t, "page.getByTestId('cy-id')", Choose(d, []string{"data-cy"}, "data-cy").Expr("page"))
}

func TestChoose_OnlyPlaywrightAttributeUsesGetByTestId(t *testing.T) {
	tests := []struct {
		attr string
		want string
	}{
		{"data-testid", "page.getByTestId('x')"},
		{"data-test-id", `page.locator('[data-test-id="x"]')`},
		{"data-test", `page.locator('[data-test="x"]')`},
		{"data-cy", `page.locator('[data-cy="x"]')`},
	}
	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			loc := Choose(ParseSelector(`[`+tt.attr+`="x"][role="button"]`), DefaultTestIDAttributes, DefaultPlaywrightTestIDAttribute)
			assert.Equal(t, StrategyTestID, loc.Strategy)
			assert.Equal(t, tt.want, loc.Expr("page"))
		})
	}
}

func TestChoose_AttributeLocatorEscapesQuotes(t *testing.T) {
	loc := Choose(ParseSelector(`[data-cy='say "hi"']`), DefaultTestIDAttributes, DefaultPlaywrightTestIDAttribute)
	assert.Equal(t, `page.locator('[data-cy="say \\"hi\\""]')`, loc.Expr("page"))
}

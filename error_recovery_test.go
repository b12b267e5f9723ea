package main

import (
	"strings"
	"testing"

	"github.com/heshanpadmasiri/cy2pw/config"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/runner"
)

func TestErrorRecovery(t *testing.T) {
	// page object with a generator method, which cannot be converted
	source := []byte(`class Wizard {
  open() {
    cy.visit('/wizard');
  }

  *steps() {
    yield cy.get('.step');
  }

  next() {
    cy.get('[data-testid="next"]').click();
  }
}

export default Wizard;
`)

	conv := runner.NewConverter(config.Default())
	res, err := conv.Convert(source, "cypress/pages/Wizard.js", "tests/pages/Wizard.js", runner.KindPageObject)
	if err != nil {
		t.Fatalf("Expected the file to convert with a failed method, got error: %v", err)
	}

	// Check that we collected one failure
	var failures []diagnostics.Warning
	for _, w := range res.Warnings {
		if w.Kind == diagnostics.KindMethodConversionFailure {
			failures = append(failures, w)
		}
	}
	if len(failures) != 1 {
		t.Fatalf("Expected 1 method failure, got %d", len(failures))
	}
	if !strings.Contains(failures[0].Message, "steps") {
		t.Errorf("Expected failure to mention steps, got: %s", failures[0].Message)
	}

	// The failed method keeps its body behind a marker
	if !strings.Contains(res.Code, diagnostics.MarkerPrefix+" could not convert steps") {
		t.Errorf("Expected marker for steps, got:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "// yield cy.get('.step');") {
		t.Errorf("Expected original statement commented out, got:\n%s", res.Code)
	}

	// Valid methods were still converted
	for _, want := range []string{
		"await this.page.goto('/wizard');",
		"await this.page.getByTestId('next').click();",
	} {
		if !strings.Contains(res.Code, want) {
			t.Errorf("Expected %q in output:\n%s", want, res.Code)
		}
	}

	report := diagnostics.NewFileReport("cypress/pages/Wizard.js", "tests/pages/Wizard.js", res.Code, res.Warnings, nil)
	if report.Status != diagnostics.StatusPartial {
		t.Errorf("Expected partial status, got %s", report.Status)
	}
	if len(report.Markers) != 1 {
		t.Errorf("Expected 1 marker, got %d", len(report.Markers))
	}
}

func TestErrorRecovery_SyntaxErrorFailsTheFile(t *testing.T) {
	conv := runner.NewConverter(config.Default())
	_, err := conv.Convert([]byte("describe('broken', () => {\n  it('x', () => {\n"), "cypress/e2e/broken.cy.js", "tests/broken.spec.js", runner.KindSpec)
	if !diagnostics.IsSyntaxError(err) {
		t.Fatalf("Expected a syntax error, got %v", err)
	}
}

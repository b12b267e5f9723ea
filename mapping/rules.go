package mapping

import (
	"regexp"
	"sort"
)

// Rule is one textual rewrite. Lower priorities apply first. When Rewrite is
// set it replaces each match instead of Replacement.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
	Rewrite     func(match string) string
	Priority    int
}

// RuleTable applies an ordered list of rewrites. Every rule must be
// idempotent, so applying a table twice gives the same text as applying it
// once.
type RuleTable struct {
	rules []Rule
}

// NewRuleTable orders rules by priority, keeping declaration order for ties.
func NewRuleTable(rules ...Rule) *RuleTable {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &RuleTable{rules: sorted}
}

// With returns a new table holding the receiver's rules plus extra.
func (t *RuleTable) With(extra ...Rule) *RuleTable {
	all := append(append([]Rule{}, t.rules...), extra...)
	return NewRuleTable(all...)
}

// Rules returns the rules in application order.
func (t *RuleTable) Rules() []Rule {
	return append([]Rule{}, t.rules...)
}

// Apply rewrites text with every rule in order.
func (t *RuleTable) Apply(text string) string {
	for _, r := range t.rules {
		if r.Rewrite != nil {
			text = r.Pattern.ReplaceAllStringFunc(text, r.Rewrite)
			continue
		}
		text = r.Pattern.ReplaceAllString(text, r.Replacement)
	}
	return text
}

var textRules = []Rule{
	{Name: "env-var", Pattern: regexp.MustCompile(`\bCypress\.env\(\s*['"]([\w$]+)['"]\s*\)`), Replacement: "process.env.$1", Priority: 10},
	{Name: "env-all", Pattern: regexp.MustCompile(`\bCypress\.env\(\s*\)`), Replacement: "process.env", Priority: 20},
	{Name: "run-command", Pattern: regexp.MustCompile(`\b(?:npx\s+)?cypress\s+run\b`), Replacement: "npx playwright test", Priority: 30},
	{Name: "open-command", Pattern: regexp.MustCompile(`\b(?:npx\s+)?cypress\s+open\b`), Replacement: "npx playwright test --ui", Priority: 30},
	{Name: "spec-suffix", Pattern: regexp.MustCompile(`\.cy\.(js|jsx|ts|tsx)\b`), Replacement: ".spec.$1", Priority: 40},
	{Name: "e2e-dir", Pattern: regexp.MustCompile(`\bcypress/(?:e2e|integration)\b`), Replacement: "tests", Priority: 50},
	{Name: "support-dir", Pattern: regexp.MustCompile(`\bcypress/support\b`), Replacement: "tests/support", Priority: 50},
	{Name: "fixtures-dir", Pattern: regexp.MustCompile(`\bcypress/fixtures\b`), Replacement: "tests/fixtures", Priority: 50},
	{Name: "pages-dir", Pattern: regexp.MustCompile(`\bcypress/(?:pages|page-objects|pageObjects)\b`), Replacement: "tests/pages", Priority: 50},
}

// TextRules returns the rewrites applied to free text such as verbatim
// statements, configuration files and CI scripts.
func TextRules() *RuleTable {
	return NewRuleTable(textRules...)
}

// RewriteText applies the default text rules.
func RewriteText(text string) string {
	return TextRules().Apply(text)
}

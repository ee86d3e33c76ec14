// internal/workers/copilot/route-question/keywords.go
package routequestion

import (
	"regexp"
	"strings"
	"unicode"
)

// termSet matches Latin terms case-insensitively from a word boundary and
// CJK terms as plain substrings.
type termSet struct {
	words      []*regexp.Regexp
	substrings []string
}

// newTermSet matches whole words only. Short markers like "if" and "vs" need
// the closing boundary.
func newTermSet(terms ...string) termSet {
	return buildTermSet(`\b`, terms)
}

// newStemSet matches words starting with a term, so "delay" also matches
// "delaying" and "risk" matches "risks".
func newStemSet(terms ...string) termSet {
	return buildTermSet("", terms)
}

func buildTermSet(closing string, terms []string) termSet {
	var ts termSet
	for _, term := range terms {
		if isLatin(term) {
			ts.words = append(ts.words, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(term)+closing))
		} else {
			ts.substrings = append(ts.substrings, term)
		}
	}
	return ts
}

func (ts termSet) matches(question string) bool {
	for _, s := range ts.substrings {
		if strings.Contains(question, s) {
			return true
		}
	}
	for _, re := range ts.words {
		if re.MatchString(question) {
			return true
		}
	}
	return false
}

func isLatin(term string) bool {
	for _, r := range term {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}

var (
	kpiTerms = newStemSet(
		"otd", "otif", "on-time", "on time", "performance", "kpi",
		"准时交付率", "交付率", "交货率", "按时交付", "绩效", "表现",
	)
	compareTerms = newTermSet("compare", "vs", "versus", "对比", "比较")
	rateTerms    = newTermSet("performance", "rate", "率", "表现")

	disruptionTerms = newStemSet(
		"delay", "impact", "disrupt", "risk",
		"延迟", "晚到", "推迟", "断供", "中断", "风险",
	)
	conditionalTerms = newTermSet("if", "如果", "假如")
)

// Override rule names, recorded on the output and in metrics.
const (
	RuleKPITerm       = "kpi_term"
	RuleSupplierRate  = "supplier_rate"
	RuleScenarioTerm  = "scenario_term"
	RuleDefaultPolicy = "default_policy"
)

type keywordRules struct {
	suppliers termSet
}

func newKeywordRules(supplierNames []string) keywordRules {
	return keywordRules{suppliers: newTermSet(supplierNames...)}
}

// kpiRule reports which KPI rule fired, if any.
func (k keywordRules) kpiRule(question string) (string, bool) {
	if kpiTerms.matches(question) || compareTerms.matches(question) {
		return RuleKPITerm, true
	}
	if k.suppliers.matches(question) && rateTerms.matches(question) {
		return RuleSupplierRate, true
	}
	return "", false
}

func scenarioRule(question string) bool {
	return disruptionTerms.matches(question) && conditionalTerms.matches(question)
}

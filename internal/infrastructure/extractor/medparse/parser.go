package medparse

import (
	"regexp"
	"strings"
)

// Rule binds one regular expression to the field it populates. All rules
// are evaluated uniformly against the lowercased text; captured group 1
// (or the whole match when there is no group) becomes the value.
type Rule struct {
	Field   string
	Pattern *regexp.Regexp
}

// rules covers the vital signs and lab values that show up in scanned
// medical reports. Extend by appending, not by branching.
var rules = []Rule{
	{Field: "glucose", Pattern: regexp.MustCompile(`(?:glucose|blood\s*sugar|fbs|rbs)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "hba1c", Pattern: regexp.MustCompile(`(?:hba1c|a1c|hemoglobin\s*a1c)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "bp", Pattern: regexp.MustCompile(`(\d{2,3}\s*/\s*\d{2,3})`)},
	{Field: "cholesterol_total", Pattern: regexp.MustCompile(`(?:total\s*cholesterol|cholesterol)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "cholesterol_hdl", Pattern: regexp.MustCompile(`(?:hdl|high\s*density)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "cholesterol_ldl", Pattern: regexp.MustCompile(`(?:ldl|low\s*density)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "triglycerides", Pattern: regexp.MustCompile(`(?:triglycerides|trig)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "creatinine", Pattern: regexp.MustCompile(`(?:creatinine|creat)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "egfr", Pattern: regexp.MustCompile(`(?:egfr|gfr)[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "weight", Pattern: regexp.MustCompile(`weight[:\s]*(\d+(?:\.\d+)?)`)},
	{Field: "bmi", Pattern: regexp.MustCompile(`bmi[:\s]*(\d+(?:\.\d+)?)`)},
}

// Parser satisfies the coordinator's parsing port.
type Parser struct{}

func NewParser() Parser { return Parser{} }

func (Parser) Parse(text string) map[string]any { return Parse(text) }

// Parse extracts every known medical value from raw report text. Fields
// with no match are absent from the result.
func Parse(text string) map[string]any {
	lowered := strings.ToLower(text)
	out := make(map[string]any)
	for _, rule := range rules {
		matches := rule.Pattern.FindAllStringSubmatch(lowered, -1)
		if len(matches) == 0 {
			continue
		}
		values := make([]string, 0, len(matches))
		for _, m := range matches {
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			values = append(values, strings.Join(strings.Fields(value), ""))
		}
		out[rule.Field] = values
	}
	return out
}

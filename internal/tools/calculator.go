package tools

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// CalcResult is the calculator's typed output. Formatted carries the
// exact digits downstream consumers must reproduce verbatim.
type CalcResult struct {
	Expression  string  `json:"expression"`
	Result      float64 `json:"result"`
	Formatted   string  `json:"formatted"`
	Calculation string  `json:"calculation"`
}

// Calculator evaluates arithmetic embedded in free text. Percentage
// phrasing ("15% of 2500") is rewritten to its arithmetic form before
// evaluation; anything else is reduced to the longest run of numeric
// and operator characters and evaluated as an expression.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Name() string { return "calculator" }

func (c *Calculator) Info() models.ToolInfo {
	return models.ToolInfo{
		Name:        "calculator",
		Description: "Evaluates mathematical expressions, including percentage phrasing",
		Methods: map[string]models.MethodInfo{
			"calculate": {
				Description: "Evaluate an arithmetic expression found in the input text",
				Parameters:  map[string]string{"expression": "string (expression or question text)"},
			},
		},
	}
}

var (
	percentOfPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent)\s+of\s+(\d+(?:[\d,]*\d)?(?:\.\d+)?)`)
	expressionRun    = regexp.MustCompile(`[\d+\-*/().^ ]*\d[\d+\-*/().^ ]*`)
)

func (c *Calculator) Invoke(ctx context.Context, method string, args map[string]interface{}) (interface{}, error) {
	if method != "calculate" {
		return nil, newError(ErrUnknownMethod, c.Name(), method, "supported methods: calculate")
	}
	input, ok := stringArg(args, "expression")
	if !ok {
		return nil, newError(ErrInvalidArguments, c.Name(), method, "expression (string) is required")
	}
	return c.calculate(input)
}

func (c *Calculator) calculate(input string) (*CalcResult, error) {
	lower := strings.ToLower(input)

	if m := percentOfPattern.FindStringSubmatch(lower); m != nil {
		pct, err1 := strconv.ParseFloat(m[1], 64)
		base, err2 := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err1 == nil && err2 == nil {
			result := pct * base / 100
			formatted := formatNumber(result)
			return &CalcResult{
				Expression:  m[0],
				Result:      result,
				Formatted:   formatted,
				Calculation: m[1] + "% of " + m[2] + " = " + formatted,
			}, nil
		}
	}

	exprText := strings.TrimSpace(expressionRun.FindString(lower))
	if exprText == "" {
		return nil, newError(ErrInvalidArguments, c.Name(), "calculate", "no arithmetic expression found in %q", input)
	}

	program, err := expr.Compile(exprText)
	if err != nil {
		return nil, newError(ErrInvalidArguments, c.Name(), "calculate", "cannot parse %q: %v", exprText, err)
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return nil, newError(ErrExecutionError, c.Name(), "calculate", "evaluating %q: %v", exprText, err)
	}

	result, ok := toFloat(out)
	if !ok {
		return nil, newError(ErrExecutionError, c.Name(), "calculate", "expression %q did not produce a number", exprText)
	}

	formatted := formatNumber(result)
	return &CalcResult{
		Expression:  exprText,
		Result:      result,
		Formatted:   formatted,
		Calculation: exprText + " = " + formatted,
	}, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// formatNumber renders integers without a decimal point so "375" stays
// "375" rather than "375.000000".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

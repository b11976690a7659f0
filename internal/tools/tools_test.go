package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adarshp14/AgentInsights/internal/tools"
)

func newRegistry() *tools.Registry {
	return tools.NewDefaultRegistry(nil)
}

func invokeCalc(t *testing.T, expression string) *tools.CalcResult {
	t.Helper()
	reg := newRegistry()
	result, err := reg.Invoke(context.Background(), "calculator", "calculate",
		map[string]interface{}{"expression": expression})
	if err != nil {
		t.Fatalf("calculate(%q): %v", expression, err)
	}
	calc, ok := result.(*tools.CalcResult)
	if !ok {
		t.Fatalf("calculate(%q) returned %T, want *CalcResult", expression, result)
	}
	return calc
}

func TestCalculatorPercentage(t *testing.T) {
	cases := []struct {
		expression string
		want       string
	}{
		{"What's 15% of 2500?", "375"},
		{"What's 10% of 200?", "20"},
		{"what is 25 percent of 80", "20"},
		{"7.5% of 1000", "75"},
	}
	for _, tc := range cases {
		calc := invokeCalc(t, tc.expression)
		if calc.Formatted != tc.want {
			t.Errorf("calculate(%q) = %q, want %q", tc.expression, calc.Formatted, tc.want)
		}
	}
}

func TestCalculatorArithmetic(t *testing.T) {
	cases := []struct {
		expression string
		want       string
	}{
		{"calculate 42 * 17", "714"},
		{"what is 120 + 55", "175"},
		{"(3 + 4) * 2", "14"},
		{"100 - 37", "63"},
	}
	for _, tc := range cases {
		calc := invokeCalc(t, tc.expression)
		if calc.Formatted != tc.want {
			t.Errorf("calculate(%q) = %q, want %q", tc.expression, calc.Formatted, tc.want)
		}
	}
}

func TestCalculatorNoExpression(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Invoke(context.Background(), "calculator", "calculate",
		map[string]interface{}{"expression": "tell me a joke"})
	assertCode(t, err, tools.ErrInvalidArguments)
}

func TestCalculatorMissingArgument(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Invoke(context.Background(), "calculator", "calculate", nil)
	assertCode(t, err, tools.ErrInvalidArguments)
}

func TestUnknownTool(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Invoke(context.Background(), "teleport", "go", nil)
	assertCode(t, err, tools.ErrUnknownTool)
}

func TestUnknownMethod(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Invoke(context.Background(), "calculator", "differentiate",
		map[string]interface{}{"expression": "1+1"})
	assertCode(t, err, tools.ErrUnknownMethod)
}

func assertCode(t *testing.T, err error, want tools.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var toolErr *tools.Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *tools.Error, got %T: %v", err, err)
	}
	if toolErr.Code != want {
		t.Errorf("error code = %s, want %s", toolErr.Code, want)
	}
}

func TestDateTime(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	reg := tools.NewRegistry()
	reg.Register(tools.NewDateTimeAt(func() time.Time { return fixed }))

	result, err := reg.Invoke(context.Background(), "datetime", "get_today_date", nil)
	if err != nil {
		t.Fatalf("get_today_date: %v", err)
	}
	dt := result.(*tools.DateTimeResult)
	if dt.Date != "2025-03-14" {
		t.Errorf("date = %q, want 2025-03-14", dt.Date)
	}
	if dt.Weekday != "Friday" {
		t.Errorf("weekday = %q, want Friday", dt.Weekday)
	}
	if dt.Time != "" {
		t.Errorf("get_today_date should not include time, got %q", dt.Time)
	}

	result, err = reg.Invoke(context.Background(), "datetime", "get_current_datetime", nil)
	if err != nil {
		t.Fatalf("get_current_datetime: %v", err)
	}
	dt = result.(*tools.DateTimeResult)
	if dt.Time != "09:26:53" {
		t.Errorf("time = %q, want 09:26:53", dt.Time)
	}
}

func TestDateTimeBadTimezone(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Invoke(context.Background(), "datetime", "get_today_date",
		map[string]interface{}{"timezone": "Mars/Olympus"})
	assertCode(t, err, tools.ErrInvalidArguments)
}

func TestWebSearchFallbackWithoutCredentials(t *testing.T) {
	reg := newRegistry()
	result, err := reg.Invoke(context.Background(), "web_search", "search",
		map[string]interface{}{"query": "GST filing deadline", "num_results": 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	resp := result.(*tools.SearchResponse)
	if resp.Source != "fallback" {
		t.Errorf("source = %q, want fallback", resp.Source)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected 2 fallback results, got %d", len(resp.Results))
	}
}

func TestWebSearchAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "tax brackets" {
			t.Errorf("unexpected query: %q", r.URL.Query().Get("q"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{
				{"title": "Tax brackets 2025", "link": "https://example.com/brackets", "snippet": "Rates by income", "displayLink": "example.com"},
			},
		})
	}))
	defer srv.Close()

	reg := tools.NewRegistry()
	reg.Register(tools.NewWebSearch(&tools.WebSearchConfig{
		APIKey:   "test-key",
		EngineID: "test-cx",
		BaseURL:  srv.URL,
	}))

	result, err := reg.Invoke(context.Background(), "web_search", "search",
		map[string]interface{}{"query": "tax brackets"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	resp := result.(*tools.SearchResponse)
	if resp.Source != "google_cse" {
		t.Errorf("source = %q, want google_cse", resp.Source)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Tax brackets 2025" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestListTools(t *testing.T) {
	infos := newRegistry().List()
	if len(infos) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(infos))
	}
	want := []string{"calculator", "datetime", "web_search"}
	for i, name := range want {
		if infos[i].Name != name {
			t.Errorf("tool %d = %q, want %q", i, infos[i].Name, name)
		}
	}
	if _, ok := infos[0].Methods["calculate"]; !ok {
		t.Error("calculator info missing calculate method")
	}
}

package schema

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

type summary struct {
	TotalDividends float64 `json:"total_dividends"`
	AnnualIncome   float64 `json:"annual_income"`
	Currency       string  `json:"currency"`
}

type stock struct {
	Ticker    string  `json:"ticker"`
	Yield     float64 `json:"yield"`
	Frequency string  `json:"frequency"`
	Sector    *string `json:"sector,omitempty"`
}

type overview struct {
	Summary   summary `json:"summary"`
	TopStocks []stock `json:"top_stocks"`
}

var (
	summarySchema = Object("summary",
		F("total_dividends", Number()),
		F("annual_income", Number()),
		F("currency", String()),
	)
	stockSchema = Object("stock_summary",
		F("ticker", String()),
		F("yield", Number()),
		F("frequency", Enum("Monthly", "Quarterly", "Annual")),
		F("sector", String().Optional()),
	)
	overviewSchema = Object("overview",
		F("summary", summarySchema),
		F("top_stocks", ArrayOf(stockSchema)),
	)
)

func paths(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Path)
	}
	return out
}

func TestDecodeValidDocumentIsIdempotent(t *testing.T) {
	raw := []byte(`{
		"summary": {"total_dividends": 1234.5, "annual_income": 2400, "currency": "USD"},
		"top_stocks": [
			{"ticker": "O", "yield": 5.6, "frequency": "Monthly", "sector": "REIT"},
			{"ticker": "KO", "yield": 3.1, "frequency": "Quarterly"}
		]
	}`)

	first, vs, err := Decode[overview](nil, overviewSchema, raw, nil)
	if err != nil || vs != nil {
		t.Fatalf("unexpected failure: %v %v", vs, err)
	}
	second, _, err := Decode[overview](nil, overviewSchema, raw, nil)
	if err != nil {
		t.Fatalf("unexpected error on second decode: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decode not idempotent: %+v vs %+v", first, second)
	}
	if first.TopStocks[0].Sector == nil || *first.TopStocks[0].Sector != "REIT" {
		t.Fatalf("optional field not decoded: %+v", first.TopStocks[0])
	}
	if first.TopStocks[1].Sector != nil {
		t.Fatalf("absent optional field should stay nil")
	}
}

func TestDecodeFallbackSubstitution(t *testing.T) {
	s := Object("totals", F("total_dividends", Number()))
	type totals struct {
		TotalDividends float64 `json:"total_dividends"`
	}
	diag := NewDiagnosticLog(10)
	v := NewValidator(WithDiagnostics(diag))
	fallback := &totals{TotalDividends: 0}

	got, vs, err := Decode(v, s, []byte(`{"total_dividends": "not-a-number"}`), fallback)
	if err != nil {
		t.Fatalf("fallback should absorb the failure, got %v", err)
	}
	if got != *fallback {
		t.Fatalf("expected fallback value, got %+v", got)
	}
	if len(vs) != 1 || vs[0].Path != "total_dividends" {
		t.Fatalf("expected one violation at total_dividends, got %+v", vs)
	}
	if vs[0].Expected != "number" || vs[0].Received != "string" {
		t.Fatalf("unexpected expected/received: %+v", vs[0])
	}
	entries := diag.Entries()
	if len(entries) != 1 || entries[0].Schema != "totals" || entries[0].Path != "total_dividends" {
		t.Fatalf("diagnostic not recorded: %+v", entries)
	}
}

func TestDecodeWithoutFallbackListsAllViolations(t *testing.T) {
	raw := []byte(`{"total_dividends": "12"}`)

	_, _, err := Decode[summary](nil, summarySchema, raw, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"total_dividends", "annual_income", "currency"}
	if got := paths(ve.Violations); !reflect.DeepEqual(got, want) {
		t.Fatalf("violations = %v, want %v", got, want)
	}
	if ve.Violations[1].Received != "missing" {
		t.Fatalf("expected missing, got %q", ve.Violations[1].Received)
	}
	if !IsValidationError(err) {
		t.Fatalf("IsValidationError should match")
	}
}

func TestValidateNestedPathsAndFirstBadElement(t *testing.T) {
	raw := map[string]any{
		"summary": map[string]any{"total_dividends": 1.0, "annual_income": 2.0, "currency": 3.0},
		"top_stocks": []any{
			map[string]any{"ticker": "O", "yield": 5.0, "frequency": "Monthly"},
			map[string]any{"ticker": "T", "yield": 6.0, "frequency": "Monthly"},
			map[string]any{"ticker": 7.0, "yield": 1.0, "frequency": "Monthly"},
			map[string]any{"ticker": 8.0, "yield": 1.0, "frequency": "Monthly"},
		},
	}
	got := paths(Validate(overviewSchema, raw))
	want := []string{"summary.currency", "top_stocks[2].ticker"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
}

func TestValidatePrimitives(t *testing.T) {
	tests := []struct {
		name     string
		schema   *Schema
		raw      any
		received string
	}{
		{"nan", Number(), math.NaN(), "non-finite number"},
		{"inf", Number(), math.Inf(1), "non-finite number"},
		{"bool for number", Number(), true, "boolean"},
		{"enum is case sensitive", Enum("Monthly"), "monthly", `"monthly"`},
		{"integer rejects fraction", Integer(), 1.5, "number"},
		{"null for required", String(), nil, "null"},
		{"object for array", ArrayOf(Number()), map[string]any{}, "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := Validate(tt.schema, tt.raw)
			if len(vs) != 1 || vs[0].Received != tt.received {
				t.Fatalf("got %+v, want received %q", vs, tt.received)
			}
		})
	}
}

func TestValidateOptionalAndNullable(t *testing.T) {
	s := Object("x",
		F("opt", Number().Optional()),
		F("nul", Number().Nullable()),
	)
	if vs := Validate(s, map[string]any{"nul": nil}); vs != nil {
		t.Fatalf("absent optional and null nullable should pass: %+v", vs)
	}
	if vs := Validate(s, map[string]any{"opt": nil, "nul": 1.0}); vs != nil {
		t.Fatalf("null optional should pass: %+v", vs)
	}
	vs := Validate(s, map[string]any{})
	if len(vs) != 1 || vs[0].Path != "nul" || vs[0].Received != "missing" {
		t.Fatalf("nullable must be present: %+v", vs)
	}
}

func TestValidateIgnoresUnknownFields(t *testing.T) {
	raw := map[string]any{"total_dividends": 1.0, "annual_income": 2.0, "currency": "USD", "extra": []any{1.0}}
	if vs := Validate(summarySchema, raw); vs != nil {
		t.Fatalf("unknown fields must be ignored: %+v", vs)
	}
}

func TestValidateMapReportsKeys(t *testing.T) {
	s := MapOf(Number())
	vs := Validate(s, map[string]any{"b": "x", "a": 1.0, "c": nil})
	if got := paths(vs); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("paths = %v", got)
	}
}

func TestDecodeRejectsOverflowAndMalformed(t *testing.T) {
	s := Object("n", F("v", Number()))
	_, vs, err := Decode[struct{ V float64 }](nil, s, []byte(`{"v": 1e400}`), nil)
	if err == nil || len(vs) != 1 || vs[0].Received != "non-finite number" {
		t.Fatalf("overflow should be non-finite: %+v %v", vs, err)
	}
	_, vs, err = Decode[struct{ V float64 }](nil, s, []byte(`{"v": 1`), nil)
	if err == nil || len(vs) != 1 || vs[0].Received != "malformed JSON" {
		t.Fatalf("malformed json: %+v %v", vs, err)
	}
	_, _, err = Decode[struct{ V float64 }](nil, s, []byte(`{"v": 1} {}`), nil)
	if err == nil {
		t.Fatalf("trailing data should fail")
	}
}

func TestModifiersDoNotMutateShared(t *testing.T) {
	base := Number()
	opt := base.Optional()
	if base.IsOptional() || !opt.IsOptional() {
		t.Fatalf("Optional must return a copy")
	}
	if base.Named("x").Name() != "x" || base.Name() != "number" {
		t.Fatalf("Named must return a copy")
	}
}

type countingRecorder struct {
	violations, fallbacks int
}

func (r *countingRecorder) RecordViolation(string, string) { r.violations++ }
func (r *countingRecorder) RecordFallback(string)          { r.fallbacks++ }

func TestValidatorRecordsMetrics(t *testing.T) {
	rec := &countingRecorder{}
	v := NewValidator(WithRecorder(rec))
	fb := &summary{}
	if _, _, err := Decode(v, summarySchema, []byte(`{}`), fb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.violations != 3 || rec.fallbacks != 1 {
		t.Fatalf("recorder = %+v", rec)
	}
}

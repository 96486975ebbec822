package schemas

import (
	"encoding/json"
	"testing"
	"time"

	"DivDash/internal/domain/models"
	"DivDash/pkg/schema"
)

const overviewDoc = `{
	"summary": {
		"total_dividends": 8421.37, "annual_income": 3120, "monthly_average": 260,
		"portfolio_yield": 4.1, "stock_count": 3, "currency": "USD"
	},
	"top_stocks": [
		{"ticker": "O", "name": "Realty Income", "sector": "Real Estate", "frequency": "Monthly",
		 "yield": 5.6, "annual_dividend": 3.08, "shares": 120, "next_ex_date": "2024-03-28"},
		{"ticker": "KO", "name": "Coca-Cola", "frequency": "Quarterly",
		 "yield": 3.1, "annual_dividend": 1.94, "shares": 80}
	],
	"sector_allocation": {"Real Estate": 0.42, "Consumer Staples": 0.58},
	"generated_by": "backend v2"
}`

func TestOverviewAcceptsBackendDocument(t *testing.T) {
	o, vs, err := schema.Decode[models.Overview](nil, Overview, []byte(overviewDoc), nil)
	if err != nil || len(vs) != 0 {
		t.Fatalf("unexpected failure: %v %v", vs, err)
	}
	if o.Summary.StockCount != 3 || len(o.TopStocks) != 2 || o.TopStocks[1].Sector != nil {
		t.Fatalf("decoded %+v", o)
	}
	if o.TopStocks[0].Frequency != models.FrequencyMonthly {
		t.Fatalf("frequency = %q", o.TopStocks[0].Frequency)
	}
}

func TestOverviewReportsNestedPath(t *testing.T) {
	doc := `{
		"summary": {"total_dividends": 1, "annual_income": 1, "monthly_average": 1,
			"portfolio_yield": 1, "stock_count": 1, "currency": "USD"},
		"top_stocks": [
			{"ticker": "O", "name": "Realty Income", "frequency": "Monthly", "yield": 5.6, "annual_dividend": 3.08, "shares": 1},
			{"ticker": 7, "name": "Broken", "frequency": "Weekly", "yield": 1, "annual_dividend": 1, "shares": 1}
		],
		"sector_allocation": {}
	}`
	_, vs, err := schema.Decode[models.Overview](nil, Overview, []byte(doc), nil)
	if !schema.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vs) != 2 || vs[0].Path != "top_stocks[1].ticker" || vs[1].Path != "top_stocks[1].frequency" {
		t.Fatalf("violations = %+v", vs)
	}
}

func TestNullableFieldsMustBePresent(t *testing.T) {
	doc := `{"year": 2024, "month": 3, "events": [
		{"ticker": "O", "type": "payment", "date": "2024-03-15", "amount": null},
		{"ticker": "KO", "type": "ex_dividend", "date": "2024-03-14"}
	]}`
	_, vs, err := schema.Decode[models.Calendar](nil, Calendar, []byte(doc), nil)
	if err == nil {
		t.Fatal("missing nullable field accepted")
	}
	if len(vs) != 1 || vs[0].Path != "events[1].amount" || vs[0].Received != "missing" {
		t.Fatalf("violations = %+v", vs)
	}
}

func TestFallbacksConformToTheirSchemas(t *testing.T) {
	cases := []struct {
		name   string
		schema *schema.Schema
		value  any
	}{
		{"monthly", MonthlyAnalysis, MonthlyFallback(2024)},
		{"stocks by period", StocksByPeriod, StocksByPeriodFallback(models.PeriodYearly)},
		{"forecasts", Forecasts, ForecastsFallback(12, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC))},
		{"calendar", Calendar, CalendarFallback(2024, 3)},
	}
	for _, tc := range cases {
		if vs := schema.Validate(tc.schema, roundTrip(t, tc.value)); len(vs) != 0 {
			t.Errorf("%s fallback does not conform: %+v", tc.name, vs)
		}
	}
}

func TestForecastsFallbackMonths(t *testing.T) {
	f := ForecastsFallback(3, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC))
	want := []string{"2024-12", "2025-01", "2025-02"}
	for i, p := range f.Projections {
		if p.Month != want[i] {
			t.Fatalf("projection %d month = %q, want %q", i, p.Month, want[i])
		}
	}
	if m := MonthlyFallback(2024); len(m.Months) != 12 || m.Months[0].Label != "Jan" {
		t.Fatalf("monthly fallback = %+v", m)
	}
}

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

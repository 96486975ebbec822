// Package schemas declares the expected shape of every backend response and
// the fallback values shown when a document does not match.
package schemas

import (
	"DivDash/internal/domain/models"
	"DivDash/pkg/schema"
)

var frequency = schema.Enum(
	string(models.FrequencyMonthly),
	string(models.FrequencyQuarterly),
	string(models.FrequencySemiAnnual),
	string(models.FrequencyAnnual),
)

var (
	Summary = schema.Object("summary",
		schema.F("total_dividends", schema.Number()),
		schema.F("annual_income", schema.Number()),
		schema.F("monthly_average", schema.Number()),
		schema.F("portfolio_yield", schema.Number()),
		schema.F("stock_count", schema.Integer()),
		schema.F("currency", schema.String()),
	)

	StockSummary = schema.Object("stock_summary",
		schema.F("ticker", schema.String()),
		schema.F("name", schema.String()),
		schema.F("sector", schema.String().Optional()),
		schema.F("frequency", frequency),
		schema.F("yield", schema.Number()),
		schema.F("annual_dividend", schema.Number()),
		schema.F("shares", schema.Number()),
		schema.F("next_ex_date", schema.String().Optional()),
	)

	Overview = schema.Object("overview",
		schema.F("summary", Summary),
		schema.F("top_stocks", schema.ArrayOf(StockSummary)),
		schema.F("sector_allocation", schema.MapOf(schema.Number())),
	)

	MonthlyAnalysis = schema.Object("monthly_analysis",
		schema.F("year", schema.Integer()),
		schema.F("months", schema.ArrayOf(schema.Object("monthly_income",
			schema.F("month", schema.Integer()),
			schema.F("label", schema.String()),
			schema.F("amount", schema.Number()),
			schema.F("prior_year", schema.Number().Nullable()),
		))),
		schema.F("total", schema.Number()),
	)

	StocksByPeriod = schema.Object("stocks_by_period",
		schema.F("period", schema.Enum(
			string(models.PeriodMonthly),
			string(models.PeriodQuarterly),
			string(models.PeriodYearly),
		)),
		schema.F("stocks", schema.ArrayOf(StockSummary)),
		schema.F("total_income", schema.Number()),
	)

	StockList = schema.Object("stock_list",
		schema.F("stocks", schema.ArrayOf(StockSummary)),
		schema.F("count", schema.Integer()),
	)

	StockDetail = schema.Object("stock_detail",
		schema.F("stock", StockSummary),
		schema.F("dividend_history", schema.ArrayOf(schema.Object("dividend_payment",
			schema.F("ex_date", schema.String()),
			schema.F("pay_date", schema.String().Optional()),
			schema.F("amount", schema.Number()),
		))),
		schema.F("price_history", schema.ArrayOf(schema.Object("price_point",
			schema.F("date", schema.String()),
			schema.F("close", schema.Number()),
		))),
	)

	Screener = schema.Object("screener",
		schema.F("criteria", schema.Object("screener_criteria",
			schema.F("min_yield", schema.Number()),
			schema.F("sector", schema.String().Optional()),
		)),
		schema.F("results", schema.ArrayOf(schema.Object("screener_result",
			schema.F("ticker", schema.String()),
			schema.F("name", schema.String()),
			schema.F("sector", schema.String().Optional()),
			schema.F("yield", schema.Number()),
			schema.F("payout_ratio", schema.Number().Nullable()),
			schema.F("growth_5y", schema.Number().Nullable()),
			schema.F("score", schema.Number()),
		))),
	)

	Forecasts = schema.Object("forecasts",
		schema.F("horizon_months", schema.Integer()),
		schema.F("projections", schema.ArrayOf(schema.Object("projection",
			schema.F("month", schema.String()),
			schema.F("expected_income", schema.Number()),
			schema.F("low", schema.Number()),
			schema.F("high", schema.Number()),
		))),
		schema.F("annual_total", schema.Number()),
	)

	Calendar = schema.Object("calendar",
		schema.F("year", schema.Integer()),
		schema.F("month", schema.Integer()),
		schema.F("events", schema.ArrayOf(schema.Object("calendar_event",
			schema.F("ticker", schema.String()),
			schema.F("type", schema.Enum(
				string(models.EventExDividend),
				string(models.EventPayment),
				string(models.EventDeclaration),
			)),
			schema.F("date", schema.String()),
			schema.F("amount", schema.Number().Nullable()),
		))),
	)
)

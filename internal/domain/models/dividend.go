package models

import "DivDash/pkg/series"

// Wire types of the backend dividend API. Field names are the backend's
// snake_case names, kept verbatim.

// Frequency is how often a stock pays.
type Frequency string

const (
	FrequencyMonthly    Frequency = "Monthly"
	FrequencyQuarterly  Frequency = "Quarterly"
	FrequencySemiAnnual Frequency = "SemiAnnual"
	FrequencyAnnual     Frequency = "Annual"
)

// Period groups stocks by payout cadence.
type Period string

const (
	PeriodMonthly   Period = "Monthly"
	PeriodQuarterly Period = "Quarterly"
	PeriodYearly    Period = "Yearly"
)

type Summary struct {
	TotalDividends float64 `json:"total_dividends"`
	AnnualIncome   float64 `json:"annual_income"`
	MonthlyAverage float64 `json:"monthly_average"`
	PortfolioYield float64 `json:"portfolio_yield"`
	StockCount     int     `json:"stock_count"`
	Currency       string  `json:"currency"`
}

type StockSummary struct {
	Ticker         string    `json:"ticker"`
	Name           string    `json:"name"`
	Sector         *string   `json:"sector,omitempty"`
	Frequency      Frequency `json:"frequency"`
	Yield          float64   `json:"yield"`
	AnnualDividend float64   `json:"annual_dividend"`
	Shares         float64   `json:"shares"`
	NextExDate     *string   `json:"next_ex_date,omitempty"`
}

type Overview struct {
	Summary          Summary            `json:"summary"`
	TopStocks        []StockSummary     `json:"top_stocks"`
	SectorAllocation map[string]float64 `json:"sector_allocation"`
}

type MonthlyIncome struct {
	Month     int      `json:"month"`
	Label     string   `json:"label"`
	Amount    float64  `json:"amount"`
	PriorYear *float64 `json:"prior_year"`
}

type MonthlyAnalysis struct {
	Year   int             `json:"year"`
	Months []MonthlyIncome `json:"months"`
	Total  float64         `json:"total"`
}

type StocksByPeriod struct {
	Period      Period         `json:"period"`
	Stocks      []StockSummary `json:"stocks"`
	TotalIncome float64        `json:"total_income"`
}

type StockList struct {
	Stocks []StockSummary `json:"stocks"`
	Count  int            `json:"count"`
}

type DividendPayment struct {
	ExDate  string  `json:"ex_date"`
	PayDate *string `json:"pay_date,omitempty"`
	Amount  float64 `json:"amount"`
}

type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type StockDetail struct {
	Stock           StockSummary      `json:"stock"`
	DividendHistory []DividendPayment `json:"dividend_history"`
	PriceHistory    []PricePoint      `json:"price_history"`
}

type ScreenerCriteria struct {
	MinYield float64 `json:"min_yield"`
	Sector   *string `json:"sector,omitempty"`
}

type ScreenerResult struct {
	Ticker      string   `json:"ticker"`
	Name        string   `json:"name"`
	Sector      *string  `json:"sector,omitempty"`
	Yield       float64  `json:"yield"`
	PayoutRatio *float64 `json:"payout_ratio"`
	Growth5Y    *float64 `json:"growth_5y"`
	Score       float64  `json:"score"`
}

type Screener struct {
	Criteria ScreenerCriteria `json:"criteria"`
	Results  []ScreenerResult `json:"results"`
}

type Projection struct {
	Month          string  `json:"month"`
	ExpectedIncome float64 `json:"expected_income"`
	Low            float64 `json:"low"`
	High           float64 `json:"high"`
}

type Forecasts struct {
	HorizonMonths int          `json:"horizon_months"`
	Projections   []Projection `json:"projections"`
	AnnualTotal   float64      `json:"annual_total"`
}

// EventType is the kind of a calendar event.
type EventType string

const (
	EventExDividend  EventType = "ex_dividend"
	EventPayment     EventType = "payment"
	EventDeclaration EventType = "declaration"
)

type CalendarEvent struct {
	Ticker string    `json:"ticker"`
	Type   EventType `json:"type"`
	Date   string    `json:"date"`
	Amount *float64  `json:"amount"`
}

type Calendar struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Events []CalendarEvent `json:"events"`
}

// ChartPoint is one day of a stock chart with its moving average, which is
// null until the window is filled.
type ChartPoint struct {
	Date          string       `json:"date"`
	Close         float64      `json:"close"`
	MovingAverage series.Point `json:"moving_average"`
}

type StockChart struct {
	Ticker string       `json:"ticker"`
	Window int          `json:"window"`
	Points []ChartPoint `json:"points"`
}

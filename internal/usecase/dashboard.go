package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"DivDash/internal/domain/models"
	"DivDash/internal/domain/schemas"
	"DivDash/pkg/query"
	"DivDash/pkg/schema"
	"DivDash/pkg/series"
)

// Source builds fetch functions for backend paths.
type Source interface {
	Fetcher(path string, params url.Values) query.Fetcher
}

// DashboardOption configures Dashboard.
type DashboardOption func(*Dashboard)

// Dashboard resolves every dashboard resource through the query store.
type Dashboard struct {
	store       *query.Store
	api         Source
	diagnostics *schema.DiagnosticLog
	now         func() time.Time
}

func NewDashboard(store *query.Store, api Source, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{store: store, api: api, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithDiagnostics exposes the log of absorbed schema violations.
func WithDiagnostics(l *schema.DiagnosticLog) DashboardOption {
	return func(d *Dashboard) { d.diagnostics = l }
}

// WithNow sets the clock used for default years and months.
func WithNow(now func() time.Time) DashboardOption {
	return func(d *Dashboard) {
		if now != nil {
			d.now = now
		}
	}
}

func (d *Dashboard) OverviewSpec() query.Spec[models.Overview] {
	return query.Spec[models.Overview]{
		Key:    query.Key{"overview"},
		Fetch:  d.api.Fetcher("/overview", nil),
		Schema: schemas.Overview,
	}
}

func (d *Dashboard) MonthlySpec(year int) query.Spec[models.MonthlyAnalysis] {
	if year == 0 {
		year = d.now().Year()
	}
	return query.Spec[models.MonthlyAnalysis]{
		Key:      query.Key{"monthly", year},
		Fetch:    d.api.Fetcher("/monthly", url.Values{"year": {strconv.Itoa(year)}}),
		Schema:   schemas.MonthlyAnalysis,
		Fallback: schemas.MonthlyFallback(year),
	}
}

func (d *Dashboard) StocksByPeriodSpec(period string) query.Spec[models.StocksByPeriod] {
	return query.Spec[models.StocksByPeriod]{
		Key:      query.Key{"stocks-by-period", period},
		Fetch:    d.api.Fetcher("/stocks/by-period", url.Values{"period": {period}}),
		Schema:   schemas.StocksByPeriod,
		Fallback: schemas.StocksByPeriodFallback(models.Period(period)),
	}
}

func (d *Dashboard) StocksSpec() query.Spec[models.StockList] {
	return query.Spec[models.StockList]{
		Key:    query.Key{"stocks"},
		Fetch:  d.api.Fetcher("/stocks", nil),
		Schema: schemas.StockList,
	}
}

// StockSpec fails with query.ErrInvalidSpec for an empty ticker.
func (d *Dashboard) StockSpec(ticker string) (query.Spec[models.StockDetail], error) {
	if ticker == "" {
		return query.Spec[models.StockDetail]{}, fmt.Errorf("stock detail needs a ticker: %w", query.ErrInvalidSpec)
	}
	return query.Spec[models.StockDetail]{
		Key:    query.Key{"stock", ticker},
		Fetch:  d.api.Fetcher("/stocks/"+url.PathEscape(ticker), nil),
		Schema: schemas.StockDetail,
	}, nil
}

func (d *Dashboard) ScreenerSpec(minYield float64, sector string) query.Spec[models.Screener] {
	params := url.Values{"min_yield": {strconv.FormatFloat(minYield, 'f', -1, 64)}}
	if sector != "" {
		params.Set("sector", sector)
	}
	return query.Spec[models.Screener]{
		Key:    query.Key{"screener", minYield, sector},
		Fetch:  d.api.Fetcher("/screener", params),
		Schema: schemas.Screener,
	}
}

func (d *Dashboard) ForecastsSpec(months int) query.Spec[models.Forecasts] {
	return query.Spec[models.Forecasts]{
		Key:      query.Key{"forecasts", months},
		Fetch:    d.api.Fetcher("/forecasts", url.Values{"months": {strconv.Itoa(months)}}),
		Schema:   schemas.Forecasts,
		Fallback: schemas.ForecastsFallback(months, d.now()),
	}
}

func (d *Dashboard) CalendarSpec(year, month int) query.Spec[models.Calendar] {
	now := d.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return query.Spec[models.Calendar]{
		Key: query.Key{"calendar", year, month},
		Fetch: d.api.Fetcher("/calendar", url.Values{
			"year":  {strconv.Itoa(year)},
			"month": {strconv.Itoa(month)},
		}),
		Schema:   schemas.Calendar,
		Fallback: schemas.CalendarFallback(year, month),
	}
}

func (d *Dashboard) Overview(ctx context.Context, refetch bool) (query.Result[models.Overview], error) {
	return resolve(ctx, d.store, d.OverviewSpec(), refetch)
}

func (d *Dashboard) Monthly(ctx context.Context, year int, refetch bool) (query.Result[models.MonthlyAnalysis], error) {
	return resolve(ctx, d.store, d.MonthlySpec(year), refetch)
}

func (d *Dashboard) StocksByPeriod(ctx context.Context, period string, refetch bool) (query.Result[models.StocksByPeriod], error) {
	return resolve(ctx, d.store, d.StocksByPeriodSpec(period), refetch)
}

func (d *Dashboard) Stocks(ctx context.Context, refetch bool) (query.Result[models.StockList], error) {
	return resolve(ctx, d.store, d.StocksSpec(), refetch)
}

func (d *Dashboard) Stock(ctx context.Context, ticker string, refetch bool) (query.Result[models.StockDetail], error) {
	spec, err := d.StockSpec(ticker)
	if err != nil {
		return query.Result[models.StockDetail]{}, err
	}
	return resolve(ctx, d.store, spec, refetch)
}

func (d *Dashboard) Screener(ctx context.Context, minYield float64, sector string, refetch bool) (query.Result[models.Screener], error) {
	return resolve(ctx, d.store, d.ScreenerSpec(minYield, sector), refetch)
}

func (d *Dashboard) Forecasts(ctx context.Context, months int, refetch bool) (query.Result[models.Forecasts], error) {
	return resolve(ctx, d.store, d.ForecastsSpec(months), refetch)
}

func (d *Dashboard) Calendar(ctx context.Context, year, month int, refetch bool) (query.Result[models.Calendar], error) {
	return resolve(ctx, d.store, d.CalendarSpec(year, month), refetch)
}

// StockChart derives closing prices and their moving average from the cached
// stock detail. It shares the detail's cache entry.
func (d *Dashboard) StockChart(ctx context.Context, ticker string, window int, refetch bool) (query.Result[models.StockChart], error) {
	detail, err := d.Stock(ctx, ticker, refetch)
	chart := mapResult(detail, models.StockChart{Ticker: ticker, Window: window})
	if !detail.HasData {
		return chart, err
	}

	closes := make([]float64, len(detail.Data.PriceHistory))
	for i, p := range detail.Data.PriceHistory {
		closes[i] = p.Close
	}
	ma, maErr := series.MovingAverage(closes, window)
	if maErr != nil {
		return query.Result[models.StockChart]{}, maErr
	}

	points := make([]models.ChartPoint, len(closes))
	for i, p := range detail.Data.PriceHistory {
		points[i] = models.ChartPoint{Date: p.Date, Close: p.Close, MovingAverage: ma[i]}
	}
	chart.Data.Points = points
	return chart, err
}

// Invalidate marks every entry under prefix stale.
func (d *Dashboard) Invalidate(prefix query.Key) int {
	return d.store.Invalidate(prefix)
}

// Entries lists the cache entries.
func (d *Dashboard) Entries() []query.EntryInfo {
	return d.store.Entries()
}

// Diagnostics lists absorbed schema violations, most recent first.
func (d *Dashboard) Diagnostics() []schema.Diagnostic {
	if d.diagnostics == nil {
		return nil
	}
	return d.diagnostics.Entries()
}

// IsMisuse reports whether err comes from a request no resource can serve.
func IsMisuse(err error) bool {
	return errors.Is(err, query.ErrInvalidSpec) || errors.Is(err, series.ErrInvalidWindow)
}

// resolve serves spec from the cache, or refetches it first when asked to.
func resolve[T any](ctx context.Context, s *query.Store, spec query.Spec[T], refetch bool) (query.Result[T], error) {
	if !refetch {
		return query.Get(ctx, s, spec)
	}
	o, err := query.Use(s, spec)
	if err != nil {
		return query.Result[T]{}, err
	}
	defer o.Close()
	return o.Refetch(ctx)
}

// mapResult carries the entry state of r over to a derived value.
func mapResult[T, U any](r query.Result[T], data U) query.Result[U] {
	return query.Result[U]{
		Key:        r.Key,
		Status:     r.Status,
		Data:       data,
		HasData:    r.HasData,
		Err:        r.Err,
		Violations: r.Violations,
		UpdatedAt:  r.UpdatedAt,
		Stale:      r.Stale,
		Fetching:   r.Fetching,
	}
}

package schemas

import (
	"fmt"
	"time"

	"DivDash/internal/domain/models"
)

// Fallbacks replace a malformed document with an empty but well-formed one,
// so one broken chart does not take the page down. Overview, stock list,
// stock detail and screener have none: a wrong shape there fails the resource.

// MonthlyFallback is twelve zero months of year.
func MonthlyFallback(year int) *models.MonthlyAnalysis {
	months := make([]models.MonthlyIncome, 12)
	for i := range months {
		months[i] = models.MonthlyIncome{
			Month: i + 1,
			Label: time.Month(i + 1).String()[:3],
		}
	}
	return &models.MonthlyAnalysis{Year: year, Months: months}
}

// StocksByPeriodFallback is an empty group.
func StocksByPeriodFallback(period models.Period) *models.StocksByPeriod {
	return &models.StocksByPeriod{Period: period, Stocks: []models.StockSummary{}}
}

// ForecastsFallback is a flat zero projection over the horizon starting the
// month after from.
func ForecastsFallback(months int, from time.Time) *models.Forecasts {
	projections := make([]models.Projection, months)
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := range projections {
		m := start.AddDate(0, i+1, 0)
		projections[i] = models.Projection{Month: fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month()))}
	}
	return &models.Forecasts{HorizonMonths: months, Projections: projections}
}

// CalendarFallback is a month without events.
func CalendarFallback(year, month int) *models.Calendar {
	return &models.Calendar{Year: year, Month: month, Events: []models.CalendarEvent{}}
}

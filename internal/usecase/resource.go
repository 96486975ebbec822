package usecase

import (
	"context"
	"fmt"
	"time"

	"DivDash/internal/domain/models"
	"DivDash/pkg/query"
	"DivDash/pkg/schema"
)

// Resource is a query.Result with the data type erased, for transports that
// serve every resource the same way.
type Resource struct {
	Key        query.Key
	Status     query.Status
	Data       any
	HasData    bool
	Err        error
	Violations []schema.Violation
	UpdatedAt  time.Time
	Stale      bool
	Fetching   bool
}

// Fallback reports whether Data is the declared fallback.
func (r Resource) Fallback() bool { return len(r.Violations) > 0 }

func View[T any](r query.Result[T]) Resource {
	v := Resource{
		Key:        r.Key,
		Status:     r.Status,
		HasData:    r.HasData,
		Err:        r.Err,
		Violations: r.Violations,
		UpdatedAt:  r.UpdatedAt,
		Stale:      r.Stale,
		Fetching:   r.Fetching,
	}
	if r.HasData {
		v.Data = r.Data
	}
	return v
}

// Watch follows one resource until closed.
type Watch struct {
	updates chan Resource
	refetch func(ctx context.Context) (Resource, error)
	close   func()
}

// Updates delivers the current state first, then every change. A slow reader
// only sees the latest state. The channel is closed after Close.
func (w *Watch) Updates() <-chan Resource { return w.updates }

// Refetch forces a fetch of the watched resource and waits for it.
func (w *Watch) Refetch(ctx context.Context) (Resource, error) { return w.refetch(ctx) }

func (w *Watch) Close() { w.close() }

// Watch subscribes to the resource named in req.
func (d *Dashboard) Watch(req models.WatchRequest) (*Watch, error) {
	switch req.Resource {
	case "overview":
		return watch(d.store, d.OverviewSpec())
	case "monthly":
		return watch(d.store, d.MonthlySpec(req.Year))
	case "stocks-by-period":
		return watch(d.store, d.StocksByPeriodSpec(req.Period))
	case "stocks":
		return watch(d.store, d.StocksSpec())
	case "stock":
		spec, err := d.StockSpec(req.Ticker)
		if err != nil {
			return nil, err
		}
		return watch(d.store, spec)
	case "screener":
		return watch(d.store, d.ScreenerSpec(req.MinYield, req.Sector))
	case "forecasts":
		return watch(d.store, d.ForecastsSpec(req.Months))
	case "calendar":
		return watch(d.store, d.CalendarSpec(req.Year, req.Month))
	default:
		return nil, fmt.Errorf("unknown resource %q: %w", req.Resource, query.ErrInvalidSpec)
	}
}

func watch[T any](s *query.Store, spec query.Spec[T]) (*Watch, error) {
	o, err := query.Use(s, spec)
	if err != nil {
		return nil, err
	}

	out := make(chan Resource, 1)
	out <- View(o.Result())

	go func() {
		defer close(out)
		for r := range o.Updates() {
			// Only this goroutine sends, so dropping the unread state and
			// sending cannot block.
			select {
			case <-out:
			default:
			}
			out <- View(r)
		}
	}()

	return &Watch{
		updates: out,
		refetch: func(ctx context.Context) (Resource, error) {
			r, err := o.Refetch(ctx)
			return View(r), err
		},
		close: o.Close,
	}, nil
}

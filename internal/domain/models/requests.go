package models

// Requests for dashboard HTTP endpoints. Bound from path and query parameters.

type MonthlyRequest struct {
	Year    int  `query:"year" json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Refetch bool `query:"refetch" json:"refetch"`
}

type StocksByPeriodRequest struct {
	Period  string `query:"period" json:"period" default:"Monthly" validate:"oneof=Monthly Quarterly Yearly"`
	Refetch bool   `query:"refetch" json:"refetch"`
}

type StockRequest struct {
	Ticker  string `param:"ticker" json:"ticker" validate:"required,max=12,uppercase"`
	Refetch bool   `query:"refetch" json:"refetch"`
}

type StockChartRequest struct {
	Ticker  string `param:"ticker" json:"ticker" validate:"required,max=12,uppercase"`
	Window  int    `query:"window" json:"window" default:"20" validate:"gte=1,lte=400"`
	Refetch bool   `query:"refetch" json:"refetch"`
}

type ScreenerRequest struct {
	MinYield float64 `query:"min_yield" json:"min_yield" validate:"gte=0,lte=100"`
	Sector   string  `query:"sector" json:"sector" validate:"max=64"`
	Refetch  bool    `query:"refetch" json:"refetch"`
}

type ForecastsRequest struct {
	Months  int  `query:"months" json:"months" default:"12" validate:"gte=1,lte=60"`
	Refetch bool `query:"refetch" json:"refetch"`
}

type CalendarRequest struct {
	Year    int  `query:"year" json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Month   int  `query:"month" json:"month" validate:"omitempty,gte=1,lte=12"`
	Refetch bool `query:"refetch" json:"refetch"`
}

type RefreshRequest struct {
	Refetch bool `query:"refetch" json:"refetch"`
}

// InvalidateRequest selects cache entries by key prefix, e.g.
// {"prefix": ["stocks-by-period"]}. An empty prefix matches every entry.
type InvalidateRequest struct {
	Prefix []any `json:"prefix"`
}

// StreamCommand is a frame sent by a websocket client.
type StreamCommand struct {
	Action string `json:"action" validate:"oneof=refetch"`
}

// WatchRequest selects the resource a websocket stream follows. Only the
// parameters of the chosen resource are used.
type WatchRequest struct {
	Resource string  `param:"resource" json:"resource" validate:"oneof=overview monthly stocks-by-period stocks stock screener forecasts calendar"`
	Period   string  `query:"period" json:"period" default:"Monthly" validate:"oneof=Monthly Quarterly Yearly"`
	Ticker   string  `query:"ticker" json:"ticker" validate:"omitempty,max=12,uppercase"`
	Year     int     `query:"year" json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Month    int     `query:"month" json:"month" validate:"omitempty,gte=1,lte=12"`
	Months   int     `query:"months" json:"months" default:"12" validate:"gte=1,lte=60"`
	MinYield float64 `query:"min_yield" json:"min_yield" validate:"gte=0,lte=100"`
	Sector   string  `query:"sector" json:"sector" validate:"max=64"`
}

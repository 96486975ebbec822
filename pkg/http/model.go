package http

import "time"

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ResourceResponse is the data of every dashboard resource endpoint. Status is
// the cache entry status (resolved, failed, ...). Data stays set when a
// refresh failed after an earlier success.
type ResourceResponse struct {
	Status     string      `json:"status" example:"resolved"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Violations interface{} `json:"violations,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
	Stale      bool        `json:"stale"`
	Fallback   bool        `json:"fallback"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"period"`
	Message string                 `json:"message,omitempty" example:"period is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse represents a list response.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}

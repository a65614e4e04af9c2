package models

// RateLimitExceededResponse is written with HTTP 429 by the rate-limit middleware.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// ResetDailyResponse reports the outcome of a daily counter reset.
type ResetDailyResponse struct {
	ModifiedCount int64 `json:"modified_count"`
	Day           Day   `json:"day"`
}

// AllowlistResponse lists the currently active allowlist entries.
type AllowlistResponse struct {
	Entries []*AllowlistEntry `json:"entries"`
}

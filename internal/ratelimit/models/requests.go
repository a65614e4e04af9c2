package models

import (
	"strings"

	"quotagate/pkg/validation"
)

// CheckRateLimitRequest is the body of POST /ratelimit/check.
// Limit and WindowMs are optional; zero values use the configured default.
// WindowMs is capped at 30 days so it converts to a time.Duration safely.
type CheckRateLimitRequest struct {
	Key      string `json:"key" validate:"required,notblank,max=256"`
	Limit    int    `json:"limit" validate:"gte=0"`
	WindowMs int64  `json:"window_ms" validate:"gte=0,lte=2592000000"`
}

func (r *CheckRateLimitRequest) Normalize() {
	r.Key = strings.TrimSpace(r.Key)
}

func (r *CheckRateLimitRequest) Validate() error {
	return validation.Validate(r)
}

// ResetRateLimitRequest is the body of POST /admin/ratelimit/reset.
type ResetRateLimitRequest struct {
	Key string `json:"key" validate:"required,notblank,max=256"`
}

func (r *ResetRateLimitRequest) Normalize() {
	r.Key = strings.TrimSpace(r.Key)
}

func (r *ResetRateLimitRequest) Validate() error {
	return validation.Validate(r)
}

// CheckUsageRequest is the body of POST /usage/check.
type CheckUsageRequest struct {
	UserID  string `json:"user_id" validate:"required,notblank,max=128"`
	Feature string `json:"feature" validate:"required,max=64"`
}

func (r *CheckUsageRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Feature = strings.TrimSpace(strings.ToLower(r.Feature))
}

func (r *CheckUsageRequest) Validate() error {
	return validation.Validate(r)
}

// RecordUsageRequest is the body of POST /usage/record.
type RecordUsageRequest struct {
	UserID  string `json:"user_id" validate:"required,notblank,max=128"`
	Feature string `json:"feature" validate:"required,max=64"`
	Tokens  int64  `json:"tokens" validate:"gte=0"`
	Status  string `json:"status" validate:"required,oneof=success fail"`
}

func (r *RecordUsageRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Feature = strings.TrimSpace(strings.ToLower(r.Feature))
	r.Status = strings.TrimSpace(strings.ToLower(r.Status))
}

func (r *RecordUsageRequest) Validate() error {
	return validation.Validate(r)
}

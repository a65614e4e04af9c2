package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/validation"
)

// AllowlistEntryType names the subject an exemption applies to.
type AllowlistEntryType string

const (
	AllowlistTypeIP   AllowlistEntryType = "ip"
	AllowlistTypeUser AllowlistEntryType = "user"
)

// ParseAllowlistEntryType validates an entry type.
func ParseAllowlistEntryType(s string) (AllowlistEntryType, error) {
	t := AllowlistEntryType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "allowlist type must be 'ip' or 'user'")
	}
	return t, nil
}

func (t AllowlistEntryType) IsValid() bool {
	return t == AllowlistTypeIP || t == AllowlistTypeUser
}

func (t AllowlistEntryType) String() string {
	return string(t)
}

// AllowlistEntry exempts one subject from the HTTP rate-limit middleware.
// Quota enforcement still applies to exempt users.
type AllowlistEntry struct {
	ID         string             `json:"id"`
	Type       AllowlistEntryType `json:"type"`
	Identifier string             `json:"identifier"`
	Reason     string             `json:"reason"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	CreatedBy  string             `json:"created_by"`
}

// NewAllowlistEntry builds an entry, rejecting an expiry that is not after now.
func NewAllowlistEntry(entryType AllowlistEntryType, identifier, reason, createdBy string, expiresAt *time.Time, now time.Time) (*AllowlistEntry, error) {
	if !entryType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "allowlist type must be 'ip' or 'user'")
	}
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "allowlist identifier is required")
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expires_at must be in the future")
	}
	var exp *time.Time
	if expiresAt != nil {
		t := expiresAt.UTC()
		exp = &t
	}
	return &AllowlistEntry{
		ID:         uuid.NewString(),
		Type:       entryType,
		Identifier: identifier,
		Reason:     reason,
		ExpiresAt:  exp,
		CreatedAt:  now.UTC(),
		CreatedBy:  createdBy,
	}, nil
}

// ActiveAt reports whether the entry still applies at now.
func (e *AllowlistEntry) ActiveAt(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// AddAllowlistRequest is the body of POST /admin/ratelimit/allowlist.
type AddAllowlistRequest struct {
	Type       string     `json:"type" validate:"required,oneof=ip user"`
	Identifier string     `json:"identifier" validate:"required,notblank,max=255"`
	Reason     string     `json:"reason" validate:"required,notblank,max=500"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (r *AddAllowlistRequest) Normalize() {
	r.Type = strings.TrimSpace(strings.ToLower(r.Type))
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *AddAllowlistRequest) Validate() error {
	return validation.Validate(r)
}

// RemoveAllowlistRequest is the body of DELETE /admin/ratelimit/allowlist.
type RemoveAllowlistRequest struct {
	Type       string `json:"type" validate:"required,oneof=ip user"`
	Identifier string `json:"identifier" validate:"required,notblank,max=255"`
}

func (r *RemoveAllowlistRequest) Normalize() {
	r.Type = strings.TrimSpace(strings.ToLower(r.Type))
	r.Identifier = strings.TrimSpace(r.Identifier)
}

func (r *RemoveAllowlistRequest) Validate() error {
	return validation.Validate(r)
}

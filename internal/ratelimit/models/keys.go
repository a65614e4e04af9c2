package models

import (
	"fmt"
	"strings"
)

// KeyPrefix represents the type of subject a rate limit key is scoped to.
type KeyPrefix string

const (
	KeyPrefixIP   KeyPrefix = "ip"
	KeyPrefixUser KeyPrefix = "user"
)

// RateLimitKey builds sliding-window keys from user supplied segments.
type RateLimitKey struct {
	prefix     KeyPrefix
	identifier string
	route      string
}

// NewRateLimitKey creates a key for a subject and an optional route.
func NewRateLimitKey(prefix KeyPrefix, identifier, route string) RateLimitKey {
	return RateLimitKey{
		prefix:     prefix,
		identifier: sanitizeKeySegment(identifier),
		route:      sanitizeKeySegment(route),
	}
}

// String returns the formatted key, e.g. "user:123:articles".
func (k RateLimitKey) String() string {
	if k.route == "" {
		return fmt.Sprintf("%s:%s", k.prefix, k.identifier)
	}
	return fmt.Sprintf("%s:%s:%s", k.prefix, k.identifier, k.route)
}

// sanitizeKeySegment escapes delimiter characters so a user controlled
// segment containing ':' cannot land in another subject's window.
//
// Escape rules (order matters):
//  1. '_' becomes '__'
//  2. ':' becomes '_c'
//
// "user:admin" → "user_cadmin", "user_admin" → "user__admin".
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}

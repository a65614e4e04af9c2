// Package admin manages rate-limit exemptions.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/observability"
	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/platform/audit"
	"quotagate/pkg/platform/middleware/requesttime"
)

type AllowlistStore interface {
	Add(ctx context.Context, entry *models.AllowlistEntry) error
	Remove(ctx context.Context, entryType models.AllowlistEntryType, identifier string) error
	List(ctx context.Context, now time.Time) ([]*models.AllowlistEntry, error)
}

type Service struct {
	allowlist      AllowlistStore
	auditPublisher observability.AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(allowlist AllowlistStore, opts ...Option) (*Service, error) {
	if allowlist == nil {
		return nil, errors.New("allowlist store is required")
	}
	svc := &Service{allowlist: allowlist}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AddToAllowlist exempts a subject from the HTTP rate-limit middleware until
// req.ExpiresAt, or indefinitely when it is nil.
func (s *Service) AddToAllowlist(ctx context.Context, req *models.AddAllowlistRequest, actor string) (*models.AllowlistEntry, error) {
	entryType, err := models.ParseAllowlistEntryType(req.Type)
	if err != nil {
		return nil, err
	}
	entry, err := models.NewAllowlistEntry(entryType, req.Identifier, req.Reason, actor, req.ExpiresAt, requesttime.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.allowlist.Add(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to add to allowlist")
	}

	attrs := []any{
		"identifier", entry.Identifier,
		"type", entry.Type,
		"actor", actor,
		"reason", entry.Reason,
	}
	if entry.ExpiresAt != nil {
		attrs = append(attrs, "expires_at", entry.ExpiresAt.Format(time.RFC3339))
	}
	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAllowlistAdded, attrs...)
	return entry, nil
}

func (s *Service) RemoveFromAllowlist(ctx context.Context, req *models.RemoveAllowlistRequest, actor string) error {
	entryType, err := models.ParseAllowlistEntryType(req.Type)
	if err != nil {
		return err
	}
	if err := s.allowlist.Remove(ctx, entryType, req.Identifier); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to remove from allowlist")
	}

	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAllowlistRemoved,
		"identifier", req.Identifier,
		"type", entryType,
		"actor", actor,
	)
	return nil
}

// ListAllowlist returns the entries active at the request time.
func (s *Service) ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error) {
	entries, err := s.allowlist.List(ctx, requesttime.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to list allowlist entries")
	}
	return entries, nil
}

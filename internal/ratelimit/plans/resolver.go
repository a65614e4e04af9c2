// Package plans resolves plan tiers to limits tables and supplies the
// default tier-assignment collaborator.
package plans

import (
	"maps"
	"sort"

	"quotagate/internal/ratelimit/config"
	"quotagate/internal/ratelimit/models"
)

// Resolver is a pure lookup over a static tier table.
type Resolver struct {
	plans      map[models.PlanTier]models.PlanLimits
	restricted models.PlanLimits
}

// NewResolver copies the table so later edits by the caller have no effect.
func NewResolver(plans map[models.PlanTier]models.PlanLimits, restricted models.PlanLimits) *Resolver {
	return &Resolver{
		plans:      maps.Clone(plans),
		restricted: restricted,
	}
}

// NewResolverFromConfig builds a Resolver from the rate limit config.
func NewResolverFromConfig(cfg *config.Config) *Resolver {
	return NewResolver(cfg.Plans, cfg.Restricted)
}

// Resolve returns the limits for tier. Unknown or empty tiers get the
// restricted plan.
func (r *Resolver) Resolve(tier models.PlanTier) models.PlanLimits {
	if p, ok := r.plans[tier]; ok {
		return p
	}
	return r.restricted
}

// Known reports whether tier is in the table.
func (r *Resolver) Known(tier models.PlanTier) bool {
	_, ok := r.plans[tier]
	return ok
}

// Tiers lists the configured tiers in name order.
func (r *Resolver) Tiers() []models.PlanTier {
	out := make([]models.PlanTier, 0, len(r.plans))
	for t := range r.plans {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Features lists every feature the plan mentions, in name order.
func Features(p models.PlanLimits) []models.Feature {
	seen := make(map[models.Feature]struct{}, len(p.Features)+len(p.DailyLimits))
	for f := range p.Features {
		seen[f] = struct{}{}
	}
	for f := range p.DailyLimits {
		seen[f] = struct{}{}
	}
	out := make([]models.Feature, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package plans

import (
	"context"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
)

// StaticAssignments is an in-process PlanTierResolver backed by a user to
// tier map. Production deployments replace it with the billing service
// client; it serves development and single-tenant installs.
type StaticAssignments struct {
	mu          sync.RWMutex
	assignments map[string]models.PlanAssignment
	defaultTier models.PlanTier
}

// NewStaticAssignments creates a resolver. Users without an entry get
// defaultTier; an empty defaultTier leaves them unresolved.
func NewStaticAssignments(defaultTier models.PlanTier, assignments map[string]models.PlanAssignment) *StaticAssignments {
	s := &StaticAssignments{
		assignments: make(map[string]models.PlanAssignment, len(assignments)),
		defaultTier: defaultTier,
	}
	for userID, a := range assignments {
		s.assignments[userID] = a
	}
	return s
}

// ResolvePlanTier returns the user's assignment. Users with no entry and no
// default are reported as not found, which the quota enforcer maps to the
// restricted tier.
func (s *StaticAssignments) ResolvePlanTier(_ context.Context, userID string) (models.PlanAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.assignments[userID]; ok {
		return a, nil
	}
	if s.defaultTier != "" {
		return models.PlanAssignment{Tier: s.defaultTier}, nil
	}
	return models.PlanAssignment{}, dErrors.New(dErrors.CodeNotFound, "no plan assigned")
}

// Assign sets or replaces a user's assignment.
func (s *StaticAssignments) Assign(userID string, a models.PlanAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[userID] = a
}

// Replace swaps the whole assignment table, as after a file reload.
func (s *StaticAssignments) Replace(defaultTier models.PlanTier, assignments map[string]models.PlanAssignment) {
	next := make(map[string]models.PlanAssignment, len(assignments))
	for userID, a := range assignments {
		next[userID] = a
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = next
	s.defaultTier = defaultTier
}

type assignmentsFile struct {
	DefaultTier models.PlanTier                  `yaml:"default_tier"`
	Users       map[string]models.PlanAssignment `yaml:"users"`
}

// LoadAssignments reads a YAML assignment file:
//
//	default_tier: free
//	users:
//	  u-123: {tier: pro, period_anchor: 2025-07-15T00:00:00Z}
func LoadAssignments(path string) (*StaticAssignments, error) {
	file, err := readAssignments(path)
	if err != nil {
		return nil, err
	}
	return NewStaticAssignments(file.DefaultTier, file.Users), nil
}

func readAssignments(path string) (*assignmentsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "read plan assignments file")
	}
	var file assignmentsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse plan assignments file")
	}
	return &file, nil
}

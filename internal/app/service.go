package app

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/fbagate/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	// ApprovalTokens overrides the words accepted as sample approval.
	ApprovalTokens []string
	// CommercialThresholds overrides the commercial gate thresholds when set.
	CommercialThresholds *domain.CommercialThresholds
	// Logger receives evidence warnings and transition notices.
	Logger *log.Logger
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service coordinates projects, their evidence and the phase gates.
type Service struct {
	repo           Repository
	snapshots      SnapshotStore
	idGen          IDGenerator
	clock          Clock
	approvalTokens []string
	thresholds     domain.CommercialThresholds
	logger         *log.Logger
}

// NewService constructs a new value for this package.
func NewService(repo Repository, snapshots SnapshotStore, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	tokens := sanitizeTokens(cfg.ApprovalTokens)
	if len(tokens) == 0 {
		tokens = append([]string(nil), domain.DefaultApprovalTokens...)
	}
	thresholds := domain.DefaultCommercialThresholds()
	if cfg.CommercialThresholds != nil {
		thresholds = *cfg.CommercialThresholds
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Service{
		repo:           repo,
		snapshots:      snapshots,
		idGen:          idGen,
		clock:          clock,
		approvalTokens: tokens,
		thresholds:     thresholds,
		logger:         logger,
	}
}

// CreateProjectInput holds input values for create project operations.
type CreateProjectInput struct {
	Name        string
	Description string
	ASIN        string
}

// CreateProject creates a project in the research phase.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (domain.Project, error) {
	now := s.clock()
	project, err := domain.NewProject(s.idGen(), in.Name, in.Description, now)
	if err != nil {
		return domain.Project{}, err
	}
	if strings.TrimSpace(in.ASIN) != "" {
		project.SetASIN(in.ASIN, now)
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// UpdateProjectInput holds input values for update project operations.
// A nil ASIN leaves the stored identifier untouched.
type UpdateProjectInput struct {
	ProjectID   string
	Name        string
	Description string
	ASIN        *string
}

// UpdateProject updates project details.
func (s *Service) UpdateProject(ctx context.Context, in UpdateProjectInput) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, in.ProjectID)
	if err != nil {
		return domain.Project{}, err
	}
	now := s.clock()
	if err := project.UpdateDetails(in.Name, in.Description, now); err != nil {
		return domain.Project{}, err
	}
	if in.ASIN != nil {
		project.SetASIN(*in.ASIN, now)
	}
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.repo.GetProject(ctx, projectID)
}

// ListProjects lists projects.
func (s *Service) ListProjects(ctx context.Context, includeArchived bool) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx, includeArchived)
}

// SetDecision records a verdict on the project.
func (s *Service) SetDecision(ctx context.Context, projectID string, decision domain.Decision) (domain.Project, error) {
	return s.mutateProject(ctx, projectID, func(p *domain.Project, now time.Time) error {
		return p.SetDecision(decision, now)
	})
}

// DiscardProject marks the project DISCARDED with a reason.
func (s *Service) DiscardProject(ctx context.Context, projectID, reason string) (domain.Project, error) {
	return s.mutateProject(ctx, projectID, func(p *domain.Project, now time.Time) error {
		return p.Discard(reason, now)
	})
}

// RestoreDiscardedProject lifts a discard, leaving the project on HOLD.
func (s *Service) RestoreDiscardedProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.mutateProject(ctx, projectID, func(p *domain.Project, now time.Time) error {
		return p.RestoreFromDiscard(now)
	})
}

// ArchiveProject archives a project.
func (s *Service) ArchiveProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.mutateProject(ctx, projectID, func(p *domain.Project, now time.Time) error {
		p.Archive(now)
		return nil
	})
}

// RestoreProject restores an archived project.
func (s *Service) RestoreProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.mutateProject(ctx, projectID, func(p *domain.Project, now time.Time) error {
		p.Restore(now)
		return nil
	})
}

// SetPhaseDirect writes the phase without running the gate evaluator.
func (s *Service) SetPhaseDirect(ctx context.Context, projectID string, phase domain.Phase) (domain.Project, error) {
	return s.mutateProject(ctx, projectID, func(p *domain.Project, now time.Time) error {
		return p.SetPhase(phase, now)
	})
}

// ListProjectChangeEvents lists recent activity for a project.
func (s *Service) ListProjectChangeEvents(ctx context.Context, projectID string, limit int) ([]domain.ChangeEvent, error) {
	return s.repo.ListProjectChangeEvents(ctx, projectID, limit)
}

// mutateProject loads, changes, and persists one project.
func (s *Service) mutateProject(ctx context.Context, projectID string, fn func(*domain.Project, time.Time) error) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := fn(&project, s.clock()); err != nil {
		return domain.Project{}, err
	}
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// requireProject fails with ErrNotFound when the project does not exist.
func (s *Service) requireProject(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, strings.TrimSpace(projectID))
	if err != nil {
		return domain.Project{}, err
	}
	if project.ArchivedAt != nil {
		return domain.Project{}, ErrProjectArchived
	}
	return project, nil
}

// sanitizeTokens trims, lowercases and deduplicates approval tokens.
func sanitizeTokens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

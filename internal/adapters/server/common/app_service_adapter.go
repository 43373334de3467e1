package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/domain"
	"github.com/evanschultz/fbagate/internal/quotetext"
)

// AppServiceAdapter maps transport contracts onto app.Service project and gate APIs.
type AppServiceAdapter struct {
	service *app.Service
}

var _ Service = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListProjects lists projects, optionally including archived ones.
func (a *AppServiceAdapter) ListProjects(ctx context.Context, includeArchived bool) ([]Project, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	projects, err := a.service.ListProjects(ctx, includeArchived)
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, mapDomainProject(p))
	}
	return out, nil
}

// GetProject returns one project by id.
func (a *AppServiceAdapter) GetProject(ctx context.Context, projectID string) (Project, error) {
	if err := a.ready(); err != nil {
		return Project{}, err
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return Project{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	project, err := a.service.GetProject(ctx, projectID)
	if err != nil {
		return Project{}, mapAppError("get project", err)
	}
	return mapDomainProject(project), nil
}

// CreateProject creates one research-phase project.
func (a *AppServiceAdapter) CreateProject(ctx context.Context, in CreateProjectRequest) (Project, error) {
	if err := a.ready(); err != nil {
		return Project{}, err
	}
	project, err := a.service.CreateProject(ctx, app.CreateProjectInput{
		Name:        in.Name,
		Description: in.Description,
		ASIN:        in.ASIN,
	})
	if err != nil {
		return Project{}, mapAppError("create project", err)
	}
	return mapDomainProject(project), nil
}

// CheckPhase evaluates one phase transition without mutating the project.
func (a *AppServiceAdapter) CheckPhase(ctx context.Context, in PhaseCheckRequest) (app.TransitionResult, error) {
	if err := a.ready(); err != nil {
		return app.TransitionResult{}, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return app.TransitionResult{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	to, err := domain.ParsePhase(in.To)
	if err != nil {
		return app.InvalidPhaseResult(), nil
	}
	var from domain.Phase
	if strings.TrimSpace(in.From) == "" {
		project, err := a.service.GetProject(ctx, projectID)
		if err != nil {
			return app.TransitionResult{}, mapAppError("check phase", err)
		}
		from = project.Phase
	} else if from, err = domain.ParsePhase(in.From); err != nil {
		return app.InvalidPhaseResult(), nil
	}
	res, err := a.service.ValidatePhaseTransition(ctx, projectID, from, to)
	if err != nil {
		return app.TransitionResult{}, mapAppError("check phase", err)
	}
	return res, nil
}

// AdvancePhase moves one project through the gate. A blocked gate returns the
// evaluated transition together with an ErrGateBlocked error.
func (a *AppServiceAdapter) AdvancePhase(ctx context.Context, in AdvancePhaseRequest) (AdvancePhaseResult, error) {
	if err := a.ready(); err != nil {
		return AdvancePhaseResult{}, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return AdvancePhaseResult{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	to, err := domain.ParsePhase(in.To)
	if err != nil {
		project, err := a.service.GetProject(ctx, projectID)
		if err != nil {
			return AdvancePhaseResult{}, mapAppError("advance phase", err)
		}
		return AdvancePhaseResult{Project: mapDomainProject(project), Transition: app.InvalidPhaseResult()}, nil
	}
	project, res, err := a.service.AdvancePhase(ctx, projectID, to)
	out := AdvancePhaseResult{Project: mapDomainProject(project), Transition: res}
	if err != nil {
		return out, mapAppError("advance phase", err)
	}
	return out, nil
}

// CommercialGate evaluates the commercial gate for one project.
func (a *AppServiceAdapter) CommercialGate(ctx context.Context, projectID string) (app.CommercialReport, error) {
	if err := a.ready(); err != nil {
		return app.CommercialReport{}, err
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return app.CommercialReport{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	report, err := a.service.CommercialGate(ctx, projectID)
	if err != nil {
		return app.CommercialReport{}, mapAppError("commercial gate", err)
	}
	return report, nil
}

// ParseSupplierQuote parses one quote block. Parser failures are reported in
// the result, never as errors.
func (a *AppServiceAdapter) ParseSupplierQuote(_ context.Context, text string) (quotetext.Result, error) {
	if err := a.ready(); err != nil {
		return quotetext.Result{}, err
	}
	return a.service.ParseSupplierQuote(text), nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

func mapDomainProject(p domain.Project) Project {
	return Project{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Description:     p.Description,
		ASIN:            p.ASIN,
		Phase:           int(p.Phase),
		PhaseName:       p.Phase.String(),
		Decision:        string(p.Decision),
		DiscardedReason: p.DiscardedReason,
		DiscardedAt:     p.DiscardedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		ArchivedAt:      p.ArchivedAt,
	}
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrPhaseGateBlocked):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrGateBlocked, err))
	case errors.Is(err, app.ErrProjectArchived),
		errors.Is(err, domain.ErrProjectNotDiscarded):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidGTINType),
		errors.Is(err, domain.ErrInvalidDirection):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

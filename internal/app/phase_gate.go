package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/evanschultz/fbagate/internal/domain"
)

const tracerName = "github.com/evanschultz/fbagate/internal/app"

// TransitionResult is the verdict of one phase transition check.
type TransitionResult struct {
	From         domain.Phase               `json:"from"`
	To           domain.Phase               `json:"to"`
	OK           bool                       `json:"ok"`
	Missing      []string                   `json:"missing"`
	Requirements []domain.RequirementResult `json:"requirements,omitempty"`
}

// GateBlockedError reports an AdvancePhase call refused by the gate.
type GateBlockedError struct {
	Result TransitionResult
}

// Error implements error.
func (e *GateBlockedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPhaseGateBlocked, strings.Join(e.Result.Missing, ", "))
}

// Unwrap returns ErrPhaseGateBlocked.
func (e *GateBlockedError) Unwrap() error {
	return ErrPhaseGateBlocked
}

// evidenceKind names one independently fetched evidence source.
type evidenceKind string

const (
	evidenceIdentifiers    evidenceKind = "product_identifiers"
	evidenceDocuments      evidenceKind = "documents"
	evidenceEstimates      evidenceKind = "supplier_price_estimates"
	evidenceCompetitor     evidenceKind = "competitor_snapshot"
	evidenceProfitability  evidenceKind = "profitability"
	evidenceViability      evidenceKind = "viability_snapshot"
	evidenceQuotes         evidenceKind = "supplier_quotes"
	evidenceTasks          evidenceKind = "tasks"
	evidencePurchaseOrders evidenceKind = "purchase_orders"
)

// evidenceSet holds everything fetched for one evaluation. Each fetcher writes
// only its own field; errs is shared and guarded by mu.
type evidenceSet struct {
	project        domain.Project
	identifiers    *domain.ProductIdentifiers
	documents      []domain.Document
	estimates      []domain.SupplierPriceEstimate
	competitor     *domain.CompetitorSnapshot
	profitability  *domain.Profitability
	viability      *domain.ViabilitySnapshot
	quotes         []domain.SupplierQuote
	tasks          []domain.Task
	purchaseOrders []domain.PurchaseOrder

	mu   sync.Mutex
	errs map[evidenceKind]error
}

func (ev *evidenceSet) setErr(kind evidenceKind, err error) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.errs[kind] = err
}

// requirement binds a requirement kind to the evidence it reads and its predicate.
type requirement struct {
	kind  domain.RequirementKind
	needs []evidenceKind
	met   func(ev *evidenceSet, tokens []string) bool
}

// phaseRules lists requirements keyed by the phase being left. Transitions
// without an entry pass.
var phaseRules = map[domain.Phase][]requirement{
	domain.PhaseResearch: {
		{
			kind:  domain.RequirementCompetitorIdentifier,
			needs: []evidenceKind{evidenceIdentifiers},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasCompetitorIdentifier(ev.project, ev.identifiers)
			},
		},
		{
			kind: domain.RequirementResearchDecision,
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.DecisionAllowsResearchExit(ev.project.Decision)
			},
		},
		{
			kind:  domain.RequirementResearchEvidence,
			needs: []evidenceKind{evidenceDocuments, evidenceEstimates, evidenceCompetitor},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasDocumentInCategory(ev.documents, domain.DocumentCategoryAnalysis) ||
					domain.HasPriceEstimate(ev.estimates) ||
					(ev.competitor != nil && ev.competitor.HasAnyField())
			},
		},
	},
	domain.PhaseViability: {
		{
			kind:  domain.RequirementCompetitorSnapshot,
			needs: []evidenceKind{evidenceCompetitor},
			met: func(ev *evidenceSet, _ []string) bool {
				return ev.competitor != nil && ev.competitor.Complete()
			},
		},
		{
			kind:  domain.RequirementProfitability,
			needs: []evidenceKind{evidenceProfitability, evidenceViability},
			met: func(ev *evidenceSet, _ []string) bool {
				if ev.profitability != nil {
					return domain.ProfitabilityPositive(ev.profitability)
				}
				if ev.viability != nil {
					p := ev.viability.Profitability(ev.project.ID)
					return domain.ProfitabilityPositive(&p)
				}
				return false
			},
		},
	},
	domain.PhaseSuppliers: {
		{
			kind:  domain.RequirementSupplierQuote,
			needs: []evidenceKind{evidenceQuotes},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasQuote(ev.quotes)
			},
		},
		{
			kind:  domain.RequirementQuotePriceBreak,
			needs: []evidenceKind{evidenceQuotes},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasPositivePriceBreak(ev.quotes)
			},
		},
	},
	domain.PhaseSamples: {
		{
			kind:  domain.RequirementSampleDocument,
			needs: []evidenceKind{evidenceDocuments},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasDocumentInCategory(ev.documents, domain.DocumentCategorySample)
			},
		},
		{
			kind:  domain.RequirementSampleApproval,
			needs: []evidenceKind{evidenceTasks},
			met: func(ev *evidenceSet, tokens []string) bool {
				return domain.HasApprovedSampleTask(ev.tasks, tokens)
			},
		},
	},
	domain.PhaseProduction: {
		{
			kind:  domain.RequirementPurchaseOrder,
			needs: []evidenceKind{evidencePurchaseOrders},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasPurchaseOrder(ev.purchaseOrders) && domain.HasNonDraftPurchaseOrder(ev.purchaseOrders)
			},
		},
		{
			kind:  domain.RequirementPurchaseOrderDocument,
			needs: []evidenceKind{evidenceDocuments},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasDocumentInCategory(ev.documents, domain.DocumentCategoryPO)
			},
		},
	},
	domain.PhaseListing: {
		{
			kind:  domain.RequirementValidGTIN,
			needs: []evidenceKind{evidenceIdentifiers},
			met: func(ev *evidenceSet, _ []string) bool {
				return ev.identifiers != nil && ev.identifiers.GTINValid()
			},
		},
		{
			kind:  domain.RequirementListingDocument,
			needs: []evidenceKind{evidenceDocuments},
			met: func(ev *evidenceSet, _ []string) bool {
				return domain.HasDocumentInCategory(ev.documents, domain.DocumentCategoryListing)
			},
		},
	},
}

// ValidatePhaseTransition checks whether the project may move from one phase to
// another. Gate failures are reported in the result; the error is only set when
// the project itself cannot be loaded.
func (s *Service) ValidatePhaseTransition(ctx context.Context, projectID string, from, to domain.Phase) (TransitionResult, error) {
	if res, done := structuralCheck(from, to); done {
		return res, nil
	}
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return TransitionResult{}, err
	}
	return s.EvaluateTransition(ctx, project, from, to), nil
}

// EvaluateTransition checks a transition against a supplied project. It never
// fails: evidence errors count as unmet requirements and a panic anywhere in
// evaluation collapses the result to "phase validation failed".
func (s *Service) EvaluateTransition(ctx context.Context, project domain.Project, from, to domain.Phase) (res TransitionResult) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "app.EvaluateTransition", trace.WithAttributes(
		attribute.String("fbagate.project_id", project.ID),
		attribute.Int("fbagate.phase.from", int(from)),
		attribute.Int("fbagate.phase.to", int(to)),
	))
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("phase validation panicked", "project_id", project.ID, "from", int(from), "to", int(to), "panic", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			res = failedResult(from, to)
		}
		span.SetAttributes(
			attribute.Bool("fbagate.gate.ok", res.OK),
			attribute.Int("fbagate.gate.missing", len(res.Missing)),
		)
		span.End()
	}()

	if res, done := structuralCheck(from, to); done {
		return res
	}
	if project.IsDiscarded() {
		return blockedResult(from, to, domain.LabelProjectDiscarded)
	}
	rules, ok := phaseRules[from]
	if !ok {
		return TransitionResult{From: from, To: to, OK: true, Missing: []string{}}
	}

	ev, err := s.fetchEvidence(ctx, project, rules)
	if err != nil {
		// A recovered fetcher panic.
		s.logger.Error("phase validation failed", "project_id", project.ID, "err", err)
		span.SetStatus(codes.Error, err.Error())
		return failedResult(from, to)
	}

	res = TransitionResult{From: from, To: to, Missing: []string{}}
	for _, req := range rules {
		result := domain.RequirementResult{Kind: req.kind, Label: req.kind.Label()}
		met := req.met(ev, s.approvalTokens)
		result.Outcome = domain.OutcomeOf(met)
		if fetchErr := ev.firstErr(req.needs); !met && fetchErr != nil {
			result.Outcome = domain.OutcomeEvidenceUnavailable
			result.Detail = fetchErr.Error()
			s.logger.Warn("evidence unavailable", "project_id", project.ID, "requirement", string(req.kind), "err", fetchErr)
		}
		res.Requirements = append(res.Requirements, result)
		if !result.Outcome.Met() && !slices.Contains(res.Missing, result.Label) {
			res.Missing = append(res.Missing, result.Label)
		}
	}
	res.OK = len(res.Missing) == 0
	return res
}

// AdvancePhase moves the project to phase to when the gate allows it. A
// blocked gate returns a *GateBlockedError carrying the result.
func (s *Service) AdvancePhase(ctx context.Context, projectID string, to domain.Phase) (domain.Project, TransitionResult, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, TransitionResult{}, err
	}
	from := project.Phase
	res := s.EvaluateTransition(ctx, project, from, to)
	if !res.OK {
		return project, res, &GateBlockedError{Result: res}
	}
	if to == from {
		return project, res, nil
	}
	if err := project.SetPhase(to, s.clock()); err != nil {
		return domain.Project{}, res, err
	}
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, res, err
	}
	s.logger.Info("phase advanced", "project_id", project.ID, "from", from.String(), "to", to.String())
	return project, res, nil
}

// InvalidPhaseResult is the blocked result for phase input that is not an
// integer. Transports return it in place of an evaluation.
func InvalidPhaseResult() TransitionResult {
	return blockedResult(0, 0, domain.LabelInvalidPhase)
}

// structuralCheck applies the direction and skip checks on the raw ordinals.
// done is false when requirement evaluation must continue.
func structuralCheck(from, to domain.Phase) (TransitionResult, bool) {
	switch {
	case to <= from:
		return TransitionResult{From: from, To: to, OK: true, Missing: []string{}}, true
	case to > from+1:
		return blockedResult(from, to, domain.LabelCannotSkipPhases), true
	default:
		return TransitionResult{}, false
	}
}

func blockedResult(from, to domain.Phase, label string) TransitionResult {
	return TransitionResult{From: from, To: to, Missing: []string{label}}
}

func failedResult(from, to domain.Phase) TransitionResult {
	return blockedResult(from, to, domain.LabelValidationFailed)
}

// errFetcherPanic marks a panic recovered inside an evidence fetcher.
var errFetcherPanic = errors.New("evidence fetcher panicked")

// fetchEvidence loads every evidence source the rules need concurrently.
// Fetch errors are recorded per source; only a panic fails the whole fetch.
func (s *Service) fetchEvidence(ctx context.Context, project domain.Project, rules []requirement) (*evidenceSet, error) {
	ev := &evidenceSet{project: project, errs: map[evidenceKind]error{}}
	kinds := make([]evidenceKind, 0, len(rules))
	for _, req := range rules {
		for _, kind := range req.needs {
			if !slices.Contains(kinds, kind) {
				kinds = append(kinds, kind)
			}
		}
	}

	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s: %v", errFetcherPanic, kind, r)
				}
			}()
			if fetchErr := s.fetchOne(ctx, ev, kind); fetchErr != nil {
				ev.setErr(kind, fetchErr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ev, nil
}

// fetchOne loads one evidence source into ev.
func (s *Service) fetchOne(ctx context.Context, ev *evidenceSet, kind evidenceKind) error {
	id := ev.project.ID
	var err error
	switch kind {
	case evidenceIdentifiers:
		ev.identifiers, err = s.repo.GetProductIdentifiers(ctx, id)
	case evidenceDocuments:
		ev.documents, err = s.repo.ListDocuments(ctx, id)
	case evidenceEstimates:
		ev.estimates, err = s.repo.ListSupplierPriceEstimates(ctx, id)
	case evidenceCompetitor:
		ev.competitor, err = s.LoadCompetitorSnapshot(ctx, id)
	case evidenceProfitability:
		ev.profitability, err = s.repo.GetProfitability(ctx, id)
	case evidenceViability:
		ev.viability, err = s.LoadViabilitySnapshot(ctx, id)
	case evidenceQuotes:
		ev.quotes, err = s.repo.ListSupplierQuotes(ctx, id)
	case evidenceTasks:
		ev.tasks, err = s.repo.ListTasks(ctx, TaskFilter{
			Status:     domain.TaskStatusDone,
			EntityType: domain.EntityTypeProject,
			EntityID:   id,
		})
	case evidencePurchaseOrders:
		ev.purchaseOrders, err = s.repo.ListPurchaseOrders(ctx, id)
	default:
		return fmt.Errorf("unknown evidence source %q", kind)
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", kind, err)
	}
	return nil
}

// firstErr returns the first recorded fetch error among kinds.
func (ev *evidenceSet) firstErr(kinds []evidenceKind) error {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	for _, kind := range kinds {
		if err := ev.errs[kind]; err != nil {
			return err
		}
	}
	return nil
}

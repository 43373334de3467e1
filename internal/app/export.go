package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/evanschultz/fbagate/internal/domain"
)

// ExportVersion tags the export document layout.
const ExportVersion = "fbagate.export.v1"

// Export is a point-in-time dump of projects and every evidence record the gates read.
type Export struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Projects   []ProjectDossier `json:"projects"`
}

// ProjectDossier groups one project with its evidence.
type ProjectDossier struct {
	Project        domain.Project                 `json:"project"`
	Tasks          []domain.Task                  `json:"tasks"`
	Documents      []domain.Document              `json:"documents"`
	SupplierQuotes []domain.SupplierQuote         `json:"supplier_quotes"`
	PriceEstimates []domain.SupplierPriceEstimate `json:"price_estimates"`
	PurchaseOrders []domain.PurchaseOrder         `json:"purchase_orders"`
	Identifiers    *domain.ProductIdentifiers     `json:"identifiers,omitempty"`
	Profitability  *domain.Profitability          `json:"profitability,omitempty"`
	Expenses       []domain.Expense               `json:"expenses"`
	Incomes        []domain.Income                `json:"incomes"`
	StockEntries   []domain.StockEntry            `json:"stock_entries"`
	Competitor     *domain.CompetitorSnapshot     `json:"competitor_snapshot,omitempty"`
	Viability      *domain.ViabilitySnapshot      `json:"viability_snapshot,omitempty"`
}

// ExportProjects collects a dossier per project, ordered by project id.
func (s *Service) ExportProjects(ctx context.Context, includeArchived bool) (Export, error) {
	projects, err := s.repo.ListProjects(ctx, includeArchived)
	if err != nil {
		return Export{}, fmt.Errorf("list projects: %w", err)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })

	out := Export{
		Version:    ExportVersion,
		ExportedAt: s.clock().UTC(),
		Projects:   make([]ProjectDossier, 0, len(projects)),
	}
	for _, project := range projects {
		dossier, err := s.projectDossier(ctx, project)
		if err != nil {
			return Export{}, fmt.Errorf("export project %s: %w", project.ID, err)
		}
		out.Projects = append(out.Projects, dossier)
	}
	return out, nil
}

func (s *Service) projectDossier(ctx context.Context, project domain.Project) (ProjectDossier, error) {
	d := ProjectDossier{Project: project}
	var err error
	if d.Tasks, err = s.repo.ListTasks(ctx, TaskFilter{EntityType: domain.EntityTypeProject, EntityID: project.ID}); err != nil {
		return d, err
	}
	if d.Documents, err = s.repo.ListDocuments(ctx, project.ID); err != nil {
		return d, err
	}
	if d.SupplierQuotes, err = s.repo.ListSupplierQuotes(ctx, project.ID); err != nil {
		return d, err
	}
	if d.PriceEstimates, err = s.repo.ListSupplierPriceEstimates(ctx, project.ID); err != nil {
		return d, err
	}
	if d.PurchaseOrders, err = s.repo.ListPurchaseOrders(ctx, project.ID); err != nil {
		return d, err
	}
	if d.Identifiers, err = s.repo.GetProductIdentifiers(ctx, project.ID); err != nil {
		return d, err
	}
	if d.Profitability, err = s.repo.GetProfitability(ctx, project.ID); err != nil {
		return d, err
	}
	if d.Expenses, err = s.repo.ListExpenses(ctx, project.ID); err != nil {
		return d, err
	}
	if d.Incomes, err = s.repo.ListIncomes(ctx, project.ID); err != nil {
		return d, err
	}
	if d.StockEntries, err = s.repo.ListStockEntries(ctx, project.ID); err != nil {
		return d, err
	}
	if d.Competitor, err = s.LoadCompetitorSnapshot(ctx, project.ID); err != nil {
		return d, err
	}
	if d.Viability, err = s.LoadViabilitySnapshot(ctx, project.ID); err != nil {
		return d, err
	}
	return d, nil
}

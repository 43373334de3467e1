package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/evanschultz/fbagate/internal/domain"
)

// CommercialReport bundles the business and stock rollups with the commercial
// gate for a project's current phase.
type CommercialReport struct {
	ProjectID string                  `json:"project_id"`
	Phase     domain.Phase            `json:"phase"`
	Business  domain.BusinessSnapshot `json:"business"`
	Stock     domain.StockSignal      `json:"stock"`
	Gate      domain.CommercialGate   `json:"gate"`
}

// CommercialGate loads the project's financial and stock records and evaluates
// the commercial gate for its current phase.
func (s *Service) CommercialGate(ctx context.Context, projectID string) (CommercialReport, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return CommercialReport{}, err
	}

	var (
		pos           []domain.PurchaseOrder
		expenses      []domain.Expense
		incomes       []domain.Income
		stock         []domain.StockEntry
		profitability *domain.Profitability
		viability     *domain.ViabilitySnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pos, err = s.repo.ListPurchaseOrders(gctx, project.ID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.repo.ListExpenses(gctx, project.ID)
		return err
	})
	g.Go(func() (err error) {
		incomes, err = s.repo.ListIncomes(gctx, project.ID)
		return err
	})
	g.Go(func() (err error) {
		stock, err = s.repo.ListStockEntries(gctx, project.ID)
		return err
	})
	g.Go(func() (err error) {
		profitability, err = s.repo.GetProfitability(gctx, project.ID)
		return err
	})
	g.Go(func() (err error) {
		viability, err = s.LoadViabilitySnapshot(gctx, project.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return CommercialReport{}, err
	}

	business := domain.ComputeProjectBusinessSnapshot(domain.BusinessInput{
		PurchaseOrders: pos,
		Expenses:       expenses,
		Incomes:        incomes,
		SellingPrice:   sellingPrice(profitability, viability),
	})
	signal := domain.ComputeProjectStockSignal(stock, s.clock())
	thresholds := s.thresholds
	return CommercialReport{
		ProjectID: project.ID,
		Phase:     project.Phase,
		Business:  business,
		Stock:     signal,
		Gate: domain.ComputeCommercialGate(domain.CommercialGateInput{
			Phase:      project.Phase,
			Business:   business,
			Stock:      signal,
			Thresholds: &thresholds,
		}),
	}, nil
}

// sellingPrice prefers the stored profitability record over the cached
// viability snapshot.
func sellingPrice(p *domain.Profitability, v *domain.ViabilitySnapshot) *float64 {
	switch {
	case p != nil && p.SellingPrice > 0:
		price := p.SellingPrice
		return &price
	case v != nil && v.SellingPrice > 0:
		price := v.SellingPrice
		return &price
	default:
		return nil
	}
}

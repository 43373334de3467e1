package app

import (
	"context"
	"time"

	"github.com/evanschultz/fbagate/internal/domain"
)

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	ProjectID string
	Title     string
	Status    domain.TaskStatus
}

// CreateTask creates a project-scoped task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:         s.idGen(),
		EntityType: domain.EntityTypeProject,
		EntityID:   in.ProjectID,
		Title:      in.Title,
		Status:     in.Status,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// CompleteTask marks a task done.
func (s *Service) CompleteTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.mutateTask(ctx, taskID, func(t *domain.Task, now time.Time) { t.Complete(now) })
}

// ReopenTask moves a task back to todo.
func (s *Service) ReopenTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.mutateTask(ctx, taskID, func(t *domain.Task, now time.Time) { t.Reopen(now) })
}

func (s *Service) mutateTask(ctx context.Context, taskID string, fn func(*domain.Task, time.Time)) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	fn(&task, s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ListTasks lists tasks matching filter.
func (s *Service) ListTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, filter)
}

// AddDocumentInput holds input values for document registration.
type AddDocumentInput struct {
	ProjectID   string
	Category    domain.DocumentCategory
	Name        string
	StoragePath string
}

// AddDocument registers a document against a project.
func (s *Service) AddDocument(ctx context.Context, in AddDocumentInput) (domain.Document, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.Document{}, err
	}
	doc, err := domain.NewDocument(s.idGen(), in.ProjectID, in.Category, in.Name, in.StoragePath, s.clock())
	if err != nil {
		return domain.Document{}, err
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// ListDocuments lists documents for a project.
func (s *Service) ListDocuments(ctx context.Context, projectID string) ([]domain.Document, error) {
	return s.repo.ListDocuments(ctx, projectID)
}

// CreateSupplierQuote stores a supplier quote. in.ID is assigned by the service.
func (s *Service) CreateSupplierQuote(ctx context.Context, in domain.SupplierQuoteInput) (domain.SupplierQuote, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.SupplierQuote{}, err
	}
	in.ID = s.idGen()
	quote, err := domain.NewSupplierQuote(in, s.clock())
	if err != nil {
		return domain.SupplierQuote{}, err
	}
	if err := s.repo.CreateSupplierQuote(ctx, quote); err != nil {
		return domain.SupplierQuote{}, err
	}
	return quote, nil
}

// ListSupplierQuotes lists quotes for a project.
func (s *Service) ListSupplierQuotes(ctx context.Context, projectID string) ([]domain.SupplierQuote, error) {
	return s.repo.ListSupplierQuotes(ctx, projectID)
}

// CreatePriceEstimateInput holds input values for supplier price estimates.
type CreatePriceEstimateInput struct {
	ProjectID string
	Source    string
	UnitPrice float64
	Currency  string
	MOQ       *int
}

// CreateSupplierPriceEstimate records a research-phase price estimate.
func (s *Service) CreateSupplierPriceEstimate(ctx context.Context, in CreatePriceEstimateInput) (domain.SupplierPriceEstimate, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.SupplierPriceEstimate{}, err
	}
	estimate, err := domain.NewSupplierPriceEstimate(s.idGen(), in.ProjectID, in.Source, in.UnitPrice, in.Currency, in.MOQ, s.clock())
	if err != nil {
		return domain.SupplierPriceEstimate{}, err
	}
	if err := s.repo.CreateSupplierPriceEstimate(ctx, estimate); err != nil {
		return domain.SupplierPriceEstimate{}, err
	}
	return estimate, nil
}

// ListSupplierPriceEstimates lists estimates for a project.
func (s *Service) ListSupplierPriceEstimates(ctx context.Context, projectID string) ([]domain.SupplierPriceEstimate, error) {
	return s.repo.ListSupplierPriceEstimates(ctx, projectID)
}

// CreatePurchaseOrder stores a purchase order. in.ID is assigned by the service.
func (s *Service) CreatePurchaseOrder(ctx context.Context, in domain.PurchaseOrderInput) (domain.PurchaseOrder, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.PurchaseOrder{}, err
	}
	in.ID = s.idGen()
	po, err := domain.NewPurchaseOrder(in, s.clock())
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := s.repo.CreatePurchaseOrder(ctx, po); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return po, nil
}

// SetPurchaseOrderStatus moves a purchase order to status.
func (s *Service) SetPurchaseOrderStatus(ctx context.Context, poID string, status domain.POStatus) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := po.SetStatus(status, s.clock()); err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := s.repo.UpdatePurchaseOrder(ctx, po); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return po, nil
}

// ListPurchaseOrders lists purchase orders for a project.
func (s *Service) ListPurchaseOrders(ctx context.Context, projectID string) ([]domain.PurchaseOrder, error) {
	return s.repo.ListPurchaseOrders(ctx, projectID)
}

// SaveIdentifiersInput holds input values for product identifiers.
type SaveIdentifiersInput struct {
	ProjectID       string
	GTINType        domain.GTINType
	GTINCode        string
	ExemptionReason string
	ASIN            string
	FNSKU           string
}

// SaveProductIdentifiers replaces the identifiers stored for a project.
func (s *Service) SaveProductIdentifiers(ctx context.Context, in SaveIdentifiersInput) (domain.ProductIdentifiers, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.ProductIdentifiers{}, err
	}
	ids, err := domain.NewProductIdentifiers(in.ProjectID, in.GTINType, in.GTINCode, in.ExemptionReason, in.ASIN, in.FNSKU, s.clock())
	if err != nil {
		return domain.ProductIdentifiers{}, err
	}
	if err := s.repo.UpsertProductIdentifiers(ctx, ids); err != nil {
		return domain.ProductIdentifiers{}, err
	}
	return ids, nil
}

// GetProductIdentifiers returns identifiers, or nil when none are stored.
func (s *Service) GetProductIdentifiers(ctx context.Context, projectID string) (*domain.ProductIdentifiers, error) {
	return s.repo.GetProductIdentifiers(ctx, projectID)
}

// SaveProfitability replaces the profitability record for a project.
func (s *Service) SaveProfitability(ctx context.Context, in domain.Profitability) (domain.Profitability, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.Profitability{}, err
	}
	record, err := domain.NewProfitability(in, s.clock())
	if err != nil {
		return domain.Profitability{}, err
	}
	if err := s.repo.UpsertProfitability(ctx, record); err != nil {
		return domain.Profitability{}, err
	}
	return record, nil
}

// GetProfitability returns the profitability record, or nil when none is stored.
func (s *Service) GetProfitability(ctx context.Context, projectID string) (*domain.Profitability, error) {
	return s.repo.GetProfitability(ctx, projectID)
}

// MoneyInput holds input values for expenses and incomes. Label is the expense
// category or income source.
type MoneyInput struct {
	ProjectID string
	Label     string
	Amount    float64
	Currency  string
	At        time.Time
}

// RecordExpense records spend against a project. A zero At means now.
func (s *Service) RecordExpense(ctx context.Context, in MoneyInput) (domain.Expense, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.Expense{}, err
	}
	expense, err := domain.NewExpense(s.idGen(), in.ProjectID, in.Label, in.Amount, in.Currency, s.orNow(in.At))
	if err != nil {
		return domain.Expense{}, err
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return domain.Expense{}, err
	}
	return expense, nil
}

// ListExpenses lists expenses for a project.
func (s *Service) ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, projectID)
}

// RecordIncome records revenue against a project. A zero At means now.
func (s *Service) RecordIncome(ctx context.Context, in MoneyInput) (domain.Income, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.Income{}, err
	}
	income, err := domain.NewIncome(s.idGen(), in.ProjectID, in.Label, in.Amount, in.Currency, s.orNow(in.At))
	if err != nil {
		return domain.Income{}, err
	}
	if err := s.repo.CreateIncome(ctx, income); err != nil {
		return domain.Income{}, err
	}
	return income, nil
}

// ListIncomes lists incomes for a project.
func (s *Service) ListIncomes(ctx context.Context, projectID string) ([]domain.Income, error) {
	return s.repo.ListIncomes(ctx, projectID)
}

// StockInput holds input values for stock movements.
type StockInput struct {
	ProjectID  string
	Location   string
	Units      float64
	Direction  domain.StockDirection
	Reason     string
	OccurredAt time.Time
}

// RecordStockEntry records a stock movement. A zero OccurredAt means now.
func (s *Service) RecordStockEntry(ctx context.Context, in StockInput) (domain.StockEntry, error) {
	if _, err := s.requireProject(ctx, in.ProjectID); err != nil {
		return domain.StockEntry{}, err
	}
	entry, err := domain.NewStockEntry(s.idGen(), in.ProjectID, in.Location, in.Units, in.Direction, in.Reason, s.orNow(in.OccurredAt))
	if err != nil {
		return domain.StockEntry{}, err
	}
	if err := s.repo.CreateStockEntry(ctx, entry); err != nil {
		return domain.StockEntry{}, err
	}
	return entry, nil
}

// ListStockEntries lists stock movements for a project.
func (s *Service) ListStockEntries(ctx context.Context, projectID string) ([]domain.StockEntry, error) {
	return s.repo.ListStockEntries(ctx, projectID)
}

func (s *Service) orNow(at time.Time) time.Time {
	if at.IsZero() {
		return s.clock()
	}
	return at
}

package app

import (
	"context"

	"github.com/evanschultz/fbagate/internal/domain"
)

// TaskFilter narrows task listings. Empty fields match everything.
type TaskFilter struct {
	Status     domain.TaskStatus
	EntityType string
	EntityID   string
}

// Repository is the persistence port for projects and their evidence records.
// Single-record getters for optional evidence return nil when nothing is stored.
type Repository interface {
	CreateProject(context.Context, domain.Project) error
	UpdateProject(context.Context, domain.Project) error
	GetProject(context.Context, string) (domain.Project, error)
	ListProjects(context.Context, bool) ([]domain.Project, error)
	ListProjectChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)

	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, TaskFilter) ([]domain.Task, error)

	CreateDocument(context.Context, domain.Document) error
	ListDocuments(context.Context, string) ([]domain.Document, error)

	CreateSupplierQuote(context.Context, domain.SupplierQuote) error
	ListSupplierQuotes(context.Context, string) ([]domain.SupplierQuote, error)
	CreateSupplierPriceEstimate(context.Context, domain.SupplierPriceEstimate) error
	ListSupplierPriceEstimates(context.Context, string) ([]domain.SupplierPriceEstimate, error)

	CreatePurchaseOrder(context.Context, domain.PurchaseOrder) error
	UpdatePurchaseOrder(context.Context, domain.PurchaseOrder) error
	GetPurchaseOrder(context.Context, string) (domain.PurchaseOrder, error)
	ListPurchaseOrders(context.Context, string) ([]domain.PurchaseOrder, error)

	UpsertProductIdentifiers(context.Context, domain.ProductIdentifiers) error
	GetProductIdentifiers(context.Context, string) (*domain.ProductIdentifiers, error)
	UpsertProfitability(context.Context, domain.Profitability) error
	GetProfitability(context.Context, string) (*domain.Profitability, error)

	CreateExpense(context.Context, domain.Expense) error
	ListExpenses(context.Context, string) ([]domain.Expense, error)
	CreateIncome(context.Context, domain.Income) error
	ListIncomes(context.Context, string) ([]domain.Income, error)
	CreateStockEntry(context.Context, domain.StockEntry) error
	ListStockEntries(context.Context, string) ([]domain.StockEntry, error)
}

// SnapshotStore holds locally cached JSON snapshots keyed by name.
type SnapshotStore interface {
	GetSnapshot(context.Context, string) ([]byte, bool, error)
	PutSnapshot(context.Context, string, []byte) error
}

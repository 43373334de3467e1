package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/fbagate/internal/domain"
)

type fakeRepo struct {
	mu             sync.Mutex
	projects       map[string]domain.Project
	tasks          map[string]domain.Task
	documents      []domain.Document
	quotes         []domain.SupplierQuote
	estimates      []domain.SupplierPriceEstimate
	purchaseOrders map[string]domain.PurchaseOrder
	identifiers    map[string]domain.ProductIdentifiers
	profitability  map[string]domain.Profitability
	expenses       []domain.Expense
	incomes        []domain.Income
	stock          []domain.StockEntry
	events         []domain.ChangeEvent

	// fail maps a method name to the error it should return.
	fail map[string]error
	// panics lists methods that panic when called.
	panics map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects:       map[string]domain.Project{},
		tasks:          map[string]domain.Task{},
		purchaseOrders: map[string]domain.PurchaseOrder{},
		identifiers:    map[string]domain.ProductIdentifiers{},
		profitability:  map[string]domain.Profitability{},
		fail:           map[string]error{},
		panics:         map[string]bool{},
	}
}

func (f *fakeRepo) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[method] {
		panic(method + " exploded")
	}
	return f.fail[method]
}

func (f *fakeRepo) CreateProject(_ context.Context, p domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
	f.events = append(f.events, domain.ChangeEvent{ProjectID: p.ID, Operation: domain.ChangeOperationCreate})
	return nil
}

func (f *fakeRepo) UpdateProject(_ context.Context, p domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[p.ID]; !ok {
		return ErrNotFound
	}
	f.projects[p.ID] = p
	f.events = append(f.events, domain.ChangeEvent{ProjectID: p.ID, Operation: domain.ChangeOperationUpdate})
	return nil
}

func (f *fakeRepo) GetProject(_ context.Context, id string) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListProjects(_ context.Context, includeArchived bool) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Project, 0, len(f.projects))
	for _, p := range f.projects {
		if !includeArchived && p.ArchivedAt != nil {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) ListProjectChangeEvents(_ context.Context, projectID string, _ int) ([]domain.ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ChangeEvent{}
	for _, e := range f.events {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateTask(_ context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) UpdateTask(_ context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) ListTasks(_ context.Context, filter TaskFilter) ([]domain.Task, error) {
	if err := f.check("ListTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Task{}
	for _, t := range f.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.EntityType != "" && t.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && t.EntityID != filter.EntityID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) CreateDocument(_ context.Context, d domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, d)
	return nil
}

func (f *fakeRepo) ListDocuments(_ context.Context, projectID string) ([]domain.Document, error) {
	if err := f.check("ListDocuments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterByProject(f.documents, projectID, func(d domain.Document) string { return d.ProjectID }), nil
}

func (f *fakeRepo) CreateSupplierQuote(_ context.Context, q domain.SupplierQuote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, q)
	return nil
}

func (f *fakeRepo) ListSupplierQuotes(_ context.Context, projectID string) ([]domain.SupplierQuote, error) {
	if err := f.check("ListSupplierQuotes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterByProject(f.quotes, projectID, func(q domain.SupplierQuote) string { return q.ProjectID }), nil
}

func (f *fakeRepo) CreateSupplierPriceEstimate(_ context.Context, e domain.SupplierPriceEstimate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimates = append(f.estimates, e)
	return nil
}

func (f *fakeRepo) ListSupplierPriceEstimates(_ context.Context, projectID string) ([]domain.SupplierPriceEstimate, error) {
	if err := f.check("ListSupplierPriceEstimates"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterByProject(f.estimates, projectID, func(e domain.SupplierPriceEstimate) string { return e.ProjectID }), nil
}

func (f *fakeRepo) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchaseOrders[po.ID] = po
	return nil
}

func (f *fakeRepo) UpdatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.purchaseOrders[po.ID]; !ok {
		return ErrNotFound
	}
	f.purchaseOrders[po.ID] = po
	return nil
}

func (f *fakeRepo) GetPurchaseOrder(_ context.Context, id string) (domain.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	po, ok := f.purchaseOrders[id]
	if !ok {
		return domain.PurchaseOrder{}, ErrNotFound
	}
	return po, nil
}

func (f *fakeRepo) ListPurchaseOrders(_ context.Context, projectID string) ([]domain.PurchaseOrder, error) {
	if err := f.check("ListPurchaseOrders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.PurchaseOrder{}
	for _, po := range f.purchaseOrders {
		if po.ProjectID == projectID {
			out = append(out, po)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) UpsertProductIdentifiers(_ context.Context, ids domain.ProductIdentifiers) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identifiers[ids.ProjectID] = ids
	return nil
}

func (f *fakeRepo) GetProductIdentifiers(_ context.Context, projectID string) (*domain.ProductIdentifiers, error) {
	if err := f.check("GetProductIdentifiers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, ok := f.identifiers[projectID]
	if !ok {
		return nil, nil
	}
	return &ids, nil
}

func (f *fakeRepo) UpsertProfitability(_ context.Context, p domain.Profitability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profitability[p.ProjectID] = p
	return nil
}

func (f *fakeRepo) GetProfitability(_ context.Context, projectID string) (*domain.Profitability, error) {
	if err := f.check("GetProfitability"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profitability[projectID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeRepo) CreateExpense(_ context.Context, e domain.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses = append(f.expenses, e)
	return nil
}

func (f *fakeRepo) ListExpenses(_ context.Context, projectID string) ([]domain.Expense, error) {
	if err := f.check("ListExpenses"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterByProject(f.expenses, projectID, func(e domain.Expense) string { return e.ProjectID }), nil
}

func (f *fakeRepo) CreateIncome(_ context.Context, i domain.Income) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incomes = append(f.incomes, i)
	return nil
}

func (f *fakeRepo) ListIncomes(_ context.Context, projectID string) ([]domain.Income, error) {
	if err := f.check("ListIncomes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterByProject(f.incomes, projectID, func(i domain.Income) string { return i.ProjectID }), nil
}

func (f *fakeRepo) CreateStockEntry(_ context.Context, s domain.StockEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock = append(f.stock, s)
	return nil
}

func (f *fakeRepo) ListStockEntries(_ context.Context, projectID string) ([]domain.StockEntry, error) {
	if err := f.check("ListStockEntries"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterByProject(f.stock, projectID, func(s domain.StockEntry) string { return s.ProjectID }), nil
}

func filterByProject[T any](in []T, projectID string, key func(T) string) []T {
	out := []T{}
	for _, v := range in {
		if key(v) == projectID {
			out = append(out, v)
		}
	}
	return out
}

type fakeSnapshots struct {
	mu     sync.Mutex
	values map[string][]byte
	err    error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{values: map[string][]byte{}}
}

func (f *fakeSnapshots) GetSnapshot(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSnapshots) PutSnapshot(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeSnapshots) {
	t.Helper()
	repo := newFakeRepo()
	snaps := newFakeSnapshots()
	counter := 0
	svc := NewService(repo, snaps, func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}, func() time.Time { return testNow }, ServiceConfig{})
	return svc, repo, snaps
}

func mustProject(t *testing.T, svc *Service, name string) domain.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), CreateProjectInput{Name: name})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return project
}

func TestCreateProjectDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)
	project, err := svc.CreateProject(context.Background(), CreateProjectInput{Name: "Bamboo Board", ASIN: " b0test1234 "})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.Phase != domain.PhaseResearch || project.Decision != domain.DecisionNone {
		t.Fatalf("unexpected initial state %#v", project)
	}
	if project.ASIN != "B0TEST1234" {
		t.Fatalf("expected normalized ASIN, got %q", project.ASIN)
	}
}

func TestCreateEvidenceRequiresProject(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddDocument(context.Background(), AddDocumentInput{ProjectID: "missing", Category: "sample", Name: "a.pdf"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEvidenceOnArchivedProjectFails(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	project := mustProject(t, svc, "Archived")
	if _, err := svc.ArchiveProject(ctx, project.ID); err != nil {
		t.Fatalf("ArchiveProject() error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{ProjectID: project.ID, Title: "x"}); !errors.Is(err, ErrProjectArchived) {
		t.Fatalf("expected ErrProjectArchived, got %v", err)
	}
	if _, err := svc.RestoreProject(ctx, project.ID); err != nil {
		t.Fatalf("RestoreProject() error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{ProjectID: project.ID, Title: "x"}); err != nil {
		t.Fatalf("CreateTask() after restore error = %v", err)
	}
}

func TestDiscardAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	project := mustProject(t, svc, "Discard me")

	discarded, err := svc.DiscardProject(ctx, project.ID, "margins too thin")
	if err != nil {
		t.Fatalf("DiscardProject() error = %v", err)
	}
	if discarded.Decision != domain.DecisionDiscarded || discarded.DiscardedReason != "margins too thin" {
		t.Fatalf("unexpected discarded project %#v", discarded)
	}
	restored, err := svc.RestoreDiscardedProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("RestoreDiscardedProject() error = %v", err)
	}
	if restored.Decision != domain.DecisionHold || restored.DiscardedAt != nil {
		t.Fatalf("unexpected restored project %#v", restored)
	}
	if _, err := svc.RestoreDiscardedProject(ctx, project.ID); !errors.Is(err, domain.ErrProjectNotDiscarded) {
		t.Fatalf("expected ErrProjectNotDiscarded, got %v", err)
	}
}

func TestTaskCompletion(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	project := mustProject(t, svc, "Tasks")
	task, err := svc.CreateTask(ctx, CreateTaskInput{ProjectID: project.ID, Title: "Sample approved"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Status != domain.TaskStatusTodo || task.EntityType != domain.EntityTypeProject {
		t.Fatalf("unexpected task defaults %#v", task)
	}
	done, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if done.Status != domain.TaskStatusDone || done.CompletedAt == nil {
		t.Fatalf("expected done task, got %#v", done)
	}
	listed, err := svc.ListTasks(ctx, TaskFilter{Status: domain.TaskStatusDone, EntityID: project.ID})
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListTasks() = %#v, %v", listed, err)
	}
	reopened, err := svc.ReopenTask(ctx, task.ID)
	if err != nil || reopened.Status != domain.TaskStatusTodo || reopened.CompletedAt != nil {
		t.Fatalf("ReopenTask() = %#v, %v", reopened, err)
	}
}

func TestSnapshotCache(t *testing.T) {
	ctx := context.Background()
	svc, _, snaps := newTestService(t)
	project := mustProject(t, svc, "Snapshots")

	got, err := svc.LoadCompetitorSnapshot(ctx, project.ID)
	if err != nil || got != nil {
		t.Fatalf("expected absent snapshot, got %#v, %v", got, err)
	}
	want := domain.CompetitorSnapshot{ASIN: "B0X", Price: 19.99, Brand: "Acme"}
	if err := svc.SaveCompetitorSnapshot(ctx, project.ID, want); err != nil {
		t.Fatalf("SaveCompetitorSnapshot() error = %v", err)
	}
	got, err = svc.LoadCompetitorSnapshot(ctx, project.ID)
	if err != nil || got == nil || !reflect.DeepEqual(*got, want) {
		t.Fatalf("LoadCompetitorSnapshot() = %#v, %v", got, err)
	}

	snaps.values[domain.ViabilitySnapshotKey(project.ID)] = []byte("{not json")
	viability, err := svc.LoadViabilitySnapshot(ctx, project.ID)
	if err != nil || viability != nil {
		t.Fatalf("expected corrupt snapshot to read as absent, got %#v, %v", viability, err)
	}

	if err := svc.SaveViabilitySnapshot(ctx, project.ID, domain.ViabilitySnapshot{SellingPrice: 20, COGS: 5, FBAFee: 4, ReferralFee: 3}); err != nil {
		t.Fatalf("SaveViabilitySnapshot() error = %v", err)
	}
	viability, err = svc.LoadViabilitySnapshot(ctx, project.ID)
	if err != nil || viability == nil || viability.Margin == nil || *viability.Margin != 40 {
		t.Fatalf("expected computed margin 40, got %#v, %v", viability, err)
	}
}

func TestImportSupplierQuote(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	project := mustProject(t, svc, "Quotes")

	quote, err := svc.ImportSupplierQuote(ctx, project.ID, "# SUPPLIER_QUOTE\nsupplier_name: Ningbo Bamboo\ncurrency: usd\nmoq: 500\nunit_price: 2.35\nincoterm: fob\n")
	if err != nil {
		t.Fatalf("ImportSupplierQuote() error = %v", err)
	}
	want := []domain.PriceBreak{{MinQty: 500, UnitPrice: 2.35}}
	if !reflect.DeepEqual(quote.PriceBreaks, want) {
		t.Fatalf("expected price breaks %#v, got %#v", want, quote.PriceBreaks)
	}
	if quote.Currency != "USD" || quote.Incoterm != "FOB" || quote.MOQ == nil || *quote.MOQ != 500 {
		t.Fatalf("unexpected imported quote %#v", quote)
	}

	if _, err := svc.ImportSupplierQuote(ctx, project.ID, "supplier_name: x"); err == nil {
		t.Fatal("expected parse error for missing header")
	}
	res := svc.ParseSupplierQuote("# SUPPLIER_QUOTE\ncurrency: EUR\n")
	if res.OK || res.Error != "MISSING_SUPPLIER_NAME" {
		t.Fatalf("unexpected parse result %#v", res)
	}
}

func TestCommercialGateReport(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	project := mustProject(t, svc, "Commercial")
	if _, err := svc.SetPhaseDirect(ctx, project.ID, domain.PhaseProduction); err != nil {
		t.Fatalf("SetPhaseDirect() error = %v", err)
	}

	report, err := svc.CommercialGate(ctx, project.ID)
	if err != nil {
		t.Fatalf("CommercialGate() error = %v", err)
	}
	if report.Gate.GateID != domain.GateProduction || report.Gate.Status != domain.GateStatusBlocked {
		t.Fatalf("expected blocked production gate, got %#v", report.Gate)
	}
	if report.Business.InvestedTotal != 0 || report.Stock.Label != domain.StockLabelNoData {
		t.Fatalf("unexpected rollups %#v %#v", report.Business, report.Stock)
	}

	if _, err := svc.CreatePurchaseOrder(ctx, domain.PurchaseOrderInput{
		ProjectID: project.ID,
		Number:    "PO-1",
		Status:    domain.POStatusConfirmed,
		Total:     1000,
		Currency:  "USD",
		Items:     []domain.POItem{{SKU: "BOARD", Quantity: 500}},
	}); err != nil {
		t.Fatalf("CreatePurchaseOrder() error = %v", err)
	}
	if _, err := svc.RecordExpense(ctx, MoneyInput{ProjectID: project.ID, Label: "freight", Amount: 200, Currency: "USD"}); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	if err := svc.SaveViabilitySnapshot(ctx, project.ID, domain.ViabilitySnapshot{SellingPrice: 19.99, COGS: 2.4}); err != nil {
		t.Fatalf("SaveViabilitySnapshot() error = %v", err)
	}

	report, err = svc.CommercialGate(ctx, project.ID)
	if err != nil {
		t.Fatalf("CommercialGate() error = %v", err)
	}
	if report.Gate.Status != domain.GateStatusWarning {
		t.Fatalf("expected ROI-unknown warning, got %#v", report.Gate)
	}
	if report.Business.SellingPrice == nil || *report.Business.SellingPrice != 19.99 {
		t.Fatalf("expected viability selling price fallback, got %v", report.Business.SellingPrice)
	}
	if report.Business.Badge != domain.BadgeNotValidated {
		t.Fatalf("expected NO VALIDAT badge, got %q", report.Business.Badge)
	}
}

func TestCommercialGateFetchError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	project := mustProject(t, svc, "Broken")
	repo.fail["ListIncomes"] = errors.New("db down")
	if _, err := svc.CommercialGate(context.Background(), project.ID); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestServiceConfigOverrides(t *testing.T) {
	thresholds := domain.CommercialThresholds{MinROIPercent: 40, CriticalStockUnits: 10, HealthyStockUnits: 20, MinDaysCover: 7}
	svc := NewService(newFakeRepo(), nil, nil, nil, ServiceConfig{
		ApprovalTokens:       []string{" Signed ", "signed", ""},
		CommercialThresholds: &thresholds,
	})
	if !reflect.DeepEqual(svc.approvalTokens, []string{"signed"}) {
		t.Fatalf("unexpected approval tokens %#v", svc.approvalTokens)
	}
	if svc.thresholds != thresholds {
		t.Fatalf("unexpected thresholds %#v", svc.thresholds)
	}
	if err := svc.putSnapshot(context.Background(), "k", 1); !errors.Is(err, errNoSnapshotStore) {
		t.Fatalf("expected errNoSnapshotStore, got %v", err)
	}
}

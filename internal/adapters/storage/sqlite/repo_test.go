package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/domain"
	_ "modernc.org/sqlite"
)

var testNow = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "fbagate.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func createTestProject(t *testing.T, repo *Repository, id string) domain.Project {
	t.Helper()
	project, err := domain.NewProject(id, "Bamboo Board "+id, "desc", testNow)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if err := repo.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return project
}

func TestRepository_ProjectLifecycleAndChangeEvents(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	project := createTestProject(t, repo, "p1")

	loaded, err := repo.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if loaded.Phase != domain.PhaseResearch || loaded.Slug != "bamboo-board-p1" || !loaded.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected loaded project %#v", loaded)
	}

	loaded.SetASIN("b0test", testNow.Add(time.Minute))
	if err := repo.UpdateProject(ctx, loaded); err != nil {
		t.Fatalf("UpdateProject(asin) error = %v", err)
	}
	if err := loaded.SetDecision(domain.DecisionGo, testNow.Add(2*time.Minute)); err != nil {
		t.Fatalf("SetDecision() error = %v", err)
	}
	if err := repo.UpdateProject(ctx, loaded); err != nil {
		t.Fatalf("UpdateProject(decision) error = %v", err)
	}
	if err := loaded.SetPhase(domain.PhaseViability, testNow.Add(3*time.Minute)); err != nil {
		t.Fatalf("SetPhase() error = %v", err)
	}
	if err := repo.UpdateProject(ctx, loaded); err != nil {
		t.Fatalf("UpdateProject(phase) error = %v", err)
	}
	if err := loaded.Discard("no margin", testNow.Add(4*time.Minute)); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if err := repo.UpdateProject(ctx, loaded); err != nil {
		t.Fatalf("UpdateProject(discard) error = %v", err)
	}
	loaded.Archive(testNow.Add(5 * time.Minute))
	if err := repo.UpdateProject(ctx, loaded); err != nil {
		t.Fatalf("UpdateProject(archive) error = %v", err)
	}

	stored, err := repo.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if stored.ASIN != "B0TEST" || stored.Phase != domain.PhaseViability || stored.Decision != domain.DecisionDiscarded {
		t.Fatalf("unexpected stored project %#v", stored)
	}
	if stored.DiscardedReason != "no margin" || stored.DiscardedAt == nil || stored.ArchivedAt == nil {
		t.Fatalf("expected discard and archive timestamps, got %#v", stored)
	}

	active, err := repo.ListProjects(ctx, false)
	if err != nil || len(active) != 0 {
		t.Fatalf("expected archived project hidden, got %#v, %v", active, err)
	}
	all, err := repo.ListProjects(ctx, true)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected archived project listed, got %#v, %v", all, err)
	}

	events, err := repo.ListProjectChangeEvents(ctx, project.ID, 0)
	if err != nil {
		t.Fatalf("ListProjectChangeEvents() error = %v", err)
	}
	gotOps := make([]domain.ChangeOperation, 0, len(events))
	for _, e := range events {
		gotOps = append(gotOps, e.Operation)
	}
	wantOps := []domain.ChangeOperation{
		domain.ChangeOperationArchive,
		domain.ChangeOperationDiscard,
		domain.ChangeOperationPhase,
		domain.ChangeOperationDecision,
		domain.ChangeOperationUpdate,
		domain.ChangeOperationCreate,
	}
	if !reflect.DeepEqual(gotOps, wantOps) {
		t.Fatalf("unexpected change operations %#v", gotOps)
	}
	if events[2].Metadata["from_phase"] != "research" || events[2].Metadata["to_phase"] != "viability" {
		t.Fatalf("unexpected phase metadata %#v", events[2].Metadata)
	}
	if events[4].Metadata["changed_fields"] != "asin" {
		t.Fatalf("unexpected update metadata %#v", events[4].Metadata)
	}
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, err := repo.GetProject(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	project, _ := domain.NewProject("ghost", "Ghost", "", testNow)
	if err := repo.UpdateProject(ctx, project); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if _, err := repo.GetTask(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for task, got %v", err)
	}
	if _, err := repo.GetPurchaseOrder(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for purchase order, got %v", err)
	}
	ids, err := repo.GetProductIdentifiers(ctx, "missing")
	if err != nil || ids != nil {
		t.Fatalf("expected nil identifiers, got %#v, %v", ids, err)
	}
	profit, err := repo.GetProfitability(ctx, "missing")
	if err != nil || profit != nil {
		t.Fatalf("expected nil profitability, got %#v, %v", profit, err)
	}
}

func TestRepository_TaskFilters(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	createTestProject(t, repo, "p1")
	createTestProject(t, repo, "p2")

	for _, in := range []domain.TaskInput{
		{ID: "t1", EntityID: "p1", Title: "Sample approved", Status: domain.TaskStatusDone},
		{ID: "t2", EntityID: "p1", Title: "Order sample"},
		{ID: "t3", EntityID: "p2", Title: "Sample OK", Status: domain.TaskStatusDone},
	} {
		task, err := domain.NewTask(in, testNow)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
	}

	done, err := repo.ListTasks(ctx, app.TaskFilter{Status: domain.TaskStatusDone, EntityType: domain.EntityTypeProject, EntityID: "p1"})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(done) != 1 || done[0].ID != "t1" || done[0].CompletedAt == nil {
		t.Fatalf("unexpected done tasks %#v", done)
	}

	task, err := repo.GetTask(ctx, "t2")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	task.Complete(testNow.Add(time.Hour))
	if err := repo.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	all, err := repo.ListTasks(ctx, app.TaskFilter{Status: domain.TaskStatusDone})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 done tasks, got %#v, %v", all, err)
	}
}

func TestRepository_EvidenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	project := createTestProject(t, repo, "p1")

	doc, err := domain.NewDocument("d1", project.ID, "Sample", "photos.zip", "/docs/photos.zip", testNow)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	if err := repo.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	docs, err := repo.ListDocuments(ctx, project.ID)
	if err != nil || len(docs) != 1 || docs[0].Category != domain.DocumentCategorySample {
		t.Fatalf("unexpected documents %#v, %v", docs, err)
	}

	moq := 500
	validUntil := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	quote, err := domain.NewSupplierQuote(domain.SupplierQuoteInput{
		ID:           "q1",
		ProjectID:    project.ID,
		SupplierName: "Ningbo Bamboo",
		Currency:     "usd",
		MOQ:          &moq,
		ValidUntil:   &validUntil,
		PriceBreaks:  []domain.PriceBreak{{MinQty: 500, UnitPrice: 2.35}, {MinQty: 1000, UnitPrice: 2.1}},
	}, testNow)
	if err != nil {
		t.Fatalf("NewSupplierQuote() error = %v", err)
	}
	if err := repo.CreateSupplierQuote(ctx, quote); err != nil {
		t.Fatalf("CreateSupplierQuote() error = %v", err)
	}
	quotes, err := repo.ListSupplierQuotes(ctx, project.ID)
	if err != nil || len(quotes) != 1 {
		t.Fatalf("unexpected quotes %#v, %v", quotes, err)
	}
	if !reflect.DeepEqual(quotes[0].PriceBreaks, quote.PriceBreaks) || *quotes[0].MOQ != 500 || quotes[0].LeadTimeDays != nil {
		t.Fatalf("unexpected stored quote %#v", quotes[0])
	}
	if quotes[0].ValidUntil == nil || !quotes[0].ValidUntil.Equal(validUntil) {
		t.Fatalf("unexpected valid_until %v", quotes[0].ValidUntil)
	}

	estimate, err := domain.NewSupplierPriceEstimate("e1", project.ID, "alibaba", 2.2, "USD", nil, testNow)
	if err != nil {
		t.Fatalf("NewSupplierPriceEstimate() error = %v", err)
	}
	if err := repo.CreateSupplierPriceEstimate(ctx, estimate); err != nil {
		t.Fatalf("CreateSupplierPriceEstimate() error = %v", err)
	}
	estimates, err := repo.ListSupplierPriceEstimates(ctx, project.ID)
	if err != nil || len(estimates) != 1 || estimates[0].MOQ != nil || estimates[0].UnitPrice != 2.2 {
		t.Fatalf("unexpected estimates %#v, %v", estimates, err)
	}

	po, err := domain.NewPurchaseOrder(domain.PurchaseOrderInput{
		ID:        "po1",
		ProjectID: project.ID,
		Number:    "PO-1",
		Total:     1000,
		Currency:  "USD",
		Items:     []domain.POItem{{SKU: "BOARD", Quantity: 500}},
	}, testNow)
	if err != nil {
		t.Fatalf("NewPurchaseOrder() error = %v", err)
	}
	if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
		t.Fatalf("CreatePurchaseOrder() error = %v", err)
	}
	if err := po.SetStatus(domain.POStatusShipped, testNow.Add(time.Hour)); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if err := repo.UpdatePurchaseOrder(ctx, po); err != nil {
		t.Fatalf("UpdatePurchaseOrder() error = %v", err)
	}
	pos, err := repo.ListPurchaseOrders(ctx, project.ID)
	if err != nil || len(pos) != 1 || pos[0].Status != domain.POStatusShipped || pos[0].UnitCount() != 500 {
		t.Fatalf("unexpected purchase orders %#v, %v", pos, err)
	}

	ids, err := domain.NewProductIdentifiers(project.ID, domain.GTINTypeEAN, "8412345678905", "", "b0x", "x001", testNow)
	if err != nil {
		t.Fatalf("NewProductIdentifiers() error = %v", err)
	}
	if err := repo.UpsertProductIdentifiers(ctx, ids); err != nil {
		t.Fatalf("UpsertProductIdentifiers() error = %v", err)
	}
	ids.GTINCode = ""
	if err := repo.UpsertProductIdentifiers(ctx, ids); err != nil {
		t.Fatalf("UpsertProductIdentifiers(replace) error = %v", err)
	}
	storedIDs, err := repo.GetProductIdentifiers(ctx, project.ID)
	if err != nil || storedIDs == nil || storedIDs.GTINCode != "" || storedIDs.ASIN != "B0X" {
		t.Fatalf("unexpected identifiers %#v, %v", storedIDs, err)
	}

	profit, err := domain.NewProfitability(domain.Profitability{ProjectID: project.ID, SellingPrice: 24.99, COGS: 4, FBAFee: 5.5}, testNow)
	if err != nil {
		t.Fatalf("NewProfitability() error = %v", err)
	}
	if err := repo.UpsertProfitability(ctx, profit); err != nil {
		t.Fatalf("UpsertProfitability() error = %v", err)
	}
	storedProfit, err := repo.GetProfitability(ctx, project.ID)
	if err != nil || storedProfit == nil || storedProfit.FBAFee != 5.5 {
		t.Fatalf("unexpected profitability %#v, %v", storedProfit, err)
	}
}

func TestRepository_MoneyAndStock(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	project := createTestProject(t, repo, "p1")

	expense, _ := domain.NewExpense("x1", project.ID, "freight", 200, "USD", testNow)
	income, _ := domain.NewIncome("i1", project.ID, "amazon payout", 1500, "USD", testNow)
	in, _ := domain.NewStockEntry("s1", project.ID, "FBA", 300, domain.StockDirectionIn, "", testNow)
	out, _ := domain.NewStockEntry("s2", project.ID, "FBA", 40, domain.StockDirectionOut, domain.StockReasonSale, testNow.Add(time.Hour))
	if err := repo.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if err := repo.CreateIncome(ctx, income); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	for _, e := range []domain.StockEntry{in, out} {
		if err := repo.CreateStockEntry(ctx, e); err != nil {
			t.Fatalf("CreateStockEntry() error = %v", err)
		}
	}

	expenses, err := repo.ListExpenses(ctx, project.ID)
	if err != nil || len(expenses) != 1 || expenses[0].Amount != 200 {
		t.Fatalf("unexpected expenses %#v, %v", expenses, err)
	}
	incomes, err := repo.ListIncomes(ctx, project.ID)
	if err != nil || len(incomes) != 1 || !incomes[0].ReceivedAt.Equal(testNow) {
		t.Fatalf("unexpected incomes %#v, %v", incomes, err)
	}
	stock, err := repo.ListStockEntries(ctx, project.ID)
	if err != nil || len(stock) != 2 || stock[1].Direction != domain.StockDirectionOut || stock[1].Reason != domain.StockReasonSale {
		t.Fatalf("unexpected stock %#v, %v", stock, err)
	}
}

func TestRepository_SnapshotCache(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, ok, err := repo.GetSnapshot(ctx, "viability_p1"); err != nil || ok {
		t.Fatalf("expected missing snapshot, got ok=%t err=%v", ok, err)
	}
	if err := repo.PutSnapshot(ctx, "viability_p1", []byte(`{"selling_price":20}`)); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if err := repo.PutSnapshot(ctx, "viability_p1", []byte(`{"selling_price":25}`)); err != nil {
		t.Fatalf("PutSnapshot(replace) error = %v", err)
	}
	value, ok, err := repo.GetSnapshot(ctx, "viability_p1")
	if err != nil || !ok || string(value) != `{"selling_price":25}` {
		t.Fatalf("unexpected snapshot %q ok=%t err=%v", value, ok, err)
	}
}

func TestRepository_PurchaseOrderItemAliases(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	project := createTestProject(t, repo, "p1")

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO purchase_orders(id, project_id, number, status, total, currency, items_json, created_at, updated_at)
		VALUES ('po-legacy', ?, 'PO-L', 'confirmed', 500, 'EUR', '[{"sku":"A","qty":10},{"sku":"B","unitats":5}]', ?, ?)
	`, project.ID, ts(testNow), ts(testNow))
	if err != nil {
		t.Fatalf("insert legacy purchase order error = %v", err)
	}
	po, err := repo.GetPurchaseOrder(ctx, "po-legacy")
	if err != nil {
		t.Fatalf("GetPurchaseOrder() error = %v", err)
	}
	if po.UnitCount() != 15 {
		t.Fatalf("expected 15 units from aliased items, got %v", po.UnitCount())
	}
}

func TestOpenInMemory(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if projects, err := repo.ListProjects(context.Background(), true); err != nil || len(projects) != 0 {
		t.Fatalf("expected empty database, got %#v, %v", projects, err)
	}
}

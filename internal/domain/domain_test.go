package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewProjectAndSlug(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	p, err := NewProject("p1", "  Bamboo Cutting Board!  ", " desc ", now)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if p.Slug != "bamboo-cutting-board" {
		t.Fatalf("unexpected slug %q", p.Slug)
	}
	if p.Phase != PhaseResearch {
		t.Fatalf("phase = %v, want research", p.Phase)
	}
	if p.Decision != DecisionNone {
		t.Fatalf("decision = %q, want none", p.Decision)
	}
}

func TestNewProjectValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewProject("", "ok", "", now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewProject("id", "   ", "", now); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestProjectDiscardAndRestore(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p, err := NewProject("p1", "Garlic press", "", now)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if err := p.RestoreFromDiscard(now); err != ErrProjectNotDiscarded {
		t.Fatalf("expected ErrProjectNotDiscarded, got %v", err)
	}
	if err := p.Discard(" margins too thin ", now.Add(time.Hour)); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if !p.IsDiscarded() || p.DiscardedReason != "margins too thin" || p.DiscardedAt == nil {
		t.Fatalf("unexpected discarded state %#v", p)
	}
	if err := p.RestoreFromDiscard(now.Add(2 * time.Hour)); err != nil {
		t.Fatalf("RestoreFromDiscard() error = %v", err)
	}
	if p.Decision != DecisionHold {
		t.Fatalf("decision = %q, want HOLD", p.Decision)
	}
	if p.DiscardedAt != nil || p.DiscardedReason != "" {
		t.Fatalf("expected discard fields cleared, got %#v", p)
	}
}

func TestProjectSetDecision(t *testing.T) {
	now := time.Now()
	p, _ := NewProject("p1", "Yoga mat", "", now)
	if err := p.SetDecision(" go ", now); err != nil {
		t.Fatalf("SetDecision() error = %v", err)
	}
	if p.Decision != DecisionGo {
		t.Fatalf("decision = %q, want GO", p.Decision)
	}
	if err := p.SetDecision("maybe", now); err != ErrInvalidDecision {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
	if err := p.SetDecision("discarded", now); err != nil {
		t.Fatalf("SetDecision(discarded) error = %v", err)
	}
	if p.DiscardedAt == nil {
		t.Fatal("expected discarded_at to be set when discarding through SetDecision")
	}
}

func TestProjectSetPhaseBypassesGates(t *testing.T) {
	now := time.Now()
	p, _ := NewProject("p1", "Yoga mat", "", now)
	if err := p.SetPhase(PhaseListing, now); err != nil {
		t.Fatalf("SetPhase() error = %v", err)
	}
	if p.Phase != PhaseListing {
		t.Fatalf("phase = %v, want listing", p.Phase)
	}
	if err := p.SetPhase(Phase(8), now); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestParsePhase(t *testing.T) {
	cases := []struct {
		raw     string
		want    Phase
		wantErr bool
	}{
		{raw: "1", want: PhaseResearch},
		{raw: " 7 ", want: PhaseLive},
		{raw: "Suppliers", want: PhaseSuppliers},
		{raw: "0", want: Phase(0)},
		{raw: "8", want: Phase(8)},
		{raw: "-3", want: Phase(-3)},
		{raw: "2.5", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePhase(tc.raw)
		if tc.wantErr {
			if err != ErrInvalidPhase {
				t.Fatalf("ParsePhase(%q) error = %v, want ErrInvalidPhase", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePhase(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePhase(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestPhaseNext(t *testing.T) {
	next, ok := PhaseSamples.Next()
	if !ok || next != PhaseProduction {
		t.Fatalf("Next() = %v, %t; want production, true", next, ok)
	}
	if _, ok := PhaseLive.Next(); ok {
		t.Fatal("expected live to have no next phase")
	}
}

func TestNewTaskDefaultsAndComplete(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", EntityID: "p1", Title: "Approve sample"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.EntityType != EntityTypeProject || task.Status != TaskStatusTodo {
		t.Fatalf("unexpected defaults %#v", task)
	}
	task.Complete(now.Add(time.Hour))
	if task.Status != TaskStatusDone || task.CompletedAt == nil {
		t.Fatalf("expected task completed, got %#v", task)
	}
	task.Reopen(now.Add(2 * time.Hour))
	if task.Status != TaskStatusTodo || task.CompletedAt != nil {
		t.Fatalf("expected task reopened, got %#v", task)
	}
	if _, err := NewTask(TaskInput{ID: "t2", EntityID: "p1", Title: "x", Status: "blocked"}, now); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPOItemQuantityAliases(t *testing.T) {
	raw := `[{"sku":"A","qty":10},{"sku":"B","unitats":5},{"sku":"C","quantity":2.5},{"sku":"D"},` +
		`{"sku":"E","qty":0,"quantity":12},{"sku":"F","qty":0,"unitats":0,"quantity":3}]`
	var items []POItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []float64{10, 5, 2.5, 0, 12, 3}
	if len(items) != len(want) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Quantity != want[i] {
			t.Fatalf("items[%d].Quantity = %v, want %v", i, item.Quantity, want[i])
		}
	}
}

func TestNewPurchaseOrderValidation(t *testing.T) {
	now := time.Now()
	po, err := NewPurchaseOrder(PurchaseOrderInput{ID: "po1", ProjectID: "p1", Total: 100, Currency: "eur"}, now)
	if err != nil {
		t.Fatalf("NewPurchaseOrder() error = %v", err)
	}
	if po.Status != POStatusDraft || po.Currency != "EUR" {
		t.Fatalf("unexpected defaults %#v", po)
	}
	if _, err := NewPurchaseOrder(PurchaseOrderInput{ID: "po2", ProjectID: "p1", Total: -1, Currency: "EUR"}, now); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := NewPurchaseOrder(PurchaseOrderInput{ID: "po3", ProjectID: "p1", Status: "lost", Currency: "EUR"}, now); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := NewPurchaseOrder(PurchaseOrderInput{ID: "po4", ProjectID: "p1", Currency: "euro"}, now); err != ErrInvalidCurrency {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestStockEntrySignedUnits(t *testing.T) {
	now := time.Now()
	out, err := NewStockEntry("s1", "p1", "FBA", 4, "out", "sale", now)
	if err != nil {
		t.Fatalf("NewStockEntry() error = %v", err)
	}
	if out.SignedUnits() != -4 {
		t.Fatalf("SignedUnits() = %v, want -4", out.SignedUnits())
	}
	if _, err := NewStockEntry("s2", "p1", "FBA", 4, "sideways", "", now); err != ErrInvalidDirection {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestViabilitySnapshotMargin(t *testing.T) {
	snap := ViabilitySnapshot{SellingPrice: 20, COGS: 5, FBAFee: 4, ReferralFee: 3}.WithComputedMargin()
	if snap.Margin == nil || *snap.Margin != 40 {
		t.Fatalf("margin = %v, want 40", snap.Margin)
	}
	if (ViabilitySnapshot{}).WithComputedMargin().Margin != nil {
		t.Fatal("expected nil margin without selling price")
	}
}

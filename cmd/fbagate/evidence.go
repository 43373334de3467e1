package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/domain"
)

// newEvidenceCommand groups the commands that record gate evidence.
func newEvidenceCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evidence",
		Aliases: []string{"ev"},
		Short:   "Record the evidence phase gates are evaluated against",
	}
	cmd.AddCommand(
		newTaskEvidenceCommand(c),
		newTaskDoneCommand(c),
		newDocumentEvidenceCommand(c),
		newEstimateEvidenceCommand(c),
		newSupplierQuoteEvidenceCommand(c),
		newIdentifiersEvidenceCommand(c),
		newProfitabilityEvidenceCommand(c),
		newPurchaseOrderEvidenceCommand(c),
		newPurchaseOrderStatusCommand(c),
		newMoneyEvidenceCommand(c, "expense"),
		newMoneyEvidenceCommand(c, "income"),
		newStockEvidenceCommand(c),
		newCompetitorEvidenceCommand(c),
	)
	return cmd
}

// record opens the service, runs one write and prints the created id.
func (c *cli) record(cmd *cobra.Command, kind string, fn func(*app.Service) (string, error)) error {
	svc, err := c.service(cmd.Context())
	if err != nil {
		return err
	}
	id, err := fn(svc)
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	c.logger.Debug("evidence recorded", "kind", kind, "id", id)
	return c.printer(cmd).Created(kind, id)
}

func newTaskEvidenceCommand(c *cli) *cobra.Command {
	var done bool
	cmd := &cobra.Command{
		Use:   "task <project> <title>",
		Short: "Add a research task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := domain.TaskStatusTodo
			if done {
				status = domain.TaskStatusDone
			}
			return c.record(cmd, "task", func(svc *app.Service) (string, error) {
				task, err := svc.CreateTask(cmd.Context(), app.CreateTaskInput{ProjectID: args[0], Title: args[1], Status: status})
				return task.ID, err
			})
		},
	}
	cmd.Flags().BoolVar(&done, "done", false, "record the task as already done")
	return cmd
}

func newTaskDoneCommand(c *cli) *cobra.Command {
	var reopen bool
	cmd := &cobra.Command{
		Use:   "task-done <task>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.record(cmd, "task", func(svc *app.Service) (string, error) {
				if reopen {
					task, err := svc.ReopenTask(cmd.Context(), args[0])
					return task.ID, err
				}
				task, err := svc.CompleteTask(cmd.Context(), args[0])
				return task.ID, err
			})
		},
	}
	cmd.Flags().BoolVar(&reopen, "reopen", false, "move the task back to todo instead")
	return cmd
}

func newDocumentEvidenceCommand(c *cli) *cobra.Command {
	var storagePath string
	cmd := &cobra.Command{
		Use:   "doc <project> <category> <name>",
		Short: "Register a document (analysis, sample, po, listing, other)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.record(cmd, "document", func(svc *app.Service) (string, error) {
				doc, err := svc.AddDocument(cmd.Context(), app.AddDocumentInput{
					ProjectID:   args[0],
					Category:    domain.DocumentCategory(args[1]),
					Name:        args[2],
					StoragePath: storagePath,
				})
				return doc.ID, err
			})
		},
	}
	cmd.Flags().StringVar(&storagePath, "path", "", "where the document is stored")
	return cmd
}

func newEstimateEvidenceCommand(c *cli) *cobra.Command {
	var (
		source   string
		currency string
		moq      int
	)
	cmd := &cobra.Command{
		Use:   "estimate <project> <unit-price>",
		Short: "Record a research-phase supplier price estimate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return c.record(cmd, "price_estimate", func(svc *app.Service) (string, error) {
				est, err := svc.CreateSupplierPriceEstimate(cmd.Context(), app.CreatePriceEstimateInput{
					ProjectID: args[0],
					Source:    source,
					UnitPrice: price,
					Currency:  currency,
					MOQ:       changedInt(cmd, "moq", moq),
				})
				return est.ID, err
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "where the estimate came from")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "price currency")
	cmd.Flags().IntVar(&moq, "moq", 0, "minimum order quantity")
	return cmd
}

func newSupplierQuoteEvidenceCommand(c *cli) *cobra.Command {
	var (
		supplier    string
		currency    string
		incoterm    string
		notes       string
		moq         int
		leadDays    int
		validUntil  string
		priceBreaks []string
	)
	cmd := &cobra.Command{
		Use:   "quote <project>",
		Short: "Record a formal supplier quote with price breaks (--break qty:price)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			breaks := make([]domain.PriceBreak, 0, len(priceBreaks))
			for _, raw := range priceBreaks {
				pb, err := parsePriceBreak(raw)
				if err != nil {
					return err
				}
				breaks = append(breaks, pb)
			}
			var valid *time.Time
			if strings.TrimSpace(validUntil) != "" {
				ts, err := time.Parse(time.DateOnly, strings.TrimSpace(validUntil))
				if err != nil {
					return fmt.Errorf("--valid-until %q: want YYYY-MM-DD", validUntil)
				}
				valid = &ts
			}
			return c.record(cmd, "supplier_quote", func(svc *app.Service) (string, error) {
				quote, err := svc.CreateSupplierQuote(cmd.Context(), domain.SupplierQuoteInput{
					ProjectID:    args[0],
					SupplierName: supplier,
					Currency:     currency,
					Incoterm:     incoterm,
					MOQ:          changedInt(cmd, "moq", moq),
					LeadTimeDays: changedInt(cmd, "lead-time", leadDays),
					ValidUntil:   valid,
					Notes:        notes,
					PriceBreaks:  breaks,
				})
				return quote.ID, err
			})
		},
	}
	cmd.Flags().StringVar(&supplier, "supplier", "", "supplier name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "quote currency")
	cmd.Flags().StringVar(&incoterm, "incoterm", "", "incoterm, e.g. FOB")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().IntVar(&moq, "moq", 0, "minimum order quantity")
	cmd.Flags().IntVar(&leadDays, "lead-time", 0, "lead time in days")
	cmd.Flags().StringVar(&validUntil, "valid-until", "", "quote expiry date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&priceBreaks, "break", nil, "price break as min_qty:unit_price (repeatable)")
	return cmd
}

func newIdentifiersEvidenceCommand(c *cli) *cobra.Command {
	var in app.SaveIdentifiersInput
	var gtinType string
	cmd := &cobra.Command{
		Use:   "identifiers <project>",
		Short: "Save GTIN, ASIN and FNSKU identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ProjectID = args[0]
			in.GTINType = domain.GTINType(gtinType)
			return c.record(cmd, "identifiers", func(svc *app.Service) (string, error) {
				ids, err := svc.SaveProductIdentifiers(cmd.Context(), in)
				return ids.ProjectID, err
			})
		},
	}
	cmd.Flags().StringVar(&gtinType, "gtin-type", "", "EAN, UPC or GTIN_EXEMPT")
	cmd.Flags().StringVar(&in.GTINCode, "gtin", "", "barcode value for EAN/UPC")
	cmd.Flags().StringVar(&in.ExemptionReason, "exemption-reason", "", "reason when GTIN_EXEMPT")
	cmd.Flags().StringVar(&in.ASIN, "asin", "", "listing ASIN")
	cmd.Flags().StringVar(&in.FNSKU, "fnsku", "", "fulfilment network SKU")
	return cmd
}

func newProfitabilityEvidenceCommand(c *cli) *cobra.Command {
	var in domain.Profitability
	cmd := &cobra.Command{
		Use:   "profitability <project>",
		Short: "Save the per-unit profitability model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ProjectID = args[0]
			return c.record(cmd, "profitability", func(svc *app.Service) (string, error) {
				saved, err := svc.SaveProfitability(cmd.Context(), in)
				return saved.ProjectID, err
			})
		},
	}
	cmd.Flags().Float64Var(&in.SellingPrice, "price", 0, "selling price per unit")
	cmd.Flags().Float64Var(&in.COGS, "cogs", 0, "cost of goods per unit")
	cmd.Flags().Float64Var(&in.ShippingPerUnit, "shipping", 0, "inbound shipping per unit")
	cmd.Flags().Float64Var(&in.ReferralFee, "referral", 0, "referral fee per unit")
	cmd.Flags().Float64Var(&in.FBAFee, "fba", 0, "fulfilment fee per unit")
	cmd.Flags().Float64Var(&in.PPCPerUnit, "ppc", 0, "advertising cost per unit")
	cmd.Flags().Float64Var(&in.OtherCosts, "other", 0, "other costs per unit")
	return cmd
}

func newPurchaseOrderEvidenceCommand(c *cli) *cobra.Command {
	var (
		total    float64
		currency string
		status   string
		items    []string
	)
	cmd := &cobra.Command{
		Use:   "po <project> <number>",
		Short: "Record a purchase order (--item sku:qty)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			poItems := make([]domain.POItem, 0, len(items))
			for _, raw := range items {
				item, err := parsePOItem(raw)
				if err != nil {
					return err
				}
				poItems = append(poItems, item)
			}
			return c.record(cmd, "purchase_order", func(svc *app.Service) (string, error) {
				po, err := svc.CreatePurchaseOrder(cmd.Context(), domain.PurchaseOrderInput{
					ProjectID: args[0],
					Number:    args[1],
					Status:    domain.POStatus(status),
					Total:     total,
					Currency:  currency,
					Items:     poItems,
				})
				return po.ID, err
			})
		},
	}
	cmd.Flags().Float64Var(&total, "total", 0, "order total")
	cmd.Flags().StringVar(&currency, "currency", "USD", "order currency")
	cmd.Flags().StringVar(&status, "status", string(domain.POStatusDraft), "draft, sent, confirmed, shipped, received or cancelled")
	cmd.Flags().StringArrayVar(&items, "item", nil, "line item as sku:quantity (repeatable)")
	return cmd
}

func newPurchaseOrderStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "po-status <po> <status>",
		Short: "Change a purchase order status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.record(cmd, "purchase_order", func(svc *app.Service) (string, error) {
				po, err := svc.SetPurchaseOrderStatus(cmd.Context(), args[0], domain.POStatus(args[1]))
				return po.ID, err
			})
		},
	}
}

// newMoneyEvidenceCommand builds the expense and income commands, which share a shape.
func newMoneyEvidenceCommand(c *cli, kind string) *cobra.Command {
	var (
		label    string
		currency string
		at       string
	)
	cmd := &cobra.Command{
		Use:   kind + " <project> <amount>",
		Short: "Record a project " + kind,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			when, err := parseDateFlag(at)
			if err != nil {
				return err
			}
			in := app.MoneyInput{ProjectID: args[0], Label: label, Amount: amount, Currency: currency, At: when}
			return c.record(cmd, kind, func(svc *app.Service) (string, error) {
				if kind == "income" {
					income, err := svc.RecordIncome(cmd.Context(), in)
					return income.ID, err
				}
				expense, err := svc.RecordExpense(cmd.Context(), in)
				return expense.ID, err
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "category or source label")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "amount currency")
	cmd.Flags().StringVar(&at, "at", "", "date as YYYY-MM-DD (default now)")
	return cmd
}

func newStockEvidenceCommand(c *cli) *cobra.Command {
	var (
		location  string
		direction string
		reason    string
		at        string
	)
	cmd := &cobra.Command{
		Use:   "stock <project> <units>",
		Short: "Record a stock movement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			when, err := parseDateFlag(at)
			if err != nil {
				return err
			}
			return c.record(cmd, "stock_entry", func(svc *app.Service) (string, error) {
				entry, err := svc.RecordStockEntry(cmd.Context(), app.StockInput{
					ProjectID:  args[0],
					Location:   location,
					Units:      units,
					Direction:  domain.StockDirection(direction),
					Reason:     reason,
					OccurredAt: when,
				})
				return entry.ID, err
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "warehouse or FBA location")
	cmd.Flags().StringVar(&direction, "direction", "", "IN, OUT or empty for a stock count")
	cmd.Flags().StringVar(&reason, "reason", "", "movement reason, e.g. sale")
	cmd.Flags().StringVar(&at, "at", "", "date as YYYY-MM-DD (default now)")
	return cmd
}

func newCompetitorEvidenceCommand(c *cli) *cobra.Command {
	var snap domain.CompetitorSnapshot
	cmd := &cobra.Command{
		Use:   "competitor <project>",
		Short: "Cache the competitor snapshot used by research and viability gates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.record(cmd, "competitor_snapshot", func(svc *app.Service) (string, error) {
				if err := svc.SaveCompetitorSnapshot(cmd.Context(), args[0], snap); err != nil {
					return "", err
				}
				return args[0], nil
			})
		},
	}
	cmd.Flags().StringVar(&snap.ASIN, "asin", "", "competitor ASIN")
	cmd.Flags().Float64Var(&snap.Price, "price", 0, "competitor price")
	cmd.Flags().StringVar(&snap.Category, "category", "", "marketplace category")
	cmd.Flags().StringVar(&snap.SizeTier, "size-tier", "", "FBA size tier")
	cmd.Flags().Float64Var(&snap.WeightKg, "weight", 0, "unit weight in kg")
	cmd.Flags().StringVar(&snap.Brand, "brand", "", "competitor brand")
	return cmd
}

// changedInt returns nil unless the flag was set explicitly.
func changedInt(cmd *cobra.Command, name string, value int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

// parseAmount accepts either decimal separator.
func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, domain.ErrInvalidAmount)
	}
	return v, nil
}

func parseDateFlag(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", raw)
	}
	return ts, nil
}

func parsePriceBreak(raw string) (domain.PriceBreak, error) {
	qty, price, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return domain.PriceBreak{}, fmt.Errorf("price break %q: want min_qty:unit_price", raw)
	}
	minQty, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil {
		return domain.PriceBreak{}, fmt.Errorf("price break %q: %w", raw, domain.ErrInvalidQuantity)
	}
	unitPrice, err := parseAmount(price)
	if err != nil {
		return domain.PriceBreak{}, err
	}
	return domain.PriceBreak{MinQty: minQty, UnitPrice: unitPrice}, nil
}

func parsePOItem(raw string) (domain.POItem, error) {
	sku, qty, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return domain.POItem{}, fmt.Errorf("po item %q: want sku:quantity", raw)
	}
	quantity, err := parseAmount(qty)
	if err != nil {
		return domain.POItem{}, fmt.Errorf("po item %q: %w", raw, domain.ErrInvalidQuantity)
	}
	return domain.POItem{SKU: strings.TrimSpace(sku), Quantity: quantity}, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository implements app.Repository and app.SnapshotStore over SQLite.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate creates the schema idempotently.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			asin TEXT NOT NULL DEFAULT '',
			phase INTEGER NOT NULL DEFAULT 1,
			decision TEXT NOT NULL DEFAULT '',
			discarded_reason TEXT NOT NULL DEFAULT '',
			discarded_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL DEFAULT 'project',
			entity_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'todo',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			completed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			storage_path TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS supplier_quotes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			supplier_name TEXT NOT NULL,
			currency TEXT NOT NULL,
			incoterm TEXT NOT NULL DEFAULT '',
			moq INTEGER,
			lead_time_days INTEGER,
			valid_until TEXT,
			notes TEXT NOT NULL DEFAULT '',
			price_breaks_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS supplier_price_estimates (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			unit_price REAL NOT NULL,
			currency TEXT NOT NULL,
			moq INTEGER,
			created_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			number TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			total REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			items_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS product_identifiers (
			project_id TEXT PRIMARY KEY,
			gtin_type TEXT NOT NULL DEFAULT '',
			gtin_code TEXT NOT NULL DEFAULT '',
			exemption_reason TEXT NOT NULL DEFAULT '',
			asin TEXT NOT NULL DEFAULT '',
			fnsku TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS profitability (
			project_id TEXT PRIMARY KEY,
			selling_price REAL NOT NULL DEFAULT 0,
			cogs REAL NOT NULL DEFAULT 0,
			shipping_per_unit REAL NOT NULL DEFAULT 0,
			referral_fee REAL NOT NULL DEFAULT 0,
			fba_fee REAL NOT NULL DEFAULT 0,
			ppc_per_unit REAL NOT NULL DEFAULT 0,
			other_costs REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			incurred_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS incomes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			received_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS stock_entries (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			units REAL NOT NULL,
			direction TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			occurred_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_entity ON tasks(entity_type, entity_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id, category);`,
		`CREATE INDEX IF NOT EXISTS idx_supplier_quotes_project ON supplier_quotes(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_orders_project ON purchase_orders(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_stock_entries_project ON stock_entries(project_id, occurred_at);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_project_created_at ON change_events(project_id, created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

const projectColumns = `id, slug, name, description, asin, phase, decision, discarded_reason, discarded_at, created_at, updated_at, archived_at`

// CreateProject creates a project and records a create event.
func (r *Repository) CreateProject(ctx context.Context, p domain.Project) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects(`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Slug, p.Name, p.Description, p.ASIN, int(p.Phase), string(p.Decision), p.DiscardedReason,
		nullableTS(p.DiscardedAt), ts(p.CreatedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt))
	if err != nil {
		return err
	}
	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		ProjectID:  p.ID,
		Operation:  domain.ChangeOperationCreate,
		Metadata:   map[string]string{"name": p.Name, "phase": p.Phase.String()},
		OccurredAt: p.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateProject persists p and records the change classified against the stored row.
func (r *Repository) UpdateProject(ctx context.Context, p domain.Project) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, p.ID))
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET slug = ?, name = ?, description = ?, asin = ?, phase = ?, decision = ?, discarded_reason = ?,
			discarded_at = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, p.Slug, p.Name, p.Description, p.ASIN, int(p.Phase), string(p.Decision), p.DiscardedReason,
		nullableTS(p.DiscardedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt), p.ID)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	op, metadata := classifyProjectChange(prev, p)
	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		ProjectID:  p.ID,
		Operation:  op,
		Metadata:   metadata,
		OccurredAt: p.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetProject returns one project.
func (r *Repository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListProjects lists projects in creation order.
func (r *Repository) ListProjects(ctx context.Context, includeArchived bool) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return queryAll(ctx, r.db, query, nil, scanProject)
}

// ListProjectChangeEvents lists recent project events for activity-log consumption.
func (r *Repository) ListProjectChangeEvents(ctx context.Context, projectID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return queryAll(ctx, r.db, `
		SELECT id, project_id, operation, metadata_json, created_at
		FROM change_events
		WHERE project_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, []any{projectID, limit}, scanChangeEvent)
}

// CreateTask creates a task.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks(id, entity_type, entity_id, title, status, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.EntityType, t.EntityID, t.Title, string(t.Status), ts(t.CreatedAt), ts(t.UpdatedAt), nullableTS(t.CompletedAt))
	return err
}

// UpdateTask updates a task.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET entity_type = ?, entity_id = ?, title = ?, status = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`, t.EntityType, t.EntityID, t.Title, string(t.Status), ts(t.UpdatedAt), nullableTS(t.CompletedAt), t.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

const taskColumns = `id, entity_type, entity_id, title, status, created_at, updated_at, completed_at`

// GetTask returns one task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
}

// ListTasks lists tasks matching filter.
func (r *Repository) ListTasks(ctx context.Context, filter app.TaskFilter) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return queryAll(ctx, r.db, query, args, scanTask)
}

// CreateDocument registers a document.
func (r *Repository) CreateDocument(ctx context.Context, d domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents(id, project_id, category, name, storage_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.ProjectID, string(d.Category), d.Name, d.StoragePath, ts(d.CreatedAt))
	return err
}

// ListDocuments lists documents for a project.
func (r *Repository) ListDocuments(ctx context.Context, projectID string) ([]domain.Document, error) {
	return queryAll(ctx, r.db, `
		SELECT id, project_id, category, name, storage_path, created_at
		FROM documents
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, []any{projectID}, scanDocument)
}

// CreateSupplierQuote stores a quote with its price breaks as JSON.
func (r *Repository) CreateSupplierQuote(ctx context.Context, q domain.SupplierQuote) error {
	breaksJSON, err := json.Marshal(q.PriceBreaks)
	if err != nil {
		return fmt.Errorf("encode price breaks: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO supplier_quotes(id, project_id, supplier_name, currency, incoterm, moq, lead_time_days, valid_until, notes, price_breaks_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.ProjectID, q.SupplierName, q.Currency, q.Incoterm, nullableInt(q.MOQ), nullableInt(q.LeadTimeDays),
		nullableTS(q.ValidUntil), q.Notes, string(breaksJSON), ts(q.CreatedAt))
	return err
}

// ListSupplierQuotes lists quotes for a project.
func (r *Repository) ListSupplierQuotes(ctx context.Context, projectID string) ([]domain.SupplierQuote, error) {
	return queryAll(ctx, r.db, `
		SELECT id, project_id, supplier_name, currency, incoterm, moq, lead_time_days, valid_until, notes, price_breaks_json, created_at
		FROM supplier_quotes
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, []any{projectID}, scanSupplierQuote)
}

// CreateSupplierPriceEstimate stores an estimate.
func (r *Repository) CreateSupplierPriceEstimate(ctx context.Context, e domain.SupplierPriceEstimate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO supplier_price_estimates(id, project_id, source, unit_price, currency, moq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Source, e.UnitPrice, e.Currency, nullableInt(e.MOQ), ts(e.CreatedAt))
	return err
}

// ListSupplierPriceEstimates lists estimates for a project.
func (r *Repository) ListSupplierPriceEstimates(ctx context.Context, projectID string) ([]domain.SupplierPriceEstimate, error) {
	return queryAll(ctx, r.db, `
		SELECT id, project_id, source, unit_price, currency, moq, created_at
		FROM supplier_price_estimates
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, []any{projectID}, scanPriceEstimate)
}

const purchaseOrderColumns = `id, project_id, number, status, total, currency, items_json, created_at, updated_at`

// CreatePurchaseOrder stores a purchase order with its items as JSON.
func (r *Repository) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	itemsJSON, err := json.Marshal(po.Items)
	if err != nil {
		return fmt.Errorf("encode purchase order items: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO purchase_orders(`+purchaseOrderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, po.ID, po.ProjectID, po.Number, string(po.Status), po.Total, po.Currency, string(itemsJSON), ts(po.CreatedAt), ts(po.UpdatedAt))
	return err
}

// UpdatePurchaseOrder updates a purchase order.
func (r *Repository) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	itemsJSON, err := json.Marshal(po.Items)
	if err != nil {
		return fmt.Errorf("encode purchase order items: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchase_orders
		SET number = ?, status = ?, total = ?, currency = ?, items_json = ?, updated_at = ?
		WHERE id = ?
	`, po.Number, string(po.Status), po.Total, po.Currency, string(itemsJSON), ts(po.UpdatedAt), po.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetPurchaseOrder returns one purchase order.
func (r *Repository) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	return scanPurchaseOrder(r.db.QueryRowContext(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = ?`, id))
}

// ListPurchaseOrders lists purchase orders for a project.
func (r *Repository) ListPurchaseOrders(ctx context.Context, projectID string) ([]domain.PurchaseOrder, error) {
	return queryAll(ctx, r.db, `
		SELECT `+purchaseOrderColumns+`
		FROM purchase_orders
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, []any{projectID}, scanPurchaseOrder)
}

// UpsertProductIdentifiers replaces the identifiers row for a project.
func (r *Repository) UpsertProductIdentifiers(ctx context.Context, ids domain.ProductIdentifiers) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_identifiers(project_id, gtin_type, gtin_code, exemption_reason, asin, fnsku, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			gtin_type = excluded.gtin_type,
			gtin_code = excluded.gtin_code,
			exemption_reason = excluded.exemption_reason,
			asin = excluded.asin,
			fnsku = excluded.fnsku,
			updated_at = excluded.updated_at
	`, ids.ProjectID, string(ids.GTINType), ids.GTINCode, ids.ExemptionReason, ids.ASIN, ids.FNSKU, ts(ids.UpdatedAt))
	return err
}

// GetProductIdentifiers returns identifiers, or nil when no row exists.
func (r *Repository) GetProductIdentifiers(ctx context.Context, projectID string) (*domain.ProductIdentifiers, error) {
	var (
		ids        domain.ProductIdentifiers
		gtinType   string
		updatedRaw string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT project_id, gtin_type, gtin_code, exemption_reason, asin, fnsku, updated_at
		FROM product_identifiers
		WHERE project_id = ?
	`, projectID).Scan(&ids.ProjectID, &gtinType, &ids.GTINCode, &ids.ExemptionReason, &ids.ASIN, &ids.FNSKU, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ids.GTINType = domain.GTINType(gtinType)
	ids.UpdatedAt = parseTS(updatedRaw)
	return &ids, nil
}

// UpsertProfitability replaces the profitability row for a project.
func (r *Repository) UpsertProfitability(ctx context.Context, p domain.Profitability) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profitability(project_id, selling_price, cogs, shipping_per_unit, referral_fee, fba_fee, ppc_per_unit, other_costs, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			selling_price = excluded.selling_price,
			cogs = excluded.cogs,
			shipping_per_unit = excluded.shipping_per_unit,
			referral_fee = excluded.referral_fee,
			fba_fee = excluded.fba_fee,
			ppc_per_unit = excluded.ppc_per_unit,
			other_costs = excluded.other_costs,
			updated_at = excluded.updated_at
	`, p.ProjectID, p.SellingPrice, p.COGS, p.ShippingPerUnit, p.ReferralFee, p.FBAFee, p.PPCPerUnit, p.OtherCosts, ts(p.UpdatedAt))
	return err
}

// GetProfitability returns the profitability record, or nil when no row exists.
func (r *Repository) GetProfitability(ctx context.Context, projectID string) (*domain.Profitability, error) {
	var (
		p          domain.Profitability
		updatedRaw string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT project_id, selling_price, cogs, shipping_per_unit, referral_fee, fba_fee, ppc_per_unit, other_costs, updated_at
		FROM profitability
		WHERE project_id = ?
	`, projectID).Scan(&p.ProjectID, &p.SellingPrice, &p.COGS, &p.ShippingPerUnit, &p.ReferralFee, &p.FBAFee, &p.PPCPerUnit, &p.OtherCosts, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = parseTS(updatedRaw)
	return &p, nil
}

// CreateExpense stores an expense.
func (r *Repository) CreateExpense(ctx context.Context, e domain.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses(id, project_id, category, amount, currency, incurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Category, e.Amount, e.Currency, ts(e.IncurredAt))
	return err
}

// ListExpenses lists expenses for a project.
func (r *Repository) ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error) {
	return queryAll(ctx, r.db, `
		SELECT id, project_id, category, amount, currency, incurred_at
		FROM expenses
		WHERE project_id = ?
		ORDER BY incurred_at ASC, id ASC
	`, []any{projectID}, func(s scanner) (domain.Expense, error) {
		var (
			e   domain.Expense
			raw string
		)
		if err := s.Scan(&e.ID, &e.ProjectID, &e.Category, &e.Amount, &e.Currency, &raw); err != nil {
			return domain.Expense{}, err
		}
		e.IncurredAt = parseTS(raw)
		return e, nil
	})
}

// CreateIncome stores an income.
func (r *Repository) CreateIncome(ctx context.Context, i domain.Income) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes(id, project_id, source, amount, currency, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, i.ID, i.ProjectID, i.Source, i.Amount, i.Currency, ts(i.ReceivedAt))
	return err
}

// ListIncomes lists incomes for a project.
func (r *Repository) ListIncomes(ctx context.Context, projectID string) ([]domain.Income, error) {
	return queryAll(ctx, r.db, `
		SELECT id, project_id, source, amount, currency, received_at
		FROM incomes
		WHERE project_id = ?
		ORDER BY received_at ASC, id ASC
	`, []any{projectID}, func(s scanner) (domain.Income, error) {
		var (
			i   domain.Income
			raw string
		)
		if err := s.Scan(&i.ID, &i.ProjectID, &i.Source, &i.Amount, &i.Currency, &raw); err != nil {
			return domain.Income{}, err
		}
		i.ReceivedAt = parseTS(raw)
		return i, nil
	})
}

// CreateStockEntry stores a stock movement.
func (r *Repository) CreateStockEntry(ctx context.Context, e domain.StockEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_entries(id, project_id, location, units, direction, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Location, e.Units, string(e.Direction), e.Reason, ts(e.OccurredAt))
	return err
}

// ListStockEntries lists stock movements for a project.
func (r *Repository) ListStockEntries(ctx context.Context, projectID string) ([]domain.StockEntry, error) {
	return queryAll(ctx, r.db, `
		SELECT id, project_id, location, units, direction, reason, occurred_at
		FROM stock_entries
		WHERE project_id = ?
		ORDER BY occurred_at ASC, id ASC
	`, []any{projectID}, func(s scanner) (domain.StockEntry, error) {
		var (
			e         domain.StockEntry
			direction string
			raw       string
		)
		if err := s.Scan(&e.ID, &e.ProjectID, &e.Location, &e.Units, &direction, &e.Reason, &raw); err != nil {
			return domain.StockEntry{}, err
		}
		e.Direction = domain.StockDirection(direction)
		e.OccurredAt = parseTS(raw)
		return e, nil
	})
}

// GetSnapshot returns a cached snapshot value.
func (r *Repository) GetSnapshot(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM snapshot_cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// PutSnapshot stores a snapshot value, replacing any previous one.
func (r *Repository) PutSnapshot(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshot_cache(key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, ts(time.Now()))
	return err
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// queryerContext represents a read-only DB contract used by DB and Tx implementations.
type queryerContext interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

// insertChangeEvent inserts a change-event ledger record.
func insertChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(project_id, operation, metadata_json, created_at)
		VALUES (?, ?, ?, ?)
	`,
		event.ProjectID,
		string(event.Operation),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// classifyProjectChange derives the operation category and metadata for a project update.
func classifyProjectChange(prev, next domain.Project) (domain.ChangeOperation, map[string]string) {
	switch {
	case prev.ArchivedAt == nil && next.ArchivedAt != nil:
		return domain.ChangeOperationArchive, map[string]string{}
	case prev.ArchivedAt != nil && next.ArchivedAt == nil:
		return domain.ChangeOperationRestore, map[string]string{}
	case prev.Phase != next.Phase:
		return domain.ChangeOperationPhase, map[string]string{
			"from_phase": prev.Phase.String(),
			"to_phase":   next.Phase.String(),
		}
	case prev.Decision != next.Decision && next.Decision == domain.DecisionDiscarded:
		return domain.ChangeOperationDiscard, map[string]string{
			"from_decision": string(prev.Decision),
			"reason":        next.DiscardedReason,
		}
	case prev.Decision != next.Decision:
		return domain.ChangeOperationDecision, map[string]string{
			"from_decision": string(prev.Decision),
			"to_decision":   string(next.Decision),
		}
	}
	fields := make([]string, 0, 3)
	if prev.Name != next.Name {
		fields = append(fields, "name")
	}
	if prev.Description != next.Description {
		fields = append(fields, "description")
	}
	if prev.ASIN != next.ASIN {
		fields = append(fields, "asin")
	}
	return domain.ChangeOperationUpdate, map[string]string{"changed_fields": strings.Join(fields, ",")}
}

// normalizeChangeOperation canonicalizes persisted operation values.
func normalizeChangeOperation(raw string) domain.ChangeOperation {
	op := domain.ChangeOperation(strings.TrimSpace(strings.ToLower(raw)))
	switch op {
	case domain.ChangeOperationCreate,
		domain.ChangeOperationUpdate,
		domain.ChangeOperationPhase,
		domain.ChangeOperationDecision,
		domain.ChangeOperationDiscard,
		domain.ChangeOperationArchive,
		domain.ChangeOperationRestore:
		return op
	default:
		return domain.ChangeOperationUpdate
	}
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, q queryerContext, query string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// scanProject handles scan project.
func scanProject(s scanner) (domain.Project, error) {
	var (
		p          domain.Project
		phase      int
		decision   string
		discarded  sql.NullString
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.ASIN, &phase, &decision, &p.DiscardedReason,
		&discarded, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, app.ErrNotFound
		}
		return domain.Project{}, err
	}
	p.Phase = domain.Phase(phase)
	p.Decision = domain.Decision(decision)
	p.DiscardedAt = parseNullTS(discarded)
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	p.ArchivedAt = parseNullTS(archived)
	return p, nil
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		status       string
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := s.Scan(&t.ID, &t.EntityType, &t.EntityID, &t.Title, &status, &createdRaw, &updatedRaw, &completedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Status = domain.TaskStatus(status)
	if t.Status == "" {
		t.Status = domain.TaskStatusTodo
	}
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	t.CompletedAt = parseNullTS(completedRaw)
	return t, nil
}

func scanDocument(s scanner) (domain.Document, error) {
	var (
		d          domain.Document
		category   string
		createdRaw string
	)
	if err := s.Scan(&d.ID, &d.ProjectID, &category, &d.Name, &d.StoragePath, &createdRaw); err != nil {
		return domain.Document{}, err
	}
	d.Category = domain.NormalizeDocumentCategory(domain.DocumentCategory(category))
	d.CreatedAt = parseTS(createdRaw)
	return d, nil
}

func scanSupplierQuote(s scanner) (domain.SupplierQuote, error) {
	var (
		q          domain.SupplierQuote
		moq        sql.NullInt64
		leadTime   sql.NullInt64
		validRaw   sql.NullString
		breaksRaw  string
		createdRaw string
	)
	if err := s.Scan(&q.ID, &q.ProjectID, &q.SupplierName, &q.Currency, &q.Incoterm, &moq, &leadTime, &validRaw,
		&q.Notes, &breaksRaw, &createdRaw); err != nil {
		return domain.SupplierQuote{}, err
	}
	q.MOQ = parseNullInt(moq)
	q.LeadTimeDays = parseNullInt(leadTime)
	q.ValidUntil = parseNullTS(validRaw)
	q.CreatedAt = parseTS(createdRaw)
	if strings.TrimSpace(breaksRaw) == "" {
		breaksRaw = "[]"
	}
	if err := json.Unmarshal([]byte(breaksRaw), &q.PriceBreaks); err != nil {
		return domain.SupplierQuote{}, fmt.Errorf("decode supplier_quotes.price_breaks_json: %w", err)
	}
	return q, nil
}

func scanPriceEstimate(s scanner) (domain.SupplierPriceEstimate, error) {
	var (
		e          domain.SupplierPriceEstimate
		moq        sql.NullInt64
		createdRaw string
	)
	if err := s.Scan(&e.ID, &e.ProjectID, &e.Source, &e.UnitPrice, &e.Currency, &moq, &createdRaw); err != nil {
		return domain.SupplierPriceEstimate{}, err
	}
	e.MOQ = parseNullInt(moq)
	e.CreatedAt = parseTS(createdRaw)
	return e, nil
}

func scanPurchaseOrder(s scanner) (domain.PurchaseOrder, error) {
	var (
		po         domain.PurchaseOrder
		status     string
		itemsRaw   string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&po.ID, &po.ProjectID, &po.Number, &status, &po.Total, &po.Currency, &itemsRaw, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PurchaseOrder{}, app.ErrNotFound
		}
		return domain.PurchaseOrder{}, err
	}
	po.Status = domain.POStatus(status)
	po.CreatedAt = parseTS(createdRaw)
	po.UpdatedAt = parseTS(updatedRaw)
	if strings.TrimSpace(itemsRaw) == "" {
		itemsRaw = "[]"
	}
	// Items written by other tools may use qty or unitats; POItem accepts all aliases.
	if err := json.Unmarshal([]byte(itemsRaw), &po.Items); err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("decode purchase_orders.items_json: %w", err)
	}
	return po, nil
}

func scanChangeEvent(s scanner) (domain.ChangeEvent, error) {
	var (
		event       domain.ChangeEvent
		opRaw       string
		metadataRaw string
		createdRaw  string
	)
	if err := s.Scan(&event.ID, &event.ProjectID, &opRaw, &metadataRaw, &createdRaw); err != nil {
		return domain.ChangeEvent{}, err
	}
	event.Operation = normalizeChangeOperation(opRaw)
	event.OccurredAt = parseTS(createdRaw)
	if strings.TrimSpace(metadataRaw) == "" {
		metadataRaw = "{}"
	}
	if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode change_events.metadata_json: %w", err)
	}
	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	return event, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func parseNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

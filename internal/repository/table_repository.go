package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

const tableColumns = "id, name, capacity, created_at, updated_at"

// TableRepo encapsulates database operations for seating tables.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo constructs a TableRepo given a DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
    return &TableRepo{db: db}
}

func scanTable(s rowScanner) (model.Table, error) {
    var t model.Table
    err := s.Scan(&t.ID, &t.Name, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
    return t, err
}

func queryTables(ctx context.Context, q dbtx, query string, args ...any) ([]model.Table, error) {
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Table, 0)
    for rows.Next() {
        t, err := scanTable(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// List returns all tables in creation order.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
    return queryTables(ctx, r.db, "SELECT "+tableColumns+" FROM seating_tables ORDER BY created_at, name")
}

// ListTx is List inside a transaction.
func (r *TableRepo) ListTx(ctx context.Context, tx *sql.Tx) ([]model.Table, error) {
    return queryTables(ctx, tx, "SELECT "+tableColumns+" FROM seating_tables ORDER BY created_at, name")
}

// GetByID fetches a table or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id string) (model.Table, error) {
    t, err := scanTable(r.db.QueryRowContext(ctx, "SELECT "+tableColumns+" FROM seating_tables WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Table{}, ErrTableNotFound
    }
    return t, err
}

// GetForUpdateTx loads a table and locks its row.  Every write that
// changes the seats used at a table takes this lock first.
func (r *TableRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Table, error) {
    t, err := scanTable(tx.QueryRowContext(ctx, "SELECT "+tableColumns+" FROM seating_tables WHERE id = ? FOR UPDATE", id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Table{}, ErrTableNotFound
    }
    return t, err
}

// Create inserts a single table, assigning its id and timestamps.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
    return r.insert(ctx, r.db, []*model.Table{t})
}

// CreateManyTx inserts several tables in one statement.
func (r *TableRepo) CreateManyTx(ctx context.Context, tx *sql.Tx, tables []model.Table) error {
    ptrs := make([]*model.Table, len(tables))
    for i := range tables {
        ptrs[i] = &tables[i]
    }
    return r.insert(ctx, tx, ptrs)
}

func (r *TableRepo) insert(ctx context.Context, q dbtx, tables []*model.Table) error {
    if len(tables) == 0 {
        return nil
    }
    now := time.Now().UTC().Truncate(time.Second)
    placeholders := make([]string, 0, len(tables))
    args := make([]any, 0, len(tables)*5)
    for _, t := range tables {
        if t.ID == "" {
            t.ID = uuid.NewString()
        }
        t.CreatedAt, t.UpdatedAt = now, now
        placeholders = append(placeholders, "(?, ?, ?, ?, ?)")
        args = append(args, t.ID, t.Name, t.Capacity, t.CreatedAt, t.UpdatedAt)
    }
    _, err := q.ExecContext(ctx,
        "INSERT INTO seating_tables ("+tableColumns+") VALUES "+strings.Join(placeholders, ","),
        args...)
    return err
}

// DeleteTx removes a table.  Guests must be unseated first.
func (r *TableRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
    res, err := tx.ExecContext(ctx, "DELETE FROM seating_tables WHERE id = ?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrTableNotFound
    }
    return nil
}

// Names maps table ids to names.
func Names(tables []model.Table) map[string]string {
    out := make(map[string]string, len(tables))
    for _, t := range tables {
        out[t.ID] = t.Name
    }
    return out
}

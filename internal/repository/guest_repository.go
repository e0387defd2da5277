package repository // repository for guest persistence

import (
    "context"      // context for managing deadlines
    "database/sql" // sql provides DB interfaces
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

const guestColumns = "id, name, phone, email, status, table_id, companions, unique_url, invitation_sent_at, rsvp_deadline, version, created_at, updated_at"

// GuestRepo encapsulates database operations for guests.
type GuestRepo struct {
    db *sql.DB
}

// NewGuestRepo constructs a GuestRepo given a DB handle.
func NewGuestRepo(db *sql.DB) *GuestRepo {
    return &GuestRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions that
// span several repositories.
func (r *GuestRepo) DB() *sql.DB { return r.db }

func scanGuest(s rowScanner) (model.Guest, error) {
    var (
        g                    model.Guest
        phone, email, table  sql.NullString
        status               string
        invitedAt, deadline  sql.NullTime
    )
    err := s.Scan(&g.ID, &g.Name, &phone, &email, &status, &table, &g.Companions, &g.UniqueURL,
        &invitedAt, &deadline, &g.Version, &g.CreatedAt, &g.UpdatedAt)
    if err != nil {
        return model.Guest{}, err
    }
    g.Phone = stringPtr(phone)
    g.Email = stringPtr(email)
    g.Status = model.Status(status)
    g.TableID = stringPtr(table)
    g.InvitationSentAt = timePtr(invitedAt)
    g.RSVPDeadline = timePtr(deadline)
    return g, nil
}

func queryGuests(ctx context.Context, q dbtx, query string, args ...any) ([]model.Guest, error) {
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Guest, 0)
    for rows.Next() {
        g, err := scanGuest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, g)
    }
    return out, rows.Err()
}

func getGuest(ctx context.Context, q dbtx, query string, args ...any) (model.Guest, error) {
    g, err := scanGuest(q.QueryRowContext(ctx, query, args...))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Guest{}, ErrGuestNotFound
    }
    return g, err
}

// List returns every guest ordered by creation time.
func (r *GuestRepo) List(ctx context.Context) ([]model.Guest, error) {
    return queryGuests(ctx, r.db, "SELECT "+guestColumns+" FROM guests ORDER BY created_at, name")
}

// ListTx is List inside a transaction.
func (r *GuestRepo) ListTx(ctx context.Context, tx *sql.Tx) ([]model.Guest, error) {
    return queryGuests(ctx, tx, "SELECT "+guestColumns+" FROM guests ORDER BY created_at, name")
}

// ListByTableTx returns the guests seated at a table and locks their rows.
// It is a locking read so it sees rows committed after the transaction's
// first plain read (InnoDB REPEATABLE READ serves plain reads from that
// snapshot).
func (r *GuestRepo) ListByTableTx(ctx context.Context, tx *sql.Tx, tableID string) ([]model.Guest, error) {
    return queryGuests(ctx, tx, "SELECT "+guestColumns+" FROM guests WHERE table_id = ? ORDER BY name FOR UPDATE", tableID)
}

// GetByID fetches a single guest or ErrGuestNotFound.
func (r *GuestRepo) GetByID(ctx context.Context, id string) (model.Guest, error) {
    return getGuest(ctx, r.db, "SELECT "+guestColumns+" FROM guests WHERE id = ?", id)
}

// GetByIDTx is GetByID inside a transaction, without locking.
func (r *GuestRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (model.Guest, error) {
    return getGuest(ctx, tx, "SELECT "+guestColumns+" FROM guests WHERE id = ?", id)
}

// GetByUniqueURL fetches the guest owning an invitation slug.
func (r *GuestRepo) GetByUniqueURL(ctx context.Context, slug string) (model.Guest, error) {
    return getGuest(ctx, r.db, "SELECT "+guestColumns+" FROM guests WHERE unique_url = ?", slug)
}

// GetForUpdateTx loads a guest and locks its row until tx ends.
func (r *GuestRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Guest, error) {
    return getGuest(ctx, tx, "SELECT "+guestColumns+" FROM guests WHERE id = ? FOR UPDATE", id)
}

// ContactTakenTx reports whether another guest already uses the phone or
// email.  excludeID may be empty.  It is a plain read; two writers racing
// past it are stopped by the unique keys on guests.phone and guests.email.
func (r *GuestRepo) ContactTakenTx(ctx context.Context, tx *sql.Tx, phone, email *string, excludeID string) (bool, error) {
    conds := make([]string, 0, 2)
    args := make([]any, 0, 3)
    if phone != nil && *phone != "" {
        conds = append(conds, "phone = ?")
        args = append(args, *phone)
    }
    if email != nil && *email != "" {
        conds = append(conds, "LOWER(email) = ?")
        args = append(args, strings.ToLower(*email))
    }
    if len(conds) == 0 {
        return false, nil
    }
    args = append(args, excludeID)
    var n int
    err := tx.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM guests WHERE ("+strings.Join(conds, " OR ")+") AND id <> ?",
        args...).Scan(&n)
    return n > 0, err
}

// CreateTx inserts g, filling in ID, UniqueURL, Version and timestamps
// when they are zero.
func (r *GuestRepo) CreateTx(ctx context.Context, tx *sql.Tx, g *model.Guest) error {
    return createGuest(ctx, tx, g)
}

func createGuest(ctx context.Context, q dbtx, g *model.Guest) error {
    now := time.Now().UTC().Truncate(time.Second)
    if g.ID == "" {
        g.ID = uuid.NewString()
    }
    if g.UniqueURL == "" {
        g.UniqueURL = NewSlug()
    }
    if g.Status == "" {
        g.Status = model.StatusPending
    }
    g.Version = 1
    g.CreatedAt, g.UpdatedAt = now, now
    _, err := q.ExecContext(ctx,
        "INSERT INTO guests ("+guestColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)",
        g.ID, g.Name, nullString(g.Phone), nullString(g.Email), string(g.Status), nullString(g.TableID),
        g.Companions, g.UniqueURL, nullTime(g.InvitationSentAt), nullTime(g.RSVPDeadline),
        g.Version, g.CreatedAt, g.UpdatedAt)
    if isDuplicateKey(err) {
        return ErrDuplicateGuest
    }
    return err
}

// UpdateTx writes every mutable field of g and bumps its version.  The
// update only applies when the stored version still equals g.Version;
// otherwise ErrStaleWrite is returned.  On success g carries the new
// version and timestamp.
func (r *GuestRepo) UpdateTx(ctx context.Context, tx *sql.Tx, g *model.Guest) error {
    now := time.Now().UTC().Truncate(time.Second)
    res, err := tx.ExecContext(ctx,
        `UPDATE guests SET name = ?, phone = ?, email = ?, status = ?, table_id = ?, companions = ?,
            invitation_sent_at = ?, rsvp_deadline = ?, version = version + 1, updated_at = ?
         WHERE id = ? AND version = ?`,
        g.Name, nullString(g.Phone), nullString(g.Email), string(g.Status), nullString(g.TableID), g.Companions,
        nullTime(g.InvitationSentAt), nullTime(g.RSVPDeadline), now, g.ID, g.Version)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateGuest
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrStaleWrite
    }
    g.Version++
    g.UpdatedAt = now
    return nil
}

// ClearTableTx unseats every guest at a table and returns how many moved.
func (r *GuestRepo) ClearTableTx(ctx context.Context, tx *sql.Tx, tableID string) (int64, error) {
    res, err := tx.ExecContext(ctx,
        "UPDATE guests SET table_id = NULL, version = version + 1, updated_at = ? WHERE table_id = ?",
        time.Now().UTC().Truncate(time.Second), tableID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// Delete removes a guest.  Returns ErrGuestNotFound when nothing matched.
func (r *GuestRepo) Delete(ctx context.Context, id string) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM guests WHERE id = ?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrGuestNotFound
    }
    return nil
}

// NewSlug returns an opaque invitation slug (32 lowercase hex characters).
func NewSlug() string {
    return strings.ReplaceAll(uuid.NewString(), "-", "")
}

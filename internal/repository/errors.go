// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver messages. ErrConflict is the
// parent of every "state does not allow this write" error so callers
// that only care about the HTTP class can test for it alone.
package repository

import (
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write cannot be performed because of
// conflicting state. Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

var (
    // ErrGuestNotFound is returned when no guest matches the id or slug.
    ErrGuestNotFound = errors.New("guest not found")
    // ErrTableNotFound is returned when no table matches the id.
    ErrTableNotFound = errors.New("table not found")
    // ErrDuplicateGuest signals a phone, e-mail or unique URL already in use.
    ErrDuplicateGuest = fmt.Errorf("%w: duplicate guest", ErrConflict)
    // ErrStaleWrite signals that the row changed since the caller read it.
    ErrStaleWrite = fmt.Errorf("%w: stale write", ErrConflict)
    // ErrEmailExists is returned when creating a user whose email is taken.
    ErrEmailExists = fmt.Errorf("%w: email already exists", ErrConflict)
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == mysqlDuplicateEntry
    }
    return false
}

package service

import (
    "context"
    "database/sql/driver"
    "errors"
    "regexp"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/larslemos/ninho-do-amor-sub000/internal/config"
    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/notify"
    q "github.com/larslemos/ninho-do-amor-sub000/internal/queue"
    "github.com/larslemos/ninho-do-amor-sub000/internal/repository"
)

var (
    guestCols = []string{"id", "name", "phone", "email", "status", "table_id", "companions", "unique_url",
        "invitation_sent_at", "rsvp_deadline", "version", "created_at", "updated_at"}
    tableCols = []string{"id", "name", "capacity", "created_at", "updated_at"}
    fixedTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

const (
    sqlPeekGuest   = "FROM guests WHERE id = ?"
    sqlLockGuest   = "FROM guests WHERE id = ? FOR UPDATE"
    sqlLockTable   = "FROM seating_tables WHERE id = ? FOR UPDATE"
    sqlGuestsAt    = "FROM guests WHERE table_id = ? ORDER BY name FOR UPDATE"
    sqlUpdateGuest = "UPDATE guests SET"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(_ context.Context, ev q.GuestEvent) error {
    return m.Called(ev.Type, ev.GuestID).Error(0)
}

type stubMailer struct {
    to, subject, body string
    err               error
}

func (s *stubMailer) Send(_ context.Context, to, subject, body string) error {
    s.to, s.subject, s.body = to, subject, body
    return s.err
}

type guestFixture struct {
    id, name, status string
    phone, email     any
    table            any
    companions       int
    version          int
}

func (f guestFixture) row() []driver.Value {
    version := f.version
    if version == 0 {
        version = 1
    }
    return []driver.Value{f.id, f.name, f.phone, f.email, f.status, f.table, f.companions, "slug-" + f.id,
        nil, nil, version, fixedTime, fixedTime}
}

func guestRows(fs ...guestFixture) *sqlmock.Rows {
    rows := sqlmock.NewRows(guestCols)
    for _, f := range fs {
        rows.AddRow(f.row()...)
    }
    return rows
}

func tableRow(id, name string, capacity int) *sqlmock.Rows {
    return sqlmock.NewRows(tableCols).AddRow(id, name, capacity, fixedTime, fixedTime)
}

func newSeating(t *testing.T) (sqlmock.Sqlmock, *SeatingService, *mockPublisher) {
    t.Helper()
    db, m, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    pub := &mockPublisher{}
    svc := NewSeatingService(db, repository.NewGuestRepo(db), repository.NewTableRepo(db), pub)
    return m, svc, pub
}

func expectMutationStart(m sqlmock.Sqlmock, peek guestFixture, tables map[string]*sqlmock.Rows, order []string, locked guestFixture) {
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta(sqlPeekGuest)).WithArgs(peek.id).WillReturnRows(guestRows(peek))
    for _, id := range order {
        m.ExpectQuery(regexp.QuoteMeta(sqlLockTable)).WithArgs(id).WillReturnRows(tables[id])
    }
    m.ExpectQuery(regexp.QuoteMeta(sqlLockGuest)).WithArgs(locked.id).WillReturnRows(guestRows(locked))
}

func codeOf(t *testing.T, err error) string {
    t.Helper()
    var se *Error
    require.True(t, errors.As(err, &se), "expected *service.Error, got %v", err)
    return se.Code
}

func TestAssign_SeatsConfirmedGuest(t *testing.T) {
    m, svc, pub := newSeating(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed", companions: 1}
    expectMutationStart(m, g, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 4)}, []string{"t1"}, g)
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").
        WillReturnRows(guestRows(guestFixture{id: "g2", name: "Rui", status: "confirmed", table: "t1"}))
    m.ExpectExec(regexp.QuoteMeta(sqlUpdateGuest)).WillReturnResult(sqlmock.NewResult(0, 1))
    seated := g
    seated.table, seated.version = "t1", 2
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").
        WillReturnRows(guestRows(guestFixture{id: "g2", name: "Rui", status: "confirmed", table: "t1"}, seated))
    m.ExpectCommit()
    pub.On("Publish", q.EventGuestSeated, "g1").Return(nil).Once()

    out, err := svc.Assign(context.Background(), "g1", "t1")
    require.NoError(t, err)
    require.NotNil(t, out.Guest.TableID)
    assert.Equal(t, "t1", *out.Guest.TableID)
    assert.Equal(t, 2, out.Guest.Version)
    require.NotNil(t, out.Table)
    assert.Equal(t, 3, out.Table.Occupied)
    assert.Equal(t, 1, out.Table.Available)
    assert.Nil(t, out.Freed)
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertExpectations(t)
}

func TestAssign_CapacityExceeded(t *testing.T) {
    m, svc, pub := newSeating(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed", companions: 3}
    expectMutationStart(m, g, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 8)}, []string{"t1"}, g)
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").
        WillReturnRows(guestRows(
            guestFixture{id: "g2", name: "Rui", status: "confirmed", table: "t1", companions: 2},
            guestFixture{id: "g3", name: "Eva", status: "confirmed", table: "t1", companions: 1},
        ))
    m.ExpectRollback()

    _, err := svc.Assign(context.Background(), "g1", "t1")
    require.Error(t, err)
    assert.Equal(t, CodeCapacityExceeded, codeOf(t, err))
    assert.Contains(t, err.Error(), "Mesa 1 tem apenas 3 lugar(es)")
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAssign_RequiresConfirmedGuest(t *testing.T) {
    m, svc, _ := newSeating(t)
    g := guestFixture{id: "g1", name: "Ana", status: "pending"}
    expectMutationStart(m, g, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 8)}, []string{"t1"}, g)
    m.ExpectRollback()

    _, err := svc.Assign(context.Background(), "g1", "t1")
    assert.Equal(t, CodeGuestNotConfirmed, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestAssign_MissingIDs(t *testing.T) {
    _, svc, _ := newSeating(t)
    _, err := svc.Assign(context.Background(), " ", "t1")
    var se *Error
    require.ErrorAs(t, err, &se)
    assert.Equal(t, CodeValidation, se.Code)
    assert.Equal(t, MsgSelectTableAndGuest, se.Message)
}

func TestAssign_UnknownTable(t *testing.T) {
    m, svc, _ := newSeating(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed"}
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta(sqlPeekGuest)).WithArgs("g1").WillReturnRows(guestRows(g))
    m.ExpectQuery(regexp.QuoteMeta(sqlLockTable)).WithArgs("nope").WillReturnRows(sqlmock.NewRows(tableCols))
    m.ExpectRollback()

    _, err := svc.Assign(context.Background(), "g1", "nope")
    assert.Equal(t, CodeTableNotFound, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestMutate_StaleWhenGuestMovedConcurrently(t *testing.T) {
    m, svc, _ := newSeating(t)
    peek := guestFixture{id: "g1", name: "Ana", status: "confirmed"}
    locked := peek
    locked.table = "t9"
    expectMutationStart(m, peek, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 8)}, []string{"t1"}, locked)
    m.ExpectRollback()

    _, err := svc.Assign(context.Background(), "g1", "t1")
    assert.Equal(t, CodeStaleWrite, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestUnassign_FreesSeat(t *testing.T) {
    m, svc, pub := newSeating(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed", table: "t1", companions: 1}
    expectMutationStart(m, g, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 6)}, []string{"t1"}, g)
    m.ExpectExec(regexp.QuoteMeta(sqlUpdateGuest)).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").WillReturnRows(guestRows())
    m.ExpectCommit()
    pub.On("Publish", q.EventGuestUnseated, "g1").Return(errors.New("broker down")).Once()

    out, err := svc.Unassign(context.Background(), "g1")
    require.NoError(t, err, "publish failures must not fail the request")
    assert.Nil(t, out.Guest.TableID)
    require.NotNil(t, out.Freed)
    assert.Equal(t, 6, out.Freed.Available)
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertExpectations(t)
}

func TestUnassign_AlreadyUnseatedWritesNothing(t *testing.T) {
    m, svc, pub := newSeating(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed"}
    expectMutationStart(m, g, nil, nil, g)
    m.ExpectCommit()

    out, err := svc.Unassign(context.Background(), "g1")
    require.NoError(t, err)
    assert.Nil(t, out.Freed)
    assert.Equal(t, 1, out.Guest.Version)
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func newGuestService(t *testing.T) (sqlmock.Sqlmock, *GuestService, *mockPublisher) {
    m, seatingSvc, pub := newSeating(t)
    svc := NewGuestService(seatingSvc, "https://example.test")
    svc.Now = func() time.Time { return fixedTime }
    return m, svc, pub
}

func TestGuestCreate_RequiresNameAndPhone(t *testing.T) {
    _, svc, _ := newGuestService(t)
    _, err := svc.Create(context.Background(), CreateGuestInput{Name: "Ana"})
    assert.Equal(t, CodeValidation, codeOf(t, err))
    _, err = svc.Create(context.Background(), CreateGuestInput{Phone: "+258841234567"})
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

func TestGuestCreate_SharesImportRules(t *testing.T) {
    _, svc, _ := newGuestService(t)
    cases := map[string]CreateGuestInput{
        "Telefone é obrigatório":           {Name: "Ana", Phone: "( )-"},
        "Email inválido":                   {Name: "Ana", Phone: "+258841234567", Email: "ana.example.com"},
        "Número de acompanhantes inválido": {Name: "Ana", Phone: "+258841234567", Companions: MaxCompanions + 1},
    }
    for msg, in := range cases {
        _, err := svc.Create(context.Background(), in)
        require.Equal(t, CodeValidation, codeOf(t, err), msg)
        assert.Equal(t, msg, AsError(err).Message)
    }
}

func TestGuestImport_SkipsRowsCreateWouldReject(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta("FROM guests ORDER BY")).WillReturnRows(guestRows())
    m.ExpectCommit()

    csv := "nome,telefone,email,acompanhantes\nAna,( )-,not-an-email,500\n"
    rep, err := svc.Import(context.Background(), strings.NewReader(csv))
    require.NoError(t, err)
    assert.Equal(t, 0, rep.Imported)
    require.Len(t, rep.Skipped, 1)
    assert.Equal(t, "telefone obrigatório", rep.Skipped[0].Reason)
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestCreate_FormatsPhoneAndRejectsDuplicates(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM guests")).
        WithArgs("+258841234567", "ana@example.com", "").
        WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
    m.ExpectRollback()

    _, err := svc.Create(context.Background(), CreateGuestInput{Name: "Ana", Phone: "+258 (84) 123-4567", Email: "Ana@Example.com"})
    assert.Equal(t, CodeDuplicateGuest, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestCreate_Inserts(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM guests")).
        WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
    m.ExpectExec(regexp.QuoteMeta("INSERT INTO guests")).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectCommit()

    g, err := svc.Create(context.Background(), CreateGuestInput{Name: " Ana ", Phone: "+258 84 123 4567", RSVPDeadline: "2026-06-01"})
    require.NoError(t, err)
    assert.Equal(t, "Ana", g.Name)
    assert.Equal(t, "+258841234567", model.StrVal(g.Phone))
    assert.Nil(t, g.Email)
    assert.Equal(t, model.StatusPending, g.Status)
    assert.NotEmpty(t, g.UniqueURL)
    require.NotNil(t, g.RSVPDeadline)
    assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), *g.RSVPDeadline)
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestCreate_UniqueKeyCatchesConcurrentInsert(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM guests")).
        WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
    m.ExpectExec(regexp.QuoteMeta("INSERT INTO guests")).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '+258841234567' for key 'uq_guests_phone'"})
    m.ExpectRollback()

    _, err := svc.Create(context.Background(), CreateGuestInput{Name: "Ana", Phone: "+258841234567"})
    assert.Equal(t, CodeDuplicateGuest, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestUpdate_VersionMismatch(t *testing.T) {
    m, svc, _ := newGuestService(t)
    g := guestFixture{id: "g1", name: "Ana", status: "pending", version: 4}
    expectMutationStart(m, g, nil, nil, g)
    m.ExpectRollback()

    v := 3
    _, err := svc.Update(context.Background(), UpdateGuestInput{GuestID: "g1", Version: &v, Name: model.StrPtr("Ana Maria")})
    assert.Equal(t, CodeStaleWrite, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestUpdate_RejectsUnknownStatus(t *testing.T) {
    _, svc, _ := newGuestService(t)
    _, err := svc.Update(context.Background(), UpdateGuestInput{GuestID: "g1", Status: model.StrPtr("maybe")})
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

func TestGuestUpdate_CompanionGrowthRechecksCapacity(t *testing.T) {
    m, svc, _ := newGuestService(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed", table: "t1"}
    expectMutationStart(m, g, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 3)}, []string{"t1"}, g)
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").
        WillReturnRows(guestRows(g, guestFixture{id: "g2", name: "Rui", status: "confirmed", table: "t1", companions: 1}))
    m.ExpectRollback()

    n := 1
    _, err := svc.Update(context.Background(), UpdateGuestInput{GuestID: "g1", Companions: &n})
    assert.Equal(t, CodeCapacityExceeded, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestRSVP_RejectFreesSeat(t *testing.T) {
    m, svc, pub := newGuestService(t)
    g := guestFixture{id: "g1", name: "Ana", status: "confirmed", table: "t1", companions: 2}
    m.ExpectQuery(regexp.QuoteMeta("FROM guests WHERE unique_url = ?")).WithArgs("slug-g1").WillReturnRows(guestRows(g))
    expectMutationStart(m, g, map[string]*sqlmock.Rows{"t1": tableRow("t1", "Mesa 1", 8)}, []string{"t1"}, g)
    m.ExpectExec(regexp.QuoteMeta(sqlUpdateGuest)).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").WillReturnRows(guestRows())
    m.ExpectCommit()
    pub.On("Publish", q.EventGuestUnseated, "g1").Return(nil).Once()
    pub.On("Publish", q.EventRSVPUpdated, "g1").Return(nil).Once()

    out, err := svc.RSVP(context.Background(), "slug-g1", RSVPInput{Status: "rejected"})
    require.NoError(t, err)
    assert.Equal(t, model.StatusRejected, out.Guest.Status)
    assert.Equal(t, "Rejeitado", out.Guest.StatusLabel)
    assert.Nil(t, out.Guest.TableName)
    assert.Empty(t, out.Warning)
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertExpectations(t)
}

func TestGuestRSVP_PendingIsNotAnAnswer(t *testing.T) {
    _, svc, _ := newGuestService(t)
    _, err := svc.RSVP(context.Background(), "slug", RSVPInput{Status: "pending"})
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

func TestGuestByURL_WarnsAfterDeadline(t *testing.T) {
    m, svc, _ := newGuestService(t)
    deadline := fixedTime.Add(-48 * time.Hour)
    m.ExpectQuery(regexp.QuoteMeta("FROM guests WHERE unique_url = ?")).
        WillReturnRows(sqlmock.NewRows(guestCols).AddRow("g1", "Ana", nil, nil, "pending", "t1", 0, "abc",
            nil, deadline, 1, fixedTime, fixedTime))
    m.ExpectQuery(regexp.QuoteMeta("FROM seating_tables WHERE id = ?")).WithArgs("t1").
        WillReturnRows(tableRow("t1", "Mesa dos Padrinhos", 8))

    out, err := svc.ByURL(context.Background(), "abc")
    require.NoError(t, err)
    require.NotNil(t, out.Guest.TableName)
    assert.Equal(t, "Mesa dos Padrinhos", *out.Guest.TableName)
    assert.Contains(t, out.Warning, "29/04/2026")
    assert.Equal(t, model.StatusPending, out.Guest.Status)
}

func TestGuestByURL_NotFound(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectQuery(regexp.QuoteMeta("FROM guests WHERE unique_url = ?")).WillReturnRows(sqlmock.NewRows(guestCols))

    _, err := svc.ByURL(context.Background(), "missing")
    assert.Equal(t, CodeGuestNotFound, codeOf(t, err))
}

func TestGuestList_FiltersAndCounts(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectQuery(regexp.QuoteMeta("FROM guests ORDER BY")).WillReturnRows(guestRows(
        guestFixture{id: "g1", name: "Ana Silva", status: "confirmed", phone: "+258841234567"},
        guestFixture{id: "g2", name: "Rui", status: "pending"},
        guestFixture{id: "g3", name: "Anabela", status: "rejected"},
    ))

    out, err := svc.List(context.Background(), "ana", "all")
    require.NoError(t, err)
    assert.Equal(t, 2, out.Total)
    assert.Equal(t, 3, out.Stats.Total)
    assert.Equal(t, 1, out.Stats.Confirmed)

    _, err = svc.List(context.Background(), "", "bogus")
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

func TestGuestImport_SkipsDuplicatesAndInvalidRows(t *testing.T) {
    m, svc, _ := newGuestService(t)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta("FROM guests ORDER BY")).
        WillReturnRows(guestRows(guestFixture{id: "g1", name: "Ana", status: "pending", phone: "+258841234567"}))
    m.ExpectExec(regexp.QuoteMeta("INSERT INTO guests")).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectExec(regexp.QuoteMeta("INSERT INTO guests")).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectCommit()

    csv := "nome;telefone;email;acompanhantes\n" +
        "Rui;+351 912 345 678;rui@example.com;1\n" +
        "Ana de novo;+258 84 123 4567;;0\n" +
        ";+351911111111;;0\n" +
        "Eva;+351922222222;;2\n"
    rep, err := svc.Import(context.Background(), strings.NewReader(csv))
    require.NoError(t, err)
    assert.Equal(t, 2, rep.Imported)
    require.Len(t, rep.Skipped, 2)
    assert.Equal(t, 3, rep.Skipped[0].Line)
    assert.Equal(t, 4, rep.Skipped[1].Line)
    assert.Equal(t, "+351912345678", model.StrVal(rep.Guests[0].Phone))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestGuestImport_EmptyFile(t *testing.T) {
    _, svc, _ := newGuestService(t)
    _, err := svc.Import(context.Background(), strings.NewReader(""))
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

func TestTableBulk_NumbersAfterExisting(t *testing.T) {
    m, seatingSvc, _ := newSeating(t)
    svc := NewTableService(seatingSvc)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta("FROM seating_tables ORDER BY")).WillReturnRows(tableRow("t2", "Mesa 2", 8))
    m.ExpectQuery(regexp.QuoteMeta("FROM guests ORDER BY")).WillReturnRows(guestRows(
        guestFixture{id: "g1", name: "Ana", status: "confirmed", companions: 5},
        guestFixture{id: "g2", name: "Rui", status: "confirmed", companions: 3},
        guestFixture{id: "g3", name: "Eva", status: "pending", companions: 9},
    ))
    m.ExpectExec(regexp.QuoteMeta("INSERT INTO seating_tables")).WillReturnResult(sqlmock.NewResult(0, 3))
    m.ExpectCommit()

    out, err := svc.Bulk(context.Background(), BulkInput{Capacity: 4})
    require.NoError(t, err)
    require.Len(t, out.Tables, 3)
    assert.Equal(t, "Mesa 3", out.Tables[0].Table.Name)
    assert.Equal(t, "Mesa 5", out.Tables[2].Table.Name)
    assert.Equal(t, "3 mesas criadas", out.Message)
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestTableBulk_InvalidCapacity(t *testing.T) {
    _, seatingSvc, _ := newSeating(t)
    _, err := NewTableService(seatingSvc).Bulk(context.Background(), BulkInput{Count: 2})
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

func TestTableDelete_UnseatsGuests(t *testing.T) {
    m, seatingSvc, pub := newSeating(t)
    svc := NewTableService(seatingSvc)
    m.ExpectBegin()
    m.ExpectQuery(regexp.QuoteMeta(sqlLockTable)).WithArgs("t1").WillReturnRows(tableRow("t1", "Mesa 1", 8))
    m.ExpectQuery(regexp.QuoteMeta(sqlGuestsAt)).WithArgs("t1").
        WillReturnRows(guestRows(guestFixture{id: "g1", name: "Ana", status: "confirmed", table: "t1"}))
    m.ExpectExec(regexp.QuoteMeta("UPDATE guests SET table_id = NULL")).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectExec(regexp.QuoteMeta("DELETE FROM seating_tables")).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectCommit()
    pub.On("Publish", q.EventGuestUnseated, "g1").Return(nil).Once()

    freed, err := svc.Delete(context.Background(), "t1")
    require.NoError(t, err)
    require.Len(t, freed, 1)
    assert.Nil(t, freed[0].TableID)
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertExpectations(t)
}

func newInvitationService(t *testing.T, mailer notify.Mailer) (sqlmock.Sqlmock, *InvitationService, *mockPublisher) {
    m, seatingSvc, pub := newSeating(t)
    r, err := notify.NewRenderer(nil)
    require.NoError(t, err)
    ev := config.EventSettings{BrideName: "Lara", GroomName: "Lemos", Date: "20/09/2026", Venue: "Quinta do Lago"}
    svc := NewInvitationService(seatingSvc, mailer, r, ev, "https://example.test")
    svc.Now = func() time.Time { return fixedTime }
    return m, svc, pub
}

func TestInvitationSend_WhatsApp(t *testing.T) {
    m, svc, pub := newInvitationService(t, &stubMailer{})
    g := guestFixture{id: "g1", name: "Ana", status: "pending", phone: "+258841234567"}
    m.ExpectQuery(regexp.QuoteMeta(sqlPeekGuest)).WithArgs("g1").WillReturnRows(guestRows(g))
    expectMutationStart(m, g, nil, nil, g)
    m.ExpectExec(regexp.QuoteMeta(sqlUpdateGuest)).WillReturnResult(sqlmock.NewResult(0, 1))
    m.ExpectCommit()
    pub.On("Publish", q.EventInvitationSent, "g1").Return(nil).Once()

    out, err := svc.Send(context.Background(), SendInput{GuestID: "g1", Method: "whatsapp", TemplateType: "casual"})
    require.NoError(t, err)
    assert.Equal(t, "https://example.test/convite/slug-g1", out.Link)
    assert.True(t, strings.HasPrefix(out.WhatsAppURL, "https://wa.me/258841234567?text="))
    assert.Contains(t, out.Message, "Lara & Lemos")
    require.NotNil(t, out.Guest.InvitationSentAt)
    assert.Equal(t, fixedTime, *out.Guest.InvitationSentAt)
    assert.NoError(t, m.ExpectationsWereMet())
    pub.AssertExpectations(t)
}

func TestInvitationSend_InvalidPhone(t *testing.T) {
    m, svc, _ := newInvitationService(t, &stubMailer{})
    m.ExpectQuery(regexp.QuoteMeta(sqlPeekGuest)).
        WillReturnRows(guestRows(guestFixture{id: "g1", name: "Ana", status: "pending", phone: "12345"}))

    _, err := svc.Send(context.Background(), SendInput{GuestID: "g1", Method: "whatsapp"})
    assert.Equal(t, CodeInvalidPhone, codeOf(t, err))
    assert.NoError(t, m.ExpectationsWereMet())
}

func TestInvitationSend_EmailNeedsAddress(t *testing.T) {
    m, svc, _ := newInvitationService(t, &stubMailer{})
    m.ExpectQuery(regexp.QuoteMeta(sqlPeekGuest)).
        WillReturnRows(guestRows(guestFixture{id: "g1", name: "Ana", status: "pending", phone: "+258841234567"}))

    _, err := svc.Send(context.Background(), SendInput{GuestID: "g1", Method: "email"})
    assert.Equal(t, CodeMissingContact, codeOf(t, err))
}

func TestInvitationSend_EmailDeliveryFailure(t *testing.T) {
    mailer := &stubMailer{err: notify.ErrMailDisabled}
    m, svc, _ := newInvitationService(t, mailer)
    m.ExpectQuery(regexp.QuoteMeta(sqlPeekGuest)).
        WillReturnRows(guestRows(guestFixture{id: "g1", name: "Ana", status: "pending", email: "ana@example.com"}))

    _, err := svc.Send(context.Background(), SendInput{GuestID: "g1", Method: "email", CustomMessage: "Traje: esporte fino"})
    assert.Equal(t, CodeDeliveryFailed, codeOf(t, err))
    assert.Equal(t, "ana@example.com", mailer.to)
    assert.Contains(t, mailer.subject, "Convite de casamento")
    assert.Contains(t, mailer.body, "Traje: esporte fino")
    assert.ErrorIs(t, err, notify.ErrMailDisabled)
}

func TestInvitationSend_RejectsUnknownMethod(t *testing.T) {
    _, svc, _ := newInvitationService(t, &stubMailer{})
    _, err := svc.Send(context.Background(), SendInput{GuestID: "g1", Method: "pigeon"})
    assert.Equal(t, CodeValidation, codeOf(t, err))
}

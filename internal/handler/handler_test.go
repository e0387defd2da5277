package handler

import (
    "bytes"
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "io"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/larslemos/ninho-do-amor-sub000/internal/config"
    "github.com/larslemos/ninho-do-amor-sub000/internal/middleware"
    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/seating"
    "github.com/larslemos/ninho-do-amor-sub000/internal/service"
    "github.com/larslemos/ninho-do-amor-sub000/internal/utils"
)

// ----- mocks -----

type mockGuests struct{ mock.Mock }

func (m *mockGuests) List(ctx context.Context, search, status string) (service.GuestList, error) {
    args := m.Called(search, status)
    return args.Get(0).(service.GuestList), args.Error(1)
}
func (m *mockGuests) Create(ctx context.Context, in service.CreateGuestInput) (model.Guest, error) {
    args := m.Called(in)
    return args.Get(0).(model.Guest), args.Error(1)
}
func (m *mockGuests) Update(ctx context.Context, in service.UpdateGuestInput) (service.Mutation, error) {
    args := m.Called(in)
    return args.Get(0).(service.Mutation), args.Error(1)
}
func (m *mockGuests) Delete(ctx context.Context, id string) error {
    return m.Called(id).Error(0)
}
func (m *mockGuests) Export(ctx context.Context, w io.Writer) error {
    args := m.Called()
    _, _ = io.WriteString(w, args.String(0))
    return args.Error(1)
}
func (m *mockGuests) Import(ctx context.Context, r io.Reader) (service.ImportReport, error) {
    body, _ := io.ReadAll(r)
    args := m.Called(string(body))
    return args.Get(0).(service.ImportReport), args.Error(1)
}

type mockTables struct{ mock.Mock }

func (m *mockTables) List(ctx context.Context) (service.TableOverview, error) {
    args := m.Called()
    return args.Get(0).(service.TableOverview), args.Error(1)
}
func (m *mockTables) Create(ctx context.Context, name string, capacity int) (seating.TableSummary, error) {
    args := m.Called(name, capacity)
    return args.Get(0).(seating.TableSummary), args.Error(1)
}
func (m *mockTables) Delete(ctx context.Context, id string) ([]model.Guest, error) {
    args := m.Called(id)
    g, _ := args.Get(0).([]model.Guest)
    return g, args.Error(1)
}
func (m *mockTables) Bulk(ctx context.Context, in service.BulkInput) (service.BulkResult, error) {
    args := m.Called(in)
    return args.Get(0).(service.BulkResult), args.Error(1)
}
func (m *mockTables) Assign(ctx context.Context, guestID, tableID string) (service.Assignment, error) {
    args := m.Called(guestID, tableID)
    return args.Get(0).(service.Assignment), args.Error(1)
}
func (m *mockTables) Unassign(ctx context.Context, guestID string) (service.Assignment, error) {
    args := m.Called(guestID)
    return args.Get(0).(service.Assignment), args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, in service.SendInput) (service.SendResult, error) {
    args := m.Called(in)
    return args.Get(0).(service.SendResult), args.Error(1)
}

type mockLookup struct{ mock.Mock }

func (m *mockLookup) ByURL(ctx context.Context, slug string) (service.PublicInvitation, error) {
    args := m.Called(slug)
    return args.Get(0).(service.PublicInvitation), args.Error(1)
}
func (m *mockLookup) RSVP(ctx context.Context, slug string, in service.RSVPInput) (service.PublicInvitation, error) {
    args := m.Called(slug, in)
    return args.Get(0).(service.PublicInvitation), args.Error(1)
}

type mockPurger struct{ mock.Mock }

func (m *mockPurger) Purge(ctx context.Context, path string) error {
    return m.Called(path).Error(0)
}

// ----- helpers -----

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

func intPtr(n int) *int { return &n }

// ----- guests -----

func TestGuestHandler_CreateAcceptsPortugueseFields(t *testing.T) {
    m := &mockGuests{}
    h := NewGuestHandler(m)
    e := echo.New()
    e.POST("/api/admin/guests", h.Create)

    m.On("Create", service.CreateGuestInput{Name: "Ana", Phone: "+258 84 123 4567", Companions: 1}).
        Return(model.Guest{ID: "g1", Name: "Ana", Status: model.StatusPending}, nil)

    rec := do(e, http.MethodPost, "/api/admin/guests", `{"nome":"Ana","telefone":"+258 84 123 4567","companions":1}`)
    assert.Equal(t, http.StatusCreated, rec.Code)
    body := decode(t, rec)
    guest := body["guest"].(map[string]any)
    assert.Equal(t, "g1", guest["id"])
    assert.Equal(t, "Pendente", guest["status_label"])
    m.AssertExpectations(t)
}

func TestGuestHandler_CreateInternalError(t *testing.T) {
    m := &mockGuests{}
    e := echo.New()
    e.POST("/api/admin/guests", NewGuestHandler(m).Create)
    m.On("Create", mock.Anything).Return(model.Guest{}, service.AsError(errors.New("boom")))

    rec := do(e, http.MethodPost, "/api/admin/guests", `{"name":"Ana","phone":"+258841234567"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Equal(t, "internal_error", decode(t, rec)["code"])
}

func TestGuestHandler_UpdateDistinguishesNullFromAbsent(t *testing.T) {
    m := &mockGuests{}
    e := echo.New()
    e.PATCH("/api/admin/guests", NewGuestHandler(m).Update)

    var got service.UpdateGuestInput
    m.On("Update", mock.Anything).Run(func(args mock.Arguments) {
        got = args.Get(0).(service.UpdateGuestInput)
    }).Return(service.Mutation{Guest: model.Guest{ID: "g1"}}, nil)

    rec := do(e, http.MethodPatch, "/api/admin/guests", `{"guestId":"g1","tableId":null,"version":3}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, got.TableID.Set)
    assert.Nil(t, got.TableID.Value)
    assert.False(t, got.Email.Set)
    require.NotNil(t, got.Version)
    assert.Equal(t, 3, *got.Version)
    assert.Nil(t, got.Status)
}

func TestGuestHandler_UpdateErrorsMapToStatus(t *testing.T) {
    cases := map[string]int{
        service.CodeCapacityExceeded:  http.StatusConflict,
        service.CodeStaleWrite:        http.StatusConflict,
        service.CodeGuestNotConfirmed: http.StatusUnprocessableEntity,
        service.CodeGuestNotFound:     http.StatusNotFound,
        service.CodeValidation:        http.StatusBadRequest,
    }
    for code, status := range cases {
        t.Run(code, func(t *testing.T) {
            m := &mockGuests{}
            e := echo.New()
            e.PATCH("/api/admin/guests", NewGuestHandler(m).Update)
            m.On("Update", mock.Anything).Return(service.Mutation{}, &service.Error{Code: code, Message: "msg"})

            rec := do(e, http.MethodPatch, "/api/admin/guests", `{"guestId":"g1","status":"confirmed"}`)
            assert.Equal(t, status, rec.Code)
            body := decode(t, rec)
            assert.Equal(t, code, body["code"])
            assert.Equal(t, "msg", body["error"])
        })
    }
}

func TestGuestHandler_ListPassesFilters(t *testing.T) {
    m := &mockGuests{}
    e := echo.New()
    e.GET("/api/admin/guests", NewGuestHandler(m).List)
    m.On("List", "ana", "confirmed").Return(service.GuestList{Guests: []model.Guest{{ID: "g1"}}, Total: 1}, nil)

    rec := do(e, http.MethodGet, "/api/admin/guests?search=ana&status=confirmed", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, decode(t, rec)["total"])
}

func TestGuestHandler_Export(t *testing.T) {
    m := &mockGuests{}
    e := echo.New()
    e.GET("/api/admin/guests/export", NewGuestHandler(m).Export)
    m.On("Export").Return("Nome,Telefone\n\"Smith, John\",+1\n", nil)

    rec := do(e, http.MethodGet, "/api/admin/guests/export", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
    assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=\"convidados-")
    assert.Contains(t, rec.Body.String(), `"Smith, John"`)
}

func TestGuestHandler_Import(t *testing.T) {
    m := &mockGuests{}
    e := echo.New()
    e.POST("/api/admin/guests/import", NewGuestHandler(m).Import)
    csv := "nome,telefone\nAna,+258841234567\n"
    m.On("Import", csv).Return(service.ImportReport{Imported: 1, Skipped: nil}, nil)

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    fw, err := mw.CreateFormFile("file", "convidados.csv")
    require.NoError(t, err)
    _, _ = fw.Write([]byte(csv))
    require.NoError(t, mw.Close())

    req := httptest.NewRequest(http.MethodPost, "/api/admin/guests/import", &buf)
    req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, decode(t, rec)["imported"])
    m.AssertExpectations(t)
}

func TestGuestHandler_ImportWithoutFile(t *testing.T) {
    e := echo.New()
    e.POST("/api/admin/guests/import", NewGuestHandler(&mockGuests{}).Import)
    rec := do(e, http.MethodPost, "/api/admin/guests/import", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- tables -----

func TestTableHandler_AssignReturnsDelta(t *testing.T) {
    m := &mockTables{}
    e := echo.New()
    e.POST("/api/admin/tables/assign", NewTableHandler(m).Assign)
    tid := "t1"
    sum := seating.TableSummary{Table: model.Table{ID: "t1", Name: "Mesa 1", Capacity: 8}, Occupied: 3, Available: 5}
    m.On("Assign", "g1", "t1").Return(service.Assignment{Guest: model.Guest{ID: "g1", TableID: &tid}, Table: &sum}, nil)

    rec := do(e, http.MethodPost, "/api/admin/tables/assign", `{"guestId":"g1","tableId":"t1"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    table := decode(t, rec)["table"].(map[string]any)
    assert.EqualValues(t, 5, table["available"])
}

func TestTableHandler_AssignCapacityExceeded(t *testing.T) {
    m := &mockTables{}
    e := echo.New()
    e.POST("/api/admin/tables/assign", NewTableHandler(m).Assign)
    m.On("Assign", "g1", "t1").Return(service.Assignment{}, &service.Error{Code: service.CodeCapacityExceeded, Message: "Mesa 1 tem apenas 3 lugar(es)"})

    rec := do(e, http.MethodPost, "/api/admin/tables/assign", `{"guestId":"g1","tableId":"t1"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, service.CodeCapacityExceeded, decode(t, rec)["code"])
}

func TestTableHandler_BulkAndDelete(t *testing.T) {
    m := &mockTables{}
    h := NewTableHandler(m)
    e := echo.New()
    e.POST("/api/admin/tables/bulk", h.Bulk)
    e.DELETE("/api/admin/tables", h.Delete)
    m.On("Bulk", service.BulkInput{Capacity: 8, Prefix: "Mesa"}).Return(service.BulkResult{Message: "2 mesas criadas"}, nil)
    m.On("Delete", "t1").Return(nil, nil)

    rec := do(e, http.MethodPost, "/api/admin/tables/bulk", `{"capacity":8,"prefix":"Mesa"}`)
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "2 mesas criadas", decode(t, rec)["message"])

    rec = do(e, http.MethodDelete, "/api/admin/tables", `{"tableId":"t1"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, []any{}, decode(t, rec)["unseated"])
}

// ----- invitations -----

func TestInvitationHandler_Send(t *testing.T) {
    m := &mockSender{}
    e := echo.New()
    e.POST("/api/guests/send-invitation", NewInvitationHandler(m).Send)
    in := service.SendInput{GuestID: "g1", Method: "whatsapp", TemplateType: "formal"}
    m.On("Send", in).Return(service.SendResult{Guest: model.Guest{ID: "g1"}, Method: "whatsapp", WhatsAppURL: "https://wa.me/258841234567?text=Ol%C3%A1"}, nil)

    rec := do(e, http.MethodPost, "/api/guests/send-invitation", `{"guestId":"g1","method":"whatsapp","templateType":"formal"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "https://wa.me/258841234567?text=Ol%C3%A1", decode(t, rec)["whatsapp_url"])
}

func TestInvitationHandler_SendErrors(t *testing.T) {
    cases := map[string]int{
        service.CodeInvalidPhone:   http.StatusBadRequest,
        service.CodeMissingContact: http.StatusUnprocessableEntity,
        service.CodeDeliveryFailed: http.StatusBadGateway,
    }
    for code, status := range cases {
        m := &mockSender{}
        e := echo.New()
        e.POST("/api/guests/send-invitation", NewInvitationHandler(m).Send)
        m.On("Send", mock.Anything).Return(service.SendResult{}, &service.Error{Code: code, Message: "x"})
        rec := do(e, http.MethodPost, "/api/guests/send-invitation", `{"guestId":"g1","method":"email"}`)
        assert.Equal(t, status, rec.Code, code)
    }
}

// ----- public -----

func TestPublicHandler_RSVPPurgesCache(t *testing.T) {
    lookup := &mockLookup{}
    purger := &mockPurger{}
    h := NewPublicHandler(lookup, purger)
    e := echo.New()
    e.POST(PublicInvitationPath+"/rsvp", h.RSVP)

    lookup.On("RSVP", "abc", service.RSVPInput{Status: "confirmed", Companions: intPtr(2)}).
        Return(service.PublicInvitation{Guest: model.PublicGuest{Name: "Ana", Status: model.StatusConfirmed}}, nil)
    purger.On("Purge", "/api/guests/by-url/abc").Return(nil)

    rec := do(e, http.MethodPost, "/api/guests/by-url/abc/rsvp", `{"status":"confirmed","companions":2}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    lookup.AssertExpectations(t)
    purger.AssertExpectations(t)
}

func TestPublicHandler_RSVPPurgesLowercasePath(t *testing.T) {
    lookup := &mockLookup{}
    purger := &mockPurger{}
    e := echo.New()
    e.POST(PublicInvitationPath+"/rsvp", NewPublicHandler(lookup, purger).RSVP)

    lookup.On("RSVP", "abc", service.RSVPInput{Status: "rejected"}).
        Return(service.PublicInvitation{Guest: model.PublicGuest{Name: "Ana", Status: model.StatusRejected}}, nil)
    purger.On("Purge", "/api/guests/by-url/abc").Return(nil)

    rec := do(e, http.MethodPost, "/api/guests/by-url/ABC/rsvp", `{"status":"rejected"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    lookup.AssertExpectations(t)
    purger.AssertExpectations(t)
}

func TestPublicHandler_ByURLRedirectsToLowercase(t *testing.T) {
    lookup := &mockLookup{}
    e := echo.New()
    e.GET(PublicInvitationPath, NewPublicHandler(lookup, nil).ByURL)

    rec := do(e, http.MethodGet, "/api/guests/by-url/ABC", "")
    assert.Equal(t, http.StatusMovedPermanently, rec.Code)
    assert.Equal(t, "/api/guests/by-url/abc", rec.Header().Get(echo.HeaderLocation))
    lookup.AssertNotCalled(t, "ByURL", mock.Anything)
}

func TestPublicHandler_ByURLNotFound(t *testing.T) {
    lookup := &mockLookup{}
    e := echo.New()
    e.GET(PublicInvitationPath, NewPublicHandler(lookup, nil).ByURL)
    lookup.On("ByURL", "nope").Return(service.PublicInvitation{}, &service.Error{Code: service.CodeGuestNotFound, Message: "Convidado não encontrado"})

    rec := do(e, http.MethodGet, "/api/guests/by-url/nope", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "Convidado não encontrado", decode(t, rec)["error"])
}

// ----- auth -----

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
    args := m.Called(email)
    return args.Get(0).(model.User), args.Error(1)
}
func (m *mockUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
    args := m.Called(id)
    return args.Get(0).(model.User), args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID uint64, hash string, exp time.Time) error {
    return m.Called(userID, hash).Error(0)
}
func (m *mockTokens) ValidateRefresh(ctx context.Context, hash string) (uint64, error) {
    args := m.Called(hash)
    return args.Get(0).(uint64), args.Error(1)
}
func (m *mockTokens) RevokeByHash(ctx context.Context, hash string) error {
    return m.Called(hash).Error(0)
}
func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
    return m.Called(userID).Error(0)
}

func testAuthConfig() config.Config {
    return config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
}

func adminUser(t *testing.T) model.User {
    hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
    require.NoError(t, err)
    return model.User{ID: 7, Email: "admin@ninho.test", PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}
}

func TestAuthHandler_Login(t *testing.T) {
    users, tokens := &mockUsers{}, &mockTokens{}
    h := NewAuthHandler(testAuthConfig(), users, tokens)
    e := echo.New()
    e.POST("/api/auth/login", h.Login)

    users.On("GetByEmail", "admin@ninho.test").Return(adminUser(t), nil)
    tokens.On("StoreRefresh", uint64(7), mock.AnythingOfType("string")).Return(nil)

    rec := do(e, http.MethodPost, "/api/auth/login", `{"email":" Admin@Ninho.test ","password":"correct horse"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    var resp authResp
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    claims, err := utils.ParseAccessToken("test-secret", resp.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, "7", claims.UserID)
    assert.Equal(t, model.RoleAdmin, claims.Role)
    assert.Len(t, resp.Refresh.Token, 96)
}

func TestAuthHandler_LoginRejectsBadCredentials(t *testing.T) {
    users, tokens := &mockUsers{}, &mockTokens{}
    e := echo.New()
    e.POST("/api/auth/login", NewAuthHandler(testAuthConfig(), users, tokens).Login)
    users.On("GetByEmail", "admin@ninho.test").Return(adminUser(t), nil)
    users.On("GetByEmail", "ghost@ninho.test").Return(model.User{}, sql.ErrNoRows)

    rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"admin@ninho.test","password":"wrong horse"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = do(e, http.MethodPost, "/api/auth/login", `{"email":"ghost@ninho.test","password":"whatever1"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = do(e, http.MethodPost, "/api/auth/login", `{"email":""}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything)
}

func TestAuthHandler_RefreshRotates(t *testing.T) {
    users, tokens := &mockUsers{}, &mockTokens{}
    e := echo.New()
    e.POST("/api/auth/refresh", NewAuthHandler(testAuthConfig(), users, tokens).Refresh)
    hash := utils.HashRefreshRaw("old-token")
    tokens.On("ValidateRefresh", hash).Return(uint64(7), nil)
    tokens.On("RevokeByHash", hash).Return(nil)
    tokens.On("StoreRefresh", uint64(7), mock.AnythingOfType("string")).Return(nil)
    users.On("GetByID", uint64(7)).Return(adminUser(t), nil)

    rec := do(e, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"old-token"}`)
    assert.Equal(t, http.StatusOK, rec.Code)
    tokens.AssertExpectations(t)
}

func TestAuthHandler_LogoutAllWithBearer(t *testing.T) {
    users, tokens := &mockUsers{}, &mockTokens{}
    e := echo.New()
    e.POST("/api/auth/logout", NewAuthHandler(testAuthConfig(), users, tokens).Logout)
    tokens.On("RevokeAllForUser", uint64(7)).Return(nil)

    access, err := utils.NewAccessToken("test-secret", 7, model.RoleAdmin, 5)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
    req.Header.Set("Authorization", "Bearer "+access.Token)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    assert.Equal(t, http.StatusNoContent, rec.Code)
    tokens.AssertExpectations(t)

    rec = do(e, http.MethodPost, "/api/auth/logout", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_MeBehindJWT(t *testing.T) {
    users := &mockUsers{}
    cfg := testAuthConfig()
    e := echo.New()
    g := e.Group("/api/auth", middleware.JWTAuth(cfg.JWTSecret))
    g.GET("/me", NewAuthHandler(cfg, users, &mockTokens{}).Me)
    users.On("GetByID", uint64(7)).Return(adminUser(t), nil)

    rec := do(e, http.MethodGet, "/api/auth/me", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    access, err := utils.NewAccessToken(cfg.JWTSecret, 7, model.RoleAdmin, 5)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
    req.Header.Set("Authorization", "Bearer "+access.Token)
    rec2 := httptest.NewRecorder()
    e.ServeHTTP(rec2, req)
    require.Equal(t, http.StatusOK, rec2.Code)
    assert.Equal(t, "admin@ninho.test", decode(t, rec2)["email"])
}

// ----- health -----

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Ready(t *testing.T) {
    e := echo.New()
    up := &HealthHandler{DB: pingFunc(func(context.Context) error { return nil })}
    e.GET("/ready", up.Ready)
    rec := do(e, http.MethodGet, "/ready", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "disabled", decode(t, rec)["redis"])

    down := &HealthHandler{
        DB:        pingFunc(func(context.Context) error { return errors.New("no db") }),
        RedisPing: func(context.Context) error { return nil },
    }
    e2 := echo.New()
    e2.GET("/ready", down.Ready)
    rec = do(e2, http.MethodGet, "/ready", "")
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.Equal(t, "ok", decode(t, rec)["redis"])
}

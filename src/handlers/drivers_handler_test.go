// backend/src/handlers/drivers_handler_test.go
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/fleetfolio/backend/src/database"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/services"
	_ "modernc.org/sqlite"
)

const usersSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'driver' CHECK (role IN ('admin', 'driver')),
    uber_id TEXT,
    bolt_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// useTestDB points the package-level connection at an in-memory database for
// the duration of one test.
func useTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(usersSchema)
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
	return db
}

// fakeEarningsService returns a canned report for a single known driver.
type fakeEarningsService struct {
	report      *services.DriverEarningsReport
	invalidated int
}

func (f *fakeEarningsService) GetDriverEarnings(driverID int64, dateFrom, dateTo string) (*services.DriverEarningsReport, error) {
	if f.report == nil || f.report.DriverID != driverID {
		return nil, services.ErrDriverNotFound
	}
	r := *f.report
	r.DateFrom = dateFrom
	r.DateTo = dateTo
	return &r, nil
}

func (f *fakeEarningsService) InvalidateReports() {
	f.invalidated++
}

func TestHandleCreateDriver(t *testing.T) {
	useTestDB(t)
	handler := NewDriverHandler(&fakeEarningsService{})

	body := `{"username":"jan","password":"driverpass1","bolt_id":"bolt-1","uber_id":"uuid-9"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/drivers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleCreateDriver(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "jan", created.Username)
	assert.Equal(t, model.RoleDriver, created.Role)
	assert.Equal(t, "bolt-1", created.BoltID)
	assert.NotContains(t, rec.Body.String(), "password")

	stored, err := model.GetUserByUsername(database.DB, "jan")
	require.NoError(t, err)
	assert.NoError(t, stored.CheckPassword("driverpass1"))
}

func TestHandleCreateDriverDuplicate(t *testing.T) {
	db := useTestDB(t)
	existing := &model.User{Username: "jan", Password: "x"}
	require.NoError(t, existing.CreateUser(db))

	handler := NewDriverHandler(&fakeEarningsService{})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/drivers", strings.NewReader(`{"username":"jan","password":"pw"}`))
	rec := httptest.NewRecorder()
	handler.HandleCreateDriver(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCreateDriverValidation(t *testing.T) {
	useTestDB(t)
	handler := NewDriverHandler(&fakeEarningsService{})

	for _, body := range []string{
		`{"username":"","password":"pw"}`,
		`{"username":"jan","password":""}`,
		`{"username":"<script>x</script>","password":"pw"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/drivers", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.HandleCreateDriver(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestHandleListDrivers(t *testing.T) {
	db := useTestDB(t)
	for _, name := range []string{"zofia", "adam"} {
		u := &model.User{Username: name, Password: "x"}
		require.NoError(t, u.CreateUser(db))
	}

	handler := NewDriverHandler(&fakeEarningsService{})
	rec := httptest.NewRecorder()
	handler.HandleListDrivers(rec, httptest.NewRequest(http.MethodGet, "/api/admin/drivers", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Drivers []model.User `json:"drivers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Drivers, 2)
	assert.Equal(t, "adam", payload.Drivers[0].Username)
}

func TestHandleDriverEarnings(t *testing.T) {
	svc := &fakeEarningsService{report: &services.DriverEarningsReport{DriverID: 7, Username: "jan"}}
	handler := NewDriverHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/drivers/7/earnings?date_from=2024-03-01&date_to=2024-03-31", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("driverID", "7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	handler.HandleDriverEarnings(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report services.DriverEarningsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, int64(7), report.DriverID)
	assert.Equal(t, "2024-03-01", report.DateFrom)
	assert.Equal(t, "2024-03-31", report.DateTo)
}

func TestHandleDriverEarningsConditionalGet(t *testing.T) {
	svc := &fakeEarningsService{report: &services.DriverEarningsReport{DriverID: 7, Username: "jan"}}
	handler := NewDriverHandler(svc)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/drivers/7/earnings", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("driverID", "7")
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}

	rec := httptest.NewRecorder()
	handler.HandleDriverEarnings(rec, newReq())
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := newReq()
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.HandleDriverEarnings(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))
}

func TestHandleDriverEarningsNotFound(t *testing.T) {
	handler := NewDriverHandler(&fakeEarningsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/drivers/99/earnings", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("driverID", "99")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	handler.HandleDriverEarnings(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleOwnDashboard(t *testing.T) {
	svc := &fakeEarningsService{report: &services.DriverEarningsReport{DriverID: 7, Username: "jan"}}
	handler := NewDriverHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/driver/dashboard", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDContextKey, int64(7)))

	rec := httptest.NewRecorder()
	handler.HandleOwnDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report services.DriverEarningsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "jan", report.Username)
}

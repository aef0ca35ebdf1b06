// backend/src/services/services_test.go
package services

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/models"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const testSchema = `
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
CREATE TABLE bolt_earnings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    platform_id TEXT NOT NULL,
    report_date TEXT NOT NULL,
    gross_total REAL NOT NULL DEFAULT 0,
    expenses_total REAL NOT NULL DEFAULT 0,
    net_income REAL NOT NULL DEFAULT 0,
    cash_collected REAL NOT NULL DEFAULT 0,
    vat_due REAL NOT NULL DEFAULT 0,
    actual_income REAL NOT NULL DEFAULT 0,
    UNIQUE (user_id, report_date)
);
CREATE TABLE uber_earnings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    platform_id TEXT NOT NULL,
    report_date TEXT NOT NULL,
    gross_total REAL NOT NULL DEFAULT 0,
    expenses_total REAL NOT NULL DEFAULT 0,
    net_income REAL NOT NULL DEFAULT 0,
    cash_collected REAL NOT NULL DEFAULT 0,
    vat_due REAL NOT NULL DEFAULT 0,
    actual_income REAL NOT NULL DEFAULT 0,
    UNIQUE (user_id, report_date)
);
CREATE TABLE expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    document_number TEXT NOT NULL,
    description TEXT,
    issue_date TEXT NOT NULL,
    net_amount REAL NOT NULL DEFAULT 0,
    vat_amount REAL NOT NULL DEFAULT 0,
    vat_deductible REAL NOT NULL DEFAULT 0,
    deductible_amount REAL NOT NULL DEFAULT 0,
    image_filename TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func newTestDriver(t *testing.T, db *sql.DB, username, boltID, uberID string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Password: "x", Role: model.RoleDriver, BoltID: boltID, UberID: uberID}
	require.NoError(t, u.CreateUser(db))
	return u
}

const boltCSV = "Kierowca,Identyfikator kierowcy,Zarobki brutto (ogółem)|ZŁ,Opłaty ogółem|ZŁ,Zarobki netto|ZŁ,Pobrana gotówka|ZŁ,Zarobki brutto (płatności w aplikacji)|ZŁ,Zarobki brutto (płatności gotówkowe)|ZŁ\n" +
	"Jan Kowalski,bolt-1,1200,200,1000,300,1000,200\n"

func TestProcessUploadEndToEnd(t *testing.T) {
	db := newTestDB(t)
	driver := newTestDriver(t, db, "jan", "bolt-1", "")

	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	earningsService := NewEarningsService(db, reportCache)
	uploadService := NewUploadService(db, earningsService)

	result, err := uploadService.ProcessUpload(strings.NewReader(boltCSV), 1, "zarobki_15_03_2024.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, "bolt", result.Platform)

	entry, err := models.FindEarningsEntry(db, models.TableBoltEarnings, driver.ID, "2024-03-15")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.InDelta(t, 1000, entry.NetIncome, 1e-9)

	again, err := uploadService.ProcessUpload(strings.NewReader(boltCSV), 1, "zarobki_15_03_2024.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 1, again.Updated)
}

func TestProcessUploadUnknownPlatform(t *testing.T) {
	db := newTestDB(t)
	uploadService := NewUploadService(db, nil)

	_, err := uploadService.ProcessUpload(strings.NewReader("a,b\n1,2\n"), 1, "mystery.csv")
	assert.ErrorIs(t, err, ErrPlatformUnknown)
}

func TestProcessUploadParseFailure(t *testing.T) {
	db := newTestDB(t)
	uploadService := NewUploadService(db, nil)

	_, err := uploadService.ProcessUpload(strings.NewReader("only-one-header\nrow\n"), 1, "zarobki_15_03_2024.csv")
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestGetDriverEarnings(t *testing.T) {
	db := newTestDB(t)
	driver := newTestDriver(t, db, "jan", "bolt-1", "uuid-9")

	require.NoError(t, models.InsertEarningsEntry(db, models.TableBoltEarnings, &models.EarningsEntry{
		UserID: driver.ID, PlatformID: "bolt-1", ReportDate: "2024-03-15",
		GrossTotal: 1200, NetIncome: 1000, VATDue: 50, ActualIncome: 950,
	}))
	expense := &models.Expense{UserID: driver.ID, DocumentNumber: "FV/1", IssueDate: "2024-03-10", NetAmount: 400, VATAmount: 92}
	expense.ApplyDeductionRules()
	require.NoError(t, models.InsertExpense(db, expense))

	svc := NewEarningsService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval))

	report, err := svc.GetDriverEarnings(driver.ID, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, "jan", report.Username)
	require.Len(t, report.BoltEarnings, 1)
	assert.Empty(t, report.UberEarnings)
	require.Len(t, report.Expenses, 1)
	assert.InDelta(t, 950, report.BoltTotals.Actual, 1e-9)
	assert.InDelta(t, 46, report.ExpenseTotals.VATDeductible, 1e-9)
}

func TestGetDriverEarningsRoundsTotals(t *testing.T) {
	db := newTestDB(t)
	driver := newTestDriver(t, db, "jan", "bolt-1", "")

	// 0.1 + 0.2 accumulates to 0.30000000000000004 without rounding.
	for i, gross := range []float64{0.1, 0.2} {
		require.NoError(t, models.InsertEarningsEntry(db, models.TableBoltEarnings, &models.EarningsEntry{
			UserID: driver.ID, PlatformID: "bolt-1",
			ReportDate: fmt.Sprintf("2024-03-%02d", i+1),
			GrossTotal: gross, VATDue: gross, ActualIncome: gross,
		}))
	}

	svc := NewEarningsService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
	report, err := svc.GetDriverEarnings(driver.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, 0.3, report.BoltTotals.Gross)
	assert.Equal(t, 0.3, report.BoltTotals.VAT)
	assert.Equal(t, 0.3, report.BoltTotals.Actual)
}

func TestGetDriverEarningsCaches(t *testing.T) {
	db := newTestDB(t)
	driver := newTestDriver(t, db, "jan", "bolt-1", "")

	svc := NewEarningsService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval))

	before, err := svc.GetDriverEarnings(driver.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, before.BoltEarnings)

	require.NoError(t, models.InsertEarningsEntry(db, models.TableBoltEarnings, &models.EarningsEntry{
		UserID: driver.ID, PlatformID: "bolt-1", ReportDate: "2024-03-15",
	}))

	cached, err := svc.GetDriverEarnings(driver.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, cached.BoltEarnings)

	svc.InvalidateReports()
	fresh, err := svc.GetDriverEarnings(driver.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, fresh.BoltEarnings, 1)
}

func TestGetDriverEarningsRejectsNonDrivers(t *testing.T) {
	db := newTestDB(t)
	admin := &model.User{Username: "boss", Password: "x", Role: model.RoleAdmin}
	require.NoError(t, admin.CreateUser(db))

	svc := NewEarningsService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval))

	_, err := svc.GetDriverEarnings(admin.ID, "", "")
	assert.ErrorIs(t, err, ErrDriverNotFound)

	_, err = svc.GetDriverEarnings(9999, "", "")
	assert.ErrorIs(t, err, ErrDriverNotFound)
}

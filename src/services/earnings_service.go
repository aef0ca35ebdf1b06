// backend/src/services/earnings_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/models"
	"github.com/username/fleetfolio/backend/src/utils"
)

const (
	ckDriverEarnings       = "agg_driver_earnings_%d_%s_%s"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type earningsServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
}

func NewEarningsService(db *sql.DB, reportCache *cache.Cache) EarningsService {
	return &earningsServiceImpl{
		db:          db,
		reportCache: reportCache,
	}
}

// GetDriverEarnings builds the combined earnings report for one driver and an
// optional inclusive date range (YYYY-MM-DD strings, empty bound means open).
func (s *earningsServiceImpl) GetDriverEarnings(driverID int64, dateFrom, dateTo string) (*DriverEarningsReport, error) {
	cacheKey := fmt.Sprintf(ckDriverEarnings, driverID, dateFrom, dateTo)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*DriverEarningsReport), nil
	}

	driver, err := model.GetUserByID(s.db, driverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("load driver %d: %w", driverID, err)
	}
	if driver.Role != model.RoleDriver {
		return nil, ErrDriverNotFound
	}

	boltEarnings, err := models.ListEarningsEntries(s.db, models.TableBoltEarnings, driverID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("list bolt earnings: %w", err)
	}
	uberEarnings, err := models.ListEarningsEntries(s.db, models.TableUberEarnings, driverID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("list uber earnings: %w", err)
	}
	expenses, err := models.ListExpenses(s.db, driverID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	if boltEarnings == nil {
		boltEarnings = []models.EarningsEntry{}
	}
	if uberEarnings == nil {
		uberEarnings = []models.EarningsEntry{}
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	report := &DriverEarningsReport{
		DriverID:      driver.ID,
		Username:      driver.Username,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		BoltEarnings:  boltEarnings,
		UberEarnings:  uberEarnings,
		Expenses:      expenses,
		BoltTotals:    roundEarningsTotals(models.SumEarnings(boltEarnings)),
		UberTotals:    roundEarningsTotals(models.SumEarnings(uberEarnings)),
		ExpenseTotals: roundExpenseTotals(models.SumExpenses(expenses)),
	}

	s.reportCache.Set(cacheKey, report, cache.DefaultExpiration)
	return report, nil
}

// Summed amounts accumulate float noise over long ranges; totals are
// presented to two decimal places, the per-row amounts stay exact.
func roundEarningsTotals(t models.EarningsTotals) models.EarningsTotals {
	t.Gross = utils.RoundFloat(t.Gross, 2)
	t.Cash = utils.RoundFloat(t.Cash, 2)
	t.VAT = utils.RoundFloat(t.VAT, 2)
	t.Actual = utils.RoundFloat(t.Actual, 2)
	return t
}

func roundExpenseTotals(t models.ExpenseTotals) models.ExpenseTotals {
	t.Net = utils.RoundFloat(t.Net, 2)
	t.VAT = utils.RoundFloat(t.VAT, 2)
	t.VATDeductible = utils.RoundFloat(t.VATDeductible, 2)
	t.Deductible = utils.RoundFloat(t.Deductible, 2)
	return t
}

// InvalidateReports drops all cached earnings reports. A CSV import can touch
// any number of drivers and date ranges, so the whole report cache goes.
func (s *earningsServiceImpl) InvalidateReports() {
	s.reportCache.Flush()
	logger.L.Debug("Earnings report cache flushed")
}

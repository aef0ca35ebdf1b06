// backend/src/processors/processor.go
package processors

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/models"
)

// LedgerStore is everything the CSV processor needs from persistence. Driver
// lookups return (nil, nil) when no account matches; errors are reserved for
// actual storage failures, which abort the import.
type LedgerStore interface {
	FindDriverByPlatformID(column, value string) (*model.User, error)
	FindDriverByUsername(username string) (*model.User, error)
	FindEntry(table string, userID int64, reportDate string) (*models.EarningsEntry, error)
	InsertEntry(table string, e *models.EarningsEntry) error
	UpdateEntry(table string, e *models.EarningsEntry) error
}

// ImportResult is the summary of one processed file.
type ImportResult struct {
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Platform string `json:"platform"`
}

// platformStrategy carries the per-platform behavior chosen once at the
// start of Process: how a row is matched to a driver account and how a
// ledger entry is computed from it.
type platformStrategy interface {
	resolveDriver(store LedgerStore, row CanonicalRow) (*model.User, error)
	buildEntry(user *model.User, row CanonicalRow) *models.EarningsEntry
}

// CSVProcessor turns one uploaded platform export into ledger upserts.
type CSVProcessor struct {
	file     io.Reader
	filename string
	store    LedgerStore

	platform string
	config   *PlatformConfig
	strategy platformStrategy
}

// NewCSVProcessor detects the platform from the filename and prepares the
// matching config and strategy. An unrecognizable filename is rejected here,
// before anything is read or written.
func NewCSVProcessor(file io.Reader, filename string, store LedgerStore) (*CSVProcessor, error) {
	platform, err := DetectPlatform(filename)
	if err != nil {
		return nil, err
	}
	config, err := ConfigFor(platform)
	if err != nil {
		return nil, err
	}

	var strategy platformStrategy
	switch platform {
	case PlatformBolt:
		strategy = boltStrategy{config: config}
	case PlatformUber:
		strategy = uberStrategy{config: config}
	}

	return &CSVProcessor{
		file:     file,
		filename: filename,
		store:    store,
		platform: platform,
		config:   config,
		strategy: strategy,
	}, nil
}

// Platform reports the detected platform tag.
func (p *CSVProcessor) Platform() string {
	return p.platform
}

// Process runs the whole pipeline: load, map, resolve, calculate, upsert.
// Parse failures abort the file before any database mutation. Once rows are
// parsed, each one is independent: a row that matches no driver is counted
// as skipped and otherwise dropped. Re-importing the same file is
// idempotent — existing (driver, date) entries are overwritten, not
// duplicated.
func (p *CSVProcessor) Process() (*ImportResult, error) {
	table, err := LoadTable(p.file)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", p.filename, err)
	}

	rows := MapColumns(table, p.config)
	reportDate := ExtractReportDate(p.filename).Format("2006-01-02")

	result := &ImportResult{Platform: p.platform}
	for _, row := range rows {
		row.ReportDate = reportDate

		user, err := p.strategy.resolveDriver(p.store, row)
		if err != nil {
			return nil, fmt.Errorf("driver lookup: %w", err)
		}
		if user == nil {
			result.Skipped++
			continue
		}

		existing, err := p.store.FindEntry(p.config.Table, user.ID, reportDate)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup: %w", err)
		}

		entry := p.strategy.buildEntry(user, row)
		if existing == nil {
			if err := p.store.InsertEntry(p.config.Table, entry); err != nil {
				return nil, fmt.Errorf("ledger insert: %w", err)
			}
			result.Created++
		} else {
			entry.ID = existing.ID
			if err := p.store.UpdateEntry(p.config.Table, entry); err != nil {
				return nil, fmt.Errorf("ledger update: %w", err)
			}
			result.Updated++
		}
	}

	logger.L.Info("CSV import finished",
		"filename", p.filename,
		"platform", p.platform,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
	)
	return result, nil
}

// hasPlatformID filters out blank IDs and the "nan" placeholder some exports
// carry in place of a missing identifier.
func hasPlatformID(row CanonicalRow) bool {
	return row.PlatformID != "" && !strings.EqualFold(row.PlatformID, "nan")
}

type boltStrategy struct {
	config *PlatformConfig
}

func (s boltStrategy) resolveDriver(store LedgerStore, row CanonicalRow) (*model.User, error) {
	if hasPlatformID(row) {
		user, err := store.FindDriverByPlatformID(s.config.LookupColumn, row.PlatformID)
		if err != nil || user != nil {
			return user, err
		}
	}
	// Older Bolt exports omit the driver identifier; fall back to the
	// driver's display name, which doubles as the account username.
	if row.DriverName != "" {
		return store.FindDriverByUsername(row.DriverName)
	}
	return nil, nil
}

func (s boltStrategy) buildEntry(user *model.User, row CanonicalRow) *models.EarningsEntry {
	vatDue := CalculateBoltVAT(row)
	netIncome := row.Val(FieldNetIncome)

	return &models.EarningsEntry{
		UserID:        user.ID,
		PlatformID:    user.BoltID,
		ReportDate:    row.ReportDate,
		GrossTotal:    row.Val(FieldGrossTotal),
		ExpensesTotal: row.Val(FieldExpensesTotal),
		NetIncome:     netIncome,
		CashCollected: row.Val(FieldCashCollected),
		VATDue:        vatDue,
		ActualIncome:  netIncome - vatDue,
	}
}

type uberStrategy struct {
	config *PlatformConfig
}

func (s uberStrategy) resolveDriver(store LedgerStore, row CanonicalRow) (*model.User, error) {
	if hasPlatformID(row) {
		user, err := store.FindDriverByPlatformID(s.config.LookupColumn, row.PlatformID)
		if err != nil || user != nil {
			return user, err
		}
	}
	fullName := strings.TrimSpace(row.FirstName + " " + row.LastName)
	if fullName != "" {
		return store.FindDriverByUsername(fullName)
	}
	return nil, nil
}

func (s uberStrategy) buildEntry(user *model.User, row CanonicalRow) *models.EarningsEntry {
	vatDue := CalculateUberVAT(row)
	netIncome := row.Val(FieldGrossNetIncome)

	return &models.EarningsEntry{
		UserID:        user.ID,
		PlatformID:    user.UberID,
		ReportDate:    row.ReportDate,
		GrossTotal:    netIncome,
		ExpensesTotal: UberExpensesTotal(row),
		NetIncome:     netIncome,
		CashCollected: UberCashCollected(row),
		VATDue:        vatDue,
		ActualIncome:  netIncome - vatDue,
	}
}

// backend/src/models/earnings.go
package models

import (
	"database/sql"
	"errors"
	"fmt"
)

// Ledger table names, one per platform. The platform config in the processors
// package selects one of these; everything below validates against the set.
const (
	TableBoltEarnings = "bolt_earnings"
	TableUberEarnings = "uber_earnings"
)

var earningsTables = map[string]bool{
	TableBoltEarnings: true,
	TableUberEarnings: true,
}

// EarningsEntry is one per-driver, per-day ledger row in a platform's
// earnings table. (user_id, report_date) is unique within a table; the CSV
// importer upserts on that key.
type EarningsEntry struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	PlatformID    string  `json:"platform_id"`
	ReportDate    string  `json:"report_date"` // YYYY-MM-DD
	GrossTotal    float64 `json:"gross_total"`
	ExpensesTotal float64 `json:"expenses_total"`
	NetIncome     float64 `json:"net_income"`
	CashCollected float64 `json:"cash_collected"`
	VATDue        float64 `json:"vat_due"`
	ActualIncome  float64 `json:"actual_income"`
}

func checkEarningsTable(table string) error {
	if !earningsTables[table] {
		return fmt.Errorf("unknown earnings table: %s", table)
	}
	return nil
}

// FindEarningsEntry returns the ledger entry for (user, date) in the given
// table, or (nil, nil) when no entry exists yet.
func FindEarningsEntry(db *sql.DB, table string, userID int64, reportDate string) (*EarningsEntry, error) {
	if err := checkEarningsTable(table); err != nil {
		return nil, err
	}
	query := `
	SELECT id, user_id, platform_id, report_date, gross_total, expenses_total, net_income, cash_collected, vat_due, actual_income
	FROM ` + table + ` WHERE user_id = ? AND report_date = ?`

	var e EarningsEntry
	err := db.QueryRow(query, userID, reportDate).Scan(
		&e.ID, &e.UserID, &e.PlatformID, &e.ReportDate,
		&e.GrossTotal, &e.ExpensesTotal, &e.NetIncome, &e.CashCollected,
		&e.VATDue, &e.ActualIncome,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func InsertEarningsEntry(db *sql.DB, table string, e *EarningsEntry) error {
	if err := checkEarningsTable(table); err != nil {
		return err
	}
	query := `
	INSERT INTO ` + table + ` (user_id, platform_id, report_date, gross_total, expenses_total, net_income, cash_collected, vat_due, actual_income)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.Exec(query,
		e.UserID, e.PlatformID, e.ReportDate,
		e.GrossTotal, e.ExpensesTotal, e.NetIncome, e.CashCollected,
		e.VATDue, e.ActualIncome,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// UpdateEarningsEntry overwrites all data fields of an existing entry. The
// key columns (user_id, report_date) are never changed.
func UpdateEarningsEntry(db *sql.DB, table string, e *EarningsEntry) error {
	if err := checkEarningsTable(table); err != nil {
		return err
	}
	query := `
	UPDATE ` + table + `
	SET platform_id = ?, gross_total = ?, expenses_total = ?, net_income = ?, cash_collected = ?, vat_due = ?, actual_income = ?
	WHERE id = ?`
	_, err := db.Exec(query,
		e.PlatformID,
		e.GrossTotal, e.ExpensesTotal, e.NetIncome, e.CashCollected,
		e.VATDue, e.ActualIncome,
		e.ID,
	)
	return err
}

// ListEarningsEntries returns a driver's entries in a date range (inclusive,
// YYYY-MM-DD strings; empty bound means open), newest first. Dates are stored
// as ISO strings so lexicographic comparison is chronological.
func ListEarningsEntries(db *sql.DB, table string, userID int64, dateFrom, dateTo string) ([]EarningsEntry, error) {
	if err := checkEarningsTable(table); err != nil {
		return nil, err
	}
	query := `
	SELECT id, user_id, platform_id, report_date, gross_total, expenses_total, net_income, cash_collected, vat_due, actual_income
	FROM ` + table + ` WHERE user_id = ?`
	args := []interface{}{userID}
	if dateFrom != "" {
		query += ` AND report_date >= ?`
		args = append(args, dateFrom)
	}
	if dateTo != "" {
		query += ` AND report_date <= ?`
		args = append(args, dateTo)
	}
	query += ` ORDER BY report_date DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []EarningsEntry
	for rows.Next() {
		var e EarningsEntry
		err := rows.Scan(
			&e.ID, &e.UserID, &e.PlatformID, &e.ReportDate,
			&e.GrossTotal, &e.ExpensesTotal, &e.NetIncome, &e.CashCollected,
			&e.VATDue, &e.ActualIncome,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// EarningsTotals aggregates a slice of ledger entries for the summary views.
type EarningsTotals struct {
	Gross  float64 `json:"gross"`
	Cash   float64 `json:"cash"`
	VAT    float64 `json:"vat"`
	Actual float64 `json:"actual"`
}

func SumEarnings(entries []EarningsEntry) EarningsTotals {
	var t EarningsTotals
	for _, e := range entries {
		t.Gross += e.GrossTotal
		t.Cash += e.CashCollected
		t.VAT += e.VATDue
		t.Actual += e.ActualIncome
	}
	return t
}

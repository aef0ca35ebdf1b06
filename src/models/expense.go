// backend/src/models/expense.go
package models

import (
	"database/sql"
	"time"
)

// Expense is a manually recorded cost invoice for a driver. The deductible
// portions follow the Polish rules for mixed-use vehicle costs: 50% of the
// VAT and 75% of the net amount.
type Expense struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	DocumentNumber   string    `json:"document_number"`
	Description      string    `json:"description"`
	IssueDate        string    `json:"issue_date"` // YYYY-MM-DD
	NetAmount        float64   `json:"net_amount"`
	VATAmount        float64   `json:"vat_amount"`
	VATDeductible    float64   `json:"vat_deductible"`
	DeductibleAmount float64   `json:"deductible_amount"`
	ImageFilename    string    `json:"image_filename,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// GrossAmount is the invoice total including VAT.
func (e *Expense) GrossAmount() float64 {
	return e.NetAmount + e.VATAmount
}

// ApplyDeductionRules fills the derived deductible fields from the entered
// net and VAT amounts.
func (e *Expense) ApplyDeductionRules() {
	e.VATDeductible = e.VATAmount / 2
	e.DeductibleAmount = e.NetAmount * 0.75
}

func InsertExpense(db *sql.DB, e *Expense) error {
	e.CreatedAt = time.Now()
	query := `
	INSERT INTO expenses (user_id, document_number, description, issue_date, net_amount, vat_amount, vat_deductible, deductible_amount, image_filename, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.Exec(query,
		e.UserID, e.DocumentNumber, e.Description, e.IssueDate,
		e.NetAmount, e.VATAmount, e.VATDeductible, e.DeductibleAmount,
		nullableString(e.ImageFilename), e.CreatedAt,
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

// ListExpenses returns a driver's cost invoices in a date range (inclusive,
// empty bound means open), newest first.
func ListExpenses(db *sql.DB, userID int64, dateFrom, dateTo string) ([]Expense, error) {
	query := `
	SELECT id, user_id, document_number, description, issue_date, net_amount, vat_amount, vat_deductible, deductible_amount, image_filename, created_at
	FROM expenses WHERE user_id = ?`
	args := []interface{}{userID}
	if dateFrom != "" {
		query += ` AND issue_date >= ?`
		args = append(args, dateFrom)
	}
	if dateTo != "" {
		query += ` AND issue_date <= ?`
		args = append(args, dateTo)
	}
	query += ` ORDER BY issue_date DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		var description, imageFilename sql.NullString
		err := rows.Scan(
			&e.ID, &e.UserID, &e.DocumentNumber, &description, &e.IssueDate,
			&e.NetAmount, &e.VATAmount, &e.VATDeductible, &e.DeductibleAmount,
			&imageFilename, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.Description = description.String
		e.ImageFilename = imageFilename.String
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ExpenseTotals aggregates invoices for the VAT-deduction summary.
type ExpenseTotals struct {
	Net           float64 `json:"net"`
	VAT           float64 `json:"vat"`
	VATDeductible float64 `json:"vat_deductible"`
	Deductible    float64 `json:"deductible"`
}

func SumExpenses(expenses []Expense) ExpenseTotals {
	var t ExpenseTotals
	for _, e := range expenses {
		t.Net += e.NetAmount
		t.VAT += e.VATAmount
		t.VATDeductible += e.VATDeductible
		t.Deductible += e.DeductibleAmount
	}
	return t
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

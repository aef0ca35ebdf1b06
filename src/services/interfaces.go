// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/username/fleetfolio/backend/src/models"
	"github.com/username/fleetfolio/backend/src/processors"
)

// Define common service errors
var (
	ErrPlatformUnknown = errors.New("unrecognized platform")
	ErrParsingFailed   = errors.New("csv parsing failed")
	ErrDriverExists    = errors.New("driver username already taken")
	ErrDriverNotFound  = errors.New("driver not found")
)

// UploadService defines the interface for the core CSV import logic.
type UploadService interface {
	ProcessUpload(fileReader io.Reader, adminID int64, filename string) (*processors.ImportResult, error)
}

// DriverEarningsReport is the combined earnings view for one driver and date
// range: both platforms' ledger entries, the cost invoices, and the totals
// the admin and driver dashboards display.
type DriverEarningsReport struct {
	DriverID      int64                  `json:"driver_id"`
	Username      string                 `json:"username"`
	DateFrom      string                 `json:"date_from,omitempty"`
	DateTo        string                 `json:"date_to,omitempty"`
	BoltEarnings  []models.EarningsEntry `json:"bolt_earnings"`
	UberEarnings  []models.EarningsEntry `json:"uber_earnings"`
	Expenses      []models.Expense       `json:"expenses"`
	BoltTotals    models.EarningsTotals  `json:"bolt_totals"`
	UberTotals    models.EarningsTotals  `json:"uber_totals"`
	ExpenseTotals models.ExpenseTotals   `json:"expense_totals"`
}

// EarningsService defines the interface for earnings reporting.
type EarningsService interface {
	GetDriverEarnings(driverID int64, dateFrom, dateTo string) (*DriverEarningsReport, error)
	InvalidateReports()
}

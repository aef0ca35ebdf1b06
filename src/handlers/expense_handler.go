// backend/src/handlers/expense_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/username/fleetfolio/backend/src/database"
	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/models"
	"github.com/username/fleetfolio/backend/src/security/validation"
	"github.com/username/fleetfolio/backend/src/services"
)

// ExpenseHandler records manually entered cost invoices.
type ExpenseHandler struct {
	earningsService services.EarningsService
}

func NewExpenseHandler(earningsService services.EarningsService) *ExpenseHandler {
	return &ExpenseHandler{earningsService: earningsService}
}

// HandleCreateExpense stores a cost invoice for a driver. The deductible
// portions (50% of VAT, 75% of net) are derived server-side.
func (h *ExpenseHandler) HandleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var payload struct {
		DriverID       int64   `json:"driver_id"`
		DocumentNumber string  `json:"document_number"`
		Description    string  `json:"description"`
		IssueDate      string  `json:"issue_date"`
		NetAmount      float64 `json:"net_amount"`
		VATAmount      float64 `json:"vat_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.DocumentNumber = validation.SanitizeForFormulaInjection(validation.SanitizeText(validation.StripUnprintable(strings.TrimSpace(payload.DocumentNumber))))
	payload.Description = validation.SanitizeText(validation.StripUnprintable(strings.TrimSpace(payload.Description)))

	if payload.DriverID == 0 || payload.DocumentNumber == "" {
		sendJSONError(w, "driver_id and document_number are required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", payload.IssueDate); err != nil {
		sendJSONError(w, "issue_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	driver, err := model.GetUserByID(database.DB, payload.DriverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Driver not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Driver lookup failed", "driverID", payload.DriverID, "error", err)
		sendJSONError(w, "Failed to record expense", http.StatusInternalServerError)
		return
	}
	if driver.Role != model.RoleDriver {
		sendJSONError(w, "Driver not found", http.StatusNotFound)
		return
	}

	expense := &models.Expense{
		UserID:         payload.DriverID,
		DocumentNumber: payload.DocumentNumber,
		Description:    payload.Description,
		IssueDate:      payload.IssueDate,
		NetAmount:      payload.NetAmount,
		VATAmount:      payload.VATAmount,
	}
	expense.ApplyDeductionRules()

	if err := models.InsertExpense(database.DB, expense); err != nil {
		ctxLogger.Error("Expense insert failed", "driverID", payload.DriverID, "error", err)
		sendJSONError(w, "Failed to record expense", http.StatusInternalServerError)
		return
	}

	h.earningsService.InvalidateReports()
	ctxLogger.Info("Expense recorded", "expenseID", expense.ID, "driverID", expense.UserID, "document", expense.DocumentNumber)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(expense)
}

// backend/src/handlers/drivers_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/fleetfolio/backend/src/database"
	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/security/validation"
	"github.com/username/fleetfolio/backend/src/services"
	"github.com/username/fleetfolio/backend/src/utils"
)

// DriverHandler serves the admin's driver management screens and the
// driver's own dashboard.
type DriverHandler struct {
	earningsService services.EarningsService
}

func NewDriverHandler(earningsService services.EarningsService) *DriverHandler {
	return &DriverHandler{earningsService: earningsService}
}

// HandleListDrivers returns all driver accounts for the admin dashboard.
func (h *DriverHandler) HandleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := model.ListDrivers(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to list drivers", "error", err)
		sendJSONError(w, "Failed to list drivers", http.StatusInternalServerError)
		return
	}
	if drivers == nil {
		drivers = []model.User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"drivers": drivers})
}

// HandleCreateDriver creates a driver account with its platform identifiers.
func (h *DriverHandler) HandleCreateDriver(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		UberID   string `json:"uber_id"`
		BoltID   string `json:"bolt_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.Username = validation.SanitizeText(strings.TrimSpace(payload.Username))
	if payload.Username == "" || payload.Password == "" {
		sendJSONError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	if _, err := model.GetUserByUsername(database.DB, payload.Username); err == nil {
		sendJSONError(w, services.ErrDriverExists.Error(), http.StatusConflict)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		ctxLogger.Error("Driver duplicate check failed", "error", err)
		sendJSONError(w, "Failed to create driver", http.StatusInternalServerError)
		return
	}

	driver := &model.User{
		Username: payload.Username,
		Role:     model.RoleDriver,
		UberID:   strings.TrimSpace(payload.UberID),
		BoltID:   strings.TrimSpace(payload.BoltID),
	}
	if err := driver.HashPassword(payload.Password); err != nil {
		ctxLogger.Error("Password hashing failed", "error", err)
		sendJSONError(w, "Failed to create driver", http.StatusInternalServerError)
		return
	}
	if err := driver.CreateUser(database.DB); err != nil {
		ctxLogger.Error("Driver insert failed", "username", payload.Username, "error", err)
		sendJSONError(w, "Failed to create driver", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Driver account created", "driverID", driver.ID, "username", driver.Username)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(driver)
}

// HandleDriverEarnings returns one driver's earnings report for the admin
// view, optionally filtered by ?date_from and ?date_to (YYYY-MM-DD).
func (h *DriverHandler) HandleDriverEarnings(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		sendJSONError(w, "Invalid driver ID format", http.StatusBadRequest)
		return
	}
	h.writeEarningsReport(w, r, driverID)
}

// HandleOwnDashboard returns the earnings report for the authenticated
// driver, read-only.
func (h *DriverHandler) HandleOwnDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	h.writeEarningsReport(w, r, userID)
}

func (h *DriverHandler) writeEarningsReport(w http.ResponseWriter, r *http.Request, driverID int64) {
	dateFrom := r.URL.Query().Get("date_from")
	dateTo := r.URL.Query().Get("date_to")

	report, err := h.earningsService.GetDriverEarnings(driverID, dateFrom, dateTo)
	if err != nil {
		if errors.Is(err, services.ErrDriverNotFound) {
			sendJSONError(w, "Driver not found", http.StatusNotFound)
			return
		}
		logger.ErrorFromContext(r.Context(), "Failed to build earnings report", "driverID", driverID, "error", err)
		sendJSONError(w, "Failed to load earnings", http.StatusInternalServerError)
		return
	}

	// Reports are cached server-side; the ETag lets clients skip the body too.
	if etag, err := utils.GenerateETag(report); err == nil {
		quoted := `"` + etag + `"`
		w.Header().Set("ETag", quoted)
		if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

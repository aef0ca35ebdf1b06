// backend/src/services/upload_service.go
package services

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/models"
	"github.com/username/fleetfolio/backend/src/processors"
)

type uploadServiceImpl struct {
	db              *sql.DB
	earningsService EarningsService
}

// NewUploadService wires the CSV processor to the sqlite ledger store. The
// earnings service is notified after a successful import so cached reports
// do not serve stale totals.
func NewUploadService(db *sql.DB, earningsService EarningsService) UploadService {
	return &uploadServiceImpl{
		db:              db,
		earningsService: earningsService,
	}
}

func (s *uploadServiceImpl) ProcessUpload(fileReader io.Reader, adminID int64, filename string) (*processors.ImportResult, error) {
	store := models.NewSQLStore(s.db)

	processor, err := processors.NewCSVProcessor(fileReader, filename, store)
	if err != nil {
		logger.L.Warn("Upload rejected: platform detection failed", "adminID", adminID, "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPlatformUnknown, err)
	}

	logger.L.Info("Processing CSV import", "adminID", adminID, "filename", filename, "platform", processor.Platform())

	result, err := processor.Process()
	if err != nil {
		logger.L.Error("CSV import failed", "adminID", adminID, "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	if s.earningsService != nil {
		s.earningsService.InvalidateReports()
	}
	return result, nil
}

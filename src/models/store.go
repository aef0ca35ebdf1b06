// backend/src/models/store.go
package models

import (
	"database/sql"
	"errors"

	"github.com/username/fleetfolio/backend/src/model"
)

// SQLStore is the sqlite-backed ledger accessor handed to the CSV processor.
// Driver lookups return (nil, nil) when no account matches; the processor
// counts those rows as skipped rather than failing the import.
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) FindDriverByPlatformID(column, value string) (*model.User, error) {
	user, err := model.GetUserByPlatformID(s.DB, column, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *SQLStore) FindDriverByUsername(username string) (*model.User, error) {
	user, err := model.GetUserByUsername(s.DB, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *SQLStore) FindEntry(table string, userID int64, reportDate string) (*EarningsEntry, error) {
	return FindEarningsEntry(s.DB, table, userID, reportDate)
}

func (s *SQLStore) InsertEntry(table string, e *EarningsEntry) error {
	return InsertEarningsEntry(s.DB, table, e)
}

func (s *SQLStore) UpdateEntry(table string, e *EarningsEntry) error {
	return UpdateEarningsEntry(s.DB, table, e)
}

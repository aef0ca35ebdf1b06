package model

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

// User is an account in the back office. Drivers carry the external
// identifiers the CSV importer uses to attach earnings rows to them.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	UberID    string    `json:"uber_id,omitempty"`
	BoltID    string    `json:"bolt_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleDriver
	}

	query := `
	INSERT INTO users (username, password, role, uber_id, bolt_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		u.Username,
		u.Password,
		u.Role,
		nullIfEmpty(u.UberID),
		nullIfEmpty(u.BoltID),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

const userColumns = `id, username, password, role, uber_id, bolt_id, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var uberID, boltID sql.NullString

	err := row.Scan(
		&user.ID, &user.Username, &user.Password, &user.Role,
		&uberID, &boltID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	user.UberID = uberID.String
	user.BoltID = boltID.String
	return &user, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(db.QueryRow(query, id))
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(db.QueryRow(query, username))
}

// platformIDColumns whitelists the lookup columns a platform config may name.
var platformIDColumns = map[string]bool{
	"bolt_id": true,
	"uber_id": true,
}

// GetUserByPlatformID looks a user up by one of the external platform
// identifier columns (bolt_id or uber_id).
func GetUserByPlatformID(db *sql.DB, column, value string) (*User, error) {
	if !platformIDColumns[column] {
		return nil, fmt.Errorf("invalid platform id column: %s", column)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`
	return scanUser(db.QueryRow(query, value))
}

// ListDrivers returns all accounts with the driver role, ordered by username.
func ListDrivers(db *sql.DB) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY username`
	rows, err := db.Query(query, RoleDriver)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []User
	for rows.Next() {
		var user User
		var uberID, boltID sql.NullString
		err := rows.Scan(
			&user.ID, &user.Username, &user.Password, &user.Role,
			&uberID, &boltID,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		user.UberID = uberID.String
		user.BoltID = boltID.String
		drivers = append(drivers, user)
	}
	return drivers, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

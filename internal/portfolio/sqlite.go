package portfolio

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_properties (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	neighborhood      TEXT NOT NULL DEFAULT '',
	purchase_price    REAL NOT NULL,
	monthly_rent      REAL NOT NULL,
	down_payment      REAL NOT NULL,
	monthly_cash_flow REAL NOT NULL,
	cap_rate          REAL NOT NULL,
	cash_on_cash      REAL NOT NULL,
	deal_score        INTEGER NOT NULL,
	saved_at          TEXT NOT NULL
)`

// timeLayout is fixed width so saved_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `SELECT id, name, neighborhood, purchase_price, monthly_rent, down_payment,
	monthly_cash_flow, cap_rate, cash_on_cash, deal_score, saved_at FROM saved_properties`

// SQLiteStore persists saved properties in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open %s", path)
	}
	// a single connection keeps ":memory:" databases shared and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to create schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces p.
func (s *SQLiteStore) Save(ctx context.Context, p SavedProperty) error {
	if err := validateID(p.ID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO saved_properties
		(id, name, neighborhood, purchase_price, monthly_rent, down_payment,
		 monthly_cash_flow, cap_rate, cash_on_cash, deal_score, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Neighborhood, p.PurchasePrice, p.MonthlyRent, p.DownPayment,
		p.MonthlyCashFlow, p.CapRate, p.CashOnCash, p.DealScore, p.SavedAt.UTC().Format(timeLayout))
	if err != nil {
		return eris.Wrapf(err, "failed to save %s", p.ID)
	}
	return nil
}

// List returns every property, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]SavedProperty, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY saved_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list saved properties")
	}
	defer rows.Close()

	var out []SavedProperty
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read saved properties")
	}
	return out, nil
}

// Get returns the property with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (SavedProperty, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return SavedProperty{}, eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return p, err
}

// Delete removes the property with id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_properties WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "failed to delete %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "failed to count deleted rows")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row scanner) (SavedProperty, error) {
	var p SavedProperty
	var savedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Neighborhood, &p.PurchasePrice, &p.MonthlyRent, &p.DownPayment,
		&p.MonthlyCashFlow, &p.CapRate, &p.CashOnCash, &p.DealScore, &savedAt)
	if err == sql.ErrNoRows {
		return SavedProperty{}, err
	}
	if err != nil {
		return SavedProperty{}, eris.Wrap(err, "failed to scan saved property")
	}
	p.SavedAt, err = time.Parse(timeLayout, savedAt)
	if err != nil {
		return SavedProperty{}, eris.Wrapf(err, "invalid saved_at %q", savedAt)
	}
	return p, nil
}

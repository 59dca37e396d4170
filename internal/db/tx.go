// Package db holds small database/sql helpers shared by the state store.
package db

import "database/sql"

// WithTx runs fn inside a transaction: Begin, Rollback if fn errors,
// Commit otherwise.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after a successful Commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// NullInt64Value unwraps a nullable integer column, mapping NULL to 0.
func NullInt64Value(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

// NullStringValue unwraps a nullable text column, mapping NULL to "".
func NullStringValue(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}

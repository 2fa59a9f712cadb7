// Package store holds the SQL persistence for assets, assignments, movements,
// restock logs and the location/user directory. Functions accept either a
// *sqlx.DB or a *sqlx.Tx so callers decide the transaction boundary; none of
// them enforce ledger rules.
package store

import (
	"database/sql"
	"strings"
)

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt64 maps nil to NULL.
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Database drivers recognised by Dump.
const (
	DriverPGX    = "pgx"
	DriverPQ     = "pq"
	DriverSQLite = "sqlite"
)

// ErrorDump is a log-friendly flattening of an error chain, including database driver fields when present.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`

	Chain []string `json:"chain,omitempty"`

	DBDriver     string `json:"db_driver,omitempty"`
	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

// HasDriverError reports whether a database driver error was found in the chain.
func (d ErrorDump) HasDriverError() bool {
	return d.DBDriver != ""
}

// Fields returns the dump as logger fields. Driver fields are included only when present.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.HasDriverError() {
		fields["db_driver"] = d.DBDriver
		fields["db_code"] = d.DBCode
		fields["db_constraint"] = d.DBConstraint
		fields["db_table"] = d.DBTable
		fields["db_column"] = d.DBColumn
		fields["db_detail"] = d.DBDetail
		fields["db_message"] = d.DBMessage
	}
	return fields
}

// Dump walks err and collects what the logger needs to diagnose storage failures.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.DBDriver = DriverPGX
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.DBDriver = DriverPQ
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
		return d
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		d.DBDriver = DriverSQLite
		d.DBCode = sqliteErr.ExtendedCode.Error()
		d.DBMessage = sqliteErr.Error()
		return d
	}

	return d
}

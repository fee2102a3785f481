package models

import (
	"context"
	"database/sql/driver"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuantityScale is the number of fractional digits a stock quantity may carry.
const QuantityScale = 4

// Quantity is an exact stock amount. Postgres stores it as numeric(18,4). sqlite has no
// exact decimal storage, so there it is written as an integer count of 10^-4 units and
// SQL arithmetic on the column stays exact.
type Quantity struct {
	decimal.Decimal
}

func NewQuantity(d decimal.Decimal) Quantity {
	return Quantity{Decimal: d}
}

// FitsQuantityScale reports whether d needs no more than QuantityScale fractional digits.
func FitsQuantityScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(QuantityScale))
}

func (q Quantity) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{SQL: "?", Vars: []any{encodeQuantity(db, q.Decimal)}}
}

func (q *Quantity) Scan(value any) error {
	d, err := decodeQuantity(value)
	if err != nil {
		return err
	}
	q.Decimal = d
	return nil
}

func (q Quantity) Value() (driver.Value, error) {
	return q.Decimal.String(), nil
}

// NullQuantity is a Quantity that may be absent, such as the delta of an audit entry.
type NullQuantity struct {
	Decimal decimal.Decimal
	Valid   bool
}

func NewNullQuantity(d decimal.Decimal) NullQuantity {
	return NullQuantity{Decimal: d, Valid: true}
}

func (q NullQuantity) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if !q.Valid {
		return clause.Expr{SQL: "?", Vars: []any{nil}}
	}
	return clause.Expr{SQL: "?", Vars: []any{encodeQuantity(db, q.Decimal)}}
}

func (q *NullQuantity) Scan(value any) error {
	if value == nil {
		q.Decimal, q.Valid = decimal.Decimal{}, false
		return nil
	}
	d, err := decodeQuantity(value)
	if err != nil {
		return err
	}
	q.Decimal, q.Valid = d, true
	return nil
}

func (q NullQuantity) Value() (driver.Value, error) {
	if !q.Valid {
		return nil, nil
	}
	return q.Decimal.String(), nil
}

func encodeQuantity(db *gorm.DB, d decimal.Decimal) any {
	if isSQLite(db) {
		return d.Shift(QuantityScale).Round(0).IntPart()
	}
	return d.String()
}

// decodeQuantity reads an int64 as scaled units. Postgres returns numeric as text and
// never yields an int64 here.
func decodeQuantity(value any) (decimal.Decimal, error) {
	if scaled, ok := value.(int64); ok {
		return decimal.New(scaled, -QuantityScale), nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

func isSQLite(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBase is the reference monthly price of one discipline.
type PriceBase struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Membership is a bundled-months offer: MonthsPaid months are charged and
// MonthsSaved months are credited back as a discount.
type Membership struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	MonthsPaid  int             `db:"months_paid" json:"months_paid"`
	MonthsSaved decimal.Decimal `db:"months_saved" json:"months_saved"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// MembershipInfo is a membership priced against a base price.
type MembershipInfo struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	MonthsPaid  int             `json:"months_paid"`
	MonthsSaved decimal.Decimal `json:"months_saved"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// SelectionType discriminates the PaymentSelection variants.
type SelectionType string

const (
	SelectionDisciplines   SelectionType = "DISCIPLINES"
	SelectionMembership    SelectionType = "MEMBERSHIP"
	SelectionMixedSiblings SelectionType = "MIXED_SIBLINGS"
)

// PaymentSelection describes what is being purchased. The set of
// implementations is closed: DisciplinesSelection, MembershipSelection and
// MixedSiblingsSelection.
type PaymentSelection interface {
	Type() SelectionType
	sealedSelection()
}

// DisciplinesSelection covers one student taking Count disciplines, or
// Siblings students taking one discipline each.
type DisciplinesSelection struct {
	Count    int `json:"count"`
	Siblings int `json:"siblings"`
}

// MembershipSelection buys a membership bundle.
type MembershipSelection struct {
	MembershipID string `json:"membership_id"`
}

// MixedSiblingsSelection holds one discipline count per sibling.
type MixedSiblingsSelection struct {
	DisciplinesPerSibling []int `json:"disciplines_per_sibling"`
}

func (DisciplinesSelection) Type() SelectionType   { return SelectionDisciplines }
func (MembershipSelection) Type() SelectionType    { return SelectionMembership }
func (MixedSiblingsSelection) Type() SelectionType { return SelectionMixedSiblings }

func (DisciplinesSelection) sealedSelection()   {}
func (MembershipSelection) sealedSelection()    {}
func (MixedSiblingsSelection) sealedSelection() {}

// PaymentTiming adjusts non-membership payments for when they are made.
type PaymentTiming string

const (
	TimingNormal          PaymentTiming = "NORMAL"
	TimingLateActive      PaymentTiming = "LATE_ACTIVE"
	TimingProportionalNew PaymentTiming = "PROPORTIONAL_NEW"
	TimingMonthEnd        PaymentTiming = "MONTH_END"
)

var timingMultipliers = map[PaymentTiming]decimal.Decimal{
	TimingNormal:          decimal.NewFromInt(1),
	TimingLateActive:      decimal.RequireFromString("1.1"),
	TimingProportionalNew: decimal.NewFromInt(1),
	TimingMonthEnd:        decimal.NewFromInt(1),
}

var timingLabels = map[PaymentTiming]string{
	TimingNormal:          "Normal payment",
	TimingLateActive:      "Late payment, active student (+10%)",
	TimingProportionalNew: "Proportional payment, new student",
	TimingMonthEnd:        "Month-end payment",
}

// Valid reports whether t is a known timing.
func (t PaymentTiming) Valid() bool {
	_, ok := timingMultipliers[t]
	return ok
}

// Multiplier returns the factor applied to the discounted amount.
func (t PaymentTiming) Multiplier() decimal.Decimal {
	if m, ok := timingMultipliers[t]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Label returns the human readable description of the timing.
func (t PaymentTiming) Label() string {
	return timingLabels[t]
}

// LineKind classifies breakdown lines.
type LineKind string

const (
	LineBase       LineKind = "BASE"
	LineDiscount   LineKind = "DISCOUNT"
	LineTiming     LineKind = "TIMING"
	LineEnrollment LineKind = "ENROLLMENT"
	LineTotal      LineKind = "TOTAL"
)

// LineItem is one monetary component of a calculated payment. Discounts
// carry negative amounts.
type LineItem struct {
	Kind   LineKind        `json:"kind"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentResult is the outcome of a payment calculation.
type PaymentResult struct {
	BaseAmount     decimal.Decimal `json:"base_amount"`
	Discount       decimal.Decimal `json:"discount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Description    string          `json:"description"`
	Breakdown      string          `json:"breakdown"`
	Lines          []LineItem      `json:"lines"`
	MembershipInfo *MembershipInfo `json:"membership_info,omitempty"`
}

// PaymentRecord is a calculated payment persisted in the ledger.
type PaymentRecord struct {
	ID                string          `db:"id" json:"id"`
	StudentName       string          `db:"student_name" json:"student_name"`
	Franchise         string          `db:"franchise" json:"franchise"`
	PriceBaseID       string          `db:"price_base_id" json:"price_base_id"`
	SelectionType     SelectionType   `db:"selection_type" json:"selection_type"`
	Selection         types.JSONText  `db:"selection" json:"selection"`
	Timing            PaymentTiming   `db:"timing" json:"timing"`
	IncludeEnrollment bool            `db:"include_enrollment" json:"include_enrollment"`
	BaseAmount        decimal.Decimal `db:"base_amount" json:"base_amount"`
	Discount          decimal.Decimal `db:"discount" json:"discount"`
	FinalAmount       decimal.Decimal `db:"final_amount" json:"final_amount"`
	Description       string          `db:"description" json:"description"`
	Breakdown         string          `db:"breakdown" json:"breakdown"`
	Lines             types.JSONText  `db:"lines" json:"lines"`
	CreatedBy         string          `db:"created_by" json:"created_by"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// PaymentFilter captures supported filters for listing payment records.
type PaymentFilter struct {
	StudentName string
	Franchise   string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

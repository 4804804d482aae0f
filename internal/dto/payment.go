package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/juanketo/BBMApp-sub000/internal/models"
)

// SelectionRequest is the wire form of a payment selection. Type picks the
// variant and only that variant's fields are read.
type SelectionRequest struct {
	Type                  models.SelectionType `json:"type" validate:"required,oneof=DISCIPLINES MEMBERSHIP MIXED_SIBLINGS"`
	Count                 int                  `json:"count,omitempty"`
	Siblings              int                  `json:"siblings,omitempty"`
	MembershipID          string               `json:"membership_id,omitempty"`
	DisciplinesPerSibling []int                `json:"disciplines_per_sibling,omitempty"`
}

// ToSelection converts the request into a domain selection. Siblings
// defaults to 1 for discipline selections.
func (r SelectionRequest) ToSelection() (models.PaymentSelection, error) {
	switch r.Type {
	case models.SelectionDisciplines:
		siblings := r.Siblings
		if siblings == 0 {
			siblings = 1
		}
		return models.DisciplinesSelection{Count: r.Count, Siblings: siblings}, nil
	case models.SelectionMembership:
		if r.MembershipID == "" {
			return nil, fmt.Errorf("membership_id is required for %s selections", r.Type)
		}
		return models.MembershipSelection{MembershipID: r.MembershipID}, nil
	case models.SelectionMixedSiblings:
		counts := make([]int, len(r.DisciplinesPerSibling))
		copy(counts, r.DisciplinesPerSibling)
		return models.MixedSiblingsSelection{DisciplinesPerSibling: counts}, nil
	default:
		return nil, fmt.Errorf("unknown selection type %q", r.Type)
	}
}

// CalculatePaymentRequest describes payload for quoting a payment.
type CalculatePaymentRequest struct {
	PriceBaseID       string               `json:"price_base_id" validate:"required"`
	Selection         SelectionRequest     `json:"selection"`
	Timing            models.PaymentTiming `json:"timing,omitempty"`
	IncludeEnrollment bool                 `json:"include_enrollment"`
	EnrollmentFee     *decimal.Decimal     `json:"enrollment_fee,omitempty"`
}

// RecordPaymentRequest describes payload for recording a payment.
type RecordPaymentRequest struct {
	CalculatePaymentRequest
	StudentName string `json:"student_name" validate:"required,max=160"`
	Franchise   string `json:"franchise,omitempty" validate:"omitempty,max=80"`
}

// PriceBaseQuote is the current price of a price base.
type PriceBaseQuote struct {
	PriceBaseID string          `json:"price_base_id"`
	Price       decimal.Decimal `json:"price"`
	Formatted   string          `json:"formatted"`
}

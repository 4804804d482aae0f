package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

// MaxDisciplinesPerStudent bounds the multi-discipline discount table.
const MaxDisciplinesPerStudent = 4

var (
	hundred = decimal.NewFromInt(100)

	// disciplineDiscountRates[i] is the discount on the (i+1)th discipline.
	disciplineDiscountRates = [MaxDisciplinesPerStudent]decimal.Decimal{
		decimal.Zero,
		decimal.RequireFromString("0.50"),
		decimal.RequireFromString("0.25"),
		decimal.RequireFromString("0.25"),
	}

	twoSiblingsRate   = decimal.RequireFromString("0.10")
	threeSiblingsRate = decimal.RequireFromString("0.15")
)

// quote is the priced selection before timing and enrollment are applied.
type quote struct {
	baseAmount     decimal.Decimal
	discount       decimal.Decimal
	baseLines      []models.LineItem
	discountLines  []models.LineItem
	description    string
	applyTiming    bool
	membershipInfo *models.MembershipInfo
}

func (q *quote) addBase(label string, amount decimal.Decimal) {
	q.baseAmount = q.baseAmount.Add(amount)
	q.baseLines = append(q.baseLines, models.LineItem{Kind: models.LineBase, Label: label, Amount: amount})
}

func (q *quote) addDiscount(label string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	q.discount = q.discount.Add(amount)
	q.discountLines = append(q.discountLines, models.LineItem{Kind: models.LineDiscount, Label: label, Amount: amount.Neg()})
}

func priceDisciplines(sel models.DisciplinesSelection, basePrice decimal.Decimal) (*quote, error) {
	if err := validateDisciplineCount(sel.Count); err != nil {
		return nil, err
	}
	if sel.Siblings < 1 {
		return nil, appErrors.Clonef(appErrors.ErrInvalidConfiguration, "siblings must be at least 1, got %d", sel.Siblings)
	}
	if sel.Siblings > 1 && sel.Count > 1 {
		return nil, appErrors.Clonef(appErrors.ErrInvalidConfiguration,
			"%d siblings with %d disciplines each has no pricing rule; use a mixed siblings selection", sel.Siblings, sel.Count)
	}

	q := &quote{applyTiming: true}
	if sel.Siblings > 1 {
		priceSiblings(q, sel.Siblings, basePrice)
		q.description = fmt.Sprintf("1 discipline, %d siblings", sel.Siblings)
		return q, nil
	}

	priceStudentDisciplines(q, "", sel.Count, basePrice)
	q.description = fmt.Sprintf("%s, 1 student", pluralDisciplines(sel.Count))
	return q, nil
}

// priceStudentDisciplines prices count disciplines for a single student.
// prefix labels the lines when several students share one quote.
func priceStudentDisciplines(q *quote, prefix string, count int, basePrice decimal.Decimal) {
	q.addBase(fmt.Sprintf("%sBase price: %s", prefix, pluralDisciplines(count)), basePrice.Mul(decimal.NewFromInt(int64(count))))
	for i := 1; i < count; i++ {
		rate := disciplineDiscountRates[i]
		q.addDiscount(fmt.Sprintf("%sDiscipline %d discount (%s)", prefix, i+1, percent(rate)), basePrice.Mul(rate))
	}
}

func priceSiblings(q *quote, siblings int, basePrice decimal.Decimal) {
	gross := basePrice.Mul(decimal.NewFromInt(int64(siblings)))
	q.addBase(fmt.Sprintf("Base price: %d siblings, 1 discipline each", siblings), gross)

	rate := siblingDiscountRate(siblings)
	q.addDiscount(fmt.Sprintf("Siblings discount (%s of %d)", percent(rate), siblings), gross.Mul(rate))
}

// siblingDiscountRate returns the family discount. Families larger than
// three siblings get no discount.
func siblingDiscountRate(siblings int) decimal.Decimal {
	switch {
	case siblings == 2:
		return twoSiblingsRate
	case siblings == 3:
		return threeSiblingsRate
	case siblings > 3:
		// no rule is defined past three siblings
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// priceMixedSiblings sums independent single-student prices; no cross
// sibling discount applies.
func priceMixedSiblings(sel models.MixedSiblingsSelection, basePrice decimal.Decimal) (*quote, error) {
	if len(sel.DisciplinesPerSibling) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "mixed siblings selection requires at least one sibling")
	}
	for i, count := range sel.DisciplinesPerSibling {
		if err := validateDisciplineCount(count); err != nil {
			return nil, appErrors.Clonef(appErrors.ErrInvalidConfiguration, "sibling %d: %s", i+1, appErrors.FromError(err).Message)
		}
	}

	q := &quote{applyTiming: true}
	total := 0
	for i, count := range sel.DisciplinesPerSibling {
		priceStudentDisciplines(q, fmt.Sprintf("Sibling %d: ", i+1), count, basePrice)
		total += count
	}
	q.description = fmt.Sprintf("%d siblings, %s in total", len(sel.DisciplinesPerSibling), pluralDisciplines(total))
	return q, nil
}

func priceMembership(m *models.Membership, basePrice decimal.Decimal) *quote {
	info := membershipInfo(m, basePrice)
	q := &quote{membershipInfo: &info}
	q.addBase(fmt.Sprintf("Membership %s: %d months", m.Name, m.MonthsPaid), basePrice.Mul(decimal.NewFromInt(int64(m.MonthsPaid))))
	q.addDiscount(fmt.Sprintf("Membership savings: %s months", m.MonthsSaved.String()), basePrice.Mul(m.MonthsSaved))
	q.description = fmt.Sprintf("Membership %s (%d months)", m.Name, m.MonthsPaid)
	return q
}

func membershipInfo(m *models.Membership, basePrice decimal.Decimal) models.MembershipInfo {
	paid := basePrice.Mul(decimal.NewFromInt(int64(m.MonthsPaid)))
	saved := basePrice.Mul(m.MonthsSaved)
	return models.MembershipInfo{
		ID:          m.ID,
		Name:        m.Name,
		MonthsPaid:  m.MonthsPaid,
		MonthsSaved: m.MonthsSaved,
		TotalPrice:  paid.Sub(saved),
	}
}

func validateDisciplineCount(count int) error {
	if count < 1 || count > MaxDisciplinesPerStudent {
		return appErrors.Clonef(appErrors.ErrInvalidConfiguration, "discipline count must be between 1 and %d, got %d", MaxDisciplinesPerStudent, count)
	}
	return nil
}

func pluralDisciplines(n int) string {
	if n == 1 {
		return "1 discipline"
	}
	return fmt.Sprintf("%d disciplines", n)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).String() + "%"
}

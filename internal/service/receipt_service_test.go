package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
	"github.com/juanketo/BBMApp-sub000/pkg/export"
	"github.com/juanketo/BBMApp-sub000/pkg/money"
)

type captureReceiptRenderer struct {
	last export.Receipt
}

func (c *captureReceiptRenderer) Render(receipt export.Receipt) ([]byte, error) {
	c.last = receipt
	return []byte("%PDF-fake"), nil
}

func TestReceiptServicePaymentReceipt(t *testing.T) {
	renderer := &captureReceiptRenderer{}
	svc := NewReceiptService(nil, nil, renderer, money.NewFormatter("$"), nil)

	lines, err := json.Marshal([]models.LineItem{
		{Kind: models.LineBase, Label: "Base price: 2 disciplines", Amount: decimal.NewFromInt(2000)},
		{Kind: models.LineDiscount, Label: "Discipline 2 discount (50%)", Amount: decimal.NewFromInt(-500)},
		{Kind: models.LineTotal, Label: "Total", Amount: decimal.NewFromInt(1500)},
	})
	require.NoError(t, err)

	doc, err := svc.PaymentReceipt(&models.PaymentRecord{
		ID:          "pay-1",
		StudentName: "Ana",
		Franchise:   "centro",
		Description: "2 disciplines, 1 student",
		Breakdown:   "Base price: 2 disciplines: $2,000.00\nDiscipline 2 discount (50%): -$500.00\nTotal: $1,500.00",
		Lines:       types.JSONText(lines),
		FinalAmount: decimal.NewFromInt(1500),
		CreatedBy:   "u-1",
		CreatedAt:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "receipt-pay-1.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)

	require.Len(t, renderer.last.Lines, 3)
	assert.Equal(t, "Base price: 2 disciplines", renderer.last.Lines[0].Label)
	assert.Equal(t, "$2,000.00", renderer.last.Lines[0].Amount)
	assert.Equal(t, "-$500.00", renderer.last.Lines[1].Amount)
	assert.False(t, renderer.last.Lines[1].Emphasis)
	assert.True(t, renderer.last.Lines[2].Emphasis)
	assert.Contains(t, renderer.last.Header, [2]string{"Student", "Ana"})
}

func TestReceiptServiceLabelsWithSeparators(t *testing.T) {
	renderer := &captureReceiptRenderer{}
	svc := NewReceiptService(nil, nil, renderer, money.NewFormatter("$"), nil)

	lines, err := json.Marshal([]models.LineItem{
		{Kind: models.LineBase, Label: "Membership: Plan: Anual", Amount: decimal.NewFromInt(10000)},
		{Kind: models.LineTotal, Label: "Total", Amount: decimal.NewFromInt(10000)},
	})
	require.NoError(t, err)

	_, err = svc.PaymentReceipt(&models.PaymentRecord{ID: "pay-3", Lines: types.JSONText(lines), FinalAmount: decimal.NewFromInt(10000)})
	require.NoError(t, err)
	require.Len(t, renderer.last.Lines, 2)
	assert.Equal(t, "Membership: Plan: Anual", renderer.last.Lines[0].Label)
	assert.Equal(t, "$10,000.00", renderer.last.Lines[0].Amount)
}

func TestReceiptServiceFallsBackToTotal(t *testing.T) {
	renderer := &captureReceiptRenderer{}
	svc := NewReceiptService(nil, nil, renderer, money.NewFormatter("$"), nil)

	_, err := svc.PaymentReceipt(&models.PaymentRecord{
		ID:          "pay-4",
		Breakdown:   "Total: $1,000.00",
		Lines:       types.JSONText(`{not json`),
		FinalAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.Len(t, renderer.last.Lines, 1)
	assert.Equal(t, export.ReceiptLine{Label: "Total", Amount: "$1,000.00", Emphasis: true}, renderer.last.Lines[0])
}

func TestReceiptServicePaymentReceiptRendersPDF(t *testing.T) {
	svc := NewReceiptService(nil, nil, nil, money.NewFormatter(""), nil)

	doc, err := svc.PaymentReceipt(&models.PaymentRecord{ID: "pay-2", FinalAmount: decimal.NewFromInt(800)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))

	_, err = svc.PaymentReceipt(nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReceiptServiceMembershipsCSV(t *testing.T) {
	calc := newTestCalculator(newMockPricingProvider())
	svc := NewReceiptService(calc, nil, nil, calc.Formatter(), nil)

	doc, err := svc.MembershipsCSV(context.Background(), "pb-1000")
	require.NoError(t, err)
	assert.Equal(t, "memberships-pb-1000.csv", doc.Filename)

	rows := strings.Split(strings.TrimSpace(string(doc.Data)), "\n")
	require.Len(t, rows, 3)
	assert.Equal(t, "id,name,months_paid,months_saved,total_price", rows[0])
	assert.Equal(t, "m-3,Trimestral,3,0.5,2500.00", rows[1])

	_, err = svc.MembershipsCSV(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

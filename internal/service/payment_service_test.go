package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/dto"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

type mockPaymentRepo struct {
	records    map[string]models.PaymentRecord
	lastFilter models.PaymentFilter
	total      int
}

func (m *mockPaymentRepo) Create(ctx context.Context, record *models.PaymentRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.PaymentRecord)
	}
	record.ID = "pay-1"
	record.CreatedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.records[record.ID] = *record
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, int, error) {
	m.lastFilter = filter
	items := make([]models.PaymentRecord, 0, len(m.records))
	for _, record := range m.records {
		items = append(items, record)
	}
	return items, m.total, nil
}

func newPaymentServiceFixture() (*PaymentService, *mockPaymentRepo) {
	repo := &mockPaymentRepo{}
	calc := newTestCalculator(newMockPricingProvider())
	return NewPaymentService(calc, repo, nil, nil, zap.NewNop()), repo
}

var (
	adminClaims = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Franchise: "centro"}
	staffClaims = &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff, Franchise: "norte"}
)

func TestPaymentServiceRecord(t *testing.T) {
	svc, repo := newPaymentServiceFixture()

	record, err := svc.Record(context.Background(), RecordPaymentInput{
		StudentName: " Ana ",
		Franchise:   "sur",
		PriceBaseID: "pb-1000",
		Selection:   models.DisciplinesSelection{Count: 2, Siblings: 1},
		Options:     CalculateOptions{Timing: models.TimingLateActive, IncludeEnrollment: true},
	}, adminClaims)
	require.NoError(t, err)
	assert.Equal(t, "Ana", record.StudentName)
	assert.Equal(t, "sur", record.Franchise)
	assert.Equal(t, "admin-1", record.CreatedBy)
	assert.Equal(t, models.SelectionDisciplines, record.SelectionType)
	assert.Equal(t, models.TimingLateActive, record.Timing)
	assertDecimal(t, "2450", record.FinalAmount)
	assert.Contains(t, repo.records, "pay-1")

	var stored models.DisciplinesSelection
	require.NoError(t, json.Unmarshal(record.Selection, &stored))
	assert.Equal(t, models.DisciplinesSelection{Count: 2, Siblings: 1}, stored)

	var lines []models.LineItem
	require.NoError(t, json.Unmarshal(record.Lines, &lines))
	require.NotEmpty(t, lines)
	assert.Equal(t, models.LineBase, lines[0].Kind)
	last := lines[len(lines)-1]
	assert.Equal(t, models.LineTotal, last.Kind)
	assertDecimal(t, "2450", last.Amount)
}

func TestPaymentServiceRecordStaffUsesOwnFranchise(t *testing.T) {
	svc, _ := newPaymentServiceFixture()

	record, err := svc.Record(context.Background(), RecordPaymentInput{
		StudentName: "Luis",
		Franchise:   "centro",
		PriceBaseID: "pb-1000",
		Selection:   models.MembershipSelection{MembershipID: "m-3"},
	}, staffClaims)
	require.NoError(t, err)
	assert.Equal(t, "norte", record.Franchise)
	assert.Equal(t, models.TimingNormal, record.Timing)
}

func TestPaymentServiceRecordErrors(t *testing.T) {
	svc, repo := newPaymentServiceFixture()
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordPaymentInput{PriceBaseID: "pb-1000", Selection: models.DisciplinesSelection{Count: 1, Siblings: 1}}, adminClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Record(ctx, RecordPaymentInput{StudentName: "Ana", PriceBaseID: "pb-1000", Selection: models.DisciplinesSelection{Count: 2, Siblings: 2}}, adminClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, appErrors.FromError(err).Code)

	_, err = svc.Record(ctx, RecordPaymentInput{StudentName: "Ana", PriceBaseID: "missing", Selection: models.DisciplinesSelection{Count: 1, Siblings: 1}}, adminClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Record(ctx, RecordPaymentInput{StudentName: "Ana"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	assert.Empty(t, repo.records)
}

func TestPaymentServiceGetHidesOtherFranchises(t *testing.T) {
	svc, repo := newPaymentServiceFixture()
	repo.records = map[string]models.PaymentRecord{
		"pay-9": {ID: "pay-9", Franchise: "centro"},
	}

	record, err := svc.Get(context.Background(), "pay-9", adminClaims)
	require.NoError(t, err)
	assert.Equal(t, "pay-9", record.ID)

	_, err = svc.Get(context.Background(), "pay-9", staffClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "missing", adminClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceList(t *testing.T) {
	svc, repo := newPaymentServiceFixture()
	repo.total = 42

	_, pagination, err := svc.List(context.Background(), models.PaymentFilter{Franchise: "centro", Page: 2, PageSize: 500}, staffClaims)
	require.NoError(t, err)
	assert.Equal(t, "norte", repo.lastFilter.Franchise)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)

	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, _, err = svc.List(context.Background(), models.PaymentFilter{From: &from, To: &to}, adminClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceRejectsStaffWithoutFranchise(t *testing.T) {
	svc, repo := newPaymentServiceFixture()
	repo.records = map[string]models.PaymentRecord{
		"pay-9": {ID: "pay-9", Franchise: "centro"},
	}
	unscoped := &models.JWTClaims{UserID: "staff-2", Role: models.RoleStaff, Franchise: "  "}
	ctx := context.Background()

	repo.lastFilter = models.PaymentFilter{Franchise: "untouched"}
	_, _, err := svc.List(ctx, models.PaymentFilter{Franchise: "centro"}, unscoped)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "untouched", repo.lastFilter.Franchise)

	_, err = svc.Get(ctx, "pay-9", unscoped)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Record(ctx, RecordPaymentInput{
		StudentName: "Ana",
		Franchise:   "centro",
		PriceBaseID: "pb-1000",
		Selection:   models.DisciplinesSelection{Count: 1, Siblings: 1},
	}, unscoped)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.records, 1)
}

func TestPaymentServiceRecordRequiresFranchise(t *testing.T) {
	svc, repo := newPaymentServiceFixture()
	admin := &models.JWTClaims{UserID: "admin-2", Role: models.RoleAdmin}

	_, err := svc.Record(context.Background(), RecordPaymentInput{
		StudentName: "Ana",
		PriceBaseID: "pb-1000",
		Selection:   models.DisciplinesSelection{Count: 1, Siblings: 1},
	}, admin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestPaymentServiceCalculateFromRequest(t *testing.T) {
	svc, _ := newPaymentServiceFixture()
	fee := decimal.NewFromInt(500)

	res, err := svc.Calculate(context.Background(), dto.CalculatePaymentRequest{
		PriceBaseID:       "pb-1000",
		Selection:         dto.SelectionRequest{Type: models.SelectionMixedSiblings, DisciplinesPerSibling: []int{1, 2}},
		Timing:            " late_active ",
		IncludeEnrollment: true,
		EnrollmentFee:     &fee,
	})
	require.NoError(t, err)
	assertDecimal(t, "3250", res.FinalAmount)

	_, err = svc.Calculate(context.Background(), dto.CalculatePaymentRequest{
		PriceBaseID: "pb-1000",
		Selection:   dto.SelectionRequest{Type: "BUNDLE"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Calculate(context.Background(), dto.CalculatePaymentRequest{
		PriceBaseID: "pb-1000",
		Selection:   dto.SelectionRequest{Type: models.SelectionMembership},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceCreateFromRequest(t *testing.T) {
	svc, repo := newPaymentServiceFixture()

	record, err := svc.Create(context.Background(), dto.RecordPaymentRequest{
		CalculatePaymentRequest: dto.CalculatePaymentRequest{
			PriceBaseID: "pb-1000",
			Selection:   dto.SelectionRequest{Type: models.SelectionDisciplines, Count: 1, Siblings: 2},
		},
		StudentName: "Hermanos Ruiz",
	}, adminClaims)
	require.NoError(t, err)
	assertDecimal(t, "1800", record.FinalAmount)
	assert.Equal(t, "centro", record.Franchise)
	assert.Len(t, repo.records, 1)

	_, err = svc.Create(context.Background(), dto.RecordPaymentRequest{
		CalculatePaymentRequest: dto.CalculatePaymentRequest{
			PriceBaseID: "pb-1000",
			Selection:   dto.SelectionRequest{Type: models.SelectionDisciplines, Count: 1},
		},
	}, adminClaims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceCurrentBasePrice(t *testing.T) {
	svc, _ := newPaymentServiceFixture()

	quote, err := svc.CurrentBasePrice(context.Background(), "pb-1000")
	require.NoError(t, err)
	assert.Equal(t, "$1,000.00", quote.Formatted)

	_, err = svc.CurrentBasePrice(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

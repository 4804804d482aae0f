package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanketo/BBMApp-sub000/internal/dto"
	"github.com/juanketo/BBMApp-sub000/internal/middleware"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

type paymentServiceMock struct {
	calculateReq  dto.CalculatePaymentRequest
	calculateResp *models.PaymentResult
	calculateErr  error
	createActor   *models.JWTClaims
	lastFilter    models.PaymentFilter
	record        *models.PaymentRecord
}

func (m *paymentServiceMock) Calculate(ctx context.Context, req dto.CalculatePaymentRequest) (*models.PaymentResult, error) {
	m.calculateReq = req
	if m.calculateErr != nil {
		return nil, m.calculateErr
	}
	return m.calculateResp, nil
}

func (m *paymentServiceMock) Create(ctx context.Context, req dto.RecordPaymentRequest, actor *models.JWTClaims) (*models.PaymentRecord, error) {
	m.createActor = actor
	return &models.PaymentRecord{ID: "pay-1", StudentName: req.StudentName}, nil
}

func (m *paymentServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PaymentRecord, error) {
	if m.record == nil || m.record.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return m.record, nil
}

func (m *paymentServiceMock) List(ctx context.Context, filter models.PaymentFilter, actor *models.JWTClaims) ([]models.PaymentRecord, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.PaymentRecord{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

type receiptRendererMock struct{}

func (receiptRendererMock) PaymentReceipt(record *models.PaymentRecord) (*service.Document, error) {
	return &service.Document{Filename: "receipt-" + record.ID + ".pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

func newJSONContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestPaymentHandlerQuote(t *testing.T) {
	svc := &paymentServiceMock{calculateResp: &models.PaymentResult{FinalAmount: decimal.NewFromInt(1500), Description: "2 disciplines, 1 student"}}
	handler := NewPaymentHandler(svc, receiptRendererMock{})
	c, w := newJSONContext(http.MethodPost, "/payments/quote", map[string]interface{}{
		"price_base_id": "pb1",
		"selection":     map[string]interface{}{"type": "DISCIPLINES", "count": 2},
		"timing":        "LATE_ACTIVE",
	})

	handler.Quote(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pb1", svc.calculateReq.PriceBaseID)
	assert.Equal(t, 2, svc.calculateReq.Selection.Count)
	assert.Equal(t, models.TimingLateActive, svc.calculateReq.Timing)
	assert.Contains(t, w.Body.String(), `"final_amount":"1500"`)
}

func TestPaymentHandlerQuoteMapsErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"not found":     {appErrors.Clone(appErrors.ErrNotFound, "price base not found"), http.StatusNotFound},
		"invalid combo": {appErrors.Clone(appErrors.ErrInvalidConfiguration, "no rule"), http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := NewPaymentHandler(&paymentServiceMock{calculateErr: tc.err}, receiptRendererMock{})
			c, w := newJSONContext(http.MethodPost, "/payments/quote", dto.CalculatePaymentRequest{PriceBaseID: "pb1"})
			handler.Quote(c)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestPaymentHandlerQuoteInvalidBody(t *testing.T) {
	handler := NewPaymentHandler(&paymentServiceMock{}, receiptRendererMock{})
	c, w := newJSONContext(http.MethodPost, "/payments/quote", "invalid")

	handler.Quote(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandlerCreatePassesActor(t *testing.T) {
	svc := &paymentServiceMock{}
	handler := NewPaymentHandler(svc, receiptRendererMock{})
	c, w := newJSONContext(http.MethodPost, "/payments", map[string]interface{}{
		"price_base_id": "pb1",
		"student_name":  "Ana",
		"selection":     map[string]interface{}{"type": "MEMBERSHIP", "membership_id": "m1"},
	})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.createActor)
	assert.Equal(t, "staff-1", svc.createActor.UserID)
}

func TestPaymentHandlerListParsesFilters(t *testing.T) {
	svc := &paymentServiceMock{}
	handler := NewPaymentHandler(svc, receiptRendererMock{})
	c, w := newJSONContext(http.MethodGet, "/payments?student=ana&from=2024-03-01&page=3&limit=10", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", svc.lastFilter.StudentName)
	require.NotNil(t, svc.lastFilter.From)
	assert.Equal(t, 2024, svc.lastFilter.From.Year())
	assert.Nil(t, svc.lastFilter.To)
	assert.Equal(t, 3, svc.lastFilter.Page)
	assert.Equal(t, 10, svc.lastFilter.PageSize)

	c, w = newJSONContext(http.MethodGet, "/payments?to=yesterday", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandlerReceipt(t *testing.T) {
	svc := &paymentServiceMock{record: &models.PaymentRecord{ID: "pay-7"}}
	handler := NewPaymentHandler(svc, receiptRendererMock{})

	c, w := newJSONContext(http.MethodGet, "/payments/pay-7/receipt", nil)
	c.Params = gin.Params{{Key: "id", Value: "pay-7"}}
	handler.Receipt(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt-pay-7.pdf")

	c, w = newJSONContext(http.MethodGet, "/payments/other/receipt", nil)
	c.Params = gin.Params{{Key: "id", Value: "other"}}
	handler.Receipt(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

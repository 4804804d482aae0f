package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanketo/BBMApp-sub000/internal/dto"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

type pricingServiceMock struct {
	createReq service.PriceBaseRequest
	deleteErr error
}

func (m *pricingServiceMock) ListPriceBases(ctx context.Context) ([]models.PriceBase, error) {
	return []models.PriceBase{{ID: "pb1", Name: "Centro", Price: decimal.NewFromInt(1000)}}, nil
}

func (m *pricingServiceMock) GetPriceBase(ctx context.Context, id string) (*models.PriceBase, error) {
	if id != "pb1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "price base not found")
	}
	return &models.PriceBase{ID: "pb1"}, nil
}

func (m *pricingServiceMock) CreatePriceBase(ctx context.Context, req service.PriceBaseRequest) (*models.PriceBase, error) {
	m.createReq = req
	return &models.PriceBase{ID: "pb-new", Name: req.Name, Price: req.Price}, nil
}

func (m *pricingServiceMock) UpdatePriceBase(ctx context.Context, id string, req service.PriceBaseRequest) (*models.PriceBase, error) {
	return &models.PriceBase{ID: id, Name: req.Name, Price: req.Price}, nil
}

func (m *pricingServiceMock) DeletePriceBase(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *pricingServiceMock) ListMemberships(ctx context.Context) ([]models.Membership, error) {
	return []models.Membership{}, nil
}

func (m *pricingServiceMock) GetMembership(ctx context.Context, id string) (*models.Membership, error) {
	return &models.Membership{ID: id}, nil
}

func (m *pricingServiceMock) CreateMembership(ctx context.Context, req service.MembershipRequest) (*models.Membership, error) {
	return &models.Membership{ID: "m-new", Name: req.Name, MonthsPaid: req.MonthsPaid}, nil
}

func (m *pricingServiceMock) UpdateMembership(ctx context.Context, id string, req service.MembershipRequest) (*models.Membership, error) {
	return &models.Membership{ID: id, Name: req.Name}, nil
}

func (m *pricingServiceMock) DeleteMembership(ctx context.Context, id string) error {
	return nil
}

type priceQuoterMock struct{}

func (priceQuoterMock) CurrentBasePrice(ctx context.Context, priceBaseID string) (*dto.PriceBaseQuote, error) {
	if priceBaseID != "pb1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "price base not found")
	}
	return &dto.PriceBaseQuote{PriceBaseID: priceBaseID, Price: decimal.NewFromInt(1000), Formatted: "$1,000.00"}, nil
}

func (priceQuoterMock) AvailableMemberships(ctx context.Context, priceBaseID string) ([]models.MembershipInfo, error) {
	return []models.MembershipInfo{{ID: "m1", Name: "Trimestral", MonthsPaid: 3, TotalPrice: decimal.NewFromInt(2500)}}, nil
}

type membershipExporterMock struct{}

func (membershipExporterMock) MembershipsCSV(ctx context.Context, priceBaseID string) (*service.Document, error) {
	return &service.Document{Filename: "memberships-" + priceBaseID + ".csv", ContentType: "text/csv", Data: []byte("id,name\n")}, nil
}

func newPricingHandlerFixture() (*PricingHandler, *pricingServiceMock) {
	svc := &pricingServiceMock{}
	return NewPricingHandler(svc, priceQuoterMock{}, membershipExporterMock{}), svc
}

func TestPricingHandlerCurrentPrice(t *testing.T) {
	handler, _ := newPricingHandlerFixture()

	c, w := newJSONContext(http.MethodGet, "/price-bases/pb1/price", nil)
	c.Params = gin.Params{{Key: "id", Value: "pb1"}}
	handler.CurrentPrice(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "$1,000.00")

	c, w = newJSONContext(http.MethodGet, "/price-bases/x/price", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	handler.CurrentPrice(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPricingHandlerCreatePriceBaseParsesDecimal(t *testing.T) {
	handler, svc := newPricingHandlerFixture()

	c, w := newJSONContext(http.MethodPost, "/price-bases", `{"name":"Norte","price":"1250.50"}`)
	handler.CreatePriceBase(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.createReq.Price.Equal(decimal.RequireFromString("1250.50")))

	c, w = newJSONContext(http.MethodPost, "/price-bases", `{"name":"Norte","price":"abc"}`)
	handler.CreatePriceBase(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPricingHandlerDeletePriceBase(t *testing.T) {
	handler, svc := newPricingHandlerFixture()

	c, w := newJSONContext(http.MethodDelete, "/price-bases/pb1", nil)
	c.Params = gin.Params{{Key: "id", Value: "pb1"}}
	handler.DeletePriceBase(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.deleteErr = appErrors.Clone(appErrors.ErrPreconditionFailed, "referenced")
	c, w = newJSONContext(http.MethodDelete, "/price-bases/pb1", nil)
	c.Params = gin.Params{{Key: "id", Value: "pb1"}}
	handler.DeletePriceBase(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestPricingHandlerExportMemberships(t *testing.T) {
	handler, _ := newPricingHandlerFixture()

	c, w := newJSONContext(http.MethodGet, "/price-bases/pb1/memberships/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "pb1"}}
	handler.ExportMemberships(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "memberships-pb1.csv")
}

func TestPricingHandlerAvailableMemberships(t *testing.T) {
	handler, _ := newPricingHandlerFixture()

	c, w := newJSONContext(http.MethodGet, "/price-bases/pb1/memberships", nil)
	c.Params = gin.Params{{Key: "id", Value: "pb1"}}
	handler.AvailableMemberships(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_price":"2500"`)
}

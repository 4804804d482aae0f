package service

import (
	"context"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
	"github.com/juanketo/BBMApp-sub000/pkg/export"
	"github.com/juanketo/BBMApp-sub000/pkg/money"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type receiptRenderer interface {
	Render(receipt export.Receipt) ([]byte, error)
}

type membershipCatalog interface {
	GetAvailableMemberships(ctx context.Context, priceBaseID string) ([]models.MembershipInfo, error)
}

// Document is a rendered file ready for download.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

var membershipExportHeaders = []string{"id", "name", "months_paid", "months_saved", "total_price"}

// ReceiptService renders payment receipts and catalog exports.
type ReceiptService struct {
	catalog   membershipCatalog
	csv       csvRenderer
	pdf       receiptRenderer
	formatter money.Formatter
	logger    *zap.Logger
}

// NewReceiptService constructs a receipt service.
func NewReceiptService(catalog membershipCatalog, csv csvRenderer, pdf receiptRenderer, formatter money.Formatter, logger *zap.Logger) *ReceiptService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{catalog: catalog, csv: csv, pdf: pdf, formatter: formatter, logger: logger}
}

// PaymentReceipt renders a recorded payment as a PDF.
func (s *ReceiptService) PaymentReceipt(record *models.PaymentRecord) (*Document, error) {
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	receipt := export.Receipt{
		Title: "Payment receipt",
		Header: [][2]string{
			{"Receipt", record.ID},
			{"Date", record.CreatedAt.Format("2006-01-02 15:04")},
			{"Student", record.StudentName},
			{"Franchise", record.Franchise},
			{"Concept", record.Description},
		},
		Lines:  s.receiptLines(record),
		Footer: fmt.Sprintf("Recorded by %s. Amounts in %s.", record.CreatedBy, s.formatter.Symbol),
	}
	if len(receipt.Lines) == 0 {
		receipt.Lines = []export.ReceiptLine{{Label: "Total", Amount: s.formatter.Format(record.FinalAmount), Emphasis: true}}
	}

	data, err := s.pdf.Render(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	s.logger.Debug("receipt rendered", zap.String("payment_id", record.ID), zap.Int("bytes", len(data)))
	return &Document{
		Filename:    fmt.Sprintf("receipt-%s.pdf", record.ID),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// MembershipsCSV exports the membership catalog priced against a price base.
func (s *ReceiptService) MembershipsCSV(ctx context.Context, priceBaseID string) (*Document, error) {
	infos, err := s.catalog.GetAvailableMemberships(ctx, priceBaseID)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, map[string]string{
			"id":           info.ID,
			"name":         info.Name,
			"months_paid":  strconv.Itoa(info.MonthsPaid),
			"months_saved": info.MonthsSaved.String(),
			"total_price":  info.TotalPrice.StringFixedBank(2),
		})
	}
	data, err := s.csv.Render(export.Dataset{Headers: membershipExportHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render memberships export")
	}
	return &Document{
		Filename:    fmt.Sprintf("memberships-%s.csv", priceBaseID),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// receiptLines renders the stored line items of a record. Records without
// readable lines get a single total row.
func (s *ReceiptService) receiptLines(record *models.PaymentRecord) []export.ReceiptLine {
	var items []models.LineItem
	if len(record.Lines) > 0 {
		if err := json.Unmarshal(record.Lines, &items); err != nil {
			s.logger.Warn("unreadable receipt lines", zap.String("payment_id", record.ID), zap.Error(err))
			items = nil
		}
	}
	lines := make([]export.ReceiptLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, export.ReceiptLine{
			Label:    item.Label,
			Amount:   s.formatter.Format(item.Amount),
			Emphasis: item.Kind == models.LineTotal,
		})
	}
	return lines
}

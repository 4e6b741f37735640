package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/export"
	"github.com/noah-isme/tutor-billing/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type billSource interface {
	ParentBill(month, parentID string) (*models.ParentBill, error)
}

type bundleSource interface {
	Snapshot() models.Bundle
}

type csvRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatCSV ExportFormat = "csv"
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string       `json:"relativePath"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	Format       ExportFormat `json:"format"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

// ExportService renders parent bills and bundle downloads.
type ExportService struct {
	bills   billSource
	state   bundleSource
	codec   *codec.Codec
	storage fileStorage
	signer  *storage.SignedURLSigner
	csv     csvRenderer
	pdf     pdfRenderer
	cfg     ExportConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(bills billSource, st bundleSource, c *codec.Codec, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = codec.New(logger)
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		bills:   bills,
		state:   st,
		codec:   c,
		storage: files,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// ExportParentBill renders a parent's monthly bill and returns a signed
// download link for it.
func (s *ExportService) ExportParentBill(month, parentID string, format ExportFormat) (*ExportResult, error) {
	bill, err := s.bills.ParentBill(month, parentID)
	if err != nil {
		return nil, err
	}
	doc := billDocument(bill)

	var payload []byte
	switch format {
	case ExportFormatPDF:
		payload, err = s.pdf.Render(doc)
	case ExportFormatCSV:
		payload, err = s.csv.Render(doc)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render bill")
	}

	filename := fmt.Sprintf("%s_bill_%s_%s.%s", month, sanitizeFilename(bill.ParentName), s.now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store bill")
	}
	token, expiresAt, err := s.signer.Sign(strings.ReplaceAll(uuid.NewString(), "-", ""), relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("bill exported", zap.String("parent_id", parentID), zap.String("month", month), zap.String("path", relPath))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download?token=%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string) (storage.SignedLink, error) {
	link, err := s.signer.Verify(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return link, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download link expired")
		}
		return link, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download link")
	}
	return link, nil
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	f, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, err
	}
	return f, nil
}

// Cleanup removes exports older than ttl, or the configured TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// RunCleanup removes expired exports every interval until ctx is done.
func (s *ExportService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Cleanup(0)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}

// BundleJSON encodes the current state as a downloadable bundle.
func (s *ExportService) BundleJSON() ([]byte, string, error) {
	payload, err := s.codec.Encode(s.state.Snapshot())
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode bundle")
	}
	return payload, fmt.Sprintf("tutor_billing_%s.json", s.now().Format("2006-01-02_150405")), nil
}

func billDocument(bill *models.ParentBill) export.Document {
	doc := export.Document{
		Title:   fmt.Sprintf("Bill %s: %s", bill.Month, bill.ParentName),
		Headers: []string{"Student", "Scheduled", "Canceled", "Violations", "Make-ups", "Adjusted hours", "Charge"},
	}
	for _, child := range bill.Children {
		doc.Rows = append(doc.Rows, []string{
			child.StudentName,
			strconv.Itoa(child.Scheduled),
			strconv.Itoa(child.Canceled),
			strconv.Itoa(child.Violations),
			strconv.Itoa(child.Makeups),
			formatAmount(child.HoursAdjusted),
			formatAmount(child.ActualCharge),
		})
	}
	doc.Summary = append(doc.Summary, export.SummaryRow{Label: "Subtotal", Value: formatAmount(bill.Subtotal)})
	if bill.BillModifierName != "" || bill.BillModifierValue != 0 {
		label := bill.BillModifierName
		if label == "" {
			label = "Adjustment"
		}
		doc.Summary = append(doc.Summary, export.SummaryRow{Label: label, Value: formatAmount(bill.BillModifierValue)})
	}
	doc.Summary = append(doc.Summary, export.SummaryRow{Label: "Total", Value: formatAmount(bill.Total)})
	return doc
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

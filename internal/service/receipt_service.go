package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/receipt"
	"github.com/mmynk/tabsplit/pkg/api"
)

var _ api.ReceiptServiceHandler = (*ReceiptService)(nil)

var errScanDisabled = errors.New("receipt scanning is not configured")

// ReceiptService turns receipt photos into candidate items. Candidates get
// IDs only once the client adds them to a session.
type ReceiptService struct {
	extractor      receipt.Extractor
	maxUploadBytes int
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewReceiptService creates a ReceiptService. A nil extractor disables scanning.
func NewReceiptService(extractor receipt.Extractor, maxUploadBytes int, m *metrics.Metrics, logger *slog.Logger) *ReceiptService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = receipt.DefaultMaxUploadBytes
	}
	return &ReceiptService{extractor: extractor, maxUploadBytes: maxUploadBytes, metrics: m, logger: logger}
}

// ScanReceipt validates the upload and asks the extractor for line items.
// Extraction failures are reported in the response, not as RPC errors.
func (s *ReceiptService) ScanReceipt(ctx context.Context, req *connect.Request[api.ScanReceiptRequest]) (*connect.Response[api.ScanReceiptResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if s.extractor == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errScanDisabled)
	}

	contentType, err := receipt.ValidateUpload(req.Msg.Filename, len(req.Msg.Image), s.maxUploadBytes)
	if err != nil {
		s.metrics.ReceiptsScanned.WithLabelValues("rejected").Inc()
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	candidates, err := s.extractor.Extract(ctx, req.Msg.Image, contentType)
	if err != nil {
		s.metrics.ReceiptsScanned.WithLabelValues("failed").Inc()
		s.logger.Warn("Receipt extraction failed", "filename", req.Msg.Filename, "error", err)
		return connect.NewResponse(&api.ScanReceiptResponse{
			Success: false,
			Error:   "could not read the receipt",
			Items:   []api.ItemInput{},
		}), nil
	}

	items := make([]api.ItemInput, len(candidates))
	for i, c := range candidates {
		items[i] = api.ItemInput{Name: c.Name, Quantity: c.Quantity, UnitPrice: c.UnitPrice}
	}
	s.metrics.ReceiptsScanned.WithLabelValues("ok").Inc()
	s.logger.Info("Receipt scanned", "filename", req.Msg.Filename, "items", len(items))
	return connect.NewResponse(&api.ScanReceiptResponse{Success: true, Items: items}), nil
}

package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MovementRenderer writes ledger lines as a downloadable document
type MovementRenderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, movements []StockMovementResponse) error
}

// ExportArchive keeps rendered exports and hands out time-limited links
type ExportArchive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

const (
	exportPageSize       = 100
	defaultExportMaxRows = 50000
)

// MovementExport is a rendered ledger export
type MovementExport struct {
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Rows        int        `json:"rows"`
	Truncated   bool       `json:"truncated"`
	StorageKey  string     `json:"storage_key,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Data        []byte     `json:"-"`
}

// ExportService renders the movement ledger for offline review
type ExportService struct {
	scope    uow.TransactionScope
	renderer MovementRenderer
	archive  ExportArchive
	maxRows  int
	linkTTL  time.Duration
}

// ExportOption configures an ExportService
type ExportOption func(*ExportService)

// WithArchive uploads every export and returns a presigned link
func WithArchive(archive ExportArchive, linkTTL time.Duration) ExportOption {
	return func(s *ExportService) {
		s.archive = archive
		s.linkTTL = linkTTL
	}
}

// WithMaxRows caps the number of exported lines
func WithMaxRows(n int) ExportOption {
	return func(s *ExportService) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// NewExportService creates a new ExportService
func NewExportService(scope uow.TransactionScope, renderer MovementRenderer, opts ...ExportOption) *ExportService {
	s := &ExportService{scope: scope, renderer: renderer, maxRows: defaultExportMaxRows, linkTTL: 15 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Archived reports whether exports are uploaded to object storage
func (s *ExportService) Archived() bool {
	return s.archive != nil
}

// ExportMovements renders every movement matching filter. Page fields of
// the filter are ignored.
func (s *ExportService) ExportMovements(ctx context.Context, actor shared.Actor, filter MovementListFilter) (*MovementExport, error) {
	if err := actor.Require(shared.CapStockView); err != nil {
		return nil, err
	}
	if err := validateMovementFilter(filter); err != nil {
		return nil, err
	}

	rows, truncated, err := s.collect(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, rows); err != nil {
		return nil, fmt.Errorf("render movement export: %w", err)
	}

	now := time.Now().UTC()
	out := &MovementExport{
		FileName:    fmt.Sprintf("stock-movements-%s.%s", now.Format("20060102-150405"), s.renderer.Extension()),
		ContentType: s.renderer.ContentType(),
		Rows:        len(rows),
		Truncated:   truncated,
		Data:        buf.Bytes(),
	}

	if s.archive != nil {
		key := fmt.Sprintf("exports/movements/%s/%s-%s", now.Format("2006/01/02"), uuid.NewString(), out.FileName)
		if err := s.archive.Upload(ctx, key, out.Data, out.ContentType); err != nil {
			return nil, fmt.Errorf("archive movement export: %w", err)
		}
		url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, s.linkTTL)
		if err != nil {
			return nil, fmt.Errorf("presign movement export: %w", err)
		}
		out.StorageKey = key
		out.DownloadURL = url
		out.ExpiresAt = &expiresAt
	}

	logger.L(ctx).Info("Stock movements exported",
		zap.Int("rows", out.Rows),
		zap.Bool("truncated", truncated),
		zap.String("storage_key", out.StorageKey),
		zap.String("actor_id", actor.UserID.String()),
	)
	return out, nil
}

func (s *ExportService) collect(ctx context.Context, filter MovementListFilter) ([]StockMovementResponse, bool, error) {
	repo := s.scope.Reader().StockMovements()
	query := filter.toDomain()
	query.PageSize = exportPageSize

	var rows []StockMovementResponse
	for page := 1; ; page++ {
		query.Page = page
		movements, total, err := repo.List(ctx, query)
		if err != nil {
			return nil, false, err
		}
		for i := range movements {
			if len(rows) == s.maxRows {
				return rows, true, nil
			}
			rows = append(rows, ToStockMovementResponse(&movements[i]))
		}
		if len(movements) < exportPageSize || int64(len(rows)) >= total {
			return rows, false, nil
		}
	}
}

package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
	"github.com/noah-isme/tutor-ops-api/pkg/export"
	"github.com/noah-isme/tutor-ops-api/pkg/storage"
)

// ExportService renders finalized reports into downloadable files and issues
// signed download tokens for them.
type ExportService struct {
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	store   *storage.LocalStorage
	signer  *storage.DownloadTokenSigner
	metrics *MetricsService
	logger  *zap.Logger
}

// ExportArtifact describes a rendered export on disk.
type ExportArtifact struct {
	ReportID  string    `json:"reportId"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewExportService constructs the export formatter.
func NewExportService(store *storage.LocalStorage, signer *storage.DownloadTokenSigner, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		store:   store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
	}
}

// ToCSV renders the report detail rows as CSV text. A report with no detail
// rows yields an empty string, not a lone header line.
func (s *ExportService) ToCSV(report *models.ReportResult) (string, error) {
	if report == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "report is required")
	}
	if report.Status != models.ReportStatusCompleted {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("report %s is not completed", report.ID))
	}
	if len(report.Details) == 0 {
		return "", nil
	}
	data, err := s.csv.Render(export.Dataset{
		Headers: report.Columns,
		Rows:    detailRowsToDataset(report.Details),
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return string(data), nil
}

// Generate renders the report in the requested format, writes it to export
// storage and returns a signed download token for the artifact.
func (s *ExportService) Generate(report *models.ReportResult, format models.ExportFormat) (*ExportArtifact, error) {
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report is required")
	}
	if report.Status != models.ReportStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("report %s is not completed", report.ID))
	}
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export storage unavailable")
	}

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ExportFormatCSV:
		rendered, renderErr := s.ToCSV(report)
		payload, err = []byte(rendered), renderErr
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(export.Dataset{
			Headers: report.Columns,
			Rows:    detailRowsToDataset(report.Details),
		}, fmt.Sprintf("%s report %s", report.Type, report.ID))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s.%s", report.Type, report.ID, format)
	if _, err := s.store.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(report.ID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	return &ExportArtifact{
		ReportID:  report.ID,
		Format:    string(format),
		Filename:  filename,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload validates a download token and opens the referenced file.
func (s *ExportService) ResolveDownload(token string) (*os.File, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrInternal, "export storage unavailable")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, "INVALID_DOWNLOAD_TOKEN", 401, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.ErrNotFound
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, relPath, nil
}

// Cleanup removes export files older than the given TTL.
func (s *ExportService) Cleanup(ttl time.Duration) {
	if s.store == nil {
		return
	}
	removed, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired exports", zap.Int("count", len(removed)))
	}
}

func detailRowsToDataset(details models.DetailRows) []map[string]string {
	rows := make([]map[string]string, 0, len(details))
	for _, row := range details {
		rows = append(rows, map[string]string(row))
	}
	return rows
}

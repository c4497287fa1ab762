package service

import (
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	"github.com/noah-isme/tutor-ops-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadTokenSigner("test-secret", time.Hour)
	return NewExportService(store, signer, nil, nil)
}

func completedReport() *models.ReportResult {
	generated := time.Now().UTC()
	return &models.ReportResult{
		ID:     "rep-1",
		Type:   models.ReportTypeAttendance,
		Status: models.ReportStatusCompleted,
		Columns: models.StringList{
			"student_id", "student_name", "attendance_rate",
		},
		Details: models.DetailRows{
			{"student_id": "stu-a", "student_name": `Smith, Jane "JJ"`, "attendance_rate": "0.7500"},
			{"student_id": "stu-b", "student_name": "Bob", "attendance_rate": "0.0000"},
		},
		GeneratedAt: &generated,
	}
}

func TestToCSVRoundTrip(t *testing.T) {
	svc := newExportServiceForTest(t)

	out, err := svc.ToCSV(completedReport())
	require.NoError(t, err)

	// Names with commas and quotes must survive a standard CSV parse.
	reader := csv.NewReader(strings.NewReader(out))
	header, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"student_id", "student_name", "attendance_rate"}, header)

	first, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, `Smith, Jane "JJ"`, first[1])

	second, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, "stu-b", second[0])

	_, err = reader.Read()
	assert.Equal(t, io.EOF, err)
}

func TestToCSVEmptyDetails(t *testing.T) {
	svc := newExportServiceForTest(t)

	report := completedReport()
	report.Details = models.DetailRows{}

	out, err := svc.ToCSV(report)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestToCSVRejectsUnfinishedReport(t *testing.T) {
	svc := newExportServiceForTest(t)

	report := completedReport()
	report.Status = models.ReportStatusGenerating

	_, err := svc.ToCSV(report)
	require.Error(t, err)
}

func TestGenerateAndResolveDownload(t *testing.T) {
	svc := newExportServiceForTest(t)

	artifact, err := svc.Generate(completedReport(), models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "rep-1", artifact.ReportID)
	assert.NotEmpty(t, artifact.Token)

	file, filename, err := svc.ResolveDownload(artifact.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, artifact.Filename, filename)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "student_id")
}

func TestGeneratePDF(t *testing.T) {
	svc := newExportServiceForTest(t)

	artifact, err := svc.Generate(completedReport(), models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf", artifact.Format)
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(t)

	_, err := svc.Generate(completedReport(), models.ExportFormat("xlsx"))
	require.Error(t, err)
}

func TestResolveDownloadRejectsTamperedToken(t *testing.T) {
	svc := newExportServiceForTest(t)

	artifact, err := svc.Generate(completedReport(), models.ExportFormatCSV)
	require.NoError(t, err)

	_, _, err = svc.ResolveDownload(artifact.Token + "x")
	require.Error(t, err)
}

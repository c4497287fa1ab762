package dto

import "time"

// ReportRequest starts a report build or preview.
type ReportRequest struct {
	Type       string    `json:"type" binding:"required,report_type"`
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
	StudentIDs []string  `json:"studentIds" binding:"omitempty,dive,required"`
	CourseID   string    `json:"courseId"`
	Async      bool      `json:"async"`
}

// ExportRequest renders a completed report as a downloadable file.
type ExportRequest struct {
	Format string `json:"format" binding:"required,export_format"`
}

package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tutor-ops-api/internal/models"
)

// RegisterValidations installs the domain binding rules on gin's validator
// engine. Safe to call more than once.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("refund_policy", func(fl validator.FieldLevel) bool {
		_, ok := models.PolicyByName(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
		return models.ReportType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("export_format", func(fl validator.FieldLevel) bool {
		switch models.ExportFormat(fl.Field().String()) {
		case models.ExportFormatCSV, models.ExportFormatPDF:
			return true
		default:
			return false
		}
	})
}

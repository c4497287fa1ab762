package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutor-ops-api/internal/dto"
	"github.com/noah-isme/tutor-ops-api/internal/models"
	"github.com/noah-isme/tutor-ops-api/internal/service"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
	"github.com/noah-isme/tutor-ops-api/pkg/response"
)

// RefundHandler exposes refund computation over HTTP. Computations are pure
// previews; nothing here mutates enrollment or payment state.
type RefundHandler struct {
	refunds     *service.RefundService
	defaultRule models.AdminFeeRule
}

// NewRefundHandler constructs the refund endpoints.
func NewRefundHandler(refunds *service.RefundService, defaultRule models.AdminFeeRule) *RefundHandler {
	return &RefundHandler{refunds: refunds, defaultRule: defaultRule}
}

// Preview computes refund outcomes using the default admin fee rule.
// POST /api/v1/refunds/preview
func (h *RefundHandler) Preview(c *gin.Context) {
	var req dto.RefundPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	policy, ok := models.PolicyByName(req.Policy)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidPolicy, "unknown refund policy"))
		return
	}

	batch, err := h.refunds.PreviewByIDs(c.Request.Context(), req.EnrollmentIDs, policy, h.defaultRule)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Batch computes refund outcomes with optional admin fee overrides.
// POST /api/v1/refunds/batch
func (h *RefundHandler) Batch(c *gin.Context) {
	var req dto.RefundBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	policy, ok := models.PolicyByName(req.Policy)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidPolicy, "unknown refund policy"))
		return
	}

	rule := h.defaultRule
	if req.AdminFeePercent != nil {
		rule.PercentageOfRefund = *req.AdminFeePercent
	}
	if req.AdminFeeMinimum != nil {
		rule.MinimumFlatAmount = decimal.NewFromFloat(*req.AdminFeeMinimum)
	}

	batch, err := h.refunds.PreviewByIDs(c.Request.Context(), req.EnrollmentIDs, policy, rule)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Policies lists the built-in refund tier tables.
// GET /api/v1/refunds/policies
func (h *RefundHandler) Policies(c *gin.Context) {
	response.JSON(c, http.StatusOK, []models.RefundPolicy{
		models.StandardCancellationPolicy,
		models.APRemovalPolicy,
	}, nil)
}

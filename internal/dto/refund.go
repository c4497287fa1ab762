package dto

// RefundPreviewRequest asks for refund computation over a set of enrollments.
type RefundPreviewRequest struct {
	EnrollmentIDs []string `json:"enrollmentIds" binding:"required,min=1,dive,required"`
	Policy        string   `json:"policy" binding:"required,refund_policy"`
}

// RefundBatchRequest computes refunds for explicit enrollment ids with
// optional admin fee overrides.
type RefundBatchRequest struct {
	EnrollmentIDs   []string `json:"enrollmentIds" binding:"required,min=1,dive,required"`
	Policy          string   `json:"policy" binding:"required,refund_policy"`
	AdminFeePercent *float64 `json:"adminFeePercent" binding:"omitempty,gte=0,lte=1"`
	AdminFeeMinimum *float64 `json:"adminFeeMinimum" binding:"omitempty,gte=0"`
}

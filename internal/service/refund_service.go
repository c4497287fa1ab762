package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

type enrollmentGetter interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Enrollment, error)
}

// RefundService computes refund outcomes for cancellations and AP student
// removals. The computation itself is pure; persistence of an outcome is the
// caller's responsibility.
type RefundService struct {
	enrollments enrollmentGetter
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewRefundService constructs the refund calculator.
func NewRefundService(enrollments enrollmentGetter, metrics *MetricsService, logger *zap.Logger) *RefundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{enrollments: enrollments, metrics: metrics, logger: logger}
}

// ComputeRefund applies the policy tiers and fee rule to one enrollment.
// The eligible amount is rounded to currency precision here, before any
// aggregation, so batch totals reproduce the displayed per-row values.
func (s *RefundService) ComputeRefund(enrollment models.Enrollment, policy models.RefundPolicy, feeRule models.AdminFeeRule) (models.RefundOutcome, error) {
	if err := enrollment.Validate(); err != nil {
		return models.RefundOutcome{}, err
	}
	if err := policy.Validate(); err != nil {
		return models.RefundOutcome{}, err
	}

	fraction := policy.RefundFraction(enrollment.CompletionFraction())
	paid := enrollment.FeePaid.Round(2)
	eligible := paid.Mul(decimal.NewFromFloat(fraction)).Round(2)
	fee := feeRule.Fee(eligible)
	net := eligible.Sub(fee)
	if net.IsNegative() {
		net = decimal.Zero
	}

	s.metrics.RecordRefundComputation()

	return models.RefundOutcome{
		EnrollmentID:   enrollment.ID,
		StudentID:      enrollment.StudentID,
		AmountPaid:     paid,
		RefundEligible: eligible,
		AdminFee:       fee,
		NetRefund:      net,
	}, nil
}

// ComputeBatch computes outcomes for a selection of enrollments and sums the
// rounded per-row figures. Validation errors reject the whole batch; no
// partial result is returned.
func (s *RefundService) ComputeBatch(enrollments []models.Enrollment, policy models.RefundPolicy, feeRule models.AdminFeeRule) (models.RefundBatch, error) {
	batch := models.RefundBatch{
		Outcomes: make([]models.RefundOutcome, 0, len(enrollments)),
		Totals: models.RefundTotals{
			Paid:     decimal.Zero,
			Eligible: decimal.Zero,
			Fees:     decimal.Zero,
			Net:      decimal.Zero,
		},
	}
	for _, enrollment := range enrollments {
		outcome, err := s.ComputeRefund(enrollment, policy, feeRule)
		if err != nil {
			return models.RefundBatch{}, err
		}
		batch.Outcomes = append(batch.Outcomes, outcome)
		batch.Totals.Paid = batch.Totals.Paid.Add(outcome.AmountPaid)
		batch.Totals.Eligible = batch.Totals.Eligible.Add(outcome.RefundEligible)
		batch.Totals.Fees = batch.Totals.Fees.Add(outcome.AdminFee)
		batch.Totals.Net = batch.Totals.Net.Add(outcome.NetRefund)
	}
	return batch, nil
}

// PreviewByIDs loads the selected enrollments and computes the batch outcome.
func (s *RefundService) PreviewByIDs(ctx context.Context, ids []string, policy models.RefundPolicy, feeRule models.AdminFeeRule) (models.RefundBatch, error) {
	if len(ids) == 0 {
		return models.RefundBatch{}, appErrors.Clone(appErrors.ErrValidation, "at least one enrollment id is required")
	}
	enrollments, err := s.enrollments.GetByIDs(ctx, ids)
	if err != nil {
		return models.RefundBatch{}, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to load enrollments")
	}
	if len(enrollments) != len(ids) {
		return models.RefundBatch{}, appErrors.Clone(appErrors.ErrNotFound, "one or more enrollments not found")
	}
	return s.ComputeBatch(enrollments, policy, feeRule)
}

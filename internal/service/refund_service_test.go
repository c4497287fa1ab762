package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

type enrollmentGetterStub struct {
	enrollments []models.Enrollment
	err         error
}

func (s enrollmentGetterStub) GetByIDs(ctx context.Context, ids []string) ([]models.Enrollment, error) {
	return s.enrollments, s.err
}

func defaultFeeRule() models.AdminFeeRule {
	return models.AdminFeeRule{PercentageOfRefund: 0.05, MinimumFlatAmount: decimal.NewFromInt(50)}
}

func TestComputeRefundEarlyCancellation(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollment := models.Enrollment{
		ID:             "enr-1",
		StudentID:      "stu-1",
		FeePaid:        decimal.NewFromInt(1200),
		TotalUnits:     40,
		CompletedUnits: 4,
		Status:         models.EnrollmentStatusCancelled,
	}

	outcome, err := svc.ComputeRefund(enrollment, models.StandardCancellationPolicy, defaultFeeRule())
	require.NoError(t, err)

	assert.Equal(t, "1200.00", outcome.AmountPaid.StringFixed(2))
	assert.Equal(t, "1200.00", outcome.RefundEligible.StringFixed(2))
	assert.Equal(t, "60.00", outcome.AdminFee.StringFixed(2))
	assert.Equal(t, "1140.00", outcome.NetRefund.StringFixed(2))
}

func TestComputeRefundLateCancellation(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollment := models.Enrollment{
		ID:             "enr-2",
		StudentID:      "stu-2",
		FeePaid:        decimal.NewFromInt(1200),
		TotalUnits:     40,
		CompletedUnits: 32,
		Status:         models.EnrollmentStatusCancelled,
	}

	outcome, err := svc.ComputeRefund(enrollment, models.StandardCancellationPolicy, defaultFeeRule())
	require.NoError(t, err)

	// 80% completion falls past the last explicit tier: nothing is eligible
	// and no fee is charged.
	assert.True(t, outcome.RefundEligible.IsZero())
	assert.True(t, outcome.AdminFee.IsZero())
	assert.True(t, outcome.NetRefund.IsZero())
}

func TestComputeRefundMinimumFeeApplies(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollment := models.Enrollment{
		ID:             "enr-3",
		StudentID:      "stu-3",
		FeePaid:        decimal.NewFromInt(400),
		TotalUnits:     40,
		CompletedUnits: 2,
	}

	outcome, err := svc.ComputeRefund(enrollment, models.StandardCancellationPolicy, defaultFeeRule())
	require.NoError(t, err)

	// 5% of 400 is 20, below the 50 flat minimum.
	assert.Equal(t, "400.00", outcome.RefundEligible.StringFixed(2))
	assert.Equal(t, "50.00", outcome.AdminFee.StringFixed(2))
	assert.Equal(t, "350.00", outcome.NetRefund.StringFixed(2))
}

func TestComputeRefundNetNeverNegative(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollment := models.Enrollment{
		ID:             "enr-4",
		StudentID:      "stu-4",
		FeePaid:        decimal.NewFromInt(30),
		TotalUnits:     40,
		CompletedUnits: 2,
	}

	// Eligible 30.00, minimum fee 50: the net floors at zero.
	outcome, err := svc.ComputeRefund(enrollment, models.StandardCancellationPolicy, defaultFeeRule())
	require.NoError(t, err)
	assert.True(t, outcome.NetRefund.IsZero())
	assert.True(t, outcome.NetRefund.LessThanOrEqual(outcome.RefundEligible))
}

func TestComputeRefundRejectsInvalidEnrollment(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollment := models.Enrollment{ID: "enr-5", TotalUnits: 10, CompletedUnits: 12}

	_, err := svc.ComputeRefund(enrollment, models.StandardCancellationPolicy, defaultFeeRule())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidEnrollmentState.Code, appErrors.FromError(err).Code)
}

func TestComputeRefundRejectsInvalidPolicy(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollment := models.Enrollment{ID: "enr-6", FeePaid: decimal.NewFromInt(100), TotalUnits: 10}

	bad := models.RefundPolicy{Name: "bad", Tiers: []models.PolicyTier{
		{MaxCompletionFraction: 0.25, RefundFraction: 0.5},
		{MaxCompletionFraction: 0.5, RefundFraction: 0.75},
	}}
	_, err := svc.ComputeRefund(enrollment, bad, defaultFeeRule())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPolicy.Code, appErrors.FromError(err).Code)
}

func TestComputeBatchSumsRoundedRows(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollments := []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", FeePaid: decimal.NewFromInt(1200), TotalUnits: 40, CompletedUnits: 4},
		{ID: "enr-2", StudentID: "stu-2", FeePaid: decimal.NewFromInt(400), TotalUnits: 40, CompletedUnits: 2},
	}

	batch, err := svc.ComputeBatch(enrollments, models.StandardCancellationPolicy, defaultFeeRule())
	require.NoError(t, err)
	require.Len(t, batch.Outcomes, 2)

	assert.Equal(t, "1600.00", batch.Totals.Paid.StringFixed(2))
	assert.Equal(t, "1600.00", batch.Totals.Eligible.StringFixed(2))
	assert.Equal(t, "110.00", batch.Totals.Fees.StringFixed(2))
	assert.Equal(t, "1490.00", batch.Totals.Net.StringFixed(2))
}

func TestComputeBatchRejectsWholeBatchOnError(t *testing.T) {
	svc := NewRefundService(nil, nil, nil)
	enrollments := []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", FeePaid: decimal.NewFromInt(1200), TotalUnits: 40, CompletedUnits: 4},
		{ID: "enr-2", StudentID: "stu-2", TotalUnits: 10, CompletedUnits: 12},
	}

	batch, err := svc.ComputeBatch(enrollments, models.StandardCancellationPolicy, defaultFeeRule())
	require.Error(t, err)
	assert.Empty(t, batch.Outcomes)
}

func TestPreviewByIDs(t *testing.T) {
	stub := enrollmentGetterStub{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", FeePaid: decimal.NewFromInt(1200), TotalUnits: 40, CompletedUnits: 4},
	}}
	svc := NewRefundService(stub, nil, nil)

	batch, err := svc.PreviewByIDs(context.Background(), []string{"enr-1"}, models.StandardCancellationPolicy, defaultFeeRule())
	require.NoError(t, err)
	require.Len(t, batch.Outcomes, 1)
	assert.Equal(t, "1140.00", batch.Outcomes[0].NetRefund.StringFixed(2))
}

func TestPreviewByIDsMissingEnrollment(t *testing.T) {
	stub := enrollmentGetterStub{enrollments: nil}
	svc := NewRefundService(stub, nil, nil)

	_, err := svc.PreviewByIDs(context.Background(), []string{"enr-404"}, models.StandardCancellationPolicy, defaultFeeRule())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPreviewByIDsRepositoryFailure(t *testing.T) {
	stub := enrollmentGetterStub{err: errors.New("connection refused")}
	svc := NewRefundService(stub, nil, nil)

	_, err := svc.PreviewByIDs(context.Background(), []string{"enr-1"}, models.StandardCancellationPolicy, defaultFeeRule())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRepositoryUnavailable.Code, appErrors.FromError(err).Code)
}

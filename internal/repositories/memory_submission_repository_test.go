package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(kind models.SubmissionKind, ack, flat, wing string) *models.Submission {
	return &models.Submission{
		Kind:                  kind,
		AcknowledgementNumber: ack,
		FlatNumber:            flat,
		Wing:                  wing,
		Applicant:             models.Party{Name: "Asha", Email: "asha@example.com"},
		Status:                models.StatusPending,
		CreatedAt:             time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryRepo_UniquenessRules(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	first := newSubmission(models.KindShareCertificate, "SC-20250314-00001", "101", "A")
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, int64(1), first.RowVersion)

	err := repo.Create(ctx, newSubmission(models.KindShareCertificate, "SC-20250314-00002", "101", "A"))
	assert.ErrorIs(t, err, internal_utils.ErrDuplicateSubmission)

	err = repo.Create(ctx, newSubmission(models.KindNomination, "SC-20250314-00001", "102", "A"))
	assert.ErrorIs(t, err, internal_utils.ErrAckNumberTaken)

	// a different kind on the same unit is fine
	require.NoError(t, repo.Create(ctx, newSubmission(models.KindNomination, "NOM-20250314-00001", "101", "A")))

	// NOC requests are never unit-restricted
	require.NoError(t, repo.Create(ctx, newSubmission(models.KindNOC, "NOC-20250314-00001", "101", "A")))
	require.NoError(t, repo.Create(ctx, newSubmission(models.KindNOC, "NOC-20250314-00002", "101", "A")))
}

func TestMemoryRepo_SoftDeleteKeepsAckReserved(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	s := newSubmission(models.KindShareCertificate, "SC-20250314-00001", "101", "A")
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.SoftDelete(ctx, s.ID))
	assert.ErrorIs(t, repo.SoftDelete(ctx, s.ID), internal_utils.ErrSubmissionNotFound)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// unit guard lifted, number still reserved
	err = repo.Create(ctx, newSubmission(models.KindShareCertificate, "SC-20250314-00001", "101", "A"))
	assert.ErrorIs(t, err, internal_utils.ErrAckNumberTaken)
	require.NoError(t, repo.Create(ctx, newSubmission(models.KindShareCertificate, "SC-20250314-00002", "101", "A")))

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	n, err := repo.CountCreatedBetween(ctx, models.KindShareCertificate, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "deleted rows still count toward the day's sequence")
}

func TestMemoryRepo_UpdateStatusRecordsHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	s := newSubmission(models.KindNomination, "NOM-20250314-00001", "7", "B")
	require.NoError(t, repo.Create(ctx, s))

	reviewedAt := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	remarks := "looks good"
	updated, err := repo.UpdateStatus(ctx, s.ID, StatusUpdate{
		Status:     models.StatusApproved,
		Remarks:    &remarks,
		ReviewedBy: "secretary",
		ReviewedAt: reviewedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "secretary", *updated.ReviewedBy)
	assert.True(t, reviewedAt.Equal(*updated.ReviewedAt))
	assert.Equal(t, int64(2), updated.RowVersion)

	history, err := repo.ListStatusHistory(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPending, *history[0].FromStatus)
	assert.Equal(t, models.StatusApproved, history[0].ToStatus)

	_, err = repo.UpdatePayment(ctx, s.ID, PaymentUpdate{Status: models.PaymentPaid})
	assert.ErrorIs(t, err, internal_utils.ErrNotNOCSubmission)
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	s := newSubmission(models.KindNOC, "NOC-20250314-00001", "1", "A")
	s.NOC = &models.NOCDetails{NOCType: models.NOCTypeFlatTransfer, NOCFees: 1000, TransferFees: 25000, TotalAmount: 26000, PaymentStatus: models.PaymentPending}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	got.NOC.TotalAmount = 1
	s.NOC.TotalAmount = 2

	again, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(26000), again.NOC.TotalAmount)
}

func TestMemoryRepo_ListAndAggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	for i := 1; i <= 5; i++ {
		s := newSubmission(models.KindNOC, fmt.Sprintf("NOC-20250314-%05d", i), "1", "A")
		s.CreatedAt = s.CreatedAt.Add(time.Duration(i) * time.Minute)
		status := models.PaymentPending
		if i%2 == 0 {
			status = models.PaymentPaid
		}
		s.NOC = &models.NOCDetails{NOCType: models.NOCTypeFlatTransfer, TotalAmount: 26000, PaymentStatus: status}
		require.NoError(t, repo.Create(ctx, s))
	}

	kind := models.KindNOC
	page, total, err := repo.List(ctx, SubmissionFilter{Kind: &kind, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "NOC-20250314-00004", page[0].AcknowledgementNumber)
	assert.Equal(t, "NOC-20250314-00003", page[1].AcknowledgementNumber)

	paid := models.PaymentPaid
	paidOnly, total, err := repo.List(ctx, SubmissionFilter{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, paidOnly, 2)

	agg, err := repo.AggregatePayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, PaymentAggregate{Pending: 3, Paid: 2, Failed: 0, Revenue: 52000}, agg)

	counts, err := repo.AggregateCounts(ctx, models.KindNOC)
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts[models.StatusPending])
}

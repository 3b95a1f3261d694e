//go:build integration

package repositories

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/poofware/society-service/migrations"
	"github.com/stretchr/testify/suite"
)

// PostgresRepoSuite runs against the database named by DB_URL.
type PostgresRepoSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	repo SubmissionRepository
}

func TestPostgresRepoSuite(t *testing.T) {
	if os.Getenv("DB_URL") == "" {
		t.Skip("DB_URL not set")
	}
	suite.Run(t, new(PostgresRepoSuite))
}

func (s *PostgresRepoSuite) SetupSuite() {
	ctx := context.Background()
	pool, err := pgxpool.Connect(ctx, os.Getenv("DB_URL"))
	s.Require().NoError(err)
	s.Require().NoError(migrations.Apply(ctx, pool))
	s.pool = pool
	s.repo = NewSubmissionRepository(pool)
}

func (s *PostgresRepoSuite) TearDownSuite() {
	s.pool.Close()
}

func (s *PostgresRepoSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(),
		`TRUNCATE submission_status_history, submissions, ack_sequences`)
	s.Require().NoError(err)
}

func (s *PostgresRepoSuite) TestCreateAndReadBack() {
	ctx := context.Background()
	sub := newSubmission(models.KindNOC, "NOC-20250314-00001", "101", "A")
	sub.NOC = &models.NOCDetails{
		NOCType:       models.NOCTypeFlatTransfer,
		Buyer:         &models.Party{Name: "Ravi", Email: "ravi@example.com"},
		NOCFees:       1000,
		TransferFees:  25000,
		TotalAmount:   26000,
		PaymentStatus: models.PaymentPending,
	}
	sub.Documents = models.DocumentSet{models.DocAgreement: &models.DocumentRef{FileName: "agreement.pdf"}}
	s.Require().NoError(s.repo.Create(ctx, sub))

	got, err := s.repo.GetByAcknowledgementNumber(ctx, "NOC-20250314-00001")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(sub.ID, got.ID)
	s.Equal(int64(26000), got.NOC.TotalAmount)
	s.Equal("Ravi", got.NOC.Buyer.Name)
	s.True(got.Documents.Has(models.DocAgreement))
	s.Equal(int64(1), got.RowVersion)
}

func (s *PostgresRepoSuite) TestUniqueConstraintsMapToDomainErrors() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, newSubmission(models.KindShareCertificate, "SC-20250314-00001", "101", "A")))

	err := s.repo.Create(ctx, newSubmission(models.KindShareCertificate, "SC-20250314-00002", "101", "A"))
	s.ErrorIs(err, internal_utils.ErrDuplicateSubmission)

	err = s.repo.Create(ctx, newSubmission(models.KindShareCertificate, "SC-20250314-00001", "102", "A"))
	s.ErrorIs(err, internal_utils.ErrAckNumberTaken)
}

func (s *PostgresRepoSuite) TestUpdateStatusWritesHistoryAtomically() {
	ctx := context.Background()
	sub := newSubmission(models.KindNomination, "NOM-20250314-00001", "5", "C")
	s.Require().NoError(s.repo.Create(ctx, sub))

	updated, err := s.repo.UpdateStatus(ctx, sub.ID, StatusUpdate{
		Status:     models.StatusDocumentRequired,
		ReviewedBy: "treasurer",
		ReviewedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	s.Equal(models.StatusDocumentRequired, updated.Status)
	s.Equal(int64(2), updated.RowVersion)

	history, err := s.repo.ListStatusHistory(ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(models.StatusPending, *history[0].FromStatus)
	s.Equal("treasurer", history[0].ChangedBy)
}

func (s *PostgresRepoSuite) TestCreateSequencedIsDenseUnderConcurrency() {
	ctx := context.Background()
	day := testDay("20250314")

	const n = 40
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := newSubmission(models.KindNOC, "", fmt.Sprintf("%d", 100+i), "A")
			s.NoError(s.repo.CreateSequenced(ctx, sub, day, numberFor(models.KindNOC, day)))
			mu.Lock()
			got = append(got, sub.AcknowledgementNumber)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	sort.Strings(got)
	s.Require().Len(got, n)
	for i, ack := range got {
		s.Equal(fmt.Sprintf("NOC-20250314-%05d", i+1), ack)
	}
}

func (s *PostgresRepoSuite) TestCreateSequencedRollsBackNumberOnDuplicateUnit() {
	ctx := context.Background()
	day := testDay("20250314")
	number := numberFor(models.KindShareCertificate, day)

	first := newSubmission(models.KindShareCertificate, "", "101", "A")
	s.Require().NoError(s.repo.CreateSequenced(ctx, first, day, number))
	s.Equal("SC-20250314-00001", first.AcknowledgementNumber)

	err := s.repo.CreateSequenced(ctx, newSubmission(models.KindShareCertificate, "", "101", "A"), day, number)
	s.ErrorIs(err, internal_utils.ErrDuplicateSubmission)

	next := newSubmission(models.KindShareCertificate, "", "102", "A")
	s.Require().NoError(s.repo.CreateSequenced(ctx, next, day, number))
	s.Equal("SC-20250314-00002", next.AcknowledgementNumber)
}

func (s *PostgresRepoSuite) TestCreateSequencedSkipsTakenNumber() {
	ctx := context.Background()
	day := testDay("20250314")
	number := numberFor(models.KindNOC, day)

	// A row numbered ahead of the counter, dated on another day.
	stray := newSubmission(models.KindNOC, "NOC-20250314-00001", "1", "A")
	stray.CreatedAt = day.Start.Add(-time.Hour)
	s.Require().NoError(s.repo.Create(ctx, stray))

	sub := newSubmission(models.KindNOC, "", "2", "A")
	err := s.repo.CreateSequenced(ctx, sub, day, number)
	s.ErrorIs(err, internal_utils.ErrAckNumberTaken)

	s.Require().NoError(s.repo.CreateSequenced(ctx, sub, day, number))
	s.Equal("NOC-20250314-00002", sub.AcknowledgementNumber)
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/poofware/society-service/pkg/repositories"
	"github.com/poofware/society-service/pkg/utils"
)

const (
	ackNumberConstraint  = "submissions_acknowledgement_number_key"
	activeUnitConstraint = "submissions_active_unit_idx"
)

/* ───────────── public interface ───────────── */

// StatusUpdate is the set of fields a review writes in one atomic step.
type StatusUpdate struct {
	Status     models.SubmissionStatus
	Remarks    *string
	ReviewedBy string
	ReviewedAt time.Time
}

type PaymentUpdate struct {
	Status        models.PaymentStatus
	TransactionID *string
	PaymentDate   *time.Time
}

type PaymentAggregate struct {
	Pending int64
	Paid    int64
	Failed  int64
	Revenue int64
}

type SubmissionFilter struct {
	Kind          *models.SubmissionKind
	Status        *models.SubmissionStatus
	PaymentStatus *models.PaymentStatus
	FlatNumber    string
	Wing          string
	Limit         int
	Offset        int
}

type SubmissionRepository interface {
	// Create assigns an ID when missing. It returns ErrAckNumberTaken or
	// ErrDuplicateSubmission when a uniqueness constraint rejects the row.
	Create(ctx context.Context, s *models.Submission) error

	// CreateSequenced reserves the next (s.Kind, day) sequence, stamps the
	// number produced by number and inserts, all in one atomic step. A rejected
	// insert consumes no number, except ErrAckNumberTaken which moves the
	// counter past the taken value.
	CreateSequenced(ctx context.Context, s *models.Submission, day AckDay, number AckNumberFunc) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetByAcknowledgementNumber(ctx context.Context, ack string) (*models.Submission, error)
	FindByUnitKey(ctx context.Context, kind models.SubmissionKind, unit models.UnitKey) (*models.Submission, error)
	List(ctx context.Context, f SubmissionFilter) ([]*models.Submission, int64, error)
	ListStatusHistory(ctx context.Context, id uuid.UUID) ([]*models.StatusHistory, error)

	// CountCreatedBetween includes soft-deleted rows so their numbers stay reserved.
	CountCreatedBetween(ctx context.Context, kind models.SubmissionKind, start, end time.Time) (int64, error)
	AggregateCounts(ctx context.Context, kind models.SubmissionKind) (map[models.SubmissionStatus]int64, error)
	AggregatePayments(ctx context.Context) (PaymentAggregate, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*models.Submission, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, upd PaymentUpdate) (*models.Submission, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

/* ───────────── implementation ───────────── */

type submissionRepo struct {
	*repositories.BaseVersionedRepo[*models.Submission]
	db repositories.DB
}

func NewSubmissionRepository(db repositories.DB) SubmissionRepository {
	r := &submissionRepo{db: db}
	selectStmt := baseSelectSubmission() + " WHERE id=$1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = repositories.NewBaseRepo(db, selectStmt, r.scanSubmission)
	return r
}

// payload is the kind-specific part of a submission, stored as JSONB.
type payload struct {
	Documents          models.DocumentSet              `json:"documents,omitempty"`
	ShareCertificate   *models.ShareCertificateDetails `json:"shareCertificate,omitempty"`
	Nomination         *models.NominationDetails       `json:"nomination,omitempty"`
	Buyer              *models.Party                   `json:"buyer,omitempty"`
	PurposeDescription *string                         `json:"purposeDescription,omitempty"`
}

/* ---------- create ---------- */

func (r *submissionRepo) Create(ctx context.Context, s *models.Submission) error {
	return r.insert(ctx, r.db, s)
}

func (r *submissionRepo) CreateSequenced(ctx context.Context, s *models.Submission, day AckDay, number AckNumberFunc) error {
	var taken bool
	err := repositories.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		seq, err := reserveSequence(ctx, tx, s.Kind, day)
		if err != nil {
			return err
		}
		ack, err := number(seq)
		if err != nil {
			return err
		}
		s.AcknowledgementNumber = ack

		sp, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		if err := r.insert(ctx, sp, s); err != nil {
			_ = sp.Rollback(ctx)
			if errors.Is(err, internal_utils.ErrAckNumberTaken) {
				// Commit the advanced counter so the next attempt moves past the taken number.
				taken = true
				return nil
			}
			return err
		}
		return sp.Commit(ctx)
	})
	if err == nil && taken {
		return internal_utils.ErrAckNumberTaken
	}
	return err
}

func (r *submissionRepo) insert(ctx context.Context, db repositories.DB, s *models.Submission) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	body, err := json.Marshal(payloadOf(s))
	if err != nil {
		return fmt.Errorf("marshal submission payload: %w", err)
	}

	var (
		nocType       *string
		nocFees       *int64
		transferFees  *int64
		totalAmount   *int64
		paymentStatus *string
	)
	if s.NOC != nil {
		t := string(s.NOC.NOCType)
		ps := string(s.NOC.PaymentStatus)
		nocType, paymentStatus = &t, &ps
		nocFees, transferFees, totalAmount = &s.NOC.NOCFees, &s.NOC.TransferFees, &s.NOC.TotalAmount
	}

	err = db.QueryRow(ctx, `
		INSERT INTO submissions (
			id, kind, acknowledgement_number, flat_number, wing,
			applicant_name, applicant_email, applicant_phone,
			status, noc_type, noc_fees, transfer_fees, total_amount, payment_status,
			payload, created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16,1)
		RETURNING created_at, updated_at, row_version
	`,
		s.ID, string(s.Kind), s.AcknowledgementNumber, s.FlatNumber, s.Wing,
		s.Applicant.Name, s.Applicant.Email, s.Applicant.Phone,
		string(s.Status), nocType, nocFees, transferFees, totalAmount, paymentStatus,
		body, s.CreatedAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt, &s.RowVersion)
	if err != nil {
		switch {
		case repositories.IsUniqueViolation(err, ackNumberConstraint):
			return internal_utils.ErrAckNumberTaken
		case repositories.IsUniqueViolation(err, activeUnitConstraint):
			return internal_utils.ErrDuplicateSubmission
		}
		return err
	}
	return nil
}

/* ---------- reads ---------- */

func (r *submissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *submissionRepo) GetByAcknowledgementNumber(ctx context.Context, ack string) (*models.Submission, error) {
	row := r.db.QueryRow(ctx, baseSelectSubmission()+" WHERE acknowledgement_number=$1 AND deleted_at IS NULL", ack)
	return r.scanSubmission(row)
}

func (r *submissionRepo) FindByUnitKey(ctx context.Context, kind models.SubmissionKind, unit models.UnitKey) (*models.Submission, error) {
	row := r.db.QueryRow(ctx, baseSelectSubmission()+`
		WHERE kind=$1 AND flat_number=$2 AND wing=$3 AND deleted_at IS NULL
		ORDER BY created_at DESC LIMIT 1`,
		string(kind), unit.FlatNumber, unit.Wing,
	)
	return r.scanSubmission(row)
}

func (r *submissionRepo) List(ctx context.Context, f SubmissionFilter) ([]*models.Submission, int64, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != nil {
		add("kind=$%d", string(*f.Kind))
	}
	if f.Status != nil {
		add("status=$%d", string(*f.Status))
	}
	if f.PaymentStatus != nil {
		add("payment_status=$%d", string(*f.PaymentStatus))
	}
	if f.FlatNumber != "" {
		add("flat_number=$%d", f.FlatNumber)
	}
	if f.Wing != "" {
		add("wing=$%d", f.Wing)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM submissions"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	q := baseSelectSubmission() + clause +
		fmt.Sprintf(" ORDER BY created_at DESC, acknowledgement_number DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := r.scanSubmissions(rows)
	return list, total, err
}

func (r *submissionRepo) ListStatusHistory(ctx context.Context, id uuid.UUID) ([]*models.StatusHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, submission_id, from_status, to_status, remarks, changed_by, changed_at
		FROM submission_status_history
		WHERE submission_id=$1
		ORDER BY changed_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.StatusHistory
	for rows.Next() {
		var (
			h    models.StatusHistory
			from *string
			to   string
		)
		if err := rows.Scan(&h.ID, &h.SubmissionID, &from, &to, &h.Remarks, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		if from != nil {
			fs := models.SubmissionStatus(*from)
			h.FromStatus = &fs
		}
		h.ToStatus = models.SubmissionStatus(to)
		out = append(out, &h)
	}
	return out, rows.Err()
}

/* ---------- aggregates ---------- */

func (r *submissionRepo) CountCreatedBetween(ctx context.Context, kind models.SubmissionKind, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions
		WHERE kind=$1 AND created_at >= $2 AND created_at < $3`,
		string(kind), start, end,
	).Scan(&n)
	return n, err
}

func (r *submissionRepo) AggregateCounts(ctx context.Context, kind models.SubmissionKind) (map[models.SubmissionStatus]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*) FROM submissions
		WHERE kind=$1 AND deleted_at IS NULL
		GROUP BY status`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.SubmissionStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[models.SubmissionStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *submissionRepo) AggregatePayments(ctx context.Context) (PaymentAggregate, error) {
	var agg PaymentAggregate
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE payment_status='Pending'),
			COUNT(*) FILTER (WHERE payment_status='Paid'),
			COUNT(*) FILTER (WHERE payment_status='Failed'),
			COALESCE(SUM(total_amount) FILTER (WHERE payment_status='Paid'), 0)
		FROM submissions
		WHERE kind='noc' AND deleted_at IS NULL`,
	).Scan(&agg.Pending, &agg.Paid, &agg.Failed, &agg.Revenue)
	return agg, err
}

/* ---------- update / delete ---------- */

func (r *submissionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*models.Submission, error) {
	var from models.SubmissionStatus
	mutate := func(s *models.Submission) error {
		from = s.Status
		s.Status = upd.Status
		s.AdminRemarks = upd.Remarks
		s.ReviewedAt = &upd.ReviewedAt
		s.ReviewedBy = &upd.ReviewedBy
		return nil
	}
	updateIfVersion := func(ctx context.Context, s *models.Submission, expected int64) (pgconn.CommandTag, error) {
		return r.updateStatusIfVersion(ctx, s, expected, from)
	}
	if err := r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, updateIfVersion); err != nil {
		if err == pgx.ErrNoRows {
			return nil, internal_utils.ErrSubmissionNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// updateStatusIfVersion writes the review fields and the audit row in one transaction.
func (r *submissionRepo) updateStatusIfVersion(
	ctx context.Context,
	s *models.Submission,
	expected int64,
	from models.SubmissionStatus,
) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := repositories.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		tag, err = tx.Exec(ctx, `
			UPDATE submissions
			SET status=$1, admin_remarks=$2, reviewed_at=$3, reviewed_by=$4,
			    updated_at=NOW(), row_version=row_version+1
			WHERE id=$5 AND row_version=$6 AND deleted_at IS NULL
		`, string(s.Status), s.AdminRemarks, s.ReviewedAt, s.ReviewedBy, s.ID, expected)
		if err != nil || tag.RowsAffected() != 1 {
			return err
		}
		fromStr := string(from)
		_, err = tx.Exec(ctx, `
			INSERT INTO submission_status_history (
				id, submission_id, from_status, to_status, remarks, changed_by, changed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, uuid.New(), s.ID, &fromStr, string(s.Status), s.AdminRemarks, *s.ReviewedBy, *s.ReviewedAt)
		return err
	})
	return tag, err
}

func (r *submissionRepo) UpdatePayment(ctx context.Context, id uuid.UUID, upd PaymentUpdate) (*models.Submission, error) {
	mutate := func(s *models.Submission) error {
		if s.NOC == nil {
			return internal_utils.ErrNotNOCSubmission
		}
		s.NOC.PaymentStatus = upd.Status
		if upd.TransactionID != nil {
			s.NOC.PaymentTransactionID = upd.TransactionID
		}
		if upd.PaymentDate != nil {
			s.NOC.PaymentDate = upd.PaymentDate
		}
		return nil
	}
	updateIfVersion := func(ctx context.Context, s *models.Submission, expected int64) (pgconn.CommandTag, error) {
		return r.db.Exec(ctx, `
			UPDATE submissions
			SET payment_status=$1, payment_transaction_id=$2, payment_date=$3,
			    updated_at=NOW(), row_version=row_version+1
			WHERE id=$4 AND row_version=$5 AND deleted_at IS NULL
		`, string(s.NOC.PaymentStatus), s.NOC.PaymentTransactionID, s.NOC.PaymentDate, s.ID, expected)
	}
	if err := r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, updateIfVersion); err != nil {
		if err == pgx.ErrNoRows {
			return nil, internal_utils.ErrSubmissionNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *submissionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE submissions SET deleted_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal_utils.ErrSubmissionNotFound
	}
	return nil
}

/* ---------- internals ---------- */

func baseSelectSubmission() string {
	return `
		SELECT id, kind, acknowledgement_number, flat_number, wing,
		applicant_name, applicant_email, applicant_phone,
		status, admin_remarks, reviewed_at, reviewed_by,
		noc_type, noc_fees, transfer_fees, total_amount, payment_status,
		payment_transaction_id, payment_date,
		payload, created_at, updated_at, row_version
		FROM submissions`
}

func payloadOf(s *models.Submission) payload {
	p := payload{
		Documents:        s.Documents,
		ShareCertificate: s.ShareCertificate,
		Nomination:       s.Nomination,
	}
	if s.NOC != nil {
		p.Buyer = s.NOC.Buyer
		p.PurposeDescription = s.NOC.PurposeDescription
	}
	return p
}

func (r *submissionRepo) scanSubmission(row pgx.Row) (*models.Submission, error) {
	var (
		s             models.Submission
		kind, status  string
		phone         *string
		nocType       *string
		nocFees       *int64
		transferFees  *int64
		totalAmount   *int64
		paymentStatus *string
		txnID         *string
		paymentDate   *time.Time
		body          []byte
	)
	if err := row.Scan(
		&s.ID, &kind, &s.AcknowledgementNumber, &s.FlatNumber, &s.Wing,
		&s.Applicant.Name, &s.Applicant.Email, &phone,
		&status, &s.AdminRemarks, &s.ReviewedAt, &s.ReviewedBy,
		&nocType, &nocFees, &transferFees, &totalAmount, &paymentStatus,
		&txnID, &paymentDate,
		&body, &s.CreatedAt, &s.UpdatedAt, &s.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.Kind = models.SubmissionKind(kind)
	s.Status = models.SubmissionStatus(status)
	if phone != nil {
		s.Applicant.Phone = *phone
	}

	var p payload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode payload for %s: %w", s.ID, err)
		}
	}
	s.Documents = p.Documents
	s.ShareCertificate = p.ShareCertificate
	s.Nomination = p.Nomination

	if nocType != nil {
		s.NOC = &models.NOCDetails{
			NOCType:              models.NOCType(*nocType),
			Buyer:                p.Buyer,
			PurposeDescription:   p.PurposeDescription,
			NOCFees:              utils.Val(nocFees),
			TransferFees:         utils.Val(transferFees),
			TotalAmount:          utils.Val(totalAmount),
			PaymentTransactionID: txnID,
			PaymentDate:          paymentDate,
		}
		if paymentStatus != nil {
			s.NOC.PaymentStatus = models.PaymentStatus(*paymentStatus)
		}
	}
	return &s, nil
}

func (r *submissionRepo) scanSubmissions(rows pgx.Rows) ([]*models.Submission, error) {
	var out []*models.Submission
	for rows.Next() {
		s, err := r.scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

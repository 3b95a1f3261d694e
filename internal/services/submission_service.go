package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/internal/metrics"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/poofware/society-service/pkg/utils"
	"github.com/sirupsen/logrus"
)

// CreateSubmissionInput is the validated form payload. NOC-only fields are
// ignored for other kinds.
type CreateSubmissionInput struct {
	Kind       models.SubmissionKind
	FlatNumber string
	Wing       string
	Applicant  models.Party
	Documents  models.DocumentSet

	ShareCertificate *models.ShareCertificateDetails
	Nomination       *models.NominationDetails

	NOCType            models.NOCType
	Buyer              *models.Party
	PurposeDescription *string
}

type CreateSubmissionResult struct {
	Submission *models.Submission `json:"submission"`
	Fees       *FeeDetails        `json:"fees,omitempty"`
}

type ListResult struct {
	Items  []*models.Submission `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// SubmissionService is the upward API used by controllers. Every error it
// returns is an *utils.AppError.
type SubmissionService struct {
	repo       repositories.SubmissionRepository
	registry   *NOCTypeRegistry
	acks       *AckNumberService
	guard      *DuplicateGuard
	fees       *FeeCalculator
	lifecycle  *LifecycleService
	stats      *StatisticsService
	enclosures *EnclosureResolver
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewSubmissionService(
	repo repositories.SubmissionRepository,
	registry *NOCTypeRegistry,
	acks *AckNumberService,
	lifecycle *LifecycleService,
	m *metrics.Metrics,
) *SubmissionService {
	return &SubmissionService{
		repo:       repo,
		registry:   registry,
		acks:       acks,
		guard:      NewDuplicateGuard(repo),
		fees:       NewFeeCalculator(registry),
		lifecycle:  lifecycle,
		stats:      NewStatisticsService(repo),
		enclosures: NewEnclosureResolver(registry),
		metrics:    m,
		now:        time.Now,
	}
}

/* ───────────── creation ───────────── */

func (s *SubmissionService) CreateSubmission(ctx context.Context, in CreateSubmissionInput) (*CreateSubmissionResult, error) {
	res, err := s.persistSubmission(ctx, in)
	if err != nil {
		return nil, err
	}
	s.lifecycle.NotifyCreated(ctx, res.Submission, res.Fees)
	return res, nil
}

// persistSubmission runs validation, the duplicate guard and the insert. Its
// duration is what society_create_submission_duration_seconds records.
func (s *SubmissionService) persistSubmission(ctx context.Context, in CreateSubmissionInput) (*CreateSubmissionResult, error) {
	start := time.Now()
	defer s.metrics.ObserveCreate(start)

	logger := utils.Logger.WithFields(logrus.Fields{
		"kind": in.Kind,
		"flat": flatLabel(models.UnitKey{FlatNumber: in.FlatNumber, Wing: in.Wing}),
	})

	if err := s.validateInput(in); err != nil {
		return nil, toAppError(err)
	}

	unit := models.UnitKey{FlatNumber: in.FlatNumber, Wing: in.Wing}
	conflict, err := s.guard.CheckConflict(ctx, in.Kind, unit)
	if err != nil {
		logger.WithError(err).Error("Duplicate check failed")
		return nil, toAppError(err)
	}
	if conflict.Exists {
		s.metrics.SubmissionConflicts.WithLabelValues(string(in.Kind)).Inc()
		return nil, conflictError(conflict)
	}

	sub := s.buildSubmission(in)
	var fees *FeeDetails
	if in.Kind == models.KindNOC {
		f := s.fees.ComputeFees(in.NOCType)
		fees = &f
		sub.NOC.NOCFees = f.NOCFees
		sub.NOC.TransferFees = f.TransferFees
		sub.NOC.TotalAmount = f.TotalAmount
		sub.NOC.PaymentStatus = f.InitialPaymentStatus
	}

	if err := s.insertWithAck(ctx, sub); err != nil {
		if errors.Is(err, internal_utils.ErrDuplicateSubmission) {
			// Lost a race with a concurrent create; report what won.
			s.metrics.SubmissionConflicts.WithLabelValues(string(in.Kind)).Inc()
			if c, cerr := s.guard.CheckConflict(ctx, in.Kind, unit); cerr == nil && c.Exists {
				return nil, conflictError(c)
			}
		}
		logger.WithError(err).Error("Failed to persist submission")
		return nil, toAppError(err)
	}

	s.metrics.SubmissionsCreated.WithLabelValues(string(sub.Kind)).Inc()
	logger.WithField("ack", sub.AcknowledgementNumber).Info("Submission created")
	return &CreateSubmissionResult{Submission: sub, Fees: fees}, nil
}

// insertWithAck numbers and inserts sub, retrying when the unique index
// reports the number as already used.
func (s *SubmissionService) insertWithAck(ctx context.Context, sub *models.Submission) error {
	day := s.acks.DayFor(sub.CreatedAt)
	for attempt := 1; attempt <= constants.AckAllocationMaxAttempts; attempt++ {
		var err error
		if s.acks.External() {
			err = s.insertReserved(ctx, sub, day)
		} else {
			err = s.repo.CreateSequenced(ctx, sub, day, func(seq int64) (string, error) {
				return s.acks.Number(sub.Kind, day, seq)
			})
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, internal_utils.ErrAckNumberTaken) {
			return err
		}
		s.metrics.AckAllocationRetries.Inc()
		utils.Logger.WithFields(logrus.Fields{
			"ack":     sub.AcknowledgementNumber,
			"attempt": attempt,
		}).Warn("Acknowledgement number already taken, retrying")
	}
	return internal_utils.ErrAckAllocationExceeded
}

// insertReserved inserts with a number from the external allocator and hands
// the number back when the row is rejected for any reason but a collision.
func (s *SubmissionService) insertReserved(ctx context.Context, sub *models.Submission, day repositories.AckDay) error {
	ack, seq, err := s.acks.Reserve(ctx, sub.Kind, day)
	if err != nil {
		return err
	}
	sub.AcknowledgementNumber = ack
	err = s.repo.Create(ctx, sub)
	if err == nil || errors.Is(err, internal_utils.ErrAckNumberTaken) {
		return err
	}

	logger := utils.Logger.WithField("ack", ack)
	released, rerr := s.acks.Release(ctx, sub.Kind, day, seq)
	switch {
	case rerr != nil:
		logger.WithError(rerr).Error("Failed to release acknowledgement number")
	case !released:
		logger.Warn("Acknowledgement number not released, a later number was already issued")
	}
	return err
}

func (s *SubmissionService) validateInput(in CreateSubmissionInput) error {
	if !in.Kind.Valid() {
		return internal_utils.ErrInvalidKind
	}
	switch in.Kind {
	case models.KindNomination:
		if in.Nomination == nil || len(in.Nomination.Nominees) == 0 {
			return internal_utils.ErrInvalidNomineeShares
		}
		total := 0
		for _, n := range in.Nomination.Nominees {
			if n.SharePercentage <= 0 {
				return internal_utils.ErrInvalidNomineeShares
			}
			total += n.SharePercentage
		}
		if total != constants.NomineeShareTotal {
			return internal_utils.ErrInvalidNomineeShares
		}
	case models.KindNOC:
		if !in.NOCType.Valid() {
			return internal_utils.ErrInvalidNOCType
		}
		cfg := s.registry.ConfigFor(in.NOCType)
		if cfg.RequiresBuyerInfo && (in.Buyer == nil || in.Buyer.Name == "" || in.Buyer.Email == "") {
			return internal_utils.ErrMissingBuyerInfo
		}
		if cfg.RequiresPurposeDescription && strings.TrimSpace(utils.Val(in.PurposeDescription)) == "" {
			return internal_utils.ErrMissingPurpose
		}
		probe := &models.Submission{
			Kind:      models.KindNOC,
			Documents: in.Documents,
			NOC:       &models.NOCDetails{NOCType: in.NOCType},
		}
		if missing := s.enclosures.MissingRequired(probe); len(missing) > 0 {
			return &utils.AppError{
				StatusCode: http.StatusBadRequest,
				Code:       utils.ErrCodeMissingDocuments,
				Message:    "Required documents are missing: " + strings.Join(missing, ", "),
				Err:        internal_utils.ErrMissingDocuments,
				Details:    missing,
			}
		}
	}
	return nil
}

func (s *SubmissionService) buildSubmission(in CreateSubmissionInput) *models.Submission {
	now := s.now().UTC()
	sub := &models.Submission{
		ID:         uuid.New(),
		Kind:       in.Kind,
		FlatNumber: in.FlatNumber,
		Wing:       in.Wing,
		Applicant:  in.Applicant,
		Status:     models.StatusPending,
		Documents:  in.Documents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch in.Kind {
	case models.KindShareCertificate:
		sub.ShareCertificate = in.ShareCertificate
	case models.KindNomination:
		sub.Nomination = in.Nomination
	case models.KindNOC:
		noc := &models.NOCDetails{NOCType: in.NOCType}
		cfg := s.registry.ConfigFor(in.NOCType)
		if cfg.RequiresBuyerInfo {
			noc.Buyer = in.Buyer
		}
		if cfg.RequiresPurposeDescription {
			noc.PurposeDescription = in.PurposeDescription
		}
		sub.NOC = noc
	}
	return sub
}

/* ───────────── reads ───────────── */

// CheckPending is the public pre-check used by the forms before upload.
func (s *SubmissionService) CheckPending(ctx context.Context, kind models.SubmissionKind, unit models.UnitKey) (ConflictResult, error) {
	if !kind.Valid() {
		return ConflictResult{}, toAppError(internal_utils.ErrInvalidKind)
	}
	res, err := s.guard.CheckConflict(ctx, kind, unit)
	if err != nil {
		return ConflictResult{}, toAppError(err)
	}
	return res, nil
}

func (s *SubmissionService) GetByAck(ctx context.Context, ack string) (*models.Submission, error) {
	if !ValidAckNumber(ack) {
		return nil, toAppError(internal_utils.ErrInvalidAckNumber)
	}
	sub, err := s.repo.GetByAcknowledgementNumber(ctx, ack)
	if err != nil {
		return nil, toAppError(err)
	}
	if sub == nil {
		return nil, toAppError(internal_utils.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (s *SubmissionService) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	if sub == nil {
		return nil, toAppError(internal_utils.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (s *SubmissionService) List(ctx context.Context, f repositories.SubmissionFilter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = constants.DefaultListPageSize
	}
	if f.Limit > constants.MaxListPageSize {
		f.Limit = constants.MaxListPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, toAppError(err)
	}
	if items == nil {
		items = []*models.Submission{}
	}
	return &ListResult{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *SubmissionService) History(ctx context.Context, id uuid.UUID) ([]*models.StatusHistory, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	h, err := s.repo.ListStatusHistory(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	if h == nil {
		h = []*models.StatusHistory{}
	}
	return h, nil
}

func (s *SubmissionService) GetStatistics(ctx context.Context, kind models.SubmissionKind) (*Statistics, error) {
	if !kind.Valid() {
		return nil, toAppError(internal_utils.ErrInvalidKind)
	}
	st, err := s.stats.Aggregate(ctx, kind)
	if err != nil {
		return nil, toAppError(err)
	}
	return st, nil
}

// GetAllStatistics aggregates every kind, in models.AllKinds order.
func (s *SubmissionService) GetAllStatistics(ctx context.Context) ([]*Statistics, error) {
	all, err := s.stats.AggregateAll(ctx)
	if err != nil {
		return nil, toAppError(err)
	}
	return all, nil
}

func (s *SubmissionService) ResolveEnclosures(ctx context.Context, id uuid.UUID) ([]Enclosure, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enclosures.Resolve(sub), nil
}

/* ───────────── staff mutations ───────────── */

// TransitionStatus applies a review decision. kind must match the stored
// submission so a staff screen for one form cannot edit another.
func (s *SubmissionService) TransitionStatus(
	ctx context.Context,
	kind models.SubmissionKind,
	id uuid.UUID,
	status models.SubmissionStatus,
	remarks *string,
	reviewer string,
) (*models.Submission, error) {
	if !status.Valid() {
		return nil, toAppError(internal_utils.ErrInvalidStatus)
	}
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Kind != kind {
		return nil, toAppError(internal_utils.ErrKindMismatch)
	}
	if remarks != nil && strings.TrimSpace(*remarks) == "" {
		remarks = nil
	}
	updated, err := s.lifecycle.Transition(ctx, id, status, remarks, reviewer)
	if err != nil {
		return nil, toAppError(err)
	}
	return updated, nil
}

// UpdatePayment records a NOC payment outcome keyed by acknowledgement number.
func (s *SubmissionService) UpdatePayment(
	ctx context.Context,
	ack string,
	status models.PaymentStatus,
	transactionID *string,
	paymentDate *time.Time,
) (*models.Submission, error) {
	if !status.Valid() {
		return nil, toAppError(internal_utils.ErrInvalidPaymentStatus)
	}
	sub, err := s.GetByAck(ctx, ack)
	if err != nil {
		return nil, err
	}
	if sub.Kind != models.KindNOC {
		return nil, toAppError(internal_utils.ErrNotNOCSubmission)
	}
	updated, err := s.lifecycle.UpdatePayment(ctx, sub.ID, repositories.PaymentUpdate{
		Status:        status,
		TransactionID: transactionID,
		PaymentDate:   paymentDate,
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return updated, nil
}

// Delete soft-deletes a submission. Its number stays reserved and the unit
// becomes free for a new application.
func (s *SubmissionService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return toAppError(err)
	}
	utils.Logger.WithFields(logrus.Fields{"id": id, "actor": actor}).Info("Submission deleted")
	return nil
}

func (s *SubmissionService) Registry() []NOCTypeConfig {
	return s.registry.All()
}

/* ───────────── error mapping ───────────── */

func conflictError(c ConflictResult) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusConflict,
		Code:       utils.ErrCodeConflict,
		Message:    c.Message,
		Err:        internal_utils.ErrDuplicateSubmission,
		Details:    c,
	}
}

func toAppError(err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, internal_utils.ErrSubmissionNotFound):
		return utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "Submission not found", err)
	case errors.Is(err, internal_utils.ErrDuplicateSubmission):
		return utils.NewAppError(http.StatusConflict, utils.ErrCodeConflict, "A submission for this flat already exists", err)
	case errors.Is(err, utils.ErrRowVersionConflict):
		return utils.NewAppError(http.StatusConflict, utils.ErrCodeRowVersionConflict, "Submission was modified concurrently, please retry", err)
	case errors.Is(err, internal_utils.ErrInvalidAckNumber):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidAckNumber, "Acknowledgement number must look like NOC-20250101-00001", err)
	case errors.Is(err, internal_utils.ErrMissingDocuments):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeMissingDocuments, "Required documents are missing", err)
	case errors.Is(err, internal_utils.ErrMissingBuyerInfo):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "Buyer name and email are required for a flat transfer", err)
	case errors.Is(err, internal_utils.ErrMissingPurpose):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "Purpose description is required", err)
	case errors.Is(err, internal_utils.ErrInvalidNomineeShares):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
			fmt.Sprintf("Nominee shares must be positive and total %d%%", constants.NomineeShareTotal), err)
	case errors.Is(err, internal_utils.ErrInvalidKind),
		errors.Is(err, internal_utils.ErrInvalidStatus),
		errors.Is(err, internal_utils.ErrInvalidNOCType),
		errors.Is(err, internal_utils.ErrInvalidPaymentStatus),
		errors.Is(err, internal_utils.ErrNotNOCSubmission),
		errors.Is(err, internal_utils.ErrKindMismatch):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, humanize(err), err)
	default:
		return utils.NewAppError(http.StatusInternalServerError, utils.ErrCodeInternal, "An unexpected error occurred", err)
	}
}

// humanize turns "invalid_noc_type" into "Invalid noc type".
func humanize(err error) string {
	s := strings.ReplaceAll(err.Error(), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/society-service/internal/metrics"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/poofware/society-service/pkg/utils"
	"github.com/sirupsen/logrus"
)

// TransitionAllowed is total over the five statuses: any valid status may
// follow any other, including moving back from a decision.
func TransitionAllowed(from, to models.SubmissionStatus) bool {
	return from.Valid() && to.Valid()
}

// LifecycleService owns status and payment mutations and the notifications
// each one triggers. Writes happen first; notifications never undo them.
type LifecycleService struct {
	repo       repositories.SubmissionRepository
	notifier   Notifier
	registry   *NOCTypeRegistry
	metrics    *metrics.Metrics
	committee  []string
	smsEnabled bool
	now        func() time.Time
}

func NewLifecycleService(
	repo repositories.SubmissionRepository,
	notifier Notifier,
	registry *NOCTypeRegistry,
	m *metrics.Metrics,
	committeeCC []string,
	smsEnabled bool,
) *LifecycleService {
	return &LifecycleService{
		repo:       repo,
		notifier:   notifier,
		registry:   registry,
		metrics:    m,
		committee:  committeeCC,
		smsEnabled: smsEnabled,
		now:        time.Now,
	}
}

// Transition applies a staff review decision to the submission with id.
func (s *LifecycleService) Transition(
	ctx context.Context,
	id uuid.UUID,
	newStatus models.SubmissionStatus,
	remarks *string,
	reviewer string,
) (*models.Submission, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, internal_utils.ErrSubmissionNotFound
	}
	if !TransitionAllowed(current.Status, newStatus) {
		return nil, internal_utils.ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, id, repositories.StatusUpdate{
		Status:     newStatus,
		Remarks:    remarks,
		ReviewedBy: reviewer,
		ReviewedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	logger := utils.Logger.WithFields(logrus.Fields{
		"ack":      updated.AcknowledgementNumber,
		"from":     current.Status,
		"to":       newStatus,
		"reviewer": reviewer,
	})
	logger.Info("Submission status updated")
	s.metrics.StatusTransitions.WithLabelValues(string(updated.Kind), string(newStatus)).Inc()

	if updated.HasSettlementGap() {
		s.metrics.SettlementGaps.Inc()
		logger.WithField("paymentStatus", updated.NOC.PaymentStatus).
			Warn("Fee-bearing NOC approved before payment was marked Paid")
	}

	for _, n := range s.TransitionNotifications(updated) {
		s.notifier.Dispatch(ctx, n)
	}
	return updated, nil
}

// UpdatePayment records a payment outcome. Only a move to Paid notifies.
func (s *LifecycleService) UpdatePayment(
	ctx context.Context,
	id uuid.UUID,
	upd repositories.PaymentUpdate,
) (*models.Submission, error) {
	if upd.Status == models.PaymentPaid && upd.PaymentDate == nil {
		now := s.now().UTC()
		upd.PaymentDate = &now
	}
	updated, err := s.repo.UpdatePayment(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	utils.Logger.WithFields(logrus.Fields{
		"ack":           updated.AcknowledgementNumber,
		"paymentStatus": upd.Status,
	}).Info("NOC payment status updated")

	if upd.Status == models.PaymentPaid {
		s.notifier.Dispatch(ctx, s.paymentNotification(updated))
	}
	return updated, nil
}

// NotifyCreated sends the acknowledgement for a freshly accepted submission.
func (s *LifecycleService) NotifyCreated(ctx context.Context, sub *models.Submission, fees *FeeDetails) {
	s.notifier.Dispatch(ctx, s.CreationNotification(sub, fees))
}

// CreationNotification addresses the acknowledgement. Flat transfers go to
// seller and buyer together; everything else to the applicant. The committee
// is always CC'd.
func (s *LifecycleService) CreationNotification(sub *models.Submission, fees *FeeDetails) Notification {
	to := []string{sub.Applicant.Email}
	if buyer := s.buyerFor(sub); buyer != nil && s.isFlatTransfer(sub) {
		to = append(to, buyer.Email)
	}
	return Notification{
		To:       to,
		CC:       append([]string(nil), s.committee...),
		Template: TemplateAcknowledgement,
		Data:     s.baseData(sub, sub.Applicant.Name, fees),
	}
}

// TransitionNotifications returns the messages a transition to sub.Status fans out.
func (s *LifecycleService) TransitionNotifications(sub *models.Submission) []Notification {
	primary := Notification{
		To:       []string{sub.Applicant.Email},
		Template: TemplateStatusUpdate,
		Data:     s.baseData(sub, sub.Applicant.Name, nil),
	}
	if s.smsEnabled && sub.Applicant.Phone != "" {
		primary.SMSTo = []string{sub.Applicant.Phone}
	}
	out := []Notification{primary}

	if sub.Status == models.StatusApproved && s.isFlatTransfer(sub) {
		if buyer := s.buyerFor(sub); buyer != nil {
			data := s.baseData(sub, buyer.Name, nil)
			data.CounterpartyName = sub.Applicant.Name
			n := Notification{
				To:       []string{buyer.Email},
				Template: TemplateBuyerApproval,
				Data:     data,
			}
			if s.smsEnabled && buyer.Phone != "" {
				n.SMSTo = []string{buyer.Phone}
			}
			out = append(out, n)
		}
	}
	return out
}

func (s *LifecycleService) paymentNotification(sub *models.Submission) Notification {
	data := s.baseData(sub, sub.Applicant.Name, nil)
	data.Amount = sub.NOC.TotalAmount
	data.TransactionID = utils.Val(sub.NOC.PaymentTransactionID)
	return Notification{
		To:       []string{sub.Applicant.Email},
		Template: TemplatePaymentConfirmation,
		Data:     data,
	}
}

func (s *LifecycleService) baseData(sub *models.Submission, recipient string, fees *FeeDetails) NotificationData {
	d := NotificationData{
		RecipientName:         recipient,
		AcknowledgementNumber: sub.AcknowledgementNumber,
		KindLabel:             sub.Kind.DisplayName(),
		FlatLabel:             flatLabel(sub.UnitKey()),
		Status:                sub.Status,
		Remarks:               utils.Val(sub.AdminRemarks),
		Fees:                  fees,
	}
	if sub.NOC != nil {
		d.NOCTypeLabel = s.registry.ConfigFor(sub.NOC.NOCType).DisplayName
	}
	return d
}

func (s *LifecycleService) isFlatTransfer(sub *models.Submission) bool {
	return sub.Kind == models.KindNOC && sub.NOC != nil && sub.NOC.NOCType == models.NOCTypeFlatTransfer
}

func (s *LifecycleService) buyerFor(sub *models.Submission) *models.Party {
	if sub.NOC == nil || sub.NOC.Buyer == nil || sub.NOC.Buyer.Email == "" {
		return nil
	}
	return sub.NOC.Buyer
}

package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
)

// MemorySubmissionRepository is an in-process store used by tests and
// DB_URL=memory:// local runs. It enforces the same uniqueness rules as the
// Postgres schema.
type MemorySubmissionRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Submission
	byAck   map[string]uuid.UUID
	history map[uuid.UUID][]*models.StatusHistory
	now     func() time.Time
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{
		byID:    make(map[uuid.UUID]*models.Submission),
		byAck:   make(map[string]uuid.UUID),
		history: make(map[uuid.UUID][]*models.StatusHistory),
		now:     time.Now,
	}
}

func (m *MemorySubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(s)
}

// CreateSequenced counts the day's rows and inserts under one lock, so the
// sequence is count+1 and a rejected insert leaves no gap.
func (m *MemorySubmissionRepository) CreateSequenced(ctx context.Context, s *models.Submission, day AckDay, number AckNumberFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Kind != models.KindNOC && m.activeForUnitLocked(s.Kind, s.UnitKey()) != nil {
		return internal_utils.ErrDuplicateSubmission
	}
	ack, err := number(m.countCreatedLocked(s.Kind, day.Start, day.End) + 1)
	if err != nil {
		return err
	}
	s.AcknowledgementNumber = ack
	return m.createLocked(s)
}

func (m *MemorySubmissionRepository) createLocked(s *models.Submission) error {
	if _, taken := m.byAck[s.AcknowledgementNumber]; taken {
		return internal_utils.ErrAckNumberTaken
	}
	if s.Kind != models.KindNOC && m.activeForUnitLocked(s.Kind, s.UnitKey()) != nil {
		return internal_utils.ErrDuplicateSubmission
	}

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	s.UpdatedAt = s.CreatedAt
	s.RowVersion = 1

	m.byID[s.ID] = cloneSubmission(s)
	m.byAck[s.AcknowledgementNumber] = s.ID
	return nil
}

func (m *MemorySubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok || s.DeletedAt != nil {
		return nil, nil
	}
	return cloneSubmission(s), nil
}

func (m *MemorySubmissionRepository) GetByAcknowledgementNumber(ctx context.Context, ack string) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byAck[ack]
	if !ok {
		return nil, nil
	}
	s := m.byID[id]
	if s.DeletedAt != nil {
		return nil, nil
	}
	return cloneSubmission(s), nil
}

func (m *MemorySubmissionRepository) FindByUnitKey(ctx context.Context, kind models.SubmissionKind, unit models.UnitKey) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.activeForUnitLocked(kind, unit); s != nil {
		return cloneSubmission(s), nil
	}
	return nil, nil
}

// activeForUnitLocked returns the newest non-deleted submission for the unit.
func (m *MemorySubmissionRepository) activeForUnitLocked(kind models.SubmissionKind, unit models.UnitKey) *models.Submission {
	var latest *models.Submission
	for _, s := range m.byID {
		if s.DeletedAt != nil || s.Kind != kind || s.UnitKey() != unit {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	return latest
}

func (m *MemorySubmissionRepository) List(ctx context.Context, f SubmissionFilter) ([]*models.Submission, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.Submission
	for _, s := range m.byID {
		if s.DeletedAt != nil {
			continue
		}
		if f.Kind != nil && s.Kind != *f.Kind {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.PaymentStatus != nil && (s.NOC == nil || s.NOC.PaymentStatus != *f.PaymentStatus) {
			continue
		}
		if f.FlatNumber != "" && s.FlatNumber != f.FlatNumber {
			continue
		}
		if f.Wing != "" && s.Wing != f.Wing {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].AcknowledgementNumber > matched[j].AcknowledgementNumber
	})

	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	out := make([]*models.Submission, 0, end-start)
	for _, s := range matched[start:end] {
		out = append(out, cloneSubmission(s))
	}
	return out, total, nil
}

func (m *MemorySubmissionRepository) ListStatusHistory(ctx context.Context, id uuid.UUID) ([]*models.StatusHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.StatusHistory, 0, len(m.history[id]))
	for _, h := range m.history[id] {
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemorySubmissionRepository) CountCreatedBetween(ctx context.Context, kind models.SubmissionKind, start, end time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countCreatedLocked(kind, start, end), nil
}

func (m *MemorySubmissionRepository) countCreatedLocked(kind models.SubmissionKind, start, end time.Time) int64 {
	var n int64
	for _, s := range m.byID {
		if s.Kind == kind && !s.CreatedAt.Before(start) && s.CreatedAt.Before(end) {
			n++
		}
	}
	return n
}

func (m *MemorySubmissionRepository) AggregateCounts(ctx context.Context, kind models.SubmissionKind) (map[models.SubmissionStatus]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[models.SubmissionStatus]int64)
	for _, s := range m.byID {
		if s.DeletedAt == nil && s.Kind == kind {
			out[s.Status]++
		}
	}
	return out, nil
}

func (m *MemorySubmissionRepository) AggregatePayments(ctx context.Context) (PaymentAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var agg PaymentAggregate
	for _, s := range m.byID {
		if s.DeletedAt != nil || s.Kind != models.KindNOC || s.NOC == nil {
			continue
		}
		switch s.NOC.PaymentStatus {
		case models.PaymentPending:
			agg.Pending++
		case models.PaymentPaid:
			agg.Paid++
			agg.Revenue += s.NOC.TotalAmount
		case models.PaymentFailed:
			agg.Failed++
		}
	}
	return agg, nil
}

func (m *MemorySubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.DeletedAt != nil {
		return nil, internal_utils.ErrSubmissionNotFound
	}

	from := s.Status
	reviewedAt := upd.ReviewedAt
	reviewedBy := upd.ReviewedBy
	s.Status = upd.Status
	s.AdminRemarks = upd.Remarks
	s.ReviewedAt = &reviewedAt
	s.ReviewedBy = &reviewedBy
	s.UpdatedAt = m.now()
	s.RowVersion++

	m.history[id] = append(m.history[id], &models.StatusHistory{
		ID:           uuid.New(),
		SubmissionID: id,
		FromStatus:   &from,
		ToStatus:     upd.Status,
		Remarks:      upd.Remarks,
		ChangedBy:    upd.ReviewedBy,
		ChangedAt:    upd.ReviewedAt,
	})
	return cloneSubmission(s), nil
}

func (m *MemorySubmissionRepository) UpdatePayment(ctx context.Context, id uuid.UUID, upd PaymentUpdate) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.DeletedAt != nil {
		return nil, internal_utils.ErrSubmissionNotFound
	}
	if s.NOC == nil {
		return nil, internal_utils.ErrNotNOCSubmission
	}
	s.NOC.PaymentStatus = upd.Status
	if upd.TransactionID != nil {
		s.NOC.PaymentTransactionID = upd.TransactionID
	}
	if upd.PaymentDate != nil {
		s.NOC.PaymentDate = upd.PaymentDate
	}
	s.UpdatedAt = m.now()
	s.RowVersion++
	return cloneSubmission(s), nil
}

func (m *MemorySubmissionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.DeletedAt != nil {
		return internal_utils.ErrSubmissionNotFound
	}
	now := m.now()
	s.DeletedAt = &now
	return nil
}

func cloneSubmission(s *models.Submission) *models.Submission {
	cp := *s
	if s.Documents != nil {
		cp.Documents = make(models.DocumentSet, len(s.Documents))
		for k, v := range s.Documents {
			cp.Documents[k] = v
		}
	}
	if s.NOC != nil {
		noc := *s.NOC
		cp.NOC = &noc
	}
	if s.ShareCertificate != nil {
		sc := *s.ShareCertificate
		cp.ShareCertificate = &sc
	}
	if s.Nomination != nil {
		nom := *s.Nomination
		nom.Nominees = append([]models.Nominee(nil), s.Nomination.Nominees...)
		cp.Nomination = &nom
	}
	return &cp
}

var _ SubmissionRepository = (*MemorySubmissionRepository)(nil)

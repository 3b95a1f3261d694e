package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poofware/society-service/internal/metrics"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ist = mustLoad("Asia/Kolkata")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// fakeMailer records every send. Any message addressed to a recipient in
// failFor is rejected.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []internal_utils.Email
	failFor map[string]bool
}

func newFakeMailer(failFor ...string) *fakeMailer {
	f := &fakeMailer{failFor: map[string]bool{}}
	for _, a := range failFor {
		f.failFor[strings.ToLower(a)] = true
	}
	return f
}

func (f *fakeMailer) Send(_ context.Context, msg internal_utils.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range append(append([]string{}, msg.To...), msg.CC...) {
		if f.failFor[strings.ToLower(a)] {
			return errors.New("mailbox unavailable: " + a)
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Sent() []internal_utils.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]internal_utils.Email(nil), f.sent...)
}

// recordingNotifier captures notifications without rendering them.
type recordingNotifier struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recordingNotifier) Dispatch(_ context.Context, n Notification) DispatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return DispatchResult{Delivered: append(append([]string{}, n.To...), n.CC...)}
}

func (r *recordingNotifier) Reset() {
	r.mu.Lock()
	r.got = nil
	r.mu.Unlock()
}

func (r *recordingNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

type mockSMSSender struct {
	mock.Mock
}

func (m *mockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

type mockSequenceAllocator struct {
	mock.Mock
}

func (m *mockSequenceAllocator) Next(ctx context.Context, kind models.SubmissionKind, day repositories.AckDay) (int64, error) {
	args := m.Called(ctx, kind, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSequenceAllocator) Release(ctx context.Context, kind models.SubmissionKind, day repositories.AckDay, seq int64) (bool, error) {
	args := m.Called(ctx, kind, day, seq)
	return args.Bool(0), args.Error(1)
}

// guardBlindRepo hides existing rows from the duplicate pre-check, which is
// what two concurrent creates for the same unit both observe.
type guardBlindRepo struct {
	*repositories.MemorySubmissionRepository
}

func (guardBlindRepo) FindByUnitKey(context.Context, models.SubmissionKind, models.UnitKey) (*models.Submission, error) {
	return nil, nil
}

var committeeCC = []string{"chairman@society.test", "secretary@society.test"}

type testEnv struct {
	repo      *repositories.MemorySubmissionRepository
	registry  *NOCTypeRegistry
	notifier  *recordingNotifier
	lifecycle *LifecycleService
	svc       *SubmissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := repositories.NewMemorySubmissionRepository()
	registry := NewNOCTypeRegistry()
	m := metrics.NewNoop()
	notifier := &recordingNotifier{}
	lifecycle := NewLifecycleService(repo, notifier, registry, m, committeeCC, false)
	acks := NewAckNumberService(nil, ist)
	svc := NewSubmissionService(repo, registry, acks, lifecycle, m)
	return &testEnv{repo: repo, registry: registry, notifier: notifier, lifecycle: lifecycle, svc: svc}
}

func doc(name string) *models.DocumentRef {
	return &models.DocumentRef{FileName: name, FileURL: "https://files.society.test/" + name, FileType: "application/pdf"}
}

func flatTransferInput(flat string) CreateSubmissionInput {
	return CreateSubmissionInput{
		Kind:       models.KindNOC,
		FlatNumber: flat,
		Wing:       "A",
		Applicant:  models.Party{Name: "Seller Shah", Email: "seller@example.com", Phone: "+919800000001"},
		NOCType:    models.NOCTypeFlatTransfer,
		Buyer:      &models.Party{Name: "Buyer Rao", Email: "buyer@example.com", Phone: "+919800000002"},
		Documents: models.DocumentSet{
			models.DocShareCertificate:   doc("share.pdf"),
			models.DocAgreement:          doc("agreement.pdf"),
			models.DocMaintenanceReceipt: doc("maintenance.pdf"),
			models.DocSellerAadhaar:      doc("seller-aadhaar.pdf"),
			models.DocBuyerAadhaar:       doc("buyer-aadhaar.pdf"),
		},
	}
}

func shareCertificateInput(flat string) CreateSubmissionInput {
	return CreateSubmissionInput{
		Kind:             models.KindShareCertificate,
		FlatNumber:       flat,
		Wing:             "B",
		Applicant:        models.Party{Name: "Member Iyer", Email: "member@example.com"},
		ShareCertificate: &models.ShareCertificateDetails{Declaration: true},
	}
}

func createOK(t *testing.T, env *testEnv, in CreateSubmissionInput) *models.Submission {
	t.Helper()
	res, err := env.svc.CreateSubmission(context.Background(), in)
	require.NoError(t, err)
	return res.Submission
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/poofware/society-service/internal/metrics"
	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func statusNotification(to []string, cc ...string) Notification {
	return Notification{
		To:       to,
		CC:       cc,
		Template: TemplateStatusUpdate,
		Data: NotificationData{
			RecipientName:         "Member",
			AcknowledgementNumber: "SC-20250101-00001",
			KindLabel:             "Share Certificate",
			FlatLabel:             "A-101",
			Status:                models.StatusApproved,
		},
	}
}

func TestDispatch_CombinedSend(t *testing.T) {
	mailer := newFakeMailer()
	d := NewNotificationDispatcher(mailer, metrics.NewNoop(), "Green Acres CHS")

	res := d.Dispatch(context.Background(), statusNotification([]string{"a@example.com"}, "c@example.com"))
	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com"}, res.Delivered)
	require.Len(t, mailer.Sent(), 1)
	msg := mailer.Sent()[0]
	assert.Equal(t, []string{"a@example.com"}, msg.To)
	assert.Equal(t, []string{"c@example.com"}, msg.CC)
	assert.Contains(t, msg.Subject, "SC-20250101-00001")
	assert.Contains(t, msg.HTML, "Congratulations")
}

func TestDispatch_CCFailureStillDeliversPrimary(t *testing.T) {
	mailer := newFakeMailer("broken@example.com")
	d := NewNotificationDispatcher(mailer, metrics.NewNoop(), "Green Acres CHS")

	res := d.Dispatch(context.Background(),
		statusNotification([]string{"a@example.com"}, "broken@example.com", "ok@example.com"))

	assert.ElementsMatch(t, []string{"a@example.com", "ok@example.com"}, res.Delivered)
	assert.Equal(t, []string{"broken@example.com"}, res.Failed)
	assert.Len(t, mailer.Sent(), 2)
}

func TestDispatch_MalformedAddressesAreDropped(t *testing.T) {
	mailer := newFakeMailer()
	d := NewNotificationDispatcher(mailer, metrics.NewNoop(), "Green Acres CHS")

	res := d.Dispatch(context.Background(),
		statusNotification([]string{"not-an-email", " A@example.com "}, "a@example.com", "", "also bad"))

	assert.ElementsMatch(t, []string{"not-an-email", "also bad"}, res.Dropped)
	require.Len(t, mailer.Sent(), 1)
	assert.Equal(t, []string{"A@example.com"}, mailer.Sent()[0].To)
	assert.Empty(t, mailer.Sent()[0].CC)
}

func TestDispatch_PromotesCCWhenPrimaryInvalid(t *testing.T) {
	mailer := newFakeMailer()
	d := NewNotificationDispatcher(mailer, metrics.NewNoop(), "Green Acres CHS")

	d.Dispatch(context.Background(), statusNotification([]string{"bogus"}, "chair@example.com"))
	require.Len(t, mailer.Sent(), 1)
	assert.Equal(t, []string{"chair@example.com"}, mailer.Sent()[0].To)
}

type panickingMailer struct{}

func (panickingMailer) Send(context.Context, internal_utils.Email) error { panic("boom") }

func TestDispatch_MailerPanicIsContained(t *testing.T) {
	d := NewNotificationDispatcher(panickingMailer{}, metrics.NewNoop(), "Green Acres CHS")
	assert.NotPanics(t, func() {
		res := d.Dispatch(context.Background(), statusNotification([]string{"a@example.com"}))
		assert.Equal(t, []string{"a@example.com"}, res.Failed)
	})
}

func TestDispatch_AsyncIsDrainedByWait(t *testing.T) {
	mailer := newFakeMailer()
	d := NewNotificationDispatcher(mailer, metrics.NewNoop(), "Green Acres CHS", WithAsyncDelivery(true))

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		res := d.Dispatch(ctx, statusNotification([]string{"a@example.com"}))
		assert.True(t, res.Queued)
	}
	cancel()
	d.Wait()
	assert.Len(t, mailer.Sent(), 5)
}

func TestDispatch_SMSMirrorIsIsolated(t *testing.T) {
	mailer := newFakeMailer()
	sms := &mockSMSSender{}
	sms.On("SendSMS", mock.Anything, "+919800000001", mock.AnythingOfType("string")).
		Return(errors.New("twilio down")).Once()
	d := NewNotificationDispatcher(mailer, metrics.NewNoop(), "Green Acres CHS", WithSMS(sms))

	n := statusNotification([]string{"a@example.com"})
	n.SMSTo = []string{"+919800000001"}
	res := d.Dispatch(context.Background(), n)

	assert.Equal(t, []string{"a@example.com"}, res.Delivered)
	sms.AssertExpectations(t)

	ack := statusNotification([]string{"a@example.com"})
	ack.Template = TemplateAcknowledgement
	ack.SMSTo = []string{"+919800000001"}
	d.Dispatch(context.Background(), ack)
	sms.AssertNumberOfCalls(t, "SendSMS", 1)
}

func TestToneAndHeadline(t *testing.T) {
	assert.Equal(t, TonePositive, ToneFor(models.StatusApproved))
	assert.Equal(t, ToneNegative, ToneFor(models.StatusRejected))
	assert.Equal(t, ToneWarning, ToneFor(models.StatusUnderReview))
	assert.Equal(t, ToneWarning, ToneFor(models.StatusDocumentRequired))
	assert.Equal(t, ToneNeutral, ToneFor(models.StatusPending))

	assert.Contains(t, HeadlineFor(models.StatusApproved, "nomination"), "approved")
	assert.Contains(t, HeadlineFor(models.StatusRejected, "nomination"), "regret")
}

func TestRenderEmail_EscapesUserInput(t *testing.T) {
	msg, err := renderEmail("Green Acres CHS", TemplateStatusUpdate, NotificationData{
		RecipientName:         "<script>x</script>",
		AcknowledgementNumber: "NOM-20250101-00002",
		KindLabel:             "Nomination",
		Status:                models.StatusDocumentRequired,
		Remarks:               "Upload <b>ID</b>",
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;ID&lt;/b&gt;")
	assert.Contains(t, msg.PlainText, "Remarks: Upload <b>ID</b>")

	_, err = renderEmail("Green Acres CHS", TemplateKey("unknown"), NotificationData{})
	assert.Error(t, err)
}

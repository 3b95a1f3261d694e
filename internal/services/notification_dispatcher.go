package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/internal/metrics"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/poofware/society-service/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Notification is one logical message: a template, its data, and who gets it.
type Notification struct {
	To       []string
	CC       []string
	SMSTo    []string
	Template TemplateKey
	Data     NotificationData
}

// DispatchResult reports per-address outcomes. It is informational only.
type DispatchResult struct {
	Queued    bool
	Delivered []string
	Failed    []string
	Dropped   []string
}

// Notifier never fails the caller; outcomes are logged and counted.
type Notifier interface {
	Dispatch(ctx context.Context, n Notification) DispatchResult
}

type NotificationDispatcher struct {
	mailer      internal_utils.Mailer
	sms         internal_utils.SMSSender
	metrics     *metrics.Metrics
	orgName     string
	async       bool
	sendTimeout time.Duration
	validate    *validator.Validate
	wg          sync.WaitGroup
}

type DispatcherOption func(*NotificationDispatcher)

// WithAsyncDelivery makes Dispatch return immediately; delivery runs on a
// tracked goroutine that Wait drains.
func WithAsyncDelivery(async bool) DispatcherOption {
	return func(d *NotificationDispatcher) { d.async = async }
}

// WithSMS mirrors status updates as text messages.
func WithSMS(sender internal_utils.SMSSender) DispatcherOption {
	return func(d *NotificationDispatcher) { d.sms = sender }
}

func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *NotificationDispatcher) { d.sendTimeout = timeout }
}

func NewNotificationDispatcher(
	mailer internal_utils.Mailer,
	m *metrics.Metrics,
	orgName string,
	opts ...DispatcherOption,
) *NotificationDispatcher {
	d := &NotificationDispatcher{
		mailer:      mailer,
		metrics:     m,
		orgName:     orgName,
		sendTimeout: constants.NotificationSendTimeout,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, n Notification) DispatchResult {
	if !d.async {
		return d.deliver(ctx, n)
	}
	// Detach from the request so delivery outlives the HTTP response.
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(bg, n)
	}()
	return DispatchResult{Queued: true}
}

// Wait blocks until every queued delivery has finished.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) deliver(ctx context.Context, n Notification) (res DispatchResult) {
	start := time.Now()
	logger := utils.Logger.WithFields(logrus.Fields{
		"template": n.Template,
		"ack":      n.Data.AcknowledgementNumber,
	})
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Notification dispatch panicked: %v", r)
			d.metrics.NotificationFailures.WithLabelValues(string(n.Template), "email").Inc()
			res.Failed = append(res.Failed, n.To...)
		}
		d.metrics.ObserveDispatch(start)
	}()

	to, cc, dropped := d.sanitize(n.To, n.CC)
	res.Dropped = dropped
	if len(dropped) > 0 {
		d.metrics.InvalidRecipients.Add(float64(len(dropped)))
		logger.WithField("dropped", dropped).Warn("Dropped malformed notification recipients")
	}
	if len(to) == 0 {
		to, cc = cc, nil
	}
	if len(to) > 0 {
		d.deliverEmail(ctx, logger, n, to, cc, &res)
	} else {
		logger.Warn("Notification has no deliverable email recipients")
	}

	d.deliverSMS(ctx, logger, n)
	return res
}

func (d *NotificationDispatcher) deliverEmail(
	ctx context.Context,
	logger *logrus.Entry,
	n Notification,
	to, cc []string,
	res *DispatchResult,
) {
	msg, err := renderEmail(d.orgName, n.Template, n.Data)
	if err != nil {
		logger.WithError(err).Error("Failed to render notification")
		d.metrics.NotificationFailures.WithLabelValues(string(n.Template), "email").Inc()
		res.Failed = append(res.Failed, to...)
		res.Failed = append(res.Failed, cc...)
		return
	}

	msg.To, msg.CC = to, cc
	err = d.send(ctx, msg)
	if err == nil {
		d.metrics.NotificationsSent.WithLabelValues(string(n.Template), "email").Inc()
		res.Delivered = append(res.Delivered, to...)
		res.Delivered = append(res.Delivered, cc...)
		return
	}
	logger.WithError(err).Warn("Combined notification send failed, retrying recipients individually")

	// One bad address must not cost the others their copy.
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(4)
	for _, addr := range append(append([]string{}, to...), cc...) {
		addr := addr
		g.Go(func() error {
			single := msg
			single.To, single.CC = []string{addr}, nil
			err := d.send(ctx, single)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WithError(err).WithField("recipient", addr).Error("Failed to deliver notification")
				d.metrics.NotificationFailures.WithLabelValues(string(n.Template), "email").Inc()
				res.Failed = append(res.Failed, addr)
				return nil
			}
			d.metrics.NotificationsSent.WithLabelValues(string(n.Template), "email").Inc()
			res.Delivered = append(res.Delivered, addr)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *NotificationDispatcher) send(ctx context.Context, msg internal_utils.Email) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mailer panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return d.mailer.Send(ctx, msg)
}

func (d *NotificationDispatcher) deliverSMS(ctx context.Context, logger *logrus.Entry, n Notification) {
	if d.sms == nil || len(n.SMSTo) == 0 {
		return
	}
	if n.Template != TemplateStatusUpdate && n.Template != TemplateBuyerApproval {
		return
	}
	body := fmt.Sprintf("%s: %s is now %s.", d.orgName, n.Data.AcknowledgementNumber, n.Data.Status)
	if n.Template == TemplateBuyerApproval {
		body = fmt.Sprintf("%s: flat transfer NOC %s approved. Please coordinate with the seller.", d.orgName, n.Data.AcknowledgementNumber)
	}
	for _, phone := range n.SMSTo {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("SMS sender panicked: %v", r)
					d.metrics.NotificationFailures.WithLabelValues(string(n.Template), "sms").Inc()
				}
			}()
			sctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()
			if err := d.sms.SendSMS(sctx, phone, body); err != nil {
				logger.WithError(err).Warn("Failed to send status SMS")
				d.metrics.NotificationFailures.WithLabelValues(string(n.Template), "sms").Inc()
				return
			}
			d.metrics.NotificationsSent.WithLabelValues(string(n.Template), "sms").Inc()
		}()
	}
}

// sanitize trims, validates and de-duplicates addresses. CC entries already
// present in To are removed.
func (d *NotificationDispatcher) sanitize(to, cc []string) (cleanTo, cleanCC, dropped []string) {
	seen := make(map[string]bool)
	filter := func(in []string) []string {
		var out []string
		for _, raw := range in {
			addr := strings.TrimSpace(raw)
			if addr == "" {
				continue
			}
			if err := d.validate.Var(addr, "email"); err != nil {
				dropped = append(dropped, raw)
				continue
			}
			key := strings.ToLower(addr)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, addr)
		}
		return out
	}
	cleanTo = filter(to)
	cleanCC = filter(cc)
	return cleanTo, cleanCC, dropped
}

package services

import (
	"context"
	"time"

	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/pkg/utils"
	"github.com/robfig/cron/v3"
)

// DigestService e-mails the committee a morning summary of submission counts.
type DigestService struct {
	stats     *StatisticsService
	notifier  Notifier
	committee []string
	loc       *time.Location
	now       func() time.Time
}

func NewDigestService(stats *StatisticsService, notifier Notifier, committee []string, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.UTC
	}
	return &DigestService{
		stats:     stats,
		notifier:  notifier,
		committee: committee,
		loc:       loc,
		now:       time.Now,
	}
}

// Start schedules the digest. The returned cron must be stopped on shutdown.
func (s *DigestService) Start(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DailyDigestJobTimeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			utils.Logger.WithError(err).Error("Daily digest job failed")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	utils.Logger.Infof("Daily digest scheduled with spec %q in %s", spec, s.loc)
	return c, nil
}

// RunOnce builds and sends a single digest.
func (s *DigestService) RunOnce(ctx context.Context) error {
	if len(s.committee) == 0 {
		utils.Logger.Debug("No committee recipients configured; skipping digest")
		return nil
	}
	all, err := s.stats.AggregateAll(ctx)
	if err != nil {
		return err
	}
	res := s.notifier.Dispatch(ctx, Notification{
		To:       append([]string(nil), s.committee...),
		Template: TemplateDailyDigest,
		Data: NotificationData{
			Digest:     all,
			DigestDate: s.now().In(s.loc).Format("02 Jan 2006"),
		},
	})
	utils.Logger.WithField("delivered", len(res.Delivered)).Info("Daily digest dispatched")
	return nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestRunOnce(t *testing.T) {
	env := newTestEnv(t)
	createOK(t, env, flatTransferInput("1"))
	createOK(t, env, shareCertificateInput("2"))
	env.notifier.Reset()

	notifier := env.notifier
	d := NewDigestService(NewStatisticsService(env.repo), notifier, committeeCC, ist)
	d.now = func() time.Time { return time.Date(2025, 3, 14, 4, 0, 0, 0, time.UTC) }

	require.NoError(t, d.RunOnce(context.Background()))
	got := notifier.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, TemplateDailyDigest, got[0].Template)
	assert.Equal(t, committeeCC, got[0].To)
	assert.Equal(t, "14 Mar 2025", got[0].Data.DigestDate)
	require.Len(t, got[0].Data.Digest, 3)
	assert.EqualValues(t, 1, got[0].Data.Digest[0].Total)
	assert.EqualValues(t, 1, got[0].Data.Digest[2].Total)

	msg, err := renderEmail("Green Acres CHS", TemplateDailyDigest, got[0].Data)
	require.NoError(t, err)
	assert.Contains(t, msg.PlainText, "Share Certificate Application: total 1")
}

func TestDigestSkipsWithoutCommittee(t *testing.T) {
	env := newTestEnv(t)
	d := NewDigestService(NewStatisticsService(env.repo), env.notifier, nil, ist)
	require.NoError(t, d.RunOnce(context.Background()))
	assert.Empty(t, env.notifier.Notifications())
}

func TestDigestStartRejectsBadSpec(t *testing.T) {
	env := newTestEnv(t)
	d := NewDigestService(NewStatisticsService(env.repo), env.notifier, committeeCC, ist)
	_, err := d.Start("not a cron spec")
	assert.Error(t, err)

	c, err := d.Start("0 9 * * *")
	require.NoError(t, err)
	c.Stop()
}

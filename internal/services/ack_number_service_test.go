package services

import (
	"testing"
	"time"

	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAckNumberFormat(t *testing.T) {
	assert.Equal(t, "SC-20250314-00007", FormatAckNumber(models.KindShareCertificate, "20250314", 7))
	assert.Equal(t, "NOM-20250314-12345", FormatAckNumber(models.KindNomination, "20250314", 12345))

	for _, ok := range []string{"SC-20250314-00007", "NOM-20251231-99999", "NOC-20250101-00001"} {
		assert.True(t, ValidAckNumber(ok), ok)
	}
	for _, bad := range []string{"", "NOC-2025-1", "XX-20250101-00001", "noc-20250101-00001", "NOC-20250101-000001", " NOC-20250101-00001"} {
		assert.False(t, ValidAckNumber(bad), bad)
	}

	kind, date, seq, err := ParseAckNumber("NOM-20250314-00042")
	require.NoError(t, err)
	assert.Equal(t, models.KindNomination, kind)
	assert.Equal(t, "20250314", date)
	assert.EqualValues(t, 42, seq)
}

func TestAckDayUsesBusinessTimezone(t *testing.T) {
	svc := NewAckNumberService(nil, ist)
	assert.False(t, svc.External())

	// 20:00 UTC on the 14th is already the 15th in India.
	day := svc.DayFor(time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "20250315", day.Date)
	assert.Equal(t, 24*time.Hour, day.End.Sub(day.Start))

	ack, err := svc.Number(models.KindNOC, day, 1)
	require.NoError(t, err)
	assert.Equal(t, "NOC-20250315-00001", ack)

	_, err = svc.Number(models.SubmissionKind("bogus"), day, 1)
	assert.ErrorIs(t, err, internal_utils.ErrInvalidKind)
	_, err = svc.Number(models.KindNOC, day, 0)
	assert.ErrorIs(t, err, internal_utils.ErrAckAllocationExceeded)
	_, err = svc.Number(models.KindNOC, day, 100000)
	assert.ErrorIs(t, err, internal_utils.ErrAckAllocationExceeded)
}

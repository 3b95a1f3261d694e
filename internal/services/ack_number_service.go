package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
	internal_utils "github.com/poofware/society-service/internal/utils"
)

var ackNumberRe = regexp.MustCompile(constants.AckNumberPattern)

const maxAckSequence = 99999

// AckNumberService stamps <PREFIX>-<YYYYMMDD>-<NNNNN> tracking codes. The
// scheme is fixed. With a nil allocator the submission store reserves the
// sequence inside its insert; otherwise the allocator does.
type AckNumberService struct {
	alloc repositories.SequenceAllocator
	loc   *time.Location
}

func NewAckNumberService(alloc repositories.SequenceAllocator, loc *time.Location) *AckNumberService {
	if loc == nil {
		loc = time.UTC
	}
	return &AckNumberService{alloc: alloc, loc: loc}
}

// External reports whether sequences come from an allocator outside the store.
func (s *AckNumberService) External() bool {
	return s.alloc != nil
}

// DayFor returns the business day containing t.
func (s *AckNumberService) DayFor(t time.Time) repositories.AckDay {
	local := t.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return repositories.AckDay{
		Date:  start.Format(constants.AckDateLayout),
		Start: start.UTC(),
		End:   start.AddDate(0, 0, 1).UTC(),
	}
}

// Number formats seq for kind on day, rejecting sequences the five-digit
// field cannot hold.
func (s *AckNumberService) Number(kind models.SubmissionKind, day repositories.AckDay, seq int64) (string, error) {
	if !kind.Valid() {
		return "", internal_utils.ErrInvalidKind
	}
	if seq < 1 || seq > maxAckSequence {
		return "", fmt.Errorf("%w: sequence %d for %s on %s", internal_utils.ErrAckAllocationExceeded, seq, kind, day.Date)
	}
	return FormatAckNumber(kind, day.Date, seq), nil
}

// Reserve takes the next number from the external allocator.
func (s *AckNumberService) Reserve(ctx context.Context, kind models.SubmissionKind, day repositories.AckDay) (string, int64, error) {
	if !kind.Valid() {
		return "", 0, internal_utils.ErrInvalidKind
	}
	seq, err := s.alloc.Next(ctx, kind, day)
	if err != nil {
		return "", 0, err
	}
	ack, err := s.Number(kind, day, seq)
	if err != nil {
		return "", 0, err
	}
	return ack, seq, nil
}

// Release hands seq back to the external allocator.
func (s *AckNumberService) Release(ctx context.Context, kind models.SubmissionKind, day repositories.AckDay, seq int64) (bool, error) {
	return s.alloc.Release(ctx, kind, day, seq)
}

func FormatAckNumber(kind models.SubmissionKind, date string, seq int64) string {
	return fmt.Sprintf("%s-%s-%0*d", kind.AckPrefix(), date, constants.AckSequenceDigits, seq)
}

// ValidAckNumber checks the public wire format.
func ValidAckNumber(ack string) bool {
	return ackNumberRe.MatchString(ack)
}

// ParseAckNumber splits a well-formed acknowledgement number.
func ParseAckNumber(ack string) (kind models.SubmissionKind, date string, seq int64, err error) {
	m := ackNumberRe.FindStringSubmatch(ack)
	if m == nil {
		return "", "", 0, internal_utils.ErrInvalidAckNumber
	}
	switch m[1] {
	case "SC":
		kind = models.KindShareCertificate
	case "NOM":
		kind = models.KindNomination
	case "NOC":
		kind = models.KindNOC
	}
	date = ack[len(m[1])+1 : len(m[1])+9]
	seq, err = strconv.ParseInt(ack[len(ack)-constants.AckSequenceDigits:], 10, 64)
	return kind, date, seq, err
}

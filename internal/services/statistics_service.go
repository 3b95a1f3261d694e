package services

import (
	"context"

	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
	internal_utils "github.com/poofware/society-service/internal/utils"
)

type StatusCounts struct {
	Total            int64 `json:"total"`
	Pending          int64 `json:"pending"`
	UnderReview      int64 `json:"underReview"`
	Approved         int64 `json:"approved"`
	Rejected         int64 `json:"rejected"`
	DocumentRequired int64 `json:"documentRequired"`
}

type PaymentStatistics struct {
	PaymentPending int64 `json:"paymentPending"`
	PaymentPaid    int64 `json:"paymentPaid"`
	PaymentFailed  int64 `json:"paymentFailed"`
	TotalRevenue   int64 `json:"totalRevenue"`
}

// Statistics flattens to a single JSON object; payment fields appear for NOC only.
type Statistics struct {
	Kind models.SubmissionKind `json:"kind"`
	StatusCounts
	*PaymentStatistics
}

type StatisticsService struct {
	repo repositories.SubmissionRepository
}

func NewStatisticsService(repo repositories.SubmissionRepository) *StatisticsService {
	return &StatisticsService{repo: repo}
}

func (s *StatisticsService) Aggregate(ctx context.Context, kind models.SubmissionKind) (*Statistics, error) {
	if !kind.Valid() {
		return nil, internal_utils.ErrInvalidKind
	}
	counts, err := s.repo.AggregateCounts(ctx, kind)
	if err != nil {
		return nil, err
	}

	st := &Statistics{Kind: kind}
	for status, n := range counts {
		st.Total += n
		switch status {
		case models.StatusPending:
			st.Pending = n
		case models.StatusUnderReview:
			st.UnderReview = n
		case models.StatusApproved:
			st.Approved = n
		case models.StatusRejected:
			st.Rejected = n
		case models.StatusDocumentRequired:
			st.DocumentRequired = n
		}
	}

	if kind == models.KindNOC {
		agg, err := s.repo.AggregatePayments(ctx)
		if err != nil {
			return nil, err
		}
		st.PaymentStatistics = &PaymentStatistics{
			PaymentPending: agg.Pending,
			PaymentPaid:    agg.Paid,
			PaymentFailed:  agg.Failed,
			TotalRevenue:   agg.Revenue,
		}
	}
	return st, nil
}

// AggregateAll returns statistics for every kind, in models.AllKinds order.
func (s *StatisticsService) AggregateAll(ctx context.Context) ([]*Statistics, error) {
	out := make([]*Statistics, 0, len(models.AllKinds))
	for _, k := range models.AllKinds {
		st, err := s.Aggregate(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
)

type ConflictResult struct {
	Exists                bool                     `json:"exists"`
	Status                *models.SubmissionStatus `json:"status,omitempty"`
	Message               string                   `json:"message,omitempty"`
	AcknowledgementNumber string                   `json:"acknowledgementNumber,omitempty"`
}

type guardFunc func(ctx context.Context, unit models.UnitKey) (ConflictResult, error)

// DuplicateGuard gates creation per unit. Each kind has its own policy:
// share certificates and nominations block on any live submission for the
// unit, NOC requests are never blocked.
type DuplicateGuard struct {
	guards map[models.SubmissionKind]guardFunc
}

func NewDuplicateGuard(repo repositories.SubmissionRepository) *DuplicateGuard {
	return &DuplicateGuard{
		guards: map[models.SubmissionKind]guardFunc{
			models.KindShareCertificate: blockingGuard(repo, models.KindShareCertificate, "share certificate application"),
			models.KindNomination:       blockingGuard(repo, models.KindNomination, "nomination"),
			// A unit may need several NOCs in sequence for different purposes.
			models.KindNOC: func(context.Context, models.UnitKey) (ConflictResult, error) {
				return ConflictResult{Exists: false}, nil
			},
		},
	}
}

func (g *DuplicateGuard) CheckConflict(ctx context.Context, kind models.SubmissionKind, unit models.UnitKey) (ConflictResult, error) {
	guard, ok := g.guards[kind]
	if !ok {
		return ConflictResult{}, fmt.Errorf("no duplicate guard for kind %q", kind)
	}
	return guard(ctx, unit)
}

func blockingGuard(repo repositories.SubmissionRepository, kind models.SubmissionKind, noun string) guardFunc {
	return func(ctx context.Context, unit models.UnitKey) (ConflictResult, error) {
		existing, err := repo.FindByUnitKey(ctx, kind, unit)
		if err != nil {
			return ConflictResult{}, err
		}
		if existing == nil {
			return ConflictResult{Exists: false}, nil
		}
		status := existing.Status
		return ConflictResult{
			Exists:                true,
			Status:                &status,
			Message:               conflictMessage(noun, unit, existing),
			AcknowledgementNumber: existing.AcknowledgementNumber,
		}, nil
	}
}

func conflictMessage(noun string, unit models.UnitKey, existing *models.Submission) string {
	flat := flatLabel(unit)
	if existing.Status == models.StatusApproved {
		return fmt.Sprintf(
			"A %s for flat %s has already been completed (acknowledgement %s). Please contact the society office for any changes.",
			noun, flat, existing.AcknowledgementNumber,
		)
	}
	return fmt.Sprintf(
		"A %s for flat %s has already been requested (acknowledgement %s, status: %s).",
		noun, flat, existing.AcknowledgementNumber, existing.Status,
	)
}

func flatLabel(unit models.UnitKey) string {
	if unit.Wing == "" {
		return unit.FlatNumber
	}
	return unit.Wing + "-" + unit.FlatNumber
}

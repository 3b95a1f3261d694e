package controllers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/poofware/society-service/internal/dtos"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/services"
	"github.com/poofware/society-service/pkg/utils"
)

// SubmissionsController serves the public resident-facing forms.
type SubmissionsController struct {
	submissionService *services.SubmissionService
	validate          *validator.Validate
}

func NewSubmissionsController(s *services.SubmissionService) *SubmissionsController {
	return &SubmissionsController{
		submissionService: s,
		validate:          validator.New(),
	}
}

func kindFromPath(r *http.Request) (models.SubmissionKind, bool) {
	kind := models.SubmissionKind(mux.Vars(r)["kind"])
	return kind, kind.Valid()
}

// POST /api/v1/submissions/{kind}
func (c *SubmissionsController) CreateSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "CreateSubmissionHandler")

	kind, ok := kindFromPath(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Unknown submission type", nil)
		return
	}
	logger = logger.WithField("kind", kind)

	var req dtos.CreateSubmissionRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	in := services.CreateSubmissionInput{
		Kind:       kind,
		FlatNumber: req.FlatNumber,
		Wing:       req.Wing,
		Applicant:  req.Applicant.ToModel(),
		Documents:  req.DocumentSet(time.Now().UTC()),
	}
	switch kind {
	case models.KindShareCertificate:
		in.ShareCertificate = &models.ShareCertificateDetails{
			MembershipNumber: req.MembershipNumber,
			CoApplicants:     req.CoApplicants,
			ReasonForRequest: req.ReasonForRequest,
			Declaration:      req.Declaration,
		}
	case models.KindNomination:
		nominees := make([]models.Nominee, 0, len(req.Nominees))
		for _, n := range req.Nominees {
			nominees = append(nominees, models.Nominee{
				Name:            n.Name,
				Relationship:    n.Relationship,
				SharePercentage: n.SharePercentage,
				DateOfBirth:     n.DateOfBirth,
				Address:         n.Address,
				GuardianName:    n.GuardianName,
			})
		}
		in.Nomination = &models.NominationDetails{
			Nominees:    nominees,
			Witnesses:   req.Witnesses,
			Declaration: req.Declaration,
		}
	case models.KindNOC:
		if req.NOCType == "" {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Field 'nocType' is required", nil)
			return
		}
		in.NOCType = models.NOCType(req.NOCType)
		in.PurposeDescription = req.PurposeDescription
		if req.Buyer != nil {
			buyer := req.Buyer.ToModel()
			in.Buyer = &buyer
		}
	}

	res, err := c.submissionService.CreateSubmission(r.Context(), in)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	logger.WithField("ack", res.Submission.AcknowledgementNumber).Info("Submission accepted")
	utils.RespondWithJSON(w, http.StatusCreated, res)
}

// POST /api/v1/submissions/{kind}/check-pending
func (c *SubmissionsController) CheckPendingHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Unknown submission type", nil)
		return
	}
	var req dtos.CheckPendingRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	res, err := c.submissionService.CheckPending(r.Context(), kind, models.UnitKey{FlatNumber: req.FlatNumber, Wing: req.Wing})
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /api/v1/submissions/track/{ack}
func (c *SubmissionsController) TrackSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	sub, err := c.submissionService.GetByAck(r.Context(), mux.Vars(r)["ack"])
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewTrackSubmissionResponse(sub))
}

// GET /api/v1/noc/types
func (c *SubmissionsController) NOCTypesHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.submissionService.Registry())
}

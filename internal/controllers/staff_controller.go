package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/poofware/society-service/internal/dtos"
	"github.com/poofware/society-service/internal/models"
	"github.com/poofware/society-service/internal/repositories"
	"github.com/poofware/society-service/internal/services"
	"github.com/poofware/society-service/pkg/middleware"
	"github.com/poofware/society-service/pkg/utils"
	"github.com/sirupsen/logrus"
)

// StaffController serves the society office review screens.
type StaffController struct {
	submissionService *services.SubmissionService
	validate          *validator.Validate
}

func NewStaffController(s *services.SubmissionService) *StaffController {
	return &StaffController{
		submissionService: s,
		validate:          validator.New(),
	}
}

func idFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid submission id", nil, err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/v1/staff/submissions?kind=&status=&paymentStatus=&flatNumber=&wing=&limit=&offset=
func (c *StaffController) ListSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repositories.SubmissionFilter{
		FlatNumber: q.Get("flatNumber"),
		Wing:       q.Get("wing"),
	}
	if v := q.Get("kind"); v != "" {
		k := models.SubmissionKind(v)
		if !k.Valid() {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown kind filter", nil)
			return
		}
		f.Kind = &k
	}
	if v := q.Get("status"); v != "" {
		s := models.SubmissionStatus(v)
		if !s.Valid() {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown status filter", nil)
			return
		}
		f.Status = &s
	}
	if v := q.Get("paymentStatus"); v != "" {
		p := models.PaymentStatus(v)
		if !p.Valid() {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown paymentStatus filter", nil)
			return
		}
		f.PaymentStatus = &p
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Query parameter '"+name+"' must be an integer", nil, err)
				return
			}
			*dst = n
		}
	}

	res, err := c.submissionService.List(r.Context(), f)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /api/v1/staff/submissions/{id}
func (c *StaffController) GetSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r)
	if !ok {
		return
	}
	sub, err := c.submissionService.GetByID(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sub)
}

// GET /api/v1/staff/submissions/{id}/history
func (c *StaffController) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r)
	if !ok {
		return
	}
	h, err := c.submissionService.History(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h)
}

// GET /api/v1/staff/submissions/{id}/enclosures
func (c *StaffController) EnclosuresHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r)
	if !ok {
		return
	}
	encl, err := c.submissionService.ResolveEnclosures(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, encl)
}

// PATCH /api/v1/staff/submissions/{kind}/{id}/status
func (c *StaffController) TransitionStatusHandler(w http.ResponseWriter, r *http.Request) {
	staff := middleware.StaffIdentity(r.Context())
	logger := utils.Logger.WithFields(logrus.Fields{"handler": "TransitionStatusHandler", "staff": staff})

	kind, ok := kindFromPath(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Unknown submission type", nil)
		return
	}
	id, ok := idFromPath(w, r)
	if !ok {
		return
	}
	var req dtos.TransitionStatusRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	sub, err := c.submissionService.TransitionStatus(r.Context(), kind, id, models.SubmissionStatus(req.Status), req.Remarks, staff)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	logger.WithField("ack", sub.AcknowledgementNumber).Info("Status transition applied")
	utils.RespondWithJSON(w, http.StatusOK, sub)
}

// PATCH /api/v1/staff/noc/payment
func (c *StaffController) UpdatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdatePaymentRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	sub, err := c.submissionService.UpdatePayment(
		r.Context(),
		req.AcknowledgementNumber,
		models.PaymentStatus(req.PaymentStatus),
		req.TransactionID,
		req.PaymentDate,
	)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sub)
}

// GET /api/v1/staff/statistics
func (c *StaffController) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := c.submissionService.GetAllStatistics(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

// GET /api/v1/staff/statistics/{kind}
func (c *StaffController) KindStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	kind := models.SubmissionKind(mux.Vars(r)["kind"])
	st, err := c.submissionService.GetStatistics(r.Context(), kind)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, st)
}

// DELETE /api/v1/staff/submissions/{id}
func (c *StaffController) DeleteSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r)
	if !ok {
		return
	}
	if err := c.submissionService.Delete(r.Context(), id, middleware.StaffIdentity(r.Context())); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Submission deleted", ID: id.String()})
}


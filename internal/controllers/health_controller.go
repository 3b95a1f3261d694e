package controllers

import (
	"context"
	"net/http"
	"time"

	shared_dtos "github.com/poofware/society-service/pkg/dtos"
	"github.com/poofware/society-service/pkg/utils"
)

// Pinger reports per-dependency health; *app.App satisfies it.
type Pinger interface {
	Ping(ctx context.Context) map[string]error
}

// HealthController checks DB and Redis connectivity.
type HealthController struct {
	app Pinger
}

func NewHealthController(app Pinger) *HealthController {
	return &HealthController{app}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := shared_dtos.HealthCheckResponse{Status: "OK", Checks: map[string]string{}}
	status := http.StatusOK
	for name, err := range c.app.Ping(ctx) {
		if err != nil {
			utils.Logger.WithError(err).Errorf("society-service %s unreachable", name)
			resp.Checks[name] = "unreachable"
			resp.Status = "DEGRADED"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	utils.RespondWithJSON(w, status, resp)
}

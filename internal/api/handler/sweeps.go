package handler

import (
	"errors"
	"net/http"

	"github.com/albapepper/pricewatch/internal/api/respond"
	"github.com/albapepper/pricewatch/internal/cache"
	"github.com/albapepper/pricewatch/internal/plan"
	"github.com/albapepper/pricewatch/internal/tracker"
)

// SweepAccepted is returned when a sweep has been started.
type SweepAccepted struct {
	RunID    string        `json:"run_id"`
	Interval plan.Interval `json:"interval,omitempty"`
	Status   string        `json:"status"`
}

// SweepStatus reports the sweep state machine and the last finished run.
type SweepStatus struct {
	State   tracker.State     `json:"state"`
	LastRun *tracker.RunStats `json:"last_run,omitempty"`
}

// GetPlans lists the subscription plans.
// @Summary List plans
// @Description Returns every plan with its check interval and product limit, smallest first.
// @Tags plans
// @Produce json
// @Success 200 {array} plan.Plan
// @Router /plans [get]
func (h *Handler) GetPlans(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "plans", cache.TTLPlans, func() (any, error) {
		return plan.All(), nil
	})
}

// StartSweep starts a sweep in the background.
// @Summary Start a sweep
// @Description Starts a sweep over products whose owners are on the given interval, or all products when interval is omitted. Returns immediately.
// @Tags sweeps
// @Produce json
// @Param interval query string false "hourly, daily or weekly"
// @Success 202 {object} SweepAccepted
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /sweeps [post]
func (h *Handler) StartSweep(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("interval")
	if raw != "" && !plan.ValidInterval(raw) {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_INTERVAL",
			"Unknown interval", "interval must be hourly, daily or weekly")
		return
	}
	interval := plan.Interval(raw)

	runID, err := h.tracker.StartSweep(h.baseCtx, interval)
	if errors.Is(err, tracker.ErrSweepInProgress) {
		respond.WriteError(w, http.StatusConflict, "SWEEP_IN_PROGRESS", "A sweep is already running")
		return
	}
	if err != nil {
		h.logger.Error("Failed to start sweep", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start sweep")
		return
	}

	h.logger.Info("Sweep started via API", "run_id", runID, "interval", interval)
	respond.WriteJSONObject(w, http.StatusAccepted, SweepAccepted{RunID: runID, Interval: interval, Status: "started"})
}

// GetSweepStatus reports the current sweep state.
// @Summary Sweep status
// @Description Returns the sweep state (idle, loading, processing, summarizing) and the statistics of the last finished sweep.
// @Tags sweeps
// @Produce json
// @Success 200 {object} SweepStatus
// @Router /sweeps/status [get]
func (h *Handler) GetSweepStatus(w http.ResponseWriter, r *http.Request) {
	status := SweepStatus{State: h.tracker.State()}
	if last, ok := h.tracker.LastRun(); ok {
		status.LastRun = &last
	}
	respond.WriteJSONObject(w, http.StatusOK, status)
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/schedule"
	"github.com/keyurgolani/BabyNest-sub008/validate"
)

type CreateReportRequest struct {
	Frequency  string `json:"frequency"`
	TimeOfDay  string `json:"timeOfDay,omitempty"`
	DayOfWeek  *int   `json:"dayOfWeek,omitempty"`
	DayOfMonth *int   `json:"dayOfMonth,omitempty"`
}

type ReportPreviewResponse struct {
	NextSendAt  time.Time `json:"nextSendAt"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

func (a *API) createReportHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "createReportHandler"))

	babyID := routeParam(r, "id")

	if _, err := a.deps.TrackerService.GetBaby(r.Context(), babyID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to get baby", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to get baby")
		return
	}

	req := &CreateReportRequest{}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	timeOfDay := req.TimeOfDay
	if timeOfDay == "" {
		timeOfDay = "09:00"
	}

	report := &db.ScheduledReport{
		ID:         uuid.New().String(),
		BabyID:     babyID,
		Frequency:  req.Frequency,
		TimeOfDay:  timeOfDay,
		DayOfWeek:  req.DayOfWeek,
		DayOfMonth: req.DayOfMonth,
		CreatedAt:  time.Now().UTC(),
	}

	if err := validate.ScheduledReport(report); err != nil {
		a.writeError(rw, http.StatusBadRequest, err.Error())
		return
	}

	report.NextSendAt = schedule.NextSendAt(schedule.Config{
		Frequency:  schedule.Frequency(report.Frequency),
		Time:       report.TimeOfDay,
		DayOfWeek:  report.DayOfWeek,
		DayOfMonth: report.DayOfMonth,
	}, time.Now().UTC())

	if err := a.deps.DBBackend.CreateScheduledReport(r.Context(), report); err != nil {
		logger.Error("Failed to create scheduled report", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to create scheduled report")
		return
	}

	WriteJSON(rw, report, http.StatusCreated)
}

// reportPreviewHandler computes the next send instant and report window for a
// schedule without persisting anything. Used by clients to show "next report:
// Monday 09:00" while the user is still editing the form.
func (a *API) reportPreviewHandler(rw http.ResponseWriter, r *http.Request) {
	cfg, ok := a.scheduleConfigFromQuery(rw, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	start, end := schedule.ReportPeriod(cfg.Frequency, now)

	WriteJSON(rw, &ReportPreviewResponse{
		NextSendAt:  schedule.NextSendAt(*cfg, now),
		PeriodStart: start,
		PeriodEnd:   end,
	}, http.StatusOK)
}

func (a *API) reportSummaryHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "reportSummaryHandler"))

	cfg, ok := a.scheduleConfigFromQuery(rw, r)
	if !ok {
		return
	}

	summary, err := a.deps.InsightsService.BuildPeriodSummary(r.Context(), routeParam(r, "id"), cfg.Frequency, time.Now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to build period summary", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to build period summary")
		return
	}

	WriteJSON(rw, summary, http.StatusOK)
}

func (a *API) scheduleConfigFromQuery(rw http.ResponseWriter, r *http.Request) (*schedule.Config, bool) {
	freq := schedule.Frequency(r.URL.Query().Get("frequency"))

	switch freq {
	case schedule.FrequencyDaily, schedule.FrequencyWeekly, schedule.FrequencyMonthly:
	default:
		a.writeError(rw, http.StatusBadRequest, "Invalid frequency parameter (expected DAILY, WEEKLY or MONTHLY)")
		return nil, false
	}

	cfg := &schedule.Config{
		Frequency: freq,
		Time:      r.URL.Query().Get("time"),
	}

	if dowStr := r.URL.Query().Get("dayOfWeek"); dowStr != "" {
		dow, err := strconv.Atoi(dowStr)
		if err != nil || dow < 0 || dow > 6 {
			a.writeError(rw, http.StatusBadRequest, "Invalid dayOfWeek parameter")
			return nil, false
		}

		cfg.DayOfWeek = &dow
	}

	if domStr := r.URL.Query().Get("dayOfMonth"); domStr != "" {
		dom, err := strconv.Atoi(domStr)
		if err != nil || dom < 1 || dom > 31 {
			a.writeError(rw, http.StatusBadRequest, "Invalid dayOfMonth parameter")
			return nil, false
		}

		cfg.DayOfMonth = &dom
	}

	return cfg, true
}

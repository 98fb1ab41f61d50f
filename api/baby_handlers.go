package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/services/tracker"
)

func (a *API) createBabyHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "createBabyHandler"))

	req := &tracker.CreateBabyRequest{}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	baby, err := a.deps.TrackerService.CreateBaby(r.Context(), req)
	if err != nil {
		logger.Error("Failed to create baby", zap.Error(err))
		a.writeError(rw, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(rw, baby, http.StatusCreated)
}

func (a *API) getBabyHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "getBabyHandler"))

	baby, err := a.deps.TrackerService.GetBaby(r.Context(), routeParam(r, "id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to get baby", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to get baby")
		return
	}

	WriteJSON(rw, baby, http.StatusOK)
}

// ageHandler serves a baby's age as of now, or as of the optional ?on=
// YYYY-MM-DD reference date.
func (a *API) ageHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "ageHandler"))

	ref := time.Now().UTC()

	if onStr := r.URL.Query().Get("on"); onStr != "" {
		on, err := time.Parse("2006-01-02", onStr)
		if err != nil {
			a.writeError(rw, http.StatusBadRequest, "Invalid on parameter")
			return
		}

		ref = on
	}

	resp, err := a.deps.InsightsService.GetAge(r.Context(), routeParam(r, "id"), ref)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to compute age", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to compute age")
		return
	}

	WriteJSON(rw, resp, http.StatusOK)
}

func (a *API) dashboardHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "dashboardHandler"))

	resp, err := a.deps.InsightsService.GetDashboard(r.Context(), routeParam(r, "id"), time.Now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to build dashboard", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}

	WriteJSON(rw, resp, http.StatusOK)
}

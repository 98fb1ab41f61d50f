package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/growth"
	"github.com/keyurgolani/BabyNest-sub008/services/tracker"
)

func (a *API) createMeasurementHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "createMeasurementHandler"))

	req := &tracker.CreateMeasurementRequest{}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RecordedAt.IsZero() {
		req.RecordedAt = time.Now().UTC()
	}

	measurement, err := a.deps.TrackerService.CreateMeasurement(r.Context(), routeParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to create measurement", zap.Error(err))
		a.writeError(rw, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(rw, measurement, http.StatusCreated)
}

// velocityHandler serves the growth velocity series; ?unit=day|week selects
// per-day or per-week rates (week is the default).
func (a *API) velocityHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "velocityHandler"))

	unit := growth.TimeUnitWeek

	switch strings.ToLower(r.URL.Query().Get("unit")) {
	case "", "week":
	case "day":
		unit = growth.TimeUnitDay
	default:
		a.writeError(rw, http.StatusBadRequest, "Invalid unit parameter (expected 'day' or 'week')")
		return
	}

	result, err := a.deps.InsightsService.GetVelocity(r.Context(), routeParam(r, "id"), unit)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to compute velocity", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to compute velocity")
		return
	}

	WriteJSON(rw, result, http.StatusOK)
}

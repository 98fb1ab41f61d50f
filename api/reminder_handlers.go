package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/services/reminder"
)

func (a *API) createReminderHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "createReminderHandler"))

	req := &reminder.CreateReminderRequest{}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := a.deps.ReminderService.CreateReminder(r.Context(), routeParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to create reminder", zap.Error(err))
		a.writeError(rw, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(rw, rec, http.StatusCreated)
}

// nextTriggersHandler serves the upcoming trigger for each enabled reminder,
// including live countdown strings.
func (a *API) nextTriggersHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "nextTriggersHandler"))

	triggers, err := a.deps.ReminderService.NextTriggers(r.Context(), routeParam(r, "id"), time.Now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to compute next triggers", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to compute next triggers")
		return
	}

	WriteJSON(rw, triggers, http.StatusOK)
}

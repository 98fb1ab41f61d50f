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

func (a *API) createEntryHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "createEntryHandler"))

	req := &tracker.CreateEntryRequest{}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Entries logged without a timestamp are "it just happened" entries
	if req.RecordedAt.IsZero() {
		req.RecordedAt = time.Now().UTC()
	}

	entry, err := a.deps.TrackerService.CreateEntry(r.Context(), routeParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to create entry", zap.Error(err))
		a.writeError(rw, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(rw, entry, http.StatusCreated)
}

// listEntriesHandler serves entries in a [from, to] window; both bounds are
// optional and default to the trailing 24 hours.
func (a *API) listEntriesHandler(rw http.ResponseWriter, r *http.Request) {
	logger := a.log.With(zap.String("method", "listEntriesHandler"))

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -1)

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			a.writeError(rw, http.StatusBadRequest, "Invalid from parameter")
			return
		}

		from = parsed
	}

	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			a.writeError(rw, http.StatusBadRequest, "Invalid to parameter")
			return
		}

		to = parsed
	}

	if from.After(to) {
		a.writeError(rw, http.StatusBadRequest, "from must be before to")
		return
	}

	entries, err := a.deps.TrackerService.ListEntriesBetween(r.Context(), routeParam(r, "id"), from, to)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.writeError(rw, http.StatusNotFound, "Baby not found")
			return
		}

		logger.Error("Failed to list entries", zap.Error(err))
		a.writeError(rw, http.StatusInternalServerError, "Failed to list entries")
		return
	}

	if entries == nil {
		entries = []db.TrackingEntry{}
	}

	WriteJSON(rw, entries, http.StatusOK)
}

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/InVisionApp/go-health/handlers"
	"github.com/julienschmidt/httprouter"
	"github.com/newrelic/go-agent/v3/integrations/nrhttprouter"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/clog"
	"github.com/keyurgolani/BabyNest-sub008/config"
	"github.com/keyurgolani/BabyNest-sub008/deps"
)

type API struct {
	config  *config.Config
	deps    *deps.Dependencies
	server  *http.Server
	log     clog.ICustomLog
	version string
}

type ResponseJSON struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Values  map[string]string `json:"values,omitempty"`
	Errors  string            `json:"errors,omitempty"`
}

func New(cfg *config.Config, d *deps.Dependencies, version string) (*API, error) {
	if cfg == nil {
		return nil, errors.New("cfg cannot be nil")
	}

	if d == nil {
		return nil, errors.New("deps cannot be nil")
	}

	server := &http.Server{
		Addr: cfg.APIListenAddress,
	}

	a := &API{
		config:  cfg,
		deps:    d,
		server:  server,
		version: version,
		log:     d.Log.With(zap.String("pkg", "api")),
	}

	// Run shutdown listener
	go a.runShutdownListener()

	return a, nil
}

func (a *API) runShutdownListener() {
	<-a.deps.ShutdownCtx.Done()

	// Give server 5s to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("Error shutting down API server", zap.Error(err))
	}
}

func (a *API) Run() error {
	logger := a.log.With(zap.String("method", "Run"))

	router := nrhttprouter.New(a.deps.NewRelicApp)

	a.server.Handler = a.corsMiddleware(router)

	router.HandlerFunc("GET", "/health-check", handlers.NewJSONHandlerFunc(a.deps.Health, nil))
	router.HandlerFunc("GET", "/version", a.versionHandler)

	router.HandlerFunc("POST", "/api/v1/babies", a.createBabyHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id", a.getBabyHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id/age", a.ageHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id/dashboard", a.dashboardHandler)

	router.HandlerFunc("POST", "/api/v1/babies/:id/entries", a.createEntryHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id/entries", a.listEntriesHandler)

	router.HandlerFunc("POST", "/api/v1/babies/:id/measurements", a.createMeasurementHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id/growth/velocity", a.velocityHandler)

	router.HandlerFunc("POST", "/api/v1/babies/:id/reminders", a.createReminderHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id/reminders/next", a.nextTriggersHandler)

	router.HandlerFunc("POST", "/api/v1/babies/:id/reports", a.createReportHandler)
	router.HandlerFunc("GET", "/api/v1/babies/:id/reports/summary", a.reportSummaryHandler)
	router.HandlerFunc("GET", "/api/v1/reports/schedule/preview", a.reportPreviewHandler)

	// Maybe enable profiling
	if a.config.EnablePprof {
		router.Handler(http.MethodGet, "/debug/pprof/*item", http.DefaultServeMux)
	}

	logger.Info("API server running", zap.String("listenAddress", a.config.APIListenAddress))

	return a.server.ListenAndServe()
}

func (a *API) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Access-Control-Allow-Origin", "*")
		rw.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		rw.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			rw.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(rw, r)
	})
}

func (a *API) versionHandler(rw http.ResponseWriter, r *http.Request) {
	WriteJSON(rw, &ResponseJSON{
		Status:  http.StatusOK,
		Message: "babynest-api " + a.version,
	}, http.StatusOK)
}

// routeParam pulls a named path parameter that httprouter stashed in the
// request context.
func routeParam(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

// WriteJSON is a helper function for writing JSON responses
func WriteJSON(rw http.ResponseWriter, payload interface{}, status int) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: unable to marshal JSON during WriteJSON "+
			"(payload: '%s'; status: '%d'): %s\n", payload, status, err)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if _, err := rw.Write(data); err != nil {
		log.Printf("ERROR: unable to write resp in WriteJSON: %s\n", err)
		return
	}
}

func (a *API) writeError(rw http.ResponseWriter, statusCode int, message string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)

	errorResponse := map[string]string{
		"error": message,
	}

	if err := json.NewEncoder(rw).Encode(errorResponse); err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
	}
}

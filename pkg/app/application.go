package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"clinicbook/pkg/config"
	"clinicbook/pkg/contracts"
	httputil "clinicbook/pkg/http"
	"clinicbook/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const loginPath = "/login"

type HealthResponse struct {
	Status string `json:"status"`
}

// Application is the HTTP shell around a contracts.Handler: middleware stack,
// health endpoint, server and graceful shutdown.
type Application struct {
	cfg            *config.Config
	server         *http.Server
	replayCache    *middleware.ReplayCache
	rateLimiter    *middleware.RateLimiter
	healthHandler  http.Handler
	appHttpHandler http.Handler
}

func NewApplication() *Application {
	return &Application{}
}

func (a *Application) SetApp(cfg *config.Config, appHandler contracts.Handler) {
	a.cfg = cfg
	a.setHealthHandler()
	a.setAppHandler(appHandler)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthRouter.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
			a.cfg.Log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
		}
	})

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoint configured with minimal middleware (Recovery only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.replayCache = middleware.NewReplayCache(a.cfg.StubIdempotencyTTL)
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.StubLoginRateLimit,
		a.cfg.StubLoginRateWindow,
		middleware.LoginExtractor(loginPath),
		a.cfg.Log,
	)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Idempotency(a.replayCache)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.StubHandlerTimeout)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log, middleware.ContentTypeJSON, middleware.ContentTypeForm)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.StubMaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	a.server = &http.Server{
		Addr:         ":" + a.cfg.StubPort,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.StubReadTimeout,
		WriteTimeout: a.cfg.StubWriteTimeout,
		IdleTimeout:  a.cfg.StubIdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.StubPort)
}

// Handler returns the routed handler without starting a server.
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)
	return mux
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

// Stop releases the background workers of the middleware stack.
func (a *Application) Stop() {
	a.cfg.Log.Info("Stopping background workers...")
	a.replayCache.Stop()
	a.rateLimiter.Stop()
	a.cfg.Log.Info("Background workers stopped")
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.StubShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}

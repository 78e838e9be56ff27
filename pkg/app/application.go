package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"limito/pkg/config"
	"limito/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Handler is anything that can attach its routes to the shared router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

type Application struct {
	cfg            *config.Config
	server         *http.Server
	healthHandler  http.Handler
	appHTTPHandler http.Handler
	cleanups       []func()
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// RegisterCleanup queues a shutdown hook for background workers (cache,
// rate-limit store, mirror feed). Hooks run before the server stops.
func (a *Application) RegisterCleanup(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

func (a *Application) SetApp(healthHandler Handler, appHandlers ...Handler) {
	a.setHealthHandler(healthHandler)
	a.setAppHandler(appHandlers...)
	a.setAppServer()
}

func (a *Application) setHealthHandler(handler Handler) {
	healthRouter := httprouter.New()
	handler.RegisterRoutes(healthRouter)

	var chained http.Handler = healthRouter
	chained = middleware.RequestLogging(a.cfg.Log)(chained)
	chained = middleware.Recovery(a.cfg.Log)(chained)
	a.healthHandler = chained
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers ...Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	// Rate limits are attached per route inside the handlers; the shared
	// chain carries the cross-cutting concerns only.
	var chained http.Handler = appRouter
	chained = middleware.RequestTimeout(a.cfg.RequestTimeout)(chained)
	chained = middleware.ContentTypeValidation(a.cfg.Log)(chained)
	chained = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(chained)
	chained = middleware.RequestLogging(a.cfg.Log)(chained)
	chained = middleware.Recovery(a.cfg.Log)(chained)
	a.appHTTPHandler = chained
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHTTPHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
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

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.cfg.Log.Info("Stopping background workers...")
	for _, cleanup := range a.cleanups {
		cleanup()
	}
	a.cfg.Log.Info("Background workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}

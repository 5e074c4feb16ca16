package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/ymatsuda/cardforge/internal/adapter/utils"
	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/handlers"
	"github.com/ymatsuda/cardforge/internal/middleware"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Server owns the http.Server so shutdown and startup share state
// without package globals.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

func New(listenAddr string, h *handlers.Handler) *Server {
	r := utils.GetRouter()

	r.Router.Get("/healthz", middleware.Wrap(h.GetHandler))
	r.Router.Post("/process/text", middleware.Wrap(h.ProcessTextHandler))
	r.Router.Post("/process/document", middleware.Wrap(h.ProcessDocumentHandler))
	r.Router.Post("/batch/ocr", middleware.Wrap(h.BatchOCRHandler))
	r.Router.Post("/batch/dual-ocr", middleware.Wrap(h.DualOCRHandler))
	r.Router.Get("/jobs/{id}", middleware.Wrap(h.GetStatusHandler))
	r.Router.Get("/quota", middleware.Wrap(h.GetQuotaHandler))

	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      r.Router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger.New("server"),
	}
}

func (s *Server) Run() {
	s.logger.Info("server is listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server crashed", "error", err, "addr", s.httpServer.Addr)
	}
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("graceful shutdown complete")
	case <-ctx.Done():
		s.logger.Info("forced shutdown")
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"
	httpNet "net/http"

	"montecarlo-dashboard/internal/delivery/http"
	"montecarlo-dashboard/pkg/logger"
)

type HTTPServer struct {
	appDep  *AppDependency
	handler *http.HttpAPIHandler
	server  *httpNet.Server
}

func NewHTTPServer(appDep *AppDependency, handler *http.HttpAPIHandler) *HTTPServer {
	api := appDep.cfg.API
	return &HTTPServer{
		appDep:  appDep,
		handler: handler,
		server: &httpNet.Server{
			Addr:         fmt.Sprintf(":%d", api.Port),
			ReadTimeout:  api.ReadTimeout,
			WriteTimeout: api.WriteTimeout,
		},
	}
}

// Start registers routes and blocks serving until Stop is called.
func (s *HTTPServer) Start() error {
	s.handler.SetupRoutes()
	s.appDep.log.Info("Starting HTTP server", logger.StringField("addr", s.server.Addr))
	return s.appDep.echo.StartServer(s.server)
}

// Stop drains in-flight requests, giving up after api.shutdown_timeout.
func (s *HTTPServer) Stop() error {
	s.appDep.log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), s.appDep.cfg.API.ShutdownTimeout)
	defer cancel()

	if err := s.appDep.echo.Shutdown(ctx); err != nil {
		s.appDep.log.Warn("HTTP server did not stop cleanly", logger.ErrorField(err))
		return err
	}
	s.appDep.log.Info("HTTP server stopped")
	return nil
}

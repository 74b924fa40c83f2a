package cmd

import (
	"context"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"montecarlo-dashboard/internal/delivery/http"
	"montecarlo-dashboard/internal/repository"
	"montecarlo-dashboard/internal/service"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/middleware"
	"montecarlo-dashboard/pkg/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation API server",
	Run:   Serve,
}

func Serve(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo := repository.NewRepository(appDep.cfg, appDep.log)
	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache, appDep.metrics)

	if err := services.SimulationService.Refresh(ctx); err != nil {
		appDep.log.Fatal("Initial simulation failed", logger.ErrorField(err))
	}
	if err := services.RefreshScheduler.Start(ctx); err != nil {
		appDep.log.Fatal("Failed to start refresh scheduler", logger.ErrorField(err))
	}

	limiter := middleware.NewRateLimiterMiddleware(appDep.cfg.RateLimit)
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.validator, appDep.log, services, appDep.metrics, limiter)

	apiServer := NewHTTPServer(appDep, httpHandler)
	utils.GoSafe(appDep.log, func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	})

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	services.RefreshScheduler.Stop()

	if err := apiServer.Stop(); err != nil {
		log.Fatalf("Failed to stop HTTP server: %v", err)
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"montecarlo-dashboard/internal/repository"
	"montecarlo-dashboard/internal/service"

	"github.com/spf13/cobra"
)

var acquireTicker string

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Fetch one simulation result for a ticker and print it as JSON",
	RunE:  Acquire,
}

func init() {
	acquireCmd.Flags().StringVarP(&acquireTicker, "ticker", "t", "", "ticker symbol (default dashboard.default_ticker)")
}

func Acquire(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		return err
	}
	defer appDep.Close()

	repo := repository.NewRepository(appDep.cfg, appDep.log)
	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache, appDep.metrics)

	result, err := services.AcquisitionService.Acquire(ctx, acquireTicker)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// Command seedvault runs the local wallet API and offers offline wallet
// management from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/AlexZinkM/seedvault/docs"
	"github.com/AlexZinkM/seedvault/internal/api"
	"github.com/AlexZinkM/seedvault/internal/config"
	"github.com/AlexZinkM/seedvault/internal/logger"
	"github.com/AlexZinkM/seedvault/manager"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev" // set by the linker

//go:generate swag init -d ../.. -g cmd/seedvault/main.go -o ../../docs --parseInternal

// @title        Seedvault API
// @version      1.0
// @description  Local deterministic wallet with an encrypted vault, derived accounts and session-guarded signing.
// @host         localhost:8080
// @BasePath     /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seedvault",
		Short:         "Deterministic wallet with an encrypted local vault",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(
		newServeCmd(),
		newCreateCmd(),
		newRestoreCmd(),
		newPasswdCmd(),
		newSignCmd(),
		newVerifyCmd(),
		newAccountsCmd(),
		newAccountCmd(),
	)
	return cmd
}

// app is what every subcommand needs: config, logger and a wired Manager.
type app struct {
	cfg *config.Config
	log *zap.Logger
	m   *manager.Manager
}

// withApp loads the configuration, opens the store and runs fn.
func withApp(fn func(ctx context.Context, a *app) error) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	m, closeStore, err := manager.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(context.Background(), &app{cfg: cfg, log: log, m: m})
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				srv := &http.Server{
					Addr:              ":" + a.cfg.Port,
					Handler:           api.SetupRouter(a.m, a.log.Named("http")),
					ReadHeaderTimeout: 10 * time.Second,
				}

				errCh := make(chan error, 1)
				go func() {
					a.log.Info("server starting", zap.String("addr", srv.Addr))
					errCh <- srv.ListenAndServe()
				}()

				// Handle graceful shutdown
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

				select {
				case <-quit:
					shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
					defer cancel()
					a.log.Info("server shutting down")
					if err := srv.Shutdown(shutdownCtx); err != nil {
						return fmt.Errorf("shutdown: %w", err)
					}
					return nil
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				}
			})
		},
	}
}

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/cli/config"
	httpctrl "github.com/secmon-lab/briareos/pkg/controller/http"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/service/worker"
	"github.com/secmon-lab/briareos/pkg/usecase"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var slackCfg config.Slack
	var policyCfg config.Policy
	var dispatchCfg config.Dispatch

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address (health, metrics and OAuth redirect)",
			Value:       ":8080",
			Sources:     cli.EnvVars("BRIAREOS_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, dispatchCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Connect to every installed workspace and dispatch its messages",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("serve config",
				"slack", slackCfg,
				"policy", policyCfg,
				"dispatch", dispatchCfg,
			)

			registry, factory, err := slackCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack")
			}

			policies, err := policyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure policies")
			}

			uc := usecase.New(registry, factory,
				usecase.WithPolicies(policies),
				usecase.WithRecognizer(dispatchCfg.Recognizer()),
				usecase.WithDeliverer(dispatchCfg.Deliverer()),
				usecase.WithReconnectBaseDelay(slackCfg.ReconnectBaseDelay()),
			)
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				uc.Close(closeCtx)
			}()

			httpOpts := []httpctrl.Options{}
			switch registry.Mode() {
			case model.InstallModeStatic:
				if err := uc.Installer.StartAll(ctx); err != nil {
					return goerr.Wrap(err, "failed to start workspace")
				}
			case model.InstallModeDynamic:
				httpOpts = append(httpOpts, httpctrl.WithInstaller(uc.Installer))
				logging.Default().Info("OAuth installation enabled", "path", "/slack/oauth/redirect")
			}

			if interval := slackCfg.DirectoryRefreshInterval(); interval > 0 {
				refresher := worker.NewDirectoryRefreshWorker(registry, uc.Directory, interval)
				if err := refresher.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start directory refresh worker")
				}
				defer refresher.Stop()
			}

			server := httpctrl.NewHTTPServer(addr, httpctrl.New(uc.Supervisor, httpOpts...))

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "mode", registry.Mode().String())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logging.Default().Info("Context canceled, shutting down")
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}

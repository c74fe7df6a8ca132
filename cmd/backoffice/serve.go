package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/backoffice/internal/server"
	"github.com/dukerupert/backoffice/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local console server",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(server.Config{
				ChatURL:        a.cfg.ChatURL,
				ChatModel:      a.cfg.ChatModel,
				ChatPrompt:     a.cfg.ChatPrompt,
				OriginPatterns: origins,
			}, a.client, a.local, store.NewChatStore(a.db), a.archiver(), a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			srv.StartJanitor(ctx)

			httpServer := &http.Server{
				Addr:         a.cfg.Addr(),
				Handler:      srv.Router(),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: a.cfg.Timeout + 10*time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("console listening", "addr", httpServer.Addr, "api_url", a.client.BaseURL(), "archive", a.archiver().Configured())
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down console")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.logger.Info("console stopped")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "extra host patterns allowed to open the websocket")
	cmd.Flags().Int("port", 0, "listen port")
	a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

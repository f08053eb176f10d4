package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/skillstats/internal/charstats"
	"github.com/udisondev/skillstats/internal/html"
	"github.com/udisondev/skillstats/internal/skillmodule"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the character-stats panel over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			tmpl, err := newTemplates(c.cfg)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              c.cfg.HTTP.Addr(),
				Handler:           newHandler(a.module, tmpl),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("http server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				slog.Info("shutting down http server")
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
}

// newHandler routes GET /charstats/{accountID}; every request renders in its own turn.
func newHandler(m *skillmodule.Module, tmpl *html.Cache) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /charstats/{accountID}", func(w http.ResponseWriter, r *http.Request) {
		accountID, err := strconv.ParseInt(r.PathValue("accountID"), 10, 64)
		if err != nil || accountID <= 0 {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}

		panel := m.Render(r.Context(), charstats.Session{AccountID: accountID, LoggedIn: true})
		out, err := tmpl.RenderCharStats(accountID, panel)
		if err != nil {
			slog.Error("rendering charstats", "accountID", accountID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(out))
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !m.Installed() {
			http.Error(w, "not installed", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finquarry/finquarry/internal/edgar"
	"github.com/finquarry/finquarry/internal/market"
	"github.com/finquarry/finquarry/internal/render"
)

var servePort int

// serveDeps narrows the environment to what the handlers call, so the mux
// is testable with stubs.
type serveDeps struct {
	loadFacts func(ctx context.Context, symbol string) (*normalized, error)
	quote     func(ctx context.Context, symbol string) (*market.Quote, error)
	chartPath func(ctx context.Context, symbol string) (string, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve normalized facts and quotes over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv()
		if err != nil {
			return err
		}

		mux := newServeMux(serveDeps{
			loadFacts: env.loadNormalized,
			quote:     env.Market.Quote,
			chartPath: func(ctx context.Context, symbol string) (string, error) {
				n, err := env.loadNormalized(ctx, symbol)
				if err != nil {
					return "", err
				}
				return render.LineChart(n.Result.Quarterly, nil, render.ChartOptions{
					Title:    fmt.Sprintf("%s (%s)", n.EntityName, n.Symbol),
					Subtitle: "quarterly",
					OutDir:   cfg.Render.OutDir,
					FileName: fmt.Sprintf("%s_quarterly.html", strings.ToLower(symbol)),
				})
			},
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServeMux(deps serveDeps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/facts/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.PathValue("symbol"))

		n, err := deps.loadFacts(r.Context(), symbol)
		if err != nil {
			if errors.Is(err, edgar.ErrSymbolNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown symbol"})
				return
			}
			zap.L().Error("facts request failed", zap.String("symbol", symbol), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream failure"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"symbol":      n.Symbol,
			"cik":         n.CIK,
			"entity_name": n.EntityName,
			"result":      n.Result,
		})
	})

	mux.HandleFunc("GET /charts/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.PathValue("symbol"))

		path, err := deps.chartPath(r.Context(), symbol)
		if err != nil {
			if errors.Is(err, edgar.ErrSymbolNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown symbol"})
				return
			}
			zap.L().Error("chart request failed", zap.String("symbol", symbol), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream failure"})
			return
		}

		http.ServeFile(w, r, path)
	})

	mux.HandleFunc("GET /api/quote/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.PathValue("symbol"))

		q, err := deps.quote(r.Context(), symbol)
		if err != nil {
			zap.L().Error("quote request failed", zap.String("symbol", symbol), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream failure"})
			return
		}

		writeJSON(w, http.StatusOK, q)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

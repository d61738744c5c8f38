package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/slopeworks/geotracks/internal/extract"
	"github.com/slopeworks/geotracks/internal/geojson"
)

var servePort int

// maxConvertBody caps uploaded documents at 32 MiB.
const maxConvertBody = 32 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server that converts posted documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newServeRouter(cfg.Server.RateLimit),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newServeRouter builds the HTTP API: a health probe and a synchronous
// conversion endpoint. rps throttles the convert endpoint; 0 disables
// throttling.
func newServeRouter(rps float64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/convert", throttled(rps, handleConvert))

	return r
}

// throttled wraps a handler with a token bucket limiter. Conversion is
// CPU and memory bound, so excess callers get 429 instead of queueing.
func throttled(rps float64, next http.HandlerFunc) http.HandlerFunc {
	if rps <= 0 {
		return next
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

// handleConvert converts one posted document and returns the resulting
// FeatureCollection. mode=multipoint selects the LineString→MultiPoint
// conversion; anything else passes geometry through.
func handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConvertBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
		return
	}

	transform := extract.Identity
	if r.URL.Query().Get("mode") == "multipoint" {
		transform = extract.LineStringToMultiPoint
	}

	fc, err := extract.Extract(body, transform)
	switch {
	case err == nil:
	case eris.Is(err, extract.ErrEmpty):
		// Empty traversal is not a failure: answer with an empty
		// collection instead of an error.
		fc = geojson.NewFeatureCollection([]geojson.Feature{})
	case eris.Is(err, extract.ErrParse), eris.Is(err, extract.ErrShape):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	default:
		zap.L().Error("convert endpoint failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "conversion failed"})
		return
	}

	writeJSON(w, http.StatusOK, fc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/geotable/internal/export"
	"github.com/sells-group/geotable/internal/geotable"
	"github.com/sells-group/geotable/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset catalog over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(s, cfg.Server.RateLimit, cfg.Server.RateBurst),
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

func newRouter(s store.Store, limit float64, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Use(rateLimiter(limit, burst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/datasets", func(w http.ResponseWriter, req *http.Request) {
		infos, err := s.List(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if infos == nil {
			infos = []store.DatasetInfo{}
		}
		writeJSON(w, http.StatusOK, infos)
	})

	r.Get("/datasets/{name}", func(w http.ResponseWriter, req *http.Request) {
		info, err := s.Get(req.Context(), chi.URLParam(req, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	r.Get("/datasets/{name}/geojson", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		t, err := s.LoadTable(req.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}

		if raw := req.URL.Query().Get("bbox"); raw != "" {
			ext, err := parseExtent(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			t = filterBBox(t, ext)
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		if err := export.WriteGeoJSON(w, t); err != nil {
			zap.L().Error("write geojson response", zap.String("dataset", name), zap.Error(err))
		}
	})

	return r
}

// filterBBox keeps rows whose geometry bounds overlap the extent. Rows
// with empty geometries are dropped.
func filterBBox(t *geotable.Table, ext [4]float64) *geotable.Table {
	return t.Filter(func(r geotable.Row) bool {
		g := r.Geom()
		if g == nil || g.Empty() {
			return false
		}
		b := g.Bounds()
		return b.Min(0) <= ext[2] && b.Max(0) >= ext[0] &&
			b.Min(1) <= ext[3] && b.Max(1) >= ext[1]
	})
}

// rateLimiter enforces a per-client token bucket keyed by remote IP.
func rateLimiter(limit float64, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = 10
	}
	if burst <= 0 {
		burst = 20
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			host, _, err := net.SplitHostPort(req.RemoteAddr)
			if err != nil {
				host = req.RemoteAddr
			}

			mu.Lock()
			lim, ok := limiters[host]
			if !ok {
				lim = rate.NewLimiter(rate.Limit(limit), burst)
				limiters[host] = lim
			}
			mu.Unlock()

			if !lim.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dataset not found"})
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package httpserver

import (
	"net/http"
	"time"

	"stockquote-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID())
	r.Use(traceID())
	r.Use(recoverer())
	r.Use(accessLog())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.ping != nil {
			if err := s.ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "storage not ready")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/quotes", s.ListQuotes)
		r.Get("/quotes/{symbol}", s.GetQuote)
		r.Post("/refresh", s.RequestRefresh)
		r.Get("/batches/{id}", s.GetBatch)
		r.Get("/progress", s.GetProgress)
		r.Get("/watchlist", s.GetWatchlist)
		r.Put("/watchlist", s.PutWatchlist)
		r.Get("/klines/{symbol}", s.GetKline)
		r.Put("/klines/{symbol}", s.PutKline)
		r.Get("/indicators/{symbol}", s.GetIndicators)
		r.Get("/pool", s.GetPool)
		r.Put("/pool", s.PutPool)
		r.Get("/market/status", s.GetMarketStatus)
	})
	return r
}

func requestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			ctx := logx.ContextWithRequestID(r.Context(), rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func traceID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := r.Header.Get("X-Trace-Id")
			if tid == "" {
				tid = uuid.NewString()
			}
			w.Header().Set("X-Trace-Id", tid)
			ctx := logx.ContextWithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logx.WithFields(r.Context()).Error("http.panic_recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// accessLog records one line per request. Probe endpoints log at debug.
func accessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sr, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", sr.status),
				zap.Int("bytes", sr.bytes),
				zap.Duration("duration", time.Since(start)),
			}
			if symbol := chi.URLParam(r, "symbol"); symbol != "" {
				fields = append(fields, zap.String("symbol", symbol))
			}
			log := logx.WithFields(r.Context())
			if route == "/healthz" || route == "/readyz" {
				log.Debug("http.request", fields...)
				return
			}
			log.Info("http.request", fields...)
		})
	}
}

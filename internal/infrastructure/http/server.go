package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
	"stockquote-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	svc  *application.QuoteService
	ping func(ctx context.Context) error
}

func NewServer(svc *application.QuoteService) *Server { return &Server{svc: svc} }

// SetReadyCheck installs the probe behind /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type refreshRequest struct {
	Symbols  []string `json:"symbols"`
	Priority []string `json:"priority"`
}

type refreshResponse struct {
	BatchID string `json:"batch_id"`
}

type progressResponse struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type watchlistBody struct {
	Symbols  []string `json:"symbols"`
	Priority []string `json:"priority"`
}

type watchlistResponse struct {
	Symbols  []string `json:"symbols"`
	Priority []string `json:"priority"`
	Removed  []string `json:"removed,omitempty"`
}

type klineResponse struct {
	Symbol string        `json:"symbol"`
	Period domain.Period `json:"period"`
	Bars   []domain.Bar  `json:"bars"`
}

type poolRequest struct {
	Max int `json:"max"`
}

type marketStatusResponse struct {
	Status domain.SessionStatus `json:"status"`
	At     time.Time            `json:"at"`
}

func (s *Server) ListQuotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListQuotes())
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.GetQuote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) RequestRefresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
	}
	var idem *string
	if key := r.Header.Get("X-Idempotency-Key"); key != "" {
		idem = &key
	}
	id, err := s.svc.RequestRefresh(r.Context(), body.Symbols, body.Priority, idem)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{BatchID: id})
}

func (s *Server) GetBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) GetProgress(w http.ResponseWriter, _ *http.Request) {
	completed, total := s.svc.Progress()
	writeJSON(w, http.StatusOK, progressResponse{Completed: completed, Total: total})
}

func (s *Server) GetWatchlist(w http.ResponseWriter, _ *http.Request) {
	symbols, priority := s.svc.Watchlist()
	writeJSON(w, http.StatusOK, watchlistResponse{Symbols: nonNil(symbols), Priority: nonNil(priority)})
}

func (s *Server) PutWatchlist(w http.ResponseWriter, r *http.Request) {
	var body watchlistBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	removed, err := s.svc.SetWatchlist(body.Symbols, body.Priority)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	symbols, priority := s.svc.Watchlist()
	sort.Strings(removed)
	writeJSON(w, http.StatusOK, watchlistResponse{Symbols: nonNil(symbols), Priority: nonNil(priority), Removed: removed})
}

func period(r *http.Request) (domain.Period, error) {
	return domain.ParsePeriod(r.URL.Query().Get("period"))
}

func (s *Server) GetKline(w http.ResponseWriter, r *http.Request) {
	p, err := period(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	symbol := chi.URLParam(r, "symbol")
	bars, err := s.svc.GetKline(symbol, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, klineResponse{Symbol: domain.NormalizeSymbol(symbol), Period: p, Bars: bars})
}

func (s *Server) PutKline(w http.ResponseWriter, r *http.Request) {
	p, err := period(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var bars []domain.Bar
	if err := json.NewDecoder(r.Body).Decode(&bars); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.svc.PutKline(chi.URLParam(r, "symbol"), p, bars); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetIndicators(w http.ResponseWriter, r *http.Request) {
	inds, err := s.svc.GetIndicators(chi.URLParam(r, "symbol"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inds)
}

func (s *Server) GetPool(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.PoolStats())
}

func (s *Server) PutPool(w http.ResponseWriter, r *http.Request) {
	var body poolRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.svc.SetMaxWorkers(body.Max); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.PoolStats())
}

func (s *Server) GetMarketStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, marketStatusResponse{Status: s.svc.MarketStatus(), At: time.Now().In(domain.Exchange)})
}

// fail maps application errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, "duplicate idempotency key")
	case errors.Is(err, application.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logx.WithFields(r.Context()).Error("http.request_failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

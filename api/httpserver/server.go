// Package httpserver exposes the engine over REST and WebSocket. It is
// a pure consumer of the service API: all ordering guarantees come
// from the service's dispatcher queue.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"valhalla/domain/orderbook"
	"valhalla/service"
)

type Server struct {
	svc    *service.EngineService
	router *mux.Router
	hub    *Hub
	log    *zap.Logger

	depthLevels int
}

func NewServer(svc *service.EngineService, depthLevels int, log *zap.Logger) *Server {
	s := &Server{
		svc:         svc,
		router:      mux.NewRouter(),
		hub:         NewHub(log),
		log:         log,
		depthLevels: depthLevels,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods(http.MethodPost)
	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods(http.MethodGet)
	api.HandleFunc("/orderbook/top", s.handleGetTop).Methods(http.MethodGet)
	api.HandleFunc("/trades", s.handleGetTrades).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.hub.handleUpgrade)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Start serves until ctx is canceled, then shuts down gracefully. The
// WebSocket hub and the trade-feed bridge run for the same lifetime.
func (s *Server) Start(ctx context.Context, addr string, allowedOrigins []string) error {
	go s.hub.Run(ctx)
	go s.hub.StreamTrades(ctx, s.svc.Feed())

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: c.Handler(s.router),
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), srvShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

// -------------------- Handlers --------------------

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request", err.Error())
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid kind", err.Error())
		return
	}

	res, err := s.svc.Submit(r.Context(), side, kind, req.Price, req.Qty)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	trades := res.Trades
	if trades == nil {
		trades = []orderbook.Trade{}
	}
	respondJSON(w, http.StatusOK, SubmitOrderResponse{
		OrderID: res.OrderID,
		State:   res.State.String(),
		Trades:  trades,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request", err.Error())
		return
	}

	remaining, err := s.svc.Cancel(r.Context(), req.OrderID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CancelOrderResponse{
		OrderID:   req.OrderID,
		Remaining: remaining,
	})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	levels := s.depthLevels
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid levels", v)
			return
		}
		levels = n
	}

	snap, err := s.svc.Snapshot(r.Context(), levels)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetTop(w http.ResponseWriter, r *http.Request) {
	var top TopOfBook

	bid, ok, err := s.svc.BestBid(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if ok {
		top.BestBid = &bid
	}

	ask, ok, err := s.svc.BestAsk(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if ok {
		top.BestAsk = &ask
	}

	respondJSON(w, http.StatusOK, top)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since", v)
			return
		}
		since = n
	}

	trades, err := s.svc.Trades(r.Context(), since)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if trades == nil {
		trades = []orderbook.Trade{}
	}
	respondJSON(w, http.StatusOK, trades)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// -------------------- Helpers --------------------

func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderbook.ErrInvalidOrder):
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
	case errors.Is(err, orderbook.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found", err.Error())
	case errors.Is(err, orderbook.ErrBookCorrupted):
		s.log.Error("book corrupted", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "engine halted", err.Error())
	default:
		respondError(w, http.StatusServiceUnavailable, "engine unavailable", err.Error())
	}
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg, detail string) {
	respondJSON(w, code, ErrorResponse{Error: msg, Detail: detail})
}

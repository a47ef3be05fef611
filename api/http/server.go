// Package http exposes the engine over REST and websocket endpoints.
package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kestrel/api/ws"
	"kestrel/domain/book"
	"kestrel/service"
)

type Server struct {
	engine   *service.Engine
	router   *mux.Router
	log      *zap.Logger
	upgrader websocket.Upgrader

	tradeHub *ws.Hub[book.Trade]
	bookHub  *ws.Hub[service.BookUpdate]

	depthLimit int
}

func NewServer(engine *service.Engine, log *zap.Logger, depthLimit int) *Server {
	if depthLimit <= 0 {
		depthLimit = 50
	}
	s := &Server{
		engine:     engine,
		router:     mux.NewRouter(),
		log:        log,
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		tradeHub:   ws.NewHub[book.Trade](),
		bookHub:    ws.NewHub[service.BookUpdate](),
		depthLimit: depthLimit,
	}
	s.registerRoutes()

	go s.pumpTrades()
	go s.pumpBookUpdates()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(s.withRequestID)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.handleCancel).Methods(http.MethodDelete)
	api.HandleFunc("/orders/{id}", s.handleModify).Methods(http.MethodPatch)
	api.HandleFunc("/book", s.handleBook).Methods(http.MethodGet)
	api.HandleFunc("/book/depth", s.handleDepth).Methods(http.MethodGet)
	api.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)

	s.router.HandleFunc("/ws/trades", s.handleTradeStream)
	s.router.HandleFunc("/ws/book", s.handleBookStream)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

const requestIDHeader = "X-Request-Id"

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)

		s.log.Debug("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	})
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	ws.Stream(w, r, s.upgrader, s.tradeHub, "trade")
}

func (s *Server) handleBookStream(w http.ResponseWriter, r *http.Request) {
	ws.Stream(w, r, s.upgrader, s.bookHub, "book")
}

func (s *Server) pumpTrades() {
	for tr := range s.engine.TradeEvents() {
		s.tradeHub.Broadcast(tr)
	}
}

func (s *Server) pumpBookUpdates() {
	for update := range s.engine.BookUpdates() {
		s.bookHub.Broadcast(update)
	}
}

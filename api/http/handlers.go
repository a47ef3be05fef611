package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"kestrel/domain/book"
	"kestrel/jobs/ingest"
	"kestrel/service"
)

type submitRequest struct {
	ID       uint64 `json:"id,omitempty"`
	Side     string `json:"side"`
	Kind     string `json:"kind"`
	Price    int64  `json:"price,omitempty"`
	Quantity int64  `json:"quantity"`
}

type modifyRequest struct {
	NewPrice *int64 `json:"newPrice,omitempty"`
	NewQty   *int64 `json:"newQty,omitempty"`
}

type orderView struct {
	ID        uint64 `json:"id"`
	Side      string `json:"side"`
	Kind      string `json:"kind"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Remaining int64  `json:"remaining"`
	Sequence  uint64 `json:"sequence"`
	Status    string `json:"status"`
}

type tradeView struct {
	TakerID uint64    `json:"takerId"`
	MakerID uint64    `json:"makerId"`
	Price   int64     `json:"price"`
	Qty     int64     `json:"qty"`
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
}

type submitResponse struct {
	Order  orderView   `json:"order"`
	Trades []tradeView `json:"trades"`
}

type bookResponse struct {
	Bid    *book.Quote `json:"bid,omitempty"`
	Ask    *book.Quote `json:"ask,omitempty"`
	Spread *int64      `json:"spread,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	side, err := ingest.ParseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, err := ingest.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.engine.Submit(service.SubmitRequest{
		ID:       req.ID,
		Side:     side,
		Kind:     kind,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if len(res.Trades) > 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, toSubmitResponse(res))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := s.engine.Cancel(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(snap))
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.NewPrice == nil && req.NewQty == nil {
		writeError(w, http.StatusBadRequest, errors.New("nothing to modify"))
		return
	}

	res, err := s.engine.Modify(id, req.NewPrice, req.NewQty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmitResponse(res))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	top := s.engine.Top()
	resp := bookResponse{Bid: top.Bid, Ask: top.Ask}
	if spread, ok := top.Spread(); ok {
		resp.Spread = &spread
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	side, err := ingest.ParseSide(r.URL.Query().Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n := s.depthLimit
	if raw := r.URL.Query().Get("levels"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("levels must be a positive integer"))
			return
		}
		if v < n {
			n = v
		}
	}

	writeJSON(w, http.StatusOK, s.engine.Depth(side, n))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.engine.TradeHistory()
	out := make([]tradeView, 0, len(trades))
	for _, tr := range trades {
		out = append(out, toTradeView(tr))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func orderID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid order id")
	}
	return id, nil
}

func toOrderView(o book.Order) orderView {
	return orderView{
		ID:        o.ID,
		Side:      o.Side.String(),
		Kind:      o.Kind.String(),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Remaining: o.Remaining,
		Sequence:  o.Sequence,
		Status:    o.Status.String(),
	}
}

func toTradeView(tr book.Trade) tradeView {
	return tradeView{
		TakerID: tr.TakerID,
		MakerID: tr.MakerID,
		Price:   tr.Price,
		Qty:     tr.Qty,
		Seq:     tr.Seq,
		Time:    tr.Time,
	}
}

func toSubmitResponse(res book.SubmitResult) submitResponse {
	out := submitResponse{
		Order:  toOrderView(res.Order),
		Trades: make([]tradeView, 0, len(res.Trades)),
	}
	for _, tr := range res.Trades {
		out.Trades = append(out.Trades, toTradeView(tr))
	}
	return out
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, book.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, book.ErrDuplicateOrderID), errors.Is(err, book.ErrOrderAlreadyFilled):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, book.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

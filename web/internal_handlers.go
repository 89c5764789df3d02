package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type listStockRequest struct {
	Title        string `json:"title"`
	InitialValue int64  `json:"initial_value"`
}

type recordPriceRequest struct {
	Value int64 `json:"value"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) checkRound(w http.ResponseWriter, r *http.Request) {
	admission, err := s.deps.Lifecycle.CheckAndCreateRound(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, admission)
}

func (s *Server) settleRounds(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Lifecycle.SettleDueRounds(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) checkHotPotato(w http.ResponseWriter, r *http.Request) {
	admission, err := s.deps.Lifecycle.CheckAndCreateHotPotato(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, admission)
}

func (s *Server) resolveHotPotato(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Lifecycle.ResolveHotPotatoRounds(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) listStock(w http.ResponseWriter, r *http.Request) {
	var req listStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	stock, err := s.deps.Market.ListStock(r.Context(), req.Title, req.InitialValue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, stock)
}

func (s *Server) recordPrice(w http.ResponseWriter, r *http.Request) {
	var req recordPriceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	stock, err := s.deps.Market.RecordPrice(r.Context(), chi.URLParam(r, "symbol"), req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stock)
}

func (s *Server) setStockActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	stock, err := s.deps.Market.SetActive(r.Context(), chi.URLParam(r, "symbol"), req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stock)
}

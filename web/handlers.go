package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gamerit/domain"
	"gamerit/domain/entities"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 16

type placeWagerRequest struct {
	Side   string `json:"side"`
	Amount int64  `json:"amount"`
}

type placeHotPotatoWagerRequest struct {
	PredictedHours decimal.Decimal `json:"predicted_hours"`
	Amount         int64           `json:"amount"`
}

type buyRequest struct {
	Chips int64 `json:"chips"`
}

type sellRequest struct {
	Shares int64 `json:"shares"`
}

// decodeBody decodes a JSON request body into dest. It writes the error
// response itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request, fallback int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func mustSession(r *http.Request) Session {
	session, _ := SessionFromContext(r.Context())
	return session
}

// --- Players ---

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	session := mustSession(r)
	player, err := s.deps.Players.StartSession(r.Context(), session.ExternalID, session.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, player)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	player, err := s.deps.Queries.GetPlayer(r.Context(), mustSession(r).ExternalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, player)
}

func (s *Server) myHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.Queries.BalanceHistory(r.Context(), mustSession(r).ExternalID, queryLimit(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, history)
}

func (s *Server) myWagers(w http.ResponseWriter, r *http.Request) {
	wagers, err := s.deps.Queries.PlayerWagers(r.Context(), mustSession(r).ExternalID, queryLimit(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, wagers)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := s.deps.Queries.Leaderboard(r.Context(), queryLimit(r, 10))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, players)
}

// --- Classic rounds ---

func (s *Server) activeRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.deps.Queries.ActiveRound(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A nil round is a valid answer: nothing is running
	writeJSON(w, http.StatusOK, Response{Success: true, Data: round})
}

func (s *Server) recentRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.deps.Queries.RecentRounds(r.Context(), queryLimit(r, 10))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rounds)
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roundID")
	if !ok {
		return
	}
	round, err := s.deps.Queries.GetRound(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, round)
}

func (s *Server) roundPot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roundID")
	if !ok {
		return
	}
	pot, err := s.deps.Queries.RoundPot(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pot)
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roundID")
	if !ok {
		return
	}
	var req placeWagerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	side, valid := entities.ParseSide(req.Side)
	if !valid {
		writeError(w, r, domain.ErrInvalidSide)
		return
	}

	session := mustSession(r)
	wager, err := s.deps.Wagers.PlaceWager(r.Context(), session.ExternalID, session.Username, id, side, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, wager)
}

// --- Hot potato ---

func (s *Server) activeHotPotato(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.deps.Queries.ActiveHotPotatoRounds(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rounds)
}

func (s *Server) getHotPotato(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roundID")
	if !ok {
		return
	}
	round, err := s.deps.Queries.GetHotPotatoRound(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, round)
}

func (s *Server) placeHotPotatoWager(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roundID")
	if !ok {
		return
	}
	var req placeHotPotatoWagerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session := mustSession(r)
	wager, err := s.deps.Wagers.PlaceHotPotatoWager(r.Context(), session.ExternalID, session.Username, id, req.PredictedHours, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, wager)
}

// --- Meme stocks ---

func (s *Server) listStocks(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	stocks, err := s.deps.Queries.ListStocks(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stocks)
}

func (s *Server) portfolio(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Queries.Portfolio(r.Context(), mustSession(r).ExternalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session := mustSession(r)
	result, err := s.deps.Trading.Buy(r.Context(), session.ExternalID, session.Username, chi.URLParam(r, "symbol"), req.Chips)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session := mustSession(r)
	result, err := s.deps.Trading.Sell(r.Context(), session.ExternalID, session.Username, chi.URLParam(r, "symbol"), req.Shares)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

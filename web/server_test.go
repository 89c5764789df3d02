package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamerit/application"
	"gamerit/domain"
	"gamerit/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWagers struct {
	application.WagerHandler
	err   error
	calls []string
}

func (s *stubWagers) PlaceWager(ctx context.Context, externalID, username string, roundID int64, side entities.Side, amount int64) (*entities.Wager, error) {
	s.calls = append(s.calls, fmt.Sprintf("%s/%s/%d/%s/%d", externalID, username, roundID, side, amount))
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Wager{ID: 7, RoundID: roundID, Side: side, Amount: amount}, nil
}

func (s *stubWagers) PlaceHotPotatoWager(ctx context.Context, externalID, username string, roundID int64, predictedHours decimal.Decimal, amount int64) (*entities.HotPotatoWager, error) {
	s.calls = append(s.calls, fmt.Sprintf("%s/%d/%s/%d", externalID, roundID, predictedHours, amount))
	return &entities.HotPotatoWager{ID: 3, RoundID: roundID, PredictedHours: predictedHours, Amount: amount}, nil
}

type stubQueries struct {
	application.QueryHandler
	activeRound *entities.Round
}

func (s *stubQueries) ActiveRound(ctx context.Context) (*entities.Round, error) {
	return s.activeRound, nil
}

func (s *stubQueries) GetRound(ctx context.Context, id int64) (*entities.Round, error) {
	return nil, domain.ErrRoundNotFound
}

func (s *stubQueries) Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error) {
	players := make([]*entities.Player, 0, limit)
	for i := 0; i < limit; i++ {
		players = append(players, &entities.Player{ID: int64(i + 1), Points: int64(1000 - i)})
	}
	return players, nil
}

type stubLifecycle struct {
	application.RoundLifecycleHandler
	settled int
}

func (s *stubLifecycle) SettleDueRounds(ctx context.Context, now time.Time) (*entities.SettlementReport, error) {
	s.settled++
	return &entities.SettlementReport{Settled: 1, Paid: 2}, nil
}

type stubTrading struct {
	application.TradingHandler
	err error
}

func (s *stubTrading) Buy(ctx context.Context, externalID, username, symbol string, chips int64) (*entities.TradeResult, error) {
	return nil, s.err
}

type fixture struct {
	router    http.Handler
	wagers    *stubWagers
	queries   *stubQueries
	lifecycle *stubLifecycle
	trading   *stubTrading
}

func newFixture(token string) *fixture {
	f := &fixture{
		wagers:    &stubWagers{},
		queries:   &stubQueries{},
		lifecycle: &stubLifecycle{},
		trading:   &stubTrading{},
	}
	f.router = NewRouter(Dependencies{
		Wagers:       f.wagers,
		Queries:      f.queries,
		Lifecycle:    f.lifecycle,
		Trading:      f.trading,
		GatewayToken: token,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

var alice = map[string]string{HeaderUserID: "t2_alice", HeaderUsername: "alice"}

func TestSessionRequired(t *testing.T) {
	f := newFixture("")

	rec, resp := f.do(t, http.MethodPost, "/api/v1/rounds/1/wagers", `{"side":"A","amount":100}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "not logged in", resp.Error)
	assert.Empty(t, f.wagers.calls)
}

func TestPlaceWager(t *testing.T) {
	f := newFixture("")

	rec, resp := f.do(t, http.MethodPost, "/api/v1/rounds/42/wagers", `{"side":"b","amount":100}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"t2_alice/alice/42/B/100"}, f.wagers.calls)
}

func TestPlaceWagerRejections(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		err     error
		status  int
		message string
	}{
		{"bad round id", "/api/v1/rounds/abc/wagers", `{"side":"A","amount":100}`, nil, http.StatusBadRequest, "invalid roundID"},
		{"malformed body", "/api/v1/rounds/1/wagers", `{"side":`, nil, http.StatusBadRequest, "invalid request body"},
		{"unknown field", "/api/v1/rounds/1/wagers", `{"side":"A","stake":100}`, nil, http.StatusBadRequest, "invalid request body"},
		{"bad side", "/api/v1/rounds/1/wagers", `{"side":"C","amount":100}`, nil, http.StatusBadRequest, "side must be A or B"},
		{"below minimum", "/api/v1/rounds/1/wagers", `{"side":"A","amount":5}`, domain.ErrStakeBelowMinimum, http.StatusBadRequest, "stake is below the minimum"},
		{"duplicate", "/api/v1/rounds/1/wagers", `{"side":"A","amount":50}`, domain.ErrDuplicateWager, http.StatusConflict, "you already placed a wager on this round"},
		{"broke", "/api/v1/rounds/1/wagers", `{"side":"A","amount":5000}`, domain.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient balance"},
		{"store failure", "/api/v1/rounds/1/wagers", `{"side":"A","amount":50}`, errors.New("connection reset"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			f.wagers.err = tt.err

			rec, resp := f.do(t, http.MethodPost, tt.path, tt.body, alice)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestPlaceHotPotatoWager(t *testing.T) {
	f := newFixture("")

	rec, _ := f.do(t, http.MethodPost, "/api/v1/hot-potato/9/wagers", `{"predicted_hours":"10.5","amount":50}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"t2_alice/9/10.5/50"}, f.wagers.calls)
}

func TestPublicQueries(t *testing.T) {
	f := newFixture("")

	t.Run("no active round", func(t *testing.T) {
		rec, resp := f.do(t, http.MethodGet, "/api/v1/rounds/active", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Data)
	})

	t.Run("missing round", func(t *testing.T) {
		rec, resp := f.do(t, http.MethodGet, "/api/v1/rounds/77", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "round not found", resp.Error)
	})

	t.Run("leaderboard limit", func(t *testing.T) {
		rec, resp := f.do(t, http.MethodGet, "/api/v1/leaderboard?limit=3", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, resp.Data, 3)
	})

	t.Run("leaderboard default limit", func(t *testing.T) {
		_, resp := f.do(t, http.MethodGet, "/api/v1/leaderboard?limit=nope", "", nil)
		assert.Len(t, resp.Data, 10)
	})
}

func TestTradingErrors(t *testing.T) {
	f := newFixture("")
	f.trading.err = domain.ErrInsufficientChipsForOneShare

	rec, resp := f.do(t, http.MethodPost, "/api/v1/stocks/DOGE/buy", `{"chips":10}`, alice)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "not enough chips to buy one share", resp.Error)
}

func TestInternalEndpointsGuarded(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		f := newFixture("")
		rec, _ := f.do(t, http.MethodPost, "/api/v1/internal/rounds/settle", "", map[string]string{HeaderGatewayToken: ""})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, f.lifecycle.settled)
	})

	t.Run("wrong token", func(t *testing.T) {
		f := newFixture("s3cret")
		rec, resp := f.do(t, http.MethodPost, "/api/v1/internal/rounds/settle", "", map[string]string{HeaderGatewayToken: "guess"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid gateway token", resp.Error)
		assert.Zero(t, f.lifecycle.settled)
	})

	t.Run("valid token", func(t *testing.T) {
		f := newFixture("s3cret")
		rec, resp := f.do(t, http.MethodPost, "/api/v1/internal/rounds/settle", "", map[string]string{HeaderGatewayToken: "s3cret"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, f.lifecycle.settled)

		report, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 2, report["paid"])
	})
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, StatusForError(domain.ErrUpstreamUnavailable))
	assert.Equal(t, http.StatusConflict, StatusForError(fmt.Errorf("wrapped: %w", domain.ErrRoundNotActive)))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("boom")))
}

func TestHealth(t *testing.T) {
	r := NewRouter(Dependencies{HealthCheck: func(context.Context) error { return errors.New("down") }})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

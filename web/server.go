package web

import (
	"context"
	"net/http"
	"time"

	"gamerit/application"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Dependencies are the application handlers the HTTP surface calls into
type Dependencies struct {
	Players      application.PlayerHandler
	Wagers       application.WagerHandler
	Trading      application.TradingHandler
	Market       application.MarketHandler
	Lifecycle    application.RoundLifecycleHandler
	Queries      application.QueryHandler
	WebSocket    http.HandlerFunc
	GatewayToken string

	// HealthCheck reports whether the service can reach its store
	HealthCheck func(ctx context.Context) error
}

// Server serves the RPC surface
type Server struct {
	deps Dependencies
	now  func() time.Time
}

// NewRouter builds the chi router for the whole HTTP surface
func NewRouter(deps Dependencies) chi.Router {
	s := &Server{deps: deps, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/health", s.health)
	r.Handle("/metrics", MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		if deps.WebSocket != nil {
			r.Get("/ws", deps.WebSocket)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/leaderboard", s.leaderboard)
			r.Get("/rounds/active", s.activeRound)
			r.Get("/rounds/recent", s.recentRounds)
			r.Get("/rounds/{roundID}", s.getRound)
			r.Get("/rounds/{roundID}/pot", s.roundPot)
			r.Get("/hot-potato/active", s.activeHotPotato)
			r.Get("/hot-potato/{roundID}", s.getHotPotato)
			r.Get("/stocks", s.listStocks)

			r.Group(func(r chi.Router) {
				r.Use(requireSession)

				r.Post("/session", s.startSession)
				r.Get("/me", s.me)
				r.Get("/me/history", s.myHistory)
				r.Get("/me/wagers", s.myWagers)
				r.Post("/rounds/{roundID}/wagers", s.placeWager)
				r.Post("/hot-potato/{roundID}/wagers", s.placeHotPotatoWager)
				r.Get("/portfolio", s.portfolio)
				r.Post("/stocks/{symbol}/buy", s.buy)
				r.Post("/stocks/{symbol}/sell", s.sell)
			})
		})

		r.Route("/internal", func(r chi.Router) {
			r.Use(requireGatewayToken(deps.GatewayToken))
			r.Use(middleware.Timeout(5 * time.Minute))

			r.Post("/rounds/check", s.checkRound)
			r.Post("/rounds/settle", s.settleRounds)
			r.Post("/hot-potato/check", s.checkHotPotato)
			r.Post("/hot-potato/resolve", s.resolveHotPotato)
			r.Post("/stocks", s.listStock)
			r.Post("/stocks/{symbol}/price", s.recordPrice)
			r.Post("/stocks/{symbol}/active", s.setStockActive)
		})
	})

	return r
}

// requestLogger logs each request through logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
			"requestID": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthCheck != nil {
		if err := s.deps.HealthCheck(r.Context()); err != nil {
			log.WithError(err).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "database unavailable"})
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok", "service": "gamerit"})
}

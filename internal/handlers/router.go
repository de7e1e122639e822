package handlers

import (
	"net/http"
	"strings"

	"goldtrader/internal/config"
	"goldtrader/internal/db"
	"goldtrader/internal/metrics"
	"goldtrader/internal/middleware"
	"goldtrader/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps groups everything the HTTP layer talks to.
type Deps struct {
	TxRunner     db.TxRunner
	Config       config.Config
	Logger       *zap.Logger
	Users        UserStore
	Holdings     HoldingStore
	Transactions TransactionStore
	Prices       PriceStore
	Deposits     DepositStore
	Alerts       AlertStore
	Audit        AuditStore
	Trades       TradeService
	DepositFlow  DepositService
	AlertFlow    AlertService
	PriceFeed    PriceService
	Hub          *websocket.Hub
	Metrics      *metrics.Metrics
}

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	logger       *zap.Logger
	users        UserStore
	holdings     HoldingStore
	transactions TransactionStore
	prices       PriceStore
	deposits     DepositStore
	alerts       AlertStore
	audit        AuditStore
	trades       TradeService
	depositFlow  DepositService
	alertFlow    AlertService
	priceFeed    PriceService
	hub          *websocket.Hub
	metrics      *metrics.Metrics
	limiter      *middleware.RateLimiter
}

func New(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		txRunner:     deps.TxRunner,
		cfg:          deps.Config,
		logger:       logger,
		users:        deps.Users,
		holdings:     deps.Holdings,
		transactions: deps.Transactions,
		prices:       deps.Prices,
		deposits:     deps.Deposits,
		alerts:       deps.Alerts,
		audit:        deps.Audit,
		trades:       deps.Trades,
		depositFlow:  deps.DepositFlow,
		alertFlow:    deps.AlertFlow,
		priceFeed:    deps.PriceFeed,
		hub:          deps.Hub,
		metrics:      deps.Metrics,
		limiter:      middleware.NewRateLimiter(deps.Config.TradeRatePerSecond, deps.Config.TradeRateBurst),
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(h.metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(h.cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authed := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authed).Get("/me", h.Me)
		r.With(authed).Patch("/me", h.UpdateMe)
	})

	router.Route("/wallet", func(r chi.Router) {
		r.Use(authed)
		r.Get("/balance", h.GetBalance)
		r.Get("/holdings", h.GetHoldings)
		r.Get("/summary", h.GetSummary)
	})

	router.With(authed, h.limiter.Middleware).Post("/trade", h.Trade)
	router.With(authed).Get("/transactions", h.ListTransactions)

	router.Route("/prices", func(r chi.Router) {
		r.Get("/", h.ListPrices)
		r.Get("/current", h.CurrentPrice)
		r.Get("/{id}", h.GetPrice)
		r.With(authed, middleware.RequireStaff(h.users)).Post("/", h.CreatePrice)
	})

	router.Route("/deposits", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", h.ListDeposits)
		r.With(h.limiter.Middleware).Post("/", h.CreateDeposit)
		r.With(h.limiter.Middleware).Post("/mock", h.MockDeposit)
		r.Get("/{id}", h.GetDeposit)
		r.With(h.limiter.Middleware).Post("/{id}/complete", h.CompleteDeposit)
	})

	router.Route("/alerts", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", h.ListAlerts)
		r.Post("/", h.CreateAlert)
		r.Get("/{id}", h.GetAlert)
		r.Patch("/{id}", h.UpdateAlert)
		r.Delete("/{id}", h.DeleteAlert)
		r.Post("/{id}/toggle", h.ToggleAlert)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authed)
		r.Use(middleware.RequireStaff(h.users))
		r.Get("/audit", h.ListAuditLogs)
		r.Get("/transactions", h.AdminListTransactions)
	})

	router.Get("/ws/prices", h.WSPrices)
	router.Get("/ws/alerts", h.WSAlerts)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	return router
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"clarify/internal/auth"
	"clarify/internal/log"
	"clarify/internal/metrics"
	"clarify/internal/middleware/ratelimit"
	"clarify/internal/middleware/security"
	"clarify/internal/middleware/trace"
	"clarify/internal/services"
)

// Services bundles the application services the handlers call.
type Services struct {
	Accounts  *services.AccountService
	Ledger    *services.LedgerAggregator
	Movements *services.MovementService
	Goals     *services.GoalService
	Evaluator *services.AchievementEvaluator
	Plans     *services.PlanService
	Payments  *services.PaymentService
	AI        *services.AIService
	Support   *services.SupportService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server settings that are not services.
type Config struct {
	Addr               string
	TaskSecret         string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	svc        Services
	db         Pinger
	tokens     *auth.JWTManager
	taskSecret string
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// m may be nil, in which case /metrics is not mounted.
func NewServer(cfg Config, svc Services, db Pinger, tokens *auth.JWTManager, m *metrics.Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rl := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		svc:        svc,
		db:         db,
		tokens:     tokens,
		taskSecret: cfg.TaskSecret,
		limiter:    ratelimit.NewLimiter(rl),
		detector:   security.NewDetector(),
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited)(handler)
	handler = trace.NewMiddleware(logger, m, s.detector.ExtractClientIP).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Accounts
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/v1/me", s.withUser(s.handleMe))

	// Groups
	mux.HandleFunc("GET /api/v1/groups/{groupID}/dashboard", s.withGroup(s.handleDashboard))
	mux.HandleFunc("GET /api/v1/groups/{groupID}/summary", s.withGroup(s.handleMonthSummary))
	mux.HandleFunc("GET /api/v1/groups/{groupID}/movements", s.withGroup(s.handleListMovements))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/movements", s.withGroup(s.handleCreateMovement))
	mux.HandleFunc("PUT /api/v1/groups/{groupID}/movements/{movementID}", s.withGroup(s.handleUpdateMovement))
	mux.HandleFunc("DELETE /api/v1/groups/{groupID}/movements/{movementID}", s.withGroup(s.handleDeleteMovement))
	mux.HandleFunc("GET /api/v1/groups/{groupID}/goals", s.withGroup(s.handleListGoals))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/goals", s.withGroup(s.handleCreateGoal))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/goals/{goalID}/deposit", s.withGroup(s.handleDeposit))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/goals/{goalID}/withdraw", s.withGroup(s.handleWithdraw))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/goals/{goalID}/cancel", s.withGroup(s.handleCancelGoal))
	mux.HandleFunc("GET /api/v1/groups/{groupID}/badges", s.withGroup(s.handleListBadges))
	mux.HandleFunc("GET /api/v1/groups/{groupID}/premium", s.withGroup(s.handlePremiumStatus))
	mux.HandleFunc("GET /api/v1/groups/{groupID}/payments", s.withGroup(s.handleListPayments))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/payments", s.withGroup(s.handleCreatePayment))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/payments/{paymentID}/paid", s.withGroup(s.handleMarkPaid))
	mux.HandleFunc("DELETE /api/v1/groups/{groupID}/payments/{paymentID}", s.withGroup(s.handleDeletePayment))
	mux.HandleFunc("POST /api/v1/groups/{groupID}/ai/parse", s.withGroup(s.handleAIParse))

	// Support
	mux.HandleFunc("GET /api/v1/support/tickets", s.withUser(s.handleMyTickets))
	mux.HandleFunc("POST /api/v1/support/tickets", s.withUser(s.handleOpenTicket))

	// Collaborator portal
	mux.HandleFunc("POST /api/v1/portal/login", s.handlePortalLogin)
	mux.HandleFunc("GET /api/v1/portal/tickets", s.withCollaborator(s.handlePortalTickets))
	mux.HandleFunc("POST /api/v1/portal/tickets/{ticketID}/resolve", s.withCollaborator(s.handleResolveTicket))
	mux.HandleFunc("GET /api/v1/portal/stats", s.withAdmin(s.handlePortalStats))
	mux.HandleFunc("POST /api/v1/portal/groups/{groupID}/premium", s.withAdmin(s.handleGrantPremium))
	mux.HandleFunc("GET /api/v1/portal/users", s.withAdmin(s.handlePortalUsers))
	mux.HandleFunc("GET /api/v1/portal/users/{userID}", s.withAdmin(s.handlePortalUser))
	mux.HandleFunc("PUT /api/v1/portal/users/{userID}", s.withAdmin(s.handlePortalUpdateUser))
	mux.HandleFunc("PUT /api/v1/portal/users/{userID}/password", s.withAdmin(s.handlePortalSetPassword))

	// Scheduled tasks
	mux.HandleFunc("POST /tasks/check-monthly-achievements", s.handleCheckMonthlyAchievements)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

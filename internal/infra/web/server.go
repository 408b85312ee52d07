package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"membership-platform/internal/infra/logging"
	"membership-platform/internal/infra/metrics"
	red "membership-platform/internal/infra/redis"
	"membership-platform/internal/usecase"
)

// Server is the admin HTTP surface plus the public payment webhook.
type Server struct {
	memberships   usecase.MembershipUseCase
	subscriptions usecase.SubscriptionUseCase
	approvals     usecase.ApprovalUseCase
	payments      usecase.PaymentUseCase
	plans         usecase.PlanUseCase
	services      usecase.ServiceUseCase
	stats         usecase.StatsUseCase

	auth          *AuthManager
	limiter       *red.RateLimiter
	webhookVerify func(body []byte, signature string) bool
	webhookBurst  int
	webhookWindow time.Duration

	log *zerolog.Logger
}

type ServerDeps struct {
	Memberships   usecase.MembershipUseCase
	Subscriptions usecase.SubscriptionUseCase
	Approvals     usecase.ApprovalUseCase
	Payments      usecase.PaymentUseCase
	Plans         usecase.PlanUseCase
	Services      usecase.ServiceUseCase
	Stats         usecase.StatsUseCase

	Auth          *AuthManager
	Limiter       *red.RateLimiter
	WebhookVerify func(body []byte, signature string) bool
	WebhookBurst  int
	WebhookWindow time.Duration
}

func NewServer(deps ServerDeps, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	if deps.WebhookBurst <= 0 {
		deps.WebhookBurst = 60
	}
	if deps.WebhookWindow <= 0 {
		deps.WebhookWindow = time.Minute
	}
	return &Server{
		memberships:   deps.Memberships,
		subscriptions: deps.Subscriptions,
		approvals:     deps.Approvals,
		payments:      deps.Payments,
		plans:         deps.Plans,
		services:      deps.Services,
		stats:         deps.Stats,
		auth:          deps.Auth,
		limiter:       deps.Limiter,
		webhookVerify: deps.WebhookVerify,
		webhookBurst:  deps.WebhookBurst,
		webhookWindow: deps.WebhookWindow,
		log:           &l,
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/v1/auth/login", s.handleLogin)
	r.Post("/api/v1/auth/logout", s.handleLogout)

	// Public: the gateway calls this. Authenticated by HMAC signature, not a
	// session, and rate limited ahead of any verification work.
	r.Post("/api/v1/webhooks/payment", s.handlePaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)

		r.Route("/api/v1/plans", func(r chi.Router) {
			r.Get("/", s.handlePlanList)
			r.Post("/", s.handlePlanCreate)
			r.Get("/{id}", s.handlePlanGet)
			r.Put("/{id}", s.handlePlanUpdate)
			r.Delete("/{id}", s.handlePlanDelete)
		})

		r.Route("/api/v1/services", func(r chi.Router) {
			r.Get("/", s.handleServiceList)
			r.Post("/", s.handleServiceCreate)
			r.Get("/{id}", s.handleServiceGet)
			r.Put("/{id}", s.handleServiceUpdate)
			r.Delete("/{id}", s.handleServiceDelete)
		})

		r.Route("/api/v1/memberships", func(r chi.Router) {
			r.Post("/", s.handleMembershipPurchase)
			r.Get("/{id}", s.handleMembershipGet)
			r.Post("/{id}/cancel", s.handleMembershipCancel)
			r.Post("/{id}/extend", s.handleMembershipExtend)
			r.Post("/{id}/refund", s.handleMembershipRefund)
			r.Post("/{id}/restore", s.handleMembershipRestore)
			r.Delete("/{id}", s.handleMembershipSoftDelete)
			r.Delete("/{id}/permanent", s.handleMembershipPermanentDelete)
		})

		r.Route("/api/v1/subscriptions", func(r chi.Router) {
			r.Post("/", s.handleSubscriptionPurchase)
			r.Get("/{id}", s.handleSubscriptionGet)
			r.Post("/{id}/cancel", s.handleSubscriptionCancel)
			r.Post("/{id}/extend", s.handleSubscriptionExtend)
			r.Post("/{id}/refund", s.handleSubscriptionRefund)
			r.Post("/{id}/restore", s.handleSubscriptionRestore)
			r.Delete("/{id}", s.handleSubscriptionSoftDelete)
			r.Delete("/{id}/permanent", s.handleSubscriptionPermanentDelete)
		})

		r.Route("/api/v1/members/{phone}", func(r chi.Router) {
			r.Get("/memberships", s.handleMemberMemberships)
			r.Get("/subscriptions", s.handleMemberSubscriptions)
			r.Get("/active", s.handleMemberActive)
			r.Get("/payments", s.handleMemberPayments)
		})

		r.Route("/api/v1/requests", func(r chi.Router) {
			r.Post("/", s.handleRequestSubmit)
			r.Get("/", s.handleRequestList)
			r.Get("/{id}", s.handleRequestGet)
			r.Post("/{id}/approve", s.handleRequestApprove)
			r.Post("/{id}/reject", s.handleRequestReject)
			r.Post("/{id}/withdraw", s.handleRequestWithdraw)
		})

		r.Get("/api/v1/stats", s.handleStats)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.With(ctx, s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type loginRequest struct {
	AdminKey string `json:"admin_key" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := s.auth.Exchange(req.AdminKey)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}
	s.auth.setCookie(w, token, int(s.auth.ttl.Seconds()))
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.setCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.SetEntitlementsTotal("membership", stats.Memberships)
	metrics.SetEntitlementsTotal("service", stats.Subscriptions)
	writeJSON(w, http.StatusOK, stats)
}

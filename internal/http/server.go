// Package http serves the JSON API. Identity comes from the X-User-ID
// header set by the auth proxy; every row the handlers touch is scoped to
// that user.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/cache"
	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/middleware/ratelimit"
	"github.com/weltonoliveiral/domusfinance/internal/middleware/security"
	"github.com/weltonoliveiral/domusfinance/internal/middleware/trace"
	"github.com/weltonoliveiral/domusfinance/internal/services"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// Deps carries everything the server needs. Repo is used directly for the
// thin CRUD surfaces; the services wrap the flows with extra rules.
type Deps struct {
	Expenses *services.ExpenseService
	Budgets  *services.BudgetService
	Reset    *services.PasswordResetService
	Repo     *storage.SQLiteRepository
	Clock    *clock.Clock
}

type Server struct {
	http.Server
	deps Deps

	limiter  *ratelimit.Limiter
	headers  *security.HeadersMiddleware
	detector *security.Detector
	tracer   *trace.Middleware

	// Month summaries are the most expensive read; cached per (user, month)
	// and invalidated on every expense mutation.
	summaryCache *cache.LRUCache[services.MonthlySummary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		deps:         deps,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers:      security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		detector:     security.NewDetector(),
		summaryCache: cache.NewLRUCache[services.MonthlySummary](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	api := http.NewServeMux()
	s.routes(api)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", s.chain(api)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/summary", s.handleMonthSummary)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /budgets", s.handleSetBudget)
	mux.HandleFunc("DELETE /budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /notifications", s.handleListNotifications)
	mux.HandleFunc("POST /notifications", s.handleCreateNotification)
	mux.HandleFunc("GET /notifications/unread-count", s.handleUnreadCount)
	mux.HandleFunc("POST /notifications/read-all", s.handleMarkAllRead)
	mux.HandleFunc("POST /notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("DELETE /notifications/{id}", s.handleDeleteNotification)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /goals", s.handleListGoals)
	mux.HandleFunc("POST /goals", s.handleCreateGoal)
	mux.HandleFunc("POST /goals/{id}/progress", s.handleGoalProgress)
	mux.HandleFunc("DELETE /goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /shopping-lists", s.handleListShoppingLists)
	mux.HandleFunc("POST /shopping-lists", s.handleCreateShoppingList)
	mux.HandleFunc("PUT /shopping-lists/{id}", s.handleUpdateShoppingList)
	mux.HandleFunc("DELETE /shopping-lists/{id}", s.handleDeleteShoppingList)

	mux.HandleFunc("GET /household-members", s.handleListMembers)
	mux.HandleFunc("POST /household-members", s.handleCreateMember)
	mux.HandleFunc("PUT /household-members/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE /household-members/{id}", s.handleDeleteMember)

	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handleUpdateSettings)

	mux.HandleFunc("POST /password-reset/request", s.handleResetRequest)
	mux.HandleFunc("POST /password-reset/validate", s.handleResetValidate)
	mux.HandleFunc("POST /password-reset/confirm", s.handleResetConfirm)

	// Household sharing is disabled upstream; queries answer empty,
	// mutations refuse.
	mux.HandleFunc("GET /household/invites", s.handleEmptyList)
	mux.HandleFunc("GET /household/shared", s.handleEmptyList)
	mux.HandleFunc("GET /household/shared-expenses", s.handleEmptyList)
	mux.HandleFunc("POST /household/invite", s.handleSharingDisabled)
	mux.HandleFunc("POST /household/invites/{id}/accept", s.handleSharingDisabled)
	mux.HandleFunc("POST /household/invites/{id}/reject", s.handleSharingDisabled)
}

// chain applies security headers, tracing and write rate limiting.
func (s *Server) chain(next http.Handler) http.Handler {
	limited := s.rateLimitWrites(s.flagSuspicious(next))
	return s.headers.Middleware(s.tracer.Middleware(limited))
}

func (s *Server) rateLimitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			clientIP := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP,
					"method", r.Method,
					"path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "limite de requisições excedido")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", s.detector.ExtractClientIP(r),
				"method", r.Method,
				"path", r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repo.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the background cleanups along with the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateSummary drops the cached month summary that an expense mutation
// made stale. date is the expense's civil date.
func (s *Server) invalidateSummary(userID, date string) {
	if len(date) < 7 {
		return
	}
	s.summaryCache.Delete(summaryKey(userID, date[:7]))
}

func summaryKey(userID, month string) string {
	return userID + "|" + month
}

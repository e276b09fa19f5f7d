package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/services"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	clk, err := clock.NewWithNow("America/Sao_Paulo", func() time.Time {
		loc, _ := time.LoadLocation("America/Sao_Paulo")
		return time.Date(2024, time.May, 20, 10, 0, 0, 0, loc)
	})
	if err != nil {
		t.Fatalf("clock.NewWithNow() error = %v", err)
	}

	deps := Deps{
		Expenses: services.NewExpenseService(repo, nil, clk),
		Budgets:  services.NewBudgetService(repo, clk),
		Reset:    services.NewPasswordResetService(repo, clk, time.Hour),
		Repo:     repo,
		Clock:    clk,
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() {
		srv.cacheManager.Stop()
		srv.limiter.Stop()
	})
	return srv, repo
}

func doRequest(t *testing.T, srv *Server, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func seedCategory(t *testing.T, repo *storage.SQLiteRepository, userID string) core.Category {
	t.Helper()
	cats, err := repo.ListCategories(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("expected seeded default categories")
	}
	return cats[0]
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, srv, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /readyz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestWriteRequiresIdentity(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses", "", expenseRequest{
		CategoryID:  "cat-1",
		Description: "mercado",
		Amount:      "50.00",
		Date:        "2024-05-20",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Error != "não autenticado" {
		t.Errorf("error = %q, want %q", resp.Error, "não autenticado")
	}
}

func TestReadWithoutIdentityAnswersEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decodeBody[[]core.Expense](t, rec); len(got) != 0 {
		t.Errorf("expenses = %v, want empty", got)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses/summary", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "null\n" {
		t.Errorf("summary body = %q, want null", body)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv, repo := newTestServer(t)
	cat := seedCategory(t, repo, "user-1")

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses", "user-1", expenseRequest{
		CategoryID:  cat.ID,
		Description: "feira da semana",
		Amount:      "123.45",
		Date:        "2024-05-18",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Expense](t, rec)
	if created.ID == "" {
		t.Fatal("created expense has no ID")
	}
	if created.Amount.Cents != 12345 {
		t.Errorf("amount = %d cents, want 12345", created.Amount.Cents)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses", "user-1", nil)
	if got := decodeBody[[]core.Expense](t, rec); len(got) != 1 {
		t.Fatalf("list returned %d expenses, want 1", len(got))
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/expenses/"+created.ID, "user-1", expenseRequest{
		CategoryID:  cat.ID,
		Description: "feira da semana",
		Amount:      "99,90",
		Date:        "2024-05-18",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Expense](t, rec)
	if updated.Amount.Cents != 9990 {
		t.Errorf("updated amount = %d cents, want 9990", updated.Amount.Cents)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/expenses/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExpenseIsolationBetweenUsers(t *testing.T) {
	srv, repo := newTestServer(t)
	cat := seedCategory(t, repo, "user-1")

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses", "user-1", expenseRequest{
		CategoryID:  cat.ID,
		Description: "farmácia",
		Amount:      "30.00",
		Date:        "2024-05-10",
	})
	created := decodeBody[core.Expense](t, rec)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses/"+created.ID, "user-2", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses", "user-2", nil)
	if got := decodeBody[[]core.Expense](t, rec); len(got) != 0 {
		t.Errorf("user-2 sees %d expenses, want 0", len(got))
	}
}

func TestMonthSummaryCacheInvalidation(t *testing.T) {
	srv, repo := newTestServer(t)
	cat := seedCategory(t, repo, "user-1")

	create := func(amount string) {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses", "user-1", expenseRequest{
			CategoryID:  cat.ID,
			Description: "compra",
			Amount:      amount,
			Date:        "2024-05-15",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
		}
	}

	create("100.00")
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses/summary?month=2024-05", "user-1", nil)
	first := decodeBody[services.MonthlySummary](t, rec)
	if first.TotalExpenses.Cents != 10000 {
		t.Fatalf("first total = %d cents, want 10000", first.TotalExpenses.Cents)
	}

	// A second hit comes from cache and must match.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses/summary?month=2024-05", "user-1", nil)
	if got := decodeBody[services.MonthlySummary](t, rec); got.TotalExpenses.Cents != 10000 {
		t.Fatalf("cached total = %d cents, want 10000", got.TotalExpenses.Cents)
	}

	// Creating another expense drops the cached entry.
	create("50.00")
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/expenses/summary?month=2024-05", "user-1", nil)
	second := decodeBody[services.MonthlySummary](t, rec)
	if second.TotalExpenses.Cents != 15000 {
		t.Errorf("total after second expense = %d cents, want 15000", second.TotalExpenses.Cents)
	}
	if second.ExpenseCount != 2 {
		t.Errorf("expense count = %d, want 2", second.ExpenseCount)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv, repo := newTestServer(t)
	cat := seedCategory(t, repo, "user-1")

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/budgets", "user-1", budgetRequest{
		CategoryID: cat.ID,
		Month:      "2024-05",
		Limit:      "1000.00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set budget status = %d, body = %s", rec.Code, rec.Body.String())
	}
	budget := decodeBody[core.Budget](t, rec)
	if budget.Limit.Cents != 100000 {
		t.Errorf("limit = %d cents, want 100000", budget.Limit.Cents)
	}

	// An expense recorded after the budget shows up as live spend.
	doRequest(t, srv, http.MethodPost, "/api/v1/expenses", "user-1", expenseRequest{
		CategoryID:  cat.ID,
		Description: "aluguel",
		Amount:      "960.00",
		Date:        "2024-05-05",
	})

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/budgets?month=2024-05", "user-1", nil)
	budgets := decodeBody[[]core.Budget](t, rec)
	if len(budgets) != 1 {
		t.Fatalf("list returned %d budgets, want 1", len(budgets))
	}
	if budgets[0].Spent.Cents != 96000 {
		t.Errorf("spent = %d cents, want 96000", budgets[0].Spent.Cents)
	}
	if budgets[0].Status != core.StatusWarning {
		t.Errorf("status = %q, want %q", budgets[0].Status, core.StatusWarning)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/budgets", "user-1", budgetRequest{
		CategoryID: cat.ID,
		Month:      "2024-05",
		Limit:      "0",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero limit status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/budgets/"+budget.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete budget status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCustomNotificationLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/notifications", "user-1",
		map[string]string{"title": "Lembrete", "message": "Pagar o aluguel amanhã"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Notification](t, rec)
	if created.Type != core.NotificationCustom {
		t.Errorf("type = %q, want %q", created.Type, core.NotificationCustom)
	}
	if created.Priority != core.PriorityMedium {
		t.Errorf("default priority = %q, want %q", created.Priority, core.PriorityMedium)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/notifications/unread-count", "user-1", nil)
	counts := decodeBody[map[string]int](t, rec)
	if counts["count"] != 1 {
		t.Errorf("unread count = %d, want 1", counts["count"])
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/notifications", "user-1",
		map[string]string{"title": "Urgente", "message": "x", "priority": "alta"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown priority status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/notifications", "user-1",
		map[string]string{"message": "sem título"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGoalListDerivedFields(t *testing.T) {
	srv, _ := newTestServer(t)

	create := func(name, target, targetDate string) core.SavingsGoal {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/goals", "user-1", goalRequest{
			Name:       name,
			Target:     target,
			TargetDate: targetDate,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create goal status = %d, body = %s", rec.Code, rec.Body.String())
		}
		return decodeBody[core.SavingsGoal](t, rec)
	}

	// Clock is pinned to 2024-05-20.
	upcoming := create("Viagem", "1000.00", "2024-06-10")
	create("Reforma", "500.00", "2024-05-01")

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/goals/"+upcoming.ID+"/progress", "user-1",
		map[string]int64{"delta_cents": 25000})
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/goals", "user-1", nil)
	goals := decodeBody[[]goalResponse](t, rec)
	if len(goals) != 2 {
		t.Fatalf("list returned %d goals, want 2", len(goals))
	}

	byName := map[string]goalResponse{}
	for _, g := range goals {
		byName[g.Name] = g
	}

	viagem := byName["Viagem"]
	if viagem.Progress != 25.0 {
		t.Errorf("Viagem progress = %v, want 25", viagem.Progress)
	}
	if viagem.Remaining.Cents != 75000 {
		t.Errorf("Viagem remaining = %d cents, want 75000", viagem.Remaining.Cents)
	}
	if viagem.DaysRemaining != 21 {
		t.Errorf("Viagem days remaining = %d, want 21", viagem.DaysRemaining)
	}
	if viagem.Status != core.GoalUrgent {
		t.Errorf("Viagem status = %q, want %q", viagem.Status, core.GoalUrgent)
	}

	reforma := byName["Reforma"]
	if reforma.DaysRemaining != -19 {
		t.Errorf("Reforma days remaining = %d, want -19", reforma.DaysRemaining)
	}
	if reforma.Status != core.GoalOverdue {
		t.Errorf("Reforma status = %q, want %q", reforma.Status, core.GoalOverdue)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/password-reset/request", "",
		map[string]string{"email": "ana@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("request status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// The token must never leak through the HTTP response.
	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := raw["token"]; ok {
		t.Error("response exposes the reset token")
	}

	// Unknown addresses get the same answer.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/password-reset/request", "",
		map[string]string{"email": "not-an-email"})
	if rec.Code != http.StatusOK {
		t.Errorf("malformed email status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/password-reset/validate", "",
		map[string]string{"token": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad token status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSharingEndpointsDisabled(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/api/v1/household/invites",
		"/api/v1/household/shared",
		"/api/v1/household/shared-expenses",
	} {
		rec := doRequest(t, srv, http.MethodGet, path, "user-1", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
		if body := rec.Body.String(); body != "[]\n" {
			t.Errorf("GET %s body = %q, want empty list", path, body)
		}
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/household/invite", "user-1",
		map[string]string{"email": "b@example.com"})
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("invite status = %d, want %d", rec.Code, http.StatusNotImplemented)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Error != "funcionalidade temporariamente desabilitada" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses", "user-1", nil)
	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Content-Security-Policy",
	} {
		if rec.Header().Get(header) == "" {
			t.Errorf("missing %s header", header)
		}
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Error != "corpo da requisição inválido" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/settings", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings status = %d, body = %s", rec.Code, rec.Body.String())
	}
	settings := decodeBody[core.UserSettings](t, rec)
	if settings.Currency != "BRL" {
		t.Errorf("default currency = %q, want BRL", settings.Currency)
	}

	theme := "dark"
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/settings", "user-1",
		map[string]string{"theme": theme})
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.UserSettings](t, rec)
	if updated.Theme != theme {
		t.Errorf("theme = %q, want %q", updated.Theme, theme)
	}
	if updated.Currency != "BRL" {
		t.Errorf("currency after partial update = %q, want BRL", updated.Currency)
	}
}

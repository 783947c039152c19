package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-inventory-checklist/internal/handler"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/internal/testutil"
	"go-inventory-checklist/internal/ws"
	"go-inventory-checklist/pkg/jwt"
	"go-inventory-checklist/pkg/metrics"
	"go-inventory-checklist/pkg/realtime"
)

type testApp struct {
	app      *fiber.App
	db       *gorm.DB
	verifier *jwt.Verifier
	hub      *ws.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	log := zerolog.Nop()
	hub := ws.NewHub(log, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	userRepo := repository.NewUserRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	referenceRepo := repository.NewReferenceRepo(db)
	verifier := jwt.NewVerifier("handler-test-secret")

	svc := handler.Services{
		Auth:      service.NewAuthService(verifier, userRepo, repository.NewSuperAdminRepo(db), hub, log),
		Users:     service.NewUserService(db, userRepo, companyRepo, hub, log),
		Companies: service.NewCompanyService(companyRepo, hub, log),
		Inventory: service.NewInventoryService(db, productRepo, movementRepo, referenceRepo, hub, log),
		Reference: service.NewReferenceService(referenceRepo, log),
		Checklist: service.NewChecklistService(repository.NewChecklistRepo(db), hub, log),
		Dashboard: service.NewDashboardService(repository.NewDashboardRepo(db), movementRepo),
	}
	app := handler.NewRouter(handler.RouterConfig{
		AppName:  "test",
		Verifier: verifier,
		Hub:      hub,
		Metrics:  metrics.NewHTTPMetrics("test", prometheus.NewRegistry()),
		Logger:   log,
	}, svc)

	return &testApp{app: app, db: db, verifier: verifier, hub: hub}
}

// login links u to an identity and returns an access token for it.
func (a *testApp) login(t *testing.T, u *model.User) string {
	t.Helper()
	authID := "auth-" + u.ID.String()
	require.NoError(t, a.db.Model(u).Update("auth_user_id", authID).Error)
	return a.token(t, authID, u.Email)
}

func (a *testApp) token(t *testing.T, authID, email string) string {
	t.Helper()
	token, err := a.verifier.GenerateToken(authID, email, time.Hour)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	resp, body := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, 401, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/products", "not-a-jwt", nil)
	assert.Equal(t, 401, resp.StatusCode)

	// valid token, but nobody synced it yet
	resp, body := a.do(t, http.MethodGet, "/api/products", a.token(t, "auth-stranger", "s@x.com"), nil)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Contains(t, errorOf(t, body), "sync first")
}

func TestSyncUser(t *testing.T) {
	a := newTestApp(t)
	company := testutil.SeedCompany(t, a.db, "padaria", 5)
	testutil.SeedUser(t, a.db, company, "ana@padaria.com", model.RoleManager)
	token := a.token(t, "auth-ana", "ana@padaria.com")

	resp, _ := a.do(t, http.MethodPost, "/api/auth/sync-user", "", map[string]interface{}{})
	assert.Equal(t, 401, resp.StatusCode)

	resp, body := a.do(t, http.MethodPost, "/api/auth/sync-user", token, map[string]interface{}{
		"user": map[string]string{"id": "auth-ana", "email": "ana@padaria.com"},
	})
	require.Equal(t, 200, resp.StatusCode, string(body))
	var out struct {
		User model.UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ana@padaria.com", out.User.Email)
	assert.Equal(t, model.RoleManager, out.User.Role)
	assert.Equal(t, "padaria", out.User.CompanyName)
	require.NotNil(t, out.User.AuthUserID)
	assert.Equal(t, "auth-ana", *out.User.AuthUserID)

	resp, body = a.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `"email":"ana@padaria.com"`)

	// the body cannot speak for another identity
	resp, _ = a.do(t, http.MethodPost, "/api/auth/sync-user", token, map[string]interface{}{
		"user": map[string]string{"id": "auth-bob", "email": "ana@padaria.com"},
	})
	assert.Equal(t, 403, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, "/api/auth/sync-user", a.token(t, "auth-ghost", "ghost@x.com"), nil)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestMasterRoutes(t *testing.T) {
	a := newTestApp(t)
	company := testutil.SeedCompany(t, a.db, "padaria", 5)
	admin := testutil.SeedUser(t, a.db, company, "admin@padaria.com", model.RoleAdmin)
	master := testutil.SeedUser(t, a.db, nil, "root@platform.io", model.RoleMaster)

	resp, _ := a.do(t, http.MethodGet, "/api/master/companies", a.login(t, admin), nil)
	assert.Equal(t, 403, resp.StatusCode)

	masterToken := a.login(t, master)
	resp, body := a.do(t, http.MethodPost, "/api/master/companies", masterToken, map[string]interface{}{
		"name": "Mercado", "email": "contato@mercado.com", "max_users": 3,
	})
	require.Equal(t, 201, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodGet, "/api/master/companies", masterToken, nil)
	require.Equal(t, 200, resp.StatusCode)
	var companies []model.Company
	require.NoError(t, json.Unmarshal(body, &companies))
	assert.Len(t, companies, 2)

	resp, body = a.do(t, http.MethodPost, "/api/master/companies", masterToken, map[string]interface{}{"name": "Sem email"})
	assert.Equal(t, 400, resp.StatusCode)
	assert.NotEmpty(t, errorOf(t, body))
}

func TestUserCeilingOverHTTP(t *testing.T) {
	a := newTestApp(t)
	company := testutil.SeedCompany(t, a.db, "padaria", 2)
	admin := testutil.SeedUser(t, a.db, company, "admin@padaria.com", model.RoleAdmin)
	operator := testutil.SeedUser(t, a.db, company, "op@padaria.com", model.RoleOperator)
	token := a.login(t, admin)

	resp, _ := a.do(t, http.MethodPost, "/api/users", token, map[string]interface{}{
		"email": "novo@padaria.com", "name": "Novo", "role": "operador",
	})
	assert.Equal(t, 409, resp.StatusCode)

	// operators lack user:create
	resp, _ = a.do(t, http.MethodPost, "/api/users", a.login(t, operator), map[string]interface{}{
		"email": "x@padaria.com", "name": "X", "role": "operador",
	})
	assert.Equal(t, 403, resp.StatusCode)

	resp, body := a.do(t, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var users []model.UserResponse
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 2)
}

func TestProductsAndMovements(t *testing.T) {
	a := newTestApp(t)
	company := testutil.SeedCompany(t, a.db, "padaria", 5)
	manager := testutil.SeedUser(t, a.db, company, "gerente@padaria.com", model.RoleManager)
	token := a.login(t, manager)

	resp, body := a.do(t, http.MethodPost, "/api/products", token, map[string]interface{}{
		"name": "Farinha", "unit": "kg", "current_stock": "10", "min_stock": "4", "cost": "3.20",
	})
	require.Equal(t, 201, resp.StatusCode, string(body))
	var created struct {
		Data model.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	productID := created.Data.ID.String()

	resp, body = a.do(t, http.MethodPost, "/api/movements", token, map[string]interface{}{
		"product_id": productID, "type": "saida", "quantity": "11",
	})
	assert.Equal(t, 422, resp.StatusCode)
	assert.Equal(t, service.ErrInsufficientStock.Error(), errorOf(t, body))

	resp, body = a.do(t, http.MethodPost, "/api/movements", token, map[string]interface{}{
		"product_id": productID, "type": "saida", "quantity": "7",
	})
	require.Equal(t, 201, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodPost, "/api/movements", token, map[string]interface{}{
		"product_id": productID, "type": "sumiu", "quantity": "1",
	})
	assert.Equal(t, 400, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodGet, "/api/products/low-stock", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var low []model.Product
	require.NoError(t, json.Unmarshal(body, &low))
	require.Len(t, low, 1)
	assert.True(t, decimal.NewFromInt(3).Equal(low[0].CurrentStock), "got %s", low[0].CurrentStock)

	resp, body = a.do(t, http.MethodGet, "/api/movements?limit=5&product_id="+productID, token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var movements []model.StockMovement
	require.NoError(t, json.Unmarshal(body, &movements))
	assert.Len(t, movements, 1)

	resp, _ = a.do(t, http.MethodGet, "/api/movements?limit=abc", token, nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp, body = a.do(t, http.MethodGet, "/api/dashboard/stats", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var stats repository.DashboardStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(1), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)

	resp, _ = a.do(t, http.MethodGet, "/api/dashboard/stock-movement?days=abc", token, nil)
	assert.Equal(t, 400, resp.StatusCode)
	for query, period := range map[string]int{"": 7, "?days=30": 30, "?days=500": 90} {
		resp, body = a.do(t, http.MethodGet, "/api/dashboard/stock-movement"+query, token, nil)
		require.Equal(t, 200, resp.StatusCode, string(body))
		var chart struct {
			Period int `json:"period"`
		}
		require.NoError(t, json.Unmarshal(body, &chart))
		assert.Equal(t, period, chart.Period, query)
	}

	resp, body = a.do(t, http.MethodGet, "/api/products/export", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, body)

	resp, _ = a.do(t, http.MethodPut, "/api/products/not-a-uuid", token, map[string]interface{}{"name": "x"})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestChecklistOverHTTP(t *testing.T) {
	a := newTestApp(t)
	company := testutil.SeedCompany(t, a.db, "padaria", 5)
	manager := testutil.SeedUser(t, a.db, company, "gerente@padaria.com", model.RoleManager)
	operator := testutil.SeedUser(t, a.db, company, "op@padaria.com", model.RoleOperator)
	managerToken := a.login(t, manager)
	opToken := a.login(t, operator)

	resp, _ := a.do(t, http.MethodPost, "/api/checklists/templates", opToken, map[string]interface{}{
		"name": "Abertura", "type": "abertura",
	})
	assert.Equal(t, 403, resp.StatusCode)

	resp, body := a.do(t, http.MethodPost, "/api/checklists/templates", managerToken, map[string]interface{}{
		"name": "Abertura", "type": "abertura",
		"items": []map[string]interface{}{{"title": "Ligar fornos", "is_required": true}},
	})
	require.Equal(t, 201, resp.StatusCode, string(body))
	var template struct {
		Data model.ChecklistTemplate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &template))
	require.Len(t, template.Data.Items, 1)

	resp, body = a.do(t, http.MethodPost, "/api/checklists/executions", opToken, map[string]interface{}{
		"template_id": template.Data.ID.String(),
	})
	require.Equal(t, 201, resp.StatusCode, string(body))
	var execution struct {
		Data model.ChecklistExecution `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &execution))
	base := "/api/checklists/executions/" + execution.Data.ID.String()

	resp, _ = a.do(t, http.MethodPost, base+"/complete", opToken, nil)
	assert.Equal(t, 409, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, base+"/items", opToken, map[string]interface{}{
		"item_id": execution.Data.ID.String(), "is_completed": true,
	})
	assert.Equal(t, 422, resp.StatusCode)

	resp, body = a.do(t, http.MethodPost, base+"/items", opToken, map[string]interface{}{
		"item_id": template.Data.Items[0].ID.String(), "is_completed": true,
	})
	require.Equal(t, 200, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodPost, base+"/complete", opToken, map[string]string{"notes": "ok"})
	require.Equal(t, 200, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodGet, "/api/checklists/executions?open=true", opToken, nil)
	require.Equal(t, 200, resp.StatusCode)
	var open []model.ChecklistExecution
	require.NoError(t, json.Unmarshal(body, &open))
	assert.Empty(t, open)
}

func TestRealtimeRequiresUpgrade(t *testing.T) {
	a := newTestApp(t)
	resp, _ := a.do(t, http.MethodGet, "/realtime/v1", "", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestRealtimeFeedDeliversOwnCompanyChanges(t *testing.T) {
	a := newTestApp(t)
	padaria := testutil.SeedCompany(t, a.db, "padaria", 5)
	mercado := testutil.SeedCompany(t, a.db, "mercado", 5)
	watcher := testutil.SeedUser(t, a.db, padaria, "op@padaria.com", model.RoleOperator)
	own := testutil.SeedUser(t, a.db, padaria, "gerente@padaria.com", model.RoleManager)
	foreign := testutil.SeedUser(t, a.db, mercado, "gerente@mercado.com", model.RoleManager)
	flour := testutil.SeedProduct(t, a.db, padaria, "Farinha", 10, 2)
	salt := testutil.SeedProduct(t, a.db, mercado, "Sal", 10, 2)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go a.app.Listener(ln)
	t.Cleanup(func() { a.app.Shutdown() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	feed, err := realtime.Dial(ctx, "ws://"+ln.Addr().String()+"/realtime/v1", a.login(t, watcher), zerolog.Nop())
	require.NoError(t, err)
	defer feed.Close()

	changes := make(chan realtime.ChangePayload, 8)
	_, err = feed.Subscribe(realtime.TableProducts, func(p realtime.ChangePayload) { changes <- p }, "")
	require.NoError(t, err)

	resp, body := a.do(t, http.MethodPost, "/api/movements", a.login(t, foreign), map[string]interface{}{
		"product_id": salt.ID.String(), "type": "entrada", "quantity": "1",
	})
	require.Equal(t, 201, resp.StatusCode, string(body))
	resp, body = a.do(t, http.MethodPost, "/api/movements", a.login(t, own), map[string]interface{}{
		"product_id": flour.ID.String(), "type": "entrada", "quantity": "2",
	})
	require.Equal(t, 201, resp.StatusCode, string(body))

	select {
	case p := <-changes:
		assert.Equal(t, realtime.TableProducts, p.Table)
		assert.Equal(t, realtime.EventUpdate, p.EventType)
		assert.Equal(t, flour.ID.String(), p.New["id"])
	case <-ctx.Done():
		t.Fatal("no change delivered")
	}
	select {
	case p := <-changes:
		t.Fatalf("unexpected change for %v", p.New["id"])
	case <-time.After(100 * time.Millisecond):
	}
}

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/database"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/middleware"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/service"
	"github.com/aisgo/workshop-server/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * 路由端到端测试: 真实签名头 -> 认证中间件 -> service -> sqlite
 * ======================================================================== */

type testApp struct {
	app    *fiber.App
	signer *middleware.GatewaySigner
	db     *gorm.DB
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedRBAC(db); err != nil {
		t.Fatalf("seed rbac: %v", err)
	}

	log := logger.NewNop()
	v := validator.New()
	aud := audit.NewNoopPublisher(log)

	workshopRepo := repository.NewRepository[model.Workshop](db)
	userRepo := repository.NewRepository[model.User](db)
	roleRepo := repository.NewRepository[model.Role](db)
	clientRepo := repository.NewRepository[model.Client](db)
	vehicleRepo := repository.NewRepository[model.Vehicle](db)
	mechanicRepo := repository.NewRepository[model.Mechanic](db)
	orderRepo := repository.NewRepository[model.RepairOrder](db)
	entryRepo := repository.NewRepository[model.TimeEntry](db)
	noteRepo := repository.NewRepository[model.InternalNote](db)

	registration := service.NewRegistrationService(workshopRepo, userRepo, roleRepo, v, aud, log)
	clients := service.NewClientService(clientRepo, v, aud, log)
	vehicles := service.NewVehicleService(vehicleRepo, clientRepo, v, aud, log)
	mechanics := service.NewMechanicService(mechanicRepo, v, aud, log)
	orders := service.NewRepairOrderService(orderRepo, vehicleRepo, clientRepo, v, aud, log)
	times := service.NewTimeEntryService(entryRepo, orderRepo, mechanicRepo, v, aud, log)
	notes := service.NewNoteService(noteRepo, orderRepo, clientRepo, vehicleRepo, v, aud, log)
	users := service.NewUserService(userRepo, roleRepo, nil, v, aud, log)
	reports := service.NewReportService(entryRepo, orderRepo, mechanicRepo, log)
	principals := service.NewPrincipalService(userRepo, nil, log)

	verifier := middleware.NewGatewayVerifier(&middleware.GatewayVerifierConfig{
		Enabled:        true,
		Secret:         "test-secret",
		AllowedIssuers: []string{"edge-gateway"},
	})
	auth := middleware.NewAuthenticator(verifier, principals, log)

	router := NewRouter(
		auth,
		NewRegistrationHandler(registration),
		NewClientHandler(clients),
		NewVehicleHandler(vehicles),
		NewMechanicHandler(mechanics),
		NewRepairOrderHandler(orders),
		NewTimeEntryHandler(times),
		NewNoteHandler(notes),
		NewUserHandler(users),
		NewReportHandler(reports),
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(log)})
	router.Register(app)

	return &testApp{
		app: app,
		signer: middleware.NewGatewaySigner(&middleware.GatewaySignerConfig{
			Secret: "test-secret",
			Issuer: "edge-gateway",
		}),
		db: db,
	}
}

// request 发起一次请求; claims 非空时附加签名头
func (a *testApp) request(t *testing.T, method, path string, body any, claims *middleware.GatewayClaims) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		values, err := a.signer.BuildHeaders(claims)
		if err != nil {
			t.Fatalf("sign headers: %v", err)
		}
		for k, v := range values.ToMap() {
			req.Header.Set(k, v)
		}
	}

	resp, err := a.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope for %s %s: %v", method, path, err)
	}
	return resp, env
}

// registerShop 通过开放端点注册门店, 返回店主的网关 claims
func (a *testApp) registerShop(t *testing.T, shop, email string) *middleware.GatewayClaims {
	t.Helper()

	resp, env := a.request(t, "POST", "/api/v1/register", map[string]string{
		"workshop_name": shop,
		"email":         email,
		"password":      "correct-horse-battery",
		"full_name":     "Shop Owner",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", resp.StatusCode, env.Msg)
	}

	var result struct {
		Workshop struct {
			ID string `json:"id"`
		} `json:"workshop"`
		Owner struct {
			ID string `json:"id"`
		} `json:"owner"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode register result: %v", err)
	}
	return &middleware.GatewayClaims{
		UserID:     result.Owner.ID,
		WorkshopID: result.Workshop.ID,
		Email:      email,
	}
}

func TestClientLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerShop(t, "North Garage", "owner@north.test")

	resp, env := a.request(t, "POST", "/api/v1/clients", map[string]string{
		"name":  "Ivan Petrov",
		"phone": "+371 2000 1111",
	}, owner)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create client status %d: %s", resp.StatusCode, env.Msg)
	}
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode client: %v", err)
	}
	if created.Name != "Ivan Petrov" {
		t.Fatalf("unexpected client name %q", created.Name)
	}

	resp, env = a.request(t, "GET", "/api/v1/clients?search=Ivan", nil, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}
	var page struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 client, got %d", page.Total)
	}

	resp, _ = a.request(t, "PUT", "/api/v1/clients/"+created.ID, map[string]string{
		"name": "Ivan Petrov Sr",
	}, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status %d", resp.StatusCode)
	}

	resp, _ = a.request(t, "DELETE", "/api/v1/clients/"+created.ID, nil, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}

	resp, _ = a.request(t, "GET", "/api/v1/clients/"+created.ID, nil, owner)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.request(t, "GET", "/api/v1/clients", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCrossTenantReadReturnsNotFound(t *testing.T) {
	a := newTestApp(t)
	ownerA := a.registerShop(t, "Shop A", "owner@a.test")
	ownerB := a.registerShop(t, "Shop B", "owner@b.test")

	resp, env := a.request(t, "POST", "/api/v1/clients", map[string]string{"name": "Client A"}, ownerA)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", resp.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, _ = a.request(t, "GET", "/api/v1/clients/"+created.ID, nil, ownerB)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected cross-tenant 404, got %d", resp.StatusCode)
	}
}

func TestWorkshopClaimMismatchRejected(t *testing.T) {
	a := newTestApp(t)
	ownerA := a.registerShop(t, "Shop A", "owner@a.test")
	ownerB := a.registerShop(t, "Shop B", "owner@b.test")

	forged := &middleware.GatewayClaims{
		UserID:     ownerA.UserID,
		WorkshopID: ownerB.WorkshopID,
	}
	resp, _ := a.request(t, "GET", "/api/v1/clients", nil, forged)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for forged workshop claim, got %d", resp.StatusCode)
	}
}

func TestValidationErrorsReturnFieldMap(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerShop(t, "North Garage", "owner@north.test")

	resp, env := a.request(t, "POST", "/api/v1/clients", map[string]string{}, owner)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var body struct {
		Fields map[string][]string `json:"fields"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode field errors: %v", err)
	}
	if len(body.Fields["Name"]) == 0 {
		t.Fatalf("expected Name field error, got %+v", body.Fields)
	}
}

func TestOrderStatusEndpoint(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerShop(t, "North Garage", "owner@north.test")

	resp, env := a.request(t, "POST", "/api/v1/orders", map[string]any{
		"problem": "engine stalls at idle",
		"new_vehicle": map[string]any{
			"vin":   "WVWZZZ1JZXW000111",
			"plate": "AB-1234",
			"new_client": map[string]any{
				"name": "Walk-in Client",
			},
		},
	}, owner)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order status %d: %s", resp.StatusCode, env.Msg)
	}
	var order struct {
		ID        string     `json:"id"`
		Status    string     `json:"status"`
		StartedAt *time.Time `json:"started_at"`
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.Status != string(model.StatusNew) {
		t.Fatalf("expected new order, got %s", order.Status)
	}

	resp, env = a.request(t, "PATCH", "/api/v1/orders/"+order.ID+"/status", map[string]string{
		"status": "in_progress",
	}, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update failed: %d %s", resp.StatusCode, env.Msg)
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.Status != string(model.StatusInProgress) || order.StartedAt == nil {
		t.Fatalf("expected in_progress with started_at, got %s %v", order.Status, order.StartedAt)
	}

	resp, _ = a.request(t, "PATCH", "/api/v1/orders/"+order.ID+"/status", map[string]string{
		"status": "teleported",
	}, owner)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %d", resp.StatusCode)
	}
}

func TestTimeEntriesAndReportOverHTTP(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerShop(t, "North Garage", "owner@north.test")

	_, env := a.request(t, "POST", "/api/v1/mechanics", map[string]any{
		"full_name":   "Janis Berzins",
		"hourly_rate": 6000,
	}, owner)
	var mech struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &mech); err != nil {
		t.Fatalf("decode mechanic: %v", err)
	}

	_, env = a.request(t, "POST", "/api/v1/orders", map[string]any{
		"problem": "brake pads worn",
		"new_vehicle": map[string]any{
			"vin":        "JMZGJ627601234567",
			"new_client": map[string]any{"name": "Walk-in"},
		},
	}, owner)
	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	resp, env := a.request(t, "POST", "/api/v1/time-entries", map[string]any{
		"repair_order_id": order.ID,
		"mechanic_id":     mech.ID,
		"hours":           1,
		"minutes":         30,
	}, owner)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("log time status %d: %s", resp.StatusCode, env.Msg)
	}

	resp, env = a.request(t, "GET", "/api/v1/orders/"+order.ID+"/time-entries", nil, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("time sheet status %d", resp.StatusCode)
	}
	var sheet struct {
		Entries      []json.RawMessage `json:"entries"`
		TotalMinutes int64             `json:"total_minutes"`
	}
	if err := json.Unmarshal(env.Data, &sheet); err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if len(sheet.Entries) != 1 || sheet.TotalMinutes != 90 {
		t.Fatalf("expected 1 entry / 90 min, got %d / %d", len(sheet.Entries), sheet.TotalMinutes)
	}

	resp, env = a.request(t, "GET", "/api/v1/reports/mechanic-hours", nil, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status %d", resp.StatusCode)
	}
	var rows []struct {
		MechanicName string  `json:"mechanic_name"`
		TotalMinutes int64   `json:"total_minutes"`
		TotalHours   float64 `json:"total_hours"`
		LaborValue   int64   `json:"labor_value"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalMinutes != 90 {
		t.Fatalf("unexpected report rows: %+v", rows)
	}
	// 90 分钟 × 6000/小时 ÷ 60
	if rows[0].LaborValue != 9000 {
		t.Fatalf("labor value = %d, want 9000", rows[0].LaborValue)
	}
}

func TestMechanicRoleDeniedUserManagementOverHTTP(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerShop(t, "North Garage", "owner@north.test")

	resp, env := a.request(t, "POST", "/api/v1/users", map[string]any{
		"email":     "wrench@north.test",
		"password":  "correct-horse-battery",
		"full_name": "Wrench Turner",
		"roles":     []string{"mechanic"},
	}, owner)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user status %d: %s", resp.StatusCode, env.Msg)
	}
	var staff struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &staff); err != nil {
		t.Fatalf("decode user: %v", err)
	}

	mechClaims := &middleware.GatewayClaims{UserID: staff.ID, WorkshopID: owner.WorkshopID}
	resp, _ = a.request(t, "POST", "/api/v1/users", map[string]any{
		"email":     "another@north.test",
		"password":  "correct-horse-battery",
		"full_name": "Someone Else",
		"roles":     []string{"office"},
	}, mechClaims)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for mechanic, got %d", resp.StatusCode)
	}
}

func TestNotesOverHTTP(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerShop(t, "North Garage", "owner@north.test")

	_, env := a.request(t, "POST", "/api/v1/clients", map[string]string{"name": "Noted Client"}, owner)
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode client: %v", err)
	}

	resp, env := a.request(t, "POST", "/api/v1/notes", map[string]any{
		"notable_type": "client",
		"notable_id":   created.ID,
		"content":      "prefers morning calls",
	}, owner)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add note status %d: %s", resp.StatusCode, env.Msg)
	}

	resp, env = a.request(t, "GET",
		fmt.Sprintf("/api/v1/notes?notable_type=client&notable_id=%s", created.ID), nil, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list notes status %d", resp.StatusCode)
	}
	var notes []json.RawMessage
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatalf("decode notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
}

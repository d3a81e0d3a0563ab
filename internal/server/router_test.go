package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pos-service/internal/handler"
	mid "pos-service/internal/middleware"
	"pos-service/internal/model"
	"pos-service/internal/policy"
	"pos-service/internal/repository"
	"pos-service/internal/repository/memrepo"
	"pos-service/internal/service"
	"pos-service/pkg/cache"
	"pos-service/pkg/config"
)

const password = "secret"

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	repos *repository.Set
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	repos := memrepo.NewSet(memrepo.New())
	p := service.NewProvisioner(repos, func(context.Context, string) error { return nil }, zap.NewNop())

	alpha, _, err := p.Provision(ctx, service.ProvisionInput{
		Schema: "alpha", Name: "Alpha Motor", OwnerEmail: "owner@alpha.test", OwnerPassword: password,
	})
	require.NoError(t, err)
	_, _, err = p.Provision(ctx, service.ProvisionInput{
		Schema: "beta", Name: "Beta Motor", OwnerEmail: "owner@beta.test", OwnerPassword: password,
	})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	clerk := &model.User{Email: "clerk@alpha.test", Password: string(hash), Name: "Clerk"}
	require.NoError(t, repos.Users.Create(ctx, clerk))
	require.NoError(t, repos.Users.Bind(ctx, clerk.ID, alpha.ID, policy.RoleUser, true))

	store := cache.NewMemoryStore()
	cfg := &config.Config{
		ServiceName: "pos-service-test",
		Store:       "memory",
		Server:      config.ServerConfig{Env: "test", BaseDomain: "pos.test"},
		JWT:         config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1, CookieName: "pos_session"},
		Redis:       config.RedisConfig{TenantCacheTTL: time.Minute, TenantNegativeTTL: time.Second},
	}

	e := New(Deps{
		Config: cfg,
		Repos:  repos,
		Cache:  store,
		Logger: zap.NewNop(),
		Checks: map[string]handler.Check{"cache": store.Ping},
	})
	return &testServer{t: t, e: e, repos: repos}
}

type request struct {
	method string
	path   string
	token  string
	tenant string
	host   string
	body   interface{}
}

func (s *testServer) do(r request) *httptest.ResponseRecorder {
	s.t.Helper()

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		require.NoError(s.t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	if r.tenant != "" {
		req.Header.Set(mid.TenantHeader, r.tenant)
	}
	if r.host != "" {
		req.Host = r.host
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(email, tenant string) string {
	s.t.Helper()
	rec := s.do(request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": email, "password": password, "tenant": tenant,
	}})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	decode(s.t, rec, &resp)
	require.NotEmpty(s.t, resp.Data.Token)
	return resp.Data.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	decode(t, rec, &resp)
	return resp.Code
}

type regionList struct {
	Data       []model.Region        `json:"data"`
	Pagination repository.Pagination `json:"pagination"`
}

type created struct {
	Message string `json:"message"`
	Data    struct {
		ID uint `json:"id"`
	} `json:"data"`
}

func (s *testServer) create(token, tenant, path string, body interface{}) uint {
	s.t.Helper()
	rec := s.do(request{method: http.MethodPost, path: path, token: token, tenant: tenant, body: body})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp created
	decode(s.t, rec, &resp)
	require.NotZero(s.t, resp.Data.ID)
	return resp.Data.ID
}

func TestRegionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")

	jakarta := s.create(token, "alpha", "/api/regions", map[string]string{"code": "R01", "name": "Jakarta"})
	s.create(token, "alpha", "/api/regions", map[string]string{"code": "R02", "name": "Bandung"})

	rec := s.do(request{method: http.MethodPost, path: "/api/regions", token: token, tenant: "alpha",
		body: map[string]string{"code": "R01", "name": "Duplicate"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CODE_EXISTS", errorCode(t, rec))

	rec = s.do(request{method: http.MethodGet, path: "/api/regions?search=band", token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list regionList
	decode(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "R02", list.Data[0].Code)

	rec = s.do(request{method: http.MethodDelete, path: fmt.Sprintf("/api/regions/%d", jakarta), token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: fmt.Sprintf("/api/regions/%d", jakarta), token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		Data model.Region `json:"data"`
	}
	decode(t, rec, &one)
	assert.False(t, one.Data.IsActive)

	rec = s.do(request{method: http.MethodGet, path: "/api/regions", token: token, tenant: "alpha"})
	list = regionList{}
	decode(t, rec, &list)
	assert.Equal(t, int64(1), list.Pagination.Total)

	rec = s.do(request{method: http.MethodGet, path: "/api/regions?scope=all", token: token, tenant: "alpha"})
	list = regionList{}
	decode(t, rec, &list)
	assert.Equal(t, int64(2), list.Pagination.Total)

	rec = s.do(request{method: http.MethodPost, path: fmt.Sprintf("/api/regions/%d/activate", jakarta), token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(request{method: http.MethodGet, path: "/api/regions", token: token, tenant: "alpha"})
	list = regionList{}
	decode(t, rec, &list)
	assert.Equal(t, int64(2), list.Pagination.Total)
}

func TestRegionPagination(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")
	for i := 1; i <= 5; i++ {
		s.create(token, "alpha", "/api/regions", map[string]string{"code": fmt.Sprintf("R%02d", i), "name": fmt.Sprintf("Region %d", i)})
	}

	rec := s.do(request{method: http.MethodGet, path: "/api/regions?page=3&limit=2", token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list regionList
	decode(t, rec, &list)
	assert.Len(t, list.Data, 1)
	assert.Equal(t, repository.Pagination{Page: 3, Limit: 2, Total: 5, Pages: 3}, list.Pagination)
}

func TestRegionPageBeyondRange(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")
	s.create(token, "alpha", "/api/regions", map[string]string{"code": "R01", "name": "Jakarta"})

	rec := s.do(request{method: http.MethodGet, path: "/api/regions?page=1000000000000000000", token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list regionList
	decode(t, rec, &list)
	assert.Empty(t, list.Data)
	assert.Equal(t, int64(1), list.Pagination.Total)
	assert.Equal(t, math.MaxInt/repository.DefaultLimit, list.Pagination.Page)
}

func TestNumericFilterValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")

	rec := s.do(request{method: http.MethodGet, path: "/api/pools?region_id=abc", token: token, tenant: "alpha"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))

	rec = s.do(request{method: http.MethodGet, path: "/api/receivables?party_id=-1", token: token, tenant: "alpha"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/pools?region_id=7", token: token, tenant: "alpha"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSpecialPrices(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")

	retail := s.create(token, "alpha", "/api/customer-categories", map[string]string{"code": "RET", "name": "Retail"})
	oil := s.create(token, "alpha", "/api/products", map[string]interface{}{
		"code": "P01", "name": "Engine oil", "unit": "btl", "price": 60000, "cost": 45000, "stock": 10,
	})
	path := fmt.Sprintf("/api/products/%d/special-prices", oil)

	for _, price := range []int{55000, 52000} {
		rec := s.do(request{method: http.MethodPut, path: path, token: token, tenant: "alpha",
			body: map[string]interface{}{"customer_category_id": retail, "price": price}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := s.do(request{method: http.MethodPut, path: path, token: token, tenant: "alpha",
		body: map[string]interface{}{"customer_category_id": retail, "price": -1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, rec))

	rec = s.do(request{method: http.MethodGet, path: path, token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []model.SpecialPrice `json:"data"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, retail, list.Data[0].CustomerCategoryID)
	assert.True(t, list.Data[0].Price.Equal(decimal.NewFromInt(52000)))

	remove := fmt.Sprintf("%s/%d", path, retail)
	rec = s.do(request{method: http.MethodDelete, path: remove, token: token, tenant: "alpha"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodDelete, path: remove, token: token, tenant: "alpha"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = s.do(request{method: http.MethodGet, path: "/api/products/999/special-prices", token: token, tenant: "alpha"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingFields(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")

	rec := s.do(request{method: http.MethodPost, path: "/api/regions", token: token, tenant: "alpha",
		body: map[string]string{"name": "No code"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", errorCode(t, rec))
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(request{method: http.MethodGet, path: "/api/regions", tenant: "alpha"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	rec = s.do(request{method: http.MethodGet, path: "/api/regions", token: "not-a-token", tenant: "alpha"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": "owner@alpha.test", "password": "wrong",
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestTenantResolution(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "")

	t.Run("missing tenant", func(t *testing.T) {
		rec := s.do(request{method: http.MethodGet, path: "/api/regions", token: token})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "TENANT_REQUIRED", errorCode(t, rec))
	})

	t.Run("unknown tenant", func(t *testing.T) {
		rec := s.do(request{method: http.MethodGet, path: "/api/regions", token: token, tenant: "gamma"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "TENANT_INVALID", errorCode(t, rec))
	})

	t.Run("token bound to another tenant", func(t *testing.T) {
		rec := s.do(request{method: http.MethodGet, path: "/api/regions", token: token, tenant: "beta"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	})

	t.Run("subdomain", func(t *testing.T) {
		rec := s.do(request{method: http.MethodGet, path: "/api/regions", token: token, host: "alpha.pos.test"})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestTenantIsolation(t *testing.T) {
	s := newTestServer(t)
	alpha := s.login("owner@alpha.test", "alpha")
	beta := s.login("owner@beta.test", "beta")

	s.create(alpha, "alpha", "/api/regions", map[string]string{"code": "R01", "name": "Jakarta"})

	rec := s.do(request{method: http.MethodGet, path: "/api/regions", token: beta, tenant: "beta"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list regionList
	decode(t, rec, &list)
	assert.Empty(t, list.Data)

	// the same code is free in another tenant
	s.create(beta, "beta", "/api/regions", map[string]string{"code": "R01", "name": "Surabaya"})
}

func TestRolePermissions(t *testing.T) {
	s := newTestServer(t)
	clerk := s.login("clerk@alpha.test", "alpha")

	rec := s.do(request{method: http.MethodGet, path: "/api/payables", token: clerk, tenant: "alpha"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = s.do(request{method: http.MethodPost, path: "/api/regions", token: clerk, tenant: "alpha",
		body: map[string]string{"code": "R01", "name": "Jakarta"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/regions", token: clerk, tenant: "alpha"})
	assert.Equal(t, http.StatusOK, rec.Code)

	s.create(clerk, "alpha", "/api/customers", map[string]string{"code": "C01", "name": "Budi"})
}

func TestSettlePayables(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")

	leasing := s.create(token, "alpha", "/api/leasings", map[string]string{"code": "L01", "name": "Adira"})
	first := s.create(token, "alpha", "/api/payables", map[string]interface{}{"party_id": leasing, "total": 100})
	second := s.create(token, "alpha", "/api/payables", map[string]interface{}{"party_id": leasing, "total": 200})

	rec := s.do(request{method: http.MethodPost, path: "/api/payables/settle", token: token, tenant: "alpha",
		body: map[string]interface{}{"ids": []uint{first, second}, "amount": 250, "method": "transfer"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data service.SettleResult `json:"data"`
	}
	decode(t, rec, &resp)
	assert.True(t, resp.Data.Applied.Equal(decimal.NewFromInt(250)))
	assert.True(t, resp.Data.Leftover.IsZero())
	assert.Len(t, resp.Data.Allocations, 2)

	balances := map[uint]string{}
	for _, id := range []uint{first, second} {
		rec = s.do(request{method: http.MethodGet, path: fmt.Sprintf("/api/payables/%d", id), token: token, tenant: "alpha"})
		require.Equal(t, http.StatusOK, rec.Code)
		var one struct {
			Data model.Ledger `json:"data"`
		}
		decode(t, rec, &one)
		balances[id] = one.Data.Status
	}
	assert.Equal(t, map[uint]string{first: model.StatusOpen, second: model.StatusClosed}, balances)

	// a closed entry cannot be settled again
	rec = s.do(request{method: http.MethodPost, path: "/api/payables/settle", token: token, tenant: "alpha",
		body: map[string]interface{}{"ids": []uint{first, second}, "amount": 10}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CLOSED", errorCode(t, rec))
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login("owner@alpha.test", "alpha")

	rec := s.do(request{method: http.MethodGet, path: "/api/auth/me", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodPost, path: "/api/auth/logout", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/api/auth/me", token: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(request{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["cache_status"])
}

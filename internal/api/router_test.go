package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforce/employee-directory/internal/api/handler"
	"github.com/workforce/employee-directory/internal/core/service"
	"github.com/workforce/employee-directory/internal/infrastructure/db/redis"
)

type testServer struct {
	e     *echo.Echo
	store *miniredis.Miniredis
}

func newTestServer(t *testing.T, adminSecret string) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := redis.NewEmployeeRepository(client)
	svc := service.NewDirectoryService(repo, nil, nil, zerolog.Nop())
	e := NewRouter(Deps{
		Service:     svc,
		Logger:      zerolog.Nop(),
		AdminSecret: adminSecret,
		Health:      map[string]handler.Pinger{"redis": repo},
		Registry:    prometheus.NewRegistry(),
	})
	return &testServer{e: e, store: mr}
}

func (s *testServer) do(method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func createBody(email string, roles ...string) string {
	rolesJSON, _ := json.Marshal(roles)
	return `{"email":"` + email + `","name":"Some One","password":"Secret1",` +
		`"birthdate":{"day":"04","month":"03","year":"1990"},"roles":` + string(rolesJSON) + `}`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_EmployeeLifecycle(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodPost, "/employees", createBody("ada@example.com", "dev"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "Secret1")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = s.do(http.MethodPost, "/employees", createBody("ada@example.com", "dev"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/employees/ada@example.com?password=Secret1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/employees/ada@example.com?password=wrong", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/employees/ghost@example.com?password=Secret1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ListPaging(t *testing.T) {
	s := newTestServer(t, "")
	for _, email := range []string{"e@x.com", "b@x.com", "d@y.com", "a@x.com", "c@y.com"} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/employees", createBody(email, "dev")).Code)
	}

	rec := s.do(http.MethodGet, "/employees?page=1&size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "c@y.com", data[0].(map[string]any)["email"])
	assert.Equal(t, "d@y.com", data[1].(map[string]any)["email"])
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 5, pagination["total"])
	assert.EqualValues(t, 3, pagination["total_pages"])

	rec = s.do(http.MethodGet, "/employees?criteria=byEmailDomain&value=X.COM", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["pagination"].(map[string]any)["total"])

	rec = s.do(http.MethodGet, "/employees?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/employees?criteria=byAge&value=old", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Create_RejectsSignedBirthDateParts(t *testing.T) {
	s := newTestServer(t, "")

	for _, tc := range []struct{ from, to string }{
		{`"day":"04"`, `"day":"+1"`},
		{`"year":"1990"`, `"year":"1.00"`},
		{`"year":"1990"`, `"year":"+199"`},
	} {
		rec := s.do(http.MethodPost, "/employees", strings.Replace(createBody("ada@x.com", "dev"), tc.from, tc.to, 1))
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.to)
		assert.Contains(t, rec.Body.String(), "must contain digits only", tc.to)
	}

	rec := s.do(http.MethodGet, "/employees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["pagination"].(map[string]any)["total"])
}

func TestRouter_ListPaging_HugeValues(t *testing.T) {
	s := newTestServer(t, "")
	for _, email := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/employees", createBody(email, "dev")).Code)
	}

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"page times size wraps", "/employees?page=4611686018427387904&size=4", 0},
		{"domain scan past the end", "/employees?criteria=byEmailDomain&value=x.com&page=4611686018427387904&size=2", 0},
		{"huge size second page", "/employees?page=1&size=9223372036854775807", 0},
		{"huge size first page", "/employees?criteria=byEmailDomain&value=x.com&page=0&size=9223372036854775807", 3},
		{"subordinates past the end", "/employees/a@x.com/subordinates?page=4611686018427387904&size=4", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tc.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Len(t, body["data"].([]any), tc.want)
		})
	}

	rec := s.do(http.MethodGet, "/employees?page=4611686018427387904&size=4", "")
	assert.EqualValues(t, 3, decode(t, rec)["pagination"].(map[string]any)["total"])
}

func TestRouter_Hierarchy(t *testing.T) {
	s := newTestServer(t, "")
	for _, email := range []string{"boss@x.com", "ada@x.com", "bob@x.com"} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/employees", createBody(email, "dev")).Code)
	}

	rec := s.do(http.MethodPut, "/employees/ada@x.com/manager", `{"email":"boss@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, rec.Body.Len())

	rec = s.do(http.MethodPut, "/employees/boss@x.com/manager", `{"email":"ada@x.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/employees/ada@x.com/manager", `{"email":"ada@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/employees/ada@x.com/manager", `{"email":"ghost@x.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/employees/ada@x.com/manager", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "boss@x.com", decode(t, rec)["email"])

	rec = s.do(http.MethodGet, "/employees/boss@x.com/subordinates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(http.MethodGet, "/employees/nobody@x.com/subordinates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])

	rec = s.do(http.MethodDelete, "/employees/ada@x.com/manager", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/employees/ada@x.com/manager", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DeleteAll_AdminGuard(t *testing.T) {
	s := newTestServer(t, "admin-secret")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/employees", createBody("ada@x.com", "dev")).Code)

	rec := s.do(http.MethodDelete, "/employees", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "viewer"}).
		SignedString([]byte("admin-secret"))
	require.NoError(t, err)
	rec = s.do(http.MethodDelete, "/employees", "", echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).
		SignedString([]byte("admin-secret"))
	require.NoError(t, err)
	rec = s.do(http.MethodDelete, "/employees", "", echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/employees", "")
	assert.EqualValues(t, 0, decode(t, rec)["pagination"].(map[string]any)["total"])
}

func TestRouter_RequestLog_Subject(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var buf bytes.Buffer
	repo := redis.NewEmployeeRepository(client)
	e := NewRouter(Deps{
		Service:     service.NewDirectoryService(repo, nil, nil, zerolog.Nop()),
		Logger:      zerolog.New(&buf),
		AdminSecret: "admin-secret",
		Registry:    prometheus.NewRegistry(),
	})
	s := &testServer{e: e, store: mr}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops@x.com", "role": "admin"}).
		SignedString([]byte("admin-secret"))
	require.NoError(t, err)
	rec := s.do(http.MethodDelete, "/employees", "", echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), `"subject":"ops@x.com"`)

	buf.Reset()
	s.do(http.MethodGet, "/employees", "")
	assert.NotContains(t, buf.String(), `"subject"`)
}

func TestRouter_DeleteAll_Open(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodDelete, "/employees", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	s.store.SetError("server down")
	rec = s.do(http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["dependencies"].(map[string]any)["redis"].(map[string]any)["status"])
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t, "")
	s.do(http.MethodGet, "/health", "")

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "directory_http_requests_total")
}

func TestRouter_PingFunc(t *testing.T) {
	e := NewRouter(Deps{
		Service:  service.NewDirectoryService(nil, nil, nil, zerolog.Nop()),
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
		Health: map[string]handler.Pinger{
			"postgres": handler.PingFunc(func(context.Context) error { return errors.New("refused") }),
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/gate"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/password"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/token"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	handler http.Handler
	codec   *token.Codec
	auth    *services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logging.NewNopLogger()

	codec, err := token.NewCodec(token.Config{Secret: []byte("http-api-test-secret-0123456789abcdef"), TTL: time.Hour})
	require.NoError(t, err)

	us, err := services.NewUserService(users.NewMemoryRepository(), password.NewBcryptHasher(password.WithCost(bcrypt.MinCost)), log)
	require.NoError(t, err)
	as := services.NewAuthService(us, codec, log)

	g := gate.New(codec, gate.NewPolicy(gate.DefaultPublicPaths...), gate.WithLogger(log))
	return &testEnv{
		handler: NewHTTPServer("127.0.0.1:0", log, g, as).Handler(),
		codec:   codec,
		auth:    as,
	}
}

func (e *testEnv) do(t *testing.T, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestScenario_RegisterLoginAndGate(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: "a@b.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reg := decode[userResponse](t, rec)
	assert.Equal(t, "a@b.com", reg.Email)
	assert.Equal(t, models.RoleUser, reg.Role)
	assert.NotEmpty(t, reg.ID)

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: "a@b.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[services.LoginResult](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, reg.ID, login.UserID)

	rec = e.do(t, http.MethodGet, "/api/users/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Identity{Email: "a@b.com", Role: models.RoleUser}, decode[models.Identity](t, rec))

	rec = e.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())

	expired, err := e.codec.Issue(models.Identity{Email: "a@b.com", Role: models.RoleUser}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/api/users/me", "Bearer "+expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGate_RejectionsAreIdentical(t *testing.T) {
	e := newTestEnv(t)

	expired, err := e.codec.Issue(models.Identity{Email: "a@b.com", Role: models.RoleUser}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	for _, authz := range []string{"", "Bearer", "Bearer nonsense", "Bearer a.b.c", "Bearer " + expired, "Basic Zm9vOmJhcg=="} {
		rec := e.do(t, http.MethodGet, "/api/users/me", authz, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, authz)
		assert.Empty(t, rec.Body.String(), authz)
	}
}

func TestGate_UnknownRouteIsProtected(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/secret", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_PublicWithoutToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: "nobody@b.com", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidCredentials, decode[errorResponse](t, rec).Error)
}

func TestLogin_PublicEvenWithGarbageToken(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.auth.Register(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "Bearer garbage", credentialsRequest{Email: "a@b.com", Password: "secret1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPasswordSameMessage(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.auth.Register(context.Background(), "real@b.com", "secret1")
	require.NoError(t, err)

	wrong := e.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: "real@b.com", Password: "wrongpw"})
	unknown := e.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: "ghost@b.com", Password: "wrongpw"})

	assert.Equal(t, unknown.Code, wrong.Code)
	assert.JSONEq(t, unknown.Body.String(), wrong.Body.String())
}

func TestRegister_Errors(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: "a@b.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: "A@b.com", Password: "secret2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgDuplicate, decode[errorResponse](t, rec).Error)

	rec = e.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: "bad", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	e.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Equal(t, msgBadRequest, decode[errorResponse](t, raw).Error)
}

func TestCreateUser_RequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	now := time.Now()

	userTok, err := e.codec.Issue(models.Identity{Email: "u@b.com", Role: models.RoleUser}, now)
	require.NoError(t, err)
	adminTok, err := e.codec.Issue(models.Identity{Email: "root@b.com", Role: models.RoleAdmin}, now)
	require.NoError(t, err)

	body := createUserRequest{Email: "new@b.com", Password: "secret1", Role: "ADMIN"}

	rec := e.do(t, http.MethodPost, "/api/users", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/users", "Bearer "+userTok, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/users", "Bearer "+adminTok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[userResponse](t, rec)
	assert.Equal(t, models.RoleAdmin, created.Role)

	rec = e.do(t, http.MethodPost, "/api/users", "Bearer "+adminTok, createUserRequest{Email: "x@b.com", Password: "secret1", Role: "ROOT"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	log := logging.NewNopLogger()
	codec, err := token.NewCodec(token.Config{Secret: []byte("http-api-test-secret-0123456789abcdef")})
	require.NoError(t, err)
	s := NewHTTPServer("127.0.0.1:0", log, gate.New(codec, gate.NewPolicy()), nil)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/api/users/me")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	codec, err := token.NewCodec(token.Config{Secret: []byte("http-api-test-secret-0123456789abcdef")})
	require.NoError(t, err)
	s := NewHTTPServer("127.0.0.1:99999", logging.NewNopLogger(), gate.New(codec, gate.NewPolicy()), nil)

	assert.Error(t, s.Run(context.Background()))
}

package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"college_portal/backend/internal/gateway"
	"college_portal/backend/internal/gateway/util"
	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/metrics"
	"college_portal/backend/internal/result"
	"college_portal/backend/internal/roster"
	"college_portal/backend/internal/shared"
)

const (
	testSecret = "gateway-test-secret"
	testIssuer = "college-portal"
)

// TestEnv holds all the running components for the test
type TestEnv struct {
	Router  http.Handler
	Service *result.Service
	Roster  *roster.MemoryRoster
	Metrics *metrics.Recorder
}

// envelope mirrors util.JSONResponse / util.JSONError with raw data.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
}

// setupGatewayTestEnv wires the gateway over in-memory store and roster
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return setupGatewayTestEnvWith(t, nil)
}

// setupGatewayTestEnvWith lets a test adjust the router dependencies.
func setupGatewayTestEnvWith(t *testing.T, configure func(*gateway.Dependencies)) *TestEnv {
	t.Helper()

	dir := roster.NewMemoryRoster(
		shared.User{ID: "stu-1", Role: shared.RoleStudent, Name: "Asha", Stream: "BSc-CS", YearLevel: 2},
		shared.User{ID: "stu-2", Role: shared.RoleStudent, Name: "Rahul", Stream: "BSc-CS", YearLevel: 2},
		shared.User{ID: "stu-3", Role: shared.RoleStudent, Name: "Meera", Stream: "BCom", YearLevel: 2},
		shared.User{ID: "tch-1", Role: shared.RoleTeacher, Name: "Prof. Rao"},
	)
	rec := metrics.New()
	svc := result.NewService(result.NewMemoryStore(), dir, grading.DefaultPolicy(), result.WithMetrics(rec))

	deps := gateway.Dependencies{
		Service:        svc,
		Verifier:       gateway.NewTokenVerifier(testSecret, testIssuer),
		Metrics:        rec.Handler(),
		RequestTimeout: 5 * time.Second,
		CORS: shared.CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}
	if configure != nil {
		configure(&deps)
	}
	router := gateway.SetupRoutes(deps)

	return &TestEnv{Router: router, Service: svc, Roster: dir, Metrics: rec}
}

// signToken issues a token the way the portal's auth service does.
func signToken(t *testing.T, secret, userID, role string, ttl time.Duration) string {
	t.Helper()
	claims := util.CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    testIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (e *TestEnv) token(t *testing.T, userID, role string) string {
	return signToken(t, testSecret, userID, role, time.Hour)
}

// do sends a request through the router and decodes the envelope.
func (e *TestEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)

	var env envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

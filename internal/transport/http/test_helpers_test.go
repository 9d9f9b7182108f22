package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/metrics"
	"github.com/vovakirdan/wiremsg-server/internal/service/messages"
	"github.com/vovakirdan/wiremsg-server/internal/service/users"
	"github.com/vovakirdan/wiremsg-server/internal/store/sqlstore"
)

const testPassword = "correct-horse"

type testEnv struct {
	router  *gin.Engine
	store   *sqlstore.SQLStore
	auth    *auth.Service
	users   *users.Service
	metrics *metrics.Metrics
}

// newTestEnv wires the full router over an in-memory SQLite store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlstore.New(sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if _, err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}

	disabledLogger := zerolog.Nop()
	validator := core.NewValidator()
	m := metrics.New()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig, validator, m)
	userService := users.New(st, validator, m, &disabledLogger)
	messageService := messages.New(st, validator, m, &disabledLogger)

	router := NewRouter(Services{
		Auth:     authService,
		Users:    userService,
		Messages: messageService,
		Metrics:  m,
	}, &disabledLogger)

	return &testEnv{
		router:  router,
		store:   st,
		auth:    authService,
		users:   userService,
		metrics: m,
	}
}

// createUser registers a user and returns its id and API token key.
func (e *testEnv) createUser(t *testing.T, username string, staff bool) (int64, string) {
	t.Helper()
	ctx := context.Background()

	pw := testPassword
	user, err := e.users.CreateAccount(ctx, users.Input{Username: &username, Password: &pw}, staff)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}

	token, err := e.auth.Login(ctx, auth.Credentials{Username: &username, Password: &pw})
	if err != nil {
		t.Fatalf("failed to log in %s: %v", username, err)
	}
	return user.ID, token.Key
}

// do sends a request through the router. token may be empty for anonymous calls.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	header := ""
	if token != "" {
		header = "Token " + token
	}
	return e.doWithHeader(t, method, path, header, body)
}

// doWithHeader sends a request with a raw Authorization header value.
func (e *testEnv) doWithHeader(t *testing.T, method, path, authorization string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func expectDetail(t *testing.T, resp *httptest.ResponseRecorder, want string) {
	t.Helper()
	got := decode[ErrorResponse](t, resp)
	if got.Detail != want {
		t.Fatalf("expected detail %q, got %q", want, got.Detail)
	}
}

func sendMessage(t *testing.T, e *testEnv, token, to, title string) MessageResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/message/", token, map[string]string{
		"message_to":      to,
		"message_title":   title,
		"message_content": "content of " + title,
	})
	expectStatus(t, resp, http.StatusCreated)
	return decode[MessageResponse](t, resp)
}

func messageIDs(msgs []MessageResponse) []int64 {
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}

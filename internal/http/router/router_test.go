package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	garminprov "github.com/dropDatabas3/wearsync/internal/garmin"
	garminctrl "github.com/dropDatabas3/wearsync/internal/http/controllers/garmin"
	mw "github.com/dropDatabas3/wearsync/internal/http/middlewares"
	garminsvc "github.com/dropDatabas3/wearsync/internal/http/services/garmin"
	"github.com/dropDatabas3/wearsync/internal/oauth1"
	"github.com/dropDatabas3/wearsync/internal/store/memory"
)

var testSecret = []byte("test-secret")

func signSession(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub": userID.String(),
		"iss": "wearsync",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(testSecret)
	require.NoError(t, err)
	return raw
}

// newTestStack arma el handler completo sobre stores en memoria y un
// proveedor httptest.
func newTestStack(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "oauth_token=rt-1&oauth_token_secret=rs-1")
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "oauth_token=at-1&oauth_token_secret=as-1")
	})
	mux.HandleFunc("/user/id", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"userId":"g-777"}`)
	})
	mux.HandleFunc("/backfill/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	signer := &oauth1.Signer{ConsumerKey: "ck", ConsumerSecret: "cs"}
	client := garminprov.NewClient(signer, garminprov.Endpoints{
		RequestTokenURL:    srv.URL + "/oauth/request_token",
		AuthorizeURL:       srv.URL + "/oauthConfirm",
		AccessTokenURL:     srv.URL + "/oauth/access_token",
		UserIDURL:          srv.URL + "/user/id",
		SleepBackfillURL:   srv.URL + "/backfill/sleeps",
		DailiesBackfillURL: srv.URL + "/backfill/dailies",
	}, srv.Client())

	mem := memory.New()
	flow := garminsvc.NewFlowService(client, mem, mem, garminsvc.FlowConfig{
		BaseURL:     "https://svc.example.com",
		FrontendURL: "https://app.example.com/settings",
	})
	webhook := garminsvc.NewWebhookService(mem, mem)
	account := garminsvc.NewAccountService(mem)

	h := New(Deps{
		Garmin: garminctrl.New(flow, webhook, account),
		Auth:   mw.AuthConfig{Secret: testSecret, Issuer: "wearsync"},
	})
	return h, mem
}

func doReq(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	h, _ := newTestStack(t)
	rec := doReq(h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_StartAuthRequiresSession(t *testing.T) {
	h, _ := newTestStack(t)

	rec := doReq(h, http.MethodPost, "/api/garmin/start-auth", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doReq(h, http.MethodPost, "/api/garmin/start-auth", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_FullAuthorizationFlow(t *testing.T) {
	h, mem := newTestStack(t)
	userID := uuid.New()
	mem.AddUser(userID)
	token := signSession(t, userID)

	// Paso 1: start-auth retorna la URL de autorización.
	rec := doReq(h, http.MethodPost, "/api/garmin/start-auth", token,
		`{"callbackUrl":"https://app/cb"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "authUrl")
	assert.Contains(t, rec.Body.String(), "oauth_token=rt-1")

	// Paso 2: el proveedor redirige al callback.
	rec = doReq(h, http.MethodGet, "/api/garmin/callback?oauth_token=rt-1&oauth_verifier=v-1", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app/cb?garmin_success=connected", rec.Header().Get("Location"))

	// El vínculo quedó activo.
	rec = doReq(h, http.MethodGet, "/api/garmin/status", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected":true`)
	assert.Contains(t, rec.Body.String(), `"garminUserId":"g-777"`)

	// Disconnect deja el estado limpio.
	rec = doReq(h, http.MethodPost, "/api/garmin/disconnect", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(h, http.MethodGet, "/api/garmin/status", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected":false`)
}

func TestRouter_CallbackSecondPassRedirectsToFrontend(t *testing.T) {
	h, _ := newTestStack(t)

	rec := doReq(h, http.MethodGet, "/api/garmin/callback?garmin_success=connected", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app.example.com/settings?garmin_success=connected", rec.Header().Get("Location"))

	rec = doReq(h, http.MethodGet, "/api/garmin/callback?garmin_error=invalid_token", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app.example.com/settings?garmin_error=invalid_token", rec.Header().Get("Location"))
}

func TestRouter_WebhooksAreUnauthenticated(t *testing.T) {
	h, mem := newTestStack(t)
	userID := uuid.New()
	mem.AddUser(userID)
	require.NoError(t, mem.SaveLink(context.Background(), userID, "g-777", "at", "as"))

	body := `{"sleeps":[{"userId":"g-777","summaryId":"s-1","durationInSeconds":27000}]}`
	rec := doReq(h, http.MethodPost, "/api/garmin/sleep-webhook", "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stored":1`)

	_, ok := mem.GetSleep(userID, "s-1")
	assert.True(t, ok)
}

func TestRouter_WebhookInvalidJSON(t *testing.T) {
	h, _ := newTestStack(t)

	for _, path := range []string{
		"/api/garmin/sleep-webhook",
		"/api/garmin/dailies-webhook",
		"/api/garmin/deregister-webhook",
	} {
		rec := doReq(h, http.MethodPost, path, "", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.JSONEq(t, `{"error":"Invalid JSON"}`, rec.Body.String(), path)
	}
}

func TestRouter_PermissionChangeAcks(t *testing.T) {
	h, _ := newTestStack(t)

	rec := doReq(h, http.MethodPost, "/api/garmin/user-permission-change-webhook", "", `{"whatever":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}

func TestRouter_StatusUnknownUser(t *testing.T) {
	h, _ := newTestStack(t)
	token := signSession(t, uuid.New())

	rec := doReq(h, http.MethodGet, "/api/garmin/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doReq(h, http.MethodGet, "/api/garmin/status", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

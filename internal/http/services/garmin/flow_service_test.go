package garmin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provider "github.com/dropDatabas3/wearsync/internal/garmin"
	"github.com/dropDatabas3/wearsync/internal/oauth1"
	"github.com/dropDatabas3/wearsync/internal/store"
	"github.com/dropDatabas3/wearsync/internal/store/memory"
)

// providerCapture registra lo que el proveedor falso recibió.
type providerCapture struct {
	RequestTokenAuth string // header Authorization del último request-token
}

// fakeProvider levanta un proveedor OAuth de mentira sobre httptest.
func fakeProvider(t *testing.T) (*provider.Client, *providerCapture) {
	t.Helper()
	rec := &providerCapture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		rec.RequestTokenAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, "oauth_token=rt-1&oauth_token_secret=rs-1")
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "oauth_token=at-1&oauth_token_secret=as-1")
	})
	mux.HandleFunc("/user/id", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"userId":"g-777"}`)
	})
	mux.HandleFunc("/backfill/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	signer := &oauth1.Signer{ConsumerKey: "ck", ConsumerSecret: "cs"}
	eps := provider.Endpoints{
		RequestTokenURL:    srv.URL + "/oauth/request_token",
		AuthorizeURL:       srv.URL + "/oauthConfirm",
		AccessTokenURL:     srv.URL + "/oauth/access_token",
		UserIDURL:          srv.URL + "/user/id",
		SleepBackfillURL:   srv.URL + "/backfill/sleeps",
		DailiesBackfillURL: srv.URL + "/backfill/dailies",
	}
	return provider.NewClient(signer, eps, srv.Client()), rec
}

func newFlowFixture(t *testing.T) (FlowService, *memory.Store) {
	t.Helper()
	client, _ := fakeProvider(t)
	mem := memory.New()
	svc := NewFlowService(client, mem, mem, FlowConfig{
		BaseURL:     "https://svc.example.com",
		FrontendURL: "https://app.example.com/settings",
	})
	return svc, mem
}

func TestFlow_StartThenCallback_WebClient(t *testing.T) {
	svc, mem := newFlowFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	mem.AddUser(userID)

	authURL, err := svc.Start(ctx, userID, "https://app/cb")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, "http"), "authURL=%s", authURL)
	assert.Contains(t, authURL, "oauth_token=rt-1")

	// El pending quedó persistido con el destino final del cliente.
	p, ok, err := mem.FindByToken(ctx, "rt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, "https://app/cb", p.CallbackURL)

	target := svc.Callback(ctx, url.Values{
		"oauth_token":    {"rt-1"},
		"oauth_verifier": {"v-1"},
	})
	assert.Equal(t, "https://app/cb?garmin_success=connected", target)

	link, err := mem.Status(ctx, userID)
	require.NoError(t, err)
	assert.True(t, link.Connected)
	assert.Equal(t, "g-777", link.GarminUserID)
	assert.Equal(t, "at-1", link.AccessToken)
	assert.Equal(t, "as-1", link.TokenSecret)

	// El pending se consumió: un callback repetido ya no encuentra el token.
	target = svc.Callback(ctx, url.Values{
		"oauth_token":    {"rt-1"},
		"oauth_verifier": {"v-1"},
	})
	assert.Equal(t, "https://svc.example.com/api/garmin/callback?garmin_error=invalid_token", target)
}

func TestFlow_StartSignsEffectiveCallback(t *testing.T) {
	client, rec := fakeProvider(t)
	mem := memory.New()
	svc := NewFlowService(client, mem, mem, FlowConfig{BaseURL: "https://svc.example.com"})
	ctx := context.Background()
	userID := uuid.New()
	mem.AddUser(userID)

	// El callback del cliente viaja firmado como oauth_callback.
	_, err := svc.Start(ctx, userID, "moodful://connected")
	require.NoError(t, err)
	assert.Contains(t, rec.RequestTokenAuth, `oauth_callback="moodful%3A%2F%2Fconnected"`)

	// Sin callback del cliente, el default es la ruta de callback del servicio.
	_, err = svc.Start(ctx, userID, "")
	require.NoError(t, err)
	assert.Contains(t, rec.RequestTokenAuth,
		`oauth_callback="https%3A%2F%2Fsvc.example.com%2Fapi%2Fgarmin%2Fcallback"`)
}

func TestFlow_StartOverwritesPreviousPending(t *testing.T) {
	svc, mem := newFlowFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	mem.AddUser(userID)

	_, err := svc.Start(ctx, userID, "moodful://garmin-callback")
	require.NoError(t, err)
	_, err = svc.Start(ctx, userID, "https://app/cb")
	require.NoError(t, err)

	p, ok, err := mem.FindByToken(ctx, "rt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://app/cb", p.CallbackURL)
}

func TestFlow_CallbackDeepLink(t *testing.T) {
	svc, mem := newFlowFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	mem.AddUser(userID)

	_, err := svc.Start(ctx, userID, "moodful://garmin-callback")
	require.NoError(t, err)

	target := svc.Callback(ctx, url.Values{
		"oauth_token":    {"rt-1"},
		"oauth_verifier": {"v-1"},
	})
	// Deep links móviles se devuelven tal cual: la app decide qué mostrar.
	assert.Equal(t, "moodful://garmin-callback", target)
}

func TestFlow_CallbackMissingParams(t *testing.T) {
	svc, _ := newFlowFixture(t)

	target := svc.Callback(context.Background(), url.Values{})
	assert.Equal(t, "https://svc.example.com/api/garmin/callback?garmin_error=missing_params", target)

	target = svc.Callback(context.Background(), url.Values{"oauth_token": {"rt-1"}})
	assert.Equal(t, "https://svc.example.com/api/garmin/callback?garmin_error=missing_params", target)
}

func TestFlow_CallbackExpiredToken(t *testing.T) {
	svc, mem := newFlowFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	mem.AddUser(userID)

	require.NoError(t, mem.Save(ctx, store.PendingAuth{
		UserID:             userID,
		RequestToken:       "rt-old",
		RequestTokenSecret: "rs-old",
		CallbackURL:        "https://app/cb",
		ExpiresAt:          time.Now().Add(-time.Minute),
	}))

	target := svc.Callback(ctx, url.Values{
		"oauth_token":    {"rt-old"},
		"oauth_verifier": {"v-1"},
	})
	assert.Equal(t, "https://svc.example.com/api/garmin/callback?garmin_error=invalid_token", target)
}

func TestFlow_CallbackSecondPassMarkers(t *testing.T) {
	svc, _ := newFlowFixture(t)
	ctx := context.Background()

	target := svc.Callback(ctx, url.Values{"garmin_success": {"connected"}})
	assert.Equal(t, "https://app.example.com/settings?garmin_success=connected", target)

	target = svc.Callback(ctx, url.Values{"garmin_error": {"invalid_token"}})
	assert.Equal(t, "https://app.example.com/settings?garmin_error=invalid_token", target)
}

func TestFlow_StartNotConfigured(t *testing.T) {
	mem := memory.New()
	client := provider.NewClient(&oauth1.Signer{}, provider.Endpoints{}, nil)
	svc := NewFlowService(client, mem, mem, FlowConfig{BaseURL: "https://svc.example.com"})

	_, err := svc.Start(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFlow_StartProviderDown(t *testing.T) {
	mem := memory.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	signer := &oauth1.Signer{ConsumerKey: "ck", ConsumerSecret: "cs"}
	client := provider.NewClient(signer, provider.Endpoints{RequestTokenURL: srv.URL}, srv.Client())
	svc := NewFlowService(client, mem, mem, FlowConfig{BaseURL: "https://svc.example.com"})

	_, err := svc.Start(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestFlow_StartProviderUnreachable(t *testing.T) {
	mem := memory.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	signer := &oauth1.Signer{ConsumerKey: "ck", ConsumerSecret: "cs"}
	client := provider.NewClient(signer, provider.Endpoints{RequestTokenURL: deadURL}, nil)
	svc := NewFlowService(client, mem, mem, FlowConfig{BaseURL: "https://svc.example.com"})

	// Fallo de red: misma clase que un rechazo del proveedor, no protocolo.
	_, err := svc.Start(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ErrProviderProtocol)
}

func TestFlow_CallbackExchangeUnreachable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "oauth_token=rt-1&oauth_token_secret=rs-1")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	signer := &oauth1.Signer{ConsumerKey: "ck", ConsumerSecret: "cs"}
	client := provider.NewClient(signer, provider.Endpoints{
		RequestTokenURL: srv.URL + "/oauth/request_token",
		AuthorizeURL:    srv.URL + "/oauthConfirm",
		AccessTokenURL:  deadURL,
	}, srv.Client())

	mem := memory.New()
	svc := NewFlowService(client, mem, mem, FlowConfig{BaseURL: "https://svc.example.com"})
	ctx := context.Background()
	userID := uuid.New()
	mem.AddUser(userID)

	_, err := svc.Start(ctx, userID, "https://app/cb")
	require.NoError(t, err)

	// Canje caído por transporte: mismo reason que un rechazo del proveedor.
	target := svc.Callback(ctx, url.Values{
		"oauth_token":    {"rt-1"},
		"oauth_verifier": {"v-1"},
	})
	assert.Equal(t, "https://app/cb?garmin_error=token_exchange_failed", target)
}

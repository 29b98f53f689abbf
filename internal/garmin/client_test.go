package garmin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/wearsync/internal/oauth1"
)

func testSigner() *oauth1.Signer {
	return &oauth1.Signer{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	}
}

func TestGetRequestToken_ParsesFormBody(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("oauth_token=rt-1&oauth_token_secret=rs-1"))
	}))
	defer srv.Close()

	c := NewClient(testSigner(), Endpoints{RequestTokenURL: srv.URL}, srv.Client())
	tok, err := c.GetRequestToken(context.Background(), "https://svc/api/garmin/callback")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", tok.Token)
	assert.Equal(t, "rs-1", tok.Secret)
	assert.True(t, strings.HasPrefix(gotAuth, "OAuth "))
	assert.Contains(t, gotAuth, `oauth_consumer_key="ck"`)
	assert.Contains(t, gotAuth, `oauth_signature_method="HMAC-SHA1"`)
	assert.Contains(t, gotAuth, `oauth_callback="https%3A%2F%2Fsvc%2Fapi%2Fgarmin%2Fcallback"`)
}

func TestExchangeAccessToken_SendsVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.Contains(t, auth, `oauth_token="rt-1"`)
		assert.Contains(t, auth, `oauth_verifier="v-9"`)
		w.Write([]byte("oauth_token=at-1&oauth_token_secret=as-1"))
	}))
	defer srv.Close()

	c := NewClient(testSigner(), Endpoints{AccessTokenURL: srv.URL}, srv.Client())
	tok, err := c.ExchangeAccessToken(context.Background(), Token{Token: "rt-1", Secret: "rs-1"}, "v-9")
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.Token)
	assert.Equal(t, "as-1", tok.Secret)
}

func TestExchangeAccessToken_MissingSecretInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oauth_token=at-1"))
	}))
	defer srv.Close()

	c := NewClient(testSigner(), Endpoints{AccessTokenURL: srv.URL}, srv.Client())
	_, err := c.ExchangeAccessToken(context.Background(), Token{Token: "rt-1", Secret: "rs-1"}, "v")
	assert.Error(t, err)
}

func TestGetUserID_ParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"userId":"garmin-u-1"}`))
	}))
	defer srv.Close()

	c := NewClient(testSigner(), Endpoints{UserIDURL: srv.URL}, srv.Client())
	id, err := c.GetUserID(context.Background(), Token{Token: "at", Secret: "as"})
	require.NoError(t, err)
	assert.Equal(t, "garmin-u-1", id)
}

func TestGetUserID_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testSigner(), Endpoints{UserIDURL: srv.URL}, srv.Client())
	_, err := c.GetUserID(context.Background(), Token{Token: "at", Secret: "as"})
	assert.ErrorIs(t, err, ErrProviderRejected)
}

func TestAuthorizeRedirectURL(t *testing.T) {
	c := NewClient(testSigner(), Endpoints{AuthorizeURL: "https://connect.example.com/oauthConfirm"}, nil)
	got := c.AuthorizeRedirectURL("tok 1")
	// Sólo el token: el callback quedó atado en el paso request-token.
	assert.Equal(t, "https://connect.example.com/oauthConfirm?oauth_token=tok+1", got)
}

func TestGetRequestToken_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	c := NewClient(testSigner(), Endpoints{RequestTokenURL: deadURL}, nil)
	_, err := c.GetRequestToken(context.Background(), "https://svc/api/garmin/callback")
	assert.ErrorIs(t, err, ErrProviderUnreachable)
	assert.NotErrorIs(t, err, ErrProviderRejected)
}

func TestRequestBackfills_WindowAndOutcomes(t *testing.T) {
	sleeps := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.NotEmpty(t, q.Get("summaryStartTimeInSeconds"))
		assert.NotEmpty(t, q.Get("summaryEndTimeInSeconds"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sleeps.Close()
	dailies := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dailies.Close()

	c := NewClient(testSigner(), Endpoints{
		SleepBackfillURL:   sleeps.URL,
		DailiesBackfillURL: dailies.URL,
	}, nil)

	sleepOK, dailiesOK := c.RequestBackfills(context.Background(), Token{Token: "at", Secret: "as"})
	assert.True(t, sleepOK)
	assert.False(t, dailiesOK)
}

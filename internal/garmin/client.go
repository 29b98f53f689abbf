// Package garmin habla con la Connect API: flujo OAuth 1.0a y backfill.
package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/wearsync/internal/metrics"
	"github.com/dropDatabas3/wearsync/internal/oauth1"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
)

// Endpoints del proveedor. Overridables para tests (httptest).
type Endpoints struct {
	RequestTokenURL    string
	AuthorizeURL       string
	AccessTokenURL     string
	UserIDURL          string
	SleepBackfillURL   string
	DailiesBackfillURL string
}

// DefaultEndpoints retorna los endpoints productivos de Garmin.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		RequestTokenURL:    "https://connectapi.garmin.com/oauth-service/oauth/request_token",
		AuthorizeURL:       "https://connect.garmin.com/oauthConfirm",
		AccessTokenURL:     "https://connectapi.garmin.com/oauth-service/oauth/access_token",
		UserIDURL:          "https://apis.garmin.com/wellness-api/rest/user/id",
		SleepBackfillURL:   "https://apis.garmin.com/wellness-api/rest/backfill/sleeps",
		DailiesBackfillURL: "https://apis.garmin.com/wellness-api/rest/backfill/dailies",
	}
}

// ErrProviderRejected indica que el proveedor respondió fuera de 2xx.
var ErrProviderRejected = errors.New("garmin: provider rejected request")

// ErrProviderUnreachable indica fallo de red o timeout antes de recibir
// respuesta del proveedor.
var ErrProviderUnreachable = errors.New("garmin: provider unreachable")

// Token es un par token/secret del proveedor.
type Token struct {
	Token  string
	Secret string
}

// Client es el cliente firmado contra la Connect API.
type Client struct {
	signer    *oauth1.Signer
	endpoints Endpoints
	http      *http.Client
	log       *zap.Logger
}

// NewClient crea el Client. Si httpc es nil usa un cliente con timeout de 10s.
func NewClient(signer *oauth1.Signer, endpoints Endpoints, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		signer:    signer,
		endpoints: endpoints,
		http:      httpc,
		log:       logger.Named("garmin.client"),
	}
}

// Configured reporta si hay credenciales de consumer cargadas. El flujo
// de autorización corta antes de llamar al proveedor si faltan.
func (c *Client) Configured() bool {
	return c.signer != nil && c.signer.ConsumerKey != "" && c.signer.ConsumerSecret != ""
}

// GetRequestToken pide un request token temporal (paso 1 del flujo).
// callbackURL es el destino al que el proveedor redirige al usuario tras
// confirmar (deep link del cliente o la ruta de callback del servicio);
// viaja firmado como oauth_callback.
func (c *Client) GetRequestToken(ctx context.Context, callbackURL string) (Token, error) {
	params := map[string]string{"oauth_callback": callbackURL}
	body, err := c.signedCall(ctx, http.MethodPost, c.endpoints.RequestTokenURL, params, "", "request_token")
	if err != nil {
		return Token{}, err
	}
	return parseTokenBody(body)
}

// AuthorizeRedirectURL arma la URL de confirmación a la que se manda al
// usuario. Sólo lleva el request token: el callback ya quedó atado en el
// paso request-token.
func (c *Client) AuthorizeRedirectURL(requestToken string) string {
	return c.endpoints.AuthorizeURL + "?oauth_token=" + url.QueryEscape(requestToken)
}

// ExchangeAccessToken canjea el request token verificado por un access token
// permanente (paso 3 del flujo).
func (c *Client) ExchangeAccessToken(ctx context.Context, request Token, verifier string) (Token, error) {
	params := map[string]string{
		"oauth_token":    request.Token,
		"oauth_verifier": verifier,
	}
	body, err := c.signedCall(ctx, http.MethodPost, c.endpoints.AccessTokenURL, params, request.Secret, "access_token")
	if err != nil {
		return Token{}, err
	}
	return parseTokenBody(body)
}

// GetUserID resuelve el id Garmin del usuario dueño del access token.
func (c *Client) GetUserID(ctx context.Context, access Token) (string, error) {
	params := map[string]string{"oauth_token": access.Token}
	body, err := c.signedCall(ctx, http.MethodGet, c.endpoints.UserIDURL, params, access.Secret, "user_id")
	if err != nil {
		return "", err
	}
	var out struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("garmin: user id response: %w", err)
	}
	if out.UserID == "" {
		return "", fmt.Errorf("garmin: user id response without userId")
	}
	return out.UserID, nil
}

// signedCall firma y ejecuta una llamada, con logging por categoría de status.
func (c *Client) signedCall(ctx context.Context, method, rawURL string, params map[string]string, tokenSecret, endpoint string) ([]byte, error) {
	signed, err := c.signer.Sign(method, rawURL, params, tokenSecret)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, signed.URL, nil)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	req.Header.Set("Authorization", signed.AuthorizationHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		c.log.Warn("provider request failed", logger.Endpoint(endpoint), logger.Err(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnreachable, endpoint, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode/100 != 2 {
		metrics.ProviderRequests.WithLabelValues(endpoint, "rejected").Inc()
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			c.log.Warn("provider rejected credentials",
				logger.Endpoint(endpoint), logger.Status(resp.StatusCode))
		case resp.StatusCode >= 500:
			c.log.Error("provider server error",
				logger.Endpoint(endpoint), logger.Status(resp.StatusCode),
				logger.String("body", string(body)))
		default:
			c.log.Warn("provider rejected request",
				logger.Endpoint(endpoint), logger.Status(resp.StatusCode),
				logger.String("body", string(body)))
		}
		return nil, fmt.Errorf("%w: %s status %d", ErrProviderRejected, endpoint, resp.StatusCode)
	}

	metrics.ProviderRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

// parseTokenBody decodifica la respuesta form-encoded oauth_token/oauth_token_secret.
func parseTokenBody(body []byte) (Token, error) {
	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return Token{}, fmt.Errorf("garmin: malformed token response: %w", err)
	}
	t := Token{
		Token:  vals.Get("oauth_token"),
		Secret: vals.Get("oauth_token_secret"),
	}
	if t.Token == "" || t.Secret == "" {
		return Token{}, fmt.Errorf("garmin: token response missing oauth_token or oauth_token_secret")
	}
	return t, nil
}

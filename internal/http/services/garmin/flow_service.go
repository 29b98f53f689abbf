package garmin

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"

	provider "github.com/dropDatabas3/wearsync/internal/garmin"
	"github.com/dropDatabas3/wearsync/internal/metrics"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
	"github.com/dropDatabas3/wearsync/internal/store"
)

// PendingTTL es la vida útil de un request token en vuelo.
const PendingTTL = 10 * time.Minute

// FlowService orquesta el flujo de autorización de tres pasos.
type FlowService interface {
	// Start pide un request token, lo persiste como pending y retorna la
	// URL de autorización a abrir en el navegador del usuario.
	Start(ctx context.Context, userID uuid.UUID, callbackURL string) (string, error)

	// Callback procesa el redirect del proveedor (sin sesión). Siempre
	// retorna un destino de redirect: nunca un 5xx al navegador del usuario,
	// que llega acá a mitad de un redirect y no puede leer un body JSON.
	Callback(ctx context.Context, query url.Values) string
}

// FlowConfig configura el flujo.
type FlowConfig struct {
	// BaseURL es la URL externa de este servicio; el callback del proveedor
	// se construye como BaseURL + /api/garmin/callback.
	BaseURL string

	// FrontendURL es la página terminal a la que se resuelven los markers
	// garmin_success/garmin_error del segundo paso por la ruta de callback.
	FrontendURL string
}

type flowService struct {
	provider *provider.Client
	pending  store.PendingAuthStore
	links    store.UserLinkStore
	cfg      FlowConfig
}

// NewFlowService crea el service del flujo de autorización.
func NewFlowService(client *provider.Client, pending store.PendingAuthStore, links store.UserLinkStore, cfg FlowConfig) FlowService {
	return &flowService{
		provider: client,
		pending:  pending,
		links:    links,
		cfg:      cfg,
	}
}

// serverCallbackURL es la ruta de este servicio a la que el proveedor
// redirige al usuario tras confirmar.
func (s *flowService) serverCallbackURL() string {
	return s.cfg.BaseURL + "/api/garmin/callback"
}

func (s *flowService) Start(ctx context.Context, userID uuid.UUID, callbackURL string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("FlowService.Start"), logger.UserID(userID.String()))

	if !s.provider.Configured() {
		log.Error("consumer credentials not configured")
		return "", ErrNotConfigured
	}

	// Callback efectivo: el que pidió el cliente (deep link móvil o URL web),
	// o la ruta de callback de este servicio por defecto. Es el mismo que
	// viaja firmado como oauth_callback: el proveedor redirige ahí.
	if callbackURL == "" {
		callbackURL = s.serverCallbackURL()
	}

	tok, err := s.provider.GetRequestToken(ctx, callbackURL)
	if err != nil {
		log.Error("request token failed", logger.Err(err))
		if errors.Is(err, provider.ErrProviderRejected) || errors.Is(err, provider.ErrProviderUnreachable) {
			return "", errors.Join(ErrProviderUnavailable, err)
		}
		return "", errors.Join(ErrProviderProtocol, err)
	}

	p := store.PendingAuth{
		UserID:             userID,
		RequestToken:       tok.Token,
		RequestTokenSecret: tok.Secret,
		CallbackURL:        callbackURL,
		ExpiresAt:          time.Now().Add(PendingTTL),
	}
	if err := s.pending.Save(ctx, p); err != nil {
		log.Error("pending auth save failed", logger.Err(err))
		return "", err
	}

	log.Info("authorization started")
	return s.provider.AuthorizeRedirectURL(tok.Token), nil
}

func (s *flowService) Callback(ctx context.Context, query url.Values) string {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("FlowService.Callback"))

	// Segundo paso por la misma ruta: el flujo ya terminó y el redirect web
	// por defecto volvió acá con un marker. Resolver a la página terminal.
	if query.Get("garmin_success") != "" || query.Get("garmin_error") != "" {
		return s.terminalURL(query)
	}

	requestToken := query.Get("oauth_token")
	verifier := query.Get("oauth_verifier")
	if requestToken == "" || verifier == "" {
		log.Warn("callback missing params")
		return s.failRedirect(s.serverCallbackURL(), "missing_params")
	}

	p, ok, err := s.pending.FindByToken(ctx, requestToken)
	if err != nil {
		log.Error("pending auth lookup failed", logger.Err(err))
		return s.failRedirect(s.serverCallbackURL(), "storage_failed")
	}
	if !ok {
		// Callback viejo o repetido: resultado esperable, no es un error.
		log.Info("request token unknown or expired", logger.Reason("invalid_token"))
		return s.failRedirect(s.serverCallbackURL(), "invalid_token")
	}

	log = log.With(logger.UserID(p.UserID.String()))

	access, err := s.provider.ExchangeAccessToken(ctx, provider.Token{Token: p.RequestToken, Secret: p.RequestTokenSecret}, verifier)
	if err != nil {
		log.Error("access token exchange failed", logger.Err(err))
		if errors.Is(err, provider.ErrProviderRejected) || errors.Is(err, provider.ErrProviderUnreachable) {
			return s.failRedirect(p.CallbackURL, "token_exchange_failed")
		}
		return s.failRedirect(p.CallbackURL, "invalid_access_token")
	}

	garminUserID, err := s.provider.GetUserID(ctx, access)
	if err != nil {
		log.Error("provider user id lookup failed", logger.Err(err))
		return s.failRedirect(p.CallbackURL, "user_id_failed")
	}

	if err := s.links.SaveLink(ctx, p.UserID, garminUserID, access.Token, access.Secret); err != nil {
		log.Error("user link save failed", logger.Err(err), logger.GarminUserID(garminUserID))
		return s.failRedirect(p.CallbackURL, "storage_failed")
	}

	// Best effort: el pending ya se consumió, un fallo acá no corta el flujo.
	if err := s.pending.DeleteByUser(ctx, p.UserID); err != nil {
		log.Warn("pending auth delete failed", logger.Err(err))
	}

	// Fire and forget: el backfill nunca demora ni afecta el redirect.
	go func(access provider.Token) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		s.provider.RequestBackfills(bctx, access)
	}(access)

	metrics.AuthFlows.WithLabelValues("connected").Inc()
	log.Info("account connected", logger.GarminUserID(garminUserID))
	return ResolveCallbackRedirect(p.CallbackURL, true, "")
}

func (s *flowService) failRedirect(callbackURL, reason string) string {
	metrics.AuthFlows.WithLabelValues(reason).Inc()
	return ResolveCallbackRedirect(callbackURL, false, reason)
}

// terminalURL resuelve los markers del segundo paso a la página terminal
// del frontend, preservando el resultado.
func (s *flowService) terminalURL(query url.Values) string {
	base := s.cfg.FrontendURL
	if base == "" {
		base = s.cfg.BaseURL
	}
	if v := query.Get("garmin_success"); v != "" {
		return base + "?garmin_success=" + url.QueryEscape(v)
	}
	return base + "?garmin_error=" + url.QueryEscape(query.Get("garmin_error"))
}

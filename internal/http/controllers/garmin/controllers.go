// Package garmin contiene los controllers HTTP de la integración.
package garmin

import (
	svc "github.com/dropDatabas3/wearsync/internal/http/services/garmin"
)

// Controllers agrupa los controllers de la integración para el router.
type Controllers struct {
	Auth    *AuthController
	Webhook *WebhookController
	Account *AccountController
}

// New arma los controllers sobre los services dados.
func New(flow svc.FlowService, webhook svc.WebhookService, account svc.AccountService) *Controllers {
	return &Controllers{
		Auth:    NewAuthController(flow),
		Webhook: NewWebhookController(webhook),
		Account: NewAccountController(account),
	}
}

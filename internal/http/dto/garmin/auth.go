// Package garmin contiene los DTOs de la integración con el proveedor.
package garmin

// StartAuthRequest es el body de POST /api/garmin/start-auth.
type StartAuthRequest struct {
	// CallbackURL es el destino final del usuario al terminar el flujo:
	// deep link móvil o página web. Opcional.
	CallbackURL string `json:"callbackUrl"`
}

// StartAuthResponse devuelve la URL de autorización a abrir en el navegador.
type StartAuthResponse struct {
	AuthURL string `json:"authUrl"`
}

// StatusResponse es la respuesta de GET /api/garmin/status.
type StatusResponse struct {
	Connected    bool   `json:"connected"`
	GarminUserID string `json:"garminUserId,omitempty"`
}

// MessageResponse es una respuesta simple con mensaje.
type MessageResponse struct {
	Message string `json:"message"`
}

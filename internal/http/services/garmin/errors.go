// Package garmin contiene los services de la integración con el proveedor.
package garmin

import "errors"

// Errores sentinela del service. Los controllers los mapean a AppError
// con errors.Is; los services sólo conocen estos.
var (
	// ErrNotConfigured indica consumer key/secret ausentes. Error de
	// configuración del servidor, no del caller.
	ErrNotConfigured = errors.New("garmin: consumer credentials not configured")

	// ErrProviderUnavailable indica fallo HTTP/red contra el proveedor.
	ErrProviderUnavailable = errors.New("garmin: provider unavailable")

	// ErrProviderProtocol indica respuesta 2xx pero sin los campos esperados.
	ErrProviderProtocol = errors.New("garmin: unexpected provider response")

	// ErrInvalidJSON indica body de webhook no parseable. Único caso en que
	// un webhook responde distinto de 200.
	ErrInvalidJSON = errors.New("garmin: invalid json body")

	// ErrUserNotFound indica que el usuario local no existe.
	ErrUserNotFound = errors.New("garmin: user not found")
)

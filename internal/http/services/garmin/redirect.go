package garmin

import (
	"net/url"
	"strings"
)

// ResolveCallbackRedirect decide el destino final del usuario al terminar
// (bien o mal) el flujo de autorización.
//
// Un callback con esquema custom (app móvil, p.ej. moodful://connected) se
// devuelve sin tocar: la app resuelve éxito/fallo desde su propio estado.
// Un callback web recibe el resultado como query param:
// ?garmin_success=connected o ?garmin_error=<reason>.
func ResolveCallbackRedirect(callbackURL string, success bool, reason string) string {
	if isCustomScheme(callbackURL) {
		return callbackURL
	}

	sep := "?"
	if strings.Contains(callbackURL, "?") {
		sep = "&"
	}
	if success {
		return callbackURL + sep + "garmin_success=connected"
	}
	if reason == "" {
		reason = "unknown"
	}
	return callbackURL + sep + "garmin_error=" + url.QueryEscape(reason)
}

// isCustomScheme reporta si la URL usa un esquema distinto de http/https.
func isCustomScheme(rawURL string) bool {
	i := strings.Index(rawURL, "://")
	if i <= 0 {
		return false
	}
	scheme := strings.ToLower(rawURL[:i])
	return scheme != "http" && scheme != "https"
}

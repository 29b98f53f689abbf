// Package oauth1 implements OAuth 1.0a request signing (RFC 5849, HMAC-SHA1).
//
// Todas las llamadas firmadas al proveedor pasan por un único Signer; el header
// resultante es interoperable bit a bit con el validador del proveedor, así que
// el encoding y el orden de parámetros siguen la RFC al pie de la letra.
package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredentials indica que falta el consumer key o secret.
// Es un error de configuración: nunca se firma con credenciales vacías.
var ErrMissingCredentials = errors.New("oauth1: consumer key/secret not configured")

// Signer firma requests con HMAC-SHA1.
//
// Nonce y Now son inyectables para tests deterministas; con los mismos inputs
// (método, URL, params, credenciales, nonce y timestamp) la firma es siempre
// la misma.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string

	// Nonce genera el oauth_nonce. Default: 16 bytes aleatorios hex.
	Nonce func() (string, error)
	// Now provee el timestamp. Default: time.Now.
	Now func() time.Time
}

// SignedRequest es el resultado de firmar: el valor del header Authorization
// y la URL final con los query params no-oauth ya anexados.
type SignedRequest struct {
	AuthorizationHeader string
	URL                 string
}

// Sign construye el header OAuth para method+rawURL con los params dados.
//
// Los params con prefijo "oauth_" (oauth_token, oauth_verifier, oauth_callback)
// van al header; el resto se firma igual pero se anexa a la URL como query
// string. tokenSecret puede ser vacío (paso request-token).
func (s *Signer) Sign(method, rawURL string, params map[string]string, tokenSecret string) (*SignedRequest, error) {
	if s.ConsumerKey == "" || s.ConsumerSecret == "" {
		return nil, ErrMissingCredentials
	}

	nonce, err := s.nonce()
	if err != nil {
		return nil, fmt.Errorf("oauth1: nonce: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.ConsumerKey,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_nonce":            nonce,
		"oauth_version":          "1.0",
	}

	// Separar oauth params de query params
	queryParams := map[string]string{}
	for k, v := range params {
		if strings.HasPrefix(k, "oauth_") {
			oauthParams[k] = v
		} else {
			queryParams[k] = v
		}
	}

	// La firma cubre TODOS los parámetros, header y query por igual.
	all := make(map[string]string, len(oauthParams)+len(queryParams))
	for k, v := range oauthParams {
		all[k] = v
	}
	for k, v := range queryParams {
		all[k] = v
	}

	base := SignatureBaseString(method, rawURL, all)
	key := PercentEncode(s.ConsumerSecret) + "&" + PercentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	oauthParams["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	finalURL := rawURL
	if len(queryParams) > 0 {
		vs := url.Values{}
		for k, v := range queryParams {
			vs.Set(k, v)
		}
		finalURL = rawURL + "?" + vs.Encode()
	}

	return &SignedRequest{
		AuthorizationHeader: AuthorizationHeader(oauthParams),
		URL:                 finalURL,
	}, nil
}

func (s *Signer) nonce() (string, error) {
	if s.Nonce != nil {
		return s.Nonce()
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PercentEncode aplica el encoding de RFC 3986 §2.1 con el set unreserved
// estricto de OAuth: sólo [A-Za-z0-9-._~] quedan sin escapar. En particular
// ! ' ( ) * se escapan, a diferencia de encoders URL genéricos.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// SignatureBaseString construye el base string de la firma:
// METHOD&enc(url)&enc(k1=v1&k2=v2...) con keys ordenadas por byte order.
func SignatureBaseString(method, rawURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, PercentEncode(k)+"="+PercentEncode(params[k]))
	}

	return strings.ToUpper(method) + "&" + PercentEncode(rawURL) + "&" + PercentEncode(strings.Join(pairs, "&"))
}

// AuthorizationHeader arma el valor del header con sólo los params oauth_*,
// ordenados, cada valor entre comillas y percent-encoded.
func AuthorizationHeader(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if strings.HasPrefix(k, "oauth_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+`="`+PercentEncode(params[k])+`"`)
	}
	return "OAuth " + strings.Join(pairs, ", ")
}

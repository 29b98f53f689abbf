// Package store define los tipos persistidos y las interfaces de acceso.
//
// Las implementaciones viven en subpaquetes (pg, memory); los services reciben
// las interfaces por inyección, nunca un handle global.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indica que el registro no existe (o ya expiró, para pendings).
var ErrNotFound = errors.New("store: not found")

// PendingAuth es un intento de autorización en vuelo: el request token del
// paso 1 esperando el callback del proveedor. Como máximo un registro vivo
// por usuario; un nuevo Start pisa el anterior.
type PendingAuth struct {
	UserID             uuid.UUID
	RequestToken       string
	RequestTokenSecret string
	CallbackURL        string
	ExpiresAt          time.Time
}

// GarminLink es el vínculo de un usuario local con su identidad del proveedor.
// Connected=true implica GarminUserID/AccessToken/TokenSecret no vacíos;
// cualquier desconexión limpia los cuatro campos en un solo update.
type GarminLink struct {
	Connected    bool
	GarminUserID string
	AccessToken  string
	TokenSecret  string
}

// SleepSummary es un resumen de sueño entregado por webhook, una fila por
// (usuario local, summary id). Las duraciones llegan en segundos y se
// persisten en horas con dos decimales.
type SleepSummary struct {
	UserID                    uuid.UUID
	GarminUserID              string
	SummaryID                 string
	CalendarDate              string
	StartTimeInSeconds        int64
	StartTimeOffsetInSeconds  int64
	DurationInHours           float64
	DeepSleepDurationInHours  float64
	LightSleepDurationInHours float64
	RemSleepInHours           float64
	AwakeDurationInHours      float64
	UpdatedAt                 time.Time
}

// DailySummary es un resumen diario de actividad entregado por webhook.
type DailySummary struct {
	UserID                  uuid.UUID
	GarminUserID            string
	SummaryID               string
	CalendarDate            string
	Steps                   int64
	DistanceInMeters        float64
	ActiveTimeInHours       float64
	FloorsClimbed           int64
	AverageStressLevel      int
	MaxStressLevel          int
	StressDurationInMinutes float64
	UpdatedAt               time.Time
}

// PendingAuthStore guarda los request tokens en vuelo (TTL 10 minutos).
type PendingAuthStore interface {
	// Save persiste el pending, pisando cualquier registro previo del usuario.
	Save(ctx context.Context, p PendingAuth) error

	// FindByToken busca por request token. Sólo retorna registros con
	// expires_at > now; un token vencido es (zero, false, nil).
	// El lookup es por token, no por usuario: el callback del proveedor llega
	// sin sesión.
	FindByToken(ctx context.Context, token string) (PendingAuth, bool, error)

	// DeleteByUser limpia el pending del usuario (best effort tras conectar).
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// UserLinkStore muta el vínculo usuario ↔ proveedor.
type UserLinkStore interface {
	// SaveLink marca el usuario como conectado y guarda credenciales e
	// identidad del proveedor en un único update atómico.
	SaveLink(ctx context.Context, userID uuid.UUID, garminUserID, accessToken, tokenSecret string) error

	// Disconnect limpia los cuatro campos incondicionalmente. Idempotente.
	Disconnect(ctx context.Context, userID uuid.UUID) error

	// DeregisterByGarminID limpia los campos sólo donde el usuario sigue
	// conectado con ese garmin_user_id. Retorna filas afectadas (0 es un
	// no-op válido: deregistración repetida).
	DeregisterByGarminID(ctx context.Context, garminUserID string) (int64, error)

	// Status retorna el estado de conexión del usuario.
	Status(ctx context.Context, userID uuid.UUID) (GarminLink, error)

	// FindUserByGarminID resuelve el usuario local conectado para un id del
	// proveedor. (uuid.Nil, false, nil) si no hay vínculo activo.
	FindUserByGarminID(ctx context.Context, garminUserID string) (uuid.UUID, bool, error)
}

// SummaryStore persiste los summaries con semántica insert-or-replace por
// (user_id, summary_id): la redelivery at-least-once del proveedor se absorbe
// acá, la última entrega gana.
type SummaryStore interface {
	UpsertSleep(ctx context.Context, s SleepSummary) error
	UpsertDaily(ctx context.Context, d DailySummary) error
}

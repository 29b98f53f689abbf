package garmin

import (
	"context"
	"encoding/json"
	"math"

	dto "github.com/dropDatabas3/wearsync/internal/http/dto/garmin"
	"github.com/dropDatabas3/wearsync/internal/metrics"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
	"github.com/dropDatabas3/wearsync/internal/store"
)

// WebhookService procesa las entregas asíncronas del proveedor.
//
// Contrato de acknowledgement: siempre 200 salvo body no parseable (400).
// El proveedor reintenta agresivamente ante no-2xx; un item fallido se cuenta
// y se sigue con el resto, nunca se corta la entrega completa.
type WebhookService interface {
	IngestSleeps(ctx context.Context, body []byte) (dto.WebhookResult, error)
	IngestDailies(ctx context.Context, body []byte) (dto.WebhookResult, error)
	Deregister(ctx context.Context, body []byte) (dto.WebhookResult, error)
}

type webhookService struct {
	links     store.UserLinkStore
	summaries store.SummaryStore
}

// NewWebhookService crea el service de webhooks.
func NewWebhookService(links store.UserLinkStore, summaries store.SummaryStore) WebhookService {
	return &webhookService{links: links, summaries: summaries}
}

// secondsToHours convierte segundos a horas con dos decimales.
func secondsToHours(sec float64) float64 {
	return math.Round(sec/3600*100) / 100
}

// secondsToMinutes convierte segundos a minutos con dos decimales.
func secondsToMinutes(sec float64) float64 {
	return math.Round(sec/60*100) / 100
}

// decodeEntries normaliza las dos formas de payload aceptadas:
// { "<key>": [...] } o un array pelado al tope. Cualquier otro JSON válido
// son cero entries (ack sin trabajo); JSON inválido es ErrInvalidJSON.
func decodeEntries[T any](body []byte, key string) ([]T, error) {
	if !json.Valid(body) {
		return nil, ErrInvalidJSON
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err == nil {
		raw, ok := wrapper[key]
		if !ok {
			return nil, nil
		}
		var entries []T
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, nil
		}
		return entries, nil
	}

	var entries []T
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}

func (s *webhookService) IngestSleeps(ctx context.Context, body []byte) (dto.WebhookResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("WebhookService.IngestSleeps"))

	entries, err := decodeEntries[dto.SleepEntry](body, "sleeps")
	if err != nil {
		return dto.WebhookResult{}, err
	}

	var res dto.WebhookResult
	for _, e := range entries {
		userID, ok, err := s.links.FindUserByGarminID(ctx, e.UserID)
		if err != nil {
			res.Failed++
			metrics.WebhookItems.WithLabelValues("sleep", "error").Inc()
			log.Error("user lookup failed", logger.Err(err), logger.GarminUserID(e.UserID))
			continue
		}
		if !ok {
			res.Skipped++
			metrics.WebhookItems.WithLabelValues("sleep", "skipped").Inc()
			continue
		}

		sum := store.SleepSummary{
			UserID:                    userID,
			GarminUserID:              e.UserID,
			SummaryID:                 e.SummaryID,
			CalendarDate:              e.CalendarDate,
			StartTimeInSeconds:        e.StartTimeInSeconds,
			StartTimeOffsetInSeconds:  e.StartTimeOffsetInSeconds,
			DurationInHours:           secondsToHours(e.DurationInSeconds),
			DeepSleepDurationInHours:  secondsToHours(e.DeepSleepDurationInSeconds),
			LightSleepDurationInHours: secondsToHours(e.LightSleepDurationInSeconds),
			RemSleepInHours:           secondsToHours(e.RemSleepInSeconds),
			AwakeDurationInHours:      secondsToHours(e.AwakeDurationInSeconds),
		}
		if err := s.summaries.UpsertSleep(ctx, sum); err != nil {
			res.Failed++
			metrics.WebhookItems.WithLabelValues("sleep", "error").Inc()
			log.Error("sleep upsert failed", logger.Err(err), logger.SummaryID(e.SummaryID))
			continue
		}
		res.Stored++
		metrics.WebhookItems.WithLabelValues("sleep", "stored").Inc()
	}

	if res.Skipped > 0 {
		log.Info("sleep entries skipped for unknown users", logger.Count(res.Skipped))
	}
	log.Info("sleep webhook processed",
		logger.Int("stored", res.Stored),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *webhookService) IngestDailies(ctx context.Context, body []byte) (dto.WebhookResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("WebhookService.IngestDailies"))

	entries, err := decodeEntries[dto.DailyEntry](body, "dailies")
	if err != nil {
		return dto.WebhookResult{}, err
	}

	var res dto.WebhookResult
	for _, e := range entries {
		userID, ok, err := s.links.FindUserByGarminID(ctx, e.UserID)
		if err != nil {
			res.Failed++
			metrics.WebhookItems.WithLabelValues("daily", "error").Inc()
			log.Error("user lookup failed", logger.Err(err), logger.GarminUserID(e.UserID))
			continue
		}
		if !ok {
			res.Skipped++
			metrics.WebhookItems.WithLabelValues("daily", "skipped").Inc()
			continue
		}

		sum := store.DailySummary{
			UserID:                  userID,
			GarminUserID:            e.UserID,
			SummaryID:               e.SummaryID,
			CalendarDate:            e.CalendarDate,
			Steps:                   e.Steps,
			DistanceInMeters:        e.DistanceInMeters,
			ActiveTimeInHours:       secondsToHours(e.ActiveTimeInSeconds),
			FloorsClimbed:           e.FloorsClimbed,
			AverageStressLevel:      int(e.AverageStressLevel),
			MaxStressLevel:          int(e.MaxStressLevel),
			StressDurationInMinutes: secondsToMinutes(e.StressDurationInSeconds),
		}
		if err := s.summaries.UpsertDaily(ctx, sum); err != nil {
			res.Failed++
			metrics.WebhookItems.WithLabelValues("daily", "error").Inc()
			log.Error("daily upsert failed", logger.Err(err), logger.SummaryID(e.SummaryID))
			continue
		}
		res.Stored++
		metrics.WebhookItems.WithLabelValues("daily", "stored").Inc()
	}

	log.Info("dailies webhook processed",
		logger.Int("stored", res.Stored),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed),
	)
	return res, nil
}

// deregEntry es una entrada de deregistración.
type deregEntry struct {
	UserID string `json:"userId"`
}

func (s *webhookService) Deregister(ctx context.Context, body []byte) (dto.WebhookResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("WebhookService.Deregister"))

	if !json.Valid(body) {
		return dto.WebhookResult{}, ErrInvalidJSON
	}

	// Formas aceptadas: { deregistrations: [ {userId}, ... ] } o un único
	// { userId } al tope.
	var payload struct {
		Deregistrations []deregEntry `json:"deregistrations"`
		UserID          string       `json:"userId"`
	}
	entries := []deregEntry{}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Deregistrations) > 0 {
			entries = payload.Deregistrations
		} else if payload.UserID != "" {
			entries = []deregEntry{{UserID: payload.UserID}}
		}
	}

	var res dto.WebhookResult
	for _, e := range entries {
		if e.UserID == "" {
			res.Skipped++
			continue
		}
		rows, err := s.links.DeregisterByGarminID(ctx, e.UserID)
		if err != nil {
			res.Failed++
			log.Error("deregistration failed", logger.Err(err), logger.GarminUserID(e.UserID))
			continue
		}
		if rows == 0 {
			// Deregistración repetida o usuario nunca vinculado: no-op válido.
			res.Skipped++
			log.Warn("deregistration matched no connected user", logger.GarminUserID(e.UserID))
			continue
		}
		res.Stored += int(rows)
		metrics.Deregistrations.Inc()
		log.Info("user deregistered", logger.GarminUserID(e.UserID), logger.Int("rows", int(rows)))
	}

	return res, nil
}

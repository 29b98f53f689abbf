package pg

import (
	"context"

	"github.com/dropDatabas3/wearsync/internal/store"
)

// SummaryStore implementa store.SummaryStore sobre Postgres.
// El ON CONFLICT por (user_id, summary_id) absorbe la redelivery
// at-least-once del proveedor: la última entrega gana.
type SummaryStore struct{ S *Store }

func (s *SummaryStore) UpsertSleep(ctx context.Context, sum store.SleepSummary) error {
	_, err := s.S.pool.Exec(ctx, `
        INSERT INTO sleep_summary (
            user_id, garmin_user_id, summary_id, calendar_date,
            start_time_in_seconds, start_time_offset_in_seconds,
            duration_in_hours, deep_sleep_duration_in_hours,
            light_sleep_duration_in_hours, rem_sleep_in_hours,
            awake_duration_in_hours, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
        ON CONFLICT (user_id, summary_id) DO UPDATE
           SET garmin_user_id = EXCLUDED.garmin_user_id,
               calendar_date = EXCLUDED.calendar_date,
               start_time_in_seconds = EXCLUDED.start_time_in_seconds,
               start_time_offset_in_seconds = EXCLUDED.start_time_offset_in_seconds,
               duration_in_hours = EXCLUDED.duration_in_hours,
               deep_sleep_duration_in_hours = EXCLUDED.deep_sleep_duration_in_hours,
               light_sleep_duration_in_hours = EXCLUDED.light_sleep_duration_in_hours,
               rem_sleep_in_hours = EXCLUDED.rem_sleep_in_hours,
               awake_duration_in_hours = EXCLUDED.awake_duration_in_hours,
               updated_at = now()`,
		sum.UserID, sum.GarminUserID, sum.SummaryID, sum.CalendarDate,
		sum.StartTimeInSeconds, sum.StartTimeOffsetInSeconds,
		sum.DurationInHours, sum.DeepSleepDurationInHours,
		sum.LightSleepDurationInHours, sum.RemSleepInHours,
		sum.AwakeDurationInHours,
	)
	return err
}

func (s *SummaryStore) UpsertDaily(ctx context.Context, sum store.DailySummary) error {
	_, err := s.S.pool.Exec(ctx, `
        INSERT INTO daily_summary (
            user_id, garmin_user_id, summary_id, calendar_date,
            steps, distance_in_meters, active_time_in_hours, floors_climbed,
            average_stress_level, max_stress_level, stress_duration_in_minutes,
            updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
        ON CONFLICT (user_id, summary_id) DO UPDATE
           SET garmin_user_id = EXCLUDED.garmin_user_id,
               calendar_date = EXCLUDED.calendar_date,
               steps = EXCLUDED.steps,
               distance_in_meters = EXCLUDED.distance_in_meters,
               active_time_in_hours = EXCLUDED.active_time_in_hours,
               floors_climbed = EXCLUDED.floors_climbed,
               average_stress_level = EXCLUDED.average_stress_level,
               max_stress_level = EXCLUDED.max_stress_level,
               stress_duration_in_minutes = EXCLUDED.stress_duration_in_minutes,
               updated_at = now()`,
		sum.UserID, sum.GarminUserID, sum.SummaryID, sum.CalendarDate,
		sum.Steps, sum.DistanceInMeters, sum.ActiveTimeInHours, sum.FloorsClimbed,
		sum.AverageStressLevel, sum.MaxStressLevel, sum.StressDurationInMinutes,
	)
	return err
}

package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingSummaryPeriod holds aggregated set volume for one time period.
// Warmup sets are excluded from every figure except Sets.
type TrainingSummaryPeriod struct {
	Period            string  `json:"period"`
	Sessions          int     `json:"sessions"`
	Sets              int     `json:"sets"`
	WorkingSets       int     `json:"working_sets"`
	TotalReps         int     `json:"total_reps"`
	Volume            float64 `json:"volume"`
	AvgSetsPerSession float64 `json:"avg_sets_per_session"`
}

// GetTrainingSummary returns set volume per period, newest first.
func (db *DB) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]TrainingSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, s.started_at)::date AS period,
		        COUNT(DISTINCT s.id)::int AS sessions,
		        COUNT(l.id)::int AS sets,
		        COUNT(l.id) FILTER (WHERE l.role <> 'warmup')::int AS working_sets,
		        COALESCE(SUM(l.reps) FILTER (WHERE l.role <> 'warmup'), 0)::int AS total_reps,
		        COALESCE(SUM((l.weight + l.external_load) * l.reps) FILTER (WHERE l.role <> 'warmup'), 0) AS volume
		 FROM sessions s
		 JOIN set_logs l ON l.session_id = s.id
		 WHERE s.started_at >= $2 AND s.started_at < $3
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var result []TrainingSummaryPeriod
	for rows.Next() {
		var periodTime time.Time
		var p TrainingSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Sessions, &p.Sets, &p.WorkingSets, &p.TotalReps, &p.Volume); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		if p.Sessions > 0 {
			p.AvgSetsPerSession = float64(p.WorkingSets) / float64(p.Sessions)
		}
		p.Period = periodTime.Format("2006-01-02")
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "week":
		return "week"
	case "1 day", "day":
		return "day"
	default:
		return "month"
	}
}

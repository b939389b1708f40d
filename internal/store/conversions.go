package store

import (
	"context"
	"encoding/json"
	"time"

	"relist-engine/internal/domain"
)

// SaveConversion appends one terminal pipeline result. The full
// result is kept as JSON next to the indexed columns.
func (d *DB) SaveConversion(ctx context.Context, r *domain.ConversionResult) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	completed := ""
	if !r.CompletedAt.IsZero() {
		completed = r.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO conversions (url, status, step, error, result, started_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?);
`,
		r.URL, string(r.Status), string(r.Step), r.Error, string(body),
		r.StartedAt.UTC().Format(time.RFC3339), completed,
	)
	return err
}

// RecentConversions returns the latest stored results, newest first.
func (d *DB) RecentConversions(ctx context.Context, limit int) ([]*domain.ConversionResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT result FROM conversions ORDER BY id DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ConversionResult
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var r domain.ConversionResult
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"time"
)

// AnalyticsRepo aggregates complaint statistics for the dashboard.  All
// queries are read-only.
type AnalyticsRepo struct{ DB *sql.DB }

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{DB: db} }

// Overview is the system-wide resolution snapshot.
type Overview struct {
	Total              int      `json:"total"`
	Resolved           int      `json:"resolved"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours,omitempty"`
	ResolutionRate     *float64 `json:"resolution_rate,omitempty"`
}

// CategoryCount is a top-categories row.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DepartmentStats reports per-department load and resolution rate.
type DepartmentStats struct {
	Department     string   `json:"department"`
	Total          int      `json:"total"`
	Resolved       int      `json:"resolved"`
	ResolutionRate *float64 `json:"resolution_rate,omitempty"`
}

// SummaryReport bundles the dashboard aggregates.
type SummaryReport struct {
	Overview      Overview          `json:"overview"`
	ByStatus      map[string]int    `json:"by_status"`
	TopCategories []CategoryCount   `json:"top_categories"`
	ByDepartment  []DepartmentStats `json:"by_department"`
}

// Summary computes the dashboard aggregates: counts by status, the ten
// busiest categories, per-department resolution rates, and the overall
// average time-to-resolve.
func (r *AnalyticsRepo) Summary(ctx context.Context) (SummaryReport, error) {
	report := SummaryReport{ByStatus: map[string]int{}}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM complaints GROUP BY status")
	if err != nil {
		return report, err
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return report, err
		}
		report.ByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return report, err
	}

	rows, err = r.DB.QueryContext(ctx, `
		SELECT cat.name, COUNT(c.id) AS cnt
		FROM complaints c JOIN categories cat ON cat.id = c.category_id
		GROUP BY cat.name ORDER BY cnt DESC LIMIT 10`)
	if err != nil {
		return report, err
	}
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			rows.Close()
			return report, err
		}
		report.TopCategories = append(report.TopCategories, cc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return report, err
	}

	rows, err = r.DB.QueryContext(ctx, `
		SELECT d.name,
		       COUNT(c.id),
		       COUNT(CASE WHEN c.status = 'resolved' THEN 1 END),
		       ROUND(COUNT(CASE WHEN c.status = 'resolved' THEN 1 END) / NULLIF(COUNT(c.id), 0) * 100, 2)
		FROM departments d
		LEFT JOIN complaints c ON c.department_id = d.id
		GROUP BY d.id, d.name
		ORDER BY COUNT(c.id) DESC`)
	if err != nil {
		return report, err
	}
	for rows.Next() {
		var (
			ds   DepartmentStats
			rate sql.NullFloat64
		)
		if err := rows.Scan(&ds.Department, &ds.Total, &ds.Resolved, &rate); err != nil {
			rows.Close()
			return report, err
		}
		if rate.Valid {
			v := rate.Float64
			ds.ResolutionRate = &v
		}
		report.ByDepartment = append(report.ByDepartment, ds)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return report, err
	}

	var (
		avgHours sql.NullFloat64
		rate     sql.NullFloat64
	)
	err = r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'resolved' THEN 1 END),
		       ROUND(AVG(CASE WHEN resolved_at IS NOT NULL
		             THEN TIMESTAMPDIFF(SECOND, created_at, resolved_at) / 3600 END), 2),
		       ROUND(COUNT(CASE WHEN status = 'resolved' THEN 1 END) / NULLIF(COUNT(*), 0) * 100, 2)
		FROM complaints`).
		Scan(&report.Overview.Total, &report.Overview.Resolved, &avgHours, &rate)
	if err != nil {
		return report, err
	}
	if avgHours.Valid {
		v := avgHours.Float64
		report.Overview.AvgResolutionHours = &v
	}
	if rate.Valid {
		v := rate.Float64
		report.Overview.ResolutionRate = &v
	}
	return report, nil
}

// TimeSeriesPoint is one (period, status) bucket.
type TimeSeriesPoint struct {
	Period string `json:"period"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// periodFormats whitelists the GROUP BY expressions per period; the period
// string never reaches the query directly.
var periodFormats = map[string]string{
	"daily":   "DATE_FORMAT(created_at, '%Y-%m-%d')",
	"weekly":  "DATE_FORMAT(created_at, '%x-W%v')",
	"monthly": "DATE_FORMAT(created_at, '%Y-%m')",
}

// TimeSeries buckets complaint creation by period and status over the last
// `days` days.  Unknown periods fall back to daily.
func (r *AnalyticsRepo) TimeSeries(ctx context.Context, period string, days int) ([]TimeSeriesPoint, error) {
	expr, ok := periodFormats[period]
	if !ok {
		expr = periodFormats["daily"]
	}
	if days <= 0 || days > 366 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+expr+" AS period, status, COUNT(*) FROM complaints WHERE created_at >= ? GROUP BY period, status ORDER BY period ASC",
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeSeriesPoint
	for rows.Next() {
		var p TimeSeriesPoint
		if err := rows.Scan(&p.Period, &p.Status, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

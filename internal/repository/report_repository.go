package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusdesk/complaint-service/internal/domain"
)

// ReportWindow bounds a rollup by creation time (or event time for trends).
type ReportWindow struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the window.
func (w ReportWindow) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && t.After(*w.To) {
		return false
	}
	return true
}

// TrendGranularity selects the bucket size for time series.
type TrendGranularity string

const (
	GranularityHour  TrendGranularity = "hour"
	GranularityDay   TrendGranularity = "day"
	GranularityWeek  TrendGranularity = "week"
	GranularityMonth TrendGranularity = "month"
)

// Valid reports whether g is supported.
func (g TrendGranularity) Valid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Truncate floors t (in UTC) to the start of its bucket. Weeks start Monday,
// matching Postgres date_trunc.
func (g TrendGranularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// CategoryCounts is one row of the per-category rollup.
type CategoryCounts struct {
	CategoryID string
	Name       string
	Department string
	Total      int
	Resolved   int
	Escalated  int
}

// StaffCounts is one row of the per-assignee rollup.
type StaffCounts struct {
	StaffID            string
	Name               string
	Department         string
	Total              int
	Resolved           int
	Escalated          int
	AvgResolutionHours float64
}

// TrendCounts is one time bucket.
type TrendCounts struct {
	Bucket    time.Time
	Submitted int
	Resolved  int
	Escalated int
}

// PriorityCompliance counts deadline adherence for one priority.
type PriorityCompliance struct {
	Priority       domain.ComplaintPriority
	Total          int
	Resolved       int
	ResolvedOnTime int
}

// ReportRepository runs grouped read-only queries over complaints.
type ReportRepository interface {
	CountByStatus(ctx context.Context, window ReportWindow) (map[domain.ComplaintStatus]int, error)
	CountByPriority(ctx context.Context, window ReportWindow) (map[domain.ComplaintPriority]int, error)
	CategoryBreakdown(ctx context.Context, window ReportWindow) ([]CategoryCounts, error)
	StaffBreakdown(ctx context.Context, window ReportWindow) ([]StaffCounts, error)
	Trend(ctx context.Context, granularity TrendGranularity, window ReportWindow) ([]TrendCounts, error)
	SLAByPriority(ctx context.Context, window ReportWindow) ([]PriorityCompliance, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository builds a Postgres-backed report repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

// windowClause renders created_at-style bounds for column, appending args.
func windowClause(column string, window ReportWindow, args []any) (string, []any) {
	clause := ""
	if window.From != nil {
		args = append(args, *window.From)
		clause += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if window.To != nil {
		args = append(args, *window.To)
		clause += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return clause, args
}

func (r *reportRepository) CountByStatus(ctx context.Context, window ReportWindow) (map[domain.ComplaintStatus]int, error) {
	clause, args := windowClause("created_at", window, nil)
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM complaints WHERE 1=1`+clause+` GROUP BY status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.ComplaintStatus]int)
	for rows.Next() {
		var (
			status domain.ComplaintStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

func (r *reportRepository) CountByPriority(ctx context.Context, window ReportWindow) (map[domain.ComplaintPriority]int, error) {
	clause, args := windowClause("created_at", window, nil)
	rows, err := r.pool.Query(ctx, `SELECT priority, COUNT(*) FROM complaints WHERE 1=1`+clause+` GROUP BY priority`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.ComplaintPriority]int)
	for rows.Next() {
		var (
			priority domain.ComplaintPriority
			count    int
		)
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		result[priority] = count
	}
	return result, rows.Err()
}

func (r *reportRepository) CategoryBreakdown(ctx context.Context, window ReportWindow) ([]CategoryCounts, error) {
	clause, args := windowClause("co.created_at", window, nil)
	query := `
        SELECT c.id, c.name, c.department,
               COUNT(co.id),
               COUNT(co.id) FILTER (WHERE co.status = 'resolved'),
               COUNT(co.id) FILTER (WHERE co.is_escalated)
        FROM categories c
        LEFT JOIN complaints co ON co.category_id = c.id` + clause + `
        GROUP BY c.id, c.name, c.department
        ORDER BY COUNT(co.id) DESC, c.name ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCounts
	for rows.Next() {
		var row CategoryCounts
		if err := rows.Scan(&row.CategoryID, &row.Name, &row.Department, &row.Total, &row.Resolved, &row.Escalated); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *reportRepository) StaffBreakdown(ctx context.Context, window ReportWindow) ([]StaffCounts, error) {
	clause, args := windowClause("co.created_at", window, nil)
	query := `
        SELECT u.id, u.name, u.department,
               COUNT(co.id),
               COUNT(co.id) FILTER (WHERE co.status = 'resolved'),
               COUNT(co.id) FILTER (WHERE co.is_escalated),
               COALESCE(AVG(EXTRACT(EPOCH FROM (co.resolved_at - co.created_at)) / 3600.0)
                   FILTER (WHERE co.status = 'resolved' AND co.resolved_at IS NOT NULL), 0)
        FROM complaints co
        JOIN users u ON u.id = co.assignee_id
        WHERE 1=1` + clause + `
        GROUP BY u.id, u.name, u.department
        ORDER BY COUNT(co.id) DESC, u.name ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StaffCounts
	for rows.Next() {
		var row StaffCounts
		if err := rows.Scan(&row.StaffID, &row.Name, &row.Department, &row.Total, &row.Resolved, &row.Escalated,
			&row.AvgResolutionHours); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *reportRepository) Trend(ctx context.Context, granularity TrendGranularity, window ReportWindow) ([]TrendCounts, error) {
	args := []any{string(granularity)}
	createdClause, args := windowClause("created_at", window, args)
	resolvedClause, args := windowClause("resolved_at", window, args)
	escalatedClause, args := windowClause("escalated_at", window, args)

	query := `
        SELECT bucket, SUM(submitted), SUM(resolved), SUM(escalated)
        FROM (
            SELECT date_trunc($1, created_at AT TIME ZONE 'UTC') AS bucket, 1 AS submitted, 0 AS resolved, 0 AS escalated
            FROM complaints WHERE 1=1` + createdClause + `
            UNION ALL
            SELECT date_trunc($1, resolved_at AT TIME ZONE 'UTC'), 0, 1, 0
            FROM complaints WHERE resolved_at IS NOT NULL` + resolvedClause + `
            UNION ALL
            SELECT date_trunc($1, escalated_at AT TIME ZONE 'UTC'), 0, 0, 1
            FROM complaints WHERE is_escalated AND escalated_at IS NOT NULL` + escalatedClause + `
        ) events
        GROUP BY bucket
        ORDER BY bucket ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TrendCounts
	for rows.Next() {
		var row TrendCounts
		if err := rows.Scan(&row.Bucket, &row.Submitted, &row.Resolved, &row.Escalated); err != nil {
			return nil, err
		}
		row.Bucket = time.Date(row.Bucket.Year(), row.Bucket.Month(), row.Bucket.Day(),
			row.Bucket.Hour(), 0, 0, 0, time.UTC)
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *reportRepository) SLAByPriority(ctx context.Context, window ReportWindow) ([]PriorityCompliance, error) {
	clause, args := windowClause("created_at", window, nil)
	query := `
        SELECT priority,
               COUNT(*),
               COUNT(*) FILTER (WHERE status = 'resolved'),
               COUNT(*) FILTER (WHERE status = 'resolved' AND resolved_at <= deadline)
        FROM complaints WHERE 1=1` + clause + `
        GROUP BY priority`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PriorityCompliance
	for rows.Next() {
		var row PriorityCompliance
		if err := rows.Scan(&row.Priority, &row.Total, &row.Resolved, &row.ResolvedOnTime); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

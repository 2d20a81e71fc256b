package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusdesk/complaint-service/internal/domain"
)

// ErrStaleComplaint is returned when a conditional update finds the record
// no longer matches the state it was read in.
var ErrStaleComplaint = errors.New("complaint changed concurrently")

// ComplaintFilter captures listing parameters.
type ComplaintFilter struct {
	SubmitterID *string
	CategoryID  *string
	AssigneeID  *string
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintUpdate writes a new complaint state guarded by the state it was
// derived from: status, escalation flag and assignee. Appended history
// entries are written in the same unit.
type ComplaintUpdate struct {
	Complaint          *domain.Complaint
	ExpectedStatus     domain.ComplaintStatus
	ExpectedEscalated  bool
	ExpectedAssigneeID *string
	Appended           []domain.StatusEntry
}

// matches reports whether c is still in the state the update expects.
func (u ComplaintUpdate) matches(c *domain.Complaint) bool {
	if c.Status != u.ExpectedStatus || c.Escalation.IsEscalated != u.ExpectedEscalated {
		return false
	}
	if c.AssigneeID == nil || u.ExpectedAssigneeID == nil {
		return c.AssigneeID == nil && u.ExpectedAssigneeID == nil
	}
	return *c.AssigneeID == *u.ExpectedAssigneeID
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTicketRef(ctx context.Context, ref string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	ApplyUpdate(ctx context.Context, update ComplaintUpdate) error
	UpdatePriority(ctx context.Context, id string, priority domain.ComplaintPriority) error
	FindOverdueOpenUnescalated(ctx context.Context, now time.Time) ([]domain.Complaint, error)
	FindAtRisk(ctx context.Context, now, windowEnd time.Time) ([]domain.Complaint, error)
	CountActiveAssignments(ctx context.Context, staffID string) (int, error)
	CountHighPriorityAssignments(ctx context.Context, staffID string) (int, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// openStatuses are the statuses still subject to deadline enforcement.
var openStatuses = []domain.ComplaintStatus{domain.StatusSubmitted, domain.StatusAssigned, domain.StatusInProgress}

// activeAssignmentStatuses count toward a staff member's workload.
var activeAssignmentStatuses = []domain.ComplaintStatus{domain.StatusAssigned, domain.StatusInProgress, domain.StatusEscalated}

const complaintColumns = `id, ticket_ref, title, description, category_id, submitter_id, priority, status,
       assignee_id, deadline, resolved_at, is_escalated, escalated_at, escalated_by, escalation_reason,
       created_at, updated_at`

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO complaints (ticket_ref, title, description, category_id, submitter_id, priority, status,
            assignee_id, deadline, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, updated_at`
	if err := tx.QueryRow(ctx, query,
		complaint.TicketRef,
		complaint.Title,
		complaint.Description,
		complaint.CategoryID,
		complaint.SubmitterID,
		complaint.Priority,
		complaint.Status,
		complaint.AssigneeID,
		complaint.Deadline,
		complaint.CreatedAt,
	).Scan(&complaint.ID, &complaint.UpdatedAt); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, complaint.ID, complaint.StatusHistory); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *complaintRepository) ApplyUpdate(ctx context.Context, update ComplaintUpdate) error {
	c := update.Complaint
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE complaints SET status=$1, assignee_id=$2, resolved_at=$3, is_escalated=$4, escalated_at=$5,
            escalated_by=$6, escalation_reason=$7, updated_at=NOW()
        WHERE id=$8 AND status=$9 AND is_escalated=$10 AND assignee_id IS NOT DISTINCT FROM $11::uuid`
	cmd, err := tx.Exec(ctx, query,
		c.Status,
		c.AssigneeID,
		c.ResolvedAt,
		c.Escalation.IsEscalated,
		c.Escalation.EscalatedAt,
		nullableString(c.Escalation.EscalatedBy),
		nullableString(c.Escalation.Reason),
		c.ID,
		update.ExpectedStatus,
		update.ExpectedEscalated,
		update.ExpectedAssigneeID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, c.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrStaleComplaint
	}
	if err := insertHistory(ctx, tx, c.ID, update.Appended); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *complaintRepository) UpdatePriority(ctx context.Context, id string, priority domain.ComplaintPriority) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE complaints SET priority=$1, updated_at=NOW() WHERE id=$2`, priority, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, complaintID string, entries []domain.StatusEntry) error {
	const query = `
        INSERT INTO complaint_status_history (complaint_id, seq, status, actor, remarks, created_at)
        VALUES ($1, COALESCE((SELECT MAX(seq) FROM complaint_status_history WHERE complaint_id=$1), 0) + 1, $2, $3, $4, $5)`
	for _, entry := range entries {
		if _, err := tx.Exec(ctx, query, complaintID, entry.Status, entry.Actor, entry.Remarks, entry.Timestamp); err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id=$1`, id)
}

func (r *complaintRepository) GetByTicketRef(ctx context.Context, ref string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE ticket_ref=$1`, ref)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	complaints, err := scanComplaints(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(complaints) == 0 {
		return nil, pgx.ErrNoRows
	}
	complaint := &complaints[0]
	history, err := r.listHistory(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}
	complaint.StatusHistory = history
	return complaint, nil
}

func (r *complaintRepository) listHistory(ctx context.Context, complaintID string) ([]domain.StatusEntry, error) {
	const query = `
        SELECT status, created_at, actor, remarks
        FROM complaint_status_history WHERE complaint_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusEntry
	for rows.Next() {
		var entry domain.StatusEntry
		if err := rows.Scan(&entry.Status, &entry.Timestamp, &entry.Actor, &entry.Remarks); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmitterID != nil {
		args = append(args, *filter.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("submitter_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		complaintColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) FindOverdueOpenUnescalated(ctx context.Context, now time.Time) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints
        WHERE deadline < $1 AND status = ANY($2) AND is_escalated = FALSE
        ORDER BY deadline ASC`
	rows, err := r.pool.Query(ctx, query, now, statusStrings(openStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) FindAtRisk(ctx context.Context, now, windowEnd time.Time) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints
        WHERE deadline >= $1 AND deadline < $2 AND status = ANY($3) AND is_escalated = FALSE
        ORDER BY deadline ASC`
	rows, err := r.pool.Query(ctx, query, now, windowEnd, statusStrings(openStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) CountActiveAssignments(ctx context.Context, staffID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM complaints WHERE assignee_id=$1 AND status = ANY($2)`,
		staffID, statusStrings(activeAssignmentStatuses),
	).Scan(&count)
	return count, err
}

func (r *complaintRepository) CountHighPriorityAssignments(ctx context.Context, staffID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM complaints WHERE assignee_id=$1 AND status = ANY($2) AND priority IN ('high','urgent')`,
		staffID, statusStrings(activeAssignmentStatuses),
	).Scan(&count)
	return count, err
}

func (r *complaintRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM complaints WHERE category_id=$1`, categoryID).Scan(&count)
	return count, err
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var (
			complaint   domain.Complaint
			escalatedBy *string
			reason      *string
		)
		if err := rows.Scan(
			&complaint.ID,
			&complaint.TicketRef,
			&complaint.Title,
			&complaint.Description,
			&complaint.CategoryID,
			&complaint.SubmitterID,
			&complaint.Priority,
			&complaint.Status,
			&complaint.AssigneeID,
			&complaint.Deadline,
			&complaint.ResolvedAt,
			&complaint.Escalation.IsEscalated,
			&complaint.Escalation.EscalatedAt,
			&escalatedBy,
			&reason,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if escalatedBy != nil {
			complaint.Escalation.EscalatedBy = *escalatedBy
		}
		if reason != nil {
			complaint.Escalation.Reason = *reason
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}

func statusStrings(statuses []domain.ComplaintStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

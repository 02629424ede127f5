package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groona_alerts/internal/domain/workitem"
)

var ErrMemberNotFound = errors.New("member not found")

// PostgresWorkItemRepository reads the board and timesheet tables owned by
// the main application.
type PostgresWorkItemRepository struct {
	db *sql.DB
}

func NewPostgresWorkItemRepository(db *sql.DB) *PostgresWorkItemRepository {
	return &PostgresWorkItemRepository{db: db}
}

const memberColumns = `m.id, m.email, m.first_name, m.last_name, m.is_active`

func scanMember(row interface{ Scan(...any) error }) (*workitem.Member, error) {
	m := &workitem.Member{}
	if err := row.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.IsActive); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresWorkItemRepository) GetMember(ctx context.Context, id int64) (*workitem.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members m WHERE m.id = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member by ID: %w", err)
	}
	return m, nil
}

func (r *PostgresWorkItemRepository) listMembers(ctx context.Context, query string, args ...any) ([]*workitem.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying members: %w", err)
	}
	defer rows.Close()

	members := make([]*workitem.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

func (r *PostgresWorkItemRepository) ListActiveMembers(ctx context.Context) ([]*workitem.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members m WHERE m.is_active = TRUE ORDER BY m.first_name, m.last_name`
	return r.listMembers(ctx, query)
}

func (r *PostgresWorkItemRepository) ListMembersWithoutTimesheet(ctx context.Context, day time.Time) ([]*workitem.Member, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	query := `SELECT ` + memberColumns + `
               FROM members m
               WHERE m.is_active = TRUE
                 AND NOT EXISTS (
                     SELECT 1 FROM timesheet_entries te
                     WHERE te.member_id = m.id AND te.work_date >= $1 AND te.work_date < $2
                 )
               ORDER BY m.id`
	return r.listMembers(ctx, query, start, end)
}

func (r *PostgresWorkItemRepository) ListOverdueTasks(ctx context.Context, now time.Time) ([]*workitem.Task, error) {
	query := `SELECT id, project_id, title, assignee_id, status, due_date
               FROM tasks
               WHERE status <> $1 AND assignee_id IS NOT NULL AND due_date IS NOT NULL AND due_date < $2
               ORDER BY due_date ASC` // oldest first
	rows, err := r.db.QueryContext(ctx, query, workitem.TaskStatusDone, now)
	if err != nil {
		return nil, fmt.Errorf("error querying overdue tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*workitem.Task, 0)
	for rows.Next() {
		t := &workitem.Task{}
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.AssigneeID, &t.Status, &t.DueDate); err != nil {
			return nil, fmt.Errorf("error scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

func (r *PostgresWorkItemRepository) ListWorkloadsAbove(ctx context.Context, limit int) ([]*workitem.Workload, error) {
	query := `SELECT ` + memberColumns + `, COUNT(t.id) AS open_tasks
               FROM members m
               JOIN tasks t ON t.assignee_id = m.id AND t.status <> $1
               WHERE m.is_active = TRUE
               GROUP BY m.id, m.email, m.first_name, m.last_name, m.is_active
               HAVING COUNT(t.id) > $2
               ORDER BY open_tasks DESC`
	rows, err := r.db.QueryContext(ctx, query, workitem.TaskStatusDone, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying workloads: %w", err)
	}
	defer rows.Close()

	out := make([]*workitem.Workload, 0)
	for rows.Next() {
		w := &workitem.Workload{}
		m := &w.Member
		if err := rows.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.IsActive, &w.OpenTasks); err != nil {
			return nil, fmt.Errorf("error scanning workload row: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workload rows: %w", err)
	}
	return out, nil
}

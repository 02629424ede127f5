package workitem

import "database/sql"

// Member is a workspace user alerts are addressed to.
type Member struct {
	ID        int64
	Email     string
	FirstName string
	LastName  sql.NullString
	IsActive  bool
}

// DisplayName returns the full name when a last name is present.
func (m *Member) DisplayName() string {
	if m.LastName.Valid && m.LastName.String != "" {
		return m.FirstName + " " + m.LastName.String
	}
	return m.FirstName
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// Task is a board item on a project.
type Task struct {
	ID         int64
	ProjectID  int64
	Title      string
	AssigneeID sql.NullInt64
	Status     TaskStatus
	DueDate    sql.NullTime
}

// Workload is the number of open tasks assigned to a member.
type Workload struct {
	Member    Member
	OpenTasks int
}

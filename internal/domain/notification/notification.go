// internal/domain/notification/notification.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the alert category a notification belongs to.
type Type string

const (
	TypeOverdueTask           Type = "overdue_task"
	TypeMissingTimesheet      Type = "missing_timesheet"
	TypeWorkloadIssue         Type = "workload_issue"
	TypeLowVelocity           Type = "low_velocity"
	TypeReworkAlert           Type = "rework_alert"
	TypeTimesheetLockoutAlarm Type = "timesheet_lockout_alarm"
	TypeMissingTimesheetAlert Type = "missing_timesheet_alert"
)

// DailyResetTypes are the types cleared by the same-day reset.
var DailyResetTypes = []Type{TypeTimesheetLockoutAlarm, TypeMissingTimesheetAlert}

// Status is the lifecycle state of a notification.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusResolved  Status = "RESOLVED"
	StatusDismissed Status = "DISMISSED"
)

// Notification records a detected condition requiring user attention.
// Generators only ever create them; removal happens through maintenance.
type Notification struct {
	ID          uuid.UUID
	Type        Type
	Status      Status
	Title       string
	Message     string
	Recipient   string
	DedupKey    string         // empty when the generator does not dedupe
	Payload     map[string]any // free-form extra fields
	CreatedDate time.Time
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Status Status
	Types  []Type
	Since  time.Time
	Limit  int
}

// Matches reports whether n satisfies the filter.
func (f Filter) Matches(n *Notification) bool {
	if f.Status != "" && n.Status != f.Status {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == n.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Since.IsZero() && n.CreatedDate.Before(f.Since) {
		return false
	}
	return true
}

// StartOfDay returns local midnight of the day t falls on.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

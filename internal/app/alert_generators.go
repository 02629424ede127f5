// internal/app/alert_generators.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"groona_alerts/internal/domain/alerttask"
	"groona_alerts/internal/domain/notification"
	"groona_alerts/internal/domain/workitem"

	"github.com/sirupsen/logrus"
)

const (
	TaskOverdueTasks      = "overdue_tasks"
	TaskMissingTimesheets = "missing_timesheets"
	TaskWorkloadIssues    = "workload_issues"
)

// AlertGenerators holds the built-in alert rules. Each rule reads the work
// item model and appends notifications; none of them update or delete.
type AlertGenerators struct {
	workRepo      workitem.Repository
	notifRepo     notification.Repository
	dedup         notification.Deduper // nil keeps every alert
	logger        *logrus.Entry
	workloadLimit int
	now           func() time.Time
}

func NewAlertGenerators(
	wr workitem.Repository,
	nr notification.Repository,
	dedup notification.Deduper,
	logger *logrus.Entry,
	workloadLimit int,
) *AlertGenerators {
	return &AlertGenerators{
		workRepo:      wr,
		notifRepo:     nr,
		dedup:         dedup,
		logger:        logger,
		workloadLimit: workloadLimit,
		now:           time.Now,
	}
}

// Tasks returns the rules as scheduler tasks.
func (g *AlertGenerators) Tasks() []alerttask.Task {
	return []alerttask.Task{
		alerttask.Func{TaskName: TaskOverdueTasks, Fn: g.GenerateOverdueTasks},
		alerttask.Func{TaskName: TaskMissingTimesheets, Fn: g.GenerateMissingTimesheets},
		alerttask.Func{TaskName: TaskWorkloadIssues, Fn: g.GenerateWorkloadIssues},
	}
}

// GenerateOverdueTasks alerts assignees of tasks past their due date.
func (g *AlertGenerators) GenerateOverdueTasks(ctx context.Context) error {
	now := g.now()
	log := g.logger.WithField("task", TaskOverdueTasks)

	tasks, err := g.workRepo.ListOverdueTasks(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	if len(tasks) == 0 {
		log.Debug("No overdue tasks found")
		return nil
	}

	members := make(map[int64]*workitem.Member)
	var errs []error
	created := 0
	for _, t := range tasks {
		member, ok := members[t.AssigneeID.Int64]
		if !ok {
			member, err = g.workRepo.GetMember(ctx, t.AssigneeID.Int64)
			if err != nil {
				log.WithError(err).WithField("member_id", t.AssigneeID.Int64).Warn("Could not load assignee, skipping task")
				continue
			}
			members[t.AssigneeID.Int64] = member
		}
		if !member.IsActive {
			continue
		}

		daysLate := int(now.Sub(t.DueDate.Time).Hours() / 24)
		n := &notification.Notification{
			Type:      notification.TypeOverdueTask,
			Status:    notification.StatusOpen,
			Title:     fmt.Sprintf("Task overdue: %s", t.Title),
			Message:   fmt.Sprintf("Hi %s, \"%s\" was due on %s.", member.FirstName, t.Title, t.DueDate.Time.Format("2006-01-02")),
			Recipient: member.Email,
			Payload: map[string]any{
				"task_id":    t.ID,
				"project_id": t.ProjectID,
				"due_date":   t.DueDate.Time.Format(time.RFC3339),
				"days_late":  daysLate,
			},
		}
		ok, err := g.emit(ctx, n, strconv.FormatInt(t.ID, 10), now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	log.WithFields(logrus.Fields{"overdue": len(tasks), "created": created}).Info("Overdue task alerts generated")
	return errors.Join(errs...)
}

// GenerateMissingTimesheets alerts active members who logged nothing on the
// previous working day. Runs on weekends are no-ops.
func (g *AlertGenerators) GenerateMissingTimesheets(ctx context.Context) error {
	now := g.now()
	log := g.logger.WithField("task", TaskMissingTimesheets)

	day := notification.StartOfDay(now).AddDate(0, 0, -1)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		log.WithField("day", day.Format("2006-01-02")).Debug("Previous day is not a working day, skipping")
		return nil
	}

	members, err := g.workRepo.ListMembersWithoutTimesheet(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to list members without timesheet: %w", err)
	}

	var errs []error
	created := 0
	for _, m := range members {
		n := &notification.Notification{
			Type:      notification.TypeMissingTimesheet,
			Status:    notification.StatusOpen,
			Title:     "Timesheet missing",
			Message:   fmt.Sprintf("Hi %s, no hours were logged for %s.", m.FirstName, day.Format("Monday, 2 Jan")),
			Recipient: m.Email,
			Payload: map[string]any{
				"member_id": m.ID,
				"work_date": day.Format("2006-01-02"),
			},
		}
		ok, err := g.emit(ctx, n, day.Format("2006-01-02"), now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	log.WithFields(logrus.Fields{"members": len(members), "created": created}).Info("Missing timesheet alerts generated")
	return errors.Join(errs...)
}

// GenerateWorkloadIssues alerts members carrying more open tasks than the limit.
func (g *AlertGenerators) GenerateWorkloadIssues(ctx context.Context) error {
	now := g.now()
	log := g.logger.WithField("task", TaskWorkloadIssues)

	loads, err := g.workRepo.ListWorkloadsAbove(ctx, g.workloadLimit)
	if err != nil {
		return fmt.Errorf("failed to list workloads: %w", err)
	}

	var errs []error
	created := 0
	for _, w := range loads {
		n := &notification.Notification{
			Type:      notification.TypeWorkloadIssue,
			Status:    notification.StatusOpen,
			Title:     "High workload",
			Message:   fmt.Sprintf("%s has %d open tasks (limit %d).", w.Member.DisplayName(), w.OpenTasks, g.workloadLimit),
			Recipient: w.Member.Email,
			Payload: map[string]any{
				"member_id":  w.Member.ID,
				"open_tasks": w.OpenTasks,
				"limit":      g.workloadLimit,
			},
		}
		ok, err := g.emit(ctx, n, strconv.FormatInt(w.Member.ID, 10), now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	log.WithFields(logrus.Fields{"members": len(loads), "created": created}).Info("Workload alerts generated")
	return errors.Join(errs...)
}

// emit stores n unless the deduper has already seen the same condition today.
func (g *AlertGenerators) emit(ctx context.Context, n *notification.Notification, subject string, now time.Time) (bool, error) {
	n.DedupKey = DedupKey(n.Type, n.Recipient, subject, now)
	if g.dedup != nil {
		first, err := g.dedup.FirstSeen(ctx, n.DedupKey)
		if err != nil {
			g.logger.WithError(err).WithField("dedup_key", n.DedupKey).Warn("Dedup check failed, storing alert anyway")
		} else if !first {
			return false, nil
		}
	}
	if err := g.notifRepo.Create(ctx, n); err != nil {
		if g.dedup != nil {
			if fErr := g.dedup.Forget(ctx, n.DedupKey); fErr != nil {
				g.logger.WithError(fErr).WithField("dedup_key", n.DedupKey).Warn("Failed to forget dedup key of unstored alert")
			}
		}
		return false, fmt.Errorf("failed to store %s alert for %s: %w", n.Type, n.Recipient, err)
	}
	return true, nil
}

// DedupKey identifies one alert condition per calendar day.
func DedupKey(t notification.Type, recipient, subject string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", t, recipient, subject, at.Format("2006-01-02"))
}

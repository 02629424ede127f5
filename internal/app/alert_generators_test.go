package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"groona_alerts/internal/domain/notification"
	"groona_alerts/internal/domain/workitem"
	"groona_alerts/internal/infra/logger"
	"groona_alerts/internal/infra/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, so the previous day is a working day.
var generatorNow = time.Date(2026, 4, 8, 10, 0, 0, 0, time.UTC)

type setDeduper struct {
	seen map[string]bool
	err  error
}

func (d *setDeduper) FirstSeen(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return true, d.err
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *setDeduper) Forget(_ context.Context, key string) error {
	delete(d.seen, key)
	return nil
}

// flakyNotifications fails the first failures Create calls.
type flakyNotifications struct {
	*memstore.NotificationRepository
	failures int
}

func (r *flakyNotifications) Create(ctx context.Context, n *notification.Notification) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("db down")
	}
	return r.NotificationRepository.Create(ctx, n)
}

func newWorkItems() *memstore.WorkItemRepository {
	repo := memstore.NewWorkItemRepository()
	repo.AddMember(workitem.Member{ID: 1, Email: "ana@groona.app", FirstName: "Ana", IsActive: true})
	repo.AddMember(workitem.Member{ID: 2, Email: "bo@groona.app", FirstName: "Bo", LastName: sql.NullString{String: "Berg", Valid: true}, IsActive: true})
	repo.AddMember(workitem.Member{ID: 3, Email: "cy@groona.app", FirstName: "Cy", IsActive: false})

	assign := func(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }
	due := func(d time.Time) sql.NullTime { return sql.NullTime{Time: d, Valid: true} }
	repo.AddTask(workitem.Task{ID: 100, ProjectID: 9, Title: "Ship sprint report", AssigneeID: assign(1), Status: workitem.TaskStatusInProgress, DueDate: due(generatorNow.AddDate(0, 0, -2))})
	repo.AddTask(workitem.Task{ID: 101, ProjectID: 9, Title: "Closed item", AssigneeID: assign(1), Status: workitem.TaskStatusDone, DueDate: due(generatorNow.AddDate(0, 0, -2))})
	repo.AddTask(workitem.Task{ID: 102, ProjectID: 9, Title: "Inactive owner", AssigneeID: assign(3), Status: workitem.TaskStatusTodo, DueDate: due(generatorNow.AddDate(0, 0, -1))})
	repo.AddTask(workitem.Task{ID: 103, ProjectID: 9, Title: "Later", AssigneeID: assign(2), Status: workitem.TaskStatusTodo, DueDate: due(generatorNow.AddDate(0, 0, 3))})
	repo.AddTask(workitem.Task{ID: 104, ProjectID: 9, Title: "Review docs", AssigneeID: assign(2), Status: workitem.TaskStatusReview})
	repo.AddTimesheetEntry(2, generatorNow.AddDate(0, 0, -1))
	return repo
}

func newGenerators(t *testing.T, dedup notification.Deduper, limit int) (*AlertGenerators, *memstore.NotificationRepository) {
	t.Helper()
	notifs := memstore.NewNotificationRepository()
	g := NewAlertGenerators(newWorkItems(), notifs, dedup, logger.Discard(), limit)
	g.now = func() time.Time { return generatorNow }
	return g, notifs
}

func TestGenerateOverdueTasks(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, nil, 10)

	require.NoError(t, g.GenerateOverdueTasks(ctx))

	got, err := notifs.List(ctx, notification.Filter{Types: []notification.Type{notification.TypeOverdueTask}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	n := got[0]
	assert.Equal(t, "ana@groona.app", n.Recipient)
	assert.Equal(t, notification.StatusOpen, n.Status)
	assert.Contains(t, n.Title, "Ship sprint report")
	assert.Equal(t, 2, n.Payload["days_late"])
	assert.Equal(t, "overdue_task:ana@groona.app:100:2026-04-08", n.DedupKey)
}

func TestGeneratorsWithoutDeduperAllowDuplicates(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, nil, 10)

	require.NoError(t, g.GenerateOverdueTasks(ctx))
	require.NoError(t, g.GenerateOverdueTasks(ctx))

	got, err := notifs.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGeneratorsWithDeduperSuppressRepeats(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, &setDeduper{seen: map[string]bool{}}, 10)

	require.NoError(t, g.GenerateOverdueTasks(ctx))
	require.NoError(t, g.GenerateOverdueTasks(ctx))

	got, err := notifs.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDeduperErrorStillStores(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, &setDeduper{err: errors.New("redis down")}, 10)

	require.NoError(t, g.GenerateOverdueTasks(ctx))
	got, err := notifs.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFailedStoreWriteIsRetriedNextRun(t *testing.T) {
	ctx := context.Background()
	notifs := &flakyNotifications{NotificationRepository: memstore.NewNotificationRepository(), failures: 1}
	g := NewAlertGenerators(newWorkItems(), notifs, &setDeduper{seen: map[string]bool{}}, logger.Discard(), 10)
	g.now = func() time.Time { return generatorNow }

	err := g.GenerateOverdueTasks(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	require.NoError(t, g.GenerateOverdueTasks(ctx))
	got, err := notifs.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGenerateMissingTimesheets(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, nil, 10)

	require.NoError(t, g.GenerateMissingTimesheets(ctx))

	got, err := notifs.List(ctx, notification.Filter{Types: []notification.Type{notification.TypeMissingTimesheet}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana@groona.app", got[0].Recipient)
	assert.Equal(t, "2026-04-07", got[0].Payload["work_date"])
}

func TestGenerateMissingTimesheetsSkipsWeekend(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, nil, 10)
	g.now = func() time.Time { return time.Date(2026, 4, 12, 10, 0, 0, 0, time.UTC) } // Sunday

	require.NoError(t, g.GenerateMissingTimesheets(ctx))
	got, err := notifs.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateWorkloadIssues(t *testing.T) {
	ctx := context.Background()
	g, notifs := newGenerators(t, nil, 1)

	require.NoError(t, g.GenerateWorkloadIssues(ctx))

	got, err := notifs.List(ctx, notification.Filter{Types: []notification.Type{notification.TypeWorkloadIssue}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bo@groona.app", got[0].Recipient)
	assert.Contains(t, got[0].Message, "Bo Berg has 2 open tasks")
}

func TestTasksExposeRuleNames(t *testing.T) {
	g, _ := newGenerators(t, nil, 10)
	var names []string
	for _, task := range g.Tasks() {
		names = append(names, task.Name())
	}
	assert.Equal(t, []string{TaskOverdueTasks, TaskMissingTimesheets, TaskWorkloadIssues}, names)
}

type brokenWorkItems struct{ workitem.Repository }

func (brokenWorkItems) ListOverdueTasks(context.Context, time.Time) ([]*workitem.Task, error) {
	return nil, errors.New("relation \"tasks\" does not exist")
}

func TestGenerateOverdueTasksPropagatesReadErrors(t *testing.T) {
	g := NewAlertGenerators(brokenWorkItems{}, memstore.NewNotificationRepository(), nil, logger.Discard(), 10)
	err := g.GenerateOverdueTasks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list overdue tasks")
}

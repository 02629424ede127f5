package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"groona_alerts/internal/domain/workitem"
)

var ErrMemberNotFound = errors.New("member not found")

// WorkItemRepository is a seedable in-memory board and timesheet model.
type WorkItemRepository struct {
	mu         sync.RWMutex
	members    map[int64]*workitem.Member
	tasks      []*workitem.Task
	timesheets map[int64][]time.Time // member id -> work dates
}

func NewWorkItemRepository() *WorkItemRepository {
	return &WorkItemRepository{
		members:    make(map[int64]*workitem.Member),
		timesheets: make(map[int64][]time.Time),
	}
}

func (r *WorkItemRepository) AddMember(m workitem.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID] = &m
}

func (r *WorkItemRepository) AddTask(t workitem.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, &t)
}

func (r *WorkItemRepository) AddTimesheetEntry(memberID int64, workDate time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timesheets[memberID] = append(r.timesheets[memberID], workDate)
}

func (r *WorkItemRepository) GetMember(_ context.Context, id int64) (*workitem.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	c := *m
	return &c, nil
}

func (r *WorkItemRepository) ListActiveMembers(_ context.Context) ([]*workitem.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeMembersLocked(func(*workitem.Member) bool { return true }), nil
}

func (r *WorkItemRepository) ListMembersWithoutTimesheet(_ context.Context, day time.Time) ([]*workitem.Member, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeMembersLocked(func(m *workitem.Member) bool {
		for _, d := range r.timesheets[m.ID] {
			if !d.Before(start) && d.Before(end) {
				return false
			}
		}
		return true
	}), nil
}

func (r *WorkItemRepository) ListOverdueTasks(_ context.Context, now time.Time) ([]*workitem.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*workitem.Task, 0)
	for _, t := range r.tasks {
		if t.Status == workitem.TaskStatusDone || !t.AssigneeID.Valid || !t.DueDate.Valid {
			continue
		}
		if t.DueDate.Time.Before(now) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Time.Before(out[j].DueDate.Time) })
	return out, nil
}

func (r *WorkItemRepository) ListWorkloadsAbove(_ context.Context, limit int) ([]*workitem.Workload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[int64]int)
	for _, t := range r.tasks {
		if t.Status != workitem.TaskStatusDone && t.AssigneeID.Valid {
			counts[t.AssigneeID.Int64]++
		}
	}
	out := make([]*workitem.Workload, 0)
	for _, m := range r.activeMembersLocked(func(m *workitem.Member) bool { return counts[m.ID] > limit }) {
		out = append(out, &workitem.Workload{Member: *m, OpenTasks: counts[m.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenTasks > out[j].OpenTasks })
	return out, nil
}

func (r *WorkItemRepository) activeMembersLocked(keep func(*workitem.Member) bool) []*workitem.Member {
	out := make([]*workitem.Member, 0, len(r.members))
	for _, m := range r.members {
		if m.IsActive && keep(m) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

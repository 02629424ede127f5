package workitem

import (
	"context"
	"time"
)

// Repository is the read model the alert generators query.
type Repository interface {
	GetMember(ctx context.Context, id int64) (*Member, error)
	ListActiveMembers(ctx context.Context) ([]*Member, error)
	// ListOverdueTasks returns assigned tasks not DONE whose due date is before now.
	ListOverdueTasks(ctx context.Context, now time.Time) ([]*Task, error)
	// ListMembersWithoutTimesheet returns active members with no entry on day.
	ListMembersWithoutTimesheet(ctx context.Context, day time.Time) ([]*Member, error)
	// ListWorkloadsAbove returns active members with more than limit open tasks.
	ListWorkloadsAbove(ctx context.Context, limit int) ([]*Workload, error)
}

package database

import (
	"testing"
	"time"

	"groona_alerts/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQueryWithoutFilter(t *testing.T) {
	query, args := buildListQuery(notification.Filter{})

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY created_date DESC LIMIT $1")
	require.Len(t, args, 1)
	assert.Equal(t, defaultListLimit, args[0])
}

func TestBuildListQueryNumbersPlaceholdersInOrder(t *testing.T) {
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildListQuery(notification.Filter{
		Status: notification.StatusOpen,
		Types:  []notification.Type{notification.TypeOverdueTask},
		Since:  since,
		Limit:  5,
	})

	assert.Contains(t, query, "WHERE status = $1 AND type = ANY($2::varchar[]) AND created_date >= $3")
	assert.Contains(t, query, "LIMIT $4")
	require.Len(t, args, 4)
	assert.Equal(t, notification.StatusOpen, args[0])
	assert.Equal(t, since, args[2])
	assert.Equal(t, 5, args[3])
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t,
		[]string{"timesheet_lockout_alarm", "missing_timesheet_alert"},
		typeStrings(notification.DailyResetTypes),
	)
}

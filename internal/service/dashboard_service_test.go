package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

type mockStatusCounter struct {
	counts     map[models.RequestStatus]int
	lastFilter models.RequestFilter
}

func (m *mockStatusCounter) CountByStatus(ctx context.Context, filter models.RequestFilter) (map[models.RequestStatus]int, error) {
	m.lastFilter = filter
	return m.counts, nil
}

func TestSummaryBucketsStatuses(t *testing.T) {
	counter := &mockStatusCounter{counts: map[models.RequestStatus]int{
		models.StatusPending:            2,
		models.StatusNotifiedOwner:      1,
		models.StatusContractorSelected: 1,
		models.StatusScheduled:          3,
		models.StatusInProgress:         1,
		models.StatusCompleted:          5,
	}}
	svc := NewDashboardService(counter, nil, 0, nil)

	summary, cacheHit, err := svc.Summary(context.Background(), claimsFor(models.RoleBroker, "broker-1"))
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, "broker-1", counter.lastFilter.BrokerID)

	// the two intermediate waiting states count as pending
	assert.Equal(t, 13, summary.Counts.Total)
	assert.Equal(t, 4, summary.Counts.Pending)
	assert.Equal(t, 3, summary.Counts.Scheduled)
	assert.Equal(t, 1, summary.Counts.InProgress)
	assert.Equal(t, 5, summary.Counts.Completed)
}

func TestSummaryScopesByRole(t *testing.T) {
	counter := &mockStatusCounter{counts: map[models.RequestStatus]int{}}
	svc := NewDashboardService(counter, nil, 0, nil)

	_, _, err := svc.Summary(context.Background(), claimsFor(models.RoleContractor, "contractor-1"))
	require.NoError(t, err)
	assert.Equal(t, "contractor-1", counter.lastFilter.ContractorID)
	assert.Empty(t, counter.lastFilter.BrokerID)
}

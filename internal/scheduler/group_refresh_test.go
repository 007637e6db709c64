package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
)

type MockGroupLister struct {
	mock.Mock
}

func (m *MockGroupLister) Execute(ctx context.Context, district string) ([]aggregation.Group, error) {
	args := m.Called(ctx, district)
	groups, _ := args.Get(0).([]aggregation.Group)
	return groups, args.Error(1)
}

func TestRefreshOnce_SetsGauges(t *testing.T) {
	lister := new(MockGroupLister)
	lister.On("Execute", mock.Anything, "").Return([]aggregation.Group{
		{LocationKey: "781001", Count: 5, Eligible: true},
		{LocationKey: "781002", Count: 2},
		{LocationKey: "781003", Count: 7, Eligible: false},
	}, nil).Once()
	metrics := observability.NewMetricsForTesting()

	r, err := NewGroupRefresher("@every 1m", lister, metrics, time.Second)
	require.NoError(t, err)

	active, eligible, err := r.RefreshOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, active)
	assert.Equal(t, 1, eligible)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ActiveGroups))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EligibleGroups))
	lister.AssertExpectations(t)
}

func TestRefreshOnce_ErrorKeepsGauges(t *testing.T) {
	lister := new(MockGroupLister)
	lister.On("Execute", mock.Anything, "").Return(nil, errors.New("store down"))
	metrics := observability.NewMetricsForTesting()
	metrics.SetGroups(4, 2)

	r, err := NewGroupRefresher("@every 1m", lister, metrics, 0)
	require.NoError(t, err)

	_, _, err = r.RefreshOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.ActiveGroups))
}

func TestNewGroupRefresher_InvalidSpec(t *testing.T) {
	_, err := NewGroupRefresher("not a spec", new(MockGroupLister), nil, 0)
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	lister := new(MockGroupLister)
	lister.On("Execute", mock.Anything, "").Return([]aggregation.Group{}, nil)
	r, err := NewGroupRefresher("@every 1h", lister, nil, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
	lister.AssertCalled(t, "Execute", mock.Anything, "")
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignatzorin/water-alert-backend/internal/goroutine"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
)

// GroupLister отдаёт группы для пересчёта метрик.
type GroupLister interface {
	Execute(ctx context.Context, district string) ([]aggregation.Group, error)
}

// GroupRefresher периодически пересчитывает группы и выставляет gauge-метрики.
// Состояние не хранит: группы всегда считаются из хранилища заново.
type GroupRefresher struct {
	groups  GroupLister
	metrics *observability.Metrics
	timeout time.Duration
	cron    *cron.Cron
}

func NewGroupRefresher(spec string, groups GroupLister, metrics *observability.Metrics, timeout time.Duration) (*GroupRefresher, error) {
	r := &GroupRefresher{
		groups:  groups,
		metrics: metrics,
		timeout: timeout,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, fmt.Errorf("scheduler: некорректное расписание %q: %w", spec, err)
	}
	return r, nil
}

// RefreshOnce возвращает количество активных и готовых к эскалации групп.
func (r *GroupRefresher) RefreshOnce(ctx context.Context) (active, eligible int, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	groups, err := r.groups.Execute(ctx, "")
	if err != nil {
		return 0, 0, err
	}

	for _, g := range groups {
		active++
		if g.Eligible {
			eligible++
		}
	}
	r.metrics.SetGroups(active, eligible)
	return active, eligible, nil
}

func (r *GroupRefresher) tick() {
	goroutine.Run("group_refresh", func() {
		active, eligible, err := r.RefreshOnce(context.Background())
		if err != nil {
			logger.Log.WithError(err).Warn("не удалось пересчитать группы")
			return
		}
		logger.Log.WithField("active", active).WithField("eligible", eligible).Debug("группы пересчитаны")
	})
}

// Run блокируется до отмены ctx, затем дожидается текущего запуска.
func (r *GroupRefresher) Run(ctx context.Context) error {
	r.tick()
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
	return nil
}

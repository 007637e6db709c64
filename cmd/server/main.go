package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/water-alert-backend/internal/config"
	"github.com/ignatzorin/water-alert-backend/internal/db"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	httpRouter "github.com/ignatzorin/water-alert-backend/internal/http/router"
	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/pincode"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/handler"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/keylock"
	"github.com/ignatzorin/water-alert-backend/internal/scheduler"
	"github.com/ignatzorin/water-alert-backend/internal/service"
	"github.com/ignatzorin/water-alert-backend/internal/storage"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/alert"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/escalation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/report"
)

// stores: выбранная реализация хранилища.
type stores struct {
	reports     repository.ReportRepository
	assignments repository.AssignmentRepository
	tx          repository.Transactor
	db          *sqlx.DB
}

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("main: ошибка загрузки конфигурации")
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: не удалось подготовить хранилище")
	}
	if st.db != nil {
		defer safeClose(st.db)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	clock := clockwork.NewRealClock()
	locker := keylock.New()
	gazetteer := pincode.NewGazetteer()
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	documents, err := storage.NewDocumentStorage(cfg.DocumentStoragePath, cfg.MaxUploadSizeMB, clock)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: не удалось подготовить файловое хранилище")
	}

	// Use cases.
	propagator := escalation.NewStatusPropagator(st.reports, metrics)
	submitUC := report.NewSubmitReportUseCase(st.reports, clock, metrics)
	listGroupsUC := aggregation.NewListGroupsUseCase(st.reports, st.assignments)

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Health: handler.NewHealthHandler(st.db, cfg.StoreDriver),
		Report: handler.NewReportHandler(
			submitUC,
			report.NewListRecentReportsUseCase(st.reports),
			report.NewUpvoteReportUseCase(st.reports),
		),
		Alert: handler.NewAlertHandler(
			alert.NewGetActiveAlertsNearUseCase(st.assignments, cfg.AlertDefaultRadiusKm, cfg.AlertMaxRadiusKm, metrics),
		),
		Pincode: handler.NewPincodeHandler(gazetteer),
		SMS:     handler.NewSMSHandler(report.NewSubmitSMSReportUseCase(submitUC, gazetteer), clock),
		Authority: handler.NewAuthorityHandler(
			listGroupsUC,
			escalation.NewEscalateUseCase(st.reports, st.assignments, st.tx, locker, propagator, gazetteer, clock, metrics),
			escalation.NewSetCoordinatesUseCase(st.assignments),
			escalation.NewConfirmCleanUseCase(st.assignments, st.tx, locker, propagator, clock, metrics),
			report.NewVerifyReportUseCase(st.reports),
		),
		Lab: handler.NewLabHandler(
			escalation.NewListAssignmentsUseCase(st.assignments),
			escalation.NewGetAssignmentUseCase(st.assignments),
			escalation.NewUploadSolutionUseCase(st.assignments, st.tx, locker, propagator, clock, metrics),
			escalation.NewUploadTestResultUseCase(st.assignments, st.tx, locker, clock),
			escalation.NewListSolutionsUseCase(st.assignments),
			documents,
			cfg.MaxUploadSizeMB,
		),
	}

	refresher, err := scheduler.NewGroupRefresher(cfg.GroupRefreshSpec, listGroupsUC, metrics, cfg.StoreTimeout)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: ошибка настройки планировщика")
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager, registry)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.WithField("port", cfg.HTTPPort).WithField("store", cfg.StoreDriver).Info("main: HTTP сервер запущен")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return refresher.Run(gctx)
	})

	// Завершаем сервер при получении сигнала или падении соседней задачи.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}
	logger.Log.Info("main: сервер остановлен")
}

func openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Log.Warn("main: используется хранилище в памяти, данные не сохраняются между запусками")
		store := memory.NewStore()
		return stores{
			reports:     store.Reports(),
			assignments: store.Assignments(),
			tx:          store,
		}, nil
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		safeClose(dbConn)
		return stores{}, err
	}

	return stores{
		reports:     persistence.NewReportRepositoryAdapter(dbConn, cfg.StoreTimeout),
		assignments: persistence.NewAssignmentRepositoryAdapter(dbConn, cfg.StoreTimeout),
		tx:          persistence.NewTransactor(dbConn, cfg.StoreTimeout),
		db:          dbConn,
	}, nil
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка закрытия базы")
	}
}

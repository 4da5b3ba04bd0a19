package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	trmgorm "github.com/avito-tech/go-transaction-manager/gorm"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"golang.org/x/sync/errgroup"
	"yandex-team.ru/candydelivery/config"
	"yandex-team.ru/candydelivery/internal/http"
	"yandex-team.ru/candydelivery/internal/http/controller"
	"yandex-team.ru/candydelivery/internal/repository/memory"
	"yandex-team.ru/candydelivery/internal/repository/repositories"
	"yandex-team.ru/candydelivery/internal/usecase"
	"yandex-team.ru/candydelivery/internal/usecase/courier"
	"yandex-team.ru/candydelivery/internal/usecase/order"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/assign"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/complete"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/reconcile"
	"yandex-team.ru/candydelivery/migrations"
	"yandex-team.ru/candydelivery/pkg/db/postgresql"
	"yandex-team.ru/candydelivery/pkg/keylock"
)

const shutdownTimeout = 10 * time.Second

type storage struct {
	trm         usecase.TrManager
	courierRepo usecase.CourierRepository
	orderRepo   usecase.OrderRepository
	batchRepo   usecase.BatchRepository
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	appConf, err := config.NewAppConfig(os.Args[1:])
	if err != nil {
		return err
	}

	st, err := newStorage(appConf, logger)
	if err != nil {
		return err
	}

	locker := keylock.New()

	assignAction := assign.New(st.trm, locker, logger, st.courierRepo, st.orderRepo, st.batchRepo)
	completeAction := complete.New(st.trm, locker, logger, st.orderRepo, st.batchRepo)
	reconcileAction := reconcile.New(st.trm, locker, logger, st.orderRepo, st.batchRepo)

	courierUseCase := courier.New(st.trm, locker, logger, reconcileAction, st.courierRepo, st.orderRepo, st.batchRepo)
	orderUseCase := order.New(st.trm, logger, assignAction, completeAction, st.orderRepo)

	cs := http.Controllers{
		CourierController: controller.NewCourierController(courierUseCase),
		OrderController:   controller.NewOrderController(orderUseCase),
	}
	r := http.NewRouter(cs)

	e := http.NewHttpServer(appConf, logger)
	r.SetupRoutes(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server started", "addr", appConf.Addr(), "env", appConf.Env, "storage", appConf.Storage)
		if err := e.Start(appConf.Addr()); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newStorage(appConf config.AppConfig, logger *slog.Logger) (storage, error) {
	if appConf.Storage == config.StorageMemory {
		s := memory.NewStore()
		logger.Warn("using in-memory storage, state is lost on restart")

		return storage{
			trm:         memory.NewTrManager(s),
			courierRepo: memory.NewCourierRepo(s),
			orderRepo:   memory.NewOrderRepo(s),
			batchRepo:   memory.NewBatchRepo(s),
		}, nil
	}

	dbConf, err := config.DatabaseConf()
	if err != nil {
		return storage{}, err
	}
	dsn := dbConf.Pgsql.DSN()

	if err := postgresql.Migrate(dsn, migrations.FS); err != nil {
		return storage{}, err
	}

	db, err := postgresql.Open(dsn, postgresql.LogLevel(appConf.Env))
	if err != nil {
		return storage{}, err
	}

	m, err := manager.New(trmgorm.NewDefaultFactory(db))
	if err != nil {
		return storage{}, fmt.Errorf("failed to create transaction manager: %w", err)
	}

	return storage{
		trm:         m,
		courierRepo: repositories.NewCourierRepo(db, trmgorm.DefaultCtxGetter),
		orderRepo:   repositories.NewOrderRepo(db, trmgorm.DefaultCtxGetter),
		batchRepo:   repositories.NewBatchRepo(db, trmgorm.DefaultCtxGetter),
	}, nil
}

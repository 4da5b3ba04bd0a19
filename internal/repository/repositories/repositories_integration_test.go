package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	trmgorm "github.com/avito-tech/go-transaction-manager/gorm"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/repository/repositories"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/assign"
	"yandex-team.ru/candydelivery/migrations"
	"yandex-team.ru/candydelivery/pkg/db/postgresql"
	"yandex-team.ru/candydelivery/pkg/keylock"
)

type orderRow struct {
	ID            int64      `db:"id"`
	BatchID       *int64     `db:"batch_id"`
	CompletedTime *time.Time `db:"completed_time"`
}

type batchRow struct {
	ID        int64 `db:"id"`
	CourierID int64 `db:"courier_id"`
	Complete  bool  `db:"complete"`
}

type PostgresSuite struct {
	suite.Suite

	ctx       context.Context
	container *postgres.PostgresContainer
	pgx       *pgx.Conn
	db        *gorm.DB
	trm       *manager.Manager

	couriers *repositories.CourierRepo
	orders   *repositories.OrderRepo
	batches  *repositories.BatchRepo
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, needs docker")
	}

	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("candy"),
		postgres.WithUsername("candy"),
		postgres.WithPassword("candy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(postgresql.Migrate(dsn, migrations.FS))

	s.db, err = postgresql.Open(dsn, logger.Silent)
	s.Require().NoError(err)

	s.trm, err = manager.New(trmgorm.NewDefaultFactory(s.db))
	s.Require().NoError(err)

	s.pgx, err = pgx.Connect(s.ctx, dsn)
	s.Require().NoError(err)

	s.couriers = repositories.NewCourierRepo(s.db, trmgorm.DefaultCtxGetter)
	s.orders = repositories.NewOrderRepo(s.db, trmgorm.DefaultCtxGetter)
	s.batches = repositories.NewBatchRepo(s.db, trmgorm.DefaultCtxGetter)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pgx != nil {
		s.NoError(s.pgx.Close(s.ctx))
	}
	if s.container != nil {
		s.NoError(s.container.Terminate(s.ctx))
	}
}

func (s *PostgresSuite) TearDownTest() {
	_, err := s.pgx.Exec(s.ctx, `TRUNCATE TABLE order_delivery_hours, orders, batches, courier_working_hours, couriers RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) hours(ss ...string) []entity.Interval {
	res, err := entity.ParseIntervals(ss)
	s.Require().NoError(err)
	return res
}

func (s *PostgresSuite) addCourier(id uint64, ct entity.CourierType, regions []int32, hours ...string) entity.Courier {
	c := entity.Courier{ID: id, CourierType: ct, Regions: regions, WorkingHours: s.hours(hours...)}
	_, err := s.couriers.BatchCreate(s.ctx, []entity.Courier{c})
	s.Require().NoError(err)
	return c
}

func (s *PostgresSuite) addOrders(orders ...entity.Order) {
	_, err := s.orders.BatchCreate(s.ctx, orders)
	s.Require().NoError(err)
}

func (s *PostgresSuite) order(id uint64, weight float64, region int32, hours ...string) entity.Order {
	return entity.Order{ID: id, Weight: weight, Region: region, DeliveryHours: s.hours(hours...)}
}

func (s *PostgresSuite) rawOrders() []orderRow {
	rows := []orderRow{}
	s.Require().NoError(pgxscan.Select(s.ctx, s.pgx, &rows, `SELECT id, batch_id, completed_time FROM orders ORDER BY id`))
	return rows
}

func (s *PostgresSuite) rawBatches() []batchRow {
	rows := []batchRow{}
	s.Require().NoError(pgxscan.Select(s.ctx, s.pgx, &rows, `SELECT id, courier_id, complete FROM batches ORDER BY id`))
	return rows
}

func (s *PostgresSuite) TestCourierRoundTrip() {
	s.addCourier(7, entity.BIKE, []int32{1, 12}, "14:00-16:00", "09:00-11:00")

	c, err := s.couriers.FindById(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(entity.BIKE, c.CourierType)
	s.Equal([]int32{1, 12}, c.Regions)
	s.Equal([]string{"09:00-11:00", "14:00-16:00"}, entity.FormatIntervals(c.WorkingHours))

	_, err = s.couriers.FindById(s.ctx, 8)
	s.Equal(candydelivery.ENOTFOUND, candydelivery.ErrorCode(err))

	_, err = s.couriers.BatchCreate(s.ctx, []entity.Courier{*c})
	s.Equal(candydelivery.ECONFLICT, candydelivery.ErrorCode(err))

	ids, err := s.couriers.ExistingIds(s.ctx, []uint64{7, 8})
	s.Require().NoError(err)
	s.Equal([]uint64{7}, ids)
}

func (s *PostgresSuite) TestCourierUpdateReplacesHours() {
	c := s.addCourier(1, entity.FOOT, []int32{1}, "09:00-11:00")

	c.CourierType = entity.CAR
	c.Regions = []int32{3, 4}
	c.WorkingHours = s.hours("20:00-21:00")
	s.Require().NoError(s.couriers.Update(s.ctx, &c))

	got, err := s.couriers.FindById(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(entity.CAR, got.CourierType)
	s.Equal([]int32{3, 4}, got.Regions)
	s.Equal([]string{"20:00-21:00"}, entity.FormatIntervals(got.WorkingHours))

	missing := entity.Courier{ID: 99, CourierType: entity.FOOT}
	s.Equal(candydelivery.ENOTFOUND, candydelivery.ErrorCode(s.couriers.Update(s.ctx, &missing)))
}

func (s *PostgresSuite) TestPagination() {
	for id := uint64(1); id <= 3; id++ {
		s.addCourier(id, entity.FOOT, []int32{1}, "09:00-11:00")
	}

	page, err := s.couriers.PaginatedFetchAll(s.ctx, 1, 5)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(uint64(2), page[0].ID)
	s.Equal(uint64(3), page[1].ID)
}

func (s *PostgresSuite) TestUnassignedPool() {
	s.addCourier(1, entity.FOOT, []int32{1}, "09:00-11:00")
	s.addOrders(
		s.order(1, 5, 1, "09:00-10:00"),
		s.order(2, 1.5, 1, "10:00-12:00"),
		s.order(3, 1.5, 2, "10:00-12:00"),
		s.order(4, 0.5, 1, "18:00-19:00", "08:00-09:30"),
	)

	pool, err := s.orders.FindUnassignedInRegions(s.ctx, []int32{1})
	s.Require().NoError(err)

	ids := []uint64{}
	for _, o := range pool {
		ids = append(ids, o.ID)
	}
	s.Equal([]uint64{4, 2, 1}, ids)
	s.Equal([]string{"08:00-09:30", "18:00-19:00"}, entity.FormatIntervals(pool[0].DeliveryHours))
}

func (s *PostgresSuite) TestBatchLifecycle() {
	s.addCourier(1, entity.FOOT, []int32{1}, "09:00-11:00")
	s.addOrders(s.order(1, 1, 1, "09:00-10:00"), s.order(2, 1, 1, "09:00-10:00"))

	created := time.Date(2023, 4, 1, 9, 0, 0, 0, time.UTC)
	batch := &entity.Batch{CourierID: 1, CourierType: entity.FOOT, CreatedAt: created}
	s.Require().NoError(s.batches.Create(s.ctx, batch))
	s.NotZero(batch.ID)

	second := &entity.Batch{CourierID: 1, CourierType: entity.FOOT, CreatedAt: created}
	s.Equal(candydelivery.ECONFLICT, candydelivery.ErrorCode(s.batches.Create(s.ctx, second)))

	s.Require().NoError(s.orders.AttachToBatch(s.ctx, batch.ID, []uint64{1, 2}))
	s.Equal(candydelivery.ECONFLICT, candydelivery.ErrorCode(s.orders.AttachToBatch(s.ctx, batch.ID, []uint64{1})))
	s.Equal(candydelivery.ECONFLICT, candydelivery.ErrorCode(s.batches.Delete(s.ctx, batch.ID)))

	open, err := s.batches.OpenByCourierId(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(open)
	s.True(open.CreatedAt.Equal(created))

	s.Require().NoError(s.orders.SetCompletedTime(s.ctx, 1, created.Add(time.Minute)))
	s.Equal(candydelivery.EMISMATCH, candydelivery.ErrorCode(s.orders.SetCompletedTime(s.ctx, 1, created)))
	s.Equal(candydelivery.ENOTFOUND, candydelivery.ErrorCode(s.orders.SetCompletedTime(s.ctx, 9, created)))

	s.Require().NoError(s.orders.Detach(s.ctx, []uint64{2}))
	s.Require().NoError(s.batches.MarkComplete(s.ctx, batch.ID))

	open, err = s.batches.OpenByCourierId(s.ctx, 1)
	s.Require().NoError(err)
	s.Nil(open)

	done, err := s.batches.CompletedByCourierId(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(done, 1)
	s.Equal(entity.FOOT, done[0].CourierType)

	rows := s.rawOrders()
	s.Require().Len(rows, 2)
	s.Require().NotNil(rows[0].BatchID)
	s.Equal(int64(batch.ID), *rows[0].BatchID)
	s.NotNil(rows[0].CompletedTime)
	s.Nil(rows[1].BatchID)
}

func (s *PostgresSuite) TestTransactionRollback() {
	err := s.trm.Do(s.ctx, func(ctx context.Context) error {
		_, err := s.couriers.BatchCreate(ctx, []entity.Courier{{
			ID: 1, CourierType: entity.FOOT, Regions: []int32{1}, WorkingHours: s.hours("09:00-11:00"),
		}})
		s.Require().NoError(err)

		return candydelivery.Errorf(candydelivery.EINTERNAL, "abort")
	})
	s.Require().Error(err)

	_, err = s.couriers.FindById(s.ctx, 1)
	s.Equal(candydelivery.ENOTFOUND, candydelivery.ErrorCode(err))
}

func (s *PostgresSuite) TestConcurrentAssignNeverSharesOrders() {
	const couriers = 6

	for id := uint64(1); id <= couriers; id++ {
		s.addCourier(id, entity.FOOT, []int32{1}, "09:00-18:00")
	}
	orders := []entity.Order{}
	for id := uint64(1); id <= 20; id++ {
		orders = append(orders, s.order(id, 2, 1, "09:00-18:00"))
	}
	s.addOrders(orders...)

	action := assign.New(s.trm, keylock.New(), discardLogger(), s.couriers, s.orders, s.batches)

	var wg sync.WaitGroup
	results := make([]assign.AssignResult, couriers)
	errs := make([]error, couriers)
	for i := 0; i < couriers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = action.Assign(s.ctx, uint64(i+1))
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{}
	batches := 0
	for i, res := range results {
		s.Require().NoError(errs[i])
		if res.BatchID == nil {
			s.Empty(res.Orders)
			continue
		}
		batches++

		// five orders of weight 2 fill a foot courier
		s.LessOrEqual(len(res.Orders), 5)
		for _, o := range res.Orders {
			s.False(seen[o.ID], "order %d assigned twice", o.ID)
			seen[o.ID] = true
		}
	}
	s.Positive(batches)
	s.Len(s.rawBatches(), batches)

	assigned := 0
	for _, row := range s.rawOrders() {
		if row.BatchID != nil {
			assigned++
		}
	}
	s.Equal(len(seen), assigned)
}

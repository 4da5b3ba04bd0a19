// Package testutil wires an in-memory environment for usecase tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/repository/memory"
	"yandex-team.ru/candydelivery/pkg/keylock"
)

type Env struct {
	Store       *memory.Store
	Trm         *memory.TrManager
	Locker      *keylock.Locker
	Logger      *slog.Logger
	CourierRepo *memory.CourierRepo
	OrderRepo   *memory.OrderRepo
	BatchRepo   *memory.BatchRepo
}

func NewEnv() *Env {
	s := memory.NewStore()

	return &Env{
		Store:       s,
		Trm:         memory.NewTrManager(s),
		Locker:      keylock.New(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		CourierRepo: memory.NewCourierRepo(s),
		OrderRepo:   memory.NewOrderRepo(s),
		BatchRepo:   memory.NewBatchRepo(s),
	}
}

// Hours parses "HH:MM-HH:MM" intervals and fails the test on error.
func Hours(t testing.TB, ss ...string) []entity.Interval {
	t.Helper()

	res, err := entity.ParseIntervals(ss)
	require.NoError(t, err)

	return res
}

func (e *Env) AddCourier(t testing.TB, id uint64, ct entity.CourierType, regions []int32, hours ...string) entity.Courier {
	t.Helper()

	c := entity.Courier{
		ID:           id,
		CourierType:  ct,
		Regions:      regions,
		WorkingHours: Hours(t, hours...),
	}
	_, err := e.CourierRepo.BatchCreate(context.Background(), []entity.Courier{c})
	require.NoError(t, err)

	return c
}

func (e *Env) AddOrder(t testing.TB, id uint64, weight float64, region int32, hours ...string) entity.Order {
	t.Helper()

	o := entity.Order{
		ID:            id,
		Weight:        weight,
		Region:        region,
		DeliveryHours: Hours(t, hours...),
	}
	_, err := e.OrderRepo.BatchCreate(context.Background(), []entity.Order{o})
	require.NoError(t, err)

	return o
}

func (e *Env) Order(t testing.TB, id uint64) entity.Order {
	t.Helper()

	o, err := e.OrderRepo.FindById(context.Background(), id)
	require.NoError(t, err)

	return *o
}

func (e *Env) OpenBatch(t testing.TB, courierID uint64) *entity.Batch {
	t.Helper()

	b, err := e.BatchRepo.OpenByCourierId(context.Background(), courierID)
	require.NoError(t, err)

	return b
}

// FixedClock returns a clock that always reports at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func IDs(orders []entity.Order) []uint64 {
	res := make([]uint64, 0, len(orders))
	for _, o := range orders {
		res = append(res, o.ID)
	}
	return res
}

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/repository/memory"
)

func newOrder(id uint64, weight float64, region int32) entity.Order {
	return entity.Order{
		ID:            id,
		Weight:        weight,
		Region:        region,
		DeliveryHours: []entity.Interval{entity.NewInterval(9, 0, 18, 0)},
	}
}

func TestTrManagerRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	trm := memory.NewTrManager(s)
	orders := memory.NewOrderRepo(s)
	batches := memory.NewBatchRepo(s)

	_, err := orders.BatchCreate(ctx, []entity.Order{newOrder(1, 1, 1), newOrder(2, 2, 1)})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = trm.Do(ctx, func(ctx context.Context) error {
		b := &entity.Batch{CourierID: 1, CourierType: entity.FOOT, CreatedAt: time.Now()}
		if err := batches.Create(ctx, b); err != nil {
			return err
		}
		if err := orders.AttachToBatch(ctx, b.ID, []uint64{1, 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	open, err := batches.OpenByCourierId(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, open)

	unassigned, err := orders.FindUnassignedInRegions(ctx, []int32{1})
	require.NoError(t, err)
	assert.Len(t, unassigned, 2)
}

func TestTrManagerNestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	trm := memory.NewTrManager(s)
	couriers := memory.NewCourierRepo(s)

	err := trm.Do(ctx, func(ctx context.Context) error {
		return trm.Do(ctx, func(ctx context.Context) error {
			_, err := couriers.BatchCreate(ctx, []entity.Courier{{ID: 1, CourierType: entity.BIKE, Regions: []int32{1}}})
			return err
		})
	})
	require.NoError(t, err)

	c, err := couriers.FindById(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.BIKE, c.CourierType)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	couriers := memory.NewCourierRepo(s)

	_, err := couriers.BatchCreate(ctx, []entity.Courier{{ID: 1, CourierType: entity.FOOT, Regions: []int32{1, 2}}})
	require.NoError(t, err)

	c, err := couriers.FindById(ctx, 1)
	require.NoError(t, err)
	c.Regions[0] = 99

	again, err := couriers.FindById(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, again.Regions)
}

func TestFindUnassignedInRegionsOrdering(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	orders := memory.NewOrderRepo(s)

	_, err := orders.BatchCreate(ctx, []entity.Order{
		newOrder(3, 5, 1),
		newOrder(1, 5, 1),
		newOrder(2, 0.5, 2),
		newOrder(4, 1, 3),
	})
	require.NoError(t, err)

	res, err := orders.FindUnassignedInRegions(ctx, []int32{1, 2})
	require.NoError(t, err)

	ids := []uint64{}
	for _, o := range res {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []uint64{2, 1, 3}, ids)
}

func TestAttachToBatchConflict(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	orders := memory.NewOrderRepo(s)

	_, err := orders.BatchCreate(ctx, []entity.Order{newOrder(1, 1, 1)})
	require.NoError(t, err)

	require.NoError(t, orders.AttachToBatch(ctx, 1, []uint64{1}))

	err = orders.AttachToBatch(ctx, 2, []uint64{1})
	require.Error(t, err)
	assert.Equal(t, candydelivery.ECONFLICT, candydelivery.ErrorCode(err))
}

func TestBatchCreateRejectsSecondOpenBatch(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	batches := memory.NewBatchRepo(s)

	first := &entity.Batch{CourierID: 1, CourierType: entity.FOOT, CreatedAt: time.Now()}
	require.NoError(t, batches.Create(ctx, first))
	assert.Equal(t, uint64(1), first.ID)

	err := batches.Create(ctx, &entity.Batch{CourierID: 1, CourierType: entity.FOOT, CreatedAt: time.Now()})
	require.Error(t, err)

	require.NoError(t, batches.MarkComplete(ctx, first.ID))
	require.NoError(t, batches.Create(ctx, &entity.Batch{CourierID: 1, CourierType: entity.FOOT, CreatedAt: time.Now()}))
}

func TestSetCompletedTimeOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	orders := memory.NewOrderRepo(s)

	_, err := orders.BatchCreate(ctx, []entity.Order{newOrder(1, 1, 1)})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, orders.SetCompletedTime(ctx, 1, now))

	err = orders.SetCompletedTime(ctx, 1, now.Add(time.Minute))
	require.Error(t, err)
	assert.Equal(t, candydelivery.EMISMATCH, candydelivery.ErrorCode(err))

	o, err := orders.FindById(ctx, 1)
	require.NoError(t, err)
	assert.True(t, o.CompletedTime.Equal(now))
}

package courier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase/courier"
)

var base = time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)

func completedOrder(id uint64, batchID uint64, region int32, after time.Duration) entity.Order {
	at := base.Add(after)
	return entity.Order{ID: id, Weight: 1, Region: region, BatchID: &batchID, CompletedTime: &at}
}

func TestEarnings(t *testing.T) {
	e, err := courier.Earnings(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), e)

	e, err = courier.Earnings([]entity.Batch{{ID: 1, CourierType: entity.FOOT, Complete: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), e)

	e, err = courier.Earnings([]entity.Batch{
		{ID: 1, CourierType: entity.FOOT, Complete: true},
		{ID: 2, CourierType: entity.BIKE, Complete: true},
		{ID: 3, CourierType: entity.CAR, Complete: true},
		{ID: 4, CourierType: entity.CAR, Complete: false},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000+2500+4500), e)
}

func TestEarningsUnknownType(t *testing.T) {
	_, err := courier.Earnings([]entity.Batch{{ID: 1, CourierType: "plane", Complete: true}})
	assert.Error(t, err)
}

func TestRatingAbsentWithoutCompletions(t *testing.T) {
	assert.Nil(t, courier.Rating(nil, nil))

	batchID := uint64(1)
	pending := entity.Order{ID: 1, Region: 1, BatchID: &batchID}
	assert.Nil(t, courier.Rating([]entity.Batch{{ID: 1, CreatedAt: base, Complete: true}}, []entity.Order{pending}))
}

func TestRatingSequentialLegsPerRegion(t *testing.T) {
	batches := []entity.Batch{{ID: 1, CreatedAt: base, Complete: true}}

	// region 1 legs: 20m, 10m -> avg 15m
	// region 2 legs: 40m -> avg 40m
	orders := []entity.Order{
		completedOrder(2, 1, 1, 30*time.Minute),
		completedOrder(1, 1, 1, 20*time.Minute),
		completedOrder(3, 1, 2, 40*time.Minute),
	}

	r := courier.Rating(batches, orders)
	require.NotNil(t, r)
	assert.InDelta(t, (3600.0-900.0)/3600.0*5, *r, 1e-9)
}

func TestRatingFirstLegFromItsOwnBatch(t *testing.T) {
	batches := []entity.Batch{
		{ID: 1, CreatedAt: base, Complete: true},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour), Complete: true},
	}
	orders := []entity.Order{
		completedOrder(1, 2, 7, 2*time.Hour+6*time.Minute),
	}

	r := courier.Rating(batches, orders)
	require.NotNil(t, r)
	assert.InDelta(t, 4.5, *r, 1e-9)
}

func TestRatingBounds(t *testing.T) {
	batches := []entity.Batch{{ID: 1, CreatedAt: base, Complete: true}}

	slow := courier.Rating(batches, []entity.Order{completedOrder(1, 1, 1, 3*time.Hour)})
	require.NotNil(t, slow)
	assert.Equal(t, 0.0, *slow)

	instant := courier.Rating(batches, []entity.Order{completedOrder(1, 1, 1, 0)})
	require.NotNil(t, instant)
	assert.Equal(t, 5.0, *instant)

	early := courier.Rating(batches, []entity.Order{completedOrder(1, 1, 1, -time.Minute)})
	require.NotNil(t, early)
	assert.Equal(t, 5.0, *early)
}

func TestRatingIgnoresOrdersOutsideGivenBatches(t *testing.T) {
	batches := []entity.Batch{{ID: 1, CreatedAt: base, Complete: true}}
	orders := []entity.Order{completedOrder(1, 9, 1, time.Minute)}

	assert.Nil(t, courier.Rating(batches, orders))
}

// Package usecase holds the storage and transaction contracts shared by
// the courier and order usecases and their actions.
package usecase

import (
	"context"
	"time"

	"yandex-team.ru/candydelivery/internal/entity"
)

// TrManager runs fn inside a transaction carried by the passed context.
// Nested calls join the outer transaction.
type TrManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serializes batch-mutating work per courier.
type Locker interface {
	Lock(ctx context.Context, courierID uint64) (context.Context, func(), error)
}

type CourierRepository interface {
	BatchCreate(ctx context.Context, couriers []entity.Courier) ([]entity.Courier, error)
	FindById(ctx context.Context, id uint64) (*entity.Courier, error)
	ExistingIds(ctx context.Context, ids []uint64) ([]uint64, error)
	PaginatedFetchAll(ctx context.Context, offset, limit int32) ([]entity.Courier, error)
	Update(ctx context.Context, courier *entity.Courier) error
}

type OrderRepository interface {
	BatchCreate(ctx context.Context, orders []entity.Order) ([]entity.Order, error)
	FindById(ctx context.Context, id uint64) (*entity.Order, error)
	ExistingIds(ctx context.Context, ids []uint64) ([]uint64, error)
	PaginatedFetchAll(ctx context.Context, offset, limit int32) ([]entity.Order, error)

	// FindUnassignedInRegions returns orders with no batch and no completion
	// time whose region is one of regions. Rows stay reserved for the
	// surrounding transaction.
	FindUnassignedInRegions(ctx context.Context, regions []int32) ([]entity.Order, error)
	OrdersInBatches(ctx context.Context, batchIDs []uint64) ([]entity.Order, error)

	// AttachToBatch sets the batch of every order, failing with a conflict
	// if one of them is already attached.
	AttachToBatch(ctx context.Context, batchID uint64, orderIDs []uint64) error
	Detach(ctx context.Context, orderIDs []uint64) error
	SetCompletedTime(ctx context.Context, orderID uint64, completedTime time.Time) error
}

type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	FindById(ctx context.Context, id uint64) (*entity.Batch, error)

	// OpenByCourierId returns nil without error when the courier has no open batch.
	OpenByCourierId(ctx context.Context, courierID uint64) (*entity.Batch, error)
	CompletedByCourierId(ctx context.Context, courierID uint64) ([]entity.Batch, error)
	MarkComplete(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

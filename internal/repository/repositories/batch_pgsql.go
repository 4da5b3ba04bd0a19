package repositories

import (
	"context"
	"errors"
	"time"

	trmgorm "github.com/avito-tech/go-transaction-manager/gorm"
	"gorm.io/gorm"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
)

type Batch struct {
	ID          uint64    `gorm:"primaryKey"`
	CourierID   uint64    `gorm:"not null"`
	CourierType string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	Complete    bool      `gorm:"not null"`
}

type BatchRepo struct {
	db     *gorm.DB
	getter *trmgorm.CtxGetter
}

func NewBatchRepo(db *gorm.DB, c *trmgorm.CtxGetter) *BatchRepo {
	return &BatchRepo{
		db:     db,
		getter: c,
	}
}

func (r *BatchRepo) tx(ctx context.Context) *gorm.DB {
	return r.getter.DefaultTrOrDB(ctx, r.db).WithContext(ctx)
}

// Create inserts the batch and sets its ID. The partial unique index on open
// batches turns a second open batch for the courier into a conflict.
func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	row := Batch{
		CourierID:   batch.CourierID,
		CourierType: string(batch.CourierType),
		CreatedAt:   batch.CreatedAt.UTC(),
		Complete:    batch.Complete,
	}

	if err := r.tx(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return candydelivery.Errorf(candydelivery.ECONFLICT, "courier %d already has an open batch", batch.CourierID)
		}
		return err
	}

	batch.ID = row.ID
	return nil
}

func (r *BatchRepo) FindById(ctx context.Context, id uint64) (*entity.Batch, error) {
	var row Batch

	if err := r.tx(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, candydelivery.Errorf(candydelivery.ENOTFOUND, "batch %d not found", id)
		}
		return nil, err
	}

	b := row.toEntity()
	return &b, nil
}

func (r *BatchRepo) OpenByCourierId(ctx context.Context, courierID uint64) (*entity.Batch, error) {
	rows := []Batch{}

	err := r.tx(ctx).Where("courier_id = ? AND NOT complete", courierID).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	b := rows[0].toEntity()
	return &b, nil
}

func (r *BatchRepo) CompletedByCourierId(ctx context.Context, courierID uint64) ([]entity.Batch, error) {
	rows := []Batch{}

	err := r.tx(ctx).Where("courier_id = ? AND complete", courierID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make([]entity.Batch, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toEntity())
	}

	return res, nil
}

func (r *BatchRepo) MarkComplete(ctx context.Context, id uint64) error {
	res := r.tx(ctx).Model(&Batch{}).Where("id = ?", id).Update("complete", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return candydelivery.Errorf(candydelivery.ENOTFOUND, "batch %d not found", id)
	}

	return nil
}

// Delete removes a batch no order refers to.
func (r *BatchRepo) Delete(ctx context.Context, id uint64) error {
	db := r.tx(ctx)

	var held int64
	if err := db.Model(&Order{}).Where("batch_id = ?", id).Count(&held).Error; err != nil {
		return err
	}
	if held > 0 {
		return candydelivery.Errorf(candydelivery.ECONFLICT, "batch %d still holds orders", id)
	}

	res := db.Delete(&Batch{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return candydelivery.Errorf(candydelivery.ENOTFOUND, "batch %d not found", id)
	}

	return nil
}

func (row Batch) toEntity() entity.Batch {
	return entity.Batch{
		ID:          row.ID,
		CourierID:   row.CourierID,
		CourierType: entity.CourierType(row.CourierType),
		CreatedAt:   row.CreatedAt.UTC(),
		Complete:    row.Complete,
	}
}

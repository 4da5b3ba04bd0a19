package repositories

import (
	"context"
	"errors"
	"time"

	trmgorm "github.com/avito-tech/go-transaction-manager/gorm"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/pkg/gorm/types"
)

type Order struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement:false"`
	Weight        float64
	Region        int32
	DeliveryHours []OrderDeliveryHours `gorm:"foreignKey:OrderID;references:ID"`
	CompletedTime *time.Time
	BatchID       *uint64
}

type OrderDeliveryHours struct {
	ID        uint64 `gorm:"primaryKey"`
	OrderID   uint64
	StartTime types.Time
	EndTime   types.Time
}

type OrderRepo struct {
	db     *gorm.DB
	getter *trmgorm.CtxGetter
}

func NewOrderRepo(db *gorm.DB, c *trmgorm.CtxGetter) *OrderRepo {
	return &OrderRepo{
		db:     db,
		getter: c,
	}
}

func (r *OrderRepo) tx(ctx context.Context) *gorm.DB {
	return r.getter.DefaultTrOrDB(ctx, r.db).WithContext(ctx)
}

func (r *OrderRepo) BatchCreate(ctx context.Context, orders []entity.Order) ([]entity.Order, error) {
	if len(orders) == 0 {
		return []entity.Order{}, nil
	}

	rows := make([]Order, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, Order{
			ID:            o.ID,
			Weight:        o.Weight,
			Region:        o.Region,
			DeliveryHours: deliveryHoursRows(o.ID, o.DeliveryHours),
		})
	}

	if err := r.tx(ctx).CreateInBatches(&rows, 50).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, candydelivery.ErrorWithCode(err, candydelivery.ECONFLICT)
		}
		return nil, err
	}

	return toOrderEntities(rows), nil
}

func (r *OrderRepo) FindById(ctx context.Context, id uint64) (*entity.Order, error) {
	var row Order

	err := r.tx(ctx).Preload("DeliveryHours", orderHours).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, candydelivery.Errorf(candydelivery.ENOTFOUND, "order %d not found", id)
		}
		return nil, err
	}

	o := row.toEntity()
	return &o, nil
}

func (r *OrderRepo) ExistingIds(ctx context.Context, ids []uint64) ([]uint64, error) {
	res := []uint64{}
	if len(ids) == 0 {
		return res, nil
	}

	err := r.tx(ctx).Model(&Order{}).Where("id IN ?", ids).Order("id").Pluck("id", &res).Error
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *OrderRepo) PaginatedFetchAll(ctx context.Context, offset, limit int32) ([]entity.Order, error) {
	rows := []Order{}

	err := r.tx(ctx).
		Preload("DeliveryHours", orderHours).
		Order("id").
		Limit(int(limit)).
		Offset(int(offset)).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	return toOrderEntities(rows), nil
}

// FindUnassignedInRegions locks the returned rows until the surrounding
// transaction ends. Rows locked by another transaction are skipped.
func (r *OrderRepo) FindUnassignedInRegions(ctx context.Context, regions []int32) ([]entity.Order, error) {
	rows := []Order{}
	if len(regions) == 0 {
		return []entity.Order{}, nil
	}

	db := r.tx(ctx)
	err := db.
		Where("batch_id IS NULL AND completed_time IS NULL AND region = ANY(?)", pq.Int32Array(regions)).
		Order("weight ASC, id ASC").
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	if err := loadDeliveryHours(db, rows); err != nil {
		return nil, err
	}

	return toOrderEntities(rows), nil
}

func (r *OrderRepo) OrdersInBatches(ctx context.Context, batchIDs []uint64) ([]entity.Order, error) {
	rows := []Order{}
	if len(batchIDs) == 0 {
		return []entity.Order{}, nil
	}

	err := r.tx(ctx).
		Preload("DeliveryHours", orderHours).
		Where("batch_id IN ?", batchIDs).
		Order("id").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	return toOrderEntities(rows), nil
}

func (r *OrderRepo) AttachToBatch(ctx context.Context, batchID uint64, orderIDs []uint64) error {
	if len(orderIDs) == 0 {
		return nil
	}

	res := r.tx(ctx).
		Model(&Order{}).
		Where("id IN ? AND batch_id IS NULL", orderIDs).
		Update("batch_id", batchID)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected != int64(len(orderIDs)) {
		return candydelivery.Errorf(candydelivery.ECONFLICT, "%d of %d orders were already assigned",
			int64(len(orderIDs))-res.RowsAffected, len(orderIDs))
	}

	return nil
}

func (r *OrderRepo) Detach(ctx context.Context, orderIDs []uint64) error {
	if len(orderIDs) == 0 {
		return nil
	}

	return r.tx(ctx).
		Model(&Order{}).
		Where("id IN ?", orderIDs).
		Update("batch_id", nil).
		Error
}

func (r *OrderRepo) SetCompletedTime(ctx context.Context, orderID uint64, completedTime time.Time) error {
	res := r.tx(ctx).
		Model(&Order{}).
		Where("id = ? AND completed_time IS NULL", orderID).
		Update("completed_time", completedTime.UTC())
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var n int64
		if err := r.tx(ctx).Model(&Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return candydelivery.Errorf(candydelivery.ENOTFOUND, "order %d not found", orderID)
		}
		return candydelivery.Errorf(candydelivery.EMISMATCH, "order %d is already completed", orderID)
	}

	return nil
}

func orderHours(db *gorm.DB) *gorm.DB {
	return db.Order("start_time, id")
}

func loadDeliveryHours(db *gorm.DB, rows []Order) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	hours := []OrderDeliveryHours{}
	if err := orderHours(db.Where("order_id IN ?", ids)).Find(&hours).Error; err != nil {
		return err
	}

	byOrder := make(map[uint64][]OrderDeliveryHours, len(rows))
	for _, h := range hours {
		byOrder[h.OrderID] = append(byOrder[h.OrderID], h)
	}
	for i := range rows {
		rows[i].DeliveryHours = byOrder[rows[i].ID]
	}

	return nil
}

func deliveryHoursRows(orderID uint64, intervals []entity.Interval) []OrderDeliveryHours {
	rows := make([]OrderDeliveryHours, 0, len(intervals))
	for _, i := range intervals {
		rows = append(rows, OrderDeliveryHours{
			OrderID:   orderID,
			StartTime: types.FromClock(i.StartTime),
			EndTime:   types.FromClock(i.EndTime),
		})
	}
	return rows
}

func toOrderEntities(rows []Order) []entity.Order {
	res := make([]entity.Order, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toEntity())
	}
	return res
}

func (row Order) toEntity() entity.Order {
	hours := make([]entity.Interval, 0, len(row.DeliveryHours))
	for _, h := range row.DeliveryHours {
		hours = append(hours, entity.Interval{
			StartTime: h.StartTime.Clock(),
			EndTime:   h.EndTime.Clock(),
		})
	}

	o := entity.Order{
		ID:            row.ID,
		Weight:        row.Weight,
		Region:        row.Region,
		DeliveryHours: hours,
		BatchID:       row.BatchID,
	}
	if row.CompletedTime != nil {
		t := row.CompletedTime.UTC()
		o.CompletedTime = &t
	}

	return o
}

package repositories

import (
	"context"
	"errors"

	trmgorm "github.com/avito-tech/go-transaction-manager/gorm"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/pkg/gorm/types"
)

type Courier struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement:false"`
	CourierType  string
	Regions      pq.Int32Array         `gorm:"type:integer[]"`
	WorkingHours []CourierWorkingHours `gorm:"foreignKey:CourierID;references:ID"`
}

type CourierWorkingHours struct {
	ID        uint64 `gorm:"primaryKey"`
	CourierID uint64
	StartTime types.Time
	EndTime   types.Time
}

type CourierRepo struct {
	db     *gorm.DB
	getter *trmgorm.CtxGetter
}

func NewCourierRepo(db *gorm.DB, c *trmgorm.CtxGetter) *CourierRepo {
	return &CourierRepo{
		db:     db,
		getter: c,
	}
}

func (r *CourierRepo) tx(ctx context.Context) *gorm.DB {
	return r.getter.DefaultTrOrDB(ctx, r.db).WithContext(ctx)
}

func (r *CourierRepo) BatchCreate(ctx context.Context, couriers []entity.Courier) ([]entity.Courier, error) {
	if len(couriers) == 0 {
		return []entity.Courier{}, nil
	}

	rows := make([]Courier, 0, len(couriers))
	for _, c := range couriers {
		rows = append(rows, toCourierRow(c))
	}

	// working hours are inserted by association
	if err := r.tx(ctx).CreateInBatches(&rows, 50).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, candydelivery.ErrorWithCode(err, candydelivery.ECONFLICT)
		}
		return nil, err
	}

	res := make([]entity.Courier, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toEntity())
	}

	return res, nil
}

func (r *CourierRepo) FindById(ctx context.Context, id uint64) (*entity.Courier, error) {
	var row Courier

	err := r.tx(ctx).
		Preload("WorkingHours", func(db *gorm.DB) *gorm.DB { return db.Order("start_time, id") }).
		First(&row, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, candydelivery.Errorf(candydelivery.ENOTFOUND, "courier %d not found", id)
		}
		return nil, err
	}

	c := row.toEntity()
	return &c, nil
}

func (r *CourierRepo) ExistingIds(ctx context.Context, ids []uint64) ([]uint64, error) {
	res := []uint64{}
	if len(ids) == 0 {
		return res, nil
	}

	err := r.tx(ctx).Model(&Courier{}).Where("id IN ?", ids).Order("id").Pluck("id", &res).Error
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *CourierRepo) PaginatedFetchAll(ctx context.Context, offset, limit int32) ([]entity.Courier, error) {
	rows := []Courier{}

	err := r.tx(ctx).
		Preload("WorkingHours", func(db *gorm.DB) *gorm.DB { return db.Order("start_time, id") }).
		Order("id").
		Limit(int(limit)).
		Offset(int(offset)).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	res := make([]entity.Courier, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toEntity())
	}

	return res, nil
}

// Update replaces the courier attributes and its working hours.
func (r *CourierRepo) Update(ctx context.Context, courier *entity.Courier) error {
	db := r.tx(ctx)

	res := db.Model(&Courier{ID: courier.ID}).Updates(map[string]interface{}{
		"courier_type": string(courier.CourierType),
		"regions":      pq.Int32Array(courier.Regions),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return candydelivery.Errorf(candydelivery.ENOTFOUND, "courier %d not found", courier.ID)
	}

	if err := db.Where("courier_id = ?", courier.ID).Delete(&CourierWorkingHours{}).Error; err != nil {
		return err
	}

	hours := workingHoursRows(courier.ID, courier.WorkingHours)
	if len(hours) == 0 {
		return nil
	}

	return db.Create(&hours).Error
}

func toCourierRow(c entity.Courier) Courier {
	return Courier{
		ID:           c.ID,
		CourierType:  string(c.CourierType),
		Regions:      pq.Int32Array(c.Regions),
		WorkingHours: workingHoursRows(c.ID, c.WorkingHours),
	}
}

func workingHoursRows(courierID uint64, intervals []entity.Interval) []CourierWorkingHours {
	rows := make([]CourierWorkingHours, 0, len(intervals))
	for _, i := range intervals {
		rows = append(rows, CourierWorkingHours{
			CourierID: courierID,
			StartTime: types.FromClock(i.StartTime),
			EndTime:   types.FromClock(i.EndTime),
		})
	}
	return rows
}

func (row Courier) toEntity() entity.Courier {
	hours := make([]entity.Interval, 0, len(row.WorkingHours))
	for _, h := range row.WorkingHours {
		hours = append(hours, entity.Interval{
			StartTime: h.StartTime.Clock(),
			EndTime:   h.EndTime.Clock(),
		})
	}

	return entity.Courier{
		ID:           row.ID,
		CourierType:  entity.CourierType(row.CourierType),
		Regions:      []int32(row.Regions),
		WorkingHours: hours,
	}
}

package memory

import (
	"context"

	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
)

type CourierRepo struct {
	s *Store
}

func NewCourierRepo(s *Store) *CourierRepo {
	return &CourierRepo{s: s}
}

func (r *CourierRepo) BatchCreate(ctx context.Context, couriers []entity.Courier) ([]entity.Courier, error) {
	res := make([]entity.Courier, 0, len(couriers))

	err := r.s.write(ctx, func() error {
		for _, c := range couriers {
			if _, ok := r.s.couriers[c.ID]; ok {
				return candydelivery.Errorf(candydelivery.ECONFLICT, "courier %d already exists", c.ID)
			}
		}
		for _, c := range couriers {
			r.s.couriers[c.ID] = cloneCourier(c)
			res = append(res, cloneCourier(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *CourierRepo) FindById(ctx context.Context, id uint64) (*entity.Courier, error) {
	var (
		c  entity.Courier
		ok bool
	)
	r.s.read(ctx, func() {
		c, ok = r.s.couriers[id]
		c = cloneCourier(c)
	})

	if !ok {
		return nil, candydelivery.Errorf(candydelivery.ENOTFOUND, "courier %d not found", id)
	}

	return &c, nil
}

func (r *CourierRepo) ExistingIds(ctx context.Context, ids []uint64) ([]uint64, error) {
	res := []uint64{}
	r.s.read(ctx, func() {
		for _, id := range ids {
			if _, ok := r.s.couriers[id]; ok {
				res = append(res, id)
			}
		}
	})

	return res, nil
}

func (r *CourierRepo) PaginatedFetchAll(ctx context.Context, offset, limit int32) ([]entity.Courier, error) {
	res := []entity.Courier{}
	r.s.read(ctx, func() {
		for _, id := range page(sortedKeys(r.s.couriers), offset, limit) {
			res = append(res, cloneCourier(r.s.couriers[id]))
		}
	})

	return res, nil
}

func (r *CourierRepo) Update(ctx context.Context, courier *entity.Courier) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.couriers[courier.ID]; !ok {
			return candydelivery.Errorf(candydelivery.ENOTFOUND, "courier %d not found", courier.ID)
		}
		r.s.couriers[courier.ID] = cloneCourier(*courier)
		return nil
	})
}

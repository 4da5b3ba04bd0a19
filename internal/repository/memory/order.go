package memory

import (
	"context"
	"sort"
	"time"

	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
)

type OrderRepo struct {
	s *Store
}

func NewOrderRepo(s *Store) *OrderRepo {
	return &OrderRepo{s: s}
}

func (r *OrderRepo) BatchCreate(ctx context.Context, orders []entity.Order) ([]entity.Order, error) {
	res := make([]entity.Order, 0, len(orders))

	err := r.s.write(ctx, func() error {
		for _, o := range orders {
			if _, ok := r.s.orders[o.ID]; ok {
				return candydelivery.Errorf(candydelivery.ECONFLICT, "order %d already exists", o.ID)
			}
		}
		for _, o := range orders {
			o.BatchID = nil
			o.CompletedTime = nil
			r.s.orders[o.ID] = cloneOrder(o)
			res = append(res, cloneOrder(o))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *OrderRepo) FindById(ctx context.Context, id uint64) (*entity.Order, error) {
	var (
		o  entity.Order
		ok bool
	)
	r.s.read(ctx, func() {
		o, ok = r.s.orders[id]
		o = cloneOrder(o)
	})

	if !ok {
		return nil, candydelivery.Errorf(candydelivery.ENOTFOUND, "order %d not found", id)
	}

	return &o, nil
}

func (r *OrderRepo) ExistingIds(ctx context.Context, ids []uint64) ([]uint64, error) {
	res := []uint64{}
	r.s.read(ctx, func() {
		for _, id := range ids {
			if _, ok := r.s.orders[id]; ok {
				res = append(res, id)
			}
		}
	})

	return res, nil
}

func (r *OrderRepo) PaginatedFetchAll(ctx context.Context, offset, limit int32) ([]entity.Order, error) {
	res := []entity.Order{}
	r.s.read(ctx, func() {
		for _, id := range page(sortedKeys(r.s.orders), offset, limit) {
			res = append(res, cloneOrder(r.s.orders[id]))
		}
	})

	return res, nil
}

func (r *OrderRepo) FindUnassignedInRegions(ctx context.Context, regions []int32) ([]entity.Order, error) {
	inRegions := make(map[int32]struct{}, len(regions))
	for _, region := range regions {
		inRegions[region] = struct{}{}
	}

	res := []entity.Order{}
	r.s.read(ctx, func() {
		for _, o := range r.s.orders {
			if o.IsAssigned() || o.IsCompleted() {
				continue
			}
			if _, ok := inRegions[o.Region]; ok {
				res = append(res, cloneOrder(o))
			}
		}
	})

	sort.Slice(res, func(i, j int) bool {
		if res[i].Weight != res[j].Weight {
			return res[i].Weight < res[j].Weight
		}
		return res[i].ID < res[j].ID
	})

	return res, nil
}

func (r *OrderRepo) OrdersInBatches(ctx context.Context, batchIDs []uint64) ([]entity.Order, error) {
	wanted := make(map[uint64]struct{}, len(batchIDs))
	for _, id := range batchIDs {
		wanted[id] = struct{}{}
	}

	res := []entity.Order{}
	r.s.read(ctx, func() {
		for _, id := range sortedKeys(r.s.orders) {
			o := r.s.orders[id]
			if o.BatchID == nil {
				continue
			}
			if _, ok := wanted[*o.BatchID]; ok {
				res = append(res, cloneOrder(o))
			}
		}
	})

	return res, nil
}

func (r *OrderRepo) AttachToBatch(ctx context.Context, batchID uint64, orderIDs []uint64) error {
	return r.s.write(ctx, func() error {
		for _, id := range orderIDs {
			o, ok := r.s.orders[id]
			if !ok {
				return candydelivery.Errorf(candydelivery.ENOTFOUND, "order %d not found", id)
			}
			if o.IsAssigned() {
				return candydelivery.Errorf(candydelivery.ECONFLICT, "order %d is already assigned", id)
			}
		}
		for _, id := range orderIDs {
			o := r.s.orders[id]
			bid := batchID
			o.BatchID = &bid
			r.s.orders[id] = o
		}
		return nil
	})
}

func (r *OrderRepo) Detach(ctx context.Context, orderIDs []uint64) error {
	return r.s.write(ctx, func() error {
		for _, id := range orderIDs {
			o, ok := r.s.orders[id]
			if !ok {
				return candydelivery.Errorf(candydelivery.ENOTFOUND, "order %d not found", id)
			}
			o.BatchID = nil
			r.s.orders[id] = o
		}
		return nil
	})
}

func (r *OrderRepo) SetCompletedTime(ctx context.Context, orderID uint64, completedTime time.Time) error {
	return r.s.write(ctx, func() error {
		o, ok := r.s.orders[orderID]
		if !ok {
			return candydelivery.Errorf(candydelivery.ENOTFOUND, "order %d not found", orderID)
		}
		if o.IsCompleted() {
			return candydelivery.Errorf(candydelivery.EMISMATCH, "order %d is already completed", orderID)
		}
		t := completedTime
		o.CompletedTime = &t
		r.s.orders[orderID] = o
		return nil
	})
}

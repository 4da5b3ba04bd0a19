package memory

import (
	"context"

	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
)

type BatchRepo struct {
	s *Store
}

func NewBatchRepo(s *Store) *BatchRepo {
	return &BatchRepo{s: s}
}

func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	return r.s.write(ctx, func() error {
		for _, b := range r.s.batches {
			if b.CourierID == batch.CourierID && b.IsOpen() {
				return candydelivery.Errorf(candydelivery.ECONFLICT, "courier %d already has an open batch", batch.CourierID)
			}
		}

		batch.ID = r.s.nextBatchID
		r.s.nextBatchID++
		r.s.batches[batch.ID] = *batch
		return nil
	})
}

func (r *BatchRepo) FindById(ctx context.Context, id uint64) (*entity.Batch, error) {
	var (
		b  entity.Batch
		ok bool
	)
	r.s.read(ctx, func() {
		b, ok = r.s.batches[id]
	})

	if !ok {
		return nil, candydelivery.Errorf(candydelivery.ENOTFOUND, "batch %d not found", id)
	}

	return &b, nil
}

func (r *BatchRepo) OpenByCourierId(ctx context.Context, courierID uint64) (*entity.Batch, error) {
	var res *entity.Batch
	r.s.read(ctx, func() {
		for _, b := range r.s.batches {
			if b.CourierID == courierID && b.IsOpen() {
				b := b
				res = &b
				return
			}
		}
	})

	return res, nil
}

func (r *BatchRepo) CompletedByCourierId(ctx context.Context, courierID uint64) ([]entity.Batch, error) {
	res := []entity.Batch{}
	r.s.read(ctx, func() {
		for _, id := range sortedKeys(r.s.batches) {
			b := r.s.batches[id]
			if b.CourierID == courierID && b.Complete {
				res = append(res, b)
			}
		}
	})

	return res, nil
}

func (r *BatchRepo) MarkComplete(ctx context.Context, id uint64) error {
	return r.s.write(ctx, func() error {
		b, ok := r.s.batches[id]
		if !ok {
			return candydelivery.Errorf(candydelivery.ENOTFOUND, "batch %d not found", id)
		}
		b.Complete = true
		r.s.batches[id] = b
		return nil
	})
}

func (r *BatchRepo) Delete(ctx context.Context, id uint64) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.batches[id]; !ok {
			return candydelivery.Errorf(candydelivery.ENOTFOUND, "batch %d not found", id)
		}
		for _, o := range r.s.orders {
			if o.BelongsTo(id) {
				return candydelivery.Errorf(candydelivery.ECONFLICT, "batch %d still holds orders", id)
			}
		}
		delete(r.s.batches, id)
		return nil
	})
}

package reconcile

import (
	"context"
	"log/slog"

	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/assign"
)

type ActionReconcile struct {
	trm       usecase.TrManager
	locker    usecase.Locker
	logger    *slog.Logger
	OrderRepo usecase.OrderRepository
	BatchRepo usecase.BatchRepository
}

func New(
	trm usecase.TrManager,
	locker usecase.Locker,
	logger *slog.Logger,
	orderRepo usecase.OrderRepository,
	batchRepo usecase.BatchRepository,
) *ActionReconcile {
	return &ActionReconcile{
		trm:       trm,
		locker:    locker,
		logger:    logger.With("component", "reconcile_action"),
		OrderRepo: orderRepo,
		BatchRepo: batchRepo,
	}
}

// ReconcileResult describes what happened to the open batch.
type ReconcileResult struct {
	BatchID      *uint64
	Detached     []uint64
	BatchDeleted bool
	BatchClosed  bool
}

// Reconcile re-validates the courier open batch against the courier current
// attributes. Pending orders outside the courier regions or hours, or beyond
// the new capacity, go back to the unassigned pool. Completed orders stay
// and count against the capacity. A batch left without orders is deleted.
func (a *ActionReconcile) Reconcile(ctx context.Context, courier entity.Courier) (ReconcileResult, error) {
	const op = "ActionReconcile.Reconcile"

	ctx, unlock, err := a.locker.Lock(ctx, courier.ID)
	if err != nil {
		return ReconcileResult{}, candydelivery.OpError(op, err)
	}
	defer unlock()

	var res ReconcileResult
	err = a.trm.Do(ctx, func(ctx context.Context) error {
		res, err = a.reconcile(ctx, courier)
		return err
	})
	if err != nil {
		return ReconcileResult{}, candydelivery.OpError(op, err)
	}

	return res, nil
}

func (a *ActionReconcile) reconcile(ctx context.Context, courier entity.Courier) (ReconcileResult, error) {
	batch, err := a.BatchRepo.OpenByCourierId(ctx, courier.ID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if batch == nil || batch.Complete {
		return ReconcileResult{}, nil
	}

	capacity, err := courier.CourierType.Capacity()
	if err != nil {
		return ReconcileResult{}, err
	}

	orders, err := a.OrderRepo.OrdersInBatches(ctx, []uint64{batch.ID})
	if err != nil {
		return ReconcileResult{}, err
	}

	// Completed orders take part in the re-pack but are never detached.
	completed := []entity.Order{}
	matching := []entity.Order{}
	for _, o := range orders {
		if o.IsCompleted() {
			completed = append(completed, o)
		}
		if courier.CanDeliver(o) {
			matching = append(matching, o)
		}
	}

	// pending is sorted by ascending weight, as Pack returns it
	pending := []entity.Order{}
	for _, o := range assign.Pack(matching, capacity) {
		if !o.IsCompleted() {
			pending = append(pending, o)
		}
	}

	// a completed order cut by the re-pack still weighs on the batch
	for len(pending) > 0 && !assign.Fits(capacity, pending, completed) {
		pending = pending[:len(pending)-1]
	}

	kept := make(map[uint64]struct{}, len(pending))
	for _, o := range pending {
		kept[o.ID] = struct{}{}
	}

	detached := []uint64{}
	for _, o := range orders {
		if o.IsCompleted() {
			continue
		}
		if _, ok := kept[o.ID]; !ok {
			detached = append(detached, o.ID)
		}
	}

	batchID := batch.ID
	res := ReconcileResult{BatchID: &batchID, Detached: detached}
	if len(detached) == 0 {
		return res, nil
	}

	if err := a.OrderRepo.Detach(ctx, detached); err != nil {
		return ReconcileResult{}, err
	}

	switch {
	case len(kept) == 0 && len(completed) == 0:
		if err := a.BatchRepo.Delete(ctx, batch.ID); err != nil {
			return ReconcileResult{}, err
		}
		res.BatchDeleted = true
	case len(kept) == 0:
		if err := a.BatchRepo.MarkComplete(ctx, batch.ID); err != nil {
			return ReconcileResult{}, err
		}
		res.BatchClosed = true
	}

	a.logger.InfoContext(ctx, "batch reconciled",
		"courier_id", courier.ID,
		"batch_id", batch.ID,
		"detached", len(detached),
		"deleted", res.BatchDeleted,
		"closed", res.BatchClosed,
	)

	return res, nil
}

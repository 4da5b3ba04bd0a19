package complete

import (
	"context"
	"log/slog"

	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase"
)

type ActionComplete struct {
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
) *ActionComplete {
	return &ActionComplete{
		trm:       trm,
		locker:    locker,
		logger:    logger.With("component", "complete_action"),
		OrderRepo: orderRepo,
		BatchRepo: batchRepo,
	}
}

// Complete stores the completion time of an order assigned to the courier
// and closes the batch once none of its orders is pending.
func (a *ActionComplete) Complete(ctx context.Context, req OrderToCompleteDTO) (*entity.Order, error) {
	const op = "ActionComplete.Complete"

	ctx, unlock, err := a.locker.Lock(ctx, req.CourierId)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}
	defer unlock()

	var res *entity.Order
	err = a.trm.Do(ctx, func(ctx context.Context) error {
		res, err = a.complete(ctx, req)
		return err
	})
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return res, nil
}

func (a *ActionComplete) complete(ctx context.Context, req OrderToCompleteDTO) (*entity.Order, error) {
	mismatch := func(msg string) error {
		return &candydelivery.Error{
			Code:    candydelivery.EMISMATCH,
			Message: msg,
			Fields: map[string]interface{}{
				"courier_id": req.CourierId,
				"order_id":   req.OrderId,
			},
		}
	}

	order, err := a.OrderRepo.FindById(ctx, req.OrderId)
	if err != nil {
		if candydelivery.ErrorCode(err) == candydelivery.ENOTFOUND {
			return nil, mismatch("order not found")
		}
		return nil, err
	}

	if order.BatchID == nil {
		return nil, mismatch("order is not assigned")
	}

	batch, err := a.BatchRepo.FindById(ctx, *order.BatchID)
	if err != nil {
		return nil, err
	}

	if batch.CourierID != req.CourierId {
		return nil, mismatch("order is assigned to another courier")
	}

	if order.IsCompleted() {
		return nil, mismatch("order is already completed")
	}

	completeTime := req.CompleteTime.UTC()
	if err := a.OrderRepo.SetCompletedTime(ctx, order.ID, completeTime); err != nil {
		return nil, err
	}
	order.CompletedTime = &completeTime

	orders, err := a.OrderRepo.OrdersInBatches(ctx, []uint64{batch.ID})
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		if !o.IsCompleted() {
			return order, nil
		}
	}

	if batch.Complete {
		return order, nil
	}

	if err := a.BatchRepo.MarkComplete(ctx, batch.ID); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "batch completed",
		"courier_id", batch.CourierID,
		"batch_id", batch.ID,
		"orders", len(orders),
	)

	return order, nil
}

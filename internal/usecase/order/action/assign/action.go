package assign

import (
	"context"
	"log/slog"
	"time"

	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase"
)

type ActionAssign struct {
	trm         usecase.TrManager
	locker      usecase.Locker
	logger      *slog.Logger
	now         func() time.Time
	CourierRepo usecase.CourierRepository
	OrderRepo   usecase.OrderRepository
	BatchRepo   usecase.BatchRepository
}

func New(
	trm usecase.TrManager,
	locker usecase.Locker,
	logger *slog.Logger,
	courierRepo usecase.CourierRepository,
	orderRepo usecase.OrderRepository,
	batchRepo usecase.BatchRepository,
) *ActionAssign {
	return &ActionAssign{
		trm:         trm,
		locker:      locker,
		logger:      logger.With("component", "assign_action"),
		now:         time.Now,
		CourierRepo: courierRepo,
		OrderRepo:   orderRepo,
		BatchRepo:   batchRepo,
	}
}

// WithClock replaces the source of batch creation time.
func (a *ActionAssign) WithClock(now func() time.Time) *ActionAssign {
	a.now = now
	return a
}

// Assign returns the courier open batch, creating one from the unassigned
// pool if the courier has none. An existing batch is never recomputed.
func (a *ActionAssign) Assign(ctx context.Context, courierID uint64) (AssignResult, error) {
	const op = "ActionAssign.Assign"

	ctx, unlock, err := a.locker.Lock(ctx, courierID)
	if err != nil {
		return AssignResult{}, candydelivery.OpError(op, err)
	}
	defer unlock()

	var res AssignResult
	err = a.trm.Do(ctx, func(ctx context.Context) error {
		courier, err := a.CourierRepo.FindById(ctx, courierID)
		if err != nil {
			return err
		}

		batch, err := a.BatchRepo.OpenByCourierId(ctx, courier.ID)
		if err != nil {
			return err
		}

		if batch != nil {
			res, err = a.existing(ctx, *batch)
			return err
		}

		res, err = a.create(ctx, *courier)
		return err
	})
	if err != nil {
		return AssignResult{}, candydelivery.OpError(op, err)
	}

	return res, nil
}

func (a *ActionAssign) existing(ctx context.Context, batch entity.Batch) (AssignResult, error) {
	orders, err := a.OrderRepo.OrdersInBatches(ctx, []uint64{batch.ID})
	if err != nil {
		return AssignResult{}, err
	}

	pending := []entity.Order{}
	for _, o := range orders {
		if !o.IsCompleted() {
			pending = append(pending, o)
		}
	}

	createdAt := batch.CreatedAt
	id := batch.ID

	return AssignResult{BatchID: &id, Orders: byWeight(pending), AssignTime: &createdAt}, nil
}

func (a *ActionAssign) create(ctx context.Context, courier entity.Courier) (AssignResult, error) {
	capacity, err := courier.CourierType.Capacity()
	if err != nil {
		return AssignResult{}, err
	}

	pool, err := a.OrderRepo.FindUnassignedInRegions(ctx, courier.Regions)
	if err != nil {
		return AssignResult{}, err
	}

	candidates := []entity.Order{}
	for _, o := range pool {
		if courier.CanDeliver(o) {
			candidates = append(candidates, o)
		}
	}

	selected := Pack(candidates, capacity)
	if len(selected) == 0 {
		return AssignResult{Orders: []entity.Order{}}, nil
	}

	batch := &entity.Batch{
		CourierID:   courier.ID,
		CourierType: courier.CourierType,
		CreatedAt:   a.now().UTC(),
	}
	if err := a.BatchRepo.Create(ctx, batch); err != nil {
		return AssignResult{}, err
	}

	ids := make([]uint64, 0, len(selected))
	for i := range selected {
		ids = append(ids, selected[i].ID)
		batchID := batch.ID
		selected[i].BatchID = &batchID
	}

	if err := a.OrderRepo.AttachToBatch(ctx, batch.ID, ids); err != nil {
		return AssignResult{}, err
	}

	a.logger.InfoContext(ctx, "batch created",
		"courier_id", courier.ID,
		"batch_id", batch.ID,
		"orders", len(ids),
	)

	createdAt := batch.CreatedAt
	batchID := batch.ID

	return AssignResult{BatchID: &batchID, Orders: selected, AssignTime: &createdAt}, nil
}

package order

import (
	"context"
	"log/slog"

	"gopkg.in/go-playground/validator.v9"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/assign"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/complete"
	"yandex-team.ru/candydelivery/pkg/validations"
)

type OrderUseCase struct {
	trm       usecase.TrManager
	logger    *slog.Logger
	validator *validator.Validate
	assign    *assign.ActionAssign
	complete  *complete.ActionComplete
	OrderRepo usecase.OrderRepository
}

func New(
	trm usecase.TrManager,
	logger *slog.Logger,
	assignAction *assign.ActionAssign,
	completeAction *complete.ActionComplete,
	orderRepo usecase.OrderRepository,
) *OrderUseCase {
	v := validator.New()
	if err := validations.Register(v); err != nil {
		panic(err)
	}

	return &OrderUseCase{
		trm:       trm,
		logger:    logger.With("component", "order_usecase"),
		validator: v,
		assign:    assignAction,
		complete:  completeAction,
		OrderRepo: orderRepo,
	}
}

// CreateOrders stores all orders or none. Every invalid item is reported
// by id in the "ids" field of the returned error.
func (uc *OrderUseCase) CreateOrders(ctx context.Context, orders []OrderToCreateDTO) ([]entity.Order, error) {
	const op = "OrderUseCase.CreateOrders"

	if len(orders) == 0 {
		return nil, &candydelivery.Error{Op: op, Code: candydelivery.EINVALID, Message: "no orders given"}
	}

	toCreate := make([]entity.Order, 0, len(orders))
	invalid := []uint64{}
	seen := make(map[uint64]struct{}, len(orders))
	ids := make([]uint64, 0, len(orders))

	for _, o := range orders {
		order, err := uc.toEntity(o)
		if _, dup := seen[o.ID]; dup || err != nil {
			invalid = append(invalid, o.ID)
			continue
		}
		seen[o.ID] = struct{}{}
		ids = append(ids, o.ID)
		toCreate = append(toCreate, order)
	}

	var saved []entity.Order
	err := uc.trm.Do(ctx, func(ctx context.Context) error {
		existing, err := uc.OrderRepo.ExistingIds(ctx, ids)
		if err != nil {
			return err
		}
		invalid = append(invalid, existing...)

		if len(invalid) > 0 {
			return &candydelivery.Error{
				Code:    candydelivery.EINVALID,
				Message: "invalid orders",
				Fields:  map[string]interface{}{"ids": invalid},
			}
		}

		saved, err = uc.OrderRepo.BatchCreate(ctx, toCreate)
		return err
	})
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	uc.logger.InfoContext(ctx, "orders created", "count", len(saved))

	return saved, nil
}

func (uc *OrderUseCase) toEntity(o OrderToCreateDTO) (entity.Order, error) {
	if err := uc.validator.Struct(o); err != nil {
		return entity.Order{}, err
	}

	hours, err := entity.ParseIntervals(o.DeliveryHours)
	if err != nil {
		return entity.Order{}, err
	}

	return entity.Order{
		ID:            o.ID,
		Weight:        o.Weight,
		Region:        o.Region,
		DeliveryHours: hours,
	}, nil
}

func (uc *OrderUseCase) GetById(ctx context.Context, id uint64) (*entity.Order, error) {
	const op = "OrderUseCase.GetById"

	order, err := uc.OrderRepo.FindById(ctx, id)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return order, nil
}

func (uc *OrderUseCase) PaginatedGetAll(ctx context.Context, offset, limit int32) ([]entity.Order, error) {
	const op = "OrderUseCase.PaginatedGetAll"

	orders, err := uc.OrderRepo.PaginatedFetchAll(ctx, offset, limit)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return orders, nil
}

func (uc *OrderUseCase) Assign(ctx context.Context, courierID uint64) (assign.AssignResult, error) {
	const op = "OrderUseCase.Assign"

	res, err := uc.assign.Assign(ctx, courierID)
	if err != nil {
		return assign.AssignResult{}, candydelivery.OpError(op, err)
	}

	return res, nil
}

func (uc *OrderUseCase) Complete(ctx context.Context, req complete.OrderToCompleteDTO) (*entity.Order, error) {
	const op = "OrderUseCase.Complete"

	if req.CourierId == 0 || req.OrderId == 0 || req.CompleteTime.IsZero() {
		return nil, &candydelivery.Error{
			Op:      op,
			Code:    candydelivery.EINVALID,
			Message: "courier_id, order_id and complete_time are required",
		}
	}

	order, err := uc.complete.Complete(ctx, req)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return order, nil
}

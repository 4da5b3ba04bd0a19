package courier

import (
	"context"
	"log/slog"

	"gopkg.in/go-playground/validator.v9"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/reconcile"
)

// Reconciler revalidates the open batch of a courier after its attributes change.
type Reconciler interface {
	Reconcile(ctx context.Context, courier entity.Courier) (reconcile.ReconcileResult, error)
}

type CourierUseCase struct {
	trm         usecase.TrManager
	locker      usecase.Locker
	logger      *slog.Logger
	validator   *validator.Validate
	reconciler  Reconciler
	CourierRepo usecase.CourierRepository
	OrderRepo   usecase.OrderRepository
	BatchRepo   usecase.BatchRepository
}

func New(
	trm usecase.TrManager,
	locker usecase.Locker,
	logger *slog.Logger,
	reconciler Reconciler,
	courierRepo usecase.CourierRepository,
	orderRepo usecase.OrderRepository,
	batchRepo usecase.BatchRepository,
) *CourierUseCase {
	return &CourierUseCase{
		trm:         trm,
		locker:      locker,
		logger:      logger.With("component", "courier_usecase"),
		validator:   newValidator(),
		reconciler:  reconciler,
		CourierRepo: courierRepo,
		OrderRepo:   orderRepo,
		BatchRepo:   batchRepo,
	}
}

// CreateCouriers stores all couriers or none. Every invalid item is reported
// by id in the "ids" field of the returned error.
func (uc *CourierUseCase) CreateCouriers(ctx context.Context, couriers []CourierToCreateDTO) ([]entity.Courier, error) {
	const op = "CourierUseCase.CreateCouriers"

	if len(couriers) == 0 {
		return nil, &candydelivery.Error{Op: op, Code: candydelivery.EINVALID, Message: "no couriers given"}
	}

	toCreate := make([]entity.Courier, 0, len(couriers))
	invalid := []uint64{}
	seen := make(map[uint64]struct{}, len(couriers))
	ids := make([]uint64, 0, len(couriers))

	for _, c := range couriers {
		courier, err := uc.toEntity(c)
		if _, dup := seen[c.ID]; dup || err != nil {
			invalid = append(invalid, c.ID)
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
		toCreate = append(toCreate, courier)
	}

	var saved []entity.Courier
	err := uc.trm.Do(ctx, func(ctx context.Context) error {
		existing, err := uc.CourierRepo.ExistingIds(ctx, ids)
		if err != nil {
			return err
		}
		invalid = append(invalid, existing...)

		if len(invalid) > 0 {
			return &candydelivery.Error{
				Code:    candydelivery.EINVALID,
				Message: "invalid couriers",
				Fields:  map[string]interface{}{"ids": invalid},
			}
		}

		saved, err = uc.CourierRepo.BatchCreate(ctx, toCreate)
		return err
	})
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	uc.logger.InfoContext(ctx, "couriers created", "count", len(saved))

	return saved, nil
}

func (uc *CourierUseCase) toEntity(c CourierToCreateDTO) (entity.Courier, error) {
	if err := uc.validator.Struct(c); err != nil {
		return entity.Courier{}, err
	}

	hours, err := entity.ParseIntervals(c.WorkingHours)
	if err != nil {
		return entity.Courier{}, err
	}

	return entity.Courier{
		ID:           c.ID,
		CourierType:  entity.CourierType(c.CourierType),
		Regions:      c.Regions,
		WorkingHours: hours,
	}, nil
}

func (uc *CourierUseCase) GetById(ctx context.Context, id uint64) (*entity.Courier, error) {
	const op = "CourierUseCase.GetById"

	courier, err := uc.CourierRepo.FindById(ctx, id)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return courier, nil
}

// Profile returns the courier with its earnings and rating.
func (uc *CourierUseCase) Profile(ctx context.Context, id uint64) (*CourierProfile, error) {
	const op = "CourierUseCase.Profile"

	var res CourierProfile
	err := uc.trm.Do(ctx, func(ctx context.Context) error {
		courier, err := uc.CourierRepo.FindById(ctx, id)
		if err != nil {
			return err
		}
		res.Courier = *courier

		batches, err := uc.BatchRepo.CompletedByCourierId(ctx, id)
		if err != nil {
			return err
		}

		res.Earnings, err = Earnings(batches)
		if err != nil {
			return err
		}

		if len(batches) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(batches))
		for _, b := range batches {
			ids = append(ids, b.ID)
		}

		orders, err := uc.OrderRepo.OrdersInBatches(ctx, ids)
		if err != nil {
			return err
		}

		res.Rating = Rating(batches, orders)
		return nil
	})
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return &res, nil
}

func (uc *CourierUseCase) PaginatedGetAll(ctx context.Context, offset, limit int32) ([]entity.Courier, error) {
	const op = "CourierUseCase.PaginatedGetAll"

	couriers, err := uc.CourierRepo.PaginatedFetchAll(ctx, offset, limit)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return couriers, nil
}

// Update applies the patch and reconciles the courier open batch before
// releasing the courier lock. Both writes share one transaction.
func (uc *CourierUseCase) Update(ctx context.Context, id uint64, patch CourierToUpdateDTO) (*entity.Courier, error) {
	const op = "CourierUseCase.Update"

	if patch.IsEmpty() {
		return nil, &candydelivery.Error{Op: op, Code: candydelivery.EINVALID, Message: "nothing to update"}
	}
	if err := uc.validator.Struct(patch); err != nil {
		return nil, candydelivery.ErrorWithCode(candydelivery.OpError(op, err), candydelivery.EINVALID)
	}

	var hours []entity.Interval
	if patch.WorkingHours != nil {
		var err error
		hours, err = entity.ParseIntervals(*patch.WorkingHours)
		if err != nil {
			return nil, candydelivery.OpError(op, err)
		}
	}

	ctx, unlock, err := uc.locker.Lock(ctx, id)
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}
	defer unlock()

	var courier *entity.Courier
	err = uc.trm.Do(ctx, func(ctx context.Context) error {
		courier, err = uc.CourierRepo.FindById(ctx, id)
		if err != nil {
			return err
		}

		if patch.CourierType != nil {
			courier.CourierType = entity.CourierType(*patch.CourierType)
		}
		if patch.Regions != nil {
			courier.Regions = *patch.Regions
		}
		if patch.WorkingHours != nil {
			courier.WorkingHours = hours
		}

		if err := uc.CourierRepo.Update(ctx, courier); err != nil {
			return err
		}

		_, err = uc.reconciler.Reconcile(ctx, *courier)
		return err
	})
	if err != nil {
		return nil, candydelivery.OpError(op, err)
	}

	return courier, nil
}

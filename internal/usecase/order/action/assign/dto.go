package assign

import (
	"time"

	"yandex-team.ru/candydelivery/internal/entity"
)

// AssignResult lists the orders of the courier open batch.
// AssignTime is nil when nothing was assigned.
type AssignResult struct {
	BatchID    *uint64
	Orders     []entity.Order
	AssignTime *time.Time
}

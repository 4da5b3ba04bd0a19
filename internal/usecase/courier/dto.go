package courier

import (
	"yandex-team.ru/candydelivery/internal/entity"
)

type CourierToCreateDTO struct {
	ID           uint64   `validate:"required"`
	CourierType  string   `validate:"required,courier_type"`
	Regions      []int32  `validate:"required,min=1,unique,dive,gt=0"`
	WorkingHours []string `validate:"required,min=1,unique,each_HH_MM_HH_MM_time_interval"`
}

// CourierToUpdateDTO holds the patchable attributes, nil means unchanged.
type CourierToUpdateDTO struct {
	CourierType  *string   `validate:"omitempty,courier_type"`
	Regions      *[]int32  `validate:"omitempty,min=1,unique,dive,gt=0"`
	WorkingHours *[]string `validate:"omitempty,min=1,unique,each_HH_MM_HH_MM_time_interval"`
}

func (d CourierToUpdateDTO) IsEmpty() bool {
	return d.CourierType == nil && d.Regions == nil && d.WorkingHours == nil
}

// CourierProfile is a courier with its performance metrics.
// Rating is nil until the courier completes an order.
type CourierProfile struct {
	entity.Courier
	Earnings int64
	Rating   *float64
}

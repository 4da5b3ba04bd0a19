package entity

import (
	"yandex-team.ru/candydelivery"
)

type Courier struct {
	ID           uint64
	CourierType  CourierType
	Regions      []int32
	WorkingHours []Interval
}

type CourierType string

const (
	FOOT CourierType = "foot"
	BIKE CourierType = "bike"
	CAR  CourierType = "car"
)

// Reward paid for every completed batch, multiplied by EarningsRatio.
const BatchReward = 500

func ValidCourierTypes() []string {
	return []string{
		string(FOOT),
		string(BIKE),
		string(CAR),
	}
}

func IsValidCourierType(t string) bool {
	validTypes := ValidCourierTypes()
	for _, validType := range validTypes {
		if validType == t {
			return true
		}
	}
	return false
}

// Capacity is the maximum total weight a courier of type t carries in one batch.
func (t CourierType) Capacity() (float64, error) {
	switch t {
	case FOOT:
		return 10, nil
	case BIKE:
		return 15, nil
	case CAR:
		return 50, nil
	default:
		return 0, candydelivery.Errorf(candydelivery.EINVALID, "invalid courier type %q", t)
	}
}

func (t CourierType) EarningsRatio() (int64, error) {
	switch t {
	case FOOT:
		return 2, nil
	case BIKE:
		return 5, nil
	case CAR:
		return 9, nil
	default:
		return 0, candydelivery.Errorf(candydelivery.EINVALID, "invalid courier type %q", t)
	}
}

func (c *Courier) ServesRegion(region int32) bool {
	for _, r := range c.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// CanDeliver reports whether the order lies in one of the courier regions
// and its delivery window meets the courier working hours.
func (c *Courier) CanDeliver(o Order) bool {
	return c.ServesRegion(o.Region) && AnyOverlap(c.WorkingHours, o.DeliveryHours)
}

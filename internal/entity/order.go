package entity

import "time"

// MaxOrderWeight is the upper bound of a single order weight, inclusive.
const MaxOrderWeight = 50

type Order struct {
	ID            uint64
	Weight        float64
	Region        int32
	DeliveryHours []Interval
	CompletedTime *time.Time
	BatchID       *uint64
}

func (o Order) IsCompleted() bool {
	return o.CompletedTime != nil
}

func (o Order) IsAssigned() bool {
	return o.BatchID != nil
}

// BelongsTo reports whether the order currently references batch id.
func (o Order) BelongsTo(id uint64) bool {
	return o.BatchID != nil && *o.BatchID == id
}

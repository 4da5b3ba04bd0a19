package entity

import "time"

// Batch is a group of orders assigned to one courier at once.
// CourierType is a snapshot taken at creation and drives earnings.
type Batch struct {
	ID          uint64
	CourierID   uint64
	CourierType CourierType
	CreatedAt   time.Time
	Complete    bool
}

func (b Batch) IsOpen() bool {
	return !b.Complete
}

// Earnings returns the reward for the batch, zero while it is open.
func (b Batch) Earnings() (int64, error) {
	if !b.Complete {
		return 0, nil
	}

	ratio, err := b.CourierType.EarningsRatio()
	if err != nil {
		return 0, err
	}

	return BatchReward * ratio, nil
}

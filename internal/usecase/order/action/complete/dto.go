package complete

import "time"

type OrderToCompleteDTO struct {
	CourierId    uint64
	OrderId      uint64
	CompleteTime time.Time
}

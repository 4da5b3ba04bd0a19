package order

type OrderToCreateDTO struct {
	ID            uint64   `validate:"required"`
	Weight        float64  `validate:"gt=0,lte=50,two_decimals"`
	Region        int32    `validate:"gt=0"`
	DeliveryHours []string `validate:"required,min=1,unique,each_HH_MM_HH_MM_time_interval"`
}

package courier

import (
	"reflect"

	"gopkg.in/go-playground/validator.v9"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/pkg/validations"
)

func newValidator() *validator.Validate {
	v := validator.New()
	if err := validations.Register(v); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("courier_type", courierType); err != nil {
		panic(err)
	}

	return v
}

func courierType(fl validator.FieldLevel) bool {
	if fl.Field().Type().Kind() != reflect.String {
		return false
	}

	return entity.IsValidCourierType(fl.Field().String())
}

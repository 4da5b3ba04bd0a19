package validations

import (
	"math"
	"reflect"
	"regexp"

	"gopkg.in/go-playground/validator.v9"
)

var hhmmInterval = regexp.MustCompile(`^(0[0-9]|1[0-9]|2[0-3]):([0-5][0-9])-(0[0-9]|1[0-9]|2[0-3]):([0-5][0-9])$`)

// Register adds every rule of the package to v under its tag name.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"each_HH_MM_HH_MM_time_interval": EachTimeInterval,
		"two_decimals":                   TwoDecimals,
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return nil
}

// EachTimeInterval accepts a []string of "HH:MM-HH:MM" values.
func EachTimeInterval(fl validator.FieldLevel) bool {
	return eachMatch(fl, hhmmInterval)
}

// TwoDecimals accepts floats with at most two digits after the point.
func TwoDecimals(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.Float64 && fl.Field().Kind() != reflect.Float32 {
		return false
	}

	f := fl.Field().Float() * 100
	return math.Abs(f-math.Round(f)) < 1e-6
}

func eachMatch(fl validator.FieldLevel, re *regexp.Regexp) bool {
	if fl.Field().Type().Kind() != reflect.Slice {
		return false
	}

	sl, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}

	for _, item := range sl {
		if !re.MatchString(item) {
			return false
		}
	}

	return true
}

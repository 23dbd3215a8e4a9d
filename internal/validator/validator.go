// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators and types on v.
func RegisterOn(v *validator.Validate) {
	// Lets numeric tags such as gte=0 apply to decimal amounts.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("transaction_kind", oneOf("income", "expense"))
	_ = v.RegisterValidation("transaction_sort", oneOf("date", "amount", "description"))
	_ = v.RegisterValidation("sort_order", oneOf("asc", "desc"))
	_ = v.RegisterValidation("margin_sign", oneOf("positive", "negative"))
	_ = v.RegisterValidation("goal_status", oneOf("all", "active", "completed"))
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func oneOf(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

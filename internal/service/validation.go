package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tutor-billing/internal/models"
)

// NewValidator returns a validator with the domain tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerDomainValidations(v)
	return v
}

func registerDomainValidations(v *validator.Validate) {
	_ = v.RegisterValidation("monthkey", func(fl validator.FieldLevel) bool {
		return models.IsMonthKey(fl.Field().String())
	})
	_ = v.RegisterValidation("sessiondate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.SessionDateLayout, fl.Field().String())
		return err == nil
	})
}

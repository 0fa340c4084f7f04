package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sports-prediction/internal/models"
)

// InitValidator registers custom binding validations with gin's engine
func InitValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("outcome", validOutcome)
	}
}

// validOutcome checks that a field holds a recognized outcome label
func validOutcome(fl validator.FieldLevel) bool {
	return models.IsValidOutcome(fl.Field().String())
}

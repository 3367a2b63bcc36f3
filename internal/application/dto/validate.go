package dto

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

var validate = validator.New()

// Validate aplica las etiquetas validate del DTO; los fallos envuelven domain.ErrInvalidInput.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

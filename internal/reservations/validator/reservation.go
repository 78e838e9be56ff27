package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"limito/pkg/config"
	"limito/pkg/logger"
	"limito/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateReserve checks a reserve request and returns the coerced integer
// quantity. Quantity arrives untyped so that 1.5 and "abc" surface as a
// quantity validation error instead of a body decode failure.
func (rv *ReservationValidator) ValidateReserve(req *model.ReserveRequest) (int, error) {
	var errs ValidationErrors

	if err := rv.validate.Struct(req); err != nil {
		errs = append(errs, structErrors(err)...)
	}

	quantity, qErr := ParseQuantity(req.Quantity)
	if qErr != nil {
		errs = append(errs, ValidationError{Field: "quantity", Message: qErr.Error()})
	}

	if len(errs) > 0 {
		return 0, errs
	}
	return quantity, nil
}

func (rv *ReservationValidator) ValidateRelease(req *model.ReleaseRequest) error {
	if err := rv.validate.Struct(req); err != nil {
		return ValidationErrors(structErrors(err))
	}
	return nil
}

// ParseQuantity coerces an untyped JSON quantity into an integer in
// [MinQuantity, MaxQuantity]. Fractional numbers, strings, nulls and
// out-of-range values are all rejected.
func ParseQuantity(raw any) (int, error) {
	var quantity int

	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("quantity must be an integer, got %v", v)
		}
		quantity = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("quantity must be an integer, got %v", v)
		}
		quantity = int(n)
	case int:
		quantity = v
	case nil:
		return 0, fmt.Errorf("quantity is required")
	default:
		return 0, fmt.Errorf("quantity must be an integer, got %T", raw)
	}

	if quantity < config.MinQuantity || quantity > config.MaxQuantity {
		return 0, fmt.Errorf("quantity must be between %d and %d, got %d",
			config.MinQuantity, config.MaxQuantity, quantity)
	}
	return quantity, nil
}

func structErrors(err error) []ValidationError {
	var out []ValidationError

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Field: "request", Message: err.Error()}}
	}

	for _, fe := range fieldErrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			out = append(out, ValidationError{Field: field, Message: "is required"})
		case "uuid":
			out = append(out, ValidationError{Field: field, Message: "must be a valid UUID"})
		default:
			out = append(out, ValidationError{Field: field, Message: fmt.Sprintf("failed %s validation", fe.Tag())})
		}
	}
	return out
}

func jsonFieldName(structField string) string {
	switch structField {
	case "ProductID":
		return "productId"
	case "SessionID":
		return "sessionId"
	case "Color":
		return "color"
	case "Quantity":
		return "quantity"
	case "Code":
		return "code"
	}
	return structField
}

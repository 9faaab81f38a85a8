package tracker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"

	"github.com/theirongolddev/subtrack/internal/model"
)

// Limits enforced on every stored record.
const (
	MinNameLen      = 2
	MaxNameLen      = 50
	MaxCost         = 1_000_000
	MinReminderDays = 1
	MaxReminderDays = 30
	MaxNotesLen     = 1000
)

// record carries the validation rules for a model.Subscription.
type record struct {
	ID                 string     `json:"id" validate:"required"`
	Name               string     `json:"name" validate:"required,min=2,max=50"`
	Provider           string     `json:"provider" validate:"max=200"`
	Cost               float64    `json:"cost" validate:"gt=0,lte=1000000"`
	Currency           string     `json:"currency" validate:"required,iso4217"`
	BillingCycle       string     `json:"billingCycle" validate:"required,billing_cycle"`
	RenewalDate        model.Date `json:"renewalDate" validate:"required"`
	Category           string     `json:"category" validate:"required,category"`
	Status             string     `json:"status" validate:"required,status"`
	ReminderDaysBefore int        `json:"reminderDaysBefore" validate:"min=1,max=30"`
	Notes              string     `json:"notes" validate:"max=1000"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(model.Date); ok {
			return d.Time()
		}
		return nil
	}, model.Date{})
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("billing_cycle", validateBillingCycle)
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("status", validateStatus)
	return v
}

func validateISO4217(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 3 || strings.ToUpper(s) != s {
		return false
	}
	_, err := currency.ParseISO(s)
	return err == nil
}

func validateBillingCycle(fl validator.FieldLevel) bool {
	return model.BillingCycle(fl.Field().String()).Valid()
}

func validateCategory(fl validator.FieldLevel) bool {
	return model.Category(fl.Field().String()).Valid()
}

func validateStatus(fl validator.FieldLevel) bool {
	return model.Status(fl.Field().String()).Valid()
}

// check validates s and returns a *ValidationError listing every failure.
func (st *Store) check(s model.Subscription) error {
	r := record{
		ID:                 s.ID,
		Name:               s.Name,
		Provider:           s.Provider,
		Cost:               s.Cost,
		Currency:           s.Currency,
		BillingCycle:       string(s.BillingCycle),
		RenewalDate:        s.RenewalDate,
		Category:           string(s.Category),
		Status:             string(s.Status),
		ReminderDaysBefore: s.ReminderDaysBefore,
		Notes:              s.Notes,
	}
	err := st.validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	out := &ValidationError{Index: -1}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "billing_cycle":
		return "must be one of monthly, quarterly, bi-annual, yearly"
	case "category":
		return "must be one of streaming, music, productivity, gaming, education, other"
	case "status":
		return "must be one of active, paused, cancelled"
	}
	return "is invalid"
}

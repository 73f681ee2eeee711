package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/GoArmGo/BookWave/internal/domain"
)

const minSearchTermLength = 2

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// в сообщениях используем имена полей из json
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(passwordProblems(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// passwordProblems возвращает список нарушенных правил сложности пароля
func passwordProblems(p string) []string {
	var problems []string
	if utf8.RuneCountInString(p) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			special = true
		}
	}
	if !upper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "Password must contain at least one number")
	}
	if !special {
		problems = append(problems, "Password must contain at least one special character")
	}
	return problems
}

// validateStruct проверяет структуру и переводит ошибки валидатора в domain.ValidationError
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "password" {
			messages = append(messages, passwordProblems(fe.Value().(string))...)
			continue
		}
		messages = append(messages, fieldMessage(fe))
	}
	return domain.NewValidationError(messages...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datetime":
		return "Invalid date format. Use yyyy-MM-dd"
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// validateSearchTerm повторяет правила поиска: не пустой и не короче двух символов
func validateSearchTerm(term string) error {
	if utf8.RuneCountInString(strings.TrimSpace(term)) < minSearchTermLength {
		return domain.NewValidationError("Invalid search term")
	}
	return nil
}

func validatePage(page int) error {
	if page <= 0 {
		return domain.NewValidationError("Invalid page number")
	}
	return nil
}

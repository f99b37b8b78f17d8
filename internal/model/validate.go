package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormError is a client-side validation failure shown inline; it never
// reaches the network.
type FormError string

func (e FormError) Error() string { return string(e) }

const (
	ErrFillAllFields    FormError = "Please fill in all fields"
	ErrInvalidEmail     FormError = "Please enter a valid email"
	ErrPasswordTooShort FormError = "Password must be at least 8 characters"
	ErrPasswordMismatch FormError = "Passwords do not match"
	ErrTooYoung         FormError = "You must be at least 13 years old"
	ErrCaseNameRequired FormError = "Case name is required"
	ErrCaseTypeRequired FormError = "Case type is required"
)

const MinAge = 13

var validate = validator.New(validator.WithRequiredStructEnabled())

// SignupForm is the raw signup input before it becomes a SignupRequest.
type SignupForm struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Age             string `json:"age" validate:"required"`
	Gender          string `json:"gender" validate:"required"`
}

func ValidateLogin(req LoginRequest) error {
	return formError(validate.Struct(req))
}

// ValidateSignup checks the form and returns the request to send.
func ValidateSignup(f SignupForm) (SignupRequest, error) {
	if err := formError(validate.Struct(f)); err != nil {
		return SignupRequest{}, err
	}
	age, err := strconv.Atoi(strings.TrimSpace(f.Age))
	if err != nil || age < MinAge {
		return SignupRequest{}, ErrTooYoung
	}
	return SignupRequest{
		Name:            f.Name,
		Email:           f.Email,
		CreatePassword:  f.Password,
		ConfirmPassword: f.ConfirmPassword,
		Age:             age,
		Gender:          f.Gender,
	}, nil
}

func ValidateCreateCase(req CreateCaseRequest) error {
	req.Name, req.Type = strings.TrimSpace(req.Name), strings.TrimSpace(req.Type)
	err := validate.Struct(req)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	if msg, ok := caseFieldMessages[verrs[0].Field()]; ok {
		return msg
	}
	return ErrFillAllFields
}

var caseFieldMessages = map[string]FormError{
	"Name": ErrCaseNameRequired,
	"Type": ErrCaseTypeRequired,
}

// tag order decides which message wins when several rules fail.
var tagMessages = []struct {
	tag string
	err FormError
}{
	{"required", ErrFillAllFields},
	{"email", ErrInvalidEmail},
	{"min", ErrPasswordTooShort},
	{"eqfield", ErrPasswordMismatch},
}

func formError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, tm := range tagMessages {
		for _, fe := range verrs {
			if fe.Tag() == tm.tag {
				return tm.err
			}
		}
	}
	return ErrFillAllFields
}

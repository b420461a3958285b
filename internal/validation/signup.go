package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SignupInput is the signup request body. Validate tags mirror the account
// schema constraints; ValidateSignup normalizes a copy before applying them.
type SignupInput struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=4,max=30,username_charset"`
	FirstName       string `json:"firstName" validate:"required,min=2,max=30"`
	LastName        string `json:"lastName" validate:"omitempty,min=2,max=30"`
	Password        string `json:"password" validate:"required,min=8,max=32,password_upper,password_lower,password_digit,password_special"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// VerifyEmailInput is the verify-email request body.
type VerifyEmailInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,number"`
}

var (
	usernameCharsetRe = regexp.MustCompile(`^[a-zA-Z0-9@._-]+$`)
	passwordUpperRe   = regexp.MustCompile(`[A-Z]`)
	passwordLowerRe   = regexp.MustCompile(`[a-z]`)
	passwordDigitRe   = regexp.MustCompile(`[0-9]`)
	passwordSpecialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	matches := func(re *regexp.Regexp) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}
	}
	mustRegister(v, "username_charset", matches(usernameCharsetRe))
	mustRegister(v, "password_upper", matches(passwordUpperRe))
	mustRegister(v, "password_lower", matches(passwordLowerRe))
	mustRegister(v, "password_digit", matches(passwordDigitRe))
	mustRegister(v, "password_special", matches(passwordSpecialRe))
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidateSignup normalizes the input (trim all fields, lowercase email) and
// validates the result. On success it returns the normalized input; on failure
// it returns the full list of field-scoped messages and a zero value, so
// normalization is never partially applied.
func ValidateSignup(in SignupInput) (SignupInput, []string) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Password = strings.TrimSpace(in.Password)
	in.ConfirmPassword = strings.TrimSpace(in.ConfirmPassword)

	if msgs := collectMessages(validate.Struct(in), signupMessage); msgs != nil {
		return SignupInput{}, msgs
	}
	return in, nil
}

// ValidateVerifyEmail normalizes and validates a verify-email request.
func ValidateVerifyEmail(in VerifyEmailInput) (VerifyEmailInput, []string) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Code = strings.TrimSpace(in.Code)

	if msgs := collectMessages(validate.Struct(in), verifyEmailMessage); msgs != nil {
		return VerifyEmailInput{}, msgs
	}
	return in, nil
}

func collectMessages(err error, messageFor func(validator.FieldError) string) []string {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{"Invalid request."}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, messageFor(fe))
	}
	return msgs
}

func signupMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required."
		}
		return "Invalid email format."
	case "Username":
		switch fe.Tag() {
		case "required":
			return "Username is required."
		case "min":
			return "Username must be at least 4 characters long."
		case "max":
			return "Username must not exceed 30 characters."
		default:
			return "Username can only contain letters, numbers, @, -, _, and ."
		}
	case "FirstName":
		switch fe.Tag() {
		case "required":
			return "First name is required."
		case "min":
			return "First name must be at least 2 characters long."
		default:
			return "First name must not exceed 30 characters."
		}
	case "LastName":
		if fe.Tag() == "min" {
			return "Last name must be at least 2 characters long."
		}
		return "Last name must not exceed 30 characters."
	case "Password":
		switch fe.Tag() {
		case "required":
			return "Password is required."
		case "min":
			return "Password must be at least 8 characters."
		case "max":
			return "Password must not exceed 32 characters."
		case "password_upper":
			return "Password must contain at least one uppercase letter."
		case "password_lower":
			return "Password must contain at least one lowercase letter."
		case "password_digit":
			return "Password must contain at least one number."
		default:
			return "Password must contain at least one special character."
		}
	case "ConfirmPassword":
		return "Passwords do not match."
	}
	return "Invalid value for " + fe.Field() + "."
}

func verifyEmailMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required."
		}
		return "Invalid email format."
	case "Code":
		if fe.Tag() == "required" {
			return "Verification code is required."
		}
		return "Verification code must be a 6-digit number."
	}
	return "Invalid value for " + fe.Field() + "."
}

// ABOUTME: Input validation for auth requests and proxied backend paths
// ABOUTME: Wraps go-playground/validator with human-readable, "; "-joined messages

package services

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/vocalswap/vocalswap-web/models"
)

// emailPattern is deliberately loose; the backend owns real address validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidProxyPath is returned for proxy paths that could escape /api/.
var ErrInvalidProxyPath = errors.New("invalid proxy path")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must := func(tag string, fn func(string) bool) {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	must("loose_email", emailPattern.MatchString)
	must("has_upper", containsRune(unicode.IsUpper))
	must("has_lower", containsRune(unicode.IsLower))
	must("has_digit", containsRune(unicode.IsDigit))
	return v
}

func containsRune(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		return strings.IndexFunc(s, pred) >= 0
	}
}

// ValidationError lists every problem found in a request body.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

type loginInput struct {
	Email    string `validate:"required,loose_email"`
	Password string `validate:"required"`
}

type registerInput struct {
	Name     string `validate:"omitempty,max=100"`
	Email    string `validate:"required,loose_email"`
	Password string `validate:"required,min=8,has_upper,has_lower,has_digit"`
}

// ValidateLogin checks a login body and returns credentials with the email
// lower-cased and trimmed. Non-string fields count as missing.
func ValidateLogin(req models.LoginRequest) (models.Credentials, error) {
	in := loginInput{
		Email:    asString(req.Email),
		Password: asString(req.Password),
	}
	if problems := check(in); len(problems) > 0 {
		return models.Credentials{}, &ValidationError{Problems: problems}
	}
	return models.Credentials{
		Email:    sanitizeEmail(in.Email),
		Password: in.Password,
	}, nil
}

// ValidateRegistration checks a registration body. A blank name is treated as
// absent and omitted from the backend payload.
func ValidateRegistration(req models.RegisterRequest) (models.Registration, error) {
	var problems []string
	if req.Name != nil {
		if _, ok := req.Name.(string); !ok {
			problems = append(problems, "Name must be a string")
		}
	}

	in := registerInput{
		Name:     strings.TrimSpace(asString(req.Name)),
		Email:    asString(req.Email),
		Password: asString(req.Password),
	}
	problems = append(problems, check(in)...)
	if len(problems) > 0 {
		return models.Registration{}, &ValidationError{Problems: problems}
	}

	reg := models.Registration{
		Email:    sanitizeEmail(in.Email),
		Password: in.Password,
	}
	if in.Name != "" {
		name := in.Name
		reg.Name = &name
	}
	return reg, nil
}

// ValidateProxyPath rejects escaped proxy paths containing dot segments or
// control characters, so a request cannot climb out of the backend's /api/ tree.
func ValidateProxyPath(escaped string) error {
	if escaped == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProxyPath)
	}
	for _, seg := range strings.Split(escaped, "/") {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidProxyPath, sanitizeForLog(escaped))
		}
		if decoded == "." || decoded == ".." || strings.ContainsAny(decoded, "/\\") {
			return fmt.Errorf("%w: %s", ErrInvalidProxyPath, sanitizeForLog(escaped))
		}
		if strings.IndexFunc(decoded, isControl) >= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidProxyPath, sanitizeForLog(escaped))
		}
	}
	return nil
}

func check(in any) []string {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"Invalid request"}
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		problems = append(problems, fieldMessage(fe))
	}
	return problems
}

// fieldMessage converts a single FieldError into the message shown to users.
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "loose_email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "has_upper":
		return field + " must contain at least one uppercase letter"
	case "has_lower":
		return field + " must contain at least one lowercase letter"
	case "has_digit":
		return field + " must contain at least one number"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func sanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isControl(r rune) bool {
	return r < 32 || r == 127
}

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, s)
}

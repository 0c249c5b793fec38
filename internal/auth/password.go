package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum required password length.
const MinPasswordLength = 6

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordTooLong = errors.New("password exceeds maximum length of 72 bytes")
)

// ValidationError is a single rule violation reported to the client.
type ValidationError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ValidationErrors collects every rule a registration request broke.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	descriptions := make([]string, len(v))
	for i, e := range v {
		descriptions[i] = e.Description
	}
	return strings.Join(descriptions, " ")
}

// ValidatePassword checks password against the policy and returns every
// violation, or nil when the password is acceptable.
func ValidatePassword(password string) ValidationErrors {
	var errs ValidationErrors

	if len(password) < MinPasswordLength {
		errs = append(errs, ValidationError{
			Code:        "PasswordTooShort",
			Description: fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength),
		})
	}
	if len(password) > maxPasswordBytes {
		errs = append(errs, ValidationError{
			Code:        "PasswordTooLong",
			Description: fmt.Sprintf("Passwords must be at most %d bytes.", maxPasswordBytes),
		})
	}

	var hasDigit, hasLower, hasUpper, hasOther bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		default:
			hasOther = true
		}
	}

	if !hasOther {
		errs = append(errs, ValidationError{
			Code:        "PasswordRequiresNonAlphanumeric",
			Description: "Passwords must have at least one non alphanumeric character.",
		})
	}
	if !hasDigit {
		errs = append(errs, ValidationError{
			Code:        "PasswordRequiresDigit",
			Description: "Passwords must have at least one digit ('0'-'9').",
		})
	}
	if !hasLower {
		errs = append(errs, ValidationError{
			Code:        "PasswordRequiresLower",
			Description: "Passwords must have at least one lowercase ('a'-'z').",
		})
	}
	if !hasUpper {
		errs = append(errs, ValidationError{
			Code:        "PasswordRequiresUpper",
			Description: "Passwords must have at least one uppercase ('A'-'Z').",
		})
	}

	return errs
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

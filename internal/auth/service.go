package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/database/users"
	"github.com/mrlokans/santos/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRequired      = errors.New("email is required")
)

// UserStore defines the user data access the service needs.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TouchLastLogin(ctx context.Context, userID uint, at time.Time) error
	AddToRole(ctx context.Context, user *entities.User, roleName string) (bool, error)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// Service handles registration, login and role management.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	config config.Auth

	// Compared against when the email is unknown so both failure paths cost a bcrypt check.
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(users UserStore, tokens *TokenIssuer, cfg config.Auth) (*Service, error) {
	dummy, err := HashPassword("not-a-real-password", cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		config:    cfg,
		dummyHash: dummy,
	}, nil
}

// Register creates a credential record keyed by email. Rule violations are
// returned together as ValidationErrors; no token is issued.
func (s *Service) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	var errs ValidationErrors
	if len(email) > 254 || !emailPattern.MatchString(email) {
		errs = append(errs, ValidationError{
			Code:        "InvalidEmail",
			Description: fmt.Sprintf("Email '%s' is invalid.", email),
		})
	} else {
		exists, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if exists {
			errs = append(errs, duplicateUserName(email))
		}
	}
	errs = append(errs, ValidatePassword(password)...)
	if len(errs) > 0 {
		return errs
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		UserName:     email,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can take the email after the check above.
		if errors.Is(err, users.ErrDuplicateEmail) {
			return ValidationErrors{duplicateUserName(email)}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func duplicateUserName(email string) ValidationError {
	return ValidationError{
		Code:        "DuplicateUserName",
		Description: fmt.Sprintf("Username '%s' is already taken.", email),
	}
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = CheckPassword(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.UserName, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return &LoginResult{Token: token, Email: user.Email, ExpiresAt: expiresAt}, nil
}

// PromoteResult describes the outcome of PromoteToAdmin.
type PromoteResult struct {
	Email        string
	AlreadyAdmin bool
}

// PromoteToAdmin grants the Admin role. Quote characters and surrounding
// whitespace are stripped; an empty email targets the maintainer account.
func (s *Service) PromoteToAdmin(ctx context.Context, email string) (*PromoteResult, error) {
	email = CleanEmail(email)
	if email == "" {
		email = s.config.MaintainerEmail
	}
	if email == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return nil, err
	}

	added, err := s.users.AddToRole(ctx, user, entities.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &PromoteResult{Email: user.Email, AlreadyAdmin: !added}, nil
}

// HasRole reports whether the user identified by email holds role.
// Unknown users hold no roles.
func (s *Service) HasRole(ctx context.Context, email, role string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.HasRole(role), nil
}

// ValidateToken verifies a bearer token.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}

// CleanEmail trims whitespace and removes stray quote characters.
func CleanEmail(raw string) string {
	return strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(raw))
}

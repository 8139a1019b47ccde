package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"notetutor/internal/model"
	"notetutor/internal/pkg/jwtutil"
	"notetutor/internal/repository"
)

const minPasswordLength = 8

// AuthService is the identity provider: it registers users, checks passwords
// and issues the bearer tokens every other service trusts.
type AuthService struct {
	users         UserStore
	jwtSecret     string
	jwtExpiration time.Duration
	now           func() time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(users UserStore, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	user, password, err := newUserFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(user.Username, user.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	// Unknown user and wrong password look the same to the caller.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredential
	}

	now := s.now()
	if err := s.users.TouchLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return s.issue(user)
}

// CurrentUser resolves the identity behind a verified token.
func (s *AuthService) CurrentUser(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func newUserFromInput(input RegisterInput) (*model.User, string, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)
	if username == "" || !strings.Contains(email, "@") || len(password) < minPasswordLength {
		return nil, "", ErrInvalidInput
	}
	return &model.User{Username: username, Email: email}, password, nil
}

func (s *AuthService) ensureAvailable(username, email string) error {
	if existing, err := s.users.GetByUsername(username); err != nil {
		return err
	} else if existing != nil {
		return ErrUsernameExists
	}
	if existing, err := s.users.GetByEmail(email); err != nil {
		return err
	} else if existing != nil {
		return ErrEmailExists
	}
	return nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token failed: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

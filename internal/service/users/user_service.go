package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/idgen"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const maxIDAttempts = 5

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)

type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, login, password string) (*LoginResult, error)
	List(ctx context.Context, p auth.Principal) ([]domain.User, error)
	Delete(ctx context.Context, p auth.Principal, userID string) error
}

type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  domain.User
}

type UserService struct {
	repo          repository.UserRepository
	tokens        TokenIssuer
	log           logrus.FieldLogger
	adminUsername string
	bcryptCost    int
}

type UserServiceOption func(*UserService)

// WithAdminUsername grants the admin role to the account registered under name.
func WithAdminUsername(name string) UserServiceOption {
	return func(s *UserService) {
		s.adminUsername = strings.TrimSpace(name)
	}
}

func WithBcryptCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.bcryptCost = cost
	}
}

func NewUserService(repo repository.UserRepository, tokens TokenIssuer, log logrus.FieldLogger, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repo:       repo,
		tokens:     tokens,
		log:        log.WithField("component", "user_service"),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return domain.Missing("username")
	case strings.TrimSpace(in.Email) == "":
		return domain.Missing("email")
	case in.Password == "":
		return domain.Missing("password")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return domain.Invalid("email", "not a valid address")
	}
	return nil
}

// Register stores a new account under the next free U<digits> id. Id
// collisions with concurrent registrations are retried.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if s.adminUsername != "" && user.Username == s.adminUsername {
		user.Role = domain.RoleAdmin
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		last, err := s.repo.LastUserID(ctx)
		if err != nil {
			return nil, err
		}
		user.UserID = idgen.NextUserID(last)

		err = s.repo.Create(ctx, user)
		if err == nil {
			s.log.WithFields(logrus.Fields{"user_id": user.UserID, "role": user.Role}).Info("user registered")
			return user, nil
		}
		if !errors.Is(err, repository.ErrUserIDTaken) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"user_id": user.UserID, "attempt": attempt}).Warn("user id taken, retrying")
	}
	return nil, fmt.Errorf("allocate user id after %d attempts: %w", maxIDAttempts, domain.ErrConflict)
}

func (s *UserService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, domain.Missing("login")
	}
	if password == "" {
		return nil, domain.Missing("password")
	}

	user, err := s.repo.GetByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: *user}, nil
}

func (s *UserService) List(ctx context.Context, p auth.Principal) ([]domain.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Delete removes the account together with its bookings and payments.
func (s *UserService) Delete(ctx context.Context, p auth.Principal, userID string) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Missing("user_id")
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Warn("user deleted")
	return nil
}

var _ UserUseCase = (*UserService)(nil)

// Package identity manages accounts, password verification and bearer
// tokens.
package identity

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
	"medifinder/m/internal/database"
)

const bcryptCost = 10

const invalidCredentials = "Invalid email or password"

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// AuthResult is returned by Signup and Login. User never carries the
// password hash.
type AuthResult struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type Service struct {
	db     *sqlx.DB
	tokens *Tokens
}

func NewService(db *sqlx.DB, tokens *Tokens) *Service {
	return &Service{db: db, tokens: tokens}
}

// Tokens exposes the signer so transport layers can verify bearer tokens.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Signup creates a customer account and signs a token for it. Emails are
// matched exactly, so differently cased addresses are distinct accounts.
func (s *Service) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	user, err := s.create(ctx, in, domain.RoleUser, nil)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

// CreateStaff provisions a pharmacy account already linked to pharmacyID.
// It is not reachable over HTTP.
func (s *Service) CreateStaff(ctx context.Context, in SignupInput, pharmacyID string) (domain.User, error) {
	pharmacyID = strings.TrimSpace(pharmacyID)
	if pharmacyID == "" {
		return domain.User{}, apperr.New(apperr.Validation, "A pharmacy id is required for staff accounts")
	}
	return s.create(ctx, in, domain.RolePharmacy, &pharmacyID)
}

func (s *Service) create(ctx context.Context, in SignupInput, role domain.Role, pharmacyID *string) (domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.User{}, apperr.New(apperr.Validation, "Name, email, and password are required")
	}
	if len(in.Password) < 6 {
		return domain.User{}, apperr.New(apperr.Validation, "Password must be at least 6 characters")
	}

	_, found, err := s.lookup(ctx, `SELECT id, email, name, phone, password, role, pharmacy_id, created_at FROM users WHERE email = ?`, in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if found {
		return domain.User{}, apperr.New(apperr.Conflict, "An account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "hash password"), "unable to secure password")
	}

	var phone *string
	if p := strings.TrimSpace(in.Phone); p != "" {
		phone = &p
	}
	id := "user-" + uuid.NewString()
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id, email, name, phone, password, role, pharmacy_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, in.Email, in.Name, phone, string(hashed), role, pharmacyID)
	switch {
	case database.IsUniqueViolation(err):
		return domain.User{}, apperr.Wrap(apperr.Conflict, err, "An account with this email already exists")
	case database.IsForeignKeyViolation(err):
		return domain.User{}, apperr.Wrap(apperr.NotFound, err, "Pharmacy not found")
	case err != nil:
		return domain.User{}, s.unexpected(err, "insert user", "unable to create account")
	}

	user, found, err := s.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, apperr.New(apperr.Unexpected, "account vanished after creation")
	}
	log.Info().Str("user", id).Str("role", string(role)).Msg("account created")
	return user, nil
}

// Login verifies the password. Unknown email and wrong password fail with
// the same message.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if email == "" || password == "" {
		return AuthResult{}, apperr.New(apperr.Validation, "Email and password are required")
	}
	user, found, err := s.lookup(ctx, `SELECT id, email, name, phone, password, role, pharmacy_id, created_at FROM users WHERE email = ?`, email)
	if err != nil {
		return AuthResult{}, err
	}
	if !found {
		return AuthResult{}, apperr.New(apperr.Authentication, invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Authentication, err, invalidCredentials)
	}
	user.Password = ""
	return s.issue(user)
}

func (s *Service) UserByID(ctx context.Context, id string) (domain.User, bool, error) {
	return s.lookup(ctx, `SELECT id, email, name, phone, role, pharmacy_id, created_at FROM users WHERE id = ?`, id)
}

func (s *Service) UserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return s.lookup(ctx, `SELECT id, email, name, phone, role, pharmacy_id, created_at FROM users WHERE email = ?`, email)
}

func (s *Service) lookup(ctx context.Context, query string, arg any) (domain.User, bool, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, s.unexpected(err, "select user", "unable to load account")
	}
	return u, true, nil
}

func (s *Service) issue(u domain.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: token}, nil
}

func (s *Service) unexpected(err error, op, message string) error {
	log.Error().Err(err).Str("op", op).Msg("identity store failure")
	return apperr.Wrap(apperr.Unexpected, errors.Wrap(err, op), message)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/feedline/feedline/internal/fault"
)

// TokenIssuer issues bearer tokens for an identity.
type TokenIssuer interface {
	Issue(id Identity) (string, time.Time, error)
}

// Service provides account operations: signup, login and status.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

// NewService creates a Service. A nil logger uses slog.Default.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("token issuer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}, nil
}

// dummyPasswordHash is verified when the email is unknown so that login
// takes the same time either way. It never matches any password.
//
//nolint:gosec // G101: not a credential
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

const (
	msgInvalidCredentials = "A user with this email could not be found or the password is wrong."
	msgUserNotFound       = "User not found."
)

// SignupInput is the data required to create an account.
type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (in *SignupInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
}

// Validate reports every violated signup rule.
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("Please enter a valid email."),
			is.Email.Error("Please enter a valid email."),
		),
		validation.Field(&in.Password,
			validation.Required.Error("Password must be at least 8 alphanumeric characters."),
			validation.RuneLength(8, 0).Error("Password must be at least 8 alphanumeric characters."),
			is.Alphanumeric.Error("Password must be at least 8 alphanumeric characters."),
		),
		validation.Field(&in.Name,
			validation.Required.Error("Name must not be empty."),
		),
	)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	UserID    ulid.ULID
	ExpiresAt time.Time
}

// Signup creates a new account with the default status and no posts.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	in.normalize()
	if err := fault.FromValidation("Validation failed.", in.Validate()); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, fault.Conflict("E-Mail address already exists!", nil)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fault.Internal("signup failed", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fault.Internal("signup failed", err)
	}

	user := &User{
		ID:           ulid.Make(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Status:       DefaultStatus,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, fault.Conflict("E-Mail address already exists!", err)
		}
		return nil, fault.Internal("signup failed", err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.String())
	return user, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, lookupErr := s.users.GetByEmail(ctx, email)
	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, fault.Internal("login failed", lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if user == nil {
		return nil, fault.Unauthenticated(msgInvalidCredentials)
	}
	if verifyErr != nil {
		return nil, fault.Internal("login failed", oops.Code("AUTH_VERIFY_FAILED").
			With("user_id", user.ID.String()).
			Wrap(verifyErr))
	}
	if !valid {
		return nil, fault.Unauthenticated(msgInvalidCredentials)
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fault.Internal("login failed", err)
	}
	return &LoginResult{Token: token, UserID: user.ID, ExpiresAt: expiresAt}, nil
}

// upgradeHash re-hashes a legacy password. Failures are logged; login
// succeeds regardless.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID.String(), "error", err)
		return
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "password rehash not saved", "user_id", user.ID.String(), "error", err)
	}
}

// Status returns the caller's status.
func (s *Service) Status(ctx context.Context, ac AuthContext) (string, error) {
	user, err := s.currentUser(ctx, ac)
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

// UpdateStatus replaces the caller's status.
func (s *Service) UpdateStatus(ctx context.Context, ac AuthContext, status string) error {
	if err := RequireAuthenticated(ac); err != nil {
		return err
	}

	status = strings.TrimSpace(status)
	if status == "" {
		return fault.Invalid("Validation failed.", []string{"Status must not be empty."})
	}

	user, err := s.currentUser(ctx, ac)
	if err != nil {
		return err
	}

	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fault.NotFound(msgUserNotFound, err)
		}
		return fault.Internal("status update failed", err)
	}
	return nil
}

func (s *Service) currentUser(ctx context.Context, ac AuthContext) (*User, error) {
	id, err := ac.Require()
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fault.NotFound(msgUserNotFound, err)
		}
		return nil, fault.Internal("user lookup failed", err)
	}
	return user, nil
}

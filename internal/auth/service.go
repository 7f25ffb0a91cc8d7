package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/validation"
	"github.com/sirupsen/logrus"
)

const badCredentials = "Please Enter Correct UserName and Password"

// ErrNoAccount is returned by Accounts lookups that match no active account.
var ErrNoAccount = errors.New("no such account")

// Account is a login identity, admin or customer.
type Account struct {
	ID           int64
	Username     string
	Email        string
	Role         string
	PasswordHash string
}

type Accounts interface {
	// ActiveAdmin matches login against username first, then email.
	ActiveAdmin(ctx context.Context, login string) (Account, error)
	ActiveCustomer(ctx context.Context, email string) (Account, error)
}

// Revocations remembers logged out tokens.
type Revocations interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Session struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	Accounts Accounts
	Tokens   *Tokens
	Revoked  Revocations // optional; without it Logout cannot revoke
	Log      *logrus.Logger
}

func (s *Service) logger() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

type lookup func(ctx context.Context, login string) (Account, error)

// Login accepts an admin username or email, or a customer email.
func (s *Service) Login(ctx context.Context, c Credentials) (Session, error) {
	return s.login(ctx, "user", c, s.Accounts.ActiveAdmin, s.Accounts.ActiveCustomer)
}

func (s *Service) AdminLogin(ctx context.Context, c Credentials) (Session, error) {
	return s.login(ctx, "admin", c, s.Accounts.ActiveAdmin)
}

func (s *Service) CustomerLogin(ctx context.Context, c Credentials) (Session, error) {
	return s.login(ctx, "customer", c, s.Accounts.ActiveCustomer)
}

func (s *Service) login(ctx context.Context, kind string, c Credentials, finders ...lookup) (Session, error) {
	if err := validation.GuardInjection(c.Username, "Username"); err != nil {
		return Session{}, err
	}
	if err := validation.GuardInjection(c.Password, "Password"); err != nil {
		return Session{}, err
	}
	log := s.logger().WithFields(logrus.Fields{"kind": kind, "username": c.Username})
	log.Info("authenticating")

	acct, err := s.find(ctx, c.Username, finders)
	if err != nil {
		if errors.Is(err, ErrNoAccount) {
			log.Warn("authentication failed")
			return Session{}, apperr.Unauthorized(badCredentials)
		}
		return Session{}, err
	}
	ok, err := CheckPassword(acct.PasswordHash, c.Password)
	if err != nil || !ok {
		log.Warn("authentication failed")
		return Session{}, apperr.Unauthorized(badCredentials)
	}

	token, p, err := s.Tokens.Issue(acct)
	if err != nil {
		return Session{}, err
	}
	log.WithField("role", p.Role).Info("authenticated")
	return Session{
		Token:     token,
		Type:      "Bearer",
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Role:      p.Role,
		ExpiresAt: p.ExpiresAt,
	}, nil
}

func (s *Service) find(ctx context.Context, login string, finders []lookup) (Account, error) {
	for _, f := range finders {
		a, err := f(ctx, login)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNoAccount) {
			return Account{}, err
		}
	}
	return Account{}, ErrNoAccount
}

// Authenticate verifies a bearer token and that it has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	p, err := s.Tokens.Parse(token)
	if err != nil {
		return Principal{}, apperr.Unauthorized("Invalid or expired token")
	}
	if s.Revoked != nil {
		revoked, err := s.Revoked.IsRevoked(ctx, p.TokenID)
		if err != nil {
			return Principal{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Principal{}, apperr.Unauthorized("Invalid or expired token")
		}
	}
	return p, nil
}

func (s *Service) Validate(ctx context.Context, token string) bool {
	_, err := s.Authenticate(ctx, token)
	return err == nil
}

// Logout revokes the token until it expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	p, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if s.Revoked != nil {
		if err := s.Revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	s.logger().WithField("username", p.Username).Info("logged out")
	return nil
}

// Exists reports whether login names an active admin or customer.
func (s *Service) Exists(ctx context.Context, login string) (bool, error) {
	_, err := s.find(ctx, login, []lookup{s.Accounts.ActiveAdmin, s.Accounts.ActiveCustomer})
	if errors.Is(err, ErrNoAccount) {
		return false, nil
	}
	return err == nil, err
}

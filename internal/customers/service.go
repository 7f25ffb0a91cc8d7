package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/auth"
	"github.com/ariefcatur/go-grocery-orders/internal/validation"
	"github.com/sirupsen/logrus"
)

type Service struct {
	Store Store
	Log   *logrus.Logger
	// Hash defaults to auth.HashPassword.
	Hash func(plain string) (string, error)
}

func (s *Service) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

func (s *Service) hash(plain string) (string, error) {
	if s.Hash != nil {
		return s.Hash(plain)
	}
	return auth.HashPassword(plain)
}

func (p Profile) fields() validation.CustomerFields {
	return validation.CustomerFields{
		Name:          p.Name,
		Email:         p.Email,
		Address:       p.Address,
		ContactNumber: p.ContactNumber,
	}
}

func (s *Service) Register(ctx context.Context, r Registration) (Customer, error) {
	s.log().WithField("email", r.Email).Info("registering customer")

	p := Profile{Name: r.Name, Email: r.Email, Address: r.Address, ContactNumber: r.ContactNumber}
	if err := validation.Registration(p.fields(), r.Password); err != nil {
		return Customer{}, err
	}
	taken, err := s.Store.EmailTaken(ctx, r.Email)
	if err != nil {
		return Customer{}, err
	}
	if taken {
		return Customer{}, apperr.Conflict("Email already exists: %s", r.Email)
	}
	if r.Password != r.ConfirmPassword {
		return Customer{}, apperr.Validation("Passwords do not match")
	}

	h, err := s.hash(r.Password)
	if err != nil {
		return Customer{}, fmt.Errorf("hash password: %w", err)
	}
	c := Customer{
		Name:          strings.TrimSpace(r.Name),
		Email:         strings.TrimSpace(r.Email),
		Address:       r.Address,
		ContactNumber: strings.TrimSpace(r.ContactNumber),
		PasswordHash:  h,
	}
	if err := s.Store.Insert(ctx, &c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Customer{}, apperr.Conflict("Email already exists: %s", r.Email)
		}
		return Customer{}, err
	}
	s.log().WithField("customer_id", c.ID).Info("customer registered")
	return c, nil
}

func (s *Service) get(ctx context.Context, id int64) (Customer, error) {
	c, err := s.Store.ByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Customer{}, apperr.NotFound("Customer not found with ID: %d", id)
	}
	return c, err
}

func (s *Service) Update(ctx context.Context, id int64, p Profile) (Customer, error) {
	s.log().WithField("customer_id", id).Info("updating customer")

	c, err := s.get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if err := validation.CustomerUpdate(p.fields()); err != nil {
		return Customer{}, err
	}
	if c.Email != p.Email {
		taken, err := s.Store.EmailTaken(ctx, p.Email)
		if err != nil {
			return Customer{}, err
		}
		if taken {
			return Customer{}, apperr.Conflict("Email already exists: %s", p.Email)
		}
	}

	c.Name = strings.TrimSpace(p.Name)
	c.Email = strings.TrimSpace(p.Email)
	c.Address = p.Address
	c.ContactNumber = strings.TrimSpace(p.ContactNumber)
	if err := s.Store.Update(ctx, &c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Customer{}, apperr.Conflict("Email already exists: %s", p.Email)
		}
		return Customer{}, err
	}
	s.log().WithField("customer_id", id).Info("customer updated")
	return c, nil
}

func (s *Service) UpdatePassword(ctx context.Context, id int64, password string) error {
	s.log().WithField("customer_id", id).Info("updating customer password")

	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := validation.Password(password); err != nil {
		return err
	}
	h, err := s.hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.SetPassword(ctx, id, h)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Customer, error) {
	return s.get(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Customer, error) {
	c, err := s.Store.ActiveByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Customer{}, apperr.NotFound("Customer not found with email: %s", email)
	}
	return c, err
}

func (s *Service) SearchByName(ctx context.Context, name string) ([]Customer, error) {
	s.log().WithField("name", validation.Sanitize(name)).Info("searching customers")

	if !validation.HasText(name) {
		return nil, apperr.Validation("Customer name cannot be empty")
	}
	if err := validation.GuardInjection(name, "Customer Name"); err != nil {
		return nil, err
	}
	out, err := s.Store.SearchByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("Customer not found")
	}
	return out, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Customer, error) {
	return s.Store.ListActive(ctx)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	s.log().WithField("customer_id", id).Info("deactivating customer")

	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return s.Store.SetActive(ctx, id, false)
}

// EnsureAdmin creates the bootstrap administrator unless one with the same
// username or email is already active. Blank settings disable it.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if !validation.HasText(username) || !validation.HasText(password) {
		return false, nil
	}
	for _, login := range []string{username, email} {
		if !validation.HasText(login) {
			continue
		}
		_, err := s.Store.ActiveAdmin(ctx, login)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return false, err
		}
	}

	h, err := s.hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	a := AdminUser{Username: username, Email: email, FullName: username, Role: auth.RoleAdmin, PasswordHash: h}
	if err := s.Store.InsertAdmin(ctx, &a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	s.log().WithField("username", username).Info("admin user created")
	return true, nil
}

// ActiveAdmin and ActiveCustomer make Service an auth.Accounts.

func (s *Service) ActiveAdmin(ctx context.Context, login string) (auth.Account, error) {
	a, err := s.Store.ActiveAdmin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return auth.Account{}, auth.ErrNoAccount
	}
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		Role:         a.Role,
		PasswordHash: a.PasswordHash,
	}, nil
}

func (s *Service) ActiveCustomer(ctx context.Context, email string) (auth.Account, error) {
	c, err := s.Store.ActiveByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return auth.Account{}, auth.ErrNoAccount
	}
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account{
		ID:           c.ID,
		Username:     c.Email,
		Email:        c.Email,
		Role:         auth.RoleCustomer,
		PasswordHash: c.PasswordHash,
	}, nil
}

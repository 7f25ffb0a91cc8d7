package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/validation"
	"github.com/sirupsen/logrus"
)

// StockEvents is told when stock or visibility changes outside an order.
// Implementations must not block.
type StockEvents interface {
	ProductStockChanged(ctx context.Context, productID int64, quantity int, active bool)
}

type Service struct {
	Store  Store
	Events StockEvents // optional
	Log    *logrus.Logger
}

func (s *Service) stockChanged(ctx context.Context, id int64, quantity int, active bool) {
	if s.Events != nil {
		s.Events.ProductStockChanged(ctx, id, quantity, active)
	}
}

func (s *Service) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

func (in ProductInput) fields() validation.ProductFields {
	return validation.ProductFields{
		Name:        in.Name,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Category:    in.Category,
		Description: in.Description,
	}
}

func duplicateName(name string) error {
	return apperr.Conflict("Product with name '%s' already exists", name)
}

func (s *Service) nameTaken(ctx context.Context, name string) (bool, error) {
	_, err := s.Store.ActiveByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) Register(ctx context.Context, in ProductInput) (Product, error) {
	s.log().WithField("product_name", in.Name).Info("registering product")

	if err := validation.Product(in.fields()); err != nil {
		return Product{}, err
	}
	taken, err := s.nameTaken(ctx, in.Name)
	if err != nil {
		return Product{}, err
	}
	if taken {
		return Product{}, duplicateName(in.Name)
	}

	p := Product{
		Name:        strings.TrimSpace(in.Name),
		Price:       *in.Price,
		Quantity:    *in.Quantity,
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.Store.Insert(ctx, &p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Product{}, duplicateName(in.Name)
		}
		return Product{}, err
	}
	s.log().WithField("product_id", p.ID).Info("product registered")
	s.stockChanged(ctx, p.ID, p.Quantity, true)
	return p, nil
}

func (s *Service) get(ctx context.Context, id int64) (Product, error) {
	p, err := s.Store.ByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, apperr.NotFound("Product not found with ID: %d", id)
	}
	return p, err
}

func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (Product, error) {
	s.log().WithField("product_id", id).Info("updating product")

	p, err := s.get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := validation.Product(in.fields()); err != nil {
		return Product{}, err
	}
	if p.Name != in.Name {
		taken, err := s.nameTaken(ctx, in.Name)
		if err != nil {
			return Product{}, err
		}
		if taken {
			return Product{}, duplicateName(in.Name)
		}
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Price = *in.Price
	p.Quantity = *in.Quantity
	p.Category = strings.TrimSpace(in.Category)
	p.Description = in.Description
	p.ImageURL = in.ImageURL
	if err := s.Store.Update(ctx, &p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Product{}, duplicateName(in.Name)
		}
		return Product{}, err
	}
	s.log().WithField("product_id", id).Info("product updated")
	s.stockChanged(ctx, p.ID, p.Quantity, p.Active)
	return p, nil
}

// Delete hides the product. Order history keeps referring to it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.log().WithField("product_id", id).Info("deleting product")

	p, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.stockChanged(ctx, id, p.Quantity, false)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (Product, error) {
	return s.get(ctx, id)
}

func (s *Service) search(ctx context.Context, term string, find func(context.Context, string) ([]Product, error)) ([]Product, error) {
	s.log().WithField("term", validation.Sanitize(term)).Info("searching products")

	if err := validation.SearchTerm(term); err != nil {
		return nil, err
	}
	out, err := find(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("Product not found")
	}
	return out, nil
}

func (s *Service) SearchByName(ctx context.Context, name string) ([]Product, error) {
	return s.search(ctx, name, s.Store.SearchByName)
}

// Search matches the term against product names and categories.
func (s *Service) Search(ctx context.Context, term string) ([]Product, error) {
	return s.search(ctx, term, s.Store.Search)
}

func (s *Service) ListActive(ctx context.Context) ([]Product, error) {
	return s.Store.ListActive(ctx)
}

func (s *Service) ByCategory(ctx context.Context, category string) ([]Product, error) {
	if err := validation.GuardInjection(category, "Category"); err != nil {
		return nil, err
	}
	return s.Store.ByCategory(ctx, category)
}

func (s *Service) InStock(ctx context.Context) ([]Product, error) {
	return s.Store.InStock(ctx)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.Store.Categories(ctx)
}

func (s *Service) UpdateQuantity(ctx context.Context, id int64, quantity *int) error {
	p, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := validation.Quantity(quantity); err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"product_id": id, "quantity": *quantity}).Info("updating product quantity")
	if err := s.Store.SetQuantity(ctx, id, *quantity); err != nil {
		return err
	}
	s.stockChanged(ctx, id, *quantity, p.Active)
	return nil
}

// LowStock lists active products with at most threshold units left.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	if threshold < 0 {
		return nil, apperr.Validation("Threshold cannot be negative")
	}
	return s.Store.AtOrBelow(ctx, threshold)
}

// Reserve holds quantity units of a product for a customer outside of any
// order. The stock check and decrement happen under one row lock.
func (s *Service) Reserve(ctx context.Context, productID, customerID int64, quantity int) (Product, error) {
	s.log().WithFields(logrus.Fields{
		"product_id":  productID,
		"customer_id": customerID,
		"quantity":    quantity,
	}).Info("reserving product")

	if quantity < 1 {
		return Product{}, apperr.Validation("Quantity must be at least 1")
	}
	p, err := s.Store.Reserve(ctx, productID, customerID, quantity)
	switch {
	case errors.Is(err, ErrNotFound):
		return Product{}, apperr.NotFound("Product not found with ID: %d", productID)
	case errors.Is(err, ErrShortStock):
		return Product{}, apperr.InsufficientStock(apperr.StockShortage{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Quantity,
			Requested:   quantity,
		})
	case err != nil:
		return Product{}, err
	}
	s.log().WithField("product_id", productID).Info("product reserved")
	s.stockChanged(ctx, p.ID, p.Quantity, p.Active)
	return p, nil
}

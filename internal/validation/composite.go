package validation

import (
	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/shopspring/decimal"
)

// CustomerFields are the profile fields shared by registration and update.
type CustomerFields struct {
	Name          string
	Email         string
	Address       string
	ContactNumber string
}

type ProductFields struct {
	Name        string
	Price       *decimal.Decimal
	Quantity    *int
	Category    string
	Description string
}

type OrderLine struct {
	ProductID int64
	Quantity  int
}

type OrderFields struct {
	DeliveryAddress string
	ContactNumber   string
	Items           []OrderLine
	DeclaredTotal   *decimal.Decimal
}

// first returns the first non-nil error.
func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func guardCustomer(c CustomerFields) error {
	return first(
		GuardInjection(c.Name, "Customer Name"),
		GuardInjection(c.Email, "Email"),
		GuardInjection(c.Address, "Address"),
		GuardInjection(c.ContactNumber, "Contact Number"),
	)
}

func Registration(c CustomerFields, password string) error {
	return first(
		CustomerName(c.Name),
		Email(c.Email),
		Password(password),
		Address(c.Address),
		ContactNumber(c.ContactNumber),
		guardCustomer(c),
	)
}

func CustomerUpdate(c CustomerFields) error {
	return first(
		CustomerName(c.Name),
		Email(c.Email),
		Address(c.Address),
		ContactNumber(c.ContactNumber),
		guardCustomer(c),
	)
}

func Product(p ProductFields) error {
	if err := first(ProductName(p.Name), Price(p.Price), Quantity(p.Quantity)); err != nil {
		return err
	}
	if HasText(p.Category) {
		if err := Category(p.Category); err != nil {
			return err
		}
	}
	if HasText(p.Description) {
		if err := Description(p.Description); err != nil {
			return err
		}
	}
	return first(
		GuardInjection(p.Name, "Product Name"),
		GuardInjection(p.Category, "Category"),
		GuardInjection(p.Description, "Description"),
	)
}

// Order checks a placement request. A cart without items is a manual order
// and must declare its own total; with items the declared total is ignored.
func Order(o OrderFields) error {
	if err := first(
		Address(o.DeliveryAddress),
		ContactNumber(o.ContactNumber),
		GuardInjection(o.DeliveryAddress, "Delivery Address"),
		GuardInjection(o.ContactNumber, "Contact Number"),
	); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		if o.DeclaredTotal == nil {
			return apperr.Validation("Total amount is required")
		}
		if !o.DeclaredTotal.IsPositive() {
			return apperr.Validation("Total amount must be greater than 0")
		}
		if -o.DeclaredTotal.Exponent() > maxPriceScale {
			return apperr.Validation("Total amount must be a valid monetary amount")
		}
		return nil
	}
	for _, it := range o.Items {
		if it.ProductID <= 0 {
			return apperr.Validation("Product ID is required for every order item")
		}
		if it.Quantity < 1 {
			return apperr.Validation("Quantity for product %d must be at least 1", it.ProductID)
		}
	}
	return nil
}

package customers

import "time"

type Customer struct {
	ID            int64     `json:"customer_id"`
	Name          string    `json:"customer_name"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	ContactNumber string    `json:"contact_number"`
	Active        bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PasswordHash  string    `json:"-"`
}

type AdminUser struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	Role         string
	Active       bool
	PasswordHash string
}

type Registration struct {
	Name            string `json:"customer_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Address         string `json:"address"`
	ContactNumber   string `json:"contact_number"`
}

// Profile is the editable part of a customer account.
type Profile struct {
	Name          string `json:"customer_name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
}

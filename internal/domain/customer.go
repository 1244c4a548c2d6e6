package domain

import "time"

// Customer is an end customer who submits repair requests.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is a serviceable product a request may reference.
type Product struct {
	ID           string
	Name         string
	Model        string
	SerialNumber string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

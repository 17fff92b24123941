package payables

import "time"

// Vendor is a supplier bills and purchase orders reference.
type Vendor struct {
	ID          int64
	Name        string
	Contact     string
	Email       string
	Phone       string
	Address     string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package payables

import "errors"

var (
	// ErrVendorNotFound is returned when a vendor id does not resolve for the owner.
	ErrVendorNotFound = errors.New("payables: vendor not found")
	// ErrBillNotFound is returned when a bill id does not resolve for the owner.
	ErrBillNotFound = errors.New("payables: bill not found")
	// ErrOrderNotFound is returned when a purchase order id does not resolve for the owner.
	ErrOrderNotFound = errors.New("payables: purchase order not found")
	// ErrDeclarationNotFound is returned when a tax declaration id does not resolve for the owner.
	ErrDeclarationNotFound = errors.New("payables: tax declaration not found")
)
